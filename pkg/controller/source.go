package controller

import (
	"context"

	"github.com/matzehuels/fsmflow/pkg/fsm"
	"github.com/matzehuels/fsmflow/pkg/graph"
)

// Source supplies the machine catalog and its metadata.
// *client.Client satisfies it.
type Source interface {
	Catalog(ctx context.Context) (*graph.Catalog, error)
	Machines(ctx context.Context) ([]graph.MachineInfo, error)
}

// RegistrySource serves machines from local definitions.
type RegistrySource struct {
	Registry *fsm.Registry
}

// FromRegistry adapts r to a Source.
func FromRegistry(r *fsm.Registry) RegistrySource { return RegistrySource{Registry: r} }

func (s RegistrySource) Catalog(ctx context.Context) (*graph.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Registry.Catalog(), nil
}

func (s RegistrySource) Machines(ctx context.Context) ([]graph.MachineInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Registry.Machines(), nil
}

func (s RegistrySource) Graph(ctx context.Context, name string) (graph.Description, error) {
	if err := ctx.Err(); err != nil {
		return graph.Description{}, err
	}
	return s.Registry.Graph(name)
}
