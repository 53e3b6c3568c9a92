package fsm

import (
	"sync"

	"github.com/matzehuels/fsmflow/pkg/errors"
	"github.com/matzehuels/fsmflow/pkg/graph"
)

// Registry is an ordered set of definitions keyed by name. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	names []string
	defs  map[string]Definition
}

// NewRegistry returns a registry holding defs in order. Later definitions
// with a repeated name replace earlier ones in place.
func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		r.put(d)
	}
	return r
}

// Put validates d and adds or replaces it.
func (r *Registry) Put(d Definition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(d)
	return nil
}

func (r *Registry) put(d Definition) {
	if _, ok := r.defs[d.Name]; !ok {
		r.names = append(r.names, d.Name)
	}
	r.defs[d.Name] = d
}

// Remove deletes a definition. It reports whether one was present.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[name]; !ok {
		return false
	}
	delete(r.defs, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the definition called name.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[name]
	return d, ok
}

// Names returns definition names in registry order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Graph returns the description of one machine.
func (r *Registry) Graph(name string) (graph.Description, error) {
	d, ok := r.Get(name)
	if !ok {
		return graph.Description{}, errors.New(errors.ErrCodeMachineNotFound, "Machine not found")
	}
	return d.Graph(), nil
}

// Catalog builds the /graph-data payload.
func (r *Registry) Catalog() *graph.Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := graph.NewCatalog()
	for _, n := range r.names {
		c.Set(n, r.defs[n].Graph())
	}
	return c
}

// Machines builds the /machines payload.
func (r *Registry) Machines() []graph.MachineInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]graph.MachineInfo, 0, len(r.names))
	for _, n := range r.names {
		d := r.defs[n]
		out = append(out, d.Graph().Info(n, string(d.KindOrDefault())))
	}
	return out
}
