package pipeline

import (
	"sort"

	"github.com/matzehuels/fsmflow/pkg/errors"
	"github.com/matzehuels/fsmflow/pkg/layout"
	"github.com/matzehuels/fsmflow/pkg/layout/graphviz"
	"github.com/matzehuels/fsmflow/pkg/layout/layered"
)

// Engine names.
const (
	EngineDot     = "dot"
	EngineLayered = "layered"
)

// DefaultEngine is used when Options.Engine is empty.
const DefaultEngine = EngineDot

var engines = map[string]func() layout.Engine{
	EngineDot:     func() layout.Engine { return graphviz.New() },
	EngineLayered: func() layout.Engine { return layered.New() },
}

// EngineNames lists the available engines in sorted order.
func EngineNames() []string {
	names := make([]string, 0, len(engines))
	for n := range engines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ValidateEngine checks that name is a known engine.
func ValidateEngine(name string) error {
	if _, ok := engines[name]; !ok {
		return errors.New(errors.ErrCodeInvalidEngine, "invalid engine: %q (must be one of: %v)", name, EngineNames())
	}
	return nil
}

// NewEngine returns a fresh engine. An empty name selects DefaultEngine.
func NewEngine(name string) (layout.Engine, error) {
	if name == "" {
		name = DefaultEngine
	}
	if err := ValidateEngine(name); err != nil {
		return nil, err
	}
	return engines[name](), nil
}
