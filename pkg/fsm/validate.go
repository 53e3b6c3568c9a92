package fsm

import (
	"github.com/matzehuels/fsmflow/pkg/errors"
)

// Validate checks the definition's structure: a valid name, unique named
// states, transitions that only reference declared states and a declared
// initial state.
func (d Definition) Validate() error {
	if err := errors.ValidateMachineName(d.Name); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDefinition, err, "machine name")
	}

	declared := make(map[string]bool, len(d.States))
	for i, s := range d.States {
		if s.Name == "" {
			return errors.New(errors.ErrCodeInvalidDefinition, "%s: state %d has no name", d.Name, i)
		}
		if declared[s.Name] {
			return errors.New(errors.ErrCodeInvalidDefinition, "%s: duplicate state %q", d.Name, s.Name)
		}
		declared[s.Name] = true
	}

	for i, t := range d.Transitions {
		if t.Trigger == "" {
			return errors.New(errors.ErrCodeInvalidDefinition, "%s: transition %d has no trigger", d.Name, i)
		}
		if len(t.Sources) == 0 {
			return errors.New(errors.ErrCodeInvalidDefinition, "%s: transition %q has no source", d.Name, t.Trigger)
		}
		for _, src := range t.Sources {
			if src != Wildcard && !declared[src] {
				return errors.New(errors.ErrCodeInvalidDefinition, "%s: transition %q: unknown source state %q", d.Name, t.Trigger, src)
			}
		}
		if t.Dest != "" && !declared[t.Dest] {
			return errors.New(errors.ErrCodeInvalidDefinition, "%s: transition %q: unknown dest state %q", d.Name, t.Trigger, t.Dest)
		}
	}

	if d.Initial != "" && !declared[d.Initial] {
		return errors.New(errors.ErrCodeInvalidDefinition, "%s: initial state %q is not declared", d.Name, d.Initial)
	}
	return nil
}
