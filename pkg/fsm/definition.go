package fsm

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Wildcard as a transition source stands for every declared state.
const Wildcard = "*"

// Kind names the machine flavour reported by /machines.
type Kind string

const (
	KindMachine      Kind = "ReactFlowMachine"
	KindHierarchical Kind = "HierarchicalReactFlowMachine"
	KindLocked       Kind = "LockedReactFlowMachine"
	KindAsync        Kind = "AsyncReactFlowMachine"
)

// Definition is one named state machine.
type Definition struct {
	Name        string       `json:"name" yaml:"name" toml:"name" bson:"name"`
	Kind        Kind         `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty" bson:"kind,omitempty"`
	Initial     string       `json:"initial,omitempty" yaml:"initial,omitempty" toml:"initial,omitempty" bson:"initial,omitempty"`
	States      []State      `json:"states" yaml:"states" toml:"states" bson:"states"`
	Transitions []Transition `json:"transitions" yaml:"transitions" toml:"transitions" bson:"transitions"`
}

// KindOrDefault returns the machine kind, or KindMachine when unset.
func (d Definition) KindOrDefault() Kind {
	if d.Kind == "" {
		return KindMachine
	}
	return d.Kind
}

// StateNames returns the declared state names in order, skipping unnamed
// states.
func (d Definition) StateNames() []string {
	names := make([]string, 0, len(d.States))
	for _, s := range d.States {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	return names
}

// State is a declared state. In files it may be written as a bare name or
// as an object with name and label.
type State struct {
	Name  string `json:"name" yaml:"name" toml:"name" bson:"name"`
	Label string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty" bson:"label,omitempty"`
}

// DisplayLabel returns the label, falling back to the name.
func (s State) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Name
}

// stateFields avoids recursing into State's own unmarshalers.
type stateFields State

func (s *State) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*s = State{Name: name}
		return nil
	}
	var f stateFields
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	*s = State(f)
	return nil
}

func (s *State) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*s = State{Name: node.Value}
		return nil
	}
	var f stateFields
	if err := node.Decode(&f); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	*s = State(f)
	return nil
}

func (s *State) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case string:
		*s = State{Name: v}
	case map[string]any:
		name, _ := v["name"].(string)
		label, _ := v["label"].(string)
		*s = State{Name: name, Label: label}
	default:
		return fmt.Errorf("state: unsupported value %T", v)
	}
	return nil
}

// Transition moves the machine from any of Sources to Dest when Trigger
// fires. An empty Dest keeps the machine in its source state.
type Transition struct {
	Trigger string `json:"trigger" yaml:"trigger" toml:"trigger" bson:"trigger"`
	Sources Names  `json:"source" yaml:"source" toml:"source" bson:"source"`
	Dest    string `json:"dest,omitempty" yaml:"dest,omitempty" toml:"dest,omitempty" bson:"dest,omitempty"`
}

// Names is a list of state names that may be written as a single string.
type Names []string

func (n *Names) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*n = Names{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	*n = many
	return nil
}

func (n *Names) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*n = Names{node.Value}
		return nil
	}
	var many []string
	if err := node.Decode(&many); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	*n = many
	return nil
}

func (n *Names) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case string:
		*n = Names{v}
	case []any:
		out := make(Names, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("source: unsupported item %T", item)
			}
			out = append(out, s)
		}
		*n = out
	default:
		return fmt.Errorf("source: unsupported value %T", v)
	}
	return nil
}
