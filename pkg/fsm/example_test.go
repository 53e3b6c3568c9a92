package fsm_test

import (
	"fmt"

	"github.com/matzehuels/fsmflow/pkg/fsm"
)

func ExampleDefinition_Graph() {
	d := fsm.Definition{
		Name:   "turnstile",
		States: []fsm.State{{Name: "locked"}, {Name: "unlocked"}},
		Transitions: []fsm.Transition{
			{Trigger: "coin", Sources: fsm.Names{"locked"}, Dest: "unlocked"},
			{Trigger: "push", Sources: fsm.Names{"unlocked"}, Dest: "locked"},
			{Trigger: "push", Sources: fsm.Names{"locked"}},
			{Trigger: "kick", Sources: fsm.Names{fsm.Wildcard}, Dest: "locked"},
		},
	}
	for _, e := range d.Graph().Edges {
		fmt.Println(e.ID, e.Label)
	}
	// Output:
	// e-locked-unlocked coin
	// e-unlocked-locked push
	// e-locked-locked push
	// e-locked-locked-1 kick
	// e-unlocked-locked-1 kick
}
