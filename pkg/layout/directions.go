package layout

import "maps"

// Directions maps machine ids to layout directions. Machines without an
// entry use Default, and an unset Default means [DefaultDirection].
//
// Values are passed explicitly to whoever needs them; there is no
// package-level mapping.
type Directions struct {
	Default   Direction            `toml:"default_direction"`
	ByMachine map[string]Direction `toml:"machines"`
}

// DefaultDirections returns the mapping for the bundled demo machines:
// the traffic light top to bottom, every other machine left to right.
func DefaultDirections() Directions {
	return Directions{
		Default: TopToBottom,
		ByMachine: map[string]Direction{
			"traffic": TopToBottom,
			"auth":    LeftToRight,
			"device":  LeftToRight,
			"cicd":    LeftToRight,
		},
	}
}

// Lookup returns the direction for machine.
func (d Directions) Lookup(machine string) Direction {
	if dir, ok := d.ByMachine[machine]; ok && dir.Valid() {
		return dir
	}
	if d.Default.Valid() {
		return d.Default
	}
	return DefaultDirection
}

// With returns a copy of d with machine mapped to dir.
func (d Directions) With(machine string, dir Direction) Directions {
	out := Directions{Default: d.Default, ByMachine: make(map[string]Direction, len(d.ByMachine)+1)}
	maps.Copy(out.ByMachine, d.ByMachine)
	out.ByMachine[machine] = dir
	return out
}
