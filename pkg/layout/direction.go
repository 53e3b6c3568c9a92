package layout

import (
	"strings"

	"github.com/matzehuels/fsmflow/pkg/errors"
	"github.com/matzehuels/fsmflow/pkg/graph"
)

// Direction is the orientation of the layering axis.
type Direction string

// Layout directions.
const (
	TopToBottom Direction = "TB"
	LeftToRight Direction = "LR"
	BottomToTop Direction = "BT"
	RightToLeft Direction = "RL"
)

// DefaultDirection is used for machines without a configured direction.
const DefaultDirection = TopToBottom

// AllDirections lists all supported directions.
var AllDirections = []Direction{TopToBottom, LeftToRight, BottomToTop, RightToLeft}

// ParseDirection parses a direction name. It accepts the short codes
// (TB, LR, BT, RL) and the long forms (top-to-bottom, ...) in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tb", "td", "top-to-bottom":
		return TopToBottom, nil
	case "lr", "left-to-right":
		return LeftToRight, nil
	case "bt", "bottom-to-top":
		return BottomToTop, nil
	case "rl", "right-to-left":
		return RightToLeft, nil
	}
	return "", errors.New(errors.ErrCodeInvalidDirection, "unknown direction %q (want TB, LR, BT or RL)", s)
}

// Valid reports whether d is a supported direction.
func (d Direction) Valid() bool {
	switch d {
	case TopToBottom, LeftToRight, BottomToTop, RightToLeft:
		return true
	}
	return false
}

// Horizontal reports whether ranks run along the x axis.
func (d Direction) Horizontal() bool {
	return d == LeftToRight || d == RightToLeft
}

// Anchors returns the sides where outgoing and incoming edges attach.
// Unknown directions anchor like TopToBottom.
func (d Direction) Anchors() (out, in graph.Anchor) {
	switch d {
	case LeftToRight:
		return graph.AnchorRight, graph.AnchorLeft
	case BottomToTop:
		return graph.AnchorTop, graph.AnchorBottom
	case RightToLeft:
		return graph.AnchorLeft, graph.AnchorRight
	default:
		return graph.AnchorBottom, graph.AnchorTop
	}
}

// Toggle flips between the vertical and horizontal primary directions.
func (d Direction) Toggle() Direction {
	if d.Horizontal() {
		return TopToBottom
	}
	return LeftToRight
}

func (d Direction) String() string { return string(d) }
