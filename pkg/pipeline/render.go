package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/fsmflow/pkg/errors"
	"github.com/matzehuels/fsmflow/pkg/graph"
	"github.com/matzehuels/fsmflow/pkg/layout/graphviz"
	"github.com/matzehuels/fsmflow/pkg/render/svg"
)

// Output formats.
const (
	FormatSVG      = "svg"      // Positioned flow drawn by pkg/render/svg
	FormatDOT      = "dot"      // Graphviz DOT export
	FormatGraphviz = "graphviz" // DOT export rendered to SVG by Graphviz
	FormatJSON     = "json"     // Positioned flow as JSON
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:      true,
	FormatDOT:      true,
	FormatGraphviz: true,
	FormatJSON:     true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, dot, graphviz, json)", format)
	}
	return nil
}

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	switch format {
	case FormatSVG, FormatGraphviz:
		return "image/svg+xml"
	case FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	}
	return "application/json"
}

// Render encodes a positioned flow in the given format.
func Render(ctx context.Context, f graph.Flow, format string) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	switch format {
	case FormatSVG:
		return svg.Render(f, svg.WithTitle(f.Machine)), nil
	case FormatDOT:
		return []byte(graphviz.ToDOT(f)), nil
	case FormatGraphviz:
		data, err := graphviz.RenderSVG(ctx, graphviz.ToDOT(f))
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		return data, nil
	default:
		return graph.MarshalFlow(f)
	}
}
