package graphviz

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/fsmflow/pkg/layout"
)

// plainFormat is Graphviz's line-oriented layout output.
const plainFormat graphviz.Format = "plain"

// Engine runs the dot layout algorithm. The Graphviz runtime is created on
// first use and shared by later calls; calls are serialized.
// The zero value is ready to use.
type Engine struct {
	mu sync.Mutex
	gv *graphviz.Graphviz
}

// New returns a dot engine.
func New() *Engine { return &Engine{} }

// Name identifies the engine in cache keys and logs.
func (*Engine) Name() string { return "dot" }

// Positions implements layout.Engine.
func (e *Engine) Positions(nodes []string, edges []layout.EdgePair, opts layout.EngineOptions) (map[string]layout.Point, error) {
	out, err := e.render(context.Background(), layoutDOT(nodes, edges, opts), plainFormat)
	if err != nil {
		return nil, err
	}
	all, err := parsePlain(out)
	if err != nil {
		return nil, err
	}

	// dot creates nodes for dangling edge endpoints; only report the
	// requested ones.
	centres := make(map[string]layout.Point, len(nodes))
	for _, id := range nodes {
		if p, ok := all[id]; ok {
			centres[id] = p
		}
	}
	return centres, nil
}

// Close releases the Graphviz runtime.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gv == nil {
		return nil
	}
	err := e.gv.Close()
	e.gv = nil
	return err
}

func (e *Engine) render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gv == nil {
		gv, err := graphviz.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("init graphviz: %w", err)
		}
		e.gv = gv
	}

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := e.gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// RenderSVG renders a DOT document to SVG with a normalized viewBox.
func (e *Engine) RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	svg, err := e.render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(svg), nil
}

// RenderSVG renders a DOT document to SVG with a throwaway engine.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	e := New()
	defer e.Close()
	return e.RenderSVG(ctx, dot)
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
