// Package pipeline runs the layout of a machine graph with caching.
//
// The CLI, the HTTP server and the view controller all lay out graphs
// through a [Runner] so they share cache keys, engine instances and
// observability hooks.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	defer runner.Close()
//
//	res, err := runner.Layout(ctx, desc, pipeline.Options{
//	    Machine:   "traffic",
//	    Direction: layout.TopToBottom,
//	})
//	if err != nil {
//	    return err
//	}
//	svg, err := pipeline.Render(ctx, res.Flow, pipeline.FormatSVG)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fsmflow/pkg/cache"
	"github.com/matzehuels/fsmflow/pkg/errors"
	"github.com/matzehuels/fsmflow/pkg/graph"
	"github.com/matzehuels/fsmflow/pkg/layout"
)

// =============================================================================
// Options - Layout Configuration
// =============================================================================

// Options configures one layout run. Zero values are replaced by defaults.
// This struct supports JSON serialization for API requests.
type Options struct {
	Machine   string           `json:"machine,omitempty"`
	Direction layout.Direction `json:"direction,omitempty"`
	Engine    string           `json:"engine,omitempty"`
	Width     float64          `json:"width,omitempty"`
	Height    float64          `json:"height,omitempty"`
	NodeSep   float64          `json:"nodesep,omitempty"`
	RankSep   float64          `json:"ranksep,omitempty"`
	Refresh   bool             `json:"refresh,omitempty"` // Skip the cache lookup

	Logger *log.Logger `json:"-"`
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.Direction == "" {
		o.Direction = layout.DefaultDirection
	}
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if o.Width <= 0 {
		o.Width = layout.DefaultSize.Width
	}
	if o.Height <= 0 {
		o.Height = layout.DefaultSize.Height
	}
	if o.NodeSep <= 0 {
		o.NodeSep = layout.DefaultSpacing.NodeSep
	}
	if o.RankSep <= 0 {
		o.RankSep = layout.DefaultSpacing.RankSep
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks direction and engine. Directions are normalized, so
// "lr" and "left-to-right" become LR.
func (o *Options) Validate() error {
	if o.Direction != "" {
		d, err := layout.ParseDirection(string(o.Direction))
		if err != nil {
			return err
		}
		o.Direction = d
	}
	if o.Engine != "" {
		if err := ValidateEngine(o.Engine); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults validates then applies defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.Validate(); err != nil {
		return err
	}
	o.SetDefaults()
	return nil
}

// Size returns the node box size.
func (o *Options) Size() layout.Size {
	return layout.Size{Width: o.Width, Height: o.Height}
}

// Spacing returns the gaps between boxes.
func (o *Options) Spacing() layout.Spacing {
	return layout.Spacing{NodeSep: o.NodeSep, RankSep: o.RankSep}
}

// LayoutKeyOpts returns cache key options for the layout.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Engine:    o.Engine,
		Direction: o.Direction.String(),
		Width:     o.Width,
		Height:    o.Height,
		NodeSep:   o.NodeSep,
		RankSep:   o.RankSep,
	}
}

// =============================================================================
// Result
// =============================================================================

// Result is the output of a layout run.
type Result struct {
	Flow     graph.Flow
	Hash     string        // Content hash of the input description
	CacheHit bool          // Whether the flow came from the cache
	Duration time.Duration // Wall time of the run
}

// Stats summarizes a flow for display.
type Stats struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// StatsOf returns the node and edge counts of f.
func StatsOf(f graph.Flow) Stats {
	return Stats{Nodes: len(f.Nodes), Edges: len(f.Edges)}
}

// String renders stats as "N states · M transitions".
func (s Stats) String() string {
	return fmt.Sprintf("%d states · %d transitions", s.Nodes, s.Edges)
}

// layoutFailed tags uncoded engine errors.
func layoutFailed(err error, machine string) error {
	if errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeLayoutFailed, err, "layout %s", machine)
}
