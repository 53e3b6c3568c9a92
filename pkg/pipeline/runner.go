package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fsmflow/pkg/cache"
	"github.com/matzehuels/fsmflow/pkg/graph"
	"github.com/matzehuels/fsmflow/pkg/layout"
	"github.com/matzehuels/fsmflow/pkg/observability"
)

// Runner encapsulates layout execution with caching.
//
// The Runner is stateless except for the cache, the logger and one engine
// instance per engine name. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration // Layout entry lifetime; cache.TTLLayout when zero

	mu      sync.Mutex
	engines map[string]layout.Engine
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
		engines: make(map[string]layout.Engine),
	}
}

// UseEngine installs e under name, replacing the built-in engine of that
// name for this runner.
func (r *Runner) UseEngine(name string, e layout.Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.engines == nil {
		r.engines = make(map[string]layout.Engine)
	}
	r.engines[name] = e
}

func (r *Runner) engine(name string) (layout.Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.engines[name]; ok {
		return e, nil
	}
	e, err := NewEngine(name)
	if err != nil {
		return nil, err
	}
	if r.engines == nil {
		r.engines = make(map[string]layout.Engine)
	}
	r.engines[name] = e
	return e, nil
}

// Layout positions desc. Results are cached by description content and
// options; cache failures are logged and never fail the layout.
func (r *Runner) Layout(ctx context.Context, desc graph.Description, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	start := time.Now()

	descData, err := json.Marshal(desc)
	if err != nil {
		return nil, fmt.Errorf("serialize description: %w", err)
	}
	hash := cache.Hash(descData)
	key := r.Keyer.LayoutKey(hash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if flow, ok := r.cached(ctx, key, opts.Logger); ok {
			flow.Machine = opts.Machine
			return &Result{Flow: flow, Hash: hash, CacheHit: true, Duration: time.Since(start)}, nil
		}
	}

	engine, err := r.engine(opts.Engine)
	if err != nil {
		return nil, err
	}
	t := &layout.Transformer{Engine: engine, Size: opts.Size(), Spacing: opts.Spacing()}

	observability.Layout().OnLayoutStart(ctx, opts.Machine, opts.Engine, len(desc.Nodes))
	flow, err := t.Transform(desc, opts.Direction)
	observability.Layout().OnLayoutComplete(ctx, opts.Machine, opts.Engine, time.Since(start), err)
	if err != nil {
		return nil, layoutFailed(err, opts.Machine)
	}
	flow.Machine = opts.Machine

	if data, err := graph.MarshalFlow(flow); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.ttl()); err != nil {
			opts.Logger.Warn("cache write failed", "key", key, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}

	res := &Result{Flow: flow, Hash: hash, Duration: time.Since(start)}
	opts.Logger.Debug("computed layout",
		"machine", opts.Machine,
		"engine", opts.Engine,
		"direction", opts.Direction,
		"nodes", len(flow.Nodes),
		"edges", len(flow.Edges),
		"duration", res.Duration)
	return res, nil
}

func (r *Runner) cached(ctx context.Context, key string, logger *log.Logger) (graph.Flow, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", "key", key, "error", err)
		return graph.Flow{}, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return graph.Flow{}, false
	}
	flow, err := graph.ReadFlow(bytes.NewReader(data))
	if err != nil {
		// Unreadable entries are recomputed and overwritten.
		observability.Cache().OnCacheMiss(ctx, "layout")
		return graph.Flow{}, false
	}
	observability.Cache().OnCacheHit(ctx, "layout")
	return flow, true
}

func (r *Runner) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return cache.TTLLayout
}

// Close releases the cache and any engine holding native resources.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, e := range r.engines {
		if c, ok := e.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	r.engines = nil
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	return stderrors.Join(errs...)
}
