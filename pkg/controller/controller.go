package controller

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/fsmflow/pkg/errors"
	"github.com/matzehuels/fsmflow/pkg/graph"
	"github.com/matzehuels/fsmflow/pkg/layout"
	"github.com/matzehuels/fsmflow/pkg/pipeline"
)

// State is the load state of the catalog.
type State string

const (
	Loading State = "loading"
	Ready   State = "ready"
	Failed  State = "failed"
)

// Layouter computes flows. *pipeline.Runner satisfies it.
type Layouter interface {
	Layout(ctx context.Context, desc graph.Description, opts pipeline.Options) (*pipeline.Result, error)
}

// Config is the static view configuration.
type Config struct {
	Directions layout.Directions
	Engine     string      // Empty selects the pipeline default
	Size       layout.Size // Zero selects the layout default
	Spacing    layout.Spacing
	Initial    string // Machine selected after loading; first machine when empty or unknown
}

// Machine is one entry of the machine list.
type Machine struct {
	graph.MachineInfo
	Direction layout.Direction `json:"direction"`
}

// Snapshot is an immutable copy of the view.
type Snapshot struct {
	Version     uint64           `json:"version"`
	State       State            `json:"state"`
	Err         string           `json:"error,omitempty"`
	Machines    []Machine        `json:"machines"`
	Selected    string           `json:"selected,omitempty"`
	Direction   layout.Direction `json:"direction,omitempty"`
	Flow        *graph.Flow      `json:"flow,omitempty"`
	Stats       pipeline.Stats   `json:"stats"`
	Kind        string           `json:"type,omitempty"`
	CacheHit    bool             `json:"cache_hit"`
	LayoutError string           `json:"layout_error,omitempty"`
}

// Machine returns the list entry for id.
func (s Snapshot) Machine(id string) (Machine, bool) {
	for _, m := range s.Machines {
		if m.ID == id {
			return m, true
		}
	}
	return Machine{}, false
}

// Controller holds the view state. It is safe for concurrent use.
type Controller struct {
	src    Source
	runner Layouter
	logger *log.Logger

	// compute serializes Load, Select and SetDirection.
	compute sync.Mutex

	mu        sync.RWMutex
	cfg       Config
	catalog   *graph.Catalog
	infos     map[string]graph.MachineInfo
	snap      Snapshot
	subs      map[int]chan Snapshot
	nextSubID int
}

// New returns a controller in the Loading state.
func New(src Source, runner Layouter, cfg Config, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Directions.Default == "" {
		cfg.Directions.Default = layout.DefaultDirection
	}
	return &Controller{
		src:    src,
		runner: runner,
		logger: logger,
		cfg:    cfg,
		snap:   Snapshot{State: Loading},
		subs:   make(map[int]chan Snapshot),
	}
}

// Load fetches the catalog and machine metadata in parallel. On failure
// the controller enters Failed and keeps the error message; it does not
// retry. On success it selects the initial machine.
func (c *Controller) Load(ctx context.Context) error {
	c.compute.Lock()
	defer c.compute.Unlock()

	c.update(func(s *Snapshot) {
		s.State, s.Err = Loading, ""
	})

	var (
		catalog *graph.Catalog
		infos   []graph.MachineInfo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalog, err = c.src.Catalog(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		infos, err = c.src.Machines(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		c.logger.Error("load machines", "error", err)
		c.update(func(s *Snapshot) {
			s.State, s.Err = Failed, errors.UserMessage(err)
		})
		return err
	}

	byID := make(map[string]graph.MachineInfo, len(infos))
	for _, info := range infos {
		byID[info.ID] = info
	}

	c.mu.Lock()
	c.catalog, c.infos = catalog, byID
	initial := c.cfg.Initial
	c.mu.Unlock()

	c.update(func(s *Snapshot) {
		s.State, s.Err = Ready, ""
		s.Machines = c.machineList()
		s.Selected, s.Flow, s.Direction, s.LayoutError = "", nil, "", ""
	})
	c.logger.Info("loaded machines", "count", catalog.Len())

	if _, ok := catalog.Get(initial); !ok {
		ids := catalog.IDs()
		if len(ids) == 0 {
			return nil
		}
		initial = ids[0]
	}
	return c.recompute(ctx, initial)
}

// Select shows machine and recomputes its layout.
func (c *Controller) Select(ctx context.Context, machine string) error {
	c.compute.Lock()
	defer c.compute.Unlock()
	if err := c.checkMachine(machine); err != nil {
		return err
	}
	return c.recompute(ctx, machine)
}

// SetDirection overrides the direction of machine and recomputes when it
// is the selected one.
func (c *Controller) SetDirection(ctx context.Context, machine string, dir layout.Direction) error {
	if !dir.Valid() {
		return errors.New(errors.ErrCodeInvalidDirection, "invalid direction %q", dir)
	}
	c.compute.Lock()
	defer c.compute.Unlock()
	if err := c.checkMachine(machine); err != nil {
		return err
	}

	c.mu.Lock()
	c.cfg.Directions = c.cfg.Directions.With(machine, dir)
	c.mu.Unlock()

	if c.Snapshot().Selected != machine {
		c.update(func(s *Snapshot) { s.Machines = c.machineList() })
		return nil
	}
	return c.recompute(ctx, machine)
}

// ToggleDirection flips the selected machine between vertical and
// horizontal layout.
func (c *Controller) ToggleDirection(ctx context.Context) error {
	s := c.Snapshot()
	if s.Selected == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no machine selected")
	}
	return c.SetDirection(ctx, s.Selected, s.Direction.Toggle())
}

// Direction returns the configured direction of machine.
func (c *Controller) Direction(machine string) layout.Direction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.Directions.Lookup(machine)
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Subscribe returns a channel receiving every new snapshot, starting with
// the current one, and its subscription id. A slow subscriber only misses
// intermediate snapshots, never the latest.
func (c *Controller) Subscribe() (int, <-chan Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan Snapshot, 1)
	ch <- c.snap
	id := c.nextSubID
	c.nextSubID++
	c.subs[id] = ch
	return id, ch
}

// Unsubscribe closes the subscription's channel.
func (c *Controller) Unsubscribe(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch, ok := c.subs[id]; ok {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Controller) checkMachine(machine string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap.State != Ready {
		return errors.New(errors.ErrCodeInvalidInput, "machines are not loaded")
	}
	if _, ok := c.catalog.Get(machine); !ok {
		return errors.New(errors.ErrCodeMachineNotFound, "Machine not found")
	}
	return nil
}

// recompute lays out machine with its configured direction and publishes
// the result. Callers hold c.compute.
func (c *Controller) recompute(ctx context.Context, machine string) error {
	c.mu.RLock()
	desc, _ := c.catalog.Get(machine)
	cfg := c.cfg
	info, hasInfo := c.infos[machine]
	c.mu.RUnlock()

	dir := cfg.Directions.Lookup(machine)
	res, err := c.runner.Layout(ctx, desc, pipeline.Options{
		Machine:   machine,
		Direction: dir,
		Engine:    cfg.Engine,
		Width:     cfg.Size.Width,
		Height:    cfg.Size.Height,
		NodeSep:   cfg.Spacing.NodeSep,
		RankSep:   cfg.Spacing.RankSep,
	})

	kind := ""
	if hasInfo {
		kind = info.Type
	}
	if err != nil {
		c.logger.Warn("layout failed", "machine", machine, "error", err)
		c.update(func(s *Snapshot) {
			s.Selected, s.Direction, s.Kind = machine, dir, kind
			s.Flow, s.Stats, s.CacheHit = nil, pipeline.Stats{}, false
			s.LayoutError = errors.UserMessage(err)
			s.Machines = c.machineList()
		})
		return err
	}

	flow := res.Flow
	c.update(func(s *Snapshot) {
		s.Selected, s.Direction, s.Kind = machine, dir, kind
		s.Flow = &flow
		s.Stats = pipeline.StatsOf(flow)
		s.CacheHit = res.CacheHit
		s.LayoutError = ""
		s.Machines = c.machineList()
	})
	return nil
}

// machineList builds list entries in catalog order. Metadata missing from
// the backend is derived from the description. Callers hold c.mu.
func (c *Controller) machineList() []Machine {
	ids := c.catalog.IDs()
	out := make([]Machine, 0, len(ids))
	for _, id := range ids {
		info, ok := c.infos[id]
		if !ok {
			d, _ := c.catalog.Get(id)
			info = d.Info(id, "")
		}
		out = append(out, Machine{MachineInfo: info, Direction: c.cfg.Directions.Lookup(id)})
	}
	return out
}

// update mutates the snapshot, bumps its version and notifies subscribers.
func (c *Controller) update(fn func(*Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.snap)
	c.snap.Machines = append([]Machine(nil), c.snap.Machines...)
	c.snap.Version++
	for _, ch := range c.subs {
		publish(ch, c.snap)
	}
}

// publish replaces any unread snapshot in ch with s.
func publish(ch chan Snapshot, s Snapshot) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}
