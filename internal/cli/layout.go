package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fsmflow/internal/server"
	"github.com/matzehuels/fsmflow/pkg/config"
	"github.com/matzehuels/fsmflow/pkg/errors"
	"github.com/matzehuels/fsmflow/pkg/graph"
	"github.com/matzehuels/fsmflow/pkg/layout"
	"github.com/matzehuels/fsmflow/pkg/pipeline"
)

// layoutFlags are shared by layout and render.
type layoutFlags struct {
	src       sourceFlags
	output    string
	direction string
	engine    string
	noCache   bool
	refresh   bool
}

func (f *layoutFlags) register(cmd *cobra.Command, outputHelp string) {
	f.src.register(cmd)
	cmd.Flags().StringVarP(&f.output, "output", "o", "", outputHelp)
	cmd.Flags().StringVar(&f.direction, "direction", "", "layout direction: TB, LR, BT, RL (default: configured per machine)")
	cmd.Flags().StringVar(&f.engine, "engine", "", "layout engine: dot, layered (default: layout.engine from config)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the layout cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when the layout is cached")
}

// layoutCommand computes the positioned flow of one machine.
func (c *CLI) layoutCommand() *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "layout [machine]",
		Short: "Compute the positioned graph of a state machine",
		Long: `Compute the positioned graph of a state machine.

The machine is fetched from the backend (or read from --file) and laid out in
its configured direction. The result is written as JSON with node positions,
anchor sides and normalized edges. Without a machine argument the first
machine of the catalog is used.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), cfg, firstArg(args), flags)
		},
	}

	flags.register(cmd, "output file, - for stdout (default: <machine>.layout.json)")
	return cmd
}

func (c *CLI) runLayout(ctx context.Context, cfg *config.Config, machine string, flags layoutFlags) error {
	res, kind, err := c.computeLayout(ctx, cfg, machine, flags)
	if err != nil {
		return err
	}

	if flags.output == "-" {
		return graph.WriteFlow(res.Flow, c.Out)
	}
	out := flags.output
	if out == "" {
		out = res.Flow.Machine + ".layout.json"
	}
	if err := graph.WriteFlowFile(res.Flow, out); err != nil {
		return fmt.Errorf("write output %s: %w", out, err)
	}

	printSuccess(c.Out, "Layout of %s complete", StyleHighlight.Render(res.Flow.Machine))
	printFile(c.Out, out)
	printStats(c.Out, pipeline.StatsOf(res.Flow), kind, res.CacheHit)
	fmt.Fprintln(c.Out)
	printNextStep(c.Out, "Render", appName+" render "+res.Flow.Machine)
	return nil
}

// computeLayout resolves the machine, fetches its description and lays it
// out. It returns the machine's type alongside the result.
func (c *CLI) computeLayout(ctx context.Context, cfg *config.Config, machine string, flags layoutFlags) (*pipeline.Result, string, error) {
	backend, _, closeFn, err := c.openSource(ctx, cfg, flags.src)
	if err != nil {
		return nil, "", err
	}
	defer closeFn()

	machine, kind, err := resolveMachine(ctx, backend, machine)
	if err != nil {
		return nil, "", err
	}

	opts, err := layoutOptions(cfg, machine, flags)
	if err != nil {
		return nil, "", err
	}

	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return nil, "", fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	desc, err := backend.Graph(ctx, machine)
	if err != nil {
		return nil, "", err
	}
	spinner := newSpinner(ctx, c.logOut, "Computing "+machine+" layout...")
	spinner.Start()
	res, err := runner.Layout(ctx, desc, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return nil, "", err
	}
	spinner.Stop()
	c.Logger.Debug("layout ready", "machine", machine, "cache_hit", res.CacheHit)
	if !res.CacheHit {
		prog.done("Computed " + machine + " layout")
	}
	return res, kind, nil
}

// layoutOptions merges flags over the configuration.
func layoutOptions(cfg *config.Config, machine string, flags layoutFlags) (pipeline.Options, error) {
	dirs, err := cfg.Directions()
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		Machine:   machine,
		Direction: dirs.Lookup(machine),
		Engine:    cfg.Layout.Engine,
		Width:     cfg.Layout.NodeWidth,
		Height:    cfg.Layout.NodeHeight,
		NodeSep:   cfg.Layout.NodeSep,
		RankSep:   cfg.Layout.RankSep,
		Refresh:   flags.refresh,
	}
	if flags.direction != "" {
		d, err := layout.ParseDirection(flags.direction)
		if err != nil {
			return pipeline.Options{}, err
		}
		opts.Direction = d
	}
	if flags.engine != "" {
		opts.Engine = flags.engine
	}
	return opts, opts.Validate()
}

// resolveMachine checks machine against the backend's machine list, or
// picks the first machine when machine is empty.
func resolveMachine(ctx context.Context, backend server.Backend, machine string) (string, string, error) {
	if machine != "" {
		if err := errors.ValidateMachineName(machine); err != nil {
			return "", "", err
		}
	}
	infos, err := backend.Machines(ctx)
	if err != nil {
		return "", "", err
	}
	if machine == "" {
		if len(infos) == 0 {
			return "", "", errors.New(errors.ErrCodeNotFound, "backend has no machines")
		}
		return infos[0].ID, infos[0].Type, nil
	}
	for _, m := range infos {
		if m.ID == machine {
			return m.ID, m.Type, nil
		}
	}
	return "", "", errors.New(errors.ErrCodeMachineNotFound, "Machine not found: %s", machine)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
