package cli

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/fsmflow/pkg/config"
	"github.com/matzehuels/fsmflow/pkg/controller"
)

// browseCommand opens the terminal machine browser.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		src     sourceFlags
		noCache bool
		initial string
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse state machines in the terminal",
		Long: `Browse state machines in the terminal.

Use the arrow keys to pick a machine; its layout is recomputed on selection.
Press d to toggle between vertical and horizontal layout and q to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if initial != "" {
				cfg.Layout.Initial = initial
			}
			return c.runBrowse(cmd.Context(), cfg, src, noCache)
		},
	}

	src.register(cmd)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the layout cache")
	cmd.Flags().StringVar(&initial, "select", "", "machine selected at start (default: first machine)")
	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, cfg *config.Config, src sourceFlags, noCache bool) error {
	backend, _, closeFn, err := c.openSource(ctx, cfg, src)
	if err != nil {
		return err
	}
	defer closeFn()

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	view, err := newView(cfg, backend, runner, c)
	if err != nil {
		return err
	}
	id, snaps := view.Subscribe()
	defer view.Unsubscribe(id)

	// Logging would tear the alternate screen.
	c.Logger.SetOutput(io.Discard)
	defer c.Logger.SetOutput(c.logOut)

	p := tea.NewProgram(NewBrowseModel(ctx, view, snaps), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// newView builds a controller from the configuration.
func newView(cfg *config.Config, src controller.Source, runner controller.Layouter, c *CLI) (*controller.Controller, error) {
	dirs, err := cfg.Directions()
	if err != nil {
		return nil, err
	}
	return controller.New(src, runner, controller.Config{
		Directions: dirs,
		Engine:     cfg.Layout.Engine,
		Size:       cfg.Size(),
		Spacing:    cfg.Spacing(),
		Initial:    cfg.Layout.Initial,
	}, c.Logger), nil
}
