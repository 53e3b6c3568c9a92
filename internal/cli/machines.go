package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fsmflow/pkg/config"
)

// machinesCommand lists machines with their type, size and direction.
func (c *CLI) machinesCommand() *cobra.Command {
	var (
		src    sourceFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "machines",
		Short: "List available state machines",
		Long: `List the state machines offered by a backend or by local definition files.

The direction column shows the layout direction configured for each machine.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			return c.runMachines(cmd.Context(), cfg, src, asJSON)
		},
	}

	src.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the machine list as JSON")
	return cmd
}

func (c *CLI) runMachines(ctx context.Context, cfg *config.Config, src sourceFlags, asJSON bool) error {
	backend, from, closeFn, err := c.openSource(ctx, cfg, src)
	if err != nil {
		return err
	}
	defer closeFn()

	infos, err := backend.Machines(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(c.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	if len(infos) == 0 {
		printInfo(c.Out, "No machines at %s", from)
		return nil
	}

	dirs, err := cfg.Directions()
	if err != nil {
		return err
	}
	rows := make([][]string, len(infos))
	for i, m := range infos {
		rows[i] = []string{m.ID, m.Type, strconv.Itoa(m.Nodes), strconv.Itoa(m.Edges), dirs.Lookup(m.ID).String()}
	}
	fmt.Fprintln(c.Out, renderTable([]string{"Machine", "Type", "States", "Transitions", "Direction"}, rows))
	printDetail(c.Out, "%d machines from %s", len(infos), from)
	return nil
}
