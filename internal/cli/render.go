package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fsmflow/pkg/config"
	"github.com/matzehuels/fsmflow/pkg/pipeline"
)

// renderCommand lays out a machine and writes it as SVG, DOT or JSON.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags  layoutFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "render [machine]",
		Short: "Render a state machine to SVG or DOT",
		Long: `Render a state machine to SVG or DOT.

Formats:
  svg       positioned graph drawn with rounded boxes and labelled edges
  dot       Graphviz DOT source
  graphviz  DOT source rendered to SVG by Graphviz
  json      positioned graph as JSON (same as 'layout')`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormat(format); err != nil {
				return err
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), cfg, firstArg(args), format, flags)
		},
	}

	flags.register(cmd, "output file, - for stdout (default: <machine>.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatSVG, "output format: "+strings.Join(formatNames(), ", "))
	return cmd
}

func (c *CLI) runRender(ctx context.Context, cfg *config.Config, machine, format string, flags layoutFlags) error {
	res, kind, err := c.computeLayout(ctx, cfg, machine, flags)
	if err != nil {
		return err
	}
	data, err := pipeline.Render(ctx, res.Flow, format)
	if err != nil {
		return err
	}

	if flags.output == "-" {
		_, err := c.Out.Write(data)
		return err
	}
	out := flags.output
	if out == "" {
		out = res.Flow.Machine + "." + extension(format)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", out, err)
	}

	printSuccess(c.Out, "Rendered %s", StyleHighlight.Render(res.Flow.Machine))
	printFile(c.Out, out)
	printStats(c.Out, pipeline.StatsOf(res.Flow), kind, res.CacheHit)
	return nil
}

func formatNames() []string {
	return []string{pipeline.FormatSVG, pipeline.FormatDOT, pipeline.FormatGraphviz, pipeline.FormatJSON}
}

// extension maps a format onto a file extension.
func extension(format string) string {
	switch format {
	case pipeline.FormatGraphviz:
		return "graphviz.svg"
	case pipeline.FormatJSON:
		return "layout.json"
	}
	return format
}
