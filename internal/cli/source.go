package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fsmflow/internal/server"
	"github.com/matzehuels/fsmflow/pkg/cache"
	"github.com/matzehuels/fsmflow/pkg/client"
	"github.com/matzehuels/fsmflow/pkg/config"
	"github.com/matzehuels/fsmflow/pkg/controller"
	"github.com/matzehuels/fsmflow/pkg/fsm"
)

// backendRetryDelay is the first backoff between backend attempts.
const backendRetryDelay = 300 * time.Millisecond

// sourceFlags select where client commands read machines from: local
// definitions (--file), the built-in demo machines (--demo) or a backend
// (--backend, the configured backend by default).
type sourceFlags struct {
	backend string
	file    string
	demo    bool
	cached  bool
	retries int
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.backend, "backend", "", "backend URL (default: server.backend from config)")
	cmd.Flags().StringVar(&f.file, "file", "", "definition file or directory instead of a backend")
	cmd.Flags().BoolVar(&f.demo, "demo", false, "use the built-in demo machines")
	cmd.Flags().BoolVar(&f.cached, "cached", false, "cache backend responses")
	cmd.Flags().IntVar(&f.retries, "retries", 1, "attempts per backend request")
	cmd.MarkFlagsMutuallyExclusive("backend", "file", "demo")
}

// openSource returns the selected machine source and a short description
// of it for status output.
func (c *CLI) openSource(ctx context.Context, cfg *config.Config, f sourceFlags) (server.Backend, string, func(), error) {
	noop := func() {}
	switch {
	case f.file != "":
		defs, err := fsm.LoadPath(f.file)
		if err != nil {
			return nil, "", noop, err
		}
		c.Logger.Debug("loaded definitions", "path", f.file, "machines", len(defs))
		return controller.FromRegistry(fsm.NewRegistry(defs...)), f.file, noop, nil

	case f.demo:
		return controller.FromRegistry(fsm.NewRegistry(fsm.Demo()...)), "demo machines", noop, nil
	}

	url := f.backend
	if url == "" {
		url = cfg.Server.Backend
	}
	opts := []client.Option{client.WithRetry(max(f.retries, 1), backendRetryDelay)}
	closeFn := noop
	if f.cached {
		ch, err := c.newCache(ctx, cfg, false)
		if err != nil {
			return nil, "", noop, err
		}
		opts = append(opts, client.WithCache(ch, cache.TTLHTTP))
		closeFn = func() { _ = ch.Close() }
	}
	cl, err := client.New(url, opts...)
	if err != nil {
		closeFn()
		return nil, "", noop, fmt.Errorf("backend: %w", err)
	}
	return cl, cl.BaseURL(), closeFn, nil
}
