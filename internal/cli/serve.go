package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fsmflow/internal/server"
	"github.com/matzehuels/fsmflow/pkg/client"
	"github.com/matzehuels/fsmflow/pkg/config"
	"github.com/matzehuels/fsmflow/pkg/controller"
	"github.com/matzehuels/fsmflow/pkg/fsm"
	"github.com/matzehuels/fsmflow/pkg/storage/mongo"
)

type serveFlags struct {
	addr     string
	machines string
	mongoURI string
	upstream string
	engine   string
	redisURL string
	noCache  bool
}

// serveCommand runs the HTTP server.
func (c *CLI) serveCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve machine graphs, layouts and the live view over HTTP",
		Long: `Serve machine graphs, layouts and the live view over HTTP.

Machines come from MongoDB (--mongo-uri), from definition files (--machines),
from another backend (--upstream) or, by default, from the built-in demo
machines.

Endpoints:
  GET  /graph-data               every machine's graph
  GET  /graph-data/{name}        one machine's graph
  GET  /machines                 machine metadata
  GET  /layout/{name}            positioned graph (?direction=&engine=)
  GET  /render/{name}.svg|.dot   rendered graph
  GET  /view                     current view
  POST /view/select/{name}       select a machine
  POST /view/direction/{name}    set (?direction=) or toggle the direction
  GET  /events                   view updates as server-sent events`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg, flags.upstream, flags.noCache)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (default: server.addr from config, "+config.DefaultAddr+")")
	cmd.Flags().StringVar(&flags.machines, "machines", "", "definition file or directory")
	cmd.Flags().StringVar(&flags.mongoURI, "mongo-uri", "", "load definitions from MongoDB")
	cmd.Flags().StringVar(&flags.upstream, "upstream", "", "proxy machines from another backend")
	cmd.Flags().StringVar(&flags.engine, "engine", "", "default layout engine: dot, layered")
	cmd.Flags().StringVar(&flags.redisURL, "redis-url", "", "cache layouts in Redis")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable the layout cache")
	cmd.MarkFlagsMutuallyExclusive("machines", "mongo-uri", "upstream")
	return cmd
}

// apply copies explicitly set flags over cfg.
func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("addr", &cfg.Server.Addr, f.addr)
	set("machines", &cfg.Server.Machines, f.machines)
	set("mongo-uri", &cfg.Storage.MongoURI, f.mongoURI)
	set("engine", &cfg.Layout.Engine, f.engine)
	set("redis-url", &cfg.Cache.RedisURL, f.redisURL)
	// Explicit sources win over configured ones.
	if cmd.Flags().Changed("machines") || cmd.Flags().Changed("upstream") {
		cfg.Storage.MongoURI = ""
	}
	if cmd.Flags().Changed("mongo-uri") || cmd.Flags().Changed("upstream") {
		cfg.Server.Machines = ""
	}
}

func (c *CLI) runServe(ctx context.Context, cfg *config.Config, upstream string, noCache bool) error {
	logger := loggerFromContext(ctx)

	backend, from, closeFn, err := c.openBackend(ctx, cfg, upstream)
	if err != nil {
		return err
	}
	defer closeFn()
	logger.Info("serving machines", "from", from)

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	dirs, err := cfg.Directions()
	if err != nil {
		return err
	}
	view, err := newView(cfg, backend, runner, c)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	if err := view.Load(ctx); err != nil {
		// The view reports the failure; the API stays available.
		logger.Warn("view not loaded", "error", err)
	} else {
		prog.done(fmt.Sprintf("Loaded %d machines", len(view.Snapshot().Machines)))
	}

	srv := server.New(backend, runner, view, server.Config{
		Addr:       cfg.Server.Addr,
		Directions: dirs,
		Engine:     cfg.Layout.Engine,
		Size:       cfg.Size(),
		Spacing:    cfg.Spacing(),
	}, logger)
	return srv.Run(ctx)
}

// openBackend picks the machine source for serve.
func (c *CLI) openBackend(ctx context.Context, cfg *config.Config, upstream string) (server.Backend, string, func(), error) {
	noop := func() {}
	switch {
	case upstream != "":
		cl, err := client.New(upstream, client.WithRetry(3, backendRetryDelay))
		if err != nil {
			return nil, "", noop, err
		}
		return cl, cl.BaseURL(), noop, nil

	case cfg.Storage.MongoURI != "":
		store, err := mongo.Connect(ctx, cfg.Storage.MongoURI, cfg.Storage.Database)
		if err != nil {
			return nil, "", noop, err
		}
		return store, "mongodb", func() { _ = store.Close(context.Background()) }, nil

	case cfg.Server.Machines != "":
		defs, err := fsm.LoadPath(cfg.Server.Machines)
		if err != nil {
			return nil, "", noop, err
		}
		return controller.FromRegistry(fsm.NewRegistry(defs...)), cfg.Server.Machines, noop, nil
	}
	return controller.FromRegistry(fsm.NewRegistry(fsm.Demo()...)), "demo machines", noop, nil
}
