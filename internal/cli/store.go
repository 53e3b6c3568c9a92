package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fsmflow/pkg/config"
	"github.com/matzehuels/fsmflow/pkg/errors"
	"github.com/matzehuels/fsmflow/pkg/fsm"
	"github.com/matzehuels/fsmflow/pkg/storage/mongo"
)

// storeCommand manages definitions kept in MongoDB.
func (c *CLI) storeCommand() *cobra.Command {
	var uri, database string

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage machine definitions stored in MongoDB",
		Long: `Manage machine definitions stored in MongoDB.

The connection comes from --mongo-uri, storage.mongo_uri in the config file
or FSMFLOW_MONGO_URI. 'fsmflow serve --mongo-uri' serves the stored machines.`,
	}
	cmd.PersistentFlags().StringVar(&uri, "mongo-uri", "", "MongoDB connection string")
	cmd.PersistentFlags().StringVar(&database, "database", "", "database name (default: storage.database from config)")

	open := func(ctx context.Context) (*mongo.Store, error) {
		cfg, err := c.config()
		if err != nil {
			return nil, err
		}
		return openStore(ctx, cfg, uri, database)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file|dir>...",
		Short: "Validate definitions and upsert them into the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var defs []fsm.Definition
			for _, path := range args {
				d, err := fsm.LoadPath(path)
				if err != nil {
					return err
				}
				defs = append(defs, d...)
			}
			store, err := open(ctx)
			if err != nil {
				return err
			}
			defer store.Close(context.Background())

			for _, d := range defs {
				if err := store.Put(ctx, d); err != nil {
					return err
				}
				printDetail(c.Out, "stored %s", d.Name)
			}
			printSuccess(c.Out, "Imported %d machines", len(defs))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored machines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := open(ctx)
			if err != nil {
				return err
			}
			defer store.Close(context.Background())

			defs, err := store.List(ctx)
			if err != nil {
				return err
			}
			if len(defs) == 0 {
				printInfo(c.Out, "Store is empty")
				return nil
			}
			c.printDefinitions(defs)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <machine>...",
		Short: "Delete stored machines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := open(ctx)
			if err != nil {
				return err
			}
			defer store.Close(context.Background())

			for _, name := range args {
				if err := store.Delete(ctx, name); err != nil {
					return err
				}
				printSuccess(c.Out, "Deleted %s", name)
			}
			return nil
		},
	})

	return cmd
}

func openStore(ctx context.Context, cfg *config.Config, uri, database string) (*mongo.Store, error) {
	if uri == "" {
		uri = cfg.Storage.MongoURI
	}
	if uri == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no MongoDB connection string (set --mongo-uri or %s)", config.EnvMongoURI)
	}
	if database == "" {
		database = cfg.Storage.Database
	}
	return mongo.Connect(ctx, uri, database)
}

func (c *CLI) printDefinitions(defs []fsm.Definition) {
	rows := make([][]string, len(defs))
	for i, d := range defs {
		rows[i] = []string{d.Name, string(d.KindOrDefault()), d.Initial, strconv.Itoa(len(d.States)), strconv.Itoa(len(d.Transitions))}
	}
	fmt.Fprintln(c.Out, renderTable([]string{"Machine", "Type", "Initial", "States", "Transitions"}, rows))
}
