package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hurou927/schema-sync/internal/db"
	"github.com/hurou927/schema-sync/internal/schema"
	schemasync "github.com/hurou927/schema-sync/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync [schema files...]",
	Short: "Create or update tables to match schema files",
	Long: `Creates the tables of each schema, or alters existing tables to match it.
Schemas are synchronized concurrently (up to "parallel" from the config), each
in its own transaction.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		schemas, err := loadSchemas(args)
		if err != nil {
			return err
		}

		b, err := db.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer b.Close()

		s := schemasync.New(b,
			schemasync.WithStorageOptions(cfg.Storage),
			schemasync.WithLogger(logger),
		)

		results := make([][]schema.Operation, len(schemas))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Parallel)
		for i, sch := range schemas {
			g.Go(func() error {
				ops, err := s.Apply(gctx, sch)
				if err != nil {
					return err
				}
				results[i] = ops
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		fmt.Fprintln(os.Stderr, "Synchronization complete:")
		for i, sch := range schemas {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", sch.Name, summarize(results[i]))
		}
		return nil
	},
}

// summarize describes operations as e.g. "1 created, 2 altered".
func summarize(ops []schema.Operation) string {
	if len(ops) == 0 {
		return "up to date"
	}
	counts := map[schema.OpKind]int{}
	for _, op := range ops {
		counts[op.Kind()]++
	}
	var out string
	for _, k := range []struct {
		kind schema.OpKind
		verb string
	}{
		{schema.OpCreateTable, "created"},
		{schema.OpAlterTable, "altered"},
		{schema.OpDropTable, "dropped"},
	} {
		if counts[k.kind] == 0 {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += fmt.Sprintf("%d %s", counts[k.kind], k.verb)
	}
	return out
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
