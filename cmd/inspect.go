package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hurou927/schema-sync/internal/backend"
	"github.com/hurou927/schema-sync/internal/db"
	"github.com/hurou927/schema-sync/internal/schema"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <table>",
	Short: "Print the live columns and array tables of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		table := args[0]

		b, err := db.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer b.Close()

		var (
			cols     []schema.Column
			children []string
		)
		err = b.RunInTransaction(ctx, func(ctx context.Context, tx backend.Tx) error {
			exists, err := tx.HasTable(ctx, table)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("table %q not found", table)
			}
			if cols, err = tx.IntrospectColumns(ctx, table); err != nil {
				return err
			}
			children, err = tx.ChildTables(ctx, table)
			return err
		})
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tCOLUMN\tTYPE\tNULLABLE")
		for _, c := range cols {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%t\n", c.OrdPos, c.Name, c.DataType, c.Nullable)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if len(children) > 0 {
			fmt.Fprintf(os.Stdout, "\nArray tables: %v\n", children)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
