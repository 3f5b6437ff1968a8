package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hurou927/schema-sync/internal/db"
	"github.com/hurou927/schema-sync/internal/graph"
	"github.com/hurou927/schema-sync/internal/jsonschema"
	"github.com/hurou927/schema-sync/internal/output"
	"github.com/hurou927/schema-sync/internal/schema"
	schemasync "github.com/hurou927/schema-sync/internal/sync"
)

var planFormat string

var planCmd = &cobra.Command{
	Use:   "plan [schema files...]",
	Short: "Show what sync would do without changing the database",
	Long: `With --format sql, connects to the database, computes the operations sync
would apply and prints them as a DDL script. With --format text or mermaid,
renders the planned tables and their foreign keys without connecting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schemas, err := loadSchemas(args)
		if err != nil {
			return err
		}

		switch planFormat {
		case "sql":
			return planSQL(cmd, schemas)
		case "text", "mermaid":
			plans := make([]schema.TablePlan, 0, len(schemas))
			for _, sch := range schemas {
				norm, err := jsonschema.Normalize(sch)
				if err != nil {
					return err
				}
				p, err := schema.PlanTable(norm, cfg.Storage)
				if err != nil {
					return err
				}
				plans = append(plans, p)
			}
			g := graph.Build(plans)
			if planFormat == "mermaid" {
				return graph.WriteMermaid(os.Stdout, g)
			}
			return graph.WriteText(os.Stdout, g)
		default:
			return fmt.Errorf("unknown format: %s (supported: sql, text, mermaid)", planFormat)
		}
	},
}

func planSQL(cmd *cobra.Command, schemas []jsonschema.Schema) error {
	ctx := cmd.Context()

	b, err := db.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer b.Close()

	s := schemasync.New(b,
		schemasync.WithStorageOptions(cfg.Storage),
		schemasync.WithLogger(logger),
	)

	var ops []schema.Operation
	for _, sch := range schemas {
		planned, err := s.Plan(ctx, sch)
		if err != nil {
			return err
		}
		ops = append(ops, planned...)
	}
	return output.NewWriter(os.Stdout, b.Dialect()).WriteScript(ops)
}

func init() {
	planCmd.Flags().StringVar(&planFormat, "format", "sql", "output format: sql, text or mermaid")
	rootCmd.AddCommand(planCmd)
}
