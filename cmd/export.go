// File: cmd/export.go
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/codegraph-cli/api/schemas"
	"github.com/xkilldash9x/codegraph-cli/internal/aggregate"
	"github.com/xkilldash9x/codegraph-cli/internal/config"
	"github.com/xkilldash9x/codegraph-cli/internal/export"
	"github.com/xkilldash9x/codegraph-cli/internal/observability"
)

// newExportCmd creates and configures the `export` command.
func newExportCmd() *cobra.Command {
	var (
		aggregatePath string
		repoName      string
	)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Pushes an aggregate into PostgreSQL for SQL querying",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}
			if cfg.Export.DatabaseURL == "" {
				return fmt.Errorf("database URL is not configured (CODEGRAPH_DB_URL)")
			}

			if aggregatePath == "" {
				if repoName == "" {
					return fmt.Errorf("either --aggregate or --repo-name is required")
				}
				aggregatePath = aggregate.PathFor(cfg.Scan.OutputDir, repoName)
			}

			data, err := os.ReadFile(aggregatePath)
			if err != nil {
				return fmt.Errorf("failed to read aggregate %s: %w", aggregatePath, err)
			}
			var agg schemas.AggregatedGraph
			if err := json.Unmarshal(data, &agg); err != nil {
				return fmt.Errorf("invalid aggregate %s: %w", aggregatePath, err)
			}

			pool, err := pgxpool.New(ctx, cfg.Export.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			store, err := export.New(ctx, pool, logger)
			if err != nil {
				return err
			}
			if err := store.EnsureSchema(ctx); err != nil {
				return err
			}

			exportID, err := store.ExportGraph(ctx, &agg)
			if err != nil {
				return err
			}

			fmt.Printf("Export complete. Export ID: %s (%d nodes, %d edges)\n",
				exportID, len(agg.Nodes), len(agg.Edges))
			return nil
		},
	}

	exportCmd.Flags().StringVar(&aggregatePath, "aggregate", "", "Path to an aggregate file; overrides output-dir resolution")
	exportCmd.Flags().StringVar(&repoName, "repo-name", "", "Repository whose aggregate to export")

	return exportCmd
}
