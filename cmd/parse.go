// File: cmd/parse.go
package cmd

import (
	"fmt"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/codegraph-cli/internal/config"
	"github.com/xkilldash9x/codegraph-cli/internal/llmclient"
	"github.com/xkilldash9x/codegraph-cli/internal/observability"
	"github.com/xkilldash9x/codegraph-cli/internal/pipeline"
)

// newParseCmd creates and configures the `parse` command.
func newParseCmd() *cobra.Command {
	var (
		full       bool
		forceGlobs []string
	)

	parseCmd := &cobra.Command{
		Use:   "parse <repo-dir>",
		Short: "Extracts the entity graph from a repository, reprocessing only changed files",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their corresponding Viper keys so command-line
			// flags correctly override config file and environment values.
			if err := viper.BindPFlag("scan.concurrency", cmd.Flags().Lookup("concurrency")); err != nil {
				return err
			}
			if err := viper.BindPFlag("scan.output_dir", cmd.Flags().Lookup("output-dir")); err != nil {
				return err
			}
			if err := viper.BindPFlag("scan.repo_name", cmd.Flags().Lookup("repo-name")); err != nil {
				return err
			}
			if err := viper.BindPFlag("scan.content_hash", cmd.Flags().Lookup("content-hash")); err != nil {
				return err
			}
			return viper.BindPFlag("extractor.model", cmd.Flags().Lookup("model"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			repoDir, err := resolveRepoDir(args[0])
			if err != nil {
				return err
			}

			client, err := llmclient.NewClient(cfg.Extractor, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize extraction client: %w", err)
			}

			p := pipeline.New(*cfg, repoDir, client, logger)
			result, err := p.Run(ctx, pipeline.Options{Full: full, ForceGlobs: forceGlobs})
			if err != nil {
				logger.Error("Repository run failed", zap.Error(err))
				return err
			}

			fmt.Printf("Run %s complete: %d files extracted, %d failed, %d orphaned\n",
				result.RunID, result.FilesChanged-result.FilesFailed, result.FilesFailed, result.Orphaned)
			fmt.Printf("Aggregate: %s\n", result.AggregatePath)
			return nil
		},
	}

	parseCmd.Flags().BoolVar(&full, "full", false, "Re-extract every file, ignoring recorded metadata")
	parseCmd.Flags().StringArrayVar(&forceGlobs, "force", nil, "Glob of unchanged files to re-extract anyway (repeatable)")
	parseCmd.Flags().StringP("output-dir", "o", "", "Directory for extraction artifacts. (Overrides config/env)")
	parseCmd.Flags().IntP("concurrency", "j", 0, "Number of concurrent extractions. (Overrides config/env)")
	parseCmd.Flags().String("repo-name", "", "Repository name; defaults to the directory base name")
	parseCmd.Flags().Bool("content-hash", false, "Also compare content digests during change detection")
	parseCmd.Flags().String("model", "", "Extraction model identifier. (Overrides config/env)")

	return parseCmd
}

// resolveRepoDir expands a leading tilde in the repository argument and
// absolutizes it.
func resolveRepoDir(arg string) (string, error) {
	expanded, err := homedir.Expand(arg)
	if err != nil {
		return "", fmt.Errorf("invalid repository path %q: %w", arg, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("invalid repository path %q: %w", arg, err)
	}
	return abs, nil
}
