// File: cmd/query.go
// Read-only query commands over a previously built aggregate: khop,
// definition, summary.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/codegraph-cli/internal/aggregate"
	"github.com/xkilldash9x/codegraph-cli/internal/config"
	"github.com/xkilldash9x/codegraph-cli/internal/graph"
	"github.com/xkilldash9x/codegraph-cli/internal/observability"
)

// loadStore resolves the aggregate location from --aggregate or the
// configured output directory plus --repo-name, then builds the query store.
func loadStore(aggregatePath, repoName string) (*graph.Store, error) {
	if aggregatePath == "" {
		cfg, err := config.NewConfigFromViper(viper.GetViper())
		if err != nil {
			return nil, err
		}
		if repoName == "" {
			return nil, fmt.Errorf("either --aggregate or --repo-name is required")
		}
		aggregatePath = aggregate.PathFor(cfg.Scan.OutputDir, repoName)
	}
	return graph.Load(aggregatePath, observability.GetLogger())
}

// newKHopCmd creates and configures the `khop` command.
func newKHopCmd() *cobra.Command {
	var (
		aggregatePath string
		repoName      string
		k             int
		direction     string
		includeCode   bool
		maxCodeLines  int
	)

	khopCmd := &cobra.Command{
		Use:   "khop <node-id>",
		Short: "Shows all nodes reachable within k hops of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadStore(aggregatePath, repoName)
			if err != nil {
				return err
			}

			dir, err := graph.ParseDirection(direction)
			if err != nil {
				return err
			}

			result, err := store.KHop(args[0], k, dir)
			if err != nil {
				return err
			}

			fmt.Println(store.FormatKHop(result, includeCode, maxCodeLines))
			return nil
		},
	}

	khopCmd.Flags().StringVar(&aggregatePath, "aggregate", "", "Path to an aggregate file; overrides output-dir resolution")
	khopCmd.Flags().StringVar(&repoName, "repo-name", "", "Repository whose aggregate to query")
	khopCmd.Flags().IntVarP(&k, "hops", "k", 2, "Number of hops to traverse")
	khopCmd.Flags().StringVar(&direction, "direction", string(graph.DirectionBoth), "Traversal direction: outgoing, incoming, or both")
	khopCmd.Flags().BoolVar(&includeCode, "include-code", false, "Include code previews for each node")
	khopCmd.Flags().IntVar(&maxCodeLines, "max-code-lines", 5, "Lines of code to show per node before eliding")

	return khopCmd
}

// newDefinitionCmd creates and configures the `definition` command.
func newDefinitionCmd() *cobra.Command {
	var (
		aggregatePath string
		repoName      string
	)

	definitionCmd := &cobra.Command{
		Use:   "definition <file-path> <node-name>",
		Short: "Shows a node's definition with its dependents and dependencies",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadStore(aggregatePath, repoName)
			if err != nil {
				return err
			}

			analysis, err := store.Definition(args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Println(store.FormatDefinition(analysis))
			return nil
		},
	}

	definitionCmd.Flags().StringVar(&aggregatePath, "aggregate", "", "Path to an aggregate file; overrides output-dir resolution")
	definitionCmd.Flags().StringVar(&repoName, "repo-name", "", "Repository whose aggregate to query")

	return definitionCmd
}

// newSummaryCmd creates and configures the `summary` command.
func newSummaryCmd() *cobra.Command {
	var (
		aggregatePath string
		repoName      string
		snippetLines  int
	)

	summaryCmd := &cobra.Command{
		Use:   "summary <file-path>",
		Short: "Shows a file skeleton: each node's leading lines with the rest elided",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadStore(aggregatePath, repoName)
			if err != nil {
				return err
			}

			summary, err := store.Summary(args[0])
			if err != nil {
				return err
			}

			fmt.Println(store.FormatFileSummary(summary, snippetLines))
			return nil
		},
	}

	summaryCmd.Flags().StringVar(&aggregatePath, "aggregate", "", "Path to an aggregate file; overrides output-dir resolution")
	summaryCmd.Flags().StringVar(&repoName, "repo-name", "", "Repository whose aggregate to query")
	summaryCmd.Flags().IntVar(&snippetLines, "lines", 1, "Source lines to show per node before eliding")

	return summaryCmd
}
