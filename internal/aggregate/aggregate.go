// File: internal/aggregate/aggregate.go
// Maintains the per-repository aggregated graph file across incremental runs:
// load, evict stale per-file entries, merge fresh results, recompute
// statistics, save.
package aggregate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/xkilldash9x/codegraph-cli/api/schemas"
	"github.com/xkilldash9x/codegraph-cli/internal/syntax"
)

const aggregateFileName = "aggregated_results.json"

// PathFor returns the aggregate artifact location for a repository without
// constructing an Aggregator.
func PathFor(outputDir, repoName string) string {
	return filepath.Join(outputDir, repoName, aggregateFileName)
}

// Aggregator owns the aggregate artifact for one repository. Like the
// metadata tracker it is only touched by the coordinating task.
type Aggregator struct {
	repoDir  string
	repoName string
	path     string
	logger   *zap.Logger
}

// New creates an aggregator whose artifact lives under outputDir/repoName.
func New(repoDir, repoName, outputDir string, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		repoDir:  repoDir,
		repoName: repoName,
		path:     filepath.Join(outputDir, repoName, aggregateFileName),
		logger:   logger.Named("aggregate"),
	}
}

// Path returns the location of the aggregate artifact.
func (a *Aggregator) Path() string { return a.path }

// Load reads the existing aggregate, degrading to an empty one when the
// artifact is missing or corrupt. A corrupt aggregate costs a rebuild of
// merged state, not the run.
func (a *Aggregator) Load() *schemas.AggregatedGraph {
	data, err := os.ReadFile(a.path)
	if err != nil {
		if !os.IsNotExist(err) {
			a.logger.Warn("Failed to read aggregate, starting empty", zap.Error(err))
		}
		return a.empty()
	}

	var agg schemas.AggregatedGraph
	if err := json.Unmarshal(data, &agg); err != nil {
		a.logger.Warn("Corrupt aggregate, starting empty", zap.Error(err))
		return a.empty()
	}
	a.logger.Debug("Loaded aggregate",
		zap.Int("nodes", len(agg.Nodes)),
		zap.Int("edges", len(agg.Edges)),
	)
	return &agg
}

func (a *Aggregator) empty() *schemas.AggregatedGraph {
	return &schemas.AggregatedGraph{
		Repository: schemas.RepositoryInfo{
			Name: a.repoName,
			Path: a.repoDir,
		},
	}
}

// RemoveFiles evicts all nodes implemented in the given repo-relative files
// and all edges whose subject is implemented there. Called for both changed
// files (before their fresh results merge) and orphaned files (which get no
// replacement).
func (a *Aggregator) RemoveFiles(agg *schemas.AggregatedGraph, relPaths []string) {
	if len(relPaths) == 0 {
		return
	}
	stale := make(map[string]struct{}, len(relPaths))
	for _, rel := range relPaths {
		stale[rel] = struct{}{}
	}

	beforeNodes, beforeEdges := len(agg.Nodes), len(agg.Edges)

	nodes := agg.Nodes[:0]
	for _, n := range agg.Nodes {
		if _, ok := stale[n.ImplementationFile]; !ok {
			nodes = append(nodes, n)
		}
	}
	agg.Nodes = nodes

	edges := agg.Edges[:0]
	for _, e := range agg.Edges {
		if _, ok := stale[e.SubjectImplementationFile]; !ok {
			edges = append(edges, e)
		}
	}
	agg.Edges = edges

	if removed := beforeNodes - len(agg.Nodes) + beforeEdges - len(agg.Edges); removed > 0 {
		a.logger.Debug("Evicted stale graph entries",
			zap.Int("nodes", beforeNodes-len(agg.Nodes)),
			zap.Int("edges", beforeEdges-len(agg.Edges)),
			zap.Int("files", len(relPaths)),
		)
	}
}

// MergeResults appends fresh per-file results in deterministic path order.
// A fresh node whose id already exists in the aggregate (a cross-file
// collision; same-file entries were evicted beforehand) is dropped and the
// incumbent kept, so merged state never holds two nodes with one id.
func (a *Aggregator) MergeResults(agg *schemas.AggregatedGraph, results map[string]*schemas.FileResult) {
	rels := make([]string, 0, len(results))
	for rel := range results {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	existing := make(map[string]struct{}, len(agg.Nodes))
	for _, n := range agg.Nodes {
		existing[n.ID] = struct{}{}
	}

	var added, collided int
	for _, rel := range rels {
		res := results[rel]
		for _, n := range res.Nodes {
			if _, ok := existing[n.ID]; ok {
				a.logger.Warn("Dropping node with colliding id",
					zap.String("id", n.ID),
					zap.String("file", n.ImplementationFile),
				)
				collided++
				continue
			}
			existing[n.ID] = struct{}{}
			agg.Nodes = append(agg.Nodes, n)
			added++
		}
		agg.Edges = append(agg.Edges, res.Edges...)
	}

	a.logger.Debug("Merged fresh results",
		zap.Int("files", len(results)),
		zap.Int("nodes_added", added),
		zap.Int("nodes_collided", collided),
	)
}

// RecomputeStatistics rebuilds the statistics block from current merged
// state. Stats are always derived, never incrementally adjusted.
func (a *Aggregator) RecomputeStatistics(agg *schemas.AggregatedGraph) {
	stats := schemas.Statistics{
		TotalNodes:      len(agg.Nodes),
		TotalEdges:      len(agg.Edges),
		NodesByType:     make(map[string]int),
		EdgesByType:     make(map[string]int),
		FilesByLanguage: make(map[string]int),
	}

	implFiles := make(map[string]struct{})
	for _, n := range agg.Nodes {
		stats.NodesByType[typeOrUnknown(n.Type)]++
		if n.ImplementationFile != "" {
			implFiles[n.ImplementationFile] = struct{}{}
		}
	}
	for _, e := range agg.Edges {
		stats.EdgesByType[typeOrUnknown(e.Type)]++
	}
	for rel := range implFiles {
		stats.FilesByLanguage[string(syntax.LanguageForFile(rel))]++
	}

	agg.Statistics = stats
}

func typeOrUnknown(t string) string {
	if t == "" {
		return "unknown"
	}
	return t
}

// SetRepositoryInfo records run accounting on the aggregate.
func (a *Aggregator) SetRepositoryInfo(agg *schemas.AggregatedGraph, processed, failed int, failedFiles []string) {
	agg.Repository = schemas.RepositoryInfo{
		Name:                a.repoName,
		Path:                a.repoDir,
		TotalFilesProcessed: processed,
		TotalFilesFailed:    failed,
		FailedFiles:         failedFiles,
	}
}

// Save persists the aggregate artifact.
func (a *Aggregator) Save(agg *schemas.AggregatedGraph) error {
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("failed to create aggregate directory: %w", err)
	}
	data, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal aggregate: %w", err)
	}
	if err := os.WriteFile(a.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write aggregate: %w", err)
	}
	a.logger.Info("Saved aggregate",
		zap.String("path", a.path),
		zap.Int("total_nodes", agg.Statistics.TotalNodes),
		zap.Int("total_edges", agg.Statistics.TotalEdges),
	)
	return nil
}
