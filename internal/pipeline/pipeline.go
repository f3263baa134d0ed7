// File: internal/pipeline/pipeline.go
// Drives one repository run end to end: discover files, detect changes,
// extract the changed subset concurrently, fold results into the aggregate,
// and persist metadata for the next run.
package pipeline

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/codegraph-cli/api/schemas"
	"github.com/xkilldash9x/codegraph-cli/internal/aggregate"
	"github.com/xkilldash9x/codegraph-cli/internal/config"
	"github.com/xkilldash9x/codegraph-cli/internal/discovery"
	"github.com/xkilldash9x/codegraph-cli/internal/extractor"
	"github.com/xkilldash9x/codegraph-cli/internal/metadata"
	"github.com/xkilldash9x/codegraph-cli/internal/pathfilter"
	"github.com/xkilldash9x/codegraph-cli/internal/syntax"
)

// Options select the run mode on top of the configured defaults.
type Options struct {
	// Full re-extracts every discovered file, ignoring recorded metadata.
	Full bool
	// ForceGlobs re-extracts unchanged files whose repo-relative path
	// matches any glob.
	ForceGlobs []string
}

// Result summarizes a completed run.
type Result struct {
	RunID         string
	AggregatePath string
	FilesChanged  int
	FilesFailed   int
	Orphaned      int
}

// Pipeline wires the run components for one repository.
type Pipeline struct {
	cfg     config.Config
	repoDir string
	client  schemas.ExtractionClient
	logger  *zap.Logger
}

// New builds a pipeline. repoDir must be absolute; the repo name defaults to
// the directory's base name.
func New(cfg config.Config, repoDir string, client schemas.ExtractionClient, logger *zap.Logger) *Pipeline {
	if cfg.Scan.RepoName == "" {
		cfg.Scan.RepoName = filepath.Base(repoDir)
	}
	return &Pipeline{
		cfg:     cfg,
		repoDir: repoDir,
		client:  client,
		logger:  logger.Named("pipeline"),
	}
}

// Run executes one incremental pass and returns its summary. Per-file
// extraction failures are recorded in run accounting; only setup errors and
// cancellation fail the run itself.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID), zap.String("repo", p.cfg.Scan.RepoName))

	log.Info("Starting repository run",
		zap.String("repo_dir", p.repoDir),
		zap.Bool("full", opts.Full),
		zap.Strings("force", opts.ForceGlobs),
	)

	// 1. Discovery
	filter := pathfilter.New(p.excludePatterns(), p.cfg.Scan.IncludePatterns)
	candidates, err := discovery.New(p.repoDir, filter, log).Discover()
	if err != nil {
		return nil, err
	}
	candidates = keepSupported(candidates)
	log.Info("Discovered extractable files", zap.Int("count", len(candidates)))

	// 2. Change detection
	tracker := metadata.New(p.repoDir, p.cfg.Scan.RepoName, p.cfg.Scan.OutputDir, p.cfg.Scan.ContentHash, log)
	tracker.Load()

	orphaned := tracker.CleanupOrphans(candidates)

	var changed []string
	if opts.Full {
		changed = candidates
	} else {
		changed = tracker.ChangedFiles(candidates)
		changed = addForced(changed, candidates, opts.ForceGlobs)
	}

	agg := aggregate.New(p.repoDir, p.cfg.Scan.RepoName, p.cfg.Scan.OutputDir, log)

	if len(changed) == 0 && len(orphaned) == 0 {
		log.Info("No changes detected, aggregate is current")
		return &Result{RunID: runID, AggregatePath: agg.Path()}, nil
	}

	// 3. Evict stale state before fresh results merge.
	merged := agg.Load()
	agg.RemoveFiles(merged, orphaned)
	agg.RemoveFiles(merged, changed)

	// 4. Concurrent extraction
	ext := extractor.New(p.cfg.Scan, p.repoDir, p.client, log)
	outcome, err := ext.ExtractAll(ctx, changed, p.cfg.Scan.Concurrency)
	if err != nil {
		return nil, err
	}

	// 5. Merge and persist
	agg.MergeResults(merged, outcome.Results)
	agg.SetRepositoryInfo(merged, len(outcome.Results), len(outcome.FailedFiles), outcome.FailedFiles)
	agg.RecomputeStatistics(merged)
	if err := agg.Save(merged); err != nil {
		return nil, err
	}

	// 6. Record per-file state for the next run.
	failed := make(map[string]struct{}, len(outcome.FailedFiles))
	for _, rel := range outcome.FailedFiles {
		failed[rel] = struct{}{}
	}
	for _, rel := range changed {
		if _, bad := failed[rel]; bad {
			tracker.Update(rel, false, "extraction failed")
		} else {
			tracker.Update(rel, true, "")
		}
	}
	if opts.Full {
		tracker.MarkFullParse()
	}
	if err := tracker.Save(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:         runID,
		AggregatePath: agg.Path(),
		FilesChanged:  len(changed),
		FilesFailed:   len(outcome.FailedFiles),
		Orphaned:      len(orphaned),
	}
	log.Info("Repository run complete",
		zap.Int("changed", result.FilesChanged),
		zap.Int("failed", result.FilesFailed),
		zap.Int("orphaned", result.Orphaned),
		zap.String("aggregate", result.AggregatePath),
	)
	return result, nil
}

func (p *Pipeline) excludePatterns() []string {
	if len(p.cfg.Scan.ExcludePatterns) > 0 {
		return p.cfg.Scan.ExcludePatterns
	}
	return config.DefaultExcludePatterns
}

func keepSupported(candidates []string) []string {
	supported := candidates[:0]
	for _, rel := range candidates {
		if syntax.Supported(rel) {
			supported = append(supported, rel)
		}
	}
	return supported
}

// addForced appends candidates matching any force glob that change
// detection skipped.
func addForced(changed, candidates []string, globs []string) []string {
	if len(globs) == 0 {
		return changed
	}
	already := make(map[string]struct{}, len(changed))
	for _, rel := range changed {
		already[rel] = struct{}{}
	}
	for _, rel := range candidates {
		if _, ok := already[rel]; ok {
			continue
		}
		for _, g := range globs {
			if pathfilter.MatchGlob(g, rel) {
				changed = append(changed, rel)
				break
			}
		}
	}
	return changed
}
