// internal/extractor/orchestrator.go
// Fans changed files out to a bounded worker pool and folds their results
// through a single collector.
package extractor

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/codegraph-cli/api/schemas"
)

// FileOutcome is one file's terminal state for a run: a result or a failure,
// never both.
type FileOutcome struct {
	Rel    string
	Result *schemas.FileResult
	Err    error
}

// RunOutcome aggregates the per-file outcomes of one extraction pass.
type RunOutcome struct {
	Results     map[string]*schemas.FileResult
	FailedFiles []string
}

// ExtractAll pushes every file through the extraction pipeline with at most
// concurrency in-flight extractions. Per-file failures are recorded, not
// fatal; only context cancellation aborts the pass.
func (e *Extractor) ExtractAll(ctx context.Context, files []string, concurrency int) (*RunOutcome, error) {
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	outcomes := make(chan FileOutcome, concurrency)

	e.logger.Info("Starting extraction pass",
		zap.Int("files", len(files)),
		zap.Int("concurrency", concurrency),
	)

	var producerWG sync.WaitGroup
	producerWG.Add(1)

	// Producer loop: one worker slot per file.
	go func() {
		defer producerWG.Done()

		for _, rel := range files {
			if groupCtx.Err() != nil {
				return
			}

			currentRel := rel
			g.Go(func() error {
				result, err := e.ExtractFile(groupCtx, currentRel)
				select {
				case outcomes <- FileOutcome{Rel: currentRel, Result: result, Err: err}:
				case <-groupCtx.Done():
					return groupCtx.Err()
				}
				return nil
			})
		}
	}()

	// Waiter goroutine
	go func() {
		producerWG.Wait()
		g.Wait()
		close(outcomes)
	}()

	// Single collector: the only writer to the run's result set.
	run := &RunOutcome{Results: make(map[string]*schemas.FileResult, len(files))}
	for outcome := range outcomes {
		if outcome.Err != nil {
			e.logger.Warn("File extraction failed",
				zap.String("file", outcome.Rel),
				zap.Error(outcome.Err),
			)
			run.FailedFiles = append(run.FailedFiles, outcome.Rel)
			continue
		}
		run.Results[outcome.Rel] = outcome.Result
	}

	if err := ctx.Err(); err != nil {
		return run, err
	}

	e.logger.Info("Extraction pass complete",
		zap.Int("succeeded", len(run.Results)),
		zap.Int("failed", len(run.FailedFiles)),
	)
	return run, nil
}
