// File: internal/discovery/discovery.go
// Walks a repository tree and produces the candidate file set for extraction.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/codegraph-cli/internal/pathfilter"
)

// DiscoveryError indicates the repository root is unusable. It is fatal to
// the run; nothing downstream can proceed without a root.
type DiscoveryError struct {
	Root   string
	Reason string
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery failed for %q: %s", e.Root, e.Reason)
}

// Engine discovers candidate files under a repository root.
type Engine struct {
	root   string
	filter *pathfilter.Filter
	logger *zap.Logger
}

// New creates a discovery engine rooted at an absolute repository path.
func New(root string, filter *pathfilter.Filter, logger *zap.Logger) *Engine {
	return &Engine{
		root:   root,
		filter: filter,
		logger: logger.Named("discovery"),
	}
}

// Discover walks the tree and returns sorted repo-relative paths of every
// file that passes the path filter. Hidden directories and excluded
// directories are pruned without descending.
func (e *Engine) Discover() ([]string, error) {
	info, err := os.Stat(e.root)
	if err != nil {
		return nil, &DiscoveryError{Root: e.root, Reason: "path does not exist"}
	}
	if !info.IsDir() {
		return nil, &DiscoveryError{Root: e.root, Reason: "path is not a directory"}
	}

	var files []string
	total := 0

	err = filepath.WalkDir(e.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable subtrees are skipped, not fatal.
			e.logger.Debug("Skipping unreadable path", zap.String("path", p), zap.Error(walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(e.root, p)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || e.filter.Excluded(rel, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		total++
		if e.filter.Match(rel, d.Name()) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, &DiscoveryError{Root: e.root, Reason: err.Error()}
	}

	sort.Strings(files)
	e.logger.Info("File discovery complete",
		zap.Int("candidates", len(files)),
		zap.Int("total_seen", total),
	)
	return files, nil
}
