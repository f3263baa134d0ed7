// File: internal/graph/summary.go
// File summary queries: a file's nodes in line order, rendered as a skeleton
// with node bodies elided.
package graph

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xkilldash9x/codegraph-cli/api/schemas"
)

// FileSummary lists one file's nodes in start-line order, plus the on-disk
// line count when the file is still readable.
type FileSummary struct {
	FilePath   string
	Nodes      []*schemas.Node
	TotalLines int
	FileExists bool
}

// Summary assembles the summary for a repo-relative (or absolute) file path.
// The same path fallbacks as definition lookup apply. The actual file is
// consulted only for its line count; a deleted file still summarizes from
// graph state.
func (s *Store) Summary(filePath string) (*FileSummary, error) {
	normalized, err := s.normalizeQueryPath(filePath)
	if err != nil {
		return nil, err
	}

	nodes, resolvedPath := s.resolveFileNodes(normalized)
	if len(nodes) == 0 {
		return nil, &NotFoundError{Kind: "file", Name: filePath, Candidates: s.Files()}
	}

	summary := &FileSummary{FilePath: resolvedPath, Nodes: nodes}

	repoPath := s.repository.Path
	if repoPath != "" {
		abs := filepath.Join(repoPath, filepath.FromSlash(resolvedPath))
		if data, err := os.ReadFile(abs); err == nil {
			summary.FileExists = true
			summary.TotalLines = strings.Count(string(data), "\n") + 1
		}
	}
	return summary, nil
}

// normalizeQueryPath converts an absolute input to repo-relative. An absolute
// path that does not sit under the repository root is an error rather than a
// fallback: a basename match against an unrelated tree would be misleading.
// Graphs without a recorded repo path keep the leading-slash trim fallback.
func (s *Store) normalizeQueryPath(filePath string) (string, error) {
	if !filepath.IsAbs(filePath) {
		return filePath, nil
	}
	repoPath := s.repository.Path
	if repoPath == "" {
		return strings.TrimPrefix(filePath, "/"), nil
	}
	rel, err := filepath.Rel(repoPath, filePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %s is outside the repository root %s", filePath, repoPath)
	}
	return filepath.ToSlash(rel), nil
}
