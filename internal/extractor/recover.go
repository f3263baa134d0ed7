// internal/extractor/recover.go
package extractor

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// recoverPath validates a model-reported implementation file against the
// repository. A path that exists is returned as-is. Otherwise the repository
// is searched for files whose path ends with the reported one: a unique
// suffix match recovers the path, anything else fails (empty string), which
// drops the owning entity rather than admit a fabricated location.
func recoverPath(projectRoot, reported string, logger *zap.Logger) string {
	if reported == "" {
		return ""
	}

	abs := filepath.Join(projectRoot, filepath.FromSlash(reported))
	if _, err := os.Stat(abs); err == nil {
		return reported
	}
	logger.Debug("Found invalid file path", zap.String("path", reported))

	suffix := filepath.FromSlash(reported)
	var matches []string
	filepath.WalkDir(projectRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, suffix) {
			matches = append(matches, path)
		}
		return nil
	})

	if len(matches) != 1 {
		logger.Debug("Path recovery failed",
			zap.String("path", reported),
			zap.Int("candidates", len(matches)),
		)
		return ""
	}

	recovered, err := filepath.Rel(projectRoot, matches[0])
	if err != nil {
		return ""
	}
	recovered = filepath.ToSlash(recovered)
	logger.Debug("Recovered file path",
		zap.String("reported", reported),
		zap.String("recovered", recovered),
	)
	return recovered
}

// codeSnippet reads the inclusive zero-based line range from a repository
// file. Out-of-range or unreadable inputs yield an empty snippet; entity
// extraction does not fail on snippet problems.
func codeSnippet(projectRoot, relPath string, startLine, endLine int, logger *zap.Logger) string {
	abs := filepath.Join(projectRoot, filepath.FromSlash(relPath))
	data, err := os.ReadFile(abs)
	if err != nil {
		logger.Warn("Cannot read file for code snippet", zap.String("file", relPath), zap.Error(err))
		return ""
	}

	lines := strings.Split(string(data), "\n")
	start := startLine
	if start < 0 {
		start = 0
	}
	end := endLine + 1
	if end > len(lines) {
		end = len(lines)
	}
	if start >= len(lines) || end <= start {
		logger.Warn("Invalid line range for code snippet",
			zap.String("file", relPath),
			zap.Int("start_line", startLine),
			zap.Int("end_line", endLine),
		)
		return ""
	}
	return strings.Join(lines[start:end], "\n")
}
