// File: internal/metadata/tracker.go
// Persists per-file parse state and computes the changed-file subset across
// incremental runs.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/codegraph-cli/api/schemas"
)

const metadataFileName = "parse_metadata.json"

// Tracker owns the repository metadata store. It is written only by the
// coordinating task after the concurrent phase completes.
type Tracker struct {
	repoDir     string
	repoName    string
	metaPath    string
	contentHash bool
	logger      *zap.Logger

	meta *schemas.RepositoryMetadata
}

// New creates a tracker whose store lives under outputDir/repoName.
// When contentHash is true, change detection additionally compares a sha256
// digest of file bytes, catching edits that preserve mtime and size.
func New(repoDir, repoName, outputDir string, contentHash bool, logger *zap.Logger) *Tracker {
	return &Tracker{
		repoDir:     repoDir,
		repoName:    repoName,
		metaPath:    filepath.Join(outputDir, repoName, metadataFileName),
		contentHash: contentHash,
		logger:      logger.Named("metadata"),
	}
}

// Load reads persisted metadata, falling back to a fresh store when the file
// is missing or corrupt. A corrupt store degrades to a full reparse rather
// than aborting the run.
func (t *Tracker) Load() *schemas.RepositoryMetadata {
	data, err := os.ReadFile(t.metaPath)
	if err != nil {
		if !os.IsNotExist(err) {
			t.logger.Warn("Failed to read metadata store, starting fresh", zap.Error(err))
		}
		t.meta = t.newMetadata()
		return t.meta
	}

	var meta schemas.RepositoryMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		t.logger.Warn("Corrupt metadata store, starting fresh", zap.Error(err))
		t.meta = t.newMetadata()
		return t.meta
	}
	if meta.Files == nil {
		meta.Files = make(map[string]schemas.FileMetadata)
	}
	t.meta = &meta
	t.logger.Debug("Loaded metadata", zap.Int("tracked_files", len(meta.Files)))
	return t.meta
}

func (t *Tracker) newMetadata() *schemas.RepositoryMetadata {
	return &schemas.RepositoryMetadata{
		RepoName: t.repoName,
		RepoPath: t.repoDir,
		Files:    make(map[string]schemas.FileMetadata),
	}
}

// Save persists the metadata store, creating the output directory on demand.
func (t *Tracker) Save() error {
	if t.meta == nil {
		return nil
	}
	t.meta.TotalFilesTracked = len(t.meta.Files)

	if err := os.MkdirAll(filepath.Dir(t.metaPath), 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}
	data, err := json.MarshalIndent(t.meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(t.metaPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata store: %w", err)
	}
	t.logger.Debug("Saved metadata", zap.String("path", t.metaPath))
	return nil
}

// IsChanged reports whether a repo-relative file needs re-extraction:
// untracked, vanished, newer mtime, different size, or (in content-hash
// mode) a different digest even when mtime and size coincide.
func (t *Tracker) IsChanged(rel string) bool {
	fm, tracked := t.meta.Files[rel]
	if !tracked {
		return true
	}

	abs := filepath.Join(t.repoDir, filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	if err != nil {
		return true
	}

	if float64(info.ModTime().Unix()) > fm.LastModified {
		t.logger.Debug("File modified by timestamp", zap.String("file", rel))
		return true
	}
	if info.Size() != fm.FileSize {
		t.logger.Debug("File size changed", zap.String("file", rel))
		return true
	}

	if t.contentHash {
		digest, err := hashFile(abs)
		if err != nil {
			return true
		}
		if fm.ContentHash == "" || digest != fm.ContentHash {
			t.logger.Debug("File content hash changed", zap.String("file", rel))
			return true
		}
	}
	return false
}

// ChangedFiles filters the candidate set down to files needing extraction.
func (t *Tracker) ChangedFiles(candidates []string) []string {
	var changed []string
	for _, rel := range candidates {
		if t.IsChanged(rel) {
			changed = append(changed, rel)
		}
	}
	t.logger.Debug("Change detection complete",
		zap.Int("changed", len(changed)),
		zap.Int("candidates", len(candidates)),
	)
	return changed
}

// Update overwrites a file's metadata with current stat values and the
// outcome of its latest extraction attempt.
func (t *Tracker) Update(rel string, successful bool, errMsg string) {
	abs := filepath.Join(t.repoDir, filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	if err != nil {
		t.logger.Warn("Cannot update metadata for missing file", zap.String("file", rel))
		return
	}

	fm := schemas.FileMetadata{
		RelativePath:    rel,
		LastModified:    float64(info.ModTime().Unix()),
		LastParsed:      float64(time.Now().Unix()),
		FileSize:        info.Size(),
		ParseSuccessful: successful,
		ErrorMessage:    errMsg,
	}
	if t.contentHash {
		if digest, err := hashFile(abs); err == nil {
			fm.ContentHash = digest
		}
	}
	t.meta.Files[rel] = fm
	t.meta.TotalFilesTracked = len(t.meta.Files)
}

// CleanupOrphans drops metadata for files absent from the current scan and
// returns the purged paths so the aggregator can evict their graph entries
// in the same run.
func (t *Tracker) CleanupOrphans(currentFiles []string) []string {
	current := make(map[string]struct{}, len(currentFiles))
	for _, rel := range currentFiles {
		current[rel] = struct{}{}
	}

	var orphaned []string
	for rel := range t.meta.Files {
		if _, ok := current[rel]; !ok {
			orphaned = append(orphaned, rel)
			delete(t.meta.Files, rel)
		}
	}
	if len(orphaned) > 0 {
		t.logger.Info("Removed orphaned file metadata", zap.Int("count", len(orphaned)))
	}
	t.meta.TotalFilesTracked = len(t.meta.Files)
	return orphaned
}

// MarkFullParse records the completion time of a full repository parse.
func (t *Tracker) MarkFullParse() {
	t.meta.LastFullParse = float64(time.Now().Unix())
}

// Metadata exposes the in-memory store for inspection.
func (t *Tracker) Metadata() *schemas.RepositoryMetadata {
	return t.meta
}

func hashFile(abs string) (string, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
