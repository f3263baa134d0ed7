package metadata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	abs := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	return abs
}

func newTestTracker(t *testing.T, contentHash bool) (*Tracker, string) {
	t.Helper()
	repoDir := t.TempDir()
	outputDir := t.TempDir()
	tr := New(repoDir, "myrepo", outputDir, contentHash, zaptest.NewLogger(t))
	tr.Load()
	return tr, repoDir
}

func TestUntrackedFileIsChanged(t *testing.T) {
	tr, repoDir := newTestTracker(t, false)
	writeFile(t, repoDir, "pkg/a.go", "package pkg")

	assert.True(t, tr.IsChanged("pkg/a.go"))
}

func TestUpdatedFileIsUnchanged(t *testing.T) {
	tr, repoDir := newTestTracker(t, false)
	writeFile(t, repoDir, "pkg/a.go", "package pkg")

	tr.Update("pkg/a.go", true, "")
	assert.False(t, tr.IsChanged("pkg/a.go"))
}

func TestSizeChangeDetected(t *testing.T) {
	tr, repoDir := newTestTracker(t, false)
	abs := writeFile(t, repoDir, "pkg/a.go", "package pkg")
	tr.Update("pkg/a.go", true, "")

	require.NoError(t, os.WriteFile(abs, []byte("package pkg // grew larger"), 0o644))
	// Pin mtime back so only the size differs.
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(abs, old, old))

	assert.True(t, tr.IsChanged("pkg/a.go"))
}

func TestMtimeChangeDetected(t *testing.T) {
	tr, repoDir := newTestTracker(t, false)
	abs := writeFile(t, repoDir, "pkg/a.go", "package pkg")
	tr.Update("pkg/a.go", true, "")

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(abs, future, future))

	assert.True(t, tr.IsChanged("pkg/a.go"))
}

func TestContentHashCatchesSameSizeEdit(t *testing.T) {
	tr, repoDir := newTestTracker(t, true)
	abs := writeFile(t, repoDir, "pkg/a.go", "package aaa")
	tr.Update("pkg/a.go", true, "")

	info, err := os.Stat(abs)
	require.NoError(t, err)

	// Same byte count, same mtime: only the digest differs.
	require.NoError(t, os.WriteFile(abs, []byte("package bbb"), 0o644))
	require.NoError(t, os.Chtimes(abs, info.ModTime(), info.ModTime()))

	assert.True(t, tr.IsChanged("pkg/a.go"))
}

func TestVanishedFileIsChanged(t *testing.T) {
	tr, repoDir := newTestTracker(t, false)
	abs := writeFile(t, repoDir, "pkg/a.go", "package pkg")
	tr.Update("pkg/a.go", true, "")

	require.NoError(t, os.Remove(abs))
	assert.True(t, tr.IsChanged("pkg/a.go"))
}

func TestChangedFilesFiltersCandidates(t *testing.T) {
	tr, repoDir := newTestTracker(t, false)
	writeFile(t, repoDir, "a.go", "package main")
	writeFile(t, repoDir, "b.go", "package main")
	tr.Update("a.go", true, "")

	changed := tr.ChangedFiles([]string{"a.go", "b.go"})
	assert.Equal(t, []string{"b.go"}, changed)
}

func TestCleanupOrphansReturnsPurgedPaths(t *testing.T) {
	tr, repoDir := newTestTracker(t, false)
	writeFile(t, repoDir, "keep.go", "package main")
	writeFile(t, repoDir, "gone.go", "package main")
	tr.Update("keep.go", true, "")
	tr.Update("gone.go", true, "")

	orphaned := tr.CleanupOrphans([]string{"keep.go"})
	assert.Equal(t, []string{"gone.go"}, orphaned)
	assert.Len(t, tr.Metadata().Files, 1)
	assert.Equal(t, 1, tr.Metadata().TotalFilesTracked)
}

func TestSaveAndReload(t *testing.T) {
	repoDir := t.TempDir()
	outputDir := t.TempDir()
	logger := zaptest.NewLogger(t)

	tr := New(repoDir, "myrepo", outputDir, false, logger)
	tr.Load()
	writeFile(t, repoDir, "a.go", "package main")
	tr.Update("a.go", true, "")
	tr.Update("a.go", false, "boom") // latest outcome wins
	require.NoError(t, tr.Save())

	reloaded := New(repoDir, "myrepo", outputDir, false, logger)
	meta := reloaded.Load()
	require.Contains(t, meta.Files, "a.go")
	assert.False(t, meta.Files["a.go"].ParseSuccessful)
	assert.Equal(t, "boom", meta.Files["a.go"].ErrorMessage)
	assert.Equal(t, "myrepo", meta.RepoName)
}

func TestCorruptStoreStartsFresh(t *testing.T) {
	repoDir := t.TempDir()
	outputDir := t.TempDir()
	metaPath := filepath.Join(outputDir, "myrepo", metadataFileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(metaPath), 0o755))
	require.NoError(t, os.WriteFile(metaPath, []byte("{not json"), 0o644))

	tr := New(repoDir, "myrepo", outputDir, false, zaptest.NewLogger(t))
	meta := tr.Load()
	assert.Empty(t, meta.Files)
	assert.Equal(t, "myrepo", meta.RepoName)
}

func TestMarkFullParse(t *testing.T) {
	tr, _ := newTestTracker(t, false)
	assert.Zero(t, tr.Metadata().LastFullParse)
	tr.MarkFullParse()
	assert.NotZero(t, tr.Metadata().LastFullParse)
}
