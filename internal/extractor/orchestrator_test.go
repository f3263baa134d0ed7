package extractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeRepoFiles(t *testing.T, repoDir string, rels ...string) {
	t.Helper()
	for _, rel := range rels {
		abs := filepath.Join(repoDir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(mainPy), 0o644))
	}
}

func TestExtractAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := &stubClient{generate: func(_ int64, prompt string) (string, error) {
		// Extraction of the "broken" module always fails at transport level.
		if strings.Contains(prompt, "File: src/broken.py") {
			return "", errors.New("upstream unavailable")
		}
		return validResponse(), nil
	}}
	e, repoDir, _ := newTestExtractor(t, client)
	writeRepoFiles(t, repoDir, "src/a.py", "src/b.py", "src/broken.py")

	run, err := e.ExtractAll(context.Background(), []string{"src/main.py", "src/a.py", "src/b.py", "src/broken.py"}, 2)
	require.NoError(t, err)

	assert.Len(t, run.Results, 3)
	assert.Contains(t, run.Results, "src/a.py")
	assert.Equal(t, []string{"src/broken.py"}, run.FailedFiles)
}

func TestExtractAllEmptyFileSet(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := &stubClient{generate: func(int64, string) (string, error) {
		return "", errors.New("must not be called")
	}}
	e, _, _ := newTestExtractor(t, client)

	run, err := e.ExtractAll(context.Background(), nil, 4)
	require.NoError(t, err)
	assert.Empty(t, run.Results)
	assert.Empty(t, run.FailedFiles)
	assert.Zero(t, client.calls.Load())
}

func TestExtractAllCanceledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := &stubClient{generate: func(int64, string) (string, error) {
		return validResponse(), nil
	}}
	e, repoDir, _ := newTestExtractor(t, client)
	writeRepoFiles(t, repoDir, "src/a.py")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ExtractAll(ctx, []string{"src/main.py", "src/a.py"}, 2)
	require.ErrorIs(t, err, context.Canceled)
}
