package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/codegraph-cli/api/schemas"
	"github.com/xkilldash9x/codegraph-cli/internal/config"
)

var promptFileRe = regexp.MustCompile(`File: (\S+)`)

// echoClient answers every extraction prompt with one node, deriving it from
// the file path embedded in the prompt. Per-file edge scripts let a test carry
// cross-file edges through the full run.
type echoClient struct {
	failFiles map[string]bool
	edges     map[string][]map[string]any
}

func (c *echoClient) Generate(_ context.Context, prompt string) (string, error) {
	m := promptFileRe.FindStringSubmatch(prompt)
	if m == nil {
		return "", errors.New("prompt carries no file header")
	}
	rel := m[1]
	if c.failFiles[rel] {
		return "", errors.New("simulated upstream failure")
	}
	id := strings.ReplaceAll(strings.TrimSuffix(rel, ".py"), "/", ".") + ".fn"
	edges := c.edges[rel]
	if edges == nil {
		edges = []map[string]any{}
	}
	payload := map[string]any{
		"nodes": []map[string]any{
			{"id": id, "implementation_file": rel, "start_line": 0, "end_line": 1, "type": "function"},
		},
		"edges": edges,
	}
	out, err := json.Marshal(payload)
	return string(out), err
}

// callsEdge scripts a calls edge between two single-node files.
func callsEdge(subjectRel, objectRel string) map[string]any {
	toID := func(rel string) string {
		return strings.ReplaceAll(strings.TrimSuffix(rel, ".py"), "/", ".") + ".fn"
	}
	return map[string]any{
		"subject_id":                  toID(subjectRel),
		"subject_implementation_file": subjectRel,
		"object_id":                   toID(objectRel),
		"object_implementation_file":  objectRel,
		"type":                        "calls",
	}
}

func testPipeline(t *testing.T, client schemas.ExtractionClient) (*Pipeline, string, config.Config) {
	t.Helper()
	repoDir := t.TempDir()
	cfg := config.Config{
		Scan: config.ScanConfig{
			OutputDir:      t.TempDir(),
			RepoName:       "repo",
			Concurrency:    2,
			ChunkThreshold: 1000,
			ChunkSize:      800,
		},
	}
	writeSource(t, repoDir, "src/a.py")
	writeSource(t, repoDir, "src/b.py")
	return New(cfg, repoDir, client, zaptest.NewLogger(t)), repoDir, cfg
}

func writeSource(t *testing.T, repoDir, rel string) {
	t.Helper()
	abs := filepath.Join(repoDir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte("def fn():\n    pass\n"), 0o644))
}

func loadAggregate(t *testing.T, path string) *schemas.AggregatedGraph {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var agg schemas.AggregatedGraph
	require.NoError(t, json.Unmarshal(data, &agg))
	return &agg
}

func TestRunInitialThenIncremental(t *testing.T) {
	client := &echoClient{edges: map[string][]map[string]any{
		"src/b.py": {callsEdge("src/b.py", "src/a.py")},
	}}
	p, _, _ := testPipeline(t, client)

	first, err := p.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, first.FilesChanged)
	assert.Zero(t, first.FilesFailed)
	assert.NotEmpty(t, first.RunID)

	agg := loadAggregate(t, first.AggregatePath)
	assert.Len(t, agg.Nodes, 2)
	assert.Equal(t, 2, agg.Statistics.TotalNodes)
	assert.Equal(t, map[string]int{"python": 2}, agg.Statistics.FilesByLanguage)

	// The cross-file edge survives extract, merge, and save.
	require.Len(t, agg.Edges, 1)
	assert.Equal(t, "src.b.fn", agg.Edges[0].SubjectID)
	assert.Equal(t, "src.a.fn", agg.Edges[0].ObjectID)
	assert.Equal(t, "calls", agg.Edges[0].Type)
	assert.Equal(t, 1, agg.Statistics.TotalEdges)
	assert.Equal(t, map[string]int{"calls": 1}, agg.Statistics.EdgesByType)

	// Nothing changed since: the second run short-circuits.
	second, err := p.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.FilesChanged)
	assert.Equal(t, first.AggregatePath, second.AggregatePath)
}

func TestRunEvictsOrphans(t *testing.T) {
	p, repoDir, _ := testPipeline(t, &echoClient{})

	first, err := p.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Len(t, loadAggregate(t, first.AggregatePath).Nodes, 2)

	require.NoError(t, os.Remove(filepath.Join(repoDir, "src", "b.py")))

	second, err := p.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Orphaned)
	assert.Equal(t, 0, second.FilesChanged)

	agg := loadAggregate(t, second.AggregatePath)
	require.Len(t, agg.Nodes, 1)
	assert.Equal(t, "src/a.py", agg.Nodes[0].ImplementationFile)
}

func TestRunForceGlobs(t *testing.T) {
	p, _, _ := testPipeline(t, &echoClient{})

	_, err := p.Run(context.Background(), Options{})
	require.NoError(t, err)

	forced, err := p.Run(context.Background(), Options{ForceGlobs: []string{"src/a.py"}})
	require.NoError(t, err)
	assert.Equal(t, 1, forced.FilesChanged)
}

func TestRunFullReparsesEverything(t *testing.T) {
	p, _, _ := testPipeline(t, &echoClient{})

	_, err := p.Run(context.Background(), Options{})
	require.NoError(t, err)

	full, err := p.Run(context.Background(), Options{Full: true})
	require.NoError(t, err)
	assert.Equal(t, 2, full.FilesChanged)
}

func TestRunRecordsFailedFiles(t *testing.T) {
	p, _, _ := testPipeline(t, &echoClient{failFiles: map[string]bool{"src/b.py": true}})

	result, err := p.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.FilesChanged)
	assert.Equal(t, 1, result.FilesFailed)

	agg := loadAggregate(t, result.AggregatePath)
	assert.Len(t, agg.Nodes, 1)
	assert.Equal(t, 1, agg.Repository.TotalFilesProcessed)
	assert.Equal(t, 1, agg.Repository.TotalFilesFailed)
	assert.Equal(t, []string{"src/b.py"}, agg.Repository.FailedFiles)
}

func TestRunMissingRepoDir(t *testing.T) {
	cfg := config.Config{Scan: config.ScanConfig{OutputDir: t.TempDir(), Concurrency: 1, ChunkThreshold: 1000, ChunkSize: 800}}
	p := New(cfg, filepath.Join(t.TempDir(), "absent"), &echoClient{}, zaptest.NewLogger(t))

	_, err := p.Run(context.Background(), Options{})
	require.Error(t, err)
}

func TestRepoNameDefaultsToDirBase(t *testing.T) {
	repoDir := t.TempDir()
	cfg := config.Config{Scan: config.ScanConfig{OutputDir: t.TempDir(), Concurrency: 1, ChunkThreshold: 1000, ChunkSize: 800}}
	p := New(cfg, repoDir, &echoClient{}, zaptest.NewLogger(t))

	result, err := p.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Contains(t, result.AggregatePath, filepath.Base(repoDir))
}
