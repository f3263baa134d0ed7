// internal/extractor/extract.go
// Single-file extraction: format the syntax tree, chunk when large, prompt
// the extraction model with structural-error retries, sanitize the payload,
// and persist the per-file cache artifact.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/xkilldash9x/codegraph-cli/api/schemas"
	"github.com/xkilldash9x/codegraph-cli/internal/chunker"
	"github.com/xkilldash9x/codegraph-cli/internal/config"
	"github.com/xkilldash9x/codegraph-cli/internal/llmutil"
	"github.com/xkilldash9x/codegraph-cli/internal/syntax"
)

const (
	structuralRetries    = 2 // attempts = retries + 1
	structuralBackoffMin = 2 * time.Second
	structuralBackoffMax = 10 * time.Second
)

// Extractor runs the per-file pipeline. Safe for concurrent use; each call
// builds its own syntax parser.
type Extractor struct {
	projectRoot string
	repoName    string
	outputDir   string
	client      schemas.ExtractionClient
	chunker     *chunker.Chunker
	threshold   int
	logger      *zap.Logger
}

// New creates an extractor bound to one repository run.
func New(cfg config.ScanConfig, projectRoot string, client schemas.ExtractionClient, logger *zap.Logger) *Extractor {
	return &Extractor{
		projectRoot: projectRoot,
		repoName:    cfg.RepoName,
		outputDir:   cfg.OutputDir,
		client:      client,
		chunker:     chunker.New(cfg.ChunkSize),
		threshold:   cfg.ChunkThreshold,
		logger:      logger.Named("extractor"),
	}
}

// extractionPayload is the wire shape the model must return. Pointer slices
// distinguish a missing collection from an empty one.
type extractionPayload struct {
	Nodes *[]schemas.Node `json:"nodes"`
	Edges *[]schemas.Edge `json:"edges"`
}

// ExtractFile runs the full pipeline for one repo-relative file and returns
// its deduplicated, path-validated result. The result is also written to the
// per-file cache artifact under the output directory.
func (e *Extractor) ExtractFile(ctx context.Context, rel string) (*schemas.FileResult, error) {
	abs := filepath.Join(e.projectRoot, filepath.FromSlash(rel))
	source, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rel, err)
	}

	lang := syntax.LanguageForFile(rel)
	if lang == syntax.LangUnknown {
		return nil, fmt.Errorf("no grammar registered for %s", rel)
	}

	formatted, err := syntax.NewParser().FormatFile(ctx, source, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", rel, err)
	}

	fileTree := FileTree(e.projectRoot, rel)
	fileHeader := "File: " + rel

	totalLines := bytes.Count(source, []byte("\n")) + 1

	var result *schemas.FileResult
	if totalLines >= e.threshold {
		e.logger.Debug("File exceeds chunking threshold, splitting",
			zap.String("file", rel),
			zap.Int("lines", totalLines),
		)
		result = e.extractChunked(ctx, rel, formatted, fileHeader, fileTree)
	} else {
		result, err = e.extractSingle(ctx, rel, fileHeader+"\n"+formatted, fileTree)
		if err != nil {
			return nil, err
		}
	}

	if err := e.writeArtifact(rel, result); err != nil {
		return nil, err
	}
	return result, nil
}

// extractChunked processes each chunk in turn and folds the survivors. A
// chunk that exhausts its retries contributes nothing; the file as a whole
// still succeeds with whatever the other chunks produced.
func (e *Extractor) extractChunked(ctx context.Context, rel, formatted, fileHeader, fileTree string) *schemas.FileResult {
	chunks := e.chunker.Split(formatted, fileHeader)
	e.logger.Debug("Split formatted tree into chunks", zap.String("file", rel), zap.Int("chunks", len(chunks)))

	var allNodes []schemas.Node
	var allEdges []schemas.Edge
	for i, chunk := range chunks {
		payload, err := e.promptWithRetry(ctx, buildPrompt(fileTree, chunk), fmt.Sprintf("%s_chunk_%d", rel, i))
		if err != nil {
			e.logger.Error("Chunk extraction failed",
				zap.String("file", rel),
				zap.Int("chunk", i+1),
				zap.Error(err),
			)
			continue
		}
		nodes, edges := e.sanitize(payload)
		allNodes = append(allNodes, nodes...)
		allEdges = append(allEdges, edges...)
	}

	nodes, edges := dedupe(allNodes, allEdges)
	e.logger.Debug("Deduplicated chunk results",
		zap.String("file", rel),
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
	)
	return &schemas.FileResult{Nodes: nodes, Edges: edges}
}

func (e *Extractor) extractSingle(ctx context.Context, rel, formatted, fileTree string) (*schemas.FileResult, error) {
	payload, err := e.promptWithRetry(ctx, buildPrompt(fileTree, formatted), rel)
	if err != nil {
		return nil, err
	}
	nodes, edges := e.sanitize(payload)
	return &schemas.FileResult{Nodes: nodes, Edges: edges}, nil
}

// promptWithRetry sends one prompt and parses the structured payload,
// retrying only structural failures with bounded exponential backoff.
// Transport errors surface immediately; the client already retried
// transient HTTP conditions.
func (e *Extractor) promptWithRetry(ctx context.Context, prompt, label string) (*extractionPayload, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = structuralBackoffMin
	b.MaxInterval = structuralBackoffMax
	b.MaxElapsedTime = 0

	var payload *extractionPayload

	operation := func() error {
		response, err := e.client.Generate(ctx, prompt)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("extraction request failed for %s: %w", label, err))
		}

		parsed, err := llmutil.ParseJSONResponse[extractionPayload](response)
		if err != nil {
			return &StructuralError{File: label, Reason: "undecodable payload", Err: err}
		}
		if parsed.Nodes == nil || parsed.Edges == nil {
			return &StructuralError{File: label, Reason: "payload missing nodes or edges collection"}
		}

		payload = parsed
		return nil
	}

	notify := func(err error, next time.Duration) {
		e.logger.Debug("Retrying extraction after structural error",
			zap.String("file", label),
			zap.Duration("backoff", next),
			zap.Error(err),
		)
	}

	retry := backoff.WithMaxRetries(backoff.WithContext(b, ctx), structuralRetries)
	if err := backoff.RetryNotify(operation, retry, notify); err != nil {
		return nil, err
	}
	return payload, nil
}

// sanitize validates implementation paths on every entity and attaches code
// snippets to surviving nodes. Entities whose paths cannot be recovered are
// dropped.
func (e *Extractor) sanitize(payload *extractionPayload) ([]schemas.Node, []schemas.Edge) {
	nodes := make([]schemas.Node, 0, len(*payload.Nodes))
	for _, node := range *payload.Nodes {
		recovered := recoverPath(e.projectRoot, node.ImplementationFile, e.logger)
		if recovered == "" {
			e.logger.Debug("Dropping node with unrecoverable path", zap.String("id", node.ID))
			continue
		}
		node.ImplementationFile = recovered
		node.CodeSnippet = codeSnippet(e.projectRoot, recovered, node.StartLine, node.EndLine, e.logger)
		nodes = append(nodes, node)
	}

	edges := make([]schemas.Edge, 0, len(*payload.Edges))
	for _, edge := range *payload.Edges {
		subj := recoverPath(e.projectRoot, edge.SubjectImplementationFile, e.logger)
		obj := recoverPath(e.projectRoot, edge.ObjectImplementationFile, e.logger)
		if subj == "" || obj == "" {
			e.logger.Debug("Dropping edge with unrecoverable path",
				zap.String("subject", edge.SubjectID),
				zap.String("object", edge.ObjectID),
			)
			continue
		}
		edge.SubjectImplementationFile = subj
		edge.ObjectImplementationFile = obj
		edges = append(edges, edge)
	}
	return nodes, edges
}

// dedupe keeps the first occurrence of each node id and each
// (subject, object) edge pair, preserving arrival order.
func dedupe(nodes []schemas.Node, edges []schemas.Edge) ([]schemas.Node, []schemas.Edge) {
	seenNodes := make(map[string]struct{}, len(nodes))
	uniqueNodes := make([]schemas.Node, 0, len(nodes))
	for _, n := range nodes {
		if _, ok := seenNodes[n.ID]; ok {
			continue
		}
		seenNodes[n.ID] = struct{}{}
		uniqueNodes = append(uniqueNodes, n)
	}

	type edgeKey struct{ subject, object string }
	seenEdges := make(map[edgeKey]struct{}, len(edges))
	uniqueEdges := make([]schemas.Edge, 0, len(edges))
	for _, ed := range edges {
		key := edgeKey{ed.SubjectID, ed.ObjectID}
		if _, ok := seenEdges[key]; ok {
			continue
		}
		seenEdges[key] = struct{}{}
		uniqueEdges = append(uniqueEdges, ed)
	}
	return uniqueNodes, uniqueEdges
}

// writeArtifact persists the per-file cache entry mirroring the repository
// layout under <output>/<repo>/.
func (e *Extractor) writeArtifact(rel string, result *schemas.FileResult) error {
	dir := filepath.Join(e.outputDir, e.repoName, filepath.Dir(filepath.FromSlash(rel)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(filepath.FromSlash(rel))+".json")
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact for %s: %w", rel, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact for %s: %w", rel, err)
	}
	e.logger.Debug("Wrote extraction artifact", zap.String("file", rel), zap.String("path", path))
	return nil
}
