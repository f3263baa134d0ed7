// File: internal/export/store.go
// Pushes an aggregated graph into PostgreSQL so downstream tooling can query
// it with SQL instead of re-reading the aggregate artifact.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/codegraph-cli/api/schemas"
)

// DBPool abstracts pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store provides the PostgreSQL export target.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("export"),
	}, nil
}

const schemaSQL = `
    CREATE TABLE IF NOT EXISTS kg_nodes (
        id TEXT PRIMARY KEY,
        repository TEXT NOT NULL,
        node_type TEXT NOT NULL,
        implementation_file TEXT NOT NULL,
        start_line INT NOT NULL,
        end_line INT NOT NULL,
        code_snippet TEXT,
        export_id UUID NOT NULL,
        created_at TIMESTAMPTZ NOT NULL,
        last_seen TIMESTAMPTZ NOT NULL
    );
    CREATE TABLE IF NOT EXISTS kg_edges (
        subject_id TEXT NOT NULL,
        object_id TEXT NOT NULL,
        edge_type TEXT NOT NULL,
        repository TEXT NOT NULL,
        subject_file TEXT NOT NULL,
        object_file TEXT NOT NULL,
        export_id UUID NOT NULL,
        created_at TIMESTAMPTZ NOT NULL,
        last_seen TIMESTAMPTZ NOT NULL,
        PRIMARY KEY (subject_id, object_id, edge_type)
    );
`

// EnsureSchema creates the export tables when absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure export schema: %w", err)
	}
	return nil
}

// ExportGraph upserts the aggregate's nodes and edges in one transaction and
// returns the export id stamped on every row.
func (s *Store) ExportGraph(ctx context.Context, agg *schemas.AggregatedGraph) (string, error) {
	exportID := uuid.NewString()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if err := s.persistGraph(ctx, tx, agg, exportID); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.log.Info("Exported graph to database",
		zap.String("export_id", exportID),
		zap.String("repository", agg.Repository.Name),
		zap.Int("nodes", len(agg.Nodes)),
		zap.Int("edges", len(agg.Edges)),
	)
	return exportID, nil
}

func (s *Store) persistGraph(ctx context.Context, tx pgx.Tx, agg *schemas.AggregatedGraph, exportID string) error {
	if len(agg.Nodes) == 0 && len(agg.Edges) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	now := time.Now().UTC()
	repo := agg.Repository.Name

	sqlNodes := `
        INSERT INTO kg_nodes (id, repository, node_type, implementation_file, start_line, end_line, code_snippet, export_id, created_at, last_seen)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (id) DO UPDATE SET
            repository = EXCLUDED.repository,
            node_type = EXCLUDED.node_type,
            implementation_file = EXCLUDED.implementation_file,
            start_line = EXCLUDED.start_line,
            end_line = EXCLUDED.end_line,
            code_snippet = EXCLUDED.code_snippet,
            export_id = EXCLUDED.export_id,
            last_seen = EXCLUDED.last_seen;
    `
	for _, n := range agg.Nodes {
		batch.Queue(sqlNodes, n.ID, repo, n.Type, n.ImplementationFile, n.StartLine, n.EndLine, n.CodeSnippet, exportID, now, now)
	}

	sqlEdges := `
        INSERT INTO kg_edges (subject_id, object_id, edge_type, repository, subject_file, object_file, export_id, created_at, last_seen)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (subject_id, object_id, edge_type) DO UPDATE SET
            repository = EXCLUDED.repository,
            subject_file = EXCLUDED.subject_file,
            object_file = EXCLUDED.object_file,
            export_id = EXCLUDED.export_id,
            last_seen = EXCLUDED.last_seen;
    `
	for _, e := range agg.Edges {
		batch.Queue(sqlEdges, e.SubjectID, e.ObjectID, e.Type, repo, e.SubjectImplementationFile, e.ObjectImplementationFile, exportID, now, now)
	}

	br := tx.SendBatch(ctx, batch)
	if br == nil {
		return fmt.Errorf("failed to send batch: batch results is nil")
	}
	defer func() {
		_ = br.Close()
	}()

	expectedTotal := len(agg.Nodes) + len(agg.Edges)
	for i := 0; i < expectedTotal; i++ {
		if _, err := br.Exec(); err != nil {
			if i < len(agg.Nodes) {
				return fmt.Errorf("failed to execute batch upsert for node %s (index %d): %w", agg.Nodes[i].ID, i, err)
			}
			edgeIndex := i - len(agg.Nodes)
			e := agg.Edges[edgeIndex]
			return fmt.Errorf("failed to execute batch upsert for edge %s->%s (index %d): %w", e.SubjectID, e.ObjectID, edgeIndex, err)
		}
	}
	return nil
}
