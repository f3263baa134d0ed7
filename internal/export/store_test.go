package export

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/codegraph-cli/api/schemas"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for more robust SQL mock testing.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

// ArgumentMatcherFunc is a helper to create inline mock matchers.
type ArgumentMatcherFunc func(interface{}) bool

func (f ArgumentMatcherFunc) Match(v interface{}) bool {
	return f(v)
}

// anyArg accepts any value (timestamps and generated export ids).
var anyArg = ArgumentMatcherFunc(func(v interface{}) bool {
	return true
})

const (
	sqlUpsertNode = `
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
	sqlUpsertEdge = `
        INSERT INTO kg_edges (subject_id, object_id, edge_type, repository, subject_file, object_file, export_id, created_at, last_seen)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (subject_id, object_id, edge_type) DO UPDATE SET
            repository = EXCLUDED.repository,
            subject_file = EXCLUDED.subject_file,
            object_file = EXCLUDED.object_file,
            export_id = EXCLUDED.export_id,
            last_seen = EXCLUDED.last_seen;
    `
)

func testAggregate() *schemas.AggregatedGraph {
	return &schemas.AggregatedGraph{
		Repository: schemas.RepositoryInfo{Name: "demo", Path: "/repo"},
		Nodes: []schemas.Node{
			{
				ID:                 "app.main.run",
				ImplementationFile: "app/main.py",
				StartLine:          0,
				EndLine:            5,
				Type:               "function",
				CodeSnippet:        "def run():\n    pass",
			},
		},
		Edges: []schemas.Edge{
			{
				SubjectID:                 "app.main.run",
				SubjectImplementationFile: "app/main.py",
				ObjectID:                  "utils.helper.greet",
				ObjectImplementationFile:  "utils/helper.py",
				Type:                      "calls",
			},
		},
	}
}

func TestNewStore(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = New(context.Background(), mockPool, zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestEnsureSchema(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectPing().WillReturnError(nil)
	store, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)

	mockPool.ExpectExec(flexibleSQLMatcher(schemaSQL)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestExportGraph(t *testing.T) {
	ctx := context.Background()

	t.Run("should upsert nodes and edges in one transaction", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		store, err := New(ctx, mockPool, zap.NewNop())
		require.NoError(t, err)

		agg := testAggregate()
		node := agg.Nodes[0]
		edge := agg.Edges[0]

		mockPool.ExpectBegin()
		batchExp := mockPool.ExpectBatch()

		batchExp.ExpectExec(flexibleSQLMatcher(sqlUpsertNode)).
			WithArgs(
				node.ID,
				"demo",
				node.Type,
				node.ImplementationFile,
				node.StartLine,
				node.EndLine,
				node.CodeSnippet,
				anyArg, // export id
				anyArg, // created_at
				anyArg, // last_seen
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		batchExp.ExpectExec(flexibleSQLMatcher(sqlUpsertEdge)).
			WithArgs(
				edge.SubjectID,
				edge.ObjectID,
				edge.Type,
				"demo",
				edge.SubjectImplementationFile,
				edge.ObjectImplementationFile,
				anyArg,
				anyArg,
				anyArg,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		// Commit, then the deferred rollback reports the closed transaction.
		mockPool.ExpectCommit()
		mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		exportID, err := store.ExportGraph(ctx, agg)
		require.NoError(t, err)
		_, err = uuid.Parse(exportID)
		assert.NoError(t, err, "export id must be a valid UUID")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should skip the batch for an empty aggregate", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		store, err := New(ctx, mockPool, zap.NewNop())
		require.NoError(t, err)

		mockPool.ExpectBegin()
		mockPool.ExpectCommit()
		mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		_, err = store.ExportGraph(ctx, &schemas.AggregatedGraph{})
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should roll back and name the node on batch failure", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		store, err := New(ctx, mockPool, zap.NewNop())
		require.NoError(t, err)

		agg := testAggregate()

		mockPool.ExpectBegin()
		batchExp := mockPool.ExpectBatch()
		batchExp.ExpectExec(flexibleSQLMatcher(sqlUpsertNode)).
			WithArgs(
				agg.Nodes[0].ID, "demo", agg.Nodes[0].Type, agg.Nodes[0].ImplementationFile,
				agg.Nodes[0].StartLine, agg.Nodes[0].EndLine, agg.Nodes[0].CodeSnippet,
				anyArg, anyArg, anyArg,
			).
			WillReturnError(errors.New("constraint violation"))
		batchExp.ExpectExec(flexibleSQLMatcher(sqlUpsertEdge)).
			WithArgs(
				agg.Edges[0].SubjectID,
				agg.Edges[0].ObjectID,
				agg.Edges[0].Type,
				"demo",
				agg.Edges[0].SubjectImplementationFile,
				agg.Edges[0].ObjectImplementationFile,
				anyArg,
				anyArg,
				anyArg,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectRollback()

		_, err = store.ExportGraph(ctx, agg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "app.main.run")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should propagate begin failure", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		store, err := New(ctx, mockPool, zap.NewNop())
		require.NoError(t, err)

		beginErr := errors.New("too many connections")
		mockPool.ExpectBegin().WillReturnError(beginErr)

		_, err = store.ExportGraph(ctx, testAggregate())
		require.Error(t, err)
		assert.ErrorIs(t, err, beginErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
