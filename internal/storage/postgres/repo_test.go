package postgres

import (
	"context"
	"errors"
	"testing"

	"recflow/internal/config"
	"recflow/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestSplitFQN(t *testing.T) {
	require.Equal(t, pgx.Identifier{"public", "sales"}, splitFQN("public.sales"))
	require.Equal(t, pgx.Identifier{"sales"}, splitFQN("sales"))
	require.Equal(t, pgx.Identifier{"a", "b"}, splitFQN("a..b"))
}

func TestDialect_TextTable(t *testing.T) {
	got, err := Dialect.BuildCreateTableSQL(Dialect.TextTable("public.sales", []string{"region", "amount"}))
	require.NoError(t, err)
	require.Equal(t, "CREATE TABLE IF NOT EXISTS \"public\".\"sales\" (\n  \"region\" TEXT,\n  \"amount\" TEXT\n);", got)
}

func TestDescribe_UsesServerDetail(t *testing.T) {
	base := &pgconn.PgError{Code: "23505", Detail: "Key (id)=(1) already exists."}
	err := describe("copy", base)
	require.ErrorContains(t, err, "Key (id)=(1) already exists. (23505)")
	require.True(t, errors.Is(err, base))

	require.EqualError(t, describe("exec", errors.New("boom")), "postgres: exec: boom")
}

func TestNewRepository_BadDSN(t *testing.T) {
	_, _, err := NewRepository(context.Background(), Config{DSN: "postgres://user@host:notaport/db"})
	require.ErrorContains(t, err, "postgres dsn")
}

// execRecorder is a storage.Repository that records Exec statements.
type execRecorder struct{ stmts []string }

func (e *execRecorder) CopyFrom(context.Context, []string, [][]any) (int64, error) { return 0, nil }
func (e *execRecorder) Exec(_ context.Context, sql string) error {
	e.stmts = append(e.stmts, sql)
	return nil
}
func (e *execRecorder) Close() {}

func TestRegistered_DDLBootstrap(t *testing.T) {
	require.Contains(t, storage.ListKinds(), "postgres")

	rec := &execRecorder{}
	err := storage.EnsureTable(context.Background(), "postgres", rec, config.DBConfig{
		Table: "public.sales", Columns: []string{"region"}, CategoryColumn: "category",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"CREATE TABLE IF NOT EXISTS \"public\".\"sales\" (\n  \"region\" TEXT,\n  \"category\" TEXT\n);"}, rec.stmts)
}

func TestFactory_UsesHook(t *testing.T) {
	want := errors.New("no server")
	var got Config
	old := newRepository
	newRepository = func(_ context.Context, cfg Config) (*Repository, func(), error) {
		got = cfg
		return nil, nil, want
	}
	t.Cleanup(func() { newRepository = old })

	_, err := storage.New(context.Background(), storage.Config{Kind: "postgres", DSN: "postgres://x", Table: "t", Columns: []string{"a"}})
	require.ErrorIs(t, err, want)
	require.Equal(t, Config{DSN: "postgres://x", Table: "t", Columns: []string{"a"}}, got)
}
