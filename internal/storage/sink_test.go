package storage

import (
	"context"
	"errors"
	"testing"

	"recflow/internal/config"
	"recflow/pkg/records"

	"github.com/stretchr/testify/require"
)

func configDB() config.DBConfig {
	return config.DBConfig{
		DSN:            "mem",
		Table:          "t",
		Columns:        []string{"a", "b"},
		CategoryColumn: "cat",
		RecordIDColumn: "id",
	}
}

func TestRowMapper(t *testing.T) {
	m := NewRowMapper(configDB())
	require.Equal(t, 4, m.Size())

	require.Equal(t, []any{"x", nil, "c1", "9"},
		m.Row(records.Of("x").WithCategory("c1").WithRecordID(9)))
	require.Equal(t, []any{"x", nil, nil, nil},
		m.Row(records.New([]records.Text{records.TextOf("x"), records.NullText(), records.TextOf("extra")})))

	bare := NewRowMapper(config.DBConfig{Columns: []string{"only"}})
	require.Equal(t, []any{"k"}, bare.Row(records.NewKeyValue("k", records.TextOf("v"))))
}

func TestSink_BatchesThroughRepository(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{}
	db := configDB()
	db.AutoCreateTable = true
	RegisterDDL("fake-ddl", func(ctx context.Context, r Repository, db config.DBConfig) error {
		return r.Exec(ctx, "CREATE "+db.Table)
	})

	s := NewRepositorySink("fake-ddl", repo, db, SinkOptions{BatchSize: 2, Buffer: 1})
	require.NoError(t, s.Open(ctx))
	for _, v := range []string{"1", "2", "3"} {
		require.NoError(t, s.Consume(ctx, records.Of(v, v)))
	}
	require.NoError(t, s.Flush(ctx))
	require.NoError(t, s.Close())

	require.Equal(t, []string{"CREATE t"}, repo.stmts)
	require.Equal(t, []string{"a", "b", "cat", "id"}, repo.columns)
	require.Equal(t, [][]any{
		{"1", "1", nil, nil}, {"2", "2", nil, nil}, {"3", "3", nil, nil},
	}, repo.rows)
	require.Equal(t, int64(3), s.Inserted())
	require.True(t, repo.closed)
}

func TestSink_LoaderFailureSurfacesInConsume(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	repo := &fakeRepo{copyErr: boom}

	s := NewRepositorySink("fake", repo, config.DBConfig{Columns: []string{"a"}}, SinkOptions{BatchSize: 1, Buffer: 1})
	require.NoError(t, s.Open(ctx))

	var err error
	for i := 0; i < 100 && err == nil; i++ {
		err = s.Consume(ctx, records.Of("x"))
	}
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, s.Flush(ctx), boom)
	require.NoError(t, s.Close())
	require.True(t, repo.closed)
}

func TestSink_OpenFailures(t *testing.T) {
	ctx := context.Background()

	s := NewSink(config.Storage{Kind: "unregistered-kind"}, SinkOptions{})
	require.ErrorContains(t, s.Open(ctx), "unsupported storage.kind=unregistered-kind")
	require.NoError(t, s.Close())

	repo := &fakeRepo{}
	db := config.DBConfig{Columns: []string{"a"}, AutoCreateTable: true}
	s = NewRepositorySink("no-ddl-kind", repo, db, SinkOptions{})
	require.ErrorContains(t, s.Open(ctx), "ensure table")
	require.True(t, repo.closed)
}

func TestSink_CloseWithoutFlushAbandonsRows(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{}
	s := NewRepositorySink("fake", repo, config.DBConfig{Columns: []string{"a"}}, SinkOptions{BatchSize: 10})
	require.NoError(t, s.Open(ctx))
	require.NoError(t, s.Consume(ctx, records.Of("x")))
	require.NoError(t, s.Close())
	require.Empty(t, repo.rows)
	require.True(t, repo.closed)
}
