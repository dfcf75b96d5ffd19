package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func quietEnv(t *testing.T) {
	t.Setenv("RECFLOW_LOG_LEVEL", "error")
	t.Setenv("RECFLOW_METRICS_BACKEND", "none")
}

func TestRun_CSVToCSV(t *testing.T) {
	quietEnv(t)
	dir := t.TempDir()
	in := writeFile(t, dir, "sales.csv", "region,quarter,amount\nnorth,q1,10\nsouth,q1,7\nnorth,q2,12\n")
	out := filepath.Join(dir, "out.csv")
	cfg := writeFile(t, dir, "pipeline.json", `{
  "job": "sales",
  "source": {"kind": "file", "file": {"path": "`+in+`"}},
  "parser": {"kind": "csv", "options": {"has_header": true}},
  "transform": [
    {"kind": "group", "options": {"key_indexes": [0], "aggregate": "count"}}
  ],
  "storage": {"kind": "csv", "db": {"dsn": "`+out+`", "columns": ["region", "n"]}}
}`)

	var stderr bytes.Buffer
	require.Equal(t, exitOK, run(context.Background(), []string{"-config", cfg}, &stderr), stderr.String())

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "region,n\nnorth,2\nsouth,1\n", string(got))
}

func TestRun_GenerateYAMLToSQLite(t *testing.T) {
	quietEnv(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "out.db")
	cfg := writeFile(t, dir, "pipeline.yaml", `
job: counter
source:
  kind: none
parser:
  kind: generate
  options:
    count: 3
transform:
  - kind: select
    options:
      indexes: [1]
storage:
  kind: sqlite
  db:
    dsn: `+dbPath+`
    table: totals
    columns: [total]
    auto_create_table: true
`)

	var stderr bytes.Buffer
	newRunID = func() string { return "run-1" }
	t.Cleanup(func() { newRunID = defaultRunID })
	require.Equal(t, exitOK, run(context.Background(), []string{"-config", cfg}, &stderr), stderr.String())

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()
	rows, err := db.Query(`SELECT total FROM totals ORDER BY rowid`)
	require.NoError(t, err)
	defer rows.Close()
	var got []string
	for rows.Next() {
		var s string
		require.NoError(t, rows.Scan(&s))
		got = append(got, s)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []string{"0", "1", "3"}, got)
}

func TestRun_ValidateOnly(t *testing.T) {
	quietEnv(t)
	dir := t.TempDir()
	cfg := writeFile(t, dir, "pipeline.json", `{
  "job": "v",
  "source": {"kind": "file", "file": {"path": "does-not-matter.csv"}},
  "parser": {"kind": "csv"},
  "storage": {"kind": "csv", "db": {"dsn": "-", "columns": ["a"]}}
}`)

	var stderr bytes.Buffer
	require.Equal(t, exitOK, run(context.Background(), []string{"-validate", "-config", cfg}, &stderr))
	require.Contains(t, stderr.String(), "warning: transform: no transforms configured")
}

func TestRun_InvalidConfig(t *testing.T) {
	quietEnv(t)
	dir := t.TempDir()
	cfg := writeFile(t, dir, "pipeline.json", `{
  "source": {"kind": "file", "file": {"path": ""}},
  "parser": {"kind": "csv"},
  "storage": {"kind": "sqlite", "db": {"dsn": "x.db", "columns": ["a"]}}
}`)

	var stderr bytes.Buffer
	require.Equal(t, exitInvalid, run(context.Background(), []string{"-config", cfg}, &stderr))
	require.Contains(t, stderr.String(), "error: job:")
	require.Contains(t, stderr.String(), "error: source.file.path:")
	require.Contains(t, stderr.String(), "error: storage.db.table:")
}

func TestRun_LoadAndFlagErrors(t *testing.T) {
	quietEnv(t)
	var stderr bytes.Buffer
	require.Equal(t, exitInvalid, run(context.Background(), []string{"-config", filepath.Join(t.TempDir(), "missing.json")}, &stderr))
	require.Equal(t, exitInvalid, run(context.Background(), []string{"-no-such-flag"}, &stderr))
	require.Equal(t, exitOK, run(context.Background(), []string{"-h"}, &stderr))

	t.Setenv("RECFLOW_LOG_LEVEL", "loud")
	require.Equal(t, exitInvalid, run(context.Background(), nil, &stderr))
}

func TestRun_PipelineFailure(t *testing.T) {
	quietEnv(t)
	dir := t.TempDir()
	cfg := writeFile(t, dir, "pipeline.json", `{
  "job": "broken",
  "source": {"kind": "file", "file": {"path": "`+filepath.Join(dir, "missing.csv")+`"}},
  "parser": {"kind": "csv"},
  "transform": [{"kind": "log"}],
  "storage": {"kind": "csv", "db": {"dsn": "`+filepath.Join(dir, "out.csv")+`", "columns": ["a"]}}
}`)
	var stderr bytes.Buffer
	require.Equal(t, exitFailed, run(context.Background(), []string{"-config", cfg}, &stderr))
}

func TestSetupMetrics(t *testing.T) {
	log := zap.NewNop()

	flush, err := setupMetrics("none", "job", "run", "", "", log)
	require.NoError(t, err)
	flush()

	_, err = setupMetrics("carrier-pigeon", "job", "run", "", "", log)
	require.ErrorContains(t, err, `unknown metrics backend "carrier-pigeon"`)

	_, err = setupMetrics("pushgateway", "job", "run", "", "", log)
	require.ErrorContains(t, err, "gateway URL is required")

	_, err = setupMetrics("datadog", "job", "run", "", "", log)
	require.ErrorContains(t, err, "Addr is required")
}

func TestFirstNonEmpty(t *testing.T) {
	require.Equal(t, "b", firstNonEmpty("", "b", "c"))
	require.Equal(t, "", firstNonEmpty("", ""))
}
