package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const pipelineJSON = `{
  "job": "vehicles",
  "source": { "kind": "file", "file": { "path": "testdata/in.csv" } },
  "parser": {
    "kind": "csv",
    "options": { "has_header": true, "comma": ";", "fields_per_record": 3 }
  },
  "transform": [
    { "kind": "normalize" },
    { "kind": "distinct", "name": "dedupe-by-key", "options": { "indexes": [0, 2] } }
  ],
  "storage": {
    "kind": "sqlite",
    "db": {
      "dsn": "file:out.db",
      "table": "vehicles",
      "columns": ["a", "b", "c"],
      "category_column": "cat",
      "auto_create_table": true
    }
  },
  "runtime": { "batch_size": 500, "channel_buffer": 64 }
}`

const pipelineYAML = `
job: vehicles
source:
  kind: file
  file:
    path: testdata/in.csv
parser:
  kind: csv
  options:
    has_header: true
    comma: ";"
    fields_per_record: 3
transform:
  - kind: normalize
  - kind: distinct
    name: dedupe-by-key
    options:
      indexes: [0, 2]
storage:
  kind: sqlite
  db:
    dsn: "file:out.db"
    table: vehicles
    columns: [a, b, c]
    category_column: cat
    auto_create_table: true
runtime:
  batch_size: 500
  channel_buffer: 64
`

func checkPipeline(t *testing.T, p Pipeline) {
	t.Helper()
	require.Equal(t, "vehicles", p.Job)
	require.Equal(t, "file", p.Source.Kind)
	require.Equal(t, "testdata/in.csv", p.Source.File.Path)
	require.Equal(t, "csv", p.Parser.Kind)
	require.True(t, p.Parser.Options.Bool("has_header", false))
	require.Equal(t, ';', p.Parser.Options.Rune("comma", ','))
	require.Equal(t, 3, p.Parser.Options.Int("fields_per_record", 0))
	require.Len(t, p.Transform, 2)
	require.Equal(t, "normalize", p.Transform[0].StageName())
	require.Equal(t, "dedupe-by-key", p.Transform[1].StageName())
	require.Equal(t, []int{0, 2}, p.Transform[1].Options.IntSlice("indexes"))
	require.Equal(t, "sqlite", p.Storage.Kind)
	require.Equal(t, []string{"a", "b", "c", "cat"}, p.Storage.DB.AllColumns())
	require.True(t, p.Storage.DB.AutoCreateTable)
	require.Equal(t, RuntimeConfig{BatchSize: 500, ChannelBuffer: 64}, p.Runtime)
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()
	p, err := DecodeJSON([]byte(pipelineJSON))
	require.NoError(t, err)
	checkPipeline(t, p)
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	t.Parallel()
	_, err := DecodeJSON([]byte(`{"job":"x","jbo":"typo"}`))
	require.Error(t, err)
}

func TestDecodeYAML(t *testing.T) {
	t.Parallel()
	p, err := DecodeYAML([]byte(pipelineYAML))
	require.NoError(t, err)
	checkPipeline(t, p)
}

func TestLoad_PicksDecoderByExtension(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "p.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(pipelineJSON), 0o600))
	yamlPath := filepath.Join(dir, "p.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(pipelineYAML), 0o600))

	for _, path := range []string{jsonPath, yamlPath} {
		p, err := Load(path)
		require.NoError(t, err, path)
		checkPipeline(t, p)
	}

	_, err := Load(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestOptions_Getters(t *testing.T) {
	t.Parallel()
	o := Options{
		"s":      "x",
		"b":      true,
		"f":      float64(2.5),
		"i64":    int64(-4),
		"u64":    uint64(7),
		"comma":  "|",
		"map":    map[string]any{"a": "1", "b": 2},
		"strs":   []any{"a", 1, "b"},
		"ints":   []any{float64(1), uint64(2), "x"},
		"nested": map[string]any{"k": "v"},
	}

	require.Equal(t, "x", o.String("s", "d"))
	require.Equal(t, "d", o.String("b", "d"))
	require.True(t, o.Bool("b", false))
	require.Equal(t, 2, o.Int("f", 0))
	require.Equal(t, -4, o.Int("i64", 0))
	require.Equal(t, 7, o.Int("u64", 0))
	require.Equal(t, 9, o.Int("missing", 9))
	require.InDelta(t, 2.5, o.Float("f", 0), 1e-9)
	require.InDelta(t, 7.0, o.Float("u64", 0), 1e-9)
	require.Equal(t, '|', o.Rune("comma", ','))
	require.Equal(t, map[string]string{"a": "1"}, o.StringMap("map"))
	require.Empty(t, o.StringMap("missing"))
	require.Equal(t, []string{"a", "b"}, o.StringSlice("strs"))
	require.Equal(t, []int{1, 2}, o.IntSlice("ints"))
	require.Nil(t, o.IntSlice("missing"))
	require.Equal(t, "v", o.Sub("nested").String("k", ""))
	require.Nil(t, o.Sub("s"))
	require.Nil(t, o.Any("missing"))

	var nilOpts Options
	require.Equal(t, 3, nilOpts.Int("x", 3))
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("RECFLOW_LOG_LEVEL", "debug")
	t.Setenv("RECFLOW_BATCH_SIZE", "42")
	t.Setenv("RECFLOW_DSN", "file:other.db")
	t.Setenv("RECFLOW_METRICS_BACKEND", "datadog")

	e, err := LoadEnv()
	require.NoError(t, err)
	require.Equal(t, "debug", e.LogLevel)
	require.Equal(t, "datadog", e.MetricsBackend)
	require.Equal(t, "http://localhost:9091", e.PushgatewayURL)

	p := Pipeline{Runtime: RuntimeConfig{BatchSize: 10, ChannelBuffer: 5}}
	e.Apply(&p)
	require.Equal(t, 42, p.Runtime.BatchSize)
	require.Equal(t, 5, p.Runtime.ChannelBuffer)
	require.Equal(t, "file:other.db", p.Storage.DB.DSN)
}

func TestLoadEnv_InvalidNumber(t *testing.T) {
	t.Setenv("RECFLOW_BATCH_SIZE", "lots")
	_, err := LoadEnv()
	require.Error(t, err)
}
