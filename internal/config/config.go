// Package config defines the configuration model for record pipelines. A
// pipeline file is JSON or YAML and names a source, a parser that turns the
// source into records, an ordered list of transforms and a storage sink.
//
// Example (trimmed):
//
//	{
//	  "job":      "vehicles",
//	  "source":   { "kind": "file", "file": { "path": "path/to.csv" } },
//	  "parser":   { "kind": "csv", "options": { "has_header": true } },
//	  "transform":[
//	    { "kind": "normalize" },
//	    { "kind": "distinct", "options": { "indexes": [0] } }
//	  ],
//	  "storage":  { "kind": "sqlite", "db": { "dsn": "file:out.db", "table": "t", "columns": ["a","b"] } }
//	}
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run in logs and metrics.
	Job string `json:"job" yaml:"job"`

	// Source describes where input bytes come from.
	Source Source `json:"source" yaml:"source"`

	// Parser turns the source into records.
	Parser Parser `json:"parser" yaml:"parser"`

	// Transform lists the transforms applied to the record stream, in order.
	Transform []Transform `json:"transform" yaml:"transform"`

	// Storage describes where the resulting records are written.
	Storage Storage       `json:"storage" yaml:"storage"`
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
}

// RuntimeConfig controls batching and buffering.
type RuntimeConfig struct {
	BatchSize     int `json:"batch_size" yaml:"batch_size"`
	ChannelBuffer int `json:"channel_buffer" yaml:"channel_buffer"`
}

// Source identifies the data source. Parsers that synthesise records
// ("generate") use kind "none".
type Source struct {
	Kind string     `json:"kind" yaml:"kind"`
	File SourceFile `json:"file" yaml:"file"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path" yaml:"path"`
}

// Parser selects how the source becomes records.
type Parser struct {
	// Kind is "csv", "json" or "generate".
	Kind string `json:"kind" yaml:"kind"`

	// Options is interpreted by the parser. For CSV:
	//   has_header (bool), comma (string), trim_space (bool),
	//   lazy_quotes (bool), fields_per_record (int), category (string)
	Options Options `json:"options" yaml:"options"`
}

// Transform is a single step of the transform chain.
type Transform struct {
	// Kind selects the transform ("filter", "normalize", "select", "sort",
	// "distinct", "dedup", "group", "pivot", "unpivot", "log", "require").
	Kind string `json:"kind" yaml:"kind"`

	// Name labels the stage in metrics. Defaults to the kind.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	Options Options `json:"options" yaml:"options"`
}

// StageName is the metrics label of the transform.
func (t Transform) StageName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Kind
}

// Storage selects the sink.
type Storage struct {
	// Kind is "sqlite", "postgres", "mssql", "mysql" or "csv".
	Kind string   `json:"kind" yaml:"kind"`
	DB   DBConfig `json:"db" yaml:"db"`
}

// DBConfig configures the sink.
type DBConfig struct {
	// DSN is the backend connection string; for "csv" it is the output path
	// ("-" for stdout).
	DSN string `json:"dsn" yaml:"dsn"`

	// Table is the destination table, optionally schema-qualified.
	Table string `json:"table" yaml:"table"`

	// Columns receive record fields by position. Fields beyond the column list
	// are dropped and missing fields are written as NULL.
	Columns []string `json:"columns" yaml:"columns"`

	// CategoryColumn, when set, receives the record category.
	CategoryColumn string `json:"category_column" yaml:"category_column"`

	// RecordIDColumn, when set, receives the record id.
	RecordIDColumn string `json:"record_id_column" yaml:"record_id_column"`

	// AutoCreateTable creates the table (all TEXT columns) when missing.
	AutoCreateTable bool `json:"auto_create_table" yaml:"auto_create_table"`
}

// AllColumns is Columns followed by the category and record id columns when
// they are configured.
func (db DBConfig) AllColumns() []string {
	out := append([]string(nil), db.Columns...)
	if db.CategoryColumn != "" {
		out = append(out, db.CategoryColumn)
	}
	if db.RecordIDColumn != "" {
		out = append(out, db.RecordIDColumn)
	}
	return out
}

// Load reads a pipeline file. Files ending in .yaml or .yml are decoded as
// YAML, everything else as JSON.
func Load(path string) (Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(b)
	default:
		return DecodeJSON(b)
	}
}

// DecodeJSON decodes a pipeline from JSON. Unknown fields are rejected.
func DecodeJSON(b []byte) (Pipeline, error) {
	var p Pipeline
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("config: decode json: %w", err)
	}
	return p, nil
}

// DecodeYAML decodes a pipeline from YAML.
func DecodeYAML(b []byte) (Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Pipeline{}, fmt.Errorf("config: decode yaml: %w", err)
	}
	return p, nil
}
