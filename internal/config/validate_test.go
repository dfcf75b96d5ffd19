package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validPipeline() Pipeline {
	return Pipeline{
		Job:    "job",
		Source: Source{Kind: "file", File: SourceFile{Path: "in.csv"}},
		Parser: Parser{Kind: "csv", Options: Options{"comma": ","}},
		Transform: []Transform{
			{Kind: "normalize"},
			{Kind: "pivot", Options: Options{"key_indexes": []any{0}, "value_indexes": []any{1}, "new_record_size": float64(4)}},
		},
		Storage: Storage{
			Kind: "postgres",
			DB: DBConfig{
				DSN:     "postgres://user@localhost/db",
				Table:   "public.t",
				Columns: []string{"id"},
			},
		},
		Runtime: RuntimeConfig{BatchSize: 100},
	}
}

func TestValidatePipeline_ValidMinimal(t *testing.T) {
	issues := ValidatePipeline(validPipeline())
	require.Empty(t, issues)
	require.False(t, HasErrors(issues))
}

func TestValidatePipeline_Findings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Pipeline)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{"missing job", func(p *Pipeline) { p.Job = " " }, SeverityError, "job", "job must not be empty"},
		{"missing source kind", func(p *Pipeline) { p.Source.Kind = "" }, SeverityError, "source.kind", "must not be empty"},
		{"unknown source kind", func(p *Pipeline) { p.Source.Kind = "s3" }, SeverityWarning, "source.kind", "unknown source kind"},
		{"file without path", func(p *Pipeline) { p.Source.File.Path = "" }, SeverityError, "source.file.path", "non-empty path"},
		{"none source needs generate", func(p *Pipeline) { p.Source.Kind = "none" }, SeverityError, "source.kind", "generate parser"},
		{"missing parser", func(p *Pipeline) { p.Parser.Kind = "" }, SeverityError, "parser.kind", "must not be empty"},
		{"unknown parser", func(p *Pipeline) { p.Parser.Kind = "xml" }, SeverityWarning, "parser.kind", "unknown parser kind"},
		{"bad comma", func(p *Pipeline) { p.Parser.Options["comma"] = ";;" }, SeverityError, "parser.options.comma", "single character"},
		{"unbounded generate", func(p *Pipeline) { p.Source.Kind = "none"; p.Parser = Parser{Kind: "generate"} }, SeverityWarning, "parser.options", "until cancelled"},
		{"no transforms", func(p *Pipeline) { p.Transform = nil }, SeverityWarning, "transform", "no transforms"},
		{"empty transform kind", func(p *Pipeline) { p.Transform[0].Kind = "" }, SeverityError, "transform[0].kind", "must not be empty"},
		{"unknown transform", func(p *Pipeline) { p.Transform[0].Kind = "coerce" }, SeverityError, "transform[0].kind", "unknown transform kind"},
		{"pivot without size", func(p *Pipeline) { delete(p.Transform[1].Options, "new_record_size") }, SeverityError, "transform[1].options.new_record_size", "positive"},
		{"class pivot without indexes", func(p *Pipeline) { p.Transform[1].Options["labels"] = []any{"a"} }, SeverityError, "transform[1].options.labels", "label_index"},
		{"select without indexes", func(p *Pipeline) { p.Transform[0] = Transform{Kind: "select"} }, SeverityError, "transform[0].options.indexes", "at least one index"},
		{"bad dedup policy", func(p *Pipeline) { p.Transform[0] = Transform{Kind: "dedup", Options: Options{"policy": "random"}} }, SeverityError, "transform[0].options.policy", "unknown dedup policy"},
		{"bad aggregate", func(p *Pipeline) { p.Transform[0] = Transform{Kind: "group", Options: Options{"aggregate": "median"}} }, SeverityError, "transform[0].options.aggregate", "unknown aggregate"},
		{"unpivot without values", func(p *Pipeline) { p.Transform[0] = Transform{Kind: "unpivot"} }, SeverityError, "transform[0].options.value_indexes", "value_groups"},
		{"missing storage kind", func(p *Pipeline) { p.Storage.Kind = "" }, SeverityError, "storage.kind", "must not be empty"},
		{"unknown storage", func(p *Pipeline) { p.Storage.Kind = "oracle" }, SeverityWarning, "storage.kind", "unknown storage kind"},
		{"missing dsn", func(p *Pipeline) { p.Storage.DB.DSN = "" }, SeverityError, "storage.db.dsn", "must not be empty"},
		{"missing table", func(p *Pipeline) { p.Storage.DB.Table = "" }, SeverityError, "storage.db.table", "must not be empty"},
		{"missing columns", func(p *Pipeline) { p.Storage.DB.Columns = nil }, SeverityError, "storage.db.columns", "at least one destination column"},
		{"duplicate columns", func(p *Pipeline) { p.Storage.DB.CategoryColumn = "id" }, SeverityError, "storage.db.columns", "more than once"},
		{"negative batch", func(p *Pipeline) { p.Runtime.BatchSize = -1 }, SeverityError, "runtime.batch_size", "negative"},
		{"negative buffer", func(p *Pipeline) { p.Runtime.ChannelBuffer = -1 }, SeverityError, "runtime.channel_buffer", "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPipeline()
			tt.mutate(&p)
			issues := ValidatePipeline(p)
			require.True(t, hasIssue(issues, tt.sev, tt.path, tt.msg), "issues: %+v", issues)
		})
	}
}

func TestValidatePipeline_CSVStorageNeedsNoTable(t *testing.T) {
	p := validPipeline()
	p.Storage = Storage{Kind: "csv", DB: DBConfig{DSN: "-", Columns: []string{"a"}}}
	require.Empty(t, ValidatePipeline(p))
}

func TestValidatePipeline_GenerateWithoutSource(t *testing.T) {
	p := validPipeline()
	p.Source = Source{}
	p.Parser = Parser{Kind: "generate", Options: Options{"count": float64(3)}}
	require.Empty(t, ValidatePipeline(p))
}

func TestIssue_Error(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: "job", Message: "empty"}
	require.Equal(t, "error at job: empty", iss.Error())
}
