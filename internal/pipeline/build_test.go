package pipeline_test

import (
	"slices"
	"testing"

	"recflow/internal/config"
	"recflow/internal/pipeline"
	"recflow/pkg/records"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func apply(t *testing.T, ts []config.Transform, in ...records.Record) [][]string {
	t.Helper()
	m, err := pipeline.Build("test", ts, zap.NewNop())
	require.NoError(t, err)
	return strs(slices.Collect(m(slices.Values(in))))
}

func sales() []records.Record {
	return []records.Record{
		records.Of("north", "q1", "10"),
		records.Of("south", "q1", "7"),
		records.Of("north", "q2", "12"),
		records.Of("north", "q3", "x"),
		records.Of("south", "q2", "9"),
	}
}

func TestBuild_Stages(t *testing.T) {
	tests := []struct {
		name string
		ts   []config.Transform
		want [][]string
	}{
		{
			name: "filter equals",
			ts:   []config.Transform{{Kind: "filter", Options: config.Options{"index": 0, "equals": "south"}}},
			want: [][]string{{"south", "q1", "7"}, {"south", "q2", "9"}},
		},
		{
			name: "filter negated",
			ts:   []config.Transform{{Kind: "filter", Options: config.Options{"index": 0, "equals": "north", "not": true}}},
			want: [][]string{{"south", "q1", "7"}, {"south", "q2", "9"}},
		},
		{
			name: "select then distinct",
			ts: []config.Transform{
				{Kind: "select", Options: config.Options{"indexes": []any{0}}},
				{Kind: "distinct"},
			},
			want: [][]string{{"north"}, {"south"}},
		},
		{
			name: "sort descending",
			ts: []config.Transform{
				{Kind: "filter", Options: config.Options{"index": 1, "equals": "q1"}},
				{Kind: "sort", Options: config.Options{"index": 0, "desc": true}},
			},
			want: [][]string{{"south", "q1", "7"}, {"north", "q1", "10"}},
		},
		{
			name: "group count",
			ts:   []config.Transform{{Kind: "group", Options: config.Options{"key_indexes": []any{0}, "aggregate": "count"}}},
			want: [][]string{{"north", "3"}, {"south", "2"}},
		},
		{
			name: "group summary with having",
			ts: []config.Transform{{Kind: "group", Options: config.Options{
				"key_indexes": []any{0}, "aggregate": "summary", "value_index": 2, "min_members": 3,
			}}},
			want: [][]string{{"north", "2", "22", "11", "1.4142135623730951", "10", "12"}},
		},
		{
			name: "index pivot",
			ts: []config.Transform{{Kind: "pivot", Options: config.Options{
				"key_indexes": []any{0}, "value_indexes": []any{2}, "new_record_size": 4,
			}}},
			want: [][]string{{"north", "10", "12", "x"}, {"south", "7", "9", "<null>"}},
		},
		{
			name: "classification pivot",
			ts: []config.Transform{{Kind: "pivot", Options: config.Options{
				"key_indexes": []any{0}, "labels": []any{"q1", "q2"}, "label_index": 1, "value_index": 2, "null_text": "-",
			}}},
			want: [][]string{{"north", "10", "12"}, {"south", "7", "9"}},
		},
		{
			name: "unpivot per value",
			ts: []config.Transform{
				{Kind: "filter", Options: config.Options{"index": 1, "equals": "q1"}},
				{Kind: "unpivot", Options: config.Options{
					"key_indexes": []any{0}, "value_indexes": []any{1, 2}, "identifiers": map[string]any{"1": "quarter"},
				}},
			},
			want: [][]string{
				{"north", "quarter", "q1"}, {"north", "2", "10"},
				{"south", "quarter", "q1"}, {"south", "2", "7"},
			},
		},
		{
			name: "unpivot per group",
			ts: []config.Transform{
				{Kind: "filter", Options: config.Options{"index": 2, "equals": "x"}},
				{Kind: "unpivot", Options: config.Options{
					"key_indexes": []any{0}, "value_groups": []any{[]any{1}, []any{2}}, "identifiers": []any{"when", "amount"},
				}},
			},
			want: [][]string{{"north", "when", "q3"}, {"north", "amount", "x"}},
		},
		{
			name: "dedup keeps last",
			ts:   []config.Transform{{Kind: "dedup", Options: config.Options{"indexes": []any{0}, "policy": "keep-last"}}},
			want: [][]string{{"north", "q3", "x"}, {"south", "q2", "9"}},
		},
		{
			name: "normalize lower then require",
			ts: []config.Transform{
				{Kind: "normalize", Options: config.Options{"indexes": []any{1}, "lower": true}},
				{Kind: "filter", Options: config.Options{"index": 0, "equals": "south"}},
				{Kind: "require", Options: config.Options{"indexes": []any{0, 1}}},
			},
			want: [][]string{{"south", "q1", "7"}, {"south", "q2", "9"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, apply(t, tt.ts, sales()...))
		})
	}
}

func TestBuild_NormalizeMarkup(t *testing.T) {
	ts := []config.Transform{{Kind: "normalize", Options: config.Options{"strip_markup": true, "collapse_space": true}}}
	got := apply(t, ts, records.Of("<td>North \n  Region</td>", "<b>10</b>"))
	require.Equal(t, [][]string{{"North Region", "10"}}, got)
}

func TestBuild_FilterPresenceAndPattern(t *testing.T) {
	in := []records.Record{
		records.Of("north", "q1").WithCategory("web").WithRecordID(2),
		records.Of("south", "q4"),
		records.New([]records.Text{records.NullText(), records.TextOf("q2")}, records.InCategory("shop")),
	}
	tests := []struct {
		name string
		opts config.Options
		want [][]string
	}{
		{"has category", config.Options{"has_category": true}, [][]string{{"north", "q1"}, {"<null>", "q2"}}},
		{"has record id", config.Options{"has_record_id": true}, [][]string{{"north", "q1"}}},
		{"matches", config.Options{"index": 1, "matches": "^q[12]$"}, [][]string{{"north", "q1"}, {"<null>", "q2"}}},
		{"matches skips null", config.Options{"index": 0, "matches": ".*"}, [][]string{{"north", "q1"}, {"south", "q4"}}},
		{"no category", config.Options{"has_category": true, "not": true}, [][]string{{"south", "q4"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, apply(t, []config.Transform{{Kind: "filter", Options: tt.opts}}, in...))
		})
	}
}

func TestBuild_SelectWithoutCategory(t *testing.T) {
	m, err := pipeline.Build("test", []config.Transform{
		{Kind: "select", Options: config.Options{"indexes": []any{1}, "without_category": true}},
	}, zap.NewNop())
	require.NoError(t, err)
	out := slices.Collect(m(slices.Values([]records.Record{records.Of("a", "b").WithCategory("c")})))
	require.Len(t, out, 1)
	require.Equal(t, []string{"b"}, out[0].Strings(""))
	_, ok := out[0].Category()
	require.False(t, ok)
}

func TestBuild_EmptyIsIdentity(t *testing.T) {
	require.Len(t, apply(t, nil, sales()...), len(sales()))
}

func TestBuild_LogStage(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m, err := pipeline.Build("test", []config.Transform{
		{Kind: "log", Name: "peek", Options: config.Options{"level": "debug", "separator": "|", "prefix": "row "}},
	}, zap.New(core))
	require.NoError(t, err)

	out := slices.Collect(m(slices.Values(sales()[:2])))
	require.Len(t, out, 2)
	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "row north|q1|10", entries[0].Message)
	require.Equal(t, "peek", entries[0].LoggerName)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		t    config.Transform
	}{
		{"unknown kind", config.Transform{Kind: "coerce"}},
		{"filter without target", config.Transform{Kind: "filter"}},
		{"select without indexes", config.Transform{Kind: "select"}},
		{"bad pattern", config.Transform{Kind: "filter", Options: config.Options{"matches": "("}}},
		{"bad collation", config.Transform{Kind: "sort", Options: config.Options{"collation": "!!"}}},
		{"bad policy", config.Transform{Kind: "dedup", Options: config.Options{"policy": "random"}}},
		{"bad aggregate", config.Transform{Kind: "group", Options: config.Options{"aggregate": "median"}}},
		{"pivot without size", config.Transform{Kind: "pivot"}},
		{"class pivot without indexes", config.Transform{Kind: "pivot", Options: config.Options{"labels": []any{"a"}}}},
		{"unpivot without values", config.Transform{Kind: "unpivot"}},
		{"unpivot bad identifier", config.Transform{Kind: "unpivot", Options: config.Options{
			"value_indexes": []any{1}, "identifiers": map[string]any{"one": "x"},
		}}},
		{"unpivot bad groups", config.Transform{Kind: "unpivot", Options: config.Options{"value_groups": "1,2"}}},
		{"bad log level", config.Transform{Kind: "log", Options: config.Options{"level": "loud"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pipeline.Build("test", []config.Transform{tt.t}, nil)
			require.Error(t, err)
		})
	}
}

func TestStageKinds_MatchValidator(t *testing.T) {
	for _, k := range pipeline.StageKinds() {
		issues := config.ValidatePipeline(config.Pipeline{Transform: []config.Transform{{Kind: k}}})
		for _, iss := range issues {
			require.NotContains(t, iss.Message, "unknown transform kind", k)
		}
	}
}
