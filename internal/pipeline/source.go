package pipeline

import (
	"fmt"

	"recflow/internal/config"
	"recflow/internal/datasource"
	"recflow/internal/datasource/file"
	"recflow/internal/generator"
	csvparser "recflow/internal/parser/csv"
	jsonparser "recflow/internal/parser/json"
	"recflow/pkg/records"

	"go.uber.org/zap"
)

// NewProducer builds the producer for p.Source and p.Parser.
//
// Parser kind "generate" ignores the source and produces counter records
// [index, running total]. Its options are count (a fixed number of records),
// until_index (stop after the record with that index) and category. Without
// either bound it runs until the context is cancelled.
func NewProducer(p config.Pipeline, log *zap.Logger) (Producer, error) {
	if p.Parser.Kind == "generate" {
		return newGenerator(p.Parser.Options), nil
	}

	src, err := newSource(p.Source)
	if err != nil {
		return nil, err
	}
	switch p.Parser.Kind {
	case "csv":
		return csvparser.New(src, csvparser.OptionsFrom(p.Parser.Options), log), nil
	case "json":
		return jsonparser.New(src, jsonparser.OptionsFrom(p.Parser.Options), log), nil
	}
	return nil, fmt.Errorf("pipeline: unsupported parser.kind=%s", p.Parser.Kind)
}

func newSource(s config.Source) (datasource.Source, error) {
	switch s.Kind {
	case "file":
		return file.NewLocal(s.File.Path), nil
	}
	return nil, fmt.Errorf("pipeline: unsupported source.kind=%s", s.Kind)
}

func newGenerator(o config.Options) *generator.Generator {
	var opts []records.Option
	if c := o.String("category", ""); c != "" {
		opts = append(opts, records.InCategory(c))
	}
	fn := generator.Counter(opts...)

	if n := o.Int("count", -1); n >= 0 {
		return generator.KnownSize(fn, int64(n))
	}
	until := int64(o.Int("until_index", -1))
	return generator.Until(fn, func(ctx generator.Context, _ records.Record) bool {
		return until >= 0 && ctx.RecordIndex >= until
	})
}
