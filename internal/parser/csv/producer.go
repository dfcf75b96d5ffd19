// Package csv turns delimited text into records.
//
// Each CSV row becomes one generic record whose fields are the row's cells.
// The record id is the 1-based line on which the row starts, so a file with
// a header yields ids starting at 2.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"

	"recflow/internal/config"
	"recflow/internal/datasource"
	"recflow/pkg/records"

	"go.uber.org/zap"
)

const logEveryN = 50_000

// Options control parsing. The zero value reads comma separated rows of any
// width with no header.
type Options struct {
	// HasHeader skips the first row and keeps it for Header.
	HasHeader bool

	// Comma is the field delimiter. Zero means ','.
	Comma rune

	// TrimSpace trims leading and trailing white space of every cell.
	TrimSpace bool

	LazyQuotes bool

	// FieldsPerRecord follows encoding/csv: 0 fixes the width to the first
	// row, a positive value requires that width and a negative value (the
	// default from config) allows any width.
	FieldsPerRecord int

	// EmptyAsNull turns empty cells into null texts.
	EmptyAsNull bool

	// Category is assigned to every record when non-empty.
	Category string

	// SkipBadRows logs and skips malformed rows instead of failing.
	SkipBadRows bool

	// Replace rewrites byte sequences in the raw input before it is parsed.
	// It exists for inputs with a known malformed quoting pattern.
	Replace map[string]string
}

// OptionsFrom reads parser options: has_header, comma, trim_space,
// lazy_quotes, fields_per_record, empty_as_null, category, skip_bad_rows and
// replace (an object of pattern to replacement).
func OptionsFrom(o config.Options) Options {
	return Options{
		HasHeader:       o.Bool("has_header", false),
		Comma:           o.Rune("comma", ','),
		TrimSpace:       o.Bool("trim_space", false),
		LazyQuotes:      o.Bool("lazy_quotes", false),
		FieldsPerRecord: o.Int("fields_per_record", -1),
		EmptyAsNull:     o.Bool("empty_as_null", false),
		Category:        o.String("category", ""),
		SkipBadRows:     o.Bool("skip_bad_rows", false),
		Replace:         o.StringMap("replace"),
	}
}

// Producer streams records from a CSV source. It is single use: Open, one
// Produce, Close.
type Producer struct {
	src  datasource.Source
	opts Options
	log  *zap.Logger

	rc     io.ReadCloser
	header []string
}

// New returns a Producer reading src. A nil logger disables logging.
func New(src datasource.Source, opts Options, log *zap.Logger) *Producer {
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Producer{src: src, opts: opts, log: log.Named("csv")}
}

// Open opens the source.
func (p *Producer) Open(ctx context.Context) error {
	rc, err := p.src.Open(ctx)
	if err != nil {
		return fmt.Errorf("csv: open source: %w", err)
	}
	p.rc = rc
	return nil
}

// Close closes the source.
func (p *Producer) Close() error {
	if p.rc == nil {
		return nil
	}
	err := p.rc.Close()
	p.rc = nil
	return err
}

// Header is the header row once Produce has read it, or nil.
func (p *Producer) Header() []string { return p.header }

// Produce yields one record per row. A read error ends the sequence unless
// SkipBadRows is set and the error is a parse error.
func (p *Producer) Produce(ctx context.Context) iter.Seq2[records.Record, error] {
	return func(yield func(records.Record, error) bool) {
		if p.rc == nil {
			yield(records.Record{}, errors.New("csv: producer not opened"))
			return
		}
		r := csv.NewReader(withReplacements(p.rc, p.opts.Replace))
		r.Comma = p.opts.Comma
		r.LazyQuotes = p.opts.LazyQuotes
		r.FieldsPerRecord = p.opts.FieldsPerRecord
		r.ReuseRecord = true

		var (
			first   = true
			emitted int64
			skipped int64
		)
		for {
			if err := ctx.Err(); err != nil {
				yield(records.Record{}, err)
				return
			}

			fields, err := r.Read()
			if err == io.EOF {
				p.log.Debug("csv: done", zap.Int64("emitted", emitted), zap.Int64("skipped", skipped))
				return
			}
			if err != nil {
				var pe *csv.ParseError
				if p.opts.SkipBadRows && errors.As(err, &pe) {
					// A bad first row still occupies the header position.
					first = false
					skipped++
					p.log.Warn("csv: skipping bad row", zap.Int("line", pe.StartLine), zap.Error(err))
					continue
				}
				yield(records.Record{}, fmt.Errorf("csv: read: %w", err))
				return
			}

			line, _ := r.FieldPos(0)
			if first {
				first = false
				stripBOM(fields)
				if p.opts.HasHeader {
					p.header = slices.Clone(fields)
					continue
				}
			}

			emitted++
			if emitted%logEveryN == 0 {
				p.log.Info("csv: progress", zap.Int("line", line), zap.Int64("emitted", emitted))
			}
			if !yield(p.record(fields, line), nil) {
				return
			}
		}
	}
}

func (p *Producer) record(fields []string, line int) records.Record {
	texts := make([]records.Text, len(fields))
	for i, v := range fields {
		if p.opts.TrimSpace {
			v = strings.TrimSpace(v)
		}
		if v == "" && p.opts.EmptyAsNull {
			texts[i] = records.NullText()
			continue
		}
		texts[i] = records.TextOf(v)
	}
	opts := []records.Option{records.WithID(int64(line))}
	if p.opts.Category != "" {
		opts = append(opts, records.InCategory(p.opts.Category))
	}
	return records.New(texts, opts...)
}
