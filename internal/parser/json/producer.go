// Package json turns JSON documents into records.
//
// The input is either an array of rows, a stream of rows separated by white
// space (NDJSON), or an object whose RecordsKey member holds the array of
// rows. A row is an array of values, an object, or a lone scalar. Object
// rows are flattened in Fields order; without Fields their keys are sorted.
//
// Strings keep their value, numbers keep their literal text, booleans become
// "true" or "false" and null becomes a null text. Nested arrays and objects
// inside a row are kept as compact JSON text. Record ids are the 1-based
// position of the row in the input.
package json

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
	"slices"
	"strconv"

	"recflow/internal/config"
	"recflow/internal/datasource"
	"recflow/pkg/records"

	"go.uber.org/zap"
)

// Options control how rows are located and flattened.
type Options struct {
	// RecordsKey names the member of a root object holding the rows.
	RecordsKey string

	// Fields orders object rows. Missing keys become null texts.
	Fields []string

	// HeaderMap renames object keys before Fields lookup.
	HeaderMap map[string]string

	// Category is assigned to every record when non-empty.
	Category string
}

// OptionsFrom reads parser options: records_key, fields, header_map and
// category.
func OptionsFrom(o config.Options) Options {
	return Options{
		RecordsKey: o.String("records_key", ""),
		Fields:     o.StringSlice("fields"),
		HeaderMap:  o.StringMap("header_map"),
		Category:   o.String("category", ""),
	}
}

// Producer streams records from a JSON source. It is single use.
type Producer struct {
	src  datasource.Source
	opts Options
	log  *zap.Logger
	rc   io.ReadCloser
}

// New returns a Producer reading src. A nil logger disables logging.
func New(src datasource.Source, opts Options, log *zap.Logger) *Producer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Producer{src: src, opts: opts, log: log.Named("json")}
}

// Open opens the source.
func (p *Producer) Open(ctx context.Context) error {
	rc, err := p.src.Open(ctx)
	if err != nil {
		return fmt.Errorf("json: open source: %w", err)
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

// Produce yields one record per row. Malformed JSON ends the sequence with
// an error.
func (p *Producer) Produce(ctx context.Context) iter.Seq2[records.Record, error] {
	return func(yield func(records.Record, error) bool) {
		if p.rc == nil {
			yield(records.Record{}, errors.New("json: producer not opened"))
			return
		}
		br := bufio.NewReader(p.rc)
		dec := json.NewDecoder(br)
		dec.UseNumber()

		var n int64
		emit := func(raw any) bool {
			if err := ctx.Err(); err != nil {
				yield(records.Record{}, err)
				return false
			}
			n++
			r, err := p.record(raw, n)
			if err != nil {
				yield(records.Record{}, fmt.Errorf("json: row %d: %w", n, err))
				return false
			}
			return yield(r, nil)
		}

		first, inner, err := peekShape(br)
		switch {
		case err == io.EOF:
			return
		case err != nil:
			yield(records.Record{}, fmt.Errorf("json: read: %w", err))
			return
		}

		switch {
		case first == '[' && (inner == '[' || inner == '{' || inner == ']'):
			if err = streamArray(dec, emit); err == nil {
				err = streamValues(dec, emit)
			}
		case first == '{' && p.opts.RecordsKey != "":
			err = p.streamEnvelope(dec, emit)
		default:
			err = streamValues(dec, emit)
		}
		if errors.Is(err, errStop) {
			return
		}
		if err != nil {
			yield(records.Record{}, err)
			return
		}
		p.log.Debug("json: done", zap.Int64("rows", n))
	}
}

// errStop marks a consumer that stopped early; it is never yielded.
var errStop = errors.New("stop")

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\r' || b == '\n' }

// peekShape returns the first significant byte of the input and, when it
// opens an array, the first significant byte inside that array. A root array
// holding arrays or objects is an array of rows; any other root array is the
// first row of a stream.
func peekShape(br *bufio.Reader) (first, inner byte, err error) {
	for {
		first, err = br.ReadByte()
		if err != nil {
			return 0, 0, err
		}
		if !isSpace(first) {
			break
		}
	}
	if err := br.UnreadByte(); err != nil {
		return 0, 0, err
	}
	if first != '[' {
		return first, 0, nil
	}
	for i := 1; ; i++ {
		b, err := br.Peek(i + 1)
		if err != nil {
			return first, 0, nil
		}
		if !isSpace(b[i]) {
			return first, b[i], nil
		}
	}
}

// streamArray decodes a root array one element at a time.
func streamArray(dec *json.Decoder, emit func(any) bool) error {
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("json: read: %w", err)
	}
	return streamElements(dec, emit)
}

func streamElements(dec *json.Decoder, emit func(any) bool) error {
	for dec.More() {
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("json: decode row: %w", err)
		}
		if !emit(v) {
			return errStop
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("json: read: %w", err)
	}
	return nil
}

// streamValues decodes top-level values until EOF.
func streamValues(dec *json.Decoder, emit func(any) bool) error {
	for {
		var v any
		err := dec.Decode(&v)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("json: decode row: %w", err)
		}
		if !emit(v) {
			return errStop
		}
	}
}

// streamEnvelope walks a root object and streams the array under
// RecordsKey. Other members are skipped.
func (p *Producer) streamEnvelope(dec *json.Decoder, emit func(any) bool) error {
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("json: read: %w", err)
	}
	found := false
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("json: read: %w", err)
		}
		key, _ := tok.(string)
		if key != p.opts.RecordsKey || found {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return fmt.Errorf("json: decode %q: %w", key, err)
			}
			continue
		}
		found = true
		tok, err = dec.Token()
		if err != nil {
			return fmt.Errorf("json: read: %w", err)
		}
		if d, ok := tok.(json.Delim); !ok || d != '[' {
			return fmt.Errorf("json: %q is not an array", key)
		}
		if err := streamElements(dec, emit); err != nil {
			return err
		}
	}
	if !found {
		return fmt.Errorf("json: records key %q not found", p.opts.RecordsKey)
	}
	return nil
}

func (p *Producer) record(raw any, n int64) (records.Record, error) {
	var texts []records.Text
	switch v := raw.(type) {
	case []any:
		texts = make([]records.Text, len(v))
		for i, x := range v {
			t, err := textOf(x)
			if err != nil {
				return records.Record{}, err
			}
			texts[i] = t
		}
	case map[string]any:
		obj := v
		if len(p.opts.HeaderMap) > 0 {
			obj = make(map[string]any, len(v))
			for k, x := range v {
				if mapped := p.opts.HeaderMap[k]; mapped != "" {
					k = mapped
				}
				obj[k] = x
			}
		}
		keys := p.opts.Fields
		if len(keys) == 0 {
			keys = slices.Sorted(maps.Keys(obj))
		}
		texts = make([]records.Text, len(keys))
		for i, k := range keys {
			t, err := textOf(obj[k])
			if err != nil {
				return records.Record{}, err
			}
			texts[i] = t
		}
	default:
		t, err := textOf(v)
		if err != nil {
			return records.Record{}, err
		}
		texts = []records.Text{t}
	}

	opts := []records.Option{records.WithID(n)}
	if p.opts.Category != "" {
		opts = append(opts, records.InCategory(p.opts.Category))
	}
	return records.New(texts, opts...), nil
}

func textOf(v any) (records.Text, error) {
	switch x := v.(type) {
	case nil:
		return records.NullText(), nil
	case string:
		return records.TextOf(x), nil
	case json.Number:
		return records.TextOf(x.String()), nil
	case bool:
		return records.TextOf(strconv.FormatBool(x)), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return records.Text{}, err
		}
		return records.TextOf(string(b)), nil
	}
}
