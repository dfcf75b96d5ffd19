// Package records defines the immutable record model shared by producers,
// transformers and consumers.
//
// A Record is an ordered, fixed-size sequence of Fields plus an optional
// category and an optional numeric id. Fields carry optional text (see Text).
// Records never expose their backing storage: every accessor that returns a
// slice returns a copy, and every "with" operation returns a new Record.
package records

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// Kind tags the shape of a record. It takes part in equality and in the
// compare-message, so a single-field record never equals a generic record
// holding the same text.
type Kind uint8

const (
	// KindGeneric records have any number of fields.
	KindGeneric Kind = iota
	// KindSingle records have exactly one field.
	KindSingle
	// KindKeyValue records have two fields; the first (the key) is never null.
	KindKeyValue
	// KindKeyValueComment records have three fields; the first is never null.
	KindKeyValueComment
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindKeyValue:
		return "key-value"
	case KindKeyValueComment:
		return "key-value-comment"
	default:
		return "generic"
	}
}

// fixedSize returns the field count required by the kind, or -1.
func (k Kind) fixedSize() int {
	switch k {
	case KindSingle:
		return 1
	case KindKeyValue:
		return 2
	case KindKeyValueComment:
		return 3
	default:
		return -1
	}
}

func (k Kind) hasKey() bool { return k == KindKeyValue || k == KindKeyValueComment }

// Record is an immutable ordered collection of fields plus an optional
// category and an optional record id. The zero value is an empty generic
// record without category or id.
type Record struct {
	kind     Kind
	category Text
	id       int64
	hasID    bool
	fields   []Field
}

// Option sets the category or id of a record under construction.
type Option func(*Record)

// InCategory sets the record category.
func InCategory(category string) Option {
	return func(r *Record) { r.category = TextOf(category) }
}

// CategoryText sets the record category from a Text; null leaves it absent.
func CategoryText(category Text) Option {
	return func(r *Record) { r.category = category }
}

// WithID sets the record id.
func WithID(id int64) Option {
	return func(r *Record) { r.id, r.hasID = id, true }
}

// New builds a generic record from texts.
func New(texts []Text, opts ...Option) Record {
	return build(KindGeneric, texts, opts)
}

// Of builds a generic record whose fields are all non-null.
func Of(values ...string) Record {
	return build(KindGeneric, Texts(values...), nil)
}

// NewSingle builds a single-field record.
func NewSingle(value Text, opts ...Option) Record {
	return build(KindSingle, []Text{value}, opts)
}

// NewKeyValue builds a two-field record. The key can never be null.
func NewKeyValue(key string, value Text, opts ...Option) Record {
	return build(KindKeyValue, []Text{TextOf(key), value}, opts)
}

// NewKeyValueComment builds a three-field record: key, value and comment.
func NewKeyValueComment(key string, value, comment Text, opts ...Option) Record {
	return build(KindKeyValueComment, []Text{TextOf(key), value, comment}, opts)
}

// NewFromFields builds a record of the given kind from pre-built fields.
//
// Every field must sit at its own index and share maxIndex == len(fields)-1;
// fixed-size kinds must receive exactly their size and keyed kinds a non-null
// key. Inconsistent input is rejected, never truncated or padded.
func NewFromFields(kind Kind, fields []Field, opts ...Option) (Record, error) {
	if n := kind.fixedSize(); n >= 0 && len(fields) != n {
		return Record{}, fmt.Errorf("%w: kind=%s want=%d got=%d", ErrSizeMismatch, kind, n, len(fields))
	}
	maxIndex := len(fields) - 1
	for i, f := range fields {
		if f.index != i || f.maxIndex != maxIndex {
			return Record{}, fmt.Errorf("%w: position=%d index=%d maxIndex=%d want maxIndex=%d",
				ErrInconsistentField, i, f.index, f.maxIndex, maxIndex)
		}
	}
	if kind.hasKey() && !fields[0].text.Valid() {
		return Record{}, ErrNullKey
	}
	r := Record{kind: kind, fields: slices.Clone(fields)}
	for _, o := range opts {
		o(&r)
	}
	return r, nil
}

// MustNewFromFields is like NewFromFields but panics on error.
func MustNewFromFields(kind Kind, fields []Field, opts ...Option) Record {
	r, err := NewFromFields(kind, fields, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

func build(kind Kind, texts []Text, opts []Option) Record {
	r := Record{kind: kind}
	for _, o := range opts {
		o(&r)
	}
	r.fields = makeFields(texts)
	return r
}

func makeFields(texts []Text) []Field {
	if len(texts) == 0 {
		return nil
	}
	maxIndex := len(texts) - 1
	fields := make([]Field, len(texts))
	for i, t := range texts {
		fields[i] = Field{index: i, maxIndex: maxIndex, text: t}
	}
	return fields
}

// Kind returns the record shape tag.
func (r Record) Kind() Kind { return r.kind }

// Category returns the category and whether it is present.
func (r Record) Category() (string, bool) { return r.category.Get() }

// CategoryText returns the category as a Text (null when absent).
func (r Record) CategoryText() Text { return r.category }

// RecordID returns the id and whether it is present.
func (r Record) RecordID() (int64, bool) { return r.id, r.hasID }

// Size is the number of fields.
func (r Record) Size() int { return len(r.fields) }

// IsEmpty reports whether the record has no fields.
func (r Record) IsEmpty() bool { return len(r.fields) == 0 }

// Field returns the field at index and whether it exists.
func (r Record) Field(index int) (Field, bool) {
	if index < 0 || index >= len(r.fields) {
		return Field{}, false
	}
	return r.fields[index], true
}

// Text returns the text at index. The bool reports whether the field exists;
// a field that exists may still hold null text.
func (r Record) Text(index int) (Text, bool) {
	f, ok := r.Field(index)
	return f.text, ok
}

// StringAt returns the text at index, or nullText when the field is absent or
// its text is null.
func (r Record) StringAt(index int, nullText string) string {
	t, _ := r.Text(index)
	return t.OrElse(nullText)
}

// Fields returns a copy of the fields.
func (r Record) Fields() []Field { return slices.Clone(r.fields) }

// Texts returns a copy of the field texts.
func (r Record) Texts() []Text {
	out := make([]Text, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.text
	}
	return out
}

// Strings renders every field, substituting nullText for null values.
func (r Record) Strings(nullText string) []string {
	out := make([]string, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.text.OrElse(nullText)
	}
	return out
}

// All iterates over the fields in index order.
func (r Record) All() iter.Seq2[int, Field] {
	return func(yield func(int, Field) bool) {
		for i, f := range r.fields {
			if !yield(i, f) {
				return
			}
		}
	}
}

// Key returns the first field text of a keyed record.
func (r Record) Key() (string, bool) {
	if !r.kind.hasKey() {
		return "", false
	}
	return r.fields[0].text.Get()
}

// WithText returns a copy with the text at index replaced. The kind is kept,
// so replacing the key of a keyed record with null fails with ErrNullKey.
func (r Record) WithText(index int, text Text) (Record, error) {
	if index < 0 || index >= len(r.fields) {
		return Record{}, fmt.Errorf("%w: index=%d size=%d", ErrIndexOutOfRange, index, len(r.fields))
	}
	if index == 0 && r.kind.hasKey() && !text.Valid() {
		return Record{}, ErrNullKey
	}
	texts := r.Texts()
	texts[index] = text
	out := r
	out.fields = makeFields(texts)
	return out, nil
}

// WithCategory returns a copy with the category set.
func (r Record) WithCategory(category string) Record {
	r.category = TextOf(category)
	return r
}

// WithCategoryText returns a copy with the category set from a Text.
func (r Record) WithCategoryText(category Text) Record {
	r.category = category
	return r
}

// WithoutCategory returns a copy without category.
func (r Record) WithoutCategory() Record {
	r.category = Text{}
	return r
}

// WithRecordID returns a copy with the id set.
func (r Record) WithRecordID(id int64) Record {
	r.id, r.hasID = id, true
	return r
}

// WithoutRecordID returns a copy without id.
func (r Record) WithoutRecordID() Record {
	r.id, r.hasID = 0, false
	return r
}

// Append returns a generic record with texts added after the existing fields.
func (r Record) Append(texts ...Text) Record {
	out := r
	out.kind = KindGeneric
	out.fields = makeFields(append(r.Texts(), texts...))
	return out
}

// Prepend returns a generic record with texts added before the existing
// fields.
func (r Record) Prepend(texts ...Text) Record {
	out := r
	out.kind = KindGeneric
	out.fields = makeFields(append(slices.Clone(texts), r.Texts()...))
	return out
}

// Select returns a generic record holding the texts at indexes, in the given
// order. Absent indexes become null.
func (r Record) Select(indexes ...int) Record {
	texts := make([]Text, len(indexes))
	for i, ix := range indexes {
		texts[i], _ = r.Text(ix)
	}
	out := r
	out.kind = KindGeneric
	out.fields = makeFields(texts)
	return out
}

// Equal compares kind, category, id and the full field sequence.
func (r Record) Equal(o Record) bool {
	return r.kind == o.kind &&
		r.category == o.category &&
		r.hasID == o.hasID && r.id == o.id &&
		slices.Equal(r.fields, o.fields)
}

func (r Record) String() string {
	var b strings.Builder
	b.WriteString("Record{")
	b.WriteString(r.kind.String())
	if c, ok := r.category.Get(); ok {
		fmt.Fprintf(&b, " category='%s'", c)
	}
	if r.hasID {
		fmt.Fprintf(&b, " id=%d", r.id)
	}
	b.WriteByte(' ')
	for _, f := range r.fields {
		b.WriteString(f.String())
	}
	b.WriteByte('}')
	return b.String()
}
