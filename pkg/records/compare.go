package records

import (
	"strconv"
	"strings"
)

// CompareMessage describes which parts of a record take part in its
// compare-message, the string used as a dedup/equality surrogate.
//
// Records that render the same compare-message are treated as equal even when
// their shapes differ; comparison is delegated to the string entirely.
type CompareMessage struct {
	// Kind includes the record kind tag.
	Kind bool
	// Category includes the category.
	Category bool
	// CategorySubstitute is rendered for an absent category. Null renders
	// "null".
	CategorySubstitute Text
	// RecordID includes the record id.
	RecordID bool
	// Size includes the field count.
	Size bool
	// AllFields includes every field. When false, only Indexes are rendered.
	AllFields bool
	// Indexes lists the fields to render when AllFields is false. Indexes the
	// record does not have are skipped.
	Indexes []int
}

// AllFieldsMessage is the compare-message over kind, category, id and every
// field.
func AllFieldsMessage() NonNullMessage {
	return CompareMessage{Kind: true, Category: true, RecordID: true, AllFields: true}.Message()
}

// IndexesMessage is the compare-message over the given field indexes only.
func IndexesMessage(indexes ...int) NonNullMessage {
	return CompareMessage{Indexes: indexes}.Message()
}

// Message builds the NonNullMessage described by c.
func (c CompareMessage) Message() NonNullMessage {
	indexes := append([]int(nil), c.Indexes...)
	return func(r Record) string {
		var b strings.Builder
		sep := func() {
			if b.Len() > 0 {
				b.WriteByte('\x1f')
			}
		}
		if c.Kind {
			sep()
			b.WriteString(r.kind.String())
		}
		if c.Category {
			sep()
			if v, ok := r.category.Get(); ok {
				writeQuoted(&b, v)
			} else {
				b.WriteString(c.CategorySubstitute.OrElse("null"))
			}
		}
		if c.RecordID {
			sep()
			if r.hasID {
				b.WriteString(strconv.FormatInt(r.id, 10))
			} else {
				b.WriteString("null")
			}
		}
		if c.Size {
			sep()
			b.WriteString(strconv.Itoa(len(r.fields)))
		}
		if c.AllFields {
			sep()
			for _, f := range r.fields {
				writeField(&b, f)
			}
		} else if len(indexes) > 0 {
			sep()
			for _, ix := range indexes {
				if f, ok := r.Field(ix); ok {
					writeField(&b, f)
				}
			}
		}
		return b.String()
	}
}

// writeField renders [index] for null text and [index,'value'] otherwise.
func writeField(b *strings.Builder, f Field) {
	b.WriteByte('[')
	b.WriteString(strconv.Itoa(f.index))
	if v, ok := f.text.Get(); ok {
		b.WriteByte(',')
		writeQuoted(b, v)
	}
	b.WriteByte(']')
}

func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('\'')
	b.WriteString(strings.ReplaceAll(s, "'", "''"))
	b.WriteByte('\'')
}
