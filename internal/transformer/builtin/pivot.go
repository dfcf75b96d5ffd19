package builtin

import (
	"fmt"

	"recflow/internal/transformer"
	"recflow/pkg/records"
)

// CategoryFunc picks the category of a record built from a group.
type CategoryFunc func(members []records.Record) records.Text

// FirstCategory takes the category of the first member.
func FirstCategory() CategoryFunc {
	return func(members []records.Record) records.Text { return members[0].CategoryText() }
}

// WithoutCategory leaves the category absent.
func WithoutCategory() CategoryFunc {
	return func([]records.Record) records.Text { return records.NullText() }
}

// IndexPivot turns every group of records sharing the texts at KeyIndexes
// into one wide record: the key texts of the first member, then, for every
// member in encounter order, its texts at ValueIndexes. The row is padded
// with NullText or truncated to NewRecordSize.
type IndexPivot struct {
	KeyIndexes    []int
	ValueIndexes  []int
	NewRecordSize int
	// NullText replaces absent key or value fields and pads short rows.
	NullText records.Text
	// Category defaults to FirstCategory.
	Category CategoryFunc
	Having   Having[records.Record]
}

// PivotWithIndexes returns the index-based pivot. It panics when
// NewRecordSize is not positive.
func PivotWithIndexes(p IndexPivot) transformer.Modifier[records.Record, records.Record] {
	if p.NewRecordSize <= 0 {
		panic(fmt.Sprintf("pivot: new record size must be positive, got %d", p.NewRecordSize))
	}
	keys := append([]int(nil), p.KeyIndexes...)
	values := append([]int(nil), p.ValueIndexes...)
	category := p.Category
	if category == nil {
		category = FirstCategory()
	}

	return GroupRecords(records.IndexesMessage(keys...), p.Having, func(members []records.Record) records.Record {
		row := make([]records.Text, 0, p.NewRecordSize)
		row = appendTexts(row, members[0], keys, p.NullText)
		for _, m := range members {
			if len(row) >= p.NewRecordSize {
				break
			}
			row = appendTexts(row, m, values, p.NullText)
		}
		row = resize(row, p.NewRecordSize, p.NullText)
		return records.New(row, records.CategoryText(category(members)))
	})
}

// ClassPivot turns every group of records sharing the texts at KeyIndexes
// into one wide record: the key texts of the first member, then one text per
// label in Labels order. The text for a label is Value of the first member
// whose Classify result equals the label; later matches are ignored. Labels
// without a match, or whose match renders null, get NullText.
type ClassPivot[L comparable] struct {
	KeyIndexes []int
	Labels     []L
	Classify   func(records.Record) L
	Value      records.Message
	NullText   records.Text
	// Category defaults to FirstCategory.
	Category CategoryFunc
	Having   Having[records.Record]
}

// PivotWithClassification returns the classification-based pivot.
func PivotWithClassification[L comparable](p ClassPivot[L]) transformer.Modifier[records.Record, records.Record] {
	keys := append([]int(nil), p.KeyIndexes...)
	labels := append([]L(nil), p.Labels...)
	category := p.Category
	if category == nil {
		category = FirstCategory()
	}

	return GroupRecords(records.IndexesMessage(keys...), p.Having, func(members []records.Record) records.Record {
		byLabel := make(map[L]records.Record, len(labels))
		for _, m := range members {
			l := p.Classify(m)
			if _, taken := byLabel[l]; !taken {
				byLabel[l] = m
			}
		}
		row := make([]records.Text, 0, len(keys)+len(labels))
		row = appendTexts(row, members[0], keys, p.NullText)
		for _, l := range labels {
			t := p.NullText
			if m, ok := byLabel[l]; ok {
				if v := p.Value(m); v.Valid() {
					t = v
				}
			}
			row = append(row, t)
		}
		return records.New(row, records.CategoryText(category(members)))
	})
}

// appendTexts appends the texts of r at indexes; absent or null fields
// become nullText.
func appendTexts(dst []records.Text, r records.Record, indexes []int, nullText records.Text) []records.Text {
	for _, ix := range indexes {
		t, ok := r.Text(ix)
		if !ok || !t.Valid() {
			t = nullText
		}
		dst = append(dst, t)
	}
	return dst
}

func resize(row []records.Text, size int, fill records.Text) []records.Text {
	if len(row) >= size {
		return row[:size]
	}
	for len(row) < size {
		row = append(row, fill)
	}
	return row
}
