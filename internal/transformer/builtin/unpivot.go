package builtin

import (
	"iter"
	"strconv"

	"recflow/internal/transformer"
	"recflow/pkg/records"
)

// ValueUnpivot explodes each record into one record per value index, shaped
// [key texts..., Identifier(index), value text].
type ValueUnpivot struct {
	KeyIndexes   []int
	ValueIndexes []int
	// Identifier names a value index. Nil uses the decimal index.
	Identifier func(index int) string
	// OnlyExistingValues skips value indexes the source record does not have
	// instead of emitting a null value.
	OnlyExistingValues bool
}

// UnpivotPerValue returns the one-record-per-value unpivot. Category and
// record id of the source are kept on every emitted record.
func UnpivotPerValue(u ValueUnpivot) transformer.Modifier[records.Record, records.Record] {
	keys := append([]int(nil), u.KeyIndexes...)
	values := append([]int(nil), u.ValueIndexes...)
	ident := u.Identifier
	if ident == nil {
		ident = strconv.Itoa
	}

	return transformer.FlatMap(func(r records.Record) iter.Seq[records.Record] {
		return func(yield func(records.Record) bool) {
			opts := sourceOptions(r)
			for _, ix := range values {
				v, ok := r.Text(ix)
				if !ok && u.OnlyExistingValues {
					continue
				}
				row := make([]records.Text, 0, len(keys)+2)
				row = appendTexts(row, r, keys, records.NullText())
				row = append(row, records.TextOf(ident(ix)), v)
				if !yield(records.New(row, opts...)) {
					return
				}
			}
		}
	})
}

// IdentifiersFromMap names value indexes from m. Indexes missing from m use
// the decimal index.
func IdentifiersFromMap(m map[int]string) func(index int) string {
	return func(index int) string {
		if s, ok := m[index]; ok {
			return s
		}
		return strconv.Itoa(index)
	}
}

// GroupUnpivot explodes each record into exactly len(ValueGroups) records;
// record i is shaped [key texts..., Identifier(i), texts at ValueGroups[i]...].
// Absent value indexes render null.
type GroupUnpivot struct {
	KeyIndexes  []int
	ValueGroups [][]int
	// Identifier names a group by its position. Nil uses the decimal
	// position.
	Identifier func(group int) string
}

// UnpivotPerGroup returns the one-record-per-value-group unpivot. Category
// and record id of the source are kept on every emitted record.
func UnpivotPerGroup(u GroupUnpivot) transformer.Modifier[records.Record, records.Record] {
	keys := append([]int(nil), u.KeyIndexes...)
	groups := make([][]int, len(u.ValueGroups))
	for i, g := range u.ValueGroups {
		groups[i] = append([]int(nil), g...)
	}
	ident := u.Identifier
	if ident == nil {
		ident = strconv.Itoa
	}

	return transformer.FlatMap(func(r records.Record) iter.Seq[records.Record] {
		return func(yield func(records.Record) bool) {
			opts := sourceOptions(r)
			for i, g := range groups {
				row := make([]records.Text, 0, len(keys)+1+len(g))
				row = appendTexts(row, r, keys, records.NullText())
				row = append(row, records.TextOf(ident(i)))
				for _, ix := range g {
					t, _ := r.Text(ix)
					row = append(row, t)
				}
				if !yield(records.New(row, opts...)) {
					return
				}
			}
		}
	})
}

func sourceOptions(r records.Record) []records.Option {
	opts := []records.Option{records.CategoryText(r.CategoryText())}
	if id, ok := r.RecordID(); ok {
		opts = append(opts, records.WithID(id))
	}
	return opts
}
