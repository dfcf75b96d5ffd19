package generator

import (
	"slices"
	"strconv"

	"recflow/pkg/records"
)

// Counter generates [index, runningTotal] records where runningTotal is the
// sum of all indexes so far. The record id is the 1-based position.
func Counter(opts ...records.Option) Func {
	return func(ctx Context) (records.Record, bool) {
		total := ctx.RecordIndex
		if prev, ok := ctx.PreviousRecord(); ok {
			t, _ := prev.Text(1)
			p, err := strconv.ParseInt(t.OrElse("0"), 10, 64)
			if err != nil {
				return records.Record{}, false
			}
			total += p
		}
		r := records.New(records.Texts(
			strconv.FormatInt(ctx.RecordIndex, 10),
			strconv.FormatInt(total, 10),
		), append(slices.Clip(opts), records.WithID(ctx.RecordIndex+1))...)
		return r, true
	}
}

// Constant generates copies of r.
func Constant(r records.Record) Func {
	return func(Context) (records.Record, bool) { return r, true }
}

// FromSlice generates rs in order and reports no record once they run out,
// so it pairs with KnownSize(fn, len(rs)).
func FromSlice(rs []records.Record) Func {
	return func(ctx Context) (records.Record, bool) {
		if ctx.RecordIndex >= int64(len(rs)) {
			return records.Record{}, false
		}
		return rs[ctx.RecordIndex], true
	}
}

// StopWhenEmpty stops after the first record without fields.
func StopWhenEmpty() StopFunc {
	return func(_ Context, r records.Record) bool { return r.IsEmpty() }
}
