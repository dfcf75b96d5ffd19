package builtin

import (
	"math"
	"strconv"
	"strings"

	"recflow/pkg/records"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Aggregates receive a non-empty member list; GroupBy never calls them with
// an empty group.

// First picks the first member.
func First[T any]() func(members []T) T {
	return func(members []T) T { return members[0] }
}

// Last picks the last member.
func Last[T any]() func(members []T) T {
	return func(members []T) T { return members[len(members)-1] }
}

// MinBy picks the smallest member; ties go to the earliest.
func MinBy[T any](cmp func(a, b T) int) func(members []T) T {
	return func(members []T) T {
		best := members[0]
		for _, m := range members[1:] {
			if cmp(m, best) < 0 {
				best = m
			}
		}
		return best
	}
}

// MaxBy picks the largest member; ties go to the earliest.
func MaxBy[T any](cmp func(a, b T) int) func(members []T) T {
	return MinBy(func(a, b T) int { return cmp(b, a) })
}

// Reduce folds the members left to right with combine.
func Reduce[T any](combine func(acc, next T) T) func(members []T) T {
	return func(members []T) T {
		acc := members[0]
		for _, m := range members[1:] {
			acc = combine(acc, m)
		}
		return acc
	}
}

// Collector accumulates members into A and finishes into R.
type Collector[T, A, R any] struct {
	Init       func() A
	Accumulate func(acc A, v T) A
	Finish     func(acc A) R
}

// Collect runs c over the members.
func Collect[T, A, R any](c Collector[T, A, R]) func(members []T) R {
	return func(members []T) R {
		acc := c.Init()
		for _, m := range members {
			acc = c.Accumulate(acc, m)
		}
		return c.Finish(acc)
	}
}

// MemberText renders one text from a group's members.
type MemberText func(members []records.Record) records.Text

// FirstText is the text at index of the first member.
func FirstText(index int) MemberText {
	return func(members []records.Record) records.Text {
		t, _ := members[0].Text(index)
		return t
	}
}

// LastText is the text at index of the last member.
func LastText(index int) MemberText {
	return func(members []records.Record) records.Text {
		t, _ := members[len(members)-1].Text(index)
		return t
	}
}

// CountText is the member count.
func CountText() MemberText {
	return func(members []records.Record) records.Text {
		return records.TextOf(strconv.Itoa(len(members)))
	}
}

// JoinText joins the non-null texts at index with sep. A group without any
// non-null text renders null.
func JoinText(index int, sep string) MemberText {
	return func(members []records.Record) records.Text {
		var parts []string
		for _, m := range members {
			if t, ok := m.Text(index); ok {
				if v, valid := t.Get(); valid {
					parts = append(parts, v)
				}
			}
		}
		if parts == nil {
			return records.NullText()
		}
		return records.TextOf(strings.Join(parts, sep))
	}
}

// RecordOf builds a generic record with one field per value and the
// category rendered by category (nil: no category).
func RecordOf(category CategoryFunc, values ...MemberText) func(members []records.Record) records.Record {
	return func(members []records.Record) records.Record {
		texts := make([]records.Text, len(values))
		for i, v := range values {
			texts[i] = v(members)
		}
		var opts []records.Option
		if category != nil {
			opts = append(opts, records.CategoryText(category(members)))
		}
		return records.New(texts, opts...)
	}
}

// KeyValueOf builds a key-value record. A null key renders as the empty
// string since key-value records never carry a null key.
func KeyValueOf(category CategoryFunc, key, value MemberText) func(members []records.Record) records.Record {
	return func(members []records.Record) records.Record {
		var opts []records.Option
		if category != nil {
			opts = append(opts, records.CategoryText(category(members)))
		}
		return records.NewKeyValue(key(members).OrElse(""), value(members), opts...)
	}
}

// NumericSummary summarises the numeric texts at index as
// [count, sum, mean, stddev, min, max]. Null, absent and non-numeric texts
// are skipped. With no numbers every statistic but count is null; stddev is
// null below two samples. The category is taken from the first member.
func NumericSummary(index int) func(members []records.Record) records.Record {
	return func(members []records.Record) records.Record {
		xs := make([]float64, 0, len(members))
		for _, m := range members {
			t, _ := m.Text(index)
			v, ok := t.Get()
			if !ok {
				continue
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil || math.IsNaN(f) {
				continue
			}
			xs = append(xs, f)
		}

		out := make([]records.Text, 6)
		out[0] = records.TextOf(strconv.Itoa(len(xs)))
		if len(xs) > 0 {
			out[1] = formatFloat(floats.Sum(xs))
			out[2] = formatFloat(stat.Mean(xs, nil))
			if len(xs) > 1 {
				out[3] = formatFloat(stat.StdDev(xs, nil))
			}
			out[4] = formatFloat(floats.Min(xs))
			out[5] = formatFloat(floats.Max(xs))
		}
		return records.New(out, records.CategoryText(members[0].CategoryText()))
	}
}

func formatFloat(f float64) records.Text {
	return records.TextOf(strconv.FormatFloat(f, 'g', -1, 64))
}
