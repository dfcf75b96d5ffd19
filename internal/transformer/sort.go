package transformer

import (
	"iter"
	"slices"
)

// Sort buffers the whole input and emits it ordered by cmp. The sort is
// stable, so equal values keep their encounter order.
func Sort[T any](cmp func(a, b T) int) Modifier[T, T] {
	return func(seq iter.Seq[T]) iter.Seq[T] {
		return func(yield func(T) bool) {
			buf := slices.Collect(seq)
			slices.SortStableFunc(buf, cmp)
			for _, v := range buf {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// Reverse inverts a comparator.
func Reverse[T any](cmp func(a, b T) int) func(a, b T) int {
	return func(a, b T) int { return cmp(b, a) }
}

// ThenBy orders by cmp and breaks ties with next.
func ThenBy[T any](cmp, next func(a, b T) int) func(a, b T) int {
	return func(a, b T) int {
		if c := cmp(a, b); c != 0 {
			return c
		}
		return next(a, b)
	}
}
