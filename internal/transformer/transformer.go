// Package transformer provides lazy, composable record-stream transforms.
//
// A Modifier is a pure function from one iter.Seq to another. Nothing runs
// until the returned sequence is ranged over, and a consumer that stops
// pulling stops the upstream production as well. Stages that need to see
// their whole input (sorting, grouping) buffer it on first pull.
//
// Modifiers never recover panics or swallow errors raised by the functions
// they are given; those propagate to whoever drains the sequence.
package transformer

import "iter"

// Modifier transforms a sequence of T into a sequence of R.
type Modifier[T, R any] func(seq iter.Seq[T]) iter.Seq[R]

// Modify applies m to seq.
func (m Modifier[T, R]) Modify(seq iter.Seq[T]) iter.Seq[R] { return m(seq) }

// Identity returns the sequence unchanged.
func Identity[T any]() Modifier[T, T] {
	return func(seq iter.Seq[T]) iter.Seq[T] { return seq }
}

// Concat returns the modifier that applies first and then second.
//
// Concat is associative: Concat(Concat(a, b), c) and Concat(a, Concat(b, c))
// produce the same sequence for every input.
func Concat[T, M, R any](first Modifier[T, M], second Modifier[M, R]) Modifier[T, R] {
	return func(seq iter.Seq[T]) iter.Seq[R] {
		return second(first(seq))
	}
}

// Chain applies mods in order. An empty chain is the identity.
func Chain[T any](mods ...Modifier[T, T]) Modifier[T, T] {
	out := Identity[T]()
	for _, m := range mods {
		if m == nil {
			continue
		}
		out = Concat(out, m)
	}
	return out
}

// Filter keeps the values accepted by pred.
func Filter[T any](pred func(T) bool) Modifier[T, T] {
	return func(seq iter.Seq[T]) iter.Seq[T] {
		return func(yield func(T) bool) {
			for v := range seq {
				if pred(v) {
					if !yield(v) {
						return
					}
				}
			}
		}
	}
}

// Map transforms each value with fn.
func Map[T, R any](fn func(T) R) Modifier[T, R] {
	return func(seq iter.Seq[T]) iter.Seq[R] {
		return func(yield func(R) bool) {
			for v := range seq {
				if !yield(fn(v)) {
					return
				}
			}
		}
	}
}

// FlatMap emits every value of fn(v), in order, for each input value.
func FlatMap[T, R any](fn func(T) iter.Seq[R]) Modifier[T, R] {
	return func(seq iter.Seq[T]) iter.Seq[R] {
		return func(yield func(R) bool) {
			for v := range seq {
				for out := range fn(v) {
					if !yield(out) {
						return
					}
				}
			}
		}
	}
}

// Limit stops after n values. It stops pulling from upstream once n values
// have been emitted.
func Limit[T any](n int) Modifier[T, T] {
	return func(seq iter.Seq[T]) iter.Seq[T] {
		return func(yield func(T) bool) {
			if n <= 0 {
				return
			}
			seen := 0
			for v := range seq {
				if !yield(v) {
					return
				}
				seen++
				if seen >= n {
					return
				}
			}
		}
	}
}
