package transformer

import (
	"iter"

	"recflow/internal/metrics"
)

// Instrument wraps m and reports how many values entered and left the stage
// once the output sequence is exhausted or abandoned.
func Instrument[T, R any](job, stage string, m Modifier[T, R]) Modifier[T, R] {
	return func(seq iter.Seq[T]) iter.Seq[R] {
		return func(yield func(R) bool) {
			var in, out int64
			counted := func(yield func(T) bool) {
				for v := range seq {
					in++
					if !yield(v) {
						return
					}
				}
			}
			defer func() { metrics.RecordStage(job, stage, in, out) }()
			for v := range m(counted) {
				out++
				if !yield(v) {
					return
				}
			}
		}
	}
}
