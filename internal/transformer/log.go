package transformer

import (
	"iter"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log passes every value through unchanged and logs it at level, rendered by
// render. A nil logger disables logging.
func Log[T any](logger *zap.Logger, level zapcore.Level, render func(T) string) Modifier[T, T] {
	return LogFilter(logger, level, nil, render)
}

// LogFilter passes every value through unchanged and logs only those accepted
// by pred (all values when pred is nil).
func LogFilter[T any](logger *zap.Logger, level zapcore.Level, pred func(T) bool, render func(T) string) Modifier[T, T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(seq iter.Seq[T]) iter.Seq[T] {
		return func(yield func(T) bool) {
			var n int64
			for v := range seq {
				if logger.Core().Enabled(level) && (pred == nil || pred(v)) {
					if ce := logger.Check(level, render(v)); ce != nil {
						ce.Write(zap.Int64("seq", n))
					}
				}
				n++
				if !yield(v) {
					return
				}
			}
		}
	}
}
