package transformer_test

import (
	"cmp"
	"iter"
	"slices"
	"strconv"
	"testing"

	"recflow/internal/metrics"
	"recflow/internal/transformer"
	"recflow/pkg/records"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func seqOf[T any](vals ...T) iter.Seq[T] { return slices.Values(vals) }

// counting yields 0,1,2,... forever and records how many values were pulled.
func counting(pulled *int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; ; i++ {
			*pulled++
			if !yield(i) {
				return
			}
		}
	}
}

func TestConcat_IsAssociative(t *testing.T) {
	double := transformer.Map(func(v int) int { return v * 2 })
	odd := transformer.Filter(func(v int) bool { return v%4 != 0 })
	str := transformer.Map(strconv.Itoa)

	left := transformer.Concat(transformer.Concat(double, odd), str)
	right := transformer.Concat(double, transformer.Concat(odd, str))

	in := seqOf(1, 2, 3, 4, 5, 6)
	require.Equal(t, slices.Collect(left(in)), slices.Collect(right(in)))
	require.Equal(t, []string{"2", "6", "10"}, slices.Collect(left(in)))
}

func TestChain_EmptyIsIdentity(t *testing.T) {
	in := seqOf(3, 1, 2)
	require.Equal(t, []int{3, 1, 2}, slices.Collect(transformer.Chain[int]().Modify(in)))
	require.Equal(t, []int{3, 1, 2}, slices.Collect(transformer.Chain[int](nil, transformer.Identity[int]()).Modify(in)))
}

func TestStreamingStagesStopUpstream(t *testing.T) {
	pulled := 0
	m := transformer.Chain(
		transformer.Filter(func(v int) bool { return v%2 == 0 }),
		transformer.Map(func(v int) int { return v + 1 }),
		transformer.Limit[int](3),
	)

	got := slices.Collect(m(counting(&pulled)))

	require.Equal(t, []int{1, 3, 5}, got)
	require.Equal(t, 5, pulled, "upstream must stop once the consumer stops")
}

func TestFlatMap(t *testing.T) {
	m := transformer.FlatMap(func(v int) iter.Seq[int] { return seqOf(v, v*10) })
	require.Equal(t, []int{1, 10, 2, 20}, slices.Collect(m(seqOf(1, 2))))
}

func TestSort_IsStable(t *testing.T) {
	in := seqOf(
		records.Of("b", "1"),
		records.Of("a", "2"),
		records.Of("b", "3"),
		records.Of("a", "4"),
	)
	byFirst := func(a, b records.Record) int { return cmp.Compare(a.StringAt(0, ""), b.StringAt(0, "")) }

	got := slices.Collect(transformer.Sort(byFirst)(in))
	second := make([]string, len(got))
	for i, r := range got {
		second[i] = r.StringAt(1, "")
	}
	require.Equal(t, []string{"2", "4", "1", "3"}, second)

	desc := slices.Collect(transformer.Sort(transformer.Reverse(byFirst))(in))
	require.Equal(t, "b", desc[0].StringAt(0, ""))

	bySecondDesc := func(a, b records.Record) int { return cmp.Compare(b.StringAt(1, ""), a.StringAt(1, "")) }
	tie := slices.Collect(transformer.Sort(transformer.ThenBy(byFirst, bySecondDesc))(in))
	require.Equal(t, "4", tie[0].StringAt(1, ""))
}

func TestLogFilter_LogsOnlyMatches(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	in := seqOf(records.Of("a"), records.Of("b"), records.Of("a"))
	m := transformer.LogFilter[records.Record](logger, zapcore.InfoLevel,
		records.TextEquals(0, "a"), records.TextsMessage(",", "null"))

	got := slices.Collect(m(in))

	require.Len(t, got, 3, "log filters never drop records")
	require.Equal(t, 2, logs.Len())
	require.Equal(t, "a", logs.All()[0].Message)
	require.Equal(t, int64(2), logs.All()[1].ContextMap()["seq"])
}

func TestLog_DisabledLevelSkipsRendering(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	rendered := 0
	m := transformer.Log(zap.New(core), zapcore.DebugLevel, func(v int) string {
		rendered++
		return strconv.Itoa(v)
	})

	require.Equal(t, []int{1, 2}, slices.Collect(m(seqOf(1, 2))))
	require.Zero(t, rendered)
	require.Zero(t, logs.Len())
}

type stageBackend struct {
	in, out float64
}

func (s *stageBackend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if name != metrics.StageRecords {
		return
	}
	if labels["direction"] == "in" {
		s.in += delta
	} else {
		s.out += delta
	}
}
func (s *stageBackend) ObserveHistogram(string, float64, metrics.Labels) {}
func (s *stageBackend) Flush() error                                     { return nil }

func TestInstrument_CountsInAndOut(t *testing.T) {
	sb := &stageBackend{}
	metrics.SetBackend(sb)
	t.Cleanup(func() { metrics.SetBackend(&stageBackend{}) })

	m := transformer.Instrument("job", "even", transformer.Filter(func(v int) bool { return v%2 == 0 }))
	require.Equal(t, []int{2, 4}, slices.Collect(m(seqOf(1, 2, 3, 4, 5))))
	require.Equal(t, float64(5), sb.in)
	require.Equal(t, float64(2), sb.out)
}
