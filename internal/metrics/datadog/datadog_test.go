package datadog

import (
	"errors"
	"testing"

	"recflow/internal/metrics"

	"github.com/stretchr/testify/require"
)

type call struct {
	kind  string
	name  string
	value float64
	tags  []string
}

type fakeClient struct {
	calls    []call
	flushErr error
	flushed  int
}

func (f *fakeClient) Count(name string, value int64, tags []string, _ float64) error {
	f.calls = append(f.calls, call{"count", name, float64(value), tags})
	return nil
}

func (f *fakeClient) Histogram(name string, value float64, tags []string, _ float64) error {
	f.calls = append(f.calls, call{"histogram", name, value, tags})
	return nil
}

func (f *fakeClient) Flush() error { f.flushed++; return f.flushErr }
func (f *fakeClient) Close() error { return nil }

func TestNewBackend_RequiresAddr(t *testing.T) {
	_, err := NewBackend(Config{})
	require.Error(t, err)
}

func TestBackend_TranslatesNamesAndTags(t *testing.T) {
	fc := &fakeClient{}
	b := &Backend{client: fc}

	b.IncCounter(metrics.StageRecords, 3.9, metrics.Labels{"stage": "pivot", "direction": "out"})
	b.ObserveHistogram(metrics.StepDuration, 0.5, nil)

	require.Equal(t, []call{
		{"count", "recflow.stage.records.total", 3, []string{"direction:out", "stage:pivot"}},
		{"histogram", "recflow.step.duration.seconds", 0.5, nil},
	}, fc.calls)
}

func TestBackend_FlushWrapsError(t *testing.T) {
	fc := &fakeClient{flushErr: errors.New("down")}
	b := &Backend{client: fc}

	err := b.Flush()
	require.Error(t, err)
	require.ErrorIs(t, err, fc.flushErr)
	require.Equal(t, 1, fc.flushed)
}
