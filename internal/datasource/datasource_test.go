package datasource

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReader(t *testing.T) {
	rc, err := Reader(strings.NewReader("abc")).Open(context.Background())
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "abc", string(b))
	require.NoError(t, rc.Close())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Reader(strings.NewReader("abc")).Open(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
