package hal

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

func TestButtonDebounce(t *testing.T) {
	mock := clock.NewMock()
	b := NewButton(mock)

	require.True(t, b.Edge())
	mock.Add(5 * time.Millisecond)
	require.False(t, b.Edge())
	require.False(t, b.Armed())

	require.True(t, b.TakePress())
	require.False(t, b.TakePress())
	require.Equal(t, uint64(1), b.Ignored())

	mock.Add(15 * time.Millisecond)
	require.Eventually(t, b.Armed, time.Second, time.Millisecond)
	require.True(t, b.Edge())
	require.True(t, b.TakePress())
}

func TestButtonBounceLatchesOnce(t *testing.T) {
	mock := clock.NewMock()
	b := NewButton(mock)
	accepted := 0
	for i := 0; i < 10; i++ {
		if b.Edge() {
			accepted++
		}
		mock.Add(time.Millisecond)
	}
	require.Equal(t, 1, accepted)
	require.True(t, b.TakePress())
	require.False(t, b.TakePress())
}
