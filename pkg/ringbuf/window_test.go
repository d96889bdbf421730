package ringbuf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWindowMean(t *testing.T) {
	testCases := []struct {
		name    string
		samples []float64
		mean    float64
		len     int
	}{
		{name: "empty", mean: 0},
		{name: "partial", samples: []float64{1, 2}, mean: 1.5, len: 2},
		{name: "full", samples: []float64{1, 2, 3, 4, 6}, mean: 3.2, len: 5},
		{name: "evicts oldest", samples: []float64{100, 1, 2, 3, 4, 6}, mean: 3.2, len: 5},
		{name: "wraps twice", samples: []float64{9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 0.5}, mean: 7.3, len: 5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWindow[float64](5)
			for _, v := range tc.samples {
				w.Push(v)
			}
			require.Equal(t, tc.len, w.Len())
			require.InDelta(t, tc.mean, w.Mean(), 1e-12)
		})
	}
}

func TestWindowExactAverage(t *testing.T) {
	w := NewWindow[float64](5)
	a, b, c, d, e := 0.25, 0.5, 1.0, 2.0, 4.0
	for _, v := range []float64{a, b, c, d, e} {
		w.Push(v)
	}
	require.Equal(t, (a+b+c+d+e)/5, w.Mean())
}

func TestWindowLastAndReset(t *testing.T) {
	w := NewWindow[int16](3)
	_, ok := w.Last()
	require.False(t, ok)
	for _, v := range []int16{4, -5, 6, -7} {
		w.Push(v)
		last, ok := w.Last()
		require.True(t, ok)
		require.Equal(t, v, last)
	}
	require.InDelta(t, -2.0, w.Mean(), 1e-12)
	w.Reset()
	require.Zero(t, w.Len())
	require.Zero(t, w.Mean())
	require.Equal(t, 3, w.Cap())
}
