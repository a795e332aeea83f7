package astirecorder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingBuffer(t *testing.T) {
	r := newRingBuffer(4)
	r.Write([]int16{1, 2, 3})
	require.Equal(t, 3, r.Len())
	_, ok := r.Read(4)
	require.False(t, ok)
	s, ok := r.Read(2)
	require.True(t, ok)
	require.Equal(t, []int16{1, 2}, s)

	// Wrap around
	r.Write([]int16{4, 5, 6})
	require.Equal(t, 4, r.Len())
	s, ok = r.Read(4)
	require.True(t, ok)
	require.Equal(t, []int16{3, 4, 5, 6}, s)
	require.Equal(t, 0, r.Len())

	// Grow while wrapped
	r.Write([]int16{7, 8, 9})
	r.Write([]int16{10, 11, 12, 13, 14, 15})
	require.Equal(t, 9, r.Len())
	s, ok = r.Read(5)
	require.True(t, ok)
	require.Equal(t, []int16{7, 8, 9, 10, 11}, s)
	require.Equal(t, []int16{12, 13, 14, 15}, r.ReadAll())
	require.Nil(t, r.ReadAll())

	// Reset
	r.Write([]int16{1})
	r.Reset()
	require.Equal(t, 0, r.Len())
}
