package astinative

import (
	"testing"

	"github.com/asticode/go-astirecorder"
	"github.com/stretchr/testify/require"
)

func TestResampler(t *testing.T) {
	// Remix only
	r, err := newResampler(astirecorder.ResamplerOptions{DstChannels: 2, DstSampleRate: 8000, SrcChannels: 1, SrcSampleRate: 8000})
	require.NoError(t, err)
	s, err := r.Resample([]int16{1, 2})
	require.NoError(t, err)
	require.Equal(t, []int16{1, 1, 2, 2}, s)

	r, err = newResampler(astirecorder.ResamplerOptions{DstChannels: 1, DstSampleRate: 8000, SrcChannels: 2, SrcSampleRate: 8000})
	require.NoError(t, err)
	s, err = r.Resample([]int16{1, 3, -4, 2})
	require.NoError(t, err)
	require.Equal(t, []int16{2, -1}, s)
	_, err = r.Resample([]int16{1})
	require.Error(t, err)

	// Upsample across calls
	r, err = newResampler(astirecorder.ResamplerOptions{DstChannels: 1, DstSampleRate: 16000, SrcChannels: 1, SrcSampleRate: 8000})
	require.NoError(t, err)
	s, err = r.Resample([]int16{0, 10})
	require.NoError(t, err)
	require.Equal(t, []int16{0, 5}, s)
	s, err = r.Resample([]int16{20, 30})
	require.NoError(t, err)
	require.Equal(t, []int16{10, 15, 20, 25}, s)
	s, err = r.Resample(nil)
	require.NoError(t, err)
	require.Equal(t, []int16{30, 30}, s)
	s, err = r.Resample(nil)
	require.NoError(t, err)
	require.Empty(t, s)

	// Downsample
	r, err = newResampler(astirecorder.ResamplerOptions{DstChannels: 1, DstSampleRate: 4000, SrcChannels: 1, SrcSampleRate: 8000})
	require.NoError(t, err)
	s, err = r.Resample([]int16{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)
	require.Equal(t, []int16{0, 2, 4}, s)

	_, err = newResampler(astirecorder.ResamplerOptions{})
	require.ErrorIs(t, err, astirecorder.ErrInvalidSessionParameter)
}
