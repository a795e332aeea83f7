package astilibav

import (
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astirecorder"
	"github.com/stretchr/testify/require"
)

func TestPixelFormat(t *testing.T) {
	for f := astirecorder.PixelFormatPal8; f <= astirecorder.PixelFormatYUV422P; f++ {
		pf, err := pixelFormat(f)
		require.NoError(t, err)
		require.Equal(t, f.String(), pf.String())
	}
	_, err := pixelFormat(astirecorder.PixelFormatNone)
	require.ErrorIs(t, err, astirecorder.ErrUnsupportedPixelFormat)
}

func TestSampleFormat(t *testing.T) {
	for id := astirecorder.AudioCodecPCMS16LE; id <= astirecorder.AudioCodecOpus; id++ {
		_, err := sampleFormat(id)
		require.NoError(t, err)
	}
	_, err := sampleFormat(astirecorder.AudioCodecNone)
	require.ErrorIs(t, err, astirecorder.ErrUnsupportedCombination)
}

func TestChannelLayout(t *testing.T) {
	l, err := channelLayout(1)
	require.NoError(t, err)
	require.Equal(t, 1, l.Channels())
	l, err = channelLayout(2)
	require.NoError(t, err)
	require.Equal(t, 2, l.Channels())
	_, err = channelLayout(6)
	require.ErrorIs(t, err, astirecorder.ErrUnsupportedCombination)
}

func TestRational(t *testing.T) {
	r := rationalToAstiav(astirecorder.NewRational(1001, 30000))
	require.Equal(t, astiav.NewRational(1001, 30000), r)
	require.Equal(t, astirecorder.NewRational(1001, 30000), rationalFromAstiav(r))
}
