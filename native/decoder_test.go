package astinative

import (
	"testing"

	"github.com/asticode/go-astirecorder"
	"github.com/stretchr/testify/require"
)

func TestAudioDecoder(t *testing.T) {
	require.Equal(t, int16(8), alawToLinear(0xd5))
	require.Equal(t, int16(-8), alawToLinear(0x55))
	require.Equal(t, int16(0), ulawToLinear(0xff))
	require.Equal(t, int16(-32124), ulawToLinear(0x00))
	require.Equal(t, int16(32124), ulawToLinear(0x80))

	cd, _ := astirecorder.AudioCodec(astirecorder.AudioCodecPCMALaw)
	d, err := newAudioDecoder(astirecorder.AudioDecoderOptions{Channels: 1, Codec: cd, SampleRate: 8000})
	require.NoError(t, err)
	s, err := d.Decode([]byte{0xd5, 0x55})
	require.NoError(t, err)
	require.Equal(t, []int16{8, -8}, s)

	cd, _ = astirecorder.AudioCodec(astirecorder.AudioCodecPCMS16LE)
	d, err = newAudioDecoder(astirecorder.AudioDecoderOptions{Channels: 1, Codec: cd, SampleRate: 8000})
	require.NoError(t, err)
	s, err = d.Decode([]byte{0x01, 0x00, 0xff, 0xff})
	require.NoError(t, err)
	require.Equal(t, []int16{1, -1}, s)
	_, err = d.Decode([]byte{0x01})
	require.Error(t, err)

	cd, _ = astirecorder.AudioCodec(astirecorder.AudioCodecMP3)
	_, err = newAudioDecoder(astirecorder.AudioDecoderOptions{Codec: cd})
	require.ErrorIs(t, err, astirecorder.ErrUnsupportedCombination)
}
