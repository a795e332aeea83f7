package astirecorder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNegotiateVideo(t *testing.T) {
	for _, c := range Containers() {
		allowed := make(map[VideoCodecID]bool)
		for _, id := range c.AllowedVideoCodecs {
			allowed[id] = true
		}
		for id := VideoCodecAuto; id < videoCodecCount; id++ {
			tg, err := Negotiate(NegotiateOptions{Container: c.ID, VideoCodec: id})
			if id == VideoCodecAuto || allowed[id] {
				require.NoError(t, err, "container %s, codec %s", c.LongName, id)
				if id == VideoCodecAuto {
					require.Equal(t, c.DefaultVideoCodec, tg.VideoCodec.ID)
				} else {
					require.Equal(t, id, tg.VideoCodec.ID)
				}
				require.False(t, tg.HasAudio())
			} else {
				require.ErrorIs(t, err, ErrUnsupportedCombination, "container %s, codec %s", c.LongName, id)
			}
		}
	}
}

func TestNegotiateAudio(t *testing.T) {
	for _, c := range Containers() {
		allowed := make(map[AudioCodecID]bool)
		for _, id := range c.AllowedAudioCodecs {
			allowed[id] = true
		}
		for id := AudioCodecAuto; id < audioCodecCount; id++ {
			// Audio not wanted never fails
			tg, err := Negotiate(NegotiateOptions{AudioCodec: id, Container: c.ID})
			require.NoError(t, err)
			require.False(t, tg.HasAudio())

			// Audio wanted
			tg, err = Negotiate(NegotiateOptions{AudioCodec: id, AudioWanted: true, Container: c.ID})
			switch {
			case id == AudioCodecAuto && len(c.AllowedAudioCodecs) == 0:
				require.NoError(t, err)
				require.False(t, tg.HasAudio())
				require.True(t, tg.AudioDropped)
			case id == AudioCodecAuto:
				require.NoError(t, err)
				require.Equal(t, c.DefaultAudioCodec, tg.AudioCodec)
				require.False(t, tg.AudioDropped)
			case allowed[id]:
				require.NoError(t, err)
				require.Equal(t, id, tg.AudioCodec)
			default:
				require.ErrorIs(t, err, ErrUnsupportedCombination, "container %s, codec %s", c.LongName, id)
			}
		}
	}
}

func TestNegotiateEmptySetRejectsDefault(t *testing.T) {
	// Still images have no audio codec, their own default included
	c, ok := Container(ContainerPNG)
	require.True(t, ok)
	require.Empty(t, c.AllowedAudioCodecs)
	for id := AudioCodecAuto + 1; id < audioCodecCount; id++ {
		_, err := Negotiate(NegotiateOptions{AudioCodec: id, AudioWanted: true, Container: ContainerPNG})
		require.ErrorIs(t, err, ErrUnsupportedCombination)
	}

	// Empty video set rejects auto too
	_, err := resolveVideoCodec(ContainerDescriptor{LongName: "empty"}, VideoCodecAuto)
	require.ErrorIs(t, err, ErrUnsupportedCombination)
	_, err = resolveAudioCodec(ContainerDescriptor{LongName: "empty", DefaultAudioCodec: AudioCodecMP2}, AudioCodecMP2)
	require.ErrorIs(t, err, ErrUnsupportedCombination)
}

func TestNegotiateContainer(t *testing.T) {
	// Out of range
	for _, id := range []ContainerID{-1, containerCount, 1000} {
		_, err := Negotiate(NegotiateOptions{Container: id})
		require.ErrorIs(t, err, ErrUnsupportedCombination)
	}

	// Autodetect
	for f, id := range map[string]ContainerID{
		"/tmp/a.mkv":        ContainerMatroska,
		"b.MP4":             ContainerMP4,
		"shot-%04d.png":     ContainerPNG,
		"shot.jpeg":         ContainerJPEG,
		"dir.avi/video.ogv": ContainerOgg,
	} {
		tg, err := Negotiate(NegotiateOptions{Filename: f})
		require.NoError(t, err, f)
		require.Equal(t, id, tg.Container.ID, f)
	}
	for _, f := range []string{"", "noext", "a.txt"} {
		_, err := Negotiate(NegotiateOptions{Filename: f})
		require.True(t, errors.Is(err, ErrUnsupportedCombination), f)
	}
}

func TestQualityToQuantizer(t *testing.T) {
	require.Equal(t, 30, QualityToQuantizer(1))
	require.Equal(t, 15, QualityToQuantizer(51))
	require.Equal(t, 0, QualityToQuantizer(100))
	require.Equal(t, QualityToQuantizer(1), QualityToQuantizer(-5))
	require.Equal(t, QualityToQuantizer(100), QualityToQuantizer(500))

	// Monotonic non increasing and bounded
	p := QuantizerMax + 1
	for q := -10; q <= 110; q++ {
		v := QualityToQuantizer(q)
		require.GreaterOrEqual(t, v, QuantizerMin)
		require.LessOrEqual(t, v, QuantizerMax)
		require.LessOrEqual(t, v, p, "quality %d", q)
		p = v
	}
}
