package astirecorder

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// Quantizer bounds
const (
	QuantizerMax = 31
	QuantizerMin = 0
)

const qualityToQuantizerRatio = 3.3

// NegotiateOptions represents what the user asked for
type NegotiateOptions struct {
	AudioCodec  AudioCodecID
	AudioWanted bool
	Container   ContainerID
	// Used to autodetect the container
	Filename   string
	VideoCodec VideoCodecID
}

// Target is the resolved container/codec triple
type Target struct {
	AudioCodec AudioCodecID
	// Audio was wanted but the container doesn't allow any audio codec
	AudioDropped bool
	Container    ContainerDescriptor
	VideoCodec   VideoCodecDescriptor
}

// HasAudio returns whether the target has an audio stream
func (t Target) HasAudio() bool {
	return t.AudioCodec != AudioCodecNone
}

// PixelFormat returns the pixel format the video encoder expects
func (t Target) PixelFormat() PixelFormat {
	return t.VideoCodec.PixelFormat
}

// Negotiate resolves the container and codecs. It never allocates anything and
// never downgrades an explicit request.
func Negotiate(o NegotiateOptions) (t Target, err error) {
	// Resolve container
	id := o.Container
	if id == ContainerAuto {
		if id, err = containerFromFilename(o.Filename); err != nil {
			return
		}
	}
	var ok bool
	if t.Container, ok = containers[id]; !ok {
		err = fmt.Errorf("astirecorder: container id %d is out of range: %w", id, ErrUnsupportedCombination)
		return
	}

	// Resolve video codec
	var vid VideoCodecID
	if vid, err = resolveVideoCodec(t.Container, o.VideoCodec); err != nil {
		return
	}
	t.VideoCodec = videoCodecs[vid]

	// No audio
	t.AudioCodec = AudioCodecNone
	if !o.AudioWanted {
		return
	}

	// Resolve audio codec
	if t.AudioCodec, err = resolveAudioCodec(t.Container, o.AudioCodec); err != nil {
		return
	}
	t.AudioDropped = t.AudioCodec == AudioCodecNone
	return
}

func containerFromFilename(filename string) (ContainerID, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext != "" {
		for _, d := range Containers() {
			for _, e := range d.Extensions {
				if e == ext {
					return d.ID, nil
				}
			}
		}
	}
	return ContainerAuto, fmt.Errorf("astirecorder: no container matches filename %q: %w", filename, ErrUnsupportedCombination)
}

func resolveVideoCodec(c ContainerDescriptor, id VideoCodecID) (VideoCodecID, error) {
	// Empty set makes every request fail, including the default
	if len(c.AllowedVideoCodecs) == 0 {
		return VideoCodecNone, fmt.Errorf("astirecorder: container %s doesn't allow any video codec: %w", c.LongName, ErrUnsupportedCombination)
	}

	// Default
	if id == VideoCodecAuto {
		return c.DefaultVideoCodec, nil
	}

	// Check allowed set
	for _, v := range c.AllowedVideoCodecs {
		if v == id {
			return id, nil
		}
	}
	return VideoCodecNone, fmt.Errorf("astirecorder: video codec %s is not allowed in container %s: %w", id, c.LongName, ErrUnsupportedCombination)
}

func resolveAudioCodec(c ContainerDescriptor, id AudioCodecID) (AudioCodecID, error) {
	// Empty set
	if len(c.AllowedAudioCodecs) == 0 {
		if id == AudioCodecAuto {
			return AudioCodecNone, nil
		}
		return AudioCodecNone, fmt.Errorf("astirecorder: container %s doesn't allow any audio codec: %w", c.LongName, ErrUnsupportedCombination)
	}

	// Default
	if id == AudioCodecAuto {
		return c.DefaultAudioCodec, nil
	}

	// Check allowed set
	for _, v := range c.AllowedAudioCodecs {
		if v == id {
			return id, nil
		}
	}
	return AudioCodecNone, fmt.Errorf("astirecorder: audio codec %s is not allowed in container %s: %w", id, c.LongName, ErrUnsupportedCombination)
}

// QualityToQuantizer maps a 1-100 quality to a quantizer in [QuantizerMin, QuantizerMax].
// QuantizerMin means the encoder default rate control should be used.
func QualityToQuantizer(quality int) int {
	if quality < 1 {
		quality = 1
	} else if quality > 100 {
		quality = 100
	}
	q := int(math.Round(float64(100-quality+1) / qualityToQuantizerRatio))
	if q < QuantizerMin {
		q = QuantizerMin
	} else if q > QuantizerMax {
		q = QuantizerMax
	}
	return q
}
