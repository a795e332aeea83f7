package astinative

import (
	"encoding/binary"
	"fmt"

	"github.com/asticode/go-astirecorder"
)

type audioDecoder struct {
	decode func(b byte) int16
	o      astirecorder.AudioDecoderOptions
}

func newAudioDecoder(o astirecorder.AudioDecoderOptions) (d *audioDecoder, err error) {
	d = &audioDecoder{o: o}
	switch o.Codec.ID {
	case astirecorder.AudioCodecPCMALaw:
		d.decode = alawToLinear
	case astirecorder.AudioCodecPCMMuLaw:
		d.decode = ulawToLinear
	case astirecorder.AudioCodecPCMS16LE:
	default:
		err = fmt.Errorf("astinative: decoding %s is not supported: %w", o.Codec.Name, astirecorder.ErrUnsupportedCombination)
		return
	}
	return
}

func (d *audioDecoder) Close() error { return nil }

func (d *audioDecoder) Decode(data []byte) (s []int16, err error) {
	// Raw pcm
	if d.decode == nil {
		if len(data)%2 != 0 {
			err = fmt.Errorf("astinative: pcm buffer size %d is odd", len(data))
			return
		}
		s = make([]int16, len(data)/2)
		for i := range s {
			s[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
		}
		return
	}

	// G.711
	s = make([]int16, len(data))
	for i, b := range data {
		s[i] = d.decode(b)
	}
	return
}

func alawToLinear(v byte) int16 {
	v ^= 0x55
	t := int32(v&0x0f) << 4
	switch seg := (v & 0x70) >> 4; seg {
	case 0:
		t += 8
	case 1:
		t += 0x108
	default:
		t += 0x108
		t <<= seg - 1
	}
	if v&0x80 != 0 {
		return int16(t)
	}
	return int16(-t)
}

const ulawBias = 0x84

func ulawToLinear(v byte) int16 {
	v = ^v
	t := (int32(v&0x0f) << 3) + ulawBias
	t <<= (v & 0x70) >> 4
	if v&0x80 != 0 {
		return int16(ulawBias - t)
	}
	return int16(t - ulawBias)
}
