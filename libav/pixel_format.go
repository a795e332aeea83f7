package astilibav

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astirecorder"
)

var pixelFormats = map[astirecorder.PixelFormat]astiav.PixelFormat{
	astirecorder.PixelFormatABGR:     astiav.PixelFormatAbgr,
	astirecorder.PixelFormatARGB:     astiav.PixelFormatArgb,
	astirecorder.PixelFormatBGR24:    astiav.PixelFormatBgr24,
	astirecorder.PixelFormatBGRA:     astiav.PixelFormatBgra,
	astirecorder.PixelFormatPal8:     astiav.PixelFormatPal8,
	astirecorder.PixelFormatRGB24:    astiav.PixelFormatRgb24,
	astirecorder.PixelFormatRGB555BE: astiav.PixelFormatRgb555Be,
	astirecorder.PixelFormatRGB555LE: astiav.PixelFormatRgb555Le,
	astirecorder.PixelFormatRGB565BE: astiav.PixelFormatRgb565Be,
	astirecorder.PixelFormatRGB565LE: astiav.PixelFormatRgb565Le,
	astirecorder.PixelFormatRGBA:     astiav.PixelFormatRgba,
	astirecorder.PixelFormatYUV420P:  astiav.PixelFormatYuv420P,
	astirecorder.PixelFormatYUV422P:  astiav.PixelFormatYuv422P,
	astirecorder.PixelFormatYUVJ420P: astiav.PixelFormatYuvj420P,
}

func pixelFormat(f astirecorder.PixelFormat) (astiav.PixelFormat, error) {
	pf, ok := pixelFormats[f]
	if !ok {
		return astiav.PixelFormatNone, fmt.Errorf("astilibav: no libav pixel format for %s: %w", f, astirecorder.ErrUnsupportedPixelFormat)
	}
	return pf, nil
}

// Sample formats used by encoders, samples are converted from interleaved
// signed 16 bits when they differ
var sampleFormats = map[astirecorder.AudioCodecID]astiav.SampleFormat{
	astirecorder.AudioCodecAAC:      astiav.SampleFormatFltp,
	astirecorder.AudioCodecMP2:      astiav.SampleFormatS16,
	astirecorder.AudioCodecMP3:      astiav.SampleFormatS16P,
	astirecorder.AudioCodecOpus:     astiav.SampleFormatS16,
	astirecorder.AudioCodecPCMALaw:  astiav.SampleFormatS16,
	astirecorder.AudioCodecPCMMuLaw: astiav.SampleFormatS16,
	astirecorder.AudioCodecPCMS16LE: astiav.SampleFormatS16,
	astirecorder.AudioCodecVorbis:   astiav.SampleFormatFltp,
}

func sampleFormat(id astirecorder.AudioCodecID) (astiav.SampleFormat, error) {
	sf, ok := sampleFormats[id]
	if !ok {
		return astiav.SampleFormatNone, fmt.Errorf("astilibav: no sample format for %s: %w", id, astirecorder.ErrUnsupportedCombination)
	}
	return sf, nil
}

func channelLayout(channels int) (astiav.ChannelLayout, error) {
	switch channels {
	case 1:
		return astiav.ChannelLayoutMono, nil
	case 2:
		return astiav.ChannelLayoutStereo, nil
	}
	return astiav.ChannelLayout{}, fmt.Errorf("astilibav: %d channels are not supported: %w", channels, astirecorder.ErrUnsupportedCombination)
}

func rationalToAstiav(r astirecorder.Rational) astiav.Rational {
	return astiav.NewRational(r.Num, r.Den)
}

func rationalFromAstiav(r astiav.Rational) astirecorder.Rational {
	return astirecorder.NewRational(r.Num(), r.Den())
}
