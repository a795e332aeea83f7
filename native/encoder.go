package astinative

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"sync"

	"github.com/asticode/go-astirecorder"
	"github.com/at-wat/ebml-go/webm"
	"golang.org/x/image/bmp"
)

// Track types
const (
	trackTypeVideo = 1
	trackTypeAudio = 2
)

// Encoders that can be muxed into Matroska describe their track
type tracker interface {
	trackEntry() (webm.TrackEntry, bool)
}

type imageEncodeFunc func(buf *bytes.Buffer, f *astirecorder.VideoFrame) error

type videoEncoder struct {
	buf    *bytes.Buffer
	encode imageEncodeFunc
	o      astirecorder.VideoEncoderOptions
}

func newVideoEncoder(o astirecorder.VideoEncoderOptions, bo BackendOptions) (e *videoEncoder, err error) {
	// Check pixel format
	if o.PixelFormat != o.Codec.PixelFormat {
		err = fmt.Errorf("astinative: %s expects %s, not %s: %w", o.Codec.Name, o.Codec.PixelFormat, o.PixelFormat, astirecorder.ErrUnsupportedPixelFormat)
		return
	}

	// Create encoder
	e = &videoEncoder{
		buf: &bytes.Buffer{},
		o:   o,
	}

	// Get encode func
	switch o.Codec.ID {
	case astirecorder.VideoCodecPNG:
		pe := &png.Encoder{
			BufferPool:       &pngBufferPool{},
			CompressionLevel: bo.PNGCompressionLevel,
		}
		e.encode = func(buf *bytes.Buffer, f *astirecorder.VideoFrame) error {
			return pe.Encode(buf, rgb24ToRGBA(f))
		}
	case astirecorder.VideoCodecMJPEG:
		q := bo.JPEGQuality
		if q <= 0 {
			q = quantizerToJPEGQuality(o.Quantizer)
		}
		e.encode = func(buf *bytes.Buffer, f *astirecorder.VideoFrame) error {
			return jpeg.Encode(buf, yuvj420pToYCbCr(f), &jpeg.Options{Quality: q})
		}
	case astirecorder.VideoCodecBMP:
		e.encode = func(buf *bytes.Buffer, f *astirecorder.VideoFrame) error {
			return bmp.Encode(buf, bgr24ToRGBA(f))
		}
	default:
		err = fmt.Errorf("astinative: video codec %s is not supported: %w", o.Codec.Name, astirecorder.ErrUnsupportedCombination)
		return
	}
	return
}

// quantizerToJPEGQuality reverts the quality to quantizer conversion. 0 means
// the encoder default.
func quantizerToJPEGQuality(q int) int {
	if q <= 0 {
		return astirecorder.DefaultQuality
	}
	v := 101 - int(float64(q)*3.3+0.5)
	if v < 1 {
		v = 1
	} else if v > 100 {
		v = 100
	}
	return v
}

func (e *videoEncoder) Close() error { return nil }

func (e *videoEncoder) TimeBase() astirecorder.Rational { return e.o.FrameRate.Invert() }

// Images are independent, therefore there's nothing to flush
func (e *videoEncoder) Encode(f *astirecorder.VideoFrame) (ps []astirecorder.Packet, err error) {
	// Flush
	if f == nil {
		return
	}

	// Encode
	e.buf.Reset()
	if err = e.encode(e.buf, f); err != nil {
		err = fmt.Errorf("astinative: encoding %s failed: %w", e.o.Codec.Name, err)
		return
	}

	// Copy since the buffer is reused
	ps = append(ps, astirecorder.Packet{
		Data:     append([]byte(nil), e.buf.Bytes()...),
		Dts:      f.Pts,
		Duration: 1,
		Key:      true,
		Pts:      f.Pts,
	})
	return
}

func (e *videoEncoder) trackEntry() (t webm.TrackEntry, ok bool) {
	if e.o.Codec.ID != astirecorder.VideoCodecMJPEG {
		return
	}
	t = webm.TrackEntry{
		CodecID:   "V_MJPEG",
		Name:      "Video",
		TrackType: trackTypeVideo,
		Video: &webm.Video{
			PixelHeight: uint64(e.o.Height),
			PixelWidth:  uint64(e.o.Width),
		},
	}
	if e.o.FrameRate.Valid() {
		t.DefaultDuration = uint64(1e9 * float64(e.o.FrameRate.Den) / float64(e.o.FrameRate.Num))
	}
	return t, true
}

func rgb24ToRGBA(f *astirecorder.VideoFrame) *image.RGBA {
	i := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		src := f.Planes[0][y*f.Strides[0] : y*f.Strides[0]+f.Width*3]
		dst := i.Pix[y*i.Stride : y*i.Stride+f.Width*4]
		for x := 0; x < f.Width; x++ {
			dst[4*x], dst[4*x+1], dst[4*x+2], dst[4*x+3] = src[3*x], src[3*x+1], src[3*x+2], 0xff
		}
	}
	return i
}

func bgr24ToRGBA(f *astirecorder.VideoFrame) *image.RGBA {
	i := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		src := f.Planes[0][y*f.Strides[0] : y*f.Strides[0]+f.Width*3]
		dst := i.Pix[y*i.Stride : y*i.Stride+f.Width*4]
		for x := 0; x < f.Width; x++ {
			dst[4*x], dst[4*x+1], dst[4*x+2], dst[4*x+3] = src[3*x+2], src[3*x+1], src[3*x], 0xff
		}
	}
	return i
}

func yuvj420pToYCbCr(f *astirecorder.VideoFrame) *image.YCbCr {
	return &image.YCbCr{
		Y:              f.Planes[0],
		Cb:             f.Planes[1],
		Cr:             f.Planes[2],
		YStride:        f.Strides[0],
		CStride:        f.Strides[1],
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, f.Width, f.Height),
	}
}

type pngBufferPool struct {
	p sync.Pool
}

func (p *pngBufferPool) Get() *png.EncoderBuffer {
	if b, ok := p.p.Get().(*png.EncoderBuffer); ok {
		return b
	}
	return nil
}

func (p *pngBufferPool) Put(b *png.EncoderBuffer) { p.p.Put(b) }

type audioEncoder struct {
	o astirecorder.AudioEncoderOptions
}

func newAudioEncoder(o astirecorder.AudioEncoderOptions) (e *audioEncoder, err error) {
	// Only raw pcm is supported
	if o.Codec.ID != astirecorder.AudioCodecPCMS16LE {
		err = fmt.Errorf("astinative: audio codec %s is not supported: %w", o.Codec.Name, astirecorder.ErrUnsupportedCombination)
		return
	}
	if o.SampleRate <= 0 || o.Channels <= 0 {
		err = fmt.Errorf("astinative: invalid audio format %dHz %dch: %w", o.SampleRate, o.Channels, astirecorder.ErrInvalidSessionParameter)
		return
	}
	e = &audioEncoder{o: o}
	return
}

func (e *audioEncoder) Close() error { return nil }

func (e *audioEncoder) TimeBase() astirecorder.Rational {
	return astirecorder.NewRational(1, e.o.SampleRate)
}

// Raw pcm accepts any number of samples
func (e *audioEncoder) FrameSize() int { return 0 }

func (e *audioEncoder) Encode(samples []int16, pts int64) (ps []astirecorder.Packet, err error) {
	// Flush or nothing to encode
	if len(samples) == 0 {
		return
	}

	// Encode
	b := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(s))
	}
	ps = append(ps, astirecorder.Packet{
		Data:     b,
		Dts:      pts,
		Duration: int64(len(samples) / e.o.Channels),
		Key:      true,
		Pts:      pts,
	})
	return
}

func (e *audioEncoder) trackEntry() (webm.TrackEntry, bool) {
	return webm.TrackEntry{
		Audio: &webm.Audio{
			BitDepth:          16,
			Channels:          uint64(e.o.Channels),
			SamplingFrequency: float64(e.o.SampleRate),
		},
		CodecID:   "A_PCM/INT/LIT",
		Name:      "Audio",
		TrackType: trackTypeAudio,
	}, true
}
