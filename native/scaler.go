package astinative

import (
	"fmt"
	"image"

	"github.com/asticode/go-astirecorder"
	"golang.org/x/image/draw"
)

type scaler struct {
	buf []byte
	dst *image.RGBA
	i   draw.Scaler
	o   astirecorder.ScalerOptions
	src *image.RGBA
}

func newScaler(o astirecorder.ScalerOptions, i draw.Scaler) (s *scaler, err error) {
	// Check formats
	if _, ok := pixelReaders[o.SrcFormat]; !ok && !o.SrcFormat.Planar() {
		err = fmt.Errorf("astinative: source format %s is not supported: %w", o.SrcFormat, astirecorder.ErrUnsupportedPixelFormat)
		return
	}
	switch o.DstFormat {
	case astirecorder.PixelFormatRGB24, astirecorder.PixelFormatBGR24, astirecorder.PixelFormatRGBA, astirecorder.PixelFormatYUVJ420P:
	default:
		err = fmt.Errorf("astinative: destination format %s is not supported: %w", o.DstFormat, astirecorder.ErrUnsupportedPixelFormat)
		return
	}

	// Create scaler
	s = &scaler{
		i:   i,
		o:   o,
		src: image.NewRGBA(image.Rect(0, 0, o.SrcWidth, o.SrcHeight)),
	}
	if o.SrcWidth != o.DstWidth || o.SrcHeight != o.DstHeight {
		s.dst = image.NewRGBA(image.Rect(0, 0, o.DstWidth, o.DstHeight))
	}
	return
}

func (s *scaler) Close() error { return nil }

func (s *scaler) Scale(f *astirecorder.VideoFrame) (o *astirecorder.VideoFrame, err error) {
	// Check frame
	if f.Format != s.o.SrcFormat || f.Width != s.o.SrcWidth || f.Height != s.o.SrcHeight {
		err = fmt.Errorf("astinative: frame %s %dx%d doesn't match scaler input %s %dx%d", f.Format, f.Width, f.Height, s.o.SrcFormat, s.o.SrcWidth, s.o.SrcHeight)
		return
	}

	// Read
	if err = frameToRGBA(f, s.src); err != nil {
		return
	}

	// Scale
	img := s.src
	if s.dst != nil {
		s.i.Scale(s.dst, s.dst.Bounds(), s.src, s.src.Bounds(), draw.Src, nil)
		img = s.dst
	}

	// Write
	if o, err = rgbaToFrame(img, s.o.DstFormat, s.buf); err != nil {
		return
	}
	s.buf = o.Planes[0][:cap(o.Planes[0])]
	o.Pts = f.Pts
	return
}
