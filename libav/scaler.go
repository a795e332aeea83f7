package astilibav

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/asticode/go-astirecorder"
)

type scaler struct {
	c   *astikit.Closer
	dst *astiav.Frame
	o   astirecorder.ScalerOptions
	src *astiav.Frame
	ssc *astiav.SoftwareScaleContext
}

func newScaler(o astirecorder.ScalerOptions) (s *scaler, err error) {
	// Create scaler
	s = &scaler{
		c: astikit.NewCloser(),
		o: o,
	}

	// Make sure the scaler is closed on error
	defer func() {
		if err != nil {
			s.c.Close()
		}
	}()

	// Get pixel formats
	var spf, dpf astiav.PixelFormat
	if spf, err = pixelFormat(o.SrcFormat); err != nil {
		return
	}
	if dpf, err = pixelFormat(o.DstFormat); err != nil {
		return
	}

	// Create software scale context
	if s.ssc, err = astiav.CreateSoftwareScaleContext(o.SrcWidth, o.SrcHeight, spf, o.DstWidth, o.DstHeight, dpf, astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBilinear)); err != nil {
		err = fmt.Errorf("astilibav: creating software scale context failed: %w", err)
		return
	}
	s.c.Add(s.ssc.Free)

	// Alloc frames
	s.src = astiav.AllocFrame()
	s.c.Add(s.src.Free)
	s.dst = astiav.AllocFrame()
	s.c.Add(s.dst.Free)
	s.dst.SetHeight(o.DstHeight)
	s.dst.SetPixelFormat(dpf)
	s.dst.SetWidth(o.DstWidth)
	if err = s.dst.AllocBuffer(0); err != nil {
		err = fmt.Errorf("astilibav: allocating video buffer failed: %w", err)
		return
	}
	return
}

// Close implements the astirecorder.Scaler interface
func (s *scaler) Close() error { return s.c.Close() }

// Scale implements the astirecorder.Scaler interface
func (s *scaler) Scale(f *astirecorder.VideoFrame) (*astirecorder.VideoFrame, error) {
	// Fill source
	if err := videoFrameToFrame(f, s.src); err != nil {
		return nil, err
	}

	// Scale
	if err := s.ssc.ScaleFrame(s.src, s.dst); err != nil {
		return nil, fmt.Errorf("astilibav: scaling frame failed: %w", err)
	}

	// Convert
	o, err := frameToVideoFrame(s.dst, s.o.DstFormat)
	if err != nil {
		return nil, err
	}
	o.Pts = f.Pts
	return o, nil
}
