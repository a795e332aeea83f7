package astilibav

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/asticode/go-astirecorder"
)

type resampler struct {
	c    *astikit.Closer
	dst  *astiav.Frame
	o    astirecorder.ResamplerOptions
	sent bool
	src  *astiav.Frame
	swr  *astiav.SoftwareResampleContext
}

func newResampler(o astirecorder.ResamplerOptions) (r *resampler, err error) {
	// Check channels
	if _, err = channelLayout(o.SrcChannels); err != nil {
		return
	}
	if _, err = channelLayout(o.DstChannels); err != nil {
		return
	}

	// Create resampler
	r = &resampler{
		c: astikit.NewCloser(),
		o: o,
	}

	// Alloc
	if r.swr = astiav.AllocSoftwareResampleContext(); r.swr == nil {
		err = errors.New("astilibav: allocating software resample context failed")
		return
	}
	r.c.Add(r.swr.Free)
	r.src = astiav.AllocFrame()
	r.c.Add(r.src.Free)
	r.dst = astiav.AllocFrame()
	r.c.Add(r.dst.Free)
	return
}

// Close implements the astirecorder.Resampler interface
func (r *resampler) Close() error { return r.c.Close() }

// Resample implements the astirecorder.Resampler interface
func (r *resampler) Resample(s []int16) ([]int16, error) {
	// Prepare destination
	// Its buffer is allocated by libav depending on the number of buffered samples
	cl, err := channelLayout(r.o.DstChannels)
	if err != nil {
		return nil, err
	}
	r.dst.Unref()
	r.dst.SetChannelLayout(cl)
	r.dst.SetSampleFormat(astiav.SampleFormatS16)
	r.dst.SetSampleRate(r.o.DstSampleRate)

	// Flush
	if s == nil {
		// Nothing has been buffered
		if !r.sent {
			return nil, nil
		}
		if err = r.swr.ConvertFrame(nil, r.dst); err != nil {
			return nil, fmt.Errorf("astilibav: flushing failed: %w", err)
		}
		return frameToSamples(r.dst)
	}

	// Fill source
	if err = samplesToFrame(s, r.o.SrcChannels, r.o.SrcSampleRate, r.src); err != nil {
		return nil, err
	}

	// Convert
	if err = r.swr.ConvertFrame(r.src, r.dst); err != nil {
		return nil, fmt.Errorf("astilibav: converting samples failed: %w", err)
	}
	r.sent = true
	return frameToSamples(r.dst)
}
