package astinative

import (
	"fmt"
	"math"

	"github.com/asticode/go-astirecorder"
)

// resampler converts channels first then interpolates linearly between
// consecutive frames. The last frame of each call is kept to interpolate
// across calls.
type resampler struct {
	last    []int16
	o       astirecorder.ResamplerOptions
	pos     float64
	remixed []int16
	step    float64
}

func newResampler(o astirecorder.ResamplerOptions) (r *resampler, err error) {
	if o.SrcSampleRate <= 0 || o.DstSampleRate <= 0 || o.SrcChannels <= 0 || o.DstChannels <= 0 {
		err = fmt.Errorf("astinative: invalid resampler formats %dHz %dch => %dHz %dch: %w", o.SrcSampleRate, o.SrcChannels, o.DstSampleRate, o.DstChannels, astirecorder.ErrInvalidSessionParameter)
		return
	}
	r = &resampler{
		o:    o,
		step: float64(o.SrcSampleRate) / float64(o.DstSampleRate),
	}
	return
}

func (r *resampler) Close() error { return nil }

func (r *resampler) Resample(in []int16) (out []int16, err error) {
	// Flush
	ch := r.o.DstChannels
	if in == nil {
		for r.last != nil && r.pos < 1 {
			out = append(out, r.last...)
			r.pos += r.step
		}
		r.last = nil
		r.pos = 0
		return
	}

	// Check size
	if len(in)%r.o.SrcChannels != 0 {
		err = fmt.Errorf("astinative: %d samples is not a multiple of %d channels", len(in), r.o.SrcChannels)
		return
	}

	// Remix
	frames := r.remix(in)

	// Same rate
	if r.o.SrcSampleRate == r.o.DstSampleRate {
		return append([]int16(nil), frames...), nil
	}

	// Prepend last frame
	seq := frames
	if r.last != nil {
		seq = append(append(make([]int16, 0, len(frames)+ch), r.last...), frames...)
	}
	n := len(seq) / ch
	if n == 0 {
		return
	}

	// Interpolate
	for {
		i := int(r.pos)
		if i+1 >= n {
			break
		}
		frac := r.pos - float64(i)
		for c := 0; c < ch; c++ {
			a, b := float64(seq[i*ch+c]), float64(seq[(i+1)*ch+c])
			out = append(out, int16(math.Round(a+(b-a)*frac)))
		}
		r.pos += r.step
	}

	// Keep last frame
	r.pos -= float64(n - 1)
	r.last = append(r.last[:0], seq[(n-1)*ch:]...)
	return
}

// Mono is duplicated, downmixing to mono averages channels and other
// layouts are mapped channel by channel
func (r *resampler) remix(in []int16) []int16 {
	src, dst := r.o.SrcChannels, r.o.DstChannels
	if src == dst {
		return in
	}
	n := len(in) / src
	if cap(r.remixed) < n*dst {
		r.remixed = make([]int16, n*dst)
	}
	out := r.remixed[:n*dst]
	for i := 0; i < n; i++ {
		f := in[i*src : (i+1)*src]
		if dst == 1 {
			var sum int
			for _, s := range f {
				sum += int(s)
			}
			out[i] = int16(sum / src)
			continue
		}
		for c := 0; c < dst; c++ {
			if c < src {
				out[i*dst+c] = f[c]
			} else if src == 1 {
				out[i*dst+c] = f[0]
			} else {
				out[i*dst+c] = 0
			}
		}
	}
	return out
}
