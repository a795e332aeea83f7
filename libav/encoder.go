package astilibav

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/asticode/go-astirecorder"
)

// codecContexter is implemented by encoders so that muxers can copy their
// codec parameters
type codecContexter interface {
	codecContext() *astiav.CodecContext
}

type videoEncoder struct {
	c       *astikit.Closer
	cc      *astiav.CodecContext
	f       *astiav.Frame
	flushed bool
	pkt     *astiav.Packet
}

func newVideoEncoder(o astirecorder.VideoEncoderOptions, opts string) (e *videoEncoder, err error) {
	// Create encoder
	e = &videoEncoder{c: astikit.NewCloser()}

	// Make sure the encoder is closed on error
	defer func() {
		if err != nil {
			e.c.Close()
		}
	}()

	// Find encoder
	c := astiav.FindEncoderByName(o.Codec.EncoderName)
	if c == nil {
		err = fmt.Errorf("astilibav: no encoder named %s: %w", o.Codec.EncoderName, astirecorder.ErrUnsupportedCombination)
		return
	}

	// Alloc codec context
	if e.cc = astiav.AllocCodecContext(c); e.cc == nil {
		err = errors.New("astilibav: allocating codec context failed")
		return
	}
	e.c.Add(e.cc.Free)

	// Get pixel format
	var pf astiav.PixelFormat
	if pf, err = pixelFormat(o.PixelFormat); err != nil {
		return
	}

	// Set codec context
	e.cc.SetFramerate(rationalToAstiav(o.FrameRate))
	e.cc.SetHeight(o.Height)
	e.cc.SetPixelFormat(pf)
	e.cc.SetTimeBase(rationalToAstiav(o.FrameRate.Invert()))
	e.cc.SetWidth(o.Width)
	if o.GlobalHeader {
		e.cc.SetFlags(e.cc.Flags().Add(astiav.CodecContextFlagGlobalHeader))
	}

	// Create options
	d := NewDefaultDictionary(opts)
	if o.Quantizer > 0 {
		d.Set("qmin", strconv.Itoa(o.Quantizer)).Set("qmax", strconv.Itoa(o.Quantizer))
	}
	var dd *astiav.Dictionary
	if dd, err = d.parse(); err != nil {
		return
	}
	defer dd.Free()

	// Open codec context
	if err = e.cc.Open(c, dd); err != nil {
		err = fmt.Errorf("astilibav: opening %s codec context failed: %w", o.Codec.EncoderName, err)
		return
	}

	// Alloc frame and packet
	e.f = astiav.AllocFrame()
	e.c.Add(e.f.Free)
	e.pkt = astiav.AllocPacket()
	e.c.Add(e.pkt.Free)
	return
}

func (e *videoEncoder) codecContext() *astiav.CodecContext { return e.cc }

// Close implements the astirecorder.Encoder interface
func (e *videoEncoder) Close() error { return e.c.Close() }

// TimeBase implements the astirecorder.Encoder interface
func (e *videoEncoder) TimeBase() astirecorder.Rational {
	return rationalFromAstiav(e.cc.TimeBase())
}

// Encode implements the astirecorder.VideoEncoder interface
func (e *videoEncoder) Encode(f *astirecorder.VideoFrame) ([]astirecorder.Packet, error) {
	// Flush
	if f == nil {
		// Entering draining mode can only be done once
		if !e.flushed {
			e.flushed = true
			if err := e.cc.SendFrame(nil); err != nil && !isEagainOrEOF(err) {
				return nil, fmt.Errorf("astilibav: flushing failed: %w", err)
			}
		}
		return receivePackets(e.cc, e.pkt)
	}

	// Fill frame
	if err := videoFrameToFrame(f, e.f); err != nil {
		return nil, err
	}

	// Send frame
	if err := e.cc.SendFrame(e.f); err != nil {
		return nil, fmt.Errorf("astilibav: sending frame failed: %w", err)
	}
	return receivePackets(e.cc, e.pkt)
}

type audioEncoder struct {
	c        *astikit.Closer
	cc       *astiav.CodecContext
	channels int
	f        *astiav.Frame
	flushed  bool
	pkt      *astiav.Packet
	rf       *astiav.Frame
	swr      *astiav.SoftwareResampleContext
}

func newAudioEncoder(o astirecorder.AudioEncoderOptions, opts string) (e *audioEncoder, err error) {
	// Create encoder
	e = &audioEncoder{
		c:        astikit.NewCloser(),
		channels: o.Channels,
	}

	// Make sure the encoder is closed on error
	defer func() {
		if err != nil {
			e.c.Close()
		}
	}()

	// Find encoder
	c := astiav.FindEncoderByName(o.Codec.EncoderName)
	if c == nil {
		err = fmt.Errorf("astilibav: no encoder named %s: %w", o.Codec.EncoderName, astirecorder.ErrUnsupportedCombination)
		return
	}

	// Alloc codec context
	if e.cc = astiav.AllocCodecContext(c); e.cc == nil {
		err = errors.New("astilibav: allocating codec context failed")
		return
	}
	e.c.Add(e.cc.Free)

	// Get formats
	var cl astiav.ChannelLayout
	if cl, err = channelLayout(o.Channels); err != nil {
		return
	}
	var sf astiav.SampleFormat
	if sf, err = sampleFormat(o.Codec.ID); err != nil {
		return
	}

	// Set codec context
	if o.BitRate > 0 {
		e.cc.SetBitRate(int64(o.BitRate))
	}
	e.cc.SetChannelLayout(cl)
	e.cc.SetSampleFormat(sf)
	e.cc.SetSampleRate(o.SampleRate)
	e.cc.SetTimeBase(astiav.NewRational(1, o.SampleRate))
	if o.GlobalHeader {
		e.cc.SetFlags(e.cc.Flags().Add(astiav.CodecContextFlagGlobalHeader))
	}

	// Parse options
	var dd *astiav.Dictionary
	if dd, err = NewDefaultDictionary(opts).parse(); err != nil {
		return
	}
	defer dd.Free()

	// Open codec context
	if err = e.cc.Open(c, dd); err != nil {
		err = fmt.Errorf("astilibav: opening %s codec context failed: %w", o.Codec.EncoderName, err)
		return
	}

	// Alloc frames and packet
	e.f = astiav.AllocFrame()
	e.c.Add(e.f.Free)
	e.pkt = astiav.AllocPacket()
	e.c.Add(e.pkt.Free)

	// Samples need to be converted
	if sf != astiav.SampleFormatS16 {
		if e.swr = astiav.AllocSoftwareResampleContext(); e.swr == nil {
			err = errors.New("astilibav: allocating software resample context failed")
			return
		}
		e.c.Add(e.swr.Free)
		e.rf = astiav.AllocFrame()
		e.c.Add(e.rf.Free)
	}
	return
}

func (e *audioEncoder) codecContext() *astiav.CodecContext { return e.cc }

// Close implements the astirecorder.Encoder interface
func (e *audioEncoder) Close() error { return e.c.Close() }

// TimeBase implements the astirecorder.Encoder interface
func (e *audioEncoder) TimeBase() astirecorder.Rational {
	return rationalFromAstiav(e.cc.TimeBase())
}

// FrameSize implements the astirecorder.AudioEncoder interface
func (e *audioEncoder) FrameSize() int { return e.cc.FrameSize() }

// Encode implements the astirecorder.AudioEncoder interface
func (e *audioEncoder) Encode(s []int16, pts int64) ([]astirecorder.Packet, error) {
	// Flush
	if s == nil {
		// Entering draining mode can only be done once
		if !e.flushed {
			e.flushed = true
			if err := e.cc.SendFrame(nil); err != nil && !isEagainOrEOF(err) {
				return nil, fmt.Errorf("astilibav: flushing failed: %w", err)
			}
		}
		return receivePackets(e.cc, e.pkt)
	}

	// Fill frame
	if err := samplesToFrame(s, e.channels, e.cc.SampleRate(), e.f); err != nil {
		return nil, err
	}

	// Convert samples
	f := e.f
	if e.swr != nil {
		e.rf.Unref()
		e.rf.SetChannelLayout(e.cc.ChannelLayout())
		e.rf.SetNbSamples(e.f.NbSamples())
		e.rf.SetSampleFormat(e.cc.SampleFormat())
		e.rf.SetSampleRate(e.cc.SampleRate())
		if err := e.rf.AllocBuffer(0); err != nil {
			return nil, fmt.Errorf("astilibav: allocating audio buffer failed: %w", err)
		}
		if err := e.swr.ConvertFrame(e.f, e.rf); err != nil {
			return nil, fmt.Errorf("astilibav: converting samples failed: %w", err)
		}
		f = e.rf
	}

	// Send frame
	f.SetPts(pts)
	if err := e.cc.SendFrame(f); err != nil {
		return nil, fmt.Errorf("astilibav: sending frame failed: %w", err)
	}
	return receivePackets(e.cc, e.pkt)
}
