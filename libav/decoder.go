package astilibav

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/asticode/go-astirecorder"
)

type audioDecoder struct {
	c   *astikit.Closer
	cc  *astiav.CodecContext
	f   *astiav.Frame
	pkt *astiav.Packet
	rf  *astiav.Frame
	swr *astiav.SoftwareResampleContext
}

func newAudioDecoder(o astirecorder.AudioDecoderOptions) (d *audioDecoder, err error) {
	// Create decoder
	d = &audioDecoder{c: astikit.NewCloser()}

	// Make sure the decoder is closed on error
	defer func() {
		if err != nil {
			d.c.Close()
		}
	}()

	// Find decoder
	c := astiav.FindDecoderByName(o.Codec.DecoderName)
	if c == nil {
		err = fmt.Errorf("astilibav: no decoder named %s: %w", o.Codec.DecoderName, astirecorder.ErrUnsupportedCombination)
		return
	}

	// Alloc codec context
	if d.cc = astiav.AllocCodecContext(c); d.cc == nil {
		err = errors.New("astilibav: allocating codec context failed")
		return
	}
	d.c.Add(d.cc.Free)

	// Set codec context
	var cl astiav.ChannelLayout
	if cl, err = channelLayout(o.Channels); err != nil {
		return
	}
	d.cc.SetChannelLayout(cl)
	d.cc.SetSampleRate(o.SampleRate)

	// Open codec context
	if err = d.cc.Open(c, nil); err != nil {
		err = fmt.Errorf("astilibav: opening %s codec context failed: %w", o.Codec.DecoderName, err)
		return
	}

	// Alloc
	d.f = astiav.AllocFrame()
	d.c.Add(d.f.Free)
	d.pkt = astiav.AllocPacket()
	d.c.Add(d.pkt.Free)
	d.rf = astiav.AllocFrame()
	d.c.Add(d.rf.Free)
	return
}

// Close implements the astirecorder.AudioDecoder interface
func (d *audioDecoder) Close() error { return d.c.Close() }

// Decode implements the astirecorder.AudioDecoder interface
func (d *audioDecoder) Decode(data []byte) (s []int16, err error) {
	// Send packet
	d.pkt.Unref()
	if err = d.pkt.FromData(data); err != nil {
		err = fmt.Errorf("astilibav: setting packet data failed: %w", err)
		return
	}
	if err = d.cc.SendPacket(d.pkt); err != nil {
		err = fmt.Errorf("astilibav: sending packet failed: %w", err)
		return
	}

	// Loop through frames
	for {
		// Receive frame
		if err = d.cc.ReceiveFrame(d.f); err != nil {
			if isEagainOrEOF(err) {
				err = nil
			} else {
				err = fmt.Errorf("astilibav: receiving frame failed: %w", err)
			}
			return
		}

		// Convert
		f := d.f
		if f.SampleFormat() != astiav.SampleFormatS16 {
			if f, err = d.convert(f); err != nil {
				return
			}
		}

		// Append
		var fs []int16
		if fs, err = frameToSamples(f); err != nil {
			return
		}
		s = append(s, fs...)
		d.f.Unref()
	}
}

func (d *audioDecoder) convert(src *astiav.Frame) (*astiav.Frame, error) {
	// Create software resample context
	if d.swr == nil {
		if d.swr = astiav.AllocSoftwareResampleContext(); d.swr == nil {
			return nil, errors.New("astilibav: allocating software resample context failed")
		}
		d.c.Add(d.swr.Free)
	}

	// Convert
	d.rf.Unref()
	d.rf.SetChannelLayout(src.ChannelLayout())
	d.rf.SetSampleFormat(astiav.SampleFormatS16)
	d.rf.SetSampleRate(src.SampleRate())
	if err := d.swr.ConvertFrame(src, d.rf); err != nil {
		return nil, fmt.Errorf("astilibav: converting samples failed: %w", err)
	}
	return d.rf, nil
}
