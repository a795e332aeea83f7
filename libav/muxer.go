package astilibav

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/asticode/go-astirecorder"
)

type muxer struct {
	c   *astikit.Closer
	fc  *astiav.FormatContext
	o   astirecorder.MuxerOptions
	pkt *astiav.Packet
	ss  []*astiav.Stream
}

func newMuxer(o astirecorder.MuxerOptions) (m *muxer, err error) {
	// Only urls are supported
	if o.Writer != nil {
		err = fmt.Errorf("astilibav: writers are not supported: %w", astirecorder.ErrInvalidSessionParameter)
		return
	}

	// Create muxer
	m = &muxer{
		c: astikit.NewCloser(),
		o: o,
	}

	// Make sure the muxer is closed on error
	defer func() {
		if err != nil {
			m.c.Close()
		}
	}()

	// Alloc format context
	if m.fc, err = astiav.AllocOutputFormatContext(nil, o.Container.Name, o.URL); err != nil {
		err = fmt.Errorf("astilibav: allocating output format context for %s failed: %w", o.URL, err)
		return
	}
	m.c.Add(m.fc.Free)

	// This is a file
	if !m.fc.OutputFormat().Flags().Has(astiav.IOFormatFlagNofile) {
		// Open
		var pb *astiav.IOContext
		if pb, err = astiav.OpenIOContext(o.URL, astiav.NewIOContextFlags(astiav.IOContextFlagWrite), nil, nil); err != nil {
			err = fmt.Errorf("astilibav: opening io context for %s failed: %w", o.URL, err)
			return
		}

		// Set pb
		m.fc.SetPb(pb)

		// Make sure the io context is properly closed
		m.c.AddWithError(func() error {
			if err := pb.Close(); err != nil {
				return fmt.Errorf("astilibav: closing io context for %s failed: %w", o.URL, err)
			}
			return nil
		})
	}

	// Alloc packet
	m.pkt = astiav.AllocPacket()
	m.c.Add(m.pkt.Free)
	return
}

// AddStream implements the astirecorder.Muxer interface
func (m *muxer) AddStream(e astirecorder.Encoder) (idx int, err error) {
	// Get codec context
	cc, ok := e.(codecContexter)
	if !ok {
		err = fmt.Errorf("astilibav: encoder %T is not a libav encoder", e)
		return
	}

	// Create stream
	s := m.fc.NewStream(nil)
	if s == nil {
		err = fmt.Errorf("astilibav: creating stream in %s failed", m.o.URL)
		return
	}

	// Copy codec parameters
	if err = cc.codecContext().ToCodecParameters(s.CodecParameters()); err != nil {
		err = fmt.Errorf("astilibav: copying codec parameters failed: %w", err)
		return
	}
	s.SetTimeBase(cc.codecContext().TimeBase())

	// Store stream
	idx = s.Index()
	m.ss = append(m.ss, s)
	return
}

// Close implements the astirecorder.Muxer interface
func (m *muxer) Close() error { return m.c.Close() }

// GlobalHeader implements the astirecorder.Muxer interface
func (m *muxer) GlobalHeader() bool {
	return m.fc.OutputFormat().Flags().Has(astiav.IOFormatFlagGlobalheader)
}

// StreamTimeBase implements the astirecorder.Muxer interface
func (m *muxer) StreamTimeBase(idx int) astirecorder.Rational {
	return rationalFromAstiav(m.ss[idx].TimeBase())
}

// WriteHeader implements the astirecorder.Muxer interface
func (m *muxer) WriteHeader() (err error) {
	// Single image containers overwrite the same file
	d := NewDefaultDictionary("")
	if m.o.Container.SingleImage {
		d.Set("update", "1")
	}
	var dd *astiav.Dictionary
	if dd, err = d.parse(); err != nil {
		return
	}
	defer dd.Free()

	// Write header
	if err = m.fc.WriteHeader(dd); err != nil {
		err = fmt.Errorf("astilibav: writing header to %s failed: %w", m.o.URL, err)
		return
	}
	return
}

// WritePacket implements the astirecorder.Muxer interface
func (m *muxer) WritePacket(idx int, p astirecorder.Packet) (err error) {
	// Fill packet
	if err = packetToAstiav(p, idx, m.pkt); err != nil {
		return
	}

	// Write
	if err = m.fc.WriteInterleavedFrame(m.pkt); err != nil {
		err = fmt.Errorf("astilibav: writing packet to %s failed: %w", m.o.URL, err)
		return
	}
	return
}

// WriteTrailer implements the astirecorder.Muxer interface
func (m *muxer) WriteTrailer() (err error) {
	if err = m.fc.WriteTrailer(); err != nil {
		err = fmt.Errorf("astilibav: writing trailer to %s failed: %w", m.o.URL, err)
		return
	}
	return
}
