package astinative

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/asticode/go-astikit"
	"github.com/asticode/go-astirecorder"
	"github.com/at-wat/ebml-go/mkvcore"
	"github.com/at-wat/ebml-go/webm"
)

// Matroska timestamps are expressed in milliseconds
var matroskaTimeBase = astirecorder.NewRational(1, 1000)

const matroskaCloseTimeout = 5 * time.Second

// openOutput returns the writer packets are written to. Closing it closes the
// file but never the caller's writer.
func openOutput(o astirecorder.MuxerOptions) (io.WriteCloser, error) {
	if o.Writer != nil {
		return nopWriteCloser{Writer: o.Writer}, nil
	}
	f, err := os.Create(o.URL)
	if err != nil {
		return nil, fmt.Errorf("astinative: creating %s failed: %w", o.URL, err)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// imageMuxer writes a single image as is
type imageMuxer struct {
	c  *astikit.Closer
	tb astirecorder.Rational
	w  io.WriteCloser
}

func newImageMuxer(o astirecorder.MuxerOptions) (m *imageMuxer, err error) {
	m = &imageMuxer{c: astikit.NewCloser()}
	if m.w, err = openOutput(o); err != nil {
		return
	}
	m.c.AddWithError(m.w.Close)
	return
}

func (m *imageMuxer) AddStream(e astirecorder.Encoder) (int, error) {
	if m.tb.Valid() {
		return 0, errors.New("astinative: image muxer only supports one stream")
	}
	m.tb = e.TimeBase()
	return 0, nil
}

func (m *imageMuxer) Close() error { return m.c.Close() }

func (m *imageMuxer) GlobalHeader() bool { return false }

func (m *imageMuxer) StreamTimeBase(idx int) astirecorder.Rational { return m.tb }

func (m *imageMuxer) WriteHeader() error { return nil }

func (m *imageMuxer) WritePacket(idx int, p astirecorder.Packet) (err error) {
	if _, err = m.w.Write(p.Data); err != nil {
		err = fmt.Errorf("astinative: writing image failed: %w", err)
		return
	}
	return
}

func (m *imageMuxer) WriteTrailer() error { return nil }

type matroskaMuxer struct {
	bws    []webm.BlockWriteCloser
	c      *astikit.Closer
	fatal  error
	m      *sync.Mutex // Locks fatal
	o      astirecorder.MuxerOptions
	tracks []webm.TrackEntry
	w      *matroskaOutput
}

// matroskaOutput signals when the block writers are done with the output
type matroskaOutput struct {
	io.WriteCloser
	closed chan struct{}
	err    error
	o      sync.Once
}

func (o *matroskaOutput) Close() error {
	o.o.Do(func() {
		o.err = o.WriteCloser.Close()
		close(o.closed)
	})
	return o.err
}

func newMatroskaMuxer(o astirecorder.MuxerOptions) (m *matroskaMuxer, err error) {
	// Check container
	if o.Container.ID != astirecorder.ContainerMatroska {
		err = fmt.Errorf("astinative: container %s is not supported: %w", o.Container.LongName, astirecorder.ErrUnsupportedCombination)
		return
	}

	// Create muxer
	m = &matroskaMuxer{
		c: astikit.NewCloser(),
		m: &sync.Mutex{},
		o: o,
	}

	// Open output
	var w io.WriteCloser
	if w, err = openOutput(o); err != nil {
		return
	}
	m.w = &matroskaOutput{
		WriteCloser: w,
		closed:      make(chan struct{}),
	}
	m.c.AddWithError(m.w.Close)

	// Make sure block writers are closed
	m.c.Add(func() {
		for _, bw := range m.bws {
			bw.Close()
		}
		m.bws = nil
	})
	return
}

func (m *matroskaMuxer) AddStream(e astirecorder.Encoder) (idx int, err error) {
	// Header has already been written
	if m.bws != nil {
		err = errors.New("astinative: header has already been written")
		return
	}

	// Get track entry
	t, ok := trackEntryOf(e)
	if !ok {
		err = fmt.Errorf("astinative: encoder %T can't be muxed into %s: %w", e, m.o.Container.LongName, astirecorder.ErrUnsupportedCombination)
		return
	}

	// Append track
	idx = len(m.tracks)
	t.TrackNumber = uint64(idx + 1)
	t.TrackUID = uint64(idx + 1)
	m.tracks = append(m.tracks, t)
	return
}

func trackEntryOf(e astirecorder.Encoder) (webm.TrackEntry, bool) {
	if v, ok := e.(tracker); ok {
		return v.trackEntry()
	}
	return webm.TrackEntry{}, false
}

func (m *matroskaMuxer) Close() error { return m.c.Close() }

func (m *matroskaMuxer) GlobalHeader() bool { return false }

func (m *matroskaMuxer) StreamTimeBase(idx int) astirecorder.Rational { return matroskaTimeBase }

func (m *matroskaMuxer) WriteHeader() (err error) {
	// No tracks
	if len(m.tracks) == 0 {
		err = errors.New("astinative: no tracks")
		return
	}

	// Create block writers
	if m.bws, err = webm.NewSimpleBlockWriter(m.w, m.tracks,
		mkvcore.WithEBMLHeader(&webm.EBMLHeader{
			EBMLVersion:        1,
			EBMLReadVersion:    1,
			EBMLMaxIDLength:    4,
			EBMLMaxSizeLength:  8,
			DocType:            "matroska",
			DocTypeVersion:     4,
			DocTypeReadVersion: 2,
		}),
		mkvcore.WithOnFatalHandler(m.setFatal),
	); err != nil {
		err = fmt.Errorf("astinative: creating block writers failed: %w", err)
		return
	}
	return
}

func (m *matroskaMuxer) setFatal(err error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.fatal == nil {
		m.fatal = err
	}
}

func (m *matroskaMuxer) fatalErr() error {
	m.m.Lock()
	defer m.m.Unlock()
	return m.fatal
}

func (m *matroskaMuxer) WritePacket(idx int, p astirecorder.Packet) (err error) {
	// Check fatal
	if err = m.fatalErr(); err != nil {
		err = fmt.Errorf("astinative: matroska writer failed: %w", err)
		return
	}

	// Check index
	if idx < 0 || idx >= len(m.bws) {
		err = fmt.Errorf("astinative: invalid stream index %d", idx)
		return
	}

	// Write
	if _, err = m.bws[idx].Write(p.Key, p.Pts, p.Data); err != nil {
		err = fmt.Errorf("astinative: writing block failed: %w", err)
		return
	}
	return
}

func (m *matroskaMuxer) WriteTrailer() (err error) {
	// Header has not been written
	if m.bws == nil {
		return
	}

	// Close block writers, the output is closed once the last one is
	for _, bw := range m.bws {
		if errC := bw.Close(); errC != nil && err == nil {
			err = fmt.Errorf("astinative: closing block writer failed: %w", errC)
		}
	}
	m.bws = nil
	if err != nil {
		return
	}

	// Wait for the output to be closed
	select {
	case <-m.w.closed:
	case <-time.After(matroskaCloseTimeout):
		err = errors.New("astinative: timeout while waiting for output to be closed")
		return
	}
	if err = m.w.err; err != nil {
		err = fmt.Errorf("astinative: closing output failed: %w", err)
		return
	}

	// Check fatal
	if err = m.fatalErr(); err != nil {
		err = fmt.Errorf("astinative: matroska writer failed: %w", err)
		return
	}
	return
}
