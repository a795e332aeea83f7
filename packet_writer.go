package astirecorder

import (
	"fmt"
	"sync"
)

// packetWriter serializes packet writes coming from the video and audio units.
// The lock is only held around a single write.
type packetWriter struct {
	closed bool
	m      *sync.Mutex
	mx     Muxer
	s      *stats
}

func newPacketWriter(mx Muxer, s *stats) *packetWriter {
	return &packetWriter{
		m:  &sync.Mutex{},
		mx: mx,
		s:  s,
	}
}

func (w *packetWriter) write(stream string, idx int, p Packet) (err error) {
	// Lock
	w.m.Lock()
	defer w.m.Unlock()

	// Closed
	if w.closed {
		return ErrSessionClosed
	}

	// Write
	if err = w.mx.WritePacket(idx, p); err != nil {
		return fmt.Errorf("astirecorder: writing packet to stream %d failed: %w", idx, err)
	}

	// Update stats
	w.s.packetWritten(stream, len(p.Data))
	return
}

// close prevents any further write and waits for the write in progress
func (w *packetWriter) close() {
	w.m.Lock()
	defer w.m.Unlock()
	w.closed = true
}
