package astirecorder

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/asticode/go-astikit"
)

// Number of samples per channel drained at once when the encoder accepts any size
const defaultAudioFrameSize = 1024

type audioUnitOptions struct {
	Backend      Backend
	Channels     int
	Encoder      AudioEncoder
	EventHandler *EventHandler
	// Called once with the first session fatal error
	OnFatal        func(err error)
	OnGate         GateFunc
	Pauser         *pauser
	SampleRate     int
	Source         AudioSource
	Stats          *stats
	StreamIndex    int
	StreamTimeBase Rational
	VideoClock     *Clock
	Writer         *packetWriter
}

// audioUnit reads, decodes, resamples, frame aligns and encodes audio in its own
// goroutine. It owns its decoder, resampler, ring buffer and encoder.
type audioUnit struct {
	failed    uint32
	clock     *Clock
	dec       AudioDecoder
	decKey    AudioDecoderOptions
	eof       bool
	frameSize int
	o         audioUnitOptions
	rb        *ringBuffer
	rs        Resampler
	rsKey     ResamplerOptions
	samples   int64
	w         *Worker
}

func newAudioUnit(o audioUnitOptions) *audioUnit {
	u := &audioUnit{
		clock:     newClock(o.Encoder.TimeBase()),
		frameSize: o.Encoder.FrameSize(),
		o:         o,
		w:         NewWorker(),
	}
	if u.frameSize <= 0 {
		u.frameSize = defaultAudioFrameSize
	}
	u.rb = newRingBuffer(4 * u.frameSize * o.Channels)
	return u
}

func (u *audioUnit) String() string { return "audio unit" }

func (u *audioUnit) start(ctx context.Context) {
	// run releases resources itself, unless it never runs
	if !u.w.Start(ctx, func() {
		u.o.EventHandler.Emit(Event{Name: EventNameAudioStarted, Target: u})
	}, u.run) {
		u.release()
	}
}

// stop signals the unit, force wakes it if paused and waits for it to release
// its resources
func (u *audioUnit) stop(timeout time.Duration) error {
	u.w.Stop()
	u.o.Pauser.stop()
	if !u.w.Wait(timeout) {
		return newSessionError(ErrAudioJoinTimeout, StreamAudio, StageClose, fmt.Errorf("astirecorder: waited %s", timeout))
	}
	return nil
}

func (u *audioUnit) run(ctx context.Context) {
	// Make sure resources are released by the unit itself
	defer u.release()

	// Loop
	period := time.Second / time.Duration(u.o.SampleRate)
	for {
		// Block while paused
		if !u.o.Pauser.wait() || ctx.Err() != nil {
			break
		}

		// Iterate
		n := time.Now()
		if err := u.iterate(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			u.fatal(err)
			return
		}

		// Pace
		if d := period - time.Since(n); d > 0 {
			if err := astikit.Sleep(ctx, d); err != nil {
				break
			}
		}
	}

	// Flush
	if err := u.flush(); err != nil {
		u.fatal(err)
	}
}

func (u *audioUnit) iterate(ctx context.Context) (err error) {
	// Check gate with fresh cursors
	a, v := u.clock.Seconds(), u.o.VideoClock.Seconds()
	open := MaySendAudio(a, v)
	if u.o.OnGate != nil {
		u.o.OnGate(a, v, open)
	}

	// Gate is closed
	if !open {
		// Live sources keep producing audio that must not pile up
		if u.o.Source.Live() && !u.eof {
			if _, err = u.read(ctx); err != nil {
				return
			}
			atomic.AddUint64(&u.o.Stats.audioChunksDropped, 1)
		}
		return
	}

	// Read
	var c AudioChunk
	if c, err = u.read(ctx); err != nil || c.Data == nil {
		return
	}

	// Decode
	var s []int16
	if c.Compressed() {
		if s, err = u.decode(c); err != nil {
			return
		}
	} else {
		s = bytesToSamples(c.Data)
	}

	// Resample
	if s, err = u.resample(c, s); err != nil {
		return
	}

	// Buffer
	u.rb.Write(s)

	// Drain encoder sized frames
	for {
		fs, ok := u.rb.Read(u.frameSize * u.o.Channels)
		if !ok {
			break
		}
		if err = u.encode(fs); err != nil {
			return
		}
	}
	return
}

func (u *audioUnit) read(ctx context.Context) (c AudioChunk, err error) {
	// Source is exhausted
	if u.eof {
		return
	}

	// Read
	if c, err = u.o.Source.ReadChunk(ctx); err != nil {
		if errors.Is(err, io.EOF) {
			u.eof = true
			err = nil
			return
		}
		if ctx.Err() == nil {
			err = newSessionError(nil, StreamAudio, StageRead, fmt.Errorf("astirecorder: reading audio chunk failed: %w", err))
		}
		return
	}
	atomic.AddUint64(&u.o.Stats.audioChunksRead, 1)
	return
}

func (u *audioUnit) decode(c AudioChunk) (s []int16, err error) {
	// Create decoder
	k := AudioDecoderOptions{Channels: c.Channels, SampleRate: c.SampleRate}
	k.Codec, _ = AudioCodec(c.Codec)
	if u.dec == nil || u.decKey != k {
		if u.dec != nil {
			u.dec.Close()
		}
		if u.dec, err = u.o.Backend.NewAudioDecoder(k); err != nil {
			err = newSessionError(ErrResourceAllocation, StreamAudio, StageDecode, err)
			return
		}
		u.decKey = k
	}

	// Decode
	if s, err = u.dec.Decode(c.Data); err != nil {
		err = newSessionError(nil, StreamAudio, StageDecode, fmt.Errorf("astirecorder: decoding failed: %w", err))
		return
	}
	return
}

func (u *audioUnit) resample(c AudioChunk, in []int16) (out []int16, err error) {
	// Nothing to do
	if c.SampleRate == u.o.SampleRate && c.Channels == u.o.Channels {
		return in, nil
	}

	// Create resampler
	k := ResamplerOptions{
		DstChannels:   u.o.Channels,
		DstSampleRate: u.o.SampleRate,
		SrcChannels:   c.Channels,
		SrcSampleRate: c.SampleRate,
	}
	if u.rs == nil || u.rsKey != k {
		if u.rs != nil {
			// Keep what the previous resampler buffered
			if tail, errR := u.rs.Resample(nil); errR == nil {
				u.rb.Write(tail)
			}
			u.rs.Close()
		}
		if u.rs, err = u.o.Backend.NewResampler(k); err != nil {
			err = newSessionError(ErrResourceAllocation, StreamAudio, StageResample, err)
			return
		}
		u.rsKey = k
	}

	// Resample
	if out, err = u.rs.Resample(in); err != nil {
		err = newSessionError(nil, StreamAudio, StageResample, fmt.Errorf("astirecorder: resampling failed: %w", err))
		return
	}
	return
}

// A nil slice flushes the encoder
func (u *audioUnit) encode(s []int16) (err error) {
	// Get pts
	pts := RescaleQ(u.samples, NewRational(1, u.o.SampleRate), u.o.Encoder.TimeBase())

	// Encode
	var ps []Packet
	if ps, err = u.o.Encoder.Encode(s, pts); err != nil {
		return newSessionError(ErrEncode, StreamAudio, StageEncode, err)
	}

	// Update clock
	if s != nil {
		u.samples += int64(len(s) / u.o.Channels)
		u.clock.set(RescaleQ(u.samples, NewRational(1, u.o.SampleRate), u.o.Encoder.TimeBase()))
	}

	// Write
	for _, p := range ps {
		if err = u.o.Writer.write(StreamAudio, u.o.StreamIndex, rescalePacket(p, u.o.Encoder.TimeBase(), u.o.StreamTimeBase)); err != nil {
			return newSessionError(ErrWrite, StreamAudio, StageWrite, err)
		}
	}
	return
}

func (u *audioUnit) flush() (err error) {
	// Flush resampler
	if u.rs != nil {
		var tail []int16
		if tail, err = u.rs.Resample(nil); err != nil {
			return newSessionError(nil, StreamAudio, StageFlush, fmt.Errorf("astirecorder: flushing resampler failed: %w", err))
		}
		u.rb.Write(tail)
	}

	// Drain full frames
	for {
		fs, ok := u.rb.Read(u.frameSize * u.o.Channels)
		if !ok {
			break
		}
		if err = u.encode(fs); err != nil {
			return
		}
	}

	// Short last frame
	if r := u.rb.ReadAll(); len(r) > 0 {
		if err = u.encode(r); err != nil {
			return
		}
	}

	// Drain encoder
	for {
		var ps []Packet
		if ps, err = u.o.Encoder.Encode(nil, 0); err != nil {
			return newSessionError(ErrEncode, StreamAudio, StageFlush, err)
		}
		if len(ps) == 0 {
			break
		}
		for _, p := range ps {
			if err = u.o.Writer.write(StreamAudio, u.o.StreamIndex, rescalePacket(p, u.o.Encoder.TimeBase(), u.o.StreamTimeBase)); err != nil {
				return newSessionError(ErrWrite, StreamAudio, StageWrite, err)
			}
		}
	}
	return
}

func (u *audioUnit) fatal(err error) {
	// Only the first error is reported
	if !atomic.CompareAndSwapUint32(&u.failed, 0, 1) {
		return
	}
	u.o.EventHandler.Emit(EventError(u, err))
	if u.o.OnFatal != nil {
		u.o.OnFatal(err)
	}
}

func (u *audioUnit) release() {
	if u.dec != nil {
		u.dec.Close()
		u.dec = nil
	}
	if u.rs != nil {
		u.rs.Close()
		u.rs = nil
	}
	u.rb.Reset()
	if err := u.o.Encoder.Close(); err != nil {
		u.fatal(newSessionError(nil, StreamAudio, StageClose, fmt.Errorf("astirecorder: closing encoder failed: %w", err)))
	}
	u.o.EventHandler.Emit(Event{Name: EventNameAudioStopped, Target: u})
}

func bytesToSamples(b []byte) []int16 {
	s := make([]int16, len(b)/2)
	for i := range s {
		s[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return s
}

func rescalePacket(p Packet, src, dst Rational) Packet {
	p.Pts = RescaleQ(p.Pts, src, dst)
	p.Dts = RescaleQ(p.Dts, src, dst)
	p.Duration = RescaleQ(p.Duration, src, dst)
	return p
}
