package astirecorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// AudioSource produces audio chunks. ReadChunk returns io.EOF once a finite
// source is exhausted.
type AudioSource interface {
	// Live sources keep producing audio whether it is read or not
	Live() bool
	ReadChunk(ctx context.Context) (AudioChunk, error)
}

// ReaderSourceOptions represents reader source options
type ReaderSourceOptions struct {
	Channels int
	// Bytes read per chunk, defaults to 1024 samples per channel
	ChunkSize int
	// Zero value means interleaved signed 16 bits little endian PCM
	Codec      AudioCodecID
	Reader     io.Reader
	SampleRate int
}

// ReaderSource reads audio from a finite reader such as a file or a pipe
type ReaderSource struct {
	buf []byte
	eof bool
	o   ReaderSourceOptions
}

// NewReaderSource creates a new reader source
func NewReaderSource(o ReaderSourceOptions) *ReaderSource {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 1024 * o.Channels
		if rawPCM(o.Codec) {
			o.ChunkSize *= 2
		}
	}
	return &ReaderSource{
		buf: make([]byte, o.ChunkSize),
		o:   o,
	}
}

// Live implements the AudioSource interface
func (s *ReaderSource) Live() bool { return false }

// ReadChunk implements the AudioSource interface
func (s *ReaderSource) ReadChunk(ctx context.Context) (c AudioChunk, err error) {
	// Check context
	if err = ctx.Err(); err != nil {
		return
	}

	// EOF
	if s.eof {
		err = io.EOF
		return
	}

	// Read
	n, errR := io.ReadFull(s.o.Reader, s.buf)
	if errR != nil {
		if errors.Is(errR, io.EOF) || errors.Is(errR, io.ErrUnexpectedEOF) {
			s.eof = true
			if n == 0 {
				err = io.EOF
				return
			}
		} else {
			err = fmt.Errorf("astirecorder: reading failed: %w", errR)
			return
		}
	}

	// Samples must not be split
	if rawPCM(s.o.Codec) {
		n -= n % (2 * s.o.Channels)
	}

	c = AudioChunk{
		Channels:   s.o.Channels,
		Codec:      s.o.Codec,
		Data:       append([]byte(nil), s.buf[:n]...),
		SampleRate: s.o.SampleRate,
	}
	return
}

// SilenceSource is a live source producing silence in real time
type SilenceSource struct {
	channels      int
	chunkDuration time.Duration
	sampleRate    int
}

// NewSilenceSource creates a new silence source
func NewSilenceSource(sampleRate, channels int, chunkDuration time.Duration) *SilenceSource {
	if chunkDuration <= 0 {
		chunkDuration = 20 * time.Millisecond
	}
	return &SilenceSource{
		channels:      channels,
		chunkDuration: chunkDuration,
		sampleRate:    sampleRate,
	}
}

// Live implements the AudioSource interface
func (s *SilenceSource) Live() bool { return true }

// ReadChunk blocks for the duration of the chunk it returns
func (s *SilenceSource) ReadChunk(ctx context.Context) (c AudioChunk, err error) {
	// Get number of samples
	n := int(int64(s.sampleRate) * int64(s.chunkDuration) / int64(time.Second))
	if n <= 0 {
		n = 1
	}

	// Wait
	t := time.NewTimer(s.chunkDuration)
	defer t.Stop()
	select {
	case <-ctx.Done():
		err = ctx.Err()
		return
	case <-t.C:
	}

	c = AudioChunk{
		Channels:   s.channels,
		Data:       make([]byte, 2*n*s.channels),
		SampleRate: s.sampleRate,
	}
	return
}
