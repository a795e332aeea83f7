package astirecorder

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Defaults
const (
	DefaultAudioJoinTimeout = 5 * time.Second
	DefaultChannels         = 2
	DefaultQuality          = 75
	DefaultRescale          = 100
	DefaultSampleRate       = 44100
)

// DefaultFrameRate is used when no frame rate is provided
var DefaultFrameRate = NewRational(25, 1)

// SessionParameters represents what a recording session should produce
type SessionParameters struct {
	AudioBitRate int
	// AudioCodecAuto picks the container default
	AudioCodec AudioCodecID
	// Maximum duration Close waits for the audio unit to stop
	AudioJoinTimeout time.Duration
	AudioSource      AudioSource
	AudioWanted      bool
	Channels         int
	// ContainerAuto detects the container from URL extension
	Container ContainerID
	FrameRate Rational
	// Called every time the audio unit checks whether it may send audio
	OnGate GateFunc
	// 1 to 100
	Quality int
	// Percentage applied to captured dimensions, 1 to 100
	Rescale     int
	SampleRate  int
	StartNumber int
	// Single image containers use it as a pattern, see ImageSequenceURL
	URL string
	// VideoCodecAuto picks the container default
	VideoCodec VideoCodecID
	// Pipe like sink, takes precedence over URL when set
	Writer io.Writer
}

func (p *SessionParameters) validate() error {
	// Defaults
	if p.FrameRate == (Rational{}) {
		p.FrameRate = DefaultFrameRate
	}
	if p.Quality == 0 {
		p.Quality = DefaultQuality
	}
	if p.Rescale == 0 {
		p.Rescale = DefaultRescale
	}
	if p.SampleRate == 0 {
		p.SampleRate = DefaultSampleRate
	}
	if p.Channels == 0 {
		p.Channels = DefaultChannels
	}
	if p.AudioJoinTimeout == 0 {
		p.AudioJoinTimeout = DefaultAudioJoinTimeout
	}

	// Check
	switch {
	case !p.FrameRate.Valid():
		return fmt.Errorf("astirecorder: frame rate %s is invalid: %w", p.FrameRate, ErrInvalidSessionParameter)
	case p.Quality < 1 || p.Quality > 100:
		return fmt.Errorf("astirecorder: quality %d is not in [1, 100]: %w", p.Quality, ErrInvalidSessionParameter)
	case p.Rescale < 1 || p.Rescale > 100:
		return fmt.Errorf("astirecorder: rescale %d is not in [1, 100]: %w", p.Rescale, ErrInvalidSessionParameter)
	case p.URL == "" && p.Writer == nil:
		return fmt.Errorf("astirecorder: no url nor writer: %w", ErrInvalidSessionParameter)
	case p.AudioWanted && p.AudioSource == nil:
		return fmt.Errorf("astirecorder: audio is wanted but there's no audio source: %w", ErrInvalidSessionParameter)
	case p.SampleRate < 0 || p.Channels < 0:
		return fmt.Errorf("astirecorder: invalid audio format %dHz %dch: %w", p.SampleRate, p.Channels, ErrInvalidSessionParameter)
	}
	return nil
}

// SessionOptions represents session options
type SessionOptions struct {
	Backend      Backend
	EventHandler *EventHandler
	Parameters   SessionParameters
}

// Session sequences one recording: Open, then Feed for each captured image,
// then Close. Feed and Close are serialized.
type Session struct {
	ctx   context.Context
	fm    *FrameMuxer
	id    string
	m     *sync.Mutex
	stats *stats
}

// OpenSession validates parameters and creates a session. Encoders and muxers are
// only created when the first image is fed.
func OpenSession(ctx context.Context, o SessionOptions) (s *Session, err error) {
	// Check backend
	if o.Backend == nil {
		err = fmt.Errorf("astirecorder: no backend: %w", ErrInvalidSessionParameter)
		return
	}

	// Validate parameters
	p := o.Parameters
	if err = p.validate(); err != nil {
		return
	}

	// Create session
	s = &Session{
		ctx:   ctx,
		id:    uuid.NewString(),
		m:     &sync.Mutex{},
		stats: &stats{},
	}
	s.fm = newFrameMuxer(p, o.Backend, o.EventHandler, s.stats)
	return
}

// ID returns the session unique id
func (s *Session) ID() string { return s.id }

// Feed encodes and writes one captured image. The session is closed when an
// error is returned.
func (s *Session) Feed(i RawImage) error {
	s.m.Lock()
	defer s.m.Unlock()
	return s.fm.Feed(s.ctx, i)
}

// Pause pauses the audio unit
func (s *Session) Pause() {
	if s.fm.pauseAudio() {
		s.fm.eh.Emit(Event{Name: EventNameAudioPaused, Target: s})
	}
}

// Resume resumes the audio unit
func (s *Session) Resume() {
	if s.fm.resumeAudio() {
		s.fm.eh.Emit(Event{Name: EventNameAudioResumed, Target: s})
	}
}

// Paused returns whether the audio unit is paused
func (s *Session) Paused() bool {
	return s.fm.pauser.isPaused()
}

// Close stops the audio unit, flushes encoders and closes the muxer. It is
// idempotent and safe to call on a session that was never fed.
func (s *Session) Close() error {
	s.m.Lock()
	defer s.m.Unlock()
	return s.fm.Close()
}

// State returns the frame muxer state
func (s *Session) State() FrameMuxerState {
	s.m.Lock()
	defer s.m.Unlock()
	return s.fm.State()
}

// Info returns what has been negotiated. It is empty until the first image is fed.
func (s *Session) Info() SessionInfo {
	s.m.Lock()
	defer s.m.Unlock()
	return s.fm.info
}

// Stats returns a snapshot of the session statistics
func (s *Session) Stats() Stats {
	st := s.stats.snapshot()
	s.m.Lock()
	defer s.m.Unlock()
	if s.fm.videoClock != nil {
		st.VideoPts = s.fm.videoClock.Seconds()
	}
	if s.fm.audio != nil {
		st.AudioPts = s.fm.audio.clock.Seconds()
	}
	return st
}

func (s *Session) String() string { return "session " + s.id }
