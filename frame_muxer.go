package astirecorder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/asticode/go-astikit"
)

// FrameMuxerState is the state of a frame muxer
type FrameMuxerState int

// Frame muxer states
const (
	FrameMuxerStateUninitialized FrameMuxerState = iota
	FrameMuxerStateSessionOpen
	FrameMuxerStateEncoding
	FrameMuxerStateFlushing
	FrameMuxerStateClosed
)

func (s FrameMuxerState) String() string {
	switch s {
	case FrameMuxerStateUninitialized:
		return "uninitialized"
	case FrameMuxerStateSessionOpen:
		return "session open"
	case FrameMuxerStateEncoding:
		return "encoding"
	case FrameMuxerStateFlushing:
		return "flushing"
	case FrameMuxerStateClosed:
		return "closed"
	}
	return "unknown"
}

// SessionInfo describes what has been negotiated for a session
type SessionInfo struct {
	AudioCodec AudioCodecID `json:"audio_codec"`
	Channels   int          `json:"channels,omitempty"`
	Container  string       `json:"container"`
	FrameRate  string       `json:"frame_rate"`
	Height     int          `json:"height"`
	SampleRate int          `json:"sample_rate,omitempty"`
	VideoCodec string       `json:"video_codec"`
	Width      int          `json:"width"`
}

func (i SessionInfo) String() string {
	s := fmt.Sprintf("%s, video %s %dx%d @ %s fps", i.Container, i.VideoCodec, i.Width, i.Height, i.FrameRate)
	if i.AudioCodec != AudioCodecNone {
		s += fmt.Sprintf(", audio %s %dHz %dch", i.AudioCodec, i.SampleRate, i.Channels)
	}
	return s
}

// FrameMuxer owns a session encoders and muxer. It converts, rescales, encodes
// and writes one video frame per Feed call.
type FrameMuxer struct {
	audio       *audioUnit
	b           Backend
	c           *astikit.Closer
	cv          *Converter
	eh          *EventHandler
	fatalErr    error
	fatalSent   bool
	headerDone  bool
	image       int
	info        SessionInfo
	m           *sync.Mutex // Locks fatalErr and fatalSent
	mx          Muxer
	nextPts     int64
	p           SessionParameters
	pauser      *pauser
	pw          *packetWriter
	sc          Scaler
	scKey       ScalerOptions
	state       FrameMuxerState
	stats       *stats
	t           Target
	ve          VideoEncoder
	videoClock  *Clock
	videoStream int
	videoTB     Rational
}

func newFrameMuxer(p SessionParameters, b Backend, eh *EventHandler, s *stats) *FrameMuxer {
	return &FrameMuxer{
		b:      b,
		c:      astikit.NewCloser(),
		cv:     NewConverter(),
		eh:     eh,
		m:      &sync.Mutex{},
		p:      p,
		pauser: newPauser(),
		state:  FrameMuxerStateUninitialized,
		stats:  s,
	}
}

func (fm *FrameMuxer) String() string { return "frame muxer" }

// State returns the current state
func (fm *FrameMuxer) State() FrameMuxerState { return fm.state }

func (fm *FrameMuxer) setState(s FrameMuxerState) {
	if fm.state == s {
		return
	}
	fm.state = s
	fm.eh.Emit(Event{Name: EventNameFrameMuxerState, Payload: s, Target: fm})
}

func (fm *FrameMuxer) setFatal(err error) {
	fm.m.Lock()
	defer fm.m.Unlock()
	if fm.fatalErr == nil {
		fm.fatalErr = err
	}
}

func (fm *FrameMuxer) fatal() error {
	fm.m.Lock()
	defer fm.m.Unlock()
	return fm.fatalErr
}

// sendFatal returns the fatal error only if it has not been returned to the
// caller yet
func (fm *FrameMuxer) sendFatal() error {
	fm.m.Lock()
	defer fm.m.Unlock()
	if fm.fatalSent || fm.fatalErr == nil {
		return nil
	}
	fm.fatalSent = true
	return fm.fatalErr
}

func (fm *FrameMuxer) fail(err error) error {
	fm.setFatal(err)
	fm.abort()
	return fm.sendFatal()
}

// Feed processes one captured image. Any error is session fatal: the session is
// flushed and closed before Feed returns.
func (fm *FrameMuxer) Feed(ctx context.Context, i RawImage) (err error) {
	// Session is over
	if fm.state == FrameMuxerStateFlushing || fm.state == FrameMuxerStateClosed {
		return ErrSessionClosed
	}

	// The audio unit failed
	if err = fm.fatal(); err != nil {
		return fm.fail(err)
	}

	// Convert
	// Nothing has been allocated yet if the pixel format is not supported
	var f *VideoFrame
	if f, err = fm.cv.Convert(i); err != nil {
		return fm.fail(newSessionError(nil, StreamVideo, StageConvert, err))
	}

	// Open session
	if fm.state == FrameMuxerStateUninitialized {
		// Encoders need at least 2x2 once odd dimensions are decremented
		if w, h := OutputSize(f.Width, f.Height, fm.p.Rescale); w < 2 || h < 2 {
			return fm.fail(newSessionError(nil, StreamVideo, StageConvert, fmt.Errorf("astirecorder: output dimensions %dx%d of a %dx%d capture are smaller than 2x2: %w", w, h, f.Width, f.Height, ErrInvalidImage)))
		}
		if err = fm.open(ctx, f.Width, f.Height); err != nil {
			return fm.fail(err)
		}
	}

	// Encode
	if err = fm.encode(f); err != nil {
		return fm.fail(err)
	}
	return
}

func (fm *FrameMuxer) open(ctx context.Context, captureWidth, captureHeight int) (err error) {
	// Negotiate
	if fm.t, err = Negotiate(NegotiateOptions{
		AudioCodec:  fm.p.AudioCodec,
		AudioWanted: fm.p.AudioWanted,
		Container:   fm.p.Container,
		Filename:    fm.p.URL,
		VideoCodec:  fm.p.VideoCodec,
	}); err != nil {
		return newSessionError(nil, StreamVideo, StageNegotiate, err)
	}
	if fm.t.AudioDropped {
		fm.eh.Emit(Event{Name: EventNameAudioCodecDisabled, Payload: fm.t.Container.LongName, Target: fm})
	}

	// Get output dimensions
	w, h := OutputSize(captureWidth, captureHeight, fm.p.Rescale)

	// Create muxer
	// Single image containers are opened for each frame instead
	if !fm.t.Container.SingleImage {
		if fm.mx, err = fm.b.NewMuxer(MuxerOptions{
			Container: fm.t.Container,
			URL:       fm.p.URL,
			Writer:    fm.p.Writer,
		}); err != nil {
			return newSessionError(ErrResourceAllocation, StreamVideo, StageOpen, fmt.Errorf("astirecorder: creating muxer failed: %w", err))
		}
		fm.c.AddWithError(fm.mx.Close)
	}

	// Create video encoder
	var q int
	if fm.t.VideoCodec.Quantized {
		q = QualityToQuantizer(fm.p.Quality)
	}
	if fm.ve, err = fm.b.NewVideoEncoder(VideoEncoderOptions{
		Codec:        fm.t.VideoCodec,
		FrameRate:    fm.p.FrameRate,
		GlobalHeader: fm.mx != nil && fm.mx.GlobalHeader(),
		Height:       h,
		PixelFormat:  fm.t.PixelFormat(),
		Quantizer:    q,
		Width:        w,
	}); err != nil {
		return newSessionError(ErrResourceAllocation, StreamVideo, StageOpen, fmt.Errorf("astirecorder: creating video encoder failed: %w", err))
	}
	fm.c.AddWithError(fm.ve.Close)
	fm.videoClock = newClock(fm.ve.TimeBase())

	// Update info
	fm.info = SessionInfo{
		AudioCodec: fm.t.AudioCodec,
		Container:  fm.t.Container.LongName,
		FrameRate:  fm.p.FrameRate.String(),
		Height:     h,
		VideoCodec: fm.t.VideoCodec.Name,
		Width:      w,
	}

	// Steady container
	if fm.mx != nil {
		// Add video stream
		if fm.videoStream, err = fm.mx.AddStream(fm.ve); err != nil {
			return newSessionError(ErrResourceAllocation, StreamVideo, StageOpen, fmt.Errorf("astirecorder: adding video stream failed: %w", err))
		}

		// Add audio stream
		var ae AudioEncoder
		var audioStream int
		if fm.t.HasAudio() {
			if ae, audioStream, err = fm.openAudio(); err != nil {
				return
			}
		}

		// Write header
		if err = fm.mx.WriteHeader(); err != nil {
			if ae != nil {
				ae.Close()
			}
			return newSessionError(ErrResourceAllocation, StreamVideo, StageOpen, fmt.Errorf("astirecorder: writing header failed: %w", err))
		}
		fm.headerDone = true
		fm.videoTB = fm.mx.StreamTimeBase(fm.videoStream)
		fm.pw = newPacketWriter(fm.mx, fm.stats)

		// Start audio unit
		if ae != nil {
			fm.audio = newAudioUnit(audioUnitOptions{
				Backend:        fm.b,
				Channels:       fm.p.Channels,
				Encoder:        ae,
				EventHandler:   fm.eh,
				OnFatal:        fm.setFatal,
				OnGate:         fm.p.OnGate,
				Pauser:         fm.pauser,
				SampleRate:     fm.p.SampleRate,
				Source:         fm.p.AudioSource,
				Stats:          fm.stats,
				StreamIndex:    audioStream,
				StreamTimeBase: fm.mx.StreamTimeBase(audioStream),
				VideoClock:     fm.videoClock,
				Writer:         fm.pw,
			})
			fm.audio.start(ctx)
		}
	}

	// Update state
	fm.setState(FrameMuxerStateSessionOpen)
	fm.eh.Emit(Event{Name: EventNameSessionOpened, Payload: fm.info, Target: fm})
	return
}

func (fm *FrameMuxer) openAudio() (ae AudioEncoder, idx int, err error) {
	// Create audio encoder
	cd, _ := AudioCodec(fm.t.AudioCodec)
	if ae, err = fm.b.NewAudioEncoder(AudioEncoderOptions{
		BitRate:      fm.p.AudioBitRate,
		Channels:     fm.p.Channels,
		Codec:        cd,
		GlobalHeader: fm.mx.GlobalHeader(),
		SampleRate:   fm.p.SampleRate,
	}); err != nil {
		err = newSessionError(ErrResourceAllocation, StreamAudio, StageOpen, fmt.Errorf("astirecorder: creating audio encoder failed: %w", err))
		return
	}

	// Add audio stream
	if idx, err = fm.mx.AddStream(ae); err != nil {
		ae.Close()
		err = newSessionError(ErrResourceAllocation, StreamAudio, StageOpen, fmt.Errorf("astirecorder: adding audio stream failed: %w", err))
		return
	}

	// Update info
	fm.info.Channels = fm.p.Channels
	fm.info.SampleRate = fm.p.SampleRate
	return
}

func (fm *FrameMuxer) encode(f *VideoFrame) (err error) {
	// Update state
	fm.setState(FrameMuxerStateEncoding)

	// Scale
	if f, err = fm.scale(f); err != nil {
		return
	}

	// Encode
	f.Pts = fm.nextPts
	var ps []Packet
	if ps, err = fm.ve.Encode(f); err != nil {
		return newSessionError(ErrEncode, StreamVideo, StageEncode, err)
	}

	// Update clock
	fm.nextPts++
	fm.videoClock.set(fm.nextPts)
	atomic.AddUint64(&fm.stats.framesFed, 1)

	// Write
	return fm.writeVideoPackets(ps)
}

func (fm *FrameMuxer) scale(f *VideoFrame) (*VideoFrame, error) {
	// Nothing to do
	if f.Format == fm.t.PixelFormat() && f.Width == fm.info.Width && f.Height == fm.info.Height {
		return f, nil
	}

	// Create scaler
	k := ScalerOptions{
		DstFormat: fm.t.PixelFormat(),
		DstHeight: fm.info.Height,
		DstWidth:  fm.info.Width,
		SrcFormat: f.Format,
		SrcHeight: f.Height,
		SrcWidth:  f.Width,
	}
	if fm.sc == nil || fm.scKey != k {
		if fm.sc != nil {
			fm.sc.Close()
		}
		sc, err := fm.b.NewScaler(k)
		if err != nil {
			return nil, newSessionError(ErrResourceAllocation, StreamVideo, StageScale, fmt.Errorf("astirecorder: creating scaler failed: %w", err))
		}
		if fm.sc == nil {
			fm.c.AddWithError(func() error { return fm.sc.Close() })
		}
		fm.sc = sc
		fm.scKey = k
	}

	// Scale
	o, err := fm.sc.Scale(f)
	if err != nil {
		return nil, newSessionError(nil, StreamVideo, StageScale, fmt.Errorf("astirecorder: scaling failed: %w", err))
	}
	return o, nil
}

func (fm *FrameMuxer) writeVideoPackets(ps []Packet) error {
	for _, p := range ps {
		// Single image
		if fm.mx == nil {
			if err := fm.writeImage(p); err != nil {
				return err
			}
			continue
		}

		// Write
		if err := fm.pw.write(StreamVideo, fm.videoStream, rescalePacket(p, fm.ve.TimeBase(), fm.videoTB)); err != nil {
			return newSessionError(ErrWrite, StreamVideo, StageWrite, err)
		}
	}
	return nil
}

// writeImage opens, writes and closes a container for a single packet
func (fm *FrameMuxer) writeImage(p Packet) (err error) {
	// Get url
	url := fm.p.URL
	if fm.p.Writer == nil {
		url = ImageSequenceURL(fm.p.URL, fm.p.StartNumber+fm.image)
	}
	fm.image++

	// Create muxer
	var mx Muxer
	if mx, err = fm.b.NewMuxer(MuxerOptions{
		Container: fm.t.Container,
		URL:       url,
		Writer:    fm.p.Writer,
	}); err != nil {
		return newSessionError(ErrResourceAllocation, StreamVideo, StageOpen, fmt.Errorf("astirecorder: creating muxer for %s failed: %w", url, err))
	}

	// Make sure muxer is closed
	defer func() {
		if errC := mx.Close(); errC != nil && err == nil {
			err = newSessionError(ErrWrite, StreamVideo, StageClose, fmt.Errorf("astirecorder: closing muxer for %s failed: %w", url, errC))
		}
	}()

	// Add stream
	var idx int
	if idx, err = mx.AddStream(fm.ve); err != nil {
		return newSessionError(ErrResourceAllocation, StreamVideo, StageOpen, fmt.Errorf("astirecorder: adding stream to %s failed: %w", url, err))
	}

	// Write header
	if err = mx.WriteHeader(); err != nil {
		return newSessionError(ErrWrite, StreamVideo, StageWrite, fmt.Errorf("astirecorder: writing header to %s failed: %w", url, err))
	}

	// Write packet
	if err = mx.WritePacket(idx, rescalePacket(p, fm.ve.TimeBase(), mx.StreamTimeBase(idx))); err != nil {
		return newSessionError(ErrWrite, StreamVideo, StageWrite, fmt.Errorf("astirecorder: writing packet to %s failed: %w", url, err))
	}
	fm.stats.packetWritten(StreamVideo, len(p.Data))

	// Write trailer
	if err = mx.WriteTrailer(); err != nil {
		return newSessionError(ErrWrite, StreamVideo, StageWrite, fmt.Errorf("astirecorder: writing trailer to %s failed: %w", url, err))
	}
	return
}

// pauseAudio and resumeAudio are no-ops when state doesn't change
func (fm *FrameMuxer) pauseAudio() bool  { return fm.pauser.pause() }
func (fm *FrameMuxer) resumeAudio() bool { return fm.pauser.resume() }

// abort runs the close sequence after a session fatal error. The fatal error has
// already been recorded.
func (fm *FrameMuxer) abort() {
	if err := fm.close(); err != nil {
		fm.eh.Emit(EventError(fm, err))
	}
}

// Close flushes and closes the session. It is idempotent and returns the session
// fatal error if one happened asynchronously and wasn't returned yet.
func (fm *FrameMuxer) Close() error {
	err := fm.close()
	if errF := fm.sendFatal(); errF != nil {
		if err == nil {
			return errF
		}
		return errors.Join(errF, err)
	}
	return err
}

func (fm *FrameMuxer) close() error {
	// Already closed
	if fm.state == FrameMuxerStateFlushing || fm.state == FrameMuxerStateClosed {
		return nil
	}

	// Never opened
	// Opening may have failed halfway, in which case some resources are already
	// allocated
	if fm.state == FrameMuxerStateUninitialized {
		fm.pauser.stop()
		var err error
		if errC := fm.c.Close(); errC != nil {
			err = newSessionError(nil, StreamVideo, StageClose, errC)
		}
		fm.setState(FrameMuxerStateClosed)
		return err
	}

	// Update state
	fm.setState(FrameMuxerStateFlushing)

	var errs []error

	// Stop audio unit and wait for it to release its resources
	if fm.audio != nil {
		timeout := fm.p.AudioJoinTimeout
		if timeout <= 0 {
			timeout = DefaultAudioJoinTimeout
		}
		if err := fm.audio.stop(timeout); err != nil {
			errs = append(errs, err)
		}
	} else {
		fm.pauser.stop()
	}

	// Flush video encoder
	// Partial output is kept as is after a fatal error
	if fm.fatal() == nil {
		if err := fm.flush(); err != nil {
			errs = append(errs, err)
		}
	}

	// Write trailer
	if fm.headerDone {
		fm.pw.close()
		if err := fm.mx.WriteTrailer(); err != nil {
			errs = append(errs, newSessionError(ErrWrite, StreamVideo, StageClose, fmt.Errorf("astirecorder: writing trailer failed: %w", err)))
		}
	}

	// Release
	if err := fm.c.Close(); err != nil {
		errs = append(errs, newSessionError(nil, StreamVideo, StageClose, err))
	}

	// Update state
	fm.setState(FrameMuxerStateClosed)
	fm.eh.Emit(Event{Name: EventNameSessionClosed, Payload: fm.info, Target: fm})
	return errors.Join(errs...)
}

func (fm *FrameMuxer) flush() error {
	// Nothing to flush
	if fm.ve == nil {
		return nil
	}

	// Loop until the encoder stops returning packets
	for {
		ps, err := fm.ve.Encode(nil)
		if err != nil {
			return newSessionError(ErrEncode, StreamVideo, StageFlush, err)
		}
		if len(ps) == 0 {
			return nil
		}
		if err = fm.writeVideoPackets(ps); err != nil {
			return err
		}
	}
}

// OutputSize applies the rescale percentage and makes dimensions even by
// decrementing odd ones. Results may be 0.
func OutputSize(width, height, rescale int) (int, int) {
	if rescale <= 0 || rescale > 100 {
		rescale = 100
	}
	w, h := width*rescale/100, height*rescale/100
	if w%2 == 1 {
		w--
	}
	if h%2 == 1 {
		h--
	}
	return w, h
}

var imageSequenceVerb = regexp.MustCompile(`%0?[0-9]*d`)

// ImageSequenceURL returns the url of the image with number n. The first printf
// integer verb of url is replaced if any, otherwise "-%06d" is inserted before
// the extension.
func ImageSequenceURL(url string, n int) string {
	if loc := imageSequenceVerb.FindStringIndex(url); loc != nil {
		return url[:loc[0]] + fmt.Sprintf(url[loc[0]:loc[1]], n) + url[loc[1]:]
	}
	ext := filepath.Ext(url)
	return strings.TrimSuffix(url, ext) + fmt.Sprintf("-%06d", n) + ext
}
