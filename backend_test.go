package astirecorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockedWrite struct {
	idx    int
	stream string
	p      Packet
}

type mockedBackend struct {
	audioEncodes     []int // Samples per channel of every Encode call, -1 for flush
	audioEncoderErr  error
	audioFrameSize   int
	calls            map[string]int
	encoderErrAt     int              // Video frame index at which Encode fails, 0 disables
	failures         map[string]error // Errors returned by calls, indexed by call name
	m                *sync.Mutex
	muxerURLs        []string
	onWrite          func(w mockedWrite)
	scalerOptions    []ScalerOptions
	streamTimeBase   Rational
	videoDelay       int
	videoEncoderOpts []VideoEncoderOptions
	writes           []mockedWrite
}

func newMockedBackend() *mockedBackend {
	return &mockedBackend{
		audioFrameSize: 160,
		calls:          make(map[string]int),
		failures:       make(map[string]error),
		m:              &sync.Mutex{},
		streamTimeBase: NewRational(1, 1000),
	}
}

func (b *mockedBackend) inc(name string) {
	b.m.Lock()
	defer b.m.Unlock()
	b.calls[name]++
}

// call counts the call and returns the failure set for it, if any
func (b *mockedBackend) call(name string) error {
	b.m.Lock()
	defer b.m.Unlock()
	b.calls[name]++
	return b.failures[name]
}

func (b *mockedBackend) count(name string) int {
	b.m.Lock()
	defer b.m.Unlock()
	return b.calls[name]
}

func (b *mockedBackend) allocations() (n int) {
	b.m.Lock()
	defer b.m.Unlock()
	for _, k := range []string{"audio.decoder.new", "audio.encoder.new", "muxer.new", "resampler.new", "scaler.new", "video.encoder.new"} {
		n += b.calls[k]
	}
	return
}

func (b *mockedBackend) writesFor(stream string) (ws []mockedWrite) {
	b.m.Lock()
	defer b.m.Unlock()
	for _, w := range b.writes {
		if w.stream == stream {
			ws = append(ws, w)
		}
	}
	return
}

func (b *mockedBackend) NewAudioDecoder(o AudioDecoderOptions) (AudioDecoder, error) {
	b.inc("audio.decoder.new")
	return &mockedAudioDecoder{b: b}, nil
}

func (b *mockedBackend) NewAudioEncoder(o AudioEncoderOptions) (AudioEncoder, error) {
	if err := b.call("audio.encoder.new"); err != nil {
		return nil, err
	}
	return &mockedAudioEncoder{b: b, o: o}, nil
}

func (b *mockedBackend) NewMuxer(o MuxerOptions) (Muxer, error) {
	b.inc("muxer.new")
	b.m.Lock()
	b.muxerURLs = append(b.muxerURLs, o.URL)
	b.m.Unlock()
	return &mockedMuxer{b: b}, nil
}

func (b *mockedBackend) NewResampler(o ResamplerOptions) (Resampler, error) {
	b.inc("resampler.new")
	return &mockedResampler{b: b, o: o}, nil
}

func (b *mockedBackend) NewScaler(o ScalerOptions) (Scaler, error) {
	b.inc("scaler.new")
	b.m.Lock()
	b.scalerOptions = append(b.scalerOptions, o)
	b.m.Unlock()
	return &mockedScaler{b: b, o: o}, nil
}

func (b *mockedBackend) NewVideoEncoder(o VideoEncoderOptions) (VideoEncoder, error) {
	if err := b.call("video.encoder.new"); err != nil {
		return nil, err
	}
	b.m.Lock()
	b.videoEncoderOpts = append(b.videoEncoderOpts, o)
	b.m.Unlock()
	return &mockedVideoEncoder{b: b, o: o}, nil
}

type mockedVideoEncoder struct {
	b       *mockedBackend
	encoded int
	o       VideoEncoderOptions
	queue   []Packet
}

func (e *mockedVideoEncoder) Close() error {
	e.b.inc("video.encoder.close")
	return nil
}

func (e *mockedVideoEncoder) TimeBase() Rational { return e.o.FrameRate.Invert() }

func (e *mockedVideoEncoder) Encode(f *VideoFrame) (ps []Packet, err error) {
	// Flush
	if f == nil {
		ps, e.queue = e.queue, nil
		return
	}

	// Fail
	e.encoded++
	if e.b.encoderErrAt > 0 && e.encoded == e.b.encoderErrAt {
		return nil, errors.New("mocked encode error")
	}

	// Check frame
	if f.Format != e.o.PixelFormat || f.Width != e.o.Width || f.Height != e.o.Height {
		return nil, fmt.Errorf("invalid frame %s %dx%d", f.Format, f.Width, f.Height)
	}

	// Buffer
	e.queue = append(e.queue, Packet{Data: []byte{0, 0, 1}, Duration: 1, Key: f.Pts == 0, Pts: f.Pts, Dts: f.Pts})
	if len(e.queue) > e.b.videoDelay {
		ps = []Packet{e.queue[0]}
		e.queue = e.queue[1:]
	}
	return
}

type mockedAudioEncoder struct {
	b *mockedBackend
	o AudioEncoderOptions
}

func (e *mockedAudioEncoder) Close() error {
	e.b.inc("audio.encoder.close")
	return nil
}

func (e *mockedAudioEncoder) FrameSize() int { return e.b.audioFrameSize }

func (e *mockedAudioEncoder) TimeBase() Rational { return NewRational(1, e.o.SampleRate) }

func (e *mockedAudioEncoder) Encode(s []int16, pts int64) ([]Packet, error) {
	e.b.m.Lock()
	defer e.b.m.Unlock()
	if e.b.audioEncoderErr != nil {
		return nil, e.b.audioEncoderErr
	}
	if s == nil {
		e.b.audioEncodes = append(e.b.audioEncodes, -1)
		return nil, nil
	}
	n := len(s) / e.o.Channels
	e.b.audioEncodes = append(e.b.audioEncodes, n)
	return []Packet{{Data: make([]byte, 2*len(s)), Duration: int64(n), Pts: pts, Dts: pts}}, nil
}

type mockedAudioDecoder struct{ b *mockedBackend }

func (d *mockedAudioDecoder) Close() error {
	d.b.inc("audio.decoder.close")
	return nil
}

func (d *mockedAudioDecoder) Decode(data []byte) ([]int16, error) {
	d.b.inc("audio.decoder.decode")
	return make([]int16, len(data)), nil
}

type mockedResampler struct {
	b *mockedBackend
	o ResamplerOptions
}

func (r *mockedResampler) Close() error {
	r.b.inc("resampler.close")
	return nil
}

func (r *mockedResampler) Resample(s []int16) ([]int16, error) {
	r.b.inc("resampler.resample")
	if s == nil {
		return nil, nil
	}
	n := len(s) / r.o.SrcChannels * r.o.DstSampleRate / r.o.SrcSampleRate
	return make([]int16, n*r.o.DstChannels), nil
}

type mockedScaler struct {
	b *mockedBackend
	o ScalerOptions
}

func (s *mockedScaler) Close() error {
	s.b.inc("scaler.close")
	return nil
}

func (s *mockedScaler) Scale(f *VideoFrame) (*VideoFrame, error) {
	if f.Format != s.o.SrcFormat || f.Width != s.o.SrcWidth || f.Height != s.o.SrcHeight {
		return nil, errors.New("invalid source frame")
	}
	return &VideoFrame{Format: s.o.DstFormat, Height: s.o.DstHeight, Width: s.o.DstWidth}, nil
}

type mockedMuxer struct {
	b       *mockedBackend
	streams int
}

func (m *mockedMuxer) AddStream(e Encoder) (idx int, err error) {
	if err = m.b.call("muxer.stream"); err != nil {
		return
	}
	idx = m.streams
	m.streams++
	return
}

func (m *mockedMuxer) Close() error {
	m.b.inc("muxer.close")
	return nil
}

func (m *mockedMuxer) GlobalHeader() bool { return false }

func (m *mockedMuxer) StreamTimeBase(idx int) Rational { return m.b.streamTimeBase }

func (m *mockedMuxer) WriteHeader() error {
	return m.b.call("muxer.header")
}

func (m *mockedMuxer) WritePacket(idx int, p Packet) error {
	m.b.m.Lock()
	w := mockedWrite{idx: idx, p: p, stream: StreamVideo}
	if idx == 1 {
		w.stream = StreamAudio
	}
	m.b.writes = append(m.b.writes, w)
	fn := m.b.onWrite
	m.b.m.Unlock()
	if fn != nil {
		fn(w)
	}
	return nil
}

func (m *mockedMuxer) WriteTrailer() error {
	m.b.inc("muxer.trailer")
	return nil
}

type blockingAudioSource struct {
	o       *sync.Once
	reading chan struct{} // Closed on first read
	release chan struct{}
}

func newBlockingAudioSource() *blockingAudioSource {
	return &blockingAudioSource{
		o:       &sync.Once{},
		reading: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *blockingAudioSource) Live() bool { return true }

// ReadChunk ignores ctx on purpose
func (s *blockingAudioSource) ReadChunk(ctx context.Context) (AudioChunk, error) {
	s.o.Do(func() { close(s.reading) })
	<-s.release
	return AudioChunk{}, context.Canceled
}

func TestAvailability(t *testing.T) {
	a := Availability{
		AudioCodecs: []AudioCodecID{AudioCodecPCMS16LE},
		VideoCodecs: []VideoCodecID{VideoCodecPNG, VideoCodecMJPEG},
	}
	require.True(t, a.HasAudioCodec(AudioCodecPCMS16LE))
	require.False(t, a.HasAudioCodec(AudioCodecAAC))
	require.True(t, a.HasVideoCodec(VideoCodecMJPEG))
	require.False(t, a.HasVideoCodec(VideoCodecH264))
}
