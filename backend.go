package astirecorder

import "io"

// Backend creates the encoders, muxers and converters a session needs
type Backend interface {
	NewAudioDecoder(o AudioDecoderOptions) (AudioDecoder, error)
	NewAudioEncoder(o AudioEncoderOptions) (AudioEncoder, error)
	NewMuxer(o MuxerOptions) (Muxer, error)
	NewResampler(o ResamplerOptions) (Resampler, error)
	NewScaler(o ScalerOptions) (Scaler, error)
	NewVideoEncoder(o VideoEncoderOptions) (VideoEncoder, error)
}

// Encoder is what encoders have in common
type Encoder interface {
	Close() error
	// Time base of the packets produced by the encoder
	TimeBase() Rational
}

// VideoEncoderOptions represents video encoder options
type VideoEncoderOptions struct {
	Codec VideoCodecDescriptor
	// Time base is the inverse of the frame rate
	FrameRate    Rational
	GlobalHeader bool
	Height       int
	PixelFormat  PixelFormat
	// 0 means the encoder default rate control
	Quantizer int
	Width     int
}

// VideoEncoder encodes video frames
type VideoEncoder interface {
	Encoder
	// Encode returns the packets available after sending f. A nil frame flushes
	// the encoder, in which case it must be called until no packet is returned.
	// Returning no packet is not an error.
	Encode(f *VideoFrame) ([]Packet, error)
}

// AudioEncoderOptions represents audio encoder options
type AudioEncoderOptions struct {
	BitRate      int
	Channels     int
	Codec        AudioCodecDescriptor
	GlobalHeader bool
	SampleRate   int
}

// AudioEncoder encodes interleaved signed 16 bits samples
type AudioEncoder interface {
	Encoder
	// Number of samples per channel Encode expects, 0 means any
	FrameSize() int
	// Encode returns the packets available after sending samples starting at
	// pts. A nil slice flushes the encoder. The last frame may be shorter than
	// FrameSize.
	Encode(samples []int16, pts int64) ([]Packet, error)
}

// AudioDecoderOptions represents audio decoder options
type AudioDecoderOptions struct {
	Channels   int
	Codec      AudioCodecDescriptor
	SampleRate int
}

// AudioDecoder decodes compressed audio into interleaved signed 16 bits samples
// with the input rate and channel count
type AudioDecoder interface {
	Close() error
	Decode(data []byte) ([]int16, error)
}

// ResamplerOptions represents resampler options
type ResamplerOptions struct {
	DstChannels   int
	DstSampleRate int
	SrcChannels   int
	SrcSampleRate int
}

// Resampler converts interleaved signed 16 bits samples between rates and
// channel counts
type Resampler interface {
	Close() error
	// A nil slice returns the buffered samples
	Resample(samples []int16) ([]int16, error)
}

// ScalerOptions represents scaler options
type ScalerOptions struct {
	DstFormat PixelFormat
	DstHeight int
	DstWidth  int
	SrcFormat PixelFormat
	SrcHeight int
	SrcWidth  int
}

// Scaler rescales and reformats video frames. The returned frame is only
// valid until the next call.
type Scaler interface {
	Close() error
	Scale(f *VideoFrame) (*VideoFrame, error)
}

// MuxerOptions represents muxer options
type MuxerOptions struct {
	Container ContainerDescriptor
	URL       string
	// Takes precedence over URL when set
	Writer io.Writer
}

// Muxer writes packets into a container
type Muxer interface {
	AddStream(e Encoder) (idx int, err error)
	Close() error
	// Whether encoders must put their extradata in a global header
	GlobalHeader() bool
	// Only valid once the header has been written
	StreamTimeBase(idx int) Rational
	WriteHeader() error
	// Packet timestamps must be expressed in the stream time base
	WritePacket(idx int, p Packet) error
	WriteTrailer() error
}

// Availability lists the catalog codecs a backend can encode
type Availability struct {
	AudioCodecs []AudioCodecID
	VideoCodecs []VideoCodecID
}

// HasAudioCodec returns whether the audio codec can be encoded
func (a Availability) HasAudioCodec(id AudioCodecID) bool {
	for _, v := range a.AudioCodecs {
		if v == id {
			return true
		}
	}
	return false
}

// HasVideoCodec returns whether the video codec can be encoded
func (a Availability) HasVideoCodec(id VideoCodecID) bool {
	for _, v := range a.VideoCodecs {
		if v == id {
			return true
		}
	}
	return false
}

// Availabler is implemented by backends that can report which codecs they
// are able to encode
type Availabler interface {
	Available() Availability
}
