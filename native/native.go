package astinative

import (
	"image/png"

	"github.com/asticode/go-astirecorder"
	"golang.org/x/image/draw"
)

// BackendOptions represents backend options
type BackendOptions struct {
	// Overrides the quality derived from the quantizer when > 0
	JPEGQuality         int
	PNGCompressionLevel png.CompressionLevel
	// Defaults to draw.ApproxBiLinear
	Scaler draw.Scaler
}

// Backend encodes and muxes in pure Go. It supports still image sequences and
// Matroska files holding MJPEG video and PCM audio.
type Backend struct {
	o BackendOptions
}

var _ astirecorder.Backend = (*Backend)(nil)

// NewBackend creates a new native backend
func NewBackend(o BackendOptions) *Backend {
	if o.Scaler == nil {
		o.Scaler = draw.ApproxBiLinear
	}
	return &Backend{o: o}
}

// NewAudioDecoder implements the astirecorder.Backend interface
func (b *Backend) NewAudioDecoder(o astirecorder.AudioDecoderOptions) (astirecorder.AudioDecoder, error) {
	return newAudioDecoder(o)
}

// NewAudioEncoder implements the astirecorder.Backend interface
func (b *Backend) NewAudioEncoder(o astirecorder.AudioEncoderOptions) (astirecorder.AudioEncoder, error) {
	return newAudioEncoder(o)
}

// NewMuxer implements the astirecorder.Backend interface
func (b *Backend) NewMuxer(o astirecorder.MuxerOptions) (astirecorder.Muxer, error) {
	if o.Container.SingleImage {
		return newImageMuxer(o)
	}
	return newMatroskaMuxer(o)
}

// NewResampler implements the astirecorder.Backend interface
func (b *Backend) NewResampler(o astirecorder.ResamplerOptions) (astirecorder.Resampler, error) {
	return newResampler(o)
}

// NewScaler implements the astirecorder.Backend interface
func (b *Backend) NewScaler(o astirecorder.ScalerOptions) (astirecorder.Scaler, error) {
	return newScaler(o, b.o.Scaler)
}

// NewVideoEncoder implements the astirecorder.Backend interface
func (b *Backend) NewVideoEncoder(o astirecorder.VideoEncoderOptions) (astirecorder.VideoEncoder, error) {
	return newVideoEncoder(o, b.o)
}
