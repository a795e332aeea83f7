package astilibav

import (
	"github.com/asticode/go-astirecorder"
)

// BackendOptions represents backend options
type BackendOptions struct {
	// Extra audio encoder options such as "b=128k"
	AudioEncoderOptions string
	// Extra video encoder options such as "preset=ultrafast,tune=zerolatency"
	VideoEncoderOptions string
}

// Backend encodes and muxes through libav
type Backend struct {
	o BackendOptions
}

var _ astirecorder.Backend = (*Backend)(nil)

// NewBackend creates a new libav backend
func NewBackend(o BackendOptions) *Backend {
	return &Backend{o: o}
}

// NewAudioDecoder implements the astirecorder.Backend interface
func (b *Backend) NewAudioDecoder(o astirecorder.AudioDecoderOptions) (astirecorder.AudioDecoder, error) {
	return newAudioDecoder(o)
}

// NewAudioEncoder implements the astirecorder.Backend interface
func (b *Backend) NewAudioEncoder(o astirecorder.AudioEncoderOptions) (astirecorder.AudioEncoder, error) {
	return newAudioEncoder(o, b.o.AudioEncoderOptions)
}

// NewMuxer implements the astirecorder.Backend interface
func (b *Backend) NewMuxer(o astirecorder.MuxerOptions) (astirecorder.Muxer, error) {
	return newMuxer(o)
}

// NewResampler implements the astirecorder.Backend interface
func (b *Backend) NewResampler(o astirecorder.ResamplerOptions) (astirecorder.Resampler, error) {
	return newResampler(o)
}

// NewScaler implements the astirecorder.Backend interface
func (b *Backend) NewScaler(o astirecorder.ScalerOptions) (astirecorder.Scaler, error) {
	return newScaler(o)
}

// NewVideoEncoder implements the astirecorder.Backend interface
func (b *Backend) NewVideoEncoder(o astirecorder.VideoEncoderOptions) (astirecorder.VideoEncoder, error) {
	return newVideoEncoder(o, b.o.VideoEncoderOptions)
}
