package astirecorder

import "fmt"

// VideoFrame is a raw image in a known pixel format
type VideoFrame struct {
	Format PixelFormat
	Height int
	// Planes and Strides have one entry per plane (a single one for packed formats)
	Planes  [][]byte
	Pts     int64
	Strides []int
	Width   int
}

// NewVideoFrame splits a buffer holding planes one after the other without any
// row padding
func NewVideoFrame(format PixelFormat, width, height int, b []byte) (f *VideoFrame, err error) {
	f = &VideoFrame{
		Format: format,
		Height: height,
		Width:  width,
	}
	var offset int
	for p := 0; p < format.NumPlanes(); p++ {
		rowSize, rows := format.PlaneDimensions(p, width, height)
		if offset+rowSize*rows > len(b) {
			err = fmt.Errorf("astirecorder: buffer size %d is too small for %s %dx%d: %w", len(b), format, width, height, ErrInvalidImage)
			return
		}
		f.Planes = append(f.Planes, b[offset:offset+rowSize*rows])
		f.Strides = append(f.Strides, rowSize)
		offset += rowSize * rows
	}
	return
}

// Bytes returns planes one after the other without any row padding. Planes are
// returned as is when they have no padding already.
func (f *VideoFrame) Bytes() []byte {
	// Count
	var n int
	for p := range f.Planes {
		rowSize, rows := f.Format.PlaneDimensions(p, f.Width, f.Height)
		n += rowSize * rows
	}

	// Single plane without padding
	if len(f.Planes) == 1 {
		if rowSize, _ := f.Format.PlaneDimensions(0, f.Width, f.Height); f.Strides[0] == rowSize && len(f.Planes[0]) >= n {
			return f.Planes[0][:n]
		}
	}

	// Copy rows
	b := make([]byte, 0, n)
	for p := range f.Planes {
		rowSize, rows := f.Format.PlaneDimensions(p, f.Width, f.Height)
		for y := 0; y < rows; y++ {
			b = append(b, f.Planes[p][y*f.Strides[p]:y*f.Strides[p]+rowSize]...)
		}
	}
	return b
}

// Packet is an encoded unit produced by an encoder
type Packet struct {
	Data     []byte
	Dts      int64
	Duration int64
	Key      bool
	// Expressed in the time base of the encoder that produced it until it reaches the muxer
	Pts int64
}

// AudioChunk is a buffer read from an audio source
type AudioChunk struct {
	Channels int
	// Zero value means Data is interleaved signed 16-bit little endian PCM
	Codec      AudioCodecID
	Data       []byte
	SampleRate int
}

// Compressed returns whether the chunk needs to be decoded first
func (c AudioChunk) Compressed() bool {
	return !rawPCM(c.Codec)
}

func rawPCM(id AudioCodecID) bool {
	switch id {
	case AudioCodecAuto, AudioCodecNone, AudioCodecPCMS16LE:
		return true
	}
	return false
}
