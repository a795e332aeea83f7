package astilibav

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astirecorder"
	"github.com/stretchr/testify/require"
)

func TestBackend(t *testing.T) {
	if astiav.FindEncoderByName("mjpeg") == nil {
		t.Skip("mjpeg encoder is not available")
	}

	// Image
	w, h := 64, 48
	i := astirecorder.RawImage{
		BitsPerPixel: 32,
		BlueMask:     0xff,
		ByteOrder:    astirecorder.ByteOrderLSBFirst,
		Data:         make([]byte, w*h*4),
		GreenMask:    0xff00,
		Height:       h,
		RedMask:      0xff0000,
		Width:        w,
	}

	// Session
	p := filepath.Join(t.TempDir(), "out.mkv")
	s, err := astirecorder.OpenSession(context.Background(), astirecorder.SessionOptions{
		Backend: NewBackend(BackendOptions{}),
		Parameters: astirecorder.SessionParameters{
			AudioSource: astirecorder.NewReaderSource(astirecorder.ReaderSourceOptions{
				Channels:   1,
				Reader:     bytes.NewReader(make([]byte, 8000)),
				SampleRate: 8000,
			}),
			AudioWanted: true,
			Rescale:     50,
			URL:         p,
		},
	})
	require.NoError(t, err)
	for idx := 0; idx < 10; idx++ {
		for j := range i.Data {
			i.Data[j] = byte(idx * 20)
		}
		require.NoError(t, s.Feed(i))
	}
	require.NoError(t, s.Close())
	require.Equal(t, 32, s.Info().Width)
	require.Equal(t, 24, s.Info().Height)
	require.Equal(t, uint64(10), s.Stats().VideoPackets)

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(b, []byte{0x1a, 0x45, 0xdf, 0xa3}))
}

func TestBackendWriter(t *testing.T) {
	c, _ := astirecorder.Container(astirecorder.ContainerMatroska)
	_, err := NewBackend(BackendOptions{}).NewMuxer(astirecorder.MuxerOptions{
		Container: c,
		Writer:    &bytes.Buffer{},
	})
	require.ErrorIs(t, err, astirecorder.ErrInvalidSessionParameter)
}
