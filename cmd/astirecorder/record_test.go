package main

import (
	"bytes"
	"testing"

	"github.com/asticode/go-astirecorder"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	w, h, err := parseSize("320x240")
	require.NoError(t, err)
	require.Equal(t, 320, w)
	require.Equal(t, 240, h)
	_, _, err = parseSize("320")
	require.Error(t, err)
	_, _, err = parseSize("ax240")
	require.Error(t, err)
}

func TestPattern(t *testing.T) {
	p := newPattern(14, 4)
	i := p.next()
	f, err := astirecorder.DetectPixelFormat(i)
	require.NoError(t, err)
	require.Equal(t, astirecorder.PixelFormatBGRA, f)
	require.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, i.Data[:4])

	// Second row, last bar
	require.Equal(t, []byte{0xff, 0x00, 0x00, 0xff}, i.Data[4*(14+13):4*(14+14)])

	// Line has moved
	i = p.next()
	require.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, i.Data[4*(14+13):4*(14+14)])
}

func TestPrintCodecs(t *testing.T) {
	a, err := backendAvailability("native")
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	printCodecs(buf, a)
	require.Contains(t, buf.String(), "PNG image sequence [png]: video=png audio=\n")
	require.Contains(t, buf.String(), "Matroska [mkv]: video=mjpeg,(h264)")
	_, err = backendAvailability("invalid")
	require.Error(t, err)
}
