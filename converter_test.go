package astirecorder

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConverterMapping(t *testing.T) {
	for _, v := range []struct {
		bpp      int
		expected PixelFormat
		masks    [3]uint32
		order    ByteOrder
	}{
		{bpp: 16, masks: [3]uint32{0xf800, 0x07e0, 0x001f}, order: ByteOrderLSBFirst, expected: PixelFormatRGB565LE},
		{bpp: 16, masks: [3]uint32{0xf800, 0x07e0, 0x001f}, order: ByteOrderMSBFirst, expected: PixelFormatRGB565BE},
		{bpp: 16, masks: [3]uint32{0x7c00, 0x03e0, 0x001f}, order: ByteOrderLSBFirst, expected: PixelFormatRGB555LE},
		{bpp: 16, masks: [3]uint32{0x7c00, 0x03e0, 0x001f}, order: ByteOrderMSBFirst, expected: PixelFormatRGB555BE},
		{bpp: 24, masks: [3]uint32{0xff0000, 0xff00, 0xff}, order: ByteOrderLSBFirst, expected: PixelFormatBGR24},
		{bpp: 24, masks: [3]uint32{0xff0000, 0xff00, 0xff}, order: ByteOrderMSBFirst, expected: PixelFormatRGB24},
		{bpp: 24, masks: [3]uint32{0xff, 0xff00, 0xff0000}, order: ByteOrderLSBFirst, expected: PixelFormatRGB24},
		{bpp: 24, masks: [3]uint32{0xff, 0xff00, 0xff0000}, order: ByteOrderMSBFirst, expected: PixelFormatBGR24},
		{bpp: 32, masks: [3]uint32{0xff0000, 0xff00, 0xff}, order: ByteOrderLSBFirst, expected: PixelFormatBGRA},
		{bpp: 32, masks: [3]uint32{0xff0000, 0xff00, 0xff}, order: ByteOrderMSBFirst, expected: PixelFormatARGB},
		{bpp: 32, masks: [3]uint32{0xff, 0xff00, 0xff0000}, order: ByteOrderLSBFirst, expected: PixelFormatRGBA},
		{bpp: 32, masks: [3]uint32{0xff, 0xff00, 0xff0000}, order: ByteOrderMSBFirst, expected: PixelFormatARGB},
	} {
		const w, h = 4, 3
		c := NewConverter()
		f, err := c.Convert(RawImage{
			BitsPerPixel: v.bpp,
			BlueMask:     v.masks[2],
			ByteOrder:    v.order,
			Data:         make([]byte, w*h*v.bpp/8),
			GreenMask:    v.masks[1],
			Height:       h,
			RedMask:      v.masks[0],
			Width:        w,
		})
		require.NoError(t, err)
		require.Equal(t, v.expected, f.Format, "bpp %d masks %#x order %d", v.bpp, v.masks, v.order)
		require.Equal(t, []int{w * v.bpp / 8}, f.Strides)
	}
}

func TestConverterUnsupported(t *testing.T) {
	for _, i := range []RawImage{
		{BitsPerPixel: 8},
		{BitsPerPixel: 15, RedMask: 0x7c00, GreenMask: 0x03e0, BlueMask: 0x001f},
		{BitsPerPixel: 16, RedMask: 0x001f, GreenMask: 0x07e0, BlueMask: 0xf800},
		{BitsPerPixel: 24, RedMask: 0xff00, GreenMask: 0xff0000, BlueMask: 0xff},
		{BitsPerPixel: 32, RedMask: 0xff000000, GreenMask: 0xff0000, BlueMask: 0xff00},
		{BitsPerPixel: 30, RedMask: 0x3ff00000, GreenMask: 0xffc00, BlueMask: 0x3ff},
		{BitsPerPixel: 1},
	} {
		i.Width, i.Height = 2, 2
		c := NewConverter()
		f, err := c.Convert(i)
		require.ErrorIs(t, err, ErrUnsupportedPixelFormat)
		require.Nil(t, f)
		require.Nil(t, c.buf)
	}
}

func TestConverterPalette(t *testing.T) {
	// 3x2 image with 2 bytes of row padding
	p := make([]color.RGBA, 256)
	p[1] = color.RGBA{R: 1, G: 2, B: 3}
	p[2] = color.RGBA{R: 4, G: 5, B: 6}
	c := NewConverter()
	f, err := c.Convert(RawImage{
		BitsPerPixel: 8,
		Data: []byte{
			1, 2, 1, 0xff, 0xff,
			2, 2, 0, 0xff, 0xff,
		},
		Height:  2,
		Palette: p,
		Stride:  5,
		Width:   3,
	})
	require.NoError(t, err)
	require.Equal(t, PixelFormatRGB24, f.Format)
	require.Equal(t, []int{9}, f.Strides)
	require.Equal(t, []byte{
		1, 2, 3, 4, 5, 6, 1, 2, 3,
		4, 5, 6, 4, 5, 6, 0, 0, 0,
	}, f.Planes[0])

	// Buffer is reused
	b := c.buf
	_, err = c.Convert(RawImage{BitsPerPixel: 8, Data: []byte{1, 1, 1, 1}, Height: 2, Palette: p, Width: 2})
	require.NoError(t, err)
	require.Same(t, &b[0], &c.buf[0])
}

func TestConverterSwap(t *testing.T) {
	// Big endian A,B,G,R with 4 bytes of padding
	d := []byte{
		0xff, 0x03, 0x02, 0x01, 0xaa, 0xaa, 0xaa, 0xaa,
		0x80, 0x06, 0x05, 0x04, 0xaa, 0xaa, 0xaa, 0xaa,
	}
	c := NewConverter()
	f, err := c.Convert(RawImage{
		BitsPerPixel: 32,
		BlueMask:     0xff0000,
		ByteOrder:    ByteOrderMSBFirst,
		Data:         d,
		GreenMask:    0xff00,
		Height:       2,
		RedMask:      0xff,
		Stride:       8,
		Width:        1,
	})
	require.NoError(t, err)
	require.Equal(t, PixelFormatARGB, f.Format)
	require.Equal(t, []byte{
		0xff, 0x01, 0x02, 0x03, 0xaa, 0xaa, 0xaa, 0xaa,
		0x80, 0x04, 0x05, 0x06, 0xaa, 0xaa, 0xaa, 0xaa,
	}, d)
	require.Equal(t, []int{8}, f.Strides)
}

func TestConverterInvalidBuffer(t *testing.T) {
	c := NewConverter()
	_, err := c.Convert(RawImage{BitsPerPixel: 24, RedMask: 0xff, GreenMask: 0xff00, BlueMask: 0xff0000, Data: make([]byte, 10), Width: 2, Height: 2})
	require.ErrorIs(t, err, ErrInvalidImage)
	_, err = c.Convert(RawImage{BitsPerPixel: 24, RedMask: 0xff, GreenMask: 0xff00, BlueMask: 0xff0000, Data: make([]byte, 12), Width: 2, Height: 2, Stride: 5})
	require.ErrorIs(t, err, ErrInvalidImage)
}
