package astirecorder

import (
	"fmt"
	"image/color"
)

// ByteOrder is the order in which a pixel's bytes are stored in memory
type ByteOrder int

// Byte orders
const (
	ByteOrderLSBFirst ByteOrder = iota
	ByteOrderMSBFirst
)

// RawImage is a captured image and its pixel layout
type RawImage struct {
	BitsPerPixel int
	BlueMask     uint32
	ByteOrder    ByteOrder
	Data         []byte
	GreenMask    uint32
	Height       int
	// Only used by 8 bits per pixel images
	Palette []color.RGBA
	RedMask uint32
	// Defaults to Width * BitsPerPixel / 8
	Stride int
	Width  int
}

func (i RawImage) stride() int {
	if i.Stride > 0 {
		return i.Stride
	}
	return i.Width * i.BitsPerPixel / 8
}

type pixelLayout struct {
	blue  uint32
	bpp   int
	green uint32
	order ByteOrder
	red   uint32
}

// Supported layouts mapped to the pixel format they represent in memory
var pixelLayouts = map[pixelLayout]PixelFormat{
	{bpp: 16, red: 0xf800, green: 0x07e0, blue: 0x001f, order: ByteOrderLSBFirst}:       PixelFormatRGB565LE,
	{bpp: 16, red: 0xf800, green: 0x07e0, blue: 0x001f, order: ByteOrderMSBFirst}:       PixelFormatRGB565BE,
	{bpp: 16, red: 0x7c00, green: 0x03e0, blue: 0x001f, order: ByteOrderLSBFirst}:       PixelFormatRGB555LE,
	{bpp: 16, red: 0x7c00, green: 0x03e0, blue: 0x001f, order: ByteOrderMSBFirst}:       PixelFormatRGB555BE,
	{bpp: 24, red: 0xff0000, green: 0x00ff00, blue: 0x0000ff, order: ByteOrderLSBFirst}: PixelFormatBGR24,
	{bpp: 24, red: 0xff0000, green: 0x00ff00, blue: 0x0000ff, order: ByteOrderMSBFirst}: PixelFormatRGB24,
	{bpp: 24, red: 0x0000ff, green: 0x00ff00, blue: 0xff0000, order: ByteOrderLSBFirst}: PixelFormatRGB24,
	{bpp: 24, red: 0x0000ff, green: 0x00ff00, blue: 0xff0000, order: ByteOrderMSBFirst}: PixelFormatBGR24,
	{bpp: 32, red: 0xff0000, green: 0x00ff00, blue: 0x0000ff, order: ByteOrderLSBFirst}: PixelFormatBGRA,
	{bpp: 32, red: 0xff0000, green: 0x00ff00, blue: 0x0000ff, order: ByteOrderMSBFirst}: PixelFormatARGB,
	{bpp: 32, red: 0x0000ff, green: 0x00ff00, blue: 0xff0000, order: ByteOrderLSBFirst}: PixelFormatRGBA,
	{bpp: 32, red: 0x0000ff, green: 0x00ff00, blue: 0xff0000, order: ByteOrderMSBFirst}: PixelFormatABGR,
}

// DetectPixelFormat returns the pixel format of a raw image without touching its data.
// 8 bits per pixel images with a palette are reported as PixelFormatPal8.
func DetectPixelFormat(i RawImage) (PixelFormat, error) {
	// Palette
	if i.BitsPerPixel == 8 {
		if len(i.Palette) == 0 {
			return PixelFormatNone, fmt.Errorf("astirecorder: 8 bits per pixel image has no palette: %w", ErrUnsupportedPixelFormat)
		}
		return PixelFormatPal8, nil
	}

	// Masks
	f, ok := pixelLayouts[pixelLayout{
		blue:  i.BlueMask,
		bpp:   i.BitsPerPixel,
		green: i.GreenMask,
		order: i.ByteOrder,
		red:   i.RedMask,
	}]
	if !ok {
		return PixelFormatNone, fmt.Errorf("astirecorder: %d bits per pixel with masks r=%#x g=%#x b=%#x: %w", i.BitsPerPixel, i.RedMask, i.GreenMask, i.BlueMask, ErrUnsupportedPixelFormat)
	}
	return f, nil
}

// Converter normalizes raw images into a canonical pixel format. Its palette
// expansion buffer is reused across calls, so a returned frame is only valid
// until the next call.
type Converter struct {
	buf []byte
}

// NewConverter creates a new converter
func NewConverter() *Converter {
	return &Converter{}
}

// Convert returns a frame in one of the canonical formats.
//
// Palette images are expanded to PixelFormatRGB24. Big endian 32 bits images whose
// blue channel comes before the red one (PixelFormatABGR) are swapped IN PLACE to
// PixelFormatARGB, which means i.Data is modified. Other formats are returned
// without copy.
func (c *Converter) Convert(i RawImage) (f *VideoFrame, err error) {
	// Detect format first so that nothing is allocated for unsupported images
	var pf PixelFormat
	if pf, err = DetectPixelFormat(i); err != nil {
		return
	}

	// Check dimensions
	if i.Width <= 0 || i.Height <= 0 {
		err = fmt.Errorf("astirecorder: invalid dimensions %dx%d: %w", i.Width, i.Height, ErrInvalidImage)
		return
	}

	// Check buffer
	stride := i.stride()
	bpp := i.BitsPerPixel / 8
	if stride < i.Width*bpp {
		err = fmt.Errorf("astirecorder: stride %d is smaller than row size %d: %w", stride, i.Width*bpp, ErrInvalidImage)
		return
	}
	if n := stride*(i.Height-1) + i.Width*bpp; len(i.Data) < n {
		err = fmt.Errorf("astirecorder: buffer size %d is smaller than %d: %w", len(i.Data), n, ErrInvalidImage)
		return
	}

	switch pf {
	case PixelFormatPal8:
		f = c.expandPalette(i, stride)
	case PixelFormatABGR:
		swapABGR(i, stride)
		f = wrapRawImage(i, PixelFormatARGB, stride)
	default:
		f = wrapRawImage(i, pf, stride)
	}
	return
}

func wrapRawImage(i RawImage, pf PixelFormat, stride int) *VideoFrame {
	return &VideoFrame{
		Format:  pf,
		Height:  i.Height,
		Planes:  [][]byte{i.Data},
		Strides: []int{stride},
		Width:   i.Width,
	}
}

// Row padding is dropped: the output stride is always Width * 3
func (c *Converter) expandPalette(i RawImage, stride int) *VideoFrame {
	// Make sure buffer is big enough
	dstStride := i.Width * 3
	if n := dstStride * i.Height; cap(c.buf) < n {
		c.buf = make([]byte, n)
	} else {
		c.buf = c.buf[:n]
	}

	// Loop through rows
	for y := 0; y < i.Height; y++ {
		src := i.Data[y*stride : y*stride+i.Width]
		dst := c.buf[y*dstStride : (y+1)*dstStride]
		for x, idx := range src {
			if int(idx) >= len(i.Palette) {
				dst[3*x], dst[3*x+1], dst[3*x+2] = 0, 0, 0
				continue
			}
			p := i.Palette[idx]
			dst[3*x], dst[3*x+1], dst[3*x+2] = p.R, p.G, p.B
		}
	}
	return &VideoFrame{
		Format:  PixelFormatRGB24,
		Height:  i.Height,
		Planes:  [][]byte{c.buf},
		Strides: []int{dstStride},
		Width:   i.Width,
	}
}

// A,B,G,R becomes A,R,G,B
func swapABGR(i RawImage, stride int) {
	for y := 0; y < i.Height; y++ {
		row := i.Data[y*stride : y*stride+i.Width*4]
		for x := 0; x < len(row); x += 4 {
			row[x+1], row[x+3] = row[x+3], row[x+1]
		}
	}
}
