package astirecorder

// PixelFormat represents the in-memory layout of an image
type PixelFormat int

// Pixel formats. Packed formats are named after their byte order in memory.
const (
	PixelFormatNone PixelFormat = iota
	PixelFormatPal8
	PixelFormatRGB565LE
	PixelFormatRGB565BE
	PixelFormatRGB555LE
	PixelFormatRGB555BE
	PixelFormatRGB24
	PixelFormatBGR24
	PixelFormatARGB
	PixelFormatRGBA
	PixelFormatABGR
	PixelFormatBGRA
	PixelFormatYUV420P
	PixelFormatYUVJ420P
	PixelFormatYUV422P
)

var pixelFormatNames = map[PixelFormat]string{
	PixelFormatNone:     "none",
	PixelFormatPal8:     "pal8",
	PixelFormatRGB565LE: "rgb565le",
	PixelFormatRGB565BE: "rgb565be",
	PixelFormatRGB555LE: "rgb555le",
	PixelFormatRGB555BE: "rgb555be",
	PixelFormatRGB24:    "rgb24",
	PixelFormatBGR24:    "bgr24",
	PixelFormatARGB:     "argb",
	PixelFormatRGBA:     "rgba",
	PixelFormatABGR:     "abgr",
	PixelFormatBGRA:     "bgra",
	PixelFormatYUV420P:  "yuv420p",
	PixelFormatYUVJ420P: "yuvj420p",
	PixelFormatYUV422P:  "yuv422p",
}

func (f PixelFormat) String() string {
	if n, ok := pixelFormatNames[f]; ok {
		return n
	}
	return "unknown"
}

// BytesPerPixel returns the size of a pixel of a packed format, 0 for planar ones
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatPal8:
		return 1
	case PixelFormatRGB565LE, PixelFormatRGB565BE, PixelFormatRGB555LE, PixelFormatRGB555BE:
		return 2
	case PixelFormatRGB24, PixelFormatBGR24:
		return 3
	case PixelFormatARGB, PixelFormatRGBA, PixelFormatABGR, PixelFormatBGRA:
		return 4
	default:
		return 0
	}
}

// Planar returns whether the format stores components in separate planes
func (f PixelFormat) Planar() bool {
	switch f {
	case PixelFormatYUV420P, PixelFormatYUVJ420P, PixelFormatYUV422P:
		return true
	}
	return false
}

// NumPlanes returns the number of planes of the format
func (f PixelFormat) NumPlanes() int {
	if f.Planar() {
		return 3
	}
	return 1
}

// PlaneDimensions returns the size in bytes of a row of plane p and its number
// of rows, without padding
func (f PixelFormat) PlaneDimensions(p, width, height int) (rowSize, rows int) {
	// Packed
	if !f.Planar() {
		return width * f.BytesPerPixel(), height
	}

	// Luma
	if p == 0 {
		return width, height
	}

	// Chroma
	rowSize = (width + 1) / 2
	rows = height
	if f != PixelFormatYUV422P {
		rows = (height + 1) / 2
	}
	return
}
