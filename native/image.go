package astinative

import (
	"fmt"
	"image"
	"image/color"

	"github.com/asticode/go-astirecorder"
)

// frameToRGBA writes f into dst which must have f's dimensions. Alpha is
// ignored since captured images are opaque.
func frameToRGBA(f *astirecorder.VideoFrame, dst *image.RGBA) error {
	// Planar formats
	switch f.Format {
	case astirecorder.PixelFormatYUV420P, astirecorder.PixelFormatYUVJ420P, astirecorder.PixelFormatYUV422P:
		return yuvToRGBA(f, dst)
	}

	// Get pixel reader
	read, ok := pixelReaders[f.Format]
	if !ok {
		return fmt.Errorf("astinative: reading %s is not supported: %w", f.Format, astirecorder.ErrUnsupportedPixelFormat)
	}

	// Loop through rows
	bpp := f.Format.BytesPerPixel()
	for y := 0; y < f.Height; y++ {
		src := f.Planes[0][y*f.Strides[0] : y*f.Strides[0]+f.Width*bpp]
		row := dst.Pix[y*dst.Stride : y*dst.Stride+f.Width*4]
		for x := 0; x < f.Width; x++ {
			row[4*x], row[4*x+1], row[4*x+2] = read(src[x*bpp : (x+1)*bpp])
			row[4*x+3] = 0xff
		}
	}
	return nil
}

type pixelReader func(b []byte) (r, g, bl uint8)

var pixelReaders = map[astirecorder.PixelFormat]pixelReader{
	astirecorder.PixelFormatRGB24:    func(b []byte) (uint8, uint8, uint8) { return b[0], b[1], b[2] },
	astirecorder.PixelFormatBGR24:    func(b []byte) (uint8, uint8, uint8) { return b[2], b[1], b[0] },
	astirecorder.PixelFormatARGB:     func(b []byte) (uint8, uint8, uint8) { return b[1], b[2], b[3] },
	astirecorder.PixelFormatRGBA:     func(b []byte) (uint8, uint8, uint8) { return b[0], b[1], b[2] },
	astirecorder.PixelFormatABGR:     func(b []byte) (uint8, uint8, uint8) { return b[3], b[2], b[1] },
	astirecorder.PixelFormatBGRA:     func(b []byte) (uint8, uint8, uint8) { return b[2], b[1], b[0] },
	astirecorder.PixelFormatRGB565LE: func(b []byte) (uint8, uint8, uint8) { return rgb565(uint16(b[0]) | uint16(b[1])<<8) },
	astirecorder.PixelFormatRGB565BE: func(b []byte) (uint8, uint8, uint8) { return rgb565(uint16(b[0])<<8 | uint16(b[1])) },
	astirecorder.PixelFormatRGB555LE: func(b []byte) (uint8, uint8, uint8) { return rgb555(uint16(b[0]) | uint16(b[1])<<8) },
	astirecorder.PixelFormatRGB555BE: func(b []byte) (uint8, uint8, uint8) { return rgb555(uint16(b[0])<<8 | uint16(b[1])) },
}

func rgb565(v uint16) (r, g, b uint8) {
	r = uint8(v>>11) & 0x1f
	g = uint8(v>>5) & 0x3f
	b = uint8(v) & 0x1f
	return r<<3 | r>>2, g<<2 | g>>4, b<<3 | b>>2
}

func rgb555(v uint16) (r, g, b uint8) {
	r = uint8(v>>10) & 0x1f
	g = uint8(v>>5) & 0x1f
	b = uint8(v) & 0x1f
	return r<<3 | r>>2, g<<3 | g>>2, b<<3 | b>>2
}

func yuvToRGBA(f *astirecorder.VideoFrame, dst *image.RGBA) error {
	ratio := image.YCbCrSubsampleRatio420
	if f.Format == astirecorder.PixelFormatYUV422P {
		ratio = image.YCbCrSubsampleRatio422
	}
	src := &image.YCbCr{
		Y:              f.Planes[0],
		Cb:             f.Planes[1],
		Cr:             f.Planes[2],
		YStride:        f.Strides[0],
		CStride:        f.Strides[1],
		SubsampleRatio: ratio,
		Rect:           image.Rect(0, 0, f.Width, f.Height),
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			dst.SetRGBA(x, y, color.RGBAModel.Convert(src.YCbCrAt(x, y)).(color.RGBA))
		}
	}
	return nil
}

// rgbaToFrame converts src into format, reusing buf when it is big enough
func rgbaToFrame(src *image.RGBA, format astirecorder.PixelFormat, buf []byte) (f *astirecorder.VideoFrame, err error) {
	// Make sure buffer is big enough
	w, h := src.Rect.Dx(), src.Rect.Dy()
	var n int
	for p := 0; p < format.NumPlanes(); p++ {
		rowSize, rows := format.PlaneDimensions(p, w, h)
		n += rowSize * rows
	}
	if cap(buf) < n {
		buf = make([]byte, n)
	}
	buf = buf[:n]

	// Convert
	switch format {
	case astirecorder.PixelFormatRGB24, astirecorder.PixelFormatBGR24:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w*4]
			dst := buf[y*w*3 : (y+1)*w*3]
			for x := 0; x < w; x++ {
				if format == astirecorder.PixelFormatRGB24 {
					dst[3*x], dst[3*x+1], dst[3*x+2] = row[4*x], row[4*x+1], row[4*x+2]
				} else {
					dst[3*x], dst[3*x+1], dst[3*x+2] = row[4*x+2], row[4*x+1], row[4*x]
				}
			}
		}
	case astirecorder.PixelFormatRGBA:
		for y := 0; y < h; y++ {
			copy(buf[y*w*4:(y+1)*w*4], src.Pix[y*src.Stride:y*src.Stride+w*4])
		}
	case astirecorder.PixelFormatYUVJ420P:
		rgbaToYUVJ420P(src, buf)
	default:
		err = fmt.Errorf("astinative: writing %s is not supported: %w", format, astirecorder.ErrUnsupportedPixelFormat)
		return
	}
	return astirecorder.NewVideoFrame(format, w, h, buf)
}

// Chroma is computed on the average color of each 2x2 block
func rgbaToYUVJ420P(src *image.RGBA, buf []byte) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	cw, ch := (w+1)/2, (h+1)/2
	ys, cbs, crs := buf[:w*h], buf[w*h:w*h+cw*ch], buf[w*h+cw*ch:w*h+2*cw*ch]

	// Luma
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*src.Stride + 4*x
			ys[y*w+x], _, _ = color.RGBToYCbCr(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
		}
	}

	// Chroma
	for cy := 0; cy < ch; cy++ {
		for cx := 0; cx < cw; cx++ {
			var r, g, b, n int
			for y := 2 * cy; y < 2*cy+2 && y < h; y++ {
				for x := 2 * cx; x < 2*cx+2 && x < w; x++ {
					i := y*src.Stride + 4*x
					r += int(src.Pix[i])
					g += int(src.Pix[i+1])
					b += int(src.Pix[i+2])
					n++
				}
			}
			_, cbs[cy*cw+cx], crs[cy*cw+cx] = color.RGBToYCbCr(uint8(r/n), uint8(g/n), uint8(b/n))
		}
	}
}
