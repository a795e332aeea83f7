package main

import "github.com/asticode/go-astirecorder"

// pattern is a BGRA test card made of vertical color bars and a moving white
// line
type pattern struct {
	b []byte
	h int
	n int
	w int
}

var patternBars = [][3]byte{
	{0xff, 0xff, 0xff},
	{0xff, 0xff, 0x00},
	{0x00, 0xff, 0xff},
	{0x00, 0xff, 0x00},
	{0xff, 0x00, 0xff},
	{0xff, 0x00, 0x00},
	{0x00, 0x00, 0xff},
}

func newPattern(w, h int) *pattern {
	return &pattern{
		b: make([]byte, w*h*4),
		h: h,
		w: w,
	}
}

func (p *pattern) next() astirecorder.RawImage {
	line := p.n % p.h
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			c := patternBars[x*len(patternBars)/p.w]
			if y == line {
				c = [3]byte{0xff, 0xff, 0xff}
			}
			i := 4 * (y*p.w + x)
			p.b[i], p.b[i+1], p.b[i+2], p.b[i+3] = c[2], c[1], c[0], 0xff
		}
	}
	p.n++
	return astirecorder.RawImage{
		BitsPerPixel: 32,
		BlueMask:     0xff,
		ByteOrder:    astirecorder.ByteOrderLSBFirst,
		Data:         p.b,
		GreenMask:    0xff00,
		Height:       p.h,
		RedMask:      0xff0000,
		Width:        p.w,
	}
}
