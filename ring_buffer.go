package astirecorder

// ringBuffer is a growable circular buffer of interleaved samples
type ringBuffer struct {
	b    []int16
	head int
	n    int
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{b: make([]int16, capacity)}
}

// Len returns the number of buffered samples
func (r *ringBuffer) Len() int { return r.n }

func (r *ringBuffer) Write(s []int16) {
	// Grow
	if r.n+len(s) > len(r.b) {
		c := 2 * len(r.b)
		for c < r.n+len(s) {
			c *= 2
		}
		b := make([]int16, c)
		r.copyTo(b, r.n)
		r.b = b
		r.head = 0
	}

	// Copy
	tail := (r.head + r.n) % len(r.b)
	k := copy(r.b[tail:], s)
	copy(r.b, s[k:])
	r.n += len(s)
}

// Read drains exactly n samples and returns false if not enough are buffered
func (r *ringBuffer) Read(n int) ([]int16, bool) {
	if n <= 0 || n > r.n {
		return nil, false
	}
	s := make([]int16, n)
	r.copyTo(s, n)
	r.head = (r.head + n) % len(r.b)
	r.n -= n
	return s, true
}

// ReadAll drains every buffered sample
func (r *ringBuffer) ReadAll() []int16 {
	if r.n == 0 {
		return nil
	}
	s, _ := r.Read(r.n)
	return s
}

func (r *ringBuffer) copyTo(dst []int16, n int) {
	k := copy(dst[:n], r.b[r.head:min(r.head+n, len(r.b))])
	copy(dst[k:n], r.b)
}

func (r *ringBuffer) Reset() {
	r.head = 0
	r.n = 0
}
