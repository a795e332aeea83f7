package astirecorder

import (
	"sync"
	"sync/atomic"
)

// MaySendAudio returns whether the audio unit may emit its next chunk.
// Both cursors are expressed in seconds and must be computed right before the call.
func MaySendAudio(audioPts, videoPts float64) bool {
	return audioPts < videoPts
}

// GateFunc is called every time the audio unit checks the gate
type GateFunc func(audioPts, videoPts float64, open bool)

// Clock is a stream presentation time cursor expressed in its stream time base
type Clock struct {
	pts int64
	tb  Rational
}

func newClock(tb Rational) *Clock {
	return &Clock{tb: tb}
}

// Pts returns the cursor in the clock time base
func (c *Clock) Pts() int64 {
	return atomic.LoadInt64(&c.pts)
}

func (c *Clock) set(pts int64) {
	atomic.StoreInt64(&c.pts, pts)
}

// Seconds is computed from the current cursor on every call
func (c *Clock) Seconds() float64 {
	return c.tb.Seconds(c.Pts())
}

// TimeBase returns the clock time base
func (c *Clock) TimeBase() Rational {
	return c.tb
}

// pauser is a condition that can be waited on while paused. Stopping it wakes
// every waiter up for good.
type pauser struct {
	c       *sync.Cond
	m       *sync.Mutex
	paused  bool
	stopped bool
}

func newPauser() *pauser {
	m := &sync.Mutex{}
	return &pauser{
		c: sync.NewCond(m),
		m: m,
	}
}

func (p *pauser) pause() (changed bool) {
	p.m.Lock()
	defer p.m.Unlock()
	if p.paused || p.stopped {
		return
	}
	p.paused = true
	return true
}

func (p *pauser) resume() (changed bool) {
	p.m.Lock()
	defer p.m.Unlock()
	if !p.paused {
		return
	}
	p.paused = false
	p.c.Broadcast()
	return true
}

func (p *pauser) stop() {
	p.m.Lock()
	defer p.m.Unlock()
	p.stopped = true
	p.c.Broadcast()
}

func (p *pauser) isPaused() bool {
	p.m.Lock()
	defer p.m.Unlock()
	return p.paused
}

// wait blocks while paused and returns false once stopped
func (p *pauser) wait() bool {
	p.m.Lock()
	defer p.m.Unlock()
	for p.paused && !p.stopped {
		p.c.Wait()
	}
	return !p.stopped
}
