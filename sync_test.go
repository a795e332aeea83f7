package astirecorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMaySendAudio(t *testing.T) {
	require.True(t, MaySendAudio(0, 0.04))
	require.False(t, MaySendAudio(0.04, 0.04))
	require.False(t, MaySendAudio(1, 0.5))
	require.False(t, MaySendAudio(0, 0))
}

func TestClock(t *testing.T) {
	c := newClock(NewRational(1, 22050))
	require.Equal(t, 0.0, c.Seconds())
	c.set(11025)
	require.Equal(t, 0.5, c.Seconds())
	c.set(22050)
	require.Equal(t, 1.0, c.Seconds())
	require.Equal(t, int64(22050), c.Pts())
}

func TestPauser(t *testing.T) {
	p := newPauser()

	// Not paused
	require.True(t, p.wait())

	// Resume wakes waiters up
	require.True(t, p.pause())
	require.False(t, p.pause())
	done := make(chan bool)
	go func() { done <- p.wait() }()
	select {
	case <-done:
		t.Fatal("wait should block while paused")
	case <-time.After(50 * time.Millisecond):
	}
	require.True(t, p.resume())
	require.True(t, <-done)

	// Stop wakes waiters up
	p.pause()
	go func() { done <- p.wait() }()
	time.Sleep(10 * time.Millisecond)
	p.stop()
	select {
	case ok := <-done:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("wait should return once stopped")
	}
	require.False(t, p.wait())
}
