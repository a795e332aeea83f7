package astirecorder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRational(t *testing.T) {
	r, err := ParseRational("30000/1001")
	require.NoError(t, err)
	require.Equal(t, NewRational(30000, 1001), r)
	r, err = ParseRational("25")
	require.NoError(t, err)
	require.Equal(t, NewRational(25, 1), r)
	_, err = ParseRational("25/0")
	require.Error(t, err)
	_, err = ParseRational("a/1")
	require.Error(t, err)
}

func TestRescaleQ(t *testing.T) {
	require.Equal(t, int64(40), RescaleQ(1, NewRational(1, 25), NewRational(1, 1000)))
	require.Equal(t, int64(3600), RescaleQ(1, NewRational(1, 25), NewRational(1, 90000)))
	require.Equal(t, int64(1), RescaleQ(1024, NewRational(1, 44100), NewRational(1, 25)))
	require.Equal(t, int64(-1), RescaleQ(-1024, NewRational(1, 44100), NewRational(1, 25)))
	require.Equal(t, int64(7), RescaleQ(7, NewRational(1, 25), NewRational(1, 25)))

	// Frame-exact over a long recording at NTSC rate
	tb := NewRational(1001, 30000)
	require.Equal(t, int64(1001*100000), RescaleQ(100000, tb, NewRational(1, 30000)))
}

func TestRationalSeconds(t *testing.T) {
	require.InDelta(t, 2.0, NewRational(1, 25).Seconds(50), 1e-9)
	require.InDelta(t, 0.0, Rational{}.Seconds(50), 1e-9)
	require.Equal(t, "1/25", NewRational(25, 1).Invert().String())
}
