package astirecorder

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Rational is an exact fraction used for frame rates and time bases
type Rational struct {
	Num int
	Den int
}

// NewRational creates a new rational
func NewRational(num, den int) Rational {
	return Rational{Num: num, Den: den}
}

// ParseRational parses "num/den" or "num"
func ParseRational(s string) (r Rational, err error) {
	ps := strings.SplitN(strings.TrimSpace(s), "/", 2)
	if r.Num, err = strconv.Atoi(ps[0]); err != nil {
		err = fmt.Errorf("astirecorder: parsing numerator of %s failed: %w", s, err)
		return
	}
	r.Den = 1
	if len(ps) == 2 {
		if r.Den, err = strconv.Atoi(ps[1]); err != nil {
			err = fmt.Errorf("astirecorder: parsing denominator of %s failed: %w", s, err)
			return
		}
	}
	if !r.Valid() {
		err = fmt.Errorf("astirecorder: %s is not a valid rational", s)
		return
	}
	return
}

// Valid returns whether both terms are strictly positive
func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// Invert returns den/num
func (r Rational) Invert() Rational {
	return Rational{Num: r.Den, Den: r.Num}
}

// Float64 must only be used for display or synchronization comparisons
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return strconv.Itoa(r.Num) + "/" + strconv.Itoa(r.Den)
}

// Seconds converts a timestamp expressed in r into floating seconds
func (r Rational) Seconds(ts int64) float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(ts) * float64(r.Num) / float64(r.Den)
}

// RescaleQ rescales a timestamp from src to dst time base, rounding to the nearest
// value (halfway cases away from zero)
func RescaleQ(ts int64, src, dst Rational) int64 {
	if src == dst {
		return ts
	}

	// ts * src.Num * dst.Den / (src.Den * dst.Num) computed with big ints so that
	// large pts never overflow
	n := new(big.Int).Mul(big.NewInt(ts), big.NewInt(int64(src.Num)*int64(dst.Den)))
	d := big.NewInt(int64(src.Den) * int64(dst.Num))
	if d.Sign() == 0 {
		return 0
	}
	if d.Sign() < 0 {
		n.Neg(n)
		d.Neg(d)
	}

	// Round half away from zero
	h := new(big.Int).Rsh(d, 1)
	if n.Sign() >= 0 {
		n.Add(n, h)
	} else {
		n.Sub(n, h)
	}
	return new(big.Int).Quo(n, d).Int64()
}
