package astilibav

import (
	"errors"

	"github.com/asticode/go-astiav"
)

// isEagainOrEOF returns whether err only means no more output is available for now
func isEagainOrEOF(err error) bool {
	return errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof)
}
