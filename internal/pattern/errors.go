package pattern

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedChar     = errors.New("unimplemented pattern character")
	ErrNoOpenCapture       = errors.New("no capture to close")
	ErrUnclosedCapture     = errors.New("capture is never closed")
	ErrNestedCapture       = errors.New("nested captures are not supported")
	ErrEmptyCapture        = errors.New("capture encloses no bits")
	ErrPatternTooWide      = errors.New("pattern too wide")
	ErrInvalidAlternative  = errors.New("invalid pattern string")
	ErrTooManyAlternatives = errors.New("too many alternatives")
)

// Error reports a failure at a byte offset of a pattern string.
type Error struct {
	Pattern string
	Offset  int
	Err     error
}

func (e *Error) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("pattern %q: %v", e.Pattern, e.Err)
	}
	return fmt.Sprintf("pattern %q at offset %d: %v", e.Pattern, e.Offset, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(src string, offset int, err error) *Error {
	return &Error{Pattern: src, Offset: offset, Err: err}
}
