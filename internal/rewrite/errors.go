package rewrite

import (
	"errors"
	"fmt"
	"go/token"
)

var (
	ErrNoTag            = errors.New("marked switch has no tag")
	ErrArityMismatch    = errors.New("tuple pattern arity does not match the switch tag")
	ErrTupleSubject     = errors.New("pattern literal used against a tuple tag")
	ErrInvalidName      = errors.New("capture name is not a valid Go identifier")
	ErrNoIntegerType    = errors.New("capture is wider than the widest Go integer")
	ErrStrayDirective   = errors.New("bitpat:match must precede a switch statement")
	ErrStrayScan        = errors.New("bitpat:scan must be part of a function doc comment")
	ErrUnknownDirective = errors.New("unknown bitpat directive")
	ErrOutsideScan      = errors.New("marked switch is not inside a bitpat:scan function")
	ErrUnhandledPattern = errors.New("pattern literal in a case the rewriter leaves untouched")
)

// Error locates a rewrite failure in the source.
type Error struct {
	Pos      token.Pos
	End      token.Pos
	Position token.Position
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Position, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (r *Rewriter) errorAt(pos, end token.Pos, err error) *Error {
	return &Error{Pos: pos, End: end, Position: r.fset.Position(pos), Err: err}
}
