package h5lite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dream3d/h5support/hdf5"
)

// Code classifies a failure. Every failure code is negative; OK is zero.
// Codes implement error so that errors.Is(err, h5lite.NotFound) works
// against any *Error.
type Code int

const (
	OK              Code = 0
	OpenFailed      Code = -100
	CreateFailed    Code = -200
	NotFound        Code = -300
	UnsupportedType Code = -400
	ShapeMismatch   Code = -500
	IOError         Code = -600
	TypeMismatch    Code = -700
	InvalidArgument Code = -800
	CloseFailed     Code = -900
)

var codeNames = map[Code]string{
	OK:              "ok",
	OpenFailed:      "open failed",
	CreateFailed:    "create failed",
	NotFound:        "not found",
	UnsupportedType: "unsupported type",
	ShapeMismatch:   "shape mismatch",
	IOError:         "i/o error",
	TypeMismatch:    "type mismatch",
	InvalidArgument: "invalid argument",
	CloseFailed:     "close failed",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("code(%d)", int(c))
}

func (c Code) Error() string { return "h5lite: " + c.String() }

// Sentinels for errors.Is.
var (
	ErrOpenFailed      error = OpenFailed
	ErrCreateFailed    error = CreateFailed
	ErrNotFound        error = NotFound
	ErrUnsupportedType error = UnsupportedType
	ErrShapeMismatch   error = ShapeMismatch
	ErrIOError         error = IOError
	ErrTypeMismatch    error = TypeMismatch
	ErrInvalidArgument error = InvalidArgument
	ErrCloseFailed     error = CloseFailed
)

// ErrUnknownName is wrapped by TagForName for names with no type tag.
var ErrUnknownName = errors.New("unknown type name")

// Failure is one failed step of an operation.
type Failure struct {
	Step string
	Code Code
	Err  error
}

func (f Failure) String() string {
	return fmt.Sprintf("%s: %s: %v", f.Step, f.Code.String(), f.Err)
}

// Error is the failure of one h5lite operation. Code and Err come from the
// first step that failed; Failures lists every failed step in order,
// cleanup steps included.
type Error struct {
	Op       string
	Object   string
	Code     Code
	Err      error
	Failures []Failure
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "h5lite: %s %q: %s: %v", e.Op, e.Object, e.Code.String(), e.Err)
	if n := len(e.Failures) - 1; n > 0 {
		fmt.Fprintf(&b, " (and %d more: ", n)
		for i, f := range e.Failures[1:] {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(f.String())
		}
		b.WriteString(")")
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the Code sentinels.
func (e *Error) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.Code
}

// Status returns the integer status of err: 0 for nil, the code of an
// *Error or Code, and IOError for anything else.
func Status(err error) int {
	if err == nil {
		return int(OK)
	}
	var e *Error
	if errors.As(err, &e) {
		return int(e.Code)
	}
	var c Code
	if errors.As(err, &c) {
		return int(c)
	}
	return int(IOError)
}

// codeFor classifies an engine error returned while performing an
// operation whose generic failure class is def.
func codeFor(err error, def Code) Code {
	switch {
	case errors.Is(err, hdf5.ErrNotFound):
		if def == OpenFailed {
			return NotFound
		}
	case errors.Is(err, hdf5.ErrExists):
		return CreateFailed
	case errors.Is(err, hdf5.ErrTypeMismatch):
		return TypeMismatch
	case errors.Is(err, hdf5.ErrSizeMismatch), errors.Is(err, hdf5.ErrInvalidShape):
		return ShapeMismatch
	case errors.Is(err, hdf5.ErrInvalidPath):
		return InvalidArgument
	}
	return def
}
