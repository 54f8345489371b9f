package h5lite

import (
	"path/filepath"
	"runtime"

	"github.com/dream3d/h5support/diag"
)

// op tracks the steps of one public operation. Steps record failures and
// keep going; cleanup always runs; end turns the record into an *Error.
type op struct {
	name     string
	object   string
	file     string
	line     int
	failures []Failure
}

// begin starts an operation. It must be called directly from the exported
// function so that the recorded location is that function's caller.
func begin(name, object string) *op {
	o := &op{name: name, object: object}
	if _, file, line, ok := runtime.Caller(2); ok {
		o.file, o.line = filepath.Base(file), line
	}
	return o
}

func (o *op) fail(step string, code Code, err error) {
	o.failures = append(o.failures, Failure{Step: step, Code: code, Err: err})
}

func (o *op) failed() bool { return len(o.failures) > 0 }

// close releases a handle the operation opened, recording a failure.
func (o *op) close(step string, c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		o.fail(step, CloseFailed, err)
	}
}

// end reports and returns the operation's error, or nil.
func (o *op) end() error {
	if !o.failed() {
		return nil
	}
	first := o.failures[0]
	e := &Error{Op: o.name, Object: o.object, Code: first.Code, Err: first.Err, Failures: o.failures}
	for _, f := range o.failures {
		diag.Errorf("h5lite: %s %q: %s: %s: %v (%s:%d)", o.name, o.object, f.Code.String(), f.Step, f.Err, o.file, o.line)
	}
	return e
}
