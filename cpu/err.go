package cpu

import (
	"errors"
	"path/filepath"
	"runtime"

	"github.com/ezrec/realmode/translate"
)

var f = translate.From

var (
	// Virtual stack errors
	ErrStackEmpty    = errors.New(f("stack empty"))
	ErrStackFull     = errors.New(f("stack full"))
	ErrStackTag      = errors.New(f("stack tag mismatch"))
	ErrStackSentinel = errors.New(f("return marker sentinel mismatch"))
)

// ErrTag describes a pop that found a slot of the wrong kind.
type ErrTag struct {
	Want SlotTag
	Have SlotTag
}

func (err ErrTag) Error() string {
	return f("pop %v found %v", err.Want, err.Have)
}

func (err ErrTag) Is(target error) bool {
	return target == ErrStackTag
}

// ErrSentinel describes a return marker restored from the wrong word.
type ErrSentinel struct {
	Want uint16
	Have uint16
}

func (err ErrSentinel) Error() string {
	return f("restore return marker 0x%04x, found 0x%04x", err.Want, err.Have)
}

func (err ErrSentinel) Is(target error) bool {
	return target == ErrStackSentinel
}

// Fault is an unrecoverable runtime invariant violation, with the
// location of the translated code that caused it.
type Fault struct {
	File string
	Line int
	Err  error
}

func (err *Fault) Error() string {
	return f("fatal %v:%d %v", err.File, err.Line, err.Err)
}

func (err *Fault) Unwrap() error {
	return err.Err
}

// Fatal raises a Fault for err, located at the caller of the function that
// invoked Fatal. Faults are never recovered by the runtime; left alone they
// terminate the host process with the diagnostic.
func Fatal(err error) {
	panic(NewFault(2, err))
}

// NewFault builds a Fault located skip frames above its caller.
func NewFault(skip int, err error) (fault *Fault) {
	fault = &Fault{Err: err, File: "?"}
	_, file, line, ok := runtime.Caller(skip + 1)
	if ok {
		fault.File = filepath.Base(file)
		fault.Line = line
	}
	return
}

// AsFault reports whether a recovered panic value is a Fault.
func AsFault(r any) (fault *Fault, ok bool) {
	fault, ok = r.(*Fault)
	return
}
