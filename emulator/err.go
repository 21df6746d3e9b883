package emulator

import (
	"errors"

	"github.com/ezrec/realmode/translate"
)

var f = translate.From

var (
	ErrFrameLimit = errors.New(f("frame limit reached"))
)

// ErrRuntime indicates the location of a hardware error.
type ErrRuntime struct {
	CS  uint16
	IP  uint16
	Err error
}

func (err *ErrRuntime) Error() string {
	return f("%04x:%04x %v", err.CS, err.IP, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrExit is a non-zero exit status of the guest.
type ErrExit uint8

func (err ErrExit) Error() string {
	return f("exit status %d", uint8(err))
}
