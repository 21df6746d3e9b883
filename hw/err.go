package hw

import (
	"errors"

	"github.com/ezrec/realmode/translate"
)

var f = translate.From

var (
	// Frame errors
	ErrFrameSize = errors.New(f("framebuffer size invalid"))
	ErrNoFrame   = errors.New(f("no frame captured"))

	// Service errors
	ErrService = errors.New(f("interrupt service unsupported"))
)

// ErrUnsupported names an interrupt service the backend does not provide.
type ErrUnsupported struct {
	Vector  uint8
	Service uint8
}

func (err ErrUnsupported) Error() string {
	return f("int %02xh service %02xh unsupported", err.Vector, err.Service)
}

func (err ErrUnsupported) Is(target error) bool {
	return target == ErrService
}
