package process

import (
	"errors"

	"github.com/ezrec/realmode/translate"
)

var f = translate.From

var (
	// Protocol errors
	ErrNotExecuted     = errors.New(f("run before exec"))
	ErrHaltOutsideRun  = errors.New(f("halt outside of run"))
	ErrReentrant       = errors.New(f("run or exec from translated code"))
	ErrNotHalted       = errors.New(f("process not halted"))
	ErrProgramReturned = errors.New(f("translated program returned"))
	ErrHaltCode        = errors.New(f("halt code invalid"))
	ErrInFlightCall    = errors.New(f("image taken inside a translated call"))
	ErrGuestPanic      = errors.New(f("translated code panicked"))

	// Translation errors
	ErrDynamicBranch  = errors.New(f("dynamic branch unresolved"))
	ErrAddressUnknown = errors.New(f("address unknown"))
)

// ErrBranch locates a computed jump or call the translator did not resolve.
type ErrBranch struct {
	CS    uint16
	IP    uint16
	Value uint16
}

func (err ErrBranch) Error() string {
	return f("%04x:%04x dynamic branch to 0x%04x unresolved", err.CS, err.IP, err.Value)
}

func (err ErrBranch) Is(target error) bool {
	return target == ErrDynamicBranch
}

// ErrAddress is a well-known address the program does not provide.
type ErrAddress AddressId

func (err ErrAddress) Error() string {
	return f("address %v unknown", AddressId(err))
}

func (err ErrAddress) Is(target error) bool {
	return target == ErrAddressUnknown
}
