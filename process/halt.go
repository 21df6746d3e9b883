package process

import (
	"fmt"
)

// HaltCode is the reason translated code returned control to the driver.
// The upper byte is the kind; for HALT_EXIT the lower byte is the exit
// status of the guest.
type HaltCode uint16

const (
	HALT_EXIT     = HaltCode(0x0000) // Guest requested exit.
	HALT_FRAME    = HaltCode(0x0100) // Guest finished one displayable frame.
	HALT_ROOM     = HaltCode(0x0200) // Guest is about to read a room identifier.
	HALT_KEYBOARD = HaltCode(0x0300) // Guest is about to poll the keyboard.

	HALT_KIND_MASK   = HaltCode(0xff00) // Mask of the halt kind.
	HALT_STATUS_MASK = HaltCode(0x00ff) // Mask of the exit status.
)

// HaltExit returns the exit halt code for a status.
func HaltExit(status uint8) HaltCode {
	return HALT_EXIT | HaltCode(status)
}

// Kind returns the halt kind, without the exit status.
func (hc HaltCode) Kind() HaltCode {
	return hc & HALT_KIND_MASK
}

// Status returns the exit status of a HALT_EXIT code.
func (hc HaltCode) Status() uint8 {
	return uint8(hc & HALT_STATUS_MASK)
}

// Valid is true if the halt code is one of the closed set.
func (hc HaltCode) Valid() bool {
	switch hc.Kind() {
	case HALT_EXIT:
		return true
	case HALT_FRAME, HALT_ROOM, HALT_KEYBOARD:
		return hc.Status() == 0
	}
	return false
}

func (hc HaltCode) String() string {
	if !hc.Valid() {
		return fmt.Sprintf("HaltCode(0x%04x)", uint16(hc))
	}

	switch hc.Kind() {
	case HALT_FRAME:
		return "frame"
	case HALT_ROOM:
		return "room"
	case HALT_KEYBOARD:
		return "keyboard"
	}

	return fmt.Sprintf("exit(%d)", hc.Status())
}
