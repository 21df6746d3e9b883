// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package hw

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/realmode/cpu"
	"github.com/ezrec/realmode/internal"
	"github.com/ezrec/realmode/process"
)

const (
	PORT_PIC_COMMAND = uint16(0x20) // Interrupt controller; end of interrupt is ignored.

	TICKS_PER_SECOND = 1_000_000 // Guest instructions per emulated second.

	DOS_VERSION = uint16(0x0005) // DOS 5.0, as AL.AH.
)

var _ process.Backend = (*Headless)(nil)

// Headless is a process.Backend with no display. Text output of the guest
// goes to Output, frames are kept in memory and optionally dumped as
// bitmaps to FrameDir.
type Headless struct {
	Verbose bool // Set to enable verbose logging.

	Output   io.Writer  // DOS console output. May be nil.
	Memory   cpu.Mapper // Guest memory, for services that take pointers.
	FrameDir string     // Directory for frame bitmaps. Empty to disable.

	Video    Video
	Keyboard Keyboard

	Frames    int    // Count of frames delivered.
	LastFrame []byte // Copy of the last frame delivered.

	Exited     bool  // Set when the guest requested exit.
	ExitStatus uint8 // Status of the exit request.

	Clock uint64 // Latest guest timestamp seen on a port access.

	errs []error
}

// NewHeadless returns a reset backend writing console output to output.
func NewHeadless(output io.Writer) (hl *Headless) {
	hl = &Headless{Output: output}
	hl.Reset()
	return
}

// Reset returns the hardware to its power-on state.
func (hl *Headless) Reset() {
	hl.Video.Reset()
	hl.Keyboard.Reset()
	hl.Frames = 0
	hl.LastFrame = nil
	hl.Exited = false
	hl.ExitStatus = 0
	hl.Clock = 0
	hl.errs = nil

	if hl.Verbose {
		log.Printf("hw: reset")
	}
}

// Err returns, and forgets, the errors raised by the services since the
// last call.
func (hl *Headless) Err() (err error) {
	err = errors.Join(hl.errs...)
	hl.errs = nil
	return
}

func (hl *Headless) fail(err error) {
	if hl.Verbose {
		log.Printf("hw: %v", err)
	}
	hl.errs = append(hl.errs, err)
}

// In reads a port.
func (hl *Headless) In(ticks uint64, port uint16) (value uint8) {
	hl.Clock = max(hl.Clock, ticks)

	if value, ok := hl.Video.in(ticks, port); ok {
		return value
	}
	if value, ok := hl.Keyboard.in(port); ok {
		return value
	}

	if hl.Verbose {
		log.Printf("hw: in 0x%04x unmapped", port)
	}
	value = 0xff
	return
}

// Out writes a port.
func (hl *Headless) Out(ticks uint64, port uint16, value uint8) {
	hl.Clock = max(hl.Clock, ticks)

	if hl.Video.out(port, value) {
		return
	}
	if port == PORT_PIC_COMMAND {
		return
	}

	if hl.Verbose {
		log.Printf("hw: out 0x%04x, 0x%02x unmapped", port, value)
	}
}

// Int10 provides the video services.
func (hl *Headless) Int10(regs cpu.Registers) cpu.Registers {
	switch regs.AH() {
	case 0x00: // Set video mode.
		hl.Video.Mode = regs.AL() & 0x7f
	case 0x0b: // Set border color; nothing to show.
	case 0x0f: // Get video mode.
		columns := uint8(80)
		if hl.Video.Mode == MODE_VGA {
			columns = 40
		}
		regs.SetAL(hl.Video.Mode)
		regs.SetAH(columns)
		regs.SetBH(0)
	case 0x10: // DAC services.
		switch regs.AL() {
		case 0x10: // Set one DAC register.
			hl.Video.Palette[regs.BL()] = [3]uint8{regs.DH() & 0x3f, regs.CH() & 0x3f, regs.CL() & 0x3f}
		case 0x15: // Get one DAC register.
			rgb := hl.Video.Palette[regs.BL()]
			regs.SetDH(rgb[0])
			regs.SetCH(rgb[1])
			regs.SetCL(rgb[2])
		default:
			hl.fail(ErrUnsupported{Vector: 0x10, Service: regs.AH()})
		}
	default:
		hl.fail(ErrUnsupported{Vector: 0x10, Service: regs.AH()})
	}

	return regs
}

// Int16 provides the keyboard services. Reads never block: an empty queue
// reads as a zero key.
func (hl *Headless) Int16(regs cpu.Registers) cpu.Registers {
	switch regs.AH() {
	case 0x00, 0x10: // Read key.
		key, _ := hl.Keyboard.Pop()
		regs.AX = key.Word()
	case 0x01, 0x11: // Check for key.
		key, ok := hl.Keyboard.Peek()
		if ok {
			regs.AX = key.Word()
			regs.ClearZF()
		} else {
			regs.SetZF()
		}
	case 0x02: // Shift flags.
		regs.SetAL(0)
	default:
		hl.fail(ErrUnsupported{Vector: 0x16, Service: regs.AH()})
	}

	return regs
}

// Int21 provides the DOS services.
func (hl *Headless) Int21(regs cpu.Registers) cpu.Registers {
	switch regs.AH() {
	case 0x00: // Terminate.
		hl.exit(0)
	case 0x01: // Read character with echo.
		key, _ := hl.Keyboard.Pop()
		regs.SetAL(key.ASCII)
		hl.write(key.ASCII)
	case 0x02: // Write character.
		hl.write(regs.DL())
	case 0x06: // Direct console I/O.
		if regs.DL() != 0xff {
			hl.write(regs.DL())
			break
		}
		key, ok := hl.Keyboard.Pop()
		regs.SetAL(key.ASCII)
		if ok {
			regs.ClearZF()
		} else {
			regs.SetZF()
		}
	case 0x09: // Write '$' terminated string.
		hl.writeString(regs.DS, regs.DX)
	case 0x0b: // Check input status.
		if _, ok := hl.Keyboard.Peek(); ok {
			regs.SetAL(0xff)
		} else {
			regs.SetAL(0x00)
		}
	case 0x2c: // Get time.
		hundredths := hl.Time()
		regs.SetCH(uint8(hundredths / 360000 % 24))
		regs.SetCL(uint8(hundredths / 6000 % 60))
		regs.SetDH(uint8(hundredths / 100 % 60))
		regs.SetDL(uint8(hundredths % 100))
	case 0x30: // Get version.
		regs.AX = DOS_VERSION
		regs.BX = 0
		regs.CX = 0
	case 0x4c: // Terminate with status.
		hl.exit(regs.AL())
	default:
		hl.fail(ErrUnsupported{Vector: 0x21, Service: regs.AH()})
		regs.SetCF()
		return regs
	}

	regs.ClearCF()
	return regs
}

// Time returns the guest clock in hundredths of a second.
func (hl *Headless) Time() uint64 {
	return hl.Clock / (TICKS_PER_SECOND / 100)
}

func (hl *Headless) exit(status uint8) {
	hl.Exited = true
	hl.ExitStatus = status
	if hl.Verbose {
		log.Printf("hw: exit(%d)", status)
	}
}

func (hl *Headless) write(c uint8) {
	if hl.Output == nil {
		return
	}
	hl.Output.Write([]byte{c})
}

func (hl *Headless) writeString(segment, offset uint16) {
	if hl.Memory == nil {
		hl.fail(ErrUnsupported{Vector: 0x21, Service: 0x09})
		return
	}

	base := hl.Memory.MemorySegment(segment)
	var text []byte
	for range process.SEGMENT_SIZE {
		c := cpu.Read8(base, offset)
		if c == '$' {
			break
		}
		text = append(text, c)
		offset++
	}

	if hl.Output != nil {
		hl.Output.Write(text)
	}
}

// Defines returns the hardware constants, for use in monitor expressions.
func (hl *Headless) Defines() iter.Seq2[string, string] {
	video := map[string]string{
		"SCREEN_WIDTH":  fmt.Sprintf("%d", SCREEN_WIDTH),
		"SCREEN_HEIGHT": fmt.Sprintf("%d", SCREEN_HEIGHT),
		"VIDEO_MODE":    fmt.Sprintf("0x%02x", hl.Video.Mode),
	}
	keyboard := map[string]string{
		"KEYS_QUEUED": fmt.Sprintf("%d", len(hl.Keyboard.Queue)),
	}

	return internal.IterSeq2Concat(maps.All(video), maps.All(keyboard))
}
