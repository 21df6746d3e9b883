// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"io"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/realmode/hw"
	"github.com/ezrec/realmode/internal"
	"github.com/ezrec/realmode/monitor"
	"github.com/ezrec/realmode/process"
	"github.com/ezrec/realmode/snapshot"
)

var _emulator_defines = map[string]string{
	"HALT_EXIT":     fmt.Sprintf("%#x", uint16(process.HALT_EXIT)),
	"HALT_FRAME":    fmt.Sprintf("%#x", uint16(process.HALT_FRAME)),
	"HALT_ROOM":     fmt.Sprintf("%#x", uint16(process.HALT_ROOM)),
	"HALT_KEYBOARD": fmt.Sprintf("%#x", uint16(process.HALT_KEYBOARD)),
}

// Emulator state. Process + headless hardware.
type Emulator struct {
	Verbose          bool         // If set, enables verbose logging.
	*process.Process              // Reference to the guest process.
	Backend          *hw.Headless // Host hardware.

	Rooms     []uint16    // Rooms to enter, in order, at room halts.
	Keys      <-chan byte // Keys to type at keyboard halts. May be nil.
	MaxFrames int         // Frames to run before stopping, or 0 for no limit.

	Frames int // Frames delivered since the last reset.
}

// NewEmulator creates a new emulator for a translated program, with its
// console output to output.
func NewEmulator(program process.Program, output io.Writer) (emu *Emulator) {
	emu = &Emulator{
		Backend: hw.NewHeadless(output),
	}
	emu.Process = process.NewProcess(program, emu.Backend)
	emu.Backend.Memory = emu.Process

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Process.Defines(),
		emu.Backend.Defines(),
	)
}

// Close the emulator
func (emu *Emulator) Close() (err error) {
	err = emu.Process.Close()

	return
}

// Reset the hardware, and execute the program from its entry point.
func (emu *Emulator) Reset(args string) (err error) {
	emu.Process.Verbose = emu.Verbose
	emu.Backend.Verbose = emu.Verbose

	emu.Backend.Reset()
	emu.Process.Exec(args)
	emu.Frames = 0

	return
}

// Monitor returns a command monitor over the emulator.
func (emu *Emulator) Monitor(output io.Writer) (mon *monitor.Monitor) {
	mon = monitor.NewMonitor(emu.Process, output)
	mon.Verbose = emu.Verbose
	mon.Defines = emu.Defines
	return
}

// Save returns a save state of the halted process.
func (emu *Emulator) Save() (data []byte, err error) {
	return snapshot.Save(emu.Process)
}

// Load restores the halted process from a save state.
func (emu *Emulator) Load(data []byte) (err error) {
	err = snapshot.Load(emu.Process, data)
	return
}

// Step runs the guest to its next halt, and services the halt.
// Faults raised by the guest are not recovered.
func (emu *Emulator) Step() (done bool, err error) {
	emu.Process.Verbose = emu.Verbose
	emu.Backend.Verbose = emu.Verbose

	code := emu.Process.Run()

	defer func() {
		if err == nil {
			err = emu.Backend.Err()
		}
		if err != nil {
			err = &ErrRuntime{CS: emu.Regs.CS, IP: emu.Regs.IP, Err: err}
		}
	}()

	switch code.Kind() {
	case process.HALT_EXIT:
		done = true
		if code.Status() != 0 {
			err = ErrExit(code.Status())
		}
	case process.HALT_FRAME:
		emu.Frames++
		if emu.MaxFrames > 0 && emu.Frames >= emu.MaxFrames {
			done = true
			err = ErrFrameLimit
		}
	case process.HALT_ROOM:
		if len(emu.Rooms) == 0 {
			break
		}
		room := emu.Rooms[0]
		emu.Rooms = emu.Rooms[1:]
		segment, offset := emu.GetAddress(process.ADDRESS_ROOM)
		emu.Poke16(segment, offset, room)
		if emu.Verbose {
			log.Printf("emulator: room %d", room)
		}
	case process.HALT_KEYBOARD:
		emu.pumpKeys()
	}

	return
}

// pumpKeys types the keys that are waiting, without blocking.
func (emu *Emulator) pumpKeys() {
	if emu.Keys == nil {
		return
	}

	for {
		select {
		case c, ok := <-emu.Keys:
			if !ok {
				emu.Keys = nil
				return
			}
			emu.Backend.Keyboard.Push(hw.KeyOf(c))
		default:
			return
		}
	}
}

// RunToExit steps the emulator until the guest exits or an error occurs.
func (emu *Emulator) RunToExit() (err error) {
	for done := false; !done; {
		done, err = emu.Step()
		if err != nil {
			return
		}
	}
	return
}
