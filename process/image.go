package process

import (
	"log"

	"github.com/ezrec/realmode/cpu"
)

// Image is a copy of the data of a halted process. It holds no
// continuation: a restored process re-enters its program at the image's
// CS:IP.
type Image struct {
	Regs   cpu.Registers
	Stack  cpu.Stack
	Memory []byte // Program memory, PROGRAM_SIZE bytes.
	Args   string
	Ticks  uint64
	Exited bool     // Set if the process had exited.
	Last   HaltCode // Last halt code.
}

// Resumable reports whether a process can be restored from the image.
// Return markers and saved return sentinels stand for native frames of
// translated calls, which an image does not carry, so an image taken
// inside a translated call only restores once it has exited.
func (img *Image) Resumable() bool {
	if img.Exited {
		return true
	}
	if img.Stack.Saved != 0 {
		return false
	}
	for _, slot := range img.Stack.Slots() {
		if slot.Tag == cpu.SLOT_RETURN {
			return false
		}
	}
	return true
}

// Snapshot copies the process data. The process must not be running.
// A snapshot taken at a halt inside a translated call is not Resumable.
func (p *Process) Snapshot() (img *Image) {
	if p.state == STATE_RUNNING {
		panic(cpu.NewFault(1, ErrNotHalted))
	}

	img = &Image{
		Regs:   p.Regs,
		Stack:  p.Stack,
		Memory: append([]byte(nil), p.Memory()...),
		Args:   p.args,
		Ticks:  p.ticks,
		Exited: p.state == STATE_EXITED,
		Last:   p.last,
	}

	return
}

// Restore replaces the process data with an image. Any suspended
// continuation is discarded; the next Run enters the program at the
// image's CS:IP. The process must not be running, and the image must be
// Resumable.
func (p *Process) Restore(img *Image) {
	if p.state == STATE_RUNNING {
		panic(cpu.NewFault(1, ErrNotHalted))
	}
	if !img.Resumable() {
		panic(cpu.NewFault(1, ErrInFlightCall))
	}

	p.abandon()

	clear(p.arena)
	copy(p.arena[:PROGRAM_SIZE], img.Memory)
	p.Regs = img.Regs
	p.Stack = img.Stack
	p.args = img.Args
	p.ticks = img.Ticks
	p.last = img.Last

	if p.Verbose {
		log.Printf("process: restore %v at %04x:%04x", p.Program.Name(), p.Regs.CS, p.Regs.IP)
	}

	if img.Exited {
		p.state = STATE_EXITED
	} else {
		p.start()
	}
}

// Clone duplicates a halted process, sharing its program and backend.
// The process must not be halted inside a translated call. As with
// NewProcess, the clone must be closed once it is no longer needed.
func (p *Process) Clone() (clone *Process) {
	if p.state == STATE_RUNNING {
		panic(cpu.NewFault(1, ErrNotHalted))
	}

	var img *Image
	if p.state != STATE_UNSTARTED {
		img = p.Snapshot()
		if !img.Resumable() {
			panic(cpu.NewFault(1, ErrInFlightCall))
		}
	}

	clone = NewProcess(p.Program, p.Backend)
	clone.Verbose = p.Verbose
	if img != nil {
		clone.Restore(img)
	}

	return
}
