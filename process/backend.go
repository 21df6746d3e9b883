package process

import (
	"github.com/ezrec/realmode/cpu"
)

// Backend is the host hardware emulation a process calls into. All
// methods are called synchronously from within Run, and must not call
// Run or Exec themselves.
type Backend interface {
	// In reads a port. ticks is the elapsed guest instruction count.
	In(ticks uint64, port uint16) uint8
	// Out writes a port. ticks is the elapsed guest instruction count.
	Out(ticks uint64, port uint16, value uint8)

	// Int10 emulates the video services.
	Int10(regs cpu.Registers) cpu.Registers
	// Int16 emulates the keyboard services.
	Int16(regs cpu.Registers) cpu.Registers
	// Int21 emulates the operating system services.
	Int21(regs cpu.Registers) cpu.Registers

	// Frame delivers a completed frame.
	Frame(p *Process, framebuffer []byte)
}

// Program is the output of the static translator for one guest program.
type Program interface {
	// Name of the translated program.
	Name() string
	// Entry returns the statically known entry point.
	Entry() (cs, ip uint16)
	// Address locates a well-known address in the guest's data.
	Address(id AddressId) (segment, offset uint16, ok bool)
	// Run is the translated code. It starts at the location in the
	// process's CS:IP, and never returns: it leaves only through Halt.
	Run(p *Process)
}
