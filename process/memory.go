package process

import (
	"github.com/ezrec/realmode/cpu"
)

const (
	PROGRAM_SIZE = 0x20000                     // Bytes of guest program memory.
	SEGMENT_SIZE = cpu.SEGMENT_SIZE            // Bytes addressable through one segment.
	MAX_SEGMENT  = PROGRAM_SIZE >> 4           // Highest segment; its window is the safe page.
	ARENA_SIZE   = PROGRAM_SIZE + SEGMENT_SIZE // Program memory and the safe page.
)

var _ cpu.Mapper = (*Process)(nil)

// MemorySegment translates a segment register value into its 64KB window
// of the arena. Segments above MAX_SEGMENT are clamped to MAX_SEGMENT,
// whose window is the safe page above program memory: accesses to host
// reserved ranges land there harmlessly.
func (p *Process) MemorySegment(segment uint16) []byte {
	if segment > MAX_SEGMENT {
		segment = MAX_SEGMENT
	}

	base := int(segment) << 4
	return p.arena[base : base+SEGMENT_SIZE : base+SEGMENT_SIZE]
}

// Memory returns the program memory, excluding the safe page.
func (p *Process) Memory() []byte {
	return p.arena[:PROGRAM_SIZE:PROGRAM_SIZE]
}

func (p *Process) Peek8(segment, offset uint16) uint8 {
	return cpu.Read8(p.MemorySegment(segment), offset)
}

func (p *Process) Poke8(segment, offset uint16, value uint8) {
	cpu.Write8(p.MemorySegment(segment), offset, value)
}

// Peek16 reads a little-endian word as two byte accesses.
func (p *Process) Peek16(segment, offset uint16) uint16 {
	return cpu.Read16(p.MemorySegment(segment), offset)
}

// Poke16 writes a little-endian word as two byte accesses.
func (p *Process) Poke16(segment, offset uint16, value uint16) {
	cpu.Write16(p.MemorySegment(segment), offset, value)
}
