package cpu

const (
	SEGMENT_SIZE = 0x10000 // Bytes addressable through one segment.
)

// Mapper translates a segment register value into a 64KB window of
// host memory.
type Mapper interface {
	MemorySegment(segment uint16) []byte
}

// SegmentCache holds the host memory windows of the four segment
// registers. It is not authoritative: callers reload it after any segment
// register write, before using the windows again.
type SegmentCache struct {
	CS []byte
	DS []byte
	ES []byte
	SS []byte
}

func (sc *SegmentCache) LoadCS(m Mapper, regs *Registers) { sc.CS = m.MemorySegment(regs.CS) }
func (sc *SegmentCache) LoadDS(m Mapper, regs *Registers) { sc.DS = m.MemorySegment(regs.DS) }
func (sc *SegmentCache) LoadES(m Mapper, regs *Registers) { sc.ES = m.MemorySegment(regs.ES) }
func (sc *SegmentCache) LoadSS(m Mapper, regs *Registers) { sc.SS = m.MemorySegment(regs.SS) }

// LoadAll reloads all four windows.
func (sc *SegmentCache) LoadAll(m Mapper, regs *Registers) {
	sc.LoadCS(m, regs)
	sc.LoadDS(m, regs)
	sc.LoadES(m, regs)
	sc.LoadSS(m, regs)
}

// Read8 reads a byte from a segment window.
func Read8(base []byte, offset uint16) uint8 {
	return base[offset]
}

// Write8 writes a byte to a segment window.
func Write8(base []byte, offset uint16, value uint8) {
	base[offset] = value
}

// Read16 reads a little-endian word as two byte accesses. The second byte
// wraps to the start of the segment.
func Read16(base []byte, offset uint16) uint16 {
	return uint16(base[offset]) | (uint16(base[offset+1]) << 8)
}

// Write16 writes a little-endian word as two byte accesses.
func Write16(base []byte, offset uint16, value uint16) {
	base[offset] = uint8(value)
	base[offset+1] = uint8(value >> 8)
}
