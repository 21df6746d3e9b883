// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"iter"
	"maps"
)

// Registers is the virtual CPU register file. It is a plain value, and may
// be copied freely while the owning process is halted.
type Registers struct {
	AX uint16 // Accumulator.
	BX uint16 // Base.
	CX uint16 // Count.
	DX uint16 // Data.

	SI uint16 // Source index.
	DI uint16 // Destination index.
	BP uint16 // Base pointer.
	SP uint16 // Stack pointer.

	CS uint16 // Code segment.
	DS uint16 // Data segment.
	ES uint16 // Extra segment.
	SS uint16 // Stack segment.

	IP uint16 // Instruction pointer of the last recorded location.

	Flags // Retained result words.

	SavedCF bool // Carry stashed by SaveCF.
}

// Reset clears all registers and flags.
func (r *Registers) Reset() {
	*r = Registers{}
}

func lo(w uint16) uint8 { return uint8(w) }
func hi(w uint16) uint8 { return uint8(w >> 8) }

func setLo(w *uint16, v uint8) { *w = (*w & 0xff00) | uint16(v) }
func setHi(w *uint16, v uint8) { *w = (*w & 0x00ff) | (uint16(v) << 8) }

func (r *Registers) AL() uint8 { return lo(r.AX) }
func (r *Registers) AH() uint8 { return hi(r.AX) }
func (r *Registers) BL() uint8 { return lo(r.BX) }
func (r *Registers) BH() uint8 { return hi(r.BX) }
func (r *Registers) CL() uint8 { return lo(r.CX) }
func (r *Registers) CH() uint8 { return hi(r.CX) }
func (r *Registers) DL() uint8 { return lo(r.DX) }
func (r *Registers) DH() uint8 { return hi(r.DX) }

func (r *Registers) SetAL(v uint8) { setLo(&r.AX, v) }
func (r *Registers) SetAH(v uint8) { setHi(&r.AX, v) }
func (r *Registers) SetBL(v uint8) { setLo(&r.BX, v) }
func (r *Registers) SetBH(v uint8) { setHi(&r.BX, v) }
func (r *Registers) SetCL(v uint8) { setLo(&r.CX, v) }
func (r *Registers) SetCH(v uint8) { setHi(&r.CX, v) }
func (r *Registers) SetDL(v uint8) { setLo(&r.DX, v) }
func (r *Registers) SetDH(v uint8) { setHi(&r.DX, v) }

// SaveCF stashes the carry flag, so that a rotate through carry can
// compute its main result without losing the incoming carry.
func (r *Registers) SaveCF() {
	r.SavedCF = r.CF()
}

// RestoreCF sets the carry flag from the value stashed by SaveCF.
func (r *Registers) RestoreCF() {
	r.SetCFTo(r.SavedCF)
}

// Values returns an iterator over the register names and their values.
func (r *Registers) Values() iter.Seq2[string, uint16] {
	return maps.All(map[string]uint16{
		"ax": r.AX, "bx": r.BX, "cx": r.CX, "dx": r.DX,
		"si": r.SI, "di": r.DI, "bp": r.BP, "sp": r.SP,
		"cs": r.CS, "ds": r.DS, "es": r.ES, "ss": r.SS,
		"ip":    r.IP,
		"flags": r.Flags.Word(),
	})
}

// Register returns the 16-bit register with a lower case name.
func (r *Registers) Register(name string) (reg *uint16, ok bool) {
	reg, ok = map[string]*uint16{
		"ax": &r.AX, "bx": &r.BX, "cx": &r.CX, "dx": &r.DX,
		"si": &r.SI, "di": &r.DI, "bp": &r.BP, "sp": &r.SP,
		"cs": &r.CS, "ds": &r.DS, "es": &r.ES, "ss": &r.SS,
		"ip": &r.IP,
	}[name]
	return
}

// String returns the register file as a multi-line dump.
func (r *Registers) String() (text string) {
	text += fmt.Sprintf("ax=%04X bx=%04X cx=%04X dx=%04X\n", r.AX, r.BX, r.CX, r.DX)
	text += fmt.Sprintf("si=%04X di=%04X bp=%04X sp=%04X\n", r.SI, r.DI, r.BP, r.SP)
	text += fmt.Sprintf("cs=%04X ds=%04X es=%04X ss=%04X ip=%04X\n", r.CS, r.DS, r.ES, r.SS, r.IP)

	flag := func(set bool, name string) string {
		if set {
			return name
		}
		return "--"
	}
	text += fmt.Sprintf("flags: %v %v %v %v\n",
		flag(r.CF(), "CF"), flag(r.ZF(), "ZF"), flag(r.SF(), "SF"), flag(r.OF(), "OF"))

	return
}
