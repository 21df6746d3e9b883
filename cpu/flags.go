package cpu

// Flag bit positions of the x86 FLAGS word.
const (
	FLAG_CF = uint16(1 << 0)  // Carry
	FLAG_ZF = uint16(1 << 6)  // Zero
	FLAG_SF = uint16(1 << 7)  // Sign
	FLAG_OF = uint16(1 << 11) // Overflow
)

const (
	RESULT_ZERO_MASK = uint32(0xffff)  // Bits of Unsigned tested by ZF.
	RESULT_SIGN_BIT  = uint32(0x8000)  // Bit of Unsigned tested by SF.
	RESULT_CARRY_BIT = uint32(0x10000) // Bit of Unsigned tested by CF.
)

// Flags are the two retained result words from which the arithmetic
// flags are derived. 8-bit results are stored shifted left by 8, so one
// derivation serves both operand widths.
type Flags struct {
	Unsigned uint32 // Unsigned result, carry out in bit 16.
	Signed   int32  // Signed result, used only for overflow.
}

// ZF is set when the low 16 bits of the unsigned result are zero.
func (fl *Flags) ZF() bool {
	return (fl.Unsigned & RESULT_ZERO_MASK) == 0
}

// SF is bit 15 of the unsigned result.
func (fl *Flags) SF() bool {
	return (fl.Unsigned & RESULT_SIGN_BIT) != 0
}

// CF is bit 16 of the unsigned result.
func (fl *Flags) CF() bool {
	return (fl.Unsigned & RESULT_CARRY_BIT) != 0
}

// OF is set when the sign of the signed result, shifted right by one,
// disagrees with the bit below it.
func (fl *Flags) OF() bool {
	shifted := fl.Signed >> 1
	return ((shifted>>15)^(shifted>>14))&1 != 0
}

func (fl *Flags) SetZF() {
	fl.Unsigned &^= RESULT_ZERO_MASK
}

func (fl *Flags) ClearZF() {
	if fl.ZF() {
		fl.Unsigned |= 1
	}
}

func (fl *Flags) SetSF() {
	fl.Unsigned |= RESULT_SIGN_BIT
}

func (fl *Flags) ClearSF() {
	fl.Unsigned &^= RESULT_SIGN_BIT
}

func (fl *Flags) SetCF() {
	fl.Unsigned |= RESULT_CARRY_BIT
}

func (fl *Flags) ClearCF() {
	fl.Unsigned &^= RESULT_CARRY_BIT
}

func (fl *Flags) SetOF() {
	fl.Signed = 0x8000
}

func (fl *Flags) ClearOF() {
	fl.Signed = 0
}

// SetCFTo sets or clears CF.
func (fl *Flags) SetCFTo(cf bool) {
	if cf {
		fl.SetCF()
	} else {
		fl.ClearCF()
	}
}

// Word packs the derived flags into the FLAGS register layout.
func (fl *Flags) Word() (word uint16) {
	if fl.CF() {
		word |= FLAG_CF
	}
	if fl.ZF() {
		word |= FLAG_ZF
	}
	if fl.SF() {
		word |= FLAG_SF
	}
	if fl.OF() {
		word |= FLAG_OF
	}
	return
}

// SetWord rebuilds the result words so the derived flags match the
// FLAGS register layout in word.
func (fl *Flags) SetWord(word uint16) {
	switch {
	case word&FLAG_ZF != 0:
		// SF cannot be represented alongside ZF; ZF wins.
		fl.Unsigned = 0
	case word&FLAG_SF != 0:
		fl.Unsigned = RESULT_SIGN_BIT
	default:
		fl.Unsigned = 1
	}
	fl.SetCFTo(word&FLAG_CF != 0)
	if word&FLAG_OF != 0 {
		fl.SetOF()
	} else {
		fl.ClearOF()
	}
}
