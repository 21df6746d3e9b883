package cpu

// ALU helpers for translated code. Each one computes a result and
// retains it in the flag result words.

// SetResult16 retains a 16-bit logical result: CF and OF clear.
func (r *Registers) SetResult16(value uint16) {
	r.Unsigned = uint32(value)
	r.Signed = 0
}

// SetResult8 retains an 8-bit logical result: CF and OF clear.
func (r *Registers) SetResult8(value uint8) {
	r.Unsigned = uint32(value) << 8
	r.Signed = 0
}

func (r *Registers) carry() uint32 {
	if r.CF() {
		return 1
	}
	return 0
}

func (r *Registers) add16(a, b uint16, c uint32) uint16 {
	r.Unsigned = uint32(a) + uint32(b) + c
	r.Signed = int32(int16(a)) + int32(int16(b)) + int32(c)
	return uint16(r.Unsigned)
}

func (r *Registers) sub16(a, b uint16, c uint32) uint16 {
	r.Unsigned = uint32(a) - uint32(b) - c
	r.Signed = int32(int16(a)) - int32(int16(b)) - int32(c)
	return uint16(r.Unsigned)
}

func (r *Registers) add8(a, b uint8, c uint32) uint8 {
	r.Unsigned = (uint32(a) + uint32(b) + c) << 8
	r.Signed = (int32(int8(a)) + int32(int8(b)) + int32(c)) << 8
	return uint8(r.Unsigned >> 8)
}

func (r *Registers) sub8(a, b uint8, c uint32) uint8 {
	r.Unsigned = (uint32(a) - uint32(b) - c) << 8
	r.Signed = (int32(int8(a)) - int32(int8(b)) - int32(c)) << 8
	return uint8(r.Unsigned >> 8)
}

func (r *Registers) Add16(a, b uint16) uint16 { return r.add16(a, b, 0) }
func (r *Registers) Adc16(a, b uint16) uint16 { return r.add16(a, b, r.carry()) }
func (r *Registers) Sub16(a, b uint16) uint16 { return r.sub16(a, b, 0) }
func (r *Registers) Sbb16(a, b uint16) uint16 { return r.sub16(a, b, r.carry()) }
func (r *Registers) Cmp16(a, b uint16)        { r.sub16(a, b, 0) }
func (r *Registers) Neg16(a uint16) uint16    { return r.sub16(0, a, 0) }

func (r *Registers) Add8(a, b uint8) uint8 { return r.add8(a, b, 0) }
func (r *Registers) Adc8(a, b uint8) uint8 { return r.add8(a, b, r.carry()) }
func (r *Registers) Sub8(a, b uint8) uint8 { return r.sub8(a, b, 0) }
func (r *Registers) Sbb8(a, b uint8) uint8 { return r.sub8(a, b, r.carry()) }
func (r *Registers) Cmp8(a, b uint8)       { r.sub8(a, b, 0) }
func (r *Registers) Neg8(a uint8) uint8    { return r.sub8(0, a, 0) }

// Inc16 adds one, leaving CF untouched.
func (r *Registers) Inc16(a uint16) (value uint16) {
	cf := r.CF()
	value = r.add16(a, 1, 0)
	r.SetCFTo(cf)
	return
}

// Dec16 subtracts one, leaving CF untouched.
func (r *Registers) Dec16(a uint16) (value uint16) {
	cf := r.CF()
	value = r.sub16(a, 1, 0)
	r.SetCFTo(cf)
	return
}

func (r *Registers) Inc8(a uint8) (value uint8) {
	cf := r.CF()
	value = r.add8(a, 1, 0)
	r.SetCFTo(cf)
	return
}

func (r *Registers) Dec8(a uint8) (value uint8) {
	cf := r.CF()
	value = r.sub8(a, 1, 0)
	r.SetCFTo(cf)
	return
}

func (r *Registers) And16(a, b uint16) (value uint16) {
	value = a & b
	r.SetResult16(value)
	return
}

func (r *Registers) Or16(a, b uint16) (value uint16) {
	value = a | b
	r.SetResult16(value)
	return
}

func (r *Registers) Xor16(a, b uint16) (value uint16) {
	value = a ^ b
	r.SetResult16(value)
	return
}

// Test16 is And16 without a destination.
func (r *Registers) Test16(a, b uint16) {
	r.SetResult16(a & b)
}

func (r *Registers) And8(a, b uint8) (value uint8) {
	value = a & b
	r.SetResult8(value)
	return
}

func (r *Registers) Or8(a, b uint8) (value uint8) {
	value = a | b
	r.SetResult8(value)
	return
}

func (r *Registers) Xor8(a, b uint8) (value uint8) {
	value = a ^ b
	r.SetResult8(value)
	return
}

// Rcl16 rotates left through carry. Only CF is updated.
func (r *Registers) Rcl16(value uint16, count uint8) uint16 {
	for range (count & 0x1f) % 17 {
		r.SaveCF()
		out := value&0x8000 != 0
		value <<= 1
		if r.SavedCF {
			value |= 1
		}
		r.SetCFTo(out)
	}
	return value
}

// Rcr16 rotates right through carry. Only CF is updated.
func (r *Registers) Rcr16(value uint16, count uint8) uint16 {
	for range (count & 0x1f) % 17 {
		r.SaveCF()
		out := value&1 != 0
		value >>= 1
		if r.SavedCF {
			value |= 0x8000
		}
		r.SetCFTo(out)
	}
	return value
}

// Shl16 shifts left, carrying out the last bit shifted.
func (r *Registers) Shl16(value uint16, count uint8) uint16 {
	count &= 0x1f
	if count == 0 {
		return value
	}
	wide := uint32(value) << count
	r.SetResult16(uint16(wide))
	r.SetCFTo(wide&RESULT_CARRY_BIT != 0)
	return uint16(wide)
}

// Shr16 shifts right, carrying out the last bit shifted.
func (r *Registers) Shr16(value uint16, count uint8) uint16 {
	count &= 0x1f
	if count == 0 {
		return value
	}
	out := (uint32(value)>>(count-1))&1 != 0
	value = uint16(uint32(value) >> count)
	r.SetResult16(value)
	r.SetCFTo(out)
	return value
}
