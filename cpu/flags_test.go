package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlags_SetClear(t *testing.T) {
	assert := assert.New(t)

	// CF set/clear must not depend on the sign or zero bits.
	for _, unsigned := range []uint32{0, 1, 0x8000, 0xffff, 0x18000, 0xffffffff} {
		fl := &Flags{Unsigned: unsigned}
		zf, sf := fl.ZF(), fl.SF()

		fl.SetCF()
		assert.True(fl.CF())
		assert.Equal(zf, fl.ZF())
		assert.Equal(sf, fl.SF())

		fl.ClearCF()
		assert.False(fl.CF())
		assert.Equal(zf, fl.ZF())
		assert.Equal(sf, fl.SF())
	}

	fl := &Flags{Unsigned: 0x18000}
	fl.SetZF()
	assert.True(fl.ZF())
	assert.True(fl.CF())
	fl.ClearZF()
	assert.False(fl.ZF())
	assert.True(fl.CF())

	fl = &Flags{Unsigned: 0x8000}
	fl.ClearZF()
	assert.False(fl.ZF())
	assert.True(fl.SF())

	fl.ClearSF()
	assert.False(fl.SF())
	fl.SetSF()
	assert.True(fl.SF())

	fl.SetOF()
	assert.True(fl.OF())
	fl.ClearOF()
	assert.False(fl.OF())
}

func TestFlags_Word(t *testing.T) {
	assert := assert.New(t)

	for _, word := range []uint16{
		0,
		FLAG_CF,
		FLAG_ZF,
		FLAG_SF,
		FLAG_OF,
		FLAG_CF | FLAG_ZF | FLAG_OF,
		FLAG_CF | FLAG_SF | FLAG_OF,
	} {
		fl := &Flags{}
		fl.SetWord(word)
		assert.Equal(word, fl.Word(), "0x%04x", word)
	}

	// ZF and SF together cannot be derived; ZF wins.
	fl := &Flags{}
	fl.SetWord(FLAG_ZF | FLAG_SF)
	assert.Equal(FLAG_ZF, fl.Word())
}

func TestFlags_Add16(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		a, b   uint16
		result uint16
		zf     bool
		sf     bool
		cf     bool
		of     bool
	}){
		{0x0001, 0x0001, 0x0002, false, false, false, false},
		{0xffff, 0x0001, 0x0000, true, false, true, false},
		{0x7fff, 0x0001, 0x8000, false, true, false, true},
		{0x8000, 0x8000, 0x0000, true, false, true, true},
		{0xffff, 0xffff, 0xfffe, false, true, true, false},
		{0x0000, 0x0000, 0x0000, true, false, false, false},
	}

	for _, entry := range table {
		r := &Registers{}
		result := r.Add16(entry.a, entry.b)
		assert.Equal(entry.result, result, "%04x+%04x", entry.a, entry.b)
		assert.Equal(entry.zf, r.ZF(), "ZF %04x+%04x", entry.a, entry.b)
		assert.Equal(entry.sf, r.SF(), "SF %04x+%04x", entry.a, entry.b)
		assert.Equal(entry.cf, r.CF(), "CF %04x+%04x", entry.a, entry.b)
		assert.Equal(entry.of, r.OF(), "OF %04x+%04x", entry.a, entry.b)
	}
}

func TestFlags_Sub16(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		a, b   uint16
		result uint16
		zf     bool
		sf     bool
		cf     bool
		of     bool
	}){
		{0x0002, 0x0001, 0x0001, false, false, false, false},
		{0x0001, 0x0001, 0x0000, true, false, false, false},
		{0x0000, 0x0001, 0xffff, false, true, true, false},
		{0x8000, 0x0001, 0x7fff, false, false, false, true},
		{0x7fff, 0xffff, 0x8000, false, true, true, true},
	}

	for _, entry := range table {
		r := &Registers{}
		result := r.Sub16(entry.a, entry.b)
		assert.Equal(entry.result, result, "%04x-%04x", entry.a, entry.b)
		assert.Equal(entry.zf, r.ZF(), "ZF %04x-%04x", entry.a, entry.b)
		assert.Equal(entry.sf, r.SF(), "SF %04x-%04x", entry.a, entry.b)
		assert.Equal(entry.cf, r.CF(), "CF %04x-%04x", entry.a, entry.b)
		assert.Equal(entry.of, r.OF(), "OF %04x-%04x", entry.a, entry.b)
	}
}

func TestFlags_Byte(t *testing.T) {
	assert := assert.New(t)

	r := &Registers{}
	assert.Equal(uint8(0x80), r.Add8(0x7f, 0x01))
	assert.True(r.OF())
	assert.True(r.SF())
	assert.False(r.CF())
	assert.False(r.ZF())

	assert.Equal(uint8(0x00), r.Add8(0xff, 0x01))
	assert.True(r.ZF())
	assert.True(r.CF())
	assert.False(r.OF())

	assert.Equal(uint8(0xff), r.Sub8(0x00, 0x01))
	assert.True(r.CF())
	assert.True(r.SF())

	assert.Equal(uint8(0x7f), r.Sub8(0x80, 0x01))
	assert.True(r.OF())
	assert.False(r.CF())

	r.Cmp8(0x42, 0x42)
	assert.True(r.ZF())

	assert.Equal(uint8(0x0f), r.And8(0xff, 0x0f))
	assert.False(r.CF())
	assert.False(r.OF())
	assert.False(r.SF())

	assert.Equal(uint8(0x80), r.Or8(0x80, 0x00))
	assert.True(r.SF())

	assert.Equal(uint8(0x00), r.Xor8(0x5a, 0x5a))
	assert.True(r.ZF())
}

func TestFlags_Carry(t *testing.T) {
	assert := assert.New(t)

	r := &Registers{}
	r.SetCF()
	assert.Equal(uint16(0x0003), r.Adc16(0x0001, 0x0001))
	assert.False(r.CF())

	r.SetCF()
	assert.Equal(uint16(0xffff), r.Sbb16(0x0001, 0x0001))
	assert.True(r.CF())

	r.SetCF()
	assert.Equal(uint8(0x00), r.Adc8(0xfe, 0x01))
	assert.True(r.CF())
	assert.True(r.ZF())

	r.ClearCF()
	assert.Equal(uint8(0x01), r.Sbb8(0x02, 0x01))
	assert.False(r.CF())

	// Inc and Dec preserve the carry.
	r.SetCF()
	assert.Equal(uint16(0x0000), r.Inc16(0xffff))
	assert.True(r.CF())
	assert.True(r.ZF())

	r.ClearCF()
	assert.Equal(uint16(0xffff), r.Dec16(0x0000))
	assert.False(r.CF())
	assert.True(r.SF())

	r.SetCF()
	assert.Equal(uint8(0x80), r.Inc8(0x7f))
	assert.True(r.CF())
	assert.True(r.OF())

	r.ClearCF()
	assert.Equal(uint8(0x00), r.Dec8(0x01))
	assert.False(r.CF())
	assert.True(r.ZF())

	assert.Equal(uint16(0xffff), r.Neg16(0x0001))
	assert.True(r.CF())
	assert.Equal(uint8(0x00), r.Neg8(0x00))
	assert.False(r.CF())
	assert.True(r.ZF())
}

func TestFlags_Logic16(t *testing.T) {
	assert := assert.New(t)

	r := &Registers{}
	r.SetCF()
	r.SetOF()
	assert.Equal(uint16(0x8000), r.And16(0xf000, 0x8fff))
	assert.False(r.CF())
	assert.False(r.OF())
	assert.True(r.SF())

	assert.Equal(uint16(0x00ff), r.Or16(0x00f0, 0x000f))
	assert.False(r.SF())

	assert.Equal(uint16(0), r.Xor16(0x1234, 0x1234))
	assert.True(r.ZF())

	r.Test16(0x0100, 0x0100)
	assert.False(r.ZF())

	r.Cmp16(0x0001, 0x0002)
	assert.True(r.CF())
	assert.True(r.SF())
}

// FuzzFlags compares the derived flags against a bit-exact reference.
func FuzzFlags(f *testing.F) {
	f.Add(uint16(0), uint16(0), true)
	f.Add(uint16(0x7fff), uint16(1), true)
	f.Add(uint16(0x8000), uint16(1), false)
	f.Add(uint16(0xffff), uint16(0xffff), true)

	f.Fuzz(func(t *testing.T, a uint16, b uint16, add bool) {
		assert := assert.New(t)

		r := &Registers{}
		var result uint16
		var wide int
		var signed int
		if add {
			result = r.Add16(a, b)
			wide = int(a) + int(b)
			signed = int(int16(a)) + int(int16(b))
		} else {
			result = r.Sub16(a, b)
			wide = int(a) - int(b)
			signed = int(int16(a)) - int(int16(b))
		}

		assert.Equal(uint16(wide), result)
		assert.Equal(result == 0, r.ZF())
		assert.Equal(result&0x8000 != 0, r.SF())
		assert.Equal(wide < 0 || wide > 0xffff, r.CF())
		assert.Equal(signed < -0x8000 || signed > 0x7fff, r.OF())

		lo := uint8(a)
		lb := uint8(b)
		var result8 uint8
		if add {
			result8 = r.Add8(lo, lb)
			wide = int(lo) + int(lb)
			signed = int(int8(lo)) + int(int8(lb))
		} else {
			result8 = r.Sub8(lo, lb)
			wide = int(lo) - int(lb)
			signed = int(int8(lo)) - int(int8(lb))
		}

		assert.Equal(uint8(wide), result8)
		assert.Equal(result8 == 0, r.ZF())
		assert.Equal(result8&0x80 != 0, r.SF())
		assert.Equal(wide < 0 || wide > 0xff, r.CF())
		assert.Equal(signed < -0x80 || signed > 0x7f, r.OF())
	})
}
