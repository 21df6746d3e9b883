// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package snapshot encodes the state of a halted process as a save state.
//
// File header, big endian:
//
//	uint32(format version)
//	uint32(crc32 of compressed body)
//	uint32(length of compressed body)
//
// The remainder is the snappy compressed body:
//
//	registers record
//	stack record, then Depth slot records, then Saved uint16 sentinels
//	state record, then ArgsLength bytes of argument line
//	uint32(memory length), then the program memory
package snapshot

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	"github.com/ezrec/realmode/cpu"
	"github.com/ezrec/realmode/process"
	"github.com/ezrec/realmode/translate"
)

var f = translate.From

const (
	VERSION = uint32(1) // Save state format version.
)

var (
	ErrVersion  = errors.New(f("save state version unsupported"))
	ErrChecksum = errors.New(f("save state checksum mismatch"))
	ErrCorrupt  = errors.New(f("save state corrupt"))
)

type header struct {
	Version uint32
	Crc     uint32
	Length  uint32
}

type registersRecord struct {
	AX, BX, CX, DX uint16
	SI, DI, BP, SP uint16
	CS, DS, ES, SS uint16
	IP             uint16
	Unsigned       uint32
	Signed         int32
	SavedCF        uint8
}

type stackRecord struct {
	Depth    uint32
	Sentinel uint16
	Saved    uint32
}

type slotRecord struct {
	Tag      uint8
	Word     uint16
	Unsigned uint32
	Signed   int32
}

type stateRecord struct {
	Ticks      uint64
	Exited     uint8
	Last       uint16
	ArgsLength uint32
}

// stream packs records in one byte order.
type stream struct {
	rw    io.ReadWriter
	order binary.ByteOrder
}

func (s *stream) pack(records ...any) (err error) {
	for _, record := range records {
		err = struc.PackWithOrder(s.rw, record, s.order)
		if err != nil {
			return
		}
	}
	return
}

func (s *stream) unpack(records ...any) (err error) {
	for _, record := range records {
		err = struc.UnpackWithOrder(s.rw, record, s.order)
		if err != nil {
			return
		}
	}
	return
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Save encodes the state of a halted process. A process halted inside a
// translated call cannot be saved.
func Save(p *process.Process) (data []byte, err error) {
	img := p.Snapshot()
	if !img.Resumable() {
		return nil, errors.Wrap(process.ErrInFlightCall, "save")
	}
	return Encode(img)
}

// Encode encodes a process image.
func Encode(img *process.Image) (data []byte, err error) {
	var body bytes.Buffer
	s := &stream{rw: &body, order: binary.BigEndian}

	regs := &img.Regs
	err = s.pack(&registersRecord{
		AX: regs.AX, BX: regs.BX, CX: regs.CX, DX: regs.DX,
		SI: regs.SI, DI: regs.DI, BP: regs.BP, SP: regs.SP,
		CS: regs.CS, DS: regs.DS, ES: regs.ES, SS: regs.SS,
		IP:       regs.IP,
		Unsigned: regs.Unsigned,
		Signed:   regs.Signed,
		SavedCF:  boolByte(regs.SavedCF),
	})
	if err != nil {
		return nil, errors.Wrap(err, "registers")
	}

	stack := &img.Stack
	err = s.pack(&stackRecord{
		Depth:    uint32(stack.Depth),
		Sentinel: stack.Sentinel,
		Saved:    uint32(stack.Saved),
	})
	if err != nil {
		return nil, errors.Wrap(err, "stack")
	}
	for _, slot := range stack.Slot[:stack.Depth] {
		err = s.pack(&slotRecord{
			Tag:      uint8(slot.Tag),
			Word:     slot.Word,
			Unsigned: slot.Flags.Unsigned,
			Signed:   slot.Flags.Signed,
		})
		if err != nil {
			return nil, errors.Wrap(err, "stack slot")
		}
	}
	for _, sentinel := range stack.Pending[:stack.Saved] {
		err = s.pack(&sentinel)
		if err != nil {
			return nil, errors.Wrap(err, "stack sentinel")
		}
	}

	err = s.pack(&stateRecord{
		Ticks:      img.Ticks,
		Exited:     boolByte(img.Exited),
		Last:       uint16(img.Last),
		ArgsLength: uint32(len(img.Args)),
	})
	if err != nil {
		return nil, errors.Wrap(err, "state")
	}
	body.WriteString(img.Args)

	memoryLength := uint32(len(img.Memory))
	err = s.pack(&memoryLength)
	if err != nil {
		return nil, errors.Wrap(err, "memory")
	}
	body.Write(img.Memory)

	compressed := snappy.Encode(nil, body.Bytes())

	var final bytes.Buffer
	s = &stream{rw: &final, order: binary.BigEndian}
	err = s.pack(&header{
		Version: VERSION,
		Crc:     crc32.ChecksumIEEE(compressed),
		Length:  uint32(len(compressed)),
	})
	if err != nil {
		return nil, errors.Wrap(err, "header")
	}
	final.Write(compressed)

	data = final.Bytes()
	return
}

// Decode decodes a save state into a process image.
func Decode(data []byte) (img *process.Image, err error) {
	buf := bytes.NewBuffer(data)
	s := &stream{rw: buf, order: binary.BigEndian}

	var hdr header
	err = s.unpack(&hdr)
	if err != nil {
		return nil, errors.Wrap(err, "header")
	}
	if hdr.Version != VERSION {
		return nil, errors.Wrapf(ErrVersion, "version %d", hdr.Version)
	}

	compressed := buf.Bytes()
	if uint32(len(compressed)) != hdr.Length {
		return nil, errors.Wrapf(ErrCorrupt, "body length %d, expected %d", len(compressed), hdr.Length)
	}
	if crc32.ChecksumIEEE(compressed) != hdr.Crc {
		return nil, ErrChecksum
	}

	body, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, errors.Wrap(err, "body")
	}

	buf = bytes.NewBuffer(body)
	s = &stream{rw: buf, order: binary.BigEndian}
	img = &process.Image{}

	var regs registersRecord
	err = s.unpack(&regs)
	if err != nil {
		return nil, errors.Wrap(err, "registers")
	}
	img.Regs = cpu.Registers{
		AX: regs.AX, BX: regs.BX, CX: regs.CX, DX: regs.DX,
		SI: regs.SI, DI: regs.DI, BP: regs.BP, SP: regs.SP,
		CS: regs.CS, DS: regs.DS, ES: regs.ES, SS: regs.SS,
		IP:      regs.IP,
		Flags:   cpu.Flags{Unsigned: regs.Unsigned, Signed: regs.Signed},
		SavedCF: regs.SavedCF != 0,
	}

	var stack stackRecord
	err = s.unpack(&stack)
	if err != nil {
		return nil, errors.Wrap(err, "stack")
	}
	if stack.Depth > cpu.STACK_LIMIT || stack.Saved > cpu.STACK_LIMIT {
		return nil, errors.Wrapf(ErrCorrupt, "stack depth %d, saved %d", stack.Depth, stack.Saved)
	}
	img.Stack.Depth = int(stack.Depth)
	img.Stack.Sentinel = stack.Sentinel
	img.Stack.Saved = int(stack.Saved)
	for n := range img.Stack.Depth {
		var slot slotRecord
		err = s.unpack(&slot)
		if err != nil {
			return nil, errors.Wrap(err, "stack slot")
		}
		tag := cpu.SlotTag(slot.Tag)
		switch tag {
		case cpu.SLOT_WORD, cpu.SLOT_FLAGS, cpu.SLOT_RETURN:
		default:
			return nil, errors.Wrapf(ErrCorrupt, "stack slot %d tag %v", n, tag)
		}
		img.Stack.Slot[n] = cpu.Slot{
			Tag:   tag,
			Word:  slot.Word,
			Flags: cpu.Flags{Unsigned: slot.Unsigned, Signed: slot.Signed},
		}
	}
	for n := range img.Stack.Saved {
		err = s.unpack(&img.Stack.Pending[n])
		if err != nil {
			return nil, errors.Wrap(err, "stack sentinel")
		}
	}

	var state stateRecord
	err = s.unpack(&state)
	if err != nil {
		return nil, errors.Wrap(err, "state")
	}
	if int(state.ArgsLength) > buf.Len() {
		return nil, errors.Wrapf(ErrCorrupt, "argument length %d", state.ArgsLength)
	}
	img.Ticks = state.Ticks
	img.Exited = state.Exited != 0
	img.Last = process.HaltCode(state.Last)
	img.Args = string(buf.Next(int(state.ArgsLength)))

	var memoryLength uint32
	err = s.unpack(&memoryLength)
	if err != nil {
		return nil, errors.Wrap(err, "memory")
	}
	if memoryLength != process.PROGRAM_SIZE || buf.Len() != process.PROGRAM_SIZE {
		return nil, errors.Wrapf(ErrCorrupt, "memory length %d", memoryLength)
	}
	img.Memory = append([]byte(nil), buf.Bytes()...)

	return
}

// Load restores a halted process from a save state.
func Load(p *process.Process, data []byte) (err error) {
	img, err := Decode(data)
	if err != nil {
		return
	}
	if !img.Resumable() {
		err = errors.Wrap(process.ErrInFlightCall, "load")
		return
	}

	p.Restore(img)
	return
}
