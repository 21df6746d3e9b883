// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package demo is a small real-mode program, translated by hand into
// calls on the process runtime. It prints its argument line, programs the
// palette, and draws a room per frame until a key selects the next room
// or quits; the exit status is the room it quit from.
package demo

import (
	"github.com/ezrec/realmode/process"
)

const (
	CODE_SEG  = uint16(0x0100) // Code segment.
	DATA_SEG  = uint16(0x0800) // Data segment.
	FRAME_SEG = uint16(0x1000) // Back buffer segment.
	VIDEO_SEG = uint16(0xa000) // VGA memory; clamped to the safe page.

	FRAME_WIDTH  = 320
	FRAME_HEIGHT = 200
	FRAME_SIZE   = FRAME_WIDTH * FRAME_HEIGHT

	ROOMS = uint16(4) // Count of rooms in the world table.
)

// Data segment layout.
const (
	DATA_GREETING = uint16(0x0000) // '$' terminated greeting.
	DATA_ROOM     = uint16(0x0040) // Current room.
	DATA_KEY      = uint16(0x0042) // Last key read.
	DATA_FRAME    = uint16(0x0044) // Frame counter.
	DATA_BYE      = uint16(0x0050) // '$' terminated farewell.
	DATA_WORLD    = uint16(0x0100) // Base color of each room.
	DATA_JUMP     = uint16(0x0200) // Key handler table, by ASCII.
	DATA_PALETTE  = uint16(0x0400) // 256 RGB DAC entries.
)

// Code labels. Each is a re-entry point of the translated program.
const (
	L_START      = uint16(0x0000)
	L_PALETTE    = uint16(0x0100)
	L_ROOM       = uint16(0x0200)
	L_ROOM_READY = uint16(0x0210)
	L_DRAW       = uint16(0x0300)
	L_KEYBOARD   = uint16(0x0400)
	L_KEY_READY  = uint16(0x0410)
	L_QUIT       = uint16(0x0500)
	L_NEXT_ROOM  = uint16(0x0600)
	L_BAD        = uint16(0x0666) // Jump table entry with no code.
)

const (
	_greeting = "REALMODE DEMO\r\n$"
	_bye      = "Bye\r\n$"
)

var _ process.Program = (*Demo)(nil)

// Demo is the translated program.
type Demo struct{}

// New returns the demo program.
func New() *Demo {
	return &Demo{}
}

func (d *Demo) Name() string {
	return "demo"
}

func (d *Demo) Entry() (cs, ip uint16) {
	return CODE_SEG, L_START
}

func (d *Demo) Address(id process.AddressId) (segment, offset uint16, ok bool) {
	segment, ok = DATA_SEG, true
	switch id {
	case process.ADDRESS_ROOM:
		offset = DATA_ROOM
	case process.ADDRESS_KEYBOARD:
		offset = DATA_KEY
	case process.ADDRESS_WORLD:
		offset = DATA_WORLD
	case process.ADDRESS_PALETTE:
		offset = DATA_PALETTE
	default:
		segment, ok = 0, false
	}
	return
}

// Run dispatches on the recorded CS:IP, so that a restored process
// resumes at the block it halted before.
func (d *Demo) Run(p *process.Process) {
	for {
		switch p.Regs.IP {
		case L_START:
			d.start(p)
		case L_PALETTE:
			d.palette(p)
		case L_ROOM:
			d.room(p)
		case L_ROOM_READY:
			d.roomReady(p)
		case L_DRAW:
			d.draw(p)
		case L_KEYBOARD:
			d.keyboard(p)
		case L_KEY_READY:
			d.keyReady(p)
		case L_NEXT_ROOM:
			d.nextRoom(p)
		case L_QUIT:
			d.quit(p)
		default:
			p.FailedDynamicBranch(p.Regs.CS, p.Regs.IP, p.Regs.IP)
		}
	}
}
