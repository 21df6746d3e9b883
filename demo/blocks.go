package demo

import (
	"github.com/ezrec/realmode/cpu"
	"github.com/ezrec/realmode/process"
)

func (d *Demo) start(p *process.Process) {
	regs := &p.Regs

	regs.AX = DATA_SEG
	regs.DS = regs.AX
	regs.ES = regs.AX
	p.Seg.LoadDS(p, regs)
	p.Seg.LoadES(p, regs)

	// Data image
	ds := p.Seg.DS
	copy(ds[DATA_GREETING:], _greeting)
	copy(ds[DATA_BYE:], _bye)
	for n := range ROOMS {
		cpu.Write16(ds, DATA_WORLD+n*2, 0x20+n*0x30)
	}
	for n := range uint16(256) {
		cpu.Write16(ds, DATA_JUMP+n*2, L_DRAW)
	}
	for _, c := range []uint16{'q', 'Q', 0x1b} {
		cpu.Write16(ds, DATA_JUMP+c*2, L_QUIT)
	}
	for _, c := range []uint16{'n', 'N', ' '} {
		cpu.Write16(ds, DATA_JUMP+c*2, L_NEXT_ROOM)
	}
	cpu.Write16(ds, DATA_JUMP+'x'*2, L_BAD)
	for n := range uint16(256) {
		entry := DATA_PALETTE + n*3
		cpu.Write8(ds, entry+0, uint8(n&0x3f))
		cpu.Write8(ds, entry+1, uint8((n>>2)&0x3f))
		cpu.Write8(ds, entry+2, uint8(0x3f-(n&0x3f)))
	}
	p.Tick(256 * 6)

	// mov ah, 9; mov dx, greeting; int 21h
	regs.AX = 0x0900
	regs.DX = DATA_GREETING
	p.Int21()

	for _, c := range []byte(p.Args() + "\r\n") {
		regs.AX = 0x0200
		regs.DX = uint16(c)
		p.Int21()
	}

	// mov ax, 13h; int 10h
	regs.AX = 0x0013
	p.Int10()
	p.Tick(8)

	regs.IP = L_PALETTE
}

func (d *Demo) palette(p *process.Process) {
	p.Call(func() { d.loadPalette(p) })
	p.Tick(2)

	p.Regs.IP = L_ROOM
}

// loadPalette writes the palette table to the DAC.
func (d *Demo) loadPalette(p *process.Process) {
	regs := &p.Regs

	p.Stack.PushWord(regs.SI)
	p.Stack.PushWord(regs.CX)

	regs.SI = DATA_PALETTE
	regs.CX = 256
	p.Out8(0x3c8, 0)
	for {
		for range 3 {
			p.Out8(0x3c9, cpu.Read8(p.Seg.DS, regs.SI))
			regs.SI++
		}
		p.Tick(8)
		regs.CX = regs.Dec16(regs.CX)
		if regs.ZF() {
			break
		}
	}

	regs.CX = p.Stack.PopWord()
	regs.SI = p.Stack.PopWord()
}

func (d *Demo) room(p *process.Process) {
	p.Regs.IP = L_ROOM_READY
	p.Halt(process.HALT_ROOM)
}

func (d *Demo) roomReady(p *process.Process) {
	regs := &p.Regs

	regs.DS, regs.BX = p.GetAddress(process.ADDRESS_ROOM)
	p.Seg.LoadDS(p, regs)

	regs.AX = cpu.Read16(p.Seg.DS, regs.BX)
	regs.Cmp16(regs.AX, ROOMS)
	if !regs.CF() {
		// Out of range rooms restart the world.
		regs.AX = regs.Xor16(regs.AX, regs.AX)
		cpu.Write16(p.Seg.DS, regs.BX, regs.AX)
	}
	p.Tick(6)

	regs.IP = L_DRAW
}

func (d *Demo) draw(p *process.Process) {
	regs := &p.Regs

	// Wait for vertical retrace.
	for {
		regs.SetAL(p.In8(0x3da))
		regs.Test16(regs.AX, 0x0008)
		p.Tick(3)
		if !regs.ZF() {
			break
		}
	}

	room := cpu.Read16(p.Seg.DS, DATA_ROOM)
	base := cpu.Read16(p.Seg.DS, DATA_WORLD+room*2)
	frame := cpu.Read16(p.Seg.DS, DATA_FRAME)

	regs.ES = FRAME_SEG
	p.Seg.LoadES(p, regs)
	fb := p.Seg.ES[:FRAME_SIZE]
	for y := range FRAME_HEIGHT {
		for x := range FRAME_WIDTH {
			fb[y*FRAME_WIDTH+x] = uint8(int(base) + x/8 + y/8 + int(frame))
		}
	}
	p.Tick(FRAME_SIZE)

	// The status line also goes straight to video memory.
	regs.ES = VIDEO_SEG
	p.Seg.LoadES(p, regs)
	copy(p.Seg.ES, fb[:FRAME_WIDTH])

	cpu.Write16(p.Seg.DS, DATA_FRAME, regs.Inc16(frame))

	regs.IP = L_KEYBOARD
	p.Frame(fb)
}

func (d *Demo) keyboard(p *process.Process) {
	p.Regs.IP = L_KEY_READY
	p.Halt(process.HALT_KEYBOARD)
}

func (d *Demo) keyReady(p *process.Process) {
	regs := &p.Regs

	// mov ah, 1; int 16h; jz draw
	regs.AX = 0x0100
	p.Int16()
	if regs.ZF() {
		regs.IP = L_DRAW
		return
	}

	regs.AX = 0x0000
	p.Int16()
	segment, offset := p.GetAddress(process.ADDRESS_KEYBOARD)
	p.Poke16(segment, offset, regs.AX)

	// mov bl, al; xor bh, bh; shl bx, 1; jmp [jump+bx]
	regs.BX = regs.Shl16(uint16(regs.AL()), 1)
	target := cpu.Read16(p.Seg.DS, DATA_JUMP+regs.BX)
	p.Tick(12)

	switch target {
	case L_DRAW, L_QUIT, L_NEXT_ROOM:
		regs.IP = target
	default:
		p.FailedDynamicBranch(CODE_SEG, L_KEY_READY, target)
	}
}

func (d *Demo) nextRoom(p *process.Process) {
	regs := &p.Regs

	regs.AX = regs.Inc16(cpu.Read16(p.Seg.DS, DATA_ROOM))
	regs.Cmp16(regs.AX, ROOMS)
	if regs.ZF() {
		regs.AX = 0
	}
	cpu.Write16(p.Seg.DS, DATA_ROOM, regs.AX)
	p.Tick(5)

	regs.IP = L_ROOM
}

func (d *Demo) quit(p *process.Process) {
	regs := &p.Regs

	p.Call(func() { d.status(p) })

	regs.AX = 0x0900
	regs.DX = DATA_BYE
	p.Int21()

	regs.AX = 0x0003
	p.Int10()

	// mov ah, 4ch; int 21h
	regs.SetAH(0x4c)
	regs.SetAL(regs.BL())
	p.Int21()
}

// status leaves the exit status in BL. Its return address is popped and
// pushed back around the computation.
func (d *Demo) status(p *process.Process) {
	regs := &p.Regs

	// pop dx
	p.Stack.PreSaveRet()
	regs.DX = p.Stack.PopWord()

	// pushf; cmp bl, 0; popf
	p.Stack.PushFlags(regs.Flags)
	regs.BX = cpu.Read16(p.Seg.DS, DATA_ROOM)
	regs.Cmp8(regs.BL(), 0)
	regs.Flags = p.Stack.PopFlags()

	// push dx; ret
	p.Stack.PushWord(regs.DX)
	p.Stack.PostRestoreRet()
	p.Tick(7)
}
