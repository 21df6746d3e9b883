package process

// In8 reads a byte from a port through the backend.
func (p *Process) In8(port uint16) uint8 {
	return p.Backend.In(p.ticks, port)
}

// Out8 writes a byte to a port through the backend.
func (p *Process) Out8(port uint16, value uint8) {
	p.Backend.Out(p.ticks, port, value)
}

// In16 reads a word from a port pair, low byte first.
func (p *Process) In16(port uint16) uint16 {
	lo := p.Backend.In(p.ticks, port)
	hi := p.Backend.In(p.ticks, port+1)
	return uint16(lo) | (uint16(hi) << 8)
}

// Out16 writes a word to a port pair, low byte first.
func (p *Process) Out16(port uint16, value uint16) {
	p.Backend.Out(p.ticks, port, uint8(value))
	p.Backend.Out(p.ticks, port+1, uint8(value>>8))
}

// Int10 calls the video services.
func (p *Process) Int10() {
	p.Regs = p.Backend.Int10(p.Regs)
	p.Seg.LoadAll(p, &p.Regs)
}

// Int16 calls the keyboard services.
func (p *Process) Int16() {
	p.Regs = p.Backend.Int16(p.Regs)
	p.Seg.LoadAll(p, &p.Regs)
}

// Int21 calls the operating system services. The terminate services
// halt with the exit status after the backend has seen them.
func (p *Process) Int21() {
	service := p.Regs.AH()
	status := p.Regs.AL()

	p.Regs = p.Backend.Int21(p.Regs)
	p.Seg.LoadAll(p, &p.Regs)

	switch service {
	case 0x00:
		p.Halt(HaltExit(0))
	case 0x4c:
		p.Halt(HaltExit(status))
	}
}
