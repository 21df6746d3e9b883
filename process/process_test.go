package process

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/realmode/cpu"
)

const (
	testCS = uint16(0x0100)
	testIP = uint16(0x0010)
	testDS = uint16(0x0800)
)

// testProgram is a translated program built from a Go function.
type testProgram struct {
	run   func(p *Process)
	addrs map[AddressId][2]uint16
}

func (tp *testProgram) Name() string { return "test" }

func (tp *testProgram) Entry() (cs, ip uint16) { return testCS, testIP }

func (tp *testProgram) Address(id AddressId) (segment, offset uint16, ok bool) {
	addr, ok := tp.addrs[id]
	segment, offset = addr[0], addr[1]
	return
}

func (tp *testProgram) Run(p *Process) { tp.run(p) }

// testBackend records the calls made by the translated code.
type testBackend struct {
	ports  map[uint16]uint8
	ticks  []uint64
	ints   []string
	frames int
	hook   func(p *Process)
}

func (tb *testBackend) In(ticks uint64, port uint16) uint8 {
	tb.ticks = append(tb.ticks, ticks)
	return tb.ports[port]
}

func (tb *testBackend) Out(ticks uint64, port uint16, value uint8) {
	tb.ticks = append(tb.ticks, ticks)
	if tb.ports == nil {
		tb.ports = map[uint16]uint8{}
	}
	tb.ports[port] = value
}

func (tb *testBackend) Int10(regs cpu.Registers) cpu.Registers {
	tb.ints = append(tb.ints, "int10")
	regs.SetAL(0x13)
	return regs
}

func (tb *testBackend) Int16(regs cpu.Registers) cpu.Registers {
	tb.ints = append(tb.ints, "int16")
	regs.SetZF()
	regs.ES = 0x1234
	return regs
}

func (tb *testBackend) Int21(regs cpu.Registers) cpu.Registers {
	tb.ints = append(tb.ints, "int21")
	return regs
}

func (tb *testBackend) Frame(p *Process, framebuffer []byte) {
	tb.frames++
	if tb.hook != nil {
		tb.hook(p)
	}
}

func newTestProcess(run func(p *Process)) (p *Process, tb *testBackend) {
	tb = &testBackend{}
	tp := &testProgram{
		run: run,
		addrs: map[AddressId][2]uint16{
			ADDRESS_ROOM:  {testDS, 0x0040},
			ADDRESS_WORLD: {testDS, 0x1000},
		},
	}
	p = NewProcess(tp, tb)
	return
}

// faultOf runs fn, and returns the Fault it raised, if any.
func faultOf(fn func()) (fault *cpu.Fault) {
	defer func() {
		if r := recover(); r != nil {
			var ok bool
			fault, ok = cpu.AsFault(r)
			if !ok {
				panic(r)
			}
		}
	}()

	fn()
	return
}

func TestProcess_Exec(t *testing.T) {
	assert := assert.New(t)

	p, _ := newTestProcess(func(p *Process) {
		p.Halt(HaltExit(0))
	})
	defer p.Close()

	assert.Equal(STATE_UNSTARTED, p.State())

	p.Exec("one two")
	assert.Equal(STATE_HALTED, p.State())
	assert.Equal("one two", p.Args())
	assert.Equal(testCS, p.Regs.CS)
	assert.Equal(testIP, p.Regs.IP)

	// Dirty everything, then exec again.
	p.Poke8(0x1000, 0x10, 0xaa)
	p.Regs.AX = 0x1234
	p.Regs.SetCF()
	p.Stack.PushWord(1)
	p.Tick(10)

	p.Exec("")
	assert.Equal(uint8(0), p.Peek8(0x1000, 0x10))
	assert.Equal(cpu.Registers{CS: testCS, IP: testIP}, p.Regs)
	assert.True(p.Stack.Empty())
	assert.Equal(uint64(0), p.Ticks())
	assert.Equal("", p.Args())
	for _, b := range p.Memory() {
		if b != 0 {
			assert.Fail("memory not zeroed")
			break
		}
	}
}

func TestProcess_MemorySegment(t *testing.T) {
	assert := assert.New(t)

	p, _ := newTestProcess(nil)

	for _, segment := range []uint16{0, 0x0001, 0x1000, MAX_SEGMENT - 1, MAX_SEGMENT} {
		base := p.MemorySegment(segment)
		assert.Len(base, SEGMENT_SIZE)

		for n := range SEGMENT_SIZE {
			base[n] = uint8(n*7 + int(segment))
		}
		for n := range SEGMENT_SIZE {
			if base[n] != uint8(n*7+int(segment)) {
				assert.Fail("segment did not round-trip", "segment 0x%04x offset 0x%04x", segment, n)
				break
			}
		}
	}

	// Paragraph aliasing.
	p.Poke8(0x0001, 0x0000, 0x5a)
	assert.Equal(uint8(0x5a), p.Peek8(0x0000, 0x0010))
}

func TestProcess_MemorySegment_Clamp(t *testing.T) {
	assert := assert.New(t)

	p, _ := newTestProcess(nil)

	for n := range p.Memory() {
		p.Memory()[n] = 0xa5
	}

	top := p.MemorySegment(MAX_SEGMENT)
	for _, segment := range []uint16{MAX_SEGMENT + 1, 0x8000, 0xa000, 0xf000, 0xffff} {
		base := p.MemorySegment(segment)
		assert.Len(base, SEGMENT_SIZE)
		assert.Same(&top[0], &base[0], "segment 0x%04x", segment)

		for n := range SEGMENT_SIZE {
			base[n] = 0x00
		}
		p.Poke16(segment, 0xffff, 0x1234)
	}

	for n, b := range p.Memory() {
		if b != 0xa5 {
			assert.Fail("program memory corrupted", "offset 0x%05x", n)
			break
		}
	}
}

func TestProcess_PeekPoke(t *testing.T) {
	assert := assert.New(t)

	p, _ := newTestProcess(nil)

	p.Poke16(testDS, 0x0010, 0xbeef)
	assert.Equal(uint8(0xef), p.Peek8(testDS, 0x0010))
	assert.Equal(uint8(0xbe), p.Peek8(testDS, 0x0011))
	assert.Equal(uint16(0xbeef), p.Peek16(testDS, 0x0010))

	// Odd addresses need no alignment.
	p.Poke16(testDS, 0x0021, 0x1234)
	assert.Equal(uint16(0x1234), p.Peek16(testDS, 0x0021))

	// Words wrap within the segment.
	p.Poke16(testDS, 0xffff, 0xcafe)
	assert.Equal(uint8(0xfe), p.Peek8(testDS, 0xffff))
	assert.Equal(uint8(0xca), p.Peek8(testDS, 0x0000))
}

func TestProcess_HaltResume(t *testing.T) {
	assert := assert.New(t)

	p, _ := newTestProcess(func(p *Process) {
		p.Regs.DS = testDS
		p.Seg.LoadDS(p, &p.Regs)

		counter := cpu.Read16(p.Seg.DS, 0)
		cpu.Write16(p.Seg.DS, 0, counter+1)
		p.Halt(HALT_FRAME)

		// Verify the counter was not incremented twice.
		if p.Peek16(testDS, 0) != 1 {
			p.Halt(HaltExit(0xee))
		}
		p.Poke16(testDS, 0, p.Peek16(testDS, 0)+1)
		p.Halt(HALT_ROOM)
		p.Halt(HaltExit(3))
	})
	defer p.Close()

	p.Exec("")

	assert.Equal(HALT_FRAME, p.Run())
	assert.Equal(STATE_HALTED, p.State())
	assert.Equal(uint16(1), p.Peek16(testDS, 0))

	assert.Equal(HALT_ROOM, p.Run())
	assert.Equal(uint16(2), p.Peek16(testDS, 0))

	assert.Equal(HaltExit(3), p.Run())
	assert.Equal(STATE_EXITED, p.State())

	// Exit is terminal.
	assert.Equal(HaltExit(3), p.Run())
	assert.Equal(uint16(2), p.Peek16(testDS, 0))

	// Exec restarts from the entry point.
	p.Exec("")
	assert.Equal(HALT_FRAME, p.Run())
	assert.Equal(uint16(1), p.Peek16(testDS, 0))
}

func TestProcess_DriverEdits(t *testing.T) {
	assert := assert.New(t)

	p, _ := newTestProcess(func(p *Process) {
		for {
			p.Halt(HALT_KEYBOARD)
			// The driver's edits are visible after Run.
			cpu.Write8(p.Seg.ES, 0, p.Regs.AL())
		}
	})
	defer p.Close()

	p.Exec("")
	assert.Equal(HALT_KEYBOARD, p.Run())

	p.Regs.ES = 0x0300
	p.Regs.SetAL(0x42)
	assert.Equal(HALT_KEYBOARD, p.Run())
	assert.Equal(uint8(0x42), p.Peek8(0x0300, 0))
}

func TestProcess_ExecAbandons(t *testing.T) {
	assert := assert.New(t)

	var entries int
	p, _ := newTestProcess(func(p *Process) {
		entries++
		for {
			p.Tick(1)
			p.Halt(HALT_FRAME)
		}
	})
	defer p.Close()

	p.Exec("")
	for range 3 {
		assert.Equal(HALT_FRAME, p.Run())
	}
	assert.Equal(uint64(3), p.Ticks())

	p.Exec("")
	assert.Equal(HALT_FRAME, p.Run())
	assert.Equal(uint64(1), p.Ticks())
	assert.Equal(2, entries)
}

func TestProcess_ProtocolFaults(t *testing.T) {
	assert := assert.New(t)

	p, _ := newTestProcess(func(p *Process) {
		p.Halt(HALT_FRAME)
		p.Halt(HaltCode(0x0700))
	})
	defer p.Close()

	fault := faultOf(func() { p.Run() })
	assert.ErrorIs(fault, ErrNotExecuted)

	fault = faultOf(func() { p.Halt(HALT_FRAME) })
	assert.ErrorIs(fault, ErrHaltOutsideRun)
	assert.Equal("process_test.go", fault.File)

	p.Exec("")
	assert.Equal(HALT_FRAME, p.Run())

	fault = faultOf(func() { p.Halt(HALT_FRAME) })
	assert.ErrorIs(fault, ErrHaltOutsideRun)

	fault = faultOf(func() { p.Run() })
	assert.ErrorIs(fault, ErrHaltCode)
	assert.Equal(STATE_FAULTED, p.State())

	fault = faultOf(func() { p.Run() })
	assert.ErrorIs(fault, ErrNotExecuted)
}

func TestProcess_GuestFault(t *testing.T) {
	assert := assert.New(t)

	p, _ := newTestProcess(func(p *Process) {
		p.Stack.PushWord(0x1234)
		p.Stack.PushFlags(p.Regs.Flags)
		p.Halt(HALT_FRAME)
		p.Stack.PopWord()
	})
	defer p.Close()

	p.Exec("")
	assert.Equal(HALT_FRAME, p.Run())

	fault := faultOf(func() { p.Run() })
	assert.ErrorIs(fault, cpu.ErrStackTag)
	assert.Equal("process_test.go", fault.File)
	assert.NotZero(fault.Line)
	assert.Equal(STATE_FAULTED, p.State())

	// Exec recovers the process.
	p.Exec("")
	assert.Equal(HALT_FRAME, p.Run())
}

func TestProcess_GuestPanic(t *testing.T) {
	assert := assert.New(t)

	p, _ := newTestProcess(func(p *Process) {
		panic("translated code bug")
	})
	defer p.Close()

	p.Exec("")
	fault := faultOf(func() { p.Run() })
	assert.ErrorIs(fault, ErrGuestPanic)
	assert.ErrorContains(fault, "translated code bug")
	assert.Equal("process_test.go", fault.File)
	assert.NotZero(fault.Line)
	assert.Equal(STATE_FAULTED, p.State())
}

func TestProcess_GuestRuntimeError(t *testing.T) {
	assert := assert.New(t)

	p, _ := newTestProcess(func(p *Process) {
		var windows cpu.SegmentCache
		cpu.Write8(windows.ES, 0x10, 0xff)
		p.Halt(HaltExit(0))
	})
	defer p.Close()

	p.Exec("")
	fault := faultOf(func() { p.Run() })
	assert.ErrorIs(fault, ErrGuestPanic)
	var rte runtime.Error
	assert.True(errors.As(fault, &rte))
	assert.Equal("process_test.go", fault.File)
	assert.NotZero(fault.Line)
	assert.Equal(STATE_FAULTED, p.State())
}

func TestProcess_CloseReleases(t *testing.T) {
	assert := assert.New(t)

	p, _ := newTestProcess(func(p *Process) {
		for {
			p.Halt(HALT_FRAME)
		}
	})

	p.Exec("")
	assert.Equal(HALT_FRAME, p.Run())
	co := p.co

	assert.NoError(p.Close())
	assert.Nil(p.co)
	assert.Equal(STATE_UNSTARTED, p.State())
	select {
	case <-co.done:
	default:
		assert.Fail("guest goroutine still suspended")
	}
}

func TestProcess_ProgramReturned(t *testing.T) {
	assert := assert.New(t)

	p, _ := newTestProcess(func(p *Process) {})
	defer p.Close()

	p.Exec("")
	fault := faultOf(func() { p.Run() })
	assert.ErrorIs(fault, ErrProgramReturned)
}

func TestProcess_Reentrant(t *testing.T) {
	assert := assert.New(t)

	p, tb := newTestProcess(func(p *Process) {
		p.Frame(nil)
	})
	defer p.Close()
	tb.hook = func(p *Process) {
		p.Run()
	}

	p.Exec("")
	fault := faultOf(func() { p.Run() })
	assert.ErrorIs(fault, ErrReentrant)

	tb.hook = func(p *Process) {
		p.Exec("")
	}
	p.Exec("")
	fault = faultOf(func() { p.Run() })
	assert.ErrorIs(fault, ErrReentrant)
}

func TestProcess_GetAddress(t *testing.T) {
	assert := assert.New(t)

	p, _ := newTestProcess(func(p *Process) {
		p.GetAddress(ADDRESS_PALETTE)
	})
	defer p.Close()

	segment, offset := p.GetAddress(ADDRESS_ROOM)
	assert.Equal(testDS, segment)
	assert.Equal(uint16(0x0040), offset)

	fault := faultOf(func() { p.GetAddress(ADDRESS_KEYBOARD) })
	assert.ErrorIs(fault, ErrAddressUnknown)
	assert.Equal(ErrAddress(ADDRESS_KEYBOARD), fault.Err)

	p.Exec("")
	fault = faultOf(func() { p.Run() })
	assert.ErrorIs(fault, ErrAddressUnknown)
}

func TestProcess_FailedDynamicBranch(t *testing.T) {
	assert := assert.New(t)

	p, _ := newTestProcess(func(p *Process) {
		target := p.Peek16(testDS, 0x0020)
		switch target {
		case 0x0100:
			p.Halt(HALT_FRAME)
		default:
			p.FailedDynamicBranch(testCS, 0x0042, target)
		}
	})
	defer p.Close()

	p.Exec("")
	p.Poke16(testDS, 0x0020, 0x0666)
	fault := faultOf(func() { p.Run() })
	assert.ErrorIs(fault, ErrDynamicBranch)
	assert.Equal(ErrBranch{CS: testCS, IP: 0x0042, Value: 0x0666}, fault.Err)
	assert.Equal("process_test.go", fault.File)
	assert.Contains(fault.Error(), "0100:0042")
}

func TestProcess_Interrupts(t *testing.T) {
	assert := assert.New(t)

	p, tb := newTestProcess(func(p *Process) {
		p.Int10()
		p.Regs.BX = uint16(p.Regs.AL())
		p.Int16()
		cpu.Write8(p.Seg.ES, 0, 0x77)
		p.Regs.AX = 0x4c05
		p.Int21()
	})
	defer p.Close()

	p.Exec("")
	assert.Equal(HaltExit(5), p.Run())
	assert.Equal([]string{"int10", "int16", "int21"}, tb.ints)
	assert.Equal(uint16(0x13), p.Regs.BX)
	assert.True(p.Regs.ZF())
	assert.Equal(uint8(0x77), p.Peek8(0x1234, 0))
}

func TestProcess_Ports(t *testing.T) {
	assert := assert.New(t)

	p, tb := newTestProcess(func(p *Process) {
		p.Tick(100)
		p.Out16(0x3c8, 0x2a01)
		p.Tick(5)
		p.Regs.AX = p.In16(0x3c8)
		p.Regs.BX = uint16(p.In8(0x3c9))
		p.Halt(HaltExit(0))
	})
	defer p.Close()

	p.Exec("")
	assert.Equal(HaltExit(0), p.Run())
	assert.Equal(uint8(0x01), tb.ports[0x3c8])
	assert.Equal(uint8(0x2a), tb.ports[0x3c9])
	assert.Equal(uint16(0x2a01), p.Regs.AX)
	assert.Equal(uint16(0x2a), p.Regs.BX)
	assert.Equal([]uint64{100, 100, 105, 105, 105}, tb.ticks)
}

func TestProcess_CallFrame(t *testing.T) {
	assert := assert.New(t)

	var depth int
	p, tb := newTestProcess(func(p *Process) {
		p.Call(func() {
			depth = p.Stack.Depth
			p.Frame(make([]byte, 4))
		})
		p.Halt(HaltExit(0))
	})
	defer p.Close()

	p.Exec("")
	assert.Equal(HALT_FRAME, p.Run())
	assert.Equal(1, depth)
	assert.Equal(1, tb.frames)
	slot, ok := p.Stack.Peek()
	assert.True(ok)
	assert.Equal(cpu.SLOT_RETURN, slot.Tag)

	assert.Equal(HaltExit(0), p.Run())
	assert.True(p.Stack.Empty())
}

func TestProcess_Defines(t *testing.T) {
	assert := assert.New(t)

	p, _ := newTestProcess(nil)
	p.Regs.AX = 0x1234

	defines := map[string]string{}
	for key, value := range p.Defines() {
		defines[key] = value
	}

	assert.Equal("0x1234", defines["ax"])
	assert.Equal("0x2000", defines["MAX_SEGMENT"])
	assert.Equal("0x0800", defines["ROOM_SEG"])
	assert.Equal("0x0040", defines["ROOM_OFF"])
	assert.Equal("0x1000", defines["WORLD_OFF"])
	assert.NotContains(defines, "PALETTE_SEG")
}

func TestHaltCode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code   HaltCode
		valid  bool
		kind   HaltCode
		status uint8
		text   string
	}){
		{HaltExit(0), true, HALT_EXIT, 0, "exit(0)"},
		{HaltExit(0xff), true, HALT_EXIT, 0xff, "exit(255)"},
		{HALT_FRAME, true, HALT_FRAME, 0, "frame"},
		{HALT_ROOM, true, HALT_ROOM, 0, "room"},
		{HALT_KEYBOARD, true, HALT_KEYBOARD, 0, "keyboard"},
		{HALT_FRAME | 1, false, HALT_FRAME, 1, "HaltCode(0x0101)"},
		{HaltCode(0x0400), false, HaltCode(0x0400), 0, "HaltCode(0x0400)"},
	}

	for _, entry := range table {
		assert.Equal(entry.valid, entry.code.Valid(), entry.text)
		assert.Equal(entry.kind, entry.code.Kind(), entry.text)
		assert.Equal(entry.status, entry.code.Status(), entry.text)
		assert.Equal(entry.text, entry.code.String())
	}
}

func TestProcess_FaultUnwrap(t *testing.T) {
	assert := assert.New(t)

	var err error = &cpu.Fault{File: "x.go", Line: 1, Err: ErrBranch{CS: 1, IP: 2, Value: 3}}
	var branch ErrBranch
	assert.True(errors.As(err, &branch))
	assert.Equal(uint16(3), branch.Value)
}
