// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package process

import (
	"fmt"
	"iter"
	"log"
	"maps"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"github.com/ezrec/realmode/cpu"
	"github.com/ezrec/realmode/internal"
)

// State of a process, as seen by its driver.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_UNSTARTED = State(0) // unstarted
	STATE_HALTED    = State(1) // halted
	STATE_RUNNING   = State(2) // running
	STATE_EXITED    = State(3) // exited
	STATE_FAULTED   = State(4) // faulted
)

// yielded is what the guest continuation hands back to Run.
type yielded struct {
	code  HaltCode
	fault *cpu.Fault
}

// coroutine is the guest continuation: a goroutine running the translated
// code, that only runs while the driver is blocked in Run.
type coroutine struct {
	resume chan struct{} // Driver to guest; closed to abandon.
	yield  chan yielded  // Guest to driver.
	done   chan struct{} // Closed when the guest goroutine exits.
}

// Process is a translated guest program, with its memory arena, register
// file, virtual stack and suspended continuation.
type Process struct {
	Verbose bool // Set to enable verbose logging.

	Program Program // Translated program.
	Backend Backend // Host hardware emulation.

	Regs  cpu.Registers    // Register file.
	Stack cpu.Stack        // Virtual stack.
	Seg   cpu.SegmentCache // Segment windows of Regs.

	arena []byte // Program memory and the safe page.
	args  string // Argument line.
	ticks uint64 // Elapsed guest instructions.

	state State
	last  HaltCode // Last halt code returned by Run.
	co    *coroutine
}

// NewProcess creates a process for a translated program and its backend.
// The process must be started with Exec. A started process holds a
// suspended guest goroutine until it is closed, so Close is required.
func NewProcess(program Program, backend Backend) (p *Process) {
	p = &Process{
		Program: program,
		Backend: backend,
		arena:   make([]byte, ARENA_SIZE),
	}

	return
}

// State returns the state of the process.
func (p *Process) State() State {
	return p.state
}

// Args returns the argument line given to Exec.
func (p *Process) Args() string {
	return p.args
}

// Ticks returns the elapsed guest instruction count.
func (p *Process) Ticks() uint64 {
	return p.ticks
}

// Tick advances the elapsed guest instruction count.
func (p *Process) Tick(count int) {
	p.ticks += uint64(count)
}

// Close abandons any suspended continuation.
func (p *Process) Close() (err error) {
	if p.state == STATE_RUNNING {
		cpu.Fatal(ErrReentrant)
	}

	p.abandon()
	p.state = STATE_UNSTARTED
	return
}

// Exec resets the process to a fresh run of the program from its entry
// point: memory is zeroed, registers and stack are cleared, and the
// argument line is recorded.
func (p *Process) Exec(args string) {
	if p.state == STATE_RUNNING {
		cpu.Fatal(ErrReentrant)
	}

	p.abandon()

	clear(p.arena)
	p.Regs.Reset()
	p.Stack.Reset()
	p.Regs.CS, p.Regs.IP = p.Program.Entry()
	p.args = args
	p.ticks = 0
	p.last = 0

	if p.Verbose {
		log.Printf("process: exec %v at %04x:%04x %q", p.Program.Name(), p.Regs.CS, p.Regs.IP, args)
	}

	p.start()
}

// start prepares a fresh continuation, entering the program at CS:IP on
// the first Run.
func (p *Process) start() {
	co := &coroutine{
		resume: make(chan struct{}),
		yield:  make(chan yielded),
		done:   make(chan struct{}),
	}
	p.co = co
	p.state = STATE_HALTED

	go p.guest(co)
}

// abandon discards the suspended continuation, and waits for its goroutine
// to exit.
func (p *Process) abandon() {
	co := p.co
	if co == nil {
		return
	}

	p.co = nil
	close(co.resume)
	<-co.done
}

// guest is the body of the guest goroutine.
func (p *Process) guest(co *coroutine) {
	defer close(co.done)

	_, ok := <-co.resume
	if !ok {
		return
	}

	returned := false
	defer func() {
		r := recover()
		switch {
		case r != nil:
			fault, ok := cpu.AsFault(r)
			if !ok {
				fault = panicFault(r)
			}
			co.yield <- yielded{fault: fault}
		case returned:
			co.yield <- yielded{fault: &cpu.Fault{File: p.Program.Name(), Err: ErrProgramReturned}}
		default:
			// Abandoned while suspended in Halt.
		}
	}()

	p.Program.Run(p)
	returned = true
}

// panicFault locates a panic raised by the translated code itself, such
// as a runtime error, at the innermost frame outside of the runtime and
// the cpu package. It must be called from the deferred recover.
func panicFault(r any) (fault *cpu.Fault) {
	err, ok := r.(error)
	if ok {
		err = fmt.Errorf("%w: %w", ErrGuestPanic, err)
	} else {
		err = fmt.Errorf("%w: %v", ErrGuestPanic, r)
	}
	fault = &cpu.Fault{File: "?", Err: err}

	pc := make([]uintptr, 64)
	frames := runtime.CallersFrames(pc[:runtime.Callers(1, pc)])
	panicking := false
	for {
		frame, more := frames.Next()
		switch {
		case frame.Function == "runtime.gopanic":
			panicking = true
		case !panicking:
		case strings.HasPrefix(frame.Function, "runtime."):
		case strings.HasPrefix(frame.Function, _cpu_package):
		default:
			fault.File = filepath.Base(frame.File)
			fault.Line = frame.Line
			return
		}
		if !more {
			return
		}
	}
}

var _cpu_package = reflect.TypeFor[cpu.Fault]().PkgPath() + "."

// Run transfers control to the translated code, from wherever it last
// halted, and returns the code it passes to the next Halt.
//
// Run after an exit halt returns the same exit code without resuming.
// A Fault raised by the translated code is raised again from Run. Any
// other panic of the translated code is raised from Run as a Fault
// wrapping ErrGuestPanic.
func (p *Process) Run() (code HaltCode) {
	switch p.state {
	case STATE_UNSTARTED, STATE_FAULTED:
		cpu.Fatal(ErrNotExecuted)
	case STATE_RUNNING:
		cpu.Fatal(ErrReentrant)
	case STATE_EXITED:
		code = p.last
		return
	}

	p.Seg.LoadAll(p, &p.Regs)

	co := p.co
	p.state = STATE_RUNNING
	co.resume <- struct{}{}
	y := <-co.yield

	if y.fault != nil {
		p.state = STATE_FAULTED
		<-co.done
		p.co = nil
		panic(y.fault)
	}

	code = y.code
	p.last = code
	if code.Kind() == HALT_EXIT {
		p.state = STATE_EXITED
	} else {
		p.state = STATE_HALTED
	}

	if p.Verbose {
		log.Printf("process: halt %v at %04x:%04x", code, p.Regs.CS, p.Regs.IP)
	}

	return
}

// Halt returns control to the pending Run with code. It may only be
// called by the translated code, or by hooks it invokes. Halt returns only
// when the driver calls Run again, and never after an exit code.
func (p *Process) Halt(code HaltCode) {
	if p.state != STATE_RUNNING {
		cpu.Fatal(ErrHaltOutsideRun)
	}
	if !code.Valid() {
		panic(cpu.NewFault(1, fmt.Errorf("%w: %v", ErrHaltCode, code)))
	}

	co := p.co
	co.yield <- yielded{code: code}
	_, ok := <-co.resume
	if !ok {
		runtime.Goexit()
	}
}

// GetAddress locates a well-known address of the program.
func (p *Process) GetAddress(id AddressId) (segment, offset uint16) {
	segment, offset, ok := p.Program.Address(id)
	if !ok {
		cpu.Fatal(ErrAddress(id))
	}
	return
}

// FailedDynamicBranch reports a computed jump or call target at cs:ip that
// the translator did not resolve. It never returns.
func (p *Process) FailedDynamicBranch(cs, ip, value uint16) {
	cpu.Fatal(ErrBranch{CS: cs, IP: ip, Value: value})
}

// Call runs a translated procedure bracketed by a return marker on the
// virtual stack.
func (p *Process) Call(procedure func()) {
	p.Stack.PushReturn()
	procedure()
	p.Stack.PopReturn()
}

// Frame delivers a completed frame to the backend, then halts.
func (p *Process) Frame(framebuffer []byte) {
	p.Backend.Frame(p, framebuffer)
	p.Halt(HALT_FRAME)
}

// Defines returns the register values and memory layout constants, for
// use in monitor expressions.
func (p *Process) Defines() iter.Seq2[string, string] {
	regs := map[string]string{}
	for name, value := range p.Regs.Values() {
		regs[name] = fmt.Sprintf("0x%04x", value)
	}

	addrs := map[string]string{}
	if p.Program != nil {
		for _, id := range AddressIds {
			segment, offset, ok := p.Program.Address(id)
			if !ok {
				continue
			}
			name := strings.ToUpper(id.String())
			addrs[name+"_SEG"] = fmt.Sprintf("0x%04x", segment)
			addrs[name+"_OFF"] = fmt.Sprintf("0x%04x", offset)
		}
	}

	return internal.IterSeq2Concat(maps.All(_process_defines),
		maps.All(regs),
		maps.All(addrs),
	)
}

var _process_defines = map[string]string{
	"PROGRAM_SIZE": fmt.Sprintf("0x%x", PROGRAM_SIZE),
	"SEGMENT_SIZE": fmt.Sprintf("0x%x", SEGMENT_SIZE),
	"MAX_SEGMENT":  fmt.Sprintf("0x%x", MAX_SEGMENT),
	"STACK_LIMIT":  fmt.Sprintf("%d", cpu.STACK_LIMIT),
}
