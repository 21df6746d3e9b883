// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package monitor provides a command monitor for inspecting and editing a
// halted process.
//
// Numeric arguments may be numbers, define names (registers in lower case,
// layout constants and well-known addresses in upper case), or $(...)
// expressions, evaluated by Starlark with the defines predefined as
// integers, and the peek8(seg, off) and peek16(seg, off) builtins.
package monitor

import (
	"encoding/hex"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/realmode/cpu"
	"github.com/ezrec/realmode/internal"
	"github.com/ezrec/realmode/process"
)

// command is a monitor command handler.
type command struct {
	args  int    // Count of arguments, or -1 for any.
	names int    // Count of leading arguments that are names, not values.
	help  string // Usage text.
	run   func(mon *Monitor, args []string) error
}

var _commands map[string]command

func init() {
	_commands = map[string]command{
		"help":   {0, 0, "help", (*Monitor).help},
		"regs":   {0, 0, "regs", (*Monitor).regs},
		"stack":  {0, 0, "stack", (*Monitor).stack},
		"state":  {0, 0, "state", (*Monitor).state},
		"peek8":  {2, 0, "peek8 seg off", (*Monitor).peek8},
		"peek16": {2, 0, "peek16 seg off", (*Monitor).peek16},
		"poke8":  {3, 0, "poke8 seg off value", (*Monitor).poke8},
		"poke16": {3, 0, "poke16 seg off value", (*Monitor).poke16},
		"dump":   {3, 0, "dump seg off len", (*Monitor).dump},
		"set":    {2, 1, "set reg value", (*Monitor).set},
		"addr":   {1, 1, "addr name", (*Monitor).addr},
		"print":  {-1, 0, "print value...", (*Monitor).print},
	}
}

// Monitor runs commands against a halted process.
type Monitor struct {
	Verbose bool             // If set, logs each command.
	Process *process.Process // Process under inspection.
	Output  io.Writer        // Command output.

	// Defines, if set, supplies the defines for arguments in place of
	// the process defines.
	Defines func() iter.Seq2[string, string]
}

// NewMonitor creates a monitor for a process.
func NewMonitor(p *process.Process, output io.Writer) (mon *Monitor) {
	mon = &Monitor{
		Process: p,
		Output:  output,
	}
	return
}

func (mon *Monitor) defines() map[string]string {
	var seq iter.Seq2[string, string]
	if mon.Defines != nil {
		seq = mon.Defines()
	} else {
		seq = mon.Process.Defines()
	}

	defines := map[string]string{}
	for key, value := range seq {
		defines[key] = value
	}
	return defines
}

func (mon *Monitor) printf(format string, args ...any) {
	fmt.Fprintf(mon.Output, format, args...)
}

// Exec runs one command line.
func (mon *Monitor) Exec(line string) (err error) {
	if mon.Process == nil {
		err = ErrNoProcess
		return
	}

	if mon.Verbose {
		log.Printf("monitor: %v", line)
	}

	defines := mon.defines()

	// Do $() evaluations
	re := regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := mon.parenEval(str[2:len(str)-1], defines)
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#x", value)
	})
	if err != nil {
		return
	}

	words := slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })
	if len(words) == 0 {
		err = ErrEmpty
		return
	}

	name, args := strings.ToLower(words[0]), words[1:]
	cmd, ok := _commands[name]
	if !ok {
		err = ErrCommand(name)
		return
	}
	if cmd.args >= 0 && len(args) != cmd.args {
		err = &ErrArguments{Command: name, Want: cmd.args, Have: len(args)}
		return
	}

	for n, word := range args[cmd.names:] {
		// Check for defines next
		define, ok := defines[word]
		if ok {
			args[cmd.names+n] = define
		}
	}

	err = cmd.run(mon, args)
	return
}

// ExecAll runs each command line, stopping at the first error.
func (mon *Monitor) ExecAll(lines iter.Seq[string]) (err error) {
	for line := range lines {
		err = mon.Exec(line)
		if err != nil {
			return
		}
	}
	return
}

// parenEval evaluates a $(...) expression.
func (mon *Monitor) parenEval(expr string, defines map[string]string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{
		"peek8":  starlark.NewBuiltin("peek8", mon.starPeek8),
		"peek16": starlark.NewBuiltin("peek16", mon.starPeek16),
	}
	for key, str := range defines {
		var value32 uint32
		value32, err = valueOf(str)
		if err != nil {
			// Ignore non-integer defines.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt(int(value32))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrExpression(expr)
		return
	}
	value = uint32(st_int64)
	return
}

func (mon *Monitor) starPeek(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (segment, offset uint16, err error) {
	var seg, off int
	err = starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &seg, &off)
	if err != nil {
		return
	}
	segment, offset = uint16(seg), uint16(off)
	return
}

func (mon *Monitor) starPeek8(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	segment, offset, err := mon.starPeek(b, args, kwargs)
	if err != nil {
		return nil, err
	}
	return starlark.MakeInt(int(mon.Process.Peek8(segment, offset))), nil
}

func (mon *Monitor) starPeek16(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	segment, offset, err := mon.starPeek(b, args, kwargs)
	if err != nil {
		return nil, err
	}
	return starlark.MakeInt(int(mon.Process.Peek16(segment, offset))), nil
}

// valueOf parses a number, with an optional leading '~' to invert it.
func valueOf(word string) (value uint32, err error) {
	if len(word) == 0 {
		err = ErrNumber(word)
		return
	}

	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}

	v64, err := strconv.ParseInt(word, 0, 33)
	if err != nil {
		err = ErrNumber(word)
		return
	}
	value = uint32(v64)

	if invert {
		value = ^value
	}

	return
}

// values parses all arguments as 16-bit values.
func values(args []string) (words []uint16, err error) {
	for _, arg := range args {
		var value uint32
		value, err = valueOf(arg)
		if err != nil {
			return
		}
		words = append(words, uint16(value))
	}
	return
}

func (mon *Monitor) help(args []string) (err error) {
	for _, name := range internal.SortedKeys(maps.All(_commands)) {
		mon.printf("%v\n", _commands[name].help)
	}
	return
}

func (mon *Monitor) regs(args []string) (err error) {
	mon.printf("%v", mon.Process.Regs.String())
	return
}

func (mon *Monitor) stack(args []string) (err error) {
	stack := &mon.Process.Stack
	mon.printf("depth %d, saved %d\n", stack.Depth, stack.Saved)
	for depth, slot := range stack.Slots() {
		switch slot.Tag {
		case cpu.SLOT_WORD:
			mon.printf("%4d: %-6v %04X\n", depth, slot.Tag, slot.Word)
		case cpu.SLOT_FLAGS:
			mon.printf("%4d: %-6v %04X\n", depth, slot.Tag, slot.Flags.Word())
		default:
			mon.printf("%4d: %v\n", depth, slot.Tag)
		}
	}
	return
}

func (mon *Monitor) state(args []string) (err error) {
	p := mon.Process
	mon.printf("%v %v at %04X:%04X, %d ticks\n", p.Program.Name(), p.State(), p.Regs.CS, p.Regs.IP, p.Ticks())
	return
}

func (mon *Monitor) peek8(args []string) (err error) {
	v, err := values(args)
	if err != nil {
		return
	}
	mon.printf("%04X:%04X %02X\n", v[0], v[1], mon.Process.Peek8(v[0], v[1]))
	return
}

func (mon *Monitor) peek16(args []string) (err error) {
	v, err := values(args)
	if err != nil {
		return
	}
	mon.printf("%04X:%04X %04X\n", v[0], v[1], mon.Process.Peek16(v[0], v[1]))
	return
}

func (mon *Monitor) poke8(args []string) (err error) {
	v, err := values(args)
	if err != nil {
		return
	}
	mon.Process.Poke8(v[0], v[1], uint8(v[2]))
	return
}

func (mon *Monitor) poke16(args []string) (err error) {
	v, err := values(args)
	if err != nil {
		return
	}
	mon.Process.Poke16(v[0], v[1], v[2])
	return
}

func (mon *Monitor) dump(args []string) (err error) {
	v, err := values(args)
	if err != nil {
		return
	}

	segment, offset, length := v[0], v[1], int(v[2])
	data := make([]byte, length)
	for n := range data {
		data[n] = mon.Process.Peek8(segment, offset+uint16(n))
	}
	mon.printf("%04X:%04X\n%v", segment, offset, hex.Dump(data))
	return
}

func (mon *Monitor) set(args []string) (err error) {
	name := strings.ToLower(args[0])
	value, err := valueOf(args[1])
	if err != nil {
		return
	}

	regs := &mon.Process.Regs
	if name == "flags" {
		regs.SetWord(uint16(value))
		return
	}

	reg, ok := regs.Register(name)
	if !ok {
		err = ErrRegister(name)
		return
	}
	*reg = uint16(value)
	return
}

func (mon *Monitor) addr(args []string) (err error) {
	name := strings.ToLower(args[0])
	for _, id := range process.AddressIds {
		if id.String() != name {
			continue
		}
		segment, offset, ok := mon.Process.Program.Address(id)
		if !ok {
			err = ErrAddress(name)
			return
		}
		mon.printf("%v %04X:%04X\n", name, segment, offset)
		return
	}

	err = ErrAddress(name)
	return
}

func (mon *Monitor) print(args []string) (err error) {
	v, err := values(args)
	if err != nil {
		return
	}
	for n, value := range v {
		if n > 0 {
			mon.printf(" ")
		}
		mon.printf("%04X", value)
	}
	mon.printf("\n")
	return
}
