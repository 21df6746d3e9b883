// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"log"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/ezrec/realmode/demo"
	"github.com/ezrec/realmode/emulator"
	"github.com/ezrec/realmode/internal"
	"github.com/ezrec/realmode/process"
)

var _programs = map[string]func() process.Program{
	"demo": func() process.Program { return demo.New() },
}

func main() {
	var program string
	var args string
	var verbose bool
	var frames string
	var maxFrames int
	var rooms string
	var keys string
	var commands string
	var save string
	var load string

	flag.StringVar(&program, "p", "demo", "Translated program to run")
	flag.StringVar(&args, "a", "", "Argument line of the program")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.StringVar(&frames, "f", "", "Directory to dump frames to, as .bmp files")
	flag.IntVar(&maxFrames, "n", 0, "Frames to run before stopping, 0 for no limit")
	flag.StringVar(&rooms, "r", "", "Comma separated rooms to enter")
	flag.StringVar(&keys, "k", "", "Keys to type before starting")
	flag.StringVar(&commands, "m", "", "Semicolon separated monitor commands to run when stopped")
	flag.StringVar(&save, "s", "", "Save state file to write when stopped")
	flag.StringVar(&load, "l", "", "Save state file to resume from")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	newProgram, ok := _programs[program]
	if !ok {
		log.Fatalf("%v: Unknown program, expected one of %v", program, internal.SortedKeys(maps.All(_programs)))
	}

	emu := emulator.NewEmulator(newProgram(), os.Stdout)
	defer emu.Close()
	emu.Verbose = verbose
	emu.Backend.FrameDir = frames
	emu.MaxFrames = maxFrames

	for _, room := range slices.DeleteFunc(strings.Split(rooms, ","), func(a string) bool { return len(a) == 0 }) {
		value, err := strconv.ParseUint(room, 0, 16)
		if err != nil {
			log.Fatalf("%v: %v", room, err)
		}
		emu.Rooms = append(emu.Rooms, uint16(value))
	}

	if len(load) != 0 {
		data, err := os.ReadFile(load)
		if err != nil {
			log.Fatalf("%v: %v", load, err)
		}
		emu.Process.Verbose = verbose
		err = emu.Load(data)
		if err != nil {
			log.Fatalf("%v: %v", load, err)
		}
	} else {
		emu.Reset(args)
	}
	emu.Backend.Keyboard.Type(keys)

	kr, err := startKeys()
	if err != nil {
		log.Fatalf("terminal: %v", err)
	}
	err = runGuest(emu, kr)

	if len(commands) != 0 {
		mon := emu.Monitor(os.Stdout)
		for _, line := range strings.Split(commands, ";") {
			if len(strings.TrimSpace(line)) == 0 {
				continue
			}
			monErr := mon.Exec(line)
			if monErr != nil {
				log.Printf("%v: %v", line, monErr)
			}
		}
	}

	if len(save) != 0 && emu.State() != process.STATE_UNSTARTED {
		data, saveErr := emu.Save()
		if saveErr == nil {
			saveErr = os.WriteFile(save, data, 0o644)
		}
		if saveErr != nil {
			log.Fatalf("%v: %v", save, saveErr)
		}
	}

	var exit emulator.ErrExit
	switch {
	case err == nil:
	case errors.Is(err, emulator.ErrFrameLimit):
	case errors.As(err, &exit):
		emu.Close()
		os.Exit(int(exit))
	default:
		log.Fatal(err)
	}
}

// runGuest runs the guest until it stops, typing the keys read by kr.
// The terminal is restored even if the guest faults.
func runGuest(emu *emulator.Emulator, kr *keyReader) (err error) {
	if kr != nil {
		emu.Keys = kr.keys
		defer kr.Stop()
	}

	err = emu.RunToExit()
	return
}
