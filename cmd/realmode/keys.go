package main

import (
	"os"

	"golang.org/x/term"
)

// keyReader feeds raw terminal keys to the emulator.
type keyReader struct {
	keys    chan byte
	restore func() error // Restores the terminal; nil once restored.
}

// startKeys puts the terminal in raw mode and reads keys in a goroutine.
// It returns nil if stdin is not a terminal.
func startKeys() (kr *keyReader, err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return
	}

	kr = &keyReader{
		keys:    make(chan byte, 64),
		restore: func() error { return term.Restore(fd, oldState) },
	}

	go kr.read()
	return
}

func (kr *keyReader) read() {
	defer close(kr.keys)

	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}

		b := buf[0]
		switch b {
		case 0x03: // Ctrl-C leaves through the guest's escape handler.
			b = 0x1b
		case 0x7f:
			b = '\b'
		}

		select {
		case kr.keys <- b:
		default:
			// Type-ahead overflow.
		}
	}
}

// Stop restores the terminal.
func (kr *keyReader) Stop() {
	if kr.restore != nil {
		_ = kr.restore()
		kr.restore = nil
	}
}
