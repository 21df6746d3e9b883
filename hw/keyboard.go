package hw

const (
	PORT_KEYBOARD_DATA   = uint16(0x60) // Last scan code.
	PORT_KEYBOARD_STATUS = uint16(0x64) // Controller status.

	KEYBOARD_FULL = uint8(0x01) // Output buffer full.

	KEYBOARD_LIMIT = 16 // BIOS type-ahead buffer size.
)

// Key is a keystroke as the BIOS reports it.
type Key struct {
	Scan  uint8
	ASCII uint8
}

// Word returns the key in the int 16h AX layout.
func (k Key) Word() uint16 {
	return uint16(k.Scan)<<8 | uint16(k.ASCII)
}

// Keyboard is the BIOS type-ahead buffer.
type Keyboard struct {
	Queue []Key
	Last  uint8 // Last scan code read through the data port.
}

// Reset empties the queue.
func (kb *Keyboard) Reset() {
	*kb = Keyboard{}
}

// Push queues a key. Keys are dropped while the queue is full.
func (kb *Keyboard) Push(key Key) (ok bool) {
	if len(kb.Queue) >= KEYBOARD_LIMIT {
		return
	}
	kb.Queue = append(kb.Queue, key)
	ok = true
	return
}

// Type queues the keys for an ASCII string.
func (kb *Keyboard) Type(text string) {
	for _, c := range []byte(text) {
		kb.Push(KeyOf(c))
	}
}

// Peek returns the next key, without removing it.
func (kb *Keyboard) Peek() (key Key, ok bool) {
	if len(kb.Queue) == 0 {
		return
	}
	key, ok = kb.Queue[0], true
	return
}

// Pop removes and returns the next key.
func (kb *Keyboard) Pop() (key Key, ok bool) {
	key, ok = kb.Peek()
	if ok {
		kb.Queue = kb.Queue[1:]
		kb.Last = key.Scan
	}
	return
}

func (kb *Keyboard) in(port uint16) (value uint8, ok bool) {
	switch port {
	case PORT_KEYBOARD_DATA:
		if key, found := kb.Pop(); found {
			value = key.Scan
		} else {
			value = kb.Last
		}
	case PORT_KEYBOARD_STATUS:
		if len(kb.Queue) > 0 {
			value = KEYBOARD_FULL
		}
	default:
		return
	}

	ok = true
	return
}

// _scan_codes are the set 1 make codes of the US keyboard, by ASCII.
var _scan_codes = map[uint8]uint8{
	0x1b: 0x01, '\b': 0x0e, '\t': 0x0f, '\r': 0x1c, '\n': 0x1c, ' ': 0x39,
	'1': 0x02, '2': 0x03, '3': 0x04, '4': 0x05, '5': 0x06,
	'6': 0x07, '7': 0x08, '8': 0x09, '9': 0x0a, '0': 0x0b,
	'-': 0x0c, '=': 0x0d, '[': 0x1a, ']': 0x1b, ';': 0x27,
	'\'': 0x28, '`': 0x29, '\\': 0x2b, ',': 0x33, '.': 0x34, '/': 0x35,
	'q': 0x10, 'w': 0x11, 'e': 0x12, 'r': 0x13, 't': 0x14,
	'y': 0x15, 'u': 0x16, 'i': 0x17, 'o': 0x18, 'p': 0x19,
	'a': 0x1e, 's': 0x1f, 'd': 0x20, 'f': 0x21, 'g': 0x22,
	'h': 0x23, 'j': 0x24, 'k': 0x25, 'l': 0x26,
	'z': 0x2c, 'x': 0x2d, 'c': 0x2e, 'v': 0x2f, 'b': 0x30,
	'n': 0x31, 'm': 0x32,
}

// KeyOf returns the key for an ASCII character. Unknown characters have
// a zero scan code.
func KeyOf(c uint8) (key Key) {
	if c == '\n' {
		c = '\r'
	}
	key.ASCII = c

	lower := c
	if lower >= 'A' && lower <= 'Z' {
		lower += 'a' - 'A'
	}
	key.Scan = _scan_codes[lower]
	return
}
