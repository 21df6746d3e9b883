package hw

import (
	"image/color"
)

const (
	SCREEN_WIDTH  = 320                          // Mode 13h columns.
	SCREEN_HEIGHT = 200                          // Mode 13h rows.
	SCREEN_SIZE   = SCREEN_WIDTH * SCREEN_HEIGHT // Bytes of a mode 13h frame.

	MODE_TEXT = uint8(0x03) // 80x25 text.
	MODE_VGA  = uint8(0x13) // 320x200, 256 colors.

	PORT_DAC_READ   = uint16(0x3c7) // DAC read index.
	PORT_DAC_WRITE  = uint16(0x3c8) // DAC write index.
	PORT_DAC_DATA   = uint16(0x3c9) // DAC data, red then green then blue.
	PORT_VGA_STATUS = uint16(0x3da) // Input status #1.

	STATUS_DISPLAY = uint8(0x01) // Display disabled (either retrace).
	STATUS_RETRACE = uint8(0x08) // Vertical retrace.

	RETRACE_TICKS = 1000 // Guest instructions per half retrace period.
)

// Video is the VGA state visible to the guest: the video mode and the
// 256 entry DAC, with 6 bit color components.
type Video struct {
	Mode    uint8
	Palette [256][3]uint8

	readIndex  uint8
	readPhase  int
	writeIndex uint8
	writePhase int
}

// Reset sets text mode and the default grayscale palette.
func (v *Video) Reset() {
	*v = Video{Mode: MODE_TEXT}
	for n := range v.Palette {
		level := uint8(n >> 2)
		v.Palette[n] = [3]uint8{level, level, level}
	}
}

// Color returns the 8 bit color of a DAC entry.
func (v *Video) Color(index uint8) color.RGBA {
	rgb := v.Palette[index]
	scale := func(c uint8) uint8 {
		c &= 0x3f
		return (c << 2) | (c >> 4)
	}
	return color.RGBA{R: scale(rgb[0]), G: scale(rgb[1]), B: scale(rgb[2]), A: 0xff}
}

// Colors returns the 8 bit color palette.
func (v *Video) Colors() (palette color.Palette) {
	palette = make(color.Palette, len(v.Palette))
	for n := range v.Palette {
		palette[n] = v.Color(uint8(n))
	}
	return
}

// Status returns the input status register at a guest timestamp.
func (v *Video) Status(ticks uint64) (status uint8) {
	if (ticks/RETRACE_TICKS)&1 != 0 {
		status = STATUS_RETRACE | STATUS_DISPLAY
	}
	return
}

func (v *Video) in(ticks uint64, port uint16) (value uint8, ok bool) {
	switch port {
	case PORT_DAC_DATA:
		value = v.Palette[v.readIndex][v.readPhase] & 0x3f
		v.readPhase++
		if v.readPhase == 3 {
			v.readPhase = 0
			v.readIndex++
		}
	case PORT_DAC_WRITE:
		value = v.writeIndex
	case PORT_VGA_STATUS:
		value = v.Status(ticks)
	default:
		return
	}

	ok = true
	return
}

func (v *Video) out(port uint16, value uint8) (ok bool) {
	switch port {
	case PORT_DAC_READ:
		v.readIndex = value
		v.readPhase = 0
	case PORT_DAC_WRITE:
		v.writeIndex = value
		v.writePhase = 0
	case PORT_DAC_DATA:
		v.Palette[v.writeIndex][v.writePhase] = value & 0x3f
		v.writePhase++
		if v.writePhase == 3 {
			v.writePhase = 0
			v.writeIndex++
		}
	default:
		return
	}

	ok = true
	return
}
