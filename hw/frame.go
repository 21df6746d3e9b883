package hw

import (
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"

	"github.com/ezrec/realmode/process"
)

// Frame captures a delivered mode 13h framebuffer. Frames of the wrong
// size are counted, but not kept.
func (hl *Headless) Frame(p *process.Process, framebuffer []byte) {
	hl.Frames++

	if len(framebuffer) != SCREEN_SIZE {
		hl.fail(fmt.Errorf("%w: %d bytes", ErrFrameSize, len(framebuffer)))
		return
	}

	if hl.LastFrame == nil {
		hl.LastFrame = make([]byte, SCREEN_SIZE)
	}
	copy(hl.LastFrame, framebuffer)

	if hl.Verbose {
		log.Printf("hw: frame %d at tick %d", hl.Frames, p.Ticks())
	}

	if hl.FrameDir != "" {
		name := filepath.Join(hl.FrameDir, fmt.Sprintf("frame%05d.bmp", hl.Frames))
		err := hl.dump(name)
		if err != nil {
			hl.fail(err)
		}
	}
}

// Image returns the last frame through the current palette.
func (hl *Headless) Image() (img *image.Paletted, err error) {
	if hl.LastFrame == nil {
		err = ErrNoFrame
		return
	}

	img = image.NewPaletted(image.Rect(0, 0, SCREEN_WIDTH, SCREEN_HEIGHT), hl.Video.Colors())
	copy(img.Pix, hl.LastFrame)
	return
}

// WriteBMP encodes the last frame as a bitmap.
func (hl *Headless) WriteBMP(w io.Writer) (err error) {
	img, err := hl.Image()
	if err != nil {
		return
	}

	err = bmp.Encode(w, img)
	return
}

func (hl *Headless) dump(name string) (err error) {
	file, err := os.Create(name)
	if err != nil {
		return
	}

	err = hl.WriteBMP(file)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	return
}
