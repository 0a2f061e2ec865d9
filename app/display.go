package app

import (
	"image/color"

	"fate/hal"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

// fbDisplay adapts a RGB565 framebuffer to the tinyfont/drivers Displayer.
type fbDisplay struct {
	fb       hal.Framebuffer
	rotation drivers.Rotation
}

func (d *fbDisplay) Size() (x, y int16) {
	w, h := int16(d.fb.Width()), int16(d.fb.Height())
	if d.rotation == drivers.Rotation90 || d.rotation == drivers.Rotation270 {
		return h, w
	}
	return w, h
}

func (d *fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	if d.fb.Format() != hal.PixelFormatRGB565 {
		return
	}
	px, py := d.physical(int(x), int(y))
	hal.PutPixel565(d.fb, px, py, hal.RGB565From(c))
}

func (d *fbDisplay) Display() error { return d.fb.Present() }

func (d *fbDisplay) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	p := hal.RGB565From(c)
	for j := int(y); j < int(y)+int(height); j++ {
		for i := int(x); i < int(x)+int(width); i++ {
			px, py := d.physical(i, j)
			hal.PutPixel565(d.fb, px, py, p)
		}
	}
	return nil
}

func (d *fbDisplay) SetRotation(rotation drivers.Rotation) error {
	d.rotation = rotation
	return nil
}

// physical maps logical coordinates to framebuffer coordinates.
func (d *fbDisplay) physical(x, y int) (int, int) {
	w, h := d.fb.Width(), d.fb.Height()
	switch d.rotation {
	case drivers.Rotation90:
		return w - 1 - y, x
	case drivers.Rotation180:
		return w - 1 - x, h - 1 - y
	case drivers.Rotation270:
		return y, h - 1 - x
	default:
		return x, y
	}
}

var font = &proggy.TinySZ8pt7b

const (
	lineHeight = 10
	// baseline offset from the top of a text line
	fontOffset = 8
)

func writeText(d *fbDisplay, x, y int16, c color.RGBA, s string) {
	tinyfont.WriteLine(d, font, x, y+fontOffset, s, c)
}

func textWidth(s string) int16 {
	_, outbox := tinyfont.LineWidth(font, s)
	return int16(outbox)
}
