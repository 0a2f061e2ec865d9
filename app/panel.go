package app

import (
	"fmt"
	"image/color"
	"sync"

	"fate/hal"
	"fate/kernel"
)

var (
	colBg     = color.RGBA{R: 0x10, G: 0x10, B: 0x18, A: 0xFF}
	colFg     = color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	colDim    = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	colActive = color.RGBA{R: 0xFF, G: 0xD0, B: 0x40, A: 0xFF}
	colMiss   = color.RGBA{R: 0xFF, G: 0x40, B: 0x40, A: 0xFF}
)

// panel paints the kernel status: the current task, per-task counters and the
// LED pin levels.
type panel struct {
	mu  sync.Mutex
	d   *fbDisplay
	led hal.GPIOPin
	rgb [3]hal.GPIOPin
}

func newPanel(fb hal.Framebuffer, gpio hal.GPIO) *panel {
	p := &panel{d: &fbDisplay{fb: fb}, led: hal.PinByName(gpio, hal.PinLED)}
	for i, name := range hal.PinRGB {
		p.rgb[i] = hal.PinByName(gpio, name)
	}
	return p
}

func pinHigh(p hal.GPIOPin) bool {
	if p == nil {
		return false
	}
	on, err := p.Read()
	return err == nil && on
}

func (p *panel) draw(st *status) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st.faulted.Load() {
		return nil
	}

	d := p.d
	w, h := d.Size()
	_ = d.FillRectangle(0, 0, w, h, colBg)

	y := int16(2)
	writeText(d, 4, y, colFg, fmt.Sprintf("FATE  demo=%s  tick=%d", st.demo, st.tick.Load()))
	y += lineHeight + 4

	cur := int(st.current.Load())
	writeText(d, 4, y, colDim, "SLOT TASK        ACT  RUN  DONE MISS")
	y += lineHeight
	for slot := 1; slot < kernel.NumSlots; slot++ {
		ts := &st.tasks[slot]
		if ts.name == "" {
			continue
		}
		c := colFg
		switch {
		case slot == cur:
			c = colActive
		case ts.misses.Load() > 0:
			c = colMiss
		}
		writeText(d, 4, y, c, fmt.Sprintf("%4d %-11s %4d %4d %4d %4d",
			slot, ts.name, ts.activations.Load(), ts.dispatches.Load(),
			ts.completions.Load(), ts.misses.Load()))
		y += lineHeight
	}
	if cur == 0 {
		writeText(d, 4, y, colDim, "idle")
	}

	p.drawLEDs(w, h)
	return d.Display()
}

func (p *panel) drawLEDs(w, h int16) {
	const size = 16
	y := h - size - 4
	x := w - 2*(size+6)

	red := color.RGBA{R: 0x30, A: 0xFF}
	if pinHigh(p.led) {
		red = color.RGBA{R: 0xFF, A: 0xFF}
	}
	_ = p.d.FillRectangle(x, y, size, size, red)

	c := color.RGBA{A: 0xFF}
	if pinHigh(p.rgb[0]) {
		c.R = 0xFF
	}
	if pinHigh(p.rgb[1]) {
		c.G = 0xFF
	}
	if pinHigh(p.rgb[2]) {
		c.B = 0xFF
	}
	_ = p.d.FillRectangle(x+size+6, y, size, size, c)

	label := "LED RGB"
	writeText(p.d, w-textWidth(label)-4, y-lineHeight-2, colDim, label)
}
