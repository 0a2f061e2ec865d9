package hal

import "image/color"

// RGB565 packs an 8-bit-per-channel colour into the framebuffer format.
func RGB565(r, g, b uint8) uint16 {
	return uint16(r>>3)&0x1F<<11 | uint16(g>>2)&0x3F<<5 | uint16(b>>3)&0x1F
}

// RGB565From converts c, ignoring alpha.
func RGB565From(c color.RGBA) uint16 { return RGB565(c.R, c.G, c.B) }

// RGB888From565 expands a framebuffer pixel back to 8 bits per channel.
func RGB888From565(p uint16) (r, g, b uint8) {
	r = uint8(uint32(p>>11&0x1F) * 255 / 31)
	g = uint8(uint32(p>>5&0x3F) * 255 / 63)
	b = uint8(uint32(p&0x1F) * 255 / 31)
	return r, g, b
}

// PutPixel565 stores one RGB565 pixel into fb, clipping to its bounds.
func PutPixel565(fb Framebuffer, x, y int, p uint16) {
	if x < 0 || y < 0 || x >= fb.Width() || y >= fb.Height() {
		return
	}
	buf := fb.Buffer()
	off := y*fb.StrideBytes() + x*2
	if off+1 >= len(buf) {
		return
	}
	buf[off] = byte(p)
	buf[off+1] = byte(p >> 8)
}
