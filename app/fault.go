package app

import (
	"fmt"
	"image/color"
	"strings"
	"unicode/utf8"

	"fate/kernel"
)

// installFaultHandler logs the fault and replaces the status panel with a
// fault screen. The kernel handler is process-wide, so the most recently
// built System owns it.
func installFaultHandler(s *System) {
	kernel.SetFaultHandler(func(info kernel.FaultInfo) {
		s.st.faulted.Store(true)
		s.log.Error("kernel fault", "slot", info.Slot, "task", info.Name, "err", info.Err)
		if l := s.h.Logger(); l != nil {
			for _, line := range strings.Split(string(info.Stack), "\n") {
				if line == "" {
					continue
				}
				l.WriteLineString(line)
			}
		}
		if s.panel != nil {
			s.panel.drawFault(info)
		}
	})
}

func (p *panel) drawFault(info kernel.FaultInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	d := p.d
	w, h := d.Size()
	_ = d.FillRectangle(0, 0, w, h, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})

	lines := []string{
		"FATE fault:",
		fmt.Sprintf("task: %d %s", info.Slot, info.Name),
		fmt.Sprintf("err: %v", info.Err),
	}
	if len(info.Stack) > 0 {
		lines = append(lines, "stack:")
		for _, line := range strings.Split(string(info.Stack), "\n") {
			if line != "" {
				lines = append(lines, line)
			}
		}
	} else {
		lines = append(lines, "stack: unavailable")
	}

	fg := color.RGBA{A: 0xFF}
	cols := int(w) / max(int(textWidth("0")), 1)
	y := int16(0)
	for _, line := range lines {
		for len(line) > 0 {
			if y+lineHeight > h {
				_ = d.Display()
				return
			}
			chunk, rest := takeRunes(line, cols)
			writeText(d, 0, y, fg, chunk)
			y += lineHeight
			line = strings.TrimLeft(rest, " ")
		}
	}
	_ = d.Display()
}

func takeRunes(s string, n int) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if len(s) <= n {
		return s, ""
	}
	i, count := 0, 0
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		count++
	}
	return s[:i], s[i:]
}
