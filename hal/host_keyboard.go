//go:build !tinygo && cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var switchKeys = [NumTriggers]ebiten.Key{
	TriggerSwitch1: ebiten.Key1,
	TriggerSwitch4: ebiten.Key4,
}

// pollSwitches presses a board switch for every switch key pressed since the last frame.
func pollSwitches(h *Host) {
	for t, key := range switchKeys {
		if inpututil.IsKeyJustPressed(key) {
			_ = h.Press(Trigger(t))
		}
	}
}
