//go:build tinygo && baremetal

package app

import (
	"log/slog"

	"fate/hal"
)

// Run boots the default demo on the board and never returns.
func Run(h hal.HAL) {
	s, err := New(h, Config{Demo: DemoFixed, LogLevel: slog.LevelInfo})
	if err != nil {
		h.Logger().WriteLineString("fate: " + err.Error())
		select {}
	}
	_ = s.Boot()
	select {}
}
