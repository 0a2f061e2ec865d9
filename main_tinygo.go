//go:build tinygo && baremetal

package main

import (
	"fate/app"
	"fate/hal"
)

func main() {
	app.Run(hal.New())
}
