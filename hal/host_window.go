//go:build !tinygo && cgo

package hal

import (
	"context"
	"errors"
	"image"

	"fate/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

// WindowConfig controls the desktop window runner.
type WindowConfig struct {
	CyclesPerTick uint
	Scale         int
}

// RunWindow boots the program on a real-time simulated board and shows its
// framebuffer in a desktop window. Keys 1 and 4 press the switches.
// It blocks until the window closes or the program stops.
func RunWindow(ctx context.Context, newProgram func(HAL) (Program, error), cfg WindowConfig) error {
	if cfg.Scale <= 0 {
		cfg.Scale = 2
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h := NewHost(ctx, HostConfig{
		Machine: MachineConfig{CyclesPerTick: uint32(cfg.CyclesPerTick), Realtime: true},
	})
	prog, err := newProgram(h)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- prog.Boot() }()

	g := &hostGame{h: h, prog: prog, done: done}
	ebiten.SetWindowTitle("FATE (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(h.fb.width*cfg.Scale, h.fb.height*cfg.Scale)
	ebiten.SetTPS(60)
	err = ebiten.RunGame(g)
	cancel()
	if errors.Is(err, ebiten.Termination) {
		err = nil
	}
	if err != nil {
		return err
	}
	if g.result != nil {
		return powerOffResult(ctx, g.result)
	}
	return nil
}

type hostGame struct {
	h       *Host
	prog    Program
	done    chan error
	result  error
	img     *image.RGBA
	fbImg   *ebiten.Image
	scratch []byte
}

func (g *hostGame) Update() error {
	select {
	case err := <-g.done:
		g.result = err
		return ebiten.Termination
	default:
	}
	pollSwitches(g.h)
	if f, ok := g.prog.(Framer); ok {
		if err := f.Frame(); err != nil {
			return err
		}
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.fb
	if g.img == nil || g.img.Bounds().Dx() != fb.width || g.img.Bounds().Dy() != fb.height {
		g.img = image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
		g.scratch = make([]byte, len(fb.buf))
		if g.fbImg != nil {
			g.fbImg.Deallocate()
		}
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
	}

	fb.snapshotRGB565(g.scratch)

	src := g.scratch
	dst := g.img.Pix
	for i := 0; i+1 < len(src) && i/2*4+3 < len(dst); i += 2 {
		r, gg, b := RGB888From565(uint16(src[i]) | uint16(src[i+1])<<8)
		j := (i / 2) * 4
		dst[j+0] = r
		dst[j+1] = gg
		dst[j+2] = b
		dst[j+3] = 0xFF
	}

	g.fbImg.WritePixels(g.img.Pix)
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.fb.width, g.h.fb.height
}
