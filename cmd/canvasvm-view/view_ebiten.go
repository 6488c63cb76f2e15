//go:build !headless

// view_ebiten.go - Ebiten-backed graphical single-step Piet visualizer

package main

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"

	"github.com/joelibaceta/canvasvm/internal/piet"
)

const statusBarHeight = 22

// stepperGame is the ebiten.Game driving the visual stepper: it renders the
// codel grid, highlights the block the debugger's DP/CC are currently
// standing in, and advances the wrapped Debugger one instruction per
// keypress rather than one frame per tick.
type stepperGame struct {
	dbg   *piet.Debugger
	grid  *piet.Grid
	scale int

	lastErr error

	clipboardOnce sync.Once
	clipboardOK   bool
}

// launch runs the ebiten game loop against dbg until the window is closed.
func launch(dbg *piet.Debugger, grid *piet.Grid, scale int) error {
	if scale <= 0 {
		scale = 24
	}
	g := &stepperGame{dbg: dbg, grid: grid, scale: scale}
	ebiten.SetWindowSize(grid.Width()*scale, grid.Height()*scale+statusBarHeight)
	ebiten.SetWindowTitle("Canvas VM - Piet stepper")
	ebiten.SetWindowResizable(true)
	return ebiten.RunGame(g)
}

func (g *stepperGame) Update() error {
	vm := g.dbg.VM()

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight) ||
		ebiten.IsKeyPressed(ebiten.KeyMetaLeft) || ebiten.IsKeyPressed(ebiten.KeyMetaRight)

	switch {
	case ctrl && inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.copyOutput()
	case inpututil.IsKeyJustPressed(ebiten.KeySpace), inpututil.IsKeyJustPressed(ebiten.KeyS):
		if !vm.IsHalted() {
			if err := g.dbg.Step(); err != nil {
				g.lastErr = err
			}
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter):
		g.runToCompletion()
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.dbg.Reset()
		g.lastErr = nil
	case inpututil.IsKeyJustPressed(ebiten.KeyQ), inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		return ebiten.Termination
	}
	return nil
}

// runToCompletion single-steps until halt, input starvation, or a watchdog
// timeout, with a hard cap of a million steps on top of the VM's own
// watchdog.
func (g *stepperGame) runToCompletion() {
	vm := g.dbg.VM()
	for i := 0; i < 1_000_000 && !vm.IsHalted(); i++ {
		if err := g.dbg.Step(); err != nil {
			g.lastErr = err
			return
		}
		if vm.NeedsInput() != piet.InputNone {
			return
		}
	}
}

func (g *stepperGame) copyOutput() {
	g.clipboardOnce.Do(func() {
		g.clipboardOK = clipboard.Init() == nil
	})
	if !g.clipboardOK {
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(g.dbg.VM().OutputString()))
}

func (g *stepperGame) Draw(screen *ebiten.Image) {
	g.drawGrid(screen)
	g.drawCurrentBlock(screen)
	g.drawDirectionArrow(screen)
	g.drawStatusBar(screen)
}

func (g *stepperGame) drawGrid(screen *ebiten.Image) {
	s := float64(g.scale)
	for y := 0; y < g.grid.Height(); y++ {
		for x := 0; x < g.grid.Width(); x++ {
			c, _ := g.grid.At(piet.Position{X: x, Y: y})
			rgb := c.RGB()
			ebitenutil.DrawRect(screen, float64(x)*s, float64(y)*s, s, s,
				color.RGBA{rgb.R, rgb.G, rgb.B, 255})
		}
	}
}

// drawCurrentBlock outlines every codel in the block the debugger's IP is
// currently standing in, so a viewer can see the block boundary the DP/CC
// corner rule is operating over.
func (g *stepperGame) drawCurrentBlock(screen *ebiten.Image) {
	vm := g.dbg.VM()
	blockID, ok := g.grid.BlockIDAt(vm.Position())
	if !ok {
		return
	}
	block := g.grid.Block(blockID)
	s := float64(g.scale)
	outline := color.RGBA{255, 255, 255, 220}
	for _, p := range block.Positions {
		x0, y0 := float64(p.X)*s, float64(p.Y)*s
		ebitenutil.DrawRect(screen, x0, y0, s, 2, outline)
		ebitenutil.DrawRect(screen, x0, y0+s-2, s, 2, outline)
		ebitenutil.DrawRect(screen, x0, y0, 2, s, outline)
		ebitenutil.DrawRect(screen, x0+s-2, y0, 2, s, outline)
	}
}

// drawDirectionArrow draws a short line from the current position's center
// pointing along DP, so the viewer can see which way control is about to
// exit the current block.
func (g *stepperGame) drawDirectionArrow(screen *ebiten.Image) {
	vm := g.dbg.VM()
	pos := vm.Position()
	s := float64(g.scale)
	cx, cy := (float64(pos.X)+0.5)*s, (float64(pos.Y)+0.5)*s
	dx, dy := vm.DP().Delta()
	half := s / 2 * 0.8
	ex, ey := cx+float64(dx)*half, cy+float64(dy)*half
	arrowColor := color.RGBA{255, 40, 40, 255}
	ebitenutil.DrawLine(screen, cx, cy, ex, ey, arrowColor)
}

func (g *stepperGame) drawStatusBar(screen *ebiten.Image) {
	vm := g.dbg.VM()
	y := g.grid.Height() * g.scale
	w := g.grid.Width() * g.scale
	ebitenutil.DrawRect(screen, 0, float64(y), float64(w), statusBarHeight, color.RGBA{20, 20, 20, 235})

	state := "running"
	if vm.IsHalted() {
		state = "halted"
	}
	if k := vm.NeedsInput(); k != piet.InputNone {
		state = fmt.Sprintf("blocked (%s input)", k)
	}
	status := fmt.Sprintf("step %d  ip=%d  dp=%s cc=%s  %s  [space=step enter=run r=reset q=quit]",
		vm.Steps(), vm.InstructionIndex(), vm.DP(), vm.CC(), state)
	if g.lastErr != nil {
		status = fmt.Sprintf("%s  err=%v", status, g.lastErr)
	}
	text.Draw(screen, status, basicfont.Face7x13, 4, y+15, color.RGBA{230, 230, 230, 255})
}

func (g *stepperGame) Layout(_, _ int) (int, int) {
	return g.grid.Width() * g.scale, g.grid.Height()*g.scale + statusBarHeight
}
