//go:build headless

// view_headless.go - stub graphical stepper for platforms/builds without a display

package main

import (
	"fmt"

	"github.com/joelibaceta/canvasvm/internal/piet"
)

// launch prints an explanatory message instead of failing to link against
// Ebiten's windowing backend, so a headless build (or a display-less CI
// runner) still produces a usable binary.
func launch(dbg *piet.Debugger, grid *piet.Grid, scale int) error {
	fmt.Printf("canvasvm-view: built with -tags headless, no graphical stepper available\n")
	fmt.Printf("canvasvm-view: image is %dx%d codels; use `canvasvm debug` for a terminal REPL instead\n",
		grid.Width(), grid.Height())
	_ = dbg
	_ = scale
	return nil
}
