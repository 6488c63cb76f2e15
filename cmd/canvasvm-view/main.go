// main.go - Canvas VM graphical stepper entry point
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joelibaceta/canvasvm/internal/host"
	"github.com/joelibaceta/canvasvm/internal/piet"
)

func main() {
	watchdog := flag.Int("watchdog", 0, "max steps before aborting as a runaway program (0 = VM default)")
	codelSize := flag.Int("codel-size", 0, "codel size in pixels (0 = autodetect)")
	scale := flag.Int("scale", 24, "on-screen pixels per codel")
	input := flag.String("input", "", "program input: literal text, or a path to a file to read it from")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: canvasvm-view [flags] <image>")
		flag.PrintDefaults()
	}
	flag.Parse()

	path := flag.Arg(0)
	if path == "" {
		flag.Usage()
		os.Exit(1)
	}

	pix, width, height, err := host.LoadImage(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canvasvm-view: %v\n", err)
		os.Exit(1)
	}

	grid, err := piet.FromRGBA(width, height, pix, *codelSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canvasvm-view: %v\n", err)
		os.Exit(1)
	}

	prog, err := piet.NewCompiler(grid, piet.CompileDebug).Compile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "canvasvm-view: %v\n", err)
		os.Exit(1)
	}

	cs := *codelSize
	if cs <= 0 && grid.Width() > 0 {
		cs = width / grid.Width()
	}
	if cs <= 0 {
		cs = 1
	}

	vm := piet.NewVM(prog, cs)
	if *watchdog > 0 {
		vm.SetWatchdog(*watchdog)
	}
	if *input != "" {
		loadInput(vm, *input)
	}

	dbg := piet.NewDebugger(vm, 512)

	if err := launch(dbg, grid, *scale); err != nil {
		fmt.Fprintf(os.Stderr, "canvasvm-view: %v\n", err)
		os.Exit(1)
	}
}

// loadInput feeds spec (or the file it names) into a VM's input buffer, the
// same heuristic cmd/canvasvm uses: if every whitespace-separated token is an
// integer the text is loaded as numbers, otherwise the whole text is loaded
// as code points.
func loadInput(vm *piet.VM, spec string) {
	text := spec
	if data, err := os.ReadFile(spec); err == nil {
		text = string(data)
	}
	allNumbers := len(text) > 0
	fields := splitFields(text)
	if len(fields) == 0 {
		allNumbers = false
	}
	for _, f := range fields {
		if !isInt(f) {
			allNumbers = false
			break
		}
	}
	if allNumbers {
		vm.LoadInputNumbers(text)
	} else {
		vm.LoadInputText(text)
	}
}

func splitFields(s string) []string {
	var out []string
	var cur []rune
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = nil
			}
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

func isInt(s string) bool {
	if s == "" {
		return false
	}
	start := 0
	if s[0] == '-' || s[0] == '+' {
		start = 1
	}
	if start == len(s) {
		return false
	}
	for _, r := range s[start:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
