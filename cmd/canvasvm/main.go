// main.go - Canvas VM command-line entry point

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.design/x/clipboard"

	"github.com/joelibaceta/canvasvm/internal/host"
	"github.com/joelibaceta/canvasvm/internal/piet"
)

// Version is the canvasvm CLI's own version string, independent of any
// Piet language version (Piet has none).
const Version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printTopUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runCommand(os.Args[2:])
	case "debug":
		debugCommand(os.Args[2:])
	case "disasm":
		disasmCommand(os.Args[2:])
	case "-features", "features":
		printFeatures()
	case "-version", "version":
		fmt.Printf("canvasvm %s\n", Version)
	case "-batch", "batch":
		batchCommand(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printTopUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printTopUsage()
		os.Exit(1)
	}
}

func printTopUsage() {
	fmt.Println("Usage: canvasvm <command> [flags] <image>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run <image>      load, compile, run to completion, print output")
	fmt.Println("  debug <image>    enter the interactive breakpoint/step REPL")
	fmt.Println("  disasm <image>   print the compiled bytecode")
	fmt.Println("  batch <dir>      run every image in a directory concurrently")
	fmt.Println("  version          print the CLI version")
	fmt.Println("  features         print build info and compiled features")
	fmt.Println()
	fmt.Println("Common flags: -input, -watchdog, -codel-size, -copy")
}

// sharedFlags are the flags run/debug/disasm have in common.
type sharedFlags struct {
	input     string
	watchdog  int
	codelSize int
	copyOut   bool
}

func addSharedFlags(fs *flag.FlagSet, sf *sharedFlags) {
	fs.StringVar(&sf.input, "input", "", "program input: literal text, or a path to a file to read it from")
	fs.IntVar(&sf.watchdog, "watchdog", 0, "max steps before aborting as a runaway program (0 = VM default)")
	fs.IntVar(&sf.codelSize, "codel-size", 0, "codel size in pixels (0 = autodetect)")
	fs.BoolVar(&sf.copyOut, "copy", false, "copy the run's text output to the system clipboard")
}

func runCommand(args []string) {
	var sf sharedFlags
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	addSharedFlags(fs, &sf)
	fs.Usage = func() {
		fmt.Println("Usage: canvasvm run [flags] <image>")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	path := fs.Arg(0)
	if path == "" {
		fs.Usage()
		os.Exit(1)
	}

	prog, codelSize, err := compileImage(path, sf.codelSize, piet.CompileRelease)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canvasvm: %v\n", err)
		os.Exit(1)
	}

	vm := piet.NewVM(prog, codelSize)
	if sf.watchdog > 0 {
		vm.SetWatchdog(sf.watchdog)
	}
	loadInput(vm, sf.input)

	steps, runErr := vm.Run(1_000_000)
	fmt.Print(vm.OutputString())
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "\ncanvasvm: run stopped after %d steps: %v\n", steps, runErr)
		if vm.NeedsInput() != piet.InputNone {
			fmt.Fprintln(os.Stderr, "canvasvm: program is blocked waiting for input; supply more via -input")
		}
		os.Exit(1)
	}

	if sf.copyOut {
		copyToClipboard(vm.OutputString())
	}
}

func disasmCommand(args []string) {
	var sf sharedFlags
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	fs.IntVar(&sf.codelSize, "codel-size", 0, "codel size in pixels (0 = autodetect)")
	fs.Usage = func() {
		fmt.Println("Usage: canvasvm disasm [flags] <image>")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	path := fs.Arg(0)
	if path == "" {
		fs.Usage()
		os.Exit(1)
	}

	prog, _, err := compileImage(path, sf.codelSize, piet.CompileDebug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canvasvm: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(piet.Disassemble(prog))
}

func batchCommand(args []string) {
	var sf sharedFlags
	var concurrency int
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	addSharedFlags(fs, &sf)
	fs.IntVar(&concurrency, "concurrency", 0, "max images to run at once (0 = unbounded)")
	fs.Usage = func() {
		fmt.Println("Usage: canvasvm batch [flags] <dir>")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	dir := fs.Arg(0)
	if dir == "" {
		fs.Usage()
		os.Exit(1)
	}

	results, err := host.RunBatch(dir, host.BatchOptions{
		Concurrency: concurrency,
		CodelSize:   sf.codelSize,
		Watchdog:    sf.watchdog,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "canvasvm: %v\n", err)
		os.Exit(1)
	}

	failures := 0
	for _, r := range results {
		if r.Err != nil {
			failures++
			fmt.Printf("%s: ERROR after %d steps: %v\n", r.Path, r.Steps, r.Err)
			continue
		}
		fmt.Printf("%s: %d steps, output %q\n", r.Path, r.Steps, r.OutputText)
	}
	if failures > 0 {
		os.Exit(1)
	}
}

// compileImage loads an image from path, compiles it under mode, and
// returns the program along with the codel size actually used.
func compileImage(path string, forcedCodelSize int, mode piet.CompileMode) (*piet.Program, int, error) {
	pix, width, height, err := host.LoadImage(path)
	if err != nil {
		return nil, 0, err
	}

	grid, err := piet.FromRGBA(width, height, pix, forcedCodelSize)
	if err != nil {
		return nil, 0, err
	}

	codelSize := forcedCodelSize
	if codelSize <= 0 && grid.Width() > 0 {
		codelSize = width / grid.Width()
	}
	if codelSize <= 0 {
		codelSize = 1
	}

	prog, err := piet.NewCompiler(grid, mode).Compile()
	if err != nil {
		return nil, 0, err
	}
	return prog, codelSize, nil
}

// loadInput feeds spec (or the contents of the file it names) into a VM's
// input buffer. It loads whitespace-separated integers if every token parses
// as one, otherwise loads the text as raw character codes.
func loadInput(vm *piet.VM, spec string) {
	if spec == "" {
		return
	}
	text := spec
	if data, err := os.ReadFile(spec); err == nil {
		text = string(data)
	}

	isAllNumbers := true
	fields := strings.Fields(text)
	if len(fields) == 0 {
		isAllNumbers = false
	}
	for _, f := range fields {
		if _, err := strconv.Atoi(f); err != nil {
			isAllNumbers = false
			break
		}
	}

	if isAllNumbers {
		vm.LoadInputNumbers(text)
	} else {
		vm.LoadInputText(text)
	}
}

func copyToClipboard(text string) {
	if err := clipboard.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "canvasvm: clipboard unavailable: %v\n", err)
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
}

// debugCommand runs the interactive breakpoint/step REPL against a single
// image. It drives a piet.Debugger via a raw-mode terminal keystroke queue:
// single keys dispatch commands, and commands needing a string (breakpoint
// conditions, input text) switch the queue into line mode until Enter.
func debugCommand(args []string) {
	var sf sharedFlags
	fs := flag.NewFlagSet("debug", flag.ExitOnError)
	addSharedFlags(fs, &sf)
	fs.Usage = func() {
		fmt.Println("Usage: canvasvm debug [flags] <image>")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	path := fs.Arg(0)
	if path == "" {
		fs.Usage()
		os.Exit(1)
	}

	prog, codelSize, err := compileImage(path, sf.codelSize, piet.CompileDebug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canvasvm: %v\n", err)
		os.Exit(1)
	}

	vm := piet.NewVM(prog, codelSize)
	if sf.watchdog > 0 {
		vm.SetWatchdog(sf.watchdog)
	}
	loadInput(vm, sf.input)

	dbg := piet.NewDebugger(vm, 256)
	printDebugHelp()

	replIO := host.NewReplIO()
	term := host.NewTerminalHost(replIO)
	term.Start()
	defer term.Stop()

	var pendingBreakpointAt int
	mode := debugModeCommand

	for {
		switch mode {
		case debugModeCommand:
			key, ok := replIO.NextKey()
			if !ok {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			switch key {
			case 's':
				stepOnce(dbg)
			case 'c':
				runToBreakpoint(dbg)
			case 'b':
				pendingBreakpointAt = vm.InstructionIndex()
				fmt.Printf("\nbreakpoint condition (blank for unconditional): ")
				replIO.SetLineMode(true)
				mode = debugModeBreakpointCondition
			case 'l':
				for _, bp := range dbg.Breakpoints() {
					fmt.Println(piet.DescribeBreakpoint(bp))
				}
			case 'p':
				fmt.Println(piet.DescribeSnapshot(vm.Snapshot()))
			case 't':
				for _, step := range dbg.Trace() {
					fmt.Println(piet.DescribeStep(step))
				}
			case 'i':
				fmt.Printf("\ninput: ")
				replIO.SetLineMode(true)
				mode = debugModeInput
			case 'r':
				dbg.Reset()
				fmt.Println("\nreset")
			case 'w':
				fmt.Printf("\nsave snapshot to: ")
				replIO.SetLineMode(true)
				mode = debugModeSnapshotSave
			case 'o':
				fmt.Printf("\nload snapshot from: ")
				replIO.SetLineMode(true)
				mode = debugModeSnapshotLoad
			case 'q':
				return
			case '?':
				printDebugHelp()
			}
		case debugModeSnapshotSave:
			line, ok := replIO.NextLine()
			if !ok {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			replIO.SetLineMode(false)
			path := strings.TrimSpace(line)
			if path == "" {
				fmt.Println("save cancelled")
			} else if err := piet.SaveSnapshotToFile(piet.TakeVMSnapshot(vm), path); err != nil {
				fmt.Printf("save failed: %v\n", err)
			} else {
				fmt.Printf("saved snapshot to %s\n", path)
			}
			mode = debugModeCommand
		case debugModeSnapshotLoad:
			line, ok := replIO.NextLine()
			if !ok {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			replIO.SetLineMode(false)
			path := strings.TrimSpace(line)
			if path == "" {
				fmt.Println("load cancelled")
			} else if snap, err := piet.LoadSnapshotFromFile(path); err != nil {
				fmt.Printf("load failed: %v\n", err)
			} else {
				piet.RestoreVMSnapshot(vm, snap)
				fmt.Printf("restored snapshot from %s\n", path)
				fmt.Println(piet.DescribeSnapshot(vm.Snapshot()))
			}
			mode = debugModeCommand
		case debugModeBreakpointCondition:
			line, ok := replIO.NextLine()
			if !ok {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			replIO.SetLineMode(false)
			var cond *piet.BreakpointCondition
			if strings.TrimSpace(line) != "" {
				c, err := piet.ParseCondition(line)
				if err != nil {
					fmt.Printf("invalid condition: %v\n", err)
					mode = debugModeCommand
					continue
				}
				cond = c
			}
			id := dbg.SetBreakpoint(pendingBreakpointAt, cond)
			fmt.Printf("set breakpoint #%d at ip=%d\n", id, pendingBreakpointAt)
			mode = debugModeCommand
		case debugModeInput:
			line, ok := replIO.NextLine()
			if !ok {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			replIO.SetLineMode(false)
			loadInput(vm, line)
			fmt.Println("input queued")
			mode = debugModeCommand
		}

		if vm.IsHalted() {
			fmt.Printf("\nhalted after %d steps. output: %q\n", vm.Steps(), vm.OutputString())
			return
		}
	}
}

type debugMode int

const (
	debugModeCommand debugMode = iota
	debugModeBreakpointCondition
	debugModeInput
	debugModeSnapshotSave
	debugModeSnapshotLoad
)

func stepOnce(dbg *piet.Debugger) {
	if err := dbg.Step(); err != nil {
		fmt.Printf("\n%v\n", err)
		return
	}
	vm := dbg.VM()
	if vm.NeedsInput() != piet.InputNone {
		fmt.Printf("\nblocked: waiting for %s input; press 'i' to supply it\n", vm.NeedsInput())
		return
	}
	fmt.Println(piet.DescribeSnapshot(vm.Snapshot()))
}

func runToBreakpoint(dbg *piet.Debugger) {
	bp, err := dbg.RunUntilBreakpoint(1_000_000)
	if err != nil {
		fmt.Printf("\n%v\n", err)
		return
	}
	vm := dbg.VM()
	if vm.NeedsInput() != piet.InputNone {
		fmt.Printf("\nblocked: waiting for %s input; press 'i' to supply it\n", vm.NeedsInput())
		return
	}
	if bp != nil {
		fmt.Printf("\nhit %s\n", piet.DescribeBreakpoint(bp))
		return
	}
	fmt.Println(piet.DescribeSnapshot(vm.Snapshot()))
}

func printDebugHelp() {
	fmt.Println("canvasvm debug - keys: s=step c=continue b=breakpoint l=list p=print i=input r=reset w=save o=open q=quit ?=help")
}
