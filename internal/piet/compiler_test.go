package piet

import (
	"errors"
	"reflect"
	"testing"
)

func TestCompileSingleCodelHaltsImmediately(t *testing.T) {
	red := mustClassify(t, RGB{0xFF, 0x00, 0x00})
	grid := buildGrid(t, 1, 1, func(x, y int) Color { return red })

	prog, err := NewCompiler(grid, CompileRelease).Compile()
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	requireEqualInt(t, "instruction count", prog.Len(), 1)
	requireEqualInt(t, "entry point", prog.Metadata.EntryPoint, 0)
	if prog.Instructions[0].Op != OpcodeHalt {
		t.Fatalf("Instructions[0].Op = %v, want Halt", prog.Instructions[0].Op)
	}
}

func TestCompileFullyEnclosedBlockHaltsImmediately(t *testing.T) {
	g := squareBlockGrid(t) // 2x2 red block boxed in on all sides by black
	prog, err := NewCompiler(g, CompileRelease).Compile()
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	requireEqualInt(t, "instruction count", prog.Len(), 1)
	if prog.Instructions[0].Op != OpcodeHalt {
		t.Fatalf("Instructions[0].Op = %v, want Halt", prog.Instructions[0].Op)
	}
}

// twoBlockRow returns a 4x1 grid: a 2-codel red block feeding into a 2-codel
// yellow block, a same-lightness +1 hue step, which is OpPush per the
// canonical operation table.
func twoBlockRow(t *testing.T) *Grid {
	t.Helper()
	red := mustClassify(t, RGB{0xFF, 0x00, 0x00})
	yellow := mustClassify(t, RGB{0xFF, 0xFF, 0x00})
	return buildGrid(t, 4, 1, func(x, y int) Color {
		if x < 2 {
			return red
		}
		return yellow
	})
}

func TestCompileEmitsPushWithBlockSizeOperand(t *testing.T) {
	grid := twoBlockRow(t)
	prog, err := NewCompiler(grid, CompileRelease).Compile()
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	entry := prog.Instructions[prog.Metadata.EntryPoint]
	if entry.Op != OpcodePush {
		t.Fatalf("entry instruction op = %v, want Push", entry.Op)
	}
	requireEqualInt(t, "push operand", entry.Operand, 2)
	if entry.To != (Position{X: 2, Y: 0}) {
		t.Fatalf("entry instruction To = %v, want (2,0)", entry.To)
	}
}

func TestCompileDebugModeAttachesDebugInfo(t *testing.T) {
	grid := twoBlockRow(t)
	prog, err := NewCompiler(grid, CompileDebug).Compile()
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	entry := prog.Instructions[prog.Metadata.EntryPoint]
	if entry.Debug == nil {
		t.Fatalf("expected DebugInfo to be attached in CompileDebug mode")
	}
	requireEqualInt(t, "debug block size", entry.Debug.BlockSize, 2)
}

func TestCompileReleaseModeOmitsDebugInfo(t *testing.T) {
	grid := twoBlockRow(t)
	prog, err := NewCompiler(grid, CompileRelease).Compile()
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	for i, instr := range prog.Instructions {
		if instr.Debug != nil {
			t.Fatalf("instruction %d has DebugInfo in CompileRelease mode", i)
		}
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	width, height, buf := quadrantRGBA(2)
	grid, err := FromRGBA(width, height, buf, 2)
	if err != nil {
		t.Fatalf("FromRGBA returned error: %v", err)
	}

	progA, err := NewCompiler(grid, CompileRelease).Compile()
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	progB, err := NewCompiler(grid, CompileRelease).Compile()
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	if !reflect.DeepEqual(progA.Instructions, progB.Instructions) {
		t.Fatalf("Compile produced different instructions across runs:\n%+v\nvs\n%+v", progA.Instructions, progB.Instructions)
	}
	requireEqualInt(t, "entry point", progA.Metadata.EntryPoint, progB.Metadata.EntryPoint)
}

// turningLoopGrid is a 2x2 canvas whose only reachable exits bounce control
// back and forth between the two chromatic blocks forever: Red's straight
// exit is blocked by the edge/black to its right, so findValidExit's retry
// rotates DP and toggles CC before it finds a way out, and the same happens
// from Yellow back to Red. A VM that forgets the DP/CC a block's exit
// actually settled on (rather than the DP/CC it entered with) halts after
// one step instead of looping.
func turningLoopGrid(t *testing.T) *Grid {
	t.Helper()
	red := mustClassify(t, RGB{0xFF, 0x00, 0x00})
	yellow := mustClassify(t, RGB{0xFF, 0xFF, 0x00})
	return buildGrid(t, 2, 2, func(x, y int) Color {
		switch {
		case x == 0 && y == 0:
			return red
		case x == 0 && y == 1:
			return yellow
		default:
			return Black
		}
	})
}

func TestCompileTurningProgramLoopsUnderVMInsteadOfHaltingEarly(t *testing.T) {
	prog, err := NewCompiler(turningLoopGrid(t), CompileRelease).Compile()
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	vm := NewVM(prog, 1)
	vm.SetWatchdog(50)
	_, runErr := vm.Run(1000)

	var timeout *ExecutionTimeoutError
	if !errors.As(runErr, &timeout) {
		t.Fatalf("Run error = %v, want *ExecutionTimeoutError (a turning program must keep looping, not halt after one step)", runErr)
	}
	if vm.Steps() < 50 {
		t.Fatalf("Steps = %d, want >= 50; VM halted before the watchdog could fire", vm.Steps())
	}
}

func TestCompileTurningProgramExitDPCCMatchesRecordedBranch(t *testing.T) {
	prog, err := NewCompiler(turningLoopGrid(t), CompileRelease).Compile()
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	vm := NewVM(prog, 1)
	for i := 0; i < 8; i++ {
		if err := vm.Step(); err != nil {
			t.Fatalf("Step %d returned error: %v", i, err)
		}
		if vm.IsHalted() {
			t.Fatalf("Step %d: VM halted, want it to keep turning through the loop", i)
		}
	}
}
