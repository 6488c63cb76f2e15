// debugger_support.go - human-readable rendering of programs and debugger state

package piet

import (
	"fmt"
	"strings"
)

// Disassemble renders every instruction in prog as one line of text. Debug
// metadata (departing color, block size, grid origin) is included only
// when prog was compiled in CompileDebug mode; a release-mode program
// disassembles to opcode, operand, and destination alone.
func Disassemble(prog *Program) string {
	var b strings.Builder
	for i, instr := range prog.Instructions {
		fmt.Fprintf(&b, "%04d: %s", i, instr.Op)
		if instr.Op == OpcodePush {
			fmt.Fprintf(&b, " %d", instr.Operand)
		}
		fmt.Fprintf(&b, "  -> (%d,%d)", instr.To.X, instr.To.Y)
		if d := instr.Debug; d != nil {
			fmt.Fprintf(&b, "  [block %d, %s->%s, from (%d,%d) dp=%s cc=%s]",
				d.BlockSize, d.FromColor, d.ToColor, d.From.X, d.From.Y, d.DP, d.CC)
		}
		if i == prog.Metadata.EntryPoint {
			b.WriteString("  <- entry")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// DescribeSnapshot renders a Snapshot as a single human-readable line,
// suitable for a REPL prompt or a log file.
func DescribeSnapshot(s Snapshot) string {
	status := "running"
	if s.Halted {
		status = "halted"
	}
	return fmt.Sprintf("ip=%d steps=%d %s pos=(%d,%d) dp=%s cc=%s stack=%v",
		s.InstructionIndex, s.Steps, status, s.PositionX, s.PositionY, s.Direction, s.CodelChooser, s.Stack)
}

// DescribeStep renders one ExecutionStep as a single human-readable line.
func DescribeStep(step ExecutionStep) string {
	return fmt.Sprintf("%04d: %-8s dp=%-5s cc=%-5s stack %v -> %v",
		step.InstructionIndex, step.Opcode, step.DP, step.CC, step.StackBefore, step.StackAfter)
}

// DescribeBreakpoint renders a Breakpoint as a single human-readable line.
func DescribeBreakpoint(bp *Breakpoint) string {
	state := "enabled"
	if !bp.Enabled {
		state = "disabled"
	}
	cond := FormatCondition(bp.Condition)
	if cond == "" {
		cond = "unconditional"
	}
	return fmt.Sprintf("#%d at ip=%d (%s) %s, hit %d times", bp.ID, bp.InstrIdx, cond, state, bp.HitCount)
}
