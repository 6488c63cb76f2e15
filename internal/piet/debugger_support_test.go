package piet

import (
	"strings"
	"testing"
)

func TestDisassembleShowsPushOperandAndEntryMarker(t *testing.T) {
	rig := newProgramRig(pushInstr(3), instr(OpcodeOutNumber), instr(OpcodeHalt))
	out := Disassemble(rig.prog)

	if !strings.Contains(out, "Push 3") {
		t.Fatalf("disassembly missing push operand:\n%s", out)
	}
	if !strings.Contains(out, "<- entry") {
		t.Fatalf("disassembly missing entry marker:\n%s", out)
	}
	if !strings.Contains(out, "OutNumber") || !strings.Contains(out, "Halt") {
		t.Fatalf("disassembly missing expected opcodes:\n%s", out)
	}
}

func TestDescribeSnapshotReflectsHaltedState(t *testing.T) {
	rig := newProgramRig(instr(OpcodeHalt))
	vm := rig.vm()
	vm.Step()
	desc := DescribeSnapshot(vm.Snapshot())
	if !strings.Contains(desc, "halted") {
		t.Fatalf("expected snapshot description to mention halted state: %q", desc)
	}
}

func TestDescribeBreakpointShowsConditionAndState(t *testing.T) {
	cond, err := ParseCondition("stack>5")
	if err != nil {
		t.Fatalf("ParseCondition returned error: %v", err)
	}
	bp := &Breakpoint{ID: 2, InstrIdx: 4, Condition: cond, Enabled: true, HitCount: 3}
	desc := DescribeBreakpoint(bp)
	if !strings.Contains(desc, "stack>5") || !strings.Contains(desc, "enabled") || !strings.Contains(desc, "3 times") {
		t.Fatalf("DescribeBreakpoint output missing expected fields: %q", desc)
	}
}

func TestDescribeBreakpointUnconditional(t *testing.T) {
	bp := &Breakpoint{ID: 0, InstrIdx: 1, Enabled: false}
	desc := DescribeBreakpoint(bp)
	if !strings.Contains(desc, "unconditional") || !strings.Contains(desc, "disabled") {
		t.Fatalf("DescribeBreakpoint output missing expected fields: %q", desc)
	}
}
