package piet

import "testing"

func TestDebuggerStepRecordsTrace(t *testing.T) {
	rig := newProgramRig(pushInstr(3), instr(OpcodeOutNumber), instr(OpcodeHalt))
	dbg := NewDebugger(rig.vm(), 16)

	if err := dbg.Step(); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	trace := dbg.Trace()
	requireEqualInt(t, "trace len", len(trace), 1)
	if trace[0].Opcode != OpcodePush {
		t.Fatalf("trace[0].Opcode = %v, want Push", trace[0].Opcode)
	}
	requireEqualIntSlice(t, "stack after", trace[0].StackAfter, []int{3})
}

func TestDebuggerTraceIsBounded(t *testing.T) {
	instrs := make([]Instruction, 0, 6)
	for i := 0; i < 5; i++ {
		instrs = append(instrs, instr(OpcodeNop))
	}
	instrs = append(instrs, instr(OpcodeHalt))
	rig := newProgramRig(instrs...)
	dbg := NewDebugger(rig.vm(), 2)

	for i := 0; i < 5; i++ {
		if err := dbg.Step(); err != nil {
			t.Fatalf("Step %d returned error: %v", i, err)
		}
	}
	requireEqualInt(t, "bounded trace len", len(dbg.Trace()), 2)
}

func TestDebuggerBreakpointStopsExecution(t *testing.T) {
	rig := newProgramRig(pushInstr(1), pushInstr(2), instr(OpcodeAdd), instr(OpcodeOutNumber), instr(OpcodeHalt))
	dbg := NewDebugger(rig.vm(), 16)
	dbg.SetBreakpoint(2, nil) // break right before Add

	hit, err := dbg.RunUntilBreakpoint(100)
	if err != nil {
		t.Fatalf("RunUntilBreakpoint returned error: %v", err)
	}
	if hit == nil {
		t.Fatalf("expected a breakpoint hit")
	}
	requireEqualInt(t, "instruction index", dbg.VM().InstructionIndex(), 2)
	requireEqualInt(t, "hit count", int(hit.HitCount), 1)
}

func TestDebuggerConditionalBreakpointOnlyFiresWhenTrue(t *testing.T) {
	rig := newProgramRig(pushInstr(1), pushInstr(2), pushInstr(3), instr(OpcodeHalt))
	dbg := NewDebugger(rig.vm(), 16)
	cond, err := ParseCondition("stack==2")
	if err != nil {
		t.Fatalf("ParseCondition returned error: %v", err)
	}
	dbg.SetBreakpoint(1, cond) // at instruction 1, stack top starts as 1 (not 2 yet)

	hit, err := dbg.RunUntilBreakpoint(100)
	if err != nil {
		t.Fatalf("RunUntilBreakpoint returned error: %v", err)
	}
	if hit != nil {
		t.Fatalf("expected condition to not hold before the second push runs")
	}
	if !dbg.VM().IsHalted() {
		t.Fatalf("expected the program to run to completion")
	}
}

func TestDebuggerDisabledBreakpointDoesNotFire(t *testing.T) {
	rig := newProgramRig(instr(OpcodeNop), instr(OpcodeHalt))
	dbg := NewDebugger(rig.vm(), 16)
	id := dbg.SetBreakpoint(1, nil)
	dbg.SetBreakpointEnabled(id, false)

	hit, err := dbg.RunUntilBreakpoint(100)
	if err != nil {
		t.Fatalf("RunUntilBreakpoint returned error: %v", err)
	}
	if hit != nil {
		t.Fatalf("expected disabled breakpoint to not fire")
	}
	if !dbg.VM().IsHalted() {
		t.Fatalf("expected the program to run to completion")
	}
}

func TestDebuggerClearBreakpoint(t *testing.T) {
	rig := newProgramRig(instr(OpcodeHalt))
	dbg := NewDebugger(rig.vm(), 16)
	id := dbg.SetBreakpoint(0, nil)
	dbg.ClearBreakpoint(id)
	if len(dbg.Breakpoints()) != 0 {
		t.Fatalf("expected no breakpoints after clearing")
	}
}

func TestDebuggerResetClearsTraceKeepsBreakpoints(t *testing.T) {
	rig := newProgramRig(pushInstr(1), instr(OpcodeHalt))
	dbg := NewDebugger(rig.vm(), 16)
	dbg.SetBreakpoint(0, nil)
	dbg.Step()

	dbg.Reset()
	if len(dbg.Trace()) != 0 {
		t.Fatalf("expected trace to be cleared after Reset")
	}
	if len(dbg.Breakpoints()) != 1 {
		t.Fatalf("expected breakpoints to survive Reset")
	}
	requireEqualInt(t, "instruction index after reset", dbg.VM().InstructionIndex(), 0)
}
