package piet

import "sort"

// Breakpoint is a conditional halt point at a specific instruction index.
type Breakpoint struct {
	ID        int
	InstrIdx  int
	Condition *BreakpointCondition
	HitCount  uint64
	Enabled   bool
}

// ExecutionStep is one entry in a Debugger's trace: the state immediately
// before and after the instruction at InstructionIndex executed.
type ExecutionStep struct {
	InstructionIndex int
	Opcode           Opcode
	StackBefore      []int
	StackAfter       []int
	PositionBefore   Position
	DP               Direction
	CC               CodelChooser
}

// Debugger wraps a VM with breakpoints and a bounded execution trace. It
// never re-implements opcode dispatch: every step still runs through the
// same VM.Step a release build would use, so debug and release builds of a
// program can never diverge in behavior, only in how much is recorded.
type Debugger struct {
	vm *VM

	breakpoints map[int]*Breakpoint
	nextBpID    int

	trace    []ExecutionStep
	maxTrace int
}

// NewDebugger wraps vm with breakpoint and trace support. maxTrace bounds
// the trace ring buffer; 0 disables trace recording entirely.
func NewDebugger(vm *VM, maxTrace int) *Debugger {
	return &Debugger{
		vm:          vm,
		breakpoints: make(map[int]*Breakpoint),
		maxTrace:    maxTrace,
	}
}

// VM returns the wrapped VM.
func (d *Debugger) VM() *VM { return d.vm }

// SetBreakpoint adds a breakpoint at instrIdx, optionally gated by cond, and
// returns its ID.
func (d *Debugger) SetBreakpoint(instrIdx int, cond *BreakpointCondition) int {
	id := d.nextBpID
	d.nextBpID++
	d.breakpoints[id] = &Breakpoint{ID: id, InstrIdx: instrIdx, Condition: cond, Enabled: true}
	return id
}

// ClearBreakpoint removes a breakpoint by ID.
func (d *Debugger) ClearBreakpoint(id int) { delete(d.breakpoints, id) }

// ClearAllBreakpoints removes every breakpoint.
func (d *Debugger) ClearAllBreakpoints() { d.breakpoints = make(map[int]*Breakpoint) }

// SetBreakpointEnabled toggles a breakpoint without deleting it.
func (d *Debugger) SetBreakpointEnabled(id int, enabled bool) {
	if bp, ok := d.breakpoints[id]; ok {
		bp.Enabled = enabled
	}
}

// Breakpoints returns every breakpoint currently set, ordered by ID.
func (d *Debugger) Breakpoints() []*Breakpoint {
	out := make([]*Breakpoint, 0, len(d.breakpoints))
	for _, bp := range d.breakpoints {
		out = append(out, bp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *Debugger) breakpointAt(instrIdx int) *Breakpoint {
	for _, bp := range d.breakpoints {
		if bp.Enabled && bp.InstrIdx == instrIdx {
			return bp
		}
	}
	return nil
}

// Step executes exactly one instruction via the wrapped VM and records a
// trace entry. Errors propagate unchanged from VM.Step.
func (d *Debugger) Step() error {
	idx := d.vm.InstructionIndex()
	op := d.vm.PreviewNext()
	stackBefore := append([]int(nil), d.vm.stack...)
	posBefore := d.vm.Position()
	dp, cc := d.vm.DP(), d.vm.CC()

	if err := d.vm.Step(); err != nil {
		return err
	}
	if d.vm.NeedsInput() != InputNone {
		return nil
	}

	d.record(ExecutionStep{
		InstructionIndex: idx,
		Opcode:           op,
		StackBefore:      stackBefore,
		StackAfter:       append([]int(nil), d.vm.stack...),
		PositionBefore:   posBefore,
		DP:               dp,
		CC:               cc,
	})
	return nil
}

func (d *Debugger) record(step ExecutionStep) {
	if d.maxTrace <= 0 {
		return
	}
	d.trace = append(d.trace, step)
	if len(d.trace) > d.maxTrace {
		d.trace = d.trace[len(d.trace)-d.maxTrace:]
	}
}

// Trace returns the recorded execution steps, oldest first.
func (d *Debugger) Trace() []ExecutionStep {
	out := make([]ExecutionStep, len(d.trace))
	copy(out, d.trace)
	return out
}

// ClearTrace empties the recorded trace without touching the VM.
func (d *Debugger) ClearTrace() { d.trace = nil }

// RunUntilBreakpoint steps the VM until it halts, blocks on input, an
// enabled breakpoint's condition holds at the current instruction, or
// maxSteps instructions have run. A breakpoint at the instruction the VM is
// on when the call starts is not checked until one step has run, so calling
// it again after a hit moves on. It returns the breakpoint that stopped
// execution, or nil if some other condition stopped it first.
func (d *Debugger) RunUntilBreakpoint(maxSteps int) (*Breakpoint, error) {
	for i := 0; i < maxSteps; i++ {
		if d.vm.IsHalted() {
			return nil, nil
		}
		if bp := d.breakpointAt(d.vm.InstructionIndex()); i > 0 && bp != nil && evaluateCondition(bp.Condition, d.vm) {
			bp.HitCount++
			return bp, nil
		}
		if err := d.Step(); err != nil {
			return nil, err
		}
		if d.vm.NeedsInput() != InputNone {
			return nil, nil
		}
	}
	return nil, nil
}

// Reset resets the wrapped VM and clears the trace; breakpoints survive.
func (d *Debugger) Reset() {
	d.vm.Reset()
	d.trace = nil
}
