package piet

// compileState is one (position, DP, CC) frontier entry the BFS below
// explores. It is distinct from the runtime VM state: the compiler walks
// the grid once, ahead of time, to build a linear Program the VM then
// steps through by instruction index alone.
type compileState struct {
	pos Position
	dp  Direction
	cc  CodelChooser
}

// blockKey dedupes compiled transitions: every codel in a block has the
// same exit under a given (DP, CC), so at most one instruction is ever
// emitted per (block, DP, CC) triple regardless of how many grid positions
// reach it.
type blockKey struct {
	block int
	dp    Direction
	cc    CodelChooser
}

// pendingBranch records a successor the compiler could not resolve to an
// instruction index yet, because the target state had not been processed
// when the branch was discovered. All pending branches are resolved in a
// second pass once the BFS has emitted every reachable instruction.
type pendingBranch struct {
	from   int
	dp     Direction
	cc     CodelChooser
	target compileState
}

// compileMaps holds the three index spaces an emitted instruction can live
// in, keyed the way each color kind naturally dedupes.
type compileMaps struct {
	block map[blockKey]int
	white map[compileState]int
	halt  map[Position]int
}

// Compiler turns a classified Grid into a linear bytecode Program by
// breadth-first walking every (block, DP, CC) state reachable from the
// canonical entry state: top-left codel, DP right, CC left.
type Compiler struct {
	grid *Grid
	mode CompileMode
}

// NewCompiler returns a Compiler for grid, emitting DebugInfo on every
// instruction only when mode is CompileDebug.
func NewCompiler(grid *Grid, mode CompileMode) *Compiler {
	return &Compiler{grid: grid, mode: mode}
}

// Compile walks the grid and returns the resulting Program. Compile never
// fails on a well-formed Grid: a canvas with no reachable exit simply
// compiles to a program that halts immediately.
func (c *Compiler) Compile() (*Program, error) {
	prog := &Program{Metadata: ProgramMetadata{Mode: c.mode}}
	maps := compileMaps{
		block: make(map[blockKey]int),
		white: make(map[compileState]int),
		halt:  make(map[Position]int),
	}

	visited := make(map[compileState]bool)
	start := compileState{pos: Position{X: 0, Y: 0}, dp: DirRight, cc: CCLeft}
	queue := []compileState{start}
	visited[start] = true

	enqueue := func(st compileState) {
		if !visited[st] {
			visited[st] = true
			queue = append(queue, st)
		}
	}

	var pendings []pendingBranch

	for len(queue) > 0 {
		st := queue[0]
		queue = queue[1:]

		color, ok := c.grid.At(st.pos)
		if !ok {
			continue
		}

		switch {
		case color.IsBlack():
			if _, done := maps.halt[st.pos]; done {
				continue
			}
			idx := c.emit(prog, OpcodeHalt, 0, st.pos, st.dp, st.cc, func() *DebugInfo {
				return c.debugInfo(st.pos, st.dp, st.cc, 1, color, color)
			})
			maps.halt[st.pos] = idx

		case color.IsWhite():
			if _, done := maps.white[st]; done {
				continue
			}
			next, slid := c.slidePreview(st.pos, st.dp)
			if !slid {
				// No reachable color after 8 retries; nothing is emitted here,
				// matching real Piet's silent termination when the corridor
				// never lets the program back out.
				continue
			}
			nextColor, _ := c.grid.At(next)
			idx := c.emit(prog, OpcodeNop, 0, next, st.dp, st.cc, func() *DebugInfo {
				return c.debugInfo(st.pos, st.dp, st.cc, 1, color, nextColor)
			})
			maps.white[st] = idx
			target := compileState{pos: next, dp: st.dp, cc: st.cc}
			pendings = append(pendings, pendingBranch{idx, st.dp, st.cc, target})
			enqueue(target)

		default:
			idx, target, ok := c.compileBlockTransition(prog, &maps, st, color)
			if !ok {
				continue
			}
			op := prog.Instructions[idx].Op
			switch op {
			case OpcodeSwitch:
				for _, cc := range [2]CodelChooser{target.cc, target.cc.Toggle()} {
					branch := compileState{pos: target.pos, dp: target.dp, cc: cc}
					pendings = append(pendings, pendingBranch{idx, target.dp, cc, branch})
					enqueue(branch)
				}
			case OpcodePointer:
				for n := 0; n < 4; n++ {
					rotated := target.dp.RotateClockwise(n)
					branch := compileState{pos: target.pos, dp: rotated, cc: target.cc}
					pendings = append(pendings, pendingBranch{idx, rotated, target.cc, branch})
					enqueue(branch)
				}
			default:
				pendings = append(pendings, pendingBranch{idx, target.dp, target.cc, target})
				enqueue(target)
			}
		}
	}

	for _, p := range pendings {
		if idx, ok := c.resolve(maps, p.target); ok {
			prog.recordBranch(p.from, p.dp, p.cc, idx)
		}
	}
	if entry, ok := c.resolve(maps, start); ok {
		prog.Metadata.EntryPoint = entry
	}
	prog.Metadata.InstructionCount = prog.Len()
	return prog, nil
}

// compileBlockTransition emits (or reuses) the instruction for leaving the
// chromatic block at st, and returns the compileState describing the DP/CC
// in effect once control lands at the instruction's destination block. ok is
// false when the block was already compiled for this (DP, CC) or when no
// exit was found after the retry budget.
func (c *Compiler) compileBlockTransition(prog *Program, maps *compileMaps, st compileState, color Color) (int, compileState, bool) {
	blockID, _ := c.grid.BlockIDAt(st.pos)
	block := c.grid.Block(blockID)
	key := blockKey{blockID, st.dp, st.cc}
	if idx, done := maps.block[key]; done {
		return idx, compileState{}, false
	}

	exitPos, exitDP, exitCC, found := c.findValidExit(blockID, st.dp, st.cc)
	if !found {
		idx := c.emit(prog, OpcodeHalt, 0, st.pos, st.dp, st.cc, func() *DebugInfo {
			return c.debugInfo(st.pos, st.dp, st.cc, block.Size, color, color)
		})
		maps.block[key] = idx
		return idx, compileState{}, false
	}

	finalPos := exitPos
	finalColor, _ := c.grid.At(exitPos)
	crossedWhite := false
	if finalColor.IsWhite() {
		slidPos, slid := c.slidePreview(exitPos, exitDP)
		if !slid {
			idx := c.emit(prog, OpcodeHalt, 0, exitPos, exitDP, exitCC, func() *DebugInfo {
				return c.debugInfo(st.pos, exitDP, exitCC, block.Size, color, finalColor)
			})
			maps.block[key] = idx
			return idx, compileState{}, false
		}
		finalPos = slidPos
		finalColor, _ = c.grid.At(slidPos)
		crossedWhite = true
	}

	// A corridor of white between two chromatic blocks executes no
	// operation, per the language's own rule: white never selects a hue/
	// lightness delta, so a slide through it can't trigger one either.
	op := OpNone
	if !crossedWhite {
		op = OpBetween(color, finalColor)
	}
	opcode := opcodeFromOperation(op)
	operand := 0
	if op == OpPush {
		operand = block.Size
	}

	idx := c.emit(prog, opcode, operand, finalPos, exitDP, exitCC, func() *DebugInfo {
		return c.debugInfo(st.pos, exitDP, exitCC, block.Size, color, finalColor)
	})
	maps.block[key] = idx
	return idx, compileState{pos: finalPos, dp: exitDP, cc: exitCC}, true
}

// findValidExit looks for a valid departure codel from block under (dp, cc),
// retrying up to 8 times by alternately toggling cc and rotating dp
// clockwise. A codel is a valid departure when it is in bounds and not
// black; landing on white is valid here and resolved by the caller via
// slidePreview.
func (c *Compiler) findValidExit(blockID int, dp Direction, cc CodelChooser) (Position, Direction, CodelChooser, bool) {
	for attempt := 0; attempt < 8; attempt++ {
		if pos, ok := c.grid.Exit(blockID, dp, cc); ok {
			if color, inBounds := c.grid.At(pos); inBounds && !color.IsBlack() {
				return pos, dp, cc, true
			}
		}
		if attempt%2 == 0 {
			cc = cc.Toggle()
		} else {
			dp = dp.RotateClockwise(1)
		}
	}
	return Position{}, dp, cc, false
}

// slidePreview walks start through contiguous white codels in dp until it
// reaches a non-white, non-black codel, returning that codel. It retries up
// to 8 times by rotating dp clockwise on alternating attempts when the slide
// runs off the canvas or into black; the first attempt's toggle step has no
// effect on straight-line movement and exists only to mirror Piet's 8-try
// retry cadence.
func (c *Compiler) slidePreview(start Position, dp Direction) (Position, bool) {
	pos := start
	attempts := 0
	for {
		if attempts >= 8 {
			return Position{}, false
		}
		if next, ok := pos.Step(dp, c.grid.Width(), c.grid.Height()); ok {
			color, _ := c.grid.At(next)
			if color.IsWhite() {
				pos = next
				continue
			}
			if !color.IsBlack() {
				return next, true
			}
		}
		if attempts%2 != 0 {
			dp = dp.RotateClockwise(1)
		}
		attempts++
	}
}

// resolve returns the instruction index a fully-processed state maps to.
// It is only called after the BFS has finished, by which point every state
// reachable from the entry point has an entry in one of maps' three tables.
func (c *Compiler) resolve(maps compileMaps, st compileState) (int, bool) {
	color, ok := c.grid.At(st.pos)
	if !ok {
		return 0, false
	}
	if color.IsBlack() {
		idx, ok := maps.halt[st.pos]
		return idx, ok
	}
	if color.IsWhite() {
		idx, ok := maps.white[st]
		return idx, ok
	}
	blockID, _ := c.grid.BlockIDAt(st.pos)
	idx, ok := maps.block[blockKey{blockID, st.dp, st.cc}]
	return idx, ok
}

func (c *Compiler) debugInfo(from Position, dp Direction, cc CodelChooser, size int, fromColor, toColor Color) *DebugInfo {
	return &DebugInfo{From: from, DP: dp, CC: cc, BlockSize: size, FromColor: fromColor, ToColor: toColor}
}

func (c *Compiler) emit(prog *Program, op Opcode, operand int, to Position, exitDP Direction, exitCC CodelChooser, debug func() *DebugInfo) int {
	instr := Instruction{Op: op, Operand: operand, To: to, ExitDP: exitDP, ExitCC: exitCC}
	if c.mode == CompileDebug {
		instr.Debug = debug()
	}
	idx := len(prog.Instructions)
	prog.Instructions = append(prog.Instructions, instr)
	return idx
}
