package piet

import "sort"

// BlockInfo is the precomputed information for one maximal 4-connected
// same-color region of the grid.
type BlockInfo struct {
	ID        int
	Color     Color
	Size      int
	Positions []Position
}

var allDirections = [4]Direction{DirRight, DirDown, DirLeft, DirUp}
var allChoosers = [2]CodelChooser{CCLeft, CCRight}

func (g *Grid) precomputeBlocks() {
	visited := make([]bool, g.width*g.height)
	nextID := 0

	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			idx := y*g.width + x
			if visited[idx] {
				continue
			}
			start := Position{X: x, Y: y}
			color := g.cells[idx]
			positions := g.floodFill(start, color, visited)

			for _, p := range positions {
				g.blockIDs[p.Y*g.width+p.X] = nextID
			}
			g.blocks[nextID] = &BlockInfo{
				ID:        nextID,
				Color:     color,
				Size:      len(positions),
				Positions: positions,
			}
			nextID++
		}
	}
}

func (g *Grid) floodFill(start Position, color Color, visited []bool) []Position {
	var block []Position
	stack := []Position{start}

	for len(stack) > 0 {
		pos := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		idx := pos.Y*g.width + pos.X
		if visited[idx] {
			continue
		}
		cur, ok := g.At(pos)
		if !ok || cur != color {
			continue
		}
		visited[idx] = true
		block = append(block, pos)

		for _, dir := range allDirections {
			next, inBounds := pos.Step(dir, g.width, g.height)
			if !inBounds {
				continue
			}
			if !visited[next.Y*g.width+next.X] {
				stack = append(stack, next)
			}
		}
	}
	return block
}

func (g *Grid) precomputeExits() {
	for id, info := range g.blocks {
		for _, dp := range allDirections {
			for _, cc := range allChoosers {
				pos, ok := findExitForBlock(info, dp, cc, g.width, g.height)
				g.exits[exitKey{id, dp, cc}] = exitResult{pos: pos, valid: ok}
			}
		}
	}
}

// findExitForBlock picks the block cell farthest along dp, breaking ties by
// farthest in the direction cc selects relative to dp, then steps one codel
// further in dp — the candidate the state machine will inspect next.
func findExitForBlock(info *BlockInfo, dp Direction, cc CodelChooser, w, h int) (Position, bool) {
	if len(info.Positions) == 0 {
		return Position{}, false
	}

	candidates := make([]Position, len(info.Positions))
	copy(candidates, info.Positions)

	switch dp {
	case DirRight:
		maxX := extreme(candidates, func(p Position) int { return p.X }, true)
		candidates = filterEq(candidates, func(p Position) int { return p.X }, maxX)
		sortByKey(candidates, func(p Position) int { return p.Y }, cc == CCRight)
	case DirDown:
		maxY := extreme(candidates, func(p Position) int { return p.Y }, true)
		candidates = filterEq(candidates, func(p Position) int { return p.Y }, maxY)
		sortByKey(candidates, func(p Position) int { return p.X }, cc == CCLeft)
	case DirLeft:
		minX := extreme(candidates, func(p Position) int { return p.X }, false)
		candidates = filterEq(candidates, func(p Position) int { return p.X }, minX)
		sortByKey(candidates, func(p Position) int { return p.Y }, cc == CCLeft)
	default: // DirUp
		minY := extreme(candidates, func(p Position) int { return p.Y }, false)
		candidates = filterEq(candidates, func(p Position) int { return p.Y }, minY)
		sortByKey(candidates, func(p Position) int { return p.X }, cc == CCRight)
	}

	exit := candidates[0]
	return exit.Step(dp, w, h)
}

func extreme(ps []Position, key func(Position) int, max bool) int {
	best := key(ps[0])
	for _, p := range ps[1:] {
		v := key(p)
		if (max && v > best) || (!max && v < best) {
			best = v
		}
	}
	return best
}

func filterEq(ps []Position, key func(Position) int, v int) []Position {
	out := make([]Position, 0, len(ps))
	for _, p := range ps {
		if key(p) == v {
			out = append(out, p)
		}
	}
	return out
}

func sortByKey(ps []Position, key func(Position) int, descending bool) {
	sort.Slice(ps, func(i, j int) bool {
		if descending {
			return key(ps[i]) > key(ps[j])
		}
		return key(ps[i]) < key(ps[j])
	})
}
