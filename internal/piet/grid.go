package piet

// Grid is a canonical W x H array of classified Piet colors, with its block
// map and per-block exit table precomputed at construction time. Grid is
// immutable after NewGrid/FromRGBA returns.
type Grid struct {
	width, height int
	cells         []Color

	blockIDs []int
	blocks   map[int]*BlockInfo
	exits    map[exitKey]exitResult
}

type exitKey struct {
	block int
	dp    Direction
	cc    CodelChooser
}

type exitResult struct {
	pos   Position
	valid bool
}

// Width returns the grid's codel width.
func (g *Grid) Width() int { return g.width }

// Height returns the grid's codel height.
func (g *Grid) Height() int { return g.height }

// At returns the color at pos and whether pos is in bounds.
func (g *Grid) At(pos Position) (Color, bool) {
	if pos.X < 0 || pos.X >= g.width || pos.Y < 0 || pos.Y >= g.height {
		return Color{}, false
	}
	return g.cells[pos.Y*g.width+pos.X], true
}

// BlockIDAt returns the block id owning pos, and whether pos is in bounds.
func (g *Grid) BlockIDAt(pos Position) (int, bool) {
	if pos.X < 0 || pos.X >= g.width || pos.Y < 0 || pos.Y >= g.height {
		return 0, false
	}
	return g.blockIDs[pos.Y*g.width+pos.X], true
}

// Block returns the precomputed info for a block id.
func (g *Grid) Block(id int) *BlockInfo { return g.blocks[id] }

// Exit returns the precomputed exit codel for a block under (dp, cc): the
// codel one step beyond the block's extreme corner in dp, which may be out
// of bounds, black, white, or a different chromatic color — the compiler's
// findValidExit decides what to do with it.
func (g *Grid) Exit(blockID int, dp Direction, cc CodelChooser) (Position, bool) {
	r := g.exits[exitKey{blockID, dp, cc}]
	return r.pos, r.valid
}

// NewGrid builds a grid (and its block/exit precomputation) from a flat
// row-major slice of already-classified colors.
func NewGrid(width, height int, cells []Color) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, &EmptyImageError{}
	}
	if len(cells) != width*height {
		return nil, &IncompatibleDimensionsError{Width: width, Height: height, BufLen: len(cells)}
	}
	g := &Grid{
		width:    width,
		height:   height,
		cells:    cells,
		blockIDs: make([]int, width*height),
		blocks:   make(map[int]*BlockInfo),
		exits:    make(map[exitKey]exitResult),
	}
	g.precomputeBlocks()
	g.precomputeExits()
	return g, nil
}

// FromRGBA classifies and downsamples a raw RGBA byte buffer into a Grid.
// codelSize of 0 requests auto-detection via DetectCodelSize.
func FromRGBA(width, height int, rgba []byte, codelSize int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, &EmptyImageError{}
	}
	if len(rgba) != width*height*4 {
		return nil, &IncompatibleDimensionsError{Width: width, Height: height, BufLen: len(rgba)}
	}

	getRGB := func(x, y int) RGB {
		idx := (y*width + x) * 4
		return RGB{rgba[idx], rgba[idx+1], rgba[idx+2]}
	}

	cs := codelSize
	if cs == 0 {
		cs = DetectCodelSize(width, height, getRGB)
	}
	if width%cs != 0 || height%cs != 0 {
		return nil, &InvalidCodelSizeError{Width: width, Height: height, CodelSize: cs}
	}

	newW, newH := width/cs, height/cs
	cells := make([]Color, newW*newH)
	for cy := 0; cy < newH; cy++ {
		for cx := 0; cx < newW; cx++ {
			rgb := getRGB(cx*cs, cy*cs)
			c, err := Classify(rgb)
			if err != nil {
				err.(*UnknownColorError).At = Position{X: cx, Y: cy}
				return nil, err
			}
			cells[cy*newW+cx] = c
		}
	}
	return NewGrid(newW, newH, cells)
}

// candidateCodelSizes are the codel sizes Piet editors commonly export at;
// checked before falling back to a pure run-length GCD so that a few stray
// anti-aliased pixels near a block boundary don't throw off detection.
var candidateCodelSizes = []int{2, 4, 5, 8, 10, 16, 20, 25, 32}

// DetectCodelSize estimates the codel size of a raw pixel grid by taking the
// GCD of color run lengths sampled along a few rows and columns, folding in
// any candidate export size whose uniform blocks tile the whole image
// exactly. Returns 1 when the image is already at codel granularity, which
// makes detection idempotent on a previously-normalized image.
func DetectCodelSize(width, height int, getRGB func(x, y int) RGB) int {
	var runs []int

	rows := uniqueInts(0, height/2, height-1)
	for _, row := range rows {
		if row < 0 || row >= height {
			continue
		}
		x := 0
		for x < width {
			color := getRGB(x, row)
			run := 1
			for x+run < width && getRGB(x+run, row) == color {
				run++
			}
			runs = append(runs, run)
			x += run
		}
	}

	cols := uniqueInts(0, width/2, width-1)
	for _, col := range cols {
		if col < 0 || col >= width {
			continue
		}
		y := 0
		for y < height {
			color := getRGB(col, y)
			run := 1
			for y+run < height && getRGB(col, y+run) == color {
				run++
			}
			runs = append(runs, run)
			y += run
		}
	}

	for _, size := range findCandidateCodelSizes(width, height, getRGB) {
		runs = append(runs, size)
	}

	if len(runs) == 0 {
		return 1
	}
	result := runs[0]
	for _, r := range runs[1:] {
		result = gcd(result, r)
		if result == 1 {
			break
		}
	}
	if result < 1 {
		return 1
	}
	return result
}

func uniqueInts(vs ...int) []int {
	seen := make(map[int]bool, len(vs))
	out := make([]int, 0, len(vs))
	for _, v := range vs {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// findCandidateCodelSizes returns every size in candidateCodelSizes that
// evenly divides width and height and whose every size*size block is a
// single uniform color across the whole image.
func findCandidateCodelSizes(width, height int, getRGB func(x, y int) RGB) []int {
	var candidates []int
	for _, size := range candidateCodelSizes {
		if width%size != 0 || height%size != 0 {
			continue
		}
		valid := true
	outer:
		for cy := 0; cy < height/size; cy++ {
			for cx := 0; cx < width/size; cx++ {
				baseX, baseY := cx*size, cy*size
				base := getRGB(baseX, baseY)
				for dy := 0; dy < size; dy++ {
					for dx := 0; dx < size; dx++ {
						if getRGB(baseX+dx, baseY+dy) != base {
							valid = false
							break outer
						}
					}
				}
			}
		}
		if valid {
			candidates = append(candidates, size)
		}
	}
	return candidates
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}
