package piet

import "testing"

func mustClassify(t *testing.T, rgb RGB) Color {
	t.Helper()
	c, err := Classify(rgb)
	if err != nil {
		t.Fatalf("Classify(%v) returned error: %v", rgb, err)
	}
	return c
}

// buildGrid lays out a WxH grid from a color-per-cell function, row-major.
func buildGrid(t *testing.T, w, h int, at func(x, y int) Color) *Grid {
	t.Helper()
	cells := make([]Color, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cells[y*w+x] = at(x, y)
		}
	}
	g, err := NewGrid(w, h, cells)
	if err != nil {
		t.Fatalf("NewGrid returned error: %v", err)
	}
	return g
}

// squareBlockGrid returns a 5x5 grid with a 2x2 red square at (1,1)-(2,2)
// surrounded by black, so the block's exits never touch the grid edge.
func squareBlockGrid(t *testing.T) *Grid {
	t.Helper()
	red := mustClassify(t, RGB{0xFF, 0x00, 0x00})
	return buildGrid(t, 5, 5, func(x, y int) Color {
		if x >= 1 && x <= 2 && y >= 1 && y <= 2 {
			return red
		}
		return Black
	})
}

func TestFloodFillFindsSquareBlock(t *testing.T) {
	g := squareBlockGrid(t)
	id, ok := g.BlockIDAt(Position{X: 1, Y: 1})
	if !ok {
		t.Fatalf("expected (1,1) in bounds")
	}
	block := g.Block(id)
	requireEqualInt(t, "block size", block.Size, 4)
	for _, p := range []Position{{1, 1}, {2, 1}, {1, 2}, {2, 2}} {
		otherID, _ := g.BlockIDAt(p)
		requireEqualInt(t, "block id", otherID, id)
	}
}

func TestFloodFillDoesNotMergeAcrossColorBoundary(t *testing.T) {
	g := squareBlockGrid(t)
	redID, _ := g.BlockIDAt(Position{X: 1, Y: 1})
	blackID, _ := g.BlockIDAt(Position{X: 0, Y: 0})
	if redID == blackID {
		t.Fatalf("expected red block and black background to be distinct blocks")
	}
}

func TestBlockExitCornerRule(t *testing.T) {
	g := squareBlockGrid(t)
	id, _ := g.BlockIDAt(Position{X: 1, Y: 1})

	tests := []struct {
		dp   Direction
		cc   CodelChooser
		want Position
	}{
		{DirRight, CCLeft, Position{3, 1}},
		{DirRight, CCRight, Position{3, 2}},
		{DirDown, CCLeft, Position{2, 3}},
		{DirDown, CCRight, Position{1, 3}},
		{DirLeft, CCLeft, Position{0, 2}},
		{DirLeft, CCRight, Position{0, 1}},
		{DirUp, CCLeft, Position{1, 0}},
		{DirUp, CCRight, Position{2, 0}},
	}
	for _, tt := range tests {
		got, ok := g.Exit(id, tt.dp, tt.cc)
		if !ok {
			t.Fatalf("Exit(dp=%v, cc=%v) reported out of bounds, want %v", tt.dp, tt.cc, tt.want)
		}
		if got != tt.want {
			t.Errorf("Exit(dp=%v, cc=%v) = %v, want %v", tt.dp, tt.cc, got, tt.want)
		}
	}
}

func TestBlockExitAtGridEdgeIsOutOfBounds(t *testing.T) {
	red := mustClassify(t, RGB{0xFF, 0x00, 0x00})
	g := buildGrid(t, 2, 2, func(x, y int) Color { return red })
	id, _ := g.BlockIDAt(Position{X: 0, Y: 0})
	if _, ok := g.Exit(id, DirRight, CCLeft); ok {
		t.Fatalf("expected exit off the right edge of a full-grid block to be out of bounds")
	}
}
