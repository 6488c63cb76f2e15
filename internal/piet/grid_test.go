package piet

import "testing"

// quadrantRGBA builds a codelSize*2 x codelSize*2 RGBA buffer split into four
// quadrants of four distinct chromatic colors, so flood-fill boundaries and
// codel-size detection both have an unambiguous single block per quadrant.
func quadrantRGBA(codelSize int) (width, height int, buf []byte) {
	colors := [4]RGB{
		{0xFF, 0x00, 0x00}, // red
		{0xFF, 0xFF, 0x00}, // yellow
		{0x00, 0xFF, 0x00}, // green
		{0x00, 0x00, 0xFF}, // blue
	}
	width, height = codelSize*2, codelSize*2
	buf = make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			quadrant := 0
			if x >= codelSize {
				quadrant += 1
			}
			if y >= codelSize {
				quadrant += 2
			}
			c := colors[quadrant]
			idx := (y*width + x) * 4
			buf[idx], buf[idx+1], buf[idx+2], buf[idx+3] = c.R, c.G, c.B, 0xFF
		}
	}
	return width, height, buf
}

func TestDetectCodelSizeOnNormalizedImage(t *testing.T) {
	// A checkerboard where every adjacent codel differs forces every color
	// run to length 1, so detection must be idempotent and return 1.
	colors := []RGB{{0xFF, 0x00, 0x00}, {0x00, 0xFF, 0x00}}
	getRGB := func(x, y int) RGB { return colors[(x+y)%2] }
	requireEqualInt(t, "detected codel size", DetectCodelSize(8, 8, getRGB), 1)
}

func TestDetectCodelSizeFromQuadrantImage(t *testing.T) {
	width, height, buf := quadrantRGBA(2)
	getRGB := func(x, y int) RGB {
		idx := (y*width + x) * 4
		return RGB{buf[idx], buf[idx+1], buf[idx+2]}
	}
	requireEqualInt(t, "detected codel size", DetectCodelSize(width, height, getRGB), 2)
}

func TestFromRGBAWithExplicitCodelSize(t *testing.T) {
	width, height, buf := quadrantRGBA(3)
	grid, err := FromRGBA(width, height, buf, 3)
	if err != nil {
		t.Fatalf("FromRGBA returned error: %v", err)
	}
	requireEqualInt(t, "grid width", grid.Width(), 2)
	requireEqualInt(t, "grid height", grid.Height(), 2)

	red := mustClassify(t, RGB{0xFF, 0x00, 0x00})
	blue := mustClassify(t, RGB{0x00, 0x00, 0xFF})
	got, _ := grid.At(Position{X: 0, Y: 0})
	if got != red {
		t.Fatalf("top-left codel = %v, want red", got)
	}
	got, _ = grid.At(Position{X: 1, Y: 1})
	if got != blue {
		t.Fatalf("bottom-right codel = %v, want blue", got)
	}
}

func TestFromRGBAAutodetectsCodelSize(t *testing.T) {
	width, height, buf := quadrantRGBA(2)
	grid, err := FromRGBA(width, height, buf, 0)
	if err != nil {
		t.Fatalf("FromRGBA returned error: %v", err)
	}
	requireEqualInt(t, "grid width", grid.Width(), 2)
	requireEqualInt(t, "grid height", grid.Height(), 2)
}

func TestFromRGBARejectsUnknownColor(t *testing.T) {
	buf := make([]byte, 1*1*4)
	buf[0], buf[1], buf[2], buf[3] = 0x12, 0x34, 0x56, 0xFF
	_, err := FromRGBA(1, 1, buf, 1)
	if err == nil {
		t.Fatalf("expected UnknownColorError")
	}
	if _, ok := err.(*UnknownColorError); !ok {
		t.Fatalf("error = %T, want *UnknownColorError", err)
	}
}

func TestFromRGBARejectsEmptyImage(t *testing.T) {
	_, err := FromRGBA(0, 0, nil, 1)
	if _, ok := err.(*EmptyImageError); !ok {
		t.Fatalf("error = %T, want *EmptyImageError", err)
	}
}

func TestFromRGBARejectsIncompatibleBuffer(t *testing.T) {
	_, err := FromRGBA(2, 2, make([]byte, 3), 1)
	if _, ok := err.(*IncompatibleDimensionsError); !ok {
		t.Fatalf("error = %T, want *IncompatibleDimensionsError", err)
	}
}

func TestFromRGBARejectsCodelSizeThatDoesNotDivide(t *testing.T) {
	width, height, buf := quadrantRGBA(2)
	_, err := FromRGBA(width, height, buf, 3)
	if _, ok := err.(*InvalidCodelSizeError); !ok {
		t.Fatalf("error = %T, want *InvalidCodelSizeError", err)
	}
}

func TestNewGridRejectsMismatchedCellCount(t *testing.T) {
	_, err := NewGrid(2, 2, []Color{Black})
	if _, ok := err.(*IncompatibleDimensionsError); !ok {
		t.Fatalf("error = %T, want *IncompatibleDimensionsError", err)
	}
}
