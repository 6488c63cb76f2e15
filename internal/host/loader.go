package host

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/bmp"
)

// LoadImage decodes a PNG or BMP file at path into a tightly-packed RGBA
// buffer along with its pixel width and height, ready for piet.FromRGBA.
func LoadImage(path string) (pix []byte, width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtPNG:
		img, err = png.Decode(f)
	case ExtBMP:
		img, err = bmp.Decode(f)
	default:
		return nil, 0, 0, fmt.Errorf("unsupported image extension: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding %s: %w", path, err)
	}

	bounds := img.Bounds()
	width, height = bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, 0, 0, fmt.Errorf("decoding %s: zero-sized image", path)
	}
	if width > MaxImageDimension || height > MaxImageDimension {
		return nil, 0, 0, fmt.Errorf("decoding %s: %dx%d exceeds max dimension %d", path, width, height, MaxImageDimension)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba.Pix, width, height, nil
}

// SandboxDir resolves file names against a fixed root directory, rejecting
// absolute paths and names containing "..". Symlinks are not resolved, so a
// symlink inside the root that points elsewhere is followed.
type SandboxDir struct {
	root string
}

// NewSandboxDir returns a SandboxDir rooted at root.
func NewSandboxDir(root string) (*SandboxDir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving sandbox root: %w", err)
	}
	return &SandboxDir{root: abs}, nil
}

// Resolve joins name onto the sandbox root and verifies the result still
// lives inside it.
func (s *SandboxDir) Resolve(name string) (string, error) {
	if filepath.IsAbs(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("refusing path outside sandbox: %s", name)
	}
	full := filepath.Join(s.root, name)
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("refusing path outside sandbox: %s", name)
	}
	return full, nil
}

// ListImages returns the path of every .png/.bmp file directly inside the
// sandbox root, sorted by name.
func (s *SandboxDir) ListImages() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ExtPNG || ext == ExtBMP {
			out = append(out, filepath.Join(s.root, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
