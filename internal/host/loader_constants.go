package host

// Supported Canvas VM source image extensions.
const (
	ExtPNG = ".png"
	ExtBMP = ".bmp"
)

// MaxImageDimension guards against decoding a pathologically large image;
// real Piet programs are rarely more than a few hundred codels per side.
const MaxImageDimension = 8192
