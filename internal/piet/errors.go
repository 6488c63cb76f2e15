package piet

import "fmt"

// UnknownColorError is a load-time error: a codel's raw RGB triple matched
// none of the 20 recognized Piet colors.
type UnknownColorError struct {
	RGB RGB
	At  Position
}

func (e *UnknownColorError) Error() string {
	return fmt.Sprintf("unknown color rgb(%d,%d,%d) at codel (%d,%d)", e.RGB.R, e.RGB.G, e.RGB.B, e.At.X, e.At.Y)
}

// InvalidCodelSizeError is a load-time error: the requested or detected
// codel size does not evenly divide the image's pixel dimensions.
type InvalidCodelSizeError struct {
	Width, Height, CodelSize int
}

func (e *InvalidCodelSizeError) Error() string {
	return fmt.Sprintf("codel size %d does not evenly divide image %dx%d", e.CodelSize, e.Width, e.Height)
}

// EmptyImageError is a load-time error: the image has zero width or height.
type EmptyImageError struct{}

func (e *EmptyImageError) Error() string { return "image has zero width or height" }

// IncompatibleDimensionsError is a load-time error: the RGBA buffer length
// does not match width*height*4.
type IncompatibleDimensionsError struct {
	Width, Height, BufLen int
}

func (e *IncompatibleDimensionsError) Error() string {
	return fmt.Sprintf("rgba buffer length %d incompatible with %dx%d image", e.BufLen, e.Width, e.Height)
}

// ExecutionTimeoutError is an execution-time error: the watchdog step limit
// was reached before the program halted on its own.
type ExecutionTimeoutError struct {
	Steps int
}

func (e *ExecutionTimeoutError) Error() string {
	return fmt.Sprintf("execution timeout after %d steps", e.Steps)
}

// InvalidInputError is an execution-time error: a host supplied a malformed
// input value (e.g. text that isn't a valid integer for push_input_int).
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string { return fmt.Sprintf("invalid input: %s", e.Reason) }

// HaltedError is an execution-time error: Step was called on a VM that has
// already halted.
type HaltedError struct{}

func (e *HaltedError) Error() string { return "vm has already halted" }
