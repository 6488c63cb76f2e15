package host

import "sync"

// ReplIO is a thread-safe keystroke queue shared between TerminalHost's
// stdin reader goroutine and the REPL loop driving a piet.Debugger. It
// mirrors a line/raw split: single keystrokes dispatch a debugger command
// (step, continue, set breakpoint) immediately, while line mode
// accumulates characters until Enter so the user can type a breakpoint
// condition or a line of program input.
type ReplIO struct {
	mu sync.Mutex

	keyBuf  [256]byte
	keyHead int
	keyTail int
	keyLen  int

	lineMode bool
	line     []byte
	lines    []string

	echo bool
}

// NewReplIO creates a queue with echo enabled and command mode active.
func NewReplIO() *ReplIO {
	return &ReplIO{echo: true}
}

// RouteKey enqueues one keystroke from the terminal reader.
func (r *ReplIO) RouteKey(b byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.lineMode {
		r.enqueueKeyLocked(b)
		return
	}
	switch b {
	case '\n':
		r.lines = append(r.lines, string(r.line))
		r.line = nil
	case 0x08:
		if len(r.line) > 0 {
			r.line = r.line[:len(r.line)-1]
		}
	default:
		r.line = append(r.line, b)
	}
}

func (r *ReplIO) enqueueKeyLocked(b byte) {
	if r.keyLen >= len(r.keyBuf) {
		return
	}
	r.keyBuf[r.keyTail] = b
	r.keyTail = (r.keyTail + 1) % len(r.keyBuf)
	r.keyLen++
}

// NextKey dequeues the next raw command keystroke, if any is queued.
func (r *ReplIO) NextKey() (byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.keyLen == 0 {
		return 0, false
	}
	b := r.keyBuf[r.keyHead]
	r.keyHead = (r.keyHead + 1) % len(r.keyBuf)
	r.keyLen--
	return b, true
}

// NextLine dequeues the next completed input line, if any.
func (r *ReplIO) NextLine() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lines) == 0 {
		return "", false
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, true
}

// SetLineMode switches between single-keystroke command mode and
// line-accumulating input mode, discarding any partial line in progress.
func (r *ReplIO) SetLineMode(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lineMode = enabled
	r.line = nil
}

// LineMode reports whether line-accumulating mode is active.
func (r *ReplIO) LineMode() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lineMode
}

// Echo reports whether the REPL loop should echo typed characters back to
// the terminal; this queue only buffers bytes, it never writes to stdout.
func (r *ReplIO) Echo() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.echo
}

// SetEcho toggles echo.
func (r *ReplIO) SetEcho(enabled bool) {
	r.mu.Lock()
	r.echo = enabled
	r.mu.Unlock()
}
