package host

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/joelibaceta/canvasvm/internal/piet"
)

// BatchResult is the outcome of running one image to completion (or
// failure) during a batch pass.
type BatchResult struct {
	Path          string
	OutputText    string
	OutputNumbers []int
	Steps         int
	Err           error
}

// BatchOptions configures a RunBatch pass.
type BatchOptions struct {
	// Concurrency caps how many images run at once. 0 means unbounded.
	Concurrency int
	// CodelSize forces a codel size; 0 autodetects per image.
	CodelSize int
	// MaxSteps bounds each VM's Run call; 0 uses a generous default.
	MaxSteps int
	// Watchdog overrides each VM's infinite-loop step limit; 0 keeps the default.
	Watchdog int
}

const defaultBatchMaxSteps = 1_000_000

// RunBatch loads and runs every .png/.bmp image directly inside dir
// concurrently, bounded by opts.Concurrency, and returns one BatchResult
// per image sorted by path. One image failing to decode or compile never
// stops the others.
func RunBatch(dir string, opts BatchOptions) ([]BatchResult, error) {
	sandbox, err := NewSandboxDir(dir)
	if err != nil {
		return nil, err
	}
	paths, err := sandbox.ListImages()
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}

	results := make([]BatchResult, len(paths))
	var mu sync.Mutex

	g, _ := errgroup.WithContext(context.Background())
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			res := runOneImage(path, opts)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(a, b int) bool { return results[a].Path < results[b].Path })
	return results, nil
}

func runOneImage(path string, opts BatchOptions) BatchResult {
	pix, width, height, err := LoadImage(path)
	if err != nil {
		return BatchResult{Path: path, Err: err}
	}

	grid, err := piet.FromRGBA(width, height, pix, opts.CodelSize)
	if err != nil {
		return BatchResult{Path: path, Err: err}
	}

	prog, err := piet.NewCompiler(grid, piet.CompileRelease).Compile()
	if err != nil {
		return BatchResult{Path: path, Err: err}
	}

	codelSize := 1
	if grid.Width() > 0 {
		codelSize = width / grid.Width()
	}
	vm := piet.NewVM(prog, codelSize)
	if opts.Watchdog > 0 {
		vm.SetWatchdog(opts.Watchdog)
	}

	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultBatchMaxSteps
	}

	steps, runErr := vm.Run(maxSteps)
	if runErr != nil {
		return BatchResult{Path: path, Err: runErr, Steps: steps}
	}

	return BatchResult{
		Path:          path,
		OutputText:    vm.OutputString(),
		OutputNumbers: vm.OutputNumbers(),
		Steps:         steps,
	}
}
