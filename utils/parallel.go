// Package utils contains the small numeric, parallelism and error helpers shared by the
// image and calibration packages.
package utils

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

// minRowsPerBand keeps tiny frames from being split across more goroutines than rows.
const minRowsPerBand = 8

// ParallelForEachRow splits [0, height) into contiguous bands and calls f once per row,
// each band on its own goroutine. It returns once every band is done. A panic in f stops the
// remaining bands and is returned as an error.
func ParallelForEachRow(height int, f func(y int)) error {
	if height <= 0 {
		return nil
	}
	bands := ParallelFactor
	if maxBands := (height + minRowsPerBand - 1) / minRowsPerBand; bands > maxBands {
		bands = maxBands
	}

	bandSize := height / bands
	fs := make([]SimpleFunc, 0, bands)
	for i := 0; i < bands; i++ {
		start := i * bandSize
		end := start + bandSize
		if i == bands-1 {
			end = height
		}
		fs = append(fs, func(ctx context.Context) error {
			for y := start; y < end; y++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				f(y)
			}
			return nil
		})
	}
	_, err := RunInParallel(context.Background(), fs)
	return err
}

// SimpleFunc is for RunInParallel.
type SimpleFunc func(ctx context.Context) error

// RunInParallel runs all functions in parallel, return is elapsed time and an error.
// The first failure cancels the context handed to the others.
func RunInParallel(ctx context.Context, fs []SimpleFunc) (time.Duration, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	var bigError error
	var bigErrorMutex sync.Mutex
	storeError := func(err error) {
		bigErrorMutex.Lock()
		defer bigErrorMutex.Unlock()
		if bigError == nil || !errors.Is(err, context.Canceled) {
			bigError = multierr.Combine(bigError, err)
		}
	}

	helper := func(f SimpleFunc) {
		defer func() {
			if thePanic := recover(); thePanic != nil {
				storeError(errors.Errorf("got panic running something in parallel: %v", thePanic))
				cancel()
			}
			wg.Done()
		}()
		err := f(ctx)
		if err != nil {
			storeError(err)
			cancel()
		}
	}

	for _, f := range fs {
		wg.Add(1)
		go helper(f)
	}

	wg.Wait()
	return time.Since(start), bigError
}
