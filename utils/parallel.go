package utils

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/multierr"
	"go.viam.com/utils"
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

// GroupWorkFunc processes the items [from, to) as group groupNum.
type GroupWorkFunc func(groupNum, from, to int)

// GroupWorkParallel splits totalSize items into at most ParallelFactor contiguous groups and
// works each group on its own goroutine. before is called with the number of groups before any
// work starts. It returns once every group is done.
func GroupWorkParallel(totalSize int, before func(numGroups int), groupWork GroupWorkFunc) {
	numGroups := ParallelFactor
	if totalSize < numGroups {
		numGroups = totalSize
	}
	if numGroups <= 0 {
		before(0)
		return
	}
	before(numGroups)

	groupSize := totalSize / numGroups
	extra := totalSize % numGroups
	var wait sync.WaitGroup
	wait.Add(numGroups)
	from := 0
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		to := from + groupSize
		if groupNum < extra {
			to++
		}
		groupNum, groupFrom, groupTo := groupNum, from, to
		utils.PanicCapturingGo(func() {
			defer wait.Done()
			groupWork(groupNum, groupFrom, groupTo)
		})
		from = to
	}
	wait.Wait()
}

// SimpleFunc is for RunInParallel.
type SimpleFunc func(ctx context.Context) error

// RunInParallel runs all functions in parallel and returns their combined errors. The first
// failure cancels the context the others were given.
func RunInParallel(ctx context.Context, fs []SimpleFunc) error {
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
				storeError(fmt.Errorf("got panic running something in parallel: %v", thePanic))
				cancel()
			}
			wg.Done()
		}()
		if err := f(ctx); err != nil {
			storeError(err)
			cancel()
		}
	}

	wg.Add(len(fs))
	for _, f := range fs {
		go helper(f)
	}
	wg.Wait()
	return bigError
}
