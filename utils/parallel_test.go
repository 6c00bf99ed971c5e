package utils

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.viam.com/test"
	gutils "go.viam.com/utils"
)

func TestRunInParallel(t *testing.T) {
	wait100ms := func(ctx context.Context) error {
		gutils.SelectContextOrWait(ctx, 100*time.Millisecond)
		return ctx.Err()
	}

	start := time.Now()
	err := RunInParallel(context.Background(), []SimpleFunc{wait100ms, wait100ms})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, time.Since(start), test.ShouldBeLessThan, 190*time.Millisecond)

	errFunc := func(ctx context.Context) error {
		return errors.New("bad")
	}

	start = time.Now()
	err = RunInParallel(context.Background(), []SimpleFunc{wait100ms, wait100ms, errFunc})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldEqual, "bad")
	test.That(t, time.Since(start), test.ShouldBeLessThan, 90*time.Millisecond)

	panicFunc := func(ctx context.Context) error {
		panic(1)
	}

	err = RunInParallel(context.Background(), []SimpleFunc{panicFunc})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, RunInParallel(context.Background(), nil), test.ShouldBeNil)
}

func TestGroupWorkParallel(t *testing.T) {
	for _, size := range []int{0, 1, 7, 100} {
		var mu sync.Mutex
		seen := make([]int, size)
		var groups int
		GroupWorkParallel(size, func(numGroups int) {
			groups = numGroups
		}, func(groupNum, from, to int) {
			mu.Lock()
			defer mu.Unlock()
			for i := from; i < to; i++ {
				seen[i]++
			}
		})
		test.That(t, groups, test.ShouldBeLessThanOrEqualTo, ParallelFactor)
		if size > 0 {
			test.That(t, groups, test.ShouldBeGreaterThan, 0)
		}
		for _, count := range seen {
			test.That(t, count, test.ShouldEqual, 1)
		}
	}
}
