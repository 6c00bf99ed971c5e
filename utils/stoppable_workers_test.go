package utils

import (
	"context"
	"testing"

	"go.uber.org/atomic"
	"go.viam.com/test"
)

func TestStoppableWorkers(t *testing.T) {
	var stopped atomic.Int32
	workers := NewStoppableWorkers(context.Background(), func(ctx context.Context) {
		<-ctx.Done()
		stopped.Inc()
	})
	workers.AddWorkers(func(ctx context.Context) {
		<-ctx.Done()
		stopped.Inc()
	})
	workers.Stop()
	test.That(t, stopped.Load(), test.ShouldEqual, int32(2))

	workers.AddWorkers(func(ctx context.Context) { stopped.Inc() })
	test.That(t, stopped.Load(), test.ShouldEqual, int32(2))
}

func TestStoppableWorkersWait(t *testing.T) {
	var ran atomic.Bool
	workers := NewStoppableWorkers(context.Background(), func(ctx context.Context) {
		ran.Store(true)
	})
	workers.Wait()
	test.That(t, ran.Load(), test.ShouldBeTrue)
	test.That(t, workers.Context().Err(), test.ShouldNotBeNil)

	parent, cancel := context.WithCancel(context.Background())
	workers = NewStoppableWorkers(parent, func(ctx context.Context) {
		<-ctx.Done()
	})
	cancel()
	workers.Wait()
}
