package inertial

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/Taeyoung96/VINS-RGBD-FAST/logging"
	"github.com/Taeyoung96/VINS-RGBD-FAST/spatialmath"
)

func sample(ts float64, x, y, z float64) Sample {
	return Sample{Timestamp: ts, AngularVelocity: spatialmath.AngularVelocity{X: x, Y: y, Z: z}}
}

func TestBufferOrdering(t *testing.T) {
	buf := NewBuffer()
	test.That(t, buf.Append(sample(1.0, 0, 0, 0)), test.ShouldBeNil)
	test.That(t, buf.Append(sample(1.0, 0, 0, 0)), test.ShouldBeNil)
	err := buf.Append(sample(0.9, 0, 0, 0))
	test.That(t, errors.Is(err, ErrOutOfOrder), test.ShouldBeTrue)
	test.That(t, buf.Len(), test.ShouldEqual, 2)

	buf.Clear()
	test.That(t, buf.Len(), test.ShouldEqual, 0)
	test.That(t, buf.Append(sample(0.5, 0, 0, 0)), test.ShouldBeNil)
}

func TestPredictEmptyBuffer(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	in := NewIntegrator(NewBuffer(), spatialmath.IdentityRotation(), logger)
	test.That(t, in.Predict(1.0, 0.9), test.ShouldResemble, spatialmath.IdentityRotation())
	test.That(t, logs.FilterMessageSnippet("empty inertial buffer").Len(), test.ShouldEqual, 1)
}

func TestPredictWindow(t *testing.T) {
	logger := logging.NewTestLogger(t)
	buf := NewBuffer()
	for _, s := range []Sample{
		sample(0.978, 100, 100, 100),
		sample(0.990, 0, 0, 1),
		sample(0.995, 0, 0, 2),
		sample(1.000, 0, 0, 3),
		sample(1.006, -100, 0, 0),
	} {
		test.That(t, buf.Append(s), test.ShouldBeNil)
	}

	in := NewIntegrator(buf, spatialmath.IdentityRotation(), logger)
	got := in.Predict(1.0, 0.9)

	// mean of the three in-window samples is 2 rad/s about z, integrated over 0.1s
	expected := spatialmath.ExpMap(r3.Vector{Z: 0.2}).Transpose()
	test.That(t, spatialmath.RotationAlmostEqual(got, expected, 1e-12), test.ShouldBeTrue)

	remaining := buf.Snapshot()
	test.That(t, remaining, test.ShouldHaveLength, 1)
	test.That(t, remaining[0].Timestamp, test.ShouldEqual, 1.006)

	// nothing new arrived and the frame time did not move: the 1.006 sample is past the window
	// so the window is empty and the prediction is the identity
	again := in.Predict(1.0, 0.9)
	test.That(t, spatialmath.RotationAlmostEqual(again, spatialmath.IdentityRotation(), 1e-12), test.ShouldBeTrue)
	test.That(t, buf.Len(), test.ShouldEqual, 1)
}

func TestPredictTrimsEvenWhenWindowEmpty(t *testing.T) {
	buf := NewBuffer()
	test.That(t, buf.Append(sample(0.5, 1, 0, 0)), test.ShouldBeNil)
	test.That(t, buf.Append(sample(0.6, 1, 0, 0)), test.ShouldBeNil)
	test.That(t, buf.Append(sample(2.0, 1, 0, 0)), test.ShouldBeNil)

	in := NewIntegrator(buf, spatialmath.IdentityRotation(), logging.NewTestLogger(t))
	got := in.Predict(1.0, 0.9)
	test.That(t, spatialmath.RotationAlmostEqual(got, spatialmath.IdentityRotation(), 1e-12), test.ShouldBeTrue)

	remaining := buf.Snapshot()
	test.That(t, remaining, test.ShouldHaveLength, 1)
	test.That(t, remaining[0].Timestamp, test.ShouldEqual, 2.0)
}

func TestPredictExtrinsicRotation(t *testing.T) {
	// camera x axis is the inertial y axis: R_ic maps camera coordinates into the inertial frame
	cameraToIMU, err := spatialmath.NewRotationMatrix([]float64{0, -1, 0, 1, 0, 0, 0, 0, 1})
	test.That(t, err, test.ShouldBeNil)

	buf := NewBuffer()
	test.That(t, buf.Append(sample(1.0, 0, math.Pi, 0)), test.ShouldBeNil)
	in := NewIntegrator(buf, cameraToIMU, logging.NewTestLogger(t))
	got := in.Predict(1.0, 0.5)

	expected := spatialmath.ExpMap(r3.Vector{X: math.Pi / 2}).Transpose()
	test.That(t, spatialmath.RotationAlmostEqual(got, expected, 1e-12), test.ShouldBeTrue)
}

func TestSetWindow(t *testing.T) {
	buf := NewBuffer()
	test.That(t, buf.Append(sample(0.95, 0, 0, 1)), test.ShouldBeNil)
	in := NewIntegrator(buf, spatialmath.IdentityRotation(), logging.NewTestLogger(t))
	in.SetWindow(0.1, 0.005)
	got := in.Predict(1.0, 0.0)
	expected := spatialmath.ExpMap(r3.Vector{Z: 1}).Transpose()
	test.That(t, spatialmath.RotationAlmostEqual(got, expected, 1e-12), test.ShouldBeTrue)
}

func TestConcurrentAppendAndPredict(t *testing.T) {
	buf := NewBuffer()
	in := NewIntegrator(buf, spatialmath.IdentityRotation(), logging.NewTestLogger(t))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			test.That(t, buf.Append(sample(float64(i)*0.005, 0, 0, 1)), test.ShouldBeNil)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			rot := in.Predict(float64(i)*0.05, float64(i-1)*0.05)
			test.That(t, rot.IsOrthonormal(1e-9), test.ShouldBeTrue)
		}
	}()
	wg.Wait()
}
