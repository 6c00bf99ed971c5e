package transform

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func testModel(distortion *BrownConrady) *PinholeCameraModel {
	return &PinholeCameraModel{
		PinholeCameraIntrinsics: &PinholeCameraIntrinsics{
			Width: 640, Height: 480, Fx: 460, Fy: 455, Ppx: 320, Ppy: 240,
		},
		Distortion: distortion,
	}
}

func TestCheckValid(t *testing.T) {
	var model *PinholeCameraModel
	test.That(t, model.CheckValid(), test.ShouldNotBeNil)

	model = testModel(nil)
	test.That(t, model.CheckValid(), test.ShouldBeNil)
	model.Fx = 0
	err := model.CheckValid()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "Fx")
}

func TestLiftToRayIdealLens(t *testing.T) {
	model := testModel(nil)
	ray := model.LiftToRay(r2.Point{X: 320 + 46, Y: 240 - 91})
	test.That(t, ray.X, test.ShouldAlmostEqual, 0.1)
	test.That(t, ray.Y, test.ShouldAlmostEqual, -0.2)

	px, ok := model.ProjectRay(r3.Vector{X: 0.2, Y: -0.4, Z: 2})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, px.X, test.ShouldAlmostEqual, 366)
	test.That(t, px.Y, test.ShouldAlmostEqual, 149)

	_, ok = model.ProjectRay(r3.Vector{X: 1, Z: -1})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestDistortionRoundTrip(t *testing.T) {
	bc, err := NewBrownConrady([]float64{-0.28, 0.07, 0, 0.0002, 0.00002})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bc.Parameters(), test.ShouldHaveLength, 5)

	_, err = NewBrownConrady(make([]float64, 6))
	test.That(t, err, test.ShouldNotBeNil)

	model := testModel(bc)
	for _, ray := range []r2.Point{{X: 0.1, Y: -0.2}, {X: -0.3, Y: 0.25}, {}} {
		px, ok := model.ProjectRay(r3.Vector{X: ray.X, Y: ray.Y, Z: 1})
		test.That(t, ok, test.ShouldBeTrue)
		back := model.LiftToRay(px)
		test.That(t, back.X, test.ShouldAlmostEqual, ray.X, 1e-8)
		test.That(t, back.Y, test.ShouldAlmostEqual, ray.Y, 1e-8)
	}
	test.That(t, model.InBounds(r2.Point{X: 639, Y: 479}), test.ShouldBeTrue)
	test.That(t, model.InBounds(r2.Point{X: 640, Y: 0}), test.ShouldBeFalse)
}
