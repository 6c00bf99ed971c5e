package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNewRotationMatrix(t *testing.T) {
	_, err := NewRotationMatrix([]float64{1, 0, 0})
	test.That(t, err, test.ShouldNotBeNil)

	rm, err := NewRotationMatrix([]float64{0, -1, 0, 1, 0, 0, 0, 0, 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rm.At(0, 1), test.ShouldEqual, -1.)
	test.That(t, rm.Row(1), test.ShouldResemble, r3.Vector{X: 1})
	test.That(t, rm.Col(0), test.ShouldResemble, r3.Vector{Y: 1})
	test.That(t, rm.IsOrthonormal(1e-9), test.ShouldBeTrue)

	v := rm.Mul(r3.Vector{X: 1})
	test.That(t, v.X, test.ShouldAlmostEqual, 0)
	test.That(t, v.Y, test.ShouldAlmostEqual, 1)

	test.That(t, RotationAlmostEqual(rm.MatMul(rm.Transpose()), IdentityRotation(), 1e-12), test.ShouldBeTrue)
}

func TestExpMap(t *testing.T) {
	t.Run("zero vector is identity", func(t *testing.T) {
		test.That(t, ExpMap(r3.Vector{}), test.ShouldResemble, IdentityRotation())
	})

	t.Run("quarter turn about z", func(t *testing.T) {
		rm := ExpMap(r3.Vector{Z: math.Pi / 2})
		v := rm.Mul(r3.Vector{X: 1})
		test.That(t, v.X, test.ShouldAlmostEqual, 0, 1e-12)
		test.That(t, v.Y, test.ShouldAlmostEqual, 1, 1e-12)
		test.That(t, v.Z, test.ShouldAlmostEqual, 0, 1e-12)
		test.That(t, rm.IsOrthonormal(1e-9), test.ShouldBeTrue)
	})

	t.Run("axis angle round trip", func(t *testing.T) {
		vec := r3.Vector{X: 0.1, Y: -0.2, Z: 0.05}
		r4 := R3ToR4(vec)
		test.That(t, r4.Theta, test.ShouldAlmostEqual, vec.Norm())
		back := r4.ToR3()
		test.That(t, back.X, test.ShouldAlmostEqual, vec.X)
		test.That(t, back.Y, test.ShouldAlmostEqual, vec.Y)
		test.That(t, back.Z, test.ShouldAlmostEqual, vec.Z)
	})

	t.Run("inverse is transpose", func(t *testing.T) {
		vec := r3.Vector{X: 0.3, Y: 0.1, Z: -0.4}
		forward := ExpMap(vec)
		backward := ExpMap(vec.Mul(-1))
		test.That(t, RotationAlmostEqual(forward.Transpose(), backward, 1e-12), test.ShouldBeTrue)
	})
}

func TestAngularVelocity(t *testing.T) {
	test.That(t, MeanAngularVelocity(nil), test.ShouldResemble, AngularVelocity{})

	mean := MeanAngularVelocity([]AngularVelocity{{X: 1, Y: 2}, {X: 3, Y: 0, Z: 6}})
	test.That(t, mean, test.ShouldResemble, AngularVelocity{X: 2, Y: 1, Z: 3})

	// a camera whose x axis is the sensor's y axis
	toCam, err := NewRotationMatrix([]float64{0, 1, 0, -1, 0, 0, 0, 0, 1})
	test.That(t, err, test.ShouldBeNil)
	inc := RotationIncrement(AngularVelocity{Y: math.Pi}, toCam, 0.5)
	expected := ExpMap(r3.Vector{X: math.Pi / 2})
	test.That(t, RotationAlmostEqual(inc, expected, 1e-12), test.ShouldBeTrue)
}
