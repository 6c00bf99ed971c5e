package spatialmath

import (
	"github.com/golang/geo/r3"
)

// AngularVelocity contains angular velocity in rad/s across x/y/z axes.
type AngularVelocity r3.Vector

// Vector returns the angular velocity as an r3.Vector.
func (av AngularVelocity) Vector() r3.Vector {
	return r3.Vector(av)
}

// MeanAngularVelocity returns the component-wise mean of the given velocities, or the zero
// velocity when none are given.
func MeanAngularVelocity(avs []AngularVelocity) AngularVelocity {
	if len(avs) == 0 {
		return AngularVelocity{}
	}
	var sum r3.Vector
	for _, av := range avs {
		sum = sum.Add(av.Vector())
	}
	return AngularVelocity(sum.Mul(1 / float64(len(avs))))
}

// RotationIncrement integrates a constant angular velocity over dt seconds, expressed in the
// frame given by toFrame (a rotation that maps the sensor frame into the target frame).
func RotationIncrement(av AngularVelocity, toFrame RotationMatrix, dt float64) RotationMatrix {
	return ExpMap(toFrame.Mul(av.Vector()).Mul(dt))
}
