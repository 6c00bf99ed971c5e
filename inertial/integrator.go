package inertial

import (
	"github.com/Taeyoung96/VINS-RGBD-FAST/logging"
	"github.com/Taeyoung96/VINS-RGBD-FAST/spatialmath"
)

const (
	// DefaultWindowBefore is how far before the frame time samples are still averaged, in seconds.
	DefaultWindowBefore = 0.01
	// DefaultWindowAfter is the exclusive upper end of the window past the frame time, in seconds.
	DefaultWindowAfter = 0.005
)

// Integrator predicts the camera rotation between two frames from the buffered gyroscope
// samples around the newer frame.
type Integrator struct {
	buffer       *Buffer
	imuToCamera  spatialmath.RotationMatrix
	windowBefore float64
	windowAfter  float64
	logger       logging.Logger
}

// NewIntegrator returns an integrator over buffer. cameraToIMU is the extrinsic rotation of the
// primary camera expressed in the inertial frame; its transpose brings angular velocities into
// the camera frame.
func NewIntegrator(buffer *Buffer, cameraToIMU spatialmath.RotationMatrix, logger logging.Logger) *Integrator {
	return &Integrator{
		buffer:       buffer,
		imuToCamera:  cameraToIMU.Transpose(),
		windowBefore: DefaultWindowBefore,
		windowAfter:  DefaultWindowAfter,
		logger:       logger,
	}
}

// SetWindow overrides the averaging window around the frame time. Both values are seconds and
// are measured from the frame time, before and after it respectively.
func (in *Integrator) SetWindow(before, after float64) {
	in.windowBefore = before
	in.windowAfter = after
}

// Predict returns the inverse of the rotation the camera underwent between prevFrameTime and
// lastFrameTime, the form the trackers use to carry their previous features forward.
//
// The mean angular velocity of the samples stamped in
// [lastFrameTime-windowBefore, lastFrameTime+windowAfter) is taken as constant over the frame
// interval. Every sample before the end of that window is dropped afterwards, whether or not
// any fell inside it. An empty buffer yields the identity.
func (in *Integrator) Predict(lastFrameTime, prevFrameTime float64) spatialmath.RotationMatrix {
	window, ok := in.buffer.consume(lastFrameTime-in.windowBefore, lastFrameTime+in.windowAfter)
	if !ok {
		in.logger.Warnw("empty inertial buffer, predicting no rotation", "frame_time", lastFrameTime)
		return spatialmath.IdentityRotation()
	}
	if len(window) == 0 {
		in.logger.Debugw("no inertial samples in prediction window", "frame_time", lastFrameTime)
	}

	mean := spatialmath.MeanAngularVelocity(window)
	dtime := lastFrameTime - prevFrameTime
	return spatialmath.RotationIncrement(mean, in.imuToCamera, dtime).Transpose()
}
