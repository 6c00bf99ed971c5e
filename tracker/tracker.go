// Package tracker defines the contract between the front-end and the per-camera feature
// engines that detect, track and undistort features.
package tracker

import (
	"image"

	"github.com/golang/geo/r2"

	"github.com/Taeyoung96/VINS-RGBD-FAST/spatialmath"
)

// UnassignedID is the id of a feature that has not been given one yet.
const UnassignedID = -1

// Feature is a read-only view of one tracked feature.
type Feature struct {
	ID int
	// Pixel is the feature's location in the current image.
	Pixel r2.Point
	// Ray is the undistorted, normalized camera-plane coordinate (implicit z = 1).
	Ray r2.Point
	// Velocity is the ray's rate of change, per second.
	Velocity r2.Point
	// TrackCount is the number of consecutive frames the feature has been observed in.
	TrackCount int
	// Predicted is where the feature was expected in the current image.
	Predicted     r2.Point
	HasPrediction bool
}

// A Tracker is the feature engine of one camera.
type Tracker interface {
	// ReadImage ingests the camera's next frame, taken at time t. predicted is the inverse of
	// the rotation the camera is expected to have undergone since the previous frame and is
	// used to seed the search for each previous feature.
	ReadImage(img *image.Gray, t float64, predicted spatialmath.RotationMatrix) error

	// UpdateID makes sure the feature at index i has an id, drawing a fresh one if unset, and
	// returns true. It returns false without side effects when i is out of range.
	UpdateID(i int) bool

	// Features returns the current features. The slice must not be modified and is only
	// valid until the next ReadImage.
	Features() []Feature
}

// ImageSetter is implemented by trackers that can take a frame without tracking on it. In a
// stereo rig the secondary camera only stores its image for the primary's stereo matching.
type ImageSetter interface {
	SetImage(img *image.Gray) error
}
