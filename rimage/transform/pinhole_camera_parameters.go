// Package transform holds the camera models that map between pixels and normalized rays.
package transform

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intriniscs are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection of a 3D scene to the 2D plane.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Width == 0 || params.Height == 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// PinholeCameraModel is the model of a pinhole camera with radial-tangential lens distortion.
type PinholeCameraModel struct {
	*PinholeCameraIntrinsics `json:"intrinsic_parameters"`
	Distortion               *BrownConrady `json:"distortion"`
}

// CheckValid checks the intrinsics. A nil distortion means an ideal lens.
func (params *PinholeCameraModel) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("camera model does not exist")
	}
	return params.PinholeCameraIntrinsics.CheckValid()
}

// LiftToRay maps a distorted pixel to its normalized camera-plane coordinate (implicit z = 1),
// removing lens distortion.
func (params *PinholeCameraModel) LiftToRay(px r2.Point) r2.Point {
	x := (px.X - params.Ppx) / params.Fx
	y := (px.Y - params.Ppy) / params.Fy
	x, y = params.Distortion.Invert(x, y)
	return r2.Point{X: x, Y: y}
}

// ProjectRay maps a camera-frame direction to a distorted pixel. ok is false for directions
// at or behind the image plane.
func (params *PinholeCameraModel) ProjectRay(dir r3.Vector) (r2.Point, bool) {
	if dir.Z <= 0 {
		return r2.Point{}, false
	}
	x, y := params.Distortion.Transform(dir.X/dir.Z, dir.Y/dir.Z)
	return r2.Point{X: x*params.Fx + params.Ppx, Y: y*params.Fy + params.Ppy}, true
}

// InBounds reports whether a pixel lies within the image.
func (params *PinholeCameraModel) InBounds(px r2.Point) bool {
	return px.X >= 0 && px.Y >= 0 && px.X <= float64(params.Width-1) && px.Y <= float64(params.Height-1)
}
