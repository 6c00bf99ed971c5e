package inject

import (
	"image"

	"github.com/Taeyoung96/VINS-RGBD-FAST/spatialmath"
	"github.com/Taeyoung96/VINS-RGBD-FAST/tracker"
)

// Tracker is an injected tracker.Tracker.
type Tracker struct {
	tracker.Tracker
	ReadImageFunc func(img *image.Gray, t float64, predicted spatialmath.RotationMatrix) error
	UpdateIDFunc  func(i int) bool
	FeaturesFunc  func() []tracker.Feature
	SetImageFunc  func(img *image.Gray) error
}

// ReadImage calls the injected ReadImage or the real version.
func (tr *Tracker) ReadImage(img *image.Gray, t float64, predicted spatialmath.RotationMatrix) error {
	if tr.ReadImageFunc == nil {
		return tr.Tracker.ReadImage(img, t, predicted)
	}
	return tr.ReadImageFunc(img, t, predicted)
}

// UpdateID calls the injected UpdateID or the real version.
func (tr *Tracker) UpdateID(i int) bool {
	if tr.UpdateIDFunc == nil {
		return tr.Tracker.UpdateID(i)
	}
	return tr.UpdateIDFunc(i)
}

// Features calls the injected Features or the real version.
func (tr *Tracker) Features() []tracker.Feature {
	if tr.FeaturesFunc == nil {
		return tr.Tracker.Features()
	}
	return tr.FeaturesFunc()
}

// SetImage calls the injected SetImage, or the real version when it has one.
func (tr *Tracker) SetImage(img *image.Gray) error {
	if tr.SetImageFunc == nil {
		if setter, ok := tr.Tracker.(tracker.ImageSetter); ok {
			return setter.SetImage(img)
		}
		return nil
	}
	return tr.SetImageFunc(img)
}

// ScriptedTracker is a tracker.Tracker whose features are set directly by a test. Each
// ReadImage records its arguments and advances to the next scripted frame, if any.
type ScriptedTracker struct {
	Frames [][]tracker.Feature
	IDs    *tracker.IDAllocator

	Reads     []float64
	Predicted []spatialmath.RotationMatrix
	features  []tracker.Feature
}

// ReadImage advances to the next scripted frame, repeating the last one when none are left.
func (tr *ScriptedTracker) ReadImage(img *image.Gray, t float64, predicted spatialmath.RotationMatrix) error {
	tr.Reads = append(tr.Reads, t)
	tr.Predicted = append(tr.Predicted, predicted)
	if len(tr.Frames) > 0 {
		tr.features = append([]tracker.Feature{}, tr.Frames[0]...)
		tr.Frames = tr.Frames[1:]
	}
	return nil
}

// UpdateID assigns ids from IDs.
func (tr *ScriptedTracker) UpdateID(i int) bool {
	if i < 0 || i >= len(tr.features) {
		return false
	}
	if tr.features[i].ID == tracker.UnassignedID {
		tr.features[i].ID = tr.IDs.Next()
	}
	return true
}

// Features returns the current scripted frame.
func (tr *ScriptedTracker) Features() []tracker.Feature {
	return tr.features
}
