package frontend

import "github.com/Taeyoung96/VINS-RGBD-FAST/tracker"

// StereoSecondaryCamera is the index of the camera whose features derive from the primary's
// in a stereo rig. It takes no part in independent tracking or id assignment.
const StereoSecondaryCamera = 1

// AssignIDs gives every new feature of every independently tracking camera an id.
//
// Ids are drawn in feature-index-major order: index 0 of camera 0, index 0 of camera 1, ...,
// then index 1 of camera 0 and so on, skipping the stereo secondary camera. Assignment stops
// at the first index no camera has a feature for. Downstream consumers may rely on this
// order.
func AssignIDs(trackers []tracker.Tracker, stereo bool) {
	for i := 0; ; i++ {
		completed := false
		for cam, tr := range trackers {
			if stereo && cam == StereoSecondaryCamera {
				continue
			}
			if tr.UpdateID(i) {
				completed = true
			}
		}
		if !completed {
			return
		}
	}
}

// EncodeID packs a feature id and the index of the camera observing it into one integer.
func EncodeID(id, cameraCount, cameraIndex int) int {
	return id*cameraCount + cameraIndex
}

// DecodeID reverses EncodeID.
func DecodeID(encoded, cameraCount int) (id, cameraIndex int) {
	return encoded / cameraCount, encoded % cameraCount
}
