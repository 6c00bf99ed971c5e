// Package frontend drives the per-camera trackers from synchronized intensity and depth
// frames plus a gyroscope stream, and publishes depth-augmented feature sets at a
// controlled rate.
package frontend

import "github.com/google/uuid"

// StreamState is the state carried from one frame to the next. It is reset to its initial
// values when a discontinuity in the image stream is detected.
type StreamState struct {
	FirstFrame     bool
	FirstFrameTime float64
	LastFrameTime  float64
	PrevFrameTime  float64

	PublishCount       int
	PublishThisFrame   bool
	InitialPublishDone bool

	// Epoch identifies the run of frames since the last reset.
	Epoch uuid.UUID
}

// NewStreamState returns the state of a stream that has not seen a frame yet.
func NewStreamState() *StreamState {
	return &StreamState{
		FirstFrame:   true,
		PublishCount: 1,
		Epoch:        uuid.New(),
	}
}

// Reset puts the state back to how NewStreamState left it, under a new epoch.
func (s *StreamState) Reset() {
	*s = *NewStreamState()
}

// Rebaseline restarts the publish rate estimate at t.
func (s *StreamState) Rebaseline(t float64) {
	s.FirstFrameTime = t
	s.PublishCount = 0
}
