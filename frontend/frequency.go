package frontend

import "math"

// FrequencyController limits how often feature sets are published. Target is in Hz; zero or
// less publishes every frame.
type FrequencyController struct {
	Target int
}

// Decide records in state whether the frame stamped t is published and returns that
// decision.
//
// The rate is estimated as round(publish_count / (t - first_frame_time)) and the frame is
// published when it does not exceed Target. Once the estimate is within 1% of Target the
// estimator restarts at t so that error does not accumulate over long runs.
func (fc *FrequencyController) Decide(state *StreamState, t float64) bool {
	state.PublishThisFrame = fc.decide(state, t)
	return state.PublishThisFrame
}

func (fc *FrequencyController) decide(state *StreamState, t float64) bool {
	if fc.Target <= 0 {
		state.PublishCount++
		return true
	}
	elapsed := t - state.FirstFrameTime
	if elapsed <= 0 {
		return false
	}
	target := float64(fc.Target)
	rate := math.Round(float64(state.PublishCount) / elapsed)
	if rate > target {
		return false
	}
	state.PublishCount++
	if math.Abs(rate-target) < 0.01*target {
		state.Rebaseline(t)
	}
	return true
}
