package frontend

// DefaultStallThreshold is the largest gap between frames, in seconds, that is not treated
// as a discontinuity.
const DefaultStallThreshold = 1.0

// Verdict is the outcome of checking a frame's timestamp against the stream.
type Verdict int

const (
	// VerdictContinue means the frame follows the previous one and is processed.
	VerdictContinue Verdict = iota
	// VerdictSeed means the frame only starts the stream and is not processed further.
	VerdictSeed
	// VerdictReset means the stream stalled or went back in time. The state was reset and
	// the frame must be dropped.
	VerdictReset
)

func (v Verdict) String() string {
	switch v {
	case VerdictContinue:
		return "continue"
	case VerdictSeed:
		return "seed"
	case VerdictReset:
		return "reset"
	default:
		return "unknown"
	}
}

// HealthMonitor detects stalls and time reversals in the image stream. It is the only writer
// of the stream's frame times, apart from the rate re-baselining done by the
// FrequencyController.
type HealthMonitor struct {
	StallThreshold float64
}

// NewHealthMonitor returns a monitor using stallThreshold seconds, or DefaultStallThreshold
// when it is not positive.
func NewHealthMonitor(stallThreshold float64) *HealthMonitor {
	if stallThreshold <= 0 {
		stallThreshold = DefaultStallThreshold
	}
	return &HealthMonitor{StallThreshold: stallThreshold}
}

// Check updates state for a frame stamped t and reports what to do with the frame.
func (hm *HealthMonitor) Check(state *StreamState, t float64) Verdict {
	if state.FirstFrame {
		state.FirstFrame = false
		state.FirstFrameTime = t
		state.LastFrameTime = t
		state.PrevFrameTime = t
		return VerdictSeed
	}
	if t-state.LastFrameTime > hm.StallThreshold || t < state.LastFrameTime {
		state.Reset()
		return VerdictReset
	}
	state.PrevFrameTime = state.LastFrameTime
	state.LastFrameTime = t
	return VerdictContinue
}
