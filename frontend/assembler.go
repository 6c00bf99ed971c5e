package frontend

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"

	"github.com/Taeyoung96/VINS-RGBD-FAST/rimage"
	"github.com/Taeyoung96/VINS-RGBD-FAST/tracker"
)

// FeatureRecord is one published feature.
type FeatureRecord struct {
	// ID is the feature id encoded together with its camera index, see EncodeID.
	ID       int       `json:"id"`
	Ray      r3.Vector `json:"ray"`
	Pixel    r2.Point  `json:"pixel"`
	Velocity r2.Point  `json:"velocity"`
	// Depth is the raw depth sample, zero when DepthValid is false.
	Depth      rimage.Depth `json:"depth"`
	DepthValid bool         `json:"depth_valid"`
}

// FeatureSet is the output of one published frame.
type FeatureSet struct {
	Epoch   uuid.UUID       `json:"epoch"`
	Stamp   float64         `json:"stamp"`
	Records []FeatureRecord `json:"features"`
	// InvalidDepth counts records whose depth could not be sampled.
	InvalidDepth int `json:"invalid_depth"`
}

// Assembler builds feature sets from the trackers' state.
type Assembler struct{}

// Assemble collects every feature re-observed at least once (track count above one) from
// every camera, sampling its depth from depth at the nearest pixel.
//
// The first frame to get here after the stream starts or resets is only used to settle the
// trackers and yields ok == false; velocities mean nothing before it.
func (a *Assembler) Assemble(
	state *StreamState,
	stamp float64,
	trackers []tracker.Tracker,
	depth *rimage.DepthMap,
) (set *FeatureSet, ok bool) {
	if !state.InitialPublishDone {
		state.InitialPublishDone = true
		return nil, false
	}

	set = &FeatureSet{Epoch: state.Epoch, Stamp: stamp}
	for cam, tr := range trackers {
		for _, f := range tr.Features() {
			if f.TrackCount <= 1 {
				continue
			}
			d, valid := depth.SampleNearest(f.Pixel)
			if !valid {
				set.InvalidDepth++
			}
			set.Records = append(set.Records, FeatureRecord{
				ID:         EncodeID(f.ID, len(trackers), cam),
				Ray:        r3.Vector{X: f.Ray.X, Y: f.Ray.Y, Z: 1},
				Pixel:      f.Pixel,
				Velocity:   f.Velocity,
				Depth:      d,
				DepthValid: valid,
			})
		}
	}
	return set, true
}

// OverlayBands returns what DrawTrackOverlay draws for each camera.
func OverlayBands(trackers []tracker.Tracker) []rimage.OverlayBand {
	bands := make([]rimage.OverlayBand, len(trackers))
	for cam, tr := range trackers {
		for _, f := range tr.Features() {
			bands[cam].Tracks = append(bands[cam].Tracks, rimage.TrackMarker{Pixel: f.Pixel, TrackCount: f.TrackCount})
			if f.HasPrediction {
				bands[cam].Predicted = append(bands[cam].Predicted, f.Predicted)
			}
		}
	}
	return bands
}
