package frontend

import (
	"context"
	"image"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/Taeyoung96/VINS-RGBD-FAST/inertial"
	"github.com/Taeyoung96/VINS-RGBD-FAST/logging"
	"github.com/Taeyoung96/VINS-RGBD-FAST/rimage"
	"github.com/Taeyoung96/VINS-RGBD-FAST/spatialmath"
	"github.com/Taeyoung96/VINS-RGBD-FAST/tracker"
	"github.com/Taeyoung96/VINS-RGBD-FAST/utils"
)

// FramePair is one synchronized intensity and depth frame. The intensity image stacks the
// cameras vertically, Rows rows each.
type FramePair struct {
	Stamp     float64
	Intensity *image.Gray
	Depth     *rimage.DepthMap
}

// Options configures a FrontEnd.
type Options struct {
	// Rows is the height of one camera's image within the stacked intensity image.
	Rows int
	// Stereo marks camera 1 as the secondary of a stereo pair.
	Stereo bool
	// Equalize equalizes each camera's histogram before tracking.
	Equalize bool
	// TargetFrequency is the publish rate in Hz; zero or less publishes every frame.
	TargetFrequency int
	ShowTrack       bool
	WindowSize      int
	StallThreshold  float64
	// CameraToIMU is the primary camera's extrinsic rotation in the inertial frame. The zero
	// value means identity.
	CameraToIMU spatialmath.RotationMatrix
	// IMUWindowBefore and IMUWindowAfter override the integrator's averaging window when
	// positive.
	IMUWindowBefore float64
	IMUWindowAfter  float64
	// Clock measures frame processing cost. Defaults to the wall clock.
	Clock clock.Clock
}

// Stats are counters over the lifetime of a FrontEnd.
type Stats struct {
	FramesSeen   int64
	Published    int64
	Suppressed   int64
	Resets       int64
	InvalidDepth int64
}

type counters struct {
	framesSeen   atomic.Int64
	published    atomic.Int64
	suppressed   atomic.Int64
	resets       atomic.Int64
	invalidDepth atomic.Int64
}

// A FrontEnd processes one event at a time. Frames and inertial samples may be delivered
// from different goroutines; they are serialized internally.
type FrontEnd struct {
	mu         sync.Mutex
	opts       Options
	clock      clock.Clock
	trackers   []tracker.Tracker
	buffer     *inertial.Buffer
	integrator *inertial.Integrator
	health     *HealthMonitor
	freq       *FrequencyController
	assembler  *Assembler
	publisher  Publisher
	state      *StreamState
	stats      counters
	logger     logging.Logger
}

// New returns a FrontEnd driving one tracker per camera.
func New(opts Options, trackers []tracker.Tracker, publisher Publisher, logger logging.Logger) (*FrontEnd, error) {
	if len(trackers) == 0 {
		return nil, errors.New("at least one camera tracker is required")
	}
	if opts.Stereo && len(trackers) < 2 {
		return nil, errors.Errorf("stereo tracking needs two cameras, got %d", len(trackers))
	}
	if opts.Rows <= 0 {
		return nil, errors.Errorf("rows must be positive, got %d", opts.Rows)
	}
	if publisher == nil {
		return nil, errors.New("a publisher is required")
	}
	if opts.CameraToIMU == (spatialmath.RotationMatrix{}) {
		opts.CameraToIMU = spatialmath.IdentityRotation()
	}
	if !opts.CameraToIMU.IsOrthonormal(1e-6) {
		return nil, errors.Errorf("camera to IMU rotation is not a rotation: %v", opts.CameraToIMU)
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	buffer := inertial.NewBuffer()
	integrator := inertial.NewIntegrator(buffer, opts.CameraToIMU, logger.Sublogger("inertial"))
	if opts.IMUWindowBefore > 0 || opts.IMUWindowAfter > 0 {
		integrator.SetWindow(opts.IMUWindowBefore, opts.IMUWindowAfter)
	}
	return &FrontEnd{
		opts:       opts,
		clock:      clk,
		trackers:   trackers,
		buffer:     buffer,
		integrator: integrator,
		health:     NewHealthMonitor(opts.StallThreshold),
		freq:       &FrequencyController{Target: opts.TargetFrequency},
		assembler:  &Assembler{},
		publisher:  publisher,
		state:      NewStreamState(),
		logger:     logger,
	}, nil
}

// HandleInertial buffers a gyroscope sample. Samples arriving before the stream has been
// seeded are ignored.
func (fe *FrontEnd) HandleInertial(s inertial.Sample) error {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	if fe.state.FirstFrame {
		return nil
	}
	return fe.buffer.Append(s)
}

// ProcessFrame runs one synchronized frame through the health gate, rotation prediction,
// tracking, id assignment, the frequency gate and assembly, publishing what results.
func (fe *FrontEnd) ProcessFrame(ctx context.Context, pair FramePair) error {
	ctx, span := trace.StartSpan(ctx, "frontend::ProcessFrame")
	defer span.End()

	fe.mu.Lock()
	defer fe.mu.Unlock()

	start := fe.clock.Now()
	fe.stats.framesSeen.Inc()
	if pair.Intensity == nil {
		return errors.New("frame has no intensity image")
	}
	if need := fe.opts.Rows * len(fe.trackers); pair.Intensity.Bounds().Dy() < need {
		return errors.Errorf("intensity image has %d rows, %d cameras of %d rows need %d",
			pair.Intensity.Bounds().Dy(), len(fe.trackers), fe.opts.Rows, need)
	}

	switch fe.health.Check(fe.state, pair.Stamp) {
	case VerdictSeed:
		fe.logger.Debugw("stream seeded", "stamp", pair.Stamp, "epoch", fe.state.Epoch)
		return nil
	case VerdictReset:
		fe.stats.resets.Inc()
		fe.buffer.Clear()
		fe.logger.Warnw("image discontinuity detected, resetting feature tracker", "stamp", pair.Stamp)
		return fe.publisher.PublishRestart(ctx, RestartSignal{Restart: true, Stamp: pair.Stamp, Epoch: fe.state.Epoch})
	case VerdictContinue:
	}

	predicted := fe.integrator.Predict(fe.state.LastFrameTime, fe.state.PrevFrameTime)
	if err := fe.track(ctx, pair, predicted); err != nil {
		return err
	}
	AssignIDs(fe.trackers, fe.opts.Stereo)

	if !fe.freq.Decide(fe.state, pair.Stamp) {
		fe.stats.suppressed.Inc()
		return nil
	}

	var err error
	if set, ok := fe.assembler.Assemble(fe.state, pair.Stamp, fe.trackers, pair.Depth); ok {
		fe.stats.published.Inc()
		fe.stats.invalidDepth.Add(int64(set.InvalidDepth))
		if set.InvalidDepth > 0 {
			fe.logger.Debugw("features without valid depth", "stamp", pair.Stamp, "count", set.InvalidDepth)
		}
		err = multierr.Append(err, fe.publisher.PublishFeatures(ctx, set))
	} else {
		fe.stats.suppressed.Inc()
	}
	if fe.opts.ShowTrack {
		overlay := rimage.DrawTrackOverlay(pair.Intensity, fe.opts.Rows, fe.opts.WindowSize, OverlayBands(fe.trackers))
		err = multierr.Append(err, fe.publisher.PublishOverlay(ctx, pair.Stamp, overlay))
	}
	fe.logger.Debugw("processed frame", "stamp", pair.Stamp, "cost", fe.clock.Since(start))
	return err
}

// track hands each camera its band of the stacked image. Cameras are tracked
// concurrently.
func (fe *FrontEnd) track(ctx context.Context, pair FramePair, predicted spatialmath.RotationMatrix) error {
	fs := make([]utils.SimpleFunc, 0, len(fe.trackers))
	for cam, tr := range fe.trackers {
		band, err := rimage.RowBand(pair.Intensity, cam, fe.opts.Rows)
		if err != nil {
			return errors.Wrapf(err, "camera %d", cam)
		}
		cam, tr := cam, tr
		fs = append(fs, func(ctx context.Context) error {
			if fe.opts.Equalize {
				band = rimage.EqualizeAdaptive(band, rimage.DefaultEqualizeTiles, rimage.DefaultEqualizeTiles, rimage.DefaultEqualizeClipLimit)
			}
			if fe.opts.Stereo && cam == StereoSecondaryCamera {
				if setter, ok := tr.(tracker.ImageSetter); ok {
					return errors.Wrapf(setter.SetImage(band), "camera %d", cam)
				}
				return nil
			}
			return errors.Wrapf(tr.ReadImage(band, pair.Stamp, predicted), "camera %d", cam)
		})
	}
	return utils.RunInParallel(ctx, fs)
}

// Reset discards all stream state, as if no frame had been seen.
func (fe *FrontEnd) Reset() {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	fe.state.Reset()
	fe.buffer.Clear()
}

// State returns a copy of the current stream state.
func (fe *FrontEnd) State() StreamState {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return *fe.state
}

// Stats returns a snapshot of the counters.
func (fe *FrontEnd) Stats() Stats {
	return Stats{
		FramesSeen:   fe.stats.framesSeen.Load(),
		Published:    fe.stats.published.Load(),
		Suppressed:   fe.stats.suppressed.Load(),
		Resets:       fe.stats.resets.Load(),
		InvalidDepth: fe.stats.invalidDepth.Load(),
	}
}

// Run consumes both streams on a single goroutine until ctx is canceled or both channels are
// closed. Errors from individual events are logged and do not stop the loop.
func (fe *FrontEnd) Run(ctx context.Context, imu <-chan inertial.Sample, frames <-chan FramePair) error {
	workers := utils.NewStoppableWorkers(ctx, func(ctx context.Context) {
		for imu != nil || frames != nil {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-imu:
				if !ok {
					imu = nil
					continue
				}
				if err := fe.HandleInertial(s); err != nil {
					fe.logger.Warnw("dropping inertial sample", "stamp", s.Timestamp, "error", err)
				}
			case pair, ok := <-frames:
				if !ok {
					frames = nil
					continue
				}
				if err := fe.ProcessFrame(ctx, pair); err != nil {
					fe.logger.Errorw("error processing frame", "stamp", pair.Stamp, "error", err)
				}
			}
		}
	})
	workers.Wait()
	return ctx.Err()
}
