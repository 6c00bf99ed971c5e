// Package main replays a recorded bag through the feature front-end and writes the
// published feature sets as JSON lines.
package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/Taeyoung96/VINS-RGBD-FAST/config"
	"github.com/Taeyoung96/VINS-RGBD-FAST/frontend"
	"github.com/Taeyoung96/VINS-RGBD-FAST/inertial"
	"github.com/Taeyoung96/VINS-RGBD-FAST/logging"
	"github.com/Taeyoung96/VINS-RGBD-FAST/rimage"
	"github.com/Taeyoung96/VINS-RGBD-FAST/ros"
	"github.com/Taeyoung96/VINS-RGBD-FAST/tracker"
	"github.com/Taeyoung96/VINS-RGBD-FAST/tracker/patch"
)

var logger = logging.NewLogger("featurefront")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Config   string `flag:"0,required,usage=config file"`
	Bag      string `flag:"bag,required,usage=bag to replay"`
	Out      string `flag:"out,usage=file to write feature sets to, stdout if unset"`
	Overlays string `flag:"overlays,usage=directory to write track overlays to"`
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) (err error) {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	cfg, err := config.Read(ctx, argsParsed.Config, logger)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	var out io.Writer = os.Stdout
	if argsParsed.Out != "" {
		//nolint:gosec
		f, err := os.Create(argsParsed.Out)
		if err != nil {
			return errors.Wrap(err, "creating output file")
		}
		defer func() {
			err = multierr.Combine(err, f.Close())
		}()
		out = f
	}

	fe, err := newFrontEnd(cfg, frontend.NewJSONPublisher(out, argsParsed.Overlays), logger)
	if err != nil {
		return err
	}

	rb, err := ros.ReadBag(argsParsed.Bag)
	if err != nil {
		return err
	}
	events, err := ros.LoadEvents(
		rb,
		ros.Topics{Image: cfg.ImageTopic, Depth: cfg.DepthTopic, IMU: cfg.IMUTopic},
		ros.NewApproximateTimeSync(cfg.SyncTolerance, cfg.SyncQueueDepth),
		logger.Sublogger("ros"),
	)
	if err != nil {
		return err
	}

	return replay(ctx, fe, events, logger)
}

func replay(ctx context.Context, fe *frontend.FrontEnd, events []ros.Event, logger logging.Logger) error {
	imu := make(chan inertial.Sample)
	frames := make(chan frontend.FramePair)
	replayErr := make(chan error, 1)
	goutils.PanicCapturingGo(func() {
		replayErr <- ros.Replay(ctx, events, imu, frames, logger.Sublogger("replay"))
	})

	err := multierr.Combine(fe.Run(ctx, imu, frames), <-replayErr)
	stats := fe.Stats()
	logger.Infow("replay finished",
		"frames", stats.FramesSeen,
		"published", stats.Published,
		"suppressed", stats.Suppressed,
		"resets", stats.Resets,
		"invalid_depth", stats.InvalidDepth)
	return err
}

// newFrontEnd builds a front-end with a patch tracker per configured camera. A fisheye mask
// that cannot be loaded is an error.
func newFrontEnd(cfg *config.Config, publisher frontend.Publisher, logger logging.Logger) (*frontend.FrontEnd, error) {
	var mask *image.Gray
	if cfg.FisheyeMask != "" {
		var err error
		mask, err = rimage.ReadGrayFile(cfg.FisheyeMask)
		if err != nil {
			return nil, errors.Wrap(err, "loading fisheye mask")
		}
	}

	ids := tracker.NewIDAllocator()
	trackers := make([]tracker.Tracker, 0, len(cfg.Cameras))
	for i, cam := range cfg.Cameras {
		model, err := cam.CameraModel()
		if err != nil {
			return nil, errors.Wrapf(err, "camera %d", i)
		}
		tr, err := patch.New(cfg.TrackerConfig(), model, ids, mask, logger.Sublogger(fmt.Sprintf("camera%d", i)))
		if err != nil {
			return nil, errors.Wrapf(err, "camera %d", i)
		}
		trackers = append(trackers, tr)
	}

	cameraToIMU, err := cfg.CameraToIMU()
	if err != nil {
		return nil, err
	}
	return frontend.New(frontend.Options{
		Rows:            cfg.Rows,
		Stereo:          cfg.Stereo,
		Equalize:        cfg.Equalize,
		TargetFrequency: cfg.Freq,
		ShowTrack:       cfg.ShowTrack,
		WindowSize:      cfg.WindowSize,
		StallThreshold:  cfg.StallThreshold,
		CameraToIMU:     cameraToIMU,
		IMUWindowBefore: cfg.IMUWindowBefore,
		IMUWindowAfter:  cfg.IMUWindowAfter,
	}, trackers, publisher, logger.Sublogger("frontend"))
}
