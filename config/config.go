// Package config describes how a feature front-end is set up: its cameras, input topics and
// tuning.
package config

import (
	"fmt"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/Taeyoung96/VINS-RGBD-FAST/logging"
	"github.com/Taeyoung96/VINS-RGBD-FAST/rimage/transform"
	"github.com/Taeyoung96/VINS-RGBD-FAST/spatialmath"
	"github.com/Taeyoung96/VINS-RGBD-FAST/tracker/patch"
)

// Default values for fields left unset.
const (
	DefaultWindowSize     = 20
	DefaultSyncTolerance  = 0.02
	DefaultSyncQueueDepth = 100
)

// A Config describes a feature front-end.
type Config struct {
	ConfigFilePath string `json:"-"`

	ImageTopic string `json:"image_topic"`
	DepthTopic string `json:"depth_topic"`
	IMUTopic   string `json:"imu_topic"`

	// Rows and Cols are the size of one camera's image. Multiple cameras arrive stacked
	// vertically in one image.
	Rows    int            `json:"image_height"`
	Cols    int            `json:"image_width"`
	Cameras []CameraConfig `json:"cameras"`
	Stereo  bool           `json:"stereo_track"`

	FisheyeMask string `json:"fisheye_mask"`
	Equalize    bool   `json:"equalize"`
	Freq        int    `json:"freq"`
	ShowTrack   bool   `json:"show_track"`
	WindowSize  int    `json:"window_size"`

	// ExtrinsicRotation is the row major rotation of the primary camera in the inertial frame.
	ExtrinsicRotation []float64 `json:"extrinsic_rotation"`

	SyncTolerance   float64 `json:"sync_tolerance_sec"`
	SyncQueueDepth  int     `json:"sync_queue_size"`
	StallThreshold  float64 `json:"stall_threshold_sec"`
	IMUWindowBefore float64 `json:"imu_window_before_sec"`
	IMUWindowAfter  float64 `json:"imu_window_after_sec"`

	Tracker  *patch.Config `json:"tracker,omitempty"`
	LogLevel logging.Level `json:"log_level"`
}

// CameraConfig holds one camera's calibration.
type CameraConfig struct {
	Name       string                             `json:"name"`
	Intrinsics *transform.PinholeCameraIntrinsics `json:"intrinsics"`
	// Distortion is k1, k2, k3, p1, p2. Missing trailing values are zero.
	Distortion []float64 `json:"distortion"`
}

// Validate ensures all parts of the config are valid.
func (config *Config) Validate(path string) error {
	if config.ImageTopic == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "image_topic")
	}
	if config.DepthTopic == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "depth_topic")
	}
	if config.IMUTopic == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "imu_topic")
	}
	if config.Rows <= 0 || config.Cols <= 0 {
		return utils.NewConfigValidationError(path,
			errors.Errorf("image size must be positive, got %dx%d", config.Cols, config.Rows))
	}
	if len(config.Cameras) == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "cameras")
	}
	if config.Stereo && len(config.Cameras) < 2 {
		return utils.NewConfigValidationError(path,
			errors.Errorf("stereo tracking needs two cameras, got %d", len(config.Cameras)))
	}
	for idx, conf := range config.Cameras {
		if err := conf.Validate(fmt.Sprintf("%s.%s.%d", path, "cameras", idx), config.Cols, config.Rows); err != nil {
			return err
		}
	}
	if config.Freq < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("freq cannot be negative, got %d", config.Freq))
	}
	if config.WindowSize < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("window_size cannot be negative, got %d", config.WindowSize))
	}
	if config.ExtrinsicRotation != nil {
		rotPath := fmt.Sprintf("%s.%s", path, "extrinsic_rotation")
		rot, err := spatialmath.NewRotationMatrix(config.ExtrinsicRotation)
		if err != nil {
			return utils.NewConfigValidationError(rotPath, err)
		}
		if !rot.IsOrthonormal(1e-6) {
			return utils.NewConfigValidationError(rotPath, errors.New("matrix is not a rotation"))
		}
	}
	if config.SyncTolerance < 0 || config.StallThreshold < 0 || config.IMUWindowBefore < 0 || config.IMUWindowAfter < 0 {
		return utils.NewConfigValidationError(path, errors.New("durations cannot be negative"))
	}
	return nil
}

// Validate ensures the camera's calibration is usable for images of the given size.
func (config *CameraConfig) Validate(path string, cols, rows int) error {
	if config.Intrinsics == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "intrinsics")
	}
	if err := config.Intrinsics.CheckValid(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if config.Intrinsics.Width != cols || config.Intrinsics.Height != rows {
		return utils.NewConfigValidationError(path, errors.Errorf(
			"intrinsics are for %dx%d images, expected %dx%d",
			config.Intrinsics.Width, config.Intrinsics.Height, cols, rows))
	}
	if _, err := transform.NewBrownConrady(config.Distortion); err != nil {
		return utils.NewConfigValidationError(path, transform.InvalidDistortionError(err.Error()))
	}
	return nil
}

// CameraModel returns the camera's pinhole model.
func (config *CameraConfig) CameraModel() (*transform.PinholeCameraModel, error) {
	distortion, err := transform.NewBrownConrady(config.Distortion)
	if err != nil {
		return nil, err
	}
	return &transform.PinholeCameraModel{PinholeCameraIntrinsics: config.Intrinsics, Distortion: distortion}, nil
}

// CameraToIMU returns the extrinsic rotation, or identity when none is configured.
func (config *Config) CameraToIMU() (spatialmath.RotationMatrix, error) {
	if config.ExtrinsicRotation == nil {
		return spatialmath.IdentityRotation(), nil
	}
	return spatialmath.NewRotationMatrix(config.ExtrinsicRotation)
}

// TrackerConfig returns the tracker tuning, falling back to its defaults.
func (config *Config) TrackerConfig() patch.Config {
	if config.Tracker == nil {
		return patch.DefaultConfig()
	}
	return *config.Tracker
}

func (config *Config) applyDefaults() {
	if config.WindowSize == 0 {
		config.WindowSize = DefaultWindowSize
	}
	if config.SyncTolerance == 0 {
		config.SyncTolerance = DefaultSyncTolerance
	}
	if config.SyncQueueDepth <= 0 {
		config.SyncQueueDepth = DefaultSyncQueueDepth
	}
}
