package ros

import (
	"encoding/base64"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"github.com/Taeyoung96/VINS-RGBD-FAST/inertial"
	"github.com/Taeyoung96/VINS-RGBD-FAST/spatialmath"
)

// Time is a ROS time.
type Time struct {
	Secs  int `json:"secs"`
	Nsecs int `json:"nsecs"`
}

// Seconds returns the time in seconds.
func (t Time) Seconds() float64 {
	return float64(t.Secs) + float64(t.Nsecs)*1e-9
}

// Header is a std_msgs/Header.
type Header struct {
	Seq     int    `json:"seq"`
	Stamp   Time   `json:"stamp"`
	FrameID string `json:"frame_id"`
}

// Vector3 is a geometry_msgs/Vector3.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ImuMessage is a sensor_msgs/Imu as exported from a bag.
type ImuMessage struct {
	Meta Time `json:"meta"`
	Data struct {
		Header      Header `json:"header"`
		Orientation struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
			Z float64 `json:"z"`
			W float64 `json:"w"`
		} `json:"orientation"`
		OrientationCovariance        [9]float64 `json:"orientation_covariance"`
		AngularVelocity              Vector3    `json:"angular_velocity"`
		AngularVelocityCovariance    [9]float64 `json:"angular_velocity_covariance"`
		LinearAcceleration           Vector3    `json:"linear_acceleration"`
		LinearAccelerationCovariance [9]float64 `json:"linear_acceleration_covariance"`
	} `json:"data"`
}

// Sample returns the gyroscope reading of the message. Orientation and acceleration are not
// used.
func (m *ImuMessage) Sample() inertial.Sample {
	av := m.Data.AngularVelocity
	return inertial.Sample{
		Timestamp:       m.Data.Header.Stamp.Seconds(),
		AngularVelocity: spatialmath.AngularVelocity{X: av.X, Y: av.Y, Z: av.Z},
	}
}

// CompressedImageMessage is a sensor_msgs/CompressedImage as exported from a bag. Depth
// images use the compressedDepth transport, whose payload starts with a fixed header.
type CompressedImageMessage struct {
	Meta Time `json:"meta"`
	Data struct {
		Header Header `json:"header"`
		Format string `json:"format"`
		Data   []byte `json:"data"`
	} `json:"data"`
}

// Stamp returns the capture time of the image in seconds.
func (m *CompressedImageMessage) Stamp() float64 {
	return m.Data.Header.Stamp.Seconds()
}

// bytesHook decodes byte payloads that were exported either as base64 strings or as arrays
// of numbers.
func bytesHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf([]byte(nil)) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return base64.StdEncoding.DecodeString(v)
	case []interface{}:
		out := make([]byte, len(v))
		for i, elem := range v {
			num, ok := elem.(float64)
			if !ok || num < 0 || num > 255 {
				return nil, errors.Errorf("byte %d is not in [0, 255]: %v", i, elem)
			}
			out[i] = byte(num)
		}
		return out, nil
	default:
		return data, nil
	}
}

// DecodeMessage decodes a message exported by AllMessagesForTopics into out, which must be a
// pointer to a message struct.
func DecodeMessage(raw map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     out,
		DecodeHook: bytesHook,
	})
	if err != nil {
		return err
	}
	return errors.Wrapf(decoder.Decode(raw), "decoding %T", out)
}
