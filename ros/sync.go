package ros

import (
	"math"

	"github.com/Taeyoung96/VINS-RGBD-FAST/frontend"
	"github.com/Taeyoung96/VINS-RGBD-FAST/logging"
	"github.com/Taeyoung96/VINS-RGBD-FAST/rimage"
)

// ImagePair is a color and a depth image captured at about the same time.
type ImagePair struct {
	Color *CompressedImageMessage
	Depth *CompressedImageMessage
}

// Stamp is the color image's capture time.
func (p ImagePair) Stamp() float64 {
	return p.Color.Stamp()
}

// Decode decodes both images. A depth payload that cannot be decoded is logged and replaced
// by an empty depth map, so the frame still drives tracking but has no valid depth.
func (p ImagePair) Decode(logger logging.Logger) (frontend.FramePair, error) {
	intensity, err := rimage.DecodeGray(p.Color.Data.Data)
	if err != nil {
		return frontend.FramePair{}, err
	}
	depth, err := rimage.DecodeCompressedDepth(p.Depth.Data.Data)
	if err != nil {
		logger.Warnw("cannot decode depth image", "stamp", p.Depth.Stamp(), "format", p.Depth.Data.Format, "error", err)
	}
	return frontend.FramePair{Stamp: p.Stamp(), Intensity: intensity, Depth: depth}, nil
}

// ApproximateTimeSync pairs color and depth images whose stamps are at most Tolerance
// seconds apart. Both streams must arrive in stamp order. Each queue holds at most
// QueueDepth unmatched images; the oldest is dropped beyond that.
type ApproximateTimeSync struct {
	Tolerance  float64
	QueueDepth int

	colors  []*CompressedImageMessage
	depths  []*CompressedImageMessage
	dropped int
}

// NewApproximateTimeSync returns a synchronizer.
func NewApproximateTimeSync(tolerance float64, queueDepth int) *ApproximateTimeSync {
	return &ApproximateTimeSync{Tolerance: tolerance, QueueDepth: queueDepth}
}

// AddColor queues a color image and returns the pairs it completes.
func (s *ApproximateTimeSync) AddColor(m *CompressedImageMessage) []ImagePair {
	s.colors = s.bound(append(s.colors, m))
	return s.match()
}

// AddDepth queues a depth image and returns the pairs it completes.
func (s *ApproximateTimeSync) AddDepth(m *CompressedImageMessage) []ImagePair {
	s.depths = s.bound(append(s.depths, m))
	return s.match()
}

// Dropped returns how many images were discarded without a partner.
func (s *ApproximateTimeSync) Dropped() int {
	return s.dropped
}

func (s *ApproximateTimeSync) bound(queue []*CompressedImageMessage) []*CompressedImageMessage {
	if s.QueueDepth > 0 && len(queue) > s.QueueDepth {
		s.dropped += len(queue) - s.QueueDepth
		queue = queue[len(queue)-s.QueueDepth:]
	}
	return queue
}

// match pairs the heads of both queues while they are close enough. When they are not, the
// older head can no longer be matched, since everything after the other head is newer still.
func (s *ApproximateTimeSync) match() []ImagePair {
	var pairs []ImagePair
	for len(s.colors) > 0 && len(s.depths) > 0 {
		color, depth := s.colors[0], s.depths[0]
		if math.Abs(color.Stamp()-depth.Stamp()) <= s.Tolerance {
			pairs = append(pairs, ImagePair{Color: color, Depth: depth})
			s.colors, s.depths = s.colors[1:], s.depths[1:]
			continue
		}
		s.dropped++
		if color.Stamp() < depth.Stamp() {
			s.colors = s.colors[1:]
		} else {
			s.depths = s.depths[1:]
		}
	}
	return pairs
}
