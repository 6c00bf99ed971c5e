package ros

import (
	"context"
	"sort"

	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"

	"github.com/Taeyoung96/VINS-RGBD-FAST/frontend"
	"github.com/Taeyoung96/VINS-RGBD-FAST/inertial"
	"github.com/Taeyoung96/VINS-RGBD-FAST/logging"
)

// Topics names the topics a front-end consumes.
type Topics struct {
	Image string
	Depth string
	IMU   string
}

// An Event is either an inertial sample or a synchronized image pair.
type Event struct {
	Stamp  float64
	Sample *inertial.Sample
	Pair   *ImagePair
}

// LoadEvents reads the configured topics from a bag, pairs the images with sync and returns
// everything ordered by stamp. Samples sort before images with the same stamp.
func LoadEvents(rb *rosbag.RosBag, topics Topics, sync *ApproximateTimeSync, logger logging.Logger) ([]Event, error) {
	all, err := AllMessagesForTopics(rb, topics.Image, topics.Depth, topics.IMU)
	if err != nil {
		return nil, err
	}
	return BuildEvents(all[topics.Image], all[topics.Depth], all[topics.IMU], sync, logger)
}

// BuildEvents decodes raw exported messages into events. See LoadEvents.
func BuildEvents(
	rawColors, rawDepths, rawIMU []map[string]interface{},
	sync *ApproximateTimeSync,
	logger logging.Logger,
) ([]Event, error) {
	events := make([]Event, 0, len(rawIMU)+len(rawColors))
	for i, raw := range rawIMU {
		var msg ImuMessage
		if err := DecodeMessage(raw, &msg); err != nil {
			return nil, errors.Wrapf(err, "imu message %d", i)
		}
		sample := msg.Sample()
		events = append(events, Event{Stamp: sample.Timestamp, Sample: &sample})
	}

	colors, err := decodeImages(rawColors)
	if err != nil {
		return nil, errors.Wrap(err, "color")
	}
	depths, err := decodeImages(rawDepths)
	if err != nil {
		return nil, errors.Wrap(err, "depth")
	}

	// feed both image streams in stamp order, as they would arrive live
	ci, di := 0, 0
	var pairs []ImagePair
	for ci < len(colors) || di < len(depths) {
		if di >= len(depths) || (ci < len(colors) && colors[ci].Stamp() <= depths[di].Stamp()) {
			pairs = append(pairs, sync.AddColor(colors[ci])...)
			ci++
			continue
		}
		pairs = append(pairs, sync.AddDepth(depths[di])...)
		di++
	}
	for i := range pairs {
		events = append(events, Event{Stamp: pairs[i].Stamp(), Pair: &pairs[i]})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Stamp != events[j].Stamp {
			return events[i].Stamp < events[j].Stamp
		}
		return events[i].Sample != nil && events[j].Sample == nil
	})
	logger.Infow("loaded bag events",
		"imu", len(rawIMU), "color", len(colors), "depth", len(depths),
		"pairs", len(pairs), "unpaired", sync.Dropped())
	return events, nil
}

func decodeImages(raws []map[string]interface{}) ([]*CompressedImageMessage, error) {
	images := make([]*CompressedImageMessage, 0, len(raws))
	for i, raw := range raws {
		var msg CompressedImageMessage
		if err := DecodeMessage(raw, &msg); err != nil {
			return nil, errors.Wrapf(err, "image message %d", i)
		}
		images = append(images, &msg)
	}
	sort.SliceStable(images, func(i, j int) bool { return images[i].Stamp() < images[j].Stamp() })
	return images, nil
}

// Replay delivers events in order, decoding image pairs on the way, and closes both channels
// when done. Pairs whose color image cannot be decoded are skipped.
func Replay(
	ctx context.Context,
	events []Event,
	imu chan<- inertial.Sample,
	frames chan<- frontend.FramePair,
	logger logging.Logger,
) error {
	defer close(imu)
	defer close(frames)
	for _, ev := range events {
		if ev.Sample != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case imu <- *ev.Sample:
			}
			continue
		}
		pair, err := ev.Pair.Decode(logger)
		if err != nil {
			logger.Warnw("skipping image pair", "stamp", ev.Stamp, "error", err)
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frames <- pair:
		}
	}
	return nil
}
