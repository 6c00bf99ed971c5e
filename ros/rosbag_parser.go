// Package ros reads recorded ROS bags and turns their image and inertial topics into
// front-end input.
package ros

import (
	"encoding/json"
	"io"
	"os"

	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// ReadBag reads the contents of a rosbag into a gobag data structure.
func ReadBag(filename string) (*rosbag.RosBag, error) {
	//nolint:gosec
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open input file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	rb := rosbag.NewRosBag()
	if err := rb.Read(f); err != nil {
		return nil, errors.Wrapf(err, "unable to create ros bag, error")
	}
	return rb, nil
}

// AllMessagesForTopics returns all messages of the given topics in the ros bag, keyed by
// topic, in recorded order. Every topic must have at least one message.
func AllMessagesForTopics(rb *rosbag.RosBag, topics ...string) (map[string][]map[string]interface{}, error) {
	wanted := make(map[string]bool, len(topics))
	for _, topic := range topics {
		wanted[topic] = true
	}
	if err := rb.ParseTopicsToJSON(
		"",
		func(int64) bool { return true },
		func(t string) bool { return wanted[t] },
		false,
	); err != nil {
		return nil, errors.Wrapf(err, "error while parsing bag to JSON")
	}

	all := make(map[string][]map[string]interface{}, len(topics))
	for _, topic := range topics {
		msgs := rb.TopicsAsJSON[topic]
		if msgs == nil {
			return nil, errors.Errorf("no messages for topic %s", topic)
		}
		for {
			data, err := msgs.ReadBytes('\n')
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, err
			}
			message := map[string]interface{}{}
			if err := json.Unmarshal(data, &message); err != nil {
				return nil, errors.Wrapf(err, "topic %s", topic)
			}
			all[topic] = append(all[topic], message)
		}
	}
	return all, nil
}

// AllMessagesForTopic returns all messages for a specific topic in the ros bag.
func AllMessagesForTopic(rb *rosbag.RosBag, topic string) ([]map[string]interface{}, error) {
	all, err := AllMessagesForTopics(rb, topic)
	if err != nil {
		return nil, err
	}
	return all[topic], nil
}
