package mqtt

import (
	"fmt"
	"regexp"
	"strings"
)

// TopicManager builds and parses the engine's topic namespace below a
// configurable base topic.
type TopicManager struct {
	BaseTopic string
}

const (
	ScanTopicTemplate   = "%s/v1/scans/+"
	MotionTopicTemplate = "%s/v1/motion/+"
	GeoTopicTemplate    = "%s/v1/geo/+"
	AnchorTopicTemplate = "%s/v1/anchors/+"

	fixTopicTemplate      = "%s/v1/fixes/%s"
	presenceTopicTemplate = "%s/v1/presence/%s"
)

func NewTopicManager(baseTopic string) *TopicManager {
	return &TopicManager{BaseTopic: strings.TrimSuffix(baseTopic, "/")}
}

func (m *TopicManager) GetScanTopic() string {
	return fmt.Sprintf(ScanTopicTemplate, m.BaseTopic)
}

func (m *TopicManager) GetMotionTopic() string {
	return fmt.Sprintf(MotionTopicTemplate, m.BaseTopic)
}

func (m *TopicManager) GetGeoTopic() string {
	return fmt.Sprintf(GeoTopicTemplate, m.BaseTopic)
}

func (m *TopicManager) GetAnchorTopic() string {
	return fmt.Sprintf(AnchorTopicTemplate, m.BaseTopic)
}

func (m *TopicManager) GetFixPublishTopic(deviceID string) string {
	return fmt.Sprintf(fixTopicTemplate, m.BaseTopic, deviceID)
}

func (m *TopicManager) GetPresencePublishTopic(deviceID string) string {
	return fmt.Sprintf(presenceTopicTemplate, m.BaseTopic, deviceID)
}

func (m *TopicManager) buildTopicRegex(template string) *regexp.Regexp {
	pattern := strings.ReplaceAll(template, "%s", m.BaseTopic)
	pattern = strings.ReplaceAll(pattern, "+", "([^/]+)")
	pattern = "^" + pattern + "$"

	return regexp.MustCompile(pattern)
}

func (m *TopicManager) ExtractIdFromTopic(topic, template string) (string, error) {
	regex := m.buildTopicRegex(template)
	matches := regex.FindStringSubmatch(topic)

	if len(matches) < 2 {
		return "", fmt.Errorf("could not extract ID from topic: %s", topic)
	}

	return matches[1], nil
}

func (m *TopicManager) ExtractDeviceId(topic, template string) (string, error) {
	return m.ExtractIdFromTopic(topic, template)
}

func (m *TopicManager) ExtractBeaconId(topic string) (string, error) {
	return m.ExtractIdFromTopic(topic, AnchorTopicTemplate)
}
