package mqtt

import (
	"github.com/rs/zerolog"

	"indoor-position-engine/internal/detector"
	"indoor-position-engine/internal/models"
)

// Publisher pushes computed fixes and presence transitions back onto the
// broker for downstream consumers.
type Publisher struct {
	client       *Client
	topicManager *TopicManager
	logger       zerolog.Logger
}

func NewPublisher(client *Client, topicManager *TopicManager, logger zerolog.Logger) *Publisher {
	return &Publisher{
		client:       client,
		topicManager: topicManager,
		logger:       logger,
	}
}

func (p *Publisher) PublishFix(position models.Position) error {
	topic := p.topicManager.GetFixPublishTopic(position.DeviceID)

	message := Message{
		Data:   position,
		Source: SourceEngine,
	}

	if err := p.client.PublishJSON(topic, message); err != nil {
		return err
	}

	p.logger.Debug().
		Str("device_id", position.DeviceID).
		Str("source", string(position.Source)).
		Float64("confidence", position.Confidence).
		Msg("Published position fix")

	return nil
}

func (p *Publisher) PublishPresence(deviceID string, state detector.PresenceState) error {
	topic := p.topicManager.GetPresencePublishTopic(deviceID)

	message := Message{
		Data:   state,
		Source: SourceEngine,
	}

	if err := p.client.PublishJSON(topic, message); err != nil {
		return err
	}

	p.logger.Info().
		Str("device_id", deviceID).
		Str("building", state.BuildingName).
		Bool("inside", state.Inside).
		Str("via", string(state.Via)).
		Msg("Published presence transition")

	return nil
}
