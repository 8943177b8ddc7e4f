package handlers

import (
	"context"
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"indoor-position-engine/internal/models"
	enginemqtt "indoor-position-engine/internal/mqtt"
	"indoor-position-engine/internal/observability"
	"indoor-position-engine/internal/services"
)

type anchorMessage struct {
	Data   models.AnchorDto `json:"data"`
	Source string           `json:"source"`
}

type AnchorHandler struct {
	anchorService *services.AnchorService
	logger        zerolog.Logger
	topicManager  *enginemqtt.TopicManager
}

func NewAnchorHandler(
	topicManager *enginemqtt.TopicManager,
	anchorService *services.AnchorService,
	logger zerolog.Logger,
) *AnchorHandler {
	return &AnchorHandler{
		anchorService: anchorService,
		logger:        logger,
		topicManager:  topicManager,
	}
}

func (h *AnchorHandler) HandleMessage(client mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := msg.Topic()
	payload := msg.Payload()

	if len(payload) == 0 {
		return
	}

	beaconID, err := h.topicManager.ExtractBeaconId(topic)
	if err != nil {
		h.logger.Error().Err(err).Str("topic", topic).Msg("Could not extract beacon ID from topic")
		return
	}

	var message anchorMessage
	if err := json.Unmarshal(payload, &message); err != nil {
		observability.ParseErrors.WithLabelValues("anchor").Inc()
		h.logger.Error().Err(err).
			Str("topic", topic).
			Str("payload", string(payload)).
			Msg("Could not parse anchor registration")
		return
	}

	if message.Source == enginemqtt.SourceEngine {
		h.logger.Debug().
			Str("source", message.Source).
			Msg("Ignoring anchor message")
		return
	}

	if message.Data.BeaconID == "" {
		message.Data.BeaconID = beaconID
	}

	if err := h.anchorService.ProcessAnchor(ctx, &message.Data); err != nil {
		h.logger.Error().Err(err).
			Str("beacon_id", message.Data.BeaconID).
			Msg("Error processing anchor registration")
		return
	}
}
