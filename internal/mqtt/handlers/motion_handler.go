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

type MotionHandler struct {
	positioningService *services.PositioningService
	logger             zerolog.Logger
	topicManager       *enginemqtt.TopicManager
}

func NewMotionHandler(
	topicManager *enginemqtt.TopicManager,
	positioningService *services.PositioningService,
	logger zerolog.Logger,
) *MotionHandler {
	return &MotionHandler{
		positioningService: positioningService,
		logger:             logger,
		topicManager:       topicManager,
	}
}

func (h *MotionHandler) HandleMessage(client mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	topic := msg.Topic()
	payload := msg.Payload()

	deviceID, err := h.topicManager.ExtractDeviceId(topic, enginemqtt.MotionTopicTemplate)
	if err != nil {
		h.logger.Error().Err(err).Str("topic", topic).Msg("Could not extract device ID from topic")
		return
	}

	var sample models.MotionSample
	if err := json.Unmarshal(payload, &sample); err != nil {
		observability.ParseErrors.WithLabelValues("motion").Inc()
		h.logger.Error().Err(err).
			Str("topic", topic).
			Msg("Could not parse motion sample")
		return
	}

	if err := h.positioningService.ProcessMotion(ctx, deviceID, sample); err != nil {
		h.logger.Warn().Err(err).
			Str("device_id", deviceID).
			Msg("Dropped invalid motion sample")
	}
}
