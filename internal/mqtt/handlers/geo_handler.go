package handlers

import (
	"encoding/json"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"indoor-position-engine/internal/models"
	enginemqtt "indoor-position-engine/internal/mqtt"
	"indoor-position-engine/internal/observability"
	"indoor-position-engine/internal/services"
)

type GeoHandler struct {
	presenceService *services.PresenceService
	logger          zerolog.Logger
	topicManager    *enginemqtt.TopicManager
}

func NewGeoHandler(
	topicManager *enginemqtt.TopicManager,
	presenceService *services.PresenceService,
	logger zerolog.Logger,
) *GeoHandler {
	return &GeoHandler{
		presenceService: presenceService,
		logger:          logger,
		topicManager:    topicManager,
	}
}

func (h *GeoHandler) HandleMessage(client mqtt.Client, msg mqtt.Message) {
	topic := msg.Topic()
	payload := msg.Payload()

	deviceID, err := h.topicManager.ExtractDeviceId(topic, enginemqtt.GeoTopicTemplate)
	if err != nil {
		h.logger.Error().Err(err).Str("topic", topic).Msg("Could not extract device ID from topic")
		return
	}

	var fix models.GeoFix
	if err := json.Unmarshal(payload, &fix); err != nil {
		observability.ParseErrors.WithLabelValues("geo").Inc()
		h.logger.Error().Err(err).
			Str("topic", topic).
			Msg("Could not parse GPS fix")
		return
	}

	if err := fix.Validate(); err != nil {
		h.logger.Warn().Err(err).
			Str("device_id", deviceID).
			Msg("Dropped invalid GPS fix")
		return
	}

	h.presenceService.ProcessGeo(deviceID, fix)
}
