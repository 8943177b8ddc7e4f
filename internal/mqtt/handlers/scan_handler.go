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

type ScanHandler struct {
	positioningService *services.PositioningService
	presenceService    *services.PresenceService
	logger             zerolog.Logger
	topicManager       *enginemqtt.TopicManager
}

func NewScanHandler(
	topicManager *enginemqtt.TopicManager,
	positioningService *services.PositioningService,
	presenceService *services.PresenceService,
	logger zerolog.Logger,
) *ScanHandler {
	return &ScanHandler{
		positioningService: positioningService,
		presenceService:    presenceService,
		logger:             logger,
		topicManager:       topicManager,
	}
}

func (h *ScanHandler) HandleMessage(client mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := msg.Topic()
	payload := msg.Payload()

	deviceID, err := h.topicManager.ExtractDeviceId(topic, enginemqtt.ScanTopicTemplate)
	if err != nil {
		h.logger.Error().Err(err).Str("topic", topic).Msg("Could not extract device ID from topic")
		return
	}

	var signals models.SignalArray
	if err := json.Unmarshal(payload, &signals); err != nil {
		observability.ParseErrors.WithLabelValues("scan").Inc()
		h.logger.Error().Err(err).
			Str("topic", topic).
			Str("payload", string(payload)).
			Msg("Could not parse scan batch")
		return
	}

	if len(signals) == 0 {
		return
	}

	if err := h.positioningService.ProcessScan(ctx, deviceID, signals); err != nil {
		h.logger.Error().Err(err).
			Str("device_id", deviceID).
			Int("signals", len(signals)).
			Msg("Error processing scan batch")
		return
	}

	h.presenceService.ProcessScan(deviceID, signals)

	h.logger.Debug().
		Str("device_id", deviceID).
		Int("signals", len(signals)).
		Msg("Scan batch processed")
}
