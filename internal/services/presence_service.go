package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"indoor-position-engine/internal/database/postgres/repositories"
	"indoor-position-engine/internal/detector"
	"indoor-position-engine/internal/models"
	"indoor-position-engine/internal/mqtt"
	"indoor-position-engine/internal/observability"
)

// PresenceService evaluates building presence per device. Detector
// instances carry hysteresis state, so each device gets its own set.
type PresenceService struct {
	mu        sync.Mutex
	buildings []*models.Building
	detectors map[string]map[uint]*detector.BuildingDetector
	lastInput map[string]time.Time

	buildingRepository *repositories.BuildingRepository
	publisher          *mqtt.Publisher
	logger             zerolog.Logger
}

func NewPresenceService(
	buildingRepository *repositories.BuildingRepository,
	publisher *mqtt.Publisher,
	logger zerolog.Logger,
) *PresenceService {
	return &PresenceService{
		detectors:          make(map[string]map[uint]*detector.BuildingDetector),
		lastInput:          make(map[string]time.Time),
		buildingRepository: buildingRepository,
		publisher:          publisher,
		logger:             logger,
	}
}

// ReloadBuildings refreshes the building table. Detectors for devices
// already being tracked keep their state; new buildings get detectors on
// the next input.
func (s *PresenceService) ReloadBuildings(ctx context.Context) error {
	buildings, err := s.buildingRepository.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load buildings: %w", err)
	}

	s.mu.Lock()
	s.buildings = buildings
	s.mu.Unlock()

	s.logger.Info().
		Int("buildings", len(buildings)).
		Msg("Loaded building geofences and fingerprints")
	return nil
}

// Buildings lists the persisted buildings with their fingerprints.
func (s *PresenceService) Buildings(ctx context.Context) ([]*models.Building, error) {
	return s.buildingRepository.GetAll(ctx)
}

// ProcessScan updates WiFi-based presence for all known buildings.
func (s *PresenceService) ProcessScan(deviceID string, signals []models.Signal) {
	for _, d := range s.detectorsFor(deviceID) {
		state, changed := d.ProcessScan(signals)
		if changed {
			s.publishTransition(deviceID, state)
		}
	}
}

// ProcessGeo updates GPS-based presence for all known buildings.
func (s *PresenceService) ProcessGeo(deviceID string, fix models.GeoFix) {
	for _, d := range s.detectorsFor(deviceID) {
		state, changed := d.ProcessGeo(fix)
		if changed {
			s.publishTransition(deviceID, state)
		}
	}
}

// States reports the current presence decision per building for one
// device. Read-only: a device that never sent input gets an empty list
// and no detector state.
func (s *PresenceService) States(deviceID string) []detector.PresenceState {
	s.mu.Lock()
	set := s.detectors[deviceID]
	detectors := make([]*detector.BuildingDetector, 0, len(set))
	for _, d := range set {
		detectors = append(detectors, d)
	}
	s.mu.Unlock()

	states := make([]detector.PresenceState, 0, len(detectors))
	for _, d := range detectors {
		states = append(states, d.State())
	}
	return states
}

// StartJanitor drops detector sets for devices that stopped reporting,
// mirroring the positioning engine registry.
func (s *PresenceService) StartJanitor(ctx context.Context, period, idleTimeout time.Duration) {
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.dropIdleDetectors(idleTimeout)
			}
		}
	}()
}

func (s *PresenceService) dropIdleDetectors(idleTimeout time.Duration) {
	cutoff := time.Now().Add(-idleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	for deviceID, last := range s.lastInput {
		if last.Before(cutoff) {
			delete(s.detectors, deviceID)
			delete(s.lastInput, deviceID)
			s.logger.Info().
				Str("device_id", deviceID).
				Msg("dropped idle presence detectors")
		}
	}
}

func (s *PresenceService) detectorsFor(deviceID string) map[uint]*detector.BuildingDetector {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastInput[deviceID] = time.Now()

	set, ok := s.detectors[deviceID]
	if !ok {
		set = make(map[uint]*detector.BuildingDetector, len(s.buildings))
		s.detectors[deviceID] = set
	}

	for _, building := range s.buildings {
		if _, ok := set[building.ID]; !ok {
			fingerprints := make([]models.WifiFingerprint, len(building.Fingerprints))
			copy(fingerprints, building.Fingerprints)
			set[building.ID] = detector.NewBuildingDetector(*building, fingerprints)
		}
	}

	return set
}

func (s *PresenceService) publishTransition(deviceID string, state detector.PresenceState) {
	direction := "exit"
	if state.Inside {
		direction = "enter"
	}
	observability.PresenceTransitions.WithLabelValues(direction).Inc()

	if err := s.publisher.PublishPresence(deviceID, state); err != nil {
		s.logger.Error().Err(err).
			Str("device_id", deviceID).
			Str("building", state.BuildingName).
			Msg("error publishing presence transition")
	}
}
