package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"indoor-position-engine/internal/config"
	"indoor-position-engine/internal/database/influx"
	"indoor-position-engine/internal/models"
	"indoor-position-engine/internal/mqtt"
	"indoor-position-engine/internal/observability"
	"indoor-position-engine/internal/positioning"
	"indoor-position-engine/internal/store"
)

// PositioningService owns one positioning engine per tracked device and
// runs the persistence and publishing side of every computed fix.
type PositioningService struct {
	mu      sync.Mutex
	engines map[string]*positioning.Engine

	params        positioning.Params
	anchorService *AnchorService
	fixWriter     *influx.FixWriter
	fixStore      *store.FixStore
	publisher     *mqtt.Publisher
	logger        zerolog.Logger
}

func NewPositioningService(
	cfg config.PositioningConfig,
	anchorService *AnchorService,
	fixWriter *influx.FixWriter,
	fixStore *store.FixStore,
	publisher *mqtt.Publisher,
	logger zerolog.Logger,
) *PositioningService {
	return &PositioningService{
		engines: make(map[string]*positioning.Engine),
		params: positioning.Params{
			DefaultTxPower:   cfg.DefaultTxPower,
			PathLossExponent: cfg.PathLossExponent,
			StrideLength:     cfg.StrideLength,
			ConfidenceDecay:  cfg.ConfidenceDecay,
			ConfidenceFloor:  cfg.ConfidenceFloor,
			StaleScanFactor:  cfg.StaleScanFactor,
		},
		anchorService: anchorService,
		fixWriter:     fixWriter,
		fixStore:      fixStore,
		publisher:     publisher,
		logger:        logger,
	}
}

// ProcessScan runs one positioning cycle for a device's scan batch.
// Invalid signals are dropped with a warning; a cycle without any usable
// estimate is not an error.
func (s *PositioningService) ProcessScan(ctx context.Context, deviceID string, signals models.SignalArray) error {
	observability.ScansReceived.Inc()

	valid := make([]models.Signal, 0, len(signals))
	for _, signal := range signals {
		if err := signal.Validate(); err != nil {
			s.logger.Warn().Err(err).
				Str("device_id", deviceID).
				Str("beacon_id", signal.BeaconID).
				Msg("dropping invalid signal")
			continue
		}
		if signal.Timestamp.IsZero() {
			signal.Timestamp = time.Now()
		}
		valid = append(valid, signal)
	}

	observability.SignalsProcessed.Add(float64(len(valid)))

	if err := s.fixWriter.WriteBatchSignals(ctx, deviceID, valid); err != nil {
		s.logger.Error().Err(err).
			Str("device_id", deviceID).
			Msg("error writing signal observations to InfluxDB")
	}

	s.anchorService.TouchAnchors(ctx, valid)

	engine := s.engineFor(deviceID)

	start := time.Now()
	result, ok := engine.UpdateScan(valid, start)
	observability.ObserveSolveLatency(start)

	if !ok {
		observability.NoFixCycles.Inc()
		s.logger.Debug().
			Str("device_id", deviceID).
			Int("signals", len(valid)).
			Msg("no fix available for scan cycle")
		return nil
	}

	return s.emitFix(ctx, deviceID, result)
}

// ProcessMotion folds a motion sample into the device's dead reckoner
// and emits a fix when steps moved the estimate.
func (s *PositioningService) ProcessMotion(ctx context.Context, deviceID string, sample models.MotionSample) error {
	if err := sample.Validate(); err != nil {
		return err
	}

	engine := s.engineFor(deviceID)

	result, steps, ok := engine.UpdateMotion(sample)
	if steps > 0 {
		observability.StepsDetected.Add(float64(steps))
	}
	if !ok {
		return nil
	}

	s.logger.Debug().
		Str("device_id", deviceID).
		Int("steps", steps).
		Msg("dead reckoning advanced position")

	return s.emitFix(ctx, deviceID, result)
}

// LastFix reads the cached fix for a device.
func (s *PositioningService) LastFix(ctx context.Context, deviceID string) (*models.Position, error) {
	return s.fixStore.GetFix(ctx, deviceID)
}

func (s *PositioningService) TrackedDevices(ctx context.Context) ([]string, error) {
	return s.fixStore.ListDevices(ctx)
}

// StartJanitor drops engines for devices that stopped reporting, so the
// registry does not grow without bound.
func (s *PositioningService) StartJanitor(ctx context.Context, period, idleTimeout time.Duration) {
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.dropIdleEngines(idleTimeout)
			}
		}
	}()
}

func (s *PositioningService) dropIdleEngines(idleTimeout time.Duration) {
	cutoff := time.Now().Add(-idleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	for deviceID, engine := range s.engines {
		last := engine.LastUpdate()
		if !last.IsZero() && last.Before(cutoff) {
			delete(s.engines, deviceID)
			s.logger.Info().
				Str("device_id", deviceID).
				Msg("dropped idle positioning engine")
		}
	}
}

func (s *PositioningService) engineFor(deviceID string) *positioning.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()

	engine, ok := s.engines[deviceID]
	if !ok {
		engine = positioning.NewEngine(s.params, s.anchorService.Cache())
		s.engines[deviceID] = engine
	}
	return engine
}

// emitFix stamps a solve result into a Position and fans it out: influx
// time series, redis cache, MQTT. Downstream failures are logged, not
// propagated; the next cycle tries again.
func (s *PositioningService) emitFix(ctx context.Context, deviceID string, result positioning.SolveResult) error {
	position := models.NewPosition(deviceID, result.X, result.Y, result.Floor, result.Confidence, result.Source)

	observability.FixesComputed.WithLabelValues(string(position.Source)).Inc()

	if err := s.fixWriter.WriteFix(ctx, &position); err != nil {
		s.logger.Error().Err(err).
			Str("device_id", deviceID).
			Msg("error writing fix to InfluxDB")
	}

	if err := s.fixStore.SaveFix(ctx, position); err != nil {
		s.logger.Error().Err(err).
			Str("device_id", deviceID).
			Msg("error caching fix in redis")
	}

	if err := s.publisher.PublishFix(position); err != nil {
		s.logger.Error().Err(err).
			Str("device_id", deviceID).
			Msg("error publishing fix")
	}

	return nil
}
