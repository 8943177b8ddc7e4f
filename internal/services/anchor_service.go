package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"indoor-position-engine/internal/database/postgres/repositories"
	"indoor-position-engine/internal/models"
)

// AnchorCache is the in-memory view of the anchor table the positioning
// engines resolve scans against. It satisfies positioning.AnchorSource.
type AnchorCache struct {
	mu      sync.RWMutex
	anchors map[string]models.Anchor
}

func NewAnchorCache() *AnchorCache {
	return &AnchorCache{anchors: make(map[string]models.Anchor)}
}

func (c *AnchorCache) Lookup(beaconID string) (models.Anchor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	anchor, ok := c.anchors[beaconID]
	return anchor, ok
}

func (c *AnchorCache) Put(anchor models.Anchor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anchors[anchor.BeaconID] = anchor
}

func (c *AnchorCache) Remove(beaconID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.anchors, beaconID)
}

func (c *AnchorCache) ReplaceAll(anchors []*models.Anchor) {
	next := make(map[string]models.Anchor, len(anchors))
	for _, anchor := range anchors {
		next[anchor.BeaconID] = *anchor
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.anchors = next
}

func (c *AnchorCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.anchors)
}

// AnchorService keeps the persisted anchor table and the in-memory cache
// in sync, and applies anchor registrations arriving over MQTT or HTTP.
type AnchorService struct {
	anchorRepository *repositories.AnchorRepository
	cache            *AnchorCache
	logger           zerolog.Logger
}

func NewAnchorService(anchorRepository *repositories.AnchorRepository, logger zerolog.Logger) *AnchorService {
	return &AnchorService{
		anchorRepository: anchorRepository,
		cache:            NewAnchorCache(),
		logger:           logger,
	}
}

func (s *AnchorService) Cache() *AnchorCache {
	return s.cache
}

// SyncFromDatabase replaces the cache with the current anchor table.
func (s *AnchorService) SyncFromDatabase(ctx context.Context) error {
	anchors, err := s.anchorRepository.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load anchors: %w", err)
	}

	s.cache.ReplaceAll(anchors)

	s.logger.Info().
		Int("anchors", len(anchors)).
		Msg("Synchronized anchor cache from database")
	return nil
}

// StartPeriodicSync refreshes the cache until the context is cancelled,
// picking up rows written by other instances or manual edits.
func (s *AnchorService) StartPeriodicSync(ctx context.Context, period time.Duration) {
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.SyncFromDatabase(ctx); err != nil {
					s.logger.Error().Err(err).Msg("periodic anchor sync failed")
				}
			}
		}
	}()
}

func (s *AnchorService) ProcessAnchor(ctx context.Context, dto *models.AnchorDto) error {
	if dto.BeaconID == "" {
		return fmt.Errorf("beacon_id is not set")
	}

	anchor := dto.ToAnchor()

	if err := s.anchorRepository.CreateOrUpdate(ctx, anchor); err != nil {
		return fmt.Errorf("failed to persist anchor %s: %w", anchor.BeaconID, err)
	}

	s.cache.Put(*anchor)

	s.logger.Info().
		Str("beacon_id", anchor.BeaconID).
		Float64("x", anchor.X).
		Float64("y", anchor.Y).
		Int("floor", anchor.Floor).
		Msg("Anchor registered")
	return nil
}

func (s *AnchorService) DeleteAnchor(ctx context.Context, beaconID string) error {
	if err := s.anchorRepository.Delete(ctx, beaconID); err != nil {
		return fmt.Errorf("failed to delete anchor %s: %w", beaconID, err)
	}

	s.cache.Remove(beaconID)
	return nil
}

func (s *AnchorService) ListAnchors(ctx context.Context) ([]*models.Anchor, error) {
	return s.anchorRepository.GetAll(ctx)
}

// TouchAnchors bumps last_seen for every anchor observed in a scan. Best
// effort, like the rest of the activity bookkeeping.
func (s *AnchorService) TouchAnchors(ctx context.Context, signals []models.Signal) {
	for _, signal := range signals {
		if _, ok := s.cache.Lookup(signal.BeaconID); !ok {
			continue
		}
		if err := s.anchorRepository.UpdateLastSeen(ctx, signal.BeaconID); err != nil {
			s.logger.Debug().
				Str("beacon_id", signal.BeaconID).
				Msg("could not update last seen for anchor")
		}
	}
}
