package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"indoor-position-engine/internal/models"
)

type AnchorRepository struct {
	db *gorm.DB
}

func NewAnchorRepository(db *gorm.DB) *AnchorRepository {
	return &AnchorRepository{db: db}
}

func (r *AnchorRepository) CreateOrUpdate(ctx context.Context, anchor *models.Anchor) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Anchor
		result := tx.Where("beacon_id = ?", anchor.BeaconID).First(&existing)

		if result.Error == nil {
			updateMap := map[string]interface{}{
				"name":     anchor.Name,
				"x":        anchor.X,
				"y":        anchor.Y,
				"floor":    anchor.Floor,
				"tx_power": anchor.TxPower,
			}

			return tx.Model(&models.Anchor{}).
				Where("beacon_id = ?", anchor.BeaconID).
				Updates(updateMap).Error

		} else if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return tx.Create(anchor).Error

		} else {
			return result.Error
		}
	})
}

func (r *AnchorRepository) FindByBeaconID(ctx context.Context, beaconID string) (*models.Anchor, error) {
	var anchor models.Anchor
	err := r.db.WithContext(ctx).Where("beacon_id = ?", beaconID).First(&anchor).Error
	if err != nil {
		return nil, err
	}
	return &anchor, nil
}

func (r *AnchorRepository) UpdateLastSeen(ctx context.Context, beaconID string) error {
	return r.db.WithContext(ctx).Model(&models.Anchor{}).
		Where("beacon_id = ?", beaconID).
		Update("last_seen", time.Now()).Error
}

func (r *AnchorRepository) GetAll(ctx context.Context) ([]*models.Anchor, error) {
	var anchors []*models.Anchor
	err := r.db.WithContext(ctx).Find(&anchors).Error
	return anchors, err
}

func (r *AnchorRepository) Delete(ctx context.Context, beaconID string) error {
	return r.db.WithContext(ctx).
		Where("beacon_id = ?", beaconID).
		Delete(&models.Anchor{}).Error
}
