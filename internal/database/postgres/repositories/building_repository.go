package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"indoor-position-engine/internal/models"
)

type BuildingRepository struct {
	db *gorm.DB
}

func NewBuildingRepository(db *gorm.DB) *BuildingRepository {
	return &BuildingRepository{db: db}
}

func (r *BuildingRepository) CreateOrUpdate(ctx context.Context, building *models.Building) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Building
		result := tx.Where("name = ?", building.Name).First(&existing)

		if result.Error == nil {
			updateMap := map[string]interface{}{
				"latitude":     building.Latitude,
				"longitude":    building.Longitude,
				"enter_radius": building.EnterRadius,
				"exit_radius":  building.ExitRadius,
			}

			return tx.Model(&models.Building{}).
				Where("name = ?", building.Name).
				Updates(updateMap).Error

		} else if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return tx.Create(building).Error

		} else {
			return result.Error
		}
	})
}

func (r *BuildingRepository) GetAll(ctx context.Context) ([]*models.Building, error) {
	var buildings []*models.Building
	err := r.db.WithContext(ctx).Preload("Fingerprints").Find(&buildings).Error
	return buildings, err
}

func (r *BuildingRepository) FindByName(ctx context.Context, name string) (*models.Building, error) {
	var building models.Building
	err := r.db.WithContext(ctx).Preload("Fingerprints").Where("name = ?", name).First(&building).Error
	if err != nil {
		return nil, err
	}
	return &building, nil
}

func (r *BuildingRepository) AddFingerprint(ctx context.Context, fingerprint *models.WifiFingerprint) error {
	return r.db.WithContext(ctx).Create(fingerprint).Error
}
