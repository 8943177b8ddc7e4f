package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Building is a geofenced structure. EnterRadius and ExitRadius differ on
// purpose: the presence detector uses hysteresis to avoid flapping at the
// boundary.
type Building struct {
	gorm.Model
	Name         string            `gorm:"uniqueIndex;not null" json:"name"`
	Latitude     float64           `gorm:"not null" json:"latitude"`
	Longitude    float64           `gorm:"not null" json:"longitude"`
	EnterRadius  float64           `gorm:"not null;default:50" json:"enter_radius"`
	ExitRadius   float64           `gorm:"not null;default:70" json:"exit_radius"`
	Fingerprints []WifiFingerprint `gorm:"foreignKey:BuildingID" json:"fingerprints,omitempty"`
}

func (b *Building) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("name is required")
	}
	if b.EnterRadius <= 0 || b.ExitRadius <= 0 {
		return fmt.Errorf("radii have to be positive")
	}
	if b.ExitRadius < b.EnterRadius {
		return fmt.Errorf("exit_radius has to be >= enter_radius")
	}
	return nil
}

// WifiFingerprint is one expected access point reading inside a building,
// matched against live scans with an RSSI tolerance.
type WifiFingerprint struct {
	gorm.Model
	BuildingID   uint    `gorm:"index;not null" json:"building_id"`
	BSSID        string  `gorm:"index;not null" json:"bssid"`
	SSID         string  `json:"ssid"`
	ExpectedRSSI float64 `gorm:"not null" json:"expected_rssi"`
	Floor        int     `gorm:"not null;default:0" json:"floor"`
}
