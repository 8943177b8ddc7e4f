package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Anchor is a managed beacon with a surveyed position, used as a
// trilateration reference point.
type Anchor struct {
	gorm.Model
	BeaconID string    `gorm:"uniqueIndex;not null" json:"beacon_id"`
	Name     string    `json:"name"`
	X        float64   `gorm:"not null" json:"x"`
	Y        float64   `gorm:"not null" json:"y"`
	Floor    int       `gorm:"not null;default:0" json:"floor"`
	TxPower  *float64  `json:"tx_power,omitempty"`
	LastSeen time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"last_seen"`
}

func (a *Anchor) IsValid() bool {
	return a.BeaconID != ""
}

func (a *Anchor) Prepare() {
	if a.Name == "" {
		a.Name = fmt.Sprintf("Anchor-%s", a.BeaconID)
	}
	if a.LastSeen.IsZero() {
		a.LastSeen = time.Now()
	}
}

func (a *Anchor) UpdateFromDto(dto *AnchorDto) {
	if dto == nil {
		return
	}

	a.BeaconID = dto.BeaconID
	a.Name = dto.Name
	a.X = dto.X
	a.Y = dto.Y
	a.Floor = dto.Floor
	a.TxPower = dto.TxPower
}

func (a *Anchor) ToDto() AnchorDto {
	return AnchorDto{
		BeaconID: a.BeaconID,
		Name:     a.Name,
		X:        a.X,
		Y:        a.Y,
		Floor:    a.Floor,
		TxPower:  a.TxPower,
	}
}

type AnchorDto struct {
	BeaconID string   `json:"beacon_id"`
	Name     string   `json:"name"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Floor    int      `json:"floor"`
	TxPower  *float64 `json:"tx_power,omitempty"`
}

func (d *AnchorDto) ToAnchor() *Anchor {
	anchor := &Anchor{
		BeaconID: d.BeaconID,
		Name:     d.Name,
		X:        d.X,
		Y:        d.Y,
		Floor:    d.Floor,
		TxPower:  d.TxPower,
	}
	anchor.Prepare()
	return anchor
}
