package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PositionSource string

const (
	PositionSourceTrilateration PositionSource = "TRILATERATION"
	PositionSourceCentroid      PositionSource = "WEIGHTED_CENTROID"
	PositionSourceDeadReckoning PositionSource = "DEAD_RECKONING"
	PositionSourceNone          PositionSource = "NONE"
)

// Position is an immutable fix in building coordinates: meters on X/Y,
// floor as a level index. A new value is produced each positioning cycle.
type Position struct {
	ID         string         `json:"id"`
	DeviceID   string         `json:"device_id"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Floor      int            `json:"floor"`
	Confidence float64        `json:"confidence"`
	Source     PositionSource `json:"source"`
	Timestamp  time.Time      `json:"timestamp"`
}

func NewPosition(deviceID string, x, y float64, floor int, confidence float64, source PositionSource) Position {
	return Position{
		ID:         uuid.NewString(),
		DeviceID:   deviceID,
		X:          x,
		Y:          y,
		Floor:      floor,
		Confidence: confidence,
		Source:     source,
		Timestamp:  time.Now(),
	}
}

func (p *Position) ToInfluxTags() map[string]string {
	return map[string]string{
		"device_id": p.DeviceID,
		"source":    string(p.Source),
	}
}

func (p *Position) ToInfluxFields() map[string]interface{} {
	return map[string]interface{}{
		"x":          p.X,
		"y":          p.Y,
		"floor":      p.Floor,
		"confidence": p.Confidence,
	}
}

func (p *Position) Validate() error {
	if p.DeviceID == "" {
		return fmt.Errorf("device_id is required")
	}
	if p.Source == "" {
		return fmt.Errorf("source is required")
	}
	if p.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}
