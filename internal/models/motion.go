package models

import (
	"fmt"
	"time"
)

// MotionSample is one inertial update from a tracked device. Devices with
// a hardware step counter report the cumulative StepCount; others report
// raw accelerometer and magnetometer vectors and leave StepCount nil.
type MotionSample struct {
	StepCount *int64     `json:"step_count,omitempty"`
	Accel     [3]float64 `json:"accel"`
	Magnetic  [3]float64 `json:"magnetic"`
	Timestamp time.Time  `json:"timestamp"`
}

func (m *MotionSample) Validate() error {
	if m.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if m.StepCount != nil && *m.StepCount < 0 {
		return fmt.Errorf("step_count cannot be negative")
	}
	return nil
}

// GeoFix is a GPS reading, used only by the building presence detector.
type GeoFix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

func (g *GeoFix) Validate() error {
	if g.Latitude < -90 || g.Latitude > 90 {
		return fmt.Errorf("latitude out of range: %f", g.Latitude)
	}
	if g.Longitude < -180 || g.Longitude > 180 {
		return fmt.Errorf("longitude out of range: %f", g.Longitude)
	}
	if g.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}
