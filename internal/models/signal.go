package models

import (
	"fmt"
	"time"
)

type SignalSource string

const (
	SignalSourceBLE  SignalSource = "BLE"
	SignalSourceWifi SignalSource = "WIFI"
)

// Signal is one observed ranging beacon in a scan cycle. TxPower is nil
// when the advertisement carried none; the solver falls back to the
// anchor's calibrated value, then to the configured default.
type Signal struct {
	BeaconID  string       `json:"beacon_id"`
	RSSI      float64      `json:"rssi"`
	TxPower   *float64     `json:"tx_power,omitempty"`
	Source    SignalSource `json:"source"`
	SSID      string       `json:"ssid,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

func (s *Signal) Validate() error {
	if s.BeaconID == "" {
		return fmt.Errorf("beacon_id is not set")
	}
	if s.Source != SignalSourceBLE && s.Source != SignalSourceWifi {
		return fmt.Errorf("unknown signal source: %s", s.Source)
	}
	if s.RSSI > 0 {
		return fmt.Errorf("rssi has to be negative dBm, got %f", s.RSSI)
	}
	return nil
}

type SignalArray []Signal
