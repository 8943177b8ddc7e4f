package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestPresenceStates_ReadOnly(t *testing.T) {
	s := NewPresenceService(nil, nil, zerolog.Nop())

	// Querying devices that never sent input must not grow the detector
	// registry.
	for i := 0; i < 1000; i++ {
		if states := s.States(fmt.Sprintf("ghost-%d", i)); len(states) != 0 {
			t.Fatalf("unknown device reported %d presence states", len(states))
		}
	}

	s.mu.Lock()
	size := len(s.detectors)
	s.mu.Unlock()
	if size != 0 {
		t.Fatalf("detector registry has %d entries after read-only queries, want 0", size)
	}
}

func TestPresenceService_DropsIdleDetectors(t *testing.T) {
	s := NewPresenceService(nil, nil, zerolog.Nop())

	s.ProcessScan("idle-device", nil)
	s.ProcessScan("active-device", nil)

	s.mu.Lock()
	s.lastInput["idle-device"] = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	s.dropIdleDetectors(10 * time.Minute)

	s.mu.Lock()
	_, idleKept := s.detectors["idle-device"]
	_, activeKept := s.detectors["active-device"]
	s.mu.Unlock()

	if idleKept {
		t.Error("idle device's detectors were not reaped")
	}
	if !activeKept {
		t.Error("active device's detectors were reaped")
	}
}
