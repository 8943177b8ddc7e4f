package detector

import (
	"math"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"indoor-position-engine/internal/models"
)

const (
	// RSSITolerance is how far a live reading may deviate from a
	// fingerprint's expected RSSI and still count as a match.
	RSSITolerance = 15.0

	// wifiDominanceThreshold is the WiFi confidence above which the WiFi
	// verdict overrides GPS entirely.
	wifiDominanceThreshold = 0.8

	// wifiInsideThreshold is the match ratio at which a scan is read as
	// "inside" at all.
	wifiInsideThreshold = 0.3
)

type VerdictSource string

const (
	VerdictSourceWifi VerdictSource = "WIFI"
	VerdictSourceGeo  VerdictSource = "GPS"
)

// Verdict is one sensor's opinion on building presence.
type Verdict struct {
	Inside     bool          `json:"inside"`
	Confidence float64       `json:"confidence"`
	Source     VerdictSource `json:"source"`
}

// PresenceState is the combined inside/outside decision for one device
// and one building.
type PresenceState struct {
	BuildingID   uint          `json:"building_id"`
	BuildingName string        `json:"building_name"`
	Inside       bool          `json:"inside"`
	Via          VerdictSource `json:"via"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// BuildingDetector tracks one device's presence relative to one
// building. It holds the geofence hysteresis state, so instances are per
// device, not shared.
type BuildingDetector struct {
	mu sync.Mutex

	building     models.Building
	fingerprints []models.WifiFingerprint

	geoInside bool
	inside    bool

	lastWifi *Verdict
	lastGeo  *Verdict
}

func NewBuildingDetector(building models.Building, fingerprints []models.WifiFingerprint) *BuildingDetector {
	return &BuildingDetector{
		building:     building,
		fingerprints: fingerprints,
	}
}

// ProcessScan folds a WiFi scan into the presence decision. The second
// return reports whether the combined inside/outside state flipped.
func (d *BuildingDetector) ProcessScan(signals []models.Signal) (PresenceState, bool) {
	verdict := d.evaluateWifi(signals)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastWifi = &verdict
	return d.combineLocked()
}

// ProcessGeo folds a GPS fix into the presence decision.
func (d *BuildingDetector) ProcessGeo(fix models.GeoFix) (PresenceState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	verdict := d.evaluateGeoLocked(fix)
	d.lastGeo = &verdict
	return d.combineLocked()
}

// State reports the current combined decision without new input.
func (d *BuildingDetector) State() PresenceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stateLocked()
}

// evaluateWifi matches scan BSSIDs (falling back to SSID) against the
// building's fingerprint table within the RSSI tolerance. Confidence is
// the matched fraction of the fingerprint table. Each observed access
// point counts towards at most one fingerprint, so a single AP on a
// shared SSID cannot match the whole table.
func (d *BuildingDetector) evaluateWifi(signals []models.Signal) Verdict {
	if len(d.fingerprints) == 0 {
		return Verdict{Source: VerdictSourceWifi}
	}

	used := make([]bool, len(signals))
	matched := make([]bool, len(d.fingerprints))

	for fi, fingerprint := range d.fingerprints {
		for si, signal := range signals {
			if used[si] || signal.Source != models.SignalSourceWifi {
				continue
			}
			if signal.BeaconID != fingerprint.BSSID {
				continue
			}
			if math.Abs(signal.RSSI-fingerprint.ExpectedRSSI) <= RSSITolerance {
				matched[fi] = true
				used[si] = true
				break
			}
		}
	}

	// SSID fallback for fingerprints whose BSSID did not appear, against
	// signals not already consumed by an exact match.
	for fi, fingerprint := range d.fingerprints {
		if matched[fi] || fingerprint.SSID == "" {
			continue
		}
		for si, signal := range signals {
			if used[si] || signal.Source != models.SignalSourceWifi {
				continue
			}
			if signal.SSID != fingerprint.SSID {
				continue
			}
			if math.Abs(signal.RSSI-fingerprint.ExpectedRSSI) <= RSSITolerance {
				matched[fi] = true
				used[si] = true
				break
			}
		}
	}

	count := 0
	for _, ok := range matched {
		if ok {
			count++
		}
	}

	confidence := float64(count) / float64(len(d.fingerprints))
	return Verdict{
		Inside:     confidence >= wifiInsideThreshold,
		Confidence: confidence,
		Source:     VerdictSourceWifi,
	}
}

// evaluateGeoLocked applies geofence hysteresis: entry needs the distance
// strictly below the enter radius, exit needs it above the exit radius.
// A reading exactly on the enter radius while outside stays outside.
func (d *BuildingDetector) evaluateGeoLocked(fix models.GeoFix) Verdict {
	center := orb.Point{d.building.Longitude, d.building.Latitude}
	point := orb.Point{fix.Longitude, fix.Latitude}
	distance := geo.Distance(center, point)

	if d.geoInside {
		if distance > d.building.ExitRadius {
			d.geoInside = false
		}
	} else {
		if distance < d.building.EnterRadius {
			d.geoInside = true
		}
	}

	return Verdict{
		Inside:     d.geoInside,
		Confidence: 1.0,
		Source:     VerdictSourceGeo,
	}
}

// combineLocked applies the fusion rule: WiFi dominates when confident
// enough, otherwise a GPS "outside" is trusted, otherwise the WiFi
// verdict stands, otherwise GPS alone decides.
func (d *BuildingDetector) combineLocked() (PresenceState, bool) {
	previous := d.inside

	switch {
	case d.lastWifi != nil && d.lastWifi.Confidence > wifiDominanceThreshold:
		d.inside = d.lastWifi.Inside
	case d.lastGeo != nil && !d.lastGeo.Inside:
		d.inside = false
	case d.lastWifi != nil:
		d.inside = d.lastWifi.Inside
	case d.lastGeo != nil:
		d.inside = d.lastGeo.Inside
	}

	return d.stateLocked(), d.inside != previous
}

func (d *BuildingDetector) stateLocked() PresenceState {
	via := VerdictSourceWifi
	if d.lastWifi == nil && d.lastGeo != nil {
		via = VerdictSourceGeo
	} else if d.lastGeo != nil && !d.lastGeo.Inside && (d.lastWifi == nil || d.lastWifi.Confidence <= wifiDominanceThreshold) {
		via = VerdictSourceGeo
	}

	return PresenceState{
		BuildingID:   d.building.ID,
		BuildingName: d.building.Name,
		Inside:       d.inside,
		Via:          via,
		UpdatedAt:    time.Now(),
	}
}
