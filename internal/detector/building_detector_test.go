package detector

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"indoor-position-engine/internal/models"
)

func testBuilding() models.Building {
	b := models.Building{
		Name:        "library",
		Latitude:    52.52,
		Longitude:   13.405,
		EnterRadius: 50,
		ExitRadius:  70,
	}
	b.ID = 1
	return b
}

// fixAtDistance builds a GPS fix roughly the given distance north of the
// building center and reports the exact distance orb computes for it.
func fixAtDistance(b models.Building, meters float64) (models.GeoFix, float64) {
	// One degree of latitude is ~111.32 km (orb uses the WGS84 radius,
	// 6378137 m, so ~111319.49 m/degree; divide by slightly less so the
	// produced distance is never below the requested one).
	fix := models.GeoFix{
		Latitude:  b.Latitude + meters/111319.0,
		Longitude: b.Longitude,
		Timestamp: time.Now(),
	}
	actual := geo.Distance(
		orb.Point{b.Longitude, b.Latitude},
		orb.Point{fix.Longitude, fix.Latitude},
	)
	return fix, actual
}

func TestGeofence_EnterAndExitHysteresis(t *testing.T) {
	d := NewBuildingDetector(testBuilding(), nil)

	// Well inside the enter radius: inside.
	fix, _ := fixAtDistance(testBuilding(), 10)
	state, changed := d.ProcessGeo(fix)
	if !state.Inside || !changed {
		t.Fatalf("at 10m: inside=%v changed=%v, want inside transition", state.Inside, changed)
	}

	// Between the radii: hysteresis holds the inside state.
	fix, _ = fixAtDistance(testBuilding(), 60)
	state, changed = d.ProcessGeo(fix)
	if !state.Inside || changed {
		t.Fatalf("at 60m while inside: inside=%v changed=%v, want no transition", state.Inside, changed)
	}

	// Beyond the exit radius: outside.
	fix, _ = fixAtDistance(testBuilding(), 80)
	state, changed = d.ProcessGeo(fix)
	if state.Inside || !changed {
		t.Fatalf("at 80m: inside=%v changed=%v, want outside transition", state.Inside, changed)
	}

	// Back between the radii: still outside.
	fix, _ = fixAtDistance(testBuilding(), 60)
	state, changed = d.ProcessGeo(fix)
	if state.Inside || changed {
		t.Fatalf("at 60m while outside: inside=%v changed=%v, want no transition", state.Inside, changed)
	}
}

func TestGeofence_StrictEnterBoundary(t *testing.T) {
	// Entry requires the distance strictly below the enter radius: a
	// reading at or beyond it while outside stays outside.
	building := testBuilding()
	d := NewBuildingDetector(building, nil)

	fix, actual := fixAtDistance(building, building.EnterRadius)
	if actual < building.EnterRadius {
		t.Fatalf("fixture distance %g below enter radius, cannot test boundary", actual)
	}

	state, _ := d.ProcessGeo(fix)
	if state.Inside {
		t.Errorf("distance %g at/beyond enter radius classified inside, want outside", actual)
	}
}

func fingerprints() []models.WifiFingerprint {
	return []models.WifiFingerprint{
		{BuildingID: 1, BSSID: "aa:bb:cc:01", SSID: "campus", ExpectedRSSI: -50},
		{BuildingID: 1, BSSID: "aa:bb:cc:02", SSID: "campus", ExpectedRSSI: -60},
	}
}

func wifiSignal(bssid string, rssi float64) models.Signal {
	return models.Signal{
		BeaconID:  bssid,
		RSSI:      rssi,
		Source:    models.SignalSourceWifi,
		SSID:      "campus",
		Timestamp: time.Now(),
	}
}

func TestWifi_MatchWithinTolerance(t *testing.T) {
	d := NewBuildingDetector(testBuilding(), fingerprints())

	// Both fingerprints match within the RSSI tolerance.
	state, changed := d.ProcessScan([]models.Signal{
		wifiSignal("aa:bb:cc:01", -55),
		wifiSignal("aa:bb:cc:02", -70),
	})
	if !state.Inside || !changed {
		t.Fatalf("inside=%v changed=%v, want inside transition", state.Inside, changed)
	}
}

func TestWifi_OutOfToleranceDoesNotMatch(t *testing.T) {
	d := NewBuildingDetector(testBuilding(), fingerprints())

	// 25 dBm off the expected reading is outside the tolerance; an
	// unknown BSSID never matches.
	state, _ := d.ProcessScan([]models.Signal{
		{BeaconID: "aa:bb:cc:01", RSSI: -75, Source: models.SignalSourceWifi, Timestamp: time.Now()},
		{BeaconID: "ff:ff:ff:ff", RSSI: -50, Source: models.SignalSourceWifi, Timestamp: time.Now()},
	})
	if state.Inside {
		t.Error("out-of-tolerance scan classified inside")
	}
}

func TestWifi_SingleAPMatchesAtMostOneFingerprint(t *testing.T) {
	d := NewBuildingDetector(testBuilding(), fingerprints())

	// Both fingerprints share the SSID and the reading is within tolerance
	// of either, but one AP may only account for one of them.
	verdict := d.evaluateWifi([]models.Signal{wifiSignal("aa:bb:cc:01", -55)})
	if verdict.Confidence != 0.5 {
		t.Errorf("confidence = %g, want 0.5", verdict.Confidence)
	}
	if !verdict.Inside {
		t.Error("half-matched table should still read inside")
	}
}

func TestWifi_SSIDFallbackForUnknownBSSID(t *testing.T) {
	d := NewBuildingDetector(testBuilding(), fingerprints())

	// A rotating/hidden BSSID still matches through the SSID, once.
	verdict := d.evaluateWifi([]models.Signal{
		{BeaconID: "de:ad:be:ef", RSSI: -52, Source: models.SignalSourceWifi, SSID: "campus", Timestamp: time.Now()},
	})
	if verdict.Confidence != 0.5 {
		t.Errorf("confidence = %g, want 0.5", verdict.Confidence)
	}
}

func TestCombine_SingleAPCannotOverrideGPS(t *testing.T) {
	building := testBuilding()
	d := NewBuildingDetector(building, fingerprints())

	fix, _ := fixAtDistance(building, 200)
	if state, _ := d.ProcessGeo(fix); state.Inside {
		t.Fatal("expected outside from GPS alone")
	}

	// One AP caps WiFi confidence at 0.5, below dominance, so the GPS
	// outside verdict keeps winning even with the shared SSID present.
	state, _ := d.ProcessScan([]models.Signal{wifiSignal("aa:bb:cc:01", -50)})
	if state.Inside {
		t.Error("single access point overrode a GPS outside verdict")
	}
}

func TestWifi_BLESignalsAreIgnored(t *testing.T) {
	d := NewBuildingDetector(testBuilding(), fingerprints())

	state, _ := d.ProcessScan([]models.Signal{
		{BeaconID: "aa:bb:cc:01", RSSI: -50, Source: models.SignalSourceBLE, Timestamp: time.Now()},
	})
	if state.Inside {
		t.Error("BLE-only scan matched the WiFi fingerprint table")
	}
}

func TestCombine_ConfidentWifiDominatesGPS(t *testing.T) {
	building := testBuilding()
	d := NewBuildingDetector(building, fingerprints())

	// GPS says far outside.
	fix, _ := fixAtDistance(building, 200)
	if state, _ := d.ProcessGeo(fix); state.Inside {
		t.Fatal("expected outside from GPS alone")
	}

	// A full fingerprint match (confidence 1.0) overrides it.
	state, changed := d.ProcessScan([]models.Signal{
		wifiSignal("aa:bb:cc:01", -50),
		wifiSignal("aa:bb:cc:02", -60),
	})
	if !state.Inside || !changed {
		t.Errorf("inside=%v changed=%v, want WiFi to dominate", state.Inside, changed)
	}
}

func TestCombine_GPSOutsideTrumpsWeakWifi(t *testing.T) {
	building := testBuilding()
	d := NewBuildingDetector(building, fingerprints())

	// Half the fingerprints match (no SSID, so no fallback matching):
	// confidence 0.5, below dominance.
	state, _ := d.ProcessScan([]models.Signal{
		{BeaconID: "aa:bb:cc:01", RSSI: -55, Source: models.SignalSourceWifi, Timestamp: time.Now()},
	})
	if !state.Inside {
		t.Fatal("expected inside from the WiFi verdict alone")
	}

	// A GPS outside reading is trusted over the weak WiFi verdict.
	fix, _ := fixAtDistance(building, 200)
	state, changed := d.ProcessGeo(fix)
	if state.Inside || !changed {
		t.Errorf("inside=%v changed=%v, want GPS outside to win", state.Inside, changed)
	}
	if state.Via != VerdictSourceGeo {
		t.Errorf("via = %s, want %s", state.Via, VerdictSourceGeo)
	}
}
