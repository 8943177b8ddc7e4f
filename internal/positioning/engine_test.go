package positioning

import (
	"math"
	"testing"
	"time"

	"indoor-position-engine/internal/models"
)

type staticAnchors map[string]models.Anchor

func (s staticAnchors) Lookup(beaconID string) (models.Anchor, bool) {
	anchor, ok := s[beaconID]
	return anchor, ok
}

// rssiFor inverts the path-loss model so a signal resolves to an exact
// distance from the given anchor.
func rssiFor(distance float64) float64 {
	return DefaultTxPower - 10*DefaultPathLossExponent*math.Log10(distance)
}

func testAnchors() staticAnchors {
	return staticAnchors{
		"b1": {BeaconID: "b1", X: 0, Y: 0, Floor: 1},
		"b2": {BeaconID: "b2", X: 10, Y: 0, Floor: 1},
		"b3": {BeaconID: "b3", X: 0, Y: 10, Floor: 1},
	}
}

func scanFor(trueX, trueY float64, anchors staticAnchors) []models.Signal {
	signals := make([]models.Signal, 0, len(anchors))
	for id, anchor := range anchors {
		signals = append(signals, models.Signal{
			BeaconID:  id,
			RSSI:      rssiFor(math.Hypot(trueX-anchor.X, trueY-anchor.Y)),
			Source:    models.SignalSourceBLE,
			Timestamp: time.Now(),
		})
	}
	return signals
}

func TestEngine_ScanProducesTrilateratedFix(t *testing.T) {
	anchors := testAnchors()
	engine := NewEngine(DefaultParams(), anchors)

	result, ok := engine.UpdateScan(scanFor(3, 4, anchors), time.Now())
	if !ok {
		t.Fatal("expected a fix from a three-anchor scan")
	}
	if result.Source != models.PositionSourceTrilateration {
		t.Errorf("source = %s, want trilateration", result.Source)
	}
	if math.Abs(result.X-3) > 1e-6 || math.Abs(result.Y-4) > 1e-6 {
		t.Errorf("fix = (%g, %g), want (3, 4)", result.X, result.Y)
	}
	if result.Floor != 1 {
		t.Errorf("floor = %d, want 1", result.Floor)
	}
}

func TestEngine_UnknownBeaconsAreDropped(t *testing.T) {
	engine := NewEngine(DefaultParams(), staticAnchors{})

	signals := []models.Signal{
		{BeaconID: "ghost", RSSI: -60, Source: models.SignalSourceBLE},
	}
	if _, ok := engine.UpdateScan(signals, time.Now()); ok {
		t.Fatal("expected no fix when no beacon resolves to an anchor")
	}
}

func TestEngine_EmptyScanFallsBackToLastSignals(t *testing.T) {
	anchors := testAnchors()
	params := DefaultParams()
	engine := NewEngine(params, anchors)

	first, ok := engine.UpdateScan(scanFor(3, 4, anchors), time.Now())
	if !ok {
		t.Fatal("expected a fix from the first scan")
	}

	// The next cycle sees nothing; the previous cycle's signals are
	// re-solved with discounted confidence.
	second, ok := engine.UpdateScan(nil, time.Now())
	if !ok {
		t.Fatal("expected a stale-signal fix on an empty scan")
	}
	if math.Abs(second.X-first.X) > 1e-6 || math.Abs(second.Y-first.Y) > 1e-6 {
		t.Errorf("stale fix = (%g, %g), want (%g, %g)", second.X, second.Y, first.X, first.Y)
	}
	if second.Confidence >= first.Confidence {
		t.Errorf("stale confidence %g not below fresh confidence %g", second.Confidence, first.Confidence)
	}
}

func TestEngine_MotionAdvancesFromLastFix(t *testing.T) {
	anchors := testAnchors()
	engine := NewEngine(DefaultParams(), anchors)

	if _, ok := engine.UpdateScan(scanFor(3, 4, anchors), time.Now()); !ok {
		t.Fatal("expected a fix from the scan")
	}

	now := time.Now()
	zero, two := int64(0), int64(2)
	engine.UpdateMotion(models.MotionSample{StepCount: &zero, Timestamp: now})
	result, steps, ok := engine.UpdateMotion(models.MotionSample{StepCount: &two, Timestamp: now.Add(time.Second)})

	if steps != 2 {
		t.Fatalf("steps = %d, want 2", steps)
	}
	if !ok {
		t.Fatal("expected a dead-reckoned estimate")
	}
	if result.Source != models.PositionSourceDeadReckoning {
		t.Errorf("source = %s, want dead reckoning", result.Source)
	}
	// Default heading is 0: two strides straight along +Y from (3, 4).
	if math.Abs(result.Y-(4+2*DefaultStrideLength)) > 1e-6 {
		t.Errorf("y = %g, want %g", result.Y, 4+2*DefaultStrideLength)
	}
	if math.Abs(result.X-3) > 1e-6 {
		t.Errorf("x = %g, want 3", result.X)
	}
}

func TestEngine_MotionWithoutFixGivesNoEstimate(t *testing.T) {
	engine := NewEngine(DefaultParams(), staticAnchors{})

	now := time.Now()
	zero, five := int64(0), int64(5)
	engine.UpdateMotion(models.MotionSample{StepCount: &zero, Timestamp: now})
	_, steps, ok := engine.UpdateMotion(models.MotionSample{StepCount: &five, Timestamp: now.Add(time.Second)})

	if steps != 5 {
		t.Fatalf("steps = %d, want 5", steps)
	}
	if ok {
		t.Fatal("expected no estimate while the reckoner is unanchored")
	}
}

func TestEngine_LastFixIsRemembered(t *testing.T) {
	anchors := testAnchors()
	engine := NewEngine(DefaultParams(), anchors)

	if _, ok := engine.LastFix(); ok {
		t.Fatal("expected no fix on a fresh engine")
	}

	want, _ := engine.UpdateScan(scanFor(3, 4, anchors), time.Now())
	got, ok := engine.LastFix()
	if !ok {
		t.Fatal("expected a remembered fix")
	}
	if got != want {
		t.Errorf("remembered fix = %+v, want %+v", got, want)
	}
}

func TestEngine_SignalTxPowerOverridesDefault(t *testing.T) {
	anchors := staticAnchors{
		"b1": {BeaconID: "b1", X: 0, Y: 0, Floor: 0},
	}
	engine := NewEngine(DefaultParams(), anchors)

	// With txPower equal to the RSSI the distance is one meter; the
	// single-anchor centroid still lands on the anchor.
	tx := -70.0
	signals := []models.Signal{
		{BeaconID: "b1", RSSI: -70, TxPower: &tx, Source: models.SignalSourceBLE},
	}

	result, ok := engine.UpdateScan(signals, time.Now())
	if !ok {
		t.Fatal("expected a single-anchor fix")
	}
	if result.X != 0 || result.Y != 0 {
		t.Errorf("fix = (%g, %g), want the anchor position", result.X, result.Y)
	}
}
