package positioning

import (
	"sync"
	"time"

	"indoor-position-engine/internal/models"
)

// AnchorSource resolves beacon identifiers seen in scans to surveyed
// anchors. Implementations must be safe for concurrent use.
type AnchorSource interface {
	Lookup(beaconID string) (models.Anchor, bool)
}

// Params bundles the solver and integrator tunables for one engine.
type Params struct {
	DefaultTxPower   float64
	PathLossExponent float64
	StrideLength     float64
	ConfidenceDecay  float64
	ConfidenceFloor  float64

	// StaleScanFactor discounts the confidence of a fix recomputed from
	// the previous cycle's signals.
	StaleScanFactor float64
}

func DefaultParams() Params {
	return Params{
		DefaultTxPower:   DefaultTxPower,
		PathLossExponent: DefaultPathLossExponent,
		StrideLength:     DefaultStrideLength,
		ConfidenceDecay:  DefaultConfidenceDecay,
		ConfidenceFloor:  DefaultConfidenceFloor,
		StaleScanFactor:  0.8,
	}
}

// Engine fuses scan, motion and anchor data into position fixes for one
// tracked device. Scan and motion updates arrive on MQTT callback
// goroutines while HTTP reads come from elsewhere, so all state is
// mutex-guarded.
//
// The fallback chain per cycle: trilateration, weighted centroid,
// re-solving the previous cycle's signals, dead reckoning, no fix.
type Engine struct {
	mu sync.Mutex

	params   Params
	anchors  AnchorSource
	reckoner *DeadReckoner

	lastSignals []models.Signal
	lastFix     *SolveResult
	lastUpdate  time.Time
}

func NewEngine(params Params, anchors AnchorSource) *Engine {
	if params.StaleScanFactor <= 0 || params.StaleScanFactor > 1 {
		params.StaleScanFactor = 0.8
	}

	return &Engine{
		params:  params,
		anchors: anchors,
		reckoner: NewDeadReckoner(DeadReckonerParams{
			StrideLength:    params.StrideLength,
			ConfidenceDecay: params.ConfidenceDecay,
			ConfidenceFloor: params.ConfidenceFloor,
		}),
	}
}

// UpdateScan runs one positioning cycle over a fresh scan batch. The
// second return is false when no estimate of any kind is available yet.
func (e *Engine) UpdateScan(signals []models.Signal, at time.Time) (SolveResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastUpdate = at
	e.reckoner.Decay()

	if result, ok := e.solveLocked(signals); ok {
		e.lastSignals = signals
		e.anchorLocked(result)
		return result, true
	}

	// Stage two: the previous cycle's signals, discounted.
	if result, ok := e.solveLocked(e.lastSignals); ok {
		result.Confidence *= e.params.StaleScanFactor
		e.anchorLocked(result)
		return result, true
	}

	// Stage three: dead reckoning carries the estimate.
	if result, ok := e.reckoner.Estimate(); ok {
		e.lastFix = &result
		return result, true
	}

	return SolveResult{}, false
}

// UpdateMotion folds a motion sample into the dead reckoner. It reports
// the detected step count and, when steps advanced an anchored estimate,
// the new position.
func (e *Engine) UpdateMotion(sample models.MotionSample) (SolveResult, int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	steps := e.reckoner.ProcessMotion(sample)
	if steps == 0 {
		return SolveResult{}, 0, false
	}

	result, ok := e.reckoner.Estimate()
	if ok {
		e.lastFix = &result
	}
	return result, steps, ok
}

// LastFix returns the most recent estimate, if any.
func (e *Engine) LastFix() (SolveResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lastFix == nil {
		return SolveResult{}, false
	}
	return *e.lastFix, true
}

func (e *Engine) LastUpdate() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastUpdate
}

func (e *Engine) solveLocked(signals []models.Signal) (SolveResult, bool) {
	distances := e.resolveLocked(signals)
	result, err := Solve(distances)
	if err != nil {
		return SolveResult{}, false
	}
	return result, true
}

func (e *Engine) anchorLocked(result SolveResult) {
	e.lastFix = &result
	e.reckoner.Anchor(result.X, result.Y, result.Floor, result.Confidence)
}

// resolveLocked maps scan signals onto anchor distances. Signals from
// beacons without a surveyed anchor are dropped; txPower preference is
// signal, then anchor calibration, then the configured default.
func (e *Engine) resolveLocked(signals []models.Signal) []AnchorDistance {
	distances := make([]AnchorDistance, 0, len(signals))

	for _, signal := range signals {
		anchor, ok := e.anchors.Lookup(signal.BeaconID)
		if !ok {
			continue
		}

		txPower := e.params.DefaultTxPower
		if anchor.TxPower != nil {
			txPower = *anchor.TxPower
		}
		if signal.TxPower != nil {
			txPower = *signal.TxPower
		}

		distances = append(distances, AnchorDistance{
			BeaconID: anchor.BeaconID,
			X:        anchor.X,
			Y:        anchor.Y,
			Floor:    anchor.Floor,
			Distance: RSSIToDistance(signal.RSSI, txPower, e.params.PathLossExponent),
			Source:   signal.Source,
		})
	}

	return distances
}
