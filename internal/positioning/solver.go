package positioning

import (
	"errors"
	"math"

	"indoor-position-engine/internal/models"
)

var ErrNoAnchors = errors.New("no anchors with known positions")

// errSingular signals a numerically unusable trilateration system; the
// solver silently falls back to the weighted centroid.
var errSingular = errors.New("trilateration system is singular")

// AnchorDistance pairs a surveyed anchor position with a live distance
// estimate for one positioning cycle.
type AnchorDistance struct {
	BeaconID string
	X        float64
	Y        float64
	Floor    int
	Distance float64
	Source   models.SignalSource
}

// SolveResult is the outcome of one solver run before it is stamped into
// a models.Position.
type SolveResult struct {
	X          float64
	Y          float64
	Floor      int
	Confidence float64
	Source     models.PositionSource
}

const (
	confidenceWeightBLE  = 0.25
	confidenceWeightWifi = 0.15
)

// Solve estimates a position from anchor distance observations.
//
// With three or more anchors it attempts geometric trilateration and
// falls back to the inverse-square-distance weighted centroid when the
// system is degenerate. With one or two anchors only the centroid is
// used. With none, ErrNoAnchors is returned and the caller moves down
// its fallback chain.
func Solve(anchors []AnchorDistance) (SolveResult, error) {
	if len(anchors) == 0 {
		return SolveResult{}, ErrNoAnchors
	}

	result := SolveResult{
		Floor:      majorityFloor(anchors),
		Confidence: confidence(anchors),
	}

	if len(anchors) >= 3 {
		x, y, err := trilaterate(anchors)
		if err == nil {
			result.X = x
			result.Y = y
			result.Source = models.PositionSourceTrilateration
			return result, nil
		}
	}

	x, y := weightedCentroid(anchors)
	result.X = x
	result.Y = y
	result.Source = models.PositionSourceCentroid
	return result, nil
}

// trilaterate linearizes the circle equations against the first anchor
// and solves the resulting 2x2 normal equations. An ill-conditioned
// system (collinear or coincident anchors) yields errSingular.
func trilaterate(anchors []AnchorDistance) (float64, float64, error) {
	ref := anchors[0]

	// Normal equations A^T A p = A^T b accumulated directly.
	var a11, a12, a22, b1, b2 float64

	for _, anchor := range anchors[1:] {
		ax := 2 * (anchor.X - ref.X)
		ay := 2 * (anchor.Y - ref.Y)
		bv := ref.Distance*ref.Distance - anchor.Distance*anchor.Distance +
			anchor.X*anchor.X - ref.X*ref.X +
			anchor.Y*anchor.Y - ref.Y*ref.Y

		a11 += ax * ax
		a12 += ax * ay
		a22 += ay * ay
		b1 += ax * bv
		b2 += ay * bv
	}

	det := a11*a22 - a12*a12
	scale := a11 + a22
	if scale == 0 || math.Abs(det) < 1e-9*scale*scale {
		return 0, 0, errSingular
	}

	x := (a22*b1 - a12*b2) / det
	y := (a11*b2 - a12*b1) / det

	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, errSingular
	}

	return x, y, nil
}

// weightedCentroid averages anchor positions weighted by inverse squared
// distance. A single anchor returns its own position exactly.
func weightedCentroid(anchors []AnchorDistance) (float64, float64) {
	var sumX, sumY, sumW float64

	for _, anchor := range anchors {
		w := 1.0 / clampedDistanceSq(anchor.Distance)
		sumX += anchor.X * w
		sumY += anchor.Y * w
		sumW += w
	}

	return sumX / sumW, sumY / sumW
}

// confidence scores a solve by signal count and source type, BLE counting
// more than WiFi, capped at 1.0.
func confidence(anchors []AnchorDistance) float64 {
	var score float64
	for _, anchor := range anchors {
		if anchor.Source == models.SignalSourceBLE {
			score += confidenceWeightBLE
		} else {
			score += confidenceWeightWifi
		}
	}
	return math.Min(score, 1.0)
}

// majorityFloor picks the floor most anchors agree on; ties go to the
// nearest anchor's floor.
func majorityFloor(anchors []AnchorDistance) int {
	counts := make(map[int]int, len(anchors))
	for _, anchor := range anchors {
		counts[anchor.Floor]++
	}

	best := anchors[0].Floor
	bestCount := 0
	for floor, count := range counts {
		if count > bestCount {
			best = floor
			bestCount = count
		}
	}

	nearest := anchors[0]
	for _, anchor := range anchors[1:] {
		if anchor.Distance < nearest.Distance {
			nearest = anchor
		}
	}
	if counts[nearest.Floor] == bestCount {
		return nearest.Floor
	}
	return best
}
