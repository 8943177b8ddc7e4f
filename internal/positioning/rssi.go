package positioning

import "math"

const (
	// DefaultTxPower is the assumed reference power at 1 m when neither
	// the advertisement nor the anchor carries a calibrated value.
	DefaultTxPower = -59.0

	// DefaultPathLossExponent models free-space propagation.
	DefaultPathLossExponent = 2.0

	// minDistanceSq is the floor applied to squared distances when used
	// as inverse weights, so a zero-distance estimate cannot divide by
	// zero.
	minDistanceSq = 0.01
)

// RSSIToDistance estimates the distance in meters to a transmitter via
// the log-distance path-loss model:
//
//	distance = 10 ^ ((txPower - rssi) / (10 * n))
//
// The result is intentionally unbounded; callers clamp squared distances
// when weighting.
func RSSIToDistance(rssi, txPower, pathLossExponent float64) float64 {
	if pathLossExponent == 0 {
		pathLossExponent = DefaultPathLossExponent
	}
	return math.Pow(10, (txPower-rssi)/(10*pathLossExponent))
}

func clampedDistanceSq(distance float64) float64 {
	sq := distance * distance
	if sq < minDistanceSq {
		return minDistanceSq
	}
	return sq
}
