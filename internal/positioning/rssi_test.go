package positioning

import (
	"math"
	"testing"
)

func TestRSSIToDistance_ReferencePoints(t *testing.T) {
	// At the reference power the distance is exactly one meter.
	if d := RSSIToDistance(-59, -59, 2.0); math.Abs(d-1.0) > 1e-9 {
		t.Errorf("distance at txPower = %g, want 1.0", d)
	}

	// 20 dB below the reference power with n=2 is ten meters.
	if d := RSSIToDistance(-79, -59, 2.0); math.Abs(d-10.0) > 1e-9 {
		t.Errorf("distance 20dB below txPower = %g, want 10.0", d)
	}
}

func TestRSSIToDistance_MonotoneDecreasing(t *testing.T) {
	prev := RSSIToDistance(-30, DefaultTxPower, DefaultPathLossExponent)

	for rssi := -31.0; rssi >= -100; rssi-- {
		d := RSSIToDistance(rssi, DefaultTxPower, DefaultPathLossExponent)
		if d <= prev {
			t.Fatalf("distance at rssi %g = %g, not greater than %g at rssi %g", rssi, d, prev, rssi+1)
		}
		prev = d
	}
}

func TestRSSIToDistance_ZeroExponentFallsBack(t *testing.T) {
	want := RSSIToDistance(-70, -59, DefaultPathLossExponent)
	got := RSSIToDistance(-70, -59, 0)
	if got != want {
		t.Errorf("distance with zero exponent = %g, want default-exponent value %g", got, want)
	}
}

func TestClampedDistanceSq(t *testing.T) {
	if sq := clampedDistanceSq(0); sq != minDistanceSq {
		t.Errorf("clamped zero distance = %g, want %g", sq, minDistanceSq)
	}
	if sq := clampedDistanceSq(3); sq != 9 {
		t.Errorf("clamped distance 3 = %g, want 9", sq)
	}
}
