package positioning

import (
	"math"
	"time"

	"indoor-position-engine/internal/models"
)

const (
	// DefaultStrideLength is the nominal advance per detected step.
	DefaultStrideLength = 0.75

	// stepThreshold is the accelerometer magnitude a sample has to cross,
	// above the moving-average baseline, to count as a step.
	stepThreshold = 11.0

	// stepRefractory is the minimum spacing between two detected steps.
	stepRefractory = 300 * time.Millisecond

	// accelWindowSize is the moving-average window for the baseline.
	accelWindowSize = 10

	// DefaultConfidenceDecay is subtracted from the dead-reckoning
	// confidence each update cycle without a fresh fix.
	DefaultConfidenceDecay = 0.02

	// DefaultConfidenceFloor is the lowest confidence dead reckoning
	// reports; uncertainty grows but the estimate is never discarded.
	DefaultConfidenceFloor = 0.05
)

// StepDetector extracts step events from motion samples. It prefers
// hardware step-counter deltas and falls back to an accelerometer
// magnitude heuristic with a moving-average baseline and a refractory
// period.
type StepDetector struct {
	window      []float64
	lastCounter *int64
	lastStepAt  time.Time
}

func NewStepDetector() *StepDetector {
	return &StepDetector{
		window: make([]float64, 0, accelWindowSize),
	}
}

// Detect returns the number of steps contributed by one motion sample.
func (d *StepDetector) Detect(sample models.MotionSample) int {
	if sample.StepCount != nil {
		return d.detectFromCounter(*sample.StepCount)
	}
	if d.detectFromAccel(magnitude(sample.Accel), sample.Timestamp) {
		return 1
	}
	return 0
}

func (d *StepDetector) detectFromCounter(count int64) int {
	if d.lastCounter == nil {
		d.lastCounter = &count
		return 0
	}

	delta := count - *d.lastCounter
	d.lastCounter = &count

	// Counter reset (device reboot) shows up as a negative delta.
	if delta < 0 {
		return 0
	}
	return int(delta)
}

func (d *StepDetector) detectFromAccel(mag float64, at time.Time) bool {
	baseline, ready := d.pushSample(mag)
	if !ready {
		return false
	}

	if mag <= stepThreshold || mag <= baseline {
		return false
	}
	if !d.lastStepAt.IsZero() && at.Sub(d.lastStepAt) < stepRefractory {
		return false
	}

	d.lastStepAt = at
	return true
}

func (d *StepDetector) pushSample(mag float64) (float64, bool) {
	if len(d.window) == accelWindowSize {
		d.window = append(d.window[1:], mag)
	} else {
		d.window = append(d.window, mag)
	}

	var sum float64
	for _, v := range d.window {
		sum += v
	}
	return sum / float64(len(d.window)), len(d.window) == accelWindowSize
}

func magnitude(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Heading derives the compass azimuth in radians from gravity and
// geomagnetic vectors via rotation-matrix decomposition. Heading 0 points
// along +Y; values grow clockwise. Returns false when the vectors are too
// close to parallel (free fall, magnetic interference) to orient.
func Heading(accel, magnetic [3]float64) (float64, bool) {
	// H = E x G, the east axis.
	hx := magnetic[1]*accel[2] - magnetic[2]*accel[1]
	hy := magnetic[2]*accel[0] - magnetic[0]*accel[2]
	hz := magnetic[0]*accel[1] - magnetic[1]*accel[0]

	normH := math.Sqrt(hx*hx + hy*hy + hz*hz)
	if normH < 0.1 {
		return 0, false
	}
	hx, hy, hz = hx/normH, hy/normH, hz/normH

	normA := math.Sqrt(accel[0]*accel[0] + accel[1]*accel[1] + accel[2]*accel[2])
	if normA == 0 {
		return 0, false
	}
	ax, az := accel[0]/normA, accel[2]/normA

	// M = G x H completes the frame; only its Y component matters for
	// the azimuth.
	my := az*hx - ax*hz

	azimuth := math.Atan2(hy, my)
	if azimuth < 0 {
		azimuth += 2 * math.Pi
	}
	return azimuth, true
}

// DeadReckoner integrates step events along the current heading from the
// last anchored fix. Confidence decays each cycle without a new fix and
// floors instead of reaching zero.
type DeadReckoner struct {
	detector *StepDetector

	x, y  float64
	floor int

	heading    float64
	hasHeading bool

	confidence float64
	anchored   bool

	strideLength    float64
	confidenceDecay float64
	confidenceFloor float64
}

type DeadReckonerParams struct {
	StrideLength    float64
	ConfidenceDecay float64
	ConfidenceFloor float64
}

func NewDeadReckoner(params DeadReckonerParams) *DeadReckoner {
	if params.StrideLength <= 0 {
		params.StrideLength = DefaultStrideLength
	}
	if params.ConfidenceDecay <= 0 {
		params.ConfidenceDecay = DefaultConfidenceDecay
	}
	if params.ConfidenceFloor <= 0 {
		params.ConfidenceFloor = DefaultConfidenceFloor
	}

	return &DeadReckoner{
		detector:        NewStepDetector(),
		strideLength:    params.StrideLength,
		confidenceDecay: params.ConfidenceDecay,
		confidenceFloor: params.ConfidenceFloor,
	}
}

// Anchor resets the integrator onto a trusted fix.
func (r *DeadReckoner) Anchor(x, y float64, floor int, confidence float64) {
	r.x = x
	r.y = y
	r.floor = floor
	r.confidence = confidence
	r.anchored = true
}

// ProcessMotion folds one motion sample into the estimate: it updates the
// heading when the sample carries usable vectors and advances the
// position one stride per detected step.
func (r *DeadReckoner) ProcessMotion(sample models.MotionSample) int {
	if heading, ok := Heading(sample.Accel, sample.Magnetic); ok {
		r.heading = heading
		r.hasHeading = true
	}

	steps := r.detector.Detect(sample)
	if !r.anchored {
		return steps
	}

	for i := 0; i < steps; i++ {
		r.x += r.strideLength * math.Sin(r.heading)
		r.y += r.strideLength * math.Cos(r.heading)
	}
	return steps
}

// Decay ages the estimate by one update cycle.
func (r *DeadReckoner) Decay() {
	if !r.anchored {
		return
	}
	r.confidence -= r.confidenceDecay
	if r.confidence < r.confidenceFloor {
		r.confidence = r.confidenceFloor
	}
}

// Estimate reports the current dead-reckoned position. The second return
// is false until the reckoner has been anchored to a fix at least once.
func (r *DeadReckoner) Estimate() (SolveResult, bool) {
	if !r.anchored {
		return SolveResult{}, false
	}
	return SolveResult{
		X:          r.x,
		Y:          r.y,
		Floor:      r.floor,
		Confidence: r.confidence,
		Source:     models.PositionSourceDeadReckoning,
	}, true
}

func (r *DeadReckoner) HeadingRadians() (float64, bool) {
	return r.heading, r.hasHeading
}
