package swipe

// Default tuning for the gesture recognizer and settle engine.
//
// Velocities are in px/ms, accelerations in px/ms², distances in px.
// The fling and tap-edge thresholds have moved around between tunings of this
// carousel, so they are plain fields on Tuning rather than fixed literals.
const (
	DefaultPeekOffsetPercent = 10

	DefaultFlingVelocity  = 0.65 // release speed that commits regardless of distance
	DefaultTapDeadZonePx  = 6.0  // movement below this is still a tap
	DefaultReleaseIdleMs  = 100  // a pause this long before release zeroes the fling velocity
	DefaultDeceleration   = 0.03 // settle braking rate
	DefaultMinSettleSpeed = 0.5  // settle never crawls slower than this toward its target
	DefaultMaxSettleSpeed = 4.0

	maxPeekOffsetPercent = 50
)

// Tuning holds every threshold the recognizer and settle engine use.
type Tuning struct {
	// PeekOffsetPercent is how much of each neighbour is visible at the edges (0-50).
	PeekOffsetPercent int

	// DistanceThresholdPercent is the share of item width a drag must exceed to commit.
	// Zero derives it from the peek offset: 50 - PeekOffsetPercent.
	DistanceThresholdPercent int

	// TapEdgePercent is the width of the tap zones at each edge.
	// Zero uses PeekOffsetPercent, i.e. taps on a peeking sibling.
	TapEdgePercent int

	FlingVelocity  float64
	TapDeadZonePx  float64
	ReleaseIdleMs  int64
	Deceleration   float64
	MinSettleSpeed float64
	MaxSettleSpeed float64
}

// DefaultTuning returns the tuning used when nothing is configured.
func DefaultTuning() Tuning {
	return Tuning{
		PeekOffsetPercent: DefaultPeekOffsetPercent,
		FlingVelocity:     DefaultFlingVelocity,
		TapDeadZonePx:     DefaultTapDeadZonePx,
		ReleaseIdleMs:     DefaultReleaseIdleMs,
		Deceleration:      DefaultDeceleration,
		MinSettleSpeed:    DefaultMinSettleSpeed,
		MaxSettleSpeed:    DefaultMaxSettleSpeed,
	}
}

// withDefaults fills zero-valued rates and clamps the percentages.
// PeekOffsetPercent is left alone since zero is a meaningful peek.
func (t Tuning) withDefaults() Tuning {
	if t.FlingVelocity <= 0 {
		t.FlingVelocity = DefaultFlingVelocity
	}
	if t.TapDeadZonePx <= 0 {
		t.TapDeadZonePx = DefaultTapDeadZonePx
	}
	if t.ReleaseIdleMs <= 0 {
		t.ReleaseIdleMs = DefaultReleaseIdleMs
	}
	if t.Deceleration <= 0 {
		t.Deceleration = DefaultDeceleration
	}
	if t.MinSettleSpeed <= 0 {
		t.MinSettleSpeed = DefaultMinSettleSpeed
	}
	if t.MaxSettleSpeed <= 0 {
		t.MaxSettleSpeed = DefaultMaxSettleSpeed
	}
	if t.MaxSettleSpeed < t.MinSettleSpeed {
		t.MaxSettleSpeed = t.MinSettleSpeed
	}
	t.PeekOffsetPercent = clampPercent(t.PeekOffsetPercent, maxPeekOffsetPercent)
	t.DistanceThresholdPercent = clampPercent(t.DistanceThresholdPercent, 100)
	t.TapEdgePercent = clampPercent(t.TapEdgePercent, maxPeekOffsetPercent)
	return t
}

// distanceFraction is the share of item width a drag must exceed to commit.
func (t Tuning) distanceFraction() float64 {
	if t.DistanceThresholdPercent > 0 {
		return float64(t.DistanceThresholdPercent) / 100
	}
	return float64(maxPeekOffsetPercent-t.PeekOffsetPercent) / 100
}

// tapEdgeFraction is the share of item width on each side that counts as an edge tap.
func (t Tuning) tapEdgeFraction() float64 {
	if t.TapEdgePercent > 0 {
		return float64(t.TapEdgePercent) / 100
	}
	return float64(t.PeekOffsetPercent) / 100
}

func clampPercent(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
