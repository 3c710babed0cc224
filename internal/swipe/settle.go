package swipe

import "math"

// SettleModel is the closed-form motion of one settle animation.
//
// The offset travels from From toward To at a constant cruise speed until the
// remaining distance equals the braking distance s²/(2a), then decelerates
// linearly to rest exactly on To:
//
//	x(t) = x_brake + s·t − ½·a·t²
//
// When the braking distance alone is longer than the trip, there is no cruise:
// the offset brakes past To, and the return leg replays the tail of the braking
// curve backwards in time from its apex, so it arrives on To with no jump.
//
// Position is evaluated from elapsed time, never by accumulating steps, so a
// dropped frame costs smoothness but not accuracy.
type SettleModel struct {
	From, To float64

	speed    float64 // px/ms toward To, always > 0 for a non-empty trip
	decel    float64 // px/ms²
	dir      float64 // +1 or -1
	distance float64 // |To - From|
	braking  float64 // s²/(2a)
	cruiseMs float64
	brakeMs  float64
	bounceMs float64
}

// NewSettleModel builds the motion from `from` to `to` given the offset's
// velocity (px/ms, signed like the offset) at the moment the task starts.
//
// Velocity pointing away from the target, or too slow to be worth honouring,
// is replaced by the tuning's minimum settle speed.
func NewSettleModel(from, to, velocity float64, t Tuning) SettleModel {
	t = t.withDefaults()
	m := SettleModel{From: from, To: to, decel: t.Deceleration}

	m.distance = math.Abs(to - from)
	if m.distance == 0 {
		return m
	}
	m.dir = 1
	if to < from {
		m.dir = -1
	}

	s := velocity * m.dir
	if s < t.MinSettleSpeed {
		s = t.MinSettleSpeed
	}
	if s > t.MaxSettleSpeed {
		s = t.MaxSettleSpeed
	}
	m.speed = s

	m.braking = s * s / (2 * m.decel)
	m.brakeMs = s / m.decel
	if m.braking <= m.distance {
		m.cruiseMs = (m.distance - m.braking) / s
	} else {
		m.bounceMs = math.Sqrt(2 * (m.braking - m.distance) / m.decel)
	}
	return m
}

// Duration is the total animation time in ms.
func (m SettleModel) Duration() float64 {
	if m.distance == 0 {
		return 0
	}
	return m.cruiseMs + m.brakeMs + m.bounceMs
}

// Overshoot is how far past To the offset travels before turning back.
func (m SettleModel) Overshoot() float64 {
	if m.braking <= m.distance {
		return 0
	}
	return m.braking - m.distance
}

// Position returns the offset elapsedMs after the task started.
func (m SettleModel) Position(elapsedMs float64) float64 {
	if m.distance == 0 {
		return m.To
	}
	if elapsedMs <= 0 {
		return m.From
	}
	if elapsedMs >= m.Duration() {
		return m.To
	}
	return m.From + m.dir*m.travelled(elapsedMs)
}

// travelled is the unsigned distance covered along the direction of travel.
func (m SettleModel) travelled(t float64) float64 {
	if t < m.cruiseMs {
		return m.speed * t
	}
	base := m.speed * m.cruiseMs

	u := t - m.cruiseMs
	if u < m.brakeMs {
		return base + m.speed*u - 0.5*m.decel*u*u
	}

	// Past the apex: mirror the braking curve back toward the target.
	w := u - m.brakeMs
	return base + m.braking - 0.5*m.decel*w*w
}
