package swipe

// WrapIndex maps any integer onto [0, count) circularly.
// -1 becomes count-1 and count becomes 0. A non-positive count yields 0.
func WrapIndex(i, count int) int {
	if count <= 0 {
		return 0
	}
	m := i % count
	if m < 0 {
		m += count
	}
	return m
}

// Siblings returns the previous, current and next indices around i.
func Siblings(i, count int) (prev, cur, next int) {
	cur = WrapIndex(i, count)
	return WrapIndex(cur-1, count), cur, WrapIndex(cur+1, count)
}

// shortestSteps returns the signed number of single-item steps from one index
// to another, going the short way round. Ties go forward.
func shortestSteps(from, to, count int) int {
	if count <= 0 {
		return 0
	}
	d := WrapIndex(to, count) - WrapIndex(from, count)
	if d > count/2 {
		d -= count
	} else if d < -(count-1)/2 {
		d += count
	}
	return d
}
