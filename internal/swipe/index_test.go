package swipe

import "testing"

func TestWrapIndex(t *testing.T) {
	tests := []struct {
		i, count, want int
	}{
		{-1, 5, 4},
		{5, 5, 0},
		{0, 5, 0},
		{4, 5, 4},
		{-6, 5, 4},
		{12, 5, 2},
		{3, 0, 0},
		{-3, 1, 0},
	}
	for _, tt := range tests {
		if got := WrapIndex(tt.i, tt.count); got != tt.want {
			t.Errorf("WrapIndex(%d, %d) = %d, want %d", tt.i, tt.count, got, tt.want)
		}
	}
}

func TestSiblings_WrapAround(t *testing.T) {
	prev, cur, next := Siblings(0, 5)
	if prev != 4 || cur != 0 || next != 1 {
		t.Errorf("Siblings(0, 5) = %d,%d,%d, want 4,0,1", prev, cur, next)
	}
	prev, cur, next = Siblings(4, 5)
	if prev != 3 || cur != 4 || next != 0 {
		t.Errorf("Siblings(4, 5) = %d,%d,%d, want 3,4,0", prev, cur, next)
	}
}

func TestShortestSteps(t *testing.T) {
	tests := []struct {
		from, to, count, want int
	}{
		{0, 1, 5, 1},
		{0, 4, 5, -1},
		{4, 0, 5, 1},
		{1, 3, 5, 2},
		{3, 1, 5, -2},
		{0, 2, 4, 2},
		{2, 0, 4, 2},
		{0, 1, 2, 1},
		{1, 0, 2, 1},
		{2, 2, 5, 0},
	}
	for _, tt := range tests {
		if got := shortestSteps(tt.from, tt.to, tt.count); got != tt.want {
			t.Errorf("shortestSteps(%d, %d, %d) = %d, want %d", tt.from, tt.to, tt.count, got, tt.want)
		}
	}
}
