package room

import "testing"

func TestPositionInBounds(t *testing.T) {
	tests := []struct {
		p    Position
		want bool
	}{
		{Position{0, 0}, true},
		{Position{Width - 1, Height - 1}, true},
		{Position{Width, 0}, false},
		{Position{0, -1}, false},
	}
	for _, tt := range tests {
		if got := tt.p.InBounds(); got != tt.want {
			t.Errorf("%+v.InBounds() = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestPositionDistance(t *testing.T) {
	a := Position{1, 1}
	if d := a.Distance(Position{4, 3}); d != 3 {
		t.Errorf("distance = %d, want 3", d)
	}
	if d := a.Distance(a); d != 0 {
		t.Errorf("distance to self = %d, want 0", d)
	}
}
