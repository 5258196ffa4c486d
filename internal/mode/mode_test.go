package mode

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"FREE_PLAY", FreePlay, false},
		{"free-play", FreePlay, false},
		{" crisis_management ", CrisisManagement, false},
		{"main-menu", MainMenu, false},
		{"lobby", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAllModesValidAndNamed(t *testing.T) {
	if len(All()) != 7 {
		t.Fatalf("expected 7 modes, got %d", len(All()))
	}
	for _, m := range All() {
		if !m.Valid() {
			t.Errorf("%q should be valid", m)
		}
		if m.DisplayName() == string(m) {
			t.Errorf("%q has no display name", m)
		}
	}
}

func TestLive(t *testing.T) {
	live := map[Mode]bool{FreePlay: true, Scenario: true, Tutorial: true, CrisisManagement: true}
	for _, m := range All() {
		if got := m.Live(); got != live[m] {
			t.Errorf("%s.Live() = %v, want %v", m, got, live[m])
		}
	}
}
