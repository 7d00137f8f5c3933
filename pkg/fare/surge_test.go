package fare

import "testing"

func TestSurgeTierAt(t *testing.T) {
	tests := []struct {
		hour int
		want SurgeTier
	}{
		{0, SurgeNormal},
		{6, SurgeNormal},
		{7, SurgeModerate},
		{8, SurgeHigh},
		{9, SurgeHigh}, // inside both bands; high wins
		{10, SurgeHigh},
		{11, SurgeModerate},
		{12, SurgeModerate},
		{13, SurgeNormal},
		{14, SurgeNormal},
		{16, SurgeNormal},
		{17, SurgeModerate},
		{18, SurgeHigh},
		{21, SurgeHigh},
		{22, SurgeModerate},
		{23, SurgeModerate},
	}

	for _, tt := range tests {
		if got := SurgeTierAt(tt.hour); got != tt.want {
			t.Errorf("SurgeTierAt(%d) = %s, want %s", tt.hour, got, tt.want)
		}
	}
}

func TestSurgeMultiplier(t *testing.T) {
	if got := SurgeMultiplier(9); got != 1.8 {
		t.Errorf("SurgeMultiplier(9) = %v, want 1.8", got)
	}
	if got := SurgeMultiplier(14); got != 1.0 {
		t.Errorf("SurgeMultiplier(14) = %v, want 1.0", got)
	}
	if got := SurgeMultiplier(11); got != 1.3 {
		t.Errorf("SurgeMultiplier(11) = %v, want 1.3", got)
	}
}

func TestSurgePeak_Unreachable(t *testing.T) {
	if SurgePeak.Multiplier() != 2.5 {
		t.Errorf("SurgePeak.Multiplier() = %v, want 2.5", SurgePeak.Multiplier())
	}
	for hour := 0; hour < 24; hour++ {
		if SurgeTierAt(hour) == SurgePeak {
			t.Errorf("SurgeTierAt(%d) = peak; no hour band should select it", hour)
		}
	}
}
