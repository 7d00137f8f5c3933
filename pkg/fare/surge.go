package fare

import "fmt"

// SurgeTier is a time-of-day multiplier band applied to every vehicle class.
type SurgeTier string

const (
	SurgeNormal   SurgeTier = "normal"
	SurgeModerate SurgeTier = "moderate"
	SurgeHigh     SurgeTier = "high"
	// SurgePeak has a multiplier but no hour band selects it.
	SurgePeak SurgeTier = "peak"
)

var surgeMultipliers = map[SurgeTier]float64{
	SurgeNormal:   1.0,
	SurgeModerate: 1.3,
	SurgeHigh:     1.8,
	SurgePeak:     2.5,
}

// Multiplier returns the fare multiplier for the tier (1.0 for unknown tiers).
func (t SurgeTier) Multiplier() float64 {
	if m, ok := surgeMultipliers[t]; ok {
		return m
	}
	return 1.0
}

// SurgeTierAt returns the tier active at the given wall-clock hour.
//
//	08–10, 18–21  →  high
//	07–12, 17–23  →  moderate
//	otherwise     →  normal
//
// The bands overlap; high must be checked first.
func SurgeTierAt(hour int) SurgeTier {
	switch {
	case (hour >= 8 && hour <= 10) || (hour >= 18 && hour <= 21):
		return SurgeHigh
	case (hour >= 7 && hour <= 12) || (hour >= 17 && hour <= 23):
		return SurgeModerate
	default:
		return SurgeNormal
	}
}

// SurgeMultiplier is SurgeTierAt(hour).Multiplier().
func SurgeMultiplier(hour int) float64 {
	return SurgeTierAt(hour).Multiplier()
}

func validateHour(hour int) error {
	if hour < 0 || hour > 23 {
		return &ValidationError{Field: "hour", Reason: fmt.Sprintf("%d outside 0..23", hour)}
	}
	return nil
}
