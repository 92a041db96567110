package simulator

import "github.com/okian/eegscope/internal/domain/model"

// Brain states printed by the analyzer firmware.
const (
	StateUnknown       = "Unknown"
	StateMoving        = "Moving"
	StateHighlyFocused = "Highly Focused"
	StateFullyFocused  = "Fully Focused"
	StateFocused       = "Focused"
	StateFullyRelaxed  = "Fully Relaxed"
	StateRelaxed       = "Relaxed"
	StateDeepSleep     = "Deep Sleep / Meditation"
	StateSemiRelaxed   = "Semi-Relaxed"
)

// Classification thresholds used by the analyzer firmware.
const (
	movingRMS        = 50
	movingSpikes     = 3
	fullyRelaxedRMS  = 5
	deepSleepRMS     = 3
	highlyFocusedAtt = 0.95
	fullyFocusedAtt  = 0.90
	focusedAtt       = 0.85
)

// Classify derives the brain state of r the way the analyzer does. The rules
// are checked in order; the first match wins.
func Classify(r model.Reading) string {
	betaDominant := r.BetaPower > r.ThetaPower && r.BetaPower > r.DeltaPower

	switch {
	case r.RMS > movingRMS || r.SpikeCount > movingSpikes:
		return StateMoving
	case betaDominant && r.Attention > highlyFocusedAtt:
		return StateHighlyFocused
	case betaDominant && r.Attention > fullyFocusedAtt:
		return StateFullyFocused
	case betaDominant && r.Attention > focusedAtt:
		return StateFocused
	case r.ThetaIndex > 0.98 && r.Attention > 0.95 && r.RMS < fullyRelaxedRMS:
		return StateFullyRelaxed
	case r.ThetaIndex > 0.95 && r.Attention > 0.90:
		return StateRelaxed
	case r.DeltaIndex > 0.98 && r.RMS < deepSleepRMS:
		return StateDeepSleep
	case r.ThetaIndex > 0.90 || r.Attention > 0.85:
		return StateSemiRelaxed
	default:
		return StateUnknown
	}
}
