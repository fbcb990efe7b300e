package monitoring

// Scoring heuristics over recent readings. Scores are on a 0..100 scale.

const (
	restingHeartRateCeiling = 100.0
	dailyStepsTarget        = 5000.0
)

// fallRiskScore combines elevated resting heart rate and low activity into a
// single risk figure. Missing data contributes the neutral midpoint so a user
// without readings does not appear risk-free.
func fallRiskScore(heartRates, steps []float64) float64 {
	hrComponent := 50.0
	if len(heartRates) > 0 {
		avg := mean(heartRates)
		hrComponent = clamp((avg-60)/(restingHeartRateCeiling-60)*100, 0, 100)
	}

	stepComponent := 50.0
	if len(steps) > 0 {
		avg := mean(steps)
		stepComponent = clamp((1-avg/dailyStepsTarget)*100, 0, 100)
	}

	return clamp(0.6*hrComponent+0.4*stepComponent, 0, 100)
}

// riskLevel buckets a fall-risk score.
func riskLevel(score float64) string {
	switch {
	case score >= 70:
		return "high"
	case score >= 40:
		return "moderate"
	default:
		return "low"
	}
}

// rehabProgress is the relative change in average daily steps between the
// previous and the current week. Zero previous activity with current activity
// counts as full progress.
func rehabProgress(currentSteps, previousSteps float64) float64 {
	if previousSteps == 0 {
		if currentSteps > 0 {
			return 1
		}
		return 0
	}
	return (currentSteps - previousSteps) / previousSteps
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
