package fusion

import (
	"math"

	"github.com/Kevinwu901113/stock-pre-sub000/internal/domain"
)

// signalStrengths converts the two signal sources into comparable [0,1]
// magnitudes. A missing probability reads as the neutral 0.5, which carries
// zero ML strength.
func signalStrengths(probUp *float64, total float64) (mlStrength, factorStrength float64, agree bool) {
	prob := 0.5
	if probUp != nil {
		prob = clamp01(*probUp)
	}
	mlStrength = math.Abs(prob-0.5) * 2
	factorStrength = math.Min(math.Abs(total), 2) / 2

	mlSign := sign(prob - 0.5)
	factorSign := sign(total)
	// A neutral source contradicts nothing.
	agree = mlSign == factorSign || mlSign == 0 || factorSign == 0
	return mlStrength, factorStrength, agree
}

// classifyConfidence labels how much the two sources reinforce each other.
// Disagreement is inherently less confident, so it scores as the gap between
// the strengths rather than their mean.
func classifyConfidence(probUp *float64, total, threshold float64) (domain.ConfidenceLevel, float64) {
	mlStrength, factorStrength, agree := signalStrengths(probUp, total)

	var raw float64
	if agree {
		raw = (mlStrength + factorStrength) / 2
	} else {
		raw = math.Abs(mlStrength - factorStrength)
	}

	switch {
	case raw >= threshold:
		return domain.ConfidenceHigh, raw
	case raw >= 0.5:
		return domain.ConfidenceMedium, raw
	default:
		return domain.ConfidenceLow, raw
	}
}

// classifyRisk mirrors confidence with an uncertainty framing, optionally
// blending in an externally supplied volatility value (already normalized to
// [0,1]).
func classifyRisk(probUp *float64, total float64, volatility *float64, threshold float64) (domain.RiskLevel, float64) {
	mlStrength, factorStrength, _ := signalStrengths(probUp, total)
	raw := ((1 - mlStrength) + (1 - factorStrength)) / 2
	if volatility != nil {
		raw = 0.7*raw + 0.3*clamp01(*volatility)
	}

	switch {
	case raw <= threshold:
		return domain.RiskLow, raw
	case raw <= 0.6:
		return domain.RiskMedium, raw
	default:
		return domain.RiskHigh, raw
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
