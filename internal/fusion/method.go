package fusion

import (
	"fmt"
	"strings"
)

// Method selects the fusion strategy. The set is closed: configuration that
// names anything else fails at load time instead of silently changing ranking
// behavior.
type Method string

const (
	MethodWeightedAverage Method = "weighted_average"
	MethodFilterFirst     Method = "filter_first"
	MethodRankAdjustment  Method = "rank_adjustment"
	MethodConsensusBoost  Method = "consensus_boost"
)

// ParseMethod validates a method name from configuration.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodWeightedAverage, MethodFilterFirst, MethodRankAdjustment, MethodConsensusBoost:
		return m, nil
	default:
		return "", fmt.Errorf("unknown fusion method %q", s)
	}
}

// Params carries every numeric knob used by the strategies. Values are fixed
// for the duration of a run.
type Params struct {
	MLWeight            float64 `yaml:"ml_weight"`
	FactorWeight        float64 `yaml:"factor_weight"`
	MLThreshold         float64 `yaml:"ml_threshold"`
	FactorThreshold     float64 `yaml:"factor_threshold"`
	FactorBoost         float64 `yaml:"factor_boost"`
	BaseWeight          float64 `yaml:"base_weight"`
	ConsensusBonus      float64 `yaml:"consensus_bonus"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	RiskThreshold       float64 `yaml:"risk_threshold"`
}

// DefaultParams mirrors the conventional configuration: ML and factor weights
// summing to one, moderate gates, and a small consensus bonus.
func DefaultParams() Params {
	return Params{
		MLWeight:            0.4,
		FactorWeight:        0.6,
		MLThreshold:         0.6,
		FactorThreshold:     0.5,
		FactorBoost:         0.5,
		BaseWeight:          0.5,
		ConsensusBonus:      0.15,
		ConfidenceThreshold: 0.7,
		RiskThreshold:       0.4,
	}
}

// Validate rejects parameter sets that cannot drive any strategy sensibly.
func (p Params) Validate() error {
	if p.MLWeight < 0 || p.FactorWeight < 0 || p.BaseWeight < 0 {
		return fmt.Errorf("fusion params: weights must be non-negative")
	}
	if p.MLThreshold < 0 || p.MLThreshold > 1 {
		return fmt.Errorf("fusion params: ml_threshold %.4f outside [0,1]", p.MLThreshold)
	}
	if p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 1 {
		return fmt.Errorf("fusion params: confidence_threshold %.4f outside [0,1]", p.ConfidenceThreshold)
	}
	if p.RiskThreshold < 0 || p.RiskThreshold > 1 {
		return fmt.Errorf("fusion params: risk_threshold %.4f outside [0,1]", p.RiskThreshold)
	}
	return nil
}
