package fusion

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/Kevinwu901113/stock-pre-sub000/internal/domain"
)

// Input is one stock's contribution to a fusion pass: its rule-based score
// breakdown, the optional ML up-probability, and an optional normalized
// volatility used only for risk labeling.
type Input struct {
	Code       string
	Breakdown  domain.ScoreBreakdown
	ProbUp     *float64
	Volatility *float64
}

// Outcome is the result of fusing one universe. Skipped counts stocks whose
// inputs could not be fused (corrupt records); Excluded counts stocks dropped
// by a strategy gate. Both are absences, not low scores.
type Outcome struct {
	Results  []domain.FusionResult
	Skipped  int
	Excluded int
}

// Engine fuses rule-based total scores with ML probabilities using one fixed
// strategy. It is safe for concurrent use: all state is immutable after
// construction.
type Engine struct {
	method Method
	params Params
	log    zerolog.Logger
}

// NewEngine validates the method and parameters up front; an unknown method
// is a configuration error, never a runtime fallback.
func NewEngine(method Method, params Params, log zerolog.Logger) (*Engine, error) {
	parsed, err := ParseMethod(string(method))
	if err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{method: parsed, params: params, log: log}, nil
}

// Method returns the configured strategy.
func (e *Engine) Method() Method {
	return e.method
}

// Fuse processes the universe in input order. A malformed stock is skipped
// with a logged reason and the rest of the universe continues.
func (e *Engine) Fuse(inputs []Input) Outcome {
	out := Outcome{Results: make([]domain.FusionResult, 0, len(inputs))}
	for _, in := range inputs {
		total := in.Breakdown.Total
		if math.IsNaN(total) || math.IsInf(total, 0) {
			e.log.Warn().Str("code", in.Code).Float64("total_score", total).
				Msg("skipping stock with non-finite total score")
			out.Skipped++
			continue
		}

		var (
			result   domain.FusionResult
			included bool
		)
		switch e.method {
		case MethodWeightedAverage:
			result, included = e.fuseWeightedAverage(in)
		case MethodFilterFirst:
			result, included = e.fuseFilterFirst(in)
		case MethodRankAdjustment:
			result, included = e.fuseRankAdjustment(in)
		case MethodConsensusBoost:
			result, included = e.fuseConsensusBoost(in)
		}
		if !included {
			out.Excluded++
			continue
		}
		out.Results = append(out.Results, result)
	}
	return out
}

// factorNorm maps an unbounded total score into [0,1]; totals at or beyond
// ±2 saturate.
func factorNorm(total float64) float64 {
	return clamp01((total + 2) / 4)
}

func (e *Engine) fuseWeightedAverage(in Input) (domain.FusionResult, bool) {
	fNorm := factorNorm(in.Breakdown.Total)
	detail := map[string]float64{
		"factor_norm":   fNorm,
		"factor_weight": e.params.FactorWeight,
	}

	var final float64
	var rationale string
	if in.ProbUp != nil {
		mlNorm := clamp01(*in.ProbUp)
		final = e.params.MLWeight*mlNorm + e.params.FactorWeight*fNorm
		detail["ml_norm"] = mlNorm
		detail["ml_weight"] = e.params.MLWeight
		rationale = fmt.Sprintf("weighted average: ml=%.4f (w=%.2f), factor=%.4f (w=%.2f)",
			mlNorm, e.params.MLWeight, fNorm, e.params.FactorWeight)
	} else {
		final = e.params.FactorWeight * fNorm
		rationale = fmt.Sprintf("factor only (ml unavailable): factor=%.4f (w=%.2f)",
			fNorm, e.params.FactorWeight)
	}

	return e.build(in, final, rationale, detail), true
}

func (e *Engine) fuseFilterFirst(in Input) (domain.FusionResult, bool) {
	if in.ProbUp == nil || *in.ProbUp < e.params.MLThreshold {
		e.log.Debug().Str("code", in.Code).Msg("filter_first: ml gate not cleared")
		return domain.FusionResult{}, false
	}
	if in.Breakdown.Total < e.params.FactorThreshold {
		e.log.Debug().Str("code", in.Code).Float64("total_score", in.Breakdown.Total).
			Msg("filter_first: factor gate not cleared")
		return domain.FusionResult{}, false
	}

	prob := *in.ProbUp
	final := in.Breakdown.Total + e.params.FactorBoost*prob
	detail := map[string]float64{
		"ml_probability": prob,
		"factor_boost":   e.params.FactorBoost,
	}
	rationale := fmt.Sprintf("passed gates: ml=%.4f>=%.2f, total=%.4f>=%.2f, boost=%.4f",
		prob, e.params.MLThreshold, in.Breakdown.Total, e.params.FactorThreshold, e.params.FactorBoost*prob)
	return e.build(in, final, rationale, detail), true
}

func (e *Engine) fuseRankAdjustment(in Input) (domain.FusionResult, bool) {
	adjustment := 0.0
	if in.ProbUp != nil {
		adjustment = (clamp01(*in.ProbUp) - 0.5) * 2
	}
	final := in.Breakdown.Total + adjustment
	detail := map[string]float64{"ml_adjustment": adjustment}
	rationale := fmt.Sprintf("rank adjustment: total=%.4f, ml_nudge=%+.4f", in.Breakdown.Total, adjustment)
	if in.ProbUp == nil {
		rationale = fmt.Sprintf("rank adjustment: total=%.4f, ml unavailable", in.Breakdown.Total)
	}
	return e.build(in, final, rationale, detail), true
}

func (e *Engine) fuseConsensusBoost(in Input) (domain.FusionResult, bool) {
	fNorm := factorNorm(in.Breakdown.Total)
	mlNorm := 0.5
	consensus := false
	if in.ProbUp != nil {
		mlNorm = clamp01(*in.ProbUp)
		consensus = sign(mlNorm-0.5) == sign(in.Breakdown.Total)
	}

	base := e.params.BaseWeight*mlNorm + e.params.BaseWeight*fNorm
	bonus := 0.0
	if consensus && in.ProbUp != nil && *in.ProbUp >= e.params.MLThreshold && in.Breakdown.Total >= e.params.FactorThreshold {
		bonus = e.params.ConsensusBonus
	}
	final := base + bonus

	label := "divergent"
	switch {
	case bonus > 0:
		label = "high consensus"
	case consensus:
		label = "consensus"
	}

	detail := map[string]float64{
		"base":        base,
		"bonus":       bonus,
		"ml_norm":     mlNorm,
		"factor_norm": fNorm,
	}
	rationale := fmt.Sprintf("%s: base=%.4f, bonus=%.4f", label, base, bonus)
	if in.ProbUp == nil {
		rationale = fmt.Sprintf("%s (ml unavailable): base=%.4f", label, base)
	}

	return e.build(in, final, rationale, detail), true
}

// build assembles the common parts of a FusionResult: classification labels,
// the method tag, and the full breakdown for audit.
func (e *Engine) build(in Input, final float64, rationale string, detail map[string]float64) domain.FusionResult {
	confidence, confRaw := classifyConfidence(in.ProbUp, in.Breakdown.Total, e.params.ConfidenceThreshold)
	risk, riskRaw := classifyRisk(in.ProbUp, in.Breakdown.Total, in.Volatility, e.params.RiskThreshold)
	detail["confidence_raw"] = confRaw
	detail["risk_raw"] = riskRaw

	consensus := false
	if in.ProbUp != nil {
		consensus = sign(clamp01(*in.ProbUp)-0.5) == sign(in.Breakdown.Total)
	}

	return domain.FusionResult{
		Code:       in.Code,
		FinalScore: final,
		TotalScore: in.Breakdown.Total,
		ProbUp:     in.ProbUp,
		Confidence: confidence,
		Risk:       risk,
		Consensus:  consensus,
		Method:     string(e.method),
		Rationale:  rationale,
		Detail:     detail,
		Breakdown:  in.Breakdown,
	}
}
