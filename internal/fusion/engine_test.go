package fusion

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kevinwu901113/stock-pre-sub000/internal/domain"
)

func prob(p float64) *float64 { return &p }

func input(code string, total float64, probUp *float64) Input {
	return Input{Code: code, Breakdown: domain.ScoreBreakdown{Total: total}, ProbUp: probUp}
}

func newEngine(t *testing.T, method Method, params Params) *Engine {
	t.Helper()
	e, err := NewEngine(method, params, zerolog.Nop())
	require.NoError(t, err)
	return e
}

func TestNewEngineRejectsUnknownMethod(t *testing.T) {
	_, err := NewEngine(Method("weighted_avrage"), DefaultParams(), zerolog.Nop())
	require.Error(t, err, "a typo in configuration must fail fast, not silently change ranking")
	assert.Contains(t, err.Error(), "weighted_avrage")
}

func TestParseMethod(t *testing.T) {
	for _, name := range []string{"weighted_average", "filter_first", "rank_adjustment", "consensus_boost"} {
		m, err := ParseMethod(name)
		require.NoError(t, err)
		assert.Equal(t, Method(name), m)
	}
	_, err := ParseMethod("ensemble")
	assert.Error(t, err)
}

func TestWeightedAverage(t *testing.T) {
	params := DefaultParams() // ml 0.4, factor 0.6
	e := newEngine(t, MethodWeightedAverage, params)

	out := e.Fuse([]Input{
		input("A", 1.2, prob(0.8)),
		input("B", 0.3, prob(0.55)),
	})
	require.Len(t, out.Results, 2)

	// factor_norm(1.2) = 0.8, so A blends to 0.4*0.8 + 0.6*0.8.
	assert.InDelta(t, 0.8, out.Results[0].FinalScore, 1e-9)
	assert.InDelta(t, 0.565, out.Results[1].FinalScore, 1e-9)
	assert.Greater(t, out.Results[0].FinalScore, out.Results[1].FinalScore)
}

func TestWeightedAverageMissingML(t *testing.T) {
	e := newEngine(t, MethodWeightedAverage, DefaultParams())
	out := e.Fuse([]Input{input("D", 0.5, nil)})
	require.Len(t, out.Results, 1)

	r := out.Results[0]
	// factor_norm(0.5) = 0.625, factor-only with weight 0.6.
	assert.InDelta(t, 0.375, r.FinalScore, 1e-9)
	assert.Nil(t, r.ProbUp)
	assert.Contains(t, r.Rationale, "ml unavailable")
}

func TestWeightedAverageClipsSaturatedScores(t *testing.T) {
	e := newEngine(t, MethodWeightedAverage, DefaultParams())
	out := e.Fuse([]Input{input("X", 99.0, prob(1.5))})
	require.Len(t, out.Results, 1)
	assert.InDelta(t, 1.0, out.Results[0].FinalScore, 1e-9, "both norms clip to 1")
}

func TestFilterFirstGates(t *testing.T) {
	e := newEngine(t, MethodFilterFirst, DefaultParams()) // ml 0.6, factor 0.5, boost 0.5

	out := e.Fuse([]Input{
		input("A", 0.2, prob(0.5)),  // fails ml gate
		input("B", 0.9, prob(0.75)), // passes both
		input("C", 0.3, prob(0.8)),  // passes ml, fails factor gate
		input("E", 1.1, nil),        // missing ml fails the ml gate
	})

	require.Len(t, out.Results, 1)
	assert.Equal(t, "B", out.Results[0].Code)
	assert.InDelta(t, 0.9+0.5*0.75, out.Results[0].FinalScore, 1e-9)
	assert.Equal(t, 3, out.Excluded)
	assert.Equal(t, 0, out.Skipped)
}

func TestFilterFirstExclusivityProperty(t *testing.T) {
	params := DefaultParams()
	e := newEngine(t, MethodFilterFirst, params)

	inputs := []Input{
		input("000001", 2.0, prob(0.59)),
		input("000002", 2.0, prob(0.61)),
		input("000003", -1.0, prob(0.99)),
		input("000004", 0.5, prob(0.6)),
		input("000005", 0.49, prob(0.9)),
	}
	out := e.Fuse(inputs)
	for _, r := range out.Results {
		require.NotNil(t, r.ProbUp)
		assert.GreaterOrEqual(t, *r.ProbUp, params.MLThreshold,
			"no stock below the ml threshold may ever appear in filter_first output")
		assert.GreaterOrEqual(t, r.TotalScore, params.FactorThreshold)
	}
}

func TestFilterFirstCanReturnEmpty(t *testing.T) {
	e := newEngine(t, MethodFilterFirst, DefaultParams())
	out := e.Fuse([]Input{input("A", 0.1, prob(0.2))})
	assert.Empty(t, out.Results)
	assert.Equal(t, 1, out.Excluded)
}

func TestRankAdjustment(t *testing.T) {
	e := newEngine(t, MethodRankAdjustment, DefaultParams())
	out := e.Fuse([]Input{
		input("A", 1.0, prob(0.9)),  // +0.8
		input("B", 1.0, prob(0.25)), // -0.5
		input("C", 1.0, nil),        // +0
	})
	require.Len(t, out.Results, 3)
	assert.InDelta(t, 1.8, out.Results[0].FinalScore, 1e-9)
	assert.InDelta(t, 0.5, out.Results[1].FinalScore, 1e-9)
	assert.InDelta(t, 1.0, out.Results[2].FinalScore, 1e-9)

	// The nudge is bounded in [-1, 1] regardless of probability.
	out = e.Fuse([]Input{input("D", 0, prob(1.0)), input("E", 0, prob(0.0))})
	assert.InDelta(t, 1.0, out.Results[0].FinalScore, 1e-9)
	assert.InDelta(t, -1.0, out.Results[1].FinalScore, 1e-9)
}

func TestConsensusBoost(t *testing.T) {
	params := DefaultParams() // base 0.5, bonus 0.15, gates 0.6 / 0.5
	e := newEngine(t, MethodConsensusBoost, params)

	out := e.Fuse([]Input{
		input("AGREE", 1.0, prob(0.8)),    // agree + both gates clear: bonus
		input("WEAK", 0.2, prob(0.55)),    // agree, gates not cleared: no bonus
		input("DIVERGE", -0.8, prob(0.9)), // signs disagree
		input("NOML", 1.0, nil),
	})
	require.Len(t, out.Results, 4)

	agree := out.Results[0]
	base := 0.5*0.8 + 0.5*factorNorm(1.0)
	assert.InDelta(t, base+0.15, agree.FinalScore, 1e-9)
	assert.True(t, agree.Consensus)
	assert.Contains(t, agree.Rationale, "high consensus")

	weak := out.Results[1]
	assert.True(t, weak.Consensus)
	assert.Contains(t, weak.Rationale, "consensus")
	assert.NotContains(t, weak.Rationale, "high")

	diverge := out.Results[2]
	assert.False(t, diverge.Consensus)
	assert.Contains(t, diverge.Rationale, "divergent")

	noml := out.Results[3]
	assert.False(t, noml.Consensus)
	assert.Contains(t, noml.Rationale, "ml unavailable")
}

func TestFuseSkipsNonFiniteTotal(t *testing.T) {
	e := newEngine(t, MethodWeightedAverage, DefaultParams())
	out := e.Fuse([]Input{
		input("BAD", math.NaN(), prob(0.7)),
		input("WORSE", math.Inf(1), prob(0.7)),
		input("OK", 0.5, prob(0.7)),
	})
	require.Len(t, out.Results, 1)
	assert.Equal(t, "OK", out.Results[0].Code)
	assert.Equal(t, 2, out.Skipped)
}

func TestConfidenceClassification(t *testing.T) {
	tests := []struct {
		name  string
		prob  *float64
		total float64
		want  domain.ConfidenceLevel
	}{
		{"strong agreement", prob(0.95), 1.8, domain.ConfidenceHigh},
		{"moderate agreement", prob(0.78), 0.9, domain.ConfidenceMedium},
		{"weak signals", prob(0.55), 0.2, domain.ConfidenceLow},
		{"disagreement dampens", prob(0.95), -1.8, domain.ConfidenceLow},
		{"missing ml uses factor alone", nil, 1.8, domain.ConfidenceLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, _ := classifyConfidence(tt.prob, tt.total, 0.7)
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestRiskClassification(t *testing.T) {
	level, raw := classifyRisk(prob(0.95), 1.8, nil, 0.4)
	assert.Equal(t, domain.RiskLow, level)
	assert.Less(t, raw, 0.4)

	level, _ = classifyRisk(prob(0.55), 0.4, nil, 0.4)
	assert.Equal(t, domain.RiskHigh, level)

	// Volatility blending raises risk for an otherwise confident signal.
	vol := 1.0
	blended, rawBlended := classifyRisk(prob(0.95), 1.8, &vol, 0.4)
	_, rawPlain := classifyRisk(prob(0.95), 1.8, nil, 0.4)
	assert.Greater(t, rawBlended, rawPlain)
	_ = blended
}

func TestFuseDeterminism(t *testing.T) {
	e := newEngine(t, MethodConsensusBoost, DefaultParams())
	inputs := []Input{
		input("000001", 0.7, prob(0.7)),
		input("000002", -0.3, prob(0.44)),
		input("000003", 1.9, nil),
	}
	first := e.Fuse(inputs)
	second := e.Fuse(inputs)
	assert.Equal(t, first, second)
}
