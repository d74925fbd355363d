package ranking

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kevinwu901113/stock-pre-sub000/internal/domain"
)

// ScoreSource selects which score the validity filter inspects.
type ScoreSource string

const (
	ScoreSourceFinal ScoreSource = "final"
	ScoreSourceTotal ScoreSource = "total"
)

// ParseScoreSource validates a score source from configuration.
func ParseScoreSource(s string) (ScoreSource, error) {
	switch src := ScoreSource(s); src {
	case ScoreSourceFinal, ScoreSourceTotal:
		return src, nil
	default:
		return "", fmt.Errorf("unknown score source %q", s)
	}
}

// ValidityRules are the sanity filters applied before ranking. Violations
// drop the result entirely; they are never zero-filled.
type ValidityRules struct {
	ScoreSource        ScoreSource `yaml:"score_source"`
	RequirePositive    bool        `yaml:"require_positive"`
	MaxAbsDayChangePct float64     `yaml:"max_abs_day_change_pct"`
}

// DefaultValidityRules matches buy-list conventions: strictly positive final
// score, and a 10% day-change sanity bound.
func DefaultValidityRules() ValidityRules {
	return ValidityRules{
		ScoreSource:        ScoreSourceFinal,
		RequirePositive:    true,
		MaxAbsDayChangePct: 10,
	}
}

// Ranker validates, deduplicates, sorts, and truncates fusion results into
// the final Top-N recommendation list.
type Ranker struct {
	topN  int
	rules ValidityRules
	now   func() time.Time
	log   zerolog.Logger
}

func NewRanker(topN int, rules ValidityRules, now func() time.Time, log zerolog.Logger) *Ranker {
	if topN <= 0 {
		topN = 10
	}
	if rules.ScoreSource == "" {
		rules.ScoreSource = ScoreSourceFinal
	}
	if rules.MaxAbsDayChangePct <= 0 {
		rules.MaxAbsDayChangePct = 10
	}
	if now == nil {
		now = time.Now
	}
	return &Ranker{topN: topN, rules: rules, now: now, log: log}
}

// Rank returns the ordered recommendation list plus the number of results
// dropped by validity rules or deduplication. Ordering is fully
// deterministic: final score descending, then ML probability descending
// (missing probabilities sort last), then stock code ascending. Ranks are
// contiguous from 1.
func (r *Ranker) Rank(results []domain.FusionResult, meta map[string]domain.StockMeta) ([]domain.Recommendation, int) {
	dropped := 0
	valid := make([]domain.FusionResult, 0, len(results))
	for _, res := range results {
		m, ok := meta[res.Code]
		if !ok || !r.isValid(res, m) {
			r.log.Debug().Str("code", res.Code).Msg("dropping result failing validity rules")
			dropped++
			continue
		}
		valid = append(valid, res)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return lessRecommendation(valid[i], valid[j])
	})

	seen := make(map[string]struct{}, len(valid))
	generatedAt := r.now().UTC()
	out := make([]domain.Recommendation, 0, r.topN)
	for _, res := range valid {
		if _, dup := seen[res.Code]; dup {
			dropped++
			continue
		}
		seen[res.Code] = struct{}{}
		if len(out) == r.topN {
			break
		}
		out = append(out, domain.Recommendation{
			Rank:        len(out) + 1,
			Meta:        meta[res.Code],
			Result:      res,
			GeneratedAt: generatedAt,
		})
	}
	return out, dropped
}

func (r *Ranker) isValid(res domain.FusionResult, m domain.StockMeta) bool {
	score := res.FinalScore
	if r.rules.ScoreSource == ScoreSourceTotal {
		score = res.TotalScore
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return false
	}
	if r.rules.RequirePositive && score <= 0 {
		return false
	}
	if math.IsNaN(m.LastPrice) || math.IsInf(m.LastPrice, 0) || m.LastPrice <= 0 {
		return false
	}
	if math.IsNaN(m.DayChangePct) || math.Abs(m.DayChangePct) >= r.rules.MaxAbsDayChangePct {
		return false
	}
	return true
}

// lessRecommendation is the full tie-break chain.
func lessRecommendation(a, b domain.FusionResult) bool {
	if a.FinalScore != b.FinalScore {
		return a.FinalScore > b.FinalScore
	}
	ap, bp := probOrNegative(a.ProbUp), probOrNegative(b.ProbUp)
	if ap != bp {
		return ap > bp
	}
	return a.Code < b.Code
}

func probOrNegative(p *float64) float64 {
	if p == nil {
		return -1
	}
	return *p
}
