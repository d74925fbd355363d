package domain

import (
	"math"
	"time"
)

// FactorSet maps a factor key from the fixed vocabulary to its raw value for
// one stock in one evaluation run. An absent key means the factor is missing;
// NaN and ±Inf values are invalid. Both are distinct from a legitimate zero.
type FactorSet map[string]float64

// Finite returns the value for key and true only when the key is present and
// the value is a finite number.
func (fs FactorSet) Finite(key string) (float64, bool) {
	v, ok := fs[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// NormalizedFactorSet holds factor values mapped into [0, 100], with 50
// representing a neutral or unknown value.
type NormalizedFactorSet map[string]float64

// StockMeta carries display metadata passed through from upstream. The engine
// never computes these.
type StockMeta struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	LastPrice    float64 `json:"last_price"`
	DayChangePct float64 `json:"day_change_pct"`
}

// Member is one stock inside a Universe: its metadata, its raw factors, and
// the optional ML up-probability supplied by the model collaborator.
type Member struct {
	Meta    StockMeta
	Factors FactorSet
	ProbUp  *float64
}

// Universe is the ordered set of stocks scored together in one run. It
// defines the comparison population for cross-sectional normalization.
type Universe struct {
	Members []Member
}

// Codes returns the member codes in universe order.
func (u Universe) Codes() []string {
	codes := make([]string, len(u.Members))
	for i, m := range u.Members {
		codes[i] = m.Meta.Code
	}
	return codes
}

// ConfidenceLevel labels how strongly the ML and factor signals reinforce
// each other.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// RiskLevel labels signal uncertainty, distinct from confidence.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RationaleNote is one structured rationale entry tied to a contributing
// factor. Rendering notes to text is a presentation concern only.
type RationaleNote struct {
	Factor  string `json:"factor"`
	Message string `json:"message"`
}

// CategoryScore is one category's weighted sub-score plus its notes.
type CategoryScore struct {
	Name  string          `json:"name"`
	Score float64         `json:"score"`
	Notes []RationaleNote `json:"notes,omitempty"`
}

// ScoreBreakdown is the full rule-based score decomposition for one stock.
// Total always equals the sum of category scores plus Residual.
type ScoreBreakdown struct {
	Categories []CategoryScore `json:"categories"`
	Residual   float64         `json:"residual"`
	Total      float64         `json:"total"`
}

// Category returns the named category score, if present.
func (b ScoreBreakdown) Category(name string) (CategoryScore, bool) {
	for _, c := range b.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryScore{}, false
}

// FusionResult is the fused outcome for one stock. Immutable once produced.
type FusionResult struct {
	Code       string             `json:"code"`
	FinalScore float64            `json:"final_score"`
	TotalScore float64            `json:"total_score"`
	ProbUp     *float64           `json:"prob_up,omitempty"`
	Confidence ConfidenceLevel    `json:"confidence"`
	Risk       RiskLevel          `json:"risk"`
	Consensus  bool               `json:"consensus"`
	Method     string             `json:"method"`
	Rationale  string             `json:"rationale"`
	Detail     map[string]float64 `json:"detail,omitempty"`
	Breakdown  ScoreBreakdown     `json:"breakdown"`
}

// Recommendation is a FusionResult placed into the final ranked list.
type Recommendation struct {
	Rank        int          `json:"rank"`
	Meta        StockMeta    `json:"meta"`
	Result      FusionResult `json:"result"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// RunSummary describes one engine run, derived purely from its output.
type RunSummary struct {
	UniverseSize    int                     `json:"universe_size"`
	Recommended     int                     `json:"recommended"`
	Skipped         int                     `json:"skipped"`
	Excluded        int                     `json:"excluded"`
	Anomalies       int                     `json:"anomalies"`
	AvgFinalScore   float64                 `json:"avg_final_score"`
	AvgTotalScore   float64                 `json:"avg_total_score"`
	ConfidenceCount map[ConfidenceLevel]int `json:"confidence_count"`
}

// RecommendationList is the ordered engine output plus its summary.
type RecommendationList struct {
	Recommendations []Recommendation `json:"recommendations"`
	Summary         RunSummary       `json:"summary"`
}
