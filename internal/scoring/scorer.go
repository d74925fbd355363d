package scoring

import (
	"fmt"
	"math"

	"github.com/Kevinwu901113/stock-pre-sub000/internal/domain"
)

// FactorWeight assigns a weight to one vocabulary factor. Risk-category
// weights are negative by convention so elevated risk lowers desirability.
type FactorWeight struct {
	Factor string  `yaml:"factor"`
	Weight float64 `yaml:"weight"`
}

// Category groups member factors under a semantic name. Declaration order is
// the evaluation order, which keeps scoring deterministic.
type Category struct {
	Name    string         `yaml:"name"`
	Factors []FactorWeight `yaml:"factors"`
}

// WeightTable is the full weight configuration: category-grouped factors plus
// residual factors that carry weight without belonging to any category.
type WeightTable struct {
	Categories []Category     `yaml:"categories"`
	Residual   []FactorWeight `yaml:"residual"`
}

// Validate rejects tables with non-finite weights or duplicate factor
// assignments across categories.
func (t WeightTable) Validate() error {
	seen := make(map[string]string)
	check := func(owner string, fws []FactorWeight) error {
		for _, fw := range fws {
			if fw.Factor == "" {
				return fmt.Errorf("weight table: empty factor name in %s", owner)
			}
			if math.IsNaN(fw.Weight) || math.IsInf(fw.Weight, 0) {
				return fmt.Errorf("weight table: non-finite weight for %s", fw.Factor)
			}
			if prev, dup := seen[fw.Factor]; dup {
				return fmt.Errorf("weight table: factor %s assigned to both %s and %s", fw.Factor, prev, owner)
			}
			seen[fw.Factor] = owner
		}
		return nil
	}
	for _, c := range t.Categories {
		if c.Name == "" {
			return fmt.Errorf("weight table: category with empty name")
		}
		if err := check(c.Name, c.Factors); err != nil {
			return err
		}
	}
	return check("residual", t.Residual)
}

// Scorer turns a normalized factor set into a category breakdown and total
// score. It is a pure function of its inputs and the immutable tables it was
// constructed with.
type Scorer struct {
	table WeightTable
	rules []RationaleRule
}

func NewScorer(table WeightTable, rules []RationaleRule) *Scorer {
	return &Scorer{table: table, rules: rules}
}

// Score computes one weighted sub-score per category plus the residual
// contribution and their exact sum. Factors absent from the normalized set
// contribute zero. Rationale notes are derived from raw (pre-normalization)
// values and never influence any number.
func (s *Scorer) Score(normalized domain.NormalizedFactorSet, raw domain.FactorSet) domain.ScoreBreakdown {
	breakdown := domain.ScoreBreakdown{
		Categories: make([]domain.CategoryScore, 0, len(s.table.Categories)),
	}

	total := 0.0
	for _, cat := range s.table.Categories {
		sub := 0.0
		for _, fw := range cat.Factors {
			if v, ok := normalized[fw.Factor]; ok {
				sub += fw.Weight * v
			}
		}
		breakdown.Categories = append(breakdown.Categories, domain.CategoryScore{
			Name:  cat.Name,
			Score: sub,
			Notes: evaluateRules(s.rules, cat.Factors, raw),
		})
		total += sub
	}

	residual := 0.0
	for _, fw := range s.table.Residual {
		if v, ok := normalized[fw.Factor]; ok {
			residual += fw.Weight * v
		}
	}
	breakdown.Residual = residual
	breakdown.Total = total + residual
	return breakdown
}
