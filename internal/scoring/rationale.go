package scoring

import (
	"fmt"
	"strings"

	"github.com/Kevinwu901113/stock-pre-sub000/internal/domain"
)

// CompareOp is a comparison operator in a rationale rule.
type CompareOp string

const (
	OpGT CompareOp = "gt"
	OpGE CompareOp = "ge"
	OpLT CompareOp = "lt"
	OpLE CompareOp = "le"
)

// ParseCompareOp validates an operator from configuration.
func ParseCompareOp(s string) (CompareOp, error) {
	switch op := CompareOp(strings.ToLower(strings.TrimSpace(s))); op {
	case OpGT, OpGE, OpLT, OpLE:
		return op, nil
	default:
		return "", fmt.Errorf("unknown comparison operator %q", s)
	}
}

// RationaleRule is one declarative threshold check: when the raw value of
// Factor satisfies Op against Threshold, Message is attached to the owning
// category's notes. Rules are presentation only.
type RationaleRule struct {
	Factor    string    `yaml:"factor"`
	Op        CompareOp `yaml:"op"`
	Threshold float64   `yaml:"threshold"`
	Message   string    `yaml:"message"`
}

func (r RationaleRule) matches(v float64) bool {
	switch r.Op {
	case OpGT:
		return v > r.Threshold
	case OpGE:
		return v >= r.Threshold
	case OpLT:
		return v < r.Threshold
	case OpLE:
		return v <= r.Threshold
	default:
		return false
	}
}

// evaluateRules runs every rule bound to one of the category's factors
// against the raw values. Missing and invalid raw values match nothing.
func evaluateRules(rules []RationaleRule, factors []FactorWeight, raw domain.FactorSet) []domain.RationaleNote {
	if len(rules) == 0 || len(factors) == 0 {
		return nil
	}
	inCategory := make(map[string]struct{}, len(factors))
	for _, fw := range factors {
		inCategory[fw.Factor] = struct{}{}
	}

	var notes []domain.RationaleNote
	for _, rule := range rules {
		if _, ok := inCategory[rule.Factor]; !ok {
			continue
		}
		v, ok := raw.Finite(rule.Factor)
		if !ok {
			continue
		}
		if rule.matches(v) {
			notes = append(notes, domain.RationaleNote{Factor: rule.Factor, Message: rule.Message})
		}
	}
	return notes
}

// RenderNotes joins structured notes into a display string. Kept separate
// from rule evaluation so tests assert on structure, not substrings.
func RenderNotes(notes []domain.RationaleNote) string {
	if len(notes) == 0 {
		return ""
	}
	parts := make([]string, len(notes))
	for i, n := range notes {
		parts[i] = n.Message
	}
	return strings.Join(parts, "; ")
}
