package factors

import (
	"github.com/narumiruna/go-iforest/pkg/iforest"

	"github.com/Kevinwu901113/stock-pre-sub000/internal/domain"
)

// OutlierConfig controls the optional isolation-forest diagnostics run over a
// universe's factor matrix. The report is purely informational: it appears in
// the run summary and never alters any score.
type OutlierConfig struct {
	Enabled        bool    `yaml:"enabled"`
	ScoreThreshold float64 `yaml:"score_threshold"`
	MinMembers     int     `yaml:"min_members"`
}

// DefaultOutlierConfig enables detection for universes of at least 16 stocks
// and flags members whose anomaly score exceeds 0.65.
func DefaultOutlierConfig() OutlierConfig {
	return OutlierConfig{Enabled: true, ScoreThreshold: 0.65, MinMembers: 16}
}

// OutlierReport holds one anomaly score per stock plus the codes whose score
// crossed the configured threshold, in universe order.
type OutlierReport struct {
	Scores  map[string]float64
	Flagged []string
}

// DetectOutliers fits an isolation forest over the universe's factor matrix
// (rows follow universe order, columns follow the vocabulary order) and
// scores every member against it. Missing or invalid entries are imputed with
// the column mean so a sparse stock is not anomalous merely for being sparse.
// Universes below the configured minimum are skipped: the forest has nothing
// meaningful to isolate.
func DetectOutliers(u domain.Universe, cfg OutlierConfig) OutlierReport {
	report := OutlierReport{Scores: make(map[string]float64)}
	if !cfg.Enabled || len(u.Members) < cfg.MinMembers {
		return report
	}

	keys := Vocabulary()
	matrix := buildMatrix(u, keys)

	forest := iforest.New()
	forest.Fit(matrix)
	scores := forest.Score(matrix)

	for i, m := range u.Members {
		if i >= len(scores) {
			break
		}
		report.Scores[m.Meta.Code] = scores[i]
		if scores[i] >= cfg.ScoreThreshold {
			report.Flagged = append(report.Flagged, m.Meta.Code)
		}
	}
	return report
}

func buildMatrix(u domain.Universe, keys []string) [][]float64 {
	means := make([]float64, len(keys))
	for j, key := range keys {
		sum, count := 0.0, 0
		for _, m := range u.Members {
			if v, ok := m.Factors.Finite(key); ok {
				sum += v
				count++
			}
		}
		if count > 0 {
			means[j] = sum / float64(count)
		}
	}

	matrix := make([][]float64, len(u.Members))
	for i, m := range u.Members {
		row := make([]float64, len(keys))
		for j, key := range keys {
			if v, ok := m.Factors.Finite(key); ok {
				row[j] = v
			} else {
				row[j] = means[j]
			}
		}
		matrix[i] = row
	}
	return matrix
}
