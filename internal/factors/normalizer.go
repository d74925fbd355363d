package factors

import (
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/Kevinwu901113/stock-pre-sub000/internal/domain"
)

const (
	// NeutralScore is the normalized value assigned to missing, invalid, or
	// incomparable factor values.
	NeutralScore = 50.0

	zClip = 3.0
)

// Normalizer maps raw factor values into [0, 100] using cross-sectional
// statistics over the current universe. It holds no state across runs; the
// comparison population changes daily, so statistics are recomputed on every
// call.
type Normalizer struct {
	log zerolog.Logger
}

func NewNormalizer(log zerolog.Logger) *Normalizer {
	return &Normalizer{log: log}
}

// Normalize computes, per factor key, the population mean and standard
// deviation over all finite values in the universe, then rescales each
// stock's value via a z-score clipped to [-3, 3]. Missing or invalid values,
// keys with no finite observations, and zero-variance keys all degrade to
// NeutralScore. Normalization is monotonic in the raw value for any fixed key
// within one universe.
func (n *Normalizer) Normalize(u domain.Universe) map[string]domain.NormalizedFactorSet {
	out := make(map[string]domain.NormalizedFactorSet, len(u.Members))
	for _, m := range u.Members {
		out[m.Meta.Code] = make(domain.NormalizedFactorSet)
	}

	for _, key := range universeKeys(u) {
		values := make([]float64, 0, len(u.Members))
		for _, m := range u.Members {
			if v, ok := m.Factors.Finite(key); ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			for _, m := range u.Members {
				out[m.Meta.Code][key] = NeutralScore
			}
			continue
		}

		mean, std := stat.PopMeanStdDev(values, nil)
		if std <= 0 {
			n.log.Debug().Str("factor", key).Int("observations", len(values)).
				Msg("degenerate cross-section, neutral normalization")
		}

		for _, m := range u.Members {
			v, ok := m.Factors.Finite(key)
			if !ok {
				out[m.Meta.Code][key] = NeutralScore
				continue
			}
			out[m.Meta.Code][key] = rescale(v, mean, std)
		}
	}

	return out
}

// rescale maps v to [0, 100] via a clipped z-score. A zero standard deviation
// carries no comparative information and lands on NeutralScore.
func rescale(v, mean, std float64) float64 {
	z := 0.0
	if std > 0 {
		z = (v - mean) / std
	}
	if z > zClip {
		z = zClip
	}
	if z < -zClip {
		z = -zClip
	}
	return (z + zClip) * 100 / (2 * zClip)
}

// universeKeys returns the sorted union of factor keys present across the
// universe. Sorting keeps map iteration out of the output order.
func universeKeys(u domain.Universe) []string {
	seen := make(map[string]struct{})
	for _, m := range u.Members {
		for key := range m.Factors {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
