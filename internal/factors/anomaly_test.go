package factors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kevinwu901113/stock-pre-sub000/internal/domain"
)

func clusteredUniverse(n int) domain.Universe {
	u := domain.Universe{}
	for i := 0; i < n; i++ {
		u.Members = append(u.Members, member(fmt.Sprintf("6%05d", i), domain.FactorSet{
			FactorMomentum5d:      1.0 + 0.01*float64(i%5),
			FactorVolumeRatio:     1.2 + 0.02*float64(i%3),
			FactorMainInflowScore: 0.5,
			FactorRSI:             55 + float64(i%7),
		}))
	}
	return u
}

func TestDetectOutliersDisabled(t *testing.T) {
	u := clusteredUniverse(32)
	report := DetectOutliers(u, OutlierConfig{Enabled: false})
	assert.Empty(t, report.Scores)
	assert.Empty(t, report.Flagged)
}

func TestDetectOutliersSkipsSmallUniverse(t *testing.T) {
	u := clusteredUniverse(4)
	report := DetectOutliers(u, DefaultOutlierConfig())
	assert.Empty(t, report.Scores)
}

func TestDetectOutliersScoresEveryMember(t *testing.T) {
	u := clusteredUniverse(40)
	// One member far outside the cluster on every axis.
	u.Members = append(u.Members, member("999999", domain.FactorSet{
		FactorMomentum5d:      500,
		FactorVolumeRatio:     90,
		FactorMainInflowScore: -80,
		FactorRSI:             -200,
	}))

	cfg := DefaultOutlierConfig()
	report := DetectOutliers(u, cfg)
	require.Len(t, report.Scores, len(u.Members))

	outlier := report.Scores["999999"]
	for code, score := range report.Scores {
		if code == "999999" {
			continue
		}
		assert.LessOrEqual(t, score, outlier, "cluster member %s should not out-score the outlier", code)
	}
}

func TestBuildMatrixImputesColumnMean(t *testing.T) {
	u := domain.Universe{Members: []domain.Member{
		member("000001", domain.FactorSet{FactorMomentum5d: 2.0}),
		member("000002", domain.FactorSet{FactorMomentum5d: 4.0}),
		member("000003", domain.FactorSet{}),
	}}

	matrix := buildMatrix(u, []string{FactorMomentum5d})
	require.Len(t, matrix, 3)
	assert.Equal(t, 3.0, matrix[2][0], "missing value imputed with column mean")
}
