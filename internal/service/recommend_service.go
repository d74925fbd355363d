package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/Kevinwu901113/stock-pre-sub000/internal/config"
	"github.com/Kevinwu901113/stock-pre-sub000/internal/domain"
	"github.com/Kevinwu901113/stock-pre-sub000/internal/factors"
	"github.com/Kevinwu901113/stock-pre-sub000/internal/fusion"
	"github.com/Kevinwu901113/stock-pre-sub000/internal/ranking"
	"github.com/Kevinwu901113/stock-pre-sub000/internal/scoring"
)

// RecommendService runs the full pipeline for one universe snapshot:
// normalize, score, fuse, rank. It holds only immutable configuration and is
// safe to call concurrently for different universes.
type RecommendService struct {
	cfg        config.Config
	tracer     trace.Tracer
	log        zerolog.Logger
	normalizer *factors.Normalizer
	scorer     *scoring.Scorer
	fuser      *fusion.Engine
	ranker     *ranking.Ranker
}

// NewRecommendService validates the configuration and wires the pipeline.
// Configuration problems surface here, never inside a run.
func NewRecommendService(cfg config.Config, tracer trace.Tracer, log zerolog.Logger) (*RecommendService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	fuser, err := fusion.NewEngine(cfg.Method, cfg.Fusion, log)
	if err != nil {
		return nil, err
	}
	return &RecommendService{
		cfg:        cfg,
		tracer:     tracer,
		log:        log,
		normalizer: factors.NewNormalizer(log),
		scorer:     scoring.NewScorer(cfg.Weights, cfg.Rules),
		fuser:      fuser,
		ranker:     ranking.NewRanker(cfg.TopN, cfg.Validity, time.Now, log),
	}, nil
}

// Recommend produces the ranked recommendation list and its run summary. The
// output is complete or empty, never partially sorted; individual bad
// records are skipped and counted, not fatal.
func (s *RecommendService) Recommend(ctx context.Context, u domain.Universe) (domain.RecommendationList, error) {
	if s == nil || s.fuser == nil {
		return domain.RecommendationList{}, fmt.Errorf("recommend service is not initialized")
	}
	ctx, span := s.tracer.Start(ctx, "recommend.run")
	defer span.End()

	normalized := s.normalize(ctx, u)
	breakdowns := s.scoreAll(ctx, u, normalized)
	outcome := s.fuse(ctx, u, normalized, breakdowns)
	recommendations, droppedAtRank := s.rank(ctx, u, outcome.Results)
	report := s.detectOutliers(ctx, u)

	list := domain.RecommendationList{
		Recommendations: recommendations,
		Summary:         buildSummary(u, recommendations, outcome, droppedAtRank, report),
	}
	s.log.Info().
		Int("universe", list.Summary.UniverseSize).
		Int("recommended", list.Summary.Recommended).
		Int("skipped", list.Summary.Skipped).
		Int("excluded", list.Summary.Excluded).
		Str("method", string(s.fuser.Method())).
		Msg("recommendation run complete")
	return list, nil
}

func (s *RecommendService) normalize(ctx context.Context, u domain.Universe) map[string]domain.NormalizedFactorSet {
	_, span := s.tracer.Start(ctx, "recommend.normalize")
	defer span.End()
	return s.normalizer.Normalize(u)
}

// scoreAll runs the per-stock scorer on a bounded worker pool. Each worker
// writes only its own index slot, and the cross-sectional statistics were
// already fixed by the normalize stage, so there is no shared mutable state.
func (s *RecommendService) scoreAll(ctx context.Context, u domain.Universe, normalized map[string]domain.NormalizedFactorSet) []domain.ScoreBreakdown {
	_, span := s.tracer.Start(ctx, "recommend.score")
	defer span.End()

	breakdowns := make([]domain.ScoreBreakdown, len(u.Members))
	if len(u.Members) == 0 {
		return breakdowns
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(u.Members) {
		workers = len(u.Members)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				m := u.Members[i]
				breakdowns[i] = s.scorer.Score(normalized[m.Meta.Code], m.Factors)
			}
		}()
	}
	for i := range u.Members {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
	return breakdowns
}

func (s *RecommendService) fuse(ctx context.Context, u domain.Universe, normalized map[string]domain.NormalizedFactorSet, breakdowns []domain.ScoreBreakdown) fusion.Outcome {
	_, span := s.tracer.Start(ctx, "recommend.fuse")
	defer span.End()

	inputs := make([]fusion.Input, len(u.Members))
	for i, m := range u.Members {
		inputs[i] = fusion.Input{
			Code:       m.Meta.Code,
			Breakdown:  breakdowns[i],
			ProbUp:     m.ProbUp,
			Volatility: normalizedVolatility(m, normalized[m.Meta.Code]),
		}
	}
	return s.fuser.Fuse(inputs)
}

func (s *RecommendService) rank(ctx context.Context, u domain.Universe, results []domain.FusionResult) ([]domain.Recommendation, int) {
	_, span := s.tracer.Start(ctx, "recommend.rank")
	defer span.End()

	meta := make(map[string]domain.StockMeta, len(u.Members))
	for _, m := range u.Members {
		if _, ok := meta[m.Meta.Code]; !ok {
			meta[m.Meta.Code] = m.Meta
		}
	}
	return s.ranker.Rank(results, meta)
}

func (s *RecommendService) detectOutliers(ctx context.Context, u domain.Universe) factors.OutlierReport {
	if !s.cfg.Outliers.Enabled {
		return factors.OutlierReport{}
	}
	_, span := s.tracer.Start(ctx, "recommend.outliers")
	defer span.End()

	report := factors.DetectOutliers(u, s.cfg.Outliers)
	for _, code := range report.Flagged {
		s.log.Warn().Str("code", code).Float64("score", report.Scores[code]).
			Msg("factor profile flagged as outlier")
	}
	return report
}

// normalizedVolatility feeds risk classification with the stock's
// cross-sectional volatility position in [0,1], when the raw factor exists.
func normalizedVolatility(m domain.Member, normalized domain.NormalizedFactorSet) *float64 {
	if _, ok := m.Factors.Finite(factors.FactorVolatility20d); !ok {
		return nil
	}
	v, ok := normalized[factors.FactorVolatility20d]
	if !ok {
		return nil
	}
	scaled := v / 100
	return &scaled
}

// buildSummary derives the run summary purely from the output sequence and
// the stage counters.
func buildSummary(u domain.Universe, recs []domain.Recommendation, outcome fusion.Outcome, droppedAtRank int, report factors.OutlierReport) domain.RunSummary {
	summary := domain.RunSummary{
		UniverseSize:    len(u.Members),
		Recommended:     len(recs),
		Skipped:         outcome.Skipped,
		Excluded:        outcome.Excluded + droppedAtRank,
		Anomalies:       len(report.Flagged),
		ConfidenceCount: make(map[domain.ConfidenceLevel]int),
	}
	if len(recs) == 0 {
		return summary
	}
	var finalSum, totalSum float64
	for _, rec := range recs {
		finalSum += rec.Result.FinalScore
		totalSum += rec.Result.TotalScore
		summary.ConfidenceCount[rec.Result.Confidence]++
	}
	summary.AvgFinalScore = finalSum / float64(len(recs))
	summary.AvgTotalScore = totalSum / float64(len(recs))
	return summary
}
