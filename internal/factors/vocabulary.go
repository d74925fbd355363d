package factors

// Category names used by the scoring weight table.
const (
	CategoryMomentum    = "momentum"
	CategoryVolume      = "volume"
	CategoryCapitalFlow = "capital_flow"
	CategorySentiment   = "sentiment"
	CategoryRisk        = "risk"
	CategoryTechnical   = "technical"
)

// Factor keys form the fixed, versioned vocabulary shared with the upstream
// feature-computation collaborator. A FactorSet never carries two
// differently-scaled representations of the same quantity under one key.
const (
	FactorMomentum5d        = "momentum_5d"
	FactorMomentum20d       = "momentum_20d"
	FactorSectorPerformance = "sector_performance"
	FactorVolumeRatio       = "volume_ratio"
	FactorTurnoverRate      = "turnover_rate"
	FactorMainInflowScore   = "main_inflow_score"
	FactorMainInflowRatio   = "main_inflow_ratio"
	FactorSentimentScore    = "sentiment_score"
	FactorNewsHeat          = "news_heat"
	FactorVolatility20d     = "volatility_20d"
	FactorATRRatio          = "atr_ratio"
	FactorMACD              = "macd"
	FactorRSI               = "rsi"
	FactorKDJJ              = "kdj_j"
	FactorBollingerPos      = "bollinger_pos"
	FactorMarketCapLog      = "market_cap_log"
)

// VocabularyVersion identifies the factor-key vocabulary above.
const VocabularyVersion = "v1"

// Vocabulary returns the factor keys in their canonical order. The order is
// load-bearing: it fixes matrix column order for outlier detection and the
// default iteration order wherever determinism matters.
func Vocabulary() []string {
	return []string{
		FactorMomentum5d,
		FactorMomentum20d,
		FactorSectorPerformance,
		FactorVolumeRatio,
		FactorTurnoverRate,
		FactorMainInflowScore,
		FactorMainInflowRatio,
		FactorSentimentScore,
		FactorNewsHeat,
		FactorVolatility20d,
		FactorATRRatio,
		FactorMACD,
		FactorRSI,
		FactorKDJJ,
		FactorBollingerPos,
		FactorMarketCapLog,
	}
}
