package config

import (
	"github.com/Kevinwu901113/stock-pre-sub000/internal/factors"
	"github.com/Kevinwu901113/stock-pre-sub000/internal/scoring"
)

// defaultWeightTable assigns every vocabulary factor to its category. Risk
// weights are negative so elevated risk factors reduce desirability;
// market_cap_log stays outside the categories as a residual size tilt.
func defaultWeightTable() scoring.WeightTable {
	return scoring.WeightTable{
		Categories: []scoring.Category{
			{Name: factors.CategoryMomentum, Factors: []scoring.FactorWeight{
				{Factor: factors.FactorMomentum5d, Weight: 0.0030},
				{Factor: factors.FactorMomentum20d, Weight: 0.0020},
				{Factor: factors.FactorSectorPerformance, Weight: 0.0010},
			}},
			{Name: factors.CategoryVolume, Factors: []scoring.FactorWeight{
				{Factor: factors.FactorVolumeRatio, Weight: 0.0015},
				{Factor: factors.FactorTurnoverRate, Weight: 0.0010},
			}},
			{Name: factors.CategoryCapitalFlow, Factors: []scoring.FactorWeight{
				{Factor: factors.FactorMainInflowScore, Weight: 0.0025},
				{Factor: factors.FactorMainInflowRatio, Weight: 0.0010},
			}},
			{Name: factors.CategorySentiment, Factors: []scoring.FactorWeight{
				{Factor: factors.FactorSentimentScore, Weight: 0.0015},
				{Factor: factors.FactorNewsHeat, Weight: 0.0005},
			}},
			{Name: factors.CategoryRisk, Factors: []scoring.FactorWeight{
				{Factor: factors.FactorVolatility20d, Weight: -0.0010},
				{Factor: factors.FactorATRRatio, Weight: -0.0005},
			}},
			{Name: factors.CategoryTechnical, Factors: []scoring.FactorWeight{
				{Factor: factors.FactorMACD, Weight: 0.0010},
				{Factor: factors.FactorRSI, Weight: 0.0010},
				{Factor: factors.FactorKDJJ, Weight: 0.0005},
				{Factor: factors.FactorBollingerPos, Weight: 0.0005},
			}},
		},
		Residual: []scoring.FactorWeight{
			{Factor: factors.FactorMarketCapLog, Weight: 0.0005},
		},
	}
}

// defaultRationaleRules is the declarative replacement for hand-written
// per-category threshold branches. Thresholds apply to raw factor values.
func defaultRationaleRules() []scoring.RationaleRule {
	return []scoring.RationaleRule{
		{Factor: factors.FactorMomentum5d, Op: scoring.OpGT, Threshold: 5, Message: "strong 5-day momentum"},
		{Factor: factors.FactorMomentum5d, Op: scoring.OpLT, Threshold: -5, Message: "weak 5-day momentum"},
		{Factor: factors.FactorSectorPerformance, Op: scoring.OpGT, Threshold: 2, Message: "sector outperforming"},
		{Factor: factors.FactorVolumeRatio, Op: scoring.OpGT, Threshold: 2, Message: "volume surge"},
		{Factor: factors.FactorTurnoverRate, Op: scoring.OpGT, Threshold: 15, Message: "elevated turnover"},
		{Factor: factors.FactorMainInflowScore, Op: scoring.OpGT, Threshold: 0.5, Message: "sustained main capital inflow"},
		{Factor: factors.FactorMainInflowScore, Op: scoring.OpLT, Threshold: -0.5, Message: "main capital outflow"},
		{Factor: factors.FactorSentimentScore, Op: scoring.OpGT, Threshold: 0.6, Message: "bullish sentiment"},
		{Factor: factors.FactorNewsHeat, Op: scoring.OpGT, Threshold: 80, Message: "news attention spike"},
		{Factor: factors.FactorVolatility20d, Op: scoring.OpGT, Threshold: 0.05, Message: "high 20-day volatility"},
		{Factor: factors.FactorRSI, Op: scoring.OpGT, Threshold: 70, Message: "RSI overbought"},
		{Factor: factors.FactorRSI, Op: scoring.OpLT, Threshold: 30, Message: "RSI oversold"},
		{Factor: factors.FactorMACD, Op: scoring.OpGT, Threshold: 0, Message: "MACD positive"},
		{Factor: factors.FactorBollingerPos, Op: scoring.OpGT, Threshold: 0.95, Message: "pressing upper Bollinger band"},
	}
}
