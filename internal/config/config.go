package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Kevinwu901113/stock-pre-sub000/internal/factors"
	"github.com/Kevinwu901113/stock-pre-sub000/internal/fusion"
	"github.com/Kevinwu901113/stock-pre-sub000/internal/ranking"
	"github.com/Kevinwu901113/stock-pre-sub000/internal/scoring"
)

// Config is the complete immutable engine configuration: constructed once,
// validated once, then passed by value into every engine call. There is no
// process-wide mutable configuration state.
type Config struct {
	Method   fusion.Method           `yaml:"method"`
	Fusion   fusion.Params           `yaml:"fusion"`
	Weights  scoring.WeightTable     `yaml:"weights"`
	Rules    []scoring.RationaleRule `yaml:"rationale_rules"`
	TopN     int                     `yaml:"top_n"`
	Validity ranking.ValidityRules   `yaml:"validity"`
	Outliers factors.OutlierConfig   `yaml:"outliers"`
}

// Default returns the built-in configuration mirroring the factor
// vocabulary.
func Default() Config {
	return Config{
		Method:   fusion.MethodWeightedAverage,
		Fusion:   fusion.DefaultParams(),
		Weights:  defaultWeightTable(),
		Rules:    defaultRationaleRules(),
		TopN:     10,
		Validity: ranking.DefaultValidityRules(),
		Outliers: factors.DefaultOutlierConfig(),
	}
}

// Load builds the configuration from an optional YAML file plus environment
// overrides. A missing path means defaults plus environment. Any
// inconsistency fails here, before per-stock work can begin.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv layers environment overrides over the loaded values. Unparsable
// numeric values keep the configured default; the fusion method is held to a
// stricter standard because a typo would silently change ranking behavior.
func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv("STOCKPRE_FUSION_METHOD")); v != "" {
		method, err := fusion.ParseMethod(v)
		if err != nil {
			return fmt.Errorf("STOCKPRE_FUSION_METHOD: %w", err)
		}
		cfg.Method = method
	}
	if v := strings.TrimSpace(os.Getenv("STOCKPRE_TOP_N")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TopN = n
		}
	}
	envFloat("STOCKPRE_ML_WEIGHT", &cfg.Fusion.MLWeight)
	envFloat("STOCKPRE_FACTOR_WEIGHT", &cfg.Fusion.FactorWeight)
	envFloat("STOCKPRE_ML_THRESHOLD", &cfg.Fusion.MLThreshold)
	envFloat("STOCKPRE_FACTOR_THRESHOLD", &cfg.Fusion.FactorThreshold)
	envFloat("STOCKPRE_FACTOR_BOOST", &cfg.Fusion.FactorBoost)
	envFloat("STOCKPRE_BASE_WEIGHT", &cfg.Fusion.BaseWeight)
	envFloat("STOCKPRE_CONSENSUS_BONUS", &cfg.Fusion.ConsensusBonus)
	envFloat("STOCKPRE_CONFIDENCE_THRESHOLD", &cfg.Fusion.ConfidenceThreshold)
	envFloat("STOCKPRE_RISK_THRESHOLD", &cfg.Fusion.RiskThreshold)
	return nil
}

func envFloat(key string, dst *float64) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

// Validate checks every section. It is the single gate between configuration
// input and the hot path.
func (c Config) Validate() error {
	if _, err := fusion.ParseMethod(string(c.Method)); err != nil {
		return err
	}
	if err := c.Fusion.Validate(); err != nil {
		return err
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	for _, rule := range c.Rules {
		if _, err := scoring.ParseCompareOp(string(rule.Op)); err != nil {
			return fmt.Errorf("rationale rule for %s: %w", rule.Factor, err)
		}
		if rule.Factor == "" {
			return fmt.Errorf("rationale rule with empty factor")
		}
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top_n must be positive, got %d", c.TopN)
	}
	if _, err := ranking.ParseScoreSource(string(c.Validity.ScoreSource)); err != nil {
		return err
	}
	if c.Validity.MaxAbsDayChangePct <= 0 {
		return fmt.Errorf("max_abs_day_change_pct must be positive")
	}
	return nil
}
