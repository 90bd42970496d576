package scoring

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/YashwanthKamireddi/project-prerana/pkg/contracts/domain"
)

// modelConfig is the on-disk shape of a trained linear scoring model.
type modelConfig struct {
	Version string `yaml:"version"`

	Gap struct {
		Bias          float64 `yaml:"bias"`
		GapPercentage float64 `yaml:"gap_percentage"`
	} `yaml:"gap"`

	Cluster struct {
		Bias        float64            `yaml:"bias"`
		ZScore      float64            `yaml:"zscore"`
		AffectedLog float64            `yaml:"affected_log"`
		FraudType   map[string]float64 `yaml:"fraud_type"`
	} `yaml:"cluster"`

	Thresholds struct {
		Medium   float64 `yaml:"medium"`
		High     float64 `yaml:"high"`
		Critical float64 `yaml:"critical"`
	} `yaml:"thresholds"`
}

func (c *modelConfig) validate() error {
	t := c.Thresholds
	if t.Medium <= 0 || t.High <= t.Medium || t.Critical <= t.High {
		return fmt.Errorf("thresholds must be ascending and positive, got medium=%.1f high=%.1f critical=%.1f",
			t.Medium, t.High, t.Critical)
	}
	if c.Gap.GapPercentage == 0 && c.Cluster.ZScore == 0 && c.Cluster.AffectedLog == 0 {
		return fmt.Errorf("model carries no non-zero weights")
	}
	return nil
}

// ModelScorer scores with linear weights loaded from a YAML model file.
// Construction fails on a missing or invalid file so callers can fall back
// to NewRuleScorer.
type ModelScorer struct {
	cfg modelConfig
}

// NewModelScorer loads and validates the model weights at path.
func NewModelScorer(path string) (*ModelScorer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scoring model: %w", err)
	}

	var cfg modelConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse scoring model %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring model %s: %w", path, err)
	}

	return &ModelScorer{cfg: cfg}, nil
}

// Version reports the loaded model version string.
func (s *ModelScorer) Version() string {
	return s.cfg.Version
}

// ScoreGap applies the gap weights and maps the result onto the same
// taxonomy as the rule tables.
func (s *ModelScorer) ScoreGap(gapPercentage float64) domain.RiskLevel {
	score := s.cfg.Gap.Bias + s.cfg.Gap.GapPercentage*gapPercentage
	return s.level(clamp(score))
}

// ScoreCluster applies the cluster weights. Affected counts enter through
// log10 so large cohorts do not dominate the linear term.
func (s *ModelScorer) ScoreCluster(zScore float64, affectedCount int, fraudType domain.FraudType) (int, domain.RiskLevel) {
	score := s.cfg.Cluster.Bias +
		s.cfg.Cluster.ZScore*zScore +
		s.cfg.Cluster.AffectedLog*math.Log10(float64(affectedCount)+1) +
		s.cfg.Cluster.FraudType[fraudType.String()]

	score = clamp(score)
	return int(math.Round(score)), s.level(score)
}

func (s *ModelScorer) level(score float64) domain.RiskLevel {
	t := s.cfg.Thresholds
	switch {
	case score >= t.Critical:
		return domain.RiskLevelCritical
	case score >= t.High:
		return domain.RiskLevelHigh
	case score >= t.Medium:
		return domain.RiskLevelMedium
	default:
		return domain.RiskLevelLow
	}
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
