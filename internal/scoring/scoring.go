// Package scoring assigns risk levels to coverage gaps and anomaly
// clusters. RuleScorer carries the deterministic rule tables; ModelScorer
// loads tuned linear weights from a YAML file and falls back to the rules
// when the file is absent or invalid.
package scoring

import (
	"github.com/YashwanthKamireddi/project-prerana/pkg/contracts/domain"
)

// RiskScorer scores gap percentages and anomaly clusters onto the shared
// risk-level taxonomy.
type RiskScorer interface {
	// ScoreGap maps a coverage-gap percentage to a risk level.
	ScoreGap(gapPercentage float64) domain.RiskLevel
	// ScoreCluster scores an anomaly cluster from its z-score, affected
	// record count and classified fraud type. Returns the 0-100 score and
	// the derived level.
	ScoreCluster(zScore float64, affectedCount int, fraudType domain.FraudType) (int, domain.RiskLevel)
}

// RuleScorer is the deterministic scorer used when no model is configured.
type RuleScorer struct{}

// NewRuleScorer returns the rule-table scorer.
func NewRuleScorer() *RuleScorer {
	return &RuleScorer{}
}

// ScoreGap buckets the gap percentage: below 30 low, below 50 medium,
// below 70 high, otherwise critical.
func (s *RuleScorer) ScoreGap(gapPercentage float64) domain.RiskLevel {
	switch {
	case gapPercentage < 30:
		return domain.RiskLevelLow
	case gapPercentage < 50:
		return domain.RiskLevelMedium
	case gapPercentage < 70:
		return domain.RiskLevelHigh
	default:
		return domain.RiskLevelCritical
	}
}

// ScoreCluster accumulates score from the deviation magnitude, the cluster
// size and the fraud pattern, then maps the total onto a level.
func (s *RuleScorer) ScoreCluster(zScore float64, affectedCount int, fraudType domain.FraudType) (int, domain.RiskLevel) {
	score := 0

	switch {
	case zScore > 5:
		score += 40
	case zScore > 4:
		score += 30
	case zScore > 3:
		score += 20
	}

	switch {
	case affectedCount > 1000:
		score += 30
	case affectedCount > 500:
		score += 20
	case affectedCount > 100:
		score += 10
	}

	switch fraudType {
	case domain.FraudTypeRecruitment:
		score += 20
	case domain.FraudTypeBenefit:
		score += 15
	case domain.FraudTypeIdentityTheft, domain.FraudTypeSyntheticIdentity,
		domain.FraudTypeElection, domain.FraudTypeUnknown:
		// No additional weight.
	}

	return score, clusterLevel(float64(score))
}

// clusterLevel maps an accumulated cluster score onto the taxonomy:
// 70 critical, 50 high, 30 medium.
func clusterLevel(score float64) domain.RiskLevel {
	switch {
	case score >= 70:
		return domain.RiskLevelCritical
	case score >= 50:
		return domain.RiskLevelHigh
	case score >= 30:
		return domain.RiskLevelMedium
	default:
		return domain.RiskLevelLow
	}
}
