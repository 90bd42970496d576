package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YashwanthKamireddi/project-prerana/pkg/contracts/domain"
)

func TestRuleScorerGapBoundaries(t *testing.T) {
	s := NewRuleScorer()

	tests := []struct {
		pct  float64
		want domain.RiskLevel
	}{
		{0, domain.RiskLevelLow},
		{29.9, domain.RiskLevelLow},
		{30, domain.RiskLevelMedium},
		{49.9, domain.RiskLevelMedium},
		{50, domain.RiskLevelHigh},
		{69.9, domain.RiskLevelHigh},
		{70, domain.RiskLevelCritical},
		{100, domain.RiskLevelCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, s.ScoreGap(tt.pct), "gap %.1f%%", tt.pct)
	}
}

func TestRuleScorerCluster(t *testing.T) {
	s := NewRuleScorer()

	tests := []struct {
		name      string
		z         float64
		affected  int
		fraudType domain.FraudType
		wantScore int
		wantLevel domain.RiskLevel
	}{
		{
			name: "recruitment_surge_critical",
			// 40 (z>5) + 30 (>1000) + 20 (recruitment) = 90
			z: 5.5, affected: 3400, fraudType: domain.FraudTypeRecruitment,
			wantScore: 90, wantLevel: domain.RiskLevelCritical,
		},
		{
			name: "mid_sized_benefit_high",
			// 30 (z>4) + 20 (>500) + 15 (benefit) = 65
			z: 4.7, affected: 600, fraudType: domain.FraudTypeBenefit,
			wantScore: 65, wantLevel: domain.RiskLevelHigh,
		},
		{
			name: "small_unknown_medium",
			// 20 (z>3) + 10 (>100) = 30
			z: 3.2, affected: 150, fraudType: domain.FraudTypeUnknown,
			wantScore: 30, wantLevel: domain.RiskLevelMedium,
		},
		{
			name: "below_all_thresholds_low",
			z:    2.5, affected: 40, fraudType: domain.FraudTypeUnknown,
			wantScore: 0, wantLevel: domain.RiskLevelLow,
		},
		{
			name: "election_gets_no_type_bonus",
			// 20 (z>3) + 10 (>100) = 30
			z: 3.5, affected: 200, fraudType: domain.FraudTypeElection,
			wantScore: 30, wantLevel: domain.RiskLevelMedium,
		},
		{
			name: "boundary_z_exactly_5_scores_as_gt4",
			// 30 (z>4 branch: 5 is not >5) + 30 + 20 = 80
			z: 5.0, affected: 1500, fraudType: domain.FraudTypeRecruitment,
			wantScore: 80, wantLevel: domain.RiskLevelCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, level := s.ScoreCluster(tt.z, tt.affected, tt.fraudType)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantLevel, level)
		})
	}
}

func writeModel(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestModelScorerLoadsWeights(t *testing.T) {
	path := writeModel(t, `
version: v1.2.0
gap:
  bias: 0
  gap_percentage: 1.0
cluster:
  bias: 0
  zscore: 10.0
  affected_log: 8.0
  fraud_type:
    recruitment_fraud: 20
    benefit_fraud: 15
thresholds:
  medium: 30
  high: 50
  critical: 70
`)

	s, err := NewModelScorer(path)
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", s.Version())

	// Identity gap weights reproduce the rule-table boundaries.
	assert.Equal(t, domain.RiskLevelLow, s.ScoreGap(29.9))
	assert.Equal(t, domain.RiskLevelMedium, s.ScoreGap(30))
	assert.Equal(t, domain.RiskLevelHigh, s.ScoreGap(50))
	assert.Equal(t, domain.RiskLevelCritical, s.ScoreGap(70))

	// 10*4.7 + 8*log10(3401) + 20 = 47 + 28.26 + 20 = 95.26 -> critical.
	score, level := s.ScoreCluster(4.7, 3400, domain.FraudTypeRecruitment)
	assert.Equal(t, 95, score)
	assert.Equal(t, domain.RiskLevelCritical, level)

	// Scores clamp to the 0-100 band.
	score, _ = s.ScoreCluster(50, 1_000_000, domain.FraudTypeRecruitment)
	assert.Equal(t, 100, score)
}

func TestModelScorerMissingFile(t *testing.T) {
	_, err := NewModelScorer(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err, "missing model file must fail construction so callers fall back")
}

func TestModelScorerInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed_yaml", "gap: ["},
		{"descending_thresholds", `
gap:
  gap_percentage: 1.0
thresholds:
  medium: 70
  high: 50
  critical: 30
`},
		{"all_zero_weights", `
thresholds:
  medium: 30
  high: 50
  critical: 70
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModelScorer(writeModel(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestScorersSatisfyInterface(t *testing.T) {
	var _ RiskScorer = NewRuleScorer()
	var _ RiskScorer = &ModelScorer{}
}
