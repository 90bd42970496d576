package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YashwanthKamireddi/project-prerana/internal/scoring"
)

func TestResolveScorer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("no weights uses rule scorer", func(t *testing.T) {
		_, ok := resolveScorer("", logger).(*scoring.RuleScorer)
		assert.True(t, ok)
	})

	t.Run("unreadable weights fall back to rules", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.yaml")
		_, ok := resolveScorer(path, logger).(*scoring.RuleScorer)
		assert.True(t, ok)
	})

	t.Run("valid weights load the model", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "weights.yaml")
		model := `version: v4.2.0
gap:
  bias: 5
  gap_percentage: 0.9
cluster:
  bias: 10
  zscore: 8
  affected_log: 12
thresholds:
  medium: 40
  high: 60
  critical: 80
`
		require.NoError(t, os.WriteFile(path, []byte(model), 0o644))

		scorer, ok := resolveScorer(path, logger).(*scoring.ModelScorer)
		require.True(t, ok)
		assert.Equal(t, "v4.2.0", scorer.Version())
	})
}
