package http

import (
	"context"

	"github.com/YashwanthKamireddi/project-prerana/pkg/contracts/domain"
)

// GapService defines the coverage-gap operations the handlers expose
type GapService interface {
	AnalyzeAllDistricts(ctx context.Context) (*domain.GapAnalysisResult, error)
	AnalyzeDistrict(ctx context.Context, state, district string) (*domain.CoverageGap, error)
	PlanDeployment(ctx context.Context, state string, maxUnits int) ([]domain.DeploymentUnit, error)
}

// FraudService defines the integrity operations the handlers expose
type FraudService interface {
	Analyze(ctx context.Context) (*domain.FraudAnalysisResult, error)
	DetectAnomalies(ctx context.Context, updateType, state string) ([]domain.AnomalyCluster, error)
	FreezeCohort(ctx context.Context, clusterID, authorizedBy, reason string) (*domain.FreezeAction, error)
}

// MigrationService defines the mobility operations the handlers expose
type MigrationService interface {
	Analyze(ctx context.Context) (*domain.MigrationAnalysisResult, error)
	DetectCorridors(ctx context.Context) ([]domain.MigrationCorridor, error)
	AnalyzePincode(ctx context.Context, pincode string) (*domain.VelocitySpike, error)
}
