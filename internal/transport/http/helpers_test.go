package http

import (
	"io"
	"log/slog"
	"time"

	apierrors "github.com/YashwanthKamireddi/project-prerana/internal/errors"
	"github.com/YashwanthKamireddi/project-prerana/internal/middleware"
	"github.com/YashwanthKamireddi/project-prerana/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newErrorHandler() *apierrors.ErrorHandler {
	return apierrors.NewErrorHandler(testLogger(), false)
}

func newValidation() *middleware.ValidationMiddleware {
	return middleware.NewValidationMiddleware(testLogger(), newErrorHandler())
}

var testStamp = time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC)

func sampleGapResult() *domain.GapAnalysisResult {
	return &domain.GapAnalysisResult{
		Timestamp:              testStamp,
		TotalDistrictsAnalyzed: 2,
		TotalInvisibleChildren: 2600,
		HighRiskDistricts: []domain.CoverageGap{
			{
				District:          "Gaya",
				State:             "Bihar",
				TotalEnrollments:  4000,
				BiometricUpdates:  1400,
				GapCount:          2600,
				GapPercentage:     65.0,
				AvgChildAge:       1.2,
				CriticalPincodes:  []string{"823001", "823002"},
				RiskLevel:         domain.RiskLevelCritical,
				RecommendedAction: "URGENT: Deploy 3+ Mobile Aadhaar Vans to Gaya.",
			},
		},
		StateSummary: map[string]domain.StateGapSummary{
			"Bihar": {TotalDistricts: 2, TotalGap: 2600, CriticalDistricts: 1},
		},
		ModelVersion:     "v2.1.0",
		ProcessingTimeMs: 12.5,
	}
}

func sampleFraudResult() *domain.FraudAnalysisResult {
	return &domain.FraudAnalysisResult{
		Timestamp:            testStamp.Add(2 * time.Minute),
		TotalUpdatesAnalyzed: 2510,
		BaselineStatistics: domain.BaselineStats{
			TotalRecords:   2510,
			DailyMean:      42.0,
			DailyStd:       6.5,
			LatestDayCount: 4200,
		},
		DetectedAnomalies: []domain.AnomalyCluster{
			{
				ClusterID:     "ANOM-2026-ABCD1234",
				DetectionTime: testStamp,
				FraudType:     domain.FraudTypeRecruitment,
				RiskLevel:     domain.RiskLevelCritical,
				AffectedCount: 1200,
				ZScore:        5.6,
				Confidence:    0.99,
				State:         "Gujarat",
				UpdateType:    "DOB",
			},
			{
				ClusterID:     "ANOM-2026-EFGH5678",
				DetectionTime: testStamp,
				FraudType:     domain.FraudTypeBenefit,
				RiskLevel:     domain.RiskLevelMedium,
				AffectedCount: 180,
				ZScore:        2.4,
				Confidence:    0.80,
				State:         "Bihar",
				UpdateType:    "Address",
			},
		},
		FraudTypeDistribution: map[string]int{"recruitment_fraud": 1, "benefit_fraud": 1},
		ModelVersion:          "v3.2.1",
		ProcessingTimeMs:      9.25,
	}
}

func sampleMigrationResult() *domain.MigrationAnalysisResult {
	return &domain.MigrationAnalysisResult{
		Timestamp:              testStamp.Add(time.Minute),
		TotalCorridorsAnalyzed: 3,
		ActiveSpikes: []domain.VelocitySpike{
			{
				Pincode:          "400001",
				City:             "Mumbai",
				State:            "Maharashtra",
				CurrentVelocity:  0.17,
				BaselineVelocity: 0.02,
				SpikePercentage:  757.1,
				ConfidenceScore:  0.53,
			},
		},
		TopCorridors: []domain.MigrationCorridor{
			{
				SourceState:           "Bihar",
				SourceDistricts:       []string{"Patna", "Darbhanga"},
				DestinationCity:       "Mumbai",
				DestinationState:      "Maharashtra",
				DestinationPincode:    "400001",
				MigrantCount:          180,
				VelocityChangePercent: 5.9,
				PrimaryDemographic:    "Male 25-34",
				Trend:                 domain.TrendStable,
			},
		},
		StateInflow:      map[string]int{"Maharashtra": 220},
		StateOutflow:     map[string]int{"Bihar": 205},
		Predictions48h:   []domain.VelocityProjection{{HoursAhead: 24, Velocity: 2.03}, {HoursAhead: 48, Velocity: 2.23}},
		ModelVersion:     "v1.8.2",
		ProcessingTimeMs: 31.0,
	}
}
