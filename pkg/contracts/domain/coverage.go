package domain

import (
	"time"
)

// CoverageGap represents the enrollment-to-update shortfall for one district.
// GapCount is never negative and never exceeds TotalEnrollments.
type CoverageGap struct {
	District          string    `json:"district" validate:"required"`
	State             string    `json:"state" validate:"required"`
	TotalEnrollments  int       `json:"total_enrollments"`
	BiometricUpdates  int       `json:"biometric_updates"`
	GapCount          int       `json:"gap_count"`
	GapPercentage     float64   `json:"gap_percentage"`
	AvgChildAge       float64   `json:"avg_child_age"`
	CriticalPincodes  []string  `json:"critical_pincodes"`
	RiskLevel         RiskLevel `json:"risk_level"`
	RecommendedAction string    `json:"recommended_action"`
}

// StateGapSummary aggregates district gaps at the state level
type StateGapSummary struct {
	TotalDistricts    int `json:"total_districts"`
	TotalGap          int `json:"total_gap"`
	CriticalDistricts int `json:"critical_districts"`
}

// GapAnalysisResult is the output of a full district sweep
type GapAnalysisResult struct {
	Timestamp              time.Time                  `json:"timestamp"`
	TotalDistrictsAnalyzed int                        `json:"total_districts_analyzed"`
	TotalInvisibleChildren int                        `json:"total_invisible_children"`
	HighRiskDistricts      []CoverageGap              `json:"high_risk_districts"`
	StateSummary           map[string]StateGapSummary `json:"state_summary"`
	ModelVersion           string                     `json:"model_version"`
	ProcessingTimeMs       float64                    `json:"processing_time_ms"`
}

// DeploymentUnit is one mobile enrollment van assignment within a state plan
type DeploymentUnit struct {
	Priority          int      `json:"priority"`
	District          string   `json:"district"`
	Pincodes          []string `json:"pincodes"`
	EstimatedChildren int      `json:"estimated_children"`
	RecommendedDays   int      `json:"recommended_days"`
	EquipmentNeeded   []string `json:"equipment_needed"`
}
