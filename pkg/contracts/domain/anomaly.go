package domain

import (
	"time"
)

// AnomalyCluster represents a statistically significant group of suspicious updates
type AnomalyCluster struct {
	ClusterID     string    `json:"cluster_id" validate:"required"`
	DetectionTime time.Time `json:"detection_time"`
	FraudType     FraudType `json:"fraud_type"`
	RiskLevel     RiskLevel `json:"risk_level"`
	AffectedCount int       `json:"affected_count"`
	ZScore        float64   `json:"z_score"`
	Confidence    float64   `json:"confidence"`

	// Demographics
	AgeRange      [2]int `json:"age_range"`
	PrimaryGender string `json:"primary_gender"`

	// Geography
	State           string   `json:"state"`
	GeographicScope []string `json:"geographic_scope"`

	// Pattern details
	UpdateType         string  `json:"update_type"`
	TimeWindowHours    int     `json:"time_window_hours"`
	VelocityMultiplier float64 `json:"velocity_multiplier"`

	// Correlation data
	CorrelatedEvents  []string `json:"correlated_events"`
	EnrollmentCenters []string `json:"enrollment_centers"`

	// Actions
	RecommendedAction  string `json:"recommended_action"`
	AutoFreezeEligible bool   `json:"auto_freeze_eligible"`
}

// CalendarEvent is a known external event that may drive fraudulent update waves
type CalendarEvent struct {
	EventID     string    `json:"event_id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
	FraudType   FraudType `json:"fraud_type"`
	AgeCriteria [2]int    `json:"age_criteria"`
}

// BaselineStats holds daily update-volume statistics used for anomaly scoring
type BaselineStats struct {
	TotalRecords   int                       `json:"total_records"`
	DailyMean      float64                   `json:"daily_mean"`
	DailyStd       float64                   `json:"daily_std"`
	LatestDayCount int                       `json:"latest_day_count"`
	ByUpdateType   map[string]UpdateTypeStat `json:"by_update_type"`
}

// UpdateTypeStat is the per-update-type slice of the baseline
type UpdateTypeStat struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// CenterRisk aggregates anomaly involvement for one enrollment center
type CenterRisk struct {
	CenterID     string `json:"center_id"`
	Location     string `json:"location"`
	AnomalyCount int    `json:"anomaly_count"`
	RiskScore    int    `json:"risk_score"`
}

// FraudAnalysisResult is the output of a full integrity sweep
type FraudAnalysisResult struct {
	Timestamp             time.Time         `json:"timestamp"`
	TotalUpdatesAnalyzed  int               `json:"total_updates_analyzed"`
	BaselineStatistics    BaselineStats     `json:"baseline_statistics"`
	DetectedAnomalies     []AnomalyCluster  `json:"detected_anomalies"`
	FraudTypeDistribution map[string]int    `json:"fraud_type_distribution"`
	HighRiskCenters       []CenterRisk      `json:"high_risk_centers"`
	ModelVersion          string            `json:"model_version"`
	ProcessingTimeMs      float64           `json:"processing_time_ms"`
}

// FreezeAction records a provisional 72-hour hold request against a cluster.
// It never mutates the underlying records; review is always required.
type FreezeAction struct {
	ClusterID           string    `json:"cluster_id" validate:"required"`
	AuthorizedBy        string    `json:"authorized_by" validate:"required"`
	Reason              string    `json:"reason" validate:"required"`
	Timestamp           time.Time `json:"timestamp"`
	AffectedRecords     int       `json:"affected_records"`
	FreezeDurationHours int       `json:"freeze_duration_hours"`
	ReviewRequired      bool      `json:"review_required"`
}
