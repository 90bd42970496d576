package domain

import (
	"time"
)

// DashboardSummary holds the headline figures for the dashboard view,
// aggregated from the latest pipeline results
type DashboardSummary struct {
	TotalUpdatesToday int       `json:"total_updates_today"`
	MigrationAlerts   int       `json:"migration_alerts"`
	FraudFlags        int       `json:"fraud_flags"`
	ExclusionRisk     int       `json:"exclusion_risk"`
	LastUpdated       time.Time `json:"last_updated"`
}

// DailyReport is the cross-pipeline daily summary
type DailyReport struct {
	ReportDate  string             `json:"report_date"`
	Coverage    DailyCoverageStats `json:"coverage"`
	Mobility    DailyMobilityStats `json:"mobility"`
	Integrity   DailyIntegrityStat `json:"integrity"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// DailyCoverageStats is the gap-analysis slice of the daily report
type DailyCoverageStats struct {
	InvisibleChildren int `json:"invisible_children"`
	HighRiskDistricts int `json:"high_risk_districts"`
}

// DailyMobilityStats is the migration slice of the daily report
type DailyMobilityStats struct {
	ActiveCorridors int `json:"active_corridors"`
	VelocitySpikes  int `json:"velocity_spikes"`
}

// DailyIntegrityStat is the fraud slice of the daily report
type DailyIntegrityStat struct {
	AnomaliesDetected int `json:"anomalies_detected"`
	CriticalAlerts    int `json:"critical_alerts"`
}
