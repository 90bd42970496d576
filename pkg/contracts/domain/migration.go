package domain

import (
	"time"
)

// VelocitySpike represents an abnormal surge of address updates in one pincode
type VelocitySpike struct {
	Pincode            string    `json:"pincode"`
	City               string    `json:"city"`
	State              string    `json:"state"`
	CurrentVelocity    float64   `json:"current_velocity"`
	BaselineVelocity   float64   `json:"baseline_velocity"`
	SpikePercentage    float64   `json:"spike_percentage"`
	AffectedPopulation int       `json:"affected_population"`
	DetectionTime      time.Time `json:"detection_time"`
	PredictedPeak      time.Time `json:"predicted_peak"`
	ConfidenceScore    float64   `json:"confidence_score"`
}

// MigrationCorridor represents a recurring source-to-destination relocation route
type MigrationCorridor struct {
	SourceState           string         `json:"source_state"`
	SourceDistricts       []string       `json:"source_districts"`
	DestinationCity       string         `json:"destination_city"`
	DestinationState      string         `json:"destination_state"`
	DestinationPincode    string         `json:"destination_pincode"`
	MigrantCount          int            `json:"migrant_count"`
	VelocityChangePercent float64        `json:"velocity_change_percent"`
	PrimaryDemographic    string         `json:"primary_demographic"`
	Trend                 TrendDirection `json:"trend"`
}

// InfrastructureAlert is a municipal stress prediction derived from a
// velocity spike, for forwarding to civic planning teams
type InfrastructureAlert struct {
	Category string    `json:"category"`
	Severity RiskLevel `json:"severity"`
	Message  string    `json:"message"`
	Action   string    `json:"action"`
}

// VelocityProjection is one step of a short-horizon velocity forecast
type VelocityProjection struct {
	HoursAhead int     `json:"hours_ahead"`
	Velocity   float64 `json:"velocity"`
}

// MigrationAnalysisResult is the output of a full mobility sweep
type MigrationAnalysisResult struct {
	Timestamp              time.Time            `json:"timestamp"`
	TotalCorridorsAnalyzed int                  `json:"total_corridors_analyzed"`
	ActiveSpikes           []VelocitySpike      `json:"active_spikes"`
	TopCorridors           []MigrationCorridor  `json:"top_corridors"`
	StateInflow            map[string]int       `json:"state_inflow"`
	StateOutflow           map[string]int       `json:"state_outflow"`
	Predictions48h         []VelocityProjection `json:"predictions_48h"`
	ModelVersion           string               `json:"model_version"`
	ProcessingTimeMs       float64              `json:"processing_time_ms"`
}
