package domain

// RiskLevel represents the assessed severity of a coverage gap or anomaly cluster
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// String returns the wire representation of the risk level
func (r RiskLevel) String() string {
	return string(r)
}

// IsValid checks if the risk level is a known value
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical:
		return true
	}
	return false
}

// Rank returns the ordering of the risk level, higher means more severe
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLevelLow:
		return 1
	case RiskLevelMedium:
		return 2
	case RiskLevelHigh:
		return 3
	case RiskLevelCritical:
		return 4
	}
	return 0
}

// FraudType represents the classified pattern behind an anomaly cluster
type FraudType string

const (
	FraudTypeRecruitment       FraudType = "recruitment_fraud"
	FraudTypeIdentityTheft     FraudType = "identity_theft"
	FraudTypeSyntheticIdentity FraudType = "synthetic_identity"
	FraudTypeBenefit           FraudType = "benefit_fraud"
	FraudTypeElection          FraudType = "election_manipulation"
	FraudTypeUnknown           FraudType = "unknown"
)

// String returns the wire representation of the fraud type
func (f FraudType) String() string {
	return string(f)
}

// IsValid checks if the fraud type is a known value
func (f FraudType) IsValid() bool {
	switch f {
	case FraudTypeRecruitment, FraudTypeIdentityTheft, FraudTypeSyntheticIdentity,
		FraudTypeBenefit, FraudTypeElection, FraudTypeUnknown:
		return true
	}
	return false
}

// TrendDirection classifies the slope of a velocity series
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "INCREASING"
	TrendStable     TrendDirection = "STABLE"
	TrendDecreasing TrendDirection = "DECREASING"
)

// String returns the wire representation of the trend direction
func (t TrendDirection) String() string {
	return string(t)
}

// IsValid checks if the trend direction is a known value
func (t TrendDirection) IsValid() bool {
	switch t {
	case TrendIncreasing, TrendStable, TrendDecreasing:
		return true
	}
	return false
}
