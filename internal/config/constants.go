package config

import "time"

// Application constants for the Prerana analytics service
const (
	// Application Info
	AppName    = "Prerana Analytics"
	AppVersion = "1.2.0"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per minute
	DefaultBurstSize = 50

	// Default dataset directories (relative to the data base dir)
	DefaultEnrolmentDir   = "api_data_aadhar_enrolment"
	DefaultDemographicDir = "api_data_aadhar_demographic"
	DefaultBiometricDir   = "api_data_aadhar_biometric"
	DefaultReportsDir     = "reports"

	// Cache Settings
	DefaultCacheTTL = time.Hour
	PincodeCacheTTL = 30 * time.Minute
	AnomalyCacheTTL = 10 * time.Minute

	// Analysis Defaults
	DefaultZScoreThreshold     = 3.0
	DefaultLookbackDays        = 30
	DefaultVelocityThreshold   = 200.0
	DefaultWorkers             = 4
	DefaultEstimatedPopulation = 50000
	DefaultMinClusterSize      = 50
)
