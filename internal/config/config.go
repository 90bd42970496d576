package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Data      DataConfig      `yaml:"data" envconfig:"DATA"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Scheduler SchedulerConfig `yaml:"scheduler" envconfig:"SCHEDULER"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// DataConfig contains the dataset directory layout
type DataConfig struct {
	BaseDir          string `yaml:"base_dir" envconfig:"BASE_DIR" default:"data"`
	EnrolmentDir     string `yaml:"enrolment_dir" envconfig:"ENROLMENT_DIR" default:"api_data_aadhar_enrolment"`
	DemographicDir   string `yaml:"demographic_dir" envconfig:"DEMOGRAPHIC_DIR" default:"api_data_aadhar_demographic"`
	BiometricDir     string `yaml:"biometric_dir" envconfig:"BIOMETRIC_DIR" default:"api_data_aadhar_biometric"`
	ReportsDir       string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"reports"`
	ModelWeightsFile string `yaml:"model_weights_file" envconfig:"MODEL_WEIGHTS_FILE"`
}

// AnalysisConfig contains the statistical analysis parameters
type AnalysisConfig struct {
	ZScoreThreshold     float64       `yaml:"zscore_threshold" envconfig:"ZSCORE_THRESHOLD" default:"3.0"`
	LookbackDays        int           `yaml:"lookback_days" envconfig:"LOOKBACK_DAYS" default:"30"`
	VelocityThreshold   float64       `yaml:"velocity_threshold" envconfig:"VELOCITY_THRESHOLD" default:"200"`
	CacheTTL            time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL" default:"1h"`
	Workers             int           `yaml:"workers" envconfig:"WORKERS" default:"4"`
	EstimatedPopulation int           `yaml:"estimated_population" envconfig:"ESTIMATED_POPULATION" default:"50000"`
	MinClusterSize      int           `yaml:"min_cluster_size" envconfig:"MIN_CLUSTER_SIZE" default:"50"`
}

// SchedulerConfig contains the background refresh schedules
type SchedulerConfig struct {
	Enabled       bool   `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	SweepSchedule string `yaml:"sweep_schedule" envconfig:"SWEEP_SCHEDULE" default:"@every 10m"`
	WarmSchedule  string `yaml:"warm_schedule" envconfig:"WARM_SCHEDULE" default:"@every 1h"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process("PRERANA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	configFile := getConfigFilePath()
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Server.ReadTimeout == 0 {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if envConfig.Server.WriteTimeout == 0 {
		envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if envConfig.Data.BaseDir == "" {
		envConfig.Data.BaseDir = fileConfig.Data.BaseDir
	}
	if envConfig.Data.ModelWeightsFile == "" {
		envConfig.Data.ModelWeightsFile = fileConfig.Data.ModelWeightsFile
	}
	if envConfig.Analysis.ZScoreThreshold == 0 {
		envConfig.Analysis.ZScoreThreshold = fileConfig.Analysis.ZScoreThreshold
	}
	if envConfig.Analysis.LookbackDays == 0 {
		envConfig.Analysis.LookbackDays = fileConfig.Analysis.LookbackDays
	}
	if envConfig.Analysis.CacheTTL == 0 {
		envConfig.Analysis.CacheTTL = fileConfig.Analysis.CacheTTL
	}
	if envConfig.Scheduler.SweepSchedule == "" {
		envConfig.Scheduler.SweepSchedule = fileConfig.Scheduler.SweepSchedule
	}
	if envConfig.Scheduler.WarmSchedule == "" {
		envConfig.Scheduler.WarmSchedule = fileConfig.Scheduler.WarmSchedule
	}

	return envConfig
}

// EnrolmentPath returns the resolved enrollment data directory
func (c *Config) EnrolmentPath() string {
	return c.resolveDataPath(c.Data.EnrolmentDir)
}

// DemographicPath returns the resolved demographic update data directory
func (c *Config) DemographicPath() string {
	return c.resolveDataPath(c.Data.DemographicDir)
}

// BiometricPath returns the resolved biometric update data directory
func (c *Config) BiometricPath() string {
	return c.resolveDataPath(c.Data.BiometricDir)
}

// ReportsPath returns the resolved report output directory
func (c *Config) ReportsPath() string {
	return c.resolveDataPath(c.Data.ReportsDir)
}

func (c *Config) resolveDataPath(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.Data.BaseDir, dir)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Analysis.ZScoreThreshold <= 0 {
		return fmt.Errorf("zscore threshold must be positive, got %f", c.Analysis.ZScoreThreshold)
	}

	if c.Analysis.LookbackDays < 1 {
		return fmt.Errorf("lookback days must be at least 1, got %d", c.Analysis.LookbackDays)
	}

	if c.Analysis.VelocityThreshold <= 0 {
		return fmt.Errorf("velocity threshold must be positive, got %f", c.Analysis.VelocityThreshold)
	}

	if c.Analysis.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}

	if c.Analysis.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Analysis.Workers)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Data: DataConfig{
			BaseDir:        "data",
			EnrolmentDir:   DefaultEnrolmentDir,
			DemographicDir: DefaultDemographicDir,
			BiometricDir:   DefaultBiometricDir,
			ReportsDir:     DefaultReportsDir,
		},
		Analysis: AnalysisConfig{
			ZScoreThreshold:     DefaultZScoreThreshold,
			LookbackDays:        DefaultLookbackDays,
			VelocityThreshold:   DefaultVelocityThreshold,
			CacheTTL:            DefaultCacheTTL,
			Workers:             DefaultWorkers,
			EstimatedPopulation: DefaultEstimatedPopulation,
			MinClusterSize:      DefaultMinClusterSize,
		},
		Scheduler: SchedulerConfig{
			Enabled:       true,
			SweepSchedule: "@every 10m",
			WarmSchedule:  "@every 1h",
		},
	}
}
