package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/YashwanthKamireddi/project-prerana/internal/cache"
	"github.com/YashwanthKamireddi/project-prerana/internal/config"
	"github.com/YashwanthKamireddi/project-prerana/internal/dataset"
	"github.com/YashwanthKamireddi/project-prerana/internal/exporter"
	"github.com/YashwanthKamireddi/project-prerana/internal/fraud"
	"github.com/YashwanthKamireddi/project-prerana/internal/gap"
	"github.com/YashwanthKamireddi/project-prerana/internal/infrastructure"
	"github.com/YashwanthKamireddi/project-prerana/internal/migration"
	"github.com/YashwanthKamireddi/project-prerana/internal/scoring"
	"github.com/YashwanthKamireddi/project-prerana/internal/validation"
	"github.com/YashwanthKamireddi/project-prerana/pkg/contracts/domain"
)

func main() {
	dataDir := flag.String("data", "data", "base directory containing the Aadhaar data drops")
	outputDir := flag.String("out", "", "output directory for reports (defaults to <data>/reports)")
	formatName := flag.String("format", "xlsx", "report format: csv, xlsx or json")
	modelPath := flag.String("model", "", "optional YAML model weights for risk scoring")
	stateFiles := flag.Bool("state-files", true, "write per-state district CSV files for field teams")
	flag.Parse()

	format, err := exporter.ParseFormat(*formatName)
	if err != nil {
		slog.Error("Invalid report format", "error", err)
		os.Exit(1)
	}

	// Use default output directory if not specified
	if *outputDir == "" {
		*outputDir = filepath.Join(*dataDir, config.DefaultReportsDir)
	}

	// One trace ID per run so the three pipeline sweeps correlate in the logs
	ctx := infrastructure.ContextWithTraceID(context.Background())
	logger := slog.Default().With("run_id", infrastructure.GetTraceID(ctx))

	checker := validation.NewDropValidator(logger)
	missing, err := checker.ValidateDataLayout(*dataDir,
		config.DefaultEnrolmentDir,
		config.DefaultDemographicDir,
		config.DefaultBiometricDir,
	)
	if err != nil {
		logger.Error("Data directory not usable",
			"path", *dataDir,
			"error", err,
			"hint", "Point -data at the directory holding the api_data_aadhar_* drops")
		os.Exit(1)
	}
	if len(missing) > 0 {
		logger.Warn("Missing data drops, affected engines will see empty datasets",
			"missing", missing)
	}

	if err := checker.ValidateReportsDir(*outputDir); err != nil {
		logger.Error("Reports directory not writable", "error", err)
		os.Exit(1)
	}

	analysisCfg := config.Default().Analysis

	// Wire the engines the same way the server does, minus telemetry
	scorer := resolveScorer(*modelPath, logger)
	loader := dataset.NewLoader(*dataDir, analysisCfg.Workers, logger, nil)
	results := cache.New(logger, nil)

	gaps := gap.NewService(loader, results, scorer, analysisCfg.CacheTTL, logger, nil)
	integrity := fraud.NewService(loader, results, scorer, analysisCfg, logger, nil)
	mobility := migration.NewService(loader, results, analysisCfg, logger, nil)

	logger.Info("Running coverage gap analysis...")
	gapResult, err := gaps.AnalyzeAllDistricts(ctx)
	if err != nil {
		logger.Error("Coverage gap analysis failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Coverage gap analysis complete",
		"districts", gapResult.TotalDistrictsAnalyzed,
		"invisible_children", gapResult.TotalInvisibleChildren,
		"high_risk", len(gapResult.HighRiskDistricts))

	logger.Info("Running update integrity analysis...")
	fraudResult, err := integrity.Analyze(ctx)
	if err != nil {
		logger.Error("Update integrity analysis failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Update integrity analysis complete",
		"updates", fraudResult.TotalUpdatesAnalyzed,
		"clusters", len(fraudResult.DetectedAnomalies))

	logger.Info("Running migration velocity analysis...")
	migrationResult, err := mobility.Analyze(ctx)
	if err != nil {
		logger.Error("Migration velocity analysis failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Migration velocity analysis complete",
		"corridors", migrationResult.TotalCorridorsAnalyzed,
		"spikes", len(migrationResult.ActiveSpikes))

	reports := exporter.NewReportExporter(*outputDir, logger)

	written := make([]string, 0, 4)

	path, err := reports.ExportGapReport(gapResult, format)
	if err != nil {
		logger.Error("Failed to write coverage gap report", "error", err)
		os.Exit(1)
	}
	written = append(written, path)

	path, err = reports.ExportFraudReport(fraudResult, format)
	if err != nil {
		logger.Error("Failed to write integrity report", "error", err)
		os.Exit(1)
	}
	written = append(written, path)

	path, err = reports.ExportMigrationReport(migrationResult, format)
	if err != nil {
		logger.Error("Failed to write migration report", "error", err)
		os.Exit(1)
	}
	written = append(written, path)

	if *stateFiles {
		files, err := reports.ExportStateGapFiles(gapResult)
		if err != nil {
			logger.Error("Failed to write state district files", "error", err)
			os.Exit(1)
		}
		written = append(written, files...)
	}

	logger.Info("Reports generated successfully",
		"dir", *outputDir,
		"files", len(written))

	printGapSummary(gapResult)
}

// resolveScorer picks the model scorer when weights are supplied and load
// cleanly, falling back to the built-in rules otherwise.
func resolveScorer(modelPath string, logger *slog.Logger) scoring.RiskScorer {
	if modelPath == "" {
		return scoring.NewRuleScorer()
	}
	scorer, err := scoring.NewModelScorer(modelPath)
	if err != nil {
		logger.Warn("Model weights unavailable, using rule scorer",
			"path", modelPath,
			"error", err.Error())
		return scoring.NewRuleScorer()
	}
	logger.Info("Loaded scoring model", "version", scorer.Version())
	return scorer
}

func printGapSummary(result *domain.GapAnalysisResult) {
	if len(result.HighRiskDistricts) == 0 {
		fmt.Println("\nNo high-risk districts detected in this sweep.")
		return
	}

	top := result.HighRiskDistricts
	if len(top) > 10 {
		top = top[:10]
	}

	fmt.Println("\n=== TOP DISTRICTS BY ENROLLMENT GAP ===")
	fmt.Println("District             | State            | Gap Count | Gap %  | Risk")
	fmt.Println("---------------------|------------------|-----------|--------|---------")

	for _, district := range top {
		fmt.Printf("%-20s | %-16s | %9d | %5.1f%% | %s\n",
			district.District, district.State, district.GapCount, district.GapPercentage, district.RiskLevel)
	}

	fmt.Printf("\nTotal invisible children across %d districts: %d\n",
		result.TotalDistrictsAnalyzed, result.TotalInvisibleChildren)
}
