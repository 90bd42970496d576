package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/YashwanthKamireddi/project-prerana/pkg/contracts/domain"
)

// Table is one rendered report section: a named header row plus data rows.
// CSV output uses the first table; Excel output writes one sheet per table.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// GapTable renders the high-risk districts of a coverage sweep.
func GapTable(result *domain.GapAnalysisResult) Table {
	rows := make([][]string, 0, len(result.HighRiskDistricts))
	for _, gap := range result.HighRiskDistricts {
		rows = append(rows, []string{
			gap.District,
			gap.State,
			formatInt(gap.TotalEnrollments),
			formatInt(gap.BiometricUpdates),
			formatInt(gap.GapCount),
			formatFloat(gap.GapPercentage),
			formatFloat(gap.AvgChildAge),
			joinList(gap.CriticalPincodes),
			gap.RiskLevel.String(),
			gap.RecommendedAction,
		})
	}
	return Table{
		Name: "High Risk Districts",
		Headers: []string{
			"District", "State", "TotalEnrollments", "BiometricUpdates", "GapCount",
			"GapPercentage", "AvgChildAge", "CriticalPincodes", "RiskLevel", "RecommendedAction",
		},
		Rows: rows,
	}
}

// StateSummaryTable renders the per-state rollup of a coverage sweep, sorted
// by state name.
func StateSummaryTable(result *domain.GapAnalysisResult) Table {
	states := make([]string, 0, len(result.StateSummary))
	for state := range result.StateSummary {
		states = append(states, state)
	}
	sort.Strings(states)

	rows := make([][]string, 0, len(states))
	for _, state := range states {
		summary := result.StateSummary[state]
		rows = append(rows, []string{
			state,
			formatInt(summary.TotalDistricts),
			formatInt(summary.TotalGap),
			formatInt(summary.CriticalDistricts),
		})
	}
	return Table{
		Name:    "State Summary",
		Headers: []string{"State", "TotalDistricts", "TotalGap", "CriticalDistricts"},
		Rows:    rows,
	}
}

// FraudTable renders the anomaly clusters of an integrity sweep.
func FraudTable(result *domain.FraudAnalysisResult) Table {
	rows := make([][]string, 0, len(result.DetectedAnomalies))
	for _, cluster := range result.DetectedAnomalies {
		rows = append(rows, []string{
			cluster.ClusterID,
			cluster.DetectionTime.Format(time.RFC3339),
			cluster.FraudType.String(),
			cluster.RiskLevel.String(),
			formatInt(cluster.AffectedCount),
			formatFloat(cluster.ZScore),
			formatFloat(cluster.Confidence),
			cluster.State,
			cluster.UpdateType,
			fmt.Sprintf("%d-%d", cluster.AgeRange[0], cluster.AgeRange[1]),
			cluster.PrimaryGender,
			formatFloat(cluster.VelocityMultiplier),
			joinList(cluster.CorrelatedEvents),
			formatBool(cluster.AutoFreezeEligible),
		})
	}
	return Table{
		Name: "Anomaly Clusters",
		Headers: []string{
			"ClusterID", "DetectionTime", "FraudType", "RiskLevel", "AffectedCount",
			"ZScore", "Confidence", "State", "UpdateType", "AgeRange", "PrimaryGender",
			"VelocityMultiplier", "CorrelatedEvents", "AutoFreezeEligible",
		},
		Rows: rows,
	}
}

// CenterTable renders the enrollment centers implicated by detected clusters.
func CenterTable(result *domain.FraudAnalysisResult) Table {
	rows := make([][]string, 0, len(result.HighRiskCenters))
	for _, center := range result.HighRiskCenters {
		rows = append(rows, []string{
			center.CenterID,
			center.Location,
			formatInt(center.AnomalyCount),
			formatInt(center.RiskScore),
		})
	}
	return Table{
		Name:    "High Risk Centers",
		Headers: []string{"CenterID", "Location", "AnomalyCount", "RiskScore"},
		Rows:    rows,
	}
}

// SpikeTable renders the active velocity spikes of a mobility sweep.
func SpikeTable(result *domain.MigrationAnalysisResult) Table {
	rows := make([][]string, 0, len(result.ActiveSpikes))
	for _, spike := range result.ActiveSpikes {
		rows = append(rows, []string{
			spike.Pincode,
			spike.City,
			spike.State,
			formatFloat(spike.CurrentVelocity),
			formatFloat(spike.BaselineVelocity),
			formatFloat(spike.SpikePercentage),
			formatInt(spike.AffectedPopulation),
			spike.DetectionTime.Format(time.RFC3339),
			spike.PredictedPeak.Format(time.RFC3339),
			formatFloat(spike.ConfidenceScore),
		})
	}
	return Table{
		Name: "Velocity Spikes",
		Headers: []string{
			"Pincode", "City", "State", "CurrentVelocity", "BaselineVelocity",
			"SpikePercentage", "AffectedPopulation", "DetectionTime", "PredictedPeak",
			"ConfidenceScore",
		},
		Rows: rows,
	}
}

// CorridorTable renders the top migration corridors of a mobility sweep.
func CorridorTable(result *domain.MigrationAnalysisResult) Table {
	rows := make([][]string, 0, len(result.TopCorridors))
	for _, corridor := range result.TopCorridors {
		rows = append(rows, []string{
			corridor.SourceState,
			joinList(corridor.SourceDistricts),
			corridor.DestinationCity,
			corridor.DestinationState,
			corridor.DestinationPincode,
			formatInt(corridor.MigrantCount),
			formatFloat(corridor.VelocityChangePercent),
			corridor.PrimaryDemographic,
			corridor.Trend.String(),
		})
	}
	return Table{
		Name: "Migration Corridors",
		Headers: []string{
			"SourceState", "SourceDistricts", "DestinationCity", "DestinationState",
			"DestinationPincode", "MigrantCount", "VelocityChangePercent",
			"PrimaryDemographic", "Trend",
		},
		Rows: rows,
	}
}

// RenderCSV streams the table as CSV, without a BOM.
func RenderCSV(w io.Writer, table Table) error {
	records := make([][]string, 0, len(table.Rows)+1)
	records = append(records, table.Headers)
	records = append(records, table.Rows...)
	return writeCSVRecords(w, records)
}

// RenderXLSX streams the tables as an Excel workbook, one sheet per table.
func RenderXLSX(w io.Writer, tables ...Table) error {
	f, err := buildWorkbook(tables...)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// RenderJSON streams the payload as indented JSON.
func RenderJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writeCSVRecords(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	for i, record := range records {
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func buildWorkbook(tables ...Table) (*excelize.File, error) {
	f := excelize.NewFile()
	for i, table := range tables {
		sheet := table.Name
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, fmt.Errorf("naming sheet %q: %w", sheet, err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, fmt.Errorf("adding sheet %q: %w", sheet, err)
			}
		}
		if err := writeSheetRow(f, sheet, 1, table.Headers); err != nil {
			return nil, err
		}
		for r, row := range table.Rows {
			if err := writeSheetRow(f, sheet, r+2, row); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func writeSheetRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("addressing row %d: %w", row, err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("writing sheet %q row %d: %w", sheet, row, err)
	}
	return nil
}

// ReportExporter writes pipeline results as report files under the reports
// directory.
type ReportExporter struct {
	writer *Writer
	logger *slog.Logger
}

// NewReportExporter creates an exporter rooted at the reports directory.
func NewReportExporter(reportsDir string, logger *slog.Logger) *ReportExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportExporter{
		writer: NewWriter(reportsDir, logger),
		logger: logger,
	}
}

// ExportGapReport writes the coverage sweep in the requested format and
// returns the written path. Excel output adds a state summary sheet.
func (e *ReportExporter) ExportGapReport(result *domain.GapAnalysisResult, format Format) (string, error) {
	name := reportFileName("gap", result.Timestamp, format)
	return e.export(name, format, result, GapTable(result), StateSummaryTable(result))
}

// ExportFraudReport writes the integrity sweep in the requested format and
// returns the written path. Excel output adds a center risk sheet.
func (e *ReportExporter) ExportFraudReport(result *domain.FraudAnalysisResult, format Format) (string, error) {
	name := reportFileName("fraud", result.Timestamp, format)
	return e.export(name, format, result, FraudTable(result), CenterTable(result))
}

// ExportMigrationReport writes the mobility sweep in the requested format and
// returns the written path. Excel output adds a corridor sheet; CSV carries
// the spikes.
func (e *ReportExporter) ExportMigrationReport(result *domain.MigrationAnalysisResult, format Format) (string, error) {
	name := reportFileName("migration", result.Timestamp, format)
	return e.export(name, format, result, SpikeTable(result), CorridorTable(result))
}

// ExportStateGapFiles writes one CSV per state listing its high-risk
// districts, the slices field coordinators pick up. Returns the written
// paths, sorted.
func (e *ReportExporter) ExportStateGapFiles(result *domain.GapAnalysisResult) ([]string, error) {
	byState := make(map[string][]domain.CoverageGap)
	for _, gap := range result.HighRiskDistricts {
		byState[gap.State] = append(byState[gap.State], gap)
	}

	states := make([]string, 0, len(byState))
	for state := range byState {
		states = append(states, state)
	}
	sort.Strings(states)

	headers := GapTable(&domain.GapAnalysisResult{}).Headers
	paths := make([]string, 0, len(states))
	for _, state := range states {
		gaps := byState[state]
		sort.SliceStable(gaps, func(i, j int) bool { return gaps[i].GapCount > gaps[j].GapCount })

		table := GapTable(&domain.GapAnalysisResult{HighRiskDistricts: gaps})
		name := fmt.Sprintf("state_%s_districts.csv", pathSlug(state))
		if err := e.writer.WriteSimpleCSV(name, headers, table.Rows); err != nil {
			return nil, fmt.Errorf("state file for %s: %w", state, err)
		}
		paths = append(paths, e.writer.resolvePath(name))
	}
	return paths, nil
}

func (e *ReportExporter) export(name string, format Format, payload any, tables ...Table) (string, error) {
	path := e.writer.resolvePath(name)

	switch format {
	case FormatCSV:
		if err := e.writer.WriteSimpleCSV(name, tables[0].Headers, tables[0].Rows); err != nil {
			return "", err
		}
	case FormatXLSX:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("creating report directory: %w", err)
		}
		f, err := buildWorkbook(tables...)
		if err != nil {
			return "", err
		}
		defer f.Close()
		if err := f.SaveAs(path); err != nil {
			return "", fmt.Errorf("saving workbook: %w", err)
		}
	case FormatJSON:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("creating report directory: %w", err)
		}
		file, err := os.Create(path)
		if err != nil {
			return "", fmt.Errorf("creating report file: %w", err)
		}
		defer file.Close()
		if err := RenderJSON(file, payload); err != nil {
			return "", fmt.Errorf("writing JSON report: %w", err)
		}
	default:
		return "", fmt.Errorf("unknown report format %q", format)
	}

	e.logger.Info("report exported",
		slog.String("path", path),
		slog.String("format", string(format)),
	)
	return path, nil
}

func reportFileName(report string, ts time.Time, format Format) string {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return fmt.Sprintf("prerana_%s_%s.%s", report, ts.Format("2006_01_02"), format.Ext())
}

func pathSlug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}
