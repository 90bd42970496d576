package exporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/YashwanthKamireddi/project-prerana/pkg/contracts/domain"
)

var reportDay = time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC)

func sampleGapResult() *domain.GapAnalysisResult {
	return &domain.GapAnalysisResult{
		Timestamp:              reportDay,
		TotalDistrictsAnalyzed: 2,
		TotalInvisibleChildren: 3100,
		HighRiskDistricts: []domain.CoverageGap{
			{
				District: "Gaya", State: "Bihar",
				TotalEnrollments: 4000, BiometricUpdates: 1400, GapCount: 2600,
				GapPercentage: 65, AvgChildAge: 1.2,
				CriticalPincodes:  []string{"823001", "823002"},
				RiskLevel:         domain.RiskLevelCritical,
				RecommendedAction: "deploy vans",
			},
			{
				District: "Thane", State: "Maharashtra",
				TotalEnrollments: 1000, BiometricUpdates: 500, GapCount: 500,
				GapPercentage: 50, AvgChildAge: 0.8,
				CriticalPincodes:  []string{"400601"},
				RiskLevel:         domain.RiskLevelHigh,
				RecommendedAction: "schedule vans",
			},
		},
		StateSummary: map[string]domain.StateGapSummary{
			"Maharashtra": {TotalDistricts: 1, TotalGap: 500, CriticalDistricts: 0},
			"Bihar":       {TotalDistricts: 1, TotalGap: 2600, CriticalDistricts: 1},
		},
		ModelVersion: "v2.1.0",
	}
}

func sampleFraudResult() *domain.FraudAnalysisResult {
	return &domain.FraudAnalysisResult{
		Timestamp:            reportDay,
		TotalUpdatesAnalyzed: 2360,
		DetectedAnomalies: []domain.AnomalyCluster{
			{
				ClusterID:          "ANOM-2026-ABCD1234",
				DetectionTime:      reportDay,
				FraudType:          domain.FraudTypeRecruitment,
				RiskLevel:          domain.RiskLevelCritical,
				AffectedCount:      1200,
				ZScore:             5.39,
				Confidence:         0.99,
				AgeRange:           [2]int{18, 21},
				PrimaryGender:      "Male",
				State:              "Gujarat",
				GeographicScope:    []string{"395001", "395003"},
				UpdateType:         "DOB",
				TimeWindowHours:    48,
				VelocityMultiplier: 15.25,
				CorrelatedEvents:   []string{"Army Recruitment Rally - Surat, Gujarat - Jan 25"},
				EnrollmentCenters:  []string{"ASK-GJ-SURAT-012"},
				AutoFreezeEligible: true,
			},
		},
		HighRiskCenters: []domain.CenterRisk{
			{CenterID: "ASK-GJ-SURAT-012", Location: "Gujarat", AnomalyCount: 1, RiskScore: 90},
		},
		ModelVersion: "v3.0.1",
	}
}

func sampleMigrationResult() *domain.MigrationAnalysisResult {
	return &domain.MigrationAnalysisResult{
		Timestamp: reportDay,
		ActiveSpikes: []domain.VelocitySpike{
			{
				Pincode: "400001", City: "Mumbai", State: "Maharashtra",
				CurrentVelocity: 0.17, BaselineVelocity: 0.02, SpikePercentage: 757.1,
				AffectedPopulation: 60,
				DetectionTime:      reportDay,
				PredictedPeak:      reportDay.Add(36 * time.Hour),
				ConfidenceScore:    0.53,
			},
		},
		TopCorridors: []domain.MigrationCorridor{
			{
				SourceState: "Bihar", SourceDistricts: []string{"Patna", "Gaya"},
				DestinationCity: "Mumbai", DestinationState: "Maharashtra",
				DestinationPincode: "400001", MigrantCount: 180,
				VelocityChangePercent: 5.9, PrimaryDemographic: "Male 25-34",
				Trend: domain.TrendStable,
			},
		},
		TotalCorridorsAnalyzed: 1,
		ModelVersion:           "v1.8.2",
	}
}

func TestGapTable(t *testing.T) {
	table := GapTable(sampleGapResult())

	assert.Equal(t, "High Risk Districts", table.Name)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{
		"Gaya", "Bihar", "4000", "1400", "2600", "65.00", "1.20",
		"823001; 823002", "critical", "deploy vans",
	}, table.Rows[0])
	assert.Len(t, table.Rows[0], len(table.Headers))
}

func TestStateSummaryTable(t *testing.T) {
	table := StateSummaryTable(sampleGapResult())

	require.Len(t, table.Rows, 2)
	// Sorted by state name.
	assert.Equal(t, []string{"Bihar", "1", "2600", "1"}, table.Rows[0])
	assert.Equal(t, []string{"Maharashtra", "1", "500", "0"}, table.Rows[1])
}

func TestFraudTable(t *testing.T) {
	table := FraudTable(sampleFraudResult())

	require.Len(t, table.Rows, 1)
	row := table.Rows[0]
	assert.Equal(t, "ANOM-2026-ABCD1234", row[0])
	assert.Equal(t, "recruitment_fraud", row[2])
	assert.Equal(t, "critical", row[3])
	assert.Equal(t, "1200", row[4])
	assert.Equal(t, "18-21", row[9])
	assert.Equal(t, "Army Recruitment Rally - Surat, Gujarat - Jan 25", row[12])
	assert.Equal(t, "true", row[13])
	assert.Len(t, row, len(table.Headers))
}

func TestMigrationTables(t *testing.T) {
	result := sampleMigrationResult()

	spikes := SpikeTable(result)
	require.Len(t, spikes.Rows, 1)
	assert.Equal(t, "400001", spikes.Rows[0][0])
	assert.Equal(t, "757.10", spikes.Rows[0][5])
	assert.Len(t, spikes.Rows[0], len(spikes.Headers))

	corridors := CorridorTable(result)
	require.Len(t, corridors.Rows, 1)
	assert.Equal(t, []string{
		"Bihar", "Patna; Gaya", "Mumbai", "Maharashtra", "400001",
		"180", "5.90", "Male 25-34", "STABLE",
	}, corridors.Rows[0])
}

func TestRenderCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderCSV(&buf, StateSummaryTable(sampleGapResult())))

	assert.False(t, bytes.HasPrefix(buf.Bytes(), utf8BOM), "streamed CSV has no BOM")
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"State", "TotalDistricts", "TotalGap", "CriticalDistricts"},
		{"Bihar", "1", "2600", "1"},
		{"Maharashtra", "1", "500", "0"},
	}, records)
}

func TestRenderXLSX(t *testing.T) {
	result := sampleGapResult()

	var buf bytes.Buffer
	require.NoError(t, RenderXLSX(&buf, GapTable(result), StateSummaryTable(result)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"High Risk Districts", "State Summary"}, f.GetSheetList())

	rows, err := f.GetRows("State Summary")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"State", "TotalDistricts", "TotalGap", "CriticalDistricts"}, rows[0])
	assert.Equal(t, []string{"Bihar", "1", "2600", "1"}, rows[1])

	districts, err := f.GetRows("High Risk Districts")
	require.NoError(t, err)
	require.Len(t, districts, 3)
	assert.Equal(t, "Gaya", districts[1][0])
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, sampleGapResult()))

	var decoded domain.GapAnalysisResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 3100, decoded.TotalInvisibleChildren)
	assert.Equal(t, "v2.1.0", decoded.ModelVersion)
}

func TestExportGapReportFormats(t *testing.T) {
	dir := t.TempDir()
	e := NewReportExporter(dir, testLogger())
	result := sampleGapResult()

	t.Run("csv", func(t *testing.T) {
		path, err := e.ExportGapReport(result, FormatCSV)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "prerana_gap_2026_02_10.csv"), path)

		_, records := readReport(t, path)
		require.Len(t, records, 3)
		assert.Equal(t, "Gaya", records[1][0])
	})

	t.Run("xlsx", func(t *testing.T) {
		path, err := e.ExportGapReport(result, FormatXLSX)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "prerana_gap_2026_02_10.xlsx"), path)

		f, err := excelize.OpenFile(path)
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, []string{"High Risk Districts", "State Summary"}, f.GetSheetList())
	})

	t.Run("json", func(t *testing.T) {
		path, err := e.ExportGapReport(result, FormatJSON)
		require.NoError(t, err)

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		var decoded domain.GapAnalysisResult
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Len(t, decoded.HighRiskDistricts, 2)
	})
}

func TestExportFraudAndMigrationReports(t *testing.T) {
	dir := t.TempDir()
	e := NewReportExporter(dir, testLogger())

	path, err := e.ExportFraudReport(sampleFraudResult(), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "prerana_fraud_2026_02_10.csv"), path)

	path, err = e.ExportMigrationReport(sampleMigrationResult(), FormatXLSX)
	require.NoError(t, err)
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Velocity Spikes", "Migration Corridors"}, f.GetSheetList())
}

func TestExportUnknownFormat(t *testing.T) {
	e := NewReportExporter(t.TempDir(), testLogger())
	_, err := e.ExportGapReport(sampleGapResult(), Format("pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown report format")
}

func TestExportStateGapFiles(t *testing.T) {
	dir := t.TempDir()
	e := NewReportExporter(dir, testLogger())

	paths, err := e.ExportStateGapFiles(sampleGapResult())
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "state_bihar_districts.csv"),
		filepath.Join(dir, "state_maharashtra_districts.csv"),
	}, paths)

	_, records := readReport(t, paths[0])
	require.Len(t, records, 2)
	assert.Equal(t, "Gaya", records[1][0])
}
