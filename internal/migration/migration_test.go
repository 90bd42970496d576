package migration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YashwanthKamireddi/project-prerana/internal/cache"
	"github.com/YashwanthKamireddi/project-prerana/internal/config"
	"github.com/YashwanthKamireddi/project-prerana/internal/dataset"
	"github.com/YashwanthKamireddi/project-prerana/pkg/contracts/domain"
)

const moveHeader = "State,District,Pincode,Age,Gender,Date,Update_Type,Previous_State,Previous_District,Ref_ID"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		VelocityThreshold:   200,
		LookbackDays:        30,
		EstimatedPopulation: 50000,
		CacheTTL:            time.Minute,
	}
}

func newTestService(t *testing.T, base string) (*Service, *cache.Cache) {
	t.Helper()
	logger := testLogger()
	c := cache.New(logger, nil)
	loader := dataset.NewLoader(base, 2, logger, nil)
	return NewService(loader, c, testConfig(), logger, nil), c
}

func writeCSV(t *testing.T, base, name string, rows []string) {
	t.Helper()
	dir := filepath.Join(base, "api_data_aadhar_demographic")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := moveHeader + "\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// updateRows fabricates n update rows for one (destination, day) slice. The
// serial reference number keeps every row unique across the fixture.
func updateRows(serial *int, state, district, updateType string, day time.Time, n int,
	age func(int) int, gender, pin, prevState, prevDistrict func(int) string) []string {
	rows := make([]string, n)
	for i := 0; i < n; i++ {
		*serial++
		rows[i] = fmt.Sprintf("%s,%s,%s,%d,%s,%s,%s,%s,%s,R%07d",
			state, district, pin(i), age(i), gender(i), day.Format("2006-01-02"),
			updateType, prevState(i), prevDistrict(i), *serial)
	}
	return rows
}

func fixed(v string) func(int) string { return func(int) string { return v } }

func cycle(values ...string) func(int) string {
	return func(i int) string { return values[i%len(values)] }
}

func ageFixed(v int) func(int) int { return func(int) int { return v } }

var (
	anchorDay = time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)
	windowDay = time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC) // anchor minus 36 days
)

// spikeFixture holds one hot pincode in Mumbai against a steady one in Kochi.
// Mumbai sees one address change per baseline day, then sixty across the last
// three days of the current window.
func spikeFixture(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	serial := 0
	var rows []string

	for d := 0; d < 30; d++ {
		rows = append(rows, updateRows(&serial, "Maharashtra", "Mumbai", "Address", windowDay.AddDate(0, 0, d), 1,
			ageFixed(30), fixed("Male"), fixed("400001"), fixed(""), fixed(""))...)
	}
	for d := 0; d < 3; d++ {
		rows = append(rows, updateRows(&serial, "Maharashtra", "Mumbai", "Address", anchorDay.AddDate(0, 0, -d), 20,
			ageFixed(30), fixed("Male"), fixed("400001"), fixed(""), fixed(""))...)
	}
	for d := 0; d < 37; d++ {
		rows = append(rows, updateRows(&serial, "Kerala", "Kochi", "Address", windowDay.AddDate(0, 0, d), 2,
			ageFixed(45), fixed("Female"), fixed("682001"), fixed(""), fixed(""))...)
	}

	writeCSV(t, base, "updates.csv", rows)
	return base
}

func TestDetectSpike(t *testing.T) {
	svc, _ := newTestService(t, t.TempDir())

	tests := []struct {
		name       string
		current    float64
		baseline   float64
		wantSpike  bool
		wantChange float64
	}{
		{"zero_baseline_with_movement", 10, 0, true, spikeInfinitePercent},
		{"zero_baseline_no_movement", 0, 0, false, 0},
		{"exactly_at_threshold", 30, 10, true, 200},
		{"just_below_threshold", 29.9, 10, false, 199},
		{"decline", 5, 10, false, -50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isSpike, change := svc.DetectSpike(tt.current, tt.baseline)
			assert.Equal(t, tt.wantSpike, isSpike)
			assert.InDelta(t, tt.wantChange, change, 1e-9)
		})
	}
}

func TestAnalyzePincodeSpike(t *testing.T) {
	svc, _ := newTestService(t, spikeFixture(t))
	ctx := context.Background()

	spike, err := svc.AnalyzePincode(ctx, " 400001 ")
	require.NoError(t, err)
	require.NotNil(t, spike)

	assert.Equal(t, "400001", spike.Pincode)
	assert.Equal(t, "Mumbai", spike.City)
	assert.Equal(t, "Maharashtra", spike.State)

	// Current: 60 moves over 7 days; baseline: 30 moves over 30 days.
	assert.InDelta(t, 0.17, spike.CurrentVelocity, 1e-9)
	assert.InDelta(t, 0.02, spike.BaselineVelocity, 1e-9)
	assert.InDelta(t, 757.1, spike.SpikePercentage, 1e-9)
	assert.Equal(t, 60, spike.AffectedPopulation)
	assert.InDelta(t, 0.527, spike.ConfidenceScore, 1e-9)
	assert.Equal(t, 36*time.Hour, spike.PredictedPeak.Sub(spike.DetectionTime))
}

func TestAnalyzePincodeQuiet(t *testing.T) {
	svc, _ := newTestService(t, spikeFixture(t))
	ctx := context.Background()

	spike, err := svc.AnalyzePincode(ctx, "682001")
	require.NoError(t, err)
	assert.Nil(t, spike, "steady velocity must not flag")

	spike, err = svc.AnalyzePincode(ctx, "999999")
	require.NoError(t, err)
	assert.Nil(t, spike, "unknown pincode must not flag")
}

func TestAnalyzePincodeCached(t *testing.T) {
	svc, c := newTestService(t, spikeFixture(t))
	ctx := context.Background()

	first, err := svc.AnalyzePincode(ctx, "400001")
	require.NoError(t, err)
	second, err := svc.AnalyzePincode(ctx, "400001")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.GreaterOrEqual(t, c.Stats().Hits, int64(1))
}

// corridorFixture lays down three inter-state corridors into a window ending
// 2026-02-10, plus rows that corridor detection must ignore: same-state
// moves, moves without an origin and non-address updates.
func corridorFixture(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	serial := 0
	var rows []string

	// Bihar -> Mumbai: 5 moves per day for 36 days.
	for d := 0; d < 36; d++ {
		rows = append(rows, updateRows(&serial, "Maharashtra", "Mumbai", "Address", windowDay.AddDate(0, 0, d+1), 5,
			func(i int) int { return 25 + i%5 },
			cycle("Male", "Male", "Female"),
			cycle("400001", "400001", "400037"),
			fixed("Bihar"),
			cycle("Patna", "Patna", "Gaya", "Darbhanga"))...)
	}
	// Uttar Pradesh -> Mumbai: one burst of 40.
	rows = append(rows, updateRows(&serial, "Maharashtra", "Mumbai", "Address", time.Date(2026, time.February, 8, 0, 0, 0, 0, time.UTC), 40,
		ageFixed(21), fixed("Female"), fixed("400037"), fixed("Uttar Pradesh"), fixed("Lucknow"))...)
	// Bihar -> New Delhi: 5 moves per day for 5 days.
	for d := 0; d < 5; d++ {
		rows = append(rows, updateRows(&serial, "Delhi", "New Delhi", "Address", time.Date(2026, time.January, 25, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d), 5,
			ageFixed(30), fixed("Male"), fixed("110002"), fixed("Bihar"), fixed("Patna"))...)
	}
	// Same-state churn, not migration.
	rows = append(rows, updateRows(&serial, "Maharashtra", "Mumbai", "Address", time.Date(2026, time.February, 5, 0, 0, 0, 0, time.UTC), 10,
		ageFixed(40), fixed("Male"), fixed("400001"), fixed("Maharashtra"), fixed("Pune"))...)
	// Moves with no recorded origin.
	rows = append(rows, updateRows(&serial, "Karnataka", "Bengaluru", "Address", time.Date(2026, time.February, 6, 0, 0, 0, 0, time.UTC), 8,
		ageFixed(28), fixed("Female"), fixed("560001"), fixed(""), fixed(""))...)
	// Non-address updates carrying an origin must not count.
	rows = append(rows, updateRows(&serial, "Maharashtra", "Mumbai", "DOB", time.Date(2026, time.February, 7, 0, 0, 0, 0, time.UTC), 12,
		ageFixed(19), fixed("Male"), fixed("400001"), fixed("Bihar"), fixed("Patna"))...)

	writeCSV(t, base, "updates.csv", rows)
	return base
}

func TestDetectCorridors(t *testing.T) {
	svc, _ := newTestService(t, corridorFixture(t))
	ctx := context.Background()

	corridors, err := svc.DetectCorridors(ctx)
	require.NoError(t, err)
	require.Len(t, corridors, 3)

	bihar := corridors[0]
	assert.Equal(t, "Bihar", bihar.SourceState)
	assert.Equal(t, "Mumbai", bihar.DestinationCity)
	assert.Equal(t, "Maharashtra", bihar.DestinationState)
	assert.Equal(t, "400001", bihar.DestinationPincode)
	assert.Equal(t, 180, bihar.MigrantCount)
	assert.Equal(t, []string{"Patna", "Darbhanga", "Gaya"}, bihar.SourceDistricts)
	assert.Equal(t, "Male 25-34", bihar.PrimaryDemographic)
	// 17 of 18 first-half days active at 5/day against a full second half.
	assert.InDelta(t, 5.9, bihar.VelocityChangePercent, 1e-9)
	assert.Equal(t, domain.TrendStable, bihar.Trend)

	up := corridors[1]
	assert.Equal(t, "Uttar Pradesh", up.SourceState)
	assert.Equal(t, "Mumbai", up.DestinationCity)
	assert.Equal(t, 40, up.MigrantCount)
	assert.Equal(t, []string{"Lucknow"}, up.SourceDistricts)
	assert.Equal(t, "Female 18-24", up.PrimaryDemographic)
	// All movement in the second half of the window.
	assert.InDelta(t, spikeInfinitePercent, up.VelocityChangePercent, 1e-9)

	delhi := corridors[2]
	assert.Equal(t, "Bihar", delhi.SourceState)
	assert.Equal(t, "New Delhi", delhi.DestinationCity)
	assert.Equal(t, 25, delhi.MigrantCount)
	assert.InDelta(t, spikeInfinitePercent, delhi.VelocityChangePercent, 1e-9)
}

func TestCorridorStateFlows(t *testing.T) {
	svc, _ := newTestService(t, corridorFixture(t))

	analysis, err := svc.corridors(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"Maharashtra": 220, "Delhi": 25}, analysis.Inflow)
	assert.Equal(t, map[string]int{"Bihar": 205, "Uttar Pradesh": 40}, analysis.Outflow)
}

func TestDetectCorridorsNoOriginColumn(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "api_data_aadhar_demographic")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "State,District,Pincode,Age,Gender,Date,Update_Type\n" +
		"Maharashtra,Mumbai,400001,30,Male,2026-02-10,Address\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "updates.csv"), []byte(content), 0o644))

	svc, _ := newTestService(t, base)
	corridors, err := svc.DetectCorridors(context.Background())
	require.NoError(t, err)
	assert.Empty(t, corridors)
}

// analyzeFixture pairs one zero-baseline burst in Hyderabad, arriving from
// Andhra Pradesh, with steady movement in New Delhi.
func analyzeFixture(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	serial := 0
	var rows []string

	rows = append(rows, updateRows(&serial, "Telangana", "Hyderabad", "Address", anchorDay, 90,
		ageFixed(22), cycle("Male", "Female"), fixed("500032"), fixed("Andhra Pradesh"), fixed("Guntur"))...)
	for d := 0; d < 37; d++ {
		rows = append(rows, updateRows(&serial, "Delhi", "New Delhi", "Address", windowDay.AddDate(0, 0, d), 2,
			ageFixed(35), fixed("Male"), fixed("110001"), fixed(""), fixed(""))...)
	}

	writeCSV(t, base, "updates.csv", rows)
	return base
}

func TestAnalyze(t *testing.T) {
	svc, _ := newTestService(t, analyzeFixture(t))
	ctx := context.Background()

	result, err := svc.Analyze(ctx)
	require.NoError(t, err)
	require.NotNil(t, result)

	require.Len(t, result.ActiveSpikes, 1)
	spike := result.ActiveSpikes[0]
	assert.Equal(t, "500032", spike.Pincode)
	assert.Equal(t, "Hyderabad", spike.City)
	assert.InDelta(t, spikeInfinitePercent, spike.SpikePercentage, 1e-9)
	assert.Equal(t, 90, spike.AffectedPopulation)

	assert.Equal(t, 1, result.TotalCorridorsAnalyzed)
	require.Len(t, result.TopCorridors, 1)
	corridor := result.TopCorridors[0]
	assert.Equal(t, "Andhra Pradesh", corridor.SourceState)
	assert.Equal(t, "Hyderabad", corridor.DestinationCity)
	assert.Equal(t, "Telangana", corridor.DestinationState)
	assert.Equal(t, "500032", corridor.DestinationPincode)
	assert.Equal(t, 90, corridor.MigrantCount)
	assert.Equal(t, []string{"Guntur"}, corridor.SourceDistricts)
	// Even gender split ties to the lexicographically smaller cohort.
	assert.Equal(t, "Female 18-24", corridor.PrimaryDemographic)

	assert.Equal(t, map[string]int{"Telangana": 90}, result.StateInflow)
	assert.Equal(t, map[string]int{"Andhra Pradesh": 90}, result.StateOutflow)

	require.Len(t, result.Predictions48h, 2)
	assert.Equal(t, 24, result.Predictions48h[0].HoursAhead)
	assert.Equal(t, 48, result.Predictions48h[1].HoursAhead)
	// Six quiet days at 0.04 then 1.84 on the anchor day extend upward.
	assert.InDelta(t, 2.03, result.Predictions48h[0].Velocity, 1e-9)
	assert.InDelta(t, 2.23, result.Predictions48h[1].Velocity, 1e-9)

	assert.Equal(t, "v1.8.2", result.ModelVersion)
	assert.GreaterOrEqual(t, result.ProcessingTimeMs, 0.0)
}

func TestAnalyzeCached(t *testing.T) {
	svc, _ := newTestService(t, analyzeFixture(t))
	ctx := context.Background()

	first, err := svc.Analyze(ctx)
	require.NoError(t, err)
	second, err := svc.Analyze(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestAnalyzeEmptyData(t *testing.T) {
	svc, _ := newTestService(t, t.TempDir())

	result, err := svc.Analyze(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Empty(t, result.ActiveSpikes)
	assert.Empty(t, result.TopCorridors)
	assert.Zero(t, result.TotalCorridorsAnalyzed)
	assert.Empty(t, result.Predictions48h)
	assert.Equal(t, "v1.8.2", result.ModelVersion)
}

func TestProjectVelocity(t *testing.T) {
	tests := []struct {
		name    string
		history []float64
		horizon int
		want    []float64
	}{
		{"short_history_repeats_last", []float64{2, 3}, 48, []float64{3, 3}},
		{"six_points_still_repeat", []float64{1, 2, 3, 4, 5, 6}, 48, []float64{6, 6}},
		{"week_of_growth_extends_slope", []float64{1, 2, 3, 4, 5, 6, 7}, 48, []float64{8, 9}},
		{"decline_floors_at_zero", []float64{14, 12, 10, 8, 6, 4, 2}, 48, []float64{0, 0}},
		{"only_last_week_counts", []float64{100, 100, 100, 1, 2, 3, 4, 5, 6, 7}, 48, []float64{8, 9}},
		{"zero_horizon", []float64{1, 2, 3}, 0, nil},
		{"empty_history", nil, 48, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProjectVelocity(tt.history, tt.horizon)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-9, "step %d", i)
			}
		})
	}
}

func TestConfidenceFromSample(t *testing.T) {
	assert.InDelta(t, 0.5, confidenceFromSample(0), 1e-9)
	assert.InDelta(t, 0.527, confidenceFromSample(60), 1e-9)
	assert.InDelta(t, 0.95, confidenceFromSample(1000), 1e-9)
	assert.InDelta(t, 0.95, confidenceFromSample(5000), 1e-9)
}

func TestInfrastructureAlerts(t *testing.T) {
	spike := &domain.VelocitySpike{
		Pincode:            "395006",
		City:               "Surat",
		State:              "Gujarat",
		SpikePercentage:    450.0,
		AffectedPopulation: 1200,
	}

	alerts := InfrastructureAlerts(spike)
	require.Len(t, alerts, 4)

	byCategory := make(map[string]domain.InfrastructureAlert, len(alerts))
	for _, a := range alerts {
		byCategory[a.Category] = a
	}

	water := byCategory["water_supply"]
	assert.Equal(t, domain.RiskLevelHigh, water.Severity)
	assert.Contains(t, water.Message, "180000L/day")

	transport := byCategory["public_transport"]
	assert.Equal(t, domain.RiskLevelHigh, transport.Severity)
	assert.Contains(t, transport.Message, "1200 additional daily commuters")

	assert.Equal(t, domain.RiskLevelMedium, byCategory["healthcare"].Severity)
	assert.Contains(t, byCategory["ration_shops"].Message, "1200 beneficiaries")

	// A moderate spike keeps water supply at medium severity.
	spike.SpikePercentage = 250.0
	alerts = InfrastructureAlerts(spike)
	assert.Equal(t, domain.RiskLevelMedium, alerts[0].Severity)

	assert.Nil(t, InfrastructureAlerts(nil))
}
