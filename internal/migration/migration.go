// Package migration tracks population movement through address update
// velocity. It flags pincodes whose recent update rate surges past their own
// baseline, aggregates inter-state relocation corridors and projects
// short-horizon velocity so field teams can position resources ahead of a
// wave.
package migration

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/YashwanthKamireddi/project-prerana/internal/cache"
	"github.com/YashwanthKamireddi/project-prerana/internal/config"
	"github.com/YashwanthKamireddi/project-prerana/internal/dataset"
	"github.com/YashwanthKamireddi/project-prerana/internal/infrastructure"
	"github.com/YashwanthKamireddi/project-prerana/internal/stats"
	"github.com/YashwanthKamireddi/project-prerana/pkg/contracts/domain"
)

const (
	engineName   = "migration"
	modelVersion = "v1.8.2"

	// currentWindowDays is the recent window a pincode's velocity is
	// measured over; the preceding lookback window provides its baseline.
	currentWindowDays = 7

	peakOffsetHours        = 36
	predictionHorizonHours = 48

	// pincodeCacheTTL keeps per-pincode verdicts, spike or not, for half an
	// hour so dashboard polling does not rescan the dataset.
	pincodeCacheTTL = config.PincodeCacheTTL

	corridorLimit       = 10
	sourceDistrictLimit = 5

	// waterLitresPerPerson is the per-capita daily planning figure behind
	// the water supply alert.
	waterLitresPerPerson = 150

	// severeSpikePercent is the spike percentage past which water supply
	// stress counts as high severity.
	severeSpikePercent = 300

	// spikeInfinitePercent stands in for the change percentage when the
	// baseline is zero, where the true ratio is unbounded. Kept finite so
	// results stay JSON-encodable.
	spikeInfinitePercent = 9999.9
)

// Service runs mobility analysis over demographic address updates.
type Service struct {
	loader  *dataset.Loader
	results *cache.Cache
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	velocityThreshold float64
	lookbackDays      int
	population        int
	cacheTTL          time.Duration
	version           string
}

// NewService wires the migration pipeline against its data and cache
// dependencies. Thresholds and window sizes come from the analysis
// configuration.
func NewService(loader *dataset.Loader, results *cache.Cache, cfg config.AnalysisConfig, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	lookback := cfg.LookbackDays
	if lookback < 1 {
		lookback = 1
	}
	return &Service{
		loader:            loader,
		results:           results,
		logger:            logger,
		metrics:           metrics,
		velocityThreshold: cfg.VelocityThreshold,
		lookbackDays:      lookback,
		population:        cfg.EstimatedPopulation,
		cacheTTL:          cfg.CacheTTL,
		version:           modelVersion,
	}
}

// DetectSpike reports whether the current velocity is a spike over its
// baseline and the percentage change between the two. A zero baseline with
// any current movement counts as a spike; its percentage uses a fixed
// sentinel since the true change is unbounded.
func (s *Service) DetectSpike(current, baseline float64) (bool, float64) {
	if baseline == 0 {
		if current > 0 {
			return true, spikeInfinitePercent
		}
		return false, 0
	}
	change := (current - baseline) / baseline * 100
	return change >= s.velocityThreshold, change
}

// AnalyzePincode measures one pincode's address update velocity over the
// current window against its own baseline from the preceding lookback
// window. Returns nil when the pincode shows no spike; both outcomes are
// cached.
func (s *Service) AnalyzePincode(ctx context.Context, pincode string) (*domain.VelocitySpike, error) {
	pincode = strings.TrimSpace(pincode)
	return cache.Memoize(ctx, s.results, "migration.pincode", pincodeCacheTTL,
		func(ctx context.Context) (*domain.VelocitySpike, error) {
			return s.analyzePincode(ctx, pincode)
		},
		[]string{pincode}, nil)
}

func (s *Service) analyzePincode(ctx context.Context, pincode string) (*domain.VelocitySpike, error) {
	start := time.Now()

	demo, err := s.loader.Load(ctx, dataset.KindDemographic)
	if err != nil {
		return nil, fmt.Errorf("loading demographic data: %w", err)
	}

	pins, hasPins := demo.Strings("Pincode")
	dates, hasDates := demo.Times("Date")
	if !hasPins || !hasDates {
		s.logger.WarnContext(ctx, "demographic data missing Pincode or Date, velocity analysis degraded")
		return nil, nil
	}

	moves := addressRows(demo)
	anchor := stats.LatestDay(dates, moves)
	if anchor.IsZero() {
		s.logger.WarnContext(ctx, "demographic data has no parseable dates, velocity analysis degraded")
		return nil, nil
	}

	var rows []int
	for _, i := range moves {
		if pins[i] == pincode {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	currentStart := anchor.AddDate(0, 0, -(currentWindowDays - 1))
	baselineStart := currentStart.AddDate(0, 0, -s.lookbackDays)

	currentCount, baselineCount := 0, 0
	for _, i := range rows {
		if dates[i].IsZero() {
			continue
		}
		day := stats.Midnight(dates[i])
		switch {
		case !day.Before(currentStart) && !day.After(anchor):
			currentCount++
		case !day.Before(baselineStart) && day.Before(currentStart):
			baselineCount++
		}
	}

	current := stats.Velocity(currentCount, s.population, currentWindowDays)
	baseline := stats.Velocity(baselineCount, s.population, s.lookbackDays)

	isSpike, change := s.DetectSpike(current, baseline)
	infrastructure.RecordAnalysisMetrics(ctx, s.metrics, engineName, time.Since(start), int64(len(rows)), nil)
	if !isSpike {
		s.logger.DebugContext(ctx, "no velocity spike",
			"pincode", pincode,
			"current_velocity", current,
			"baseline_velocity", baseline,
		)
		return nil, nil
	}

	city, state := locationOf(demo, rows[0])
	now := time.Now().UTC()
	spike := &domain.VelocitySpike{
		Pincode:            pincode,
		City:               city,
		State:              state,
		CurrentVelocity:    round2(current),
		BaselineVelocity:   round2(baseline),
		SpikePercentage:    round1(change),
		AffectedPopulation: currentCount,
		DetectionTime:      now,
		PredictedPeak:      now.Add(peakOffsetHours * time.Hour),
		ConfidenceScore:    confidenceFromSample(currentCount),
	}

	s.logger.InfoContext(ctx, "velocity spike detected",
		"pincode", pincode,
		"city", city,
		"state", state,
		"current_velocity", spike.CurrentVelocity,
		"baseline_velocity", spike.BaselineVelocity,
		"spike_percentage", spike.SpikePercentage,
		"affected_population", spike.AffectedPopulation,
	)
	return spike, nil
}

// corridorAnalysis bundles corridor detection with the state flow totals
// derived from the same grouping pass.
type corridorAnalysis struct {
	Corridors []domain.MigrationCorridor
	Inflow    map[string]int
	Outflow   map[string]int
}

func (s *Service) corridors(ctx context.Context) (*corridorAnalysis, error) {
	return cache.Memoize(ctx, s.results, "migration.corridors", s.cacheTTL, s.computeCorridors, nil, nil)
}

// DetectCorridors aggregates address updates that carry a previous-state
// field into inter-state relocation corridors, ranked by migrant volume.
func (s *Service) DetectCorridors(ctx context.Context) ([]domain.MigrationCorridor, error) {
	analysis, err := s.corridors(ctx)
	if err != nil {
		return nil, err
	}
	return analysis.Corridors, nil
}

func (s *Service) computeCorridors(ctx context.Context) (*corridorAnalysis, error) {
	start := time.Now()

	demo, err := s.loader.Load(ctx, dataset.KindDemographic)
	if err != nil {
		return nil, fmt.Errorf("loading demographic data: %w", err)
	}

	analysis := &corridorAnalysis{
		Corridors: []domain.MigrationCorridor{},
		Inflow:    map[string]int{},
		Outflow:   map[string]int{},
	}

	prevStates, hasPrev := demo.Strings("Previous_State")
	states, hasStates := demo.Strings("State")
	districts, hasDistricts := demo.Strings("District")
	if !hasPrev || !hasStates || !hasDistricts {
		if demo.Rows() > 0 {
			s.logger.WarnContext(ctx, "demographic data missing Previous_State, State or District, corridor detection unavailable")
		}
		return analysis, nil
	}
	dates, hasDates := demo.Times("Date")

	moves := addressRows(demo)
	type corridorKey struct {
		source   string
		state    string
		district string
	}
	groups := make(map[corridorKey][]int)
	for _, i := range moves {
		source := prevStates[i]
		// Same-state moves are churn, not migration.
		if source == "" || source == states[i] {
			continue
		}
		key := corridorKey{source: source, state: states[i], district: districts[i]}
		groups[key] = append(groups[key], i)
	}

	keys := make([]corridorKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].source != keys[j].source {
			return keys[i].source < keys[j].source
		}
		if keys[i].state != keys[j].state {
			return keys[i].state < keys[j].state
		}
		return keys[i].district < keys[j].district
	})

	var anchor time.Time
	if hasDates {
		anchor = stats.LatestDay(dates, moves)
	}
	windowDays := s.lookbackDays + currentWindowDays

	for _, key := range keys {
		rows := groups[key]
		count := len(rows)
		analysis.Inflow[key.state] += count
		analysis.Outflow[key.source] += count

		change := 0.0
		trend := domain.TrendStable
		if hasDates && !anchor.IsZero() {
			series := stats.DailyCounts(dates, rows, anchor, windowDays)
			change = halfOverHalfChange(series)
			_, trend = stats.DetectTrend(series)
		}

		analysis.Corridors = append(analysis.Corridors, domain.MigrationCorridor{
			SourceState:           key.source,
			SourceDistricts:       sourceDistricts(demo, rows),
			DestinationCity:       key.district,
			DestinationState:      key.state,
			DestinationPincode:    dataset.ModalValue(demo, "Pincode", rows),
			MigrantCount:          count,
			VelocityChangePercent: change,
			PrimaryDemographic:    primaryDemographic(demo, rows),
			Trend:                 trend,
		})
	}

	sort.SliceStable(analysis.Corridors, func(i, j int) bool {
		a, b := analysis.Corridors[i], analysis.Corridors[j]
		if a.MigrantCount != b.MigrantCount {
			return a.MigrantCount > b.MigrantCount
		}
		if a.SourceState != b.SourceState {
			return a.SourceState < b.SourceState
		}
		return a.DestinationCity < b.DestinationCity
	})

	infrastructure.RecordAnalysisMetrics(ctx, s.metrics, engineName, time.Since(start), int64(len(moves)), nil)
	s.logger.InfoContext(ctx, "corridor detection complete",
		"corridors", len(analysis.Corridors),
		"destination_states", len(analysis.Inflow),
		"source_states", len(analysis.Outflow),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return analysis, nil
}

// Analyze runs the full mobility sweep: a spike scan across every pincode
// with address activity, corridor detection, state flow totals and a 48-hour
// velocity projection.
func (s *Service) Analyze(ctx context.Context) (*domain.MigrationAnalysisResult, error) {
	return cache.Memoize(ctx, s.results, "migration.sweep", s.cacheTTL, s.analyze, nil, nil)
}

func (s *Service) analyze(ctx context.Context) (*domain.MigrationAnalysisResult, error) {
	start := time.Now()
	infrastructure.RecordActiveAnalysisChange(ctx, s.metrics, 1, engineName)
	defer infrastructure.RecordActiveAnalysisChange(ctx, s.metrics, -1, engineName)

	demo, err := s.loader.Load(ctx, dataset.KindDemographic)
	if err != nil {
		return nil, fmt.Errorf("loading demographic data: %w", err)
	}

	moves := addressRows(demo)
	spikes := []domain.VelocitySpike{}
	if pins, ok := demo.Strings("Pincode"); ok {
		for _, pin := range distinctAcross(pins, moves) {
			spike, err := s.AnalyzePincode(ctx, pin)
			if err != nil {
				return nil, err
			}
			if spike != nil {
				spikes = append(spikes, *spike)
			}
		}
	}
	sort.SliceStable(spikes, func(i, j int) bool {
		if spikes[i].SpikePercentage != spikes[j].SpikePercentage {
			return spikes[i].SpikePercentage > spikes[j].SpikePercentage
		}
		return spikes[i].Pincode < spikes[j].Pincode
	})

	analysis, err := s.corridors(ctx)
	if err != nil {
		return nil, err
	}
	top := analysis.Corridors
	if len(top) > corridorLimit {
		top = top[:corridorLimit]
	}

	result := &domain.MigrationAnalysisResult{
		Timestamp:              time.Now().UTC(),
		TotalCorridorsAnalyzed: len(analysis.Corridors),
		ActiveSpikes:           spikes,
		TopCorridors:           top,
		StateInflow:            analysis.Inflow,
		StateOutflow:           analysis.Outflow,
		Predictions48h:         s.predictions(demo, moves),
		ModelVersion:           s.version,
		ProcessingTimeMs:       float64(time.Since(start).Microseconds()) / 1000.0,
	}

	s.logger.InfoContext(ctx, "mobility sweep complete",
		"active_spikes", len(spikes),
		"corridors", result.TotalCorridorsAnalyzed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// predictions projects the nationwide daily address update velocity over the
// prediction horizon in 24-hour steps.
func (s *Service) predictions(demo *dataset.Dataset, moves []int) []domain.VelocityProjection {
	out := []domain.VelocityProjection{}
	dates, ok := demo.Times("Date")
	if !ok {
		return out
	}
	anchor := stats.LatestDay(dates, moves)
	if anchor.IsZero() {
		return out
	}

	counts := stats.DailyCounts(dates, moves, anchor, s.lookbackDays+currentWindowDays)
	history := make([]float64, len(counts))
	for i, c := range counts {
		history[i] = stats.Velocity(int(c), s.population, 1)
	}

	for i, v := range ProjectVelocity(history, predictionHorizonHours) {
		out = append(out, domain.VelocityProjection{
			HoursAhead: (i + 1) * 24,
			Velocity:   round2(v),
		})
	}
	return out
}

// ProjectVelocity extrapolates a daily velocity series horizonHours ahead in
// 24-hour steps. Histories shorter than a week repeat the last observation;
// longer ones extend the least-squares slope of the final week, floored at
// zero.
func ProjectVelocity(history []float64, horizonHours int) []float64 {
	steps := horizonHours / 24
	if steps <= 0 || len(history) == 0 {
		return nil
	}

	last := history[len(history)-1]
	out := make([]float64, 0, steps)
	if len(history) < 7 {
		for i := 0; i < steps; i++ {
			out = append(out, math.Max(0, last))
		}
		return out
	}

	slope, _ := stats.LinearRegression(history[len(history)-7:])
	projected := last
	for i := 0; i < steps; i++ {
		projected += slope
		out = append(out, math.Max(0, projected))
	}
	return out
}

// InfrastructureAlerts derives municipal stress predictions from a detected
// spike so civic teams can position water, transport, health and ration
// resources ahead of the inflow. A nil spike yields no alerts.
func InfrastructureAlerts(spike *domain.VelocitySpike) []domain.InfrastructureAlert {
	if spike == nil {
		return nil
	}
	population := spike.AffectedPopulation

	waterSeverity := domain.RiskLevelMedium
	if spike.SpikePercentage > severeSpikePercent {
		waterSeverity = domain.RiskLevelHigh
	}

	return []domain.InfrastructureAlert{
		{
			Category: "water_supply",
			Severity: waterSeverity,
			Message:  fmt.Sprintf("Predicted additional demand: %dL/day", population*waterLitresPerPerson),
			Action:   "Pre-position water tankers in affected wards",
		},
		{
			Category: "public_transport",
			Severity: domain.RiskLevelHigh,
			Message:  fmt.Sprintf("Expected %d additional daily commuters", population),
			Action:   "Deploy additional buses on arterial routes",
		},
		{
			Category: "healthcare",
			Severity: domain.RiskLevelMedium,
			Message:  "Increase in OPD load expected at PHCs",
			Action:   "Alert district health officer for resource allocation",
		},
		{
			Category: "ration_shops",
			Severity: domain.RiskLevelHigh,
			Message:  fmt.Sprintf("PDS quota increase needed for %d beneficiaries", population),
			Action:   "Auto-allocate additional ration quota",
		},
	}
}

// addressRows selects the rows that represent address changes. Datasets
// without an Update_Type column are treated as pure address data.
func addressRows(ds *dataset.Dataset) []int {
	types, ok := ds.Strings("Update_Type")
	rows := make([]int, 0, ds.Rows())
	for i := 0; i < ds.Rows(); i++ {
		if ok && types[i] != "Address" {
			continue
		}
		rows = append(rows, i)
	}
	return rows
}

func locationOf(ds *dataset.Dataset, row int) (city, state string) {
	if districts, ok := ds.Strings("District"); ok {
		city = districts[row]
	}
	if states, ok := ds.Strings("State"); ok {
		state = states[row]
	}
	return city, state
}

// sourceDistricts ranks the districts migrants left behind, highest volume
// first.
func sourceDistricts(ds *dataset.Dataset, rows []int) []string {
	top := dataset.TopValues(ds, "Previous_District", rows, sourceDistrictLimit)
	if top == nil {
		return []string{}
	}
	return top
}

// primaryDemographic labels the dominant migrant cohort as "<gender> <age
// bucket>". Missing demographic columns yield "Mixed"; empty row sets yield
// "Unknown".
func primaryDemographic(ds *dataset.Dataset, rows []int) string {
	if len(rows) == 0 {
		return "Unknown"
	}
	ages, hasAges := ds.Ints("Age")
	genders, hasGenders := ds.Strings("Gender")
	if !hasAges || !hasGenders {
		return "Mixed"
	}

	counts := make(map[string]int)
	for _, i := range rows {
		if genders[i] == "" {
			continue
		}
		counts[fmt.Sprintf("%s %s", genders[i], stats.AgeBucket(int(ages[i])))]++
	}
	best, bestCount := "", 0
	for cohort, count := range counts {
		if count > bestCount || (count == bestCount && cohort < best) {
			best, bestCount = cohort, count
		}
	}
	if best == "" {
		return "Unknown"
	}
	return best
}

// halfOverHalfChange compares the mean daily volume of the second half of a
// series against the first half, as a percentage.
func halfOverHalfChange(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	mid := len(series) / 2
	first := stats.Mean(series[:mid])
	second := stats.Mean(series[mid:])
	if first == 0 {
		if second > 0 {
			return spikeInfinitePercent
		}
		return 0
	}
	return round1((second - first) / first * 100)
}

// confidenceFromSample grows detection confidence with the volume of evidence
// in the current window, capped below certainty.
func confidenceFromSample(count int) float64 {
	n := math.Min(float64(count), 1000)
	return math.Min(0.95, 0.5+0.45*n/1000)
}

// distinctAcross returns the distinct non-empty values at the selected rows,
// sorted.
func distinctAcross(values []string, rows []int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, i := range rows {
		v := values[i]
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
