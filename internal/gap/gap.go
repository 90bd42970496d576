// Package gap identifies children who were enrolled at birth but never
// returned for a school-age biometric update, district by district.
package gap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/YashwanthKamireddi/project-prerana/internal/cache"
	"github.com/YashwanthKamireddi/project-prerana/internal/dataset"
	"github.com/YashwanthKamireddi/project-prerana/internal/infrastructure"
	"github.com/YashwanthKamireddi/project-prerana/internal/scoring"
	"github.com/YashwanthKamireddi/project-prerana/internal/stats"
	"github.com/YashwanthKamireddi/project-prerana/pkg/contracts/domain"
)

const (
	// Children enter the registry at birth and are due a first biometric
	// update at school age.
	enrollmentAgeMin = 0
	enrollmentAgeMax = 1
	updateAgeMin     = 5
	updateAgeMax     = 7

	// DefaultMaxUnits is the fleet size used when a plan request does not
	// name one. MaxUnits caps any single plan.
	DefaultMaxUnits = 10
	MaxUnits        = 50

	highRiskLimit        = 20
	criticalPincodeLimit = 5
	planPincodeLimit     = 3
	minDeploymentDays    = 3
	childrenPerVanDay    = 500

	engineName   = "gap"
	modelVersion = "v2.1.0"
)

// ErrDistrictNotFound reports a district with no enrollment rows at all.
var ErrDistrictNotFound = errors.New("district not found in enrollment data")

var equipmentManifest = []string{"biometric_kit", "printer", "generator"}

// numberPrinter renders grouped counts ("12,430") in operator-facing text.
var numberPrinter = message.NewPrinter(language.English)

// Service analyzes the shortfall between birth enrollments and school-age
// biometric updates.
type Service struct {
	loader  *dataset.Loader
	results *cache.Cache
	scorer  scoring.RiskScorer
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	cacheTTL time.Duration
	version  string
}

// NewService wires the gap pipeline against its data, cache and scoring
// dependencies.
func NewService(loader *dataset.Loader, results *cache.Cache, scorer scoring.RiskScorer, cacheTTL time.Duration, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	version := modelVersion
	if v, ok := scorer.(interface{ Version() string }); ok {
		version = v.Version()
	}
	return &Service{
		loader:   loader,
		results:  results,
		scorer:   scorer,
		logger:   logger,
		metrics:  metrics,
		cacheTTL: cacheTTL,
		version:  version,
	}
}

// AnalyzeDistrict computes the enrollment-to-update gap for one district.
// Results are memoized per (state, district) pair.
func (s *Service) AnalyzeDistrict(ctx context.Context, state, district string) (*domain.CoverageGap, error) {
	state = dataset.TitleCase(state)
	district = dataset.TitleCase(district)

	return cache.Memoize(ctx, s.results, "gap.district", s.cacheTTL,
		func(ctx context.Context) (*domain.CoverageGap, error) {
			return s.analyzeDistrict(ctx, state, district)
		},
		[]string{state, district}, nil)
}

func (s *Service) analyzeDistrict(ctx context.Context, state, district string) (*domain.CoverageGap, error) {
	start := time.Now()

	enrolments, err := s.loader.Load(ctx, dataset.KindEnrolment)
	if err != nil {
		return nil, fmt.Errorf("loading enrolment data: %w", err)
	}
	biometrics, err := s.loader.Load(ctx, dataset.KindBiometric)
	if err != nil {
		return nil, fmt.Errorf("loading biometric data: %w", err)
	}

	enrolled := filterCohort(enrolments, state, district, enrollmentAgeMin, enrollmentAgeMax)
	if !enrolled.present {
		return nil, fmt.Errorf("%s, %s: %w", district, state, ErrDistrictNotFound)
	}
	updated := filterCohort(biometrics, state, district, updateAgeMin, updateAgeMax)

	gapCount := enrolled.rows - updated.rows
	if gapCount < 0 {
		gapCount = 0
	}
	gapPct := 0.0
	if enrolled.rows > 0 {
		gapPct = float64(gapCount) / float64(enrolled.rows) * 100
	}

	gap := &domain.CoverageGap{
		District:         district,
		State:            state,
		TotalEnrollments: enrolled.rows,
		BiometricUpdates: updated.rows,
		GapCount:         gapCount,
		GapPercentage:    round2(gapPct),
		AvgChildAge:      round2(meanAge(enrolled.ages)),
		CriticalPincodes: rankPincodeShortfall(enrolled.pincodes, updated.pincodes, criticalPincodeLimit),
		RiskLevel:        s.scorer.ScoreGap(gapPct),
	}
	gap.RecommendedAction = recommendation(gap)

	infrastructure.RecordAnalysisMetrics(ctx, s.metrics, engineName, time.Since(start), int64(enrolled.rows+updated.rows), nil)
	s.logger.InfoContext(ctx, "district gap analyzed",
		"state", state,
		"district", district,
		"gap_count", gap.GapCount,
		"gap_percentage", gap.GapPercentage,
		"risk_level", gap.RiskLevel,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return gap, nil
}

// AnalyzeAllDistricts sweeps every (state, district) pair present in the
// enrollment data. The sweep result is memoized; the per-district results it
// is built from are cached by AnalyzeDistrict as well.
func (s *Service) AnalyzeAllDistricts(ctx context.Context) (*domain.GapAnalysisResult, error) {
	return cache.Memoize(ctx, s.results, "gap.sweep", s.cacheTTL, s.analyzeAll, nil, nil)
}

func (s *Service) analyzeAll(ctx context.Context) (*domain.GapAnalysisResult, error) {
	start := time.Now()
	infrastructure.RecordActiveAnalysisChange(ctx, s.metrics, 1, engineName)
	defer infrastructure.RecordActiveAnalysisChange(ctx, s.metrics, -1, engineName)

	enrolments, err := s.loader.Load(ctx, dataset.KindEnrolment)
	if err != nil {
		return nil, fmt.Errorf("loading enrolment data: %w", err)
	}

	result := &domain.GapAnalysisResult{
		Timestamp:         time.Now().UTC(),
		HighRiskDistricts: []domain.CoverageGap{},
		StateSummary:      make(map[string]domain.StateGapSummary),
		ModelVersion:      s.version,
	}

	for _, pair := range distinctDistricts(enrolments) {
		gap, err := s.AnalyzeDistrict(ctx, pair.state, pair.district)
		if errors.Is(err, ErrDistrictNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		result.TotalDistrictsAnalyzed++
		result.TotalInvisibleChildren += gap.GapCount

		summary := result.StateSummary[gap.State]
		summary.TotalDistricts++
		summary.TotalGap += gap.GapCount
		if gap.RiskLevel == domain.RiskLevelCritical {
			summary.CriticalDistricts++
		}
		result.StateSummary[gap.State] = summary

		if gap.RiskLevel == domain.RiskLevelHigh || gap.RiskLevel == domain.RiskLevelCritical {
			result.HighRiskDistricts = append(result.HighRiskDistricts, *gap)
		}
	}

	sort.SliceStable(result.HighRiskDistricts, func(i, j int) bool {
		return result.HighRiskDistricts[i].GapCount > result.HighRiskDistricts[j].GapCount
	})
	if len(result.HighRiskDistricts) > highRiskLimit {
		result.HighRiskDistricts = result.HighRiskDistricts[:highRiskLimit]
	}
	result.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000.0

	infrastructure.RecordAnalysisMetrics(ctx, s.metrics, engineName, time.Since(start), int64(enrolments.Rows()), nil)
	s.logger.InfoContext(ctx, "district sweep complete",
		"districts", result.TotalDistrictsAnalyzed,
		"invisible_children", result.TotalInvisibleChildren,
		"high_risk", len(result.HighRiskDistricts),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// PlanDeployment schedules mobile enrollment vans against the worst gaps in
// one state, highest shortfall first.
func (s *Service) PlanDeployment(ctx context.Context, state string, maxUnits int) ([]domain.DeploymentUnit, error) {
	if maxUnits <= 0 {
		maxUnits = DefaultMaxUnits
	}
	if maxUnits > MaxUnits {
		maxUnits = MaxUnits
	}
	state = dataset.TitleCase(state)

	result, err := s.AnalyzeAllDistricts(ctx)
	if err != nil {
		return nil, err
	}

	plan := make([]domain.DeploymentUnit, 0, maxUnits)
	for _, gap := range result.HighRiskDistricts {
		if gap.State != state {
			continue
		}
		if len(plan) == maxUnits {
			break
		}
		days := gap.GapCount / childrenPerVanDay
		if days < minDeploymentDays {
			days = minDeploymentDays
		}
		plan = append(plan, domain.DeploymentUnit{
			Priority:          len(plan) + 1,
			District:          gap.District,
			Pincodes:          firstN(gap.CriticalPincodes, planPincodeLimit),
			EstimatedChildren: gap.GapCount,
			RecommendedDays:   days,
			EquipmentNeeded:   append([]string(nil), equipmentManifest...),
		})
	}

	s.logger.InfoContext(ctx, "deployment plan built",
		"state", state,
		"units", len(plan),
	)
	return plan, nil
}

// recommendation renders the operator guidance for a scored district. The
// wording is stable; dashboards key on the leading token.
func recommendation(gap *domain.CoverageGap) string {
	switch gap.RiskLevel {
	case domain.RiskLevelCritical:
		return numberPrinter.Sprintf(
			"URGENT: Deploy 3+ Mobile Aadhaar Vans to %s. Estimated %d children at risk of permanent exclusion.",
			gap.District, gap.GapCount)
	case domain.RiskLevelHigh:
		return fmt.Sprintf(
			"Priority: Schedule Mobile Van deployment to %s within 7 days. Focus on pincodes: %s.",
			gap.District, strings.Join(firstN(gap.CriticalPincodes, planPincodeLimit), ", "))
	case domain.RiskLevelMedium:
		return fmt.Sprintf(
			"Action Required: Include %s in next monthly outreach program. Partner with local Anganwadi centers.",
			gap.District)
	case domain.RiskLevelLow:
		return fmt.Sprintf(
			"Monitor: %s within acceptable thresholds. Continue standard enrollment drives.",
			gap.District)
	default:
		return "No action required."
	}
}

type cohort struct {
	present  bool
	rows     int
	ages     []int
	pincodes map[string]int
}

// filterCohort narrows a dataset to one district's rows within an age band.
// present reports whether the district appears at any age, so callers can
// distinguish an unknown district from an empty cohort.
func filterCohort(ds *dataset.Dataset, state, district string, minAge, maxAge int) cohort {
	c := cohort{pincodes: make(map[string]int)}
	states, okState := ds.Strings("State")
	districts, okDistrict := ds.Strings("District")
	if !okState || !okDistrict {
		return c
	}
	ages, hasAges := ds.Ints("Age")
	pins, hasPins := ds.Strings("Pincode")

	for i := 0; i < ds.Rows(); i++ {
		if states[i] != state || districts[i] != district {
			continue
		}
		c.present = true
		if !hasAges {
			continue
		}
		age := int(ages[i])
		if age < minAge || age > maxAge {
			continue
		}
		c.rows++
		c.ages = append(c.ages, age)
		if hasPins && pins[i] != "" {
			c.pincodes[pins[i]]++
		}
	}
	return c
}

type districtKey struct {
	state    string
	district string
}

func distinctDistricts(ds *dataset.Dataset) []districtKey {
	states, okState := ds.Strings("State")
	districts, okDistrict := ds.Strings("District")
	if !okState || !okDistrict {
		return nil
	}
	seen := make(map[districtKey]struct{})
	pairs := make([]districtKey, 0, 64)
	for i := 0; i < ds.Rows(); i++ {
		key := districtKey{state: states[i], district: districts[i]}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		pairs = append(pairs, key)
	}
	return pairs
}

// rankPincodeShortfall orders enrollment pincodes by how far biometric
// updates lag behind, ties broken by pincode for stable output.
func rankPincodeShortfall(enrolled, updated map[string]int, limit int) []string {
	type pinGap struct {
		pin string
		gap int
	}
	gaps := make([]pinGap, 0, len(enrolled))
	for pin, count := range enrolled {
		gaps = append(gaps, pinGap{pin: pin, gap: count - updated[pin]})
	}
	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].gap != gaps[j].gap {
			return gaps[i].gap > gaps[j].gap
		}
		return gaps[i].pin < gaps[j].pin
	})
	if len(gaps) > limit {
		gaps = gaps[:limit]
	}
	pins := make([]string, len(gaps))
	for i, g := range gaps {
		pins[i] = g.pin
	}
	return pins
}

func meanAge(ages []int) float64 {
	if len(ages) == 0 {
		return 0
	}
	values := make([]float64, len(ages))
	for i, a := range ages {
		values[i] = float64(a)
	}
	return stats.Mean(values)
}

func firstN(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
