// Package fraud detects coordinated update waves in demographic data by
// comparing daily volumes against a statistical baseline, classifies the
// likely fraud pattern and correlates it with known external events.
package fraud

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
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
	"github.com/YashwanthKamireddi/project-prerana/internal/scoring"
	"github.com/YashwanthKamireddi/project-prerana/internal/stats"
	"github.com/YashwanthKamireddi/project-prerana/pkg/contracts/domain"
)

const (
	engineName   = "fraud"
	modelVersion = "v3.0.1"

	// flashMobWindowHours is the burst window a cluster is evaluated in.
	flashMobWindowHours = 48

	// anomalyCacheTTL keeps detection results fresh enough for freeze
	// requests to reference cluster IDs from a recent listing.
	anomalyCacheTTL = config.AnomalyCacheTTL

	freezeDurationHours = 72

	scopeLimit  = 5
	centerLimit = 5
)

var (
	// ErrClusterNotFound reports a freeze request against a cluster ID that
	// is not in the current detection set.
	ErrClusterNotFound = errors.New("anomaly cluster not found")

	// ErrInvalidFreezeRequest reports a freeze request with missing fields.
	ErrInvalidFreezeRequest = errors.New("freeze request requires cluster id, authorizer and reason")
)

// Service runs anomaly detection over demographic update data.
type Service struct {
	loader  *dataset.Loader
	results *cache.Cache
	scorer  scoring.RiskScorer
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	zscoreThreshold float64
	lookbackDays    int
	minClusterSize  int
	cacheTTL        time.Duration
	version         string
}

// NewService wires the fraud pipeline against its data, cache and scoring
// dependencies. Detection parameters come from the analysis configuration.
func NewService(loader *dataset.Loader, results *cache.Cache, scorer scoring.RiskScorer, cfg config.AnalysisConfig, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	lookback := cfg.LookbackDays
	if lookback < 1 {
		lookback = 1
	}
	version := modelVersion
	if v, ok := scorer.(interface{ Version() string }); ok {
		version = v.Version()
	}
	return &Service{
		loader:          loader,
		results:         results,
		scorer:          scorer,
		logger:          logger,
		metrics:         metrics,
		zscoreThreshold: cfg.ZScoreThreshold,
		lookbackDays:    lookback,
		minClusterSize:  cfg.MinClusterSize,
		cacheTTL:        cfg.CacheTTL,
		version:         version,
	}
}

// BaselineStatistics computes daily update-volume statistics over the
// lookback window, anchored at the newest date present in the data so
// repeated runs see the same window.
func (s *Service) BaselineStatistics(ctx context.Context) (*domain.BaselineStats, error) {
	return cache.Memoize(ctx, s.results, "fraud.baseline", s.cacheTTL, s.computeBaseline, nil, nil)
}

func (s *Service) computeBaseline(ctx context.Context) (*domain.BaselineStats, error) {
	demo, err := s.loader.Load(ctx, dataset.KindDemographic)
	if err != nil {
		return nil, fmt.Errorf("loading demographic data: %w", err)
	}

	baseline := &domain.BaselineStats{
		TotalRecords: demo.Rows(),
		ByUpdateType: make(map[string]domain.UpdateTypeStat),
	}

	dates, hasDates := demo.Times("Date")
	if !hasDates {
		s.logger.WarnContext(ctx, "demographic data has no Date column, baseline degraded")
		return baseline, nil
	}
	anchor := stats.LatestDay(dates, nil)
	if anchor.IsZero() {
		s.logger.WarnContext(ctx, "demographic data has no parseable dates, baseline degraded")
		return baseline, nil
	}

	series := stats.DailyCounts(dates, nil, anchor, s.lookbackDays)
	baseline.DailyMean = stats.Mean(series)
	baseline.DailyStd = stats.StdDev(series)
	if len(series) > 0 {
		baseline.LatestDayCount = int(series[len(series)-1])
	}

	if types, ok := demo.Strings("Update_Type"); ok {
		for _, updateType := range distinctValues(types) {
			var rows []int
			for i, t := range types {
				if t == updateType {
					rows = append(rows, i)
				}
			}
			typeSeries := stats.DailyCounts(dates, rows, anchor, s.lookbackDays)
			baseline.ByUpdateType[updateType] = domain.UpdateTypeStat{
				Mean: stats.Mean(typeSeries),
				Std:  stats.StdDev(typeSeries),
			}
		}
	}

	s.logger.InfoContext(ctx, "baseline statistics computed",
		"total_records", baseline.TotalRecords,
		"daily_mean", baseline.DailyMean,
		"update_types", len(baseline.ByUpdateType),
	)
	return baseline, nil
}

// DetectAnomalies groups demographic updates by (state, update type), builds
// each group's daily volume series over the lookback window and flags groups
// whose latest day deviates beyond the z-score threshold. Optional filters
// narrow the scan to one update type or state.
func (s *Service) DetectAnomalies(ctx context.Context, updateType, state string) ([]domain.AnomalyCluster, error) {
	updateType = strings.TrimSpace(updateType)
	state = dataset.TitleCase(state)

	return cache.Memoize(ctx, s.results, "fraud.anomalies", anomalyCacheTTL,
		func(ctx context.Context) ([]domain.AnomalyCluster, error) {
			return s.detect(ctx, updateType, state)
		},
		nil, map[string]string{"update_type": updateType, "state": state})
}

func (s *Service) detect(ctx context.Context, updateTypeFilter, stateFilter string) ([]domain.AnomalyCluster, error) {
	start := time.Now()

	demo, err := s.loader.Load(ctx, dataset.KindDemographic)
	if err != nil {
		return nil, fmt.Errorf("loading demographic data: %w", err)
	}

	clusters := []domain.AnomalyCluster{}
	states, hasStates := demo.Strings("State")
	types, hasTypes := demo.Strings("Update_Type")
	dates, hasDates := demo.Times("Date")
	if demo.Rows() == 0 || !hasStates || !hasTypes || !hasDates {
		if demo.Rows() > 0 {
			s.logger.WarnContext(ctx, "demographic data missing State, Update_Type or Date, detection degraded")
		}
		return clusters, nil
	}
	anchor := stats.LatestDay(dates, nil)
	if anchor.IsZero() {
		s.logger.WarnContext(ctx, "demographic data has no parseable dates, detection degraded")
		return clusters, nil
	}

	type groupKey struct {
		state      string
		updateType string
	}
	groups := make(map[groupKey][]int)
	for i := 0; i < demo.Rows(); i++ {
		if updateTypeFilter != "" && types[i] != updateTypeFilter {
			continue
		}
		if stateFilter != "" && states[i] != stateFilter {
			continue
		}
		key := groupKey{state: states[i], updateType: types[i]}
		groups[key] = append(groups[key], i)
	}

	keys := make([]groupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].state != keys[j].state {
			return keys[i].state < keys[j].state
		}
		return keys[i].updateType < keys[j].updateType
	})

	for _, key := range keys {
		rows := groups[key]
		series := stats.DailyCounts(dates, rows, anchor, s.lookbackDays)

		zs := stats.ZScores(series)
		z := zs[len(zs)-1]
		if math.Abs(z) <= s.zscoreThreshold {
			continue
		}

		spikeRows := rowsOnDay(rows, dates, anchor)
		affected := len(spikeRows)
		if affected < s.minClusterSize {
			continue
		}

		cluster := s.buildCluster(demo, key.state, key.updateType, spikeRows, z, stats.Mean(series), anchor)
		clusters = append(clusters, cluster)
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].AffectedCount != clusters[j].AffectedCount {
			return clusters[i].AffectedCount > clusters[j].AffectedCount
		}
		if clusters[i].State != clusters[j].State {
			return clusters[i].State < clusters[j].State
		}
		return clusters[i].UpdateType < clusters[j].UpdateType
	})

	infrastructure.RecordAnalysisMetrics(ctx, s.metrics, engineName, time.Since(start), int64(demo.Rows()), nil)
	s.logger.InfoContext(ctx, "anomaly detection complete",
		"groups", len(groups),
		"clusters", len(clusters),
		"update_type_filter", updateTypeFilter,
		"state_filter", stateFilter,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return clusters, nil
}

func (s *Service) buildCluster(demo *dataset.Dataset, state, updateType string, spikeRows []int, z, dailyMean float64, anchor time.Time) domain.AnomalyCluster {
	affected := len(spikeRows)

	ageMin, ageMax := ageBounds(demo, spikeRows)
	gender := dataset.ModalValue(demo, "Gender", spikeRows)
	scope := dataset.TopValues(demo, "Pincode", spikeRows, scopeLimit)
	centers := dataset.TopValues(demo, "Center_ID", spikeRows, centerLimit)

	multiplier := 0.0
	if dailyMean > 0 {
		multiplier = float64(affected) / dailyMean
	}

	fraudType := ClassifyFraudType(updateType, [2]int{ageMin, ageMax}, gender, float64(affected))
	_, level := s.scorer.ScoreCluster(z, affected, fraudType)

	cluster := domain.AnomalyCluster{
		ClusterID:          clusterID(state, updateType, anchor),
		DetectionTime:      time.Now().UTC(),
		FraudType:          fraudType,
		RiskLevel:          level,
		AffectedCount:      affected,
		ZScore:             z,
		Confidence:         math.Min(0.99, math.Abs(z)/5),
		AgeRange:           [2]int{ageMin, ageMax},
		PrimaryGender:      gender,
		State:              state,
		GeographicScope:    scope,
		UpdateType:         updateType,
		TimeWindowHours:    flashMobWindowHours,
		VelocityMultiplier: multiplier,
		CorrelatedEvents:   CorrelateWithEvents(state, anchor, fraudType),
		EnrollmentCenters:  centers,
	}
	cluster.RecommendedAction, cluster.AutoFreezeEligible = recommendation(&cluster)
	return cluster
}

// Analyze runs the full integrity sweep: baseline, anomaly clusters, fraud
// type distribution and the enrollment centers repeatedly implicated by
// detected clusters.
func (s *Service) Analyze(ctx context.Context) (*domain.FraudAnalysisResult, error) {
	start := time.Now()
	infrastructure.RecordActiveAnalysisChange(ctx, s.metrics, 1, engineName)
	defer infrastructure.RecordActiveAnalysisChange(ctx, s.metrics, -1, engineName)

	demo, err := s.loader.Load(ctx, dataset.KindDemographic)
	if err != nil {
		return nil, fmt.Errorf("loading demographic data: %w", err)
	}
	baseline, err := s.BaselineStatistics(ctx)
	if err != nil {
		return nil, err
	}
	clusters, err := s.DetectAnomalies(ctx, "", "")
	if err != nil {
		return nil, err
	}

	distribution := make(map[string]int, len(clusters))
	centersByID := make(map[string]*domain.CenterRisk)
	for i := range clusters {
		cluster := &clusters[i]
		distribution[cluster.FraudType.String()]++

		score, _ := s.scorer.ScoreCluster(cluster.ZScore, cluster.AffectedCount, cluster.FraudType)
		for _, id := range cluster.EnrollmentCenters {
			center, ok := centersByID[id]
			if !ok {
				center = &domain.CenterRisk{CenterID: id, Location: cluster.State}
				centersByID[id] = center
			}
			center.AnomalyCount++
			if score > center.RiskScore {
				center.RiskScore = score
			}
		}
	}

	centers := make([]domain.CenterRisk, 0, len(centersByID))
	for _, center := range centersByID {
		centers = append(centers, *center)
	}
	sort.Slice(centers, func(i, j int) bool {
		if centers[i].RiskScore != centers[j].RiskScore {
			return centers[i].RiskScore > centers[j].RiskScore
		}
		if centers[i].AnomalyCount != centers[j].AnomalyCount {
			return centers[i].AnomalyCount > centers[j].AnomalyCount
		}
		return centers[i].CenterID < centers[j].CenterID
	})

	result := &domain.FraudAnalysisResult{
		Timestamp:             time.Now().UTC(),
		TotalUpdatesAnalyzed:  demo.Rows(),
		BaselineStatistics:    *baseline,
		DetectedAnomalies:     clusters,
		FraudTypeDistribution: distribution,
		HighRiskCenters:       centers,
		ModelVersion:          s.version,
		ProcessingTimeMs:      float64(time.Since(start).Microseconds()) / 1000.0,
	}

	s.logger.InfoContext(ctx, "integrity sweep complete",
		"updates", result.TotalUpdatesAnalyzed,
		"clusters", len(clusters),
		"high_risk_centers", len(centers),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// FreezeCohort records a provisional 72-hour freeze against a detected
// cluster. The request must reference a cluster from the current detection
// set; the underlying records are never mutated here.
func (s *Service) FreezeCohort(ctx context.Context, clusterID, authorizedBy, reason string) (*domain.FreezeAction, error) {
	clusterID = strings.TrimSpace(clusterID)
	authorizedBy = strings.TrimSpace(authorizedBy)
	reason = strings.TrimSpace(reason)
	if clusterID == "" || authorizedBy == "" || reason == "" {
		return nil, ErrInvalidFreezeRequest
	}

	clusters, err := s.DetectAnomalies(ctx, "", "")
	if err != nil {
		return nil, err
	}
	var target *domain.AnomalyCluster
	for i := range clusters {
		if clusters[i].ClusterID == clusterID {
			target = &clusters[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%s: %w", clusterID, ErrClusterNotFound)
	}

	action := &domain.FreezeAction{
		ClusterID:           clusterID,
		AuthorizedBy:        authorizedBy,
		Reason:              reason,
		Timestamp:           time.Now().UTC(),
		AffectedRecords:     target.AffectedCount,
		FreezeDurationHours: freezeDurationHours,
		ReviewRequired:      true,
	}

	s.logger.WarnContext(ctx, "cohort freeze initiated",
		"cluster_id", clusterID,
		"authorized_by", authorizedBy,
		"reason", reason,
		"affected_records", action.AffectedRecords,
	)
	return action, nil
}

// clusterID derives a stable identifier from the cluster identity. The same
// logical cluster keeps its ID across filtered listings and recomputations,
// so a freeze request can reference a cluster from any listing variant.
func clusterID(state, updateType string, anchor time.Time) string {
	sum := md5.Sum([]byte(state + "|" + updateType + "|" + anchor.Format("2006-01-02")))
	suffix := strings.ToUpper(hex.EncodeToString(sum[:4]))
	return fmt.Sprintf("ANOM-%d-%s", anchor.Year(), suffix)
}

func rowsOnDay(rows []int, dates []time.Time, day time.Time) []int {
	var matched []int
	for _, i := range rows {
		d := dates[i]
		if d.IsZero() {
			continue
		}
		if d.Year() == day.Year() && d.Month() == day.Month() && d.Day() == day.Day() {
			matched = append(matched, i)
		}
	}
	return matched
}

func ageBounds(ds *dataset.Dataset, rows []int) (int, int) {
	ages, ok := ds.Ints("Age")
	if !ok || len(rows) == 0 {
		return 0, 0
	}
	min, max := int(ages[rows[0]]), int(ages[rows[0]])
	for _, i := range rows[1:] {
		age := int(ages[i])
		if age < min {
			min = age
		}
		if age > max {
			max = age
		}
	}
	return min, max
}

func distinctValues(values []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range values {
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
