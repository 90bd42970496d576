package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/YashwanthKamireddi/project-prerana/internal/errors"
	"github.com/YashwanthKamireddi/project-prerana/internal/exporter"
	"github.com/YashwanthKamireddi/project-prerana/internal/middleware"
	"github.com/YashwanthKamireddi/project-prerana/pkg/contracts/domain"
)

// ReportHandler serves the cross-pipeline daily summary and report downloads
type ReportHandler struct {
	gaps         GapService
	fraud        FraudService
	migration    MigrationService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a new report handler
func NewReportHandler(gaps GapService, fraud FraudService, migration MigrationService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		gaps:         gaps,
		fraud:        fraud,
		migration:    migration,
		logger:       logger.With(slog.String("handler", "reports")),
		errorHandler: errorHandler,
	}
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/daily", h.Daily)
	r.Get("/export/{format}", h.Export)

	return r
}

// Daily handles GET /api/reports/daily
func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "building daily report",
		slog.String("request_id", reqID),
	)

	gapRes, fraudRes, migrationRes, err := runSweeps(r.Context(), h.gaps, h.fraud, h.migration)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "daily report aggregation failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, apierrors.ErrAnalysisExecution(err))
		return
	}

	now := time.Now().UTC()
	report := domain.DailyReport{
		ReportDate: now.Format("2006-01-02"),
		Coverage: domain.DailyCoverageStats{
			InvisibleChildren: gapRes.TotalInvisibleChildren,
			HighRiskDistricts: len(gapRes.HighRiskDistricts),
		},
		Mobility: domain.DailyMobilityStats{
			ActiveCorridors: migrationRes.TotalCorridorsAnalyzed,
			VelocitySpikes:  len(migrationRes.ActiveSpikes),
		},
		Integrity: domain.DailyIntegrityStat{
			AnomaliesDetected: len(fraudRes.DetectedAnomalies),
			CriticalAlerts:    countCritical(fraudRes.DetectedAnomalies),
		},
		GeneratedAt: now,
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   report,
	})
}

// Export handles GET /api/reports/export/{format}. It streams the gap report
// in the requested serialization with a download disposition.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	format, err := exporter.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "exporting gap report",
		slog.String("request_id", reqID),
		slog.String("format", string(format)),
	)

	result, err := h.gaps.AnalyzeAllDistricts(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "gap report export failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, apierrors.ErrAnalysisExecution(err))
		return
	}

	filename := fmt.Sprintf("prerana_gap_%s.%s", time.Now().UTC().Format("2006_01_02"), format.Ext())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	switch format {
	case exporter.FormatCSV:
		err = exporter.RenderCSV(w, exporter.GapTable(result))
	case exporter.FormatXLSX:
		err = exporter.RenderXLSX(w, exporter.GapTable(result), exporter.StateSummaryTable(result))
	case exporter.FormatJSON:
		err = exporter.RenderJSON(w, result)
	}
	if err != nil {
		// Headers are already on the wire, so only log stream failures.
		h.logger.ErrorContext(r.Context(), "report stream failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("format", string(format)),
		)
	}
}

// countCritical counts clusters at the highest severity
func countCritical(clusters []domain.AnomalyCluster) int {
	n := 0
	for _, cluster := range clusters {
		if cluster.RiskLevel == domain.RiskLevelCritical {
			n++
		}
	}
	return n
}
