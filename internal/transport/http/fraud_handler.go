package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/YashwanthKamireddi/project-prerana/internal/errors"
	"github.com/YashwanthKamireddi/project-prerana/internal/fraud"
	"github.com/YashwanthKamireddi/project-prerana/internal/middleware"
	v1 "github.com/YashwanthKamireddi/project-prerana/pkg/contracts/api/v1"
	"github.com/YashwanthKamireddi/project-prerana/pkg/contracts/domain"
)

// FraudHandler handles integrity HTTP requests with RFC 7807 compliance
type FraudHandler struct {
	service      FraudService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validation   *middleware.ValidationMiddleware
	queryParams  *middleware.QueryParamValidator
}

// NewFraudHandler creates a new integrity handler
func NewFraudHandler(service FraudService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, validation *middleware.ValidationMiddleware) *FraudHandler {
	return &FraudHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "fraud")),
		errorHandler: errorHandler,
		validation:   validation,
		queryParams:  middleware.NewQueryParamValidator(logger, errorHandler),
	}
}

// Routes returns the integrity routes
func (h *FraudHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/analysis", middleware.AnalysisTraceHandler("fraud", h.Analysis))
	r.Get("/anomalies", h.Anomalies)
	r.With(middleware.ContentTypeValidator("application/json")).Post("/freeze", h.Freeze)

	return r
}

// Analysis handles GET /api/fraud/analysis
func (h *FraudHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "running integrity sweep",
		slog.String("request_id", reqID),
	)

	result, err := h.service.Analyze(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "integrity sweep failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, apierrors.ErrAnalysisExecution(err))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}

// Anomalies handles GET /api/fraud/anomalies. update_type and state scope
// the detection, min_risk and limit shape the returned list.
func (h *FraudHandler) Anomalies(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	updateType := r.URL.Query().Get("update_type")
	state := r.URL.Query().Get("state")

	minRisk, ok := h.queryParams.ValidateEnum(w, r, "min_risk", []string{
		domain.RiskLevelLow.String(),
		domain.RiskLevelMedium.String(),
		domain.RiskLevelHigh.String(),
		domain.RiskLevelCritical.String(),
	}, "")
	if !ok {
		return
	}
	limit, ok := h.queryParams.ValidateInt(w, r, "limit", 1, 500, 0)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "scanning for anomaly clusters",
		slog.String("request_id", reqID),
		slog.String("update_type", updateType),
		slog.String("state", state),
		slog.String("min_risk", minRisk),
	)

	clusters, err := h.service.DetectAnomalies(r.Context(), updateType, state)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "anomaly scan failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, apierrors.ErrAnalysisExecution(err))
		return
	}

	if minRisk != "" {
		minRank := domain.RiskLevel(minRisk).Rank()
		kept := make([]domain.AnomalyCluster, 0, len(clusters))
		for _, cluster := range clusters {
			if cluster.RiskLevel.Rank() >= minRank {
				kept = append(kept, cluster)
			}
		}
		clusters = kept
	}
	if limit > 0 && len(clusters) > limit {
		clusters = clusters[:limit]
	}

	params := map[string]interface{}{
		"update_type": updateType,
		"state":       state,
		"min_risk":    minRisk,
	}
	if limit > 0 {
		params["limit"] = limit
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   clusters,
		"count":  len(clusters),
		"params": params,
	})
}

// Freeze handles POST /api/fraud/freeze
func (h *FraudHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req v1.FreezeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validation.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "freeze requested",
		slog.String("request_id", reqID),
		slog.String("cluster_id", req.ClusterID),
		slog.String("authorized_by", req.AuthorizedBy),
	)

	action, err := h.service.FreezeCohort(r.Context(), req.ClusterID, req.AuthorizedBy, req.Reason)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "freeze request rejected",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("cluster_id", req.ClusterID),
		)

		if errors.Is(err, fraud.ErrClusterNotFound) {
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusNotFound,
				"CLUSTER_NOT_FOUND",
				fmt.Sprintf("Anomaly cluster '%s' not found in current detection set", req.ClusterID),
				map[string]interface{}{
					"cluster_id": req.ClusterID,
				},
			))
			return
		}
		if errors.Is(err, fraud.ErrInvalidFreezeRequest) {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}

		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   action,
	})
}
