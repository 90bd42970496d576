package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/YashwanthKamireddi/project-prerana/internal/errors"
	"github.com/YashwanthKamireddi/project-prerana/internal/gap"
	"github.com/YashwanthKamireddi/project-prerana/internal/middleware"
	v1 "github.com/YashwanthKamireddi/project-prerana/pkg/contracts/api/v1"
)

// GapHandler handles coverage-gap HTTP requests with RFC 7807 compliance
type GapHandler struct {
	service      GapService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validation   *middleware.ValidationMiddleware
}

// NewGapHandler creates a new coverage-gap handler
func NewGapHandler(service GapService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, validation *middleware.ValidationMiddleware) *GapHandler {
	return &GapHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "gaps")),
		errorHandler: errorHandler,
		validation:   validation,
	}
}

// Routes returns the coverage-gap routes
func (h *GapHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	jsonOnly := middleware.ContentTypeValidator("application/json")

	r.Get("/analysis", middleware.AnalysisTraceHandler("gap", h.Analysis))
	r.With(jsonOnly).Post("/district", h.District)
	r.With(jsonOnly).Post("/deployment-plan", h.DeploymentPlan)

	return r
}

// Analysis handles GET /api/gaps/analysis
func (h *GapHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "running full district sweep",
		slog.String("request_id", reqID),
	)

	result, err := h.service.AnalyzeAllDistricts(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "district sweep failed",
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

// District handles POST /api/gaps/district
func (h *GapHandler) District(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req v1.DistrictGapRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validation.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "analyzing district gap",
		slog.String("request_id", reqID),
		slog.String("state", req.State),
		slog.String("district", req.District),
	)

	coverage, err := h.service.AnalyzeDistrict(r.Context(), req.State, req.District)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "district analysis failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("district", req.District),
		)

		if errors.Is(err, gap.ErrDistrictNotFound) {
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusNotFound,
				"DISTRICT_NOT_FOUND",
				fmt.Sprintf("District '%s' not found in enrollment data", req.District),
				map[string]interface{}{
					"state":    req.State,
					"district": req.District,
				},
			))
			return
		}

		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   coverage,
	})
}

// DeploymentPlan handles POST /api/gaps/deployment-plan
func (h *GapHandler) DeploymentPlan(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req v1.DeploymentPlanRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validation.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if req.MaxUnits == 0 {
		req.MaxUnits = gap.DefaultMaxUnits
	}

	h.logger.InfoContext(r.Context(), "building deployment plan",
		slog.String("request_id", reqID),
		slog.String("state", req.State),
		slog.Int("max_units", req.MaxUnits),
	)

	plan, err := h.service.PlanDeployment(r.Context(), req.State, req.MaxUnits)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "deployment planning failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("state", req.State),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   plan,
		"count":  len(plan),
		"params": map[string]interface{}{
			"state":     req.State,
			"max_units": req.MaxUnits,
		},
	})
}
