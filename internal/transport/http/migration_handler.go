package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/YashwanthKamireddi/project-prerana/internal/errors"
	"github.com/YashwanthKamireddi/project-prerana/internal/middleware"
)

// MigrationHandler handles mobility HTTP requests with RFC 7807 compliance
type MigrationHandler struct {
	service      MigrationService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewMigrationHandler creates a new mobility handler
func NewMigrationHandler(service MigrationService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *MigrationHandler {
	return &MigrationHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "migration")),
		errorHandler: errorHandler,
	}
}

// Routes returns the mobility routes
func (h *MigrationHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/analysis", middleware.AnalysisTraceHandler("migration", h.Analysis))
	r.Get("/corridors", h.Corridors)

	r.Route("/pincodes/{pincode}", func(r chi.Router) {
		r.Use(h.PincodeCtx)
		r.Get("/", h.Pincode)
	})

	return r
}

// PincodeCtx middleware validates the pincode parameter. Indian pincodes are
// six digits and never start with zero.
func (h *MigrationHandler) PincodeCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pincode := chi.URLParam(r, "pincode")
		if !validPincode(pincode) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("pincode",
				"Pincode must be six digits and must not start with zero"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Analysis handles GET /api/migration/analysis
func (h *MigrationHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "running mobility sweep",
		slog.String("request_id", reqID),
	)

	result, err := h.service.Analyze(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "mobility sweep failed",
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

// Corridors handles GET /api/migration/corridors
func (h *MigrationHandler) Corridors(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "detecting migration corridors",
		slog.String("request_id", reqID),
	)

	corridors, err := h.service.DetectCorridors(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "corridor detection failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, apierrors.ErrAnalysisExecution(err))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   corridors,
		"count":  len(corridors),
	})
}

// Pincode handles GET /api/migration/pincodes/{pincode}
func (h *MigrationHandler) Pincode(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	pincode := chi.URLParam(r, "pincode")

	h.logger.InfoContext(r.Context(), "analyzing pincode velocity",
		slog.String("request_id", reqID),
		slog.String("pincode", pincode),
	)

	spike, err := h.service.AnalyzePincode(r.Context(), pincode)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "pincode analysis failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("pincode", pincode),
		)
		h.errorHandler.HandleError(w, r, apierrors.ErrAnalysisExecution(err))
		return
	}

	if spike == nil {
		render.JSON(w, r, map[string]interface{}{
			"status":  "success",
			"data":    nil,
			"message": fmt.Sprintf("no velocity spike detected for pincode %s", pincode),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   spike,
	})
}

// validPincode reports whether a string is a plausible Indian pincode
func validPincode(pincode string) bool {
	if len(pincode) != 6 || pincode[0] == '0' {
		return false
	}
	for _, ch := range pincode {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
