package http

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/render"

	"github.com/YashwanthKamireddi/project-prerana/internal/cache"
	"github.com/YashwanthKamireddi/project-prerana/internal/config"
	"github.com/YashwanthKamireddi/project-prerana/internal/infrastructure"
)

// HealthHandler reports process liveness and the readiness of each analysis
// engine's data source
type HealthHandler struct {
	cfg     *config.Config
	results *cache.Cache
	runtime *infrastructure.RuntimeMetricsCollector
	version string
	started time.Time
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler. The runtime collector is
// optional; without it the detailed check omits process statistics.
func NewHealthHandler(cfg *config.Config, results *cache.Cache, runtime *infrastructure.RuntimeMetricsCollector, version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		cfg:     cfg,
		results: results,
		runtime: runtime,
		version: version,
		started: time.Now(),
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{"status": "ok"})
}

// HealthCheck handles GET /api/health. The process stays healthy even when a
// data directory is missing; the affected engines degrade to empty results.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	sources := map[string]string{
		"enrolment_data":   dirStatus(h.cfg.EnrolmentPath()),
		"demographic_data": dirStatus(h.cfg.DemographicPath()),
		"biometric_data":   dirStatus(h.cfg.BiometricPath()),
	}

	engines := map[string]string{
		"gap":       engineStatus(sources["enrolment_data"], sources["biometric_data"]),
		"fraud":     engineStatus(sources["demographic_data"]),
		"migration": engineStatus(sources["demographic_data"]),
	}

	status := "healthy"
	for _, s := range engines {
		if s != "ready" {
			status = "degraded"
			break
		}
	}
	if status != "healthy" {
		h.logger.WarnContext(r.Context(), "health check degraded",
			slog.Any("sources", sources),
		)
	}

	payload := map[string]interface{}{
		"status":    status,
		"version":   h.version,
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"sources":   sources,
		"engines":   engines,
		"cache":     h.results.Stats(),
		"timestamp": time.Now().UTC(),
	}
	if h.runtime != nil {
		payload["runtime"] = h.runtime.GetCurrentStats(r.Context()).FormatStats()
	}

	render.JSON(w, r, payload)
}

// dirStatus reports whether a data directory is present
func dirStatus(path string) string {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "missing"
	}
	return "ok"
}

// engineStatus is "ready" only when every required source is present
func engineStatus(sources ...string) string {
	for _, s := range sources {
		if s != "ok" {
			return "degraded"
		}
	}
	return "ready"
}
