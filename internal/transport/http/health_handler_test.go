package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/YashwanthKamireddi/project-prerana/internal/cache"
	"github.com/YashwanthKamireddi/project-prerana/internal/config"
	"github.com/YashwanthKamireddi/project-prerana/internal/infrastructure"
)

func newHealthFixture(t *testing.T, createDirs bool) *HealthHandler {
	t.Helper()

	cfg := config.Default()
	cfg.Data.BaseDir = t.TempDir()
	if createDirs {
		for _, dir := range []string{cfg.EnrolmentPath(), cfg.DemographicPath(), cfg.BiometricPath()} {
			require.NoError(t, os.MkdirAll(dir, 0o755))
		}
	}

	results := cache.New(testLogger(), nil)
	return NewHealthHandler(cfg, results, nil, "v3.0.0", testLogger())
}

func TestHealthHandler_Liveness(t *testing.T) {
	handler := newHealthFixture(t, true)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.Liveness(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHealthHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name         string
		createDirs   bool
		expectedBody []string
	}{
		{
			name:       "all data sources present",
			createDirs: true,
			expectedBody: []string{
				`"status":"healthy"`,
				`"version":"v3.0.0"`,
				`"gap":"ready"`,
				`"fraud":"ready"`,
				`"migration":"ready"`,
			},
		},
		{
			name:       "data sources missing",
			createDirs: false,
			expectedBody: []string{
				`"status":"degraded"`,
				`"enrolment_data":"missing"`,
				`"gap":"degraded"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newHealthFixture(t, tt.createDirs)

			req := httptest.NewRequest("GET", "/api/health", nil)
			rec := httptest.NewRecorder()
			handler.HealthCheck(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			for _, want := range tt.expectedBody {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
}

func TestHealthHandler_RuntimeStats(t *testing.T) {
	cfg := config.Default()
	cfg.Data.BaseDir = t.TempDir()

	collector, err := infrastructure.NewRuntimeMetricsCollector(otel.Meter("health-test"), time.Minute)
	require.NoError(t, err)

	handler := NewHealthHandler(cfg, cache.New(testLogger(), nil), collector, "v3.0.0", testLogger())

	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"goroutines"`)
	assert.Contains(t, rec.Body.String(), `"memory_usage_mb"`)
}
