package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/YashwanthKamireddi/project-prerana/pkg/contracts/domain"
)

// MockMigrationService is a mock implementation of MigrationService
type MockMigrationService struct {
	mock.Mock
}

func (m *MockMigrationService) Analyze(ctx context.Context) (*domain.MigrationAnalysisResult, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MigrationAnalysisResult), args.Error(1)
}

func (m *MockMigrationService) DetectCorridors(ctx context.Context) ([]domain.MigrationCorridor, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MigrationCorridor), args.Error(1)
}

func (m *MockMigrationService) AnalyzePincode(ctx context.Context, pincode string) (*domain.VelocitySpike, error) {
	args := m.Called(pincode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VelocitySpike), args.Error(1)
}

func newMigrationHandler(service *MockMigrationService) *MigrationHandler {
	return NewMigrationHandler(service, testLogger(), newErrorHandler())
}

func TestMigrationHandler_Analysis(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockMigrationService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "successful sweep",
			setupMock: func(m *MockMigrationService) {
				m.On("Analyze").Return(sampleMigrationResult(), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"total_corridors_analyzed":3`,
		},
		{
			name: "sweep failure",
			setupMock: func(m *MockMigrationService) {
				m.On("Analyze").Return(nil, errors.New("address history missing"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"ANALYSIS_FAILED"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockMigrationService)
			tt.setupMock(mockService)
			handler := newMigrationHandler(mockService)

			req := httptest.NewRequest("GET", "/analysis", nil)
			rec := httptest.NewRecorder()
			handler.Routes().ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestMigrationHandler_Corridors(t *testing.T) {
	corridors := sampleMigrationResult().TopCorridors

	tests := []struct {
		name           string
		setupMock      func(*MockMigrationService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "corridors found",
			setupMock: func(m *MockMigrationService) {
				m.On("DetectCorridors").Return(corridors, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"count":1`,
		},
		{
			name: "detection failure",
			setupMock: func(m *MockMigrationService) {
				m.On("DetectCorridors").Return(nil, errors.New("demographic file corrupt"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"ANALYSIS_FAILED"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockMigrationService)
			tt.setupMock(mockService)
			handler := newMigrationHandler(mockService)

			req := httptest.NewRequest("GET", "/corridors", nil)
			rec := httptest.NewRecorder()
			handler.Routes().ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestMigrationHandler_Pincode(t *testing.T) {
	spike := &sampleMigrationResult().ActiveSpikes[0]

	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockMigrationService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "spike detected",
			target: "/pincodes/400001",
			setupMock: func(m *MockMigrationService) {
				m.On("AnalyzePincode", "400001").Return(spike, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `757.1`,
		},
		{
			name:   "quiet pincode",
			target: "/pincodes/560038",
			setupMock: func(m *MockMigrationService) {
				m.On("AnalyzePincode", "560038").Return(nil, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"no velocity spike detected for pincode 560038"`,
		},
		{
			name:   "analysis failure",
			target: "/pincodes/400001",
			setupMock: func(m *MockMigrationService) {
				m.On("AnalyzePincode", "400001").Return(nil, errors.New("velocity series unavailable"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"ANALYSIS_FAILED"`,
		},
		{
			name:           "pincode too short",
			target:         "/pincodes/12345",
			setupMock:      func(m *MockMigrationService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"VALIDATION_FAILED"`,
		},
		{
			name:           "pincode with leading zero",
			target:         "/pincodes/012345",
			setupMock:      func(m *MockMigrationService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"VALIDATION_FAILED"`,
		},
		{
			name:           "pincode with letters",
			target:         "/pincodes/12ab56",
			setupMock:      func(m *MockMigrationService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"VALIDATION_FAILED"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockMigrationService)
			tt.setupMock(mockService)
			handler := newMigrationHandler(mockService)

			req := httptest.NewRequest("GET", tt.target, nil)
			rec := httptest.NewRecorder()
			handler.Routes().ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			if tt.expectedStatus == http.StatusBadRequest {
				mockService.AssertNotCalled(t, "AnalyzePincode")
			}
			mockService.AssertExpectations(t)
		})
	}
}
