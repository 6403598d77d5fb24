package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/nuofunds/backend/src/logger"
	"github.com/nuofunds/backend/src/security"
	"github.com/nuofunds/backend/src/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

type stubDashboardService struct {
	lastLimit int
	daily     *services.DailyDetailsResult
	err       error
}

func (s *stubDashboardService) GetDashboard(ctx context.Context, userID string) (*services.DashboardResult, error) {
	return &services.DashboardResult{}, s.err
}

func (s *stubDashboardService) GetDailyDetails(ctx context.Context, userID string, limit int) (*services.DailyDetailsResult, error) {
	s.lastLimit = limit
	return s.daily, s.err
}

func (s *stubDashboardService) GetForecastDetails(ctx context.Context, userID string) (*services.ForecastDetailsResult, error) {
	return &services.ForecastDetailsResult{Days: 7}, s.err
}

func (s *stubDashboardService) GetLatestInsights(ctx context.Context, userID string) (*services.InsightsDetail, error) {
	return nil, s.err
}

func authedRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := context.WithValue(req.Context(), userIDContextKey, "user-1")
	return req.WithContext(ctx)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHandleGetDailyFeatures_DaysParam(t *testing.T) {
	stub := &stubDashboardService{daily: &services.DailyDetailsResult{Days: 0, Points: []services.DailyPoint{}}}
	handler := NewDashboardHandler(stub)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantLimit  int
	}{
		{"default", "/api/dashboard/daily-features", http.StatusOK, services.DefaultDailyLimit},
		{"explicit", "/api/dashboard/daily-features?days=90", http.StatusOK, 90},
		{"zero", "/api/dashboard/daily-features?days=0", http.StatusBadRequest, 0},
		{"negative", "/api/dashboard/daily-features?days=-3", http.StatusBadRequest, 0},
		{"not a number", "/api/dashboard/daily-features?days=abc", http.StatusBadRequest, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub.lastLimit = 0
			rec := httptest.NewRecorder()
			handler.HandleGetDailyFeatures(rec, authedRequest(http.MethodGet, tc.target))

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, tc.wantLimit, stub.lastLimit)
				assert.True(t, decodeEnvelope(t, rec).Success)
			} else {
				assert.False(t, decodeEnvelope(t, rec).Success)
			}
		})
	}
}

func TestHandleGetDashboard_RequiresAuthContext(t *testing.T) {
	handler := NewDashboardHandler(&stubDashboardService{})

	rec := httptest.NewRecorder()
	handler.HandleGetDashboard(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleGetDashboard_ServiceFaultIs500(t *testing.T) {
	handler := NewDashboardHandler(&stubDashboardService{err: errors.New("read failed")})

	rec := httptest.NewRecorder()
	handler.HandleGetDashboard(rec, authedRequest(http.MethodGet, "/api/dashboard"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "Failed to load dashboard", env.Message)
}

func TestHandleGetInsights_NullDataIsSuccess(t *testing.T) {
	handler := NewDashboardHandler(&stubDashboardService{})

	rec := httptest.NewRecorder()
	handler.HandleGetInsights(rec, authedRequest(http.MethodGet, "/api/dashboard/insights"))

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "null", string(env.Data))
}

func TestAuthMiddleware(t *testing.T) {
	authService := security.NewAuthService("test-secret-that-is-long-enough-123", time.Hour)
	userHandler := NewUserHandler(authService, nil)

	var seenUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	protected := userHandler.AuthMiddleware(next)

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := authService.GenerateToken("user-7", "u@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-7", seenUserID)
	})
}
