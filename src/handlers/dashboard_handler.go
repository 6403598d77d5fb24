package handlers

import (
	"net/http"
	"strconv"

	"github.com/nuofunds/backend/src/logger"
	"github.com/nuofunds/backend/src/services"
)

type DashboardHandler struct {
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// HandleGetDashboard composes the full home-screen payload. Missing sections
// come back null; only a data-access fault fails the request.
func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	result, err := h.service.GetDashboard(r.Context(), userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Dashboard composition failed", "userID", userID, "error", err)
		sendJSONError(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusOK, result, "")
}

// HandleGetDailyFeatures returns the recent per-day aggregates for the charts.
// The days query parameter caps the row count, defaulting to 30.
func (h *DashboardHandler) HandleGetDailyFeatures(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	limit := services.DefaultDailyLimit
	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		parsed, err := strconv.Atoi(daysParam)
		if err != nil || parsed <= 0 {
			sendJSONError(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	result, err := h.service.GetDailyDetails(r.Context(), userID, limit)
	if err != nil {
		logger.FromContext(r.Context()).Error("Daily features fetch failed", "userID", userID, "error", err)
		sendJSONError(w, "Failed to load daily summary", http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusOK, result, "")
}

// HandleGetForecast returns the merged 7-day forecast series starting today.
func (h *DashboardHandler) HandleGetForecast(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	result, err := h.service.GetForecastDetails(r.Context(), userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Forecast fetch failed", "userID", userID, "error", err)
		sendJSONError(w, "Failed to load forecast", http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusOK, result, "")
}

// HandleGetInsights returns the latest stored analysis record in full, or null
// when no analysis has been produced yet.
func (h *DashboardHandler) HandleGetInsights(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	result, err := h.service.GetLatestInsights(r.Context(), userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Insights fetch failed", "userID", userID, "error", err)
		sendJSONError(w, "Failed to load insights", http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusOK, result, "")
}
