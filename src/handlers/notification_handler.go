package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nuofunds/backend/src/database"
	"github.com/nuofunds/backend/src/logger"
	"github.com/nuofunds/backend/src/models"
	"github.com/nuofunds/backend/src/security/validation"
	"github.com/nuofunds/backend/src/services"
)

type NotificationHandler struct {
	pushService *services.PushService
}

func NewNotificationHandler(pushService *services.PushService) *NotificationHandler {
	return &NotificationHandler{pushService: pushService}
}

type registerTokenRequest struct {
	Token      string `json:"token"`
	DeviceType int    `json:"device_type"`
}

// HandleRegisterToken stores an FCM device token, replacing any previous token
// registered for the same device type.
func (h *NotificationHandler) HandleRegisterToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req registerTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStringNotEmpty(req.Token, "token"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := models.ReplaceDeviceToken(database.DB, userID, strings.TrimSpace(req.Token), req.DeviceType); err != nil {
		logger.FromContext(r.Context()).Error("Device token upsert failed", "userID", userID, "error", err)
		sendJSONError(w, "Failed to register device token", http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusCreated, nil, "Device token registered")
}

type deleteTokenRequest struct {
	Token string `json:"token"`
}

func (h *NotificationHandler) HandleDeleteToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req deleteTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStringNotEmpty(req.Token, "token"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := models.DeleteDeviceToken(database.DB, userID, strings.TrimSpace(req.Token)); err != nil {
		logger.FromContext(r.Context()).Error("Device token delete failed", "userID", userID, "error", err)
		sendJSONError(w, "Failed to remove device token", http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusOK, nil, "Device token removed")
}

type sendNotificationRequest struct {
	Title       string            `json:"title"`
	MessageBody string            `json:"messageBody"`
	ExtraData   map[string]string `json:"extraData"`
}

type sendNotificationResponse struct {
	SuccessCount int                   `json:"successCount"`
	FailureCount int                   `json:"failureCount"`
	Results      []services.PushResult `json:"results"`
}

// HandleSendNotification fans the notification out to every device the user
// has registered. Individual delivery failures never fail the request.
func (h *NotificationHandler) HandleSendNotification(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req sendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStringNotEmpty(req.Title, "title"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStringNotEmpty(req.MessageBody, "messageBody"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	devices, err := models.GetDeviceTokens(database.DB, userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Device token lookup failed", "userID", userID, "error", err)
		sendJSONError(w, "Failed to send notification", http.StatusInternalServerError)
		return
	}
	if len(devices) == 0 {
		sendJSONError(w, "No devices found", http.StatusBadRequest)
		return
	}

	results := h.pushService.SendToDevices(r.Context(), devices, req.Title, req.MessageBody, req.ExtraData)

	response := sendNotificationResponse{Results: results}
	for _, res := range results {
		if res.OK {
			response.SuccessCount++
		} else {
			response.FailureCount++
		}
	}

	logger.FromContext(r.Context()).Info("Notification dispatched",
		"userID", userID, "success", response.SuccessCount, "failure", response.FailureCount)
	sendJSON(w, http.StatusOK, response, "")
}
