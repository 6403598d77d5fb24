package handlers

import (
	"net/http"
	"net/url"

	"github.com/nuofunds/backend/src/config"
	"github.com/nuofunds/backend/src/database"
	"github.com/nuofunds/backend/src/logger"
	"github.com/nuofunds/backend/src/models"
	"github.com/nuofunds/backend/src/setu"
)

type SetuHandler struct {
	client *setu.Client
}

func NewSetuHandler(client *setu.Client) *SetuHandler {
	return &SetuHandler{client: client}
}

// HandleGetAccessToken returns the stored partner token without refreshing it.
func (h *SetuHandler) HandleGetAccessToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.client.StoredAccessToken()
	if err != nil {
		logger.FromContext(r.Context()).Error("Stored access token lookup failed", "error", err)
		sendJSONError(w, "Failed to fetch access token", http.StatusInternalServerError)
		return
	}
	if token == "" {
		sendJSONError(w, "No access token available", http.StatusNotFound)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"accessToken": token}, "")
}

// HandleRefreshAccessToken logs in to the Setu org service and replaces the
// stored token.
func (h *SetuHandler) HandleRefreshAccessToken(w http.ResponseWriter, r *http.Request) {
	pair, err := h.client.FetchAccessToken(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Access token refresh failed", "error", err)
		sendJSONError(w, "Failed to refresh access token", http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusCreated, map[string]string{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "Access token refreshed")
}

// HandleCreateConsent registers a consent at the partner for the logged-in
// customer's phone number and persists what the partner returned. The app
// opens the returned URL to let the customer approve.
func (h *SetuHandler) HandleCreateConsent(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	ctxLogger := logger.FromContext(r.Context())

	customer, err := models.GetCustomerByID(database.DB, userID)
	if err != nil {
		ctxLogger.Error("Customer lookup failed for consent", "userID", userID, "error", err)
		sendJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	if customer.Phone == "" {
		sendJSONError(w, "A phone number is required to link accounts", http.StatusBadRequest)
		return
	}

	accessToken, err := h.client.StoredAccessToken()
	if err != nil {
		ctxLogger.Error("Stored access token lookup failed", "error", err)
		sendJSONError(w, "Failed to create consent", http.StatusInternalServerError)
		return
	}
	if accessToken == "" {
		pair, err := h.client.FetchAccessToken(r.Context())
		if err != nil {
			ctxLogger.Error("Access token bootstrap failed", "error", err)
			sendJSONError(w, "Failed to create consent", http.StatusInternalServerError)
			return
		}
		accessToken = pair.AccessToken
	}

	vua := customer.Phone + "@onemoney"
	consent, err := h.client.CreateConsent(r.Context(), accessToken, vua)
	if err != nil {
		ctxLogger.Error("Partner consent creation failed", "userID", userID, "error", err)
		sendJSONError(w, "Failed to create consent", http.StatusInternalServerError)
		return
	}
	if consent.Status != "PENDING" || consent.URL == "" {
		ctxLogger.Warn("Partner returned unexpected consent state",
			"userID", userID, "consentID", consent.ID, "status", consent.Status)
		sendJSONError(w, "Failed to create consent", http.StatusBadRequest)
		return
	}

	record := &models.AAConsent{
		UserID:         userID,
		ConsentID:      consent.ID,
		Status:         consent.Status,
		ConsentMode:    consent.Detail.ConsentMode,
		FetchType:      consent.Detail.FetchType,
		PAN:            consent.PAN,
		PurposeCode:    consent.Detail.Purpose.Code,
		URL:            consent.URL,
		Vua:            consent.Detail.Vua,
		ConsentStart:   consent.Detail.ConsentStart,
		ConsentExpiry:  consent.Detail.ConsentExpiry,
		ConsentTypes:   consent.Detail.ConsentTypes,
		DataLifeUnit:   consent.Detail.DataLife.Unit,
		DataLifeValue:  consent.Detail.DataLife.Value,
		DataRangeFrom:  consent.Detail.DataRange.From,
		DataRangeTo:    consent.Detail.DataRange.To,
		FiTypes:        consent.Detail.FiTypes,
		FrequencyUnit:  consent.Detail.Frequency.Unit,
		FrequencyValue: consent.Detail.Frequency.Value,
		Tags:           consent.Tags,
	}
	if err := record.CreateConsent(database.DB); err != nil {
		ctxLogger.Error("Consent persist failed", "userID", userID, "consentID", consent.ID, "error", err)
		sendJSONError(w, "Failed to create consent", http.StatusInternalServerError)
		return
	}

	ctxLogger.Info("Consent created", "userID", userID, "consentID", consent.ID)
	sendJSON(w, http.StatusOK, map[string]string{"url": consent.URL}, "")
}

// HandleGetConsentDetails returns the user's latest consent record, or null
// when the user has never started a consent flow.
func (h *SetuHandler) HandleGetConsentDetails(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	consent, err := models.GetLatestConsent(database.DB, userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Consent lookup failed", "userID", userID, "error", err)
		sendJSONError(w, "Failed to fetch consent", http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusOK, consent, "")
}

// HandleConsentRedirect bounces the browser back into the app after the
// partner's approval flow, preserving the partner's query parameters.
func (h *SetuHandler) HandleConsentRedirect(w http.ResponseWriter, r *http.Request) {
	target := config.Cfg.ConsentRedirectURL
	if query := r.URL.RawQuery; query != "" {
		parsed, err := url.Parse(target)
		if err == nil {
			if parsed.RawQuery != "" {
				parsed.RawQuery += "&" + query
			} else {
				parsed.RawQuery = query
			}
			target = parsed.String()
		}
	}
	http.Redirect(w, r, target, http.StatusFound)
}
