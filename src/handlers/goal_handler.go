package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nuofunds/backend/src/database"
	"github.com/nuofunds/backend/src/logger"
	"github.com/nuofunds/backend/src/models"
	"github.com/nuofunds/backend/src/security/validation"
)

type GoalHandler struct{}

func NewGoalHandler() *GoalHandler {
	return &GoalHandler{}
}

type createGoalRequest struct {
	GoalName        string  `json:"goalName"`
	GoalAmount      float64 `json:"goalAmount"`
	TargetMode      string  `json:"targetMode"`
	TargetDate      string  `json:"targetDate"`
	TenureDays      *int64  `json:"tenureDays"`
	TenureMonths    *int64  `json:"tenureMonths"`
	Priority        string  `json:"priority"`
	PurposeCategory string  `json:"purposeCategory"`
	Notes           string  `json:"notes"`
}

// HandleCreateGoal stores a savings goal. The target can be a fixed date, a
// tenure in days or months, or left open.
func (h *GoalHandler) HandleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req createGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.GoalName = validation.SanitizeText(req.GoalName)
	if err := validation.ValidateStringNotEmpty(req.GoalName, "goalName"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStringMaxLength(req.GoalName, validation.DefaultMaxStringLength, "goalName"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePositiveAmount(req.GoalAmount, "goalAmount"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	mode := strings.ToUpper(strings.TrimSpace(req.TargetMode))
	switch mode {
	case "BY_DATE", "BY_TENURE", "OPEN":
	case "":
		mode = "OPEN"
	default:
		sendJSONError(w, "targetMode must be BY_DATE, BY_TENURE or OPEN", http.StatusBadRequest)
		return
	}

	goal := &models.Goal{
		UserID:     userID,
		GoalName:   req.GoalName,
		GoalAmount: req.GoalAmount,
		TargetMode: mode,
	}

	if mode == "BY_DATE" {
		targetDate, err := validation.ParseTimestamp(req.TargetDate, "targetDate")
		if err != nil {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		goal.TargetDate = sql.NullTime{Time: targetDate, Valid: true}
	}
	if mode == "BY_TENURE" {
		if req.TenureDays == nil && req.TenureMonths == nil {
			sendJSONError(w, "tenureDays or tenureMonths is required for BY_TENURE goals", http.StatusBadRequest)
			return
		}
		if req.TenureDays != nil {
			goal.TenureDays = sql.NullInt64{Int64: *req.TenureDays, Valid: true}
		}
		if req.TenureMonths != nil {
			goal.TenureMonths = sql.NullInt64{Int64: *req.TenureMonths, Valid: true}
		}
	}

	if p := strings.TrimSpace(req.Priority); p != "" {
		goal.Priority = sql.NullString{String: p, Valid: true}
	}
	if c := strings.TrimSpace(req.PurposeCategory); c != "" {
		goal.PurposeCategory = sql.NullString{String: c, Valid: true}
	}
	if notes := validation.SanitizeText(req.Notes); notes != "" {
		if err := validation.ValidateStringMaxLength(notes, validation.MaxNotesLength, "notes"); err != nil {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		goal.Notes = sql.NullString{String: notes, Valid: true}
	}

	if err := goal.CreateGoal(database.DB); err != nil {
		logger.FromContext(r.Context()).Error("Goal insert failed", "userID", userID, "error", err)
		sendJSONError(w, "Failed to create goal", http.StatusInternalServerError)
		return
	}

	logger.FromContext(r.Context()).Info("Goal created", "userID", userID, "goalID", goal.ID)
	sendJSON(w, http.StatusCreated, nil, "Goal created")
}
