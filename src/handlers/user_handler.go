package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/nuofunds/backend/src/database"
	"github.com/nuofunds/backend/src/logger"
	"github.com/nuofunds/backend/src/models"
	"github.com/nuofunds/backend/src/security"
	"github.com/nuofunds/backend/src/security/validation"
	"github.com/nuofunds/backend/src/services"
)

type contextKey string

const userIDContextKey contextKey = "userID"

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

type UserHandler struct {
	authService *security.AuthService
	chatService *services.ChatService
}

func NewUserHandler(authService *security.AuthService, chatService *services.ChatService) *UserHandler {
	return &UserHandler{
		authService: authService,
		chatService: chatService,
	}
}

// sendJSON wraps every success payload in the envelope the mobile app expects.
func sendJSON(w http.ResponseWriter, statusCode int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    data,
		"message": message,
	})
}

func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Consent  bool   `json:"consent"`
	Phone    string `json:"phone"`
}

type authenticatedUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Consent   bool   `json:"consent"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"createdAt"`
	Token     string `json:"token"`
}

func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = validation.SanitizeText(req.Name)

	if !emailRegex.MatchString(req.Email) {
		sendJSONError(w, "A valid email is required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 6 {
		sendJSONError(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStringMaxLength(req.Name, validation.DefaultMaxStringLength, "name"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if existing, err := models.GetCustomerByEmail(database.DB, req.Email); err == nil && existing != nil {
		sendJSONError(w, "User with this email already exists", http.StatusConflict)
		return
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		ctxLogger.Error("Customer lookup failed during registration", "error", err)
		sendJSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	customer := &models.Customer{
		Name:    req.Name,
		Email:   req.Email,
		Consent: req.Consent,
		Phone:   strings.TrimSpace(req.Phone),
	}
	if err := customer.HashPassword(req.Password); err != nil {
		ctxLogger.Error("Password hashing failed", "error", err)
		sendJSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}
	if err := customer.CreateCustomer(database.DB); err != nil {
		ctxLogger.Error("Customer insert failed", "error", err)
		sendJSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	token, err := h.authService.GenerateToken(customer.ID, customer.Email)
	if err != nil {
		ctxLogger.Error("Token generation failed after registration", "userID", customer.ID, "error", err)
		sendJSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	ctxLogger.Info("Customer registered", "userID", customer.ID)
	sendJSON(w, http.StatusCreated, authenticatedUser{
		ID:        customer.ID,
		Name:      customer.Name,
		Email:     customer.Email,
		Consent:   customer.Consent,
		Phone:     customer.Phone,
		CreatedAt: customer.CreatedAt.UTC().Format(time.RFC3339),
		Token:     token,
	}, "User registered successfully")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		sendJSONError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	customer, err := models.GetCustomerByEmail(database.DB, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "User not found", http.StatusNotFound)
			return
		}
		ctxLogger.Error("Customer lookup failed during login", "error", err)
		sendJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	if err := customer.CheckPassword(req.Password); err != nil {
		ctxLogger.Warn("Login with wrong password", "userID", customer.ID)
		sendJSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.authService.GenerateToken(customer.ID, customer.Email)
	if err != nil {
		ctxLogger.Error("Token generation failed during login", "userID", customer.ID, "error", err)
		sendJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	ctxLogger.Info("Customer logged in", "userID", customer.ID)
	sendJSON(w, http.StatusOK, authenticatedUser{
		ID:        customer.ID,
		Name:      customer.Name,
		Email:     customer.Email,
		Consent:   customer.Consent,
		Phone:     customer.Phone,
		CreatedAt: customer.CreatedAt.UTC().Format(time.RFC3339),
		Token:     token,
	}, "Login successful")
}

func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	customer, err := models.GetCustomerByID(database.DB, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendJSONError(w, "User not found", http.StatusNotFound)
			return
		}
		logger.FromContext(r.Context()).Error("Customer lookup failed", "userID", userID, "error", err)
		sendJSONError(w, "Failed to fetch user", http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusOK, customer, "")
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatMessage struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

// HandleChatBot forwards the user's message to the analytics companion service
// and wraps the reply as an assistant chat message.
func (h *UserHandler) HandleChatBot(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStringNotEmpty(req.Message, "message"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	reply, err := h.chatService.Ask(r.Context(), userID, req.Message)
	if err != nil {
		logger.FromContext(r.Context()).Error("Chat service request failed", "userID", userID, "error", err)
		sendJSONError(w, "Assistant is unavailable right now", http.StatusBadGateway)
		return
	}

	sendJSON(w, http.StatusOK, chatMessage{
		ID:        fmt.Sprintf("temp-%d", time.Now().UnixMilli()),
		Text:      reply,
		Role:      "assistant",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}, "")
}
