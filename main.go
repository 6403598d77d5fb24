package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nuofunds/backend/src/config"
	"github.com/nuofunds/backend/src/database"
	"github.com/nuofunds/backend/src/handlers"
	"github.com/nuofunds/backend/src/logger"
	"github.com/nuofunds/backend/src/security"
	"github.com/nuofunds/backend/src/services"
	"github.com/nuofunds/backend/src/setu"
	"golang.org/x/time/rate"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("nuofunds backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)
	dashboardService := services.NewDashboardService(database.DB)
	chatService := services.NewChatService(config.Cfg.ChatServiceURL)

	pushService, err := services.NewPushService(context.Background(), config.Cfg.FirebaseCredentialsFile)
	if err != nil {
		logger.L.Error("Failed to initialize push service", "error", err)
		os.Exit(1)
	}

	setuClient := setu.NewClient(setu.Config{
		BaseURL:           config.Cfg.SetuBaseURL,
		OrgServiceURL:     config.Cfg.SetuOrgServiceURL,
		ClientID:          config.Cfg.SetuClientID,
		ClientSecret:      config.Cfg.SetuClientSecret,
		ProductInstanceID: config.Cfg.SetuProductInstanceID,
		TokenCacheTTL:     config.Cfg.SetuTokenCacheTTL,
	}, database.DB)

	userHandler := handlers.NewUserHandler(authService, chatService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	transactionHandler := handlers.NewTransactionHandler()
	goalHandler := handlers.NewGoalHandler()
	notificationHandler := handlers.NewNotificationHandler(pushService)
	setuHandler := handlers.NewSetuHandler(setuClient)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "nuofunds Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Post("/user/register", userHandler.HandleRegister)
			r.Post("/user/login", userHandler.HandleLogin)
			r.Get("/setu/access-token", setuHandler.HandleGetAccessToken)
			r.Post("/setu/access-token", setuHandler.HandleRefreshAccessToken)
			r.Get("/setu/redirect", setuHandler.HandleConsentRedirect)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(userHandler.AuthMiddleware)

			r.Get("/user/getuser", userHandler.HandleGetUser)
			r.Post("/user/chat-bot", userHandler.HandleChatBot)

			r.Get("/dashboard", dashboardHandler.HandleGetDashboard)
			r.Get("/dashboard/daily-features", dashboardHandler.HandleGetDailyFeatures)
			r.Get("/dashboard/forecast-details", dashboardHandler.HandleGetForecast)
			r.Get("/dashboard/financial-insights-latest", dashboardHandler.HandleGetInsights)

			r.Post("/transactions/manual", transactionHandler.HandleCreateManual)
			r.Post("/goals", goalHandler.HandleCreateGoal)

			r.Post("/notification/tokens", notificationHandler.HandleRegisterToken)
			r.Delete("/notification/tokens", notificationHandler.HandleDeleteToken)
			r.Post("/notification/send", notificationHandler.HandleSendNotification)

			r.Get("/setu/consents", setuHandler.HandleCreateConsent)
			r.Get("/setu/consents/get_details", setuHandler.HandleGetConsentDetails)
		})
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
