package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/finwise/notification-engine/internal/config"
	"github.com/finwise/notification-engine/internal/database"
	"github.com/finwise/notification-engine/internal/handlers"
	"github.com/finwise/notification-engine/internal/jobs"
	"github.com/finwise/notification-engine/internal/repository"
	cronjobs "github.com/finwise/notification-engine/internal/scheduler"
	"github.com/finwise/notification-engine/internal/services"
	"github.com/finwise/notification-engine/internal/session"
	"github.com/finwise/notification-engine/pkg/logger"
	"github.com/finwise/notification-engine/pkg/middleware"
	"github.com/finwise/notification-engine/pkg/toast"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger()
	logger.Log.Info("Logger initialized")

	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// --- Repositories ---
	prefRepo := repository.NewPreferenceRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	loanRepo := repository.NewLendBorrowRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)

	if err := prefRepo.EnsureIndexes(context.Background()); err != nil {
		logger.Log.WithError(err).Warn("Failed to ensure preference indexes")
	}

	// --- Services ---
	toastBus := toast.NewBus(64)
	prefService := services.NewPreferenceService(prefRepo, session.NewContextProvider())
	dispatcher := services.NewDispatcher(prefService, notifRepo, toastBus)
	scanner := services.NewUrgentScanner(loanRepo, purchaseRepo, notifRepo, dispatcher)

	// --- Handlers ---
	prefHandler := handlers.NewPreferenceHandler(prefService)
	notifHandler := handlers.NewNotificationHandler(notifRepo, scanner, dispatcher)

	router := mux.NewRouter()

	// Preference routes
	protectedPrefRoutes := router.PathPrefix("/preferences").Subrouter()
	protectedPrefRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedPrefRoutes.HandleFunc("", prefHandler.GetPreferencesHandler).Methods("GET")
	protectedPrefRoutes.HandleFunc("", prefHandler.UpdatePreferencesHandler).Methods("PUT")
	protectedPrefRoutes.HandleFunc("/{category}/{key}", prefHandler.PatchPreferenceHandler).Methods("PATCH")

	// Notification routes
	protectedNotifRoutes := router.PathPrefix("/notifications").Subrouter()
	protectedNotifRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedNotifRoutes.HandleFunc("", notifHandler.ListNotificationsHandler).Methods("GET")
	protectedNotifRoutes.HandleFunc("/scan", notifHandler.ForceScanHandler).Methods("POST")
	protectedNotifRoutes.HandleFunc("/{id}/read", notifHandler.MarkAsReadHandler).Methods("POST")
	protectedNotifRoutes.HandleFunc("/{id}", notifHandler.DeleteNotificationHandler).Methods("DELETE")

	// Admin routes
	adminRoutes := router.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	adminRoutes.Use(middleware.RequireRole("admin"))
	adminRoutes.HandleFunc("/notifications/feature", notifHandler.FeatureNotificationHandler).Methods("POST")

	router.Use(middleware.LoggingMiddleware)

	// Periodic urgent-item sweep
	scanJob := jobs.NewUrgentScanJob(scanner, loanRepo, purchaseRepo)
	cronjobs.StartNotificationCronJobs(cfg.ScanCron, scanJob)

	// Drain toast events; a real host application renders these.
	go func() {
		for event := range toastBus.Events() {
			logger.Log.WithFields(map[string]interface{}{
				"title":    event.Title,
				"severity": event.Severity,
			}).Info("Toast event")
		}
	}()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	fmt.Printf("Server running on port %s\n", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}
