package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"casefile-backend/internal/config"
	"casefile-backend/internal/cron"
	"casefile-backend/internal/database"
	"casefile-backend/internal/handlers"
	"casefile-backend/internal/middleware"
	"casefile-backend/internal/storage"
)

func main() {
	// 1. Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Connect to PostgreSQL
	db := database.New(&cfg.DB)
	defer db.Close()

	// 3. Initialize file storage
	var fileStore storage.Store
	switch cfg.Upload.Driver {
	case "r2":
		fileStore, err = storage.NewR2Store(
			cfg.R2.AccountID, cfg.R2.AccessKey, cfg.R2.SecretKey,
			cfg.R2.Bucket, cfg.R2.PublicURL,
		)
	default:
		fileStore, err = storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
	}
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	// 4. Set up router with global middleware
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 5. Initialize handlers with their dependencies
	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret)
	applicantHandler := handlers.NewApplicantHandler(db)
	applicationHandler := handlers.NewApplicationHandler(db)
	documentHandler := handlers.NewDocumentHandler(db, fileStore)
	uploadHandler := handlers.NewUploadHandler(db, fileStore)
	cohortHandler := handlers.NewCohortHandler(db)
	employerHandler := handlers.NewEmployerHandler(db)
	dashboardHandler := handlers.NewDashboardHandler(db)
	notificationHandler := handlers.NewNotificationHandler(db)
	activityHandler := handlers.NewActivityHandler(db)
	userHandler := handlers.NewUserHandler(db)

	// Start background cron jobs
	cron.StartNotifier(db)

	// 6. Public routes (no authentication required)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Case File API"))
	})
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(db.Health())
	})

	// Auth routes — public, rate limited against credential stuffing
	loginLimit := middleware.RateLimit(rate.Every(12*time.Second), 5)
	r.With(loginLimit).Post("/api/auth/register", authHandler.Register)
	r.With(loginLimit).Post("/api/auth/login", authHandler.Login)

	// Serve uploaded files (local storage redirects to R2 in production)
	r.Get("/api/files/*", uploadHandler.ServeFile)

	// 7. Protected routes (require valid JWT; org scope injected per request)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.InjectOrgScope(db.GetPool()))

		// Current user profile
		r.Get("/api/auth/me", authHandler.GetMe)

		// Dashboard (read-only — accessible to all authenticated users)
		r.Get("/api/dashboard/metrics", dashboardHandler.GetMetrics)
		r.Get("/api/dashboard/readiness", dashboardHandler.GetCaseReadiness)
		r.Get("/api/dashboard/attention", dashboardHandler.GetAttention)

		// Notifications (user-scoped, all authenticated users)
		r.Get("/api/notifications", notificationHandler.List)
		r.Get("/api/notifications/count", notificationHandler.UnreadCount)
		r.Patch("/api/notifications/read-all", notificationHandler.MarkAllRead)
		r.Patch("/api/notifications/{id}/read", notificationHandler.MarkRead)

		// Activity log (read-only)
		r.Get("/api/activity", activityHandler.List)

		// Read-only endpoints — accessible to viewers
		r.Get("/api/applicants", applicantHandler.List)
		r.Get("/api/applicants/{id}", applicantHandler.GetByID)
		r.Get("/api/applications", applicationHandler.List)
		r.Route("/api/applications/{id}", func(r chi.Router) {
			r.Get("/", applicationHandler.GetByID)
			r.Get("/checklist", applicationHandler.GetChecklist)
			r.Get("/documents", documentHandler.ListByApplication)
		})
		r.Get("/api/cohorts", cohortHandler.List)
		r.Get("/api/cohorts/{id}", cohortHandler.GetByID)
		r.Get("/api/employers", employerHandler.List)
		r.Get("/api/employers/{id}", employerHandler.GetByID)

		// Case work restricted to case managers and above
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMinRole("case_manager"))

			// Applicant write operations
			r.Post("/api/applicants", applicantHandler.Create)
			r.Put("/api/applicants/{id}", applicantHandler.Update)
			r.Delete("/api/applicants/{id}", applicantHandler.Delete)

			// Application write operations
			r.Post("/api/applications", applicationHandler.Create)
			r.Put("/api/applications/{id}", applicationHandler.Update)
			r.Delete("/api/applications/{id}", applicationHandler.Delete)

			// Document uploads (slot-gated by the rules engine) and review
			r.Post("/api/applications/{id}/documents/{slotId}", uploadHandler.Upload)
			r.Patch("/api/documents/{id}/review", documentHandler.Review)
			r.Delete("/api/documents/{id}", documentHandler.Delete)

			// Cohort write operations
			r.Post("/api/cohorts", cohortHandler.Create)
			r.Put("/api/cohorts/{id}", cohortHandler.Update)
			r.Delete("/api/cohorts/{id}", cohortHandler.Delete)

			// Employer write operations
			r.Post("/api/employers", employerHandler.Create)
			r.Put("/api/employers/{id}", employerHandler.Update)
			r.Delete("/api/employers/{id}", employerHandler.Delete)
		})

		// User management restricted to admin role
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMinRole("admin"))

			r.Get("/api/users", userHandler.List)
			r.Patch("/api/users/{id}/role", userHandler.UpdateRole)
		})
	})

	// 8. Start server with graceful shutdown
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server started on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-done
	log.Println("Server stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}
