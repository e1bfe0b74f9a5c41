// Package server wires the rental API together: database, services,
// handlers, middleware and routes.
//
// It is the composition root. main.go hands it a Config, a logger and
// whichever optional integrations it managed to connect; everything else
// is built here:
//
//	sqlite.DB → repositories → services → handlers → chi routes
//
// Keeping this out of main.go lets tests build the full router against an
// in-memory database without a listener.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/rental-spots/internal/auth"
	"github.com/sakif/rental-spots/internal/config"
	"github.com/sakif/rental-spots/internal/handler"
	"github.com/sakif/rental-spots/internal/middleware"
	sqliteRepo "github.com/sakif/rental-spots/internal/repository/sqlite"
	"github.com/sakif/rental-spots/internal/service"
)

// Integrations are the optional backends. A nil field turns its feature
// off: no listing cache, no upload route, no GitHub routes.
type Integrations struct {
	Cache    service.ListingCache
	Uploader service.ImageUploader
	GitHub   handler.OAuthProvider
}

// Server owns the router and the database. The database is closed when
// Start returns, or by Close.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database at cfg.DBPath and builds every route.
func New(cfg *config.Config, logger *slog.Logger, in Integrations) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(in); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures middleware and routes.
//
// ROUTES (all under /api):
//
//	GET    /health
//	POST   /users                         signup
//	GET    /session  POST /session  DELETE /session
//	GET    /auth/github/login, /auth/github/callback   (GitHub configured)
//	GET    /spots                         public listing, paged
//	GET    /spots/current                 auth
//	GET    /spots/{spotId}
//	POST   /spots                         auth
//	PUT    /spots/{spotId}                owner
//	DELETE /spots/{spotId}                owner
//	POST   /spots/{spotId}/images         owner
//	POST   /spots/{spotId}/images/upload  owner (object storage configured)
//	GET    /spots/{spotId}/reviews
//	POST   /spots/{spotId}/reviews        auth
//	GET    /spots/{spotId}/bookings       auth
//	POST   /spots/{spotId}/bookings       auth
//	GET    /reviews/current               auth
//	PUT    /reviews/{reviewId}            author
//	DELETE /reviews/{reviewId}            author
//	POST   /reviews/{reviewId}/images     author
//	GET    /bookings/current              auth
//
// MIDDLEWARE ORDER:
//  1. RequestID, RealIP
//  2. RestoreUser: cookie → user id in context
//  3. Logger: after RestoreUser so it can log the user id
//  4. Recoverer: panics become 500 and still get logged
//
// Ownership ("owner", "author") is checked by the services; the router
// only requires a signed-in user.
func (s *Server) setupRoutes(in Integrations) error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.JWTExpiresIn)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	// === Services ===
	users := s.db.Users()
	spots := s.db.Spots()

	authService := service.NewAuthService(users, tokens, passwords, s.logger)
	spotService := service.NewSpotService(spots, users, s.logger)
	reviewService := service.NewReviewService(s.db.Reviews(), spots, s.logger)
	bookingService := service.NewBookingService(s.db.Bookings(), spots, s.logger)

	if in.Cache != nil {
		spotService.UseCache(in.Cache)
		reviewService.UseCache(in.Cache)
	}
	if in.Uploader != nil {
		spotService.UseUploader(in.Uploader)
	}

	// === Handlers ===
	sessionHandler := handler.NewSessionHandler(authService, s.config.CookieSecure, s.logger)
	spotHandler := handler.NewSpotHandler(spotService, s.config.MinIO.MaxUploadSize, s.logger)
	reviewHandler := handler.NewReviewHandler(reviewService)
	bookingHandler := handler.NewBookingHandler(bookingService)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(auth.RestoreUser(tokens, s.config.CookieSecure))
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// === Session ===
		r.Post("/users", sessionHandler.Signup)
		r.Get("/session", sessionHandler.Restore)
		r.Post("/session", sessionHandler.Login)
		r.Delete("/session", sessionHandler.Logout)

		if in.GitHub != nil {
			githubHandler := handler.NewGitHubHandler(in.GitHub, authService, s.config.CookieSecure, s.logger)
			r.Get("/auth/github/login", githubHandler.Login)
			r.Get("/auth/github/callback", githubHandler.Callback)
		}

		// === Spots ===
		r.Route("/spots", func(r chi.Router) {
			r.Get("/", spotHandler.List)
			r.With(auth.RequireAuth).Get("/current", spotHandler.ListCurrent)
			r.With(auth.RequireAuth).Post("/", spotHandler.Create)

			r.Route("/{spotId}", func(r chi.Router) {
				r.Get("/", spotHandler.Get)
				r.Get("/reviews", reviewHandler.ListForSpot)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireAuth)

					r.Put("/", spotHandler.Update)
					r.Delete("/", spotHandler.Delete)
					r.Post("/images", spotHandler.AddImage)
					if in.Uploader != nil {
						r.Post("/images/upload", spotHandler.UploadImage)
					}
					r.Post("/reviews", reviewHandler.Create)
					r.Get("/bookings", bookingHandler.ListForSpot)
					r.Post("/bookings", bookingHandler.Create)
				})
			})
		})

		// === Reviews ===
		r.Route("/reviews", func(r chi.Router) {
			r.Use(auth.RequireAuth)

			r.Get("/current", reviewHandler.ListCurrent)
			r.Put("/{reviewId}", reviewHandler.Update)
			r.Delete("/{reviewId}", reviewHandler.Delete)
			r.Post("/{reviewId}/images", reviewHandler.AddImage)
		})

		// === Bookings ===
		r.With(auth.RequireAuth).Get("/bookings/current", bookingHandler.ListCurrent)
	})

	return nil
}

// handleHealth reports whether the database answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.Ping(); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.Write([]byte(`{"status":"ok"}`))
}

// Start serves HTTP until SIGINT/SIGTERM, then shuts down gracefully:
//  1. stop accepting connections
//  2. give in-flight requests 30 seconds to finish
//  3. close the database (flushes the WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // uploads
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d/api", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
