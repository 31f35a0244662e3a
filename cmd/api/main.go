package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/docbook-api/internal/config"
	appointmentHandler "github.com/jwalitptl/docbook-api/internal/handler/appointment"
	authHandler "github.com/jwalitptl/docbook-api/internal/handler/auth"
	availabilityHandler "github.com/jwalitptl/docbook-api/internal/handler/availability"
	bookmarkHandler "github.com/jwalitptl/docbook-api/internal/handler/bookmark"
	doctorHandler "github.com/jwalitptl/docbook-api/internal/handler/doctor"
	"github.com/jwalitptl/docbook-api/internal/handler/health"
	profileHandler "github.com/jwalitptl/docbook-api/internal/handler/profile"
	"github.com/jwalitptl/docbook-api/internal/handler/prometheus"
	reviewHandler "github.com/jwalitptl/docbook-api/internal/handler/review"
	statsHandler "github.com/jwalitptl/docbook-api/internal/handler/stats"
	userHandler "github.com/jwalitptl/docbook-api/internal/handler/user"
	"github.com/jwalitptl/docbook-api/internal/middleware"
	"github.com/jwalitptl/docbook-api/internal/repository/postgres"
	"github.com/jwalitptl/docbook-api/internal/router"
	appointmentService "github.com/jwalitptl/docbook-api/internal/service/appointment"
	authService "github.com/jwalitptl/docbook-api/internal/service/auth"
	availabilityService "github.com/jwalitptl/docbook-api/internal/service/availability"
	bookmarkService "github.com/jwalitptl/docbook-api/internal/service/bookmark"
	doctorService "github.com/jwalitptl/docbook-api/internal/service/doctor"
	eventService "github.com/jwalitptl/docbook-api/internal/service/event"
	profileService "github.com/jwalitptl/docbook-api/internal/service/profile"
	reviewService "github.com/jwalitptl/docbook-api/internal/service/review"
	statsService "github.com/jwalitptl/docbook-api/internal/service/stats"
	userService "github.com/jwalitptl/docbook-api/internal/service/user"
	"github.com/jwalitptl/docbook-api/internal/storage"
	"github.com/jwalitptl/docbook-api/pkg/auth"
	"github.com/jwalitptl/docbook-api/pkg/logger"
	"github.com/jwalitptl/docbook-api/pkg/security"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(cfg.Log.ToLoggerConfig())
	gin.SetMode(cfg.Server.Mode)
	if err := middleware.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := postgres.NewDB(ctx, postgres.DBConfig{
		DSN:          cfg.Database.DSN(),
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	avatars, err := storage.NewAvatarStore(cfg.Storage.ToStoreConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize avatar storage")
	}

	// Initialize repositories
	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	tokenRepo := postgres.NewTokenRepository(base)
	availabilityRepo := postgres.NewAvailabilityRepository(base)
	appointmentRepo := postgres.NewAppointmentRepository(base)
	reviewRepo := postgres.NewReviewRepository(base)
	bookmarkRepo := postgres.NewBookmarkRepository(base)
	statsRepo := postgres.NewStatsRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	// Initialize services
	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL())
	events := eventService.NewEventService(outboxRepo)
	loc := cfg.Booking.Location()

	authSvc := authService.NewService(userRepo, tokenRepo, &base, tokens, hasher, avatars)
	availabilitySvc := availabilityService.NewService(availabilityRepo, appointmentRepo, userRepo, &base, availabilityService.Config{
		Location: loc,
		Step:     cfg.Booking.SlotStep(),
	})
	appointmentSvc := appointmentService.NewService(appointmentRepo, userRepo, &base, events, availabilitySvc, appointmentService.Config{
		Location:            loc,
		Step:                cfg.Booking.SlotStep(),
		RequireAvailability: cfg.Booking.RequireAvailability,
	})

	// Setup router
	r := router.NewRouter(
		middleware.NewAuthMiddleware(authSvc),
		authHandler.NewHandler(authSvc),
		health.NewHandler(db),
		prometheus.New("docbook"),
		router.RouterConfig{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit: middleware.RateLimiterConfig{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				Burst:             cfg.RateLimit.Burst,
			},
			CORSConfig:   middleware.DefaultCORSConfig(cfg.CORS.AllowedOrigins),
			Security:     middleware.DefaultSecurityConfig(),
			MaxBodyBytes: cfg.Server.MaxBodyBytes,
			StaticPrefix: avatars.PublicPrefix(),
			StaticFS:     avatars.HTTPFileSystem(),
		},
		profileHandler.NewHandler(profileService.NewService(userRepo, hasher, avatars)),
		doctorHandler.NewHandler(doctorService.NewService(userRepo, avatars)),
		availabilityHandler.NewHandler(availabilitySvc),
		appointmentHandler.NewHandler(appointmentSvc),
		reviewHandler.NewHandler(reviewService.NewService(reviewRepo, userRepo, &base, events)),
		bookmarkHandler.NewHandler(bookmarkService.NewService(bookmarkRepo, userRepo, avatars)),
		statsHandler.NewHandler(statsService.NewService(statsRepo, loc)),
		userHandler.NewHandler(userService.NewService(userRepo, hasher, avatars, authSvc)),
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
