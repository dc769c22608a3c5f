package api

import (
	"context"
	"fmt"
	"time"

	"interview-api/internal/api/interfaces"
	"interview-api/internal/api/middlewares"
	"interview-api/internal/auth"
	"interview-api/internal/database"
	"interview-api/internal/database/repositories"
	"interview-api/internal/sanitize"
	"interview-api/pkg/config"
	"interview-api/pkg/logger"
	"interview-api/pkg/metrics"

	"github.com/jmoiron/sqlx"
)

// ServiceName labels metrics and logs
const ServiceName = "interview-api"

// Services contains all the dependencies for API handlers
type Services struct {
	// Core dependencies
	DB      *sqlx.DB // nil when the in-memory store is used
	Logger  *logger.Logger
	Config  *config.Config
	Metrics *metrics.Metrics

	authService         interfaces.AuthServiceInterface
	sanitizer           interfaces.SanitizerInterface
	candidateRepository interfaces.CandidateRepository
	rateLimiter         *middlewares.RateLimiter

	stop chan struct{}
}

// NewServices creates a new services container. A nil db selects the
// in-memory candidate store.
func NewServices(db *sqlx.DB, logger *logger.Logger, config *config.Config) (*Services, error) {
	tokenService, err := auth.NewTokenService(
		config.Security.JWTSecret,
		auth.WithExpiry(config.Security.JWTExpiration),
		auth.WithIssuer(config.Security.JWTIssuer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	services := &Services{
		DB:          db,
		Logger:      logger,
		Config:      config,
		Metrics:     metrics.NewMetrics(ServiceName),
		authService: tokenService,
		sanitizer:   sanitize.New(sanitize.WithMaxDepth(config.API.SanitizeMaxDepth)),
		rateLimiter: middlewares.NewRateLimiter(config.API.RateLimit, config.API.BurstLimit),
		stop:        make(chan struct{}),
	}

	if db != nil {
		services.candidateRepository = repositories.NewCandidateRepository(db)
	} else {
		services.candidateRepository = repositories.NewMemoryCandidateRepository()
	}

	return services, nil
}

// OpenDatabase connects to and migrates the configured SQL store. It returns
// a nil handle for the memory store.
func OpenDatabase(cfg *config.Config, log *logger.Logger) (*sqlx.DB, error) {
	if cfg.Storage.Type == "" || cfg.Storage.Type == "memory" {
		log.Info("Using in-memory candidate store")
		return nil, nil
	}

	db, err := database.NewConnection(cfg)
	if err != nil {
		return nil, err
	}

	if err := database.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Connected to candidate store", "type", cfg.Storage.Type)
	return db, nil
}

// Start starts all background services
func (s *Services) Start() error {
	s.Logger.Info("Starting API services...")
	s.rateLimiter.StartCleanup(time.Minute, s.stop)
	s.Logger.Info("All API services started successfully")
	return nil
}

// Stop stops all background services and releases the database
func (s *Services) Stop() {
	s.Logger.Info("Stopping API services...")

	select {
	case <-s.stop:
	default:
		close(s.stop)
	}

	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			s.Logger.Error("Error closing database: %v", err)
		}
	}

	s.Logger.Info("All API services stopped")
}

// IsHealthy checks the candidate store
func (s *Services) IsHealthy(ctx context.Context) bool {
	if err := s.candidateRepository.Ping(ctx); err != nil {
		s.Logger.Error("Store health check failed: %v", err)
		return false
	}
	return true
}

// GetLogger returns the application logger
func (s *Services) GetLogger() *logger.Logger {
	return s.Logger
}

// GetMetrics returns the Prometheus collectors
func (s *Services) GetMetrics() *metrics.Metrics {
	return s.Metrics
}

// AuthService returns the token service
func (s *Services) AuthService() interfaces.AuthServiceInterface {
	return s.authService
}

// Sanitizer returns the payload sanitizer
func (s *Services) Sanitizer() interfaces.SanitizerInterface {
	return s.sanitizer
}

// CandidateRepository returns the candidate store
func (s *Services) CandidateRepository() interfaces.CandidateRepository {
	return s.candidateRepository
}

// RateLimiter returns the shared per-client limiter
func (s *Services) RateLimiter() *middlewares.RateLimiter {
	return s.rateLimiter
}
