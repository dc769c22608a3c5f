package interfaces

import (
	"context"
	"net/url"

	"interview-api/internal/database"
	"interview-api/pkg/logger"
	"interview-api/pkg/metrics"
)

// CandidateRepository is the storage abstraction handlers work against
type CandidateRepository interface {
	List(ctx context.Context) ([]database.Candidate, error)
	Add(ctx context.Context, candidate database.Candidate) error
	UpdateDesignation(ctx context.Context, name, designation string) error
	Delete(ctx context.Context, name string) error
	Ping(ctx context.Context) error
}

// SanitizerInterface rewrites request payloads before handlers see them
type SanitizerInterface interface {
	Sanitize(v any) (any, error)
	String(s string) string
	Values(values url.Values) url.Values
}

// Services defines the interface for API services
type Services interface {
	GetLogger() *logger.Logger
	GetMetrics() *metrics.Metrics
	AuthService() AuthServiceInterface
	Sanitizer() SanitizerInterface
	CandidateRepository() CandidateRepository
}
