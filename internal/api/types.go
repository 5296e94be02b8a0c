// Package api provides the operations HTTP surface of index-sync.
package api

import (
	"context"

	"github.com/stacklok/wiki-index-sync/internal/status"
)

//go:generate mockgen -destination=mocks/mock_api.go -package=mocks -source=types.go Pinger,StatusProvider

// Pinger is a backend the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusProvider reports the status of every synchronization job.
type StatusProvider interface {
	Statuses(ctx context.Context) map[string]*status.SyncStatus
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response. Checks holds
// "ok" or the error of each backend.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// StatusResponse lists job statuses by job name
type StatusResponse struct {
	Jobs map[string]*status.SyncStatus `json:"jobs"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}
