package domain

import (
	"context"
	"time"
)

// TaxProvider is the common adapter contract. Implementations must
// normalize their breakdowns into canonical TaxLine entries; the
// orchestrator never branches on provider identity beyond lookup.
type TaxProvider interface {
	Name() string
	CalculateTax(ctx context.Context, req CalculationRequest) (*CalculationResult, error)
	HealthCheck(ctx context.Context) HealthStatus
}

// HealthStatus is a no-side-effect provider probe result.
type HealthStatus struct {
	Status    string    `json:"status"`
	Provider  string    `json:"provider"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	HealthStatusOK          = "ok"
	HealthStatusUnreachable = "unreachable"
)
