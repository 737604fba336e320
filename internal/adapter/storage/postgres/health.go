package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthCheck implements ports.HealthChecker for PostgreSQL.
type HealthCheck struct {
	pool *pgxpool.Pool
}

// NewHealthCheck creates a PostgreSQL health checker.
func NewHealthCheck(pool *pgxpool.Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Ping verifies database connectivity.
func (h *HealthCheck) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}

// Name identifies the dependency in the health report.
func (h *HealthCheck) Name() string {
	return "postgres"
}
