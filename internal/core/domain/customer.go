package domain

import (
	"time"

	"github.com/google/uuid"
)

// CustomerStatus represents the state of a customer account.
type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "ACTIVE"
	CustomerStatusSuspended CustomerStatus = "SUSPENDED"
)

// Customer represents a consumer profile. The customer owns exactly one
// wallet, created alongside the profile at registration time.
type Customer struct {
	ID           uuid.UUID      `json:"id"`
	Username     string         `json:"username"`
	PasswordHash string         `json:"-"`
	FullName     string         `json:"full_name"`
	Status       CustomerStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// IsActive returns true if the customer account is active.
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}
