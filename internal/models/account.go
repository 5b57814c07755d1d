package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of principal roles.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleCleaner  Role = "cleaner"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleCleaner, RoleAdmin:
		return true
	}
	return false
}

// Account statuses.
const (
	AccountStatusActive    = "ACTIVE"
	AccountStatusInactive  = "INACTIVE"
	AccountStatusSuspended = "SUSPENDED"
)

// Cleaner onboarding review states.
const (
	OnboardingPending  = "PENDING"
	OnboardingApproved = "APPROVED"
	OnboardingRejected = "REJECTED"
)

// CleanerProfile is the onboarding profile a cleaner submits for review.
type CleanerProfile struct {
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	Bio             string `json:"bio"`
	ExperienceLevel string `json:"experience_level"`
}

func (p CleanerProfile) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *CleanerProfile) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("models: cannot scan %T into CleanerProfile", src)
	}
}

// Account is a customer, cleaner, or admin record. Onboarding fields are
// meaningful for cleaners only and stay zero-valued elsewhere.
type Account struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Role         Role      `db:"-" json:"role"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Status       string    `db:"account_status" json:"account_status"`

	OnboardingStatus string          `db:"onboarding_status" json:"onboarding_status,omitempty"`
	RejectionReason  *string         `db:"rejection_reason" json:"rejection_reason,omitempty"`
	Profile          *CleanerProfile `db:"profile" json:"profile,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the account may authenticate.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// ProfileMissingFields lists the onboarding profile fields still needed
// before a cleaner can be approved.
func ProfileMissingFields(profile *CleanerProfile) []string {
	if profile == nil {
		return []string{"profile"}
	}
	return nil
}
