package store

import (
	"time"

	"edureview/pkg/domain"
)

// UserUpdate is a partial update applied atomically: either every set field
// is applied or none are.
type UserUpdate struct {
	Email    *string
	FullName *string
	Role     *domain.UserRole
	Active   *bool
}

// Store defines persistence operations for identities and review outcomes.
// All operations are idempotent on retry.
type Store interface {
	// users
	SaveUser(domain.User) error
	GetUserByID(id string) (domain.User, bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	HasUserEmail(email string) (bool, error)
	UpdateUser(id string, update UserUpdate) (domain.User, bool, error)
	ListUsers() ([]domain.User, error)

	// review outcomes
	SaveReviewOutcome(domain.ReviewOutcome) error
	GetReviewOutcome(id string) (domain.ReviewOutcome, bool, error)
}

// RevocationList tracks revoked token ids until their natural expiry.
// It is the explicit revocation-check hook: deployments that need refresh
// token revocation plug one in; without it tokens remain purely stateless.
type RevocationList interface {
	Revoke(tokenID string, ttl time.Duration) error
	IsRevoked(tokenID string) (bool, error)
}
