package tenant

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrExternalIDRequired = errors.New("external user id is required")
	ErrEmailRequired      = errors.New("email is required")
)

// User is the local record of an identity provider account. TenantID is nil
// until onboarding links the user to the tenant it created.
type User struct {
	ID                 string    `json:"id"`
	ExternalID         string    `json:"external_id"`
	Email              string    `json:"email"`
	TenantID           *string   `json:"tenant_id,omitempty"`
	OnboardingComplete bool      `json:"onboarding_complete"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewUser creates an account record that has not been onboarded.
func NewUser(externalID, email string) (*User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, ErrExternalIDRequired
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	now := time.Now().UTC()
	return &User{
		ID:         "usr_" + uuid.New().String(),
		ExternalID: externalID,
		Email:      strings.ToLower(email),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// TenantRef returns the linked tenant ID, or "" when not onboarded.
func (u *User) TenantRef() string {
	if u.TenantID == nil {
		return ""
	}
	return *u.TenantID
}
