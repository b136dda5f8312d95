// Package store provides persistence for tenants, accounts and content.
package store

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrNotFound is returned when an entity is not found.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateID is returned when creating an entity with an existing ID.
	ErrDuplicateID = errors.New("entity with this ID already exists")

	// ErrDuplicateSlug is returned when a post or page slug is already used
	// within the tenant.
	ErrDuplicateSlug = errors.New("slug already exists in this tenant")

	// ErrDuplicateSubdomain is returned when a tenant subdomain is already claimed.
	ErrDuplicateSubdomain = errors.New("subdomain already claimed")

	// ErrDuplicateCustomDomain is returned when a custom domain is already in use.
	ErrDuplicateCustomDomain = errors.New("custom domain already in use")

	// ErrDuplicateUser is returned when an identity provider account is
	// already recorded, or a tenant already has an owner.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrDuplicateWidget is returned when a tenant already has a widget of the type.
	ErrDuplicateWidget = errors.New("widget type already provisioned")

	// ErrForeignKey is returned when a foreign key constraint is violated.
	ErrForeignKey = errors.New("foreign key constraint violated")

	// ErrConnectionFailed is returned when database connection fails.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrMigrationFailed is returned when database migration fails.
	ErrMigrationFailed = errors.New("database migration failed")

	// ErrInvalidData is returned when a stored value cannot be decoded.
	ErrInvalidData = errors.New("invalid data format")

	// ErrTxFailed is returned when a transaction operation fails.
	ErrTxFailed = errors.New("transaction failed")
)

// StoreError wraps errors with additional context.
type StoreError struct {
	Op      string // Operation that failed (e.g., "CreatePost")
	Entity  string // Entity type (e.g., "tenant", "post")
	ID      string // Entity ID if applicable
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %s", e.Op, e.Entity, e.ID, e.Message)
	}
	if e.Entity != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Entity, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, entity, id, message string, err error) *StoreError {
	return &StoreError{
		Op:      op,
		Entity:  entity,
		ID:      id,
		Message: message,
		Err:     err,
	}
}

// IsConflict reports whether err is a uniqueness violation of any kind.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateID) ||
		errors.Is(err, ErrDuplicateSlug) ||
		errors.Is(err, ErrDuplicateSubdomain) ||
		errors.Is(err, ErrDuplicateCustomDomain) ||
		errors.Is(err, ErrDuplicateUser) ||
		errors.Is(err, ErrDuplicateWidget)
}
