package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/pintim/pint/internal/core/tenant"
)

// Checker decides whether a subdomain may be claimed.
type Checker struct {
	directory *Directory
}

// NewChecker creates a checker backed by directory.
func NewChecker(directory *Directory) *Checker {
	return &Checker{directory: directory}
}

// Check validates candidate and, only if it is well formed and not reserved,
// asks the directory whether it is taken. Store failures are returned as
// errors and never reported as available.
func (c *Checker) Check(ctx context.Context, candidate string) (tenant.Availability, error) {
	normalized, reason := tenant.ValidateIdentifier(candidate)
	if reason != "" {
		return tenant.Unavailable(reason), nil
	}

	_, err := c.directory.FindByIdentifier(ctx, normalized)
	switch {
	case err == nil:
		return tenant.EvaluateAvailability(normalized, true), nil
	case errors.Is(err, ErrTenantNotFound):
		return tenant.EvaluateAvailability(normalized, false), nil
	default:
		return tenant.Availability{}, fmt.Errorf("check subdomain %q: %w", normalized, err)
	}
}
