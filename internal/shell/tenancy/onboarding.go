package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pintim/pint/internal/core/tenant"
	"github.com/pintim/pint/internal/shell/store"
)

var (
	// ErrSubdomainTaken is returned when the subdomain was claimed between
	// the availability check and the insert.
	ErrSubdomainTaken = errors.New("this subdomain was just taken, please try another")

	// ErrAlreadyOnboarded is returned when the account already owns a tenant.
	ErrAlreadyOnboarded = errors.New("onboarding already completed")

	// ErrUserNotFound is returned when the account has not been recorded yet,
	// usually because the account webhook has not arrived.
	ErrUserNotFound = errors.New("user not found, please try again in a moment")
)

// UnavailableError reports a subdomain rejected by the availability check.
type UnavailableError struct {
	Subdomain string
	Reason    string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("subdomain %q is not available: %s", e.Subdomain, e.Reason)
}

// OnboardingRequest is the input of Complete.
type OnboardingRequest struct {
	DisplayName string
	Subdomain   string
}

// OnboardingResult is the tenant created by Complete.
type OnboardingResult struct {
	Tenant  *tenant.Tenant
	Widgets []tenant.Widget
}

// OnboardingStatus describes where an account is in onboarding.
type OnboardingStatus struct {
	Authenticated      bool    `json:"authenticated"`
	OnboardingComplete bool    `json:"onboarding_complete"`
	UserExists         bool    `json:"user_exists"`
	Subdomain          *string `json:"subdomain"`
}

// Onboarder creates a tenant for an account.
type Onboarder struct {
	store   store.Store
	checker *Checker
	logger  *slog.Logger
	now     func() time.Time
}

// NewOnboarder creates an onboarder.
func NewOnboarder(s store.Store, checker *Checker, logger *slog.Logger) *Onboarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Onboarder{
		store:   s,
		checker: checker,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Complete claims req.Subdomain for the account identified by externalID.
//
// Availability is re-checked immediately before the transaction; a rejected
// subdomain returns *UnavailableError without touching the store. The tenant,
// the owner link and the default widgets are then written atomically. A
// unique violation on the subdomain inside the transaction returns
// ErrSubdomainTaken.
func (o *Onboarder) Complete(ctx context.Context, externalID string, req OnboardingRequest) (*OnboardingResult, error) {
	if err := tenant.ValidateDisplayName(req.DisplayName); err != nil {
		return nil, err
	}

	normalized, reason := tenant.ValidateIdentifier(req.Subdomain)
	if reason != "" {
		return nil, &UnavailableError{Subdomain: normalized, Reason: reason}
	}

	user, err := o.store.GetUserByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.OnboardingComplete && user.TenantID != nil {
		return nil, ErrAlreadyOnboarded
	}

	availability, err := o.checker.Check(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if !availability.Available {
		return nil, &UnavailableError{Subdomain: normalized, Reason: availability.Reason}
	}

	t, err := tenant.NewTenant(normalized, req.DisplayName)
	if err != nil {
		return nil, err
	}
	widgets := tenant.DefaultWidgets(t.ID, o.now())

	err = o.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.CreateTenant(ctx, t); err != nil {
			return err
		}
		if err := tx.LinkUserTenant(ctx, user.ID, t.ID); err != nil {
			return err
		}
		for i := range widgets {
			if err := tx.CreateWidget(ctx, &widgets[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateSubdomain):
			o.logger.InfoContext(ctx, "subdomain claimed concurrently", "subdomain", normalized)
			return nil, ErrSubdomainTaken
		case errors.Is(err, store.ErrDuplicateUser):
			return nil, ErrAlreadyOnboarded
		}
		o.logger.ErrorContext(ctx, "onboarding failed", "subdomain", normalized, "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("complete onboarding: %w", err)
	}

	o.logger.InfoContext(ctx, "tenant created", "tenant_id", t.ID, "subdomain", t.Subdomain, "user_id", user.ID)
	return &OnboardingResult{Tenant: t, Widgets: widgets}, nil
}

// Status reports the onboarding state for externalID. An empty externalID is
// an unauthenticated caller.
func (o *Onboarder) Status(ctx context.Context, externalID string) (OnboardingStatus, error) {
	if externalID == "" {
		return OnboardingStatus{}, nil
	}

	user, err := o.store.GetUserByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return OnboardingStatus{Authenticated: true}, nil
		}
		return OnboardingStatus{}, err
	}

	status := OnboardingStatus{
		Authenticated:      true,
		UserExists:         true,
		OnboardingComplete: user.OnboardingComplete && user.TenantID != nil,
	}
	if user.TenantID != nil {
		t, err := o.store.GetTenant(ctx, *user.TenantID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return OnboardingStatus{}, err
		}
		if t != nil {
			status.Subdomain = &t.Subdomain
		}
	}
	return status, nil
}
