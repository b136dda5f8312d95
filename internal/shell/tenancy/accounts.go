package tenancy

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pintim/pint/internal/core/auth"
	"github.com/pintim/pint/internal/core/tenant"
	"github.com/pintim/pint/internal/shell/store"
)

// Accounts mirrors identity provider account events into the store.
type Accounts struct {
	store     store.Store
	directory *Directory
	logger    *slog.Logger
}

// NewAccounts creates the account event handler.
func NewAccounts(s store.Store, directory *Directory, logger *slog.Logger) *Accounts {
	if logger == nil {
		logger = slog.Default()
	}
	return &Accounts{store: s, directory: directory, logger: logger}
}

// UserCreated records a new account. It is idempotent: a repeated event for
// a known account returns created=false and no error.
func (a *Accounts) UserCreated(ctx context.Context, externalID, email string) (created bool, err error) {
	if _, err := a.store.GetUserByExternalID(ctx, externalID); err == nil {
		a.logger.InfoContext(ctx, "user already exists", "external_id", externalID)
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	u, err := tenant.NewUser(externalID, email)
	if err != nil {
		return false, err
	}
	if err := a.store.CreateUser(ctx, u); err != nil {
		// Lost a race with a redelivery of the same event.
		if errors.Is(err, store.ErrDuplicateUser) {
			return false, nil
		}
		return false, err
	}

	a.logger.InfoContext(ctx, "user created", "external_id", externalID, "user_id", u.ID)
	return true, nil
}

// UserDeleted removes an account and the tenant it owns, with all of the
// tenant's posts, pages and widgets. Unknown accounts are ignored.
func (a *Accounts) UserDeleted(ctx context.Context, externalID string) error {
	user, err := a.store.GetUserByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			a.logger.InfoContext(ctx, "user not found for deletion", "external_id", externalID)
			return nil
		}
		return err
	}

	var owned *tenant.Tenant
	err = a.store.WithTx(ctx, func(tx store.Store) error {
		if user.TenantID != nil {
			t, err := tx.GetTenant(ctx, *user.TenantID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			if t != nil {
				owned = t
				if err := tx.DeleteTenant(ctx, t.ID); err != nil {
					return err
				}
			}
		}
		return tx.DeleteUser(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	if owned != nil {
		a.directory.Invalidate(owned)
		a.logger.InfoContext(ctx, "tenant deleted", "tenant_id", owned.ID, "subdomain", owned.Subdomain)
	}
	a.logger.InfoContext(ctx, "user deleted", "external_id", externalID, "user_id", user.ID)
	return nil
}

// ResolveIdentity fills in the local user, tenant and tier for an
// authenticated caller. An account not yet recorded resolves to a context
// with only ExternalID set.
func (a *Accounts) ResolveIdentity(ctx context.Context, externalID string) (auth.Context, error) {
	identity := auth.Context{ExternalID: externalID, Authenticated: true}

	user, err := a.store.GetUserByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return identity, nil
		}
		return auth.Context{}, err
	}
	identity.UserID = user.ID
	if user.TenantID == nil {
		return identity, nil
	}

	t, err := a.directory.FindByID(ctx, *user.TenantID)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return identity, nil
		}
		return auth.Context{}, err
	}
	identity.TenantID = t.ID
	identity.Tier = t.Tier
	return identity, nil
}
