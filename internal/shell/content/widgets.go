package content

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pintim/pint/internal/core/auth"
	"github.com/pintim/pint/internal/core/tenant"
	"github.com/pintim/pint/internal/shell/store"
)

// WidgetOrder places one widget in a reorder.
type WidgetOrder struct {
	ID           string
	DisplayOrder int
}

// WidgetPatch updates one widget. Nil fields are left unchanged.
type WidgetPatch struct {
	Enabled      *bool
	Config       json.RawMessage
	DisplayOrder *int
}

// Widgets manages a tenant's add-ons.
type Widgets struct {
	store  store.Store
	logger *slog.Logger
}

// NewWidgets creates the widget service.
func NewWidgets(s store.Store, logger *slog.Logger) *Widgets {
	if logger == nil {
		logger = slog.Default()
	}
	return &Widgets{store: s, logger: logger}
}

// List returns the caller's widgets by display order.
func (w *Widgets) List(ctx context.Context, actor auth.Context) ([]tenant.Widget, error) {
	if err := requireTenant(actor); err != nil {
		return nil, err
	}
	return w.store.ListWidgets(ctx, actor.TenantID)
}

// Reorder sets the display order of several widgets at once. Either every
// widget moves or none does; a widget of another tenant fails the whole
// call with ErrWidgetNotFound.
func (w *Widgets) Reorder(ctx context.Context, actor auth.Context, orders []WidgetOrder) ([]tenant.Widget, error) {
	if err := requireTenant(actor); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrWidgetOrder
	}
	seen := make(map[string]bool, len(orders))
	for _, o := range orders {
		if o.ID == "" || o.DisplayOrder < 0 || seen[o.ID] {
			return nil, ErrWidgetOrder
		}
		seen[o.ID] = true
	}

	err := w.store.WithTx(ctx, func(tx store.Store) error {
		for _, o := range orders {
			wd, err := ownedWidget(ctx, tx, actor, o.ID)
			if err != nil {
				return err
			}
			wd.DisplayOrder = o.DisplayOrder
			if err := tx.UpdateWidget(ctx, wd); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, notFoundAs(err, ErrWidgetNotFound)
	}

	w.logger.InfoContext(ctx, "widgets reordered", "tenant_id", actor.TenantID, "count", len(orders))
	return w.store.ListWidgets(ctx, actor.TenantID)
}

// Update applies patch to one of the caller's widgets.
func (w *Widgets) Update(ctx context.Context, actor auth.Context, id string, patch WidgetPatch) (*tenant.Widget, error) {
	if err := requireTenant(actor); err != nil {
		return nil, err
	}
	if patch.DisplayOrder != nil && *patch.DisplayOrder < 0 {
		return nil, ErrWidgetOrder
	}
	if patch.Config != nil {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(patch.Config, &obj); err != nil || obj == nil {
			return nil, ErrWidgetConfig
		}
	}

	wd, err := ownedWidget(ctx, w.store, actor, id)
	if err != nil {
		return nil, err
	}
	if patch.Enabled != nil {
		wd.Enabled = *patch.Enabled
	}
	if patch.Config != nil {
		wd.Config = patch.Config
	}
	if patch.DisplayOrder != nil {
		wd.DisplayOrder = *patch.DisplayOrder
	}
	if err := w.store.UpdateWidget(ctx, wd); err != nil {
		return nil, notFoundAs(err, ErrWidgetNotFound)
	}

	w.logger.InfoContext(ctx, "widget updated", "tenant_id", actor.TenantID, "widget_id", wd.ID)
	return wd, nil
}

// ownedWidget loads a widget of the caller's tenant. Widgets of other
// tenants are reported as not found.
func ownedWidget(ctx context.Context, s store.Store, actor auth.Context, id string) (*tenant.Widget, error) {
	wd, err := s.GetWidget(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrWidgetNotFound)
	}
	if !auth.CanManageTenant(actor, wd.TenantID) {
		return nil, ErrWidgetNotFound
	}
	return wd, nil
}
