package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pintim/pint/internal/core/auth"
	"github.com/pintim/pint/internal/core/tenant"
	"github.com/pintim/pint/internal/shell/content"
)

// =============================================================================
// Settings Handlers
// =============================================================================

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	t, err := h.settings.Get(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, settingsToResponse(t))
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	t, err := h.settings.Update(r.Context(), auth.FromContext(r.Context()), tenant.SettingsPatch{
		Title:                   req.Title,
		Description:             req.Description,
		Theme:                   req.Theme,
		AccentColor:             req.AccentColor,
		FontFamily:              req.FontFamily,
		SEOEnabled:              req.SEOEnabled,
		RobotsIndexing:          req.RobotsIndexing,
		CustomMetaTitle:         req.CustomMetaTitle,
		CustomMetaDescription:   req.CustomMetaDescription,
		ExternalAnalyticsScript: req.ExternalAnalyticsScript,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, settingsToResponse(t))
}

func (h *Handler) handleReservedNames(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, ReservedNamesResponse{Names: tenant.ReservedNames()})
}

// =============================================================================
// Widget Handlers
// =============================================================================

func (h *Handler) handleListWidgets(w http.ResponseWriter, r *http.Request) {
	widgets, err := h.widgets.List(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, widgetsToResponse(widgets))
}

func (h *Handler) handleReorderWidgets(w http.ResponseWriter, r *http.Request) {
	var req ReorderWidgetsRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	orders := make([]content.WidgetOrder, 0, len(req.Widgets))
	for _, o := range req.Widgets {
		orders = append(orders, content.WidgetOrder{ID: o.ID, DisplayOrder: *o.DisplayOrder})
	}

	widgets, err := h.widgets.Reorder(r.Context(), auth.FromContext(r.Context()), orders)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, widgetsToResponse(widgets))
}

func (h *Handler) handleUpdateWidget(w http.ResponseWriter, r *http.Request) {
	var req UpdateWidgetRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	wd, err := h.widgets.Update(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"), content.WidgetPatch{
		Enabled:      req.Enabled,
		Config:       req.Config,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, widgetToResponse(wd))
}

func settingsToResponse(t *tenant.Tenant) SettingsResponse {
	return SettingsResponse{Settings: t.Settings, Tier: string(t.Tier)}
}

func widgetToResponse(w *tenant.Widget) ManagedWidgetResponse {
	return ManagedWidgetResponse{
		ID:           w.ID,
		Type:         string(w.Type),
		Enabled:      w.Enabled,
		DisplayOrder: w.DisplayOrder,
		Config:       w.Config,
		CreatedAt:    w.CreatedAt,
	}
}

func widgetsToResponse(widgets []tenant.Widget) ListWidgetsResponse {
	resp := ListWidgetsResponse{Widgets: make([]ManagedWidgetResponse, 0, len(widgets))}
	for i := range widgets {
		resp.Widgets = append(resp.Widgets, widgetToResponse(&widgets[i]))
	}
	return resp
}
