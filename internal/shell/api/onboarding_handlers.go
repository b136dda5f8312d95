package api

import (
	"net/http"
	"strings"

	"github.com/pintim/pint/internal/core/auth"
	"github.com/pintim/pint/internal/core/tenant"
	"github.com/pintim/pint/internal/shell/tenancy"
)

// =============================================================================
// Onboarding Handlers
// =============================================================================

func (h *Handler) handleCheckSubdomain(w http.ResponseWriter, r *http.Request) {
	caller := auth.FromContext(r.Context())

	if !h.checkLimiter.Allow(caller.ExternalID) {
		w.Header().Set("Retry-After", "1")
		h.writeError(w, http.StatusTooManyRequests, CodeRateLimited, "Too many requests")
		return
	}

	candidate := strings.TrimSpace(r.URL.Query().Get("subdomain"))
	if candidate == "" {
		h.writeError(w, http.StatusBadRequest, CodeValidation, "Subdomain is required")
		return
	}

	availability, err := h.checker.Check(r.Context(), candidate)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, AvailabilityResponse{
		Subdomain: tenant.NormalizeIdentifier(candidate),
		Available: availability.Available,
		Reason:    availability.Reason,
	})
}

func (h *Handler) handleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	caller := auth.FromContext(r.Context())

	var req CompleteOnboardingRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	result, err := h.onboarder.Complete(r.Context(), caller.ExternalID, tenancy.OnboardingRequest{
		DisplayName: req.DisplayName,
		Subdomain:   req.Subdomain,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, OnboardingResponse{
		Success: true,
		Tenant:  TenantSummary{ID: result.Tenant.ID, Subdomain: result.Tenant.Subdomain},
	})
}

func (h *Handler) handleOnboardingStatus(w http.ResponseWriter, r *http.Request) {
	caller := auth.FromContext(r.Context())

	status, err := h.onboarder.Status(r.Context(), caller.ExternalID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, status)
}
