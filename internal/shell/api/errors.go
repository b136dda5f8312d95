package api

import (
	"errors"
	"fmt"
	"net/http"

	corecontent "github.com/pintim/pint/internal/core/content"
	"github.com/pintim/pint/internal/core/tenant"
	apimw "github.com/pintim/pint/internal/shell/api/middleware"
	"github.com/pintim/pint/internal/shell/content"
	"github.com/pintim/pint/internal/shell/store"
	"github.com/pintim/pint/internal/shell/tenancy"
)

// Error codes of the error envelope.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeRateLimited  = "RATE_LIMITED"
	CodePostLimit    = "POST_LIMIT"
	CodeTierLimit    = "TIER_LIMIT"
	CodePassword     = "PASSWORD_REQUIRED"
	CodeInternal     = "INTERNAL_ERROR"
)

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeErrorDetails(w, status, code, message, nil)
}

func (h *Handler) writeErrorDetails(w http.ResponseWriter, status int, code, message string, details any) {
	h.writeJSON(w, status, ErrorResponse{
		Error: apimw.ErrorBody{Code: code, Message: message, Details: details},
	})
}

// writeServiceError maps a service error to a status and error code.
// Unrecognized errors are logged and reported as internal.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *ValidationError
	var unavailableErr *tenancy.UnavailableError
	var tierErr *tenancy.TierLimitError

	switch {
	case errors.As(err, &validationErr):
		h.writeErrorDetails(w, http.StatusBadRequest, CodeValidation, "Validation failed", validationErr.Fields)

	case errors.As(err, &unavailableErr):
		h.writeErrorDetails(w, http.StatusBadRequest, CodeValidation,
			fmt.Sprintf("Subdomain is not available: %s", unavailableErr.Reason),
			[]FieldError{{Path: "subdomain", Message: unavailableErr.Reason}})

	case errors.Is(err, corecontent.ErrTitleRequired),
		errors.Is(err, corecontent.ErrInvalidSlug),
		errors.Is(err, corecontent.ErrInvalidStatus),
		errors.Is(err, tenant.ErrDisplayNameTooShort),
		errors.Is(err, tenant.ErrDisplayNameTooLong),
		errors.Is(err, content.ErrPasswordTooLong),
		errors.Is(err, content.ErrWidgetOrder),
		errors.Is(err, content.ErrWidgetConfig):
		h.writeError(w, http.StatusBadRequest, CodeValidation, err.Error())

	case errors.As(err, &tierErr):
		h.writeError(w, http.StatusForbidden, CodeTierLimit, tierErr.Error())

	case errors.Is(err, content.ErrPasswordRequired):
		h.writeError(w, http.StatusUnauthorized, CodePassword, "This post is password protected")

	case errors.Is(err, content.ErrUnauthorized):
		h.writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")

	case errors.Is(err, content.ErrNoTenant),
		errors.Is(err, tenancy.ErrNotOnboarded):
		h.writeError(w, http.StatusForbidden, CodeForbidden, "Complete onboarding before managing content")

	case errors.Is(err, content.ErrPostLimit):
		h.writeError(w, http.StatusForbidden, CodePostLimit,
			fmt.Sprintf("Post limit of %d reached. Upgrade to Pro for unlimited posts.", tenant.FreePostLimit))

	case errors.Is(err, content.ErrPostNotFound):
		h.writeError(w, http.StatusNotFound, CodeNotFound, "Post not found")

	case errors.Is(err, content.ErrPageNotFound):
		h.writeError(w, http.StatusNotFound, CodeNotFound, "Page not found")

	case errors.Is(err, content.ErrWidgetNotFound):
		h.writeError(w, http.StatusNotFound, CodeNotFound, "Widget not found")

	case errors.Is(err, tenancy.ErrTenantNotFound):
		h.writeError(w, http.StatusNotFound, CodeNotFound, "Blog not found")

	case errors.Is(err, tenancy.ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, CodeNotFound, "User not found. Please try again in a moment.")

	case errors.Is(err, content.ErrSlugConflict),
		errors.Is(err, tenancy.ErrSubdomainTaken):
		h.writeError(w, http.StatusConflict, CodeConflict, capitalize(err.Error()))

	case errors.Is(err, tenancy.ErrAlreadyOnboarded):
		h.writeError(w, http.StatusConflict, CodeConflict, "Onboarding already completed")

	case store.IsConflict(err):
		h.writeError(w, http.StatusConflict, CodeConflict, "Resource already exists")

	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		h.writeError(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
	}
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}
