package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/pintim/pint/internal/core/auth"
)

// maxWebhookBody bounds account webhook payloads.
const maxWebhookBody = 1 << 20

// =============================================================================
// Webhook Handlers
// =============================================================================

func (h *Handler) handleAccountWebhook(w http.ResponseWriter, r *http.Request) {
	if h.webhooks == nil {
		h.logger.Error("account webhook received but no webhook secret is configured")
		h.writeError(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, CodeValidation, "Unreadable body")
		return
	}

	err = h.webhooks.Verify(
		r.Header.Get(auth.HeaderWebhookID),
		r.Header.Get(auth.HeaderWebhookTimestamp),
		r.Header.Get(auth.HeaderWebhookSignature),
		body,
	)
	if err != nil {
		h.logger.Warn("rejected account webhook", "remote_addr", r.RemoteAddr, "error", err)
		if errors.Is(err, auth.ErrWebhookHeadersMissing) {
			h.writeError(w, http.StatusBadRequest, CodeValidation, "Missing webhook headers")
			return
		}
		h.writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Invalid webhook signature")
		return
	}

	evt, err := auth.ParseAccountEvent(body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}

	switch evt.Type {
	case auth.EventUserCreated:
		if _, err := h.accounts.UserCreated(r.Context(), evt.ExternalID, evt.Email); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	case auth.EventUserDeleted:
		if err := h.accounts.UserDeleted(r.Context(), evt.ExternalID); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	default:
		h.logger.Debug("ignoring account webhook", "type", evt.Type)
	}

	h.writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
