package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/example/checkout-gateway/internal/webhook"
)

type WebhookReceiver interface {
	Authenticate(token string) bool
	Handle(ctx context.Context, n webhook.Notification)
}

// WebhookHandler acknowledges every authenticated, well-formed notification
// with 200 regardless of how processing went, so the gateway never retries.
// Only a bad token (401) or a malformed payload (400) is refused.
func WebhookHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Webhook.Authenticate(r.Header.Get(webhook.TokenHeader)) {
			writeText(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var n webhook.Notification
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&n); err != nil || !n.Valid() {
			d.Logger.Warn("invalid webhook payload")
			writeText(w, http.StatusBadRequest, "Invalid payload")
			return
		}

		d.Webhook.Handle(r.Context(), n)
		writeText(w, http.StatusOK, "OK")
	}
}
