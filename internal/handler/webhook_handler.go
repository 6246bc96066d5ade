// internal/handler/webhook_handler.go
package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/o4villegas/lead-fuego-sub001/internal/errors"
	"github.com/o4villegas/lead-fuego-sub001/internal/service"
)

// SignatureHeader carries the provider's hex HMAC-SHA256 of the raw body.
const SignatureHeader = "X-Webhook-Signature"

// WebhookHandler receives provider delivery/engagement callbacks and
// feeds verified events to the reconciler.
type WebhookHandler struct {
	Reconciler *service.Reconciler
	// Secret returns the shared secret for a provider, "" if unknown.
	Secret func(provider string) string
	Logger *zap.Logger
}

// webhookEnvelope is the minimal provider event contract.
type webhookEnvelope struct {
	ProviderMessageID string    `json:"provider_message_id"`
	EventType         string    `json:"event_type"`
	Timestamp         time.Time `json:"timestamp"`
}

// Receive handles POST /webhooks/{provider}. Unverifiable payloads are
// rejected and logged; they never mutate state.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	secret := h.Secret(provider)
	if secret == "" {
		h.Logger.Warn("webhook for unknown provider", zap.String("provider", provider))
		http.Error(w, "unknown provider", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if !verifySignature(body, r.Header.Get(SignatureHeader), secret) {
		h.Logger.Warn("webhook signature verification failed",
			zap.String("provider", provider),
			zap.String("remote_addr", r.RemoteAddr),
		)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if envelope.ProviderMessageID == "" || envelope.EventType == "" {
		http.Error(w, "provider_message_id and event_type are required", http.StatusBadRequest)
		return
	}

	err = h.Reconciler.Ingest(service.ProviderEvent{
		Provider:          provider,
		ProviderMessageID: envelope.ProviderMessageID,
		EventType:         envelope.EventType,
		OccurredAt:        envelope.Timestamp,
	})
	if err != nil {
		var unknown *appErrors.ErrUnknownProviderMessage
		if errors.As(err, &unknown) {
			h.Logger.Warn("webhook for unknown message",
				zap.String("provider", provider),
				zap.String("provider_message_id", envelope.ProviderMessageID),
			)
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.Logger.Error("failed to ingest webhook event",
			zap.String("provider", provider),
			zap.Error(err),
		)
		http.Error(w, "failed to process event", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// verifySignature checks the hex HMAC-SHA256 of the raw payload in
// constant time.
func verifySignature(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
