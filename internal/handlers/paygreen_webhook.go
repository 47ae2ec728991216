package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/cache"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/paygreen"
)

// PayGreenWebhook receives payment lifecycle notifications from the
// gateway. The signature is enforced in production; sandbox notifications
// arrive unsigned. Events are acked with 204 once accepted, including
// events whose reconciliation failed, since the gateway retries on
// non-2xx and a retry would hit the same failure.
func (h *Handlers) PayGreenWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("failed to read webhook payload", "error", err)
		http.Error(w, "Invalid webhook", http.StatusBadRequest)
		return
	}

	if h.config.IsProduction() {
		signature := r.Header.Get(paygreen.SignatureHeader)
		if !paygreen.VerifySignature(payload, signature, h.config.PayGreenSecretKey) {
			logger.Warn("rejected webhook with invalid signature")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
	}

	event, err := paygreen.ParseWebhookEvent(payload)
	if err != nil {
		logger.Error("failed to parse webhook event", "error", err)
		http.Error(w, "Invalid payload", http.StatusInternalServerError)
		return
	}

	cacheKey := cache.WebhookKey(event.Type, event.PaymentOrder.ID)
	if _, err := h.cacheProvider.Get(ctx, cacheKey); err == nil {
		logger.Info("webhook already processed",
			"event_type", event.Type,
			"payment_order_id", event.PaymentOrder.ID)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if processErr := h.paymentRouter.Handle(ctx, event); processErr != nil {
		logger.Error("failed to process webhook event",
			"error", processErr,
			"event_type", event.Type,
			"payment_order_id", event.PaymentOrder.ID)
	} else {
		if err := h.cacheProvider.Set(ctx, cacheKey, "processed", 24*time.Hour); err != nil {
			logger.Error("failed to mark webhook as processed in cache", "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
