package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/cache"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/config"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/db"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/paygreen"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/services"
)

const webhookSecret = "sk_test_webhook_secret"

type webhookOrderStore struct {
	order *models.Order

	confirmed int
	failed    int
	cancelled int
}

func (s *webhookOrderStore) GetByPaymentOrderID(_ context.Context, paymentOrderID string) (*models.Order, error) {
	if s.order == nil || s.order.PaymentOrderID != paymentOrderID {
		return nil, db.ErrNotFound
	}
	return s.order, nil
}

func (s *webhookOrderStore) MarkConfirmed(context.Context, uuid.UUID) error {
	s.confirmed++
	return nil
}

func (s *webhookOrderStore) MarkPaymentFailed(context.Context, uuid.UUID) error {
	s.failed++
	return nil
}

func (s *webhookOrderStore) MarkCancelled(context.Context, uuid.UUID) error {
	s.cancelled++
	return nil
}

func newWebhookHandlers(t *testing.T, environment string, store *webhookOrderStore) *Handlers {
	t.Helper()

	cacheProvider, err := cache.NewProvider(cache.Config{Provider: "memory"})
	if err != nil {
		t.Fatalf("failed to create cache provider: %v", err)
	}
	t.Cleanup(func() { _ = cacheProvider.Close() })

	logger := slog.Default()
	paymentEvents := services.NewPaymentEventService(store, nil, logger)

	return &Handlers{
		config: &config.Config{
			PayGreenEnv:       environment,
			PayGreenSecretKey: webhookSecret,
		},
		cacheProvider: cacheProvider,
		paymentRouter: NewPaymentEventRouter(paymentEvents, logger),
		logger:        logger,
	}
}

func webhookBody(eventType, paymentOrderID string) []byte {
	return []byte(`{"type":"` + eventType + `","data":{"payment_order":{"id":"` + paymentOrderID + `","status":"successed"}}}`)
}

func postWebhook(h *Handlers, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payment/webhook", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(paygreen.SignatureHeader, signature)
	}
	recorder := httptest.NewRecorder()
	h.PayGreenWebhook(recorder, req)
	return recorder
}

func TestPayGreenWebhookSuccessMarksOrderPaid(t *testing.T) {
	t.Parallel()

	store := &webhookOrderStore{order: &models.Order{ID: uuid.New(), PaymentOrderID: "po_123"}}
	h := newWebhookHandlers(t, "production", store)

	body := webhookBody("payment_order.success", "po_123")
	resp := postWebhook(h, body, paygreen.ComputeSignature(body, webhookSecret))

	if resp.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.Code)
	}
	if store.confirmed != 1 {
		t.Errorf("order confirmed %d times, want 1", store.confirmed)
	}
}

func TestPayGreenWebhookRejectsTamperedSignature(t *testing.T) {
	t.Parallel()

	store := &webhookOrderStore{order: &models.Order{ID: uuid.New(), PaymentOrderID: "po_123"}}
	h := newWebhookHandlers(t, "production", store)

	body := webhookBody("payment_order.success", "po_123")
	signature := paygreen.ComputeSignature(append(body, ' '), webhookSecret)
	resp := postWebhook(h, body, signature)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
	if store.confirmed != 0 {
		t.Errorf("order state mutated despite invalid signature")
	}
}

func TestPayGreenWebhookSkipsSignatureInSandbox(t *testing.T) {
	t.Parallel()

	store := &webhookOrderStore{order: &models.Order{ID: uuid.New(), PaymentOrderID: "po_123"}}
	h := newWebhookHandlers(t, "sandbox", store)

	resp := postWebhook(h, webhookBody("payment_order.cancelled", "po_123"), "")

	if resp.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.Code)
	}
	if store.cancelled != 1 {
		t.Errorf("order cancelled %d times, want 1", store.cancelled)
	}
}

func TestPayGreenWebhookRejectsMalformedPayload(t *testing.T) {
	t.Parallel()

	store := &webhookOrderStore{}
	h := newWebhookHandlers(t, "sandbox", store)

	resp := postWebhook(h, []byte(`{"type":"payment_order.success"}`), "")

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.Code)
	}
}

func TestPayGreenWebhookDeduplicatesReplays(t *testing.T) {
	t.Parallel()

	store := &webhookOrderStore{order: &models.Order{ID: uuid.New(), PaymentOrderID: "po_123"}}
	h := newWebhookHandlers(t, "sandbox", store)

	body := webhookBody("payment_order.failed", "po_123")
	for i := 0; i < 3; i++ {
		if resp := postWebhook(h, body, ""); resp.Code != http.StatusNoContent {
			t.Fatalf("delivery %d status = %d, want 204", i, resp.Code)
		}
	}

	if store.failed != 1 {
		t.Errorf("order marked failed %d times, want 1 (replays deduplicated)", store.failed)
	}
}

func TestPayGreenWebhookAcksUnknownOrder(t *testing.T) {
	t.Parallel()

	store := &webhookOrderStore{}
	h := newWebhookHandlers(t, "sandbox", store)

	resp := postWebhook(h, webhookBody("payment_order.success", "po_missing"), "")

	if resp.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 for unknown payment order", resp.Code)
	}
}

func TestPayGreenWebhookAcksUnknownEventType(t *testing.T) {
	t.Parallel()

	store := &webhookOrderStore{}
	h := newWebhookHandlers(t, "sandbox", store)

	resp := postWebhook(h, []byte(`{"type":"payment_order.pending"}`), "")

	if resp.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 for unknown event type", resp.Code)
	}
	if store.confirmed+store.failed+store.cancelled != 0 {
		t.Errorf("order state mutated for an unknown event type")
	}
}
