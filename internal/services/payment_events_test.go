package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/db"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/paygreen"
)

type fakeReconcilerStore struct {
	order *models.Order

	confirmErr error
	failErr    error
	cancelErr  error

	confirmed []uuid.UUID
	failed    []uuid.UUID
	cancelled []uuid.UUID
}

func (s *fakeReconcilerStore) GetByPaymentOrderID(_ context.Context, paymentOrderID string) (*models.Order, error) {
	if s.order == nil || s.order.PaymentOrderID != paymentOrderID {
		return nil, db.ErrNotFound
	}
	return s.order, nil
}

func (s *fakeReconcilerStore) MarkConfirmed(_ context.Context, orderID uuid.UUID) error {
	s.confirmed = append(s.confirmed, orderID)
	return s.confirmErr
}

func (s *fakeReconcilerStore) MarkPaymentFailed(_ context.Context, orderID uuid.UUID) error {
	s.failed = append(s.failed, orderID)
	return s.failErr
}

func (s *fakeReconcilerStore) MarkCancelled(_ context.Context, orderID uuid.UUID) error {
	s.cancelled = append(s.cancelled, orderID)
	return s.cancelErr
}

type recordingEmailSender struct {
	sent []*models.Order
	err  error
}

func (s *recordingEmailSender) SendOrderConfirmation(_ context.Context, order *models.Order) error {
	s.sent = append(s.sent, order)
	return s.err
}

func pendingOrder(paymentOrderID string) *models.Order {
	return &models.Order{
		ID:             uuid.New(),
		OrderNumber:    "CBD-1-TEST",
		Status:         models.OrderPending,
		PaymentStatus:  models.PaymentPending,
		PaymentOrderID: paymentOrderID,
	}
}

func TestHandlePaymentSucceeded(t *testing.T) {
	t.Parallel()

	store := &fakeReconcilerStore{order: pendingOrder("po_123")}
	sender := &recordingEmailSender{}
	service := NewPaymentEventService(store, sender, slog.Default())

	err := service.HandlePaymentSucceeded(context.Background(), paygreen.PaymentOrder{ID: "po_123"})
	if err != nil {
		t.Fatalf("HandlePaymentSucceeded() error = %v", err)
	}
	if len(store.confirmed) != 1 || store.confirmed[0] != store.order.ID {
		t.Errorf("confirmed = %v, want [%s]", store.confirmed, store.order.ID)
	}
	if len(sender.sent) != 1 {
		t.Errorf("confirmation emails sent = %d, want 1", len(sender.sent))
	}
}

func TestHandlePaymentSucceededUnknownPaymentOrder(t *testing.T) {
	t.Parallel()

	store := &fakeReconcilerStore{}
	service := NewPaymentEventService(store, nil, slog.Default())

	err := service.HandlePaymentSucceeded(context.Background(), paygreen.PaymentOrder{ID: "po_missing"})
	if err != nil {
		t.Fatalf("HandlePaymentSucceeded() error = %v, want nil for unknown payment order", err)
	}
	if len(store.confirmed) != 0 {
		t.Errorf("an order was confirmed for an unknown payment order")
	}
}

func TestHandlePaymentSucceededIsIdempotent(t *testing.T) {
	t.Parallel()

	store := &fakeReconcilerStore{
		order:      pendingOrder("po_123"),
		confirmErr: db.ErrInvalidStatusTransition,
	}
	sender := &recordingEmailSender{}
	service := NewPaymentEventService(store, sender, slog.Default())

	err := service.HandlePaymentSucceeded(context.Background(), paygreen.PaymentOrder{ID: "po_123"})
	if err != nil {
		t.Fatalf("HandlePaymentSucceeded() error = %v, want nil for replayed event", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("confirmation email sent on a replayed event")
	}
}

func TestHandlePaymentSucceededEmailFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	store := &fakeReconcilerStore{order: pendingOrder("po_123")}
	sender := &recordingEmailSender{err: errors.New("smtp down")}
	service := NewPaymentEventService(store, sender, slog.Default())

	if err := service.HandlePaymentSucceeded(context.Background(), paygreen.PaymentOrder{ID: "po_123"}); err != nil {
		t.Fatalf("HandlePaymentSucceeded() error = %v, want nil despite email failure", err)
	}
}

func TestHandlePaymentFailed(t *testing.T) {
	t.Parallel()

	store := &fakeReconcilerStore{order: pendingOrder("po_123")}
	service := NewPaymentEventService(store, nil, slog.Default())

	if err := service.HandlePaymentFailed(context.Background(), paygreen.PaymentOrder{ID: "po_123"}); err != nil {
		t.Fatalf("HandlePaymentFailed() error = %v", err)
	}
	if len(store.failed) != 1 {
		t.Errorf("failed marks = %d, want 1", len(store.failed))
	}
}

func TestHandlePaymentCancelled(t *testing.T) {
	t.Parallel()

	store := &fakeReconcilerStore{order: pendingOrder("po_123")}
	service := NewPaymentEventService(store, nil, slog.Default())

	if err := service.HandlePaymentCancelled(context.Background(), paygreen.PaymentOrder{ID: "po_123"}); err != nil {
		t.Fatalf("HandlePaymentCancelled() error = %v", err)
	}
	if len(store.cancelled) != 1 {
		t.Errorf("cancel marks = %d, want 1", len(store.cancelled))
	}
}

func TestHandlePaymentFailedStoreError(t *testing.T) {
	t.Parallel()

	store := &fakeReconcilerStore{
		order:   pendingOrder("po_123"),
		failErr: errors.New("connection reset"),
	}
	service := NewPaymentEventService(store, nil, slog.Default())

	if err := service.HandlePaymentFailed(context.Background(), paygreen.PaymentOrder{ID: "po_123"}); err == nil {
		t.Fatal("HandlePaymentFailed() error = nil, want store error surfaced")
	}
}
