package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/db"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/paygreen"
)

type refundCall struct {
	transactionID string
	amount        *int64
}

type fakeRefundGateway struct {
	calls  []refundCall
	result *paygreen.Transaction
	err    error
}

func (g *fakeRefundGateway) RefundPayment(_ context.Context, transactionID string, amount *int64) (*paygreen.Transaction, error) {
	g.calls = append(g.calls, refundCall{transactionID: transactionID, amount: amount})
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

type fakeRefundOrderStore struct {
	order   *models.Order
	markErr error

	marks []bool
}

func (s *fakeRefundOrderStore) GetByID(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != orderID {
		return nil, db.ErrNotFound
	}
	return s.order, nil
}

func (s *fakeRefundOrderStore) MarkRefunded(_ context.Context, _ uuid.UUID, partial bool) error {
	s.marks = append(s.marks, partial)
	return s.markErr
}

func paidOrder(total string) *models.Order {
	return &models.Order{
		ID:             uuid.New(),
		OrderNumber:    "CBD-1-TEST",
		Status:         models.OrderConfirmed,
		PaymentStatus:  models.PaymentPaid,
		PaymentOrderID: "po_123",
		Total:          decimal.RequireFromString(total),
	}
}

func TestRefundFull(t *testing.T) {
	t.Parallel()

	order := paidOrder("49.99")
	gateway := &fakeRefundGateway{result: &paygreen.Transaction{ID: "po_123", Status: "refunded"}}
	store := &fakeRefundOrderStore{order: order}
	service := NewRefundService(gateway, store, slog.Default())

	result, err := service.Refund(context.Background(), RefundInput{OrderID: order.ID})
	if err != nil {
		t.Fatalf("Refund() error = %v", err)
	}

	if len(gateway.calls) != 1 {
		t.Fatalf("gateway called %d times, want 1", len(gateway.calls))
	}
	if call := gateway.calls[0]; call.transactionID != "po_123" || call.amount != nil {
		t.Errorf("gateway call = %+v, want full refund of po_123", call)
	}
	if result.Partial {
		t.Errorf("result.Partial = true, want false")
	}
	if result.AmountMinor != 4999 {
		t.Errorf("result.AmountMinor = %d, want 4999", result.AmountMinor)
	}
	if result.Order.PaymentStatus != models.PaymentRefunded || result.Order.Status != models.OrderRefunded {
		t.Errorf("order statuses = %s/%s, want REFUNDED pair", result.Order.Status, result.Order.PaymentStatus)
	}
	if len(store.marks) != 1 || store.marks[0] {
		t.Errorf("MarkRefunded marks = %v, want [false]", store.marks)
	}
}

func TestRefundPartial(t *testing.T) {
	t.Parallel()

	order := paidOrder("49.99")
	gateway := &fakeRefundGateway{result: &paygreen.Transaction{ID: "po_123"}}
	store := &fakeRefundOrderStore{order: order}
	service := NewRefundService(gateway, store, slog.Default())

	amount := decimal.RequireFromString("10.00")
	result, err := service.Refund(context.Background(), RefundInput{OrderID: order.ID, Amount: &amount})
	if err != nil {
		t.Fatalf("Refund() error = %v", err)
	}

	call := gateway.calls[0]
	if call.amount == nil || *call.amount != 1000 {
		t.Fatalf("gateway amount = %v, want 1000", call.amount)
	}
	if !result.Partial {
		t.Errorf("result.Partial = false, want true")
	}
	if result.Order.PaymentStatus != models.PaymentPartiallyRefunded {
		t.Errorf("payment status = %s, want PARTIALLY_REFUNDED", result.Order.PaymentStatus)
	}
	if len(store.marks) != 1 || !store.marks[0] {
		t.Errorf("MarkRefunded marks = %v, want [true]", store.marks)
	}
}

func TestRefundAmountCoveringTotalIsFull(t *testing.T) {
	t.Parallel()

	order := paidOrder("49.99")
	gateway := &fakeRefundGateway{result: &paygreen.Transaction{ID: "po_123"}}
	store := &fakeRefundOrderStore{order: order}
	service := NewRefundService(gateway, store, slog.Default())

	amount := decimal.RequireFromString("60.00")
	result, err := service.Refund(context.Background(), RefundInput{OrderID: order.ID, Amount: &amount})
	if err != nil {
		t.Fatalf("Refund() error = %v", err)
	}
	if gateway.calls[0].amount != nil {
		t.Errorf("gateway amount = %v, want nil (full refund)", gateway.calls[0].amount)
	}
	if result.Partial {
		t.Errorf("result.Partial = true, want false")
	}
}

func TestRefundPreconditions(t *testing.T) {
	t.Parallel()

	notPaid := paidOrder("49.99")
	notPaid.PaymentStatus = models.PaymentPending
	noPayment := paidOrder("49.99")
	noPayment.PaymentOrderID = ""

	tests := []struct {
		name           string
		order          *models.Order
		orderID        uuid.UUID
		wantValidation bool
		wantNotFound   bool
	}{
		{
			name:         "unknown order",
			order:        nil,
			orderID:      uuid.New(),
			wantNotFound: true,
		},
		{
			name:           "order without payment",
			order:          noPayment,
			orderID:        noPayment.ID,
			wantValidation: true,
		},
		{
			name:           "order not paid",
			order:          notPaid,
			orderID:        notPaid.ID,
			wantValidation: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			gateway := &fakeRefundGateway{}
			service := NewRefundService(gateway, &fakeRefundOrderStore{order: tc.order}, slog.Default())

			_, err := service.Refund(context.Background(), RefundInput{OrderID: tc.orderID})
			if tc.wantNotFound && !errors.Is(err, db.ErrNotFound) {
				t.Fatalf("Refund() error = %v, want ErrNotFound", err)
			}
			if tc.wantValidation && !IsValidationError(err) {
				t.Fatalf("Refund() error = %v, want validation error", err)
			}
			if len(gateway.calls) != 0 {
				t.Errorf("gateway was called despite failed preconditions")
			}
		})
	}
}

func TestRefundRejectsNonPositiveAmount(t *testing.T) {
	t.Parallel()

	order := paidOrder("49.99")
	gateway := &fakeRefundGateway{}
	service := NewRefundService(gateway, &fakeRefundOrderStore{order: order}, slog.Default())

	amount := decimal.Zero
	_, err := service.Refund(context.Background(), RefundInput{OrderID: order.ID, Amount: &amount})
	if !IsValidationError(err) {
		t.Fatalf("Refund() error = %v, want validation error", err)
	}
	if len(gateway.calls) != 0 {
		t.Errorf("gateway was called for a zero amount")
	}
}

func TestRefundGatewayFailureLeavesOrderUntouched(t *testing.T) {
	t.Parallel()

	order := paidOrder("49.99")
	gateway := &fakeRefundGateway{err: &paygreen.APIError{StatusCode: 409, Message: "already refunded"}}
	store := &fakeRefundOrderStore{order: order}
	service := NewRefundService(gateway, store, slog.Default())

	_, err := service.Refund(context.Background(), RefundInput{OrderID: order.ID})
	var apiErr *paygreen.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Refund() error = %v, want wrapped APIError", err)
	}
	if len(store.marks) != 0 {
		t.Errorf("order was marked refunded after a gateway rejection")
	}
}
