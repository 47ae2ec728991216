package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/db"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/paygreen"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/services"
)

type stubGateway struct {
	created *paygreen.PaymentOrder
	lastReq paygreen.CreatePaymentOrderParams
}

func (g *stubGateway) CreatePaymentOrder(_ context.Context, params paygreen.CreatePaymentOrderParams) (*paygreen.PaymentOrder, error) {
	g.lastReq = params
	return g.created, nil
}

func (g *stubGateway) GetPaymentOrder(_ context.Context, paymentOrderID string) (*paygreen.PaymentOrder, error) {
	if g.created == nil || g.created.ID != paymentOrderID {
		return nil, paygreen.ErrPaymentOrderNotFound
	}
	return g.created, nil
}

type stubOrderBinder struct{}

func (stubOrderBinder) SetPaymentOrder(context.Context, uuid.UUID, string) error { return nil }

type stubRefundStore struct {
	order *models.Order
}

func (s *stubRefundStore) GetByID(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != orderID {
		return nil, db.ErrNotFound
	}
	return s.order, nil
}

func (s *stubRefundStore) MarkRefunded(context.Context, uuid.UUID, bool) error { return nil }

func newPaymentHandlers(gateway *stubGateway, refundStore *stubRefundStore) *Handlers {
	logger := slog.Default()
	return &Handlers{
		checkoutService: services.NewCheckoutService(gateway, stubOrderBinder{}, "https://shop.example", logger),
		refundService:   services.NewRefundService(&fakeRefundGatewayHTTP{}, refundStore, logger),
		logger:          logger,
	}
}

type fakeRefundGatewayHTTP struct{}

func (fakeRefundGatewayHTTP) RefundPayment(_ context.Context, transactionID string, _ *int64) (*paygreen.Transaction, error) {
	return &paygreen.Transaction{ID: transactionID, Status: "refunded"}, nil
}

func TestCreatePaymentOrderEndpoint(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{created: &paygreen.PaymentOrder{
		ID:          "po_123",
		RedirectURL: "https://pay.example/po_123",
		Status:      "pending",
		Amount:      4999,
	}}
	h := newPaymentHandlers(gateway, &stubRefundStore{})

	req := httptest.NewRequest(http.MethodPost, "/payment/create-order",
		strings.NewReader(`{"amount":"49.99","customerEmail":"client@example.fr"}`))
	resp := httptest.NewRecorder()
	h.CreatePaymentOrder(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", resp.Code, resp.Body)
	}
	if gateway.lastReq.Amount != 4999 {
		t.Errorf("gateway amount = %d, want 4999", gateway.lastReq.Amount)
	}

	var body paymentOrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.Success {
		t.Errorf("success = false, want true")
	}
	if body.PaymentOrder == nil || body.PaymentOrder.RedirectURL != "https://pay.example/po_123" {
		t.Errorf("payment order = %+v", body.PaymentOrder)
	}
}

type failingGateway struct {
	err error
}

func (g *failingGateway) CreatePaymentOrder(context.Context, paygreen.CreatePaymentOrderParams) (*paygreen.PaymentOrder, error) {
	return nil, g.err
}

func (g *failingGateway) GetPaymentOrder(context.Context, string) (*paygreen.PaymentOrder, error) {
	return nil, g.err
}

func TestCreatePaymentOrderSurfacesProviderError(t *testing.T) {
	t.Parallel()

	logger := slog.Default()
	gateway := &failingGateway{err: &paygreen.APIError{StatusCode: http.StatusBadRequest, Message: "currency not supported"}}
	h := &Handlers{
		checkoutService: services.NewCheckoutService(gateway, stubOrderBinder{}, "https://shop.example", logger),
		logger:          logger,
	}

	req := httptest.NewRequest(http.MethodPost, "/payment/create-order",
		strings.NewReader(`{"amount":"49.99"}`))
	resp := httptest.NewRecorder()
	h.CreatePaymentOrder(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500, body %s", resp.Code, resp.Body)
	}

	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["error"] != "payment provider error" {
		t.Errorf("error = %q", body["error"])
	}
	if body["details"] != "currency not supported" {
		t.Errorf("details = %q", body["details"])
	}
}

func TestCreatePaymentOrderRejectsBadAmount(t *testing.T) {
	t.Parallel()

	h := newPaymentHandlers(&stubGateway{}, &stubRefundStore{})

	req := httptest.NewRequest(http.MethodPost, "/payment/create-order", strings.NewReader(`{"amount":"0"}`))
	resp := httptest.NewRecorder()
	h.CreatePaymentOrder(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}

func TestGetPaymentOrderEndpoint(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{created: &paygreen.PaymentOrder{ID: "po_123", Status: "successed"}}
	h := newPaymentHandlers(gateway, &stubRefundStore{})

	router := mux.NewRouter()
	router.HandleFunc("/payment/get-order/{id}", h.GetPaymentOrder)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/payment/get-order/po_123", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/payment/get-order/po_missing", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for unknown payment order", resp.Code)
	}
}

func TestRefundEndpointValidation(t *testing.T) {
	t.Parallel()

	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "CBD-1-TEST",
		PaymentStatus: models.PaymentPending,
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "missing order id", body: `{}`, want: http.StatusBadRequest},
		{name: "malformed order id", body: `{"orderId":"not-a-uuid"}`, want: http.StatusBadRequest},
		{name: "unknown order", body: `{"orderId":"` + uuid.NewString() + `"}`, want: http.StatusNotFound},
		{name: "unpaid order", body: `{"orderId":"` + order.ID.String() + `"}`, want: http.StatusBadRequest},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newPaymentHandlers(&stubGateway{}, &stubRefundStore{order: order})

			req := httptest.NewRequest(http.MethodPost, "/payment/refund", strings.NewReader(tc.body))
			resp := httptest.NewRecorder()
			h.Refund(resp, req)

			if resp.Code != tc.want {
				t.Fatalf("status = %d, want %d, body %s", resp.Code, tc.want, resp.Body)
			}
		})
	}
}

func TestRefundEndpointSuccess(t *testing.T) {
	t.Parallel()

	order := &models.Order{
		ID:             uuid.New(),
		OrderNumber:    "CBD-1-TEST",
		PaymentStatus:  models.PaymentPaid,
		PaymentOrderID: "po_123",
		Total:          mustDecimal("49.99"),
	}
	h := newPaymentHandlers(&stubGateway{}, &stubRefundStore{order: order})

	req := httptest.NewRequest(http.MethodPost, "/payment/refund",
		strings.NewReader(`{"orderId":"`+order.ID.String()+`","reason":"customer request"}`))
	resp := httptest.NewRecorder()
	h.Refund(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", resp.Code, resp.Body)
	}

	var body refundResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.Success {
		t.Errorf("success = false, want true")
	}
	if body.RefundResult.Partial {
		t.Errorf("partial = true, want false")
	}
	if body.RefundResult.Amount != 4999 {
		t.Errorf("amount = %d, want 4999", body.RefundResult.Amount)
	}
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
