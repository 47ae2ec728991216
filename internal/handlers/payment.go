package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/paygreen"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/services"
)

type createPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CustomerEmail string          `json:"customerEmail"`
	OrderID       string          `json:"orderId"`
}

type paymentOrderResponse struct {
	Success      bool                   `json:"success"`
	PaymentOrder *paygreen.PaymentOrder `json:"paymentOrder"`
}

// CreatePaymentOrder creates a hosted payment order at the gateway.
// Amount is in major units (euros).
func (h *Handlers) CreatePaymentOrder(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	orderID := uuid.Nil
	if req.OrderID != "" {
		parsed, err := uuid.Parse(req.OrderID)
		if err != nil {
			h.respondError(w, r, http.StatusBadRequest, "invalid order id")
			return
		}
		orderID = parsed
	}

	paymentOrder, err := h.checkoutService.CreatePayment(r.Context(), services.CreatePaymentInput{
		Amount:        req.Amount,
		Currency:      req.Currency,
		CustomerEmail: req.CustomerEmail,
		OrderID:       orderID,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, paymentOrderResponse{Success: true, PaymentOrder: paymentOrder})
}

// GetPaymentOrder returns the gateway-side state of a payment order.
func (h *Handlers) GetPaymentOrder(w http.ResponseWriter, r *http.Request) {
	paymentOrderID := mux.Vars(r)["id"]

	paymentOrder, err := h.checkoutService.GetPayment(r.Context(), paymentOrderID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, paymentOrderResponse{Success: true, PaymentOrder: paymentOrder})
}

type refundRequest struct {
	OrderID string           `json:"orderId"`
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	Reason  string           `json:"reason,omitempty"`
}

type refundResult struct {
	Order       *models.Order         `json:"order"`
	Transaction *paygreen.Transaction `json:"transaction,omitempty"`
	Partial     bool                  `json:"partial"`
	Amount      int64                 `json:"amount"`
}

type refundResponse struct {
	Success      bool         `json:"success"`
	Message      string       `json:"message"`
	RefundResult refundResult `json:"refundResult"`
}

// Refund refunds a paid order, fully or partially. Amount is in major
// units; omitting it refunds the full total.
func (h *Handlers) Refund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" {
		h.respondError(w, r, http.StatusBadRequest, "orderId is required")
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	result, err := h.refundService.Refund(r.Context(), services.RefundInput{
		OrderID: orderID,
		Amount:  req.Amount,
		Reason:  req.Reason,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	message := "order refunded"
	if result.Partial {
		message = "order partially refunded"
	}
	h.respondJSON(w, r, http.StatusOK, refundResponse{
		Success: true,
		Message: message,
		RefundResult: refundResult{
			Order:       result.Order,
			Transaction: result.Transaction,
			Partial:     result.Partial,
			Amount:      result.AmountMinor,
		},
	})
}
