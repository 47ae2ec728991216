package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/services"
)

type orderLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type placeOrderRequest struct {
	Email           string             `json:"email"`
	Phone           string             `json:"phone"`
	Items           []orderLineRequest `json:"items"`
	ShippingAddress *models.Address    `json:"shippingAddress"`
	BillingAddress  *models.Address    `json:"billingAddress,omitempty"`
	PaymentMethod   string             `json:"paymentMethod,omitempty"`
}

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if session == nil {
		h.respondError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req placeOrderRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]services.OrderLineInput, 0, len(req.Items))
	for _, line := range req.Items {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			h.respondError(w, r, http.StatusBadRequest, "invalid product id")
			return
		}
		items = append(items, services.OrderLineInput{ProductID: productID, Quantity: line.Quantity})
	}

	order, err := h.orderService.PlaceOrder(r.Context(), services.PlaceOrderInput{
		UserID:          session.UserID,
		Email:           req.Email,
		Phone:           req.Phone,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusCreated, order)
}

func (h *Handlers) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if session == nil {
		h.respondError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	orders, err := h.orderService.ListOrders(r.Context(), session.UserID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if session == nil {
		h.respondError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), orderID, session.UserID, session.IsAdmin())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, order)
}

// GetOrderByPaymentID resolves an order from its gateway payment order
// id. The checkout success page lands with only that id in hand.
func (h *Handlers) GetOrderByPaymentID(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.GetOrderByPaymentOrderID(r.Context(), mux.Vars(r)["paymentId"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, struct {
		Success bool          `json:"success"`
		Order   *models.Order `json:"order"`
	}{Success: true, Order: order})
}
