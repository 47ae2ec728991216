package services

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/db"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
)

type fakeOrderStore struct {
	created []*models.Order
	byPayID map[string]*models.Order
}

func (s *fakeOrderStore) Create(_ context.Context, order *models.Order) error {
	s.created = append(s.created, order)
	return nil
}

func (s *fakeOrderStore) GetByID(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	for _, order := range s.created {
		if order.ID == orderID {
			return order, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *fakeOrderStore) GetByPaymentOrderID(_ context.Context, paymentOrderID string) (*models.Order, error) {
	if order, ok := s.byPayID[paymentOrderID]; ok {
		return order, nil
	}
	return nil, db.ErrNotFound
}

func (s *fakeOrderStore) ListByUser(context.Context, uuid.UUID) ([]*models.Order, error) {
	return s.created, nil
}

type fakeProductStore struct {
	products    map[uuid.UUID]*models.Product
	decremented map[uuid.UUID]int
}

func (s *fakeProductStore) GetByID(_ context.Context, productID uuid.UUID) (*models.Product, error) {
	product, ok := s.products[productID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return product, nil
}

func (s *fakeProductStore) DecrementStock(_ context.Context, productID uuid.UUID, quantity int) error {
	if s.decremented == nil {
		s.decremented = map[uuid.UUID]int{}
	}
	s.decremented[productID] += quantity
	return nil
}

func activeProduct(price string, stock int) *models.Product {
	return &models.Product{
		ID:     uuid.New(),
		Name:   "Huile CBD 10%",
		Slug:   "huile-cbd-10",
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Status: models.ProductActive,
	}
}

func shippingAddress() *models.Address {
	return &models.Address{Line1: "1 rue de la Paix", City: "Paris", PostalCode: "75002", Country: "FR"}
}

func TestPlaceOrderTotals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		price        string
		quantity     int
		wantSubtotal string
		wantShipping string
		wantTax      string
		wantTotal    string
	}{
		{
			name:         "below free shipping threshold",
			price:        "19.90",
			quantity:     2,
			wantSubtotal: "39.80",
			wantShipping: "5.99",
			wantTax:      "7.96",
			wantTotal:    "53.75",
		},
		{
			name:         "free shipping at threshold",
			price:        "25.00",
			quantity:     2,
			wantSubtotal: "50.00",
			wantShipping: "0.00",
			wantTax:      "10.00",
			wantTotal:    "60.00",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			product := activeProduct(tc.price, 10)
			products := &fakeProductStore{products: map[uuid.UUID]*models.Product{product.ID: product}}
			orders := &fakeOrderStore{}
			service := NewOrderService(orders, products, slog.Default())

			order, err := service.PlaceOrder(context.Background(), PlaceOrderInput{
				UserID:          uuid.New(),
				Email:           "client@example.fr",
				Items:           []OrderLineInput{{ProductID: product.ID, Quantity: tc.quantity}},
				ShippingAddress: shippingAddress(),
			})
			if err != nil {
				t.Fatalf("PlaceOrder() error = %v", err)
			}

			if got := order.Subtotal.StringFixed(2); got != tc.wantSubtotal {
				t.Errorf("subtotal = %s, want %s", got, tc.wantSubtotal)
			}
			if got := order.Shipping.StringFixed(2); got != tc.wantShipping {
				t.Errorf("shipping = %s, want %s", got, tc.wantShipping)
			}
			if got := order.Tax.StringFixed(2); got != tc.wantTax {
				t.Errorf("tax = %s, want %s", got, tc.wantTax)
			}
			if got := order.Total.StringFixed(2); got != tc.wantTotal {
				t.Errorf("total = %s, want %s", got, tc.wantTotal)
			}
			if order.Status != models.OrderPending || order.PaymentStatus != models.PaymentPending {
				t.Errorf("new order statuses = %s/%s, want PENDING pair", order.Status, order.PaymentStatus)
			}
			if !strings.HasPrefix(order.OrderNumber, "CBD-") {
				t.Errorf("order number = %q, want CBD- prefix", order.OrderNumber)
			}
			if products.decremented[product.ID] != tc.quantity {
				t.Errorf("stock decremented by %d, want %d", products.decremented[product.ID], tc.quantity)
			}
		})
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	t.Parallel()

	lowStock := activeProduct("19.90", 1)
	draft := activeProduct("19.90", 10)
	draft.Status = models.ProductDraft

	products := &fakeProductStore{products: map[uuid.UUID]*models.Product{
		lowStock.ID: lowStock,
		draft.ID:    draft,
	}}

	valid := PlaceOrderInput{
		Email:           "client@example.fr",
		Items:           []OrderLineInput{{ProductID: lowStock.ID, Quantity: 1}},
		ShippingAddress: shippingAddress(),
	}

	tests := []struct {
		name   string
		mutate func(*PlaceOrderInput)
	}{
		{
			name:   "no items",
			mutate: func(in *PlaceOrderInput) { in.Items = nil },
		},
		{
			name:   "no email",
			mutate: func(in *PlaceOrderInput) { in.Email = "" },
		},
		{
			name:   "no shipping address",
			mutate: func(in *PlaceOrderInput) { in.ShippingAddress = nil },
		},
		{
			name:   "unknown product",
			mutate: func(in *PlaceOrderInput) { in.Items = []OrderLineInput{{ProductID: uuid.New(), Quantity: 1}} },
		},
		{
			name:   "zero quantity",
			mutate: func(in *PlaceOrderInput) { in.Items = []OrderLineInput{{ProductID: lowStock.ID, Quantity: 0}} },
		},
		{
			name:   "insufficient stock",
			mutate: func(in *PlaceOrderInput) { in.Items = []OrderLineInput{{ProductID: lowStock.ID, Quantity: 5}} },
		},
		{
			name:   "inactive product",
			mutate: func(in *PlaceOrderInput) { in.Items = []OrderLineInput{{ProductID: draft.ID, Quantity: 1}} },
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			input := valid
			tc.mutate(&input)

			service := NewOrderService(&fakeOrderStore{}, products, slog.Default())
			if _, err := service.PlaceOrder(context.Background(), input); !IsValidationError(err) {
				t.Fatalf("PlaceOrder() error = %v, want validation error", err)
			}
		})
	}
}

func TestPlaceOrderDefaultsBillingToShipping(t *testing.T) {
	t.Parallel()

	product := activeProduct("19.90", 10)
	products := &fakeProductStore{products: map[uuid.UUID]*models.Product{product.ID: product}}
	service := NewOrderService(&fakeOrderStore{}, products, slog.Default())

	order, err := service.PlaceOrder(context.Background(), PlaceOrderInput{
		Email:           "client@example.fr",
		Items:           []OrderLineInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: shippingAddress(),
	})
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if order.BillingAddress == nil || order.BillingAddress.City != "Paris" {
		t.Errorf("billing address = %+v, want copy of shipping address", order.BillingAddress)
	}
}

func TestGetOrderEnforcesOwnership(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	orders := &fakeOrderStore{}
	orders.created = append(orders.created, &models.Order{ID: uuid.New(), UserID: owner})
	service := NewOrderService(orders, &fakeProductStore{}, slog.Default())

	if _, err := service.GetOrder(context.Background(), orders.created[0].ID, uuid.New(), false); err != db.ErrNotFound {
		t.Fatalf("GetOrder() as stranger error = %v, want ErrNotFound", err)
	}
	if _, err := service.GetOrder(context.Background(), orders.created[0].ID, uuid.New(), true); err != nil {
		t.Fatalf("GetOrder() as admin error = %v", err)
	}
	if _, err := service.GetOrder(context.Background(), orders.created[0].ID, owner, false); err != nil {
		t.Fatalf("GetOrder() as owner error = %v", err)
	}
}
