package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/db"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/logging"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
)

// Shipping is free above the threshold, charged at a flat rate below.
// VAT applies to the subtotal at the French standard rate.
var (
	freeShippingThreshold = decimal.NewFromInt(50)
	shippingRate          = decimal.RequireFromString("5.99")
	vatRate               = decimal.RequireFromString("0.20")
)

type orderProductStore interface {
	GetByID(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
}

type orderStore interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetByPaymentOrderID(ctx context.Context, paymentOrderID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error)
}

// OrderService places orders and exposes customer-facing lookups.
type OrderService struct {
	orders   orderStore
	products orderProductStore
	logger   *slog.Logger
}

func NewOrderService(orders orderStore, products orderProductStore, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		logger:   logger,
	}
}

func (s *OrderService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type OrderLineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

type PlaceOrderInput struct {
	UserID          uuid.UUID
	Email           string
	Phone           string
	Items           []OrderLineInput
	ShippingAddress *models.Address
	BillingAddress  *models.Address
	PaymentMethod   string
}

// PlaceOrder validates the cart against the catalog, computes totals and
// creates the order in PENDING state. Stock is decremented after the
// order is recorded; a failed decrement is logged, not fatal.
func (s *OrderService) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	logger := s.loggerFromContext(ctx)

	if len(input.Items) == 0 {
		return nil, validationErrorf("order must contain at least one item")
	}
	if input.Email == "" {
		return nil, validationErrorf("email is required")
	}
	if input.ShippingAddress == nil {
		return nil, validationErrorf("shipping address is required")
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, validationErrorf("quantity must be positive for product %s", line.ProductID)
		}

		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, validationErrorf("product %s not found", line.ProductID)
			}
			return nil, fmt.Errorf("failed to load product %s: %w", line.ProductID, err)
		}
		if product.Status != models.ProductActive {
			return nil, validationErrorf("product %q is not available", product.Name)
		}
		if product.Stock < line.Quantity {
			return nil, validationErrorf("insufficient stock for %q: %d available", product.Name, product.Stock)
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			Total:     lineTotal,
		})
	}

	shipping := shippingRate
	if subtotal.GreaterThanOrEqual(freeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(vatRate).Round(2)

	billing := input.BillingAddress
	if billing == nil {
		billing = input.ShippingAddress
	}
	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "card"
	}

	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     newOrderNumber(),
		UserID:          input.UserID,
		Email:           input.Email,
		Phone:           input.Phone,
		Status:          models.OrderPending,
		Subtotal:        subtotal,
		Shipping:        shipping,
		Tax:             tax,
		Total:           subtotal.Add(shipping).Add(tax),
		Currency:        "EUR",
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  billing,
		PaymentMethod:   paymentMethod,
		PaymentProvider: "paygreen",
		PaymentStatus:   models.PaymentPending,
		Items:           items,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range order.Items {
		if err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			logger.Warn("failed to decrement stock",
				slog.String("order_id", order.ID.String()),
				slog.String("product_id", item.ProductID.String()),
				slog.Int("quantity", item.Quantity),
				slog.String("error", err.Error()))
		}
	}

	logger.Info("order placed",
		slog.String("order_id", order.ID.String()),
		slog.String("order_number", order.OrderNumber),
		slog.String("total", order.Total.StringFixed(2)))

	return order, nil
}

// GetOrder returns an order. Non-admin callers only see their own orders.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, db.ErrNotFound
	}
	return order, nil
}

// GetOrderByPaymentOrderID resolves an order from its gateway payment
// order id, used by the checkout success page.
func (s *OrderService) GetOrderByPaymentOrderID(ctx context.Context, paymentOrderID string) (*models.Order, error) {
	if paymentOrderID == "" {
		return nil, validationErrorf("payment order id is required")
	}
	return s.orders.GetByPaymentOrderID(ctx, paymentOrderID)
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:9])
	return fmt.Sprintf("CBD-%d-%s", time.Now().UnixMilli(), suffix)
}
