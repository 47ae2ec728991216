package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/db"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/logging"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/paygreen"
)

type checkoutGateway interface {
	CreatePaymentOrder(ctx context.Context, params paygreen.CreatePaymentOrderParams) (*paygreen.PaymentOrder, error)
	GetPaymentOrder(ctx context.Context, paymentOrderID string) (*paygreen.PaymentOrder, error)
}

type checkoutOrderStore interface {
	SetPaymentOrder(ctx context.Context, orderID uuid.UUID, paymentOrderID string) error
}

// CheckoutService creates hosted payment orders at the gateway and binds
// them to local orders.
type CheckoutService struct {
	gateway checkoutGateway
	orders  checkoutOrderStore
	siteURL string
	logger  *slog.Logger
}

func NewCheckoutService(gateway checkoutGateway, orders checkoutOrderStore, siteURL string, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		gateway: gateway,
		orders:  orders,
		siteURL: strings.TrimSuffix(siteURL, "/"),
		logger:  logger,
	}
}

func (s *CheckoutService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// CreatePaymentInput describes a checkout attempt. Amount is in major
// units (euros). OrderID is optional; when set, the created payment order
// id is recorded on that local order.
type CreatePaymentInput struct {
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	OrderID       uuid.UUID
}

// CreatePayment creates a payment order at the gateway and returns the
// hosted page the customer should be redirected to. Payments are captured
// immediately and cannot be split.
func (s *CheckoutService) CreatePayment(ctx context.Context, input CreatePaymentInput) (*paygreen.PaymentOrder, error) {
	logger := s.loggerFromContext(ctx)

	if !input.Amount.IsPositive() {
		return nil, validationErrorf("amount must be positive, got %s", input.Amount)
	}

	paymentOrder, err := s.gateway.CreatePaymentOrder(ctx, paygreen.CreatePaymentOrderParams{
		Amount:            MinorUnits(input.Amount),
		Currency:          input.Currency,
		CustomerEmail:     input.CustomerEmail,
		ReturnURL:         s.siteURL + "/checkout/success",
		CancelURL:         s.siteURL + "/checkout/cancel",
		AutoCapture:       true,
		MerchantInitiated: false,
		Mode:              "instant",
		PartialAllowed:    false,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("created payment order",
		slog.String("payment_order_id", paymentOrder.ID),
		slog.Int64("amount", paymentOrder.Amount))

	if input.OrderID != uuid.Nil {
		if err := s.orders.SetPaymentOrder(ctx, input.OrderID, paymentOrder.ID); err != nil {
			if errors.Is(err, db.ErrPaymentOrderAlreadySet) {
				return nil, fmt.Errorf("order %s already has a payment order: %w", input.OrderID, err)
			}
			return nil, fmt.Errorf("failed to attach payment order to order %s: %w", input.OrderID, err)
		}
	}

	return paymentOrder, nil
}

// GetPayment fetches the gateway-side state of a payment order.
func (s *CheckoutService) GetPayment(ctx context.Context, paymentOrderID string) (*paygreen.PaymentOrder, error) {
	if paymentOrderID == "" {
		return nil, validationErrorf("payment order id is required")
	}
	return s.gateway.GetPaymentOrder(ctx, paymentOrderID)
}
