package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/db"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/logging"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/paygreen"
)

type refundGateway interface {
	RefundPayment(ctx context.Context, transactionID string, amount *int64) (*paygreen.Transaction, error)
}

type refundOrderStore interface {
	GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	MarkRefunded(ctx context.Context, orderID uuid.UUID, partial bool) error
}

// RefundService coordinates refunds: gateway first, local order second,
// so a gateway rejection leaves the order untouched.
type RefundService struct {
	gateway refundGateway
	orders  refundOrderStore
	logger  *slog.Logger
}

func NewRefundService(gateway refundGateway, orders refundOrderStore, logger *slog.Logger) *RefundService {
	return &RefundService{
		gateway: gateway,
		orders:  orders,
		logger:  logger,
	}
}

// RefundInput describes a refund request. A nil Amount, or an Amount at
// or above the order total, means a full refund.
type RefundInput struct {
	OrderID uuid.UUID
	Amount  *decimal.Decimal
	Reason  string
}

// RefundResult reports what was refunded. AmountMinor is the refunded
// amount in minor units.
type RefundResult struct {
	Order       *models.Order
	Transaction *paygreen.Transaction
	Partial     bool
	AmountMinor int64
}

// Refund executes a refund against the gateway and records the outcome on
// the order.
func (s *RefundService) Refund(ctx context.Context, input RefundInput) (*RefundResult, error) {
	logger := logging.FromContext(ctx, s.logger)

	order, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", input.OrderID, err)
	}
	if order.PaymentOrderID == "" {
		return nil, validationErrorf("order %s has no payment to refund", order.OrderNumber)
	}
	if order.PaymentStatus != models.PaymentPaid {
		return nil, validationErrorf("order %s is not paid (payment status %s)", order.OrderNumber, order.PaymentStatus)
	}

	partial := false
	var gatewayAmount *int64
	refundedMinor := MinorUnits(order.Total)
	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return nil, validationErrorf("refund amount must be positive, got %s", input.Amount)
		}
		// An amount covering the whole total is treated as a full refund.
		if input.Amount.LessThan(order.Total) {
			partial = true
			minor := MinorUnits(*input.Amount)
			gatewayAmount = &minor
			refundedMinor = minor
		}
	}

	transaction, err := s.gateway.RefundPayment(ctx, order.PaymentOrderID, gatewayAmount)
	if err != nil {
		return nil, fmt.Errorf("gateway refused refund for order %s: %w", order.OrderNumber, err)
	}

	if err := s.orders.MarkRefunded(ctx, order.ID, partial); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			// The gateway accepted the refund but the order moved under us.
			// Surface it; the order needs manual review.
			return nil, fmt.Errorf("refund succeeded at gateway but order %s changed state: %w", order.OrderNumber, err)
		}
		return nil, fmt.Errorf("failed to record refund on order %s: %w", order.OrderNumber, err)
	}

	order.PaymentStatus = models.PaymentRefunded
	order.Status = models.OrderRefunded
	if partial {
		order.PaymentStatus = models.PaymentPartiallyRefunded
		order.Status = models.OrderPartiallyRefunded
	}

	logger.Info("refund processed",
		slog.String("order_id", order.ID.String()),
		slog.String("order_number", order.OrderNumber),
		slog.String("payment_order_id", order.PaymentOrderID),
		slog.Int64("amount", refundedMinor),
		slog.Bool("partial", partial),
		slog.String("reason", input.Reason))

	return &RefundResult{
		Order:       order,
		Transaction: transaction,
		Partial:     partial,
		AmountMinor: refundedMinor,
	}, nil
}
