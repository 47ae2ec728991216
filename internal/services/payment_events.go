package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/db"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/logging"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/paygreen"
)

type reconcilerOrderStore interface {
	GetByPaymentOrderID(ctx context.Context, paymentOrderID string) (*models.Order, error)
	MarkConfirmed(ctx context.Context, orderID uuid.UUID) error
	MarkPaymentFailed(ctx context.Context, orderID uuid.UUID) error
	MarkCancelled(ctx context.Context, orderID uuid.UUID) error
}

// PaymentEventService reconciles gateway payment outcomes onto local
// orders. Each handler is idempotent: replayed events and events racing a
// concurrent transition are logged and dropped.
type PaymentEventService struct {
	orders      reconcilerOrderStore
	emailSender OrderEmailSender
	logger      *slog.Logger
}

func NewPaymentEventService(orders reconcilerOrderStore, emailSender OrderEmailSender, logger *slog.Logger) *PaymentEventService {
	if emailSender == nil {
		emailSender = noopOrderEmailSender{}
	}
	return &PaymentEventService{
		orders:      orders,
		emailSender: emailSender,
		logger:      logger,
	}
}

func (s *PaymentEventService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// HandlePaymentSucceeded marks the order paid and sends the confirmation
// email. The email is best effort: a send failure never fails the event.
func (s *PaymentEventService) HandlePaymentSucceeded(ctx context.Context, paymentOrder paygreen.PaymentOrder) error {
	logger := s.loggerFromContext(ctx)

	order, ok, err := s.lookupOrder(ctx, paymentOrder.ID, "payment_order.success")
	if err != nil || !ok {
		return err
	}

	if err := s.orders.MarkConfirmed(ctx, order.ID); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			logger.Info("ignoring payment success due to order state",
				slog.String("order_id", order.ID.String()),
				slog.String("payment_status", string(order.PaymentStatus)))
			return nil
		}
		return fmt.Errorf("failed to confirm order %s: %w", order.ID, err)
	}

	logger.Info("order confirmed",
		slog.String("order_id", order.ID.String()),
		slog.String("order_number", order.OrderNumber),
		slog.String("payment_order_id", paymentOrder.ID))

	if err := s.emailSender.SendOrderConfirmation(ctx, order); err != nil {
		logger.Error("failed to send order confirmation email",
			slog.String("order_id", order.ID.String()),
			slog.String("error", err.Error()))
	}

	return nil
}

// HandlePaymentFailed marks the order failed.
func (s *PaymentEventService) HandlePaymentFailed(ctx context.Context, paymentOrder paygreen.PaymentOrder) error {
	logger := s.loggerFromContext(ctx)

	order, ok, err := s.lookupOrder(ctx, paymentOrder.ID, "payment_order.failed")
	if err != nil || !ok {
		return err
	}

	if err := s.orders.MarkPaymentFailed(ctx, order.ID); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			logger.Info("ignoring payment failure due to order state",
				slog.String("order_id", order.ID.String()),
				slog.String("payment_status", string(order.PaymentStatus)))
			return nil
		}
		return fmt.Errorf("failed to mark order %s failed: %w", order.ID, err)
	}

	logger.Info("order marked failed",
		slog.String("order_id", order.ID.String()),
		slog.String("payment_order_id", paymentOrder.ID))
	return nil
}

// HandlePaymentCancelled marks the order cancelled.
func (s *PaymentEventService) HandlePaymentCancelled(ctx context.Context, paymentOrder paygreen.PaymentOrder) error {
	logger := s.loggerFromContext(ctx)

	order, ok, err := s.lookupOrder(ctx, paymentOrder.ID, "payment_order.cancelled")
	if err != nil || !ok {
		return err
	}

	if err := s.orders.MarkCancelled(ctx, order.ID); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			logger.Info("ignoring payment cancellation due to order state",
				slog.String("order_id", order.ID.String()),
				slog.String("payment_status", string(order.PaymentStatus)))
			return nil
		}
		return fmt.Errorf("failed to cancel order %s: %w", order.ID, err)
	}

	logger.Info("order cancelled",
		slog.String("order_id", order.ID.String()),
		slog.String("payment_order_id", paymentOrder.ID))
	return nil
}

// lookupOrder resolves the local order for a gateway payment order id. An
// unknown id is not an error: the gateway may emit events for payment
// orders created outside this store, so they are logged and dropped.
func (s *PaymentEventService) lookupOrder(ctx context.Context, paymentOrderID, eventType string) (*models.Order, bool, error) {
	logger := s.loggerFromContext(ctx)

	order, err := s.orders.GetByPaymentOrderID(ctx, paymentOrderID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			logger.Warn("no order for payment order, dropping event",
				slog.String("payment_order_id", paymentOrderID),
				slog.String("event_type", eventType))
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to look up order for payment order %s: %w", paymentOrderID, err)
	}
	return order, true, nil
}
