package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/logging"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
)

// statusPairs maps each customer-facing status to the payment status
// written alongside it. The two fields always change together.
var statusPairs = map[models.OrderStatus]models.PaymentStatus{
	models.OrderPending:           models.PaymentPending,
	models.OrderConfirmed:         models.PaymentPaid,
	models.OrderFailed:            models.PaymentFailed,
	models.OrderCancelled:         models.PaymentCancelled,
	models.OrderRefunded:          models.PaymentRefunded,
	models.OrderPartiallyRefunded: models.PaymentPartiallyRefunded,
}

type adminOrderStore interface {
	ListAll(ctx context.Context, limit int) ([]*models.Order, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateStatusPair(ctx context.Context, orderID uuid.UUID, status models.OrderStatus, paymentStatus models.PaymentStatus) error
	CountAll(ctx context.Context) (int64, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
}

type adminUserStore interface {
	List(ctx context.Context) ([]*models.User, error)
	CountAll(ctx context.Context) (int64, error)
}

type adminProductStore interface {
	CountAll(ctx context.Context) (int64, error)
}

// AdminService backs the back-office: order management, user listing and
// dashboard stats.
type AdminService struct {
	orders   adminOrderStore
	users    adminUserStore
	products adminProductStore
	logger   *slog.Logger
}

func NewAdminService(orders adminOrderStore, users adminUserStore, products adminProductStore, logger *slog.Logger) *AdminService {
	return &AdminService{
		orders:   orders,
		users:    users,
		products: products,
		logger:   logger,
	}
}

func (s *AdminService) ListOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	return s.orders.ListAll(ctx, limit)
}

// UpdateOrderStatus sets an order's status from the back office. The
// paired payment status is derived, never supplied by the caller.
func (s *AdminService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	paymentStatus, ok := statusPairs[status]
	if !ok {
		return nil, validationErrorf("unknown order status %q", status)
	}

	if err := s.orders.UpdateStatusPair(ctx, orderID, status, paymentStatus); err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", orderID, err)
	}

	logging.FromContext(ctx, s.logger).Info("order status updated",
		slog.String("order_id", orderID.String()),
		slog.String("status", string(status)))

	return s.orders.GetByID(ctx, orderID)
}

func (s *AdminService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.List(ctx)
}

// Stats is the admin dashboard summary. Revenue covers paid and
// partially refunded orders.
type Stats struct {
	Orders   int64           `json:"orders"`
	Products int64           `json:"products"`
	Users    int64           `json:"users"`
	Revenue  decimal.Decimal `json:"revenue"`
}

func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	orders, err := s.orders.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	products, err := s.products.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	users, err := s.users.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	revenue, err := s.orders.Revenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute revenue: %w", err)
	}

	return &Stats{
		Orders:   orders,
		Products: products,
		Users:    users,
		Revenue:  revenue,
	}, nil
}
