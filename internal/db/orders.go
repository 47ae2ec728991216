package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
)

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderColumns = `
	id, order_number, user_id, email, phone, status,
	subtotal::text, shipping::text, tax::text, total::text, currency,
	shipping_address, billing_address,
	payment_method, payment_provider, payment_status, payment_order_id,
	created_at, updated_at`

// Create persists an order together with its line items in one
// transaction. Line items are immutable once written.
func (s *OrderStore) Create(ctx context.Context, order *models.Order) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	shippingJSON, billingJSON, err := encodeAddresses(order)
	if err != nil {
		return err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO orders (
			id, order_number, user_id, email, phone, status,
			subtotal, shipping, tax, total, currency,
			shipping_address, billing_address,
			payment_method, payment_provider, payment_status,
			created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,NOW(),NOW())
		RETURNING created_at, updated_at
	`,
		order.ID, order.OrderNumber, order.UserID, order.Email, order.Phone, order.Status,
		order.Subtotal.String(), order.Shipping.String(), order.Tax.String(), order.Total.String(), order.Currency,
		shippingJSON, billingJSON,
		order.PaymentMethod, order.PaymentProvider, order.PaymentStatus,
	)
	if err := row.Scan(&order.CreatedAt, &order.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, line_total)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice.String(), item.Total.String()); err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *OrderStore) GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetByPaymentOrderID looks up the order holding the given external
// payment order id. Exactly one match is expected.
func (s *OrderStore) GetByPaymentOrderID(ctx context.Context, paymentOrderID string) (*models.Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_order_id = $1`, paymentOrderID)
	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return s.collectOrders(ctx, rows)
}

func (s *OrderStore) ListAll(ctx context.Context, limit int) ([]*models.Order, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return s.collectOrders(ctx, rows)
}

// SetPaymentOrder attaches the external payment order id to an order.
// The id is write-once: a second attempt fails instead of overwriting.
func (s *OrderStore) SetPaymentOrder(ctx context.Context, orderID uuid.UUID, paymentOrderID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET payment_order_id = $2, payment_provider = 'paygreen', updated_at = NOW()
		WHERE id = $1 AND payment_order_id IS NULL
	`, orderID, paymentOrderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var existing pgtype.Text
	err = s.pool.QueryRow(ctx, `SELECT payment_order_id FROM orders WHERE id = $1`, orderID).Scan(&existing)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: order %s already holds %s", ErrPaymentOrderAlreadySet, orderID, existing.String)
}

// MarkConfirmed applies the payment_order.success transition. The guard
// on payment_status makes duplicate webhook deliveries no-ops.
func (s *OrderStore) MarkConfirmed(ctx context.Context, orderID uuid.UUID) error {
	return s.transition(ctx, orderID, models.OrderConfirmed, models.PaymentPaid, models.PaymentPending)
}

// MarkPaymentFailed applies the payment_order.failed transition.
func (s *OrderStore) MarkPaymentFailed(ctx context.Context, orderID uuid.UUID) error {
	return s.transition(ctx, orderID, models.OrderFailed, models.PaymentFailed, models.PaymentPending)
}

// MarkCancelled applies the payment_order.cancelled transition.
func (s *OrderStore) MarkCancelled(ctx context.Context, orderID uuid.UUID) error {
	return s.transition(ctx, orderID, models.OrderCancelled, models.PaymentCancelled, models.PaymentPending)
}

// MarkRefunded records a refund outcome. Only PAID orders can move to a
// refunded state; the refund flow verifies that before calling the
// gateway and this guard backstops the race with a late webhook.
func (s *OrderStore) MarkRefunded(ctx context.Context, orderID uuid.UUID, partial bool) error {
	status, paymentStatus := models.OrderRefunded, models.PaymentRefunded
	if partial {
		status, paymentStatus = models.OrderPartiallyRefunded, models.PaymentPartiallyRefunded
	}
	return s.transition(ctx, orderID, status, paymentStatus, models.PaymentPaid)
}

// UpdateStatusPair sets both status fields unconditionally. Reserved for
// the admin back-office; the webhook and refund paths use the guarded
// transitions above.
func (s *OrderStore) UpdateStatusPair(ctx context.Context, orderID uuid.UUID, status models.OrderStatus, paymentStatus models.PaymentStatus) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET status = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $1
	`, orderID, status, paymentStatus)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *OrderStore) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count)
	return count, err
}

// Revenue sums the totals of orders whose payment completed, including
// partially refunded ones.
func (s *OrderStore) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var raw string
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0)::text FROM orders
		WHERE payment_status IN ('PAID', 'PARTIALLY_REFUNDED')
	`).Scan(&raw)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

func (s *OrderStore) transition(ctx context.Context, orderID uuid.UUID, status models.OrderStatus, paymentStatus models.PaymentStatus, allowedFrom ...models.PaymentStatus) error {
	from := make([]string, len(allowedFrom))
	for i, ps := range allowedFrom {
		from[i] = string(ps)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET status = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $1 AND payment_status = ANY($4)
	`, orderID, status, paymentStatus, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected payment status in %v", ErrInvalidStatusTransition, from)
	}
	return nil
}

func (s *OrderStore) collectOrders(ctx context.Context, rows pgx.Rows) ([]*models.Order, error) {
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		if err := s.loadItems(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *OrderStore) loadItems(ctx context.Context, order *models.Order) error {
	rows, err := s.pool.Query(ctx, `
		SELECT i.id, i.order_id, i.product_id, i.quantity, i.unit_price::text, i.line_total::text,
		       p.name, p.slug, p.images
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY i.id
	`, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		var unitPrice, lineTotal, productName, productSlug string
		var images []byte
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &unitPrice, &lineTotal,
			&productName, &productSlug, &images); err != nil {
			return err
		}
		if item.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return fmt.Errorf("invalid unit price for item %s: %w", item.ID, err)
		}
		if item.Total, err = decimal.NewFromString(lineTotal); err != nil {
			return fmt.Errorf("invalid line total for item %s: %w", item.ID, err)
		}

		product := &models.Product{ID: item.ProductID, Name: productName, Slug: productSlug}
		if len(images) > 0 {
			if err := json.Unmarshal(images, &product.Images); err != nil {
				return fmt.Errorf("invalid images for product %s: %w", item.ProductID, err)
			}
		}
		item.Product = product
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	order.Items = items
	return nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var order models.Order
	var subtotal, shipping, tax, total string
	var shippingAddress, billingAddress []byte
	var paymentOrderID pgtype.Text

	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.UserID, &order.Email, &order.Phone, &order.Status,
		&subtotal, &shipping, &tax, &total, &order.Currency,
		&shippingAddress, &billingAddress,
		&order.PaymentMethod, &order.PaymentProvider, &order.PaymentStatus, &paymentOrderID,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if order.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, fmt.Errorf("invalid subtotal: %w", err)
	}
	if order.Shipping, err = decimal.NewFromString(shipping); err != nil {
		return nil, fmt.Errorf("invalid shipping: %w", err)
	}
	if order.Tax, err = decimal.NewFromString(tax); err != nil {
		return nil, fmt.Errorf("invalid tax: %w", err)
	}
	if order.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("invalid total: %w", err)
	}

	if paymentOrderID.Valid {
		order.PaymentOrderID = paymentOrderID.String
	}

	// Addresses are stored as JSON text and decoded back on every read.
	if len(shippingAddress) > 0 {
		order.ShippingAddress = &models.Address{}
		if err := json.Unmarshal(shippingAddress, order.ShippingAddress); err != nil {
			return nil, fmt.Errorf("invalid shipping address: %w", err)
		}
	}
	if len(billingAddress) > 0 {
		order.BillingAddress = &models.Address{}
		if err := json.Unmarshal(billingAddress, order.BillingAddress); err != nil {
			return nil, fmt.Errorf("invalid billing address: %w", err)
		}
	}

	return &order, nil
}

func encodeAddresses(order *models.Order) ([]byte, []byte, error) {
	var shippingJSON, billingJSON []byte
	var err error

	if order.ShippingAddress != nil {
		if shippingJSON, err = json.Marshal(order.ShippingAddress); err != nil {
			return nil, nil, fmt.Errorf("failed to encode shipping address: %w", err)
		}
	}
	if order.BillingAddress != nil {
		if billingJSON, err = json.Marshal(order.BillingAddress); err != nil {
			return nil, nil, fmt.Errorf("failed to encode billing address: %w", err)
		}
	}
	return shippingJSON, billingJSON, nil
}
