package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the customer-facing order state.
type OrderStatus string

const (
	OrderPending           OrderStatus = "PENDING"
	OrderConfirmed         OrderStatus = "CONFIRMED"
	OrderFailed            OrderStatus = "FAILED"
	OrderCancelled         OrderStatus = "CANCELLED"
	OrderRefunded          OrderStatus = "REFUNDED"
	OrderPartiallyRefunded OrderStatus = "PARTIALLY_REFUNDED"
)

// PaymentStatus tracks the payment leg of an order. It moves in lockstep
// with OrderStatus: every transition writes both fields as a pair.
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "PENDING"
	PaymentPaid              PaymentStatus = "PAID"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentCancelled         PaymentStatus = "CANCELLED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

// Address is a structured postal record. It is persisted as JSON text and
// decoded back into this shape on read.
type Address struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type Order struct {
	ID          uuid.UUID   `json:"id"`
	OrderNumber string      `json:"orderNumber"`
	UserID      uuid.UUID   `json:"userId"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	Status      OrderStatus `json:"status"`

	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`

	ShippingAddress *Address `json:"shippingAddress"`
	BillingAddress  *Address `json:"billingAddress,omitempty"`

	PaymentMethod   string        `json:"paymentMethod"`
	PaymentProvider string        `json:"paymentProvider"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	// PaymentOrderID is the gateway-side payment order id. Empty until
	// checkout creates the hosted payment order, immutable afterwards.
	PaymentOrderID string `json:"paymentId,omitempty"`

	Items []OrderItem `json:"items,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrderItem is a single line of an order. Lines are read-only once the
// order is placed.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"orderId"`
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`

	Product *Product `json:"product,omitempty"`
}
