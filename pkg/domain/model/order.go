package model

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound        = errors.New("no matching pending order")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrEmptyItems           = errors.New("order must contain at least one item")
	ErrMissingAddress       = errors.New("delivery address is required")
	ErrMissingPaymentFields = errors.New("order id, payment id and signature are required")
)

type Status string

const (
	Pending   Status = "pending"
	Paid      Status = "paid"
	Failed    Status = "failed"
	Cancelled Status = "cancelled"
)

// Item is a line captured into the order snapshot at creation time. The
// snapshot is never re-derived from a live cart, so the paid amount always
// matches what the buyer saw.
type Item struct {
	ProductID  string `json:"id"`
	Name       string `json:"name,omitempty"`
	Quantity   int    `json:"qty"`
	PriceCents int64  `json:"price,omitempty"`
}

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone,omitempty"`
}

// Order is the aggregate tracked by this subsystem. Status only ever
// advances from Pending to exactly one terminal value; GatewayPaymentID is
// set if and only if the order is Paid.
type Order struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID
	GatewayOrderID   string
	GatewayPaymentID string
	AmountCents      int64
	Items            []Item
	Address          Address
	Status           Status
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type OrderRepository interface {
	NextID() (uuid.UUID, error)

	Create(ctx context.Context, order *Order) error
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error)

	// MarkPaid finalizes the order identified by the gateway order id while
	// it is still pending and owned by ownerID, setting the payment id and
	// the paid status in a single conditional update. It returns
	// ErrOrderNotFound when no row matched: unknown order, wrong owner, or
	// an order already finalized.
	MarkPaid(ctx context.Context, gatewayOrderID string, ownerID uuid.UUID, gatewayPaymentID string, paidAt time.Time) (*Order, error)
}
