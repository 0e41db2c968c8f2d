package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"checkout/pkg/domain/model"
)

var (
	ErrUnauthenticated     = errors.New("caller is not authenticated")
	ErrSignatureMismatch   = errors.New("payment signature mismatch")
	ErrSecretNotConfigured = errors.New("payment secret is not configured")
)

type Event interface {
	Type() string
}

type EventDispatcher interface {
	Dispatch(event Event) error
}

// GatewayOrder is the provisional transaction record created on the external
// payment provider before the buyer pays.
type GatewayOrder struct {
	ID          string
	AmountCents int64
	Currency    string
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountCents int64, currency, receipt string) (*GatewayOrder, error)
}

type CreateOrderRequest struct {
	Amount  float64 // major currency units, as quoted to the buyer
	Items   []model.Item
	Address *model.Address
}

// CheckoutIntent is the capability token returned to the client. It carries
// everything needed to open the payment widget and nothing secret.
type CheckoutIntent struct {
	GatewayOrderID string
	AmountCents    int64
	Currency       string
	KeyID          string
	OrderID        uuid.UUID
}

type OrderService interface {
	CreateOrder(ctx context.Context, ownerID uuid.UUID, req CreateOrderRequest) (*CheckoutIntent, error)
}

func NewOrderService(repo model.OrderRepository, gateway PaymentGateway, dispatcher EventDispatcher, keyID, currency string) OrderService {
	return &orderService{repo: repo, gateway: gateway, dispatcher: dispatcher, keyID: keyID, currency: currency}
}

type orderService struct {
	repo       model.OrderRepository
	gateway    PaymentGateway
	dispatcher EventDispatcher
	keyID      string
	currency   string
}

func (s *orderService) CreateOrder(ctx context.Context, ownerID uuid.UUID, req CreateOrderRequest) (*CheckoutIntent, error) {
	if ownerID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if req.Amount <= 0 {
		return nil, model.ErrInvalidAmount
	}
	if len(req.Items) == 0 {
		return nil, model.ErrEmptyItems
	}
	if req.Address == nil {
		return nil, model.ErrMissingAddress
	}

	// The gateway and the store only ever see integer minor units.
	amountCents := int64(math.Round(req.Amount * 100))

	gatewayOrder, err := s.gateway.CreateOrder(ctx, amountCents, s.currency, newReceipt(ownerID))
	if err != nil {
		return nil, err
	}

	orderID, err := s.repo.NextID()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	order := &model.Order{
		ID:             orderID,
		OwnerID:        ownerID,
		GatewayOrderID: gatewayOrder.ID,
		AmountCents:    amountCents,
		Items:          req.Items,
		Address:        *req.Address,
		Status:         model.Pending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		// The remote order already exists and has no local counterpart now.
		// It is orphaned until out-of-band reconciliation picks it up.
		log.WithError(err).WithFields(log.Fields{
			"gateway_order_id": gatewayOrder.ID,
			"owner_id":         ownerID,
			"amount_cents":     amountCents,
		}).Error("order persistence failed after gateway order was created")
		return nil, err
	}

	_ = s.dispatcher.Dispatch(model.OrderCreated{
		OrderID:        orderID,
		OwnerID:        ownerID,
		GatewayOrderID: gatewayOrder.ID,
		AmountCents:    amountCents,
	})

	return &CheckoutIntent{
		GatewayOrderID: gatewayOrder.ID,
		AmountCents:    amountCents,
		Currency:       gatewayOrder.Currency,
		KeyID:          s.keyID,
		OrderID:        orderID,
	}, nil
}

// newReceipt tags the remote order with a string unique per request. It is
// collision-improbable, not globally unique.
func newReceipt(ownerID uuid.UUID) string {
	return fmt.Sprintf("rcpt_%d_%.8s", time.Now().UnixMilli(), ownerID.String())
}
