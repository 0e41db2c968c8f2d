package tests

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"checkout/pkg/domain/model"
	"checkout/pkg/domain/service"
)

// --- Mocks ---

type mockOrderRepository struct {
	store         map[string]*model.Order // keyed by gateway order id
	createErr     error
	markPaidCalls int
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{store: make(map[string]*model.Order)}
}

func (m *mockOrderRepository) NextID() (uuid.UUID, error) {
	return uuid.New(), nil
}

func (m *mockOrderRepository) Create(_ context.Context, order *model.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	val := *order
	m.store[order.GatewayOrderID] = &val
	return nil
}

func (m *mockOrderRepository) FindByGatewayOrderID(_ context.Context, gatewayOrderID string) (*model.Order, error) {
	order, ok := m.store[gatewayOrderID]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	val := *order
	return &val, nil
}

func (m *mockOrderRepository) MarkPaid(_ context.Context, gatewayOrderID string, ownerID uuid.UUID, gatewayPaymentID string, paidAt time.Time) (*model.Order, error) {
	m.markPaidCalls++
	order, ok := m.store[gatewayOrderID]
	if !ok || order.OwnerID != ownerID || order.Status != model.Pending {
		return nil, model.ErrOrderNotFound
	}
	order.GatewayPaymentID = gatewayPaymentID
	order.Status = model.Paid
	order.UpdatedAt = paidAt
	val := *order
	return &val, nil
}

type mockGateway struct {
	err      error
	calls    int
	receipts []string
}

func (g *mockGateway) CreateOrder(_ context.Context, amountCents int64, currency, receipt string) (*service.GatewayOrder, error) {
	g.calls++
	g.receipts = append(g.receipts, receipt)
	if g.err != nil {
		return nil, g.err
	}
	return &service.GatewayOrder{
		ID:          fmt.Sprintf("order_mock%d", g.calls),
		AmountCents: amountCents,
		Currency:    currency,
	}, nil
}

type mockEventDispatcher struct {
	events []service.Event
}

func (m *mockEventDispatcher) Dispatch(event service.Event) error {
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventDispatcher) Reset() {
	m.events = nil
}
