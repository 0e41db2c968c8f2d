package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"checkout/pkg/domain/model"
)

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

type OrderRepository struct {
	db *sqlx.DB
}

type orderRow struct {
	ID               string         `db:"id"`
	OwnerID          string         `db:"owner_id"`
	GatewayOrderID   string         `db:"gateway_order_id"`
	GatewayPaymentID sql.NullString `db:"gateway_payment_id"`
	AmountCents      int64          `db:"amount_cents"`
	Items            []byte         `db:"items_snapshot"`
	Address          []byte         `db:"delivery_address"`
	Status           string         `db:"status"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r *OrderRepository) NextID() (uuid.UUID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "generate order id")
	}
	return id, nil
}

func (r *OrderRepository) Create(ctx context.Context, order *model.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return errors.Wrap(err, "encode items snapshot")
	}
	address, err := json.Marshal(order.Address)
	if err != nil {
		return errors.Wrap(err, "encode delivery address")
	}

	const query = `
		INSERT INTO orders
			(id, owner_id, gateway_order_id, amount_cents, items_snapshot, delivery_address, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		order.ID.String(),
		order.OwnerID.String(),
		order.GatewayOrderID,
		order.AmountCents,
		items,
		address,
		string(order.Status),
		order.CreatedAt,
		order.UpdatedAt,
	)
	return errors.Wrap(err, "insert order")
}

func (r *OrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.Order, error) {
	const query = `
		SELECT id, owner_id, gateway_order_id, gateway_payment_id, amount_cents,
		       items_snapshot, delivery_address, status, created_at, updated_at
		FROM orders
		WHERE gateway_order_id = ?`

	var row orderRow
	if err := r.db.GetContext(ctx, &row, query, gatewayOrderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "select order")
	}
	return row.toOrder()
}

// MarkPaid issues the conditional compare-and-set transition. Matching on
// gateway order id, owner and the pending status in one UPDATE makes a
// second identical call, or a call by the wrong owner, match zero rows.
func (r *OrderRepository) MarkPaid(ctx context.Context, gatewayOrderID string, ownerID uuid.UUID, gatewayPaymentID string, paidAt time.Time) (*model.Order, error) {
	const query = `
		UPDATE orders
		SET gateway_payment_id = ?, status = ?, updated_at = ?
		WHERE gateway_order_id = ? AND owner_id = ? AND status = ?`

	res, err := r.db.ExecContext(ctx, query,
		gatewayPaymentID,
		string(model.Paid),
		paidAt,
		gatewayOrderID,
		ownerID.String(),
		string(model.Pending),
	)
	if err != nil {
		return nil, errors.Wrap(err, "update order")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "update order")
	}
	if affected == 0 {
		return nil, model.ErrOrderNotFound
	}
	return r.FindByGatewayOrderID(ctx, gatewayOrderID)
}

func (row orderRow) toOrder() (*model.Order, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "parse order id")
	}
	ownerID, err := uuid.Parse(row.OwnerID)
	if err != nil {
		return nil, errors.Wrap(err, "parse owner id")
	}

	var items []model.Item
	if err := json.Unmarshal(row.Items, &items); err != nil {
		return nil, errors.Wrap(err, "decode items snapshot")
	}
	var address model.Address
	if err := json.Unmarshal(row.Address, &address); err != nil {
		return nil, errors.Wrap(err, "decode delivery address")
	}

	return &model.Order{
		ID:               id,
		OwnerID:          ownerID,
		GatewayOrderID:   row.GatewayOrderID,
		GatewayPaymentID: row.GatewayPaymentID.String,
		AmountCents:      row.AmountCents,
		Items:            items,
		Address:          address,
		Status:           model.Status(row.Status),
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}, nil
}
