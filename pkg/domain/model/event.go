package model

import "github.com/google/uuid"

type OrderCreated struct {
	OrderID        uuid.UUID
	OwnerID        uuid.UUID
	GatewayOrderID string
	AmountCents    int64
}

func (e OrderCreated) Type() string { return "OrderCreated" }

type PaymentCaptured struct {
	OrderID          uuid.UUID
	OwnerID          uuid.UUID
	GatewayOrderID   string
	GatewayPaymentID string
	AmountCents      int64
}

func (e PaymentCaptured) Type() string { return "PaymentCaptured" }

type PaymentRejected struct {
	GatewayOrderID string
	Reason         string
}

func (e PaymentRejected) Type() string { return "PaymentRejected" }
