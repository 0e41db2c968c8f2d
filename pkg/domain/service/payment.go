package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"checkout/pkg/domain/model"
)

type VerifyPaymentRequest struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

type PaymentService interface {
	// ConfirmPayment transitions the matching order from pending to paid
	// exactly once. A repeated call with the same payload, or a call on
	// behalf of the wrong owner, reports model.ErrOrderNotFound.
	ConfirmPayment(ctx context.Context, ownerID uuid.UUID, req VerifyPaymentRequest) (*model.Order, error)
}

func NewPaymentService(repo model.OrderRepository, dispatcher EventDispatcher, secret string) PaymentService {
	return &paymentService{repo: repo, dispatcher: dispatcher, secret: secret}
}

type paymentService struct {
	repo       model.OrderRepository
	dispatcher EventDispatcher
	secret     string
}

func (s *paymentService) ConfirmPayment(ctx context.Context, ownerID uuid.UUID, req VerifyPaymentRequest) (*model.Order, error) {
	if ownerID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		return nil, model.ErrMissingPaymentFields
	}
	if s.secret == "" {
		return nil, ErrSecretNotConfigured
	}

	if !VerifySignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature, s.secret) {
		// Potential fraud signal, kept distinguishable from ordinary
		// validation noise. Storage is not touched.
		log.WithFields(log.Fields{
			"gateway_order_id": req.GatewayOrderID,
			"owner_id":         ownerID,
			"security":         "signature_mismatch",
		}).Warn("payment signature rejected")
		_ = s.dispatcher.Dispatch(model.PaymentRejected{
			GatewayOrderID: req.GatewayOrderID,
			Reason:         ErrSignatureMismatch.Error(),
		})
		return nil, ErrSignatureMismatch
	}

	// The conditional update is the idempotency and authorization boundary:
	// it matches only a pending order owned by the caller.
	order, err := s.repo.MarkPaid(ctx, req.GatewayOrderID, ownerID, req.GatewayPaymentID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	_ = s.dispatcher.Dispatch(model.PaymentCaptured{
		OrderID:          order.ID,
		OwnerID:          order.OwnerID,
		GatewayOrderID:   order.GatewayOrderID,
		GatewayPaymentID: order.GatewayPaymentID,
		AmountCents:      order.AmountCents,
	})
	return order, nil
}
