package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"checkout/pkg/auth"
	"checkout/pkg/domain/model"
	"checkout/pkg/domain/service"
	"checkout/pkg/notifier"
)

type Server struct {
	orders   service.OrderService
	payments service.PaymentService
	tokens   *auth.TokenManager
	outcomes *notifier.Publisher
}

func NewServer(orders service.OrderService, payments service.PaymentService, tokens *auth.TokenManager, outcomes *notifier.Publisher) *Server {
	return &Server{orders: orders, payments: payments, tokens: tokens, outcomes: outcomes}
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/").Subrouter()
	api.Use(s.authMiddleware)
	api.HandleFunc("/create-order", s.createOrder).Methods(http.MethodPost)
	api.HandleFunc("/verify-payment", s.verifyPayment).Methods(http.MethodPost)
	api.HandleFunc("/payment-dismissed", s.paymentDismissed).Methods(http.MethodPost)

	return logMiddleware(r)
}

type contextKey string

const ownerContextKey contextKey = "owner"

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeError(w, service.ErrUnauthenticated)
			return
		}
		ownerID, err := s.tokens.Parse(token)
		if err != nil {
			log.WithError(err).Warn("bearer token rejected")
			writeError(w, service.ErrUnauthenticated)
			return
		}
		ctx := context.WithValue(r.Context(), ownerContextKey, ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ownerFrom(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(ownerContextKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

type createOrderRequest struct {
	Amount          float64        `json:"amount"`
	Items           []model.Item   `json:"items"`
	DeliveryAddress *model.Address `json:"deliveryAddress"`
}

type createOrderResponse struct {
	OrderID   string `json:"orderId"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	KeyID     string `json:"keyId"`
	OrderDbID string `json:"orderDbId"`
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid request body"})
		return
	}

	intent, err := s.orders.CreateOrder(r.Context(), ownerFrom(r.Context()), service.CreateOrderRequest{
		Amount:  req.Amount,
		Items:   req.Items,
		Address: req.DeliveryAddress,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	ordersCreatedTotal.Inc()
	writeJSON(w, http.StatusOK, createOrderResponse{
		OrderID:   intent.GatewayOrderID,
		Amount:    intent.AmountCents,
		Currency:  intent.Currency,
		KeyID:     intent.KeyID,
		OrderDbID: intent.OrderID.String(),
	})
}

type verifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	// OrderID echoes the capability token; used as the fallback order id in
	// the published outcome when verification did not produce one.
	OrderID string `json:"orderId,omitempty"`
}

type verifyPaymentResponse struct {
	Success bool         `json:"success"`
	Order   orderPayload `json:"order"`
	Message string       `json:"message"`
}

func (s *Server) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVerifyError(w, model.ErrMissingPaymentFields)
		return
	}

	order, err := s.payments.ConfirmPayment(r.Context(), ownerFrom(r.Context()), service.VerifyPaymentRequest{
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
		Signature:        req.RazorpaySignature,
	})
	if err != nil {
		verificationsTotal.WithLabelValues("rejected").Inc()
		s.announceFailure(r.Context(), req.OrderID, req.RazorpayOrderID, req.RazorpayPaymentID)
		writeVerifyError(w, err)
		return
	}

	verificationsTotal.WithLabelValues("captured").Inc()
	if s.outcomes != nil {
		if err := s.outcomes.AnnounceSuccess(r.Context(), order.ID.String(), req.OrderID, order.GatewayOrderID, order.GatewayPaymentID); err != nil {
			log.WithError(err).Error("failed to announce payment outcome")
		}
	}

	writeJSON(w, http.StatusOK, verifyPaymentResponse{
		Success: true,
		Order:   toOrderPayload(order),
		Message: "payment verified",
	})
}

type paymentDismissedRequest struct {
	OrderID         string `json:"orderId"`
	RazorpayOrderID string `json:"razorpay_order_id"`
}

// paymentDismissed records a terminal failure for a widget the user closed
// (or that never loaded). The outcome still carries the full field set so
// the watching context resumes instead of waiting forever.
func (s *Server) paymentDismissed(w http.ResponseWriter, r *http.Request) {
	var req paymentDismissedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid request body", "success": false})
		return
	}

	verificationsTotal.WithLabelValues("dismissed").Inc()
	s.announceFailure(r.Context(), req.OrderID, req.RazorpayOrderID, "")
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": false, "message": "payment dismissed"})
}

func (s *Server) announceFailure(ctx context.Context, orderID, gatewayOrderID, gatewayPaymentID string) {
	if s.outcomes == nil {
		return
	}
	if err := s.outcomes.AnnounceFailure(ctx, orderID, gatewayOrderID, gatewayPaymentID); err != nil {
		log.WithError(err).Error("failed to announce payment outcome")
	}
}

type orderPayload struct {
	ID               string        `json:"id"`
	Owner            string        `json:"owner"`
	GatewayOrderID   string        `json:"gateway_order_id"`
	GatewayPaymentID string        `json:"gateway_payment_id,omitempty"`
	AmountCents      int64         `json:"amount_minor_units"`
	Items            []model.Item  `json:"items"`
	DeliveryAddress  model.Address `json:"delivery_address"`
	Status           string        `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func toOrderPayload(order *model.Order) orderPayload {
	return orderPayload{
		ID:               order.ID.String(),
		Owner:            order.OwnerID.String(),
		GatewayOrderID:   order.GatewayOrderID,
		GatewayPaymentID: order.GatewayPaymentID,
		AmountCents:      order.AmountCents,
		Items:            order.Items,
		DeliveryAddress:  order.Address,
		Status:           string(order.Status),
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
}

func logMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithFields(log.Fields{
			"method":     r.Method,
			"url":        r.URL,
			"remoteAddr": r.RemoteAddr,
			"userAgent":  r.UserAgent(),
		}).Info("got a new request")
		h.ServeHTTP(w, r)
	})
}
