package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder(t *testing.T) {
	var got orderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "rzp_test_secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(orderResponse{
			ID:       "order_remote1",
			Amount:   got.Amount,
			Currency: got.Currency,
			Receipt:  got.Receipt,
			Status:   "created",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "rzp_test_key", "rzp_test_secret")
	order, err := client.CreateOrder(context.Background(), 1999, "INR", "rcpt_1")

	require.NoError(t, err)
	assert.Equal(t, "order_remote1", order.ID)
	assert.Equal(t, int64(1999), order.AmountCents)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, orderRequest{Amount: 1999, Currency: "INR", Receipt: "rcpt_1"}, got)
}

func TestCreateOrder_GatewayRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"description":"authentication failed"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "bad", "creds")
	_, err := client.CreateOrder(context.Background(), 1999, "INR", "rcpt_1")

	assert.True(t, errors.Is(err, ErrGateway))
}

func TestCreateOrder_GatewayUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, "rzp_test_key", "rzp_test_secret")
	_, err := client.CreateOrder(context.Background(), 1999, "INR", "rcpt_1")

	assert.True(t, errors.Is(err, ErrGateway))
}
