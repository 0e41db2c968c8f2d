package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"checkout/pkg/domain/service"
)

// ErrGateway marks any failure talking to the payment provider, whether the
// API was unreachable or rejected the request.
var ErrGateway = errors.New("payment gateway request failed")

// Client wraps the single provider call this subsystem needs: creating a
// remote order. It never retries; a duplicate remote order is worse than a
// failed checkout attempt the user can restart.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

func NewClient(baseURL, keyID, keySecret string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		// No client-level timeout: the call is bounded by the request
		// context only.
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
	}
}

type orderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

func (c *Client) CreateOrder(ctx context.Context, amountCents int64, currency, receipt string) (*service.GatewayOrder, error) {
	body, err := json.Marshal(orderRequest{Amount: amountCents, Currency: currency, Receipt: receipt})
	if err != nil {
		return nil, errors.Wrap(err, "encode gateway order request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build gateway order request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(ErrGateway, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, errors.Wrapf(ErrGateway, "unexpected status %s", resp.Status)
	}

	var remote orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
		return nil, errors.Wrap(ErrGateway, err.Error())
	}

	return &service.GatewayOrder{
		ID:          remote.ID,
		AmountCents: remote.Amount,
		Currency:    remote.Currency,
	}, nil
}
