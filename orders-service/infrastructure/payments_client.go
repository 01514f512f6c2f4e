package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/flashmart/order-system/orders-service/domain"
	"github.com/pkg/errors"
)

const defaultPaymentTimeout = 10 * time.Second

// PaymentsClient calls the payment participant through the API gateway.
type PaymentsClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewPaymentsClient creates a client against the gateway base URL
// (e.g. http://api-gateway:8080). A zero timeout falls back to the default.
func NewPaymentsClient(baseURL string, timeout time.Duration) *PaymentsClient {
	if timeout <= 0 {
		timeout = defaultPaymentTimeout
	}
	return &PaymentsClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

type paymentResponse struct {
	PaymentID int64 `json:"payment_id"`
}

// CreatePayment POSTs the payment request and returns the payment id from
// the response body. Unreachable gateway, non-2xx status, and undecodable
// bodies all surface as ErrPaymentGateway.
func (c *PaymentsClient) CreatePayment(ctx context.Context, req domain.PaymentRequest) (int64, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return 0, errors.Wrap(err, "failed to encode payment request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments-api/payments", bytes.NewReader(body))
	if err != nil {
		return 0, errors.Wrap(err, "failed to build payment request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, errors.Wrapf(domain.ErrPaymentGateway, "request failed: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, res.Body)
		return 0, errors.Wrapf(domain.ErrPaymentGateway, "unexpected status %d", res.StatusCode)
	}

	var payment paymentResponse
	if err := json.NewDecoder(res.Body).Decode(&payment); err != nil {
		return 0, errors.Wrapf(domain.ErrPaymentGateway, "undecodable response: %v", err)
	}
	if payment.PaymentID == 0 {
		return 0, errors.Wrap(domain.ErrPaymentGateway, "response missing payment_id")
	}
	return payment.PaymentID, nil
}
