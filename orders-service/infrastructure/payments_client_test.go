package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flashmart/order-system/orders-service/domain"
	"github.com/flashmart/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paymentRequest() domain.PaymentRequest {
	return domain.PaymentRequest{
		UserID:      7,
		OrderID:     10,
		TotalAmount: models.NewCents(6497),
	}
}

func TestPaymentsClient_CreatePayment(t *testing.T) {
	var gotPath string
	var gotBody map[string]int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"payment_id": 42}`))
	}))
	defer server.Close()

	client := NewPaymentsClient(server.URL, time.Second)
	paymentID, err := client.CreatePayment(context.Background(), paymentRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(42), paymentID)
	assert.Equal(t, "/payments-api/payments", gotPath)
	assert.Equal(t, int64(7), gotBody["user_id"])
	assert.Equal(t, int64(10), gotBody["order_id"])
	assert.Equal(t, int64(6497), gotBody["total_amount"])
}

func TestPaymentsClient_GatewayFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "undecodable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
		},
		{
			name: "missing payment id",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewPaymentsClient(server.URL, time.Second)
			_, err := client.CreatePayment(context.Background(), paymentRequest())

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrPaymentGateway)
		})
	}
}

func TestPaymentsClient_UnreachableGateway(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewPaymentsClient(server.URL, time.Second)
	_, err := client.CreatePayment(context.Background(), paymentRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPaymentGateway)
}
