package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/greenmart/checkout-service/models"
)

func paymentServer(t *testing.T, tokenCalls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token":
			*tokenCalls++
			var creds map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, "key", creds["api_key"])
			assert.Equal(t, "secret", creds["api_secret"])
			json.NewEncoder(w).Encode(paymentTokenResponse{AccessToken: "tok-1", ExpiresIn: 3600})
		case "/payments/pay-1":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(models.PaymentRecord{
				PaymentID:   "pay-1",
				Status:      models.PaymentPaid,
				AmountTotal: 28000,
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestPaymentClientGetPayment(t *testing.T) {
	tokenCalls := 0
	server := paymentServer(t, &tokenCalls)
	defer server.Close()

	client := NewPaymentClient(server.URL, "key", "secret", 5*time.Second)
	record, err := client.GetPayment(context.Background(), "pay-1")

	assert.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, record.Status)
	assert.Equal(t, int64(28000), record.AmountTotal)
	assert.Equal(t, 1, tokenCalls)
}

func TestPaymentClientReusesCachedToken(t *testing.T) {
	tokenCalls := 0
	server := paymentServer(t, &tokenCalls)
	defer server.Close()

	client := NewPaymentClient(server.URL, "key", "secret", 5*time.Second)
	for i := 0; i < 3; i++ {
		_, err := client.GetPayment(context.Background(), "pay-1")
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, tokenCalls)
}

func TestPaymentClientRefreshesExpiredToken(t *testing.T) {
	tokenCalls := 0
	server := paymentServer(t, &tokenCalls)
	defer server.Close()

	client := NewPaymentClient(server.URL, "key", "secret", 5*time.Second)
	_, err := client.GetPayment(context.Background(), "pay-1")
	assert.NoError(t, err)

	// Simulate the cached token running out.
	client.cache.set("tok-1", time.Now().Add(-time.Minute))

	_, err = client.GetPayment(context.Background(), "pay-1")
	assert.NoError(t, err)
	assert.Equal(t, 2, tokenCalls)
}

func TestPaymentClientNotFound(t *testing.T) {
	tokenCalls := 0
	server := paymentServer(t, &tokenCalls)
	defer server.Close()

	client := NewPaymentClient(server.URL, "key", "secret", 5*time.Second)
	_, err := client.GetPayment(context.Background(), "pay-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartClientDeleteLineTreatsMissingAsDeleted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewCartClient(server.URL, 5*time.Second)
	assert.NoError(t, client.DeleteLine(context.Background(), "line-1"))
}

func TestSchedulerClientRegister(t *testing.T) {
	var got SchedulerJob
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scheduler", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewSchedulerClient(server.URL, 5*time.Second)
	err := client.Register(context.Background(), &SchedulerJob{
		Name:        "order-ord-1-shipping",
		Description: "move order ord-1 to SHIPPING",
		TriggerAt:   "2026-09-01 10:00:00",
		CallbackURL: "https://checkout.greenmart.io/internal/orders/ord-1/transition",
	})

	assert.NoError(t, err)
	assert.Equal(t, "order-ord-1-shipping", got.Name)
	assert.Equal(t, "2026-09-01 10:00:00", got.TriggerAt)
}
