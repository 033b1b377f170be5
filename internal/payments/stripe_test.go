package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

func newTestProcessor(t *testing.T, handler http.HandlerFunc) *StripeProcessor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return NewStripeProcessor(StripeConfig{
		SecretKey:  "sk_test_123",
		SuccessURL: "https://shop.example/success",
		CancelURL:  "https://shop.example/cancel",
		Backends:   &stripe.Backends{API: backend, Connect: backend, Uploads: backend},
	})
}

func TestStripeProcessor_CreateSession(t *testing.T) {
	p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "u1", r.PostForm.Get("metadata[user_id]"))
		assert.Equal(t, "2500", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "2", r.PostForm.Get("line_items[0][quantity]"))
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1","payment_status":"unpaid","status":"open","amount_total":5000,"currency":"usd","metadata":{"user_id":"u1"}}`))
	})

	s, err := p.CreateSession(context.Background(), SessionRequest{
		LineItems:      []LineItem{{Name: "Mouse", UnitAmount: 2500, Quantity: 2}},
		Currency:       "usd",
		Metadata:       map[string]string{"user_id": "u1"},
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", s.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", s.URL)
	assert.Equal(t, int64(5000), s.AmountTotal)
	assert.Equal(t, "u1", s.Metadata["user_id"])
}

func TestStripeProcessor_RetrieveMissingSession(t *testing.T) {
	p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/cs_missing"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such checkout.session: 'cs_missing'"}}`))
	})

	_, err := p.RetrieveSession(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStripeProcessor_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	var calls int32
	p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"type":"api_error","message":"boom"}}`))
	})

	for i := 0; i < 5; i++ {
		_, err := p.RetrieveSession(context.Background(), "cs_1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrSessionNotFound)
	}
	_, err := p.RetrieveSession(context.Background(), "cs_1")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.EqualValues(t, 5, atomic.LoadInt32(&calls))
}
