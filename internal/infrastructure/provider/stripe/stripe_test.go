package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/wekeepgrowing/semo-billing/internal/config"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
	"go.uber.org/zap"
)

func newBackendProvider(t *testing.T, handler http.HandlerFunc) *StripeProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return NewStripeProvider(config.StripeConfig{
		APIKey:             "sk_test_123",
		WebhookSecret:      testSecret,
		CheckoutSuccessURL: "https://app.example.com/success",
		CheckoutCancelURL:  "https://app.example.com/cancel",
		PortalReturnURL:    "https://app.example.com/account",
	}, &stripe.Backends{API: backend}, zap.NewNop())
}

func TestCreateCheckoutSession(t *testing.T) {
	p := newBackendProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "subscription", r.PostForm.Get("mode"))
		assert.Equal(t, "price_pro", r.PostForm.Get("line_items[0][price]"))
		assert.Equal(t, "1", r.PostForm.Get("line_items[0][quantity]"))
		assert.Equal(t, "7", r.PostForm.Get("metadata[user_id]"))
		assert.Equal(t, "3", r.PostForm.Get("metadata[offer_id]"))
		assert.Equal(t, "https://app.example.com/success", r.PostForm.Get("success_url"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/cs_test_1"}`))
	})

	sess, err := p.CreateCheckoutSession(context.Background(), &provider.CheckoutSessionRequest{
		UserID:  7,
		OfferID: 3,
		PriceID: "price_pro",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", sess.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_test_1", sess.URL)
}

func TestCreatePortalSession(t *testing.T) {
	p := newBackendProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/billing_portal/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "cus_1", r.PostForm.Get("customer"))
		assert.Equal(t, "https://app.example.com/account", r.PostForm.Get("return_url"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"bps_1","object":"billing_portal.session","url":"https://billing.stripe.com/p/session/bps_1"}`))
	})

	sess, err := p.CreatePortalSession(context.Background(), "cus_1")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.com/p/session/bps_1", sess.URL)
}

func TestGetPrice(t *testing.T) {
	p := newBackendProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/prices/price_pro", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"price_pro","object":"price","active":true,"currency":"usd","unit_amount":999,"unit_amount_decimal":"999","recurring":{"interval":"month"}}`))
	})

	price, err := p.GetPrice(context.Background(), "price_pro")
	require.NoError(t, err)
	assert.True(t, price.Active)
	assert.True(t, price.Recurring)
	assert.Equal(t, "usd", price.Currency)
	assert.Equal(t, "9.99", price.Amount.StringFixed(2))
}

func TestProviderErrors(t *testing.T) {
	p := newBackendProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such price: 'price_missing'"}}`))
	})

	_, err := p.GetPrice(context.Background(), "price_missing")
	require.Error(t, err)
	var providerErr *provider.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "PRICE_LOOKUP_FAILED", providerErr.Code)
}
