package payment_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-storefront/internal/config"
	"ms-storefront/internal/payment"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	g := payment.NewGateway(config.PaymentConfig{KeyID: "key", KeySecret: "s3cret"})

	valid := sign("s3cret", "order_abc", "pay_xyz")
	assert.True(t, g.VerifySignature("order_abc", "pay_xyz", valid))

	assert.False(t, g.VerifySignature("order_abc", "pay_xyz", sign("wrong", "order_abc", "pay_xyz")))
	assert.False(t, g.VerifySignature("order_other", "pay_xyz", valid))
	assert.False(t, g.VerifySignature("order_abc", "pay_other", valid))
	assert.False(t, g.VerifySignature("", "pay_xyz", valid))
	assert.False(t, g.VerifySignature("order_abc", "pay_xyz", ""))
}

func TestCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key-id", user)
		assert.Equal(t, "s3cret", pass)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, float64(49900), req["amount"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       "order_live_1",
			"amount":   49900,
			"currency": "INR",
			"receipt":  req["receipt"],
			"status":   "created",
		})
	}))
	defer server.Close()

	g := payment.NewGateway(config.PaymentConfig{
		BaseURL:   server.URL,
		KeyID:     "key-id",
		KeySecret: "s3cret",
	})

	order, err := g.CreateOrder(context.Background(), 49900, "receipt_order_1")
	require.NoError(t, err)
	assert.Equal(t, "order_live_1", order.ID)
	assert.Equal(t, int64(49900), order.Amount)
	assert.Equal(t, "INR", order.Currency)
}

func TestCreateOrderGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad credentials"}`))
	}))
	defer server.Close()

	g := payment.NewGateway(config.PaymentConfig{BaseURL: server.URL, KeyID: "k", KeySecret: "s"})
	_, err := g.CreateOrder(context.Background(), 100, "r")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad credentials")
}
