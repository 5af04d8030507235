package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ms-storefront/internal/config"
)

// Gateway talks to the payment provider's order API and verifies the
// signatures it hands back to the browser after checkout.
type Gateway struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
}

func NewGateway(cfg config.PaymentConfig) *Gateway {
	return &Gateway{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// GatewayOrder is the provider-side order a checkout session is bound to.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrder registers an order with the gateway for the given amount in
// minor currency units. The returned order id is what the client pays
// against and what the signature later covers.
func (g *Gateway) CreateOrder(ctx context.Context, amountMinor int64, receipt string) (*GatewayOrder, error) {
	payload := map[string]interface{}{
		"amount":   amountMinor,
		"currency": "INR",
		"receipt":  receipt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment order creation failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("payment order creation failed: status %d: %s", resp.StatusCode, string(raw))
	}

	var order GatewayOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("failed to decode payment order: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("payment order creation returned no id")
	}
	return &order, nil
}

// VerifySignature checks the gateway's HMAC-SHA256 signature over
// "{orderID}|{paymentID}" against the configured key secret. The comparison
// is constant time.
func (g *Gateway) VerifySignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
