package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ms-storefront/internal/config"
)

// WhatsApp sends template messages through a hosted messaging API. Every
// send is best-effort from the caller's point of view: this client just
// reports errors, callers decide to swallow them.
type WhatsApp struct {
	baseURL string
	apiKey  string
	client  *http.Client
	owners  []string
}

func NewWhatsApp(cfg config.WhatsAppConfig) *WhatsApp {
	return &WhatsApp{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		owners:  cfg.OwnerPhones,
	}
}

// Owners returns the operations-staff phone numbers to alert on bookings.
func (w *WhatsApp) Owners() []string { return w.owners }

// SendOrderUpdate notifies the customer about their order: the item
// manifest, the current status, and a tracking line.
func (w *WhatsApp) SendOrderUpdate(ctx context.Context, phone, manifest, status, tracking string) error {
	return w.sendTemplate(ctx, phone, "order_created", []string{manifest, status, tracking})
}

// SendOwnerAlert notifies an owner/operations number about a booked or
// pending order with enough detail to act on it.
func (w *WhatsApp) SendOwnerAlert(ctx context.Context, phone, orderRef, customerName, address, customerPhone, manifest, tracking string) error {
	return w.sendTemplate(ctx, phone, "order_confirmed_message_to_owner",
		[]string{orderRef, customerName, address, customerPhone, manifest, tracking})
}

func (w *WhatsApp) sendTemplate(ctx context.Context, phone, template string, params []string) error {
	parameters := make([]map[string]string, 0, len(params))
	for _, p := range params {
		parameters = append(parameters, map[string]string{"type": "text", "text": p})
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                phone,
		"type":              "template",
		"template": map[string]interface{}{
			"name":     template,
			"language": map[string]string{"code": "en"},
			"components": []map[string]interface{}{
				{"type": "body", "parameters": parameters},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp send failed: status %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}
