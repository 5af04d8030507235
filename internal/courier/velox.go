package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"ms-storefront/internal/config"
	"ms-storefront/internal/models"
	"ms-storefront/internal/utils"
)

// veloxVehicleCourier is Velox's vehicle type id for a two-wheeler courier.
const veloxVehicleCourier = 8

// Velox books deliveries through Velox's point-list API. Velox quotes fees
// in major currency units as decimal strings; they are normalized to minor
// units here so the policy compares like with like.
type Velox struct {
	baseURL string
	apiKey  string
	client  *http.Client
	store   config.StoreConfig
}

func NewVelox(cfg config.CourierConfig, store config.StoreConfig) *Velox {
	return &Velox{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		store:   store,
	}
}

func (v *Velox) Name() string { return ProviderVelox }

func (v *Velox) Quote(ctx context.Context, addr models.DropAddress, items []models.CartItem) (*Quote, error) {
	payload := v.orderPayload(addr, items, "")

	var resp veloxOrderResponse
	if _, err := v.post(ctx, "/calculate-order", payload, &resp); err != nil {
		return nil, &UnavailableError{Provider: ProviderVelox, Err: err}
	}
	if resp.Order.PaymentAmount == "" {
		return nil, &UnavailableError{Provider: ProviderVelox, Err: fmt.Errorf("no payment_amount in quote response")}
	}

	amount, err := strconv.ParseFloat(resp.Order.PaymentAmount, 64)
	if err != nil {
		return nil, &UnavailableError{Provider: ProviderVelox, Err: fmt.Errorf("invalid payment_amount %q", resp.Order.PaymentAmount)}
	}

	return &Quote{Fee: int64(math.Round(amount * 100))}, nil
}

func (v *Velox) CreateOrder(ctx context.Context, addr models.DropAddress, items []models.CartItem, clientOrderID string) (*Booking, error) {
	payload := v.orderPayload(addr, items, clientOrderID)

	var resp veloxOrderResponse
	body, err := v.post(ctx, "/create-order", payload, &resp)
	if err != nil {
		return nil, &BookingError{Provider: ProviderVelox, Body: body, Err: err}
	}
	if resp.Order.OrderID == 0 {
		return nil, &BookingError{Provider: ProviderVelox, Body: body, Err: fmt.Errorf("no order_id in response")}
	}

	status := resp.Order.Status
	if status == "" {
		status = "created"
	}
	booking := &Booking{
		OrderID: strconv.FormatInt(resp.Order.OrderID, 10),
		Status:  status,
	}
	if len(resp.Order.Points) > 1 {
		booking.TrackingURL = resp.Order.Points[1].TrackingURL
	}
	return booking, nil
}

// orderPayload builds the shared quote/booking body: quoting and booking use
// the same shape, a booking additionally tags the drop point with the client
// order id for reconciliation.
func (v *Velox) orderPayload(addr models.DropAddress, items []models.CartItem, clientOrderID string) map[string]interface{} {
	drop := map[string]interface{}{
		"address": addr.FullLine(),
		"contact_person": map[string]string{
			"phone": utils.NormalizePhone(addr.Phone),
			"name":  addr.Name,
		},
	}
	if addr.Note != "" {
		drop["note"] = addr.Note
	}
	if clientOrderID != "" {
		drop["client_order_id"] = clientOrderID
	}

	return map[string]interface{}{
		"type":            "standard",
		"matter":          Manifest(items),
		"total_weight_kg": TotalWeightKG(items),
		"vehicle_type_id": veloxVehicleCourier,
		"is_contact_person_notification_enabled": true,
		"is_client_notification_enabled":         true,
		"points": []map[string]interface{}{
			{
				"address": v.store.Address,
				"contact_person": map[string]string{
					"phone": v.store.ContactPhone,
					"name":  v.store.ContactName,
				},
			},
			drop,
		},
		"payment_method": "balance",
	}
}

type veloxOrderResponse struct {
	Order struct {
		OrderID       int64  `json:"order_id"`
		Status        string `json:"status"`
		PaymentAmount string `json:"payment_amount"`
		Points        []struct {
			TrackingURL string `json:"tracking_url"`
		} `json:"points"`
	} `json:"order"`
}

func (v *Velox) post(ctx context.Context, path string, payload, out interface{}) (string, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("X-DV-Auth-Token", v.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return string(raw), fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return string(raw), fmt.Errorf("failed to decode response: %w", err)
	}
	return string(raw), nil
}
