package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"ms-storefront/internal/config"
	"ms-storefront/internal/geo"
	"ms-storefront/internal/models"
	"ms-storefront/internal/utils"
)

// SwyftRequestIDMaxLen is Swyft's booking request_id length limit.
const SwyftRequestIDMaxLen = 32

// Swyft books point-to-point deliveries through Swyft's vehicle-quote API.
// Fees come back in minor currency units.
type Swyft struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	geocoder *geo.Geocoder
	store    config.StoreConfig
}

func NewSwyft(cfg config.CourierConfig, store config.StoreConfig, geocoder *geo.Geocoder) *Swyft {
	return &Swyft{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: cfg.Timeout},
		geocoder: geocoder,
		store:    store,
	}
}

func (s *Swyft) Name() string { return ProviderSwyft }

func (s *Swyft) Quote(ctx context.Context, addr models.DropAddress, items []models.CartItem) (*Quote, error) {
	dropCoords, err := s.geocoder.Forward(ctx, addr)
	if err != nil {
		return nil, &UnavailableError{Provider: ProviderSwyft, Err: err}
	}

	contact := utils.NormalizePhone(addr.Phone)
	localNumber := contact
	if len(contact) == 12 {
		localNumber = contact[2:]
	}

	payload := map[string]interface{}{
		"pickup_details": map[string]float64{
			"lat": s.store.Latitude,
			"lng": s.store.Longitude,
		},
		"drop_details": map[string]float64{
			"lat": dropCoords.Lat,
			"lng": dropCoords.Lng,
		},
		"customer": map[string]interface{}{
			"name": addr.Name,
			"mobile": map[string]string{
				"country_code": "+91",
				"number":       localNumber,
			},
		},
	}

	var resp struct {
		Vehicles []struct {
			Fare struct {
				MinorAmount int64 `json:"minor_amount"`
			} `json:"fare"`
		} `json:"vehicles"`
	}
	if _, err := s.post(ctx, "/v1/get_quote", payload, &resp); err != nil {
		return nil, &UnavailableError{Provider: ProviderSwyft, Err: err}
	}
	if len(resp.Vehicles) == 0 || resp.Vehicles[0].Fare.MinorAmount <= 0 {
		return nil, &UnavailableError{Provider: ProviderSwyft, Err: fmt.Errorf("no fare in quote response")}
	}

	return &Quote{Fee: resp.Vehicles[0].Fare.MinorAmount}, nil
}

func (s *Swyft) CreateOrder(ctx context.Context, addr models.DropAddress, items []models.CartItem, clientOrderID string) (*Booking, error) {
	dropCoords, err := s.geocoder.Resolve(ctx, addr)
	if err != nil {
		return nil, &BookingError{Provider: ProviderSwyft, Err: err}
	}

	manifest := Manifest(items)
	contact := utils.NormalizePhone(addr.Phone)

	payload := map[string]interface{}{
		"request_id": utils.GenerateRequestID(clientOrderID, SwyftRequestIDMaxLen),
		"pickup_details": map[string]interface{}{
			"address": map[string]interface{}{
				"street_address1": s.store.Address,
				"city":            s.store.City,
				"state":           s.store.State,
				"pincode":         s.store.Pincode,
				"country":         "India",
				"lat":             round6(s.store.Latitude),
				"lng":             round6(s.store.Longitude),
				"contact_details": map[string]string{
					"name":         s.store.ContactName,
					"phone_number": s.store.ContactPhone,
				},
			},
		},
		"drop_details": map[string]interface{}{
			"address": map[string]interface{}{
				"apartment_address": addr.Apartment,
				"street_address1":   addr.Line1,
				"street_address2":   addr.Area,
				"landmark":          addr.Landmark,
				"city":              addr.City,
				"state":             s.store.State,
				"pincode":           addr.Pincode,
				"country":           "India",
				"lat":               round6(dropCoords.Lat),
				"lng":               round6(dropCoords.Lng),
				"contact_details": map[string]string{
					"name":         addr.Name,
					"phone_number": contact,
				},
			},
		},
		"delivery_instructions": map[string]interface{}{
			"instructions_list": []map[string]string{
				{"type": "text", "description": "Fresh meat items: " + manifest},
			},
		},
		"additional_comments": fmt.Sprintf("Order via %s | ClientID: %s | Items: %s", s.store.Name, clientOrderID, manifest),
	}

	var resp struct {
		RequestID           string `json:"request_id"`
		OrderID             string `json:"order_id"`
		TrackingURL         string `json:"tracking_url"`
		EstimatedPickupTime int64  `json:"estimated_pickup_time"`
	}
	body, err := s.post(ctx, "/v1/orders/create", payload, &resp)
	if err != nil {
		return nil, &BookingError{Provider: ProviderSwyft, Body: body, Err: err}
	}
	if resp.OrderID == "" {
		return nil, &BookingError{Provider: ProviderSwyft, Body: body, Err: fmt.Errorf("no order_id in response")}
	}

	booking := &Booking{
		OrderID:     resp.OrderID,
		Status:      "created",
		TrackingURL: resp.TrackingURL,
	}
	if resp.EstimatedPickupTime > 0 {
		eta := time.Unix(resp.EstimatedPickupTime, 0)
		booking.ETA = &eta
	}
	return booking, nil
}

// post sends a JSON payload and decodes the response into out. It returns
// the raw response body so booking failures can carry it verbatim.
func (s *Swyft) post(ctx context.Context, path string, payload, out interface{}) (string, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
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

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
