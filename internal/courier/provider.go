package courier

import (
	"context"
	"fmt"
	"time"

	"ms-storefront/internal/models"
)

// Provider names as stored in delivery records and settings.
const (
	ProviderSwyft = "swyft"
	ProviderVelox = "velox"
)

// Quote is a provider's delivery fee estimate in minor currency units.
type Quote struct {
	Fee int64
}

// Booking is the result of a successful courier order creation.
type Booking struct {
	OrderID     string
	Status      string
	TrackingURL string
	ETA         *time.Time
}

// Provider is a courier booking service. Quote never mutates provider state;
// CreateOrder is the single mutating call and is not idempotent across
// retries, so callers must not blindly re-invoke it after a failure.
type Provider interface {
	Name() string
	Quote(ctx context.Context, addr models.DropAddress, items []models.CartItem) (*Quote, error)
	CreateOrder(ctx context.Context, addr models.DropAddress, items []models.CartItem, clientOrderID string) (*Booking, error)
}

// UnavailableError reports a failed quote call: the HTTP request errored or
// the response carried no usable fee.
type UnavailableError struct {
	Provider string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Provider, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// BookingError reports a failed booking call and carries the raw provider
// response body for the delivery record's error annotation.
type BookingError struct {
	Provider string
	Body     string
	Err      error
}

func (e *BookingError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s booking error: %s", e.Provider, e.Body)
	}
	return fmt.Sprintf("%s booking error: %v", e.Provider, e.Err)
}

func (e *BookingError) Unwrap() error { return e.Err }
