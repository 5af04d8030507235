package delivery

import (
	"context"
	"fmt"

	"ms-storefront/internal/courier"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
)

// Policy decides which courier provider handles an order based on the
// admin-configured delivery mode, and produces the customer-facing fee
// estimate. The mode itself is read fresh by the caller per operation.
type Policy struct {
	Swyft      courier.Provider
	Velox      courier.Provider
	DefaultFee int64
	Logger     *logger.Logger
}

func NewPolicy(swyft, velox courier.Provider, defaultFee int64, log *logger.Logger) *Policy {
	return &Policy{Swyft: swyft, Velox: velox, DefaultFee: defaultFee, Logger: log}
}

// ProviderFor maps a partner name to its adapter, nil for unknown names.
func (p *Policy) ProviderFor(name string) courier.Provider {
	switch name {
	case courier.ProviderSwyft:
		return p.Swyft
	case courier.ProviderVelox:
		return p.Velox
	default:
		return nil
	}
}

// QuoteFee computes the delivery fee estimate for the given mode.
//
// manual: one informational quote with a fixed default-fee fallback; never
// fails. Single-provider modes: that provider's quote, hard failure surfaces.
// automatic_cheapest: both providers quoted concurrently; the lower fee wins
// with the tie going to Swyft; a single failure falls through to the other
// provider, both failing is an error.
func (p *Policy) QuoteFee(ctx context.Context, mode string, addr models.DropAddress, items []models.CartItem) (*models.FeeResponse, error) {
	switch mode {
	case models.ModeManual:
		quote, err := p.Velox.Quote(ctx, addr, items)
		if err != nil {
			p.Logger.Warn("DELIVERY", fmt.Sprintf("Manual mode quote failed, using default fee: %v", err))
			return &models.FeeResponse{
				DeliveryFee: p.DefaultFee,
				Warnings:    []string{fmt.Sprintf("Manual calculation failed, using default: %v", err)},
			}, nil
		}
		return &models.FeeResponse{DeliveryFee: quote.Fee}, nil

	case models.ModeSwyftOnly:
		quote, err := p.Swyft.Quote(ctx, addr, items)
		if err != nil {
			return nil, err
		}
		return &models.FeeResponse{DeliveryFee: quote.Fee, ChosenPartner: courier.ProviderSwyft}, nil

	case models.ModeVeloxOnly:
		quote, err := p.Velox.Quote(ctx, addr, items)
		if err != nil {
			return nil, err
		}
		return &models.FeeResponse{DeliveryFee: quote.Fee, ChosenPartner: courier.ProviderVelox}, nil

	case models.ModeAutomatic:
		return p.quoteCheapest(ctx, addr, items)

	default:
		return nil, fmt.Errorf("invalid delivery mode configuration: %q", mode)
	}
}

type quoteResult struct {
	quote *courier.Quote
	err   error
}

// quoteCheapest fans out to both providers and joins after both settle.
// This is a fan-in of both results, not a race for the first one.
func (p *Policy) quoteCheapest(ctx context.Context, addr models.DropAddress, items []models.CartItem) (*models.FeeResponse, error) {
	swyftCh := make(chan quoteResult, 1)
	veloxCh := make(chan quoteResult, 1)

	go func() {
		q, err := p.Swyft.Quote(ctx, addr, items)
		swyftCh <- quoteResult{quote: q, err: err}
	}()
	go func() {
		q, err := p.Velox.Quote(ctx, addr, items)
		veloxCh <- quoteResult{quote: q, err: err}
	}()

	swyft := <-swyftCh
	velox := <-veloxCh

	switch {
	case swyft.err != nil && velox.err != nil:
		return nil, fmt.Errorf("both delivery partners unavailable: swyft: %v; velox: %v", swyft.err, velox.err)

	case swyft.err != nil:
		p.Logger.Warn("DELIVERY", fmt.Sprintf("Swyft quote failed, falling back to Velox: %v", swyft.err))
		return &models.FeeResponse{DeliveryFee: velox.quote.Fee, ChosenPartner: courier.ProviderVelox}, nil

	case velox.err != nil:
		p.Logger.Warn("DELIVERY", fmt.Sprintf("Velox quote failed, falling back to Swyft: %v", velox.err))
		return &models.FeeResponse{DeliveryFee: swyft.quote.Fee, ChosenPartner: courier.ProviderSwyft}, nil
	}

	// Tie-break goes to Swyft, deterministically.
	if swyft.quote.Fee <= velox.quote.Fee {
		return &models.FeeResponse{DeliveryFee: swyft.quote.Fee, ChosenPartner: courier.ProviderSwyft}, nil
	}
	return &models.FeeResponse{DeliveryFee: velox.quote.Fee, ChosenPartner: courier.ProviderVelox}, nil
}
