package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"ms-storefront/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// GetAvailableProducts → the public catalog, hidden items excluded
func (d *DB) GetAvailableProducts() ([]models.Product, error) {
	var products []models.Product
	err := d.Bun.NewSelect().
		Model(&products).
		Where("is_available = ?", true).
		Order("id ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetActiveOffers → currently promoted offers for the storefront banner
func (d *DB) GetActiveOffers() ([]models.Offer, error) {
	var offers []models.Offer
	err := d.Bun.NewSelect().
		Model(&offers).
		Where("is_active = ?", true).
		Order("id ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return offers, nil
}

// GetCouponByCode → fetch one coupon by its (already uppercased) code
func (d *DB) GetCouponByCode(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := d.Bun.NewSelect().
		Model(&coupon).
		Where("code = ?", code).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// GetSetting → fetch one store setting value by key
func (d *DB) GetSetting(key string) (string, error) {
	var setting models.StoreSetting
	err := d.Bun.NewSelect().
		Model(&setting).
		Where("setting_key = ?", key).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

// GetAddressesByUser → the caller's saved addresses, newest first
func (d *DB) GetAddressesByUser(userID string) ([]models.Address, error) {
	var addresses []models.Address
	err := d.Bun.NewSelect().
		Model(&addresses).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

// CreateAddress → insert a new saved address
func (d *DB) CreateAddress(address models.Address) (*models.Address, error) {
	address.CreatedAt = time.Now()
	_, err := d.Bun.NewInsert().Model(&address).Exec(context.Background())
	if err != nil {
		return nil, err
	}
	return &address, nil
}
