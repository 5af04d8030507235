package storefront

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/utils"
)

var ErrInvalidCoupon = errors.New("invalid or expired coupon")

type DBLayer interface {
	GetAvailableProducts() ([]models.Product, error)
	GetActiveOffers() ([]models.Offer, error)
	GetCouponByCode(code string) (*models.Coupon, error)
	GetSetting(key string) (string, error)
	GetAddressesByUser(userID string) ([]models.Address, error)
	CreateAddress(address models.Address) (*models.Address, error)
}

// SettingsReader is the read-through cache in front of public settings.
type SettingsReader interface {
	Get(ctx context.Context, key string, load func(context.Context) (string, error)) (string, error)
}

// StorefrontService serves the public browsing surface: catalog, offers,
// store settings and coupon validation. Money is minor currency units.
type StorefrontService struct {
	DB     DBLayer
	Cache  SettingsReader
	Logger *logger.Logger
}

func NewStorefrontService(db DBLayer, cache SettingsReader, log *logger.Logger) *StorefrontService {
	return &StorefrontService{DB: db, Cache: cache, Logger: log}
}

func (s *StorefrontService) Products() ([]models.Product, error) {
	return s.DB.GetAvailableProducts()
}

func (s *StorefrontService) Offers() ([]models.Offer, error) {
	return s.DB.GetActiveOffers()
}

// StoreStatus reports whether the store accepts orders. No row, or a value
// that doesn't parse, means closed: opening the store is an explicit admin
// action.
func (s *StorefrontService) StoreStatus(ctx context.Context) (bool, error) {
	val, err := s.cachedSetting(ctx, models.SettingStoreOpen, "false")
	if err != nil {
		return false, err
	}
	open, err := strconv.ParseBool(val)
	if err != nil {
		return false, nil
	}
	return open, nil
}

// PlatformFee returns the per-order platform fee, zero when unset.
func (s *StorefrontService) PlatformFee(ctx context.Context) (int64, error) {
	return s.cachedFeeSetting(ctx, models.SettingPlatformFee)
}

// SurgeFee returns the current surge fee, zero when unset.
func (s *StorefrontService) SurgeFee(ctx context.Context) (int64, error) {
	return s.cachedFeeSetting(ctx, models.SettingSurgeFee)
}

func (s *StorefrontService) cachedFeeSetting(ctx context.Context, key string) (int64, error) {
	val, err := s.cachedSetting(ctx, key, "0")
	if err != nil {
		return 0, err
	}
	fee, err := strconv.ParseInt(val, 10, 64)
	if err != nil || fee < 0 {
		return 0, nil
	}
	return fee, nil
}

func (s *StorefrontService) cachedSetting(ctx context.Context, key, fallback string) (string, error) {
	load := func(context.Context) (string, error) {
		val, err := s.DB.GetSetting(key)
		if errors.Is(err, sql.ErrNoRows) {
			return fallback, nil
		}
		return val, err
	}
	if s.Cache == nil {
		return load(ctx)
	}
	return s.Cache.Get(ctx, key, load)
}

// CouponResult is the validated discount a coupon yields on a given
// subtotal. DiscountAmount never exceeds the subtotal.
type CouponResult struct {
	Code           string `json:"code"`
	DiscountType   string `json:"discount_type"`
	DiscountValue  int64  `json:"discount_value"`
	DiscountAmount int64  `json:"discount_amount"`
}

// ValidateCoupon checks a code against the active coupon set and computes
// the discount for the given subtotal. Codes are case-insensitive.
func (s *StorefrontService) ValidateCoupon(code string, subtotal int64) (*CouponResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || subtotal < 0 {
		return nil, ErrInvalidCoupon
	}

	coupon, err := s.DB.GetCouponByCode(code)
	if err != nil {
		return nil, ErrInvalidCoupon
	}
	if !coupon.IsActive {
		return nil, ErrInvalidCoupon
	}
	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidCoupon
	}

	var discount int64
	switch coupon.DiscountType {
	case models.DiscountTypePercentage:
		discount = subtotal * coupon.DiscountValue / 100
	case models.DiscountTypeFixed:
		discount = coupon.DiscountValue
	default:
		return nil, ErrInvalidCoupon
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}

	s.Logger.Info("COUPON", fmt.Sprintf("Coupon %s applied: %d off %d", code, discount, subtotal))
	return &CouponResult{
		Code:           coupon.Code,
		DiscountType:   coupon.DiscountType,
		DiscountValue:  coupon.DiscountValue,
		DiscountAmount: discount,
	}, nil
}

// Addresses returns the caller's saved delivery addresses.
func (s *StorefrontService) Addresses(userID string) ([]models.Address, error) {
	return s.DB.GetAddressesByUser(userID)
}

// AddAddress saves a delivery address for the caller, normalizing the
// phone number on the way in.
func (s *StorefrontService) AddAddress(userID string, address models.Address) (*models.Address, error) {
	if address.CustomerName == "" || address.Phone == "" || address.Line1 == "" {
		return nil, errors.New("name, phone and address line are required")
	}
	address.UserID = userID
	address.Phone = utils.NormalizePhone(address.Phone)
	return s.DB.CreateAddress(address)
}
