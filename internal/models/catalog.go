package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Cut         string    `bun:"cut,nullzero" json:"cut,omitempty"`
	WeightG     int       `bun:"weight_g,nullzero" json:"weight_g"`
	Price       int64     `bun:"price,notnull" json:"price"`
	Img         string    `bun:"img,nullzero" json:"img,omitempty"`
	Tags        string    `bun:"tags,nullzero" json:"tags,omitempty"`
	IsAvailable bool      `bun:"is_available,notnull,default:true" json:"is_available"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

type Coupon struct {
	bun.BaseModel `bun:"table:coupons"`

	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	Code          string     `bun:"code,unique,notnull" json:"code"`
	DiscountType  string     `bun:"discount_type,notnull" json:"discount_type"`
	DiscountValue int64      `bun:"discount_value,notnull" json:"discount_value"`
	IsActive      bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	ExpiresAt     *time.Time `bun:"expires_at,nullzero" json:"expires_at,omitempty"`
	CreatedAt     time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type Offer struct {
	bun.BaseModel `bun:"table:offers"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description string    `bun:"description,notnull" json:"description"`
	CouponCode  string    `bun:"coupon_code,unique,notnull" json:"coupon_code"`
	IsActive    bool      `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// StoreSetting is a single key/value configuration row. Settings are read
// fresh per operation so an admin change applies to in-flight checkouts.
type StoreSetting struct {
	bun.BaseModel `bun:"table:store_settings"`

	Key       string    `bun:"setting_key,pk" json:"setting_key"`
	Value     string    `bun:"setting_value,notnull" json:"setting_value"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// Well-known setting keys.
const (
	SettingStoreOpen    = "is_store_open"
	SettingPlatformFee  = "platform_fee"
	SettingSurgeFee     = "surge_fee"
	SettingDeliveryMode = "delivery_mode"
)

// Delivery modes stored under SettingDeliveryMode.
const (
	ModeManual    = "manual"
	ModeSwyftOnly = "swyft_only"
	ModeVeloxOnly = "velox_only"
	ModeAutomatic = "automatic_cheapest"
)

type Address struct {
	bun.BaseModel `bun:"table:addresses"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID       string    `bun:"user_id,notnull" json:"user_id"`
	CustomerName string    `bun:"customer_name,notnull" json:"customer_name"`
	Phone        string    `bun:"phone,notnull" json:"phone"`
	Line1        string    `bun:"address_line1,notnull" json:"address_line1"`
	Area         string    `bun:"area,nullzero" json:"area"`
	City         string    `bun:"city,notnull" json:"city"`
	Pincode      string    `bun:"pincode,notnull" json:"pincode"`
	Label        string    `bun:"name,nullzero" json:"name,omitempty"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
