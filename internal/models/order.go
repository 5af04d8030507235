package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Order lifecycle statuses. The order status axis and the delivery status
// axis are independent: an order stays PAYMENT_VERIFIED while its delivery
// moves from pending to processing.
const (
	OrderStatusPaymentVerified = "PAYMENT_VERIFIED"

	DeliveryStatusPending    = "pending"
	DeliveryStatusProcessing = "processing"
	DeliveryStatusFailed     = "failed"
)

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID             string    `bun:"id,pk" json:"id"`
	UserID         string    `bun:"user_id,notnull" json:"user_id"`
	CustomerName   string    `bun:"customer_name,notnull" json:"customer_name"`
	Phone          string    `bun:"phone,notnull" json:"phone"`
	AddressLine1   string    `bun:"address_line1,notnull" json:"address_line1"`
	Area           string    `bun:"area,nullzero" json:"area"`
	City           string    `bun:"city,nullzero" json:"city"`
	Pincode        string    `bun:"pincode,nullzero" json:"pincode"`
	PayMethod      string    `bun:"pay_method,nullzero" json:"pay_method"`
	Subtotal       int64     `bun:"subtotal,notnull" json:"subtotal"`
	DeliveryFee    int64     `bun:"delivery_fee,notnull" json:"delivery_fee"`
	DiscountAmount int64     `bun:"discount_amount,notnull" json:"discount_amount"`
	GrandTotal     int64     `bun:"grand_total,notnull" json:"grand_total"`
	PlatformFee    int64     `bun:"platform_fee,notnull" json:"platform_fee"`
	SurgeFee       int64     `bun:"surge_fee,notnull" json:"surge_fee"`
	Status         string    `bun:"status,notnull" json:"status"`
	DeliveryStatus string    `bun:"delivery_status,notnull" json:"delivery_status"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID        int64  `bun:"id,pk,autoincrement" json:"id"`
	OrderID   string `bun:"order_id,notnull" json:"order_id"`
	ProductID int64  `bun:"product_id,notnull" json:"product_id"`
	Name      string `bun:"name,notnull" json:"name"`
	Qty       int    `bun:"qty,notnull" json:"qty"`
	Price     int64  `bun:"price,notnull" json:"price"`
	WeightG   int    `bun:"weight_g,nullzero" json:"weight_g"`
}

// Delivery partner identifiers. A partner of "system" or "unknown" marks an
// order that needs manual attention rather than a real courier booking.
const (
	PartnerManual  = "manual"
	PartnerSystem  = "system"
	PartnerUnknown = "unknown"

	DeliveryPending = "PENDING"
	DeliveryShipped = "shipped"
)

// Delivery is the courier-dispatch state for exactly one order.
// There is at most one row per order, enforced by an upsert on order_id.
type Delivery struct {
	bun.BaseModel `bun:"table:deliveries"`

	ID           int64      `bun:"id,pk,autoincrement" json:"id"`
	OrderID      string     `bun:"order_id,notnull,unique" json:"order_id"`
	Partner      string     `bun:"partner,notnull" json:"partner"`
	TaskID       string     `bun:"task_id,nullzero" json:"task_id,omitempty"`
	Status       string     `bun:"status,notnull" json:"status"`
	TrackingURL  string     `bun:"tracking_url,nullzero" json:"tracking_url,omitempty"`
	ETA          *time.Time `bun:"eta,nullzero" json:"eta,omitempty"`
	ErrorMessage string     `bun:"error_message,nullzero" json:"error_message,omitempty"`
	UpdatedAt    time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// OrderWithDelivery joins an order with its delivery record and item
// snapshots for the customer-facing order history.
type OrderWithDelivery struct {
	Order
	TrackingURL string      `json:"tracking_url,omitempty"`
	Partner     string      `json:"partner,omitempty"`
	Items       []OrderItem `json:"items"`
}
