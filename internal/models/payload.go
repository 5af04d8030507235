package models

// DropAddress is the customer-supplied delivery address attached to a
// checkout. Latitude/Longitude are optional; when absent the geocoder
// resolves coordinates from the textual fields.
type DropAddress struct {
	Name      string   `json:"name"`
	Phone     string   `json:"phone"`
	Line1     string   `json:"line1"`
	Area      string   `json:"area,omitempty"`
	City      string   `json:"city"`
	Pincode   string   `json:"pincode"`
	Apartment string   `json:"apartment,omitempty"`
	Landmark  string   `json:"landmark,omitempty"`
	Note      string   `json:"note,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// FullLine renders the address as a single display line.
func (a DropAddress) FullLine() string {
	s := a.Line1
	for _, part := range []string{a.Area, a.City, a.Pincode} {
		if part != "" {
			s += " " + part
		}
	}
	return s
}

// CartItem is one product snapshot in a checkout payload. Price is in minor
// currency units, WeightG in grams per unit.
type CartItem struct {
	ProductID int64  `json:"id"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	Price     int64  `json:"price"`
	WeightG   int    `json:"weight"`
}

// OrderPayload is the client-assembled order: cart, address and the money
// breakdown the storefront computed. All amounts are minor currency units.
type OrderPayload struct {
	Cart           []CartItem  `json:"cart"`
	Address        DropAddress `json:"address"`
	PayMethod      string      `json:"payMethod"`
	ChosenPartner  string      `json:"chosen_partner,omitempty"`
	Subtotal       int64       `json:"subtotal"`
	DeliveryFee    int64       `json:"delivery_fee"`
	DiscountAmount int64       `json:"discount_amount"`
	GrandTotal     int64       `json:"grand_total"`
	PlatformFee    int64       `json:"platform_fee"`
	SurgeFee       int64       `json:"surge_fee"`
}

// PaymentAssertion carries the gateway's capture proof: the signature is an
// HMAC over "{orderID}|{paymentID}" that the backend recomputes and compares.
type PaymentAssertion struct {
	GatewayOrderID string `json:"gateway_order_id"`
	PaymentID      string `json:"payment_id"`
	Signature      string `json:"signature"`
}

type FinalizeOrderRequest struct {
	OrderPayload    *OrderPayload     `json:"orderPayload"`
	PaymentResponse *PaymentAssertion `json:"paymentResponse"`
}

type FinalizeOrderResponse struct {
	Status  string `json:"status"`
	OrderID string `json:"orderId"`
}

// FeeRequest is the pre-payment delivery fee estimate request.
type FeeRequest struct {
	Address DropAddress `json:"address"`
	Items   []CartItem  `json:"items"`
}

type FeeResponse struct {
	DeliveryFee   int64    `json:"delivery_fee"`
	ChosenPartner string   `json:"chosen_partner,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}
