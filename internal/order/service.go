package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ms-storefront/internal/delivery"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/utils"
)

var (
	// ErrInvalidPaymentSignature means the capture proof did not verify.
	// Nothing is persisted when this is returned.
	ErrInvalidPaymentSignature = errors.New("payment signature verification failed")

	// ErrOrderPersistence means the signature verified but the order could
	// not be written. The caller should tell the customer to contact support
	// since their payment has been captured.
	ErrOrderPersistence = errors.New("failed to save order")
)

type DBLayer interface {
	CreateOrderWithItems(order models.Order, items []models.OrderItem) error
	GetOrderByID(id string) (*models.Order, error)
	GetOrdersWithDeliveriesByUser(userID string) ([]models.OrderWithDelivery, error)
	GetDeliveryByOrder(orderID string) (*models.Delivery, error)
	UpsertDelivery(delivery models.Delivery) error
	AppendDeliveryError(orderID, message string) error
	SetOrderDeliveryStatus(orderID, status string) error
	GetDeliveryMode() (string, error)
	UpdateDeliveryStatusByTask(partner, taskID, status, trackingURL string) (*models.Delivery, error)
}

type SignatureVerifier interface {
	VerifySignature(orderID, paymentID, signature string) bool
}

type Notifier interface {
	Owners() []string
	SendOrderUpdate(ctx context.Context, phone, manifest, status, tracking string) error
	SendOwnerAlert(ctx context.Context, phone, orderRef, customerName, address, customerPhone, manifest, tracking string) error
}

type KafkaPublisher interface {
	PublishOrderCreated(order models.Order) error
	PublishDeliveryUpdated(delivery models.Delivery) error
}

type OrderService struct {
	DB       DBLayer
	Verifier SignatureVerifier
	Notify   Notifier
	Kafka    KafkaPublisher
	Policy   *delivery.Policy
	Logger   *logger.Logger

	wg sync.WaitGroup
}

func NewOrderService(db DBLayer, verifier SignatureVerifier, notify Notifier, kafka KafkaPublisher, policy *delivery.Policy, log *logger.Logger) *OrderService {
	return &OrderService{
		DB:       db,
		Verifier: verifier,
		Notify:   notify,
		Kafka:    kafka,
		Policy:   policy,
		Logger:   log,
	}
}

// Wait blocks until in-flight background dispatches finish. Called during
// graceful shutdown so bookings aren't cut off mid-flight.
func (s *OrderService) Wait() {
	s.wg.Wait()
}

// FinalizeOrder is the post-payment commit point. It verifies the payment
// signature, persists the order atomically, and hands delivery off to a
// background dispatch. The returned order id is valid as soon as this
// returns: courier booking happens after, never before, the customer has a
// confirmed order.
func (s *OrderService) FinalizeOrder(ctx context.Context, userID string, req models.FinalizeOrderRequest) (string, error) {
	if err := validateFinalizeRequest(req); err != nil {
		return "", err
	}
	payload := *req.OrderPayload
	assertion := *req.PaymentResponse

	if !s.Verifier.VerifySignature(assertion.GatewayOrderID, assertion.PaymentID, assertion.Signature) {
		s.Logger.LogPayment("VERIFY", fmt.Sprintf("Signature verification failed for gateway order %s", assertion.GatewayOrderID))
		return "", ErrInvalidPaymentSignature
	}

	order := models.Order{
		ID:             utils.GenerateOrderID(),
		UserID:         userID,
		CustomerName:   payload.Address.Name,
		Phone:          utils.NormalizePhone(payload.Address.Phone),
		AddressLine1:   payload.Address.Line1,
		Area:           payload.Address.Area,
		City:           payload.Address.City,
		Pincode:        payload.Address.Pincode,
		PayMethod:      payload.PayMethod,
		Subtotal:       payload.Subtotal,
		DeliveryFee:    payload.DeliveryFee,
		DiscountAmount: payload.DiscountAmount,
		GrandTotal:     payload.GrandTotal,
		PlatformFee:    payload.PlatformFee,
		SurgeFee:       payload.SurgeFee,
		Status:         models.OrderStatusPaymentVerified,
		DeliveryStatus: models.DeliveryStatusPending,
		CreatedAt:      time.Now(),
	}

	items := make([]models.OrderItem, 0, len(payload.Cart))
	for _, item := range payload.Cart {
		items = append(items, models.OrderItem{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Qty:       item.Qty,
			Price:     item.Price,
			WeightG:   item.WeightG,
		})
	}

	if err := s.DB.CreateOrderWithItems(order, items); err != nil {
		s.Logger.LogDatabase("INSERT", "orders", fmt.Sprintf("Order insert failed for %s: %v", order.ID, err))
		return "", fmt.Errorf("%w: %v", ErrOrderPersistence, err)
	}
	s.Logger.LogOrder("FINALIZE", order.ID, fmt.Sprintf("Finalized for user %s (total %d)", userID, order.GrandTotal))

	if s.Kafka != nil {
		if err := s.Kafka.PublishOrderCreated(order); err != nil {
			s.Logger.LogKafka("PUBLISH", "order_created", fmt.Sprintf("Publish failed for order %s: %v", order.ID, err))
		}
	}

	// The courier phase runs detached from the request: the customer gets
	// their confirmation now, dispatch outcomes land on the delivery row.
	// No overall deadline; each partner call is bounded by its own HTTP
	// client timeout.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.ProcessDelivery(context.Background(), order, payload)
	}()

	return order.ID, nil
}

func validateFinalizeRequest(req models.FinalizeOrderRequest) error {
	if req.OrderPayload == nil || req.PaymentResponse == nil {
		return errors.New("orderPayload and paymentResponse are required")
	}
	payload := req.OrderPayload
	if len(payload.Cart) == 0 {
		return errors.New("cart is empty")
	}
	for _, item := range payload.Cart {
		if item.Qty <= 0 {
			return fmt.Errorf("invalid quantity for item %q", item.Name)
		}
		if item.Price < 0 {
			return fmt.Errorf("invalid price for item %q", item.Name)
		}
	}
	addr := payload.Address
	if addr.Name == "" || addr.Phone == "" || addr.Line1 == "" {
		return errors.New("address name, phone and line1 are required")
	}
	if payload.Subtotal < 0 || payload.DeliveryFee < 0 || payload.DiscountAmount < 0 || payload.GrandTotal < 0 {
		return errors.New("amounts must not be negative")
	}
	return nil
}

// MyOrders returns the caller's order history with delivery state attached.
func (s *OrderService) MyOrders(userID string) ([]models.OrderWithDelivery, error) {
	return s.DB.GetOrdersWithDeliveriesByUser(userID)
}

// GetOrder fetches one order, scoped to the requesting user.
func (s *OrderService) GetOrder(userID, orderID string) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, errors.New("order not found")
	}
	return order, nil
}

// TrackingURLFor returns the delivery tracking link for an order, empty if
// no courier has been assigned yet.
func (s *OrderService) TrackingURLFor(orderID string) (string, error) {
	d, err := s.DB.GetDeliveryByOrder(orderID)
	if err != nil {
		return "", err
	}
	return d.TrackingURL, nil
}

// ApplyPartnerUpdate records a status change pushed by a courier partner's
// webhook, keyed by the partner's task id.
func (s *OrderService) ApplyPartnerUpdate(partner, taskID, status, trackingURL string) (*models.Delivery, error) {
	d, err := s.DB.UpdateDeliveryStatusByTask(partner, taskID, status, trackingURL)
	if err != nil {
		return nil, err
	}
	s.Logger.LogDelivery(partner, d.OrderID, fmt.Sprintf("Partner webhook moved delivery to %q", status))
	if s.Kafka != nil {
		if err := s.Kafka.PublishDeliveryUpdated(*d); err != nil {
			s.Logger.LogKafka("PUBLISH", "delivery_updated", fmt.Sprintf("Publish failed for delivery %s: %v", d.OrderID, err))
		}
	}
	return d, nil
}

// QuoteFee produces the pre-payment fee estimate under the current mode.
func (s *OrderService) QuoteFee(ctx context.Context, req models.FeeRequest) (*models.FeeResponse, error) {
	mode, err := s.DB.GetDeliveryMode()
	if err != nil {
		return nil, fmt.Errorf("failed to read delivery mode: %w", err)
	}
	return s.Policy.QuoteFee(ctx, mode, req.Address, req.Items)
}
