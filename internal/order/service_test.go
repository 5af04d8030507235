package order_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-storefront/internal/courier"
	"ms-storefront/internal/delivery"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/order"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateOrderWithItems(o models.Order, items []models.OrderItem) error {
	args := m.Called(o, items)
	return args.Error(0)
}

func (m *MockDBLayer) GetOrderByID(id string) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockDBLayer) GetOrdersWithDeliveriesByUser(userID string) ([]models.OrderWithDelivery, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrderWithDelivery), args.Error(1)
}

func (m *MockDBLayer) GetDeliveryByOrder(orderID string) (*models.Delivery, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Delivery), args.Error(1)
}

func (m *MockDBLayer) UpsertDelivery(d models.Delivery) error {
	args := m.Called(d)
	return args.Error(0)
}

func (m *MockDBLayer) AppendDeliveryError(orderID, message string) error {
	args := m.Called(orderID, message)
	return args.Error(0)
}

func (m *MockDBLayer) SetOrderDeliveryStatus(orderID, status string) error {
	args := m.Called(orderID, status)
	return args.Error(0)
}

func (m *MockDBLayer) GetDeliveryMode() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockDBLayer) UpdateDeliveryStatusByTask(partner, taskID, status, trackingURL string) (*models.Delivery, error) {
	args := m.Called(partner, taskID, status, trackingURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Delivery), args.Error(1)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) VerifySignature(orderID, paymentID, signature string) bool {
	args := m.Called(orderID, paymentID, signature)
	return args.Bool(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Owners() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockNotifier) SendOrderUpdate(ctx context.Context, phone, manifest, status, tracking string) error {
	args := m.Called(ctx, phone, manifest, status, tracking)
	return args.Error(0)
}

func (m *MockNotifier) SendOwnerAlert(ctx context.Context, phone, orderRef, customerName, address, customerPhone, manifest, tracking string) error {
	args := m.Called(ctx, phone, orderRef, customerName, address, customerPhone, manifest, tracking)
	return args.Error(0)
}

type stubProvider struct {
	name    string
	booking *courier.Booking
	bookErr error
	gotCtx  chan context.Context
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Quote(ctx context.Context, addr models.DropAddress, items []models.CartItem) (*courier.Quote, error) {
	return &courier.Quote{Fee: 10000}, nil
}

func (s *stubProvider) CreateOrder(ctx context.Context, addr models.DropAddress, items []models.CartItem, clientOrderID string) (*courier.Booking, error) {
	if s.gotCtx != nil {
		s.gotCtx <- ctx
	}
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	return s.booking, nil
}

func testPolicy(swyft, velox courier.Provider) *delivery.Policy {
	return delivery.NewPolicy(swyft, velox, 20000, logger.NewTerminalLogger())
}

func newService(db *MockDBLayer, verifier *MockVerifier, notifier *MockNotifier, policy *delivery.Policy) *order.OrderService {
	return order.NewOrderService(db, verifier, notifier, nil, policy, logger.NewTerminalLogger())
}

func validRequest() models.FinalizeOrderRequest {
	return models.FinalizeOrderRequest{
		OrderPayload: &models.OrderPayload{
			Cart: []models.CartItem{{ProductID: 1, Name: "Chicken Curry Cut", Qty: 2, Price: 18000, WeightG: 500}},
			Address: models.DropAddress{
				Name: "Asha", Phone: "9876543210", Line1: "12 Lake View",
				Area: "Indiranagar", City: "Bengaluru", Pincode: "560038",
			},
			PayMethod:   "upi",
			Subtotal:    36000,
			DeliveryFee: 9500,
			GrandTotal:  45500,
		},
		PaymentResponse: &models.PaymentAssertion{
			GatewayOrderID: "order_gw_1",
			PaymentID:      "pay_1",
			Signature:      "sig",
		},
	}
}

func testOrder() models.Order {
	return models.Order{
		ID:           "order-1",
		UserID:       "user-1",
		CustomerName: "Asha",
		Phone:        "919876543210",
		AddressLine1: "12 Lake View",
	}
}

func TestFinalizeOrderRejectsBadSignature(t *testing.T) {
	db := new(MockDBLayer)
	verifier := new(MockVerifier)
	verifier.On("VerifySignature", "order_gw_1", "pay_1", "sig").Return(false)

	svc := newService(db, verifier, new(MockNotifier), testPolicy(nil, nil))

	_, err := svc.FinalizeOrder(context.Background(), "user-1", validRequest())
	assert.ErrorIs(t, err, order.ErrInvalidPaymentSignature)
	db.AssertNotCalled(t, "CreateOrderWithItems", mock.Anything, mock.Anything)
}

func TestFinalizeOrderRejectsEmptyCart(t *testing.T) {
	svc := newService(new(MockDBLayer), new(MockVerifier), new(MockNotifier), testPolicy(nil, nil))

	req := validRequest()
	req.OrderPayload.Cart = nil
	_, err := svc.FinalizeOrder(context.Background(), "user-1", req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cart is empty")
}

func TestFinalizeOrderPersistenceFailure(t *testing.T) {
	db := new(MockDBLayer)
	db.On("CreateOrderWithItems", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	verifier := new(MockVerifier)
	verifier.On("VerifySignature", mock.Anything, mock.Anything, mock.Anything).Return(true)

	svc := newService(db, verifier, new(MockNotifier), testPolicy(nil, nil))

	_, err := svc.FinalizeOrder(context.Background(), "user-1", validRequest())
	assert.ErrorIs(t, err, order.ErrOrderPersistence)
}

func TestFinalizeOrderSucceedsAndDispatches(t *testing.T) {
	db := new(MockDBLayer)
	db.On("CreateOrderWithItems", mock.MatchedBy(func(o models.Order) bool {
		return o.Status == models.OrderStatusPaymentVerified &&
			o.DeliveryStatus == models.DeliveryStatusPending &&
			o.Phone == "919876543210" &&
			o.UserID == "user-1"
	}), mock.MatchedBy(func(items []models.OrderItem) bool {
		return len(items) == 1 && items[0].Name == "Chicken Curry Cut"
	})).Return(nil)
	db.On("GetDeliveryMode").Return(models.ModeManual, nil)
	db.On("UpsertDelivery", mock.MatchedBy(func(d models.Delivery) bool {
		return d.Partner == models.PartnerManual && d.Status == models.DeliveryPending
	})).Return(nil)

	verifier := new(MockVerifier)
	verifier.On("VerifySignature", "order_gw_1", "pay_1", "sig").Return(true)

	notifier := new(MockNotifier)
	notifier.On("Owners").Return([]string{"919000000001"})
	notifier.On("SendOrderUpdate", mock.Anything, "919876543210", mock.Anything,
		mock.MatchedBy(func(status string) bool { return strings.Contains(status, "pending") }),
		mock.Anything).Return(nil)
	notifier.On("SendOwnerAlert", mock.Anything, "919000000001", mock.Anything, "Asha",
		mock.Anything, "919876543210", mock.Anything, mock.Anything).Return(nil)

	svc := newService(db, verifier, notifier, testPolicy(nil, nil))

	orderID, err := svc.FinalizeOrder(context.Background(), "user-1", validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, orderID)

	svc.Wait()
	db.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestFinalizeOrderDispatchOutlivesRequestContext(t *testing.T) {
	swyft := &stubProvider{
		name:    courier.ProviderSwyft,
		booking: &courier.Booking{OrderID: "SWYFT-1", Status: "created"},
		gotCtx:  make(chan context.Context, 1),
	}

	db := new(MockDBLayer)
	db.On("CreateOrderWithItems", mock.Anything, mock.Anything).Return(nil)
	db.On("GetDeliveryMode").Return(models.ModeSwyftOnly, nil)
	db.On("UpsertDelivery", mock.Anything).Return(nil)
	db.On("SetOrderDeliveryStatus", mock.Anything, models.DeliveryStatusProcessing).Return(nil)

	verifier := new(MockVerifier)
	verifier.On("VerifySignature", mock.Anything, mock.Anything, mock.Anything).Return(true)

	notifier := new(MockNotifier)
	notifier.On("Owners").Return(nil)
	notifier.On("SendOrderUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newService(db, verifier, notifier, testPolicy(swyft, nil))

	reqCtx, cancel := context.WithCancel(context.Background())
	_, err := svc.FinalizeOrder(reqCtx, "user-1", validRequest())
	cancel()
	require.NoError(t, err)
	svc.Wait()

	// The booking ran on its own context: no deadline, and cancelling the
	// request must not have touched it.
	dispatchCtx := <-swyft.gotCtx
	_, hasDeadline := dispatchCtx.Deadline()
	assert.False(t, hasDeadline)
	assert.NoError(t, dispatchCtx.Err())
}

func TestProcessDeliveryBookingSuccess(t *testing.T) {
	swyft := &stubProvider{
		name: courier.ProviderSwyft,
		booking: &courier.Booking{
			OrderID:     "SWYFT-9",
			Status:      "created",
			TrackingURL: "https://swyft.example/t/9",
		},
	}

	db := new(MockDBLayer)
	db.On("GetDeliveryMode").Return(models.ModeSwyftOnly, nil)
	db.On("UpsertDelivery", mock.MatchedBy(func(d models.Delivery) bool {
		return d.Partner == courier.ProviderSwyft &&
			d.TaskID == "SWYFT-9" &&
			d.TrackingURL == "https://swyft.example/t/9" &&
			d.ErrorMessage == ""
	})).Return(nil)
	db.On("SetOrderDeliveryStatus", "order-1", models.DeliveryStatusProcessing).Return(nil)

	notifier := new(MockNotifier)
	notifier.On("Owners").Return([]string{"919000000001"})
	notifier.On("SendOrderUpdate", mock.Anything, "919876543210", mock.Anything, mock.Anything, "https://swyft.example/t/9").Return(nil)
	notifier.On("SendOwnerAlert", mock.Anything, "919000000001", "order-1", "Asha",
		mock.Anything, "919876543210", mock.Anything, "https://swyft.example/t/9").Return(nil)

	svc := newService(db, new(MockVerifier), notifier, testPolicy(swyft, nil))
	svc.ProcessDelivery(context.Background(), testOrder(), *validRequest().OrderPayload)

	db.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestProcessDeliveryBookingFailureParksPending(t *testing.T) {
	velox := &stubProvider{name: courier.ProviderVelox, bookErr: errors.New("insufficient balance")}

	db := new(MockDBLayer)
	db.On("GetDeliveryMode").Return(models.ModeVeloxOnly, nil)
	db.On("UpsertDelivery", mock.MatchedBy(func(d models.Delivery) bool {
		return d.Partner == courier.ProviderVelox &&
			d.Status == models.DeliveryPending &&
			d.ErrorMessage != "" &&
			d.TaskID == ""
	})).Return(nil)

	notifier := new(MockNotifier)
	notifier.On("Owners").Return([]string{"919000000001"})
	notifier.On("SendOrderUpdate", mock.Anything, "919876543210", mock.Anything,
		mock.MatchedBy(func(status string) bool { return strings.Contains(status, "pending") }),
		mock.Anything).Return(nil)
	notifier.On("SendOwnerAlert", mock.Anything, "919000000001", "order-1", "Asha",
		mock.Anything, "919876543210", mock.Anything, "NEEDS MANUAL BOOKING").Return(nil)

	svc := newService(db, new(MockVerifier), notifier, testPolicy(nil, velox))
	svc.ProcessDelivery(context.Background(), testOrder(), *validRequest().OrderPayload)

	db.AssertExpectations(t)
	notifier.AssertExpectations(t)
	db.AssertNotCalled(t, "SetOrderDeliveryStatus", mock.Anything, mock.Anything)
}

func TestProcessDeliveryManualModeNotifiesCustomer(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetDeliveryMode").Return(models.ModeManual, nil)
	db.On("UpsertDelivery", mock.MatchedBy(func(d models.Delivery) bool {
		return d.Partner == models.PartnerManual && d.Status == models.DeliveryPending
	})).Return(nil)

	notifier := new(MockNotifier)
	notifier.On("Owners").Return([]string{"919000000001"})
	notifier.On("SendOrderUpdate", mock.Anything, "919876543210", mock.Anything,
		mock.MatchedBy(func(status string) bool { return strings.Contains(status, "pending") }),
		mock.Anything).Return(nil)
	notifier.On("SendOwnerAlert", mock.Anything, "919000000001", "order-1", "Asha",
		mock.Anything, "919876543210", mock.Anything, "NEEDS MANUAL BOOKING").Return(nil)

	svc := newService(db, new(MockVerifier), notifier, testPolicy(nil, nil))
	svc.ProcessDelivery(context.Background(), testOrder(), *validRequest().OrderPayload)

	notifier.AssertExpectations(t)
}

func TestProcessDeliveryAutomaticUsesChosenPartner(t *testing.T) {
	velox := &stubProvider{
		name:    courier.ProviderVelox,
		booking: &courier.Booking{OrderID: "445566", Status: "new"},
	}

	db := new(MockDBLayer)
	db.On("GetDeliveryMode").Return(models.ModeAutomatic, nil)
	db.On("UpsertDelivery", mock.MatchedBy(func(d models.Delivery) bool {
		return d.Partner == courier.ProviderVelox && d.TaskID == "445566"
	})).Return(nil)
	db.On("SetOrderDeliveryStatus", "order-1", models.DeliveryStatusProcessing).Return(nil)

	notifier := new(MockNotifier)
	notifier.On("Owners").Return(nil)
	notifier.On("SendOrderUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	payload := *validRequest().OrderPayload
	payload.ChosenPartner = courier.ProviderVelox

	svc := newService(db, new(MockVerifier), notifier, testPolicy(nil, velox))
	svc.ProcessDelivery(context.Background(), testOrder(), payload)

	db.AssertExpectations(t)
}

func TestProcessDeliveryAutomaticWithoutPartnerParksPending(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetDeliveryMode").Return(models.ModeAutomatic, nil)
	db.On("UpsertDelivery", mock.MatchedBy(func(d models.Delivery) bool {
		return d.Partner == models.PartnerUnknown && d.Status == models.DeliveryPending
	})).Return(nil)

	notifier := new(MockNotifier)
	notifier.On("Owners").Return(nil)
	notifier.On("SendOrderUpdate", mock.Anything, "919876543210", mock.Anything,
		mock.MatchedBy(func(status string) bool { return strings.Contains(status, "pending") }),
		mock.Anything).Return(nil)

	svc := newService(db, new(MockVerifier), notifier, testPolicy(nil, nil))
	svc.ProcessDelivery(context.Background(), testOrder(), *validRequest().OrderPayload)

	db.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestProcessDeliveryUnknownModeParksPending(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetDeliveryMode").Return("hoverboard", nil)
	db.On("UpsertDelivery", mock.MatchedBy(func(d models.Delivery) bool {
		return d.Partner == models.PartnerUnknown && d.Status == models.DeliveryPending
	})).Return(nil)

	notifier := new(MockNotifier)
	notifier.On("Owners").Return(nil)
	notifier.On("SendOrderUpdate", mock.Anything, "919876543210", mock.Anything,
		mock.MatchedBy(func(status string) bool { return strings.Contains(status, "pending") }),
		mock.Anything).Return(nil)

	svc := newService(db, new(MockVerifier), notifier, testPolicy(nil, nil))
	svc.ProcessDelivery(context.Background(), testOrder(), *validRequest().OrderPayload)

	db.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestProcessDeliveryModeReadFailureUsesSystemPartner(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetDeliveryMode").Return("", errors.New("connection refused"))
	db.On("UpsertDelivery", mock.MatchedBy(func(d models.Delivery) bool {
		return d.Partner == models.PartnerSystem &&
			d.Status == models.DeliveryPending &&
			d.ErrorMessage != ""
	})).Return(nil)

	notifier := new(MockNotifier)
	notifier.On("Owners").Return(nil)
	notifier.On("SendOrderUpdate", mock.Anything, "919876543210", mock.Anything,
		mock.MatchedBy(func(status string) bool {
			return strings.Contains(status, "contact support") && strings.Contains(status, "refundable")
		}), mock.Anything).Return(nil)

	svc := newService(db, new(MockVerifier), notifier, testPolicy(nil, nil))
	svc.ProcessDelivery(context.Background(), testOrder(), *validRequest().OrderPayload)

	db.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestProcessDeliveryNotificationFailureAnnotatesDelivery(t *testing.T) {
	swyft := &stubProvider{
		name:    courier.ProviderSwyft,
		booking: &courier.Booking{OrderID: "SWYFT-9", Status: "created", TrackingURL: "https://t.example/9"},
	}

	db := new(MockDBLayer)
	db.On("GetDeliveryMode").Return(models.ModeSwyftOnly, nil)
	db.On("UpsertDelivery", mock.Anything).Return(nil)
	db.On("SetOrderDeliveryStatus", "order-1", models.DeliveryStatusProcessing).Return(nil)
	db.On("AppendDeliveryError", "order-1", mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	notifier := new(MockNotifier)
	notifier.On("Owners").Return(nil)
	notifier.On("SendOrderUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("template rejected"))

	svc := newService(db, new(MockVerifier), notifier, testPolicy(swyft, nil))
	svc.ProcessDelivery(context.Background(), testOrder(), *validRequest().OrderPayload)

	db.AssertExpectations(t)
}

func TestApplyPartnerUpdate(t *testing.T) {
	db := new(MockDBLayer)
	db.On("UpdateDeliveryStatusByTask", "velox", "445566", "courier_assigned", "").
		Return(&models.Delivery{OrderID: "order-1", Partner: "velox", TaskID: "445566", Status: "courier_assigned"}, nil)

	svc := newService(db, new(MockVerifier), new(MockNotifier), testPolicy(nil, nil))

	d, err := svc.ApplyPartnerUpdate("velox", "445566", "courier_assigned", "")
	require.NoError(t, err)
	assert.Equal(t, "order-1", d.OrderID)
	assert.Equal(t, "courier_assigned", d.Status)
}

func TestGetOrderScopedToUser(t *testing.T) {
	db := new(MockDBLayer)
	stored := testOrder()
	db.On("GetOrderByID", "order-1").Return(&stored, nil)

	svc := newService(db, new(MockVerifier), new(MockNotifier), testPolicy(nil, nil))

	o, err := svc.GetOrder("user-1", "order-1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", o.ID)

	_, err = svc.GetOrder("someone-else", "order-1")
	assert.Error(t, err)
}
