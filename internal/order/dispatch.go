package order

import (
	"context"
	"fmt"

	"ms-storefront/internal/courier"
	"ms-storefront/internal/models"
)

// ProcessDelivery runs the courier phase for a finalized order. It never
// returns an error: every failure path converges on a PENDING delivery row
// carrying an annotation, so staff can pick the order up manually. The
// delivery mode is read fresh here, not at checkout time.
func (s *OrderService) ProcessDelivery(ctx context.Context, order models.Order, payload models.OrderPayload) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("DELIVERY", fmt.Sprintf("Dispatch panicked for order %s: %v", order.ID, r))
			s.markPending(ctx, order, payload, models.PartnerSystem, fmt.Sprintf("background failure: %v", r))
		}
	}()

	mode, err := s.DB.GetDeliveryMode()
	if err != nil {
		s.markPending(ctx, order, payload, models.PartnerSystem, fmt.Sprintf("background failure: %v", err))
		return
	}
	s.Logger.LogDelivery("dispatch", order.ID, fmt.Sprintf("Dispatching under mode %q", mode))

	switch mode {
	case models.ModeManual:
		s.markPending(ctx, order, payload, models.PartnerManual, "manual mode chosen by admin")

	case models.ModeSwyftOnly:
		s.bookWith(ctx, s.Policy.Swyft, order, payload)

	case models.ModeVeloxOnly:
		s.bookWith(ctx, s.Policy.Velox, order, payload)

	case models.ModeAutomatic:
		// The winning partner was chosen at fee-estimate time and rode
		// along in the payload; no second quote round here.
		provider := s.Policy.ProviderFor(payload.ChosenPartner)
		if provider == nil {
			s.markPending(ctx, order, payload, models.PartnerUnknown,
				fmt.Sprintf("automatic mode has no usable partner (chosen %q)", payload.ChosenPartner))
			return
		}
		s.bookWith(ctx, provider, order, payload)

	default:
		s.markPending(ctx, order, payload, models.PartnerUnknown, fmt.Sprintf("unknown delivery mode %q", mode))
	}
}

// bookWith books the order with one provider and records the outcome. A
// booking failure is not an order failure: the delivery parks as PENDING
// with the provider's error attached.
func (s *OrderService) bookWith(ctx context.Context, provider courier.Provider, order models.Order, payload models.OrderPayload) {
	booking, err := provider.CreateOrder(ctx, payload.Address, payload.Cart, order.ID)
	if err != nil {
		s.Logger.LogDelivery(provider.Name(), order.ID, fmt.Sprintf("Booking failed: %v", err))
		s.markPending(ctx, order, payload, provider.Name(), fmt.Sprintf("%s booking failed: %v", provider.Name(), err))
		return
	}

	record := models.Delivery{
		OrderID:     order.ID,
		Partner:     provider.Name(),
		TaskID:      booking.OrderID,
		Status:      booking.Status,
		TrackingURL: booking.TrackingURL,
		ETA:         booking.ETA,
	}
	if err := s.DB.UpsertDelivery(record); err != nil {
		s.Logger.LogDatabase("UPSERT", "deliveries", fmt.Sprintf("Delivery upsert failed for order %s: %v", order.ID, err))
		return
	}
	if err := s.DB.SetOrderDeliveryStatus(order.ID, models.DeliveryStatusProcessing); err != nil {
		s.Logger.LogDatabase("UPDATE", "orders", fmt.Sprintf("Delivery status update failed for order %s: %v", order.ID, err))
	}
	s.Logger.LogDelivery(provider.Name(), order.ID, fmt.Sprintf("Booked task %s", booking.OrderID))
	s.publishDeliveryUpdate(record)

	manifest := courier.Manifest(payload.Cart)
	tracking := booking.TrackingURL
	if tracking == "" {
		tracking = "Tracking link will follow shortly"
	}

	if err := s.Notify.SendOrderUpdate(ctx, order.Phone, manifest, "confirmed and out for dispatch", tracking); err != nil {
		s.noteNotifyFailure(order.ID, "customer", err)
	}
	for _, owner := range s.Notify.Owners() {
		if err := s.Notify.SendOwnerAlert(ctx, owner, order.ID, order.CustomerName,
			payload.Address.FullLine(), order.Phone, manifest, tracking); err != nil {
			s.noteNotifyFailure(order.ID, "owner", err)
		}
	}
}

// markPending parks the delivery for manual handling. This is the terminal
// state for every dispatch problem, so it must not itself throw: secondary
// failures are logged and swallowed.
func (s *OrderService) markPending(ctx context.Context, order models.Order, payload models.OrderPayload, partner, annotation string) {
	record := models.Delivery{
		OrderID:      order.ID,
		Partner:      partner,
		Status:       models.DeliveryPending,
		ErrorMessage: annotation,
	}
	if err := s.DB.UpsertDelivery(record); err != nil {
		s.Logger.LogDatabase("UPSERT", "deliveries", fmt.Sprintf("Pending upsert failed for order %s: %v", order.ID, err))
		return
	}
	s.Logger.LogDelivery(partner, order.ID, fmt.Sprintf("Parked as PENDING: %s", annotation))
	s.publishDeliveryUpdate(record)

	manifest := courier.Manifest(payload.Cart)
	statusLine := "pending, our team is arranging delivery"
	if partner == models.PartnerSystem {
		// System faults carry the support and refund line.
		statusLine = "pending, please contact support if not confirmed shortly; your payment is safe and fully refundable"
	}
	if err := s.Notify.SendOrderUpdate(ctx, order.Phone, manifest, statusLine,
		"Our team will share tracking details shortly"); err != nil {
		s.noteNotifyFailure(order.ID, "customer", err)
	}
	for _, owner := range s.Notify.Owners() {
		if err := s.Notify.SendOwnerAlert(ctx, owner, order.ID, order.CustomerName,
			payload.Address.FullLine(), order.Phone, manifest, "NEEDS MANUAL BOOKING"); err != nil {
			s.noteNotifyFailure(order.ID, "owner", err)
		}
	}
}

// noteNotifyFailure appends a notification failure to the delivery's error
// trail without disturbing the booking fields.
func (s *OrderService) noteNotifyFailure(orderID, audience string, err error) {
	s.Logger.Warn("NOTIFY", fmt.Sprintf("Failed to notify %s for order %s: %v", audience, orderID, err))
	if dbErr := s.DB.AppendDeliveryError(orderID, fmt.Sprintf("%s notification failed: %v", audience, err)); dbErr != nil {
		s.Logger.LogDatabase("UPDATE", "deliveries", fmt.Sprintf("Error annotation failed for order %s: %v", orderID, dbErr))
	}
}

func (s *OrderService) publishDeliveryUpdate(record models.Delivery) {
	if s.Kafka == nil {
		return
	}
	if err := s.Kafka.PublishDeliveryUpdated(record); err != nil {
		s.Logger.LogKafka("PUBLISH", "delivery_updated", fmt.Sprintf("Publish failed for delivery %s: %v", record.OrderID, err))
	}
}
