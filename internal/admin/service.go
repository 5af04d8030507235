package admin

import (
	"context"
	"errors"
	"fmt"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
)

var ErrInvalidMode = errors.New("invalid delivery mode")

type DBLayer interface {
	GetOrderByID(id string) (*models.Order, error)
	PendingOrders() ([]models.OrderWithDelivery, error)
	UpsertDelivery(delivery models.Delivery) error
	SetOrderDeliveryStatus(orderID, status string) error
	GetDeliveryMode() (string, error)
	UpsertSetting(key, value string) error
}

type Notifier interface {
	SendOrderUpdate(ctx context.Context, phone, manifest, status, tracking string) error
}

type KafkaPublisher interface {
	PublishDeliveryUpdated(delivery models.Delivery) error
}

// CacheInvalidator drops cached public settings after an admin write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, key string)
}

// AdminService covers the operations-team surface: switching the dispatch
// mode, working the pending queue, and resolving stuck orders by hand.
type AdminService struct {
	DB     DBLayer
	Notify Notifier
	Kafka  KafkaPublisher
	Cache  CacheInvalidator
	Logger *logger.Logger
}

func NewAdminService(db DBLayer, notify Notifier, kafka KafkaPublisher, cache CacheInvalidator, log *logger.Logger) *AdminService {
	return &AdminService{DB: db, Notify: notify, Kafka: kafka, Cache: cache, Logger: log}
}

// DeliveryMode returns the currently configured dispatch mode.
func (s *AdminService) DeliveryMode() (string, error) {
	return s.DB.GetDeliveryMode()
}

// SetDeliveryMode switches the dispatch mode. The change applies to the
// next dispatch immediately since mode reads are never cached.
func (s *AdminService) SetDeliveryMode(mode string) error {
	switch mode {
	case models.ModeManual, models.ModeSwyftOnly, models.ModeVeloxOnly, models.ModeAutomatic:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if err := s.DB.UpsertSetting(models.SettingDeliveryMode, mode); err != nil {
		return err
	}
	s.Logger.Info("ADMIN", fmt.Sprintf("Delivery mode set to %q", mode))
	return nil
}

// SetPublicSetting updates a cached public setting (store open flag,
// platform fee, surge fee) and invalidates its cache entry.
func (s *AdminService) SetPublicSetting(ctx context.Context, key, value string) error {
	switch key {
	case models.SettingStoreOpen, models.SettingPlatformFee, models.SettingSurgeFee:
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	if err := s.DB.UpsertSetting(key, value); err != nil {
		return err
	}
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, key)
	}
	s.Logger.Info("ADMIN", fmt.Sprintf("Setting %s updated to %q", key, value))
	return nil
}

// PendingOrders lists orders parked for manual courier handling.
func (s *AdminService) PendingOrders() ([]models.OrderWithDelivery, error) {
	return s.DB.PendingOrders()
}

// ManualBookRequest is staff input after arranging a courier out of band.
type ManualBookRequest struct {
	Partner     string `json:"partner"`
	TaskID      string `json:"task_id"`
	TrackingURL string `json:"tracking_url"`
}

// ManualBook resolves a parked order: staff arranged a courier outside the
// system and record the outcome here. The delivery row is replaced
// wholesale, clearing any accumulated error trail.
func (s *AdminService) ManualBook(ctx context.Context, orderID string, req ManualBookRequest) (*models.Delivery, error) {
	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s not found: %w", orderID, err)
	}

	partner := req.Partner
	if partner == "" {
		partner = models.PartnerManual
	}
	taskID := req.TaskID
	if taskID == "" {
		taskID = "MANUAL"
	}

	record := models.Delivery{
		OrderID:     order.ID,
		Partner:     partner,
		TaskID:      taskID,
		Status:      models.DeliveryShipped,
		TrackingURL: req.TrackingURL,
	}
	if err := s.DB.UpsertDelivery(record); err != nil {
		return nil, err
	}
	if err := s.DB.SetOrderDeliveryStatus(order.ID, models.DeliveryStatusProcessing); err != nil {
		s.Logger.LogDatabase("UPDATE", "orders", fmt.Sprintf("Delivery status update failed for order %s: %v", order.ID, err))
	}
	s.Logger.LogDelivery(partner, order.ID, "Manually booked by admin")

	if s.Kafka != nil {
		if err := s.Kafka.PublishDeliveryUpdated(record); err != nil {
			s.Logger.LogKafka("PUBLISH", "delivery_updated", fmt.Sprintf("Publish failed for delivery %s: %v", order.ID, err))
		}
	}

	if s.Notify != nil {
		tracking := req.TrackingURL
		if tracking == "" {
			tracking = "Our team will share tracking details shortly"
		}
		if err := s.Notify.SendOrderUpdate(ctx, order.Phone, "your order", "shipped", tracking); err != nil {
			s.Logger.Warn("NOTIFY", fmt.Sprintf("Failed to notify customer for order %s: %v", order.ID, err))
		}
	}

	return &record, nil
}
