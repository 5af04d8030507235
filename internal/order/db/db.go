package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-storefront/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ORDERS ----------------

// CreateOrderWithItems → insert the order and its item snapshots in one
// transaction. Either everything lands or nothing does.
func (d *DB) CreateOrderWithItems(order models.Order, items []models.OrderItem) error {
	return d.Bun.RunInTx(context.Background(), nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&order).Exec(ctx); err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if _, err := tx.NewInsert().Model(&items).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetOrderByID → fetch one order by its ID
func (d *DB) GetOrderByID(id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SetOrderDeliveryStatus → move the order's delivery-status axis without
// touching the payment-status axis.
func (d *DB) SetOrderDeliveryStatus(orderID, status string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("delivery_status = ?", status).
		Where("id = ?", orderID).
		Exec(context.Background())
	return err
}

// GetOrdersWithDeliveriesByUser → the customer-facing order history, newest
// first, each order carrying its delivery record and item snapshots.
func (d *DB) GetOrdersWithDeliveriesByUser(userID string) ([]models.OrderWithDelivery, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}

	out := make([]models.OrderWithDelivery, 0, len(orders))
	for _, order := range orders {
		row := models.OrderWithDelivery{Order: order}

		if delivery, err := d.GetDeliveryByOrder(order.ID); err == nil {
			row.TrackingURL = delivery.TrackingURL
			row.Partner = delivery.Partner
		}

		var items []models.OrderItem
		if err := d.Bun.NewSelect().
			Model(&items).
			Where("order_id = ?", order.ID).
			Scan(context.Background()); err == nil {
			row.Items = items
		}

		out = append(out, row)
	}
	return out, nil
}

// PendingOrders → orders whose delivery still needs courier attention,
// oldest first so the queue is worked in arrival order.
func (d *DB) PendingOrders() ([]models.OrderWithDelivery, error) {
	var deliveries []models.Delivery
	err := d.Bun.NewSelect().
		Model(&deliveries).
		Where("status = ?", models.DeliveryPending).
		Order("updated_at ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}

	out := make([]models.OrderWithDelivery, 0, len(deliveries))
	for _, delivery := range deliveries {
		order, err := d.GetOrderByID(delivery.OrderID)
		if err != nil {
			continue
		}
		row := models.OrderWithDelivery{
			Order:       *order,
			TrackingURL: delivery.TrackingURL,
			Partner:     delivery.Partner,
		}
		var items []models.OrderItem
		if err := d.Bun.NewSelect().
			Model(&items).
			Where("order_id = ?", order.ID).
			Scan(context.Background()); err == nil {
			row.Items = items
		}
		out = append(out, row)
	}
	return out, nil
}

// ---------------- DELIVERIES ----------------

// UpsertDelivery → insert or replace the single delivery row for an order.
// The order_id unique constraint makes repeated dispatch attempts converge
// on one row instead of stacking duplicates.
func (d *DB) UpsertDelivery(delivery models.Delivery) error {
	delivery.UpdatedAt = time.Now()
	_, err := d.Bun.NewInsert().
		Model(&delivery).
		On("CONFLICT (order_id) DO UPDATE").
		Set("partner = EXCLUDED.partner").
		Set("task_id = EXCLUDED.task_id").
		Set("status = EXCLUDED.status").
		Set("tracking_url = EXCLUDED.tracking_url").
		Set("eta = EXCLUDED.eta").
		Set("error_message = EXCLUDED.error_message").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(context.Background())
	return err
}

// GetDeliveryByOrder → fetch the delivery record for an order
func (d *DB) GetDeliveryByOrder(orderID string) (*models.Delivery, error) {
	var delivery models.Delivery
	err := d.Bun.NewSelect().
		Model(&delivery).
		Where("order_id = ?", orderID).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

// AppendDeliveryError → add an annotation to the delivery's error trail
// without wiping what is already there.
func (d *DB) AppendDeliveryError(orderID, message string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Delivery)(nil)).
		Set("error_message = COALESCE(error_message || ' | ', '') || ?", message).
		Set("updated_at = ?", time.Now()).
		Where("order_id = ?", orderID).
		Exec(context.Background())
	return err
}

// UpdateDeliveryStatusByTask → apply a partner webhook status change, keyed
// by the partner's own task id. Returns the order the task belongs to.
func (d *DB) UpdateDeliveryStatusByTask(partner, taskID, status, trackingURL string) (*models.Delivery, error) {
	var delivery models.Delivery
	err := d.Bun.NewSelect().
		Model(&delivery).
		Where("partner = ? AND task_id = ?", partner, taskID).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}

	update := d.Bun.NewUpdate().
		Model((*models.Delivery)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("partner = ? AND task_id = ?", partner, taskID)
	if trackingURL != "" {
		update = update.Set("tracking_url = ?", trackingURL)
	}
	if _, err := update.Exec(context.Background()); err != nil {
		return nil, err
	}

	delivery.Status = status
	if trackingURL != "" {
		delivery.TrackingURL = trackingURL
	}
	return &delivery, nil
}

// ---------------- SETTINGS ----------------

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

// GetDeliveryMode reads the dispatch mode fresh from the database. A
// missing row means manual: orders queue for staff rather than guessing a
// courier. This read is deliberately never cached.
func (d *DB) GetDeliveryMode() (string, error) {
	mode, err := d.GetSetting(models.SettingDeliveryMode)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ModeManual, nil
	}
	if err != nil {
		return "", err
	}
	if mode == "" {
		return models.ModeManual, nil
	}
	return mode, nil
}

// UpsertSetting → insert or overwrite one store setting
func (d *DB) UpsertSetting(key, value string) error {
	setting := models.StoreSetting{Key: key, Value: value, UpdatedAt: time.Now()}
	_, err := d.Bun.NewInsert().
		Model(&setting).
		On("CONFLICT (setting_key) DO UPDATE").
		Set("setting_value = EXCLUDED.setting_value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(context.Background())
	return err
}
