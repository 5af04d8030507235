package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"ms-storefront/internal/models"
)

// Producer streams order and delivery lifecycle events. Publishing is
// best-effort: callers log failures and carry on, the order flow never
// blocks on the broker.
type Producer struct {
	orderWriter    *kafka.Writer
	deliveryWriter *kafka.Writer
}

func NewProducer(brokers []string, orderTopic, deliveryTopic string) *Producer {
	return &Producer{
		orderWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   orderTopic,
		}),
		deliveryWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   deliveryTopic,
		}),
	}
}

// PublishOrderCreated streams a finalized order onto the order topic,
// keyed by order id.
func (p *Producer) PublishOrderCreated(order models.Order) error {
	msgBytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return p.orderWriter.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(order.ID),
			Value: msgBytes,
		},
	)
}

// PublishDeliveryUpdated streams a delivery state change onto the delivery
// topic, keyed by the order id the delivery belongs to.
func (p *Producer) PublishDeliveryUpdated(delivery models.Delivery) error {
	msgBytes, err := json.Marshal(delivery)
	if err != nil {
		return err
	}
	return p.deliveryWriter.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(delivery.OrderID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	if err := p.orderWriter.Close(); err != nil {
		return err
	}
	return p.deliveryWriter.Close()
}
