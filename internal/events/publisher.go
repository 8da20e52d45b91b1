package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aurelle-beauty/commerce-platform/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	OrderCreatedQueue = "order.created"
	OrderPaidQueue    = "order.paid"
)

type orderEvent struct {
	EventType string           `json:"event_type"`
	OrderID   string           `json:"order_id"`
	UserID    string           `json:"user_id"`
	Provider  string           `json:"provider"`
	Total     float64          `json:"total"`
	Items     []orderEventItem `json:"items"`
	Timestamp time.Time        `json:"timestamp"`
}

type orderEventItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Publisher emits order lifecycle events for downstream consumers
// (fulfilment, analytics). All publishes are best-effort from the caller's
// point of view.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order, provider string) error
	PublishOrderPaid(ctx context.Context, order *models.Order, provider string) error
	Close() error
}

type amqpPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(amqpURL string) (Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare queues so publish never fails due to missing infra
	for _, queue := range []string{OrderCreatedQueue, OrderPaidQueue} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			conn.Close()

			return nil, fmt.Errorf("declare %s: %w", queue, err)
		}
	}

	return &amqpPublisher{conn: conn, ch: ch}, nil
}

func (p *amqpPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		return err
	}

	return p.conn.Close()
}

func (p *amqpPublisher) PublishOrderCreated(ctx context.Context, order *models.Order, provider string) error {
	return p.publish(ctx, OrderCreatedQueue, "OrderCreated", order, provider)
}

func (p *amqpPublisher) PublishOrderPaid(ctx context.Context, order *models.Order, provider string) error {
	return p.publish(ctx, OrderPaidQueue, "OrderPaid", order, provider)
}

func (p *amqpPublisher) publish(ctx context.Context, queue, eventType string, order *models.Order, provider string) error {
	ev := orderEvent{
		EventType: eventType,
		OrderID:   order.ID.String(),
		UserID:    order.UserID.String(),
		Provider:  provider,
		Total:     order.Total,
		Timestamp: time.Now().UTC(),
	}

	for _, item := range order.Items {
		ev.Items = append(ev.Items, orderEventItem{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}

	return p.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}
