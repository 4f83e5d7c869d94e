package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"airport-booking/internal/model"
	"airport-booking/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const amqpPrefetch = 50

// AMQPOrderEventQueue RabbitMQ 版本：durable queue、persistent 訊息、手動 ack
type AMQPOrderEventQueue struct {
	conn      *amqp.Connection
	queueName string

	mu    sync.Mutex
	pubCh *amqp.Channel
}

func NewAMQPOrderEventQueue(url, queueName string) (OrderEventQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}

	if _, err := declareQueue(ch, queueName); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &AMQPOrderEventQueue{
		conn:      conn,
		queueName: queueName,
		pubCh:     ch,
	}, nil
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return q, fmt.Errorf("queue declare: %w", err)
	}
	return q, nil
}

// Publish amqp.Channel 不可併發使用，以 mutex 保護發送 channel
func (q *AMQPOrderEventQueue) Publish(ctx context.Context, event *model.OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID,
		Type:         string(event.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.pubCh.PublishWithContext(ctx, "", q.queueName, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (q *AMQPOrderEventQueue) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	ch, err := q.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if err := ch.Qos(amqpPrefetch, 0, false); err != nil {
		logger.WithComponent("mq").Warn("set QoS failed", zap.Error(err))
	}
	if _, err := declareQueue(ch, q.queueName); err != nil {
		_ = ch.Close()
		return nil, err
	}

	msgs, err := ch.Consume(q.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("queue consume: %w", err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		defer func() { _ = ch.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.WithComponent("mq").Warn("deliveries channel closed")
					return
				}
				d := newAMQPDelivery(msg)
				if d == nil {
					continue
				}
				select {
				case out <- *d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// newAMQPDelivery 無法解析的訊息直接 reject，不重新排入
func newAMQPDelivery(msg amqp.Delivery) *Delivery {
	var event model.OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		logger.WithComponent("mq").Warn("unmarshal event failed", zap.String("message_id", msg.MessageId), zap.Error(err))
		_ = msg.Nack(false, false)
		return nil
	}
	return &Delivery{
		Data: &event,
		Ack: func() {
			if err := msg.Ack(false); err != nil {
				logger.WithComponent("mq").Error("ack failed", zap.String("message_id", msg.MessageId), zap.Error(err))
			}
		},
		Nack: func(requeue bool) {
			if err := msg.Nack(false, requeue); err != nil {
				logger.WithComponent("mq").Error("nack failed", zap.String("message_id", msg.MessageId), zap.Error(err))
			}
		},
	}
}

func (q *AMQPOrderEventQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	_ = q.pubCh.Close()
	return q.conn.Close()
}
