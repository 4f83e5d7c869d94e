package queue

import (
	"context"
	"fmt"

	"airport-booking/config"
	"airport-booking/internal/model"

	"github.com/redis/go-redis/v9"
)

type Delivery struct {
	Data *model.OrderEvent
	Ack  func()
	Nack func(requeue bool)
}

type OrderEventQueue interface {
	// 發送訂單事件到隊列
	Publish(ctx context.Context, event *model.OrderEvent) error
	// 訂閱訂單事件隊列
	Subscribe(ctx context.Context) (<-chan Delivery, error)
	Close() error
}

type MemoryOrderEventQueue struct {
	// 使用 Go channel 來模擬 MQ 隊列
	ch chan *model.OrderEvent
}

func NewMemoryOrderEventQueue(bufferSize int) OrderEventQueue {
	return &MemoryOrderEventQueue{
		ch: make(chan *model.OrderEvent, bufferSize),
	}
}

// Publish 隊列已滿時依 ctx 等待，不會無限阻塞
func (q *MemoryOrderEventQueue) Publish(ctx context.Context, event *model.OrderEvent) error {
	select {
	case q.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryOrderEventQueue) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-q.ch:
				d := Delivery{
					Data: event,
					Ack:  func() {},
					Nack: func(requeue bool) {
						if requeue {
							select {
							case q.ch <- event:
							default:
							}
						}
					},
				}
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (q *MemoryOrderEventQueue) Close() error {
	return nil
}

// New 依 EVENTS_BROKER 建立隊列：memory、redis（Redis Stream）或 amqp（RabbitMQ）
func New(cfg config.EventsConfig, rdb *redis.Client) (OrderEventQueue, error) {
	switch cfg.Broker {
	case "memory":
		return NewMemoryOrderEventQueue(cfg.BufferSize), nil
	case "redis":
		return NewRedisStreamOrderEventQueue(rdb, cfg.ConsumerID, nil)
	case "amqp":
		return NewAMQPOrderEventQueue(cfg.AMQPURL, cfg.AMQPQueue)
	default:
		return nil, fmt.Errorf("unknown events broker %q", cfg.Broker)
	}
}
