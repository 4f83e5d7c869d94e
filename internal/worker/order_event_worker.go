package worker

import (
	"context"

	"airport-booking/internal/model"
	"airport-booking/internal/queue"
	"airport-booking/pkg/logger"

	"go.uber.org/zap"
)

// OrderEventHandler 處理單一訂單事件，回傳錯誤時訊息會重新排入
type OrderEventHandler interface {
	Handle(ctx context.Context, event *model.OrderEvent) error
}

type OrderEventHandlerFunc func(ctx context.Context, event *model.OrderEvent) error

func (f OrderEventHandlerFunc) Handle(ctx context.Context, event *model.OrderEvent) error {
	return f(ctx, event)
}

// LogOrderEvent 預設的事件處理：寫入結構化日誌
func LogOrderEvent(_ context.Context, event *model.OrderEvent) error {
	seats := make([]string, 0, len(event.Seats))
	for _, s := range event.Seats {
		seats = append(seats, s.Seat)
	}
	logger.WithComponent("order_events").Info("order event",
		zap.String("event_id", event.EventID),
		zap.String("type", string(event.Type)),
		zap.Int("order_id", event.OrderID),
		zap.Int("user_id", event.UserID),
		zap.String("status", string(event.Status)),
		zap.Strings("seats", seats),
		zap.Time("occurred_at", event.OccurredAt),
	)
	return nil
}

type OrderEventWorker interface {
	// 訂閱事件隊列，阻塞直到 ctx 結束
	Start(ctx context.Context) error
}

type OrderEventWorkerImpl struct {
	queue   queue.OrderEventQueue
	handler OrderEventHandler
}

func NewOrderEventWorker(q queue.OrderEventQueue, handler OrderEventHandler) OrderEventWorker {
	if handler == nil {
		handler = OrderEventHandlerFunc(LogOrderEvent)
	}
	return &OrderEventWorkerImpl{
		queue:   q,
		handler: handler,
	}
}

func (w *OrderEventWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.Subscribe(ctx)
	if err != nil {
		return err
	}

	for msg := range msgs {
		if err := w.handler.Handle(ctx, msg.Data); err != nil {
			logger.WithComponent("worker").Warn("handle order event failed",
				zap.String("event_id", msg.Data.EventID), zap.Error(err))
			msg.Nack(true)
			continue
		}
		msg.Ack()
	}

	return nil
}
