package worker

import (
	"context"
	"time"

	"airport-booking/config"
	"airport-booking/internal/service"
	"airport-booking/pkg/logger"

	"go.uber.org/zap"
)

// ExpiryWorker 定期取消逾時未完成的 pending 訂單，釋放座位
type ExpiryWorker struct {
	service  service.OrderService
	ttl      time.Duration
	interval time.Duration
	batch    int
	now      func() time.Time
}

func NewExpiryWorker(service service.OrderService, cfg config.BookingConfig) *ExpiryWorker {
	return &ExpiryWorker{
		service:  service,
		ttl:      cfg.PendingTTL,
		interval: cfg.SweepInterval,
		batch:    cfg.SweepBatch,
		now:      time.Now,
	}
}

// Start 阻塞直到 ctx 結束；ttl <= 0 時不啟動
func (w *ExpiryWorker) Start(ctx context.Context) error {
	if w.ttl <= 0 {
		logger.WithComponent("worker").Info("pending order expiry disabled")
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep 執行一輪清理，一次最多處理 batch 筆，回傳取消筆數
func (w *ExpiryWorker) Sweep(ctx context.Context) int {
	cutoff := w.now().Add(-w.ttl)
	n, err := w.service.ExpirePending(ctx, cutoff, w.batch)
	if err != nil && ctx.Err() == nil {
		logger.WithComponent("worker").Error("expire pending orders failed", zap.Error(err))
	}
	if n > 0 {
		logger.WithComponent("worker").Info("expired pending orders",
			zap.Int("count", n), zap.Time("cutoff", cutoff))
	}
	return n
}
