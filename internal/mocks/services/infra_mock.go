package services

import (
	"context"

	"airport-booking/internal/cache"
	"airport-booking/internal/model"
	"airport-booking/internal/queue"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

// FakeTx 只實作 Commit / Rollback，其餘 pgx.Tx 方法未實作（呼叫會 panic）
type FakeTx struct {
	pgx.Tx
	Committed  bool
	RolledBack bool
	CommitErr  error
}

func (t *FakeTx) Commit(ctx context.Context) error {
	if t.CommitErr != nil {
		return t.CommitErr
	}
	t.Committed = true
	return nil
}

// Rollback commit 之後呼叫不會改變狀態，與 pgx 相同
func (t *FakeTx) Rollback(ctx context.Context) error {
	if t.Committed {
		return pgx.ErrTxClosed
	}
	t.RolledBack = true
	return nil
}

// TxBeginnerMock 每次 BeginTx 都回傳同一個 FakeTx
type TxBeginnerMock struct {
	mock.Mock
	Tx *FakeTx
}

func NewTxBeginnerMock() *TxBeginnerMock {
	return &TxBeginnerMock{Tx: &FakeTx{}}
}

func (m *TxBeginnerMock) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	if err := m.Called(ctx, opts).Error(0); err != nil {
		return nil, err
	}
	return m.Tx, nil
}

type IdempotencyStoreMock struct {
	mock.Mock
}

func NewIdempotencyStoreMock() *IdempotencyStoreMock {
	return &IdempotencyStoreMock{}
}

func (m *IdempotencyStoreMock) Claim(ctx context.Context, userID int, requestID string) (cache.ClaimResult, error) {
	args := m.Called(ctx, userID, requestID)
	return args.Get(0).(cache.ClaimResult), args.Error(1)
}

func (m *IdempotencyStoreMock) Complete(ctx context.Context, userID int, requestID string, orderID int) error {
	return m.Called(ctx, userID, requestID, orderID).Error(0)
}

func (m *IdempotencyStoreMock) Release(ctx context.Context, userID int, requestID string) error {
	return m.Called(ctx, userID, requestID).Error(0)
}

type OrderEventQueueMock struct {
	mock.Mock
}

func NewOrderEventQueueMock() *OrderEventQueueMock {
	return &OrderEventQueueMock{}
}

func (m *OrderEventQueueMock) Publish(ctx context.Context, event *model.OrderEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *OrderEventQueueMock) Subscribe(ctx context.Context) (<-chan queue.Delivery, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan queue.Delivery), args.Error(1)
}

func (m *OrderEventQueueMock) Close() error {
	return m.Called().Error(0)
}
