package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"airport-booking/internal/model"
	apperrors "airport-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository interface {
	List(ctx context.Context, filter model.OrderFilter) ([]*model.Order, error)
	FindByID(ctx context.Context, id int) (*model.Order, error)
	FindByRequestID(ctx context.Context, userID int, requestID string) (*model.Order, error)
	ListStalePendingIDs(ctx context.Context, before time.Time, limit int) ([]int, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, order *model.Order) (*model.Order, error)
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Order, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.OrderStatus) (*model.Order, error)
}

type OrderRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &OrderRepositoryImpl{
		pool: pool,
	}
}

func (r *OrderRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, order *model.Order) (*model.Order, error) {
	query := `
		INSERT INTO orders (request_id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, request_id, user_id, status, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		order.RequestID, order.UserID, order.Status,
	).Scan(
		&order.ID,
		&order.RequestID,
		&order.UserID,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "orders_user_request_key") {
			return nil, apperrors.ErrDuplicateRequest
		}
		if isForeignKeyViolation(err, "orders_user_id_fkey") {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return order, nil
}

// List 依建立時間由新到舊；UserID 為 0 時不限使用者
func (r *OrderRepositoryImpl) List(ctx context.Context, filter model.OrderFilter) ([]*model.Order, error) {
	query := `
		SELECT id, request_id, user_id, status, created_at, updated_at
		FROM orders
		WHERE ($1 = 0 OR user_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, filter.UserID, string(filter.Status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*model.Order, 0)

	for rows.Next() {
		var order model.Order
		err := rows.Scan(
			&order.ID,
			&order.RequestID,
			&order.UserID,
			&order.Status,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *OrderRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Order, error) {
	query := `
		SELECT id, request_id, user_id, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var order model.Order
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.RequestID,
		&order.UserID,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}

	return &order, nil
}

// FindByRequestID 以使用者與 request id 查詢先前建立的訂單
func (r *OrderRepositoryImpl) FindByRequestID(ctx context.Context, userID int, requestID string) (*model.Order, error) {
	query := `
		SELECT id, request_id, user_id, status, created_at, updated_at
		FROM orders
		WHERE user_id = $1 AND request_id = $2
	`

	var order model.Order
	err := r.pool.QueryRow(ctx, query, userID, requestID).Scan(
		&order.ID,
		&order.RequestID,
		&order.UserID,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}

	return &order, nil
}

// FindByIDWithLock 狀態轉換前鎖定訂單列，complete 與 cancel 互斥
func (r *OrderRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Order, error) {
	query := `
		SELECT id, request_id, user_id, status, created_at, updated_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`

	var order model.Order
	err := tx.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.RequestID,
		&order.UserID,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	return &order, nil
}

func (r *OrderRepositoryImpl) UpdateStatus(
	ctx context.Context,
	tx pgx.Tx,
	id int,
	status model.OrderStatus,
) (*model.Order, error) {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING id, request_id, user_id, status, created_at, updated_at
	`

	var order model.Order

	err := tx.QueryRow(ctx, query, status, time.Now().UTC(), id).Scan(
		&order.ID,
		&order.RequestID,
		&order.UserID,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	return &order, nil
}

// ListStalePendingIDs 建立時間早於 before 仍為 pending 的訂單，最舊的優先
func (r *OrderRepositoryImpl) ListStalePendingIDs(ctx context.Context, before time.Time, limit int) ([]int, error) {
	query := `
		SELECT id
		FROM orders
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, model.OrderStatusPending, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}
