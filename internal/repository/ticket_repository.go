package repository

import (
	"context"
	"fmt"
	"time"

	"airport-booking/internal/model"
	apperrors "airport-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ticketSeatConstraint = "tickets_flight_row_seat_active_key"

type TicketRepository interface {
	ListHoldingByFlight(ctx context.Context, flightID int) ([]*model.Ticket, error)
	ListByOrderIDs(ctx context.Context, orderIDs []int) (map[int][]*model.Ticket, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, ticket *model.Ticket) (*model.Ticket, error)
	IsTaken(ctx context.Context, tx pgx.Tx, flightID, row int, seat string) (bool, error)
	ReleaseByOrderID(ctx context.Context, tx pgx.Tx, orderID int) (int64, error)
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{
		pool: pool,
	}
}

// Create 唯一索引衝突代表座位已被其他訂單搶先佔用
func (r *TicketRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, ticket *model.Ticket) (*model.Ticket, error) {
	query := `
		INSERT INTO tickets (flight_id, order_id, "row", seat)
		VALUES ($1, $2, $3, $4)
		RETURNING id, flight_id, order_id, "row", seat, created_at, released_at
	`

	err := tx.QueryRow(ctx, query,
		ticket.FlightID, ticket.OrderID, ticket.Row, ticket.Seat,
	).Scan(
		&ticket.ID,
		&ticket.FlightID,
		&ticket.OrderID,
		&ticket.Row,
		&ticket.Seat,
		&ticket.CreatedAt,
		&ticket.ReleasedAt,
	)

	if err != nil {
		if isUniqueViolation(err, ticketSeatConstraint) {
			return nil, apperrors.ErrSeatTaken
		}
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	return ticket, nil
}

// IsTaken 座位是否被 pending / completed 訂單佔用
func (r *TicketRepositoryImpl) IsTaken(ctx context.Context, tx pgx.Tx, flightID, row int, seat string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM tickets t
			JOIN orders o ON o.id = t.order_id
			WHERE t.flight_id = $1 AND t."row" = $2 AND t.seat = $3
			  AND o.status = ANY($4)
		)
	`

	var taken bool
	if err := tx.QueryRow(ctx, query, flightID, row, seat, holdingStatuses()).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check seat: %w", err)
	}

	return taken, nil
}

func (r *TicketRepositoryImpl) ListHoldingByFlight(ctx context.Context, flightID int) ([]*model.Ticket, error) {
	query := `
		SELECT t.id, t.flight_id, t.order_id, t."row", t.seat, t.created_at, t.released_at
		FROM tickets t
		JOIN orders o ON o.id = t.order_id
		WHERE t.flight_id = $1 AND o.status = ANY($2)
		ORDER BY t."row", t.seat
	`

	return r.list(ctx, query, flightID, holdingStatuses())
}

// ListByOrderIDs 回傳 order id 對應的票券，每張訂單內依 id 排序
func (r *TicketRepositoryImpl) ListByOrderIDs(ctx context.Context, orderIDs []int) (map[int][]*model.Ticket, error) {
	result := make(map[int][]*model.Ticket, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT id, flight_id, order_id, "row", seat, created_at, released_at
		FROM tickets
		WHERE order_id = ANY($1)
		ORDER BY order_id, id
	`

	tickets, err := r.list(ctx, query, orderIDs)
	if err != nil {
		return nil, err
	}
	for _, t := range tickets {
		result[t.OrderID] = append(result[t.OrderID], t)
	}

	return result, nil
}

// ReleaseByOrderID 訂單取消時釋放座位，讓部分唯一索引不再涵蓋這些票券
func (r *TicketRepositoryImpl) ReleaseByOrderID(ctx context.Context, tx pgx.Tx, orderID int) (int64, error) {
	query := `
		UPDATE tickets
		SET released_at = $1
		WHERE order_id = $2 AND released_at IS NULL
	`

	result, err := tx.Exec(ctx, query, time.Now().UTC(), orderID)
	if err != nil {
		return 0, fmt.Errorf("failed to release tickets: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *TicketRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]*model.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*model.Ticket, 0)

	for rows.Next() {
		var ticket model.Ticket
		err := rows.Scan(
			&ticket.ID,
			&ticket.FlightID,
			&ticket.OrderID,
			&ticket.Row,
			&ticket.Seat,
			&ticket.CreatedAt,
			&ticket.ReleasedAt,
		)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, &ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}

func holdingStatuses() []string {
	statuses := model.HoldingStatuses()
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
