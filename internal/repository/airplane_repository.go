package repository

import (
	"context"
	"errors"
	"fmt"

	"airport-booking/internal/model"
	apperrors "airport-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AirplaneRepository interface {
	Create(ctx context.Context, airplane *model.Airplane) (*model.Airplane, error)
	FindByID(ctx context.Context, id int) (*model.Airplane, error)

	// Transaction methods
	LockByID(ctx context.Context, tx pgx.Tx, id int) (*model.Airplane, error)
}

type AirplaneRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewAirplaneRepository(pool *pgxpool.Pool) AirplaneRepository {
	return &AirplaneRepositoryImpl{
		pool: pool,
	}
}

func (r *AirplaneRepositoryImpl) Create(ctx context.Context, airplane *model.Airplane) (*model.Airplane, error) {
	query := `
		INSERT INTO airplanes (name, rows, seats_in_row, airplane_type_id)
		VALUES ($1, $2, $3, NULLIF($4, 0))
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		airplane.Name, airplane.Rows, airplane.SeatsInRow, airplane.AirplaneTypeID,
	).Scan(&airplane.ID)

	if err != nil {
		return nil, fmt.Errorf("failed to create airplane: %w", err)
	}

	return airplane, nil
}

func (r *AirplaneRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Airplane, error) {
	query := `
		SELECT id, name, rows, seats_in_row, COALESCE(airplane_type_id, 0)
		FROM airplanes
		WHERE id = $1
	`

	var airplane model.Airplane
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&airplane.ID,
		&airplane.Name,
		&airplane.Rows,
		&airplane.SeatsInRow,
		&airplane.AirplaneTypeID,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAirplaneNotFound
		}
		return nil, err
	}

	return &airplane, nil
}

// LockByID 建立航班前鎖定飛機，避免同時排入重疊的航班
func (r *AirplaneRepositoryImpl) LockByID(ctx context.Context, tx pgx.Tx, id int) (*model.Airplane, error) {
	query := `
		SELECT id, name, rows, seats_in_row, COALESCE(airplane_type_id, 0)
		FROM airplanes
		WHERE id = $1
		FOR UPDATE
	`

	var airplane model.Airplane
	err := tx.QueryRow(ctx, query, id).Scan(
		&airplane.ID,
		&airplane.Name,
		&airplane.Rows,
		&airplane.SeatsInRow,
		&airplane.AirplaneTypeID,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAirplaneNotFound
		}
		return nil, fmt.Errorf("failed to lock airplane: %w", err)
	}

	return &airplane, nil
}
