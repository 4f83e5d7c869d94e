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

type FlightRepository interface {
	FindByID(ctx context.Context, id int) (*model.Flight, error)
	List(ctx context.Context, filter model.FlightFilter) ([]*model.FlightWithAvailability, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, flight *model.Flight) (*model.Flight, error)
	LockForBooking(ctx context.Context, tx pgx.Tx, id int) (*model.Flight, error)
	HasOverlap(ctx context.Context, tx pgx.Tx, airplaneID int, departure, arrival time.Time) (bool, error)
}

type FlightRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewFlightRepository(pool *pgxpool.Pool) FlightRepository {
	return &FlightRepositoryImpl{
		pool: pool,
	}
}

const flightColumns = `
	f.id, f.route_id, f.airplane_id, f.departure_time, f.arrival_time,
	a.id, a.name, a.rows, a.seats_in_row, COALESCE(a.airplane_type_id, 0),
	r.id, src.code, dst.code, r.distance
`

const flightJoins = `
	FROM flights f
	JOIN airplanes a ON a.id = f.airplane_id
	JOIN routes r ON r.id = f.route_id
	JOIN airports src ON src.id = r.source_id
	JOIN airports dst ON dst.id = r.destination_id
`

func flightScanDest(flight *model.Flight) []any {
	flight.Airplane = &model.Airplane{}
	flight.Route = &model.Route{}
	return []any{
		&flight.ID,
		&flight.RouteID,
		&flight.AirplaneID,
		&flight.DepartureTime,
		&flight.ArrivalTime,
		&flight.Airplane.ID,
		&flight.Airplane.Name,
		&flight.Airplane.Rows,
		&flight.Airplane.SeatsInRow,
		&flight.Airplane.AirplaneTypeID,
		&flight.Route.ID,
		&flight.Route.Source,
		&flight.Route.Destination,
		&flight.Route.Distance,
	}
}

func (r *FlightRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Flight, error) {
	query := `SELECT ` + flightColumns + flightJoins + `WHERE f.id = $1`

	var flight model.Flight
	err := r.pool.QueryRow(ctx, query, id).Scan(flightScanDest(&flight)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrFlightNotFound
		}
		return nil, err
	}

	return &flight, nil
}

// LockForBooking 鎖定航班列，同一航班的出票在交易內依序進行
func (r *FlightRepositoryImpl) LockForBooking(ctx context.Context, tx pgx.Tx, id int) (*model.Flight, error) {
	query := `SELECT ` + flightColumns + flightJoins + `WHERE f.id = $1 FOR UPDATE OF f`

	var flight model.Flight
	err := tx.QueryRow(ctx, query, id).Scan(flightScanDest(&flight)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrFlightNotFound
		}
		return nil, fmt.Errorf("failed to lock flight: %w", err)
	}

	return &flight, nil
}

func (r *FlightRepositoryImpl) List(ctx context.Context, filter model.FlightFilter) ([]*model.FlightWithAvailability, error) {
	query := `SELECT ` + flightColumns + `, COALESCE(t.taken, 0)` + flightJoins + `
		LEFT JOIN (
			SELECT tk.flight_id, COUNT(*) AS taken
			FROM tickets tk
			JOIN orders o ON o.id = tk.order_id
			WHERE o.status = ANY($4)
			GROUP BY tk.flight_id
		) t ON t.flight_id = f.id
		WHERE ($1::date IS NULL OR (f.departure_time AT TIME ZONE 'UTC')::date = $1::date)
		  AND ($2 = '' OR src.code ILIKE $2)
		  AND ($3 = '' OR dst.code ILIKE $3)
		ORDER BY f.departure_time, f.id
	`

	rows, err := r.pool.Query(ctx, query, filter.Date, filter.Source, filter.Destination, holdingStatuses())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]*model.FlightWithAvailability, 0)

	for rows.Next() {
		var flight model.Flight
		var taken int
		dest := append(flightScanDest(&flight), &taken)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		capacity := flight.Airplane.Capacity()
		flights = append(flights, &model.FlightWithAvailability{
			Flight:           &flight,
			Capacity:         capacity,
			TicketsTaken:     taken,
			TicketsAvailable: capacity - taken,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return flights, nil
}

func (r *FlightRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, flight *model.Flight) (*model.Flight, error) {
	query := `
		INSERT INTO flights (route_id, airplane_id, departure_time, arrival_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := tx.QueryRow(ctx, query,
		flight.RouteID, flight.AirplaneID, flight.DepartureTime, flight.ArrivalTime,
	).Scan(&flight.ID)

	if err != nil {
		if isForeignKeyViolation(err, "flights_route_id_fkey") {
			return nil, apperrors.ErrRouteNotFound
		}
		if isForeignKeyViolation(err, "flights_airplane_id_fkey") {
			return nil, apperrors.ErrAirplaneNotFound
		}
		return nil, fmt.Errorf("failed to create flight: %w", err)
	}

	return flight, nil
}

// HasOverlap 同一架飛機在 [departure, arrival) 內是否已有航班
func (r *FlightRepositoryImpl) HasOverlap(ctx context.Context, tx pgx.Tx, airplaneID int, departure, arrival time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM flights
			WHERE airplane_id = $1
			  AND departure_time < $3
			  AND arrival_time > $2
		)
	`

	var exists bool
	if err := tx.QueryRow(ctx, query, airplaneID, departure, arrival).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}
