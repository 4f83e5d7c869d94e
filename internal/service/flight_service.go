package service

import (
	"context"

	"airport-booking/internal/database"
	"airport-booking/internal/model"
	"airport-booking/internal/repository"
	"airport-booking/internal/seat"
	apperrors "airport-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
)

type FlightService interface {
	Get(ctx context.Context, id int) (*model.FlightWithAvailability, error)
	List(ctx context.Context, filter model.FlightFilter) ([]*model.FlightWithAvailability, error)
	// 同一架飛機的航班時段不可重疊
	Create(ctx context.Context, req model.CreateFlightRequest) (*model.Flight, error)
}

type FlightServiceImpl struct {
	pool               database.TxBeginner
	repository         repository.FlightRepository
	airplaneRepository repository.AirplaneRepository
	ticketRepository   repository.TicketRepository
}

func NewFlightService(
	pool database.TxBeginner,
	flightRepository repository.FlightRepository,
	airplaneRepository repository.AirplaneRepository,
	ticketRepository repository.TicketRepository,
) FlightService {
	return &FlightServiceImpl{
		pool:               pool,
		repository:         flightRepository,
		airplaneRepository: airplaneRepository,
		ticketRepository:   ticketRepository,
	}
}

func (s *FlightServiceImpl) Get(ctx context.Context, id int) (*model.FlightWithAvailability, error) {
	flight, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tickets, err := s.ticketRepository.ListHoldingByFlight(ctx, id)
	if err != nil {
		return nil, err
	}

	ledger := seat.NewLedger(flight.Airplane, tickets)
	return &model.FlightWithAvailability{
		Flight:           flight,
		Capacity:         ledger.Capacity(),
		TicketsTaken:     ledger.TakenCount(),
		TicketsAvailable: ledger.Available(),
	}, nil
}

func (s *FlightServiceImpl) List(ctx context.Context, filter model.FlightFilter) ([]*model.FlightWithAvailability, error) {
	return s.repository.List(ctx, filter)
}

func (s *FlightServiceImpl) Create(ctx context.Context, req model.CreateFlightRequest) (*model.Flight, error) {
	if !req.ArrivalTime.After(req.DepartureTime) {
		return nil, apperrors.NewFieldError(apperrors.ErrValidation, "arrival_time",
			"arrival time must be after departure time")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 鎖定飛機列，同時建立的航班依序檢查重疊
	if _, err := s.airplaneRepository.LockByID(ctx, tx, req.AirplaneID); err != nil {
		return nil, err
	}

	overlap, err := s.repository.HasOverlap(ctx, tx, req.AirplaneID, req.DepartureTime, req.ArrivalTime)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, apperrors.ErrFlightOverlap
	}

	flight, err := s.repository.Create(ctx, tx, &model.Flight{
		RouteID:       req.RouteID,
		AirplaneID:    req.AirplaneID,
		DepartureTime: req.DepartureTime.UTC(),
		ArrivalTime:   req.ArrivalTime.UTC(),
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return s.repository.FindByID(ctx, flight.ID)
}
