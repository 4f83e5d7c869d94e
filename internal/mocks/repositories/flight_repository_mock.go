package repositories

import (
	"context"
	"time"

	"airport-booking/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type FlightRepositoryMock struct {
	mock.Mock
}

func NewFlightRepositoryMock() *FlightRepositoryMock {
	return &FlightRepositoryMock{}
}

func (m *FlightRepositoryMock) FindByID(ctx context.Context, id int) (*model.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Flight), args.Error(1)
}

func (m *FlightRepositoryMock) List(ctx context.Context, filter model.FlightFilter) ([]*model.FlightWithAvailability, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.FlightWithAvailability), args.Error(1)
}

func (m *FlightRepositoryMock) Create(ctx context.Context, tx pgx.Tx, flight *model.Flight) (*model.Flight, error) {
	args := m.Called(ctx, tx, flight)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Flight), args.Error(1)
}

func (m *FlightRepositoryMock) LockForBooking(ctx context.Context, tx pgx.Tx, id int) (*model.Flight, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Flight), args.Error(1)
}

func (m *FlightRepositoryMock) HasOverlap(ctx context.Context, tx pgx.Tx, airplaneID int, departure, arrival time.Time) (bool, error) {
	args := m.Called(ctx, tx, airplaneID, departure, arrival)
	return args.Bool(0), args.Error(1)
}
