package services

import (
	"context"

	"airport-booking/internal/model"

	"github.com/stretchr/testify/mock"
)

type FlightServiceMock struct {
	mock.Mock
}

func NewFlightServiceMock() *FlightServiceMock {
	return &FlightServiceMock{}
}

func (m *FlightServiceMock) Get(ctx context.Context, id int) (*model.FlightWithAvailability, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FlightWithAvailability), args.Error(1)
}

func (m *FlightServiceMock) List(ctx context.Context, filter model.FlightFilter) ([]*model.FlightWithAvailability, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.FlightWithAvailability), args.Error(1)
}

func (m *FlightServiceMock) Create(ctx context.Context, req model.CreateFlightRequest) (*model.Flight, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Flight), args.Error(1)
}

type SeatServiceMock struct {
	mock.Mock
}

func NewSeatServiceMock() *SeatServiceMock {
	return &SeatServiceMock{}
}

func (m *SeatServiceMock) Status(ctx context.Context, flightID int) (*model.SeatStatus, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SeatStatus), args.Error(1)
}
