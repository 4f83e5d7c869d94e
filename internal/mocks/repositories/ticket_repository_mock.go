package repositories

import (
	"context"

	"airport-booking/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type TicketRepositoryMock struct {
	mock.Mock
}

func NewTicketRepositoryMock() *TicketRepositoryMock {
	return &TicketRepositoryMock{}
}

func (m *TicketRepositoryMock) ListHoldingByFlight(ctx context.Context, flightID int) ([]*model.Ticket, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Ticket), args.Error(1)
}

func (m *TicketRepositoryMock) ListByOrderIDs(ctx context.Context, orderIDs []int) (map[int][]*model.Ticket, error) {
	args := m.Called(ctx, orderIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int][]*model.Ticket), args.Error(1)
}

func (m *TicketRepositoryMock) Create(ctx context.Context, tx pgx.Tx, ticket *model.Ticket) (*model.Ticket, error) {
	args := m.Called(ctx, tx, ticket)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketRepositoryMock) IsTaken(ctx context.Context, tx pgx.Tx, flightID, row int, seat string) (bool, error) {
	args := m.Called(ctx, tx, flightID, row, seat)
	return args.Bool(0), args.Error(1)
}

func (m *TicketRepositoryMock) ReleaseByOrderID(ctx context.Context, tx pgx.Tx, orderID int) (int64, error) {
	args := m.Called(ctx, tx, orderID)
	return args.Get(0).(int64), args.Error(1)
}
