package repositories

import (
	"context"

	"airport-booking/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type AirplaneRepositoryMock struct {
	mock.Mock
}

func NewAirplaneRepositoryMock() *AirplaneRepositoryMock {
	return &AirplaneRepositoryMock{}
}

func (m *AirplaneRepositoryMock) Create(ctx context.Context, airplane *model.Airplane) (*model.Airplane, error) {
	args := m.Called(ctx, airplane)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Airplane), args.Error(1)
}

func (m *AirplaneRepositoryMock) FindByID(ctx context.Context, id int) (*model.Airplane, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Airplane), args.Error(1)
}

func (m *AirplaneRepositoryMock) LockByID(ctx context.Context, tx pgx.Tx, id int) (*model.Airplane, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Airplane), args.Error(1)
}
