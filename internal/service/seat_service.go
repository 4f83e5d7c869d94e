package service

import (
	"context"

	"airport-booking/internal/model"
	"airport-booking/internal/repository"
	"airport-booking/internal/seat"
)

type SeatService interface {
	// 航班座位狀態，每次請求即時計算
	Status(ctx context.Context, flightID int) (*model.SeatStatus, error)
}

type SeatServiceImpl struct {
	flightRepository repository.FlightRepository
	ticketRepository repository.TicketRepository
}

func NewSeatService(flightRepository repository.FlightRepository, ticketRepository repository.TicketRepository) SeatService {
	return &SeatServiceImpl{
		flightRepository: flightRepository,
		ticketRepository: ticketRepository,
	}
}

func (s *SeatServiceImpl) Status(ctx context.Context, flightID int) (*model.SeatStatus, error) {
	flight, err := s.flightRepository.FindByID(ctx, flightID)
	if err != nil {
		return nil, err
	}

	tickets, err := s.ticketRepository.ListHoldingByFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}

	return seat.Status(flight, tickets), nil
}
