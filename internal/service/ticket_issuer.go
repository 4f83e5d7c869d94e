package service

import (
	"context"
	"errors"
	"fmt"

	"airport-booking/internal/model"
	"airport-booking/internal/repository"
	"airport-booking/internal/seat"
	apperrors "airport-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
)

// TicketIssuer 在呼叫端的交易內為訂單開出一張票
type TicketIssuer interface {
	Issue(ctx context.Context, tx pgx.Tx, order *model.Order, flight *model.Flight, row int, seat string) (*model.Ticket, error)
}

type TicketIssuerImpl struct {
	flightRepository repository.FlightRepository
	ticketRepository repository.TicketRepository
}

func NewTicketIssuer(flightRepository repository.FlightRepository, ticketRepository repository.TicketRepository) TicketIssuer {
	return &TicketIssuerImpl{
		flightRepository: flightRepository,
		ticketRepository: ticketRepository,
	}
}

/*
開票流程
 1. 檢查 row / seat 是否在飛機範圍內
 2. 鎖定航班列（同一交易內重複鎖定不會阻塞）
 3. 檢查座位是否已被 pending / completed 訂單佔用
 4. 寫入票券，唯一索引衝突同樣視為座位已被佔用
*/
func (s *TicketIssuerImpl) Issue(
	ctx context.Context,
	tx pgx.Tx,
	order *model.Order,
	flight *model.Flight,
	row int,
	seatLetter string,
) (*model.Ticket, error) {
	normalized, err := seat.Validate(flight.Airplane, row, seatLetter)
	if err != nil {
		return nil, err
	}

	if _, err := s.flightRepository.LockForBooking(ctx, tx, flight.ID); err != nil {
		return nil, err
	}

	taken, err := s.ticketRepository.IsTaken(ctx, tx, flight.ID, row, normalized)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, seatTakenError(flight.ID, row, normalized)
	}

	ticket, err := s.ticketRepository.Create(ctx, tx, &model.Ticket{
		FlightID: flight.ID,
		OrderID:  order.ID,
		Row:      row,
		Seat:     normalized,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrSeatTaken) {
			return nil, seatTakenError(flight.ID, row, normalized)
		}
		return nil, err
	}

	return ticket, nil
}

func seatTakenError(flightID, row int, letter string) error {
	return apperrors.NewFieldError(
		apperrors.ErrSeatTaken,
		"seat",
		fmt.Sprintf("seat %s on flight %d is already taken", seat.Label(row, letter), flightID),
	)
}
