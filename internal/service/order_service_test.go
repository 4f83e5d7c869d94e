package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"airport-booking/internal/cache"
	repomocks "airport-booking/internal/mocks/repositories"
	servicemocks "airport-booking/internal/mocks/services"
	"airport-booking/internal/model"
	apperrors "airport-booking/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderServiceDeps struct {
	pool    *servicemocks.TxBeginnerMock
	orders  *repomocks.OrderRepositoryMock
	tickets *repomocks.TicketRepositoryMock
	flights *repomocks.FlightRepositoryMock
	users   *repomocks.UserRepositoryMock
	idem    *servicemocks.IdempotencyStoreMock
	events  *servicemocks.OrderEventQueueMock
}

func newOrderServiceDeps() *orderServiceDeps {
	return &orderServiceDeps{
		pool:    servicemocks.NewTxBeginnerMock(),
		orders:  repomocks.NewOrderRepositoryMock(),
		tickets: repomocks.NewTicketRepositoryMock(),
		flights: repomocks.NewFlightRepositoryMock(),
		users:   repomocks.NewUserRepositoryMock(),
		idem:    servicemocks.NewIdempotencyStoreMock(),
		events:  servicemocks.NewOrderEventQueueMock(),
	}
}

func (d *orderServiceDeps) service() OrderService {
	return NewOrderService(
		d.pool,
		d.orders,
		d.tickets,
		d.flights,
		d.users,
		NewTicketIssuer(d.flights, d.tickets),
		d.idem,
		d.events,
	)
}

func testFlight(id int) *model.Flight {
	return &model.Flight{
		ID:         id,
		AirplaneID: 1,
		Airplane:   &model.Airplane{ID: 1, Name: "Boeing", Rows: 30, SeatsInRow: 6},
	}
}

func seatTicket(flightID, orderID, row int, seat string) *model.Ticket {
	return &model.Ticket{ID: row*10 + int(seat[0]-'A'), FlightID: flightID, OrderID: orderID, Row: row, Seat: seat}
}

func matchSeat(row int, seat string) interface{} {
	return mock.MatchedBy(func(t *model.Ticket) bool { return t.Row == row && t.Seat == seat })
}

// expectOrderInsert 準備建立訂單前共用的 mock
func (d *orderServiceDeps) expectOrderInsert(userID int, flights ...*model.Flight) {
	d.users.On("FindByID", mock.Anything, userID).Return(&model.User{ID: userID}, nil)
	d.pool.On("BeginTx", mock.Anything, mock.Anything).Return(nil)
	for _, f := range flights {
		d.flights.On("LockForBooking", mock.Anything, mock.Anything, f.ID).Return(f, nil)
	}
	d.orders.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*model.Order")).
		Return(&model.Order{ID: 10, UserID: userID, Status: model.OrderStatusPending}, nil)
}

func TestOrderService_Create(t *testing.T) {
	actor := model.Actor{UserID: 7}

	t.Run("Success", func(t *testing.T) {
		ctx := context.Background()
		d := newOrderServiceDeps()
		d.expectOrderInsert(7, testFlight(1))
		d.tickets.On("IsTaken", mock.Anything, mock.Anything, 1, 12, "A").Return(false, nil)
		d.tickets.On("IsTaken", mock.Anything, mock.Anything, 1, 12, "B").Return(false, nil)
		d.tickets.On("Create", mock.Anything, mock.Anything, matchSeat(12, "A")).Return(seatTicket(1, 10, 12, "A"), nil)
		d.tickets.On("Create", mock.Anything, mock.Anything, matchSeat(12, "B")).Return(seatTicket(1, 10, 12, "B"), nil)
		d.events.On("Publish", mock.Anything, mock.MatchedBy(func(e *model.OrderEvent) bool {
			return e.Type == model.OrderEventCreated && e.OrderID == 10 && len(e.Seats) == 2
		})).Return(nil)

		order, err := d.service().Create(ctx, actor, model.CreateOrderRequest{
			Tickets: []model.SeatRequest{
				{FlightID: 1, Row: 12, Seat: "A"},
				{FlightID: 1, Row: 12, Seat: "b"},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, 10, order.ID)
		assert.Equal(t, model.OrderStatusPending, order.Status)
		require.Len(t, order.Tickets, 2)
		assert.Equal(t, "12B", order.Tickets[1].Label())
		assert.True(t, d.pool.Tx.Committed)
		d.events.AssertExpectations(t)
		d.idem.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failed - no tickets", func(t *testing.T) {
		d := newOrderServiceDeps()

		_, err := d.service().Create(context.Background(), actor, model.CreateOrderRequest{})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Equal(t, []string{"at least one ticket is required"}, apperrors.Fields(err)["tickets"])
		d.pool.AssertNotCalled(t, "BeginTx", mock.Anything, mock.Anything)
	})

	t.Run("Failed - missing flight id", func(t *testing.T) {
		d := newOrderServiceDeps()

		_, err := d.service().Create(context.Background(), actor, model.CreateOrderRequest{
			Tickets: []model.SeatRequest{{Row: 1, Seat: "A"}},
		})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Contains(t, apperrors.Fields(err), "tickets[0].flight")
	})

	t.Run("Failed - row out of range rolls back", func(t *testing.T) {
		d := newOrderServiceDeps()
		d.expectOrderInsert(7, testFlight(1))
		d.tickets.On("IsTaken", mock.Anything, mock.Anything, 1, 1, "A").Return(false, nil)
		d.tickets.On("Create", mock.Anything, mock.Anything, matchSeat(1, "A")).Return(seatTicket(1, 10, 1, "A"), nil)

		_, err := d.service().Create(context.Background(), actor, model.CreateOrderRequest{
			Tickets: []model.SeatRequest{
				{FlightID: 1, Row: 1, Seat: "A"},
				{FlightID: 1, Row: 31, Seat: "A"},
			},
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrSeatOutOfRange)
		assert.Equal(t, []string{"row must be between 1 and 30"}, apperrors.Fields(err)["tickets[1].row"])
		assert.False(t, d.pool.Tx.Committed)
		assert.True(t, d.pool.Tx.RolledBack)
		d.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("Failed - seat taken", func(t *testing.T) {
		d := newOrderServiceDeps()
		d.expectOrderInsert(7, testFlight(1))
		d.tickets.On("IsTaken", mock.Anything, mock.Anything, 1, 28, "A").Return(true, nil)

		_, err := d.service().Create(context.Background(), actor, model.CreateOrderRequest{
			Tickets: []model.SeatRequest{{FlightID: 1, Row: 28, Seat: "a"}},
		})

		assert.ErrorIs(t, err, apperrors.ErrSeatTaken)
		assert.Equal(t, []string{"seat 28A on flight 1 is already taken"}, apperrors.Fields(err)["tickets[0].seat"])
		assert.True(t, d.pool.Tx.RolledBack)
		d.tickets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failed - unique violation backstop", func(t *testing.T) {
		d := newOrderServiceDeps()
		d.expectOrderInsert(7, testFlight(1))
		d.tickets.On("IsTaken", mock.Anything, mock.Anything, 1, 3, "C").Return(false, nil)
		d.tickets.On("Create", mock.Anything, mock.Anything, matchSeat(3, "C")).Return(nil, apperrors.ErrSeatTaken)

		_, err := d.service().Create(context.Background(), actor, model.CreateOrderRequest{
			Tickets: []model.SeatRequest{{FlightID: 1, Row: 3, Seat: "C"}},
		})

		assert.ErrorIs(t, err, apperrors.ErrSeatTaken)
		assert.Contains(t, apperrors.Fields(err), "tickets[0].seat")
	})

	t.Run("Failed - flight not found", func(t *testing.T) {
		d := newOrderServiceDeps()
		d.users.On("FindByID", mock.Anything, 7).Return(&model.User{ID: 7}, nil)
		d.pool.On("BeginTx", mock.Anything, mock.Anything).Return(nil)
		d.flights.On("LockForBooking", mock.Anything, mock.Anything, 99).Return(nil, apperrors.ErrFlightNotFound)

		_, err := d.service().Create(context.Background(), actor, model.CreateOrderRequest{
			Tickets: []model.SeatRequest{{FlightID: 99, Row: 1, Seat: "A"}},
		})

		assert.ErrorIs(t, err, apperrors.ErrFlightNotFound)
		assert.Contains(t, apperrors.Fields(err), "tickets[0].flight")
		d.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failed - user not found", func(t *testing.T) {
		d := newOrderServiceDeps()
		d.users.On("FindByID", mock.Anything, 7).Return(nil, apperrors.ErrUserNotFound)

		_, err := d.service().Create(context.Background(), actor, model.CreateOrderRequest{
			Tickets: []model.SeatRequest{{FlightID: 1, Row: 1, Seat: "A"}},
		})

		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		d.pool.AssertNotCalled(t, "BeginTx", mock.Anything, mock.Anything)
	})

	t.Run("Success - flights locked in ascending id order", func(t *testing.T) {
		d := newOrderServiceDeps()
		d.expectOrderInsert(7, testFlight(5), testFlight(2))
		d.tickets.On("IsTaken", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
		d.tickets.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(seatTicket(5, 10, 1, "A"), nil)
		d.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		_, err := d.service().Create(context.Background(), actor, model.CreateOrderRequest{
			Tickets: []model.SeatRequest{
				{FlightID: 5, Row: 1, Seat: "A"},
				{FlightID: 2, Row: 1, Seat: "A"},
				{FlightID: 5, Row: 1, Seat: "B"},
			},
		})
		require.NoError(t, err)

		var locked []int
		for _, call := range d.flights.Calls {
			if call.Method == "LockForBooking" {
				locked = append(locked, call.Arguments.Int(2))
			}
		}
		require.GreaterOrEqual(t, len(locked), 2)
		assert.Equal(t, []int{2, 5}, locked[:2])
	})

	t.Run("Success - publish failure does not fail the order", func(t *testing.T) {
		d := newOrderServiceDeps()
		d.expectOrderInsert(7, testFlight(1))
		d.tickets.On("IsTaken", mock.Anything, mock.Anything, 1, 1, "A").Return(false, nil)
		d.tickets.On("Create", mock.Anything, mock.Anything, matchSeat(1, "A")).Return(seatTicket(1, 10, 1, "A"), nil)
		d.events.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

		order, err := d.service().Create(context.Background(), actor, model.CreateOrderRequest{
			Tickets: []model.SeatRequest{{FlightID: 1, Row: 1, Seat: "A"}},
		})

		require.NoError(t, err)
		assert.Equal(t, 10, order.ID)
	})
}

func TestOrderService_Create_Idempotency(t *testing.T) {
	actor := model.Actor{UserID: 7}
	req := model.CreateOrderRequest{
		RequestID: "req-1",
		Tickets:   []model.SeatRequest{{FlightID: 1, Row: 1, Seat: "A"}},
	}

	t.Run("Success - first request completes the claim", func(t *testing.T) {
		d := newOrderServiceDeps()
		d.idem.On("Claim", mock.Anything, 7, "req-1").Return(cache.ClaimResult{Claimed: true}, nil)
		d.expectOrderInsert(7, testFlight(1))
		d.tickets.On("IsTaken", mock.Anything, mock.Anything, 1, 1, "A").Return(false, nil)
		d.tickets.On("Create", mock.Anything, mock.Anything, matchSeat(1, "A")).Return(seatTicket(1, 10, 1, "A"), nil)
		d.idem.On("Complete", mock.Anything, 7, "req-1", 10).Return(nil)
		d.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		_, err := d.service().Create(context.Background(), actor, req)

		require.NoError(t, err)
		d.idem.AssertExpectations(t)
		d.orders.AssertCalled(t, "Create", mock.Anything, mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
			return o.RequestID != nil && *o.RequestID == "req-1"
		}))
	})

	t.Run("Success - replay returns the existing order", func(t *testing.T) {
		d := newOrderServiceDeps()
		d.idem.On("Claim", mock.Anything, 7, "req-1").Return(cache.ClaimResult{OrderID: 10}, nil)
		d.orders.On("FindByID", mock.Anything, 10).Return(&model.Order{ID: 10, UserID: 7, Status: model.OrderStatusPending}, nil)
		d.tickets.On("ListByOrderIDs", mock.Anything, []int{10}).
			Return(map[int][]*model.Ticket{10: {seatTicket(1, 10, 1, "A")}}, nil)

		order, err := d.service().Create(context.Background(), actor, req)

		require.NoError(t, err)
		assert.Equal(t, 10, order.ID)
		assert.Len(t, order.Tickets, 1)
		d.pool.AssertNotCalled(t, "BeginTx", mock.Anything, mock.Anything)
		d.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("Failed - request still in flight", func(t *testing.T) {
		d := newOrderServiceDeps()
		d.idem.On("Claim", mock.Anything, 7, "req-1").Return(cache.ClaimResult{}, apperrors.ErrDuplicateRequest)

		_, err := d.service().Create(context.Background(), actor, req)

		assert.ErrorIs(t, err, apperrors.ErrDuplicateRequest)
	})

	t.Run("Failed - claim released after failure", func(t *testing.T) {
		d := newOrderServiceDeps()
		d.idem.On("Claim", mock.Anything, 7, "req-1").Return(cache.ClaimResult{Claimed: true}, nil)
		d.users.On("FindByID", mock.Anything, 7).Return(nil, apperrors.ErrUserNotFound)
		d.idem.On("Release", mock.Anything, 7, "req-1").Return(nil)

		_, err := d.service().Create(context.Background(), actor, req)

		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		d.idem.AssertCalled(t, "Release", mock.Anything, 7, "req-1")
		d.idem.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	// expectDuplicateInsert 訂單寫入時撞到 (user_id, request_id) 唯一索引
	expectDuplicateInsert := func(d *orderServiceDeps) {
		d.users.On("FindByID", mock.Anything, 7).Return(&model.User{ID: 7}, nil)
		d.pool.On("BeginTx", mock.Anything, mock.Anything).Return(nil)
		d.flights.On("LockForBooking", mock.Anything, mock.Anything, 1).Return(testFlight(1), nil)
		d.orders.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*model.Order")).
			Return(nil, apperrors.ErrDuplicateRequest)
	}

	t.Run("Success - claim lost, existing order found by request id", func(t *testing.T) {
		d := newOrderServiceDeps()
		d.idem.On("Claim", mock.Anything, 7, "req-1").Return(cache.ClaimResult{Claimed: true}, nil)
		expectDuplicateInsert(d)
		d.orders.On("FindByRequestID", mock.Anything, 7, "req-1").
			Return(&model.Order{ID: 10, UserID: 7, Status: model.OrderStatusPending}, nil)
		d.tickets.On("ListByOrderIDs", mock.Anything, []int{10}).
			Return(map[int][]*model.Ticket{10: {seatTicket(1, 10, 1, "A")}}, nil)
		d.idem.On("Complete", mock.Anything, 7, "req-1", 10).Return(nil)

		order, err := d.service().Create(context.Background(), actor, req)

		require.NoError(t, err)
		assert.Equal(t, 10, order.ID)
		assert.Len(t, order.Tickets, 1)
		assert.True(t, d.pool.Tx.RolledBack)
		assert.False(t, d.pool.Tx.Committed)
		d.idem.AssertExpectations(t)
		d.idem.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
		d.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("Success - without idempotency store", func(t *testing.T) {
		d := newOrderServiceDeps()
		expectDuplicateInsert(d)
		d.orders.On("FindByRequestID", mock.Anything, 7, "req-1").
			Return(&model.Order{ID: 10, UserID: 7, Status: model.OrderStatusCompleted}, nil)
		d.tickets.On("ListByOrderIDs", mock.Anything, []int{10}).Return(map[int][]*model.Ticket{}, nil)

		svc := NewOrderService(d.pool, d.orders, d.tickets, d.flights, d.users,
			NewTicketIssuer(d.flights, d.tickets), nil, d.events)
		order, err := svc.Create(context.Background(), actor, req)

		require.NoError(t, err)
		assert.Equal(t, 10, order.ID)
		assert.Equal(t, model.OrderStatusCompleted, order.Status)
		assert.NotNil(t, order.Tickets)
	})

	t.Run("Failed - duplicate without a stored order", func(t *testing.T) {
		d := newOrderServiceDeps()
		d.idem.On("Claim", mock.Anything, 7, "req-1").Return(cache.ClaimResult{Claimed: true}, nil)
		expectDuplicateInsert(d)
		d.orders.On("FindByRequestID", mock.Anything, 7, "req-1").Return(nil, apperrors.ErrOrderNotFound)
		d.idem.On("Release", mock.Anything, 7, "req-1").Return(nil)

		_, err := d.service().Create(context.Background(), actor, req)

		assert.ErrorIs(t, err, apperrors.ErrDuplicateRequest)
		d.idem.AssertCalled(t, "Release", mock.Anything, 7, "req-1")
	})

	t.Run("Success - complete failure does not fail the order", func(t *testing.T) {
		d := newOrderServiceDeps()
		d.idem.On("Claim", mock.Anything, 7, "req-1").Return(cache.ClaimResult{Claimed: true}, nil)
		d.expectOrderInsert(7, testFlight(1))
		d.tickets.On("IsTaken", mock.Anything, mock.Anything, 1, 1, "A").Return(false, nil)
		d.tickets.On("Create", mock.Anything, mock.Anything, matchSeat(1, "A")).Return(seatTicket(1, 10, 1, "A"), nil)
		d.idem.On("Complete", mock.Anything, 7, "req-1", 10).Return(errors.New("redis down"))
		d.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		order, err := d.service().Create(context.Background(), actor, req)

		require.NoError(t, err)
		assert.Equal(t, 10, order.ID)
		assert.True(t, d.pool.Tx.Committed)
		d.idem.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestOrderService_Transitions(t *testing.T) {
	owner := model.Actor{UserID: 7}

	newLocked := func(d *orderServiceDeps, status model.OrderStatus) {
		d.pool.On("BeginTx", mock.Anything, mock.Anything).Return(nil)
		d.orders.On("FindByIDWithLock", mock.Anything, mock.Anything, 3).
			Return(&model.Order{ID: 3, UserID: 7, Status: status}, nil)
	}

	t.Run("Complete - pending to completed", func(t *testing.T) {
		d := newOrderServiceDeps()
		newLocked(d, model.OrderStatusPending)
		d.orders.On("UpdateStatus", mock.Anything, mock.Anything, 3, model.OrderStatusCompleted).
			Return(&model.Order{ID: 3, UserID: 7, Status: model.OrderStatusCompleted}, nil)
		d.tickets.On("ListByOrderIDs", mock.Anything, []int{3}).Return(map[int][]*model.Ticket{}, nil)
		d.events.On("Publish", mock.Anything, mock.MatchedBy(func(e *model.OrderEvent) bool {
			return e.Type == model.OrderEventCompleted
		})).Return(nil)

		order, err := d.service().Complete(context.Background(), owner, 3)

		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCompleted, order.Status)
		assert.NotNil(t, order.Tickets)
		assert.True(t, d.pool.Tx.Committed)
		d.tickets.AssertNotCalled(t, "ReleaseByOrderID", mock.Anything, mock.Anything, mock.Anything)
		d.events.AssertExpectations(t)
	})

	t.Run("Cancel - pending to canceled releases seats", func(t *testing.T) {
		d := newOrderServiceDeps()
		newLocked(d, model.OrderStatusPending)
		d.orders.On("UpdateStatus", mock.Anything, mock.Anything, 3, model.OrderStatusCanceled).
			Return(&model.Order{ID: 3, UserID: 7, Status: model.OrderStatusCanceled}, nil)
		d.tickets.On("ReleaseByOrderID", mock.Anything, mock.Anything, 3).Return(int64(2), nil)
		d.tickets.On("ListByOrderIDs", mock.Anything, []int{3}).Return(map[int][]*model.Ticket{}, nil)
		d.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		order, err := d.service().Cancel(context.Background(), owner, 3)

		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCanceled, order.Status)
		d.tickets.AssertCalled(t, "ReleaseByOrderID", mock.Anything, mock.Anything, 3)
		assert.True(t, d.pool.Tx.Committed)
	})

	invalid := []struct {
		name   string
		status model.OrderStatus
		cancel bool
	}{
		{"Cancel completed order", model.OrderStatusCompleted, true},
		{"Cancel canceled order", model.OrderStatusCanceled, true},
		{"Complete canceled order", model.OrderStatusCanceled, false},
		{"Complete completed order", model.OrderStatusCompleted, false},
	}
	for _, tt := range invalid {
		t.Run("Failed - "+tt.name, func(t *testing.T) {
			d := newOrderServiceDeps()
			newLocked(d, tt.status)

			var err error
			if tt.cancel {
				_, err = d.service().Cancel(context.Background(), owner, 3)
			} else {
				_, err = d.service().Complete(context.Background(), owner, 3)
			}

			assert.ErrorIs(t, err, apperrors.ErrInvalidOrderStatus)
			assert.False(t, d.pool.Tx.Committed)
			d.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			d.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}

	t.Run("Failed - other user's order", func(t *testing.T) {
		d := newOrderServiceDeps()
		newLocked(d, model.OrderStatusPending)

		_, err := d.service().Cancel(context.Background(), model.Actor{UserID: 8}, 3)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("Failed - order not found", func(t *testing.T) {
		d := newOrderServiceDeps()
		d.pool.On("BeginTx", mock.Anything, mock.Anything).Return(nil)
		d.orders.On("FindByIDWithLock", mock.Anything, mock.Anything, 404).Return(nil, apperrors.ErrOrderNotFound)

		_, err := d.service().Complete(context.Background(), owner, 404)

		assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
	})
}

func TestOrderService_ExpirePending(t *testing.T) {
	d := newOrderServiceDeps()
	cutoff := time.Now().Add(-15 * time.Minute)

	d.orders.On("ListStalePendingIDs", mock.Anything, cutoff, 100).Return([]int{1, 2}, nil)
	d.pool.On("BeginTx", mock.Anything, mock.Anything).Return(nil)
	d.orders.On("FindByIDWithLock", mock.Anything, mock.Anything, 1).
		Return(&model.Order{ID: 1, UserID: 7, Status: model.OrderStatusPending}, nil)
	// 查詢之後已被完成
	d.orders.On("FindByIDWithLock", mock.Anything, mock.Anything, 2).
		Return(&model.Order{ID: 2, UserID: 7, Status: model.OrderStatusCompleted}, nil)
	d.orders.On("UpdateStatus", mock.Anything, mock.Anything, 1, model.OrderStatusCanceled).
		Return(&model.Order{ID: 1, UserID: 7, Status: model.OrderStatusCanceled}, nil)
	d.tickets.On("ReleaseByOrderID", mock.Anything, mock.Anything, 1).Return(int64(1), nil)
	d.tickets.On("ListByOrderIDs", mock.Anything, []int{1}).Return(map[int][]*model.Ticket{}, nil)
	d.events.On("Publish", mock.Anything, mock.MatchedBy(func(e *model.OrderEvent) bool {
		return e.Type == model.OrderEventExpired && e.OrderID == 1
	})).Return(nil).Once()

	n, err := d.service().ExpirePending(context.Background(), cutoff, 100)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	d.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, 2, mock.Anything)
	d.events.AssertExpectations(t)
}

func TestOrderService_List(t *testing.T) {
	t.Run("Non-admin sees only own orders", func(t *testing.T) {
		d := newOrderServiceDeps()
		d.orders.On("List", mock.Anything, model.OrderFilter{UserID: 7, Status: model.OrderStatusPending}).
			Return([]*model.Order{{ID: 1, UserID: 7}, {ID: 2, UserID: 7}}, nil)
		d.tickets.On("ListByOrderIDs", mock.Anything, []int{1, 2}).
			Return(map[int][]*model.Ticket{1: {seatTicket(1, 1, 1, "A")}}, nil)

		orders, err := d.service().List(context.Background(), model.Actor{UserID: 7},
			model.OrderFilter{UserID: 99, Status: model.OrderStatusPending})

		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Len(t, orders[0].Tickets, 1)
		assert.Empty(t, orders[1].Tickets)
	})

	t.Run("Admin may list all users", func(t *testing.T) {
		d := newOrderServiceDeps()
		d.orders.On("List", mock.Anything, model.OrderFilter{}).Return([]*model.Order{}, nil)

		orders, err := d.service().List(context.Background(), model.Actor{UserID: 1, Role: model.RoleAdmin}, model.OrderFilter{})

		require.NoError(t, err)
		assert.Empty(t, orders)
		d.tickets.AssertNotCalled(t, "ListByOrderIDs", mock.Anything, mock.Anything)
	})

	t.Run("Failed - unknown status", func(t *testing.T) {
		d := newOrderServiceDeps()

		_, err := d.service().List(context.Background(), model.Actor{UserID: 7}, model.OrderFilter{Status: "shipped"})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Contains(t, apperrors.Fields(err), "status")
	})
}

func TestOrderService_Get_Forbidden(t *testing.T) {
	d := newOrderServiceDeps()
	d.orders.On("FindByID", mock.Anything, 3).Return(&model.Order{ID: 3, UserID: 7}, nil)

	_, err := d.service().Get(context.Background(), model.Actor{UserID: 8}, 3)

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
