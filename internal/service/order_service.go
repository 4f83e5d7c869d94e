package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"airport-booking/internal/cache"
	"airport-booking/internal/database"
	"airport-booking/internal/model"
	"airport-booking/internal/queue"
	"airport-booking/internal/repository"
	apperrors "airport-booking/pkg/app_errors"
	"airport-booking/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	maxRequestIDLength = 64
	publishTimeout     = 3 * time.Second
)

type OrderService interface {
	// 創建訂單：所有座位在同一個交易內開票，任何一張失敗整筆回滾
	Create(ctx context.Context, actor model.Actor, req model.CreateOrderRequest) (*model.Order, error)
	Get(ctx context.Context, actor model.Actor, id int) (*model.Order, error)
	List(ctx context.Context, actor model.Actor, filter model.OrderFilter) ([]*model.Order, error)
	// pending -> completed
	Complete(ctx context.Context, actor model.Actor, id int) (*model.Order, error)
	// pending -> canceled，釋放座位
	Cancel(ctx context.Context, actor model.Actor, id int) (*model.Order, error)
	// 取消建立時間早於 olderThan 的 pending 訂單，回傳取消筆數
	ExpirePending(ctx context.Context, olderThan time.Time, limit int) (int, error)
}

type OrderServiceImpl struct {
	pool             database.TxBeginner
	repository       repository.OrderRepository
	ticketRepository repository.TicketRepository
	flightRepository repository.FlightRepository
	userRepository   repository.UserRepository
	issuer           TicketIssuer
	idempotency      cache.IdempotencyStore
	eventQueue       queue.OrderEventQueue
}

// NewOrderService idempotency 與 eventQueue 可為 nil
func NewOrderService(
	pool database.TxBeginner,
	orderRepository repository.OrderRepository,
	ticketRepository repository.TicketRepository,
	flightRepository repository.FlightRepository,
	userRepository repository.UserRepository,
	issuer TicketIssuer,
	idempotency cache.IdempotencyStore,
	eventQueue queue.OrderEventQueue,
) OrderService {
	return &OrderServiceImpl{
		pool:             pool,
		repository:       orderRepository,
		ticketRepository: ticketRepository,
		flightRepository: flightRepository,
		userRepository:   userRepository,
		issuer:           issuer,
		idempotency:      idempotency,
		eventQueue:       eventQueue,
	}
}

func (s *OrderServiceImpl) Create(ctx context.Context, actor model.Actor, req model.CreateOrderRequest) (*model.Order, error) {
	if err := validateCreateOrder(req); err != nil {
		return nil, err
	}

	// 1. 冪等：同一個使用者的 request id 只建立一次訂單
	claimed := false
	if req.RequestID != "" && s.idempotency != nil {
		claim, err := s.idempotency.Claim(ctx, actor.UserID, req.RequestID)
		if err != nil {
			return nil, err
		}
		if !claim.Claimed {
			return s.Get(ctx, actor, claim.OrderID)
		}
		claimed = true
	}

	order, err := s.createOrder(ctx, actor, req)
	if err != nil && req.RequestID != "" && errors.Is(err, apperrors.ErrDuplicateRequest) {
		// Redis 中沒有紀錄（過期或未啟用），以資料庫中的原訂單回應
		existing, findErr := s.findByRequestID(ctx, actor, req.RequestID)
		if findErr == nil {
			if claimed {
				s.completeClaim(ctx, actor, req.RequestID, existing.ID)
			}
			return existing, nil
		}
		if !errors.Is(findErr, apperrors.ErrOrderNotFound) {
			err = findErr
		}
	}
	if err != nil {
		if claimed {
			// ctx 可能已被取消，釋放仍需執行
			if relErr := s.idempotency.Release(context.WithoutCancel(ctx), actor.UserID, req.RequestID); relErr != nil {
				logger.WithComponent("order_service").Warn("release request id failed",
					zap.String("request_id", req.RequestID), zap.Error(relErr))
			}
		}
		return nil, err
	}

	if claimed {
		s.completeClaim(ctx, actor, req.RequestID, order.ID)
	}

	s.publish(ctx, model.OrderEventCreated, order)
	return order, nil
}

func (s *OrderServiceImpl) findByRequestID(ctx context.Context, actor model.Actor, requestID string) (*model.Order, error) {
	order, err := s.repository.FindByRequestID(ctx, actor.UserID, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.attachTickets(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// completeClaim 失敗只記錄；pending 的 key 會在短時間後過期
func (s *OrderServiceImpl) completeClaim(ctx context.Context, actor model.Actor, requestID string, orderID int) {
	if err := s.idempotency.Complete(context.WithoutCancel(ctx), actor.UserID, requestID, orderID); err != nil {
		logger.WithComponent("order_service").Warn("complete request id failed",
			zap.String("request_id", requestID), zap.Int("order_id", orderID), zap.Error(err))
	}
}

func (s *OrderServiceImpl) createOrder(ctx context.Context, actor model.Actor, req model.CreateOrderRequest) (*model.Order, error) {
	if _, err := s.userRepository.FindByID(ctx, actor.UserID); err != nil {
		return nil, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 2. 依航班 id 由小到大鎖定，多航班訂單之間不會互相死鎖
	flights, err := s.lockFlights(ctx, tx, req.Tickets)
	if err != nil {
		return nil, err
	}

	// 3. 寫入訂單
	order := &model.Order{
		UserID: actor.UserID,
		Status: model.OrderStatusPending,
	}
	if req.RequestID != "" {
		requestID := req.RequestID
		order.RequestID = &requestID
	}
	order, err = s.repository.Create(ctx, tx, order)
	if err != nil {
		return nil, err
	}

	// 4. 逐張開票
	order.Tickets = make([]*model.Ticket, 0, len(req.Tickets))
	for i, t := range req.Tickets {
		ticket, err := s.issuer.Issue(ctx, tx, order, flights[t.FlightID], t.Row, t.Seat)
		if err != nil {
			return nil, atTicket(err, i)
		}
		order.Tickets = append(order.Tickets, ticket)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return order, nil
}

func (s *OrderServiceImpl) lockFlights(ctx context.Context, tx pgx.Tx, seats []model.SeatRequest) (map[int]*model.Flight, error) {
	firstIndex := make(map[int]int, len(seats))
	ids := make([]int, 0, len(seats))
	for i, t := range seats {
		if _, ok := firstIndex[t.FlightID]; ok {
			continue
		}
		firstIndex[t.FlightID] = i
		ids = append(ids, t.FlightID)
	}
	sort.Ints(ids)

	flights := make(map[int]*model.Flight, len(ids))
	for _, id := range ids {
		flight, err := s.flightRepository.LockForBooking(ctx, tx, id)
		if err != nil {
			if errors.Is(err, apperrors.ErrFlightNotFound) {
				return nil, apperrors.NewFieldError(apperrors.ErrFlightNotFound,
					fmt.Sprintf("tickets[%d].flight", firstIndex[id]),
					fmt.Sprintf("flight %d does not exist", id))
			}
			return nil, err
		}
		flights[id] = flight
	}
	return flights, nil
}

func (s *OrderServiceImpl) Get(ctx context.Context, actor model.Actor, id int) (*model.Order, error) {
	order, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(order) {
		return nil, apperrors.ErrForbidden
	}
	if err := s.attachTickets(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// List 一般使用者只能看到自己的訂單；管理員可指定 UserID，0 代表全部
func (s *OrderServiceImpl) List(ctx context.Context, actor model.Actor, filter model.OrderFilter) ([]*model.Order, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperrors.NewFieldError(apperrors.ErrValidation, "status",
			fmt.Sprintf("unknown status %q", filter.Status))
	}
	if !actor.IsAdmin() {
		filter.UserID = actor.UserID
	}

	orders, err := s.repository.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.attachTickets(ctx, orders...); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderServiceImpl) Complete(ctx context.Context, actor model.Actor, id int) (*model.Order, error) {
	order, err := s.transition(ctx, id, model.OrderStatusCompleted, func(o *model.Order) error {
		if !actor.CanAccess(o) {
			return apperrors.ErrForbidden
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, model.OrderEventCompleted, order)
	return order, nil
}

func (s *OrderServiceImpl) Cancel(ctx context.Context, actor model.Actor, id int) (*model.Order, error) {
	order, err := s.transition(ctx, id, model.OrderStatusCanceled, func(o *model.Order) error {
		if !actor.CanAccess(o) {
			return apperrors.ErrForbidden
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, model.OrderEventCanceled, order)
	return order, nil
}

func (s *OrderServiceImpl) ExpirePending(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	ids, err := s.repository.ListStalePendingIDs(ctx, olderThan, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return expired, err
		}

		order, err := s.transition(ctx, id, model.OrderStatusCanceled, nil)
		if err != nil {
			// 查詢之後已被完成或取消
			if errors.Is(err, apperrors.ErrInvalidOrderStatus) || errors.Is(err, apperrors.ErrOrderNotFound) {
				continue
			}
			return expired, err
		}

		expired++
		s.publish(ctx, model.OrderEventExpired, order)
	}

	return expired, nil
}

// transition 鎖定訂單列後檢查狀態機再更新；取消時在同一交易內釋放座位
func (s *OrderServiceImpl) transition(
	ctx context.Context,
	id int,
	target model.OrderStatus,
	authorize func(*model.Order) error,
) (*model.Order, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, err := s.repository.FindByIDWithLock(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if authorize != nil {
		if err := authorize(current); err != nil {
			return nil, err
		}
	}

	if !current.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: order %d is %s and cannot become %s",
			apperrors.ErrInvalidOrderStatus, id, current.Status, target)
	}

	order, err := s.repository.UpdateStatus(ctx, tx, id, target)
	if err != nil {
		return nil, err
	}

	if !target.HoldsSeats() {
		if _, err := s.ticketRepository.ReleaseByOrderID(ctx, tx, id); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if err := s.attachTickets(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderServiceImpl) attachTickets(ctx context.Context, orders ...*model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	tickets, err := s.ticketRepository.ListByOrderIDs(ctx, ids)
	if err != nil {
		return err
	}

	for _, o := range orders {
		o.Tickets = tickets[o.ID]
		if o.Tickets == nil {
			o.Tickets = []*model.Ticket{}
		}
	}
	return nil
}

// publish 事件在 commit 之後發送，失敗只記錄不影響回應
func (s *OrderServiceImpl) publish(ctx context.Context, t model.OrderEventType, order *model.Order) {
	if s.eventQueue == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := model.NewOrderEvent(uuid.New().String(), t, order)
	if err := s.eventQueue.Publish(ctx, event); err != nil {
		logger.WithComponent("order_service").Error("publish order event failed",
			zap.String("event_type", string(t)),
			zap.Int("order_id", order.ID),
			zap.Error(err),
		)
	}
}

func validateCreateOrder(req model.CreateOrderRequest) error {
	fields := apperrors.FieldErrors{}

	if len(req.RequestID) > maxRequestIDLength {
		fields.Add("request_id", fmt.Sprintf("request_id must be at most %d characters", maxRequestIDLength))
	}
	if len(req.Tickets) == 0 {
		fields.Add("tickets", "at least one ticket is required")
	}
	for i, t := range req.Tickets {
		if t.FlightID <= 0 {
			fields.Add(fmt.Sprintf("tickets[%d].flight", i), "flight is required")
		}
	}

	if len(fields) > 0 {
		return &apperrors.FieldError{Kind: apperrors.ErrValidation, Fields: fields}
	}
	return nil
}

// atTicket 欄位錯誤加上 tickets[i] 前綴，指出是第幾個座位請求失敗
func atTicket(err error, i int) error {
	var fe *apperrors.FieldError
	if errors.As(err, &fe) {
		return fe.WithPrefix(fmt.Sprintf("tickets[%d]", i))
	}
	return err
}
