package model

import "time"

type OrderEventType string

const (
	OrderEventCreated   OrderEventType = "order.created"
	OrderEventCompleted OrderEventType = "order.completed"
	OrderEventCanceled  OrderEventType = "order.canceled"
	OrderEventExpired   OrderEventType = "order.expired"
)

// OrderEvent 訂單狀態變更後發送到 queue 的事件
type OrderEvent struct {
	EventID    string         `json:"event_id"`
	Type       OrderEventType `json:"type"`
	OrderID    int            `json:"order_id"`
	UserID     int            `json:"user_id"`
	Status     OrderStatus    `json:"status"`
	Seats      []EventSeat    `json:"seats"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type EventSeat struct {
	FlightID int    `json:"flight"`
	Seat     string `json:"seat"`
}

// NewOrderEvent 由訂單組裝事件，EventID 由呼叫端決定
func NewOrderEvent(eventID string, t OrderEventType, order *Order) *OrderEvent {
	seats := make([]EventSeat, 0, len(order.Tickets))
	for _, ticket := range order.Tickets {
		seats = append(seats, EventSeat{FlightID: ticket.FlightID, Seat: ticket.Label()})
	}
	return &OrderEvent{
		EventID:    eventID,
		Type:       t,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		Seats:      seats,
		OccurredAt: time.Now().UTC(),
	}
}
