package model

import "time"

// OrderStatus 訂單狀態類型
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCanceled  OrderStatus = "canceled"
)

// IsValid 驗證狀態是否有效
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCanceled:
		return true
	}
	return false
}

// HoldsSeats pending 暫時保留座位，completed 永久佔用，canceled 釋放座位
func (s OrderStatus) HoldsSeats() bool {
	return s == OrderStatusPending || s == OrderStatusCompleted
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	transitions := map[OrderStatus][]OrderStatus{
		OrderStatusPending:   {OrderStatusCompleted, OrderStatusCanceled},
		OrderStatusCompleted: {}, // 已完成的訂單不可取消
		OrderStatusCanceled:  {}, // 不能轉換到任何狀態
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// HoldingStatuses 會佔用座位的訂單狀態
func HoldingStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusPending, OrderStatusCompleted}
}

// Order 訂單模型
type Order struct {
	ID        int         `json:"id" db:"id"`
	RequestID *string     `json:"request_id,omitempty" db:"request_id"`
	UserID    int         `json:"user_id" db:"user_id"`
	Status    OrderStatus `json:"status" db:"status"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`

	Tickets []*Ticket `json:"tickets" db:"-"`
}

// SeatRequest 單一座位請求
type SeatRequest struct {
	FlightID int    `json:"flight"`
	Row      int    `json:"row"`
	Seat     string `json:"seat"`
}

// CreateOrderRequest 創建訂單請求
type CreateOrderRequest struct {
	RequestID string        `json:"request_id"`
	Tickets   []SeatRequest `json:"tickets"`
}

// OrderFilter 訂單列表篩選條件
type OrderFilter struct {
	UserID int
	Status OrderStatus
}
