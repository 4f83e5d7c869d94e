package model

import (
	"strconv"
	"time"
)

// Ticket 票券模型：一張票對應一個航班上的一個座位
type Ticket struct {
	ID         int        `json:"id" db:"id"`
	FlightID   int        `json:"flight" db:"flight_id"`
	OrderID    int        `json:"order" db:"order_id"`
	Row        int        `json:"row" db:"row"`
	Seat       string     `json:"seat" db:"seat"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ReleasedAt *time.Time `json:"released_at,omitempty" db:"released_at"`
}

// Label 座位標籤，例如 "12A"
func (t *Ticket) Label() string {
	return strconv.Itoa(t.Row) + t.Seat
}

// IsReleased 訂單取消後座位會被釋放
func (t *Ticket) IsReleased() bool {
	return t.ReleasedAt != nil
}
