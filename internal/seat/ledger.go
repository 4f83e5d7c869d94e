package seat

import (
	"sort"

	"airport-booking/internal/model"
)

type Key struct {
	Row  int
	Seat string
}

// Ledger 某航班的座位帳：容量與已被佔用的座位。
// 只由當下讀到的票券建立，不跨請求快取。
type Ledger struct {
	capacity int
	taken    map[Key]struct{}
}

// NewLedger tickets 應為仍佔用座位（訂單 pending / completed）的票券，已釋放的票券會被略過
func NewLedger(airplane *model.Airplane, tickets []*model.Ticket) *Ledger {
	l := &Ledger{
		capacity: airplane.Capacity(),
		taken:    make(map[Key]struct{}, len(tickets)),
	}
	for _, t := range tickets {
		if t.IsReleased() {
			continue
		}
		l.taken[Key{Row: t.Row, Seat: Normalize(t.Seat)}] = struct{}{}
	}
	return l
}

func (l *Ledger) Capacity() int {
	return l.capacity
}

func (l *Ledger) TakenCount() int {
	return len(l.taken)
}

func (l *Ledger) Available() int {
	return l.capacity - len(l.taken)
}

func (l *Ledger) IsTaken(row int, seat string) bool {
	_, ok := l.taken[Key{Row: row, Seat: Normalize(seat)}]
	return ok
}

// Taken 已佔用座位標籤，依 row、seat 排序，例如 ["12A", "12B", "28A"]
func (l *Ledger) Taken() []string {
	keys := make([]Key, 0, len(l.taken))
	for k := range l.taken {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Row != keys[j].Row {
			return keys[i].Row < keys[j].Row
		}
		return keys[i].Seat < keys[j].Seat
	})

	labels := make([]string, 0, len(keys))
	for _, k := range keys {
		labels = append(labels, Label(k.Row, k.Seat))
	}
	return labels
}

// Status 組裝航班的座位狀態回應
func Status(flight *model.Flight, tickets []*model.Ticket) *model.SeatStatus {
	l := NewLedger(flight.Airplane, tickets)
	return &model.SeatStatus{
		FlightID:  flight.ID,
		Total:     l.Capacity(),
		Available: l.Available(),
		Taken:     l.Taken(),
		Layout:    Layout(flight.Airplane.SeatsInRow),
	}
}
