package model

import "time"

type AirplaneType struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Airplane 飛機：rows × seats_in_row 決定容量
type Airplane struct {
	ID             int    `json:"id" db:"id"`
	Name           string `json:"name" db:"name"`
	Rows           int    `json:"rows" db:"rows"`
	SeatsInRow     int    `json:"seats_in_row" db:"seats_in_row"`
	AirplaneTypeID int    `json:"airplane_type" db:"airplane_type_id"`
}

// Capacity 總座位數，不儲存於資料庫
func (a *Airplane) Capacity() int {
	return a.Rows * a.SeatsInRow
}

type Flight struct {
	ID            int       `json:"id" db:"id"`
	RouteID       int       `json:"route" db:"route_id"`
	AirplaneID    int       `json:"-" db:"airplane_id"`
	DepartureTime time.Time `json:"departure_time" db:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time" db:"arrival_time"`

	Airplane *Airplane `json:"airplane" db:"-"`
	Route    *Route    `json:"route_info,omitempty" db:"-"`
}

// Overlaps 判斷兩個 [departure, arrival) 時段是否重疊
func (f *Flight) Overlaps(departure, arrival time.Time) bool {
	return f.DepartureTime.Before(arrival) && departure.Before(f.ArrivalTime)
}

type Route struct {
	ID          int    `json:"id" db:"id"`
	Source      string `json:"source" db:"source_code"`
	Destination string `json:"destination" db:"destination_code"`
	Distance    int    `json:"distance" db:"distance"`
}

// FlightWithAvailability 航班列表回應，附帶即時計算的剩餘座位
type FlightWithAvailability struct {
	*Flight
	Capacity         int `json:"capacity"`
	TicketsTaken     int `json:"tickets_taken"`
	TicketsAvailable int `json:"tickets_available"`
}

// FlightFilter 航班列表篩選條件
type FlightFilter struct {
	Date        *time.Time
	Source      string
	Destination string
}

// CreateFlightRequest 建立航班請求
type CreateFlightRequest struct {
	RouteID       int       `json:"route" binding:"required"`
	AirplaneID    int       `json:"airplane" binding:"required"`
	DepartureTime time.Time `json:"departure_time" binding:"required"`
	ArrivalTime   time.Time `json:"arrival_time" binding:"required"`
}
