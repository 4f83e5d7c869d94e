package model

// SeatStatus 航班座位狀態，每次查詢即時計算
type SeatStatus struct {
	FlightID  int      `json:"flight"`
	Total     int      `json:"total"`
	Available int      `json:"available"`
	Taken     []string `json:"taken"`
	Layout    []string `json:"layout"`
}
