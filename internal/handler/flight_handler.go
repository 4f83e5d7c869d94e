package handler

import (
	"net/http"
	"strings"
	"time"

	"airport-booking/internal/model"
	"airport-booking/internal/service"
	apperrors "airport-booking/pkg/app_errors"

	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service     service.FlightService
	seatService service.SeatService
}

func NewFlightHandler(service service.FlightService, seatService service.SeatService) *FlightHandler {
	return &FlightHandler{service: service, seatService: seatService}
}

// RegisterRoutes admin 為建立航班前需要的額外 middleware
func (h *FlightHandler) RegisterRoutes(r *gin.RouterGroup, admin ...gin.HandlerFunc) {
	r.GET("flights", h.List)
	r.GET("flights/:id", h.Get)
	r.GET("flights/:id/seats", h.Seats)
	r.POST("flights", chain(h.Create, admin...)...)
}

// ListFlightsQuery 航班篩選：出發日期（YYYY-MM-DD）、起訖機場代碼
type ListFlightsQuery struct {
	Date        string `form:"date"`
	Source      string `form:"source"`
	Destination string `form:"destination"`
}

func (h *FlightHandler) List(c *gin.Context) {
	var query ListFlightsQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}

	filter := model.FlightFilter{
		Source:      strings.TrimSpace(query.Source),
		Destination: strings.TrimSpace(query.Destination),
	}
	if query.Date != "" {
		date, err := time.Parse(time.DateOnly, query.Date)
		if err != nil {
			handleError(c, apperrors.NewFieldError(apperrors.ErrValidation, "date", "date must be in YYYY-MM-DD format"), "ListFlights")
			return
		}
		filter.Date = &date
	}

	flights, err := h.service.List(c, filter)
	if err != nil {
		handleError(c, err, "ListFlights")
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (h *FlightHandler) Get(c *gin.Context) {
	id, ok := BindID(c, "id")
	if !ok {
		return
	}

	flight, err := h.service.Get(c, id)
	if err != nil {
		handleError(c, err, "GetFlight")
		return
	}
	c.JSON(http.StatusOK, flight)
}

// Seats 座位狀態：{flight, total, available, taken, layout}
func (h *FlightHandler) Seats(c *gin.Context) {
	id, ok := BindID(c, "id")
	if !ok {
		return
	}

	status, err := h.seatService.Status(c, id)
	if err != nil {
		handleError(c, err, "SeatStatus")
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *FlightHandler) Create(c *gin.Context) {
	var req model.CreateFlightRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	flight, err := h.service.Create(c, req)
	if err != nil {
		handleError(c, err, "CreateFlight")
		return
	}
	c.JSON(http.StatusCreated, flight)
}
