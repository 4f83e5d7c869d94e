package handler

import (
	"errors"
	"net/http"
	"strconv"

	"airport-booking/internal/middleware"
	"airport-booking/internal/model"
	apperrors "airport-booking/pkg/app_errors"
	"airport-booking/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

func BindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

// BindID 解析路徑上的正整數 id
func BindID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Invalid id",
			"fields": apperrors.FieldErrors{name: {"must be a positive integer"}},
		})
		return 0, false
	}
	return id, true
}

// currentActor JWTAuth 未設定 Actor 時回應 401
func currentActor(c *gin.Context) (model.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Unauthorized",
		})
		return model.Actor{}, false
	}
	return actor, true
}

// handleError 依錯誤類別決定狀態碼，欄位錯誤另外回傳 fields
func handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrSeatOutOfRange),
		errors.Is(err, apperrors.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrSeatTaken),
		errors.Is(err, apperrors.ErrInvalidOrderStatus),
		errors.Is(err, apperrors.ErrFlightOverlap),
		errors.Is(err, apperrors.ErrDuplicateRequest):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrOrderNotFound),
		errors.Is(err, apperrors.ErrFlightNotFound),
		errors.Is(err, apperrors.ErrAirplaneNotFound),
		errors.Is(err, apperrors.ErrRouteNotFound),
		errors.Is(err, apperrors.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrForbidden):
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		log.Error("Unexpected error")
		c.JSON(status, gin.H{
			"error": "Internal server error",
		})
		return
	}

	log.Warn("Request failed", zap.Int("status", status))

	body := gin.H{"error": errorMessage(err)}
	if fields := apperrors.Fields(err); len(fields) > 0 {
		body["fields"] = fields
	}
	c.JSON(status, body)
}

// errorMessage 欄位錯誤只回傳類別，細節放在 fields
func errorMessage(err error) string {
	var fe *apperrors.FieldError
	if errors.As(err, &fe) {
		return fe.Kind.Error()
	}
	return err.Error()
}

// chain 在 handler 前加上 middleware，不修改傳入的 slice
func chain(h gin.HandlerFunc, middlewares ...gin.HandlerFunc) []gin.HandlerFunc {
	handlers := make([]gin.HandlerFunc, 0, len(middlewares)+1)
	handlers = append(handlers, middlewares...)
	return append(handlers, h)
}
