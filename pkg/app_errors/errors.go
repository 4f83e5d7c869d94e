package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrValidation          = errors.New("validation failed")
	ErrSeatOutOfRange      = errors.New("seat out of range")
	ErrSeatTaken           = errors.New("seat already taken")
	ErrInvalidOrderStatus  = errors.New("invalid order status")
	ErrFlightOverlap       = errors.New("airplane is already scheduled for an overlapping flight")
	ErrDuplicateRequest    = errors.New("request is already being processed")
	ErrForbidden           = errors.New("forbidden")
	ErrOrderNotFound       = errors.New("order not found")
	ErrFlightNotFound      = errors.New("flight not found")
	ErrAirplaneNotFound    = errors.New("airplane not found")
	ErrRouteNotFound       = errors.New("route not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrInternalServerError = errors.New("internal server error")
)

// FieldErrors 以欄位路徑（例如 "tickets[0].row"）對應錯誤訊息
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// FieldError 帶有欄位訊息的錯誤，Unwrap 回傳錯誤類別（ErrValidation、ErrSeatOutOfRange...）
// 讓上層可以用 errors.Is 判斷類別，再用 Fields 取出逐欄位的訊息。
type FieldError struct {
	Kind   error
	Fields FieldErrors
}

func NewFieldError(kind error, field, message string) *FieldError {
	fe := &FieldError{Kind: kind, Fields: FieldErrors{}}
	fe.Fields.Add(field, message)
	return fe
}

func (e *FieldError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return fmt.Sprintf("%v (%s)", e.Kind, strings.Join(parts, ", "))
}

func (e *FieldError) Unwrap() error {
	return e.Kind
}

// WithPrefix 回傳欄位路徑加上前綴的新錯誤，例如 "row" -> "tickets[2].row"
func (e *FieldError) WithPrefix(prefix string) *FieldError {
	out := &FieldError{Kind: e.Kind, Fields: make(FieldErrors, len(e.Fields))}
	for k, v := range e.Fields {
		key := prefix
		if k != "" {
			key = prefix + "." + k
		}
		out.Fields[key] = append(out.Fields[key], v...)
	}
	return out
}

// Fields 取出錯誤鏈中的欄位訊息，沒有則回傳 nil
func Fields(err error) FieldErrors {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Fields
	}
	return nil
}
