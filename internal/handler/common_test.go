package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"airport-booking/internal/handler"
	"airport-booking/internal/middleware"
	servicemocks "airport-booking/internal/mocks/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

var InvalidJSON = `{"invalid": json}`

type testRouter struct {
	router  *gin.Engine
	orders  *servicemocks.OrderServiceMock
	flights *servicemocks.FlightServiceMock
	seats   *servicemocks.SeatServiceMock
}

func setupTestRouter() *testRouter {
	gin.SetMode(gin.TestMode)

	tr := &testRouter{
		router:  gin.New(),
		orders:  servicemocks.NewOrderServiceMock(),
		flights: servicemocks.NewFlightServiceMock(),
		seats:   servicemocks.NewSeatServiceMock(),
	}

	api := tr.router.Group("/api/v1", middleware.JWTAuth(testSecret))
	handler.NewFlightHandler(tr.flights, tr.seats).RegisterRoutes(api, middleware.RequireAdmin())
	handler.NewOrderHandler(tr.orders).RegisterRoutes(api)

	return tr
}

func signToken(userID int, role string) string {
	claims := jwt.MapClaims{
		"sub": strconv.Itoa(userID),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if role != "" {
		claims["role"] = role
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		panic(err)
	}
	return token
}

// create JSON request body
func createJSONRequest(data interface{}) *bytes.Buffer {
	if s, ok := data.(string); ok {
		return bytes.NewBufferString(s)
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return bytes.NewBuffer([]byte(""))
	}
	return bytes.NewBuffer(jsonData)
}

// create HTTP request with JSON body and bearer token
func createJSONHTTPRequest(method, url string, data interface{}, token string) *http.Request {
	var body *bytes.Buffer
	if data != nil {
		body = createJSONRequest(data)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (tr *testRouter) serve(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	tr.router.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
	}
	return body
}
