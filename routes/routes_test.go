package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hotel-pms/controllers"
	"hotel-pms/metrics"
	"hotel-pms/models"
	"hotel-pms/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

type apiClient struct {
	t     *testing.T
	r     *gin.Engine
	token string
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code       string  `json:"code"`
		InvoiceID  uint    `json:"invoiceId"`
		BalanceDue float64 `json:"balanceDue"`
	} `json:"error"`
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	log := zap.NewNop()
	m := metrics.New(prometheus.NewRegistry())
	locker := services.NewMemoryLocker()
	admins := services.NewAdminService(db, log)
	_, err = admins.EnsureAdmin(context.Background(), "desk@hotel.test", "Front Desk", "pa55word", models.RoleAdmin)
	require.NoError(t, err)
	invoices := services.NewInvoiceService(db, log, locker, m, nil)

	r := SetupRouter(Controllers{
		Auth:         controllers.NewAuthController(admins, testSecret, time.Hour),
		Rooms:        controllers.NewRoomController(services.NewRoomService(db, log)),
		Guests:       controllers.NewGuestController(services.NewGuestService(db, log)),
		Agents:       controllers.NewTravelAgentController(services.NewTravelAgentService(db, log)),
		Reservations: controllers.NewReservationController(services.NewReservationService(db, log, locker, m, invoices)),
		Expenses:     controllers.NewExpenseController(services.NewExpenseService(db, log, locker, m)),
		Invoices:     controllers.NewInvoiceController(invoices),
	}, Options{JWTSecret: testSecret, Logger: log})
	return &apiClient{t: t, r: r}
}

func (a *apiClient) do(method, path string, body interface{}) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

// create posts body and returns the new record's id.
func (a *apiClient) create(path string, body interface{}) uint {
	a.t.Helper()
	code, env := a.do(http.MethodPost, path, body)
	require.Equal(a.t, http.StatusCreated, code, string(env.Data), env.Error.Code)
	var rec struct {
		ID uint `json:"id"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &rec))
	return rec.ID
}

func (a *apiClient) login() {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/auth/login", gin.H{"username": "desk@hotel.test", "password": "pa55word"})
	require.Equal(a.t, http.StatusOK, code)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(a.t, out.Token)
	a.token = out.Token
}

func TestWritesNeedToken(t *testing.T) {
	api := newAPI(t)

	code, env := api.do(http.MethodPost, "/api/rooms", gin.H{"roomNumber": "101"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "error.unauthorized", env.Error.Code)

	api.token = "garbage"
	code, _ = api.do(http.MethodGet, "/api/rooms", nil)
	assert.Equal(t, http.StatusUnauthorized, code, "a bad token is refused even on reads")

	api.token = ""
	code, _ = api.do(http.MethodGet, "/api/rooms", nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = api.do(http.MethodPost, "/api/auth/login", gin.H{"username": "desk@hotel.test", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "error.invalidCredentials", env.Error.Code)

	api.login()
	code, env = api.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "desk@hotel.test")
	assert.NotContains(t, string(env.Data), "$2a$", "password hash is never serialised")
}

func TestStayOverHTTP(t *testing.T) {
	api := newAPI(t)
	api.login()

	roomID := api.create("/api/rooms", gin.H{"roomNumber": "101", "roomType": "Double", "floor": 1, "basePrice": 1000, "capacity": 2})
	guestID := api.create("/api/guests", gin.H{
		"firstName": "Ana", "lastName": "Silva", "phone": "+15550100",
		"nationalIdType": "Passport", "nationalIdNumber": "P-1", "dateOfBirth": "1990-05-17",
	})

	code, env := api.do(http.MethodPost, "/api/reservations", gin.H{
		"guestId": guestID, "roomId": roomID, "checkInDate": "2024-03-02", "checkOutDate": "2024-03-01",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error.invalidDateRange", env.Error.Code)

	resID := api.create("/api/reservations", gin.H{
		"guestId": guestID, "roomId": roomID, "checkInDate": "2024-03-01", "checkOutDate": "2024-03-03", "taxAmount": 200,
	})

	code, env = api.do(http.MethodPost, "/api/reservations", gin.H{
		"guestId": guestID, "roomId": roomID, "checkInDate": "2024-03-02", "checkOutDate": "2024-03-04",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "error.roomNotAvailable", env.Error.Code)

	code, _ = api.do(http.MethodPut, fmt.Sprintf("/api/reservations/%d/check-in", resID), nil)
	require.Equal(t, http.StatusOK, code)

	api.create("/api/expenses", gin.H{
		"reservationId": resID, "category": "Spa", "description": "Massage",
		"quantity": 2, "unitPrice": 150, "taxPercentage": 10,
	})

	code, env = api.do(http.MethodGet, fmt.Sprintf("/api/expenses?reservationId=%d", resID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"total":330`)

	code, env = api.do(http.MethodPut, fmt.Sprintf("/api/reservations/%d/check-out", resID), nil)
	require.Equal(t, http.StatusPaymentRequired, code)
	assert.Equal(t, "error.paymentRequired", env.Error.Code)
	assert.Equal(t, 2530.0, env.Error.BalanceDue)
	invoiceID := env.Error.InvoiceID
	require.NotZero(t, invoiceID)

	code, env = api.do(http.MethodPut, fmt.Sprintf("/api/invoices/%d/payment", invoiceID), gin.H{"amount": 3000, "paymentMethod": "Cash"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error.paymentExceedsBalance", env.Error.Code)

	code, _ = api.do(http.MethodPut, fmt.Sprintf("/api/invoices/%d/payment", invoiceID), gin.H{
		"amount": 2530, "paymentMethod": "Credit Card", "paymentDate": "2024-03-03",
	})
	require.Equal(t, http.StatusOK, code)

	code, env = api.do(http.MethodPut, fmt.Sprintf("/api/reservations/%d/check-out", resID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"status":"Checked-Out"`)

	code, env = api.do(http.MethodGet, fmt.Sprintf("/api/reservations/%d/invoice", resID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"paymentStatus":"Paid"`)

	code, env = api.do(http.MethodPost, "/api/invoices/generate", gin.H{"reservationId": resID})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "error.invoiceExists", env.Error.Code)

	code, env = api.do(http.MethodGet, fmt.Sprintf("/api/rooms/%d", roomID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"status":"Cleaning"`)

	code, env = api.do(http.MethodGet, "/api/reservations/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error.invalidId", env.Error.Code)

	code, env = api.do(http.MethodGet, "/api/reservations/999", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "error.reservationNotFound", env.Error.Code)
}

func TestVoidInvoiceOverHTTP(t *testing.T) {
	api := newAPI(t)
	api.login()

	roomID := api.create("/api/rooms", gin.H{"roomNumber": "201", "roomType": "Single", "floor": 2, "basePrice": 800, "capacity": 1})
	guestID := api.create("/api/guests", gin.H{
		"firstName": "Joe", "lastName": "Park", "phone": "+15550111",
		"nationalIdType": "Passport", "nationalIdNumber": "P-9",
	})
	resID := api.create("/api/reservations", gin.H{
		"guestId": guestID, "roomId": roomID, "checkInDate": "2024-03-01", "checkOutDate": "2024-03-02",
	})
	code, _ := api.do(http.MethodPut, fmt.Sprintf("/api/reservations/%d/check-in", resID), nil)
	require.Equal(t, http.StatusOK, code)
	expenseID := api.create("/api/expenses", gin.H{
		"reservationId": resID, "category": "Bar", "description": "Wine",
		"unitPrice": 40, "expenseDate": "2024-03-01",
	})

	code, env := api.do(http.MethodGet, "/api/expenses?date=2024-03-01", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"description":"Wine"`)
	code, env = api.do(http.MethodGet, "/api/expenses?date=2024-03-02", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))

	code, env = api.do(http.MethodPut, fmt.Sprintf("/api/reservations/%d/check-out", resID), nil)
	require.Equal(t, http.StatusPaymentRequired, code)
	invoiceID := env.Error.InvoiceID

	code, env = api.do(http.MethodPut, fmt.Sprintf("/api/expenses/%d", expenseID), gin.H{"unitPrice": 30})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "error.expenseBilled", env.Error.Code)

	code, env = api.do(http.MethodGet, "/api/invoices?date=not-a-date", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error.invalidDate", env.Error.Code)
	code, env = api.do(http.MethodGet, "/api/invoices?date=2000-01-01", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))

	api.token = ""
	code, _ = api.do(http.MethodDelete, fmt.Sprintf("/api/invoices/%d", invoiceID), nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	api.login()

	code, _ = api.do(http.MethodDelete, fmt.Sprintf("/api/invoices/%d", invoiceID), nil)
	require.Equal(t, http.StatusOK, code)
	code, env = api.do(http.MethodGet, fmt.Sprintf("/api/reservations/%d/invoice", resID), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "error.invoiceNotFound", env.Error.Code)

	code, env = api.do(http.MethodPut, fmt.Sprintf("/api/expenses/%d", expenseID), gin.H{"unitPrice": 30})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"paymentStatus":"Pending"`)
	assert.Contains(t, string(env.Data), `"totalAmount":30`)
}
