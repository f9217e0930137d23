package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"hotel-pms/metrics"
	"hotel-pms/models"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type fixture struct {
	db           *gorm.DB
	metrics      *metrics.HotelMetrics
	locker       *MemoryLocker
	rooms        *RoomService
	guests       *GuestService
	agents       *TravelAgentService
	invoices     *InvoiceService
	reservations *ReservationService
	expenses     *ExpenseService
}

func newFixture(t *testing.T, policy CommissionPolicy) *fixture {
	t.Helper()
	db := newTestDB(t)
	log := zap.NewNop()
	m := metrics.New(prometheus.NewRegistry())
	locker := NewMemoryLocker()

	invoices := NewInvoiceService(db, log, locker, m, policy)
	return &fixture{
		db:           db,
		metrics:      m,
		locker:       locker,
		rooms:        NewRoomService(db, log),
		guests:       NewGuestService(db, log),
		agents:       NewTravelAgentService(db, log),
		invoices:     invoices,
		reservations: NewReservationService(db, log, locker, m, invoices),
		expenses:     NewExpenseService(db, log, locker, m),
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func money(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, money(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

func (f *fixture) room(t *testing.T, number string, price int64) *models.Room {
	t.Helper()
	r := &models.Room{RoomNumber: number, RoomType: "Double", Floor: 1, BasePrice: decimal.NewFromInt(price), Capacity: 2}
	require.NoError(t, f.rooms.Create(context.Background(), r))
	return r
}

func (f *fixture) guest(t *testing.T, idNumber string) *models.Guest {
	t.Helper()
	g := &models.Guest{
		FirstName:        "Ana",
		LastName:         "Silva",
		Email:            "Ana.Silva@example.com",
		Phone:            "+15550100",
		NationalIDType:   "Passport",
		NationalIDNumber: idNumber,
	}
	require.NoError(t, f.guests.Create(context.Background(), g))
	return g
}

func (f *fixture) agent(t *testing.T, code string, rate int64) *models.TravelAgent {
	t.Helper()
	a := &models.TravelAgent{
		AgentName:      "Sun Travel",
		CompanyName:    "Sun Travel Ltd",
		AgentCode:      code,
		ContactPerson:  "Mia",
		Email:          "desk@suntravel.example",
		Phone:          "+15550199",
		CommissionRate: decimal.NewFromInt(rate),
	}
	require.NoError(t, f.agents.Create(context.Background(), a))
	return a
}

func (f *fixture) reload(t *testing.T, dst interface{}, id uint) {
	t.Helper()
	require.NoError(t, f.db.First(dst, id).Error)
}

func (f *fixture) book(t *testing.T, guestID uint, roomID *uint, in, out time.Time) *models.Reservation {
	t.Helper()
	res, err := f.reservations.Create(context.Background(), CreateReservationInput{
		GuestID:      guestID,
		RoomID:       roomID,
		CheckInDate:  in,
		CheckOutDate: out,
		RatePerNight: decimal.NewFromInt(1000),
	}, 1)
	require.NoError(t, err)
	return res
}

func uintPtr(v uint) *uint { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }

func decPtr(v string) *decimal.Decimal {
	d := money(v)
	return &d
}

func requireCode(t *testing.T, err error, kind error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	assert.Equal(t, code, Code(err))
}
