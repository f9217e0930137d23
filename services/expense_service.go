package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotel-pms/metrics"
	"hotel-pms/models"
	"hotel-pms/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ExpenseService is the folio: ad-hoc charges against an in-house stay.
// Writes hold the per-reservation lock shared with check-out and invoicing.
type ExpenseService struct {
	DB      *gorm.DB
	log     *zap.Logger
	locker  Locker
	metrics *metrics.HotelMetrics
	now     func() time.Time
}

func NewExpenseService(db *gorm.DB, logger *zap.Logger, locker Locker, m *metrics.HotelMetrics) *ExpenseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewMemoryLocker()
	}
	return &ExpenseService{
		DB:      db,
		log:     logger.Named("folio"),
		locker:  locker,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type AddExpenseInput struct {
	ReservationID uint            `json:"reservationId"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	TaxPercentage decimal.Decimal `json:"taxPercentage"`
	ExpenseDate   *time.Time      `json:"expenseDate"`
	Notes         string          `json:"notes"`
}

type UpdateExpenseInput struct {
	Category      *string          `json:"category"`
	Description   *string          `json:"description"`
	Quantity      *int             `json:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unitPrice"`
	TaxPercentage *decimal.Decimal `json:"taxPercentage"`
	ExpenseDate   *time.Time       `json:"expenseDate"`
	PaymentStatus *string          `json:"paymentStatus"`
	Notes         *string          `json:"notes"`
}

type ExpenseFilter struct {
	GuestID       uint
	Category      string
	PaymentStatus string
	// Date limits the list to charges posted on that calendar day (UTC).
	Date *time.Time
}

// Folio is a reservation's charges with their running total.
type Folio struct {
	ReservationID uint                  `json:"reservationId"`
	Expenses      []models.GuestExpense `json:"expenses"`
	Total         decimal.Decimal       `json:"total"`
}

func validateExpense(e *models.GuestExpense) error {
	e.Description = strings.TrimSpace(e.Description)
	switch {
	case !oneOf(e.Category, models.ExpenseCategories):
		return invalid("invalid_category", "category must be one of %s", strings.Join(models.ExpenseCategories, ", "))
	case e.Description == "":
		return invalid("description_required", "description is required")
	case e.Quantity < 1:
		return invalid("invalid_quantity", "quantity must be at least 1")
	case !e.UnitPrice.IsPositive():
		return invalid("invalid_unit_price", "unit price must be greater than zero")
	case e.TaxPercentage.IsNegative() || e.TaxPercentage.GreaterThan(hundred):
		return invalid("invalid_tax_percentage", "tax percentage must be between 0 and 100")
	case !oneOf(e.PaymentStatus, models.ExpensePaymentStatuses):
		return invalid("invalid_payment_status", "payment status must be one of %s", strings.Join(models.ExpensePaymentStatuses, ", "))
	}
	return nil
}

// Add posts a charge to an in-house reservation. Amounts are always derived
// from quantity, unit price and tax percentage.
func (s *ExpenseService) Add(ctx context.Context, in AddExpenseInput, actorID uint) (*models.GuestExpense, error) {
	if in.ReservationID == 0 {
		return nil, invalid("reservation_required", "reservationId is required")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	e := &models.GuestExpense{
		ReservationID: in.ReservationID,
		ExpenseDate:   s.now(),
		Category:      in.Category,
		Description:   in.Description,
		Quantity:      in.Quantity,
		UnitPrice:     in.UnitPrice,
		TaxPercentage: in.TaxPercentage,
		PaymentStatus: models.ExpensePending,
		AddedBy:       actorID,
		Notes:         in.Notes,
	}
	if in.ExpenseDate != nil && !in.ExpenseDate.IsZero() {
		e.ExpenseDate = in.ExpenseDate.UTC()
	}
	if err := validateExpense(e); err != nil {
		return nil, err
	}

	unlock, err := lockReservation(ctx, s.locker, s.metrics, in.ReservationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := lockReservationRow(tx, in.ReservationID)
		if err != nil {
			return err
		}
		if res.Status != models.ReservationCheckedIn {
			return conflict("reservation_not_checked_in", "charges can only be posted to checked-in reservations (reservation %s is %s)",
				res.ReservationNumber, res.Status)
		}
		if _, err := findInvoiceByReservation(tx, res.ID); err == nil {
			return conflict("invoice_exists", "reservation %s is already invoiced", res.ReservationNumber)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		e.GuestID = res.GuestID
		e.Recalculate()
		if err := tx.Create(e).Error; err != nil {
			return fmt.Errorf("failed to post charge: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("charge posted",
		zap.Uint("expense_id", e.ID),
		zap.Uint("reservation_id", e.ReservationID),
		zap.String("category", e.Category),
		zap.String("total", e.TotalAmount.StringFixed(2)),
		zap.Uint("actor_id", actorID))
	return e, nil
}

// Update merges the supplied fields and re-derives all amounts from the
// merged quantity, unit price and tax percentage. Only Pending and Paid can
// be set by hand; "Added to Bill" belongs to invoicing.
func (s *ExpenseService) Update(ctx context.Context, id uint, in UpdateExpenseInput) (*models.GuestExpense, error) {
	if in.PaymentStatus != nil && *in.PaymentStatus != models.ExpensePending && *in.PaymentStatus != models.ExpensePaid {
		return nil, invalid("invalid_payment_status", "payment status can only be set to %s or %s",
			models.ExpensePending, models.ExpensePaid)
	}
	unlock, err := s.lockExpenseReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var out *models.GuestExpense
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := findExpense(tx, id)
		if err != nil {
			return err
		}
		if err := ensureFolioLineOpen(tx, e); err != nil {
			return err
		}
		setString(&e.Category, in.Category)
		setString(&e.Description, in.Description)
		setString(&e.PaymentStatus, in.PaymentStatus)
		setString(&e.Notes, in.Notes)
		if in.Quantity != nil {
			e.Quantity = *in.Quantity
		}
		if in.UnitPrice != nil {
			e.UnitPrice = *in.UnitPrice
		}
		if in.TaxPercentage != nil {
			e.TaxPercentage = *in.TaxPercentage
		}
		if in.ExpenseDate != nil && !in.ExpenseDate.IsZero() {
			e.ExpenseDate = in.ExpenseDate.UTC()
		}
		if err := validateExpense(e); err != nil {
			return err
		}
		e.Recalculate()
		if err := tx.Save(e).Error; err != nil {
			return fmt.Errorf("failed to update charge: %w", err)
		}
		out = e
		return nil
	})
	return out, err
}

// Delete removes a folio line that has not been billed yet.
func (s *ExpenseService) Delete(ctx context.Context, id uint) error {
	unlock, err := s.lockExpenseReservation(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := findExpense(tx, id)
		if err != nil {
			return err
		}
		if err := ensureFolioLineOpen(tx, e); err != nil {
			return err
		}
		if err := tx.Delete(e).Error; err != nil {
			return fmt.Errorf("failed to delete charge: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("charge removed", zap.Uint("expense_id", id))
	return nil
}

// lockExpenseReservation resolves the line's reservation and takes its lock.
func (s *ExpenseService) lockExpenseReservation(ctx context.Context, id uint) (func(), error) {
	e, err := findExpense(s.DB.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return lockReservation(ctx, s.locker, s.metrics, e.ReservationID)
}

// ensureFolioLineOpen refuses edits to a line once its reservation is invoiced.
func ensureFolioLineOpen(tx *gorm.DB, e *models.GuestExpense) error {
	if e.PaymentStatus == models.ExpenseAddedToBill {
		return conflict("expense_billed", "expense %d is already on an invoice", e.ID)
	}
	// the reservation may be gone; the line is still removable then
	if _, err := lockReservationRow(tx, e.ReservationID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	inv, err := findInvoiceByReservation(tx, e.ReservationID)
	if err == nil {
		return conflict("invoice_exists", "reservation is already invoiced as %s", inv.InvoiceNumber)
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

func (s *ExpenseService) Get(ctx context.Context, id uint) (*models.GuestExpense, error) {
	return findExpense(s.DB.WithContext(ctx), id)
}

func (s *ExpenseService) ListByReservation(ctx context.Context, reservationID uint) (*Folio, error) {
	if _, err := findReservation(s.DB.WithContext(ctx), reservationID); err != nil {
		return nil, err
	}
	var expenses []models.GuestExpense
	if err := s.DB.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("expense_date ASC, id ASC").
		Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("failed to load folio: %w", err)
	}
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.TotalAmount)
	}
	return &Folio{ReservationID: reservationID, Expenses: expenses, Total: total}, nil
}

func (s *ExpenseService) List(ctx context.Context, f ExpenseFilter) ([]models.GuestExpense, error) {
	q := s.DB.WithContext(ctx).Model(&models.GuestExpense{})
	if f.GuestID != 0 {
		q = q.Where("guest_id = ?", f.GuestID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.Date != nil {
		from := utils.StartOfDay(*f.Date)
		q = q.Where("expense_date >= ? AND expense_date < ?", from, from.AddDate(0, 0, 1))
	}
	var out []models.GuestExpense
	if err := q.Order("expense_date DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list charges: %w", err)
	}
	return out, nil
}

func findExpense(db *gorm.DB, id uint) (*models.GuestExpense, error) {
	var e models.GuestExpense
	if err := db.First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("expense_not_found", "expense %d not found", id)
		}
		return nil, fmt.Errorf("failed to find expense: %w", err)
	}
	return &e, nil
}
