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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceService bills reservations and records payments against the bill.
type InvoiceService struct {
	DB         *gorm.DB
	log        *zap.Logger
	locker     Locker
	metrics    *metrics.HotelMetrics
	commission CommissionPolicy
	now        func() time.Time
}

func NewInvoiceService(db *gorm.DB, logger *zap.Logger, locker Locker, m *metrics.HotelMetrics, policy CommissionPolicy) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewMemoryLocker()
	}
	if policy == nil {
		policy = ManualSettlement{}
	}
	return &InvoiceService{
		DB:         db,
		log:        logger.Named("invoices"),
		locker:     locker,
		metrics:    m,
		commission: policy,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type PaymentInput struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	TransactionID string          `json:"transactionId"`
	Notes         string          `json:"notes"`
	PaymentDate   *time.Time      `json:"paymentDate"`
}

type InvoiceFilter struct {
	PaymentStatus string
	GuestID       uint
	ReservationID uint
	// Date limits the list to invoices issued on that calendar day (UTC).
	Date *time.Time
}

// invoicePaymentStatus derives the bill state from what is still owed.
func invoicePaymentStatus(balanceDue, totalPaid decimal.Decimal) string {
	switch {
	case !balanceDue.IsPositive():
		return models.InvoicePaid
	case totalPaid.IsPositive():
		return models.InvoicePartial
	}
	return models.InvoiceUnpaid
}

func newReceiptNumber(at time.Time) string {
	return "RCP" + at.Format("060102") + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// Generate bills a checked-out reservation that has no invoice yet.
func (s *InvoiceService) Generate(ctx context.Context, reservationID uint, actorID uint) (*models.Invoice, error) {
	unlock, err := lockReservation(ctx, s.locker, s.metrics, reservationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var inv *models.Invoice
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := lockReservationRow(tx, reservationID)
		if err != nil {
			return err
		}
		if res.Status != models.ReservationCheckedOut {
			return conflict("reservation_not_checked_out",
				"reservation %s is %s; invoices are generated at check-out", res.ReservationNumber, res.Status)
		}
		inv, err = s.generateTx(ctx, tx, res, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.InvoiceGenerated("explicit")
	return s.Get(ctx, inv.ID)
}

// generateTx builds the invoice for res inside tx. Callers hold the
// reservation lock.
func (s *InvoiceService) generateTx(ctx context.Context, tx *gorm.DB, res *models.Reservation, actorID uint) (*models.Invoice, error) {
	if _, err := findInvoiceByReservation(tx, res.ID); err == nil {
		return nil, conflict("invoice_exists", "reservation %s already has an invoice", res.ReservationNumber)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	guest, err := findGuest(tx, res.GuestID)
	if err != nil {
		return nil, err
	}

	var expenses []models.GuestExpense
	if err := tx.Where("reservation_id = ? AND payment_status <> ?", res.ID, models.ExpensePaid).
		Order("expense_date ASC, id ASC").
		Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("failed to load folio: %w", err)
	}

	lines := make([]models.InvoiceLine, 0, len(expenses))
	expenseIDs := make([]uint, 0, len(expenses))
	extras := decimal.Zero
	for _, e := range expenses {
		lines = append(lines, models.InvoiceLine{
			ExpenseID:   e.ID,
			Date:        e.ExpenseDate,
			Category:    e.Category,
			Description: e.Description,
			Amount:      e.TotalAmount,
		})
		expenseIDs = append(expenseIDs, e.ID)
		extras = extras.Add(e.TotalAmount)
	}

	now := s.now()
	subtotal := res.RoomCharges.Add(extras)
	total := subtotal.Add(res.TaxAmount).Sub(res.DiscountAmount)
	taxPct := decimal.Zero
	if res.RoomCharges.IsPositive() {
		taxPct = res.TaxAmount.Div(res.RoomCharges).Mul(hundred).Round(2)
	}

	payments := []models.InvoicePayment{}
	totalPaid := decimal.Zero
	if res.AdvancePayment.IsPositive() {
		payments = append(payments, models.InvoicePayment{
			PaymentDate:   res.CreatedAt,
			Amount:        res.AdvancePayment,
			PaymentMethod: models.PaymentMethodAdvance,
			ReceiptNumber: newReceiptNumber(now),
			Notes:         "Advance paid at booking",
			RecordedBy:    res.CreatedBy,
		})
		totalPaid = res.AdvancePayment
	}
	balance := total.Sub(totalPaid)

	var agent *models.TravelAgent
	commission := decimal.Zero
	if res.TravelAgentID != nil {
		if agent, err = lockAgent(tx, *res.TravelAgentID); err != nil {
			return nil, err
		}
		commission = total.Mul(agent.CommissionRate).Div(hundred).Round(2)
	}

	number, err := NextDocumentNumber(tx, SequenceInvoice, "INV", now)
	if err != nil {
		return nil, err
	}

	inv := &models.Invoice{
		InvoiceNumber:      number,
		ReservationID:      res.ID,
		GuestID:            res.GuestID,
		TravelAgentID:      res.TravelAgentID,
		InvoiceDate:        now,
		CheckInDate:        res.CheckInDate,
		CheckOutDate:       res.CheckOutDate,
		NumberOfNights:     res.NumberOfNights,
		RoomCharges:        res.RoomCharges,
		TotalExtraExpenses: extras,
		Subtotal:           subtotal,
		TaxPercentage:      taxPct,
		TaxAmount:          res.TaxAmount,
		DiscountAmount:     res.DiscountAmount,
		DiscountReason:     res.DiscountReason,
		TotalAmount:        total,
		AdvancePaid:        res.AdvancePayment,
		TotalPaid:          totalPaid,
		BalanceDue:         balance,
		PaymentStatus:      invoicePaymentStatus(balance, totalPaid),
		BillingName:        guest.FullName(),
		BillingAddress:     guest.Address,
		CompanyName:        guest.Company,
		CommissionAmount:   commission,
		GeneratedBy:        actorID,
		ExtraExpenses:      lines,
		Payments:           payments,
	}
	if err := tx.Create(inv).Error; err != nil {
		return nil, classifyWriteError(err, "invoice_exists", "invoice for reservation "+res.ReservationNumber)
	}

	if len(expenseIDs) > 0 {
		if err := tx.Model(&models.GuestExpense{}).Where("id IN ?", expenseIDs).
			Update("payment_status", models.ExpenseAddedToBill).Error; err != nil {
			return nil, fmt.Errorf("failed to mark folio as billed: %w", err)
		}
	}
	if err := tx.Model(&models.Guest{}).Where("id = ?", guest.ID).
		UpdateColumn("total_spent", gorm.Expr("total_spent + ?", total)).Error; err != nil {
		return nil, fmt.Errorf("failed to update guest spend: %w", err)
	}
	if err := tx.Model(res).UpdateColumn("payment_status", reservationPaymentStatus(totalPaid, total)).Error; err != nil {
		return nil, fmt.Errorf("failed to update reservation payment status: %w", err)
	}
	if agent != nil {
		if err := s.commission.Apply(ctx, tx, agent, inv); err != nil {
			return nil, fmt.Errorf("failed to apply commission: %w", err)
		}
	}

	s.log.Info("invoice generated",
		zap.Uint("invoice_id", inv.ID),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.Uint("reservation_id", res.ID),
		zap.String("total", total.StringFixed(2)),
		zap.String("balance_due", balance.StringFixed(2)))
	return inv, nil
}

// AddPayment appends a payment and re-derives the totals in the same
// transaction. Payments larger than the balance are rejected.
func (s *InvoiceService) AddPayment(ctx context.Context, invoiceID uint, in PaymentInput, actorID uint) (*models.Invoice, error) {
	if !in.Amount.IsPositive() {
		return nil, invalid("invalid_amount", "payment amount must be greater than zero")
	}
	if !oneOf(in.PaymentMethod, models.PaymentMethods) {
		return nil, invalid("invalid_payment_method", "payment method must be one of %s", strings.Join(models.PaymentMethods, ", "))
	}

	head, err := findInvoice(s.DB.WithContext(ctx), invoiceID)
	if err != nil {
		return nil, err
	}
	unlock, err := lockReservation(ctx, s.locker, s.metrics, head.ReservationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := findInvoice(tx.Clauses(clause.Locking{Strength: "UPDATE"}), invoiceID)
		if err != nil {
			return err
		}
		if in.Amount.GreaterThan(inv.BalanceDue) {
			return invalid("payment_exceeds_balance", "payment of %s exceeds the balance due of %s",
				in.Amount.StringFixed(2), inv.BalanceDue.StringFixed(2))
		}

		now := s.now()
		paidAt := now
		if in.PaymentDate != nil && !in.PaymentDate.IsZero() {
			paidAt = in.PaymentDate.UTC()
		}
		payment := models.InvoicePayment{
			InvoiceID:     inv.ID,
			PaymentDate:   paidAt,
			Amount:        in.Amount,
			PaymentMethod: in.PaymentMethod,
			TransactionID: strings.TrimSpace(in.TransactionID),
			ReceiptNumber: newReceiptNumber(now),
			Notes:         in.Notes,
			RecordedBy:    actorID,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		var payments []models.InvoicePayment
		if err := tx.Where("invoice_id = ?", inv.ID).Find(&payments).Error; err != nil {
			return fmt.Errorf("failed to load payments: %w", err)
		}
		totalPaid := decimal.Zero
		for _, p := range payments {
			totalPaid = totalPaid.Add(p.Amount)
		}
		balance := inv.TotalAmount.Sub(totalPaid)

		if err := tx.Model(inv).Updates(map[string]interface{}{
			"total_paid":     totalPaid,
			"balance_due":    balance,
			"payment_status": invoicePaymentStatus(balance, totalPaid),
		}).Error; err != nil {
			return fmt.Errorf("failed to update invoice totals: %w", err)
		}
		return tx.Model(&models.Reservation{}).Where("id = ?", inv.ReservationID).
			UpdateColumn("payment_status", reservationPaymentStatus(totalPaid, inv.TotalAmount)).Error
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Payment(in.PaymentMethod, in.Amount.InexactFloat64())
	s.log.Info("payment recorded",
		zap.Uint("invoice_id", invoiceID),
		zap.String("amount", in.Amount.StringFixed(2)),
		zap.String("method", in.PaymentMethod),
		zap.Uint("actor_id", actorID))
	return s.Get(ctx, invoiceID)
}

// Void deletes an invoice that has taken no payment beyond the booking
// advance. Its folio lines return to Pending so they can be corrected, and
// the guest spend and any accrued commission are rolled back. The
// reservation can then be billed again.
func (s *InvoiceService) Void(ctx context.Context, invoiceID uint, actorID uint) error {
	head, err := findInvoice(s.DB.WithContext(ctx), invoiceID)
	if err != nil {
		return err
	}
	unlock, err := lockReservation(ctx, s.locker, s.metrics, head.ReservationID)
	if err != nil {
		return err
	}
	defer unlock()

	var inv *models.Invoice
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the stay may have been deleted since billing
		res, err := lockReservationRow(tx, head.ReservationID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		locked, err := findInvoice(tx.Clauses(clause.Locking{Strength: "UPDATE"}), invoiceID)
		if err != nil {
			return err
		}
		inv = locked

		var received int64
		if err := tx.Model(&models.InvoicePayment{}).
			Where("invoice_id = ? AND payment_method <> ?", inv.ID, models.PaymentMethodAdvance).
			Count(&received).Error; err != nil {
			return fmt.Errorf("failed to count payments: %w", err)
		}
		if received > 0 {
			return conflict("invoice_has_payments", "invoice %s has %d recorded payment(s) and cannot be voided",
				inv.InvoiceNumber, received)
		}

		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceLine{}).Error; err != nil {
			return fmt.Errorf("failed to delete invoice lines: %w", err)
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoicePayment{}).Error; err != nil {
			return fmt.Errorf("failed to delete invoice payments: %w", err)
		}
		if err := tx.Delete(inv).Error; err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}

		if err := tx.Model(&models.GuestExpense{}).
			Where("reservation_id = ? AND payment_status = ?", inv.ReservationID, models.ExpenseAddedToBill).
			Update("payment_status", models.ExpensePending).Error; err != nil {
			return fmt.Errorf("failed to reopen folio: %w", err)
		}
		if err := tx.Model(&models.Guest{}).Where("id = ?", inv.GuestID).
			UpdateColumn("total_spent", gorm.Expr("total_spent - ?", inv.TotalAmount)).Error; err != nil {
			return fmt.Errorf("failed to update guest spend: %w", err)
		}
		if res != nil {
			if err := tx.Model(res).UpdateColumn("payment_status",
				reservationPaymentStatus(res.AdvancePayment, res.TotalAmount)).Error; err != nil {
				return fmt.Errorf("failed to update reservation payment status: %w", err)
			}
		}
		if inv.TravelAgentID != nil {
			agent, err := lockAgent(tx, *inv.TravelAgentID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			if agent != nil {
				if err := s.commission.Reverse(ctx, tx, agent, inv); err != nil {
					return fmt.Errorf("failed to reverse commission: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.InvoiceVoided()
	s.log.Warn("invoice voided",
		zap.Uint("invoice_id", inv.ID),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.Uint("reservation_id", inv.ReservationID),
		zap.String("total", inv.TotalAmount.StringFixed(2)),
		zap.Uint("actor_id", actorID))
	return nil
}

func (s *InvoiceService) Get(ctx context.Context, id uint) (*models.Invoice, error) {
	return findInvoice(s.DB.WithContext(ctx).Preload("ExtraExpenses").Preload("Payments", orderPayments), id)
}

func (s *InvoiceService) GetByReservation(ctx context.Context, reservationID uint) (*models.Invoice, error) {
	return findInvoiceByReservation(s.DB.WithContext(ctx).Preload("ExtraExpenses").Preload("Payments", orderPayments), reservationID)
}

func (s *InvoiceService) List(ctx context.Context, f InvoiceFilter) ([]models.Invoice, error) {
	q := s.DB.WithContext(ctx).Preload("ExtraExpenses").Preload("Payments", orderPayments)
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.GuestID != 0 {
		q = q.Where("guest_id = ?", f.GuestID)
	}
	if f.ReservationID != 0 {
		q = q.Where("reservation_id = ?", f.ReservationID)
	}
	if f.Date != nil {
		from := utils.StartOfDay(*f.Date)
		q = q.Where("invoice_date >= ? AND invoice_date < ?", from, from.AddDate(0, 0, 1))
	}
	var out []models.Invoice
	if err := q.Order("invoice_date DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return out, nil
}

func orderPayments(db *gorm.DB) *gorm.DB {
	return db.Order("payment_date ASC, id ASC")
}

func findInvoice(db *gorm.DB, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := db.First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("invoice_not_found", "invoice %d not found", id)
		}
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	return &inv, nil
}

func findInvoiceByReservation(db *gorm.DB, reservationID uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := db.Where("reservation_id = ?", reservationID).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("invoice_not_found", "no invoice for reservation %d", reservationID)
		}
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	return &inv, nil
}
