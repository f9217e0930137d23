package services

import (
	"errors"
	"fmt"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Error kinds. Match with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrPaymentRequired = errors.New("payment required")
	ErrForbidden       = errors.New("forbidden")
)

// Error is a user-facing failure. Code is a stable snake_case identifier the
// API layer passes through to clients.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

func notFound(code, format string, args ...interface{}) error {
	return &Error{Kind: ErrNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

func invalid(code, format string, args ...interface{}) error {
	return &Error{Kind: ErrValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func conflict(code, format string, args ...interface{}) error {
	return &Error{Kind: ErrConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

// PaymentRequiredError blocks a check-out while the invoice still has a
// balance. It carries what the caller needs to route the guest to payment.
type PaymentRequiredError struct {
	ReservationID uint
	InvoiceID     uint
	InvoiceNumber string
	BalanceDue    decimal.Decimal
}

func (e *PaymentRequiredError) Error() string {
	return fmt.Sprintf("payment_required: outstanding balance of %s on invoice %s must be paid first",
		e.BalanceDue.StringFixed(2), e.InvoiceNumber)
}

func (e *PaymentRequiredError) Unwrap() error { return ErrPaymentRequired }

// Code returns the stable code of err, or "" when err is not a typed failure.
func Code(err error) string {
	var pe *PaymentRequiredError
	if errors.As(err, &pe) {
		return "payment_required"
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// isDuplicateKeyError detects unique-index violations from MySQL (1062) and SQLite.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var merr *mysql.MySQLError
	if errors.As(err, &merr) {
		return merr.Number == 1062
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "duplicate entry") || strings.Contains(lower, "unique constraint failed")
}

// isForeignKeyError detects MySQL 1452 (child row references a missing parent).
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	var merr *mysql.MySQLError
	if errors.As(err, &merr) {
		return merr.Number == 1452
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "foreign key constraint")
}

// classifyWriteError turns storage errors that clients can act on into typed
// failures and wraps everything else.
func classifyWriteError(err error, code, what string) error {
	switch {
	case err == nil:
		return nil
	case isDuplicateKeyError(err):
		return conflict(code, "%s already exists", what)
	case isForeignKeyError(err):
		return invalid(code, "%s references a missing record", what)
	}
	return fmt.Errorf("failed to save %s: %w", what, err)
}
