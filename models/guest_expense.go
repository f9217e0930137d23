package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ExpensePending     = "Pending"
	ExpensePaid        = "Paid"
	ExpenseAddedToBill = "Added to Bill"
)

var ExpensePaymentStatuses = []string{ExpensePending, ExpensePaid, ExpenseAddedToBill}

var ExpenseCategories = []string{
	"Room Service", "Restaurant", "Bar", "Laundry", "Spa", "Gym", "Minibar",
	"Telephone", "Internet", "Parking", "Transportation", "Extra Bed",
	"Late Checkout", "Early Checkin", "Damage Charges", "Other",
}

// GuestExpense is one folio line. Amount, TaxAmount and TotalAmount are
// derived from Quantity, UnitPrice and TaxPercentage on every write.
type GuestExpense struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ReservationID uint `json:"reservationId" gorm:"column:reservation_id;index;not null"`
	GuestID       uint `json:"guestId" gorm:"column:guest_id;index;not null"`

	ExpenseDate time.Time `json:"expenseDate" gorm:"column:expense_date;index"`
	Category    string    `json:"category" gorm:"size:32;index"`
	Description string    `json:"description" gorm:"size:255"`

	Quantity      int             `json:"quantity" gorm:"default:1"`
	UnitPrice     decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,2)"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(14,2)"`
	TaxPercentage decimal.Decimal `json:"taxPercentage" gorm:"type:decimal(5,2);default:0"`
	TaxAmount     decimal.Decimal `json:"taxAmount" gorm:"type:decimal(14,2);default:0"`
	TotalAmount   decimal.Decimal `json:"totalAmount" gorm:"type:decimal(14,2)"`

	PaymentStatus string `json:"paymentStatus" gorm:"size:16;index;default:Pending"`
	AddedBy       uint   `json:"addedBy" gorm:"column:added_by"`
	Notes         string `json:"notes,omitempty" gorm:"type:text"`
}

// Recalculate derives the amount fields from the current quantity, unit price
// and tax percentage.
func (e *GuestExpense) Recalculate() {
	e.Amount = e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Quantity))).Round(2)
	e.TaxAmount = e.Amount.Mul(e.TaxPercentage).Div(decimal.NewFromInt(100)).Round(2)
	e.TotalAmount = e.Amount.Add(e.TaxAmount)
}
