package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Invoice payment states, derived from the balance due.
const (
	InvoiceUnpaid  = "Unpaid"
	InvoicePartial = "Partial"
	InvoicePaid    = "Paid"
)

const PaymentMethodAdvance = "Advance"

var PaymentMethods = []string{
	"Cash", "Credit Card", "Debit Card", "UPI", "Net Banking", "Cheque", "Bank Transfer", PaymentMethodAdvance,
}

type Invoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	InvoiceNumber string `json:"invoiceNumber" gorm:"column:invoice_number;size:32;uniqueIndex"`

	// one invoice per reservation
	ReservationID uint  `json:"reservationId" gorm:"column:reservation_id;uniqueIndex"`
	GuestID       uint  `json:"guestId" gorm:"column:guest_id;index"`
	TravelAgentID *uint `json:"travelAgentId,omitempty" gorm:"column:travel_agent_id;index"`

	InvoiceDate    time.Time `json:"invoiceDate"`
	CheckInDate    time.Time `json:"checkInDate"`
	CheckOutDate   time.Time `json:"checkOutDate"`
	NumberOfNights int       `json:"numberOfNights"`

	RoomCharges        decimal.Decimal `json:"roomCharges" gorm:"type:decimal(14,2)"`
	TotalExtraExpenses decimal.Decimal `json:"totalExtraExpenses" gorm:"type:decimal(14,2);default:0"`
	Subtotal           decimal.Decimal `json:"subtotal" gorm:"type:decimal(14,2)"`
	TaxPercentage      decimal.Decimal `json:"taxPercentage" gorm:"type:decimal(6,2);default:0"`
	TaxAmount          decimal.Decimal `json:"taxAmount" gorm:"type:decimal(14,2);default:0"`
	DiscountAmount     decimal.Decimal `json:"discountAmount" gorm:"type:decimal(14,2);default:0"`
	DiscountReason     string          `json:"discountReason,omitempty" gorm:"size:255"`
	TotalAmount        decimal.Decimal `json:"totalAmount" gorm:"type:decimal(14,2)"`
	AdvancePaid        decimal.Decimal `json:"advancePaid" gorm:"type:decimal(14,2);default:0"`
	TotalPaid          decimal.Decimal `json:"totalPaid" gorm:"type:decimal(14,2);default:0"`
	BalanceDue         decimal.Decimal `json:"balanceDue" gorm:"type:decimal(14,2)"`
	PaymentStatus      string          `json:"paymentStatus" gorm:"size:16;index;default:Unpaid"`

	BillingName    string         `json:"billingName" gorm:"size:255"`
	BillingAddress datatypes.JSON `json:"billingAddress,omitempty"`
	CompanyName    string         `json:"companyName,omitempty" gorm:"size:150"`

	CommissionAmount decimal.Decimal `json:"commissionAmount" gorm:"type:decimal(14,2);default:0"`
	GeneratedBy      uint            `json:"generatedBy" gorm:"column:generated_by"`
	Notes            string          `json:"notes,omitempty" gorm:"type:text"`

	ExtraExpenses []InvoiceLine    `json:"extraExpenses" gorm:"foreignKey:InvoiceID"`
	Payments      []InvoicePayment `json:"payments" gorm:"foreignKey:InvoiceID"`
}

// InvoiceLine is a detached copy of a folio charge taken when the invoice
// was generated. Later edits to the folio do not reach it.
type InvoiceLine struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	InvoiceID   uint            `json:"invoiceId" gorm:"column:invoice_id;index"`
	ExpenseID   uint            `json:"expenseId" gorm:"column:expense_id"`
	Date        time.Time       `json:"date"`
	Category    string          `json:"category" gorm:"size:32"`
	Description string          `json:"description" gorm:"size:255"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(14,2)"`
}

// InvoicePayment rows are append-only.
type InvoicePayment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time       `json:"createdAt"`
	InvoiceID     uint            `json:"invoiceId" gorm:"column:invoice_id;index"`
	PaymentDate   time.Time       `json:"paymentDate"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(14,2)"`
	PaymentMethod string          `json:"paymentMethod" gorm:"size:32"`
	TransactionID string          `json:"transactionId,omitempty" gorm:"size:128"`
	ReceiptNumber string          `json:"receiptNumber" gorm:"size:64;uniqueIndex"`
	Notes         string          `json:"notes,omitempty" gorm:"type:text"`
	RecordedBy    uint            `json:"recordedBy" gorm:"column:recorded_by"`
}
