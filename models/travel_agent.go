package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	AgentActive    = "Active"
	AgentInactive  = "Inactive"
	AgentSuspended = "Suspended"
)

var AgentStatuses = []string{AgentActive, AgentInactive, AgentSuspended}

var PaymentTerms = []string{"Prepaid", "Credit", "COD"}

type TravelAgent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	AgentName     string         `json:"agentName" gorm:"size:150"`
	CompanyName   string         `json:"companyName" gorm:"size:150"`
	AgentCode     string         `json:"agentCode" gorm:"column:agent_code;size:32;uniqueIndex"`
	ContactPerson string         `json:"contactPerson" gorm:"size:150"`
	Email         string         `json:"email" gorm:"size:150"`
	Phone         string         `json:"phone" gorm:"size:50"`
	Address       datatypes.JSON `json:"address,omitempty"`
	LicenseNumber string         `json:"licenseNumber,omitempty" gorm:"size:100"`

	// percent, 0-100
	CommissionRate decimal.Decimal `json:"commissionRate" gorm:"column:commission_rate;type:decimal(5,2);default:10"`
	PaymentTerms   string          `json:"paymentTerms" gorm:"size:16;default:Credit"`
	CreditLimit    decimal.Decimal `json:"creditLimit" gorm:"column:credit_limit;type:decimal(14,2);default:0"`
	CurrentBalance decimal.Decimal `json:"currentBalance" gorm:"column:current_balance;type:decimal(14,2);default:0"`
	TotalBookings  int             `json:"totalBookings" gorm:"column:total_bookings;default:0"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue" gorm:"column:total_revenue;type:decimal(14,2);default:0"`

	Status            string     `json:"status" gorm:"size:16;default:Active"`
	ContractStartDate *time.Time `json:"contractStartDate,omitempty"`
	ContractEndDate   *time.Time `json:"contractEndDate,omitempty"`
	Notes             string     `json:"notes,omitempty" gorm:"type:text"`
}
