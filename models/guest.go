package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var NationalIDTypes = []string{"Passport", "National ID", "Driver License", "Other"}

var GuestTypes = []string{"Regular", "VIP", "Corporate", "Group"}

type Guest struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	FirstName      string `json:"firstName" gorm:"size:100"`
	LastName       string `json:"lastName" gorm:"size:100"`
	Email          string `json:"email" gorm:"size:150"`
	Phone          string `json:"phone" gorm:"size:50"`
	AlternatePhone string `json:"alternatePhone,omitempty" gorm:"size:50"`

	// (type, number) identifies a guest
	NationalIDType   string `json:"nationalIdType" gorm:"column:national_id_type;size:32;uniqueIndex:idx_guest_national_id"`
	NationalIDNumber string `json:"nationalIdNumber" gorm:"column:national_id_number;size:64;uniqueIndex:idx_guest_national_id"`

	Nationality string         `json:"nationality" gorm:"size:100"`
	Address     datatypes.JSON `json:"address,omitempty"`
	DateOfBirth *time.Time     `json:"dateOfBirth,omitempty"`
	Gender      string         `json:"gender,omitempty" gorm:"size:16"`
	Company     string         `json:"company,omitempty" gorm:"size:150"`
	GuestType   string         `json:"guestType" gorm:"size:32;default:Regular"`
	Preferences datatypes.JSON `json:"preferences,omitempty"`

	TotalStays    int             `json:"totalStays" gorm:"column:total_stays;default:0"`
	TotalSpent    decimal.Decimal `json:"totalSpent" gorm:"column:total_spent;type:decimal(14,2);default:0"`
	LoyaltyPoints int             `json:"loyaltyPoints" gorm:"column:loyalty_points;default:0"`

	Blacklisted     bool   `json:"blacklisted" gorm:"default:false"`
	BlacklistReason string `json:"blacklistReason,omitempty" gorm:"size:255"`
	Notes           string `json:"notes,omitempty" gorm:"type:text"`
}

func (g Guest) FullName() string {
	switch {
	case g.FirstName == "":
		return g.LastName
	case g.LastName == "":
		return g.FirstName
	}
	return g.FirstName + " " + g.LastName
}
