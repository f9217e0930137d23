package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Admin is a back-office user. Its ID is recorded in the audit fields
// (createdBy, addedBy, generatedBy, recordedBy).
type Admin struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	FullName    string         `gorm:"size:255" json:"fullName"`
	Username    string         `gorm:"uniqueIndex;size:150" json:"username"`
	Password    string         `gorm:"size:255" json:"-"` // bcrypt hash, never returned
	Role        string         `gorm:"size:16;default:staff" json:"role"`
	LastLoginAt *time.Time     `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
