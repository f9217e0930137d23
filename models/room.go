package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Room occupancy states
const (
	RoomAvailable   = "Available"
	RoomOccupied    = "Occupied"
	RoomReserved    = "Reserved"
	RoomMaintenance = "Maintenance"
	RoomOutOfOrder  = "Out of Order"
	RoomCleaning    = "Cleaning"
)

// Housekeeping states
const (
	CleaningClean     = "Clean"
	CleaningDirty     = "Dirty"
	CleaningInspected = "Inspected"
	CleaningPickup    = "Pickup"
)

var RoomTypes = []string{"Single", "Double", "Suite", "Deluxe", "Presidential"}

var RoomStatuses = []string{RoomAvailable, RoomOccupied, RoomReserved, RoomMaintenance, RoomOutOfOrder, RoomCleaning}

var CleaningStatuses = []string{CleaningClean, CleaningDirty, CleaningInspected, CleaningPickup}

type Room struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	RoomNumber  string          `json:"roomNumber" gorm:"column:room_number;uniqueIndex;type:varchar(50)"`
	RoomType    string          `json:"roomType" gorm:"column:room_type;type:varchar(50);index"`
	Floor       int             `json:"floor"`
	Building    string          `json:"building" gorm:"type:varchar(100)"`
	BasePrice   decimal.Decimal `json:"basePrice" gorm:"column:base_price;type:decimal(12,2);default:0"`
	Capacity    int             `json:"capacity"`
	Amenities   datatypes.JSON  `json:"amenities,omitempty"`
	Description string          `json:"description" gorm:"type:text"`

	Status         string `json:"status" gorm:"column:status;type:varchar(32);index;default:Available"`
	CleaningStatus string `json:"cleaningStatus" gorm:"column:cleaning_status;type:varchar(32);index;default:Clean"`

	// back-reference only; the reservation owns the relationship
	CurrentReservationID *uint `json:"currentReservationId" gorm:"column:current_reservation_id;index"`

	LastCleanedAt    *time.Time `json:"lastCleanedAt,omitempty" gorm:"column:last_cleaned_at"`
	MaintenanceNotes string     `json:"maintenanceNotes,omitempty" gorm:"column:maintenance_notes;type:text"`
	IsActive         bool       `json:"isActive" gorm:"column:is_active;default:true"`
}
