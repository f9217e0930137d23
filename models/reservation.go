package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reservation lifecycle states
const (
	ReservationConfirmed  = "Confirmed"
	ReservationCheckedIn  = "Checked-In"
	ReservationCheckedOut = "Checked-Out"
	ReservationCancelled  = "Cancelled"
	ReservationNoShow     = "No-Show"
)

// Reservation-level payment states, mirrored from the invoice once one exists.
const (
	ReservationPaymentPending = "Pending"
	ReservationPaymentPartial = "Partial"
	ReservationPaymentPaid    = "Paid"
)

const BookingSourceTravelAgent = "Travel Agent"

var BookingSources = []string{
	"Walk-in", "Booking.com", "Agoda", "Airbnb", BookingSourceTravelAgent,
	"Hotel Website", "Phone", "Email", "Other",
}

var MealPlans = []string{"None", "Breakfast", "Half Board", "Full Board", "All Inclusive"}

var StayPurposes = []string{"Business", "Leisure", "Conference", "Wedding", "Other"}

// ActiveReservationStatuses are the states that hold a room for their date range.
var ActiveReservationStatuses = []string{ReservationConfirmed, ReservationCheckedIn}

type Reservation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ReservationNumber string `json:"reservationNumber" gorm:"column:reservation_number;size:32;uniqueIndex"`

	GuestID       uint  `json:"guestId" gorm:"column:guest_id;index;not null"`
	RoomID        *uint `json:"roomId" gorm:"column:room_id;index"`
	TravelAgentID *uint `json:"travelAgentId,omitempty" gorm:"column:travel_agent_id;index"`

	BookingSource    string `json:"bookingSource" gorm:"size:32"`
	BookingReference string `json:"bookingReference,omitempty" gorm:"size:100"`

	CheckInDate        time.Time  `json:"checkInDate" gorm:"column:check_in_date;index"`
	CheckOutDate       time.Time  `json:"checkOutDate" gorm:"column:check_out_date;index"`
	ActualCheckInDate  *time.Time `json:"actualCheckInDate,omitempty" gorm:"column:actual_check_in_date"`
	ActualCheckOutDate *time.Time `json:"actualCheckOutDate,omitempty" gorm:"column:actual_check_out_date"`

	NumberOfAdults   int    `json:"numberOfAdults" gorm:"default:1"`
	NumberOfChildren int    `json:"numberOfChildren" gorm:"default:0"`
	NumberOfGuests   int    `json:"numberOfGuests"`
	RoomType         string `json:"roomType" gorm:"size:50"`
	NumberOfRooms    int    `json:"numberOfRooms" gorm:"default:1"`

	RatePerNight   decimal.Decimal `json:"ratePerNight" gorm:"type:decimal(12,2)"`
	NumberOfNights int             `json:"numberOfNights"`
	RoomCharges    decimal.Decimal `json:"roomCharges" gorm:"type:decimal(14,2)"`
	TaxAmount      decimal.Decimal `json:"taxAmount" gorm:"type:decimal(14,2);default:0"`
	DiscountAmount decimal.Decimal `json:"discountAmount" gorm:"type:decimal(14,2);default:0"`
	DiscountReason string          `json:"discountReason,omitempty" gorm:"size:255"`
	TotalAmount    decimal.Decimal `json:"totalAmount" gorm:"type:decimal(14,2)"`
	AdvancePayment decimal.Decimal `json:"advancePayment" gorm:"type:decimal(14,2);default:0"`

	Status        string `json:"status" gorm:"size:16;index;default:Confirmed"`
	PaymentStatus string `json:"paymentStatus" gorm:"size:16;default:Pending"`

	MealPlan        string `json:"mealPlan" gorm:"size:32;default:None"`
	Purpose         string `json:"purpose,omitempty" gorm:"size:32"`
	SpecialRequests string `json:"specialRequests,omitempty" gorm:"type:text"`
	Notes           string `json:"notes,omitempty" gorm:"type:text"`

	CancellationReason  string          `json:"cancellationReason,omitempty" gorm:"size:255"`
	CancellationDate    *time.Time      `json:"cancellationDate,omitempty"`
	CancellationCharges decimal.Decimal `json:"cancellationCharges" gorm:"type:decimal(14,2);default:0"`

	CreatedBy uint `json:"createdBy" gorm:"column:created_by"`

	Guest       *Guest       `json:"guest,omitempty" gorm:"foreignKey:GuestID"`
	Room        *Room        `json:"room,omitempty" gorm:"foreignKey:RoomID"`
	TravelAgent *TravelAgent `json:"travelAgent,omitempty" gorm:"foreignKey:TravelAgentID"`
}

// IsActive reports whether the reservation still holds its room.
func (r Reservation) IsActive() bool {
	return r.Status == ReservationConfirmed || r.Status == ReservationCheckedIn
}
