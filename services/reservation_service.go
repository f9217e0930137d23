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
	"gorm.io/gorm/clause"
)

// ReservationService drives the reservation lifecycle and keeps rooms, guest
// statistics and the travel agent ledger in step with it.
type ReservationService struct {
	DB      *gorm.DB
	log     *zap.Logger
	locker  Locker
	metrics *metrics.HotelMetrics
	billing *InvoiceService
	now     func() time.Time
}

func NewReservationService(db *gorm.DB, logger *zap.Logger, locker Locker, m *metrics.HotelMetrics, billing *InvoiceService) *ReservationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewMemoryLocker()
	}
	return &ReservationService{
		DB:      db,
		log:     logger.Named("reservations"),
		locker:  locker,
		metrics: m,
		billing: billing,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type CreateReservationInput struct {
	GuestID          uint            `json:"guestId"`
	RoomID           *uint           `json:"roomId"`
	TravelAgentID    *uint           `json:"travelAgentId"`
	BookingSource    string          `json:"bookingSource"`
	BookingReference string          `json:"bookingReference"`
	CheckInDate      time.Time       `json:"checkInDate"`
	CheckOutDate     time.Time       `json:"checkOutDate"`
	NumberOfAdults   int             `json:"numberOfAdults"`
	NumberOfChildren int             `json:"numberOfChildren"`
	RoomType         string          `json:"roomType"`
	NumberOfRooms    int             `json:"numberOfRooms"`
	RatePerNight     decimal.Decimal `json:"ratePerNight"`
	TaxAmount        decimal.Decimal `json:"taxAmount"`
	DiscountAmount   decimal.Decimal `json:"discountAmount"`
	DiscountReason   string          `json:"discountReason"`
	AdvancePayment   decimal.Decimal `json:"advancePayment"`
	MealPlan         string          `json:"mealPlan"`
	Purpose          string          `json:"purpose"`
	SpecialRequests  string          `json:"specialRequests"`
	Notes            string          `json:"notes"`
}

// UpdateReservationInput is a partial update; nil fields keep their stored value.
type UpdateReservationInput struct {
	CheckInDate      *time.Time       `json:"checkInDate"`
	CheckOutDate     *time.Time       `json:"checkOutDate"`
	RatePerNight     *decimal.Decimal `json:"ratePerNight"`
	NumberOfRooms    *int             `json:"numberOfRooms"`
	TaxAmount        *decimal.Decimal `json:"taxAmount"`
	DiscountAmount   *decimal.Decimal `json:"discountAmount"`
	DiscountReason   *string          `json:"discountReason"`
	NumberOfAdults   *int             `json:"numberOfAdults"`
	NumberOfChildren *int             `json:"numberOfChildren"`
	BookingReference *string          `json:"bookingReference"`
	MealPlan         *string          `json:"mealPlan"`
	Purpose          *string          `json:"purpose"`
	SpecialRequests  *string          `json:"specialRequests"`
	Notes            *string          `json:"notes"`
	Status           *string          `json:"status"`
}

type CancelReservationInput struct {
	Reason  string          `json:"reason"`
	Charges decimal.Decimal `json:"cancellationCharges"`
}

type ReservationFilter struct {
	Status        string
	GuestID       uint
	RoomID        uint
	TravelAgentID uint
}

// stayCharges is the pricing of a stay: nights, room charges and total.
type stayCharges struct {
	Nights      int
	RoomCharges decimal.Decimal
	Total       decimal.Decimal
}

func priceStay(checkIn, checkOut time.Time, rate decimal.Decimal, rooms int, tax, discount decimal.Decimal) stayCharges {
	nights := utils.Nights(checkIn, checkOut)
	roomCharges := rate.Mul(decimal.NewFromInt(int64(nights))).Mul(decimal.NewFromInt(int64(rooms))).Round(2)
	return stayCharges{
		Nights:      nights,
		RoomCharges: roomCharges,
		Total:       roomCharges.Add(tax).Sub(discount),
	}
}

func validateMoney(code, field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return invalid(code, "%s cannot be negative", field)
	}
	return nil
}

func (in *CreateReservationInput) normalize() error {
	in.CheckInDate, in.CheckOutDate = in.CheckInDate.UTC(), in.CheckOutDate.UTC()
	if in.GuestID == 0 {
		return invalid("guest_required", "guestId is required")
	}
	if in.CheckInDate.IsZero() || in.CheckOutDate.IsZero() {
		return invalid("dates_required", "check-in and check-out dates are required")
	}
	if !in.CheckOutDate.After(in.CheckInDate) {
		return invalid("invalid_date_range", "check-out date must be after check-in date")
	}
	if in.NumberOfAdults == 0 {
		in.NumberOfAdults = 1
	}
	if in.NumberOfAdults < 1 || in.NumberOfChildren < 0 {
		return invalid("invalid_occupancy", "at least one adult is required and children cannot be negative")
	}
	if in.NumberOfRooms == 0 {
		in.NumberOfRooms = 1
	}
	if in.NumberOfRooms < 1 {
		return invalid("invalid_room_count", "numberOfRooms must be at least 1")
	}
	if in.BookingSource == "" {
		in.BookingSource = "Walk-in"
	}
	if !oneOf(in.BookingSource, models.BookingSources) {
		return invalid("invalid_booking_source", "booking source must be one of %s", strings.Join(models.BookingSources, ", "))
	}
	if in.BookingSource != models.BookingSourceTravelAgent {
		in.TravelAgentID = nil
	} else if in.TravelAgentID == nil || *in.TravelAgentID == 0 {
		return invalid("agent_required", "travelAgentId is required when booking source is %s", models.BookingSourceTravelAgent)
	}
	if in.MealPlan == "" {
		in.MealPlan = "None"
	}
	if !oneOf(in.MealPlan, models.MealPlans) {
		return invalid("invalid_meal_plan", "meal plan must be one of %s", strings.Join(models.MealPlans, ", "))
	}
	if in.Purpose != "" && !oneOf(in.Purpose, models.StayPurposes) {
		return invalid("invalid_purpose", "purpose must be one of %s", strings.Join(models.StayPurposes, ", "))
	}
	if in.RoomType != "" && !oneOf(in.RoomType, models.RoomTypes) {
		return invalid("invalid_room_type", "room type must be one of %s", strings.Join(models.RoomTypes, ", "))
	}
	if in.RoomID != nil && *in.RoomID == 0 {
		in.RoomID = nil
	}
	for _, m := range []struct {
		field string
		v     decimal.Decimal
	}{
		{"ratePerNight", in.RatePerNight},
		{"taxAmount", in.TaxAmount},
		{"discountAmount", in.DiscountAmount},
		{"advancePayment", in.AdvancePayment},
	} {
		if err := validateMoney("invalid_amount", m.field, m.v); err != nil {
			return err
		}
	}
	return nil
}

func reservationPaymentStatus(paid, total decimal.Decimal) string {
	switch {
	case paid.IsPositive() && paid.GreaterThanOrEqual(total):
		return models.ReservationPaymentPaid
	case paid.IsPositive():
		return models.ReservationPaymentPartial
	}
	return models.ReservationPaymentPending
}

// Create books a stay. The room row is locked for the duration of the
// transaction so the overlap check and the insert cannot interleave with a
// competing booking of the same room.
func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput, actorID uint) (*models.Reservation, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var res models.Reservation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		guest, err := findGuest(tx, in.GuestID)
		if err != nil {
			return err
		}
		if guest.Blacklisted {
			return invalid("guest_blacklisted", "guest %d is blacklisted", guest.ID)
		}

		var agent *models.TravelAgent
		if in.TravelAgentID != nil {
			if agent, err = lockAgent(tx, *in.TravelAgentID); err != nil {
				return err
			}
			if agent.Status != models.AgentActive {
				return invalid("agent_inactive", "travel agent %s is %s", agent.AgentCode, agent.Status)
			}
		}

		var room *models.Room
		if in.RoomID != nil {
			if room, err = lockRoom(tx, *in.RoomID); err != nil {
				return err
			}
			if !room.IsActive {
				return invalid("room_retired", "room %s is not in service", room.RoomNumber)
			}
			busy, err := roomHasOverlap(tx, room.ID, in.CheckInDate, in.CheckOutDate, 0)
			if err != nil {
				return err
			}
			if busy {
				s.metrics.BookingConflict()
				return conflict("room_not_available", "room %s is already booked for the selected dates", room.RoomNumber)
			}
			if in.RoomType == "" {
				in.RoomType = room.RoomType
			}
			if in.RatePerNight.IsZero() {
				in.RatePerNight = room.BasePrice
			}
		}
		if !in.RatePerNight.IsPositive() {
			return invalid("rate_required", "ratePerNight is required")
		}

		charges := priceStay(in.CheckInDate, in.CheckOutDate, in.RatePerNight, in.NumberOfRooms, in.TaxAmount, in.DiscountAmount)
		if charges.Total.IsNegative() {
			return invalid("invalid_discount", "discount exceeds room charges plus tax")
		}
		if in.AdvancePayment.GreaterThan(charges.Total) {
			return invalid("invalid_advance", "advance payment exceeds the reservation total")
		}

		number, err := NextDocumentNumber(tx, SequenceReservation, "RES", s.now())
		if err != nil {
			return err
		}

		res = models.Reservation{
			ReservationNumber: number,
			GuestID:           guest.ID,
			RoomID:            in.RoomID,
			TravelAgentID:     in.TravelAgentID,
			BookingSource:     in.BookingSource,
			BookingReference:  strings.TrimSpace(in.BookingReference),
			CheckInDate:       in.CheckInDate,
			CheckOutDate:      in.CheckOutDate,
			NumberOfAdults:    in.NumberOfAdults,
			NumberOfChildren:  in.NumberOfChildren,
			NumberOfGuests:    in.NumberOfAdults + in.NumberOfChildren,
			RoomType:          in.RoomType,
			NumberOfRooms:     in.NumberOfRooms,
			RatePerNight:      in.RatePerNight,
			NumberOfNights:    charges.Nights,
			RoomCharges:       charges.RoomCharges,
			TaxAmount:         in.TaxAmount,
			DiscountAmount:    in.DiscountAmount,
			DiscountReason:    in.DiscountReason,
			TotalAmount:       charges.Total,
			AdvancePayment:    in.AdvancePayment,
			Status:            models.ReservationConfirmed,
			PaymentStatus:     reservationPaymentStatus(in.AdvancePayment, charges.Total),
			MealPlan:          in.MealPlan,
			Purpose:           in.Purpose,
			SpecialRequests:   in.SpecialRequests,
			Notes:             in.Notes,
			CreatedBy:         actorID,
		}
		if err := tx.Omit(clause.Associations).Create(&res).Error; err != nil {
			return classifyWriteError(err, "reservation_exists", "reservation "+number)
		}

		if room != nil {
			if err := assignRoom(tx, room, res.ID); err != nil {
				return fmt.Errorf("failed to assign room: %w", err)
			}
		}
		if err := tx.Model(&models.Guest{}).Where("id = ?", guest.ID).
			UpdateColumn("total_stays", gorm.Expr("total_stays + ?", 1)).Error; err != nil {
			return fmt.Errorf("failed to update guest stays: %w", err)
		}
		if agent != nil {
			if err := tx.Model(&models.TravelAgent{}).Where("id = ?", agent.ID).UpdateColumns(map[string]interface{}{
				"total_bookings": gorm.Expr("total_bookings + ?", 1),
				"total_revenue":  gorm.Expr("total_revenue + ?", charges.Total),
			}).Error; err != nil {
				return fmt.Errorf("failed to update agent ledger: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(metrics.TransitionCreate)
	s.log.Info("reservation created",
		zap.Uint("reservation_id", res.ID),
		zap.String("reservation_number", res.ReservationNumber),
		zap.Uint("guest_id", res.GuestID),
		zap.String("total", res.TotalAmount.StringFixed(2)),
		zap.Uint("actor_id", actorID))
	return s.Get(ctx, res.ID)
}

// CheckIn moves a Confirmed reservation in-house. roomID is required when no
// room was bound at booking and may be used to move the guest to another room.
func (s *ReservationService) CheckIn(ctx context.Context, id uint, roomID *uint, actorID uint) (*models.Reservation, error) {
	unlock, err := lockReservation(ctx, s.locker, s.metrics, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := lockReservationRow(tx, id)
		if err != nil {
			return err
		}
		switch res.Status {
		case models.ReservationConfirmed:
		case models.ReservationCheckedIn:
			return conflict("already_checked_in", "reservation %s is already checked in", res.ReservationNumber)
		default:
			return conflict("invalid_status", "reservation %s is %s and cannot be checked in", res.ReservationNumber, res.Status)
		}

		if roomID != nil && *roomID == 0 {
			roomID = nil
		}
		var room *models.Room
		switch {
		case roomID != nil && (res.RoomID == nil || *res.RoomID != *roomID):
			if room, err = lockRoom(tx, *roomID); err != nil {
				return err
			}
			if !room.IsActive || (room.Status != models.RoomAvailable && room.Status != models.RoomReserved) {
				return invalid("room_not_ready", "room %s is %s; assign an Available or Reserved room", room.RoomNumber, room.Status)
			}
			busy, err := roomHasOverlap(tx, room.ID, res.CheckInDate, res.CheckOutDate, res.ID)
			if err != nil {
				return err
			}
			if busy {
				s.metrics.BookingConflict()
				return conflict("room_not_available", "room %s is booked by another reservation for these dates", room.RoomNumber)
			}
			if res.RoomID != nil {
				if err := releaseRoomToAvailable(tx, *res.RoomID, res.ID); err != nil {
					return fmt.Errorf("failed to release previous room: %w", err)
				}
			}
		case res.RoomID != nil:
			if room, err = lockRoom(tx, *res.RoomID); err != nil {
				return err
			}
			if room.Status == models.RoomMaintenance || room.Status == models.RoomOutOfOrder {
				return conflict("room_unavailable", "room %s is %s", room.RoomNumber, room.Status)
			}
			if room.Status == models.RoomOccupied && room.CurrentReservationID != nil && *room.CurrentReservationID != res.ID {
				return conflict("room_occupied", "room %s is still occupied", room.RoomNumber)
			}
		default:
			return invalid("room_required", "assign a room before checking in")
		}

		if err := occupyRoom(tx, room, res.ID); err != nil {
			return fmt.Errorf("failed to occupy room: %w", err)
		}
		now := s.now()
		return tx.Model(res).Updates(map[string]interface{}{
			"status":               models.ReservationCheckedIn,
			"room_id":              room.ID,
			"room_type":            room.RoomType,
			"actual_check_in_date": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(metrics.TransitionCheckIn)
	s.log.Info("guest checked in", zap.Uint("reservation_id", id), zap.Uint("actor_id", actorID))
	return s.Get(ctx, id)
}

// CheckOut closes an in-house stay. The invoice is generated on first
// attempt and kept even when the check-out is refused for an open balance;
// the refusal is a *PaymentRequiredError.
func (s *ReservationService) CheckOut(ctx context.Context, id uint, actorID uint) (*models.Reservation, *models.Invoice, error) {
	unlock, err := lockReservation(ctx, s.locker, s.metrics, id)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	var (
		invoice   *models.Invoice
		blocked   *PaymentRequiredError
		generated bool
	)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := lockReservationRow(tx, id)
		if err != nil {
			return err
		}
		switch res.Status {
		case models.ReservationCheckedIn:
		case models.ReservationCheckedOut:
			return conflict("already_checked_out", "reservation %s is already checked out", res.ReservationNumber)
		default:
			return conflict("not_checked_in", "reservation %s is %s; only checked-in guests can check out", res.ReservationNumber, res.Status)
		}

		invoice, err = findInvoiceByReservation(tx, res.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			if invoice, err = s.billing.generateTx(ctx, tx, res, actorID); err != nil {
				return err
			}
			generated = true
		case err != nil:
			return err
		}

		if invoice.BalanceDue.IsPositive() {
			blocked = &PaymentRequiredError{
				ReservationID: res.ID,
				InvoiceID:     invoice.ID,
				InvoiceNumber: invoice.InvoiceNumber,
				BalanceDue:    invoice.BalanceDue,
			}
			// commit so the generated invoice survives the refusal
			return nil
		}

		if err := tx.Model(res).Updates(map[string]interface{}{
			"status":                models.ReservationCheckedOut,
			"payment_status":        models.ReservationPaymentPaid,
			"actual_check_out_date": s.now(),
		}).Error; err != nil {
			return fmt.Errorf("failed to close reservation: %w", err)
		}
		if res.RoomID != nil {
			if err := releaseRoomForCleaning(tx, *res.RoomID, res.ID); err != nil {
				return fmt.Errorf("failed to release room: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if generated {
		s.metrics.InvoiceGenerated("checkout")
	}
	if blocked != nil {
		s.metrics.CheckoutBlocked()
		s.log.Info("check-out blocked by open balance",
			zap.Uint("reservation_id", id),
			zap.String("invoice_number", blocked.InvoiceNumber),
			zap.String("balance_due", blocked.BalanceDue.StringFixed(2)))
		return nil, invoice, blocked
	}

	s.metrics.Transition(metrics.TransitionCheckOut)
	s.log.Info("guest checked out", zap.Uint("reservation_id", id), zap.Uint("actor_id", actorID))
	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return res, invoice, nil
}

// Cancel ends a reservation that has not checked out. An in-house
// reservation can only be cancelled while it has no unbilled folio charges
// and no invoice; its room then goes to housekeeping.
func (s *ReservationService) Cancel(ctx context.Context, id uint, in CancelReservationInput, actorID uint) (*models.Reservation, error) {
	if err := validateMoney("invalid_amount", "cancellationCharges", in.Charges); err != nil {
		return nil, err
	}
	unlock, err := lockReservation(ctx, s.locker, s.metrics, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := lockReservationRow(tx, id)
		if err != nil {
			return err
		}
		switch res.Status {
		case models.ReservationConfirmed:
		case models.ReservationCheckedIn:
			var pending int64
			if err := tx.Model(&models.GuestExpense{}).
				Where("reservation_id = ? AND payment_status = ?", res.ID, models.ExpensePending).
				Count(&pending).Error; err != nil {
				return fmt.Errorf("failed to check folio: %w", err)
			}
			if pending > 0 {
				return conflict("unbilled_charges", "reservation %s has %d unbilled charge(s); check the guest out instead", res.ReservationNumber, pending)
			}
			if _, err := findInvoiceByReservation(tx, res.ID); err == nil {
				return conflict("invoice_exists", "reservation %s already has an invoice", res.ReservationNumber)
			} else if !errors.Is(err, ErrNotFound) {
				return err
			}
		case models.ReservationCancelled:
			return conflict("already_cancelled", "reservation %s is already cancelled", res.ReservationNumber)
		default:
			return conflict("invalid_status", "reservation %s is %s and cannot be cancelled", res.ReservationNumber, res.Status)
		}

		// Updates writes the new status back into res
		wasInHouse := res.Status == models.ReservationCheckedIn
		if err := tx.Model(res).Updates(map[string]interface{}{
			"status":               models.ReservationCancelled,
			"cancellation_reason":  strings.TrimSpace(in.Reason),
			"cancellation_date":    s.now(),
			"cancellation_charges": in.Charges,
		}).Error; err != nil {
			return fmt.Errorf("failed to cancel reservation: %w", err)
		}
		if res.RoomID != nil {
			if wasInHouse {
				err = releaseRoomForCleaning(tx, *res.RoomID, res.ID)
			} else {
				err = releaseRoomToAvailable(tx, *res.RoomID, res.ID)
			}
			if err != nil {
				return fmt.Errorf("failed to release room: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(metrics.TransitionCancel)
	s.log.Info("reservation cancelled", zap.Uint("reservation_id", id), zap.Uint("actor_id", actorID))
	return s.Get(ctx, id)
}

// Delete hard-deletes a reservation in any state. Folio lines and invoices
// are left in place.
func (s *ReservationService) Delete(ctx context.Context, id uint, actorID uint) error {
	unlock, err := lockReservation(ctx, s.locker, s.metrics, id)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := lockReservationRow(tx, id)
		if err != nil {
			return err
		}
		if res.RoomID != nil {
			switch res.Status {
			case models.ReservationCheckedIn:
				err = releaseRoomForCleaning(tx, *res.RoomID, res.ID)
			case models.ReservationConfirmed:
				err = releaseRoomToAvailable(tx, *res.RoomID, res.ID)
			}
			if err != nil {
				return fmt.Errorf("failed to release room: %w", err)
			}
		}
		if err := tx.Delete(&models.Reservation{}, res.ID).Error; err != nil {
			return fmt.Errorf("failed to delete reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.metrics.Transition(metrics.TransitionDelete)
	s.log.Warn("reservation deleted", zap.Uint("reservation_id", id), zap.Uint("actor_id", actorID))
	return nil
}

func (in UpdateReservationInput) touchesCharges() bool {
	return in.CheckInDate != nil || in.CheckOutDate != nil || in.RatePerNight != nil ||
		in.NumberOfRooms != nil || in.TaxAmount != nil || in.DiscountAmount != nil
}

// Update edits an open reservation. Pricing is recomputed from the merged
// (new or stored) values on every call.
func (s *ReservationService) Update(ctx context.Context, id uint, in UpdateReservationInput, actorID uint) (*models.Reservation, error) {
	unlock, err := lockReservation(ctx, s.locker, s.metrics, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var noShow bool
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := lockReservationRow(tx, id)
		if err != nil {
			return err
		}
		if !res.IsActive() {
			return conflict("reservation_closed", "reservation %s is %s and can no longer be edited", res.ReservationNumber, res.Status)
		}

		if in.Status != nil && *in.Status != res.Status {
			if *in.Status != models.ReservationNoShow {
				return invalid("invalid_status_change", "status %q is set through check-in, check-out or cancel", *in.Status)
			}
			if res.Status != models.ReservationConfirmed {
				return conflict("invalid_status", "only confirmed reservations can be marked as no-show")
			}
			noShow = true
		}

		if in.touchesCharges() {
			if _, err := findInvoiceByReservation(tx, res.ID); err == nil {
				return conflict("invoice_exists", "reservation %s is already invoiced", res.ReservationNumber)
			} else if !errors.Is(err, ErrNotFound) {
				return err
			}
		}

		checkIn, checkOut := res.CheckInDate, res.CheckOutDate
		if in.CheckInDate != nil {
			if res.Status == models.ReservationCheckedIn && !in.CheckInDate.UTC().Equal(res.CheckInDate.UTC()) {
				return invalid("check_in_locked", "check-in date cannot change after the guest has checked in")
			}
			checkIn = in.CheckInDate.UTC()
		}
		if in.CheckOutDate != nil {
			checkOut = in.CheckOutDate.UTC()
		}
		if !checkOut.After(checkIn) {
			return invalid("invalid_date_range", "check-out date must be after check-in date")
		}
		datesChanged := !checkIn.Equal(res.CheckInDate) || !checkOut.Equal(res.CheckOutDate)
		if datesChanged && res.RoomID != nil {
			busy, err := roomHasOverlap(tx, *res.RoomID, checkIn, checkOut, res.ID)
			if err != nil {
				return err
			}
			if busy {
				s.metrics.BookingConflict()
				return conflict("room_not_available", "room is already booked for the new dates")
			}
		}

		rate, rooms, tax, discount := res.RatePerNight, res.NumberOfRooms, res.TaxAmount, res.DiscountAmount
		if in.RatePerNight != nil {
			if !in.RatePerNight.IsPositive() {
				return invalid("rate_required", "ratePerNight must be greater than zero")
			}
			rate = *in.RatePerNight
		}
		if in.NumberOfRooms != nil {
			if *in.NumberOfRooms < 1 {
				return invalid("invalid_room_count", "numberOfRooms must be at least 1")
			}
			rooms = *in.NumberOfRooms
		}
		if in.TaxAmount != nil {
			if err := validateMoney("invalid_amount", "taxAmount", *in.TaxAmount); err != nil {
				return err
			}
			tax = *in.TaxAmount
		}
		if in.DiscountAmount != nil {
			if err := validateMoney("invalid_amount", "discountAmount", *in.DiscountAmount); err != nil {
				return err
			}
			discount = *in.DiscountAmount
		}
		charges := priceStay(checkIn, checkOut, rate, rooms, tax, discount)
		if charges.Total.IsNegative() {
			return invalid("invalid_discount", "discount exceeds room charges plus tax")
		}
		oldTotal := res.TotalAmount

		res.CheckInDate, res.CheckOutDate = checkIn, checkOut
		res.RatePerNight, res.NumberOfRooms = rate, rooms
		res.TaxAmount, res.DiscountAmount = tax, discount
		res.NumberOfNights = charges.Nights
		res.RoomCharges = charges.RoomCharges
		res.TotalAmount = charges.Total
		if in.touchesCharges() {
			res.PaymentStatus = reservationPaymentStatus(res.AdvancePayment, res.TotalAmount)
		}

		if in.NumberOfAdults != nil {
			if *in.NumberOfAdults < 1 {
				return invalid("invalid_occupancy", "at least one adult is required")
			}
			res.NumberOfAdults = *in.NumberOfAdults
		}
		if in.NumberOfChildren != nil {
			if *in.NumberOfChildren < 0 {
				return invalid("invalid_occupancy", "children cannot be negative")
			}
			res.NumberOfChildren = *in.NumberOfChildren
		}
		res.NumberOfGuests = res.NumberOfAdults + res.NumberOfChildren
		if in.MealPlan != nil {
			if !oneOf(*in.MealPlan, models.MealPlans) {
				return invalid("invalid_meal_plan", "meal plan must be one of %s", strings.Join(models.MealPlans, ", "))
			}
			res.MealPlan = *in.MealPlan
		}
		if in.Purpose != nil {
			if *in.Purpose != "" && !oneOf(*in.Purpose, models.StayPurposes) {
				return invalid("invalid_purpose", "purpose must be one of %s", strings.Join(models.StayPurposes, ", "))
			}
			res.Purpose = *in.Purpose
		}
		setString(&res.DiscountReason, in.DiscountReason)
		setString(&res.BookingReference, in.BookingReference)
		setString(&res.SpecialRequests, in.SpecialRequests)
		setString(&res.Notes, in.Notes)
		if noShow {
			res.Status = models.ReservationNoShow
		}

		if err := tx.Omit(clause.Associations).Save(res).Error; err != nil {
			return fmt.Errorf("failed to update reservation: %w", err)
		}

		if delta := res.TotalAmount.Sub(oldTotal); res.TravelAgentID != nil && !delta.IsZero() {
			if err := tx.Model(&models.TravelAgent{}).Where("id = ?", *res.TravelAgentID).
				UpdateColumn("total_revenue", gorm.Expr("total_revenue + ?", delta)).Error; err != nil {
				return fmt.Errorf("failed to update agent revenue: %w", err)
			}
		}
		if noShow && res.RoomID != nil {
			if err := releaseRoomToAvailable(tx, *res.RoomID, res.ID); err != nil {
				return fmt.Errorf("failed to release room: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if noShow {
		s.metrics.Transition(metrics.TransitionNoShow)
	}
	s.log.Info("reservation updated", zap.Uint("reservation_id", id), zap.Uint("actor_id", actorID))
	return s.Get(ctx, id)
}

func (s *ReservationService) Get(ctx context.Context, id uint) (*models.Reservation, error) {
	var res models.Reservation
	err := s.DB.WithContext(ctx).
		Preload("Guest").Preload("Room").Preload("TravelAgent").
		First(&res, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("reservation_not_found", "reservation %d not found", id)
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return &res, nil
}

func (s *ReservationService) List(ctx context.Context, f ReservationFilter) ([]models.Reservation, error) {
	if f.Status != "" && !oneOf(f.Status, reservationStatuses) {
		return nil, invalid("invalid_status", "unknown reservation status %q", f.Status)
	}
	q := s.DB.WithContext(ctx).Preload("Guest").Preload("Room").Preload("TravelAgent")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.GuestID != 0 {
		q = q.Where("guest_id = ?", f.GuestID)
	}
	if f.RoomID != 0 {
		q = q.Where("room_id = ?", f.RoomID)
	}
	if f.TravelAgentID != 0 {
		q = q.Where("travel_agent_id = ?", f.TravelAgentID)
	}
	var out []models.Reservation
	if err := q.Order("check_in_date DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return out, nil
}

func (s *ReservationService) ListByStatus(ctx context.Context, status string) ([]models.Reservation, error) {
	if status == "" {
		return nil, invalid("status_required", "status is required")
	}
	return s.List(ctx, ReservationFilter{Status: status})
}

// ListByDateRange returns reservations whose stay touches any day from start
// to end inclusive.
func (s *ReservationService) ListByDateRange(ctx context.Context, start, end time.Time) ([]models.Reservation, error) {
	start, end = utils.StartOfDay(start), utils.StartOfDay(end)
	if end.Before(start) {
		return nil, invalid("invalid_date_range", "end date is before start date")
	}
	var out []models.Reservation
	err := s.DB.WithContext(ctx).
		Preload("Guest").Preload("Room").Preload("TravelAgent").
		Where("check_in_date < ? AND check_out_date >= ?", end.AddDate(0, 0, 1), start).
		Order("check_in_date ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return out, nil
}

var reservationStatuses = []string{
	models.ReservationConfirmed, models.ReservationCheckedIn, models.ReservationCheckedOut,
	models.ReservationCancelled, models.ReservationNoShow,
}

func findReservation(db *gorm.DB, id uint) (*models.Reservation, error) {
	var res models.Reservation
	if err := db.First(&res, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("reservation_not_found", "reservation %d not found", id)
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return &res, nil
}

func lockReservationRow(tx *gorm.DB, id uint) (*models.Reservation, error) {
	return findReservation(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}
