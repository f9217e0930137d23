package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotel-pms/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomService owns the room inventory and its occupancy/housekeeping state.
type RoomService struct {
	DB  *gorm.DB
	log *zap.Logger
}

func NewRoomService(db *gorm.DB, logger *zap.Logger) *RoomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{DB: db, log: logger.Named("rooms")}
}

type RoomFilter struct {
	Status         string
	CleaningStatus string
	RoomType       string
	Floor          *int
	IncludeRetired bool
}

// RoomUpdate carries descriptive fields only; occupancy goes through UpdateStatus
// and the reservation flows.
type RoomUpdate struct {
	RoomNumber       *string          `json:"roomNumber"`
	RoomType         *string          `json:"roomType"`
	Floor            *int             `json:"floor"`
	Building         *string          `json:"building"`
	BasePrice        *decimal.Decimal `json:"basePrice"`
	Capacity         *int             `json:"capacity"`
	Amenities        *datatypes.JSON  `json:"amenities"`
	Description      *string          `json:"description"`
	MaintenanceNotes *string          `json:"maintenanceNotes"`
	IsActive         *bool            `json:"isActive"`
}

type RoomStatusUpdate struct {
	Status           *string `json:"status"`
	CleaningStatus   *string `json:"cleaningStatus"`
	MaintenanceNotes *string `json:"maintenanceNotes"`
}

// HousekeepingBoard groups rooms the way the housekeeping desk works them.
type HousekeepingBoard struct {
	Dirty      []models.Room `json:"dirty"`
	Pickup     []models.Room `json:"pickup"`
	Inspection []models.Room `json:"inspection"`
	Inspected  []models.Room `json:"inspected"`
	Available  []models.Room `json:"available"`
}

func (s *RoomService) Create(ctx context.Context, room *models.Room) error {
	room.RoomNumber = strings.TrimSpace(room.RoomNumber)
	if room.RoomNumber == "" {
		return invalid("room_number_required", "room number is required")
	}
	if !oneOf(room.RoomType, models.RoomTypes) {
		return invalid("invalid_room_type", "room type must be one of %s", strings.Join(models.RoomTypes, ", "))
	}
	if room.BasePrice.IsNegative() {
		return invalid("invalid_base_price", "base price cannot be negative")
	}
	if room.Capacity < 1 {
		return invalid("invalid_capacity", "capacity must be at least 1")
	}

	switch room.Status {
	case "":
		room.Status = models.RoomAvailable
	case models.RoomOccupied, models.RoomReserved:
		return invalid("invalid_room_status", "a new room cannot start as %s", room.Status)
	default:
		if !oneOf(room.Status, models.RoomStatuses) {
			return invalid("invalid_room_status", "unknown room status %q", room.Status)
		}
	}
	if room.CleaningStatus == "" {
		room.CleaningStatus = models.CleaningClean
	} else if !oneOf(room.CleaningStatus, models.CleaningStatuses) {
		return invalid("invalid_cleaning_status", "unknown cleaning status %q", room.CleaningStatus)
	}
	room.ID = 0
	room.CurrentReservationID = nil
	room.IsActive = true

	if err := s.DB.WithContext(ctx).Create(room).Error; err != nil {
		return classifyWriteError(err, "room_number_taken", fmt.Sprintf("room %s", room.RoomNumber))
	}
	s.log.Info("room created", zap.Uint("room_id", room.ID), zap.String("room_number", room.RoomNumber))
	return nil
}

func (s *RoomService) Get(ctx context.Context, id uint) (*models.Room, error) {
	return findRoom(s.DB.WithContext(ctx), id)
}

func (s *RoomService) List(ctx context.Context, f RoomFilter) ([]models.Room, error) {
	q := s.DB.WithContext(ctx).Model(&models.Room{})
	if !f.IncludeRetired {
		q = q.Where("is_active = ?", true)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CleaningStatus != "" {
		q = q.Where("cleaning_status = ?", f.CleaningStatus)
	}
	if f.RoomType != "" {
		q = q.Where("room_type = ?", f.RoomType)
	}
	if f.Floor != nil {
		q = q.Where("floor = ?", *f.Floor)
	}
	var rooms []models.Room
	if err := q.Order("room_number ASC").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

func (s *RoomService) Update(ctx context.Context, id uint, in RoomUpdate) (*models.Room, error) {
	var out *models.Room
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := lockRoom(tx, id)
		if err != nil {
			return err
		}

		if in.RoomNumber != nil {
			n := strings.TrimSpace(*in.RoomNumber)
			if n == "" {
				return invalid("room_number_required", "room number is required")
			}
			room.RoomNumber = n
		}
		if in.RoomType != nil {
			if !oneOf(*in.RoomType, models.RoomTypes) {
				return invalid("invalid_room_type", "room type must be one of %s", strings.Join(models.RoomTypes, ", "))
			}
			room.RoomType = *in.RoomType
		}
		if in.Floor != nil {
			room.Floor = *in.Floor
		}
		if in.Building != nil {
			room.Building = *in.Building
		}
		if in.BasePrice != nil {
			if in.BasePrice.IsNegative() {
				return invalid("invalid_base_price", "base price cannot be negative")
			}
			room.BasePrice = *in.BasePrice
		}
		if in.Capacity != nil {
			if *in.Capacity < 1 {
				return invalid("invalid_capacity", "capacity must be at least 1")
			}
			room.Capacity = *in.Capacity
		}
		if in.Amenities != nil {
			room.Amenities = *in.Amenities
		}
		if in.Description != nil {
			room.Description = *in.Description
		}
		if in.MaintenanceNotes != nil {
			room.MaintenanceNotes = *in.MaintenanceNotes
		}
		if in.IsActive != nil {
			if !*in.IsActive && room.CurrentReservationID != nil {
				return conflict("room_in_use", "room %s is held by a reservation", room.RoomNumber)
			}
			room.IsActive = *in.IsActive
		}

		if err := tx.Save(room).Error; err != nil {
			return classifyWriteError(err, "room_number_taken", fmt.Sprintf("room %s", room.RoomNumber))
		}
		out = room
		return nil
	})
	return out, err
}

// Delete retires the room. Rooms referenced by an active reservation are kept.
func (s *RoomService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := lockRoom(tx, id)
		if err != nil {
			return err
		}
		var active int64
		if err := tx.Model(&models.Reservation{}).
			Where("room_id = ? AND status IN ?", id, models.ActiveReservationStatuses).
			Count(&active).Error; err != nil {
			return fmt.Errorf("failed to check room reservations: %w", err)
		}
		if active > 0 || room.CurrentReservationID != nil {
			return conflict("room_in_use", "room %s has active reservations", room.RoomNumber)
		}
		if err := tx.Model(room).Update("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to retire room: %w", err)
		}
		s.log.Info("room retired", zap.Uint("room_id", id))
		return nil
	})
}

// UpdateStatus is the housekeeping write path.
func (s *RoomService) UpdateStatus(ctx context.Context, id uint, in RoomStatusUpdate) (*models.Room, error) {
	if in.Status == nil && in.CleaningStatus == nil && in.MaintenanceNotes == nil {
		return nil, invalid("empty_status_update", "status, cleaningStatus or maintenanceNotes is required")
	}
	var out *models.Room
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := lockRoom(tx, id)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{}

		if in.Status != nil && *in.Status != room.Status {
			st := *in.Status
			if !oneOf(st, models.RoomStatuses) {
				return invalid("invalid_room_status", "unknown room status %q", st)
			}
			if st == models.RoomOccupied || st == models.RoomReserved {
				return invalid("invalid_room_status", "%s is set by reservations, not by hand", st)
			}
			if room.CurrentReservationID != nil {
				return conflict("room_in_use", "room %s is held by reservation %d", room.RoomNumber, *room.CurrentReservationID)
			}
			updates["status"] = st
		}
		if in.CleaningStatus != nil {
			cs := *in.CleaningStatus
			if !oneOf(cs, models.CleaningStatuses) {
				return invalid("invalid_cleaning_status", "unknown cleaning status %q", cs)
			}
			updates["cleaning_status"] = cs
			if cs == models.CleaningClean {
				updates["last_cleaned_at"] = time.Now().UTC()
			}
		}
		if in.MaintenanceNotes != nil {
			updates["maintenance_notes"] = *in.MaintenanceNotes
		}
		if len(updates) > 0 {
			if err := tx.Model(room).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update room status: %w", err)
			}
		}
		out, err = findRoom(tx, id)
		return err
	})
	if err == nil {
		s.log.Info("room status updated",
			zap.Uint("room_id", id),
			zap.String("status", out.Status),
			zap.String("cleaning_status", out.CleaningStatus))
	}
	return out, err
}

func (s *RoomService) HousekeepingBoard(ctx context.Context) (*HousekeepingBoard, error) {
	rooms, err := s.List(ctx, RoomFilter{})
	if err != nil {
		return nil, err
	}
	board := &HousekeepingBoard{
		Dirty:      []models.Room{},
		Pickup:     []models.Room{},
		Inspection: []models.Room{},
		Inspected:  []models.Room{},
		Available:  []models.Room{},
	}
	for _, r := range rooms {
		switch {
		case r.CleaningStatus == models.CleaningDirty:
			board.Dirty = append(board.Dirty, r)
		case r.CleaningStatus == models.CleaningPickup:
			board.Pickup = append(board.Pickup, r)
		case r.CleaningStatus == models.CleaningClean && r.Status == models.RoomCleaning:
			board.Inspection = append(board.Inspection, r)
		case r.CleaningStatus == models.CleaningInspected && r.Status == models.RoomCleaning:
			board.Inspected = append(board.Inspected, r)
		case r.Status == models.RoomAvailable &&
			(r.CleaningStatus == models.CleaningClean || r.CleaningStatus == models.CleaningInspected):
			board.Available = append(board.Available, r)
		}
	}
	return board, nil
}

// FindAvailable returns active rooms in Available or Cleaning state that no
// Confirmed or Checked-In reservation holds for any night of [checkIn, checkOut).
func (s *RoomService) FindAvailable(ctx context.Context, checkIn, checkOut time.Time, roomType string) ([]models.Room, error) {
	checkIn, checkOut = checkIn.UTC(), checkOut.UTC()
	if !checkOut.After(checkIn) {
		return nil, invalid("invalid_date_range", "check-out date must be after check-in date")
	}
	db := s.DB.WithContext(ctx)
	busy := db.Model(&models.Reservation{}).
		Select("room_id").
		Where("room_id IS NOT NULL AND status IN ? AND check_in_date < ? AND check_out_date > ?",
			models.ActiveReservationStatuses, checkOut, checkIn)

	q := db.Where("is_active = ? AND status IN ?", true, []string{models.RoomAvailable, models.RoomCleaning}).
		Where("id NOT IN (?)", busy)
	if roomType != "" {
		q = q.Where("room_type = ?", roomType)
	}
	var rooms []models.Room
	if err := q.Order("room_number ASC").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to search available rooms: %w", err)
	}
	return rooms, nil
}

// --- transaction helpers used by the reservation flows ---

func findRoom(db *gorm.DB, id uint) (*models.Room, error) {
	var room models.Room
	if err := db.First(&room, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("room_not_found", "room %d not found", id)
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}

// lockRoom reads the room FOR UPDATE; concurrent bookings of the same room
// queue on this row.
func lockRoom(tx *gorm.DB, id uint) (*models.Room, error) {
	return findRoom(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

// roomHasOverlap reports whether another active reservation holds roomID for
// any night of [checkIn, checkOut). exclude skips the reservation being edited.
func roomHasOverlap(tx *gorm.DB, roomID uint, checkIn, checkOut time.Time, exclude uint) (bool, error) {
	q := tx.Model(&models.Reservation{}).
		Where("room_id = ? AND status IN ? AND check_in_date < ? AND check_out_date > ?",
			roomID, models.ActiveReservationStatuses, checkOut.UTC(), checkIn.UTC())
	if exclude != 0 {
		q = q.Where("id <> ?", exclude)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check room availability: %w", err)
	}
	return n > 0, nil
}

// assignRoom marks the room Reserved for reservationID unless another
// reservation already holds it; the reservation's own room_id is the binding.
func assignRoom(tx *gorm.DB, room *models.Room, reservationID uint) error {
	if room.CurrentReservationID != nil && *room.CurrentReservationID != reservationID {
		return nil
	}
	if room.Status != models.RoomAvailable && room.Status != models.RoomCleaning && room.Status != models.RoomReserved {
		return nil
	}
	return tx.Model(room).Updates(map[string]interface{}{
		"status":                 models.RoomReserved,
		"current_reservation_id": reservationID,
	}).Error
}

// occupyRoom hands the room to a checked-in reservation.
func occupyRoom(tx *gorm.DB, room *models.Room, reservationID uint) error {
	return tx.Model(room).Updates(map[string]interface{}{
		"status":                 models.RoomOccupied,
		"cleaning_status":        models.CleaningDirty,
		"current_reservation_id": reservationID,
	}).Error
}

// releaseRoomForCleaning frees a room after a stay. It is a no-op when the
// room is held by someone else.
func releaseRoomForCleaning(tx *gorm.DB, roomID, reservationID uint) error {
	return tx.Model(&models.Room{}).
		Where("id = ? AND (current_reservation_id = ? OR current_reservation_id IS NULL)", roomID, reservationID).
		Where("status IN ?", []string{models.RoomOccupied, models.RoomReserved}).
		Updates(map[string]interface{}{
			"status":                 models.RoomCleaning,
			"cleaning_status":        models.CleaningDirty,
			"current_reservation_id": nil,
		}).Error
}

// releaseRoomToAvailable frees a room nobody slept in.
func releaseRoomToAvailable(tx *gorm.DB, roomID, reservationID uint) error {
	return tx.Model(&models.Room{}).
		Where("id = ? AND current_reservation_id = ?", roomID, reservationID).
		Updates(map[string]interface{}{
			"status":                 models.RoomAvailable,
			"current_reservation_id": nil,
		}).Error
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
