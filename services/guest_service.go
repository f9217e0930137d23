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
)

type GuestService struct {
	DB  *gorm.DB
	log *zap.Logger
}

func NewGuestService(db *gorm.DB, logger *zap.Logger) *GuestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GuestService{DB: db, log: logger.Named("guests")}
}

// GuestUpdate holds the editable guest fields. Stay and spend statistics are
// not editable; they move with reservations and invoices.
type GuestUpdate struct {
	FirstName        *string         `json:"firstName"`
	LastName         *string         `json:"lastName"`
	Email            *string         `json:"email"`
	Phone            *string         `json:"phone"`
	AlternatePhone   *string         `json:"alternatePhone"`
	NationalIDType   *string         `json:"nationalIdType"`
	NationalIDNumber *string         `json:"nationalIdNumber"`
	Nationality      *string         `json:"nationality"`
	Address          *datatypes.JSON `json:"address"`
	DateOfBirth      *time.Time      `json:"dateOfBirth"`
	Gender           *string         `json:"gender"`
	Company          *string         `json:"company"`
	GuestType        *string         `json:"guestType"`
	Preferences      *datatypes.JSON `json:"preferences"`
	Blacklisted      *bool           `json:"blacklisted"`
	BlacklistReason  *string         `json:"blacklistReason"`
	Notes            *string         `json:"notes"`
}

type GuestFilter struct {
	Search    string
	GuestType string
}

func validateGuest(g *models.Guest) error {
	g.FirstName = strings.TrimSpace(g.FirstName)
	g.LastName = strings.TrimSpace(g.LastName)
	g.NationalIDNumber = strings.TrimSpace(g.NationalIDNumber)
	switch {
	case g.FirstName == "" || g.LastName == "":
		return invalid("guest_name_required", "first and last name are required")
	case strings.TrimSpace(g.Phone) == "":
		return invalid("guest_phone_required", "phone is required")
	case !oneOf(g.NationalIDType, models.NationalIDTypes):
		return invalid("invalid_id_type", "id type must be one of %s", strings.Join(models.NationalIDTypes, ", "))
	case g.NationalIDNumber == "":
		return invalid("guest_id_number_required", "id number is required")
	}
	if g.GuestType == "" {
		g.GuestType = "Regular"
	} else if !oneOf(g.GuestType, models.GuestTypes) {
		return invalid("invalid_guest_type", "guest type must be one of %s", strings.Join(models.GuestTypes, ", "))
	}
	g.Email = strings.ToLower(strings.TrimSpace(g.Email))
	return nil
}

func (s *GuestService) Create(ctx context.Context, guest *models.Guest) error {
	if err := validateGuest(guest); err != nil {
		return err
	}
	guest.ID = 0
	guest.TotalStays = 0
	guest.TotalSpent = decimal.Zero
	guest.LoyaltyPoints = 0

	if err := s.DB.WithContext(ctx).Create(guest).Error; err != nil {
		return classifyWriteError(err, "guest_exists",
			fmt.Sprintf("guest with %s %s", guest.NationalIDType, guest.NationalIDNumber))
	}
	s.log.Info("guest created", zap.Uint("guest_id", guest.ID))
	return nil
}

func (s *GuestService) Get(ctx context.Context, id uint) (*models.Guest, error) {
	return findGuest(s.DB.WithContext(ctx), id)
}

func (s *GuestService) List(ctx context.Context, f GuestFilter) ([]models.Guest, error) {
	q := s.DB.WithContext(ctx).Model(&models.Guest{})
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ? OR national_id_number LIKE ?",
			like, like, like, like, like)
	}
	if f.GuestType != "" {
		q = q.Where("guest_type = ?", f.GuestType)
	}
	var guests []models.Guest
	if err := q.Order("id DESC").Find(&guests).Error; err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	return guests, nil
}

func (s *GuestService) Update(ctx context.Context, id uint, in GuestUpdate) (*models.Guest, error) {
	var out *models.Guest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := findGuest(tx, id)
		if err != nil {
			return err
		}
		setString(&g.FirstName, in.FirstName)
		setString(&g.LastName, in.LastName)
		setString(&g.Email, in.Email)
		setString(&g.Phone, in.Phone)
		setString(&g.AlternatePhone, in.AlternatePhone)
		setString(&g.NationalIDType, in.NationalIDType)
		setString(&g.NationalIDNumber, in.NationalIDNumber)
		setString(&g.Nationality, in.Nationality)
		setString(&g.Gender, in.Gender)
		setString(&g.Company, in.Company)
		setString(&g.GuestType, in.GuestType)
		setString(&g.BlacklistReason, in.BlacklistReason)
		setString(&g.Notes, in.Notes)
		if in.Address != nil {
			g.Address = *in.Address
		}
		if in.Preferences != nil {
			g.Preferences = *in.Preferences
		}
		if in.DateOfBirth != nil {
			dob := in.DateOfBirth.UTC()
			g.DateOfBirth = &dob
		}
		if in.Blacklisted != nil {
			g.Blacklisted = *in.Blacklisted
		}
		if err := validateGuest(g); err != nil {
			return err
		}
		if err := tx.Save(g).Error; err != nil {
			return classifyWriteError(err, "guest_exists",
				fmt.Sprintf("guest with %s %s", g.NationalIDType, g.NationalIDNumber))
		}
		out = g
		return nil
	})
	return out, err
}

// Delete removes a guest that has never been booked.
func (s *GuestService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findGuest(tx, id); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.Reservation{}).Where("guest_id = ?", id).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to check guest reservations: %w", err)
		}
		if n > 0 {
			return conflict("guest_has_reservations", "guest %d has %d reservation(s)", id, n)
		}
		if err := tx.Delete(&models.Guest{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete guest: %w", err)
		}
		return nil
	})
}

func findGuest(db *gorm.DB, id uint) (*models.Guest, error) {
	var g models.Guest
	if err := db.First(&g, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("guest_not_found", "guest %d not found", id)
		}
		return nil, fmt.Errorf("failed to find guest: %w", err)
	}
	return &g, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
