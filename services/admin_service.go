package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotel-pms/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AdminService struct {
	DB  *gorm.DB
	log *zap.Logger
}

func NewAdminService(db *gorm.DB, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{DB: db, log: logger.Named("admins")}
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// Authenticate checks the password against the stored bcrypt hash and stamps
// the login time.
func (s *AdminService) Authenticate(ctx context.Context, username, password string) (*models.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, invalid("credentials_required", "username and password required")
	}
	var admin models.Admin
	if err := s.DB.WithContext(ctx).Where("username = ?", username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	if !isBcryptHash(admin.Password) ||
		bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)) != nil {
		s.log.Warn("failed login", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}
	now := time.Now().UTC()
	if err := s.DB.WithContext(ctx).Model(&admin).Update("last_login_at", now).Error; err != nil {
		s.log.Warn("failed to stamp login time", zap.Error(err))
	}
	admin.LastLoginAt = &now
	return &admin, nil
}

// EnsureAdmin creates the account when the username is not taken yet. It is
// used by database seeding.
func (s *AdminService) EnsureAdmin(ctx context.Context, username, fullName, password, role string) (*models.Admin, error) {
	var admin models.Admin
	err := s.DB.WithContext(ctx).Where("username = ?", username).First(&admin).Error
	if err == nil {
		return &admin, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	admin = models.Admin{FullName: fullName, Username: username, Password: string(hash), Role: role}
	if err := s.DB.WithContext(ctx).Create(&admin).Error; err != nil {
		return nil, classifyWriteError(err, "admin_exists", "admin "+username)
	}
	s.log.Info("admin account created", zap.String("username", username))
	return &admin, nil
}

func (s *AdminService) Get(ctx context.Context, id uint) (*models.Admin, error) {
	var admin models.Admin
	if err := s.DB.WithContext(ctx).First(&admin, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("admin_not_found", "admin %d not found", id)
		}
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	return &admin, nil
}
