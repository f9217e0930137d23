package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"hotel-pms/models"
	"hotel-pms/services"
	"hotel-pms/utils"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SeedDatabase creates the default admin and a starter room inventory on an
// empty database.
func SeedDatabase(db *gorm.DB, log *zap.Logger) error {
	username := utils.EnvOrDefault("ADMIN_USERNAME", "admin@hotel.local")
	if _, err := services.NewAdminService(db, log).EnsureAdmin(context.Background(),
		username, "Admin User", utils.EnvOrDefault("ADMIN_PASSWORD", "admin123"), models.RoleAdmin); err != nil {
		return fmt.Errorf("failed to seed default admin: %w", err)
	}

	var roomCount int64
	if err := db.Model(&models.Room{}).Count(&roomCount).Error; err != nil {
		return err
	}
	if roomCount == 0 {
		rooms := []models.Room{
			{RoomNumber: "101", RoomType: "Single", Floor: 1, BasePrice: decimal.NewFromInt(1500), Capacity: 1},
			{RoomNumber: "102", RoomType: "Double", Floor: 1, BasePrice: decimal.NewFromInt(2500), Capacity: 2},
			{RoomNumber: "201", RoomType: "Deluxe", Floor: 2, BasePrice: decimal.NewFromInt(4000), Capacity: 3},
			{RoomNumber: "301", RoomType: "Suite", Floor: 3, BasePrice: decimal.NewFromInt(7500), Capacity: 4},
		}
		for i := range rooms {
			rooms[i].Status = models.RoomAvailable
			rooms[i].CleaningStatus = models.CleaningClean
			rooms[i].IsActive = true
		}
		if err := db.Create(&rooms).Error; err != nil {
			return fmt.Errorf("failed to seed rooms: %w", err)
		}
		log.Info("rooms seeded", zap.Int("count", len(rooms)))
	}
	return nil
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "UTC")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN() (string, error) {
	raw := strings.TrimSpace(utils.EnvOrDefault("MYSQL_URL", ""))
	if raw == "" {
		raw = strings.TrimSpace(utils.EnvOrDefault("DATABASE_URL", ""))
	}

	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	user := utils.EnvOrDefault("DB_USER", "root")
	pass := utils.EnvOrDefault("DB_PASS", "")
	host := utils.EnvOrDefault("DB_HOST", "127.0.0.1")
	port := utils.EnvOrDefault("DB_PORT", "3306")
	dbName := utils.EnvOrDefault("DB_NAME", "hotel_pms")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		user, pass, host, port, dbName,
	), nil
}

func dialector(cfg Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.Open(cfg.SQLitePath), nil
	case "mysql", "":
		dsn, err := resolveMySQLDSN()
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}

// Migrate creates or updates every table the application uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// ConnectDatabase opens the configured database, migrates it and seeds it
// when SEED_DATABASE is on.
func ConnectDatabase(cfg Config, log *zap.Logger) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	gormLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(d, &gorm.Config{
		Logger:                                   gormLogger,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	if sqlDB, err := db.DB(); err == nil {
		if cfg.DBDriver == "sqlite" {
			// one writer at a time
			sqlDB.SetMaxOpenConns(1)
		} else {
			sqlDB.SetMaxOpenConns(25)
			sqlDB.SetMaxIdleConns(10)
			sqlDB.SetConnMaxLifetime(30 * time.Minute)
		}
	} else {
		log.Warn("cannot get raw sql.DB", zap.Error(err))
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	if cfg.Seed {
		if err := SeedDatabase(db, log); err != nil {
			return nil, err
		}
	}

	log.Info("database ready", zap.String("driver", cfg.DBDriver))
	return db, nil
}
