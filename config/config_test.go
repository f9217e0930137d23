package config

import (
	"testing"

	"hotel-pms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMySQLDSNFromURL(t *testing.T) {
	dsn, err := mysqlDSNFromURL("mysql://hotel:pw@db.internal/hotel_pms")
	require.NoError(t, err)
	assert.Equal(t, "hotel:pw@tcp(db.internal:3306)/hotel_pms?charset=utf8mb4&loc=UTC&parseTime=True", dsn)

	_, err = mysqlDSNFromURL("mysql://hotel:pw@db.internal:3307/")
	assert.Error(t, err)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("COMMISSION_AUTO_ACCRUE", "yes")
	t.Setenv("JWT_TTL_MINUTES", "30")

	cfg, _ := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.CommissionAuto)
	assert.Equal(t, "30m0s", cfg.JWTTTL.String())
	assert.Equal(t, []string{"*"}, parseCSV(" , "))
}

func TestConnectSQLiteSeedsOnce(t *testing.T) {
	cfg := Config{DBDriver: "sqlite", SQLitePath: "file:seedtest?mode=memory&cache=shared", Seed: true}
	db, err := ConnectDatabase(cfg, zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, SeedDatabase(db, zap.NewNop()))

	var admins, rooms int64
	require.NoError(t, db.Model(&models.Admin{}).Count(&admins).Error)
	require.NoError(t, db.Model(&models.Room{}).Count(&rooms).Error)
	assert.Equal(t, int64(1), admins)
	assert.Equal(t, int64(4), rooms)
}
