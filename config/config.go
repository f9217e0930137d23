package config

import (
	"strings"
	"time"

	"hotel-pms/utils"

	"github.com/joho/godotenv"
)

type Config struct {
	Env            string
	Port           string
	DBDriver       string
	SQLitePath     string
	CORSOrigins    []string
	JWTSecret      string
	JWTTTL         time.Duration
	LockTTL        time.Duration
	CommissionAuto bool
	LogLevel       string
	LogFormat      string
	Seed           bool
}

// Load reads .env (optional) and the process environment. It reports
// whether a .env file was found so the caller can log it once a logger exists.
func Load() (Config, bool) {
	dotenv := godotenv.Load() == nil

	cfg := Config{
		Env:            strings.ToLower(utils.EnvOrDefault("APP_ENV", "development")),
		Port:           utils.EnvOrDefault("PORT", "8080"),
		DBDriver:       strings.ToLower(utils.EnvOrDefault("DB_DRIVER", "mysql")),
		SQLitePath:     utils.EnvOrDefault("SQLITE_PATH", "hotel.db"),
		CORSOrigins:    parseCSV(utils.EnvOrDefault("CORS_ORIGINS", "*")),
		JWTSecret:      utils.EnvOrDefault("JWT_SECRET", "change-me"),
		JWTTTL:         time.Duration(utils.EnvInt("JWT_TTL_MINUTES", 720)) * time.Minute,
		LockTTL:        time.Duration(utils.EnvInt("LOCK_TTL_SECONDS", 15)) * time.Second,
		CommissionAuto: utils.EnvBool("COMMISSION_AUTO_ACCRUE", false),
		LogLevel:       utils.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      utils.EnvOrDefault("LOG_FORMAT", "json"),
		Seed:           utils.EnvBool("SEED_DATABASE", true),
	}
	return cfg, dotenv
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func parseCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
