package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

type Env struct {
	AppAddr string
	GinMode string
	AppEnv  string

	StoreDriver string
	DBDSN       string
	DBMigrate   bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NATSURL   string
	JWTSecret string

	CORSAllowedOrigins []string
	PriceLockRetention time.Duration
}

// LoadEnv reads an optional .env file, then the process environment.
// Variables already set in the environment win over the file.
func LoadEnv() Env {
	_ = godotenv.Load()

	appAddr := getenv("APP_ADDR", ":8080")
	driver := strings.ToLower(getenv("STORE_DRIVER", StoreMySQL))
	if driver != StoreMemory {
		driver = StoreMySQL
	}

	var origins []string
	for _, o := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:5173", "http://127.0.0.1:5173"}
	}

	if tz := strings.TrimSpace(os.Getenv("TZ")); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			time.Local = loc
		}
	}

	return Env{
		AppAddr:            appAddr,
		GinMode:            strings.TrimSpace(os.Getenv("GIN_MODE")),
		AppEnv:             getenv("APP_ENV", "development"),
		StoreDriver:        driver,
		DBDSN:              buildDSN(),
		DBMigrate:          getbool("DB_MIGRATE", true),
		RedisAddr:          strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getint("REDIS_DB", 0),
		NATSURL:            strings.TrimSpace(os.Getenv("NATS_URL")),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		CORSAllowedOrigins: origins,
		PriceLockRetention: time.Duration(getint("PRICE_LOCK_RETENTION_HOURS", 24)) * time.Hour,
	}
}

func (e Env) Production() bool {
	return e.AppEnv == "production"
}

func buildDSN() string {
	if dsn := strings.TrimSpace(os.Getenv("DB_DSN")); dsn != "" {
		return dsn
	}
	return getenv("DB_USER", "root") + ":" + os.Getenv("DB_PASSWORD") +
		"@tcp(" + getenv("DB_HOST", "127.0.0.1:3306") + ")/" + getenv("DB_NAME", "bus_booking") +
		"?parseTime=true&loc=UTC&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s"
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func getbool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}
