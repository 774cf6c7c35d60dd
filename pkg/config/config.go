package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Cache     CacheConfig
	Timetable TimetableConfig
	Workers   WorkerConfig
	Exports   ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig toggles the Redis read-through cache for saved timetables.
type CacheConfig struct {
	Enabled      bool
	TimetableTTL time.Duration
}

// TimetableConfig describes the slot grid and the engine defaults. Days, clocks and breaks are kept
// as raw strings here and parsed by the timetable package so config stays free of domain types.
type TimetableConfig struct {
	Days              []string
	DayStart          string
	DayEnd            string
	SessionMinutes    int
	Breaks            []string
	MorningEnd        string
	AfternoonStart    string
	ReferenceClassID  string
	StrictQuota       bool
	RoomsOptional     bool
	MaxBacktracks     int
	GenerationTimeout time.Duration
	DraftTTL          time.Duration
}

// WorkerConfig sizes the asynchronous generation queue.
type WorkerConfig struct {
	Concurrency int
	Retries     int
}

// ExportsConfig configures timetable file exports.
type ExportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:      v.GetBool("ENABLE_CACHE"),
		TimetableTTL: parseDuration(v.GetString("TIMETABLE_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Timetable = TimetableConfig{
		Days:              splitAndTrim(v.GetString("TIMETABLE_DAYS")),
		DayStart:          v.GetString("TIMETABLE_DAY_START"),
		DayEnd:            v.GetString("TIMETABLE_DAY_END"),
		SessionMinutes:    v.GetInt("TIMETABLE_SESSION_MINUTES"),
		Breaks:            splitAndTrim(v.GetString("TIMETABLE_BREAKS")),
		MorningEnd:        v.GetString("TIMETABLE_MORNING_END"),
		AfternoonStart:    v.GetString("TIMETABLE_AFTERNOON_START"),
		ReferenceClassID:  v.GetString("TIMETABLE_REFERENCE_CLASS_ID"),
		StrictQuota:       v.GetBool("TIMETABLE_STRICT_QUOTA"),
		RoomsOptional:     v.GetBool("TIMETABLE_ROOMS_OPTIONAL"),
		MaxBacktracks:     v.GetInt("TIMETABLE_MAX_BACKTRACKS"),
		GenerationTimeout: parseDuration(v.GetString("TIMETABLE_GENERATION_TIMEOUT"), 30*time.Second),
		DraftTTL:          parseDuration(v.GetString("TIMETABLE_DRAFT_TTL"), 2*time.Hour),
	}

	cfg.Workers = WorkerConfig{
		Concurrency: v.GetInt("GENERATION_WORKER_CONCURRENCY"),
		Retries:     v.GetInt("GENERATION_WORKER_RETRIES"),
	}

	cfg.Exports = ExportsConfig{
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "admin_panel_sma")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("TIMETABLE_CACHE_TTL", "10m")

	v.SetDefault("TIMETABLE_DAYS", "MONDAY,TUESDAY,WEDNESDAY,THURSDAY,FRIDAY")
	v.SetDefault("TIMETABLE_DAY_START", "08:00")
	v.SetDefault("TIMETABLE_DAY_END", "17:00")
	v.SetDefault("TIMETABLE_SESSION_MINUTES", 60)
	v.SetDefault("TIMETABLE_BREAKS", "")
	v.SetDefault("TIMETABLE_MORNING_END", "12:00")
	v.SetDefault("TIMETABLE_AFTERNOON_START", "12:00")
	v.SetDefault("TIMETABLE_REFERENCE_CLASS_ID", "")
	v.SetDefault("TIMETABLE_STRICT_QUOTA", false)
	v.SetDefault("TIMETABLE_ROOMS_OPTIONAL", true)
	v.SetDefault("TIMETABLE_MAX_BACKTRACKS", 0)
	v.SetDefault("TIMETABLE_GENERATION_TIMEOUT", "30s")
	v.SetDefault("TIMETABLE_DRAFT_TTL", "2h")

	v.SetDefault("GENERATION_WORKER_CONCURRENCY", 1)
	v.SetDefault("GENERATION_WORKER_RETRIES", 2)

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
