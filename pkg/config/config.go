package config

import (
	"errors"
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
	Env  string
	Port int

	Database    DatabaseConfig
	Redis       RedisConfig
	Ops         OpsConfig
	Log         LogConfig
	Recurrence  RecurrenceConfig
	Duplication DuplicationConfig
	Reports     ReportsConfig
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

// OpsConfig secures the internal operations endpoints.
type OpsConfig struct {
	TokenSecret string
}

type LogConfig struct {
	Level  string
	Format string
}

// RecurrenceConfig drives the batch cycle cadence and the clone-due band.
type RecurrenceConfig struct {
	CycleSchedule string
	DueBand       time.Duration
	CloneVisible  bool
	LockTTL       time.Duration
	CourseBaseURL string
}

// DuplicationConfig points at the course-duplication collaborator.
type DuplicationConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// ReportsConfig controls cycle summary exports.
type ReportsConfig struct {
	Enabled    bool
	StorageDir string
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

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

	cfg.Ops = OpsConfig{
		TokenSecret: v.GetString("OPS_TOKEN_SECRET"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Recurrence = RecurrenceConfig{
		CycleSchedule: v.GetString("RECURRENCE_CYCLE_SCHEDULE"),
		DueBand:       parseDuration(v.GetString("RECURRENCE_DUE_BAND"), 24*time.Hour),
		CloneVisible:  v.GetBool("RECURRENCE_CLONE_VISIBLE"),
		LockTTL:       parseDuration(v.GetString("RECURRENCE_LOCK_TTL"), 2*time.Minute),
		CourseBaseURL: v.GetString("RECURRENCE_COURSE_BASE_URL"),
	}

	cfg.Duplication = DuplicationConfig{
		BaseURL: v.GetString("DUPLICATION_BASE_URL"),
		Token:   v.GetString("DUPLICATION_TOKEN"),
		Timeout: parseDuration(v.GetString("DUPLICATION_TIMEOUT"), 5*time.Minute),
	}

	cfg.Reports = ReportsConfig{
		Enabled:    v.GetBool("ENABLE_CYCLE_REPORTS"),
		StorageDir: v.GetString("CYCLE_REPORTS_DIR"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lms_recur")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("OPS_TOKEN_SECRET", "dev_secret")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RECURRENCE_CYCLE_SCHEDULE", "@daily")
	v.SetDefault("RECURRENCE_DUE_BAND", "24h")
	v.SetDefault("RECURRENCE_CLONE_VISIBLE", true)
	v.SetDefault("RECURRENCE_LOCK_TTL", "2m")
	v.SetDefault("RECURRENCE_COURSE_BASE_URL", "http://localhost/course/view.php")

	v.SetDefault("DUPLICATION_BASE_URL", "http://localhost:8090")
	v.SetDefault("DUPLICATION_TOKEN", "")
	v.SetDefault("DUPLICATION_TIMEOUT", "5m")

	v.SetDefault("ENABLE_CYCLE_REPORTS", false)
	v.SetDefault("CYCLE_REPORTS_DIR", "./exports")
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
