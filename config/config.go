package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Database    DatabaseConfig    `mapstructure:"database"`
	App         AppConfig         `mapstructure:"app"`
	Log         LogConfig         `mapstructure:"log"`
	Reservation ReservationConfig `mapstructure:"reservation"`
	Events      EventsConfig      `mapstructure:"events"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

// AppConfig holds application configuration
type AppConfig struct {
	Environment    string `mapstructure:"env"`
	Port           string `mapstructure:"port"`
	UseMockData    bool   `mapstructure:"use_mock_data"`
	UploadDir      string `mapstructure:"upload_dir"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
	RateLimitRPS   int    `mapstructure:"rate_limit_rps"`
	RateLimitBurst int    `mapstructure:"rate_limit_burst"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReservationConfig sizes the reservation slots
type ReservationConfig struct {
	SlotMinutes  int `mapstructure:"slot_minutes"`
	SeatCapacity int `mapstructure:"seat_capacity"`
}

// EventsConfig holds the message broker settings. An empty URL disables publishing.
type EventsConfig struct {
	AMQPURL  string `mapstructure:"amqp_url"`
	Exchange string `mapstructure:"exchange"`
}

// env names for each key, kept compatible with the plain DB_* / APP_* variables
var envBindings = map[string]string{
	"database.url":               "DATABASE_URL",
	"database.host":              "DB_HOST",
	"database.port":              "DB_PORT",
	"database.user":              "DB_USER",
	"database.password":          "DB_PASSWORD",
	"database.name":              "DB_NAME",
	"database.sslmode":           "DB_SSLMODE",
	"database.max_open_conns":    "DB_MAX_OPEN_CONNS",
	"database.max_idle_conns":    "DB_MAX_IDLE_CONNS",
	"database.conn_max_lifetime": "DB_CONN_MAX_LIFETIME",
	"database.log_queries":       "DB_LOG_QUERIES",
	"app.env":                    "APP_ENV",
	"app.port":                   "APP_PORT",
	"app.use_mock_data":          "APP_USE_MOCK_DATA",
	"app.upload_dir":             "APP_UPLOAD_DIR",
	"app.max_upload_bytes":       "APP_MAX_UPLOAD_BYTES",
	"app.rate_limit_rps":         "APP_RATE_LIMIT_RPS",
	"app.rate_limit_burst":       "APP_RATE_LIMIT_BURST",
	"log.level":                  "LOG_LEVEL",
	"log.format":                 "LOG_FORMAT",
	"reservation.slot_minutes":   "RESERVATION_SLOT_MINUTES",
	"reservation.seat_capacity":  "RESERVATION_SEAT_CAPACITY",
	"events.amqp_url":            "AMQP_URL",
	"events.exchange":            "AMQP_EXCHANGE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "coffeeshop")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.log_queries", true)

	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.use_mock_data", false)
	v.SetDefault("app.upload_dir", "uploads")
	v.SetDefault("app.max_upload_bytes", 5<<20)
	v.SetDefault("app.rate_limit_rps", 5)
	v.SetDefault("app.rate_limit_burst", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("reservation.slot_minutes", 120)
	v.SetDefault("reservation.seat_capacity", 40)

	v.SetDefault("events.amqp_url", "")
	v.SetDefault("events.exchange", "coffeeshop.events")
}

// Load loads configuration from .env, an optional config.yaml and the environment.
// Environment variables win over the file, the file wins over defaults.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist in production
		fmt.Println("No .env file found")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.App.Port == "" {
		return fmt.Errorf("APP_PORT must not be empty")
	}
	if c.App.MaxUploadBytes <= 0 {
		return fmt.Errorf("APP_MAX_UPLOAD_BYTES must be positive, got %d", c.App.MaxUploadBytes)
	}
	if c.Reservation.SlotMinutes <= 0 || c.Reservation.SeatCapacity <= 0 {
		return fmt.Errorf("reservation slot minutes and seat capacity must be positive")
	}
	return nil
}

// IsProduction reports whether the app runs with APP_ENV=production
func (c *AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// SlotWindow returns the half-width of a reservation slot
func (c *ReservationConfig) SlotWindow() time.Duration {
	return time.Duration(c.SlotMinutes) * time.Minute
}
