package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"

	SessionMemory = "memory"
	SessionRedis  = "redis"
)

var errMissingBotToken = errors.New("BOT_TOKEN is not set")

type Config struct {
	LogLevel string
	Bot      BotConfig
	Database DatabaseConfig
	Session  SessionConfig
	Reminder ReminderConfig
}

type BotConfig struct {
	Token       string
	PollTimeout int // seconds, passed to getUpdates
	RetryDelay  time.Duration
	AdminChatID int64
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

type SessionConfig struct {
	Backend       string
	CacheSize     int
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
}

type ReminderConfig struct {
	Enabled bool
	Hour    int
	Minute  int
}

// LoadEnv looks for a .env file next to the binary and in the parent
// directories used during development. A missing file is not fatal: the
// process can still be configured through the environment.
func LoadEnv() error {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	for _, path := range possiblePaths {
		if err := godotenv.Load(path); err == nil {
			slog.Info("loaded .env", "path", path)
			return nil
		}
	}

	wd, _ := os.Getwd()
	return fmt.Errorf("could not load .env file from any path (cwd %s)", wd)
}

// Load reads the configuration from the environment, applying defaults for
// everything but the bot token.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("BOT_POLL_TIMEOUT", 30)
	v.SetDefault("BOT_RETRY_DELAY", "3s")
	v.SetDefault("ADMIN_CHAT_ID", 0)
	v.SetDefault("DB_DRIVER", DriverMySQL)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "")
	v.SetDefault("DB_USERNAME", "")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_DATABASE", "todolist")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("SESSION_BACKEND", SessionMemory)
	v.SetDefault("SESSION_CACHE_SIZE", 1000)
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REMINDER_ENABLED", false)
	v.SetDefault("REMINDER_HOUR", 9)
	v.SetDefault("REMINDER_MINUTE", 0)

	cfg := &Config{
		LogLevel: strings.ToLower(v.GetString("LOG_LEVEL")),
		Bot: BotConfig{
			Token:       v.GetString("BOT_TOKEN"),
			PollTimeout: v.GetInt("BOT_POLL_TIMEOUT"),
			RetryDelay:  v.GetDuration("BOT_RETRY_DELAY"),
			AdminChatID: v.GetInt64("ADMIN_CHAT_ID"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Username: v.GetString("DB_USERNAME"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_DATABASE"),
			DSN:      v.GetString("DB_DSN"),
		},
		Session: SessionConfig{
			Backend:       strings.ToLower(v.GetString("SESSION_BACKEND")),
			CacheSize:     v.GetInt("SESSION_CACHE_SIZE"),
			TTL:           v.GetDuration("SESSION_TTL"),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
		},
		Reminder: ReminderConfig{
			Enabled: v.GetBool("REMINDER_ENABLED"),
			Hour:    v.GetInt("REMINDER_HOUR"),
			Minute:  v.GetInt("REMINDER_MINUTE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Bot.Token == "" {
		return errMissingBotToken
	}
	if c.Bot.PollTimeout <= 0 {
		return fmt.Errorf("BOT_POLL_TIMEOUT must be positive, got %d", c.Bot.PollTimeout)
	}
	if c.Bot.RetryDelay <= 0 {
		return fmt.Errorf("BOT_RETRY_DELAY must be positive, got %s", c.Bot.RetryDelay)
	}
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Session.Backend {
	case SessionMemory:
		if c.Session.CacheSize <= 0 {
			return fmt.Errorf("SESSION_CACHE_SIZE must be positive, got %d", c.Session.CacheSize)
		}
	case SessionRedis:
		if c.Session.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis session backend")
		}
	default:
		return fmt.Errorf("unsupported SESSION_BACKEND %q", c.Session.Backend)
	}
	if c.Reminder.Hour < 0 || c.Reminder.Hour > 23 {
		return fmt.Errorf("REMINDER_HOUR out of range: %d", c.Reminder.Hour)
	}
	if c.Reminder.Minute < 0 || c.Reminder.Minute > 59 {
		return fmt.Errorf("REMINDER_MINUTE out of range: %d", c.Reminder.Minute)
	}
	return nil
}

// DataSource returns DB_DSN when set, otherwise builds a DSN for the
// configured driver from the individual connection settings.
func (d DatabaseConfig) DataSource() string {
	if d.DSN != "" {
		return d.DSN
	}
	switch d.Driver {
	case DriverPostgres:
		port := d.Port
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			d.Host, d.Username, d.Password, d.Name, port)
	default:
		port := d.Port
		if port == "" {
			port = "3306"
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.Username, d.Password, d.Host, port, d.Name)
	}
}
