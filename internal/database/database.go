package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"TodolistBot/internal/config"
	"TodolistBot/internal/database/models"
	"TodolistBot/internal/logging"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ErrNotFound is returned by lookups when the row is absent or filtered out
// by the visibility rules.
var ErrNotFound = errors.New("record not found")

// ErrAmbiguousCode is returned when a verification code matches several chats.
var ErrAmbiguousCode = errors.New("verification code matches more than one chat")

// Store wraps a gorm handle. A Store obtained inside Transaction is bound to
// that transaction.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open connects to the configured database and verifies the connection.
func Open(cfg config.DatabaseConfig, logLevel string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DataSource())
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DataSource())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	slog.Info("connecting to database", "driver", cfg.Driver, "host", cfg.Host)
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logging.GormLogger(logLevel)})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	slog.Info("connected to database")
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Board{},
		&models.BoardParticipant{},
		&models.GoalCategory{},
		&models.Goal{},
		&models.GoalComment{},
		&models.TgUser{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	slog.Info("gorm migrations completed")
	return nil
}

// Transaction runs fn inside a single database transaction. Any error
// returned by fn rolls back every write made through the tx store.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
