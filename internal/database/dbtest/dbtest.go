// Package dbtest opens throwaway SQLite-backed stores for tests.
package dbtest

import (
	"context"
	"testing"

	"TodolistBot/internal/database"
	"TodolistBot/internal/database/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a migrated in-memory database. The pool is pinned to a single
// connection so every query sees the same memory database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func NewStore(t testing.TB) *database.Store {
	t.Helper()
	return database.New(Open(t))
}

func CreateUser(t testing.TB, store *database.Store, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Role: models.UserRoleUser}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

// CreateBoard inserts a board with owner as its owner participant, bypassing
// the lifecycle manager.
func CreateBoard(t testing.TB, store *database.Store, owner *models.User, title string) *models.Board {
	t.Helper()
	ctx := context.Background()
	board := &models.Board{Title: title}
	if err := store.CreateBoard(ctx, board); err != nil {
		t.Fatalf("create board %s: %v", title, err)
	}
	AddParticipant(t, store, board, owner, models.RoleOwner)
	return board
}

func AddParticipant(t testing.TB, store *database.Store, board *models.Board, user *models.User, role models.Role) {
	t.Helper()
	p := &models.BoardParticipant{BoardID: board.ID, UserID: user.ID, Role: role}
	if err := store.CreateParticipant(context.Background(), p); err != nil {
		t.Fatalf("add participant %s: %v", user.Username, err)
	}
}

func CreateCategory(t testing.TB, store *database.Store, board *models.Board, author *models.User, title string) *models.GoalCategory {
	t.Helper()
	category := &models.GoalCategory{BoardID: board.ID, UserID: author.ID, Title: title}
	if err := store.CreateCategory(context.Background(), category); err != nil {
		t.Fatalf("create category %s: %v", title, err)
	}
	return category
}

func CreateGoal(t testing.TB, store *database.Store, category *models.GoalCategory, author *models.User, title string) *models.Goal {
	t.Helper()
	goal := &models.Goal{
		CategoryID: category.ID,
		UserID:     author.ID,
		Title:      title,
		Status:     models.StatusToDo,
		Priority:   models.PriorityMedium,
	}
	if err := store.CreateGoal(context.Background(), goal); err != nil {
		t.Fatalf("create goal %s: %v", title, err)
	}
	return goal
}
