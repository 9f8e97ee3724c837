package models

import (
	"time"
)

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleUser    UserRole = "user"
	UserRoleUnknown UserRole = "unknown"
)

type User struct {
	ID        uint     `gorm:"primaryKey"`
	Username  string   `gorm:"size:150;uniqueIndex;not null"`
	Email     string   `gorm:"size:255"`
	FirstName string   `gorm:"size:150"`
	LastName  string   `gorm:"size:150"`
	Role      UserRole `gorm:"size:8;not null;default:unknown"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TgUser links a Telegram chat to a User. UserID stays nil until the chat
// owner confirms the verification code.
type TgUser struct {
	ID               uint   `gorm:"primaryKey"`
	ChatID           int64  `gorm:"uniqueIndex;not null"`
	Username         string `gorm:"size:255"`
	UserID           *uint  `gorm:"index"`
	VerificationCode string `gorm:"size:32;index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	User *User `gorm:"foreignKey:UserID"`
}

func (t TgUser) Linked() bool {
	return t.UserID != nil && *t.UserID != 0
}
