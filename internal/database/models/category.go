package models

import (
	"time"
)

type GoalCategory struct {
	ID        uint   `gorm:"primaryKey"`
	BoardID   uint   `gorm:"not null;index"`
	UserID    uint   `gorm:"not null;index"`
	Title     string `gorm:"size:255;not null"`
	IsDeleted bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Board Board  `gorm:"foreignKey:BoardID"`
	Goals []Goal `gorm:"foreignKey:CategoryID"`
}
