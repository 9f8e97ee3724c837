package models

import (
	"time"
)

type Status int

const (
	StatusToDo       Status = 1
	StatusInProgress Status = 2
	StatusDone       Status = 3
	StatusArchived   Status = 4
)

func (s Status) Valid() bool {
	return s >= StatusToDo && s <= StatusArchived
}

func (s Status) String() string {
	switch s {
	case StatusToDo:
		return "to do"
	case StatusInProgress:
		return "in progress"
	case StatusDone:
		return "done"
	case StatusArchived:
		return "archived"
	default:
		return "unknown"
	}
}

type Priority int

const (
	PriorityLow      Priority = 1
	PriorityMedium   Priority = 2
	PriorityHigh     Priority = 3
	PriorityCritical Priority = 4
)

func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

type Goal struct {
	ID          uint       `gorm:"primaryKey"`
	CategoryID  uint       `gorm:"not null;index"`
	UserID      uint       `gorm:"not null;index"`
	Title       string     `gorm:"size:255;not null"`
	Description string     `gorm:"type:text"`
	Status      Status     `gorm:"not null;default:1;index"`
	Priority    Priority   `gorm:"not null;default:2"`
	DueDate     *time.Time `gorm:"type:date"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Category GoalCategory `gorm:"foreignKey:CategoryID"`
}

func (g Goal) Archived() bool {
	return g.Status == StatusArchived
}

type GoalComment struct {
	ID        uint   `gorm:"primaryKey"`
	GoalID    uint   `gorm:"not null;index"`
	UserID    uint   `gorm:"not null;index"`
	Text      string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Goal Goal `gorm:"foreignKey:GoalID"`
}
