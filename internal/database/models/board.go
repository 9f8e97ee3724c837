package models

import (
	"time"
)

type Role int

const (
	RoleOwner  Role = 1
	RoleWriter Role = 2
	RoleReader Role = 3
)

// EditableRoles are the roles that can be granted through a participant
// update. Owner is assigned only when the board is created.
var EditableRoles = []Role{RoleWriter, RoleReader}

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleWriter:
		return "writer"
	case RoleReader:
		return "reader"
	default:
		return "unknown"
	}
}

func (r Role) Editable() bool {
	for _, editable := range EditableRoles {
		if r == editable {
			return true
		}
	}
	return false
}

type Board struct {
	ID        uint   `gorm:"primaryKey"`
	Title     string `gorm:"size:255;not null"`
	IsDeleted bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Participants []BoardParticipant `gorm:"foreignKey:BoardID"`
	Categories   []GoalCategory     `gorm:"foreignKey:BoardID"`
}

type BoardParticipant struct {
	ID        uint `gorm:"primaryKey"`
	BoardID   uint `gorm:"not null;uniqueIndex:uq_participants_board_user"`
	UserID    uint `gorm:"not null;index;uniqueIndex:uq_participants_board_user"`
	Role      Role `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time

	User User `gorm:"foreignKey:UserID"`
}
