// Package lifecycle owns every write that must keep boards, categories and
// goals consistent with each other.
package lifecycle

import (
	"context"
	"fmt"

	"TodolistBot/internal/database"
	"TodolistBot/internal/database/models"
)

type ParticipantInput struct {
	UserID uint
	Role   models.Role
}

type Manager struct {
	store *database.Store
}

func NewManager(store *database.Store) *Manager {
	return &Manager{store: store}
}

// CreateBoard stores the board together with its creator as the sole owner.
func (m *Manager) CreateBoard(ctx context.Context, ownerID uint, title string) (*models.Board, error) {
	board := &models.Board{Title: title}
	err := m.store.Transaction(ctx, func(tx *database.Store) error {
		if err := tx.CreateBoard(ctx, board); err != nil {
			return fmt.Errorf("create board: %w", err)
		}
		owner := &models.BoardParticipant{BoardID: board.ID, UserID: ownerID, Role: models.RoleOwner}
		if err := tx.CreateParticipant(ctx, owner); err != nil {
			return fmt.Errorf("create owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return board, nil
}

func validateParticipants(actorID uint, participants []ParticipantInput) error {
	for _, p := range participants {
		if p.UserID == actorID {
			return Invalid("participants", "Failed to change your role")
		}
		if !p.Role.Editable() {
			return Invalid("participants", fmt.Sprintf("role %s cannot be assigned", p.Role))
		}
	}
	return nil
}

// UpdateBoard replaces the participant list with participants. The actor's
// own row is never touched. A nil or empty title leaves the title as is.
func (m *Manager) UpdateBoard(ctx context.Context, board *models.Board, actorID uint, participants []ParticipantInput, title *string) error {
	if err := validateParticipants(actorID, participants); err != nil {
		return err
	}

	rows := make([]models.BoardParticipant, 0, len(participants))
	for _, p := range participants {
		rows = append(rows, models.BoardParticipant{BoardID: board.ID, UserID: p.UserID, Role: p.Role})
	}

	err := m.store.Transaction(ctx, func(tx *database.Store) error {
		if err := tx.RemoveParticipantsExcept(ctx, board.ID, actorID); err != nil {
			return fmt.Errorf("remove participants: %w", err)
		}
		if err := tx.AddParticipants(ctx, rows); err != nil {
			return fmt.Errorf("add participants: %w", err)
		}
		if title != nil && *title != "" {
			if err := tx.UpdateBoardTitle(ctx, board.ID, *title); err != nil {
				return fmt.Errorf("update title: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if title != nil && *title != "" {
		board.Title = *title
	}
	return nil
}

// DeleteBoard soft-deletes the board and its categories and archives every
// goal under them. Running it twice is harmless.
func (m *Manager) DeleteBoard(ctx context.Context, boardID uint) error {
	return m.store.Transaction(ctx, func(tx *database.Store) error {
		if err := tx.MarkBoardDeleted(ctx, boardID); err != nil {
			return fmt.Errorf("mark board deleted: %w", err)
		}
		if err := tx.MarkBoardCategoriesDeleted(ctx, boardID); err != nil {
			return fmt.Errorf("mark categories deleted: %w", err)
		}
		if err := tx.ArchiveBoardGoals(ctx, boardID); err != nil {
			return fmt.Errorf("archive goals: %w", err)
		}
		return nil
	})
}

func (m *Manager) DeleteCategory(ctx context.Context, categoryID uint) error {
	return m.store.Transaction(ctx, func(tx *database.Store) error {
		if err := tx.MarkCategoryDeleted(ctx, categoryID); err != nil {
			return fmt.Errorf("mark category deleted: %w", err)
		}
		if err := tx.ArchiveCategoryGoals(ctx, categoryID); err != nil {
			return fmt.Errorf("archive goals: %w", err)
		}
		return nil
	})
}

func (m *Manager) DeleteGoal(ctx context.Context, goalID uint) error {
	return m.store.Transaction(ctx, func(tx *database.Store) error {
		return tx.ArchiveGoal(ctx, goalID)
	})
}

func (m *Manager) CreateCategory(ctx context.Context, category *models.GoalCategory) error {
	return m.store.Transaction(ctx, func(tx *database.Store) error {
		return tx.CreateCategory(ctx, category)
	})
}

func (m *Manager) CreateGoal(ctx context.Context, goal *models.Goal) error {
	if goal.Status == 0 {
		goal.Status = models.StatusToDo
	}
	if goal.Priority == 0 {
		goal.Priority = models.PriorityMedium
	}
	return m.store.Transaction(ctx, func(tx *database.Store) error {
		return tx.CreateGoal(ctx, goal)
	})
}

func (m *Manager) CreateComment(ctx context.Context, comment *models.GoalComment) error {
	return m.store.Transaction(ctx, func(tx *database.Store) error {
		return tx.CreateComment(ctx, comment)
	})
}
