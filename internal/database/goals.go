package database

import (
	"context"

	"TodolistBot/internal/database/models"

	"gorm.io/gorm"
)

// CreateGoal inserts the goal row.
func (s *Store) CreateGoal(ctx context.Context, goal *models.Goal) error {
	return s.db.WithContext(ctx).Omit("Category").Create(goal).Error
}

// GetGoal returns the goal regardless of its status.
func (s *Store) GetGoal(ctx context.Context, id uint) (*models.Goal, error) {
	var goal models.Goal
	if err := s.db.WithContext(ctx).First(&goal, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &goal, nil
}

// visibleGoals scopes a query to goals that are not archived and whose
// category and board are live, on boards the user participates in.
func (s *Store) visibleGoals(ctx context.Context, userID uint) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.Goal{}).
		Select("goals.*").
		Joins("JOIN goal_categories ON goal_categories.id = goals.category_id").
		Joins("JOIN boards ON boards.id = goal_categories.board_id").
		Joins("JOIN board_participants ON board_participants.board_id = boards.id").
		Where("board_participants.user_id = ?", userID).
		Where("goals.status <> ?", models.StatusArchived).
		Where("goal_categories.is_deleted = ? AND boards.is_deleted = ?", false, false)
}

// GetVisibleGoal returns the goal if the user can see it.
func (s *Store) GetVisibleGoal(ctx context.Context, userID, id uint) (*models.Goal, error) {
	var goal models.Goal
	if err := s.visibleGoals(ctx, userID).Where("goals.id = ?", id).First(&goal).Error; err != nil {
		return nil, notFound(err)
	}
	return &goal, nil
}

// ListVisibleGoals lists the goals the user can see, by title.
func (s *Store) ListVisibleGoals(ctx context.Context, userID uint) ([]models.Goal, error) {
	var goals []models.Goal
	if err := s.visibleGoals(ctx, userID).Order("goals.title asc, goals.id asc").Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

// UpdateGoal writes the editable columns of goal, zero values included.
func (s *Store) UpdateGoal(ctx context.Context, goal *models.Goal) error {
	return s.db.WithContext(ctx).
		Model(goal).
		Select("title", "description", "status", "priority", "due_date").
		Updates(goal).Error
}

// ArchiveGoal sets the archived status on one goal.
func (s *Store) ArchiveGoal(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).
		Model(&models.Goal{}).
		Where("id = ?", id).
		Update("status", models.StatusArchived).Error
}

// ArchiveCategoryGoals archives every goal of the category.
func (s *Store) ArchiveCategoryGoals(ctx context.Context, categoryID uint) error {
	return s.db.WithContext(ctx).
		Model(&models.Goal{}).
		Where("category_id = ?", categoryID).
		Update("status", models.StatusArchived).Error
}

// ArchiveBoardGoals archives every goal in any category of the board.
func (s *Store) ArchiveBoardGoals(ctx context.Context, boardID uint) error {
	categoryIDs := s.db.WithContext(ctx).
		Model(&models.GoalCategory{}).
		Select("id").
		Where("board_id = ?", boardID)
	return s.db.WithContext(ctx).
		Model(&models.Goal{}).
		Where("category_id IN (?)", categoryIDs).
		Update("status", models.StatusArchived).Error
}

// GoalBoardID resolves the board owning a goal through its category.
func (s *Store) GoalBoardID(ctx context.Context, id uint) (uint, error) {
	var boardIDs []uint
	err := s.db.WithContext(ctx).
		Model(&models.Goal{}).
		Joins("JOIN goal_categories ON goal_categories.id = goals.category_id").
		Where("goals.id = ?", id).
		Limit(1).
		Pluck("goal_categories.board_id", &boardIDs).Error
	if err != nil {
		return 0, err
	}
	if len(boardIDs) == 0 {
		return 0, ErrNotFound
	}
	return boardIDs[0], nil
}
