package database

import (
	"context"

	"TodolistBot/internal/database/models"

	"gorm.io/gorm"
)

// CreateCategory inserts the category row.
func (s *Store) CreateCategory(ctx context.Context, category *models.GoalCategory) error {
	return s.db.WithContext(ctx).Omit("Board", "Goals").Create(category).Error
}

// GetCategory returns the category regardless of its deleted flag.
func (s *Store) GetCategory(ctx context.Context, id uint) (*models.GoalCategory, error) {
	var category models.GoalCategory
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// visibleCategories scopes a query to live categories on live boards the user
// participates in.
func (s *Store) visibleCategories(ctx context.Context, userID uint) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.GoalCategory{}).
		Select("goal_categories.*").
		Joins("JOIN boards ON boards.id = goal_categories.board_id").
		Joins("JOIN board_participants ON board_participants.board_id = boards.id").
		Where("board_participants.user_id = ?", userID).
		Where("goal_categories.is_deleted = ? AND boards.is_deleted = ?", false, false)
}

// GetVisibleCategory returns the category if the user can see it.
func (s *Store) GetVisibleCategory(ctx context.Context, userID, id uint) (*models.GoalCategory, error) {
	var category models.GoalCategory
	if err := s.visibleCategories(ctx, userID).Where("goal_categories.id = ?", id).First(&category).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// ListVisibleCategories lists the user's live categories, optionally limited
// to one board.
func (s *Store) ListVisibleCategories(ctx context.Context, userID uint, boardID *uint) ([]models.GoalCategory, error) {
	query := s.visibleCategories(ctx, userID)
	if boardID != nil {
		query = query.Where("goal_categories.board_id = ?", *boardID)
	}

	var categories []models.GoalCategory
	if err := query.Order("goal_categories.title asc, goal_categories.id asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// FindVisibleCategoryByTitle matches the title exactly; the oldest category
// wins when several share it.
func (s *Store) FindVisibleCategoryByTitle(ctx context.Context, userID uint, title string) (*models.GoalCategory, error) {
	var category models.GoalCategory
	err := s.visibleCategories(ctx, userID).
		Where("goal_categories.title = ?", title).
		Order("goal_categories.id asc").
		First(&category).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// UpdateCategoryTitle renames the category.
func (s *Store) UpdateCategoryTitle(ctx context.Context, id uint, title string) error {
	return s.db.WithContext(ctx).
		Model(&models.GoalCategory{}).
		Where("id = ?", id).
		Update("title", title).Error
}

// MarkCategoryDeleted sets is_deleted on the category alone.
func (s *Store) MarkCategoryDeleted(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).
		Model(&models.GoalCategory{}).
		Where("id = ?", id).
		Update("is_deleted", true).Error
}

// MarkBoardCategoriesDeleted sets is_deleted on every category of the board.
func (s *Store) MarkBoardCategoriesDeleted(ctx context.Context, boardID uint) error {
	return s.db.WithContext(ctx).
		Model(&models.GoalCategory{}).
		Where("board_id = ?", boardID).
		Update("is_deleted", true).Error
}

// CategoryBoardID resolves the board owning a category.
func (s *Store) CategoryBoardID(ctx context.Context, id uint) (uint, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return 0, err
	}
	return category.BoardID, nil
}
