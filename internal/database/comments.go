package database

import (
	"context"

	"TodolistBot/internal/database/models"
)

// CreateComment inserts the comment row.
func (s *Store) CreateComment(ctx context.Context, comment *models.GoalComment) error {
	return s.db.WithContext(ctx).Omit("Goal").Create(comment).Error
}

// GetComment returns the comment by id.
func (s *Store) GetComment(ctx context.Context, id uint) (*models.GoalComment, error) {
	var comment models.GoalComment
	if err := s.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &comment, nil
}

// ListComments returns the comments of a goal, newest first.
func (s *Store) ListComments(ctx context.Context, goalID uint) ([]models.GoalComment, error) {
	var comments []models.GoalComment
	err := s.db.WithContext(ctx).
		Where("goal_id = ?", goalID).
		Order("created_at desc, id desc").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// UpdateCommentText replaces the comment text.
func (s *Store) UpdateCommentText(ctx context.Context, id uint, text string) error {
	return s.db.WithContext(ctx).
		Model(&models.GoalComment{}).
		Where("id = ?", id).
		Update("text", text).Error
}

// DeleteComment removes the comment row for good.
func (s *Store) DeleteComment(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.GoalComment{}, id).Error
}

// CommentBoardID resolves the board owning a comment through its goal and
// category.
func (s *Store) CommentBoardID(ctx context.Context, id uint) (uint, error) {
	var boardIDs []uint
	err := s.db.WithContext(ctx).
		Model(&models.GoalComment{}).
		Joins("JOIN goals ON goals.id = goal_comments.goal_id").
		Joins("JOIN goal_categories ON goal_categories.id = goals.category_id").
		Where("goal_comments.id = ?", id).
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
