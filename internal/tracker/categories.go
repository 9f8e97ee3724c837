package tracker

import (
	"context"
	"strings"

	"TodolistBot/internal/access"
	"TodolistBot/internal/database/models"
	"TodolistBot/internal/lifecycle"
)

// CreateCategory answers ErrNotFound to anyone outside the board. Members
// learn that the board is deleted before their role is checked.
func (s *Service) CreateCategory(ctx context.Context, userID, boardID uint, title string) (*models.GoalCategory, error) {
	if err := authenticated(userID); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, blank("title")
	}

	board, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, hidden(err)
	}
	if err := s.requireMember(ctx, userID, board.ID); err != nil {
		return nil, err
	}
	if board.IsDeleted {
		return nil, lifecycle.Invalid("board", "Board is deleted")
	}
	if err := s.evaluator.RequireBoardRole(ctx, userID, board.ID, access.WriteRoles(access.KindCategory)...); err != nil {
		return nil, err
	}

	category := &models.GoalCategory{BoardID: board.ID, UserID: userID, Title: title}
	if err := s.lifecycle.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *Service) GetCategory(ctx context.Context, userID, categoryID uint) (*models.GoalCategory, error) {
	if err := authenticated(userID); err != nil {
		return nil, err
	}
	category, err := s.store.GetVisibleCategory(ctx, userID, categoryID)
	if err != nil {
		return nil, hidden(err)
	}
	if err := s.evaluator.Require(ctx, userID, access.OpRetrieve, access.Category(category.ID)); err != nil {
		return nil, err
	}
	return category, nil
}

// ListVisibleCategories lists live categories on the user's live boards,
// limited to boardID when it is set.
func (s *Service) ListVisibleCategories(ctx context.Context, userID uint, boardID *uint) ([]models.GoalCategory, error) {
	if err := authenticated(userID); err != nil {
		return nil, err
	}
	return s.store.ListVisibleCategories(ctx, userID, boardID)
}

// FindCategoryByTitle matches a visible category by exact title.
func (s *Service) FindCategoryByTitle(ctx context.Context, userID uint, title string) (*models.GoalCategory, error) {
	if err := authenticated(userID); err != nil {
		return nil, err
	}
	category, err := s.store.FindVisibleCategoryByTitle(ctx, userID, title)
	if err != nil {
		return nil, hidden(err)
	}
	return category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, userID, categoryID uint, title string) (*models.GoalCategory, error) {
	category, err := s.GetCategory(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}
	if err := s.evaluator.Require(ctx, userID, access.OpUpdate, access.Category(category.ID)); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, blank("title")
	}
	if err := s.store.UpdateCategoryTitle(ctx, category.ID, title); err != nil {
		return nil, err
	}
	category.Title = title
	return category, nil
}

func (s *Service) DeleteCategory(ctx context.Context, userID, categoryID uint) error {
	category, err := s.GetCategory(ctx, userID, categoryID)
	if err != nil {
		return err
	}
	if err := s.evaluator.Require(ctx, userID, access.OpDelete, access.Category(category.ID)); err != nil {
		return err
	}
	return s.lifecycle.DeleteCategory(ctx, category.ID)
}
