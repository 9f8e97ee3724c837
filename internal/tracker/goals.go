package tracker

import (
	"context"
	"strings"
	"time"

	"TodolistBot/internal/access"
	"TodolistBot/internal/database/models"
	"TodolistBot/internal/lifecycle"
)

// GoalInput carries the writable goal fields. Zero Status and Priority fall
// back to "to do" and "medium" on create. CategoryID is ignored on update.
type GoalInput struct {
	CategoryID  uint
	Title       string
	Description string
	Status      models.Status
	Priority    models.Priority
	DueDate     *time.Time
}

func (s *Service) validateGoal(in *GoalInput, current *time.Time) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return blank("title")
	}
	if in.Status != 0 && !in.Status.Valid() {
		return lifecycle.Invalid("status", "Unknown status")
	}
	if in.Priority != 0 && !in.Priority.Valid() {
		return lifecycle.Invalid("priority", "Unknown priority")
	}
	if in.DueDate == nil || sameDay(in.DueDate, current) {
		return nil
	}
	if inPast(*in.DueDate, s.now()) {
		return lifecycle.Invalid("due_date", "Failed to set due date in the past")
	}
	return nil
}

func sameDay(a, b *time.Time) bool {
	return a != nil && b != nil && startOfDay(*a).Equal(startOfDay(*b))
}

// CreateGoal requires a live category and owner or writer role on the
// category's board. Outside the board every category looks missing.
func (s *Service) CreateGoal(ctx context.Context, userID uint, in GoalInput) (*models.Goal, error) {
	if err := authenticated(userID); err != nil {
		return nil, err
	}

	category, err := s.store.GetCategory(ctx, in.CategoryID)
	if err != nil {
		return nil, hidden(err)
	}
	if err := s.requireMember(ctx, userID, category.BoardID); err != nil {
		return nil, err
	}
	if category.IsDeleted {
		return nil, lifecycle.Invalid("category", "Category not found")
	}
	if err := s.evaluator.RequireBoardRole(ctx, userID, category.BoardID, access.WriteRoles(access.KindGoal)...); err != nil {
		return nil, err
	}
	if err := s.validateGoal(&in, nil); err != nil {
		return nil, err
	}

	goal := &models.Goal{
		CategoryID:  category.ID,
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
	}
	if err := s.lifecycle.CreateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *Service) GetGoal(ctx context.Context, userID, goalID uint) (*models.Goal, error) {
	if err := authenticated(userID); err != nil {
		return nil, err
	}
	goal, err := s.store.GetVisibleGoal(ctx, userID, goalID)
	if err != nil {
		return nil, hidden(err)
	}
	if err := s.evaluator.Require(ctx, userID, access.OpRetrieve, access.Goal(goal.ID)); err != nil {
		return nil, err
	}
	return goal, nil
}

// ListVisibleGoals returns the goals the user can see, ordered by title.
func (s *Service) ListVisibleGoals(ctx context.Context, userID uint) ([]models.Goal, error) {
	if err := authenticated(userID); err != nil {
		return nil, err
	}
	return s.store.ListVisibleGoals(ctx, userID)
}

// UpdateGoal replaces the writable fields. Setting the archived status has
// the same effect as DeleteGoal.
func (s *Service) UpdateGoal(ctx context.Context, userID, goalID uint, in GoalInput) (*models.Goal, error) {
	goal, err := s.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if err := s.evaluator.Require(ctx, userID, access.OpUpdate, access.Goal(goal.ID)); err != nil {
		return nil, err
	}
	// an unchanged due date that has since passed is kept as is
	if err := s.validateGoal(&in, goal.DueDate); err != nil {
		return nil, err
	}

	goal.Title = in.Title
	goal.Description = in.Description
	if in.Status != 0 {
		goal.Status = in.Status
	}
	if in.Priority != 0 {
		goal.Priority = in.Priority
	}
	goal.DueDate = in.DueDate
	if err := s.store.UpdateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *Service) DeleteGoal(ctx context.Context, userID, goalID uint) error {
	goal, err := s.GetGoal(ctx, userID, goalID)
	if err != nil {
		return err
	}
	if err := s.evaluator.Require(ctx, userID, access.OpDelete, access.Goal(goal.ID)); err != nil {
		return err
	}
	return s.lifecycle.DeleteGoal(ctx, goal.ID)
}

// DueGoals returns the user's visible goals that are not done and fall due
// on or before day.
func (s *Service) DueGoals(ctx context.Context, userID uint, day time.Time) ([]models.Goal, error) {
	goals, err := s.ListVisibleGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	limit := startOfDay(day)
	due := make([]models.Goal, 0, len(goals))
	for _, goal := range goals {
		if goal.DueDate == nil || goal.Status == models.StatusDone {
			continue
		}
		if startOfDay(*goal.DueDate).After(limit) {
			continue
		}
		due = append(due, goal)
	}
	return due, nil
}
