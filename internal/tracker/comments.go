package tracker

import (
	"context"
	"strings"

	"TodolistBot/internal/access"
	"TodolistBot/internal/database/models"
	"TodolistBot/internal/lifecycle"
)

func (s *Service) CreateComment(ctx context.Context, userID, goalID uint, text string) (*models.GoalComment, error) {
	if err := authenticated(userID); err != nil {
		return nil, err
	}

	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, hidden(err)
	}
	boardID, err := s.store.GoalBoardID(ctx, goal.ID)
	if err != nil {
		return nil, hidden(err)
	}
	if err := s.requireMember(ctx, userID, boardID); err != nil {
		return nil, err
	}
	if goal.Archived() {
		return nil, lifecycle.Invalid("goal", "Goal not found")
	}
	if err := s.evaluator.RequireBoardRole(ctx, userID, boardID, access.WriteRoles(access.KindComment)...); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, blank("text")
	}

	comment := &models.GoalComment{GoalID: goal.ID, UserID: userID, Text: text}
	if err := s.lifecycle.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// GetComment hides comments whose goal is no longer visible to the user.
func (s *Service) GetComment(ctx context.Context, userID, commentID uint) (*models.GoalComment, error) {
	if err := authenticated(userID); err != nil {
		return nil, err
	}
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, hidden(err)
	}
	if _, err := s.store.GetVisibleGoal(ctx, userID, comment.GoalID); err != nil {
		return nil, hidden(err)
	}
	if err := s.evaluator.Require(ctx, userID, access.OpRetrieve, access.Comment(comment.ID)); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns the comments of a visible goal, newest first.
func (s *Service) ListComments(ctx context.Context, userID, goalID uint) ([]models.GoalComment, error) {
	goal, err := s.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	return s.store.ListComments(ctx, goal.ID)
}

func (s *Service) UpdateComment(ctx context.Context, userID, commentID uint, text string) (*models.GoalComment, error) {
	comment, err := s.GetComment(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.evaluator.Require(ctx, userID, access.OpUpdate, access.Comment(comment.ID)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, blank("text")
	}
	if err := s.store.UpdateCommentText(ctx, comment.ID, text); err != nil {
		return nil, err
	}
	comment.Text = text
	return comment, nil
}

func (s *Service) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.GetComment(ctx, userID, commentID)
	if err != nil {
		return err
	}
	if err := s.evaluator.Require(ctx, userID, access.OpDelete, access.Comment(comment.ID)); err != nil {
		return err
	}
	return s.store.DeleteComment(ctx, comment.ID)
}
