package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"TodolistBot/internal/access"
	"TodolistBot/internal/database"
	"TodolistBot/internal/database/models"
	"TodolistBot/internal/lifecycle"
)

type BoardUpdate struct {
	Title        *string
	Participants []lifecycle.ParticipantInput
}

func (s *Service) CreateBoard(ctx context.Context, userID uint, title string) (*models.Board, error) {
	if err := authenticated(userID); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, blank("title")
	}
	return s.lifecycle.CreateBoard(ctx, userID, title)
}

func (s *Service) GetBoard(ctx context.Context, userID, boardID uint) (*models.Board, error) {
	if err := authenticated(userID); err != nil {
		return nil, err
	}
	board, err := s.store.GetVisibleBoard(ctx, userID, boardID)
	if err != nil {
		return nil, hidden(err)
	}
	if err := s.evaluator.Require(ctx, userID, access.OpRetrieve, access.Board(board.ID)); err != nil {
		return nil, err
	}
	return board, nil
}

// ListBoards returns live boards the user participates in, ordered by title.
func (s *Service) ListBoards(ctx context.Context, userID uint) ([]models.Board, error) {
	if err := authenticated(userID); err != nil {
		return nil, err
	}
	return s.store.ListVisibleBoards(ctx, userID)
}

// UpdateBoard is owner only. The participant list replaces every row except
// the owner's own.
func (s *Service) UpdateBoard(ctx context.Context, userID, boardID uint, update BoardUpdate) (*models.Board, error) {
	board, err := s.GetBoard(ctx, userID, boardID)
	if err != nil {
		return nil, err
	}
	if err := s.evaluator.Require(ctx, userID, access.OpUpdate, access.Board(board.ID)); err != nil {
		return nil, err
	}
	for _, p := range update.Participants {
		if _, err := s.store.GetUserByID(ctx, p.UserID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil, lifecycle.Invalid("participants", fmt.Sprintf("user %d does not exist", p.UserID))
			}
			return nil, err
		}
	}
	if err := s.lifecycle.UpdateBoard(ctx, board, userID, update.Participants, update.Title); err != nil {
		return nil, err
	}
	return board, nil
}

func (s *Service) DeleteBoard(ctx context.Context, userID, boardID uint) error {
	board, err := s.GetBoard(ctx, userID, boardID)
	if err != nil {
		return err
	}
	if err := s.evaluator.Require(ctx, userID, access.OpDelete, access.Board(board.ID)); err != nil {
		return err
	}
	return s.lifecycle.DeleteBoard(ctx, board.ID)
}

func (s *Service) ListParticipants(ctx context.Context, userID, boardID uint) ([]models.BoardParticipant, error) {
	board, err := s.GetBoard(ctx, userID, boardID)
	if err != nil {
		return nil, err
	}
	return s.store.ListParticipants(ctx, board.ID)
}
