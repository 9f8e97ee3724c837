package database

import (
	"context"

	"TodolistBot/internal/database/models"

	"gorm.io/gorm/clause"
)

// CreateBoard inserts the board row only; participants are added separately.
func (s *Store) CreateBoard(ctx context.Context, board *models.Board) error {
	return s.db.WithContext(ctx).Omit("Participants", "Categories").Create(board).Error
}

// GetBoard returns the board regardless of its deleted flag.
func (s *Store) GetBoard(ctx context.Context, id uint) (*models.Board, error) {
	var board models.Board
	if err := s.db.WithContext(ctx).First(&board, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &board, nil
}

// GetVisibleBoard returns a board the user participates in that is not deleted.
func (s *Store) GetVisibleBoard(ctx context.Context, userID, id uint) (*models.Board, error) {
	var board models.Board
	err := s.db.WithContext(ctx).
		Select("boards.*").
		Joins("JOIN board_participants ON board_participants.board_id = boards.id").
		Where("boards.id = ? AND board_participants.user_id = ? AND boards.is_deleted = ?", id, userID, false).
		First(&board).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &board, nil
}

// ListVisibleBoards lists live boards the user participates in, by title.
func (s *Store) ListVisibleBoards(ctx context.Context, userID uint) ([]models.Board, error) {
	var boards []models.Board
	err := s.db.WithContext(ctx).
		Select("boards.*").
		Joins("JOIN board_participants ON board_participants.board_id = boards.id").
		Where("board_participants.user_id = ? AND boards.is_deleted = ?", userID, false).
		Order("boards.title asc, boards.id asc").
		Find(&boards).Error
	if err != nil {
		return nil, err
	}
	return boards, nil
}

// UpdateBoardTitle renames the board.
func (s *Store) UpdateBoardTitle(ctx context.Context, id uint, title string) error {
	return s.db.WithContext(ctx).
		Model(&models.Board{}).
		Where("id = ?", id).
		Update("title", title).Error
}

// MarkBoardDeleted sets is_deleted on the board alone.
func (s *Store) MarkBoardDeleted(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).
		Model(&models.Board{}).
		Where("id = ?", id).
		Update("is_deleted", true).Error
}

// CreateParticipant inserts a single participant row.
func (s *Store) CreateParticipant(ctx context.Context, participant *models.BoardParticipant) error {
	return s.db.WithContext(ctx).Omit("User").Create(participant).Error
}

// AddParticipants inserts the rows and silently skips any (board, user) pair
// that already exists.
func (s *Store) AddParticipants(ctx context.Context, participants []models.BoardParticipant) error {
	if len(participants) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Omit("User").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&participants).Error
}

// RemoveParticipantsExcept deletes every participant of the board except keepUserID.
func (s *Store) RemoveParticipantsExcept(ctx context.Context, boardID, keepUserID uint) error {
	return s.db.WithContext(ctx).
		Where("board_id = ? AND user_id <> ?", boardID, keepUserID).
		Delete(&models.BoardParticipant{}).Error
}

// ListParticipants returns the board members with their users, owners first.
func (s *Store) ListParticipants(ctx context.Context, boardID uint) ([]models.BoardParticipant, error) {
	var participants []models.BoardParticipant
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("board_id = ?", boardID).
		Order("role asc, id asc").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// CountParticipants counts rows for (user, board). An empty roles list
// matches any role.
func (s *Store) CountParticipants(ctx context.Context, userID, boardID uint, roles []models.Role) (int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.BoardParticipant{}).
		Where("user_id = ? AND board_id = ?", userID, boardID)
	if len(roles) > 0 {
		query = query.Where("role IN ?", roles)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
