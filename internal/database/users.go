package database

import (
	"context"

	"TodolistBot/internal/database/models"
)

// CreateUser inserts the user row.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.UserRoleUnknown
	}
	return s.db.WithContext(ctx).Create(user).Error
}

// GetUserByID returns the user by id.
func (s *Store) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetOrCreateTgUser returns the link row for chatID, creating an unlinked one
// on first contact.
func (s *Store) GetOrCreateTgUser(ctx context.Context, chatID int64, username string) (*models.TgUser, error) {
	tgUser := models.TgUser{ChatID: chatID, Username: username}
	err := s.db.WithContext(ctx).
		Where(models.TgUser{ChatID: chatID}).
		Attrs(models.TgUser{Username: username}).
		FirstOrCreate(&tgUser).Error
	if err != nil {
		return nil, err
	}
	return &tgUser, nil
}

// GetTgUserByChatID returns the link row of the chat.
func (s *Store) GetTgUserByChatID(ctx context.Context, chatID int64) (*models.TgUser, error) {
	var tgUser models.TgUser
	if err := s.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&tgUser).Error; err != nil {
		return nil, notFound(err)
	}
	return &tgUser, nil
}

// SetVerificationCode stores code as the pending code of the chat.
func (s *Store) SetVerificationCode(ctx context.Context, tgUserID uint, code string) error {
	return s.db.WithContext(ctx).
		Model(&models.TgUser{}).
		Where("id = ?", tgUserID).
		Update("verification_code", code).Error
}

// VerificationCodeInUse reports whether a chat other than exceptID holds code.
func (s *Store) VerificationCodeInUse(ctx context.Context, code string, exceptID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.TgUser{}).
		Where("verification_code = ? AND id <> ?", code, exceptID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// LinkTgUser binds the chat holding code to userID and burns the code. A
// code held by more than one chat links nothing and returns ErrAmbiguousCode.
func (s *Store) LinkTgUser(ctx context.Context, code string, userID uint) (*models.TgUser, error) {
	var tgUser models.TgUser
	err := s.Transaction(ctx, func(tx *Store) error {
		var matches []models.TgUser
		err := tx.db.WithContext(ctx).
			Where("verification_code = ?", code).
			Limit(2).
			Find(&matches).Error
		if err != nil {
			return err
		}
		switch len(matches) {
		case 0:
			return ErrNotFound
		case 1:
		default:
			return ErrAmbiguousCode
		}

		tgUser = matches[0]
		return tx.db.WithContext(ctx).
			Model(&tgUser).
			Updates(map[string]interface{}{"user_id": userID, "verification_code": ""}).Error
	})
	if err != nil {
		return nil, err
	}
	tgUser.UserID = &userID
	tgUser.VerificationCode = ""
	return &tgUser, nil
}

// ListLinkedTgUsers returns every chat bound to a user.
func (s *Store) ListLinkedTgUsers(ctx context.Context) ([]models.TgUser, error) {
	var tgUsers []models.TgUser
	err := s.db.WithContext(ctx).
		Where("user_id IS NOT NULL").
		Order("id asc").
		Find(&tgUsers).Error
	if err != nil {
		return nil, err
	}
	return tgUsers, nil
}
