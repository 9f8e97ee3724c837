package tracker

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"TodolistBot/internal/database"
	"TodolistBot/internal/database/models"
	"TodolistBot/internal/lifecycle"
)

const (
	verificationCodeLength   = 6
	verificationCodeAttempts = 10
)

var errCodeSpaceExhausted = errors.New("no free verification code")

func newVerificationCode() (string, error) {
	return generateVerificationCode(verificationCodeLength)
}

func generateVerificationCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// IssueVerificationCode records the chat on first contact and stores a
// fresh code for it. The user proves ownership of the chat by passing the
// code to LinkChat.
func (s *Service) IssueVerificationCode(ctx context.Context, chatID int64, username string) (string, error) {
	tgUser, err := s.store.GetOrCreateTgUser(ctx, chatID, username)
	if err != nil {
		return "", fmt.Errorf("get chat: %w", err)
	}
	code, err := s.uniqueVerificationCode(ctx, tgUser.ID)
	if err != nil {
		return "", err
	}
	if err := s.store.SetVerificationCode(ctx, tgUser.ID, code); err != nil {
		return "", fmt.Errorf("save code: %w", err)
	}
	return code, nil
}

// uniqueVerificationCode draws codes until one is not pending on another chat.
func (s *Service) uniqueVerificationCode(ctx context.Context, tgUserID uint) (string, error) {
	for i := 0; i < verificationCodeAttempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		taken, err := s.store.VerificationCodeInUse(ctx, code, tgUserID)
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", errCodeSpaceExhausted
}

func (s *Service) LinkChat(ctx context.Context, userID uint, code string) (*models.TgUser, error) {
	if err := authenticated(userID); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, lifecycle.Invalid("verification_code", "Invalid verification code")
	}
	tgUser, err := s.store.LinkTgUser(ctx, code, userID)
	if errors.Is(err, database.ErrNotFound) || errors.Is(err, database.ErrAmbiguousCode) {
		return nil, lifecycle.Invalid("verification_code", "Invalid verification code")
	}
	if err != nil {
		return nil, err
	}
	return tgUser, nil
}

// ResolveChat returns the user linked to chatID, or nil when the chat is
// unknown or not linked yet.
func (s *Service) ResolveChat(ctx context.Context, chatID int64) (*models.User, error) {
	tgUser, err := s.store.GetTgUserByChatID(ctx, chatID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !tgUser.Linked() {
		return nil, nil
	}
	user, err := s.store.GetUserByID(ctx, *tgUser.UserID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) LinkedChats(ctx context.Context) ([]models.TgUser, error) {
	return s.store.ListLinkedTgUsers(ctx)
}
