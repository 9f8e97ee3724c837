// Package tracker is the task-tracking API shared by the chat bot and any
// other front end. Every call authorizes the acting user, validates input and
// hands writes to the lifecycle manager.
package tracker

import (
	"context"
	"errors"
	"time"

	"TodolistBot/internal/access"
	"TodolistBot/internal/database"
	"TodolistBot/internal/lifecycle"
)

type Service struct {
	store     *database.Store
	evaluator *access.Evaluator
	lifecycle *lifecycle.Manager
	now       func() time.Time
	newCode   func() (string, error)
}

type Option func(*Service)

// WithClock replaces time.Now, used for due date validation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(store *database.Store, evaluator *access.Evaluator, manager *lifecycle.Manager, opts ...Option) *Service {
	s := &Service{
		store:     store,
		evaluator: evaluator,
		lifecycle: manager,
		now:       time.Now,
		newCode:   newVerificationCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func authenticated(userID uint) error {
	if userID == 0 {
		return access.ErrPermissionDenied
	}
	return nil
}

// hidden maps a store miss to the access error callers see, so a missing
// row and a row outside the user's boards look the same.
func hidden(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return access.ErrNotFound
	}
	return err
}

// requireMember hides boards the user does not participate in behind
// ErrNotFound, the same answer a missing id gets.
func (s *Service) requireMember(ctx context.Context, userID, boardID uint) error {
	err := s.evaluator.RequireBoardRole(ctx, userID, boardID)
	if errors.Is(err, access.ErrPermissionDenied) {
		return access.ErrNotFound
	}
	return err
}

func blank(field string) error {
	return lifecycle.Invalid(field, "This field may not be blank")
}

// startOfDay is midnight UTC of the UTC calendar day of t.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// inPast compares calendar dates only: a due date of today is accepted.
func inPast(due, now time.Time) bool {
	return startOfDay(due).Before(startOfDay(now))
}
