package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"TodolistBot/internal/database/models"
)

type goalSource interface {
	LinkedChats(ctx context.Context) ([]models.TgUser, error)
	DueGoals(ctx context.Context, userID uint, day time.Time) ([]models.Goal, error)
}

type notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Scheduler sends every linked chat a daily digest of goals that are due.
type Scheduler struct {
	goals  goalSource
	bot    notifier
	hour   int
	minute int
	now    func() time.Time
}

func NewScheduler(goals goalSource, bot notifier, hour, minute int) *Scheduler {
	return &Scheduler{
		goals:  goals,
		bot:    bot,
		hour:   hour,
		minute: minute,
		now:    time.Now,
	}
}

func nextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		now := s.now()
		next := nextRun(now, s.hour, s.minute)
		wait := next.Sub(now)
		slog.Info("next due goal reminder scheduled", "at", next, "in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		s.SendReminders(ctx)
	}
}

// SendReminders notifies every linked chat that has due goals. Failures for
// one chat do not stop the others.
func (s *Scheduler) SendReminders(ctx context.Context) {
	chats, err := s.goals.LinkedChats(ctx)
	if err != nil {
		slog.Error("list linked chats failed", "error", err)
		return
	}

	today := s.now()
	for _, chat := range chats {
		if chat.UserID == nil {
			continue
		}
		goals, err := s.goals.DueGoals(ctx, *chat.UserID, today)
		if err != nil {
			slog.Error("list due goals failed", "chat_id", chat.ChatID, "error", err)
			continue
		}
		if len(goals) == 0 {
			continue
		}
		if err := s.bot.Notify(ctx, chat.ChatID, Digest(goals, today)); err != nil {
			slog.Error("send reminder failed", "chat_id", chat.ChatID, "error", err)
		}
	}
}

// Digest renders goals due on or before today, overdue ones marked. Days are
// UTC calendar days.
func Digest(goals []models.Goal, today time.Time) string {
	var b strings.Builder
	b.WriteString("Goals due today:")
	y, m, d := today.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	for _, goal := range goals {
		line := fmt.Sprintf("\n# %s [%s]", goal.Title, goal.Priority)
		if goal.DueDate != nil {
			dy, dm, dd := goal.DueDate.UTC().Date()
			if time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC).Before(start) {
				line += " overdue since " + goal.DueDate.UTC().Format("2006-01-02")
			}
		}
		b.WriteString(line)
	}
	return b.String()
}
