package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"TodolistBot/internal/database/models"
)

func TestNextRun(t *testing.T) {
	loc := time.UTC
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{
			now:  time.Date(2026, time.October, 17, 8, 0, 0, 0, loc),
			want: time.Date(2026, time.October, 17, 9, 30, 0, 0, loc),
		},
		{
			now:  time.Date(2026, time.October, 17, 9, 30, 0, 0, loc),
			want: time.Date(2026, time.October, 18, 9, 30, 0, 0, loc),
		},
		{
			now:  time.Date(2026, time.October, 31, 23, 0, 0, 0, loc),
			want: time.Date(2026, time.November, 1, 9, 30, 0, 0, loc),
		},
	}
	for _, tc := range cases {
		if got := nextRun(tc.now, 9, 30); !got.Equal(tc.want) {
			t.Fatalf("nextRun(%v) = %v, want %v", tc.now, got, tc.want)
		}
	}
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestDigest(t *testing.T) {
	today := time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)
	goals := []models.Goal{
		{Title: "Pay rent", Priority: models.PriorityHigh, DueDate: date(2026, time.October, 17)},
		{Title: "Call mom", Priority: models.PriorityMedium, DueDate: date(2026, time.October, 15)},
	}

	want := "Goals due today:\n# Pay rent [high]\n# Call mom [medium] overdue since 2026-10-15"
	if got := Digest(goals, today); got != want {
		t.Fatalf("Digest() = %q, want %q", got, want)
	}
}

type fakeSource struct {
	chats []models.TgUser
	goals map[uint][]models.Goal
}

func (f *fakeSource) LinkedChats(context.Context) ([]models.TgUser, error) {
	return f.chats, nil
}

func (f *fakeSource) DueGoals(_ context.Context, userID uint, _ time.Time) ([]models.Goal, error) {
	if userID == 3 {
		return nil, errors.New("db gone")
	}
	return f.goals[userID], nil
}

type fakeNotifier struct {
	sent map[int64]string
}

func (f *fakeNotifier) Notify(_ context.Context, chatID int64, text string) error {
	f.sent[chatID] = text
	return nil
}

func TestSendReminders(t *testing.T) {
	one, two, three := uint(1), uint(2), uint(3)
	source := &fakeSource{
		chats: []models.TgUser{
			{ChatID: 10, UserID: &one},
			{ChatID: 20, UserID: &two},
			{ChatID: 30, UserID: &three},
			{ChatID: 40},
		},
		goals: map[uint][]models.Goal{
			1: {{Title: "Pay rent", Priority: models.PriorityHigh, DueDate: date(2026, time.October, 17)}},
		},
	}
	bot := &fakeNotifier{sent: map[int64]string{}}
	s := NewScheduler(source, bot, 9, 0)
	s.now = func() time.Time { return time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC) }

	s.SendReminders(context.Background())

	if len(bot.sent) != 1 {
		t.Fatalf("sent = %v, want a single digest", bot.sent)
	}
	if got := bot.sent[10]; got != "Goals due today:\n# Pay rent [high]" {
		t.Fatalf("digest = %q", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScheduler(&fakeSource{}, &fakeNotifier{sent: map[int64]string{}}, 9, 0)
	if err := s.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestDigestUsesUTCCalendarDay(t *testing.T) {
	// 05:00 on Oct 18 at UTC+10 is Oct 17 in UTC, so a goal due Oct 17 is not overdue.
	today := time.Date(2026, time.October, 18, 5, 0, 0, 0, time.FixedZone("UTC+10", 10*60*60))
	goals := []models.Goal{{Title: "Pay rent", Priority: models.PriorityHigh, DueDate: date(2026, time.October, 17)}}

	if got, want := Digest(goals, today), "Goals due today:\n# Pay rent [high]"; got != want {
		t.Fatalf("Digest() = %q, want %q", got, want)
	}
}
