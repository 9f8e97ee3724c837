package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"TodolistBot/internal/access"
	"TodolistBot/internal/lifecycle"
	"TodolistBot/internal/tracker"
	"TodolistBot/pkg/models"
)

const (
	CommandCancel = "/cancel"
	CommandGoals  = "/goals"
	CommandCreate = "/create"
)

const (
	replyCancelled      = "Operation cancel"
	replyNoGoals        = "No goals"
	replyNoCategories   = "No categories"
	replySelectCategory = "Select a category \n"
	replyEnterGoal      = "Enter your new goal"
	replyFailure        = "Something went wrong, try again later"
)

func replyCategoryMissing(text string) string {
	return `Category "` + text + `" missing from your board`
}

func replyGoalCreated(title string) string {
	return fmt.Sprintf("The goal %s was created successfully", title)
}

func replyUnknown(text string) string {
	return "Unknown command " + text
}

func replyGreeting(code string) string {
	return "Hello! Verification code: " + code
}

func replyGoalFailed(reason string) string {
	return "Failed to create goal: " + reason
}

// chat is what a transition sees: who is talking and where the dialog is.
type chat struct {
	id      int64
	userID  uint
	session models.Session
}

type transition struct {
	replies []Reply
	next    models.Session
}

type handlerFunc func(ctx context.Context, c chat, text string) (transition, error)

func (h *UpdateHandler) cancel(_ context.Context, _ chat, _ string) (transition, error) {
	return transition{
		replies: []Reply{{Text: replyCancelled}},
		next:    models.Session{Step: models.StepIdle},
	}, nil
}

func (h *UpdateHandler) listGoals(ctx context.Context, c chat, _ string) (transition, error) {
	goals, err := h.service.ListVisibleGoals(ctx, c.userID)
	if err != nil {
		return transition{}, fmt.Errorf("list goals: %w", err)
	}

	text := replyNoGoals
	if len(goals) > 0 {
		lines := make([]string, 0, len(goals))
		for _, goal := range goals {
			lines = append(lines, "# "+goal.Title)
		}
		text = strings.Join(lines, "\n")
	}
	return transition{replies: []Reply{{Text: text}}, next: c.session}, nil
}

// startCreate lists the categories a goal can go to. With none, the notice
// is followed by the prompt anyway.
func (h *UpdateHandler) startCreate(ctx context.Context, c chat, _ string) (transition, error) {
	categories, err := h.service.ListVisibleCategories(ctx, c.userID, nil)
	if err != nil {
		return transition{}, fmt.Errorf("list categories: %w", err)
	}

	lines := make([]string, 0, len(categories))
	titles := make([]string, 0, len(categories))
	for _, category := range categories {
		lines = append(lines, "-> "+category.Title)
		titles = append(titles, category.Title)
	}

	var replies []Reply
	if len(categories) == 0 {
		replies = append(replies, Reply{Text: replyNoCategories})
	}
	replies = append(replies, Reply{Text: replySelectCategory + strings.Join(lines, "\n"), Options: titles})

	return transition{
		replies: replies,
		next:    models.Session{Step: models.StepAwaitingCategory},
	}, nil
}

func (h *UpdateHandler) selectCategory(ctx context.Context, c chat, text string) (transition, error) {
	category, err := h.service.FindCategoryByTitle(ctx, c.userID, text)
	if errors.Is(err, access.ErrNotFound) {
		return transition{
			replies: []Reply{{Text: replyCategoryMissing(text)}},
			next:    c.session,
		}, nil
	}
	if err != nil {
		return transition{}, fmt.Errorf("find category: %w", err)
	}

	return transition{
		replies: []Reply{{Text: replyEnterGoal, RemoveKeyboard: true}},
		next:    models.Session{Step: models.StepAwaitingGoalTitle, CategoryID: category.ID},
	}, nil
}

func (h *UpdateHandler) createGoal(ctx context.Context, c chat, text string) (transition, error) {
	goal, err := h.service.CreateGoal(ctx, c.userID, tracker.GoalInput{
		CategoryID: c.session.CategoryID,
		Title:      text,
	})
	if reason, ok := rejection(err); ok {
		return transition{
			replies: []Reply{{Text: replyGoalFailed(reason)}},
			next:    models.Session{Step: models.StepIdle},
		}, nil
	}
	if err != nil {
		return transition{}, fmt.Errorf("create goal: %w", err)
	}

	return transition{
		replies: []Reply{{Text: replyGoalCreated(goal.Title)}},
		next:    models.Session{Step: models.StepIdle},
	}, nil
}

func (h *UpdateHandler) unknown(_ context.Context, c chat, text string) (transition, error) {
	return transition{
		replies: []Reply{{Text: replyUnknown(text)}},
		next:    c.session,
	}, nil
}

// rejection turns an expected refusal into a user facing reason.
func rejection(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var v *lifecycle.ValidationError
	switch {
	case errors.As(err, &v):
		return v.Reason, true
	case errors.Is(err, access.ErrPermissionDenied):
		return "permission denied", true
	case errors.Is(err, access.ErrNotFound):
		return "not found", true
	}
	return "", false
}
