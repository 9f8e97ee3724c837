package bot

import (
	"context"
	"fmt"
	"log/slog"

	"TodolistBot/internal/storage"
	"TodolistBot/internal/tracker"
	"TodolistBot/pkg/models"
)

// UpdateHandler runs the goal creation dialog. Transitions are looked up in
// two tables: commands work in every step, free text goes to the handler of
// the current step, and anything else is an unknown command.
type UpdateHandler struct {
	service     *tracker.Service
	sessions    storage.SessionStore
	channel     Channel
	adminChatID int64

	commands map[string]handlerFunc
	steps    map[models.Step]handlerFunc
}

type Option func(*UpdateHandler)

// WithAdminChat limits the bot to a single chat.
func WithAdminChat(chatID int64) Option {
	return func(h *UpdateHandler) {
		h.adminChatID = chatID
	}
}

func NewUpdateHandler(service *tracker.Service, sessions storage.SessionStore, channel Channel, opts ...Option) *UpdateHandler {
	h := &UpdateHandler{
		service:  service,
		sessions: sessions,
		channel:  channel,
	}
	h.commands = map[string]handlerFunc{
		CommandCancel: h.cancel,
		CommandGoals:  h.listGoals,
		CommandCreate: h.startCreate,
	}
	h.steps = map[models.Step]handlerFunc{
		models.StepAwaitingCategory:  h.selectCategory,
		models.StepAwaitingGoalTitle: h.createGoal,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *UpdateHandler) route(step models.Step, text string) handlerFunc {
	if handler, ok := h.commands[text]; ok {
		return handler
	}
	if handler, ok := h.steps[step]; ok {
		return handler
	}
	return h.unknown
}

// HandleUpdate answers a single update. Failures inside the dialog are
// reported to the chat and leave the session as it was; the returned error
// is only about delivering replies.
func (h *UpdateHandler) HandleUpdate(ctx context.Context, update Update) error {
	if !update.HasMessage || update.FromBot {
		return nil
	}
	if h.adminChatID != 0 && update.ChatID != h.adminChatID {
		slog.Info("ignoring message from foreign chat", "chat_id", update.ChatID)
		return nil
	}

	slog.Debug("message received", "chat_id", update.ChatID, "text", update.Text)

	replies, err := h.dispatch(ctx, update)
	if err != nil {
		slog.Error("handle message failed", "chat_id", update.ChatID, "error", err)
		replies = []Reply{{Text: replyFailure}}
	}
	return h.send(ctx, update.ChatID, replies)
}

func (h *UpdateHandler) dispatch(ctx context.Context, update Update) ([]Reply, error) {
	user, err := h.service.ResolveChat(ctx, update.ChatID)
	if err != nil {
		return nil, fmt.Errorf("resolve chat: %w", err)
	}
	if user == nil {
		code, err := h.service.IssueVerificationCode(ctx, update.ChatID, update.Username)
		if err != nil {
			return nil, fmt.Errorf("issue verification code: %w", err)
		}
		return []Reply{{Text: replyGreeting(code), RemoveKeyboard: true}}, nil
	}

	session, err := h.sessions.Get(ctx, update.ChatID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	c := chat{id: update.ChatID, userID: user.ID, session: session}
	result, err := h.route(session.Step, update.Text)(ctx, c, update.Text)
	if err != nil {
		return nil, err
	}
	if result.next != session {
		if err := h.sessions.Set(ctx, update.ChatID, result.next); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
		slog.Debug("session changed", "chat_id", update.ChatID, "from", session.Step, "to", result.next.Step)
	}
	return result.replies, nil
}

func (h *UpdateHandler) send(ctx context.Context, chatID int64, replies []Reply) error {
	for _, reply := range replies {
		if err := h.channel.SendMessage(ctx, chatID, reply); err != nil {
			return err
		}
	}
	return nil
}

// Notify sends a plain message outside of any dialog.
func (h *UpdateHandler) Notify(ctx context.Context, chatID int64, text string) error {
	return h.send(ctx, chatID, []Reply{{Text: text}})
}
