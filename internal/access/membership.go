package access

import (
	"context"
	"fmt"

	"TodolistBot/internal/database/models"
)

type participantCounter interface {
	CountParticipants(ctx context.Context, userID, boardID uint, roles []models.Role) (int64, error)
}

// Registry answers membership questions against the board_participants table.
type Registry struct {
	store participantCounter
}

func NewRegistry(store participantCounter) *Registry {
	return &Registry{store: store}
}

// HasRole reports whether the user participates in the board with one of
// roles. With no roles any membership counts. A missing row is a plain false.
func (r *Registry) HasRole(ctx context.Context, userID, boardID uint, roles ...models.Role) (bool, error) {
	if userID == 0 || boardID == 0 {
		return false, nil
	}
	count, err := r.store.CountParticipants(ctx, userID, boardID, roles)
	if err != nil {
		return false, fmt.Errorf("count participants: %w", err)
	}
	return count > 0, nil
}
