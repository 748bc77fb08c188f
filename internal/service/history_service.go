package service

import (
	"context"

	"github.com/onlytraining/trainsync/internal/domain"
)

// HistoryService serves a user's finished sessions joined with their items,
// newest first. Read-only; history is immutable once written.
type HistoryService struct {
	sessions domain.SessionRepository
	items    domain.SessionItemRepository
}

func NewHistoryService(sessions domain.SessionRepository, items domain.SessionItemRepository) *HistoryService {
	return &HistoryService{sessions: sessions, items: items}
}

func (s *HistoryService) FinishedSessions(ctx context.Context, userID string) ([]*domain.SessionWithItems, error) {
	if userID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	sessions, err := s.sessions.ListFinished(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return []*domain.SessionWithItems{}, nil
	}

	ids := make([]string, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.ID
	}
	items, err := s.items.ListBySessions(ctx, ids)
	if err != nil {
		return nil, err
	}

	bySession := make(map[string][]*domain.SessionItem)
	for _, item := range items {
		bySession[item.SessionID] = append(bySession[item.SessionID], item)
	}

	out := make([]*domain.SessionWithItems, len(sessions))
	for i, sess := range sessions {
		out[i] = &domain.SessionWithItems{
			WorkoutSession: *sess,
			Items:          bySession[sess.ID],
		}
	}
	return out, nil
}
