package memory

import (
	"context"
	"time"

	"github.com/chris/skill-swap/pkg/models"
)

func (s *Store) CreateMessage(ctx context.Context, msg *models.SystemMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *msg
	s.messages[msg.MessageId] = &stored
	return nil
}

func (s *Store) ListActiveMessages(ctx context.Context, now time.Time) ([]models.SystemMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := []models.SystemMessage{}
	for _, m := range s.messages {
		if m.IsActive && m.ShowUntil.After(now) {
			msgs = append(msgs, *m)
		}
	}
	sortByCreated(msgs, func(m *models.SystemMessage) time.Time { return m.CreatedAt })
	return msgs, nil
}
