// Package memory is an in-process Storage backend. Every operation runs under
// a single lock, which makes each multi-record write atomic.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage"
)

// Store keeps every collection in maps keyed by record ID.
type Store struct {
	mu sync.Mutex

	users        map[string]*models.User
	skills       map[string]*models.Skill
	userSkills   map[string]*models.UserSkill
	requests     map[string]*models.SwapRequest
	transactions map[string]*models.Transaction
	reviews      map[string]*models.Review
	messages     map[string]*models.SystemMessage
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:        map[string]*models.User{},
		skills:       map[string]*models.Skill{},
		userSkills:   map[string]*models.UserSkill{},
		requests:     map[string]*models.SwapRequest{},
		transactions: map[string]*models.Transaction{},
		reviews:      map[string]*models.Review{},
		messages:     map[string]*models.SystemMessage{},
	}
}

var _ storage.Storage = (*Store)(nil)

// counter returns a pointer to the addressed field. Callers hold s.mu.
func (s *Store) counter(c models.Counter) (*int64, error) {
	switch c.Entity {
	case models.EntityUser:
		u, ok := s.users[c.ID]
		if !ok {
			return nil, apperr.New(apperr.ErrNotFound, "user %s not found", c.ID)
		}
		switch c.Field {
		case models.FieldPendingRequests:
			return &u.PendingRequests, nil
		case models.FieldTotalSwaps:
			return &u.TotalSwaps, nil
		case models.FieldSuccessfulSwaps:
			return &u.SuccessfulSwaps, nil
		}
	case models.EntitySkill:
		sk, ok := s.skills[c.ID]
		if !ok {
			return nil, apperr.New(apperr.ErrNotFound, "skill %s not found", c.ID)
		}
		switch c.Field {
		case models.FieldUsersOffering:
			return &sk.UsersOffering, nil
		case models.FieldUsersWanting:
			return &sk.UsersWanting, nil
		case models.FieldTotalSwaps:
			return &sk.TotalSwaps, nil
		case models.FieldFlagCount:
			return &sk.FlagCount, nil
		}
	case models.EntityReview:
		r, ok := s.reviews[c.ID]
		if !ok {
			return nil, apperr.New(apperr.ErrNotFound, "review %s not found", c.ID)
		}
		if c.Field == models.FieldHelpfulVotes {
			return &r.HelpfulVotes, nil
		}
	default:
		return nil, apperr.New(apperr.ErrInvalidArgument, "unknown counter entity %q", c.Entity)
	}
	return nil, apperr.New(apperr.ErrInvalidArgument, "unknown counter %s.%s", c.Entity, c.Field)
}

func addFloored(v *int64, delta int64) int64 {
	*v += delta
	if *v < 0 {
		*v = 0
	}
	return *v
}

// IncrementCounter adds delta to a counter field, flooring at zero.
func (s *Store) IncrementCounter(ctx context.Context, c models.Counter, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.counter(c)
	if err != nil {
		return 0, err
	}
	return addFloored(v, delta), nil
}

func sortByCreated[T any](items []T, created func(*T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(&items[i]).Before(created(&items[j]))
	})
}
