package memory

import (
	"context"
	"time"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
)

func (s *Store) EnsureSkill(ctx context.Context, skill *models.Skill) (*models.Skill, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.skills[skill.SkillId]; ok {
		out := *existing
		return &out, false, nil
	}
	stored := *skill
	s.skills[skill.SkillId] = &stored
	out := stored
	return &out, true, nil
}

func (s *Store) GetSkill(ctx context.Context, skillID string) (*models.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sk, ok := s.skills[skillID]
	if !ok {
		return nil, apperr.New(apperr.ErrNotFound, "skill %s not found", skillID)
	}
	out := *sk
	return &out, nil
}

func (s *Store) ListSkills(ctx context.Context) ([]models.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	skills := make([]models.Skill, 0, len(s.skills))
	for _, sk := range s.skills {
		skills = append(skills, *sk)
	}
	sortByCreated(skills, func(sk *models.Skill) time.Time { return sk.CreatedAt })
	return skills, nil
}

func (s *Store) FlagSkill(ctx context.Context, skillID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sk, ok := s.skills[skillID]
	if !ok {
		return apperr.New(apperr.ErrNotFound, "skill %s not found", skillID)
	}
	sk.IsFlagged = true
	sk.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) AttachUserSkill(ctx context.Context, link *models.UserSkill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.userSkills[link.UserSkillId]; ok && existing.IsActive {
		return apperr.New(apperr.ErrConflict, "user %s already has %s skill %s", link.UserId, link.Type, link.SkillId)
	}
	v, err := s.counter(models.Counter{Entity: models.EntitySkill, ID: link.SkillId, Field: link.Type.CounterField()})
	if err != nil {
		return err
	}
	addFloored(v, 1)

	stored := *link
	s.userSkills[link.UserSkillId] = &stored
	return nil
}

func (s *Store) DetachUserSkill(ctx context.Context, userID, skillID string, d models.Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := models.UserSkillID(userID, skillID, d)
	existing, ok := s.userSkills[id]
	if !ok || !existing.IsActive {
		return apperr.New(apperr.ErrNotFound, "user %s has no %s skill %s", userID, d, skillID)
	}
	delete(s.userSkills, id)

	if v, err := s.counter(models.Counter{Entity: models.EntitySkill, ID: skillID, Field: d.CounterField()}); err == nil {
		addFloored(v, -1)
	}
	return nil
}

func (s *Store) ListUserSkills(ctx context.Context, userID string) ([]models.UserSkill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	links := []models.UserSkill{}
	for _, l := range s.userSkills {
		if l.UserId == userID {
			links = append(links, *l)
		}
	}
	sortByCreated(links, func(l *models.UserSkill) time.Time { return l.CreatedAt })
	return links, nil
}
