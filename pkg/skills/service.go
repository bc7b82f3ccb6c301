// Package skills is the skill ledger: the catalogue of skills and the
// per-user offered/wanted links that drive its supply and demand counters.
package skills

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage"
	"github.com/chris/skill-swap/pkg/telemetry"
	"golang.org/x/text/cases"
)

// FlagThreshold is the number of flags that hides a skill from the catalogue.
const FlagThreshold = 3

const defaultCategory = "General"

// Store is the storage the skill ledger needs.
type Store interface {
	storage.SkillStore
	storage.CounterStore
}

// Service implements the skill ledger operations.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new Service. A nil logger uses slog.Default().
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// EnsureSkill returns the skill with the normalized name, creating it with
// zeroed counters if absent.
func (s *Service) EnsureSkill(ctx context.Context, name, description, category string) (*models.Skill, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, "skill name is required")
	}
	if category == "" {
		category = defaultCategory
	}

	now := s.now().UTC()
	skill, created, err := s.store.EnsureSkill(ctx, &models.Skill{
		SkillId:     models.SkillID(name),
		Name:        name,
		Description: description,
		Category:    category,
		IsApproved:  true,
		CreatedBy:   "system",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("skill created", "skill_id", skill.SkillId, "category", skill.Category)
	}
	return skill, nil
}

// AttachInput describes a user-skill link to create.
type AttachInput struct {
	UserID      string
	SkillName   string
	Direction   models.Direction
	Proficiency string
	Description string
}

// AttachUserSkill links the user to the skill in the given direction and bumps
// the skill's counter. Re-attaching an active link fails with a conflict and
// leaves the counter alone.
func (s *Service) AttachUserSkill(ctx context.Context, in AttachInput) (*models.UserSkill, error) {
	ctx, span := telemetry.Start(ctx, "skills.AttachUserSkill")
	defer span.End()

	if in.UserID == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, "user id is required")
	}
	if !in.Direction.Valid() {
		return nil, apperr.New(apperr.ErrInvalidArgument, "invalid direction %q", in.Direction)
	}
	if in.Proficiency == "" {
		in.Proficiency = models.Intermediate
	}
	if !models.ValidProficiency(in.Proficiency) {
		return nil, apperr.New(apperr.ErrInvalidArgument, "invalid proficiency level %q", in.Proficiency)
	}

	skill, err := s.EnsureSkill(ctx, in.SkillName, "", "")
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	link := &models.UserSkill{
		UserSkillId:      models.UserSkillID(in.UserID, skill.SkillId, in.Direction),
		UserId:           in.UserID,
		SkillId:          skill.SkillId,
		SkillName:        skill.Name,
		Type:             in.Direction,
		ProficiencyLevel: in.Proficiency,
		Description:      in.Description,
		IsActive:         true,
		AvailableForSwap: true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.AttachUserSkill(ctx, link); err != nil {
		return nil, err
	}

	s.logger.Info("user skill attached", "user_id", in.UserID, "skill_id", skill.SkillId, "direction", in.Direction)
	return link, nil
}

// DetachUserSkill removes the link and decrements the skill's counter, floored
// at zero. A link that was never attached is reported as not found.
func (s *Service) DetachUserSkill(ctx context.Context, userID, skillName string, d models.Direction) error {
	if !d.Valid() {
		return apperr.New(apperr.ErrInvalidArgument, "invalid direction %q", d)
	}
	skillID := models.SkillID(skillName)
	if skillID == "" {
		return apperr.New(apperr.ErrInvalidArgument, "skill name is required")
	}

	if err := s.store.DetachUserSkill(ctx, userID, skillID, d); err != nil {
		return err
	}

	s.logger.Info("user skill detached", "user_id", userID, "skill_id", skillID, "direction", d)
	return nil
}

// ListUserSkills returns the user's active links, optionally restricted to one
// direction. An empty direction returns both.
func (s *Service) ListUserSkills(ctx context.Context, userID string, d models.Direction) ([]models.UserSkill, error) {
	if d != "" && !d.Valid() {
		return nil, apperr.New(apperr.ErrInvalidArgument, "invalid direction %q", d)
	}

	links, err := s.store.ListUserSkills(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]models.UserSkill, 0, len(links))
	for _, l := range links {
		if l.IsActive && (d == "" || l.Type == d) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Search returns approved, unflagged skills whose name contains query,
// ignoring case. A non-empty category must match exactly.
func (s *Service) Search(ctx context.Context, query, category string) ([]models.Skill, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, "search query is required")
	}
	needle := fold(query)

	all, err := s.ListSkills(ctx)
	if err != nil {
		return nil, err
	}

	out := []models.Skill{}
	for _, sk := range all {
		if category != "" && sk.Category != category {
			continue
		}
		if strings.Contains(fold(sk.Name), needle) {
			out = append(out, sk)
		}
	}
	return out, nil
}

// ListSkills returns the approved, unflagged catalogue.
func (s *Service) ListSkills(ctx context.Context) ([]models.Skill, error) {
	all, err := s.store.ListSkills(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Skill, 0, len(all))
	for _, sk := range all {
		if sk.IsApproved && !sk.IsFlagged {
			out = append(out, sk)
		}
	}
	return out, nil
}

// GetSkill looks a skill up by any spelling of its name.
func (s *Service) GetSkill(ctx context.Context, name string) (*models.Skill, error) {
	id := models.SkillID(name)
	if id == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, "skill name is required")
	}
	return s.store.GetSkill(ctx, id)
}

// FlagSkill records a moderation flag. Once FlagThreshold flags accumulate the
// skill is hidden from the catalogue.
func (s *Service) FlagSkill(ctx context.Context, name string) (*models.Skill, error) {
	id := models.SkillID(name)
	if id == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, "skill name is required")
	}

	count, err := s.store.IncrementCounter(ctx, models.Counter{
		Entity: models.EntitySkill,
		ID:     id,
		Field:  models.FieldFlagCount,
	}, 1)
	if err != nil {
		return nil, err
	}

	if count >= FlagThreshold {
		if err := s.store.FlagSkill(ctx, id); err != nil {
			return nil, err
		}
		s.logger.Warn("skill flagged", "skill_id", id, "flag_count", count)
	}
	return s.store.GetSkill(ctx, id)
}

// fold case-folds for comparison. A Caser is stateful, so one is made per call.
func fold(v string) string {
	return cases.Fold().String(v)
}
