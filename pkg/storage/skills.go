package storage

import (
	"context"

	"github.com/chris/skill-swap/pkg/models"
)

// SkillStore defines the interface for the skill catalogue and user-skill links.
type SkillStore interface {
	// EnsureSkill inserts the skill if no skill with its ID exists. It returns the
	// stored skill and whether it was created by this call.
	EnsureSkill(ctx context.Context, skill *models.Skill) (*models.Skill, bool, error)

	// GetSkill retrieves a skill by its normalized ID.
	GetSkill(ctx context.Context, skillID string) (*models.Skill, error)

	// ListSkills returns every skill in the catalogue.
	ListSkills(ctx context.Context) ([]models.Skill, error)

	// FlagSkill marks a skill as flagged for moderation.
	FlagSkill(ctx context.Context, skillID string) error

	// AttachUserSkill stores the link and bumps the skill's direction counter in one
	// atomic step. It fails with a conflict if an active link already exists.
	AttachUserSkill(ctx context.Context, link *models.UserSkill) error

	// DetachUserSkill removes an active link and decrements the skill's direction
	// counter (floored at zero) in one atomic step.
	DetachUserSkill(ctx context.Context, userID, skillID string, d models.Direction) error

	// ListUserSkills returns every link owned by the user.
	ListUserSkills(ctx context.Context, userID string) ([]models.UserSkill, error)
}
