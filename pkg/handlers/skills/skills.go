package skills

import (
	"context"
	"net/http"

	"github.com/chris/skill-swap/pkg/mapping"
	"github.com/chris/skill-swap/pkg/models"
	skillsvc "github.com/chris/skill-swap/pkg/skills"
	"github.com/go-chi/chi/v5"
)

// SkillService is the part of the skill ledger the handlers use.
type SkillService interface {
	AttachUserSkill(ctx context.Context, in skillsvc.AttachInput) (*models.UserSkill, error)
	DetachUserSkill(ctx context.Context, userID, skillName string, d models.Direction) error
	ListUserSkills(ctx context.Context, userID string, d models.Direction) ([]models.UserSkill, error)
	Search(ctx context.Context, query, category string) ([]models.Skill, error)
	ListSkills(ctx context.Context) ([]models.Skill, error)
	FlagSkill(ctx context.Context, name string) (*models.Skill, error)
	SeedDefaults(ctx context.Context) error
}

// SkillsHandler serves the catalogue and per-user skill routes.
type SkillsHandler struct {
	Skills SkillService
}

// NewSkillsHandler creates a new SkillsHandler.
func NewSkillsHandler(skills SkillService) *SkillsHandler {
	return &SkillsHandler{Skills: skills}
}

// Routes mounts the handlers on an authenticated router.
func (h *SkillsHandler) Routes(r chi.Router) {
	r.Get("/api/me/skills", h.ListMySkills)
	r.Post("/api/me/skills/add", h.AddMySkill)
	r.Post("/api/me/skills/remove", h.RemoveMySkill)
	r.Get("/api/users/{id}/skills", func(w http.ResponseWriter, r *http.Request) {
		h.ListUserSkills(w, r, chi.URLParam(r, "id"))
	})
	r.Get("/api/skills", h.ListSkills)
	r.Get("/api/skills/search", h.SearchSkills)
	r.Post("/api/skills/{name}/flag", func(w http.ResponseWriter, r *http.Request) {
		h.FlagSkill(w, r, chi.URLParam(r, "name"))
	})
}

// AdminRoutes mounts the catalogue maintenance handlers. The caller guards them.
func (h *SkillsHandler) AdminRoutes(r chi.Router) {
	r.Post("/api/setup/sample-data", h.SeedSampleData)
}

// UserSkillRequest is the body of AddMySkill and RemoveMySkill.
type UserSkillRequest struct {
	SkillName        string           `json:"skill_name"`
	Type             models.Direction `json:"type"`
	ProficiencyLevel string           `json:"proficiency_level,omitempty"`
	Description      string           `json:"description,omitempty"`
}

func (h *SkillsHandler) ListMySkills(w http.ResponseWriter, r *http.Request) {
	userID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	h.ListUserSkills(w, r, userID)
}

// ListUserSkills returns a user's active skills, filtered by the optional
// type parameter.
func (h *SkillsHandler) ListUserSkills(w http.ResponseWriter, r *http.Request, userID string) {
	var direction string
	if err := mapping.BindQuery(r, "type", &direction); err != nil {
		mapping.WriteError(w, err)
		return
	}

	links, err := h.Skills.ListUserSkills(r.Context(), userID, models.Direction(direction))
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, links)
}

func (h *SkillsHandler) AddMySkill(w http.ResponseWriter, r *http.Request) {
	userID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	var body UserSkillRequest
	if err := mapping.DecodeJSON(r, &body); err != nil {
		mapping.WriteError(w, err)
		return
	}

	link, err := h.Skills.AttachUserSkill(r.Context(), skillsvc.AttachInput{
		UserID:      userID,
		SkillName:   body.SkillName,
		Direction:   body.Type,
		Proficiency: body.ProficiencyLevel,
		Description: body.Description,
	})
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusCreated, link)
}

func (h *SkillsHandler) RemoveMySkill(w http.ResponseWriter, r *http.Request) {
	userID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	var body UserSkillRequest
	if err := mapping.DecodeJSON(r, &body); err != nil {
		mapping.WriteError(w, err)
		return
	}

	if err := h.Skills.DetachUserSkill(r.Context(), userID, body.SkillName, body.Type); err != nil {
		mapping.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SkillsHandler) ListSkills(w http.ResponseWriter, r *http.Request) {
	all, err := h.Skills.ListSkills(r.Context())
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, all)
}

// SearchSkills matches the q parameter against skill names, optionally
// within one category.
func (h *SkillsHandler) SearchSkills(w http.ResponseWriter, r *http.Request) {
	var query, category string
	if err := mapping.BindQuery(r, "q", &query); err != nil {
		mapping.WriteError(w, err)
		return
	}
	if err := mapping.BindQuery(r, "category", &category); err != nil {
		mapping.WriteError(w, err)
		return
	}

	found, err := h.Skills.Search(r.Context(), query, category)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, found)
}

func (h *SkillsHandler) FlagSkill(w http.ResponseWriter, r *http.Request, name string) {
	skill, err := h.Skills.FlagSkill(r.Context(), name)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, skill)
}

// SeedSampleData creates the starter catalogue.
func (h *SkillsHandler) SeedSampleData(w http.ResponseWriter, r *http.Request) {
	if err := h.Skills.SeedDefaults(r.Context()); err != nil {
		mapping.WriteError(w, err)
		return
	}
	all, err := h.Skills.ListSkills(r.Context())
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, all)
}
