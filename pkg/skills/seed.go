package skills

import "context"

type seedSkill struct {
	name, description, category string
}

var defaultCatalogue = []seedSkill{
	{"JavaScript Programming", "Modern JavaScript development", "Programming"},
	{"Python Programming", "Python for web development and data science", "Programming"},
	{"Graphic Design", "Visual design and branding", "Design"},
	{"Photography", "Digital photography and editing", "Creative"},
	{"Spanish Language", "Conversational and business Spanish", "Languages"},
	{"Guitar Playing", "Acoustic and electric guitar", "Music"},
	{"Cooking", "International cuisine and baking", "Lifestyle"},
	{"Digital Marketing", "Social media and online marketing", "Business"},
	{"Data Science", "Data analysis and machine learning", "Programming"},
	{"UI/UX Design", "User interface and experience design", "Design"},
}

// SeedDefaults ensures the starter catalogue exists. It is safe to run repeatedly.
func (s *Service) SeedDefaults(ctx context.Context) error {
	for _, sk := range defaultCatalogue {
		if _, err := s.EnsureSkill(ctx, sk.name, sk.description, sk.category); err != nil {
			return err
		}
	}
	return nil
}
