package portfolio

import (
	"context"
	"fmt"

	"github.com/portfolio/backend/internal/storage/models"
)

// Section is one public read view. Empty sections carry the text shown in
// place of the list.
type Section struct {
	Name        string `json:"name"`
	Items       any    `json:"items"`
	Empty       bool   `json:"empty"`
	Placeholder string `json:"placeholder,omitempty"`
}

var placeholders = map[string]string{
	models.CollectionCompanies:      "No experience added yet.",
	models.CollectionProjects:       "No projects added yet.",
	models.CollectionSkills:         "No skills added yet.",
	models.CollectionDomains:        "No domains added yet. Add some in the admin dashboard!",
	models.CollectionTechnologies:   "No technologies added yet.",
	models.CollectionAchievements:   "No achievements yet",
	models.CollectionCertifications: "No certifications yet",
}

// SectionNames lists the public sections in page order.
var SectionNames = []string{
	models.CollectionCompanies,
	models.CollectionProjects,
	models.CollectionSkills,
	models.CollectionDomains,
	models.CollectionTechnologies,
	models.CollectionAchievements,
	models.CollectionCertifications,
}

// Section reads a public view. Store failures degrade to the empty view;
// only an unknown name is an error.
func (s *Service) Section(ctx context.Context, name string) (Section, error) {
	placeholder, ok := placeholders[name]
	if !ok {
		return Section{}, fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}

	var items any
	var n int
	switch name {
	case models.CollectionCompanies:
		list := listOrEmpty(ctx, s.companies)
		items, n = list, len(list)
	case models.CollectionProjects:
		list := listOrEmpty(ctx, s.projects)
		items, n = list, len(list)
	case models.CollectionSkills:
		list := listOrEmpty(ctx, s.skills)
		items, n = list, len(list)
	case models.CollectionDomains:
		list := listOrEmpty(ctx, s.domains)
		items, n = list, len(list)
	case models.CollectionTechnologies:
		list := listOrEmpty(ctx, s.technologies)
		items, n = list, len(list)
	case models.CollectionAchievements:
		list := listOrEmpty(ctx, s.achievements)
		items, n = list, len(list)
	case models.CollectionCertifications:
		list := listOrEmpty(ctx, s.certifications)
		items, n = list, len(list)
	}

	section := Section{Name: name, Items: items, Empty: n == 0}
	if section.Empty {
		section.Placeholder = placeholder
	}
	return section, nil
}
