package portfolio

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/portfolio/backend/internal/resume"
	"github.com/portfolio/backend/internal/storage"
	"github.com/portfolio/backend/internal/storage/models"
	"github.com/portfolio/backend/pkg/logger"
)

// SeedResult counts the documents written per collection.
type SeedResult map[string]int

// SeedFromResume fills empty collections with records derived from the
// resume. Collections that already hold data are left alone unless force is
// set, in which case records are appended.
func (s *Service) SeedFromResume(ctx context.Context, rec resume.Record, force bool) (SeedResult, error) {
	result := SeedResult{}

	if _, ok := s.Profile(ctx); (!ok || force) && rec.PersonalInformation != nil {
		pi := rec.PersonalInformation
		profile := models.Profile{
			Name:     pi.Name,
			Bio:      strings.Join(rec.Summary, " "),
			Email:    pi.Email,
			Phone:    pi.Phone,
			Location: pi.Location,
			GitHub:   pi.GitHub,
			LinkedIn: pi.LinkedIn,
		}
		if len(rec.Experience) > 0 {
			profile.Title = rec.Experience[0].Role
		}
		if _, err := s.SaveProfile(ctx, profile); err != nil {
			return result, fmt.Errorf("failed to seed profile: %w", err)
		}
		result[models.CollectionProfile] = 1
	}

	companies := make([]models.Company, 0, len(rec.Experience))
	for _, e := range rec.Experience {
		start, end := splitPeriod(e.Period)
		companies = append(companies, models.Company{
			Name:         e.Company,
			Position:     e.Role,
			StartDate:    start,
			EndDate:      end,
			Description:  strings.Join(e.Achievements, " "),
			Achievements: e.Achievements,
		})
	}
	if err := seedCollection(ctx, s.companies, companies, force, result); err != nil {
		return result, err
	}

	projects := make([]models.Project, 0, len(rec.Projects))
	for i, p := range rec.Projects {
		projects = append(projects, models.Project{
			Title:        p.Title,
			Description:  p.Description,
			Technologies: p.TechStack,
			Featured:     i == 0 || p.Recognition != "",
			Category:     "Project",
		})
	}
	if err := seedCollection(ctx, s.projects, projects, force, result); err != nil {
		return result, err
	}

	var skills []models.Skill
	for _, group := range rec.TechnicalSkills {
		for _, item := range group.Items {
			skills = append(skills, models.Skill{Name: item, Category: group.Category, Level: models.DefaultSkillLevel})
		}
	}
	if err := seedCollection(ctx, s.skills, skills, force, result); err != nil {
		return result, err
	}

	certs := make([]models.Certification, 0, len(rec.Certifications))
	for _, c := range rec.Certifications {
		certs = append(certs, models.Certification{Name: c, Status: "active"})
	}
	if err := seedCollection(ctx, s.certifications, certs, force, result); err != nil {
		return result, err
	}

	achievements := make([]models.Achievement, 0, len(rec.Achievements))
	for _, a := range rec.Achievements {
		achievements = append(achievements, models.Achievement{Title: a})
	}
	if err := seedCollection(ctx, s.achievements, achievements, force, result); err != nil {
		return result, err
	}

	logger.Info("Seeded portfolio from resume", zap.Any("written", result))
	return result, nil
}

func seedCollection[T any, PT interface {
	*T
	models.Record
}](ctx context.Context, c *storage.Collection[T, PT], items []T, force bool, result SeedResult) error {
	if len(items) == 0 {
		return nil
	}

	if !force {
		existing, err := c.List(ctx)
		if err != nil {
			storeFailed("list", c.Name(), err)
			return fmt.Errorf("failed to inspect %s: %w", c.Name(), err)
		}
		if len(existing) > 0 {
			return nil
		}
	}

	for _, item := range items {
		if _, err := c.Add(ctx, item); err != nil {
			storeFailed("add", c.Name(), err)
			return fmt.Errorf("failed to seed %s: %w", c.Name(), err)
		}
		result[c.Name()]++
	}
	return nil
}

// splitPeriod turns "Jan 2024 – Jan 2025" into its two ends. "Present" or a
// missing end gives an empty end date.
func splitPeriod(period string) (string, string) {
	for _, sep := range []string{"–", "—", " - "} {
		if start, end, ok := strings.Cut(period, sep); ok {
			end = strings.TrimSpace(end)
			if strings.EqualFold(end, "present") {
				end = ""
			}
			return strings.TrimSpace(start), end
		}
	}
	return strings.TrimSpace(period), ""
}
