// Package portfolio holds the content operations behind the public read
// views, the admin dashboard and the contact form.
package portfolio

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/portfolio/backend/internal/chatcontext"
	"github.com/portfolio/backend/internal/metrics"
	"github.com/portfolio/backend/internal/storage"
	"github.com/portfolio/backend/internal/storage/models"
	"github.com/portfolio/backend/pkg/logger"
)

var (
	ErrUnknownSection = errors.New("unknown portfolio section")
	ErrInvalidRecord  = errors.New("invalid record")
)

type Service struct {
	store storage.Store
	now   func() time.Time

	profiles       *storage.Collection[models.Profile, *models.Profile]
	companies      *storage.Collection[models.Company, *models.Company]
	projects       *storage.Collection[models.Project, *models.Project]
	skills         *storage.Collection[models.Skill, *models.Skill]
	domains        *storage.Collection[models.Domain, *models.Domain]
	technologies   *storage.Collection[models.Technology, *models.Technology]
	achievements   *storage.Collection[models.Achievement, *models.Achievement]
	certifications *storage.Collection[models.Certification, *models.Certification]
	messages       *storage.Collection[models.ContactMessage, *models.ContactMessage]

	admin map[string]adminCollection
}

func NewService(store storage.Store) *Service {
	s := &Service{
		store: store,
		now:   time.Now,

		profiles:       storage.NewCollection[models.Profile](store, models.CollectionProfile),
		companies:      storage.NewCollection[models.Company](store, models.CollectionCompanies),
		projects:       storage.NewCollection[models.Project](store, models.CollectionProjects),
		skills:         storage.NewCollection[models.Skill](store, models.CollectionSkills),
		domains:        storage.NewCollection[models.Domain](store, models.CollectionDomains),
		technologies:   storage.NewCollection[models.Technology](store, models.CollectionTechnologies),
		achievements:   storage.NewCollection[models.Achievement](store, models.CollectionAchievements),
		certifications: storage.NewCollection[models.Certification](store, models.CollectionCertifications),
		messages:       storage.NewCollection[models.ContactMessage](store, models.CollectionMessages),
	}

	s.admin = map[string]adminCollection{
		models.CollectionCompanies:      newTypedAdmin(s.companies, "company"),
		models.CollectionProjects:       newTypedAdmin(s.projects, "project"),
		models.CollectionSkills:         newTypedAdmin(s.skills, "skill"),
		models.CollectionDomains:        newTypedAdmin(s.domains, "domain"),
		models.CollectionTechnologies:   newTypedAdmin(s.technologies, "technology"),
		models.CollectionAchievements:   newTypedAdmin(s.achievements, "achievement"),
		models.CollectionCertifications: newTypedAdmin(s.certifications, "certification"),
	}

	return s
}

// WithClock replaces the time source used for message timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Profile returns the singleton profile; false when none is saved or the
// read failed.
func (s *Service) Profile(ctx context.Context) (models.Profile, bool) {
	p, err := s.profiles.Get(ctx, models.ProfileKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			storeFailed("get", models.CollectionProfile, err)
		}
		return models.Profile{}, false
	}
	return p, true
}

// SaveProfile overwrites the singleton profile.
func (s *Service) SaveProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	saved, err := s.profiles.Set(ctx, models.ProfileKey, p)
	if err != nil {
		storeFailed("set", models.CollectionProfile, err)
		return saved, err
	}
	logger.Info("Profile saved", zap.String("name", saved.Name))
	return saved, nil
}

// Snapshot loads the profile and the six collections the chat context uses,
// concurrently. A failed read is logged and leaves that part empty.
func (s *Service) Snapshot(ctx context.Context) chatcontext.Snapshot {
	var snap chatcontext.Snapshot
	var g errgroup.Group

	g.Go(func() error {
		if p, ok := s.Profile(ctx); ok {
			snap.Profile = &p
		}
		return nil
	})
	g.Go(func() error { snap.Companies = listOrEmpty(ctx, s.companies); return nil })
	g.Go(func() error { snap.Projects = listOrEmpty(ctx, s.projects); return nil })
	g.Go(func() error { snap.Skills = listOrEmpty(ctx, s.skills); return nil })
	g.Go(func() error { snap.Domains = listOrEmpty(ctx, s.domains); return nil })
	g.Go(func() error { snap.Certifications = listOrEmpty(ctx, s.certifications); return nil })
	g.Go(func() error { snap.Achievements = listOrEmpty(ctx, s.achievements); return nil })

	_ = g.Wait()
	snap.Loaded = true
	return snap
}

func listOrEmpty[T any, PT interface {
	*T
	models.Record
}](ctx context.Context, c *storage.Collection[T, PT]) []T {
	items, err := c.List(ctx)
	if err != nil {
		storeFailed("list", c.Name(), err)
		return []T{}
	}
	return items
}

func storeFailed(op, collection string, err error) {
	metrics.StoreErrors.WithLabelValues(op, collection).Inc()
	logger.Error("Store operation failed",
		zap.String("op", op),
		zap.String("collection", collection),
		zap.Error(err),
	)
}
