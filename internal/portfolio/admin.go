package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/portfolio/backend/internal/storage"
	"github.com/portfolio/backend/internal/storage/models"
	"github.com/portfolio/backend/pkg/logger"
)

// adminCollection is the untyped CRUD surface the dashboard works against.
type adminCollection interface {
	entity() string
	list(ctx context.Context) (any, error)
	create(ctx context.Context, body []byte) (any, error)
	update(ctx context.Context, id string, body []byte) (any, error)
	remove(ctx context.Context, id string) error
}

type typedAdmin[T any, PT interface {
	*T
	models.Record
}] struct {
	c    *storage.Collection[T, PT]
	name string
}

func newTypedAdmin[T any, PT interface {
	*T
	models.Record
}](c *storage.Collection[T, PT], name string) *typedAdmin[T, PT] {
	return &typedAdmin[T, PT]{c: c, name: name}
}

func (a *typedAdmin[T, PT]) entity() string { return a.name }

func (a *typedAdmin[T, PT]) list(ctx context.Context) (any, error) {
	return a.c.List(ctx)
}

func (a *typedAdmin[T, PT]) create(ctx context.Context, body []byte) (any, error) {
	item, err := decodeRecord[T](body)
	if err != nil {
		return nil, err
	}
	PT(&item).SetID("")
	return a.c.Add(ctx, item)
}

func (a *typedAdmin[T, PT]) update(ctx context.Context, id string, body []byte) (any, error) {
	item, err := decodeRecord[T](body)
	if err != nil {
		return nil, err
	}
	return a.c.Update(ctx, id, item)
}

func (a *typedAdmin[T, PT]) remove(ctx context.Context, id string) error {
	return a.c.Remove(ctx, id)
}

func decodeRecord[T any](body []byte) (T, error) {
	var item T
	if err := json.Unmarshal(body, &item); err != nil {
		return item, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return item, nil
}

// AdminCollections lists the collections the dashboard can edit. Contact
// messages are write-only from the site and never listed here.
func (s *Service) AdminCollections() []string {
	return append([]string{}, SectionNames...)
}

// EntityName is the singular noun used in dashboard messages.
func (s *Service) EntityName(collection string) string {
	if collection == models.CollectionProfile {
		return "profile"
	}
	if a, ok := s.admin[collection]; ok {
		return a.entity()
	}
	return "record"
}

func (s *Service) adminFor(collection string) (adminCollection, error) {
	a, ok := s.admin[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, collection)
	}
	return a, nil
}

func (s *Service) ListRecords(ctx context.Context, collection string) (any, error) {
	a, err := s.adminFor(collection)
	if err != nil {
		return nil, err
	}
	items, err := a.list(ctx)
	if err != nil {
		storeFailed("list", collection, err)
		return nil, err
	}
	return items, nil
}

func (s *Service) CreateRecord(ctx context.Context, collection string, body []byte) (any, error) {
	a, err := s.adminFor(collection)
	if err != nil {
		return nil, err
	}
	item, err := a.create(ctx, body)
	if err != nil {
		if !isInvalid(err) {
			storeFailed("add", collection, err)
		}
		return nil, err
	}
	logger.Info("Record created", zap.String("collection", collection))
	return item, nil
}

func (s *Service) UpdateRecord(ctx context.Context, collection, id string, body []byte) (any, error) {
	a, err := s.adminFor(collection)
	if err != nil {
		return nil, err
	}
	item, err := a.update(ctx, id, body)
	if err != nil {
		if !isInvalid(err) {
			storeFailed("update", collection, err)
		}
		return nil, err
	}
	logger.Info("Record updated", zap.String("collection", collection), zap.String("id", id))
	return item, nil
}

func (s *Service) DeleteRecord(ctx context.Context, collection, id string) error {
	a, err := s.adminFor(collection)
	if err != nil {
		return err
	}
	if err := a.remove(ctx, id); err != nil {
		storeFailed("delete", collection, err)
		return err
	}
	logger.Info("Record deleted", zap.String("collection", collection), zap.String("id", id))
	return nil
}

func isInvalid(err error) bool {
	return errors.Is(err, ErrInvalidRecord) || errors.Is(err, storage.ErrNotFound)
}

// SplitNames turns "a, b,,c " into [a b c].
func SplitNames(names string) []string {
	var out []string
	for _, part := range strings.Split(names, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// BulkAddSkills creates one skill per comma-separated name, all sharing
// category and level. On a store failure the skills created so far are
// returned with the error.
func (s *Service) BulkAddSkills(ctx context.Context, names, category string, level int) ([]models.Skill, error) {
	created := []models.Skill{}
	for _, name := range SplitNames(names) {
		skill, err := s.skills.Add(ctx, models.Skill{Name: name, Category: category, Level: level})
		if err != nil {
			storeFailed("add", models.CollectionSkills, err)
			return created, err
		}
		created = append(created, skill)
	}
	logger.Info("Skills added in bulk", zap.Int("count", len(created)), zap.String("category", category))
	return created, nil
}

func (s *Service) BulkAddTechnologies(ctx context.Context, names, category, description string) ([]models.Technology, error) {
	created := []models.Technology{}
	for _, name := range SplitNames(names) {
		tech, err := s.technologies.Add(ctx, models.Technology{Name: name, Category: category, Description: description})
		if err != nil {
			storeFailed("add", models.CollectionTechnologies, err)
			return created, err
		}
		created = append(created, tech)
	}
	logger.Info("Technologies added in bulk", zap.Int("count", len(created)), zap.String("category", category))
	return created, nil
}
