package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/portfolio/backend/internal/storage/models"
	"github.com/portfolio/backend/pkg/logger"
)

type normalizer interface {
	Normalize()
}

// Collection is a typed view over one named collection of a Store.
// PT is the pointer type of T, which carries the document id.
type Collection[T any, PT interface {
	*T
	models.Record
}] struct {
	store Store
	name  string
}

func NewCollection[T any, PT interface {
	*T
	models.Record
}](store Store, name string) *Collection[T, PT] {
	return &Collection[T, PT]{store: store, name: name}
}

func (c *Collection[T, PT]) Name() string {
	return c.name
}

// List decodes every document. Documents that fail to decode are skipped.
func (c *Collection[T, PT]) List(ctx context.Context) ([]T, error) {
	docs, err := c.store.List(ctx, c.name)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := c.decode(doc)
		if err != nil {
			logger.Warn("Skipping undecodable document",
				zap.String("collection", c.name),
				zap.String("id", doc.ID),
				zap.Error(err),
			)
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

func (c *Collection[T, PT]) Get(ctx context.Context, id string) (T, error) {
	doc, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.decode(doc)
}

// Add stores item under a generated id and returns it with the id set.
func (c *Collection[T, PT]) Add(ctx context.Context, item T) (T, error) {
	data, err := c.encode(&item)
	if err != nil {
		return item, err
	}

	id, err := c.store.Add(ctx, c.name, data)
	if err != nil {
		return item, err
	}

	PT(&item).SetID(id)
	return item, nil
}

// Set upserts item at a caller-chosen id.
func (c *Collection[T, PT]) Set(ctx context.Context, id string, item T) (T, error) {
	data, err := c.encode(&item)
	if err != nil {
		return item, err
	}

	if err := c.store.Set(ctx, c.name, id, data); err != nil {
		return item, err
	}

	PT(&item).SetID(id)
	return item, nil
}

func (c *Collection[T, PT]) Update(ctx context.Context, id string, item T) (T, error) {
	data, err := c.encode(&item)
	if err != nil {
		return item, err
	}

	if err := c.store.Update(ctx, c.name, id, data); err != nil {
		return item, err
	}

	PT(&item).SetID(id)
	return item, nil
}

func (c *Collection[T, PT]) Remove(ctx context.Context, id string) error {
	return c.store.Delete(ctx, c.name, id)
}

func (c *Collection[T, PT]) decode(doc Document) (T, error) {
	var item T
	if err := json.Unmarshal(doc.Data, &item); err != nil {
		return item, fmt.Errorf("failed to decode %s/%s: %w", c.name, doc.ID, err)
	}

	p := PT(&item)
	p.SetID(doc.ID)
	if n, ok := any(p).(normalizer); ok {
		n.Normalize()
	}
	return item, nil
}

// encode stores the body without its id; the key lives beside the document.
func (c *Collection[T, PT]) encode(item *T) (json.RawMessage, error) {
	p := PT(item)
	if n, ok := any(p).(normalizer); ok {
		n.Normalize()
	}

	id := p.GetID()
	p.SetID("")
	data, err := json.Marshal(item)
	p.SetID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s document: %w", c.name, err)
	}
	return data, nil
}
