// Package storage defines the document store used for all portfolio content
// and a typed collection wrapper over it.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrInvalidCollection = errors.New("invalid collection name")
)

// Document is one stored record. Data holds the JSON body without the id.
type Document struct {
	ID        string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is a flat document database: named collections of independent JSON
// documents keyed by id. No cross-collection constraints are enforced.
type Store interface {
	List(ctx context.Context, collection string) ([]Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	Add(ctx context.Context, collection string, data json.RawMessage) (string, error)
	Set(ctx context.Context, collection, id string, data json.RawMessage) error
	Update(ctx context.Context, collection, id string, data json.RawMessage) error
	Delete(ctx context.Context, collection, id string) error
	Close() error
}

// ValidCollection reports whether name is usable as a collection key.
func ValidCollection(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '_' && r != '-' {
			return false
		}
	}
	return true
}
