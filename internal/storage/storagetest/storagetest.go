// Package storagetest provides stores for tests in other packages.
package storagetest

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portfolio/backend/internal/storage"
	"github.com/portfolio/backend/internal/storage/sqlite"
)

var ErrInjected = errors.New("injected store failure")

// NewSQLite opens a schema-initialised store in a temp dir, closed on cleanup.
func NewSQLite(t *testing.T) *sqlite.Client {
	t.Helper()

	client, err := sqlite.NewClient(filepath.Join(t.TempDir(), "portfolio.db"))
	require.NoError(t, err)
	require.NoError(t, client.InitSchema())
	t.Cleanup(func() { client.Close() })

	return client
}

// Failing wraps a store and fails chosen operations with ErrInjected.
// Operations are "list", "get", "add", "set", "update" and "delete",
// optionally scoped as "list:skills".
type Failing struct {
	storage.Store

	mu    sync.Mutex
	fails map[string]bool
}

func NewFailing(inner storage.Store) *Failing {
	return &Failing{Store: inner, fails: make(map[string]bool)}
}

func (f *Failing) Fail(ops ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, op := range ops {
		f.fails[op] = true
	}
}

func (f *Failing) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails = make(map[string]bool)
}

func (f *Failing) check(op, collection string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails[op] || f.fails[op+":"+collection] {
		return ErrInjected
	}
	return nil
}

func (f *Failing) List(ctx context.Context, collection string) ([]storage.Document, error) {
	if err := f.check("list", collection); err != nil {
		return nil, err
	}
	return f.Store.List(ctx, collection)
}

func (f *Failing) Get(ctx context.Context, collection, id string) (storage.Document, error) {
	if err := f.check("get", collection); err != nil {
		return storage.Document{}, err
	}
	return f.Store.Get(ctx, collection, id)
}

func (f *Failing) Add(ctx context.Context, collection string, data json.RawMessage) (string, error) {
	if err := f.check("add", collection); err != nil {
		return "", err
	}
	return f.Store.Add(ctx, collection, data)
}

func (f *Failing) Set(ctx context.Context, collection, id string, data json.RawMessage) error {
	if err := f.check("set", collection); err != nil {
		return err
	}
	return f.Store.Set(ctx, collection, id, data)
}

func (f *Failing) Update(ctx context.Context, collection, id string, data json.RawMessage) error {
	if err := f.check("update", collection); err != nil {
		return err
	}
	return f.Store.Update(ctx, collection, id, data)
}

func (f *Failing) Delete(ctx context.Context, collection, id string) error {
	if err := f.check("delete", collection); err != nil {
		return err
	}
	return f.Store.Delete(ctx, collection, id)
}
