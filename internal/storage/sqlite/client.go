package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/portfolio/backend/internal/storage"
	"github.com/portfolio/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

var _ storage.Store = (*Client)(nil)

func NewClient(dbPath string) (*Client, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	_, err = db.Exec("PRAGMA busy_timeout = 5000")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		data TEXT NOT NULL,
		seq INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (collection, id)
	);
	CREATE INDEX IF NOT EXISTS idx_documents_collection_seq ON documents(collection, seq);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) List(ctx context.Context, collection string) ([]storage.Document, error) {
	if !storage.ValidCollection(collection) {
		return nil, storage.ErrInvalidCollection
	}

	query := `SELECT id, data, created_at, updated_at FROM documents WHERE collection = ? ORDER BY seq ASC`

	rows, err := c.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []storage.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", collection, err)
	}

	return docs, nil
}

func (c *Client) Get(ctx context.Context, collection, id string) (storage.Document, error) {
	if !storage.ValidCollection(collection) {
		return storage.Document{}, storage.ErrInvalidCollection
	}

	query := `SELECT id, data, created_at, updated_at FROM documents WHERE collection = ? AND id = ?`

	doc, err := scanDocument(c.db.QueryRowContext(ctx, query, collection, id))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Document{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Document{}, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}

	return doc, nil
}

func (c *Client) Add(ctx context.Context, collection string, data json.RawMessage) (string, error) {
	id := uuid.New().String()
	if err := c.insert(ctx, collection, id, data, false); err != nil {
		return "", err
	}

	logger.Debug("Document added", zap.String("collection", collection), zap.String("id", id))
	return id, nil
}

func (c *Client) Set(ctx context.Context, collection, id string, data json.RawMessage) error {
	if err := c.insert(ctx, collection, id, data, true); err != nil {
		return err
	}

	logger.Debug("Document set", zap.String("collection", collection), zap.String("id", id))
	return nil
}

func (c *Client) Update(ctx context.Context, collection, id string, data json.RawMessage) error {
	if !storage.ValidCollection(collection) {
		return storage.ErrInvalidCollection
	}

	query := `UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`

	res, err := c.db.ExecContext(ctx, query, string(data), time.Now().UnixMilli(), collection, id)
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	logger.Debug("Document updated", zap.String("collection", collection), zap.String("id", id))
	return nil
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	if !storage.ValidCollection(collection) {
		return storage.ErrInvalidCollection
	}

	query := `DELETE FROM documents WHERE collection = ? AND id = ?`

	_, err := c.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}

	logger.Debug("Document deleted", zap.String("collection", collection), zap.String("id", id))
	return nil
}

func (c *Client) insert(ctx context.Context, collection, id string, data json.RawMessage, upsert bool) error {
	if !storage.ValidCollection(collection) {
		return storage.ErrInvalidCollection
	}
	if !json.Valid(data) {
		return fmt.Errorf("document body for %s is not valid JSON", collection)
	}

	query := `
		INSERT INTO documents (collection, id, data, seq, created_at, updated_at)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM documents WHERE collection = ?), ?, ?)
	`
	if upsert {
		query += `
		ON CONFLICT(collection, id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
		`
	}

	now := time.Now().UnixMilli()
	_, err := c.db.ExecContext(ctx, query, collection, id, string(data), collection, now, now)
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", collection, id, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (storage.Document, error) {
	var doc storage.Document
	var data string
	var createdAt, updatedAt int64

	if err := row.Scan(&doc.ID, &data, &createdAt, &updatedAt); err != nil {
		return doc, err
	}

	doc.Data = json.RawMessage(data)
	doc.CreatedAt = time.UnixMilli(createdAt)
	doc.UpdatedAt = time.UnixMilli(updatedAt)
	return doc, nil
}
