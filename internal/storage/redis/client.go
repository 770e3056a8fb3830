package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/portfolio/backend/internal/storage"
	"github.com/portfolio/backend/pkg/logger"
)

// Client stores each collection as a hash of id -> envelope, plus a sorted
// set scored by creation time that fixes list order.
type Client struct {
	client *redis.Client
	prefix string
}

var _ storage.Store = (*Client)(nil)

type envelope struct {
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"createdAt"`
	UpdatedAt int64           `json:"updatedAt"`
}

func NewClient(host string, port int, password string, db int, prefix string) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis store initialized",
		zap.String("addr", fmt.Sprintf("%s:%d", host, port)),
		zap.String("prefix", prefix),
	)

	return newWithClient(client, prefix), nil
}

func newWithClient(client *redis.Client, prefix string) *Client {
	if prefix == "" {
		prefix = "portfolio"
	}
	return &Client{client: client, prefix: prefix}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) hashKey(collection string) string {
	return fmt.Sprintf("%s:%s", c.prefix, collection)
}

func (c *Client) orderKey(collection string) string {
	return fmt.Sprintf("%s:%s:order", c.prefix, collection)
}

func (c *Client) List(ctx context.Context, collection string) ([]storage.Document, error) {
	if !storage.ValidCollection(collection) {
		return nil, storage.ErrInvalidCollection
	}

	ids, err := c.client.ZRange(ctx, c.orderKey(collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	if len(ids) == 0 {
		return []storage.Document{}, nil
	}

	values, err := c.client.HMGet(ctx, c.hashKey(collection), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", collection, err)
	}

	docs := make([]storage.Document, 0, len(ids))
	for i, raw := range values {
		s, ok := raw.(string)
		if !ok {
			// order entry without a body: deleted between the two reads
			continue
		}
		doc, err := decodeEnvelope(ids[i], s)
		if err != nil {
			logger.Warn("Skipping corrupt redis document",
				zap.String("collection", collection),
				zap.String("id", ids[i]),
				zap.Error(err),
			)
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func (c *Client) Get(ctx context.Context, collection, id string) (storage.Document, error) {
	if !storage.ValidCollection(collection) {
		return storage.Document{}, storage.ErrInvalidCollection
	}

	s, err := c.client.HGet(ctx, c.hashKey(collection), id).Result()
	if err == redis.Nil {
		return storage.Document{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Document{}, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}

	return decodeEnvelope(id, s)
}

func (c *Client) Add(ctx context.Context, collection string, data json.RawMessage) (string, error) {
	id := uuid.New().String()
	if err := c.write(ctx, collection, id, data, time.Now()); err != nil {
		return "", err
	}

	logger.Debug("Document added", zap.String("collection", collection), zap.String("id", id))
	return id, nil
}

func (c *Client) Set(ctx context.Context, collection, id string, data json.RawMessage) error {
	now := time.Now()
	createdAt := now

	existing, err := c.Get(ctx, collection, id)
	switch {
	case err == nil:
		createdAt = existing.CreatedAt
	case !errors.Is(err, storage.ErrNotFound):
		return err
	}

	return c.write(ctx, collection, id, data, createdAt)
}

func (c *Client) Update(ctx context.Context, collection, id string, data json.RawMessage) error {
	existing, err := c.Get(ctx, collection, id)
	if err != nil {
		return err
	}

	return c.write(ctx, collection, id, data, existing.CreatedAt)
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	if !storage.ValidCollection(collection) {
		return storage.ErrInvalidCollection
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, c.hashKey(collection), id)
		pipe.ZRem(ctx, c.orderKey(collection), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}

	logger.Debug("Document deleted", zap.String("collection", collection), zap.String("id", id))
	return nil
}

func (c *Client) write(ctx context.Context, collection, id string, data json.RawMessage, createdAt time.Time) error {
	if !storage.ValidCollection(collection) {
		return storage.ErrInvalidCollection
	}
	if !json.Valid(data) {
		return fmt.Errorf("document body for %s is not valid JSON", collection)
	}

	body, err := json.Marshal(envelope{
		Data:      data,
		CreatedAt: createdAt.UnixMilli(),
		UpdatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, c.hashKey(collection), id, body)
		pipe.ZAddNX(ctx, c.orderKey(collection), redis.Z{
			Score:  float64(createdAt.UnixNano()),
			Member: id,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", collection, id, err)
	}

	return nil
}

func decodeEnvelope(id, raw string) (storage.Document, error) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return storage.Document{}, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	return storage.Document{
		ID:        id,
		Data:      env.Data,
		CreatedAt: time.UnixMilli(env.CreatedAt),
		UpdatedAt: time.UnixMilli(env.UpdatedAt),
	}, nil
}
