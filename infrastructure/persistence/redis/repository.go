// Package redis stores documents as JSON strings with a per-owner id set and
// keeps each owner's keyword index in a hash.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"mindgraph/domain/core/entities"
	"mindgraph/domain/core/valueobjects"
	pkgerrors "mindgraph/pkg/errors"
)

const defaultPrefix = "mindgraph:"

// Repository implements ports.DocumentRepository and ports.KeywordRepository on Redis
type Repository struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewClient connects to the Redis server at redisURL and checks it answers
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// NewRepository creates a repository on an existing client
func NewRepository(client *redis.Client, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{client: client, prefix: defaultPrefix, logger: logger}
}

func (r *Repository) docKey(id string) string {
	return r.prefix + "doc:" + id
}

func (r *Repository) ownerKey(owner string) string {
	return r.prefix + "owner:" + owner + ":docs"
}

func (r *Repository) keywordKey(owner string) string {
	return r.prefix + "owner:" + owner + ":keywords"
}

// Put stores doc and indexes it under its owner
func (r *Repository) Put(ctx context.Context, doc *entities.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.NewStorageError("put document", err)
	}

	id := doc.ID.String()
	previous, err := r.fetch(ctx, id)
	if err != nil && !pkgerrors.IsNotFound(err) {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previous != nil && previous.Owner() != doc.Owner() {
			pipe.SRem(ctx, r.ownerKey(previous.Owner()), id)
		}
		pipe.Set(ctx, r.docKey(id), data, 0)
		pipe.SAdd(ctx, r.ownerKey(doc.Owner()), id)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to save document to Redis", zap.String("documentID", id), zap.Error(err))
		return pkgerrors.NewStorageError("put document", err)
	}
	return nil
}

// GetByID returns the document with the given id
func (r *Repository) GetByID(ctx context.Context, id valueobjects.DocumentID) (*entities.Document, error) {
	return r.fetch(ctx, id.String())
}

func (r *Repository) fetch(ctx context.Context, id string) (*entities.Document, error) {
	data, err := r.client.Get(ctx, r.docKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, pkgerrors.NewNotFoundError("document")
	}
	if err != nil {
		return nil, pkgerrors.NewStorageError("get document", err)
	}

	var doc entities.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, pkgerrors.NewStorageError("decode document", err)
	}
	return &doc, nil
}

// ListByOwner returns the owner's documents. Ids whose document vanished are skipped.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Document, error) {
	ids, err := r.client.SMembers(ctx, r.ownerKey(ownerID)).Result()
	if err != nil {
		return nil, pkgerrors.NewStorageError("list documents", err)
	}
	if len(ids) == 0 {
		return []*entities.Document{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.docKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, pkgerrors.NewStorageError("list documents", err)
	}

	docs := make([]*entities.Document, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			r.logger.Warn("Owner index references a missing document",
				zap.String("ownerID", ownerID),
				zap.String("documentID", ids[i]),
			)
			continue
		}
		var doc entities.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, pkgerrors.NewStorageError("decode document", err)
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

// Delete removes a document and its owner index entry
func (r *Repository) Delete(ctx context.Context, id valueobjects.DocumentID) error {
	doc, err := r.fetch(ctx, id.String())
	if pkgerrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.docKey(id.String()))
		pipe.SRem(ctx, r.ownerKey(doc.Owner()), id.String())
		return nil
	})
	if err != nil {
		return pkgerrors.NewStorageError("delete document", err)
	}
	return nil
}

// ListKeywords returns the owner's keyword entries
func (r *Repository) ListKeywords(ctx context.Context, ownerID string) ([]*entities.KeywordEntry, error) {
	fields, err := r.client.HGetAll(ctx, r.keywordKey(ownerID)).Result()
	if err != nil {
		return nil, pkgerrors.NewStorageError("list keywords", err)
	}

	entries := make([]*entities.KeywordEntry, 0, len(fields))
	for _, raw := range fields {
		var entry entities.KeywordEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, pkgerrors.NewStorageError("decode keyword", err)
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

// SaveKeywords applies upserts and removals to the owner's hash in one transaction
func (r *Repository) SaveKeywords(ctx context.Context, ownerID string, upserts []*entities.KeywordEntry, removals []string) error {
	values := make([]interface{}, 0, len(upserts)*2)
	for _, e := range upserts {
		data, err := json.Marshal(e)
		if err != nil {
			return pkgerrors.NewStorageError("save keywords", err)
		}
		values = append(values, e.Keyword, data)
	}

	key := r.keywordKey(ownerID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(removals) > 0 {
			pipe.HDel(ctx, key, removals...)
		}
		if len(values) > 0 {
			pipe.HSet(ctx, key, values...)
		}
		return nil
	})
	if err != nil {
		return pkgerrors.NewStorageError("save keywords", err)
	}
	return nil
}

// Ping checks the server answers
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return pkgerrors.NewUnavailableError("redis").WithCause(err)
	}
	return nil
}

// Close releases the client
func (r *Repository) Close() error {
	return r.client.Close()
}
