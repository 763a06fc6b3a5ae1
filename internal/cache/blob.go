package cache

import (
	"encoding/json"
	"log/slog"
	"time"

	"tradedesk_go/internal/domain"
)

// BlobCache is the typed layer over the durable blob store. It carries the
// two rules every persistent TTL cache in the platform follows: empty
// payloads never overwrite good data, and corrupt payloads read as misses.
type BlobCache struct {
	store  domain.BlobStore
	logger *slog.Logger
}

// NewBlobCache wraps a blob store.
func NewBlobCache(store domain.BlobStore) *BlobCache {
	return &BlobCache{
		store:  store,
		logger: slog.Default().With("module", "blob_cache"),
	}
}

// IsExpired reports whether a savedAt timestamp is older than ttl.
func IsExpired(savedAt time.Time, ttl time.Duration) bool {
	if savedAt.IsZero() {
		return true
	}
	return time.Since(savedAt) > ttl
}

// ReadList loads a cached list. Missing, unreadable or corrupt entries are
// misses; corrupt entries are additionally discarded so they never
// resurface.
func ReadList[T any](b *BlobCache, key string) ([]T, time.Time, bool) {
	raw, savedAt, ok, err := b.store.ReadBlob(key)
	if err != nil {
		b.logger.Warn("Blob read failed", slog.String("key", key), slog.Any("error", err))
		return nil, time.Time{}, false
	}
	if !ok {
		return nil, time.Time{}, false
	}

	var list []T
	if json.Unmarshal(raw, &list) != nil {
		b.logger.Warn("Discarding corrupt blob", slog.String("key", key))
		_ = b.store.DeleteBlob(key)
		return nil, time.Time{}, false
	}
	if len(list) == 0 {
		return nil, time.Time{}, false
	}
	return list, savedAt, true
}

// WriteList persists a list. An empty list is a deliberate no-op: a failed
// or empty fetch must not clobber the last known good payload.
func WriteList[T any](b *BlobCache, key string, list []T) error {
	if len(list) == 0 {
		return nil
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return b.store.WriteBlob(key, raw)
}

// ReadValue loads a single cached record, with the same corrupt-entry
// handling as ReadList.
func ReadValue[T any](b *BlobCache, key string) (*T, time.Time, bool) {
	raw, savedAt, ok, err := b.store.ReadBlob(key)
	if err != nil {
		b.logger.Warn("Blob read failed", slog.String("key", key), slog.Any("error", err))
		return nil, time.Time{}, false
	}
	if !ok {
		return nil, time.Time{}, false
	}

	v := new(T)
	if json.Unmarshal(raw, v) != nil {
		b.logger.Warn("Discarding corrupt blob", slog.String("key", key))
		_ = b.store.DeleteBlob(key)
		return nil, time.Time{}, false
	}
	return v, savedAt, true
}

// WriteValue persists a single record; nil is a no-op.
func WriteValue[T any](b *BlobCache, key string, v *T) error {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.store.WriteBlob(key, raw)
}
