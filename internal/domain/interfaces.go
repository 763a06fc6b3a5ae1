package domain

import (
	"context"
	"time"
)

// NotifyLevel classifies user-facing notifications.
type NotifyLevel int

const (
	NotifyInfo NotifyLevel = iota
	NotifySuccess
	NotifyError
)

// Notifier delivers transient user-facing messages (the toast surface).
// Implementations must not block.
type Notifier interface {
	Notify(level NotifyLevel, message string)
}

// BlobStore defines durable key/value persistence for TTL-cached payloads.
// A missing key is reported via the ok flag, not an error.
type BlobStore interface {
	ReadBlob(key string) (value []byte, savedAt time.Time, ok bool, err error)
	WriteBlob(key string, value []byte) error
	DeleteBlob(key string) error
}

// StreamWorker defines the interface for live price stream connectors
type StreamWorker interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
}
