package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CacheEntry is one durable TTL-cached payload. Value holds the raw JSON
// blob; interpretation and expiry checks live in the cache layer.
type CacheEntry struct {
	Key     string    `gorm:"primaryKey;size:256" json:"key"`
	Value   []byte    `gorm:"type:blob" json:"value"`
	SavedAt time.Time `json:"saved_at"`
}

// Storage is the SQLite-backed persistent blob store. It survives process
// restarts the way browser local storage survives page reloads.
type Storage struct {
	db *gorm.DB
}

// NewStorage creates a new SQLite storage instance at the default OS path
func NewStorage() (*Storage, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DB path: %w", err)
	}
	return NewStorageAt(dbPath)
}

// NewStorageAt opens (or creates) the store at an explicit path.
func NewStorageAt(dbPath string) (*Storage, error) {
	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&CacheEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "TradeDesk", "data", "tradedesk.db"), nil
}

// ReadBlob retrieves a cached payload by key. A missing key is reported
// via ok=false, not an error.
func (s *Storage) ReadBlob(key string) ([]byte, time.Time, bool, error) {
	var entry CacheEntry
	err := s.db.First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}
	return entry.Value, entry.SavedAt, true, nil
}

// WriteBlob creates or overwrites a cached payload.
func (s *Storage) WriteBlob(key string, value []byte) error {
	entry := CacheEntry{
		Key:     key,
		Value:   value,
		SavedAt: time.Now(),
	}
	return s.db.Save(&entry).Error
}

// DeleteBlob removes a cached payload. Deleting a missing key is a no-op.
func (s *Storage) DeleteBlob(key string) error {
	return s.db.Where("key = ?", key).Delete(&CacheEntry{}).Error
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// Keys returns all stored cache keys (for diagnostics).
func (s *Storage) Keys() ([]string, error) {
	var keys []string
	err := s.db.Model(&CacheEntry{}).Pluck("key", &keys).Error
	return keys, err
}
