package storage

import (
	"os"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *Storage {
	dbName := "test.db"
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := db.AutoMigrate(&CacheEntry{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	t.Cleanup(func() {
		os.Remove(dbName)
	})

	return &Storage{db: db}
}

func TestWriteAndReadBlob(t *testing.T) {
	s := setupTestDB(t)

	if err := s.WriteBlob("allCoins", []byte(`[{"id":"bitcoin"}]`)); err != nil {
		t.Fatalf("WriteBlob failed: %v", err)
	}

	value, savedAt, ok, err := s.ReadBlob("allCoins")
	if err != nil {
		t.Fatalf("ReadBlob failed: %v", err)
	}
	if !ok {
		t.Fatal("expected entry to exist")
	}
	if string(value) != `[{"id":"bitcoin"}]` {
		t.Errorf("value = %s", value)
	}
	if savedAt.IsZero() {
		t.Error("savedAt should be set")
	}
}

func TestReadBlob_Missing(t *testing.T) {
	s := setupTestDB(t)

	_, _, ok, err := s.ReadBlob("nope")
	if err != nil {
		t.Fatalf("ReadBlob failed: %v", err)
	}
	if ok {
		t.Error("expected miss for unknown key")
	}
}

func TestWriteBlob_Overwrite(t *testing.T) {
	s := setupTestDB(t)

	s.WriteBlob("conversionRate", []byte(`{"base":"USD"}`))
	first, _, _, _ := s.ReadBlob("conversionRate")

	if err := s.WriteBlob("conversionRate", []byte(`{"base":"EUR"}`)); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	second, _, ok, err := s.ReadBlob("conversionRate")
	if err != nil || !ok {
		t.Fatalf("ReadBlob after overwrite failed: ok=%v err=%v", ok, err)
	}
	if string(first) == string(second) {
		t.Error("expected value to change after overwrite")
	}
}

func TestDeleteBlob(t *testing.T) {
	s := setupTestDB(t)

	s.WriteBlob("allCoins", []byte(`[]`))
	if err := s.DeleteBlob("allCoins"); err != nil {
		t.Fatalf("DeleteBlob failed: %v", err)
	}

	_, _, ok, _ := s.ReadBlob("allCoins")
	if ok {
		t.Error("expected entry to be deleted")
	}

	// Deleting again must be a no-op
	if err := s.DeleteBlob("allCoins"); err != nil {
		t.Errorf("deleting missing key should not error: %v", err)
	}
}

func TestKeys(t *testing.T) {
	s := setupTestDB(t)

	s.WriteBlob("a", []byte(`1`))
	s.WriteBlob("b", []byte(`2`))

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("expected 2 keys, got %d", len(keys))
	}
}
