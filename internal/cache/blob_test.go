package cache

import (
	"testing"
	"time"
)

// memStore is an in-memory BlobStore for tests.
type memStore struct {
	values  map[string][]byte
	savedAt map[string]time.Time
}

func newMemStore() *memStore {
	return &memStore{
		values:  make(map[string][]byte),
		savedAt: make(map[string]time.Time),
	}
}

func (m *memStore) ReadBlob(key string) ([]byte, time.Time, bool, error) {
	v, ok := m.values[key]
	if !ok {
		return nil, time.Time{}, false, nil
	}
	return v, m.savedAt[key], true, nil
}

func (m *memStore) WriteBlob(key string, value []byte) error {
	m.values[key] = value
	m.savedAt[key] = time.Now()
	return nil
}

func (m *memStore) DeleteBlob(key string) error {
	delete(m.values, key)
	delete(m.savedAt, key)
	return nil
}

type coinStub struct {
	ID string `json:"id"`
}

func TestBlobCache_EmptyWriteNeverOverwrites(t *testing.T) {
	store := newMemStore()
	b := NewBlobCache(store)

	if err := WriteList(b, "allCoins", []coinStub{{ID: "bitcoin"}}); err != nil {
		t.Fatalf("WriteList failed: %v", err)
	}

	// An empty fetch result must not clobber the good payload
	if err := WriteList(b, "allCoins", []coinStub{}); err != nil {
		t.Fatalf("empty WriteList failed: %v", err)
	}

	list, _, ok := ReadList[coinStub](b, "allCoins")
	if !ok {
		t.Fatal("expected cached list to survive")
	}
	if len(list) != 1 || list[0].ID != "bitcoin" {
		t.Errorf("list = %v", list)
	}
}

func TestBlobCache_CorruptEntryIsMissAndDiscarded(t *testing.T) {
	store := newMemStore()
	b := NewBlobCache(store)

	store.WriteBlob("allCoins", []byte(`{not json!`))

	if _, _, ok := ReadList[coinStub](b, "allCoins"); ok {
		t.Fatal("corrupt blob must read as a miss")
	}
	if _, exists := store.values["allCoins"]; exists {
		t.Error("corrupt blob should be discarded, not repaired")
	}
}

func TestBlobCache_MissingKeyIsMiss(t *testing.T) {
	b := NewBlobCache(newMemStore())
	if _, _, ok := ReadList[coinStub](b, "nope"); ok {
		t.Error("missing key should be a miss")
	}
}

func TestIsExpired(t *testing.T) {
	tests := []struct {
		name    string
		savedAt time.Time
		ttl     time.Duration
		want    bool
	}{
		{"saved 25h ago with 24h ttl", time.Now().Add(-25 * time.Hour), 24 * time.Hour, true},
		{"saved 1h ago with 24h ttl", time.Now().Add(-1 * time.Hour), 24 * time.Hour, false},
		{"saved 16m ago with 15m ttl", time.Now().Add(-16 * time.Minute), 15 * time.Minute, true},
		{"saved just now with 15m ttl", time.Now(), 15 * time.Minute, false},
		{"zero savedAt", time.Time{}, 24 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExpired(tt.savedAt, tt.ttl); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBlobCache_ValueRoundTrip(t *testing.T) {
	b := NewBlobCache(newMemStore())

	type rate struct {
		Base string `json:"base"`
	}

	if err := WriteValue(b, "conversionRate", &rate{Base: "USD"}); err != nil {
		t.Fatalf("WriteValue failed: %v", err)
	}

	got, savedAt, ok := ReadValue[rate](b, "conversionRate")
	if !ok {
		t.Fatal("expected value")
	}
	if got.Base != "USD" {
		t.Errorf("base = %q", got.Base)
	}
	if savedAt.IsZero() {
		t.Error("savedAt should be set")
	}

	// nil write is a no-op
	if err := WriteValue[rate](b, "conversionRate", nil); err != nil {
		t.Fatalf("nil WriteValue failed: %v", err)
	}
	if got, _, _ := ReadValue[rate](b, "conversionRate"); got == nil || got.Base != "USD" {
		t.Error("nil write must not clobber the stored value")
	}
}
