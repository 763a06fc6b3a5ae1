package cache

import "testing"

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{"single segment", NewKey("me"), "me"},
		{"two segments", NewKey("users", "u-1"), "users/u-1"},
		{"separator in segment", NewKey("a/b"), `a\/b`},
		{"backslash in segment", NewKey(`a\b`), `a\\b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_StringNoCollisionAcrossStructure(t *testing.T) {
	a := NewKey("a/b")
	b := NewKey("a", "b")

	if a.String() == b.String() {
		t.Errorf("%v and %v flatten to the same id %q", a, b, a.String())
	}
	if a.Equal(b) {
		t.Error("keys with different segment counts must not be equal")
	}
}

func TestKey_PrefixMatchingIsSegmentWise(t *testing.T) {
	prefix := NewKey("notifications")

	if !NewKey("notifications", "n-1").HasPrefix(prefix) {
		t.Error("parameterized key must match its root prefix")
	}
	if NewKey("notifications/n-1").HasPrefix(prefix) {
		t.Error("a single segment containing the prefix text must not match")
	}
	if NewKey("notificationsX", "n-1").HasPrefix(prefix) {
		t.Error("segment comparison must be exact, not textual prefix")
	}
}

func TestKey_DistinctKeysGetDistinctEntries(t *testing.T) {
	c := New(Options{}, 0)

	c.mu.Lock()
	c.ensureEntry(NewKey("notifications", "n-1"), c.defaults)
	c.ensureEntry(NewKey("notifications/n-1"), c.defaults)
	c.mu.Unlock()

	if c.Len() != 2 {
		t.Fatalf("entries = %d, want 2: structurally different keys must not share an entry", c.Len())
	}
}
