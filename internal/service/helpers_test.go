package service

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"tradedesk_go/internal/cache"
	"tradedesk_go/internal/domain"
	"tradedesk_go/internal/infra"
	"tradedesk_go/internal/infra/rest"
)

// stubNotifier records toast messages for assertions.
type stubNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *stubNotifier) Notify(_ domain.NotifyLevel, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *stubNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// newTestDeps spins up a backend stub and wires a service dependency set
// against it.
func newTestDeps(t *testing.T, handler http.Handler) (Deps, *stubNotifier) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &infra.Config{}
	cfg.API.BaseURL = srv.URL
	cfg.API.TimeoutSec = 5

	api, err := rest.NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	c := cache.New(cache.Options{
		StaleTime:          time.Minute,
		GCTime:             time.Minute,
		RefetchOnSubscribe: true,
	}, time.Minute)
	t.Cleanup(c.Stop)

	notifier := &stubNotifier{}
	return Deps{
		API:      api,
		Cache:    c,
		Notifier: notifier,
		Static: &cache.Options{
			StaleTime: 30 * time.Minute,
			GCTime:    time.Minute,
		},
	}, notifier
}
