package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tradedesk_go/internal/cache"
	"tradedesk_go/internal/domain"

	"github.com/shopspring/decimal"
)

// memBlobStore is an in-memory BlobStore with settable timestamps so tests
// can age entries without sleeping.
type memBlobStore struct {
	mu   sync.Mutex
	data map[string][]byte
	at   map[string]time.Time
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{data: make(map[string][]byte), at: make(map[string]time.Time)}
}

func (m *memBlobStore) ReadBlob(key string) ([]byte, time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return nil, time.Time{}, false, nil
	}
	return raw, m.at[key], true, nil
}

func (m *memBlobStore) WriteBlob(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.at[key] = time.Now()
	return nil
}

func (m *memBlobStore) DeleteBlob(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	delete(m.at, key)
	return nil
}

func (m *memBlobStore) seed(t *testing.T, key string, v interface{}, savedAt time.Time) {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("seed marshal failed: %v", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	m.at[key] = savedAt
}

func newMarketFixture(t *testing.T, handler http.Handler) (*MarketService, *memBlobStore, *SessionState) {
	t.Helper()
	deps, _ := newTestDeps(t, handler)
	store := newMemBlobStore()
	session := NewSessionState("USD")
	svc := NewMarketService(deps, cache.NewBlobCache(store), session, nil, MarketOptions{
		CoinsTTL:      24 * time.Hour,
		PricesTTL:     15 * time.Minute,
		ConversionTTL: 24 * time.Hour,
	})
	return svc, store, session
}

func testCoins() []domain.Coin {
	return []domain.Coin{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: decimal.NewFromInt(50000)},
		{ID: "ethereum", Symbol: "eth", Name: "Ethereum", CurrentPrice: decimal.NewFromInt(3000)},
	}
}

func paprikaCoins(currency string) []domain.PaprikaCoin {
	return []domain.PaprikaCoin{
		{ID: "btc-bitcoin", Symbol: "BTC", Quotes: map[string]domain.PaprikaQuote{
			currency: {Price: decimal.NewFromInt(50000)},
		}},
	}
}

func TestMarketService_CoinsServedFromFreshBlob(t *testing.T) {
	var calls atomic.Int32
	svc, store, _ := newMarketFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]interface{}{"data": testCoins()})
	}))
	store.seed(t, "allCoins", testCoins(), time.Now().Add(-1*time.Hour))

	coins, err := svc.Coins(context.Background())
	if err != nil {
		t.Fatalf("Coins failed: %v", err)
	}
	if len(coins) != 2 {
		t.Errorf("got %d coins", len(coins))
	}
	if calls.Load() != 0 {
		t.Error("a fresh blob must be served without a backend call")
	}
}

func TestMarketService_CoinsRefetchAfterTTL(t *testing.T) {
	var calls atomic.Int32
	svc, store, _ := newMarketFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]interface{}{"data": testCoins()})
	}))
	store.seed(t, "allCoins", testCoins()[:1], time.Now().Add(-25*time.Hour))

	coins, err := svc.Coins(context.Background())
	if err != nil {
		t.Fatalf("Coins failed: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("backend calls = %d, want 1", calls.Load())
	}
	if len(coins) != 2 {
		t.Errorf("expected refetched catalog, got %d coins", len(coins))
	}

	// Persisted copy must be the fresh one
	if raw, ok := store.data["allCoins"]; ok {
		var persisted []domain.Coin
		json.Unmarshal(raw, &persisted)
		if len(persisted) != 2 {
			t.Errorf("persisted %d coins, want the refetched catalog", len(persisted))
		}
	} else {
		t.Error("refetched catalog was not persisted")
	}
}

func TestMarketService_CoinsStaleFallbackOnFetchFailure(t *testing.T) {
	svc, store, _ := newMarketFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	store.seed(t, "allCoins", testCoins(), time.Now().Add(-25*time.Hour))

	coins, err := svc.Coins(context.Background())
	if err != nil {
		t.Fatalf("expected stale fallback, got error: %v", err)
	}
	if len(coins) != 2 {
		t.Errorf("got %d coins from stale fallback", len(coins))
	}
}

func TestMarketService_CoinsErrorWithoutFallback(t *testing.T) {
	svc, _, _ := newMarketFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	if _, err := svc.Coins(context.Background()); err == nil {
		t.Fatal("with no cached data a failed fetch must surface the error")
	}
}

func TestMarketService_CurrencyMismatchForcesRefetch(t *testing.T) {
	var gotQuery atomic.Value
	svc, store, session := newMarketFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query().Get("quotes"))
		json.NewEncoder(w).Encode(map[string]interface{}{"data": paprikaCoins("EUR")})
	}))

	// Fresh blob, wrong currency
	store.seed(t, "allCoinpaprikaCoinPrices", paprikaCoins("USD"), time.Now())
	session.SetSelectedCurrency("EUR")

	prices, err := svc.SecondaryPrices(context.Background())
	if err != nil {
		t.Fatalf("SecondaryPrices failed: %v", err)
	}
	if q, _ := gotQuery.Load().(string); q != "EUR" {
		t.Errorf("requested quotes=%q, want EUR", q)
	}
	if len(prices) != 1 || !prices[0].HasQuote("EUR") {
		t.Errorf("result not quoted in EUR: %+v", prices)
	}
}

func TestMarketService_FreshMatchingPricesSkipBackend(t *testing.T) {
	var calls atomic.Int32
	svc, store, _ := newMarketFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]interface{}{"data": paprikaCoins("USD")})
	}))
	store.seed(t, "allCoinpaprikaCoinPrices", paprikaCoins("USD"), time.Now().Add(-5*time.Minute))

	if _, err := svc.SecondaryPrices(context.Background()); err != nil {
		t.Fatalf("SecondaryPrices failed: %v", err)
	}
	if calls.Load() != 0 {
		t.Error("fresh blob in the right currency must not hit the backend")
	}
}

func TestMarketService_EmptyFetchDoesNotClobberBlob(t *testing.T) {
	svc, store, _ := newMarketFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []domain.PaprikaCoin{}})
	}))
	old := paprikaCoins("USD")
	store.seed(t, "allCoinpaprikaCoinPrices", old, time.Now().Add(-16*time.Minute))

	svc.SecondaryPrices(context.Background())

	var persisted []domain.PaprikaCoin
	if raw, ok := store.data["allCoinpaprikaCoinPrices"]; !ok {
		t.Fatal("blob vanished")
	} else if json.Unmarshal(raw, &persisted) != nil || len(persisted) != 1 {
		t.Errorf("empty fetch overwrote the last good payload: %s", raw)
	}
}

func TestMarketService_RecheckRefreshesExpiredBlob(t *testing.T) {
	var calls atomic.Int32
	svc, store, _ := newMarketFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]interface{}{"data": paprikaCoins("USD")})
	}))
	store.seed(t, "allCoinpaprikaCoinPrices", paprikaCoins("USD"), time.Now().Add(-16*time.Minute))

	svc.recheck(context.Background())

	if calls.Load() != 1 {
		t.Errorf("backend calls = %d, want 1 for an expired blob", calls.Load())
	}
	if savedAt, ok := store.at["allCoinpaprikaCoinPrices"]; !ok || time.Since(savedAt) > time.Minute {
		t.Error("recheck did not persist a fresh blob")
	}
}

func TestMarketService_RecheckRefreshesOnCurrencySwitch(t *testing.T) {
	var gotQuery atomic.Value
	svc, store, session := newMarketFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query().Get("quotes"))
		json.NewEncoder(w).Encode(map[string]interface{}{"data": paprikaCoins("EUR")})
	}))
	store.seed(t, "allCoinpaprikaCoinPrices", paprikaCoins("USD"), time.Now())
	session.SetSelectedCurrency("EUR")

	svc.recheck(context.Background())

	if q, _ := gotQuery.Load().(string); q != "EUR" {
		t.Errorf("recheck requested quotes=%q, want the newly selected EUR", q)
	}
	prices, _, ok := cache.ReadList[domain.PaprikaCoin](cache.NewBlobCache(store), "allCoinpaprikaCoinPrices")
	if !ok || len(prices) != 1 || !prices[0].HasQuote("EUR") {
		t.Errorf("persisted blob not re-quoted in EUR: %+v", prices)
	}
}

func TestMarketService_RecheckFreshBlobSkipsBackend(t *testing.T) {
	var calls atomic.Int32
	svc, store, _ := newMarketFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]interface{}{"data": paprikaCoins("USD")})
	}))
	store.seed(t, "allCoinpaprikaCoinPrices", paprikaCoins("USD"), time.Now().Add(-5*time.Minute))

	svc.recheck(context.Background())

	if calls.Load() != 0 {
		t.Error("a fresh blob in the selected currency must not trigger a refresh")
	}
}

func TestMarketService_ConversionRateCached(t *testing.T) {
	var calls atomic.Int32
	svc, store, _ := newMarketFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": domain.ConversionRate{Base: "USD", Rates: map[string]decimal.Decimal{
				"EUR": decimal.NewFromFloat(0.9),
			}},
		})
	}))

	ctx := context.Background()
	rate, err := svc.ConversionRate(ctx)
	if err != nil {
		t.Fatalf("ConversionRate failed: %v", err)
	}
	if !rate.HasRate("EUR") {
		t.Errorf("rate = %+v", rate)
	}
	if _, ok := store.data["conversionRate"]; !ok {
		t.Error("rate was not persisted")
	}

	if _, err := svc.ConversionRate(ctx); err != nil {
		t.Fatalf("second read failed: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("backend calls = %d, want 1 (second read from blob)", calls.Load())
	}
}

func TestMarketService_LiveQuoteOverlay(t *testing.T) {
	svc, _, _ := newMarketFixture(t, http.NotFoundHandler())

	if _, ok := svc.LiveQuote("BTC"); ok {
		t.Fatal("no quote expected before any update")
	}

	svc.ApplyQuote(domain.LiveQuote{Symbol: "BTC", Price: decimal.NewFromInt(51000)})
	svc.ApplyQuote(domain.LiveQuote{}) // blank symbol is dropped

	q, ok := svc.LiveQuote("BTC")
	if !ok || !q.Price.Equal(decimal.NewFromInt(51000)) {
		t.Errorf("quote = %+v, ok=%v", q, ok)
	}
	if _, ok := svc.LiveQuote(""); ok {
		t.Error("blank symbol must never be stored")
	}
}
