package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tradedesk_go/internal/cache"
	"tradedesk_go/internal/domain"
	"tradedesk_go/internal/infra"
)

// Persistent blob keys. The names are part of the on-disk format and must
// not change between releases.
const (
	blobKeyCoins      = "allCoins"
	blobKeyPrices     = "allCoinpaprikaCoinPrices"
	blobKeyConversion = "conversionRate"
)

// MarketOptions carries the TTL and polling knobs for market data.
type MarketOptions struct {
	CoinsTTL        time.Duration
	PricesTTL       time.Duration
	ConversionTTL   time.Duration
	RecheckInterval time.Duration
	IconWorkers     int
}

// MarketService serves reference market data through the persistent blob
// cache: the coin catalog, secondary-provider prices and the fiat
// conversion rate. A background recheck loop keeps the price blob fresh
// while the process runs, and live stream quotes overlay the catalog
// prices in memory.
type MarketService struct {
	deps    Deps
	blob    *cache.BlobCache
	session *SessionState
	icons   *infra.IconDownloader
	opts    MarketOptions
	logger  *slog.Logger

	quoteMu sync.RWMutex
	quotes  map[string]domain.LiveQuote

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMarketService creates the market data service.
func NewMarketService(deps Deps, blob *cache.BlobCache, session *SessionState, icons *infra.IconDownloader, opts MarketOptions) *MarketService {
	if opts.CoinsTTL <= 0 {
		opts.CoinsTTL = 24 * time.Hour
	}
	if opts.PricesTTL <= 0 {
		opts.PricesTTL = 15 * time.Minute
	}
	if opts.ConversionTTL <= 0 {
		opts.ConversionTTL = 24 * time.Hour
	}
	if opts.RecheckInterval <= 0 {
		opts.RecheckInterval = 5 * time.Minute
	}
	if opts.IconWorkers <= 0 {
		opts.IconWorkers = 5
	}
	return &MarketService{
		deps:    deps,
		blob:    blob,
		session: session,
		icons:   icons,
		opts:    opts,
		logger:  slog.Default().With("module", "market_service"),
		quotes:  make(map[string]domain.LiveQuote),
	}
}

// Coins returns the coin catalog. Served from the blob cache while fresh;
// refetched past the TTL. A failed refetch falls back to the stale blob
// rather than returning nothing.
func (s *MarketService) Coins(ctx context.Context) ([]domain.Coin, error) {
	cached, savedAt, ok := cache.ReadList[domain.Coin](s.blob, blobKeyCoins)
	if ok && !cache.IsExpired(savedAt, s.opts.CoinsTTL) {
		return cached, nil
	}

	var coins []domain.Coin
	if err := s.deps.API.Get(ctx, "/coingecko/coins", &coins); err != nil {
		if ok {
			s.logger.Warn("Coin catalog refresh failed, serving stale data", slog.Any("error", err))
			return cached, nil
		}
		return nil, err
	}
	if err := cache.WriteList(s.blob, blobKeyCoins, coins); err != nil {
		s.logger.Warn("Coin catalog persist failed", slog.Any("error", err))
	}
	return coins, nil
}

// SecondaryPrices returns the secondary-provider price records quoted in
// the session's display currency. The cached blob counts as expired when
// it predates the TTL or was quoted in a different currency.
func (s *MarketService) SecondaryPrices(ctx context.Context) ([]domain.PaprikaCoin, error) {
	currency := s.session.SelectedCurrency()

	cached, savedAt, ok := cache.ReadList[domain.PaprikaCoin](s.blob, blobKeyPrices)
	if ok && !cache.IsExpired(savedAt, s.opts.PricesTTL) && quotedIn(cached, currency) {
		return cached, nil
	}

	fresh, err := s.fetchSecondaryPrices(ctx, currency)
	if err != nil {
		if ok && quotedIn(cached, currency) {
			s.logger.Warn("Price refresh failed, serving stale data", slog.Any("error", err))
			return cached, nil
		}
		return nil, err
	}
	return fresh, nil
}

func (s *MarketService) fetchSecondaryPrices(ctx context.Context, currency string) ([]domain.PaprikaCoin, error) {
	var prices []domain.PaprikaCoin
	if err := s.deps.API.Get(ctx, "/coinpaprika/coins?quotes="+currency, &prices); err != nil {
		return nil, err
	}
	if err := cache.WriteList(s.blob, blobKeyPrices, prices); err != nil {
		s.logger.Warn("Price blob persist failed", slog.Any("error", err))
	}
	return prices, nil
}

// quotedIn reports whether every cached record carries a quote in the
// requested currency. An empty slice never counts as quoted.
func quotedIn(coins []domain.PaprikaCoin, currency string) bool {
	if len(coins) == 0 {
		return false
	}
	for i := range coins {
		if !coins[i].HasQuote(currency) {
			return false
		}
	}
	return true
}

// ConversionRate returns the fiat conversion table against the base
// currency, cached for a day.
func (s *MarketService) ConversionRate(ctx context.Context) (*domain.ConversionRate, error) {
	cached, savedAt, ok := cache.ReadValue[domain.ConversionRate](s.blob, blobKeyConversion)
	if ok && !cache.IsExpired(savedAt, s.opts.ConversionTTL) {
		return cached, nil
	}

	var rate domain.ConversionRate
	if err := s.deps.API.Get(ctx, "/conversionRate", &rate); err != nil {
		if ok {
			s.logger.Warn("Conversion rate refresh failed, serving stale data", slog.Any("error", err))
			return cached, nil
		}
		return nil, err
	}
	if err := cache.WriteValue(s.blob, blobKeyConversion, &rate); err != nil {
		s.logger.Warn("Conversion rate persist failed", slog.Any("error", err))
	}
	return &rate, nil
}

// Start begins the background freshness loop. Every recheck interval the
// price blob is re-validated against its TTL and the currently selected
// currency, so a currency switch picks up correct quotes within one tick.
func (s *MarketService) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Market recheck panic recovered", slog.Any("panic", r))
			}
		}()

		ticker := time.NewTicker(s.opts.RecheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Market recheck stopped")
				return
			case <-ticker.C:
				s.recheck(ctx)
			}
		}
	}()

	return nil
}

// recheck refreshes the price blob when it went stale or the display
// currency changed underneath it.
func (s *MarketService) recheck(ctx context.Context) {
	currency := s.session.SelectedCurrency()

	cached, savedAt, ok := cache.ReadList[domain.PaprikaCoin](s.blob, blobKeyPrices)
	if ok && !cache.IsExpired(savedAt, s.opts.PricesTTL) && quotedIn(cached, currency) {
		return
	}

	if _, err := s.fetchSecondaryPrices(ctx, currency); err != nil {
		s.logger.Warn("Scheduled price refresh failed", slog.Any("error", err))
		return
	}
	s.logger.Info("Price blob refreshed", slog.String("currency", currency))
}

// Stop stops the background loop and waits for it to exit.
func (s *MarketService) Stop() {
	if s.cancel != nil {
		s.cancel()
		s.wg.Wait()
	}
}

// ApplyQuote overlays a live stream update. Intended as the stream
// worker's callback.
func (s *MarketService) ApplyQuote(q domain.LiveQuote) {
	if q.Symbol == "" {
		return
	}
	s.quoteMu.Lock()
	s.quotes[q.Symbol] = q
	s.quoteMu.Unlock()
}

// LiveQuote returns the most recent stream quote for a symbol, if any.
func (s *MarketService) LiveQuote(symbol string) (domain.LiveQuote, bool) {
	s.quoteMu.RLock()
	defer s.quoteMu.RUnlock()
	q, ok := s.quotes[symbol]
	return q, ok
}

// SyncIcons downloads missing coin icons with a bounded worker pool.
// Individual failures are logged and skipped.
func (s *MarketService) SyncIcons(ctx context.Context, coins []domain.Coin) {
	if s.icons == nil || len(coins) == 0 {
		return
	}

	sem := make(chan struct{}, s.opts.IconWorkers)
	var wg sync.WaitGroup

	for _, coin := range coins {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(c domain.Coin) {
			defer wg.Done()
			defer func() { <-sem }()
			if _, err := s.icons.DownloadIcon(c.Symbol, c.ImageURL); err != nil {
				s.logger.Debug("Icon download failed",
					slog.String("symbol", c.Symbol),
					slog.Any("error", err),
				)
			}
		}(coin)
	}
	wg.Wait()
}
