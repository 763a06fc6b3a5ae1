package app

import (
	"context"
	"log/slog"
	"time"

	"tradedesk_go/internal/cache"
	"tradedesk_go/internal/infra"
	"tradedesk_go/internal/infra/rest"
	"tradedesk_go/internal/infra/storage"
	"tradedesk_go/internal/service"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Storage    *storage.Storage
	Downloader *infra.IconDownloader

	API        *rest.Client
	QueryCache *cache.Cache
	Blob       *cache.BlobCache
	Session    *service.SessionState

	Auth          *service.AuthService
	Users         *service.UserService
	Funding       *service.FundingService
	Trading       *service.TradingService
	Nfts          *service.NftService
	Experts       *service.ExpertService
	Wallets       *service.WalletService
	Notifications *service.NotificationService
	Market        *service.MarketService
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, DB, clients,
// caches and the service layer). onSessionExpired is the navigation hook
// fired once when the backend session lapses.
func (b *Bootstrap) Initialize(onSessionExpired func()) error {
	slog.Info("🚀 Bootstrapping TradeDesk...")

	// 1. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage()
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized")

	// 4. Initialize Icon Downloader
	downloader, err := infra.NewIconDownloader()
	if err != nil {
		return err
	}
	b.Downloader = downloader
	slog.Info("✅ Icon downloader ready")

	// 5. Backend API client (shared session cookie jar)
	api, err := rest.NewClient(cfg)
	if err != nil {
		return err
	}
	b.API = api

	// 6. Caches
	defaults := cache.Options{
		StaleTime:          time.Duration(cfg.Cache.StaleTimeSec) * time.Second,
		GCTime:             time.Duration(cfg.Cache.GCTimeSec) * time.Second,
		RefetchOnSubscribe: true,
	}
	b.QueryCache = cache.New(defaults, time.Duration(cfg.Cache.SweepIntervalSec)*time.Second)
	b.Blob = cache.NewBlobCache(store)

	// Quasi-static catalogs stay fresh much longer and never refetch on
	// subscribe; admin CRUD invalidates them explicitly.
	static := &cache.Options{
		StaleTime: time.Duration(cfg.Cache.StaticStaleTimeMin) * time.Minute,
		GCTime:    time.Duration(cfg.Cache.GCTimeSec) * time.Second,
	}

	// 7. Session + service layer
	b.Session = service.NewSessionState(cfg.Market.DefaultCurrency)

	deps := service.Deps{
		API:      api,
		Cache:    b.QueryCache,
		Notifier: infra.NewLogNotifier(logger),
		Static:   static,
	}

	b.Auth = service.NewAuthService(deps, onSessionExpired)
	b.Users = service.NewUserService(deps)
	b.Funding = service.NewFundingService(deps)
	b.Trading = service.NewTradingService(deps)
	b.Nfts = service.NewNftService(deps)
	b.Experts = service.NewExpertService(deps)
	b.Wallets = service.NewWalletService(deps)
	b.Notifications = service.NewNotificationService(deps)

	b.Market = service.NewMarketService(deps, b.Blob, b.Session, downloader, service.MarketOptions{
		CoinsTTL:        time.Duration(cfg.Market.CoinsTTLHours) * time.Hour,
		PricesTTL:       time.Duration(cfg.Market.PricesTTLMinutes) * time.Minute,
		ConversionTTL:   time.Duration(cfg.Market.ConversionTTLHours) * time.Hour,
		RecheckInterval: time.Duration(cfg.Market.RecheckMinutes) * time.Minute,
		IconWorkers:     cfg.Market.IconDownloadWorkers,
	})

	slog.Info("✅ Services wired")

	return nil
}

// SyncAssets warms the coin catalog and downloads missing icons in the
// background. This backs the loading screen on first launch.
func (b *Bootstrap) SyncAssets(ctx context.Context) {
	slog.Info("🔄 Starting asset synchronization...")

	coins, err := b.Market.Coins(ctx)
	if err != nil {
		slog.Warn("Coin catalog warm-up failed", slog.Any("error", err))
		return
	}

	b.Market.SyncIcons(ctx, coins)

	slog.Info("✨ Asset synchronization completed", slog.Int("coins", len(coins)))
}

// Shutdown releases everything Initialize acquired, in reverse order.
func (b *Bootstrap) Shutdown() {
	if b.Market != nil {
		b.Market.Stop()
	}
	if b.QueryCache != nil {
		b.QueryCache.Stop()
	}
	if b.Storage != nil {
		b.Storage.Close()
	}
}
