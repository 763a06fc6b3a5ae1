package service

import (
	"context"

	"tradedesk_go/internal/cache"
	"tradedesk_go/internal/domain"
)

// TradingService covers the trading bot and trading signal catalogs.
// Both are quasi-static: they change only through admin CRUD here.
type TradingService struct {
	deps Deps

	addBot    *cache.Mutation[domain.TradingBot, *domain.TradingBot]
	updateBot *cache.Mutation[domain.TradingBot, struct{}]
	deleteBot *cache.Mutation[string, struct{}]

	addSignal    *cache.Mutation[domain.TradingSignal, *domain.TradingSignal]
	updateSignal *cache.Mutation[domain.TradingSignal, struct{}]
	deleteSignal *cache.Mutation[string, struct{}]
}

// NewTradingService creates the trading catalog service.
func NewTradingService(deps Deps) *TradingService {
	s := &TradingService{deps: deps}

	s.addBot = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[domain.TradingBot]{
		Invalidates: []cache.Key{TradingBotsKey()},
		Fallback:    "Could not add trading bot",
	}, func(ctx context.Context, in domain.TradingBot) (*domain.TradingBot, error) {
		var bot domain.TradingBot
		if err := deps.API.Post(ctx, "/tradingBots/add", in, &bot); err != nil {
			return nil, err
		}
		return &bot, nil
	})

	s.updateBot = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[domain.TradingBot]{
		Invalidates: []cache.Key{TradingBotsKey()},
		Fallback:    "Could not update trading bot",
	}, func(ctx context.Context, in domain.TradingBot) (struct{}, error) {
		return struct{}{}, deps.API.Put(ctx, "/tradingBots/"+in.ID, in, nil)
	})

	s.deleteBot = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[string]{
		Invalidates: []cache.Key{TradingBotsKey()},
		Fallback:    "Could not delete trading bot",
	}, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, deps.API.Delete(ctx, "/tradingBots/"+id, nil)
	})

	s.addSignal = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[domain.TradingSignal]{
		Invalidates: []cache.Key{TradingSignalsKey()},
		Fallback:    "Could not add trading signal",
	}, func(ctx context.Context, in domain.TradingSignal) (*domain.TradingSignal, error) {
		var sig domain.TradingSignal
		if err := deps.API.Post(ctx, "/tradingSignals/add", in, &sig); err != nil {
			return nil, err
		}
		return &sig, nil
	})

	s.updateSignal = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[domain.TradingSignal]{
		Invalidates: []cache.Key{TradingSignalsKey()},
		Fallback:    "Could not update trading signal",
	}, func(ctx context.Context, in domain.TradingSignal) (struct{}, error) {
		return struct{}{}, deps.API.Put(ctx, "/tradingSignals/"+in.ID, in, nil)
	})

	s.deleteSignal = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[string]{
		Invalidates: []cache.Key{TradingSignalsKey()},
		Fallback:    "Could not delete trading signal",
	}, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, deps.API.Delete(ctx, "/tradingSignals/"+id, nil)
	})

	return s
}

// Bots lists the trading bot catalog.
func (s *TradingService) Bots(ctx context.Context) ([]domain.TradingBot, error) {
	return cache.Fetch(ctx, s.deps.Cache, TradingBotsKey(), s.deps.Static,
		func(ctx context.Context) ([]domain.TradingBot, error) {
			var bots []domain.TradingBot
			if err := s.deps.API.Get(ctx, "/tradingBots", &bots); err != nil {
				return nil, err
			}
			return bots, nil
		})
}

// Signals lists the trading signal catalog.
func (s *TradingService) Signals(ctx context.Context) ([]domain.TradingSignal, error) {
	return cache.Fetch(ctx, s.deps.Cache, TradingSignalsKey(), s.deps.Static,
		func(ctx context.Context) ([]domain.TradingSignal, error) {
			var signals []domain.TradingSignal
			if err := s.deps.API.Get(ctx, "/tradingSignals", &signals); err != nil {
				return nil, err
			}
			return signals, nil
		})
}

func (s *TradingService) AddBot(ctx context.Context, in domain.TradingBot) (*domain.TradingBot, error) {
	return s.addBot.Run(ctx, in)
}

func (s *TradingService) UpdateBot(ctx context.Context, in domain.TradingBot) error {
	_, err := s.updateBot.Run(ctx, in)
	return err
}

func (s *TradingService) DeleteBot(ctx context.Context, id string) error {
	_, err := s.deleteBot.Run(ctx, id)
	return err
}

func (s *TradingService) AddSignal(ctx context.Context, in domain.TradingSignal) (*domain.TradingSignal, error) {
	return s.addSignal.Run(ctx, in)
}

func (s *TradingService) UpdateSignal(ctx context.Context, in domain.TradingSignal) error {
	_, err := s.updateSignal.Run(ctx, in)
	return err
}

func (s *TradingService) DeleteSignal(ctx context.Context, id string) error {
	_, err := s.deleteSignal.Run(ctx, id)
	return err
}
