package service

import (
	"context"

	"tradedesk_go/internal/cache"
	"tradedesk_go/internal/domain"
)

// ExpertService covers the copy-trading expert catalog and per-user links.
type ExpertService struct {
	deps Deps

	add    *cache.Mutation[domain.ExpertTrader, *domain.ExpertTrader]
	update *cache.Mutation[domain.ExpertTrader, struct{}]
	delete *cache.Mutation[string, struct{}]
	link   *cache.Mutation[LinkInput, struct{}]
	unlink *cache.Mutation[LinkInput, struct{}]
}

// NewExpertService creates the expert trader service.
func NewExpertService(deps Deps) *ExpertService {
	s := &ExpertService{deps: deps}

	linkKeys := func(in LinkInput) []cache.Key {
		return []cache.Key{UserExpertsKey(in.Email)}
	}

	s.add = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[domain.ExpertTrader]{
		Invalidates: []cache.Key{ExpertTradersKey()},
		Fallback:    "Could not add expert trader",
	}, func(ctx context.Context, in domain.ExpertTrader) (*domain.ExpertTrader, error) {
		var expert domain.ExpertTrader
		if err := deps.API.Post(ctx, "/expertTraders/add", in, &expert); err != nil {
			return nil, err
		}
		return &expert, nil
	})

	s.update = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[domain.ExpertTrader]{
		Invalidates: []cache.Key{ExpertTradersKey()},
		Fallback:    "Could not update expert trader",
	}, func(ctx context.Context, in domain.ExpertTrader) (struct{}, error) {
		return struct{}{}, deps.API.Put(ctx, "/expertTraders/"+in.ID, in, nil)
	})

	s.delete = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[string]{
		Invalidates: []cache.Key{ExpertTradersKey()},
		Fallback:    "Could not delete expert trader",
	}, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, deps.API.Delete(ctx, "/expertTraders/"+id, nil)
	})

	s.link = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[LinkInput]{
		DynamicKeys: linkKeys,
		Fallback:    "Could not copy expert trader",
	}, func(ctx context.Context, in LinkInput) (struct{}, error) {
		return struct{}{}, deps.API.Post(ctx, "/expertTraders/link", in, nil)
	})

	s.unlink = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[LinkInput]{
		DynamicKeys: linkKeys,
		Fallback:    "Could not stop copying expert trader",
	}, func(ctx context.Context, in LinkInput) (struct{}, error) {
		return struct{}{}, deps.API.Post(ctx, "/expertTraders/unlink", in, nil)
	})

	return s
}

// All lists the expert catalog. Quasi-static within a session.
func (s *ExpertService) All(ctx context.Context) ([]domain.ExpertTrader, error) {
	return cache.Fetch(ctx, s.deps.Cache, ExpertTradersKey(), s.deps.Static,
		func(ctx context.Context) ([]domain.ExpertTrader, error) {
			var experts []domain.ExpertTrader
			if err := s.deps.API.Get(ctx, "/expertTraders", &experts); err != nil {
				return nil, err
			}
			return experts, nil
		})
}

// ForUser lists the experts one account is copying.
func (s *ExpertService) ForUser(ctx context.Context, email string) ([]domain.ExpertTrader, error) {
	return cache.Fetch(ctx, s.deps.Cache, UserExpertsKey(email), nil,
		func(ctx context.Context) ([]domain.ExpertTrader, error) {
			var experts []domain.ExpertTrader
			if err := s.deps.API.Get(ctx, "/expertTraders/user/"+email, &experts); err != nil {
				return nil, err
			}
			return experts, nil
		})
}

func (s *ExpertService) Add(ctx context.Context, in domain.ExpertTrader) (*domain.ExpertTrader, error) {
	return s.add.Run(ctx, in)
}

func (s *ExpertService) Update(ctx context.Context, in domain.ExpertTrader) error {
	_, err := s.update.Run(ctx, in)
	return err
}

func (s *ExpertService) Delete(ctx context.Context, id string) error {
	_, err := s.delete.Run(ctx, id)
	return err
}

// LinkToUser starts copy trading for an account.
func (s *ExpertService) LinkToUser(ctx context.Context, email, expertID string) error {
	_, err := s.link.Run(ctx, LinkInput{Email: email, ResourceID: expertID})
	return err
}

// UnlinkFromUser stops copy trading for an account.
func (s *ExpertService) UnlinkFromUser(ctx context.Context, email, expertID string) error {
	_, err := s.unlink.Run(ctx, LinkInput{Email: email, ResourceID: expertID})
	return err
}
