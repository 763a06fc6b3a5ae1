package service

import (
	"context"

	"tradedesk_go/internal/cache"
	"tradedesk_go/internal/domain"
)

// LinkInput attaches or detaches a catalog resource to a user account,
// addressed by email the way the admin console does it.
type LinkInput struct {
	Email      string `json:"email"`
	ResourceID string `json:"resourceId"`
}

// NftService covers the NFT catalog and per-user NFT links.
type NftService struct {
	deps Deps

	add    *cache.Mutation[domain.NftSetting, *domain.NftSetting]
	update *cache.Mutation[domain.NftSetting, struct{}]
	delete *cache.Mutation[string, struct{}]
	link   *cache.Mutation[LinkInput, struct{}]
	unlink *cache.Mutation[LinkInput, struct{}]
}

// NewNftService creates the NFT service.
func NewNftService(deps Deps) *NftService {
	s := &NftService{deps: deps}

	linkKeys := func(in LinkInput) []cache.Key {
		return []cache.Key{UserNftsKey(in.Email)}
	}

	s.add = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[domain.NftSetting]{
		Invalidates: []cache.Key{NftSettingsKey()},
		Fallback:    "Could not add NFT",
	}, func(ctx context.Context, in domain.NftSetting) (*domain.NftSetting, error) {
		var nft domain.NftSetting
		if err := deps.API.Post(ctx, "/nftSettings/add", in, &nft); err != nil {
			return nil, err
		}
		return &nft, nil
	})

	s.update = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[domain.NftSetting]{
		Invalidates: []cache.Key{NftSettingsKey()},
		Fallback:    "Could not update NFT",
	}, func(ctx context.Context, in domain.NftSetting) (struct{}, error) {
		return struct{}{}, deps.API.Put(ctx, "/nftSettings/"+in.ID, in, nil)
	})

	s.delete = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[string]{
		Invalidates: []cache.Key{NftSettingsKey()},
		Fallback:    "Could not delete NFT",
	}, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, deps.API.Delete(ctx, "/nftSettings/"+id, nil)
	})

	s.link = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[LinkInput]{
		DynamicKeys: linkKeys,
		Fallback:    "Could not assign NFT",
	}, func(ctx context.Context, in LinkInput) (struct{}, error) {
		return struct{}{}, deps.API.Post(ctx, "/nftSettings/link", in, nil)
	})

	s.unlink = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[LinkInput]{
		DynamicKeys: linkKeys,
		Fallback:    "Could not remove NFT",
	}, func(ctx context.Context, in LinkInput) (struct{}, error) {
		return struct{}{}, deps.API.Post(ctx, "/nftSettings/unlink", in, nil)
	})

	return s
}

// All lists the NFT catalog. Quasi-static within a session.
func (s *NftService) All(ctx context.Context) ([]domain.NftSetting, error) {
	return cache.Fetch(ctx, s.deps.Cache, NftSettingsKey(), s.deps.Static,
		func(ctx context.Context) ([]domain.NftSetting, error) {
			var nfts []domain.NftSetting
			if err := s.deps.API.Get(ctx, "/nftSettings", &nfts); err != nil {
				return nil, err
			}
			return nfts, nil
		})
}

// ForUser lists the NFTs linked to one account.
func (s *NftService) ForUser(ctx context.Context, email string) ([]domain.NftSetting, error) {
	return cache.Fetch(ctx, s.deps.Cache, UserNftsKey(email), nil,
		func(ctx context.Context) ([]domain.NftSetting, error) {
			var nfts []domain.NftSetting
			if err := s.deps.API.Get(ctx, "/nftSettings/user/"+email, &nfts); err != nil {
				return nil, err
			}
			return nfts, nil
		})
}

func (s *NftService) Add(ctx context.Context, in domain.NftSetting) (*domain.NftSetting, error) {
	return s.add.Run(ctx, in)
}

func (s *NftService) Update(ctx context.Context, in domain.NftSetting) error {
	_, err := s.update.Run(ctx, in)
	return err
}

func (s *NftService) Delete(ctx context.Context, id string) error {
	_, err := s.delete.Run(ctx, id)
	return err
}

// LinkToUser assigns an NFT to an account.
func (s *NftService) LinkToUser(ctx context.Context, email, nftID string) error {
	_, err := s.link.Run(ctx, LinkInput{Email: email, ResourceID: nftID})
	return err
}

// UnlinkFromUser removes an NFT from an account.
func (s *NftService) UnlinkFromUser(ctx context.Context, email, nftID string) error {
	_, err := s.unlink.Run(ctx, LinkInput{Email: email, ResourceID: nftID})
	return err
}
