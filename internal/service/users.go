package service

import (
	"context"

	"tradedesk_go/internal/cache"
	"tradedesk_go/internal/domain"
)

// UserService covers the admin user directory and dashboard counters.
type UserService struct {
	deps Deps

	deleteUser *cache.Mutation[string, struct{}]
}

// NewUserService creates the user service.
func NewUserService(deps Deps) *UserService {
	s := &UserService{deps: deps}

	// Removing an account orphans its notifications and shifts the
	// dashboard counters, so all three lists go stale together.
	s.deleteUser = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[string]{
		Invalidates: []cache.Key{NotificationsKey(), TotalCountsKey(), AllUsersKey()},
		Fallback:    "Could not delete user",
	}, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, deps.API.Delete(ctx, "/users/"+id, nil)
	})

	return s
}

// AllUsers lists every account. Quasi-static within a session.
func (s *UserService) AllUsers(ctx context.Context) ([]domain.User, error) {
	return cache.Fetch(ctx, s.deps.Cache, AllUsersKey(), s.deps.Static,
		func(ctx context.Context) ([]domain.User, error) {
			var users []domain.User
			if err := s.deps.API.Get(ctx, "/users", &users); err != nil {
				return nil, err
			}
			return users, nil
		})
}

// UserByID resolves one account, balance included.
func (s *UserService) UserByID(ctx context.Context, id string) (*domain.User, error) {
	return cache.Fetch(ctx, s.deps.Cache, UserKey(id), nil,
		func(ctx context.Context) (*domain.User, error) {
			var user domain.User
			if err := s.deps.API.Get(ctx, "/users/"+id, &user); err != nil {
				return nil, err
			}
			return &user, nil
		})
}

// TotalCounts resolves the admin dashboard counter block.
func (s *UserService) TotalCounts(ctx context.Context) (*domain.TotalCounts, error) {
	return cache.Fetch(ctx, s.deps.Cache, TotalCountsKey(), nil,
		func(ctx context.Context) (*domain.TotalCounts, error) {
			var counts domain.TotalCounts
			if err := s.deps.API.Get(ctx, "/totalCounts", &counts); err != nil {
				return nil, err
			}
			return &counts, nil
		})
}

// DeleteUser removes an account (admin only).
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	_, err := s.deleteUser.Run(ctx, id)
	return err
}
