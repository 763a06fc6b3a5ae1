package service

import (
	"context"

	"tradedesk_go/internal/cache"
	"tradedesk_go/internal/domain"

	"github.com/shopspring/decimal"
)

// FundingInput creates or updates a deposit/withdrawal request.
type FundingInput struct {
	ID      string          `json:"_id,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"method"`
	Address string          `json:"address,omitempty"`
}

// ReviewInput is an admin approval/decline of a funding request.
// Approval changes the owner's balance, so their single-user entry is
// part of the invalidation set.
type ReviewInput struct {
	ID     string `json:"_id"`
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// FundingService covers deposit and withdrawal requests, user and admin side.
type FundingService struct {
	deps Deps

	addDeposit    *cache.Mutation[FundingInput, *domain.DepositRequest]
	updateDeposit *cache.Mutation[FundingInput, struct{}]
	deleteDeposit *cache.Mutation[string, struct{}]
	reviewDeposit *cache.Mutation[ReviewInput, struct{}]

	addWithdrawal    *cache.Mutation[FundingInput, *domain.WithdrawalRequest]
	updateWithdrawal *cache.Mutation[FundingInput, struct{}]
	deleteWithdrawal *cache.Mutation[string, struct{}]
	reviewWithdrawal *cache.Mutation[ReviewInput, struct{}]
}

// NewFundingService creates the funding service.
func NewFundingService(deps Deps) *FundingService {
	s := &FundingService{deps: deps}

	reviewKeys := func(in ReviewInput) []cache.Key {
		return []cache.Key{UserKey(in.UserID)}
	}

	s.addDeposit = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[FundingInput]{
		Invalidates: []cache.Key{DepositsKey()},
		Fallback:    "Deposit request failed",
	}, func(ctx context.Context, in FundingInput) (*domain.DepositRequest, error) {
		var req domain.DepositRequest
		if err := deps.API.Post(ctx, "/deposit/add", in, &req); err != nil {
			return nil, err
		}
		return &req, nil
	})

	s.updateDeposit = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[FundingInput]{
		Invalidates: []cache.Key{DepositsKey()},
		Fallback:    "Could not update deposit request",
	}, func(ctx context.Context, in FundingInput) (struct{}, error) {
		return struct{}{}, deps.API.Put(ctx, "/deposit/"+in.ID, in, nil)
	})

	s.deleteDeposit = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[string]{
		Invalidates: []cache.Key{DepositsKey()},
		Fallback:    "Could not delete deposit request",
	}, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, deps.API.Delete(ctx, "/deposit/"+id, nil)
	})

	s.reviewDeposit = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[ReviewInput]{
		Invalidates: []cache.Key{DepositsKey()},
		DynamicKeys: reviewKeys,
		Fallback:    "Could not review deposit request",
	}, func(ctx context.Context, in ReviewInput) (struct{}, error) {
		return struct{}{}, deps.API.Put(ctx, "/deposit/review/"+in.ID, in, nil)
	})

	s.addWithdrawal = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[FundingInput]{
		Invalidates: []cache.Key{WithdrawalsKey()},
		Fallback:    "Withdrawal request failed",
	}, func(ctx context.Context, in FundingInput) (*domain.WithdrawalRequest, error) {
		var req domain.WithdrawalRequest
		if err := deps.API.Post(ctx, "/withdrawal/add", in, &req); err != nil {
			return nil, err
		}
		return &req, nil
	})

	s.updateWithdrawal = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[FundingInput]{
		Invalidates: []cache.Key{WithdrawalsKey()},
		Fallback:    "Could not update withdrawal request",
	}, func(ctx context.Context, in FundingInput) (struct{}, error) {
		return struct{}{}, deps.API.Put(ctx, "/withdrawal/"+in.ID, in, nil)
	})

	s.deleteWithdrawal = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[string]{
		Invalidates: []cache.Key{WithdrawalsKey()},
		Fallback:    "Could not delete withdrawal request",
	}, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, deps.API.Delete(ctx, "/withdrawal/"+id, nil)
	})

	s.reviewWithdrawal = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[ReviewInput]{
		Invalidates: []cache.Key{WithdrawalsKey()},
		DynamicKeys: reviewKeys,
		Fallback:    "Could not review withdrawal request",
	}, func(ctx context.Context, in ReviewInput) (struct{}, error) {
		return struct{}{}, deps.API.Put(ctx, "/withdrawal/review/"+in.ID, in, nil)
	})

	return s
}

// Deposits lists deposit requests visible to the session.
func (s *FundingService) Deposits(ctx context.Context) ([]domain.DepositRequest, error) {
	return cache.Fetch(ctx, s.deps.Cache, DepositsKey(), nil,
		func(ctx context.Context) ([]domain.DepositRequest, error) {
			var list []domain.DepositRequest
			if err := s.deps.API.Get(ctx, "/deposit", &list); err != nil {
				return nil, err
			}
			return list, nil
		})
}

// Withdrawals lists withdrawal requests visible to the session.
func (s *FundingService) Withdrawals(ctx context.Context) ([]domain.WithdrawalRequest, error) {
	return cache.Fetch(ctx, s.deps.Cache, WithdrawalsKey(), nil,
		func(ctx context.Context) ([]domain.WithdrawalRequest, error) {
			var list []domain.WithdrawalRequest
			if err := s.deps.API.Get(ctx, "/withdrawal", &list); err != nil {
				return nil, err
			}
			return list, nil
		})
}

func (s *FundingService) AddDeposit(ctx context.Context, in FundingInput) (*domain.DepositRequest, error) {
	return s.addDeposit.Run(ctx, in)
}

func (s *FundingService) UpdateDeposit(ctx context.Context, in FundingInput) error {
	_, err := s.updateDeposit.Run(ctx, in)
	return err
}

func (s *FundingService) DeleteDeposit(ctx context.Context, id string) error {
	_, err := s.deleteDeposit.Run(ctx, id)
	return err
}

// ReviewDeposit approves or declines a deposit (admin only).
func (s *FundingService) ReviewDeposit(ctx context.Context, in ReviewInput) error {
	_, err := s.reviewDeposit.Run(ctx, in)
	return err
}

func (s *FundingService) AddWithdrawal(ctx context.Context, in FundingInput) (*domain.WithdrawalRequest, error) {
	return s.addWithdrawal.Run(ctx, in)
}

func (s *FundingService) UpdateWithdrawal(ctx context.Context, in FundingInput) error {
	_, err := s.updateWithdrawal.Run(ctx, in)
	return err
}

func (s *FundingService) DeleteWithdrawal(ctx context.Context, id string) error {
	_, err := s.deleteWithdrawal.Run(ctx, id)
	return err
}

// ReviewWithdrawal approves or declines a withdrawal (admin only).
func (s *FundingService) ReviewWithdrawal(ctx context.Context, in ReviewInput) error {
	_, err := s.reviewWithdrawal.Run(ctx, in)
	return err
}
