package service

import (
	"context"

	"tradedesk_go/internal/cache"
	"tradedesk_go/internal/domain"

	"github.com/shopspring/decimal"
)

// TransactionInput records a manual balance movement.
type TransactionInput struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Asset  string          `json:"asset"`
}

// WithdrawInput moves funds out of the platform wallet.
type WithdrawInput struct {
	Amount  decimal.Decimal `json:"amount"`
	Asset   string          `json:"asset"`
	Address string          `json:"address"`
}

// WalletService covers connected external wallets and the platform
// wallet's transaction history. Balance-changing operations also
// invalidate the session user, whose balance field the backend rewrites.
type WalletService struct {
	deps Deps

	addWallet    *cache.Mutation[domain.ConnectedWallet, *domain.ConnectedWallet]
	deleteWallet *cache.Mutation[string, struct{}]

	addTx       *cache.Mutation[TransactionInput, struct{}]
	withdraw    *cache.Mutation[WithdrawInput, struct{}]
	claimReward *cache.Mutation[string, struct{}]
}

// NewWalletService creates the wallet service.
func NewWalletService(deps Deps) *WalletService {
	s := &WalletService{deps: deps}

	balanceKeys := []cache.Key{MeKey(), WalletTransactionsKey()}

	s.addWallet = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[domain.ConnectedWallet]{
		Invalidates: []cache.Key{ConnectedWalletsKey()},
		Fallback:    "Could not connect wallet",
	}, func(ctx context.Context, in domain.ConnectedWallet) (*domain.ConnectedWallet, error) {
		var wallet domain.ConnectedWallet
		if err := deps.API.Post(ctx, "/connectWallet/add", in, &wallet); err != nil {
			return nil, err
		}
		return &wallet, nil
	})

	s.deleteWallet = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[string]{
		Invalidates: []cache.Key{ConnectedWalletsKey()},
		Fallback:    "Could not disconnect wallet",
	}, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, deps.API.Delete(ctx, "/connectWallet/"+id, nil)
	})

	s.addTx = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[TransactionInput]{
		Invalidates: balanceKeys,
		Fallback:    "Transaction failed",
	}, func(ctx context.Context, in TransactionInput) (struct{}, error) {
		return struct{}{}, deps.API.Post(ctx, "/walletTransactions/add", in, nil)
	})

	s.withdraw = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[WithdrawInput]{
		Invalidates: balanceKeys,
		Fallback:    "Withdrawal failed",
	}, func(ctx context.Context, in WithdrawInput) (struct{}, error) {
		return struct{}{}, deps.API.Post(ctx, "/walletTransactions/withdraw", in, nil)
	})

	s.claimReward = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[string]{
		Invalidates: balanceKeys,
		Fallback:    "Could not claim reward",
	}, func(ctx context.Context, rewardID string) (struct{}, error) {
		return struct{}{}, deps.API.Post(ctx, "/walletTransactions/claimReward/"+rewardID, nil, nil)
	})

	return s
}

// ConnectedWallets lists the external wallets linked to the session user.
func (s *WalletService) ConnectedWallets(ctx context.Context) ([]domain.ConnectedWallet, error) {
	return cache.Fetch(ctx, s.deps.Cache, ConnectedWalletsKey(), nil,
		func(ctx context.Context) ([]domain.ConnectedWallet, error) {
			var wallets []domain.ConnectedWallet
			if err := s.deps.API.Get(ctx, "/connectWallet", &wallets); err != nil {
				return nil, err
			}
			return wallets, nil
		})
}

// Transactions lists the session user's balance history.
func (s *WalletService) Transactions(ctx context.Context) ([]domain.WalletTransaction, error) {
	return cache.Fetch(ctx, s.deps.Cache, WalletTransactionsKey(), nil,
		func(ctx context.Context) ([]domain.WalletTransaction, error) {
			var txs []domain.WalletTransaction
			if err := s.deps.API.Get(ctx, "/walletTransactions", &txs); err != nil {
				return nil, err
			}
			return txs, nil
		})
}

// ConnectWallet links an external wallet to the session user.
func (s *WalletService) ConnectWallet(ctx context.Context, in domain.ConnectedWallet) (*domain.ConnectedWallet, error) {
	return s.addWallet.Run(ctx, in)
}

// DisconnectWallet removes a linked external wallet.
func (s *WalletService) DisconnectWallet(ctx context.Context, id string) error {
	_, err := s.deleteWallet.Run(ctx, id)
	return err
}

// AddTransaction records a balance movement.
func (s *WalletService) AddTransaction(ctx context.Context, in TransactionInput) error {
	_, err := s.addTx.Run(ctx, in)
	return err
}

// WithdrawFunds moves funds out of the platform wallet.
func (s *WalletService) WithdrawFunds(ctx context.Context, in WithdrawInput) error {
	_, err := s.withdraw.Run(ctx, in)
	return err
}

// ClaimReward credits a pending reward to the balance.
func (s *WalletService) ClaimReward(ctx context.Context, rewardID string) error {
	_, err := s.claimReward.Run(ctx, rewardID)
	return err
}
