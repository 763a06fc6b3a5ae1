package service

import "tradedesk_go/internal/cache"

// Query key roots. A root on its own names a list; parameterized variants
// append the parameter, e.g. {"users", id} or {"expertTraders", email}.
const (
	// KeyMe is the current authenticated user
	KeyMe = "me"

	// KeyAllUsers is the admin-wide user list
	KeyAllUsers = "allUsers"

	// KeyUsers is the root for single-user entries (users/{id})
	KeyUsers = "users"

	// KeyDeposits is the deposit request list
	KeyDeposits = "deposits"

	// KeyWithdrawals is the withdrawal request list
	KeyWithdrawals = "withdrawals"

	// KeyTradingBots is the trading bot catalog
	KeyTradingBots = "tradingBots"

	// KeyTradingSignals is the trading signal catalog
	KeyTradingSignals = "tradingSignals"

	// KeyNftSettings is the NFT catalog; nftSettings/{email} is one user's set
	KeyNftSettings = "nftSettings"

	// KeyConnectedWallets is the linked external wallet list
	KeyConnectedWallets = "connectedWallets"

	// KeyNotifications is the notification list; notifications/{id} is one item
	KeyNotifications = "notifications"

	// KeyWalletTransactions is the balance history list
	KeyWalletTransactions = "walletTransactions"

	// KeyExpertTraders is the expert catalog; expertTraders/{email} is one user's set
	KeyExpertTraders = "expertTraders"

	// KeyTotalCounts is the admin dashboard counter block
	KeyTotalCounts = "totalCounts"
)

func MeKey() cache.Key                  { return cache.NewKey(KeyMe) }
func AllUsersKey() cache.Key            { return cache.NewKey(KeyAllUsers) }
func UserKey(id string) cache.Key       { return cache.NewKey(KeyUsers, id) }
func DepositsKey() cache.Key            { return cache.NewKey(KeyDeposits) }
func WithdrawalsKey() cache.Key         { return cache.NewKey(KeyWithdrawals) }
func TradingBotsKey() cache.Key         { return cache.NewKey(KeyTradingBots) }
func TradingSignalsKey() cache.Key      { return cache.NewKey(KeyTradingSignals) }
func NftSettingsKey() cache.Key         { return cache.NewKey(KeyNftSettings) }
func UserNftsKey(email string) cache.Key {
	return cache.NewKey(KeyNftSettings, email)
}
func ConnectedWalletsKey() cache.Key   { return cache.NewKey(KeyConnectedWallets) }
func NotificationsKey() cache.Key      { return cache.NewKey(KeyNotifications) }
func NotificationKey(id string) cache.Key {
	return cache.NewKey(KeyNotifications, id)
}
func WalletTransactionsKey() cache.Key { return cache.NewKey(KeyWalletTransactions) }
func ExpertTradersKey() cache.Key      { return cache.NewKey(KeyExpertTraders) }
func UserExpertsKey(email string) cache.Key {
	return cache.NewKey(KeyExpertTraders, email)
}
func TotalCountsKey() cache.Key { return cache.NewKey(KeyTotalCounts) }

// StaticListKeys returns the keys treated as quasi-static within a session:
// full catalogs that change only through this client's own mutations.
func StaticListKeys() []cache.Key {
	return []cache.Key{
		AllUsersKey(),
		TradingBotsKey(),
		TradingSignalsKey(),
		NftSettingsKey(),
		ExpertTradersKey(),
	}
}
