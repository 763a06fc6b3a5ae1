package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a platform account as returned by the backend.
type User struct {
	ID               string          `json:"_id"`
	Email            string          `json:"email"`
	FirstName        string          `json:"firstname"`
	LastName         string          `json:"lastname"`
	Role             string          `json:"role"` // "user", "admin"
	Balance          decimal.Decimal `json:"balance"`
	Currency         string          `json:"currency"`
	TwoFactorEnabled bool            `json:"isTwoFactorEnabled"`
	IsVerified       bool            `json:"isEmailVerified"`
	CreatedAt        time.Time       `json:"createdAt"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// IsAdmin reports whether the user may call admin-only endpoints.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Funding request lifecycle statuses shared by deposits and withdrawals.
const (
	FundingStatusPending  = "pending"
	FundingStatusApproved = "approved"
	FundingStatusDeclined = "declined"
)

// DepositRequest represents a user deposit awaiting admin review.
type DepositRequest struct {
	ID        string          `json:"_id"`
	UserID    string          `json:"userId"`
	Method    string          `json:"method"` // payment method, e.g. "BTC", "bank"
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// IsOpen checks if the request is still awaiting review.
func (d *DepositRequest) IsOpen() bool {
	return d.Status == FundingStatusPending
}

// WithdrawalRequest represents a user withdrawal awaiting admin review.
type WithdrawalRequest struct {
	ID        string          `json:"_id"`
	UserID    string          `json:"userId"`
	Address   string          `json:"address"`
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// IsOpen checks if the request is still awaiting review.
func (w *WithdrawalRequest) IsOpen() bool {
	return w.Status == FundingStatusPending
}

// TradingBot is a purchasable automated trading product.
type TradingBot struct {
	ID            string          `json:"_id"`
	Name          string          `json:"name"`
	Strategy      string          `json:"strategy"`
	Price         decimal.Decimal `json:"price"`
	DailyTrades   int             `json:"dailyTrades"`
	WinRate       decimal.Decimal `json:"winRate"` // percent
	ImageURL      string          `json:"photo"`
	IsRecommended bool            `json:"isRecommended"`
}

// TradingSignal is a purchasable signal subscription tier.
type TradingSignal struct {
	ID       string          `json:"_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Strength int             `json:"strength"` // 1..5
	ImageURL string          `json:"photo"`
}

// NftSetting is an NFT listed for purchase on the platform.
type NftSetting struct {
	ID       string          `json:"_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"photo"`
	Owner    string          `json:"owner"`
}

// ConnectedWallet is an external wallet linked to an account.
type ConnectedWallet struct {
	ID       string `json:"_id"`
	Name     string `json:"name"` // e.g. "MetaMask"
	Address  string `json:"address"`
	ImageURL string `json:"photo"`
}

// Notification is a per-user message generated by the backend.
type Notification struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// Wallet transaction types.
const (
	TxTypeDeposit    = "deposit"
	TxTypeWithdrawal = "withdrawal"
	TxTypeReward     = "reward"
	TxTypeTrade      = "trade"
)

// WalletTransaction is one entry in a user's balance history.
type WalletTransaction struct {
	ID        string          `json:"_id"`
	UserID    string          `json:"userId"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Asset     string          `json:"asset"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ExpertTrader is a copy-trading expert users can follow.
type ExpertTrader struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	WinRate     decimal.Decimal `json:"winRate"`     // percent
	ProfitShare decimal.Decimal `json:"profitShare"` // percent
	ImageURL    string          `json:"photo"`
}

// TotalCounts aggregates admin dashboard counters.
type TotalCounts struct {
	Users       int `json:"totalUsers"`
	Deposits    int `json:"totalDeposits"`
	Withdrawals int `json:"totalWithdrawals"`
	Unverified  int `json:"totalUnverifiedUsers"`
}

// Coin is reference market data for a listed coin (primary provider).
type Coin struct {
	ID           string          `json:"id"`
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	MarketCap    decimal.Decimal `json:"market_cap"`
	Change24h    decimal.Decimal `json:"price_change_percentage_24h"`
	ImageURL     string          `json:"image"`
}

// PaprikaQuote is a single-currency quote inside a secondary-provider record.
type PaprikaQuote struct {
	Price     decimal.Decimal `json:"price"`
	Change24h decimal.Decimal `json:"percent_change_24h"`
}

// PaprikaCoin is a secondary-provider price record quoted in one or more
// display currencies. The quote map key is the currency code ("USD", "EUR").
type PaprikaCoin struct {
	ID     string                  `json:"id"`
	Symbol string                  `json:"symbol"`
	Name   string                  `json:"name"`
	Quotes map[string]PaprikaQuote `json:"quotes"`
}

// HasQuote reports whether the record carries a quote for the currency.
func (p *PaprikaCoin) HasQuote(currency string) bool {
	_, ok := p.Quotes[currency]
	return ok
}

// ConversionRate is the cached fiat conversion rate blob.
type ConversionRate struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// HasRate reports whether a conversion rate exists for the currency.
func (c *ConversionRate) HasRate(currency string) bool {
	_, ok := c.Rates[currency]
	return ok
}

// LiveQuote is a single price update from the live stream.
type LiveQuote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Change24h decimal.Decimal `json:"change_24h"`
	Ts        int64           `json:"ts"` // unix milliseconds
}
