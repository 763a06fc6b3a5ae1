package cache

import (
	"context"
	"log/slog"

	"tradedesk_go/internal/domain"
)

// MutationConfig declares what a write operation touches.
type MutationConfig[In any] struct {
	// Invalidates is the fixed set of query keys marked stale on success.
	Invalidates []Key
	// DynamicKeys derives additional keys from the input, e.g. the
	// {"users", id} entry of the account whose balance an approval changed.
	DynamicKeys func(in In) []Key
	// Removes lists keys dropped entirely on success (logout removes "me").
	Removes []Key
	// Fallback is the toast text when the backend error carries no message.
	Fallback string
}

// Mutation wraps a write operation with its invalidation set. On success
// the declared keys are invalidated sequentially as independent
// operations; on failure the extracted backend message (or the fallback)
// is pushed to the notifier. Mutations are never retried: a duplicate
// deposit is worse than a failed one.
type Mutation[In, Out any] struct {
	cache    *Cache
	notifier domain.Notifier
	cfg      MutationConfig[In]
	fn       func(ctx context.Context, in In) (Out, error)
	logger   *slog.Logger
}

// NewMutation builds a mutation bound to the shared cache and notifier.
func NewMutation[In, Out any](c *Cache, notifier domain.Notifier, cfg MutationConfig[In], fn func(ctx context.Context, in In) (Out, error)) *Mutation[In, Out] {
	return &Mutation[In, Out]{
		cache:    c,
		notifier: notifier,
		cfg:      cfg,
		fn:       fn,
		logger:   slog.Default().With("module", "mutation"),
	}
}

// Run executes the mutation exactly once. The returned error is for the
// caller's control flow only; the user-facing notification has already
// been dispatched by the time Run returns.
func (m *Mutation[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	out, err := m.fn(ctx, in)
	m.cache.metrics.RecordMutation(err != nil)

	if err != nil {
		msg := domain.ErrorMessage(err, m.cfg.Fallback)
		if m.notifier != nil {
			m.notifier.Notify(domain.NotifyError, msg)
		}
		m.logger.Warn("Mutation failed", slog.String("message", msg), slog.Any("error", err))
		var zero Out
		return zero, err
	}

	if len(m.cfg.Removes) > 0 {
		m.cache.Remove(m.cfg.Removes...)
	}

	keys := m.cfg.Invalidates
	if m.cfg.DynamicKeys != nil {
		keys = append(append([]Key{}, keys...), m.cfg.DynamicKeys(in)...)
	}
	m.cache.Invalidate(keys...)

	return out, nil
}
