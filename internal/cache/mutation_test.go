package cache

import (
	"context"
	"sync/atomic"
	"testing"

	"tradedesk_go/internal/domain"
)

type recordingNotifier struct {
	levels   []domain.NotifyLevel
	messages []string
}

func (n *recordingNotifier) Notify(level domain.NotifyLevel, message string) {
	n.levels = append(n.levels, level)
	n.messages = append(n.messages, message)
}

func TestMutation_SuccessInvalidatesDeclaredSet(t *testing.T) {
	c := testCache()
	ctx := context.Background()
	notifier := &recordingNotifier{}

	// Seed three entries; the mutation declares two of them
	fn := func(ctx context.Context) (string, error) { return "v", nil }
	Fetch(ctx, c, NewKey("me"), nil, fn)
	Fetch(ctx, c, NewKey("walletTransactions"), nil, fn)
	Fetch(ctx, c, NewKey("deposits"), nil, fn)

	m := NewMutation(c, notifier, MutationConfig[string]{
		Invalidates: []Key{NewKey("me"), NewKey("walletTransactions")},
		Fallback:    "Claim failed",
	}, func(ctx context.Context, asset string) (string, error) {
		return "tx-1", nil
	})

	out, err := m.Run(ctx, "BTC")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "tx-1" {
		t.Errorf("out = %q", out)
	}

	for _, key := range []Key{NewKey("me"), NewKey("walletTransactions")} {
		if info, _ := c.Peek(key); !info.Stale {
			t.Errorf("key %q should be stale after mutation", key.String())
		}
	}
	if info, _ := c.Peek(NewKey("deposits")); info.Stale {
		t.Error("key outside the declared set must be untouched")
	}
	if len(notifier.messages) != 0 {
		t.Errorf("success should not notify, got %v", notifier.messages)
	}
}

func TestMutation_DynamicKeys(t *testing.T) {
	c := testCache()
	ctx := context.Background()

	fn := func(ctx context.Context) (string, error) { return "v", nil }
	Fetch(ctx, c, NewKey("deposits"), nil, fn)
	Fetch(ctx, c, NewKey("users", "u-7"), nil, fn)

	type approveInput struct{ ID, UserID string }
	m := NewMutation(c, &recordingNotifier{}, MutationConfig[approveInput]{
		Invalidates: []Key{NewKey("deposits")},
		DynamicKeys: func(in approveInput) []Key {
			return []Key{NewKey("users", in.UserID)}
		},
		Fallback: "Approval failed",
	}, func(ctx context.Context, in approveInput) (struct{}, error) {
		return struct{}{}, nil
	})

	if _, err := m.Run(ctx, approveInput{ID: "d-1", UserID: "u-7"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if info, _ := c.Peek(NewKey("users", "u-7")); !info.Stale {
		t.Error("balance-bearing user entry should be stale after approval")
	}
}

func TestMutation_RemovesKeys(t *testing.T) {
	c := testCache()
	ctx := context.Background()

	Fetch(ctx, c, NewKey("me"), nil, func(ctx context.Context) (string, error) { return "user", nil })

	logout := NewMutation(c, &recordingNotifier{}, MutationConfig[struct{}]{
		Removes:  []Key{NewKey("me")},
		Fallback: "Logout failed",
	}, func(ctx context.Context, _ struct{}) (struct{}, error) {
		return struct{}{}, nil
	})

	if _, err := logout.Run(ctx, struct{}{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, ok := c.Peek(NewKey("me")); ok {
		t.Error("logout must remove the current-user entry")
	}
}

func TestMutation_FailureNotifiesWithBackendMessage(t *testing.T) {
	c := testCache()
	ctx := context.Background()
	notifier := &recordingNotifier{}

	Fetch(ctx, c, NewKey("withdrawals"), nil, func(ctx context.Context) (string, error) { return "v", nil })

	var calls atomic.Int32
	m := NewMutation(c, notifier, MutationConfig[string]{
		Invalidates: []Key{NewKey("withdrawals")},
		Fallback:    "Withdrawal failed",
	}, func(ctx context.Context, amount string) (struct{}, error) {
		calls.Add(1)
		return struct{}{}, &domain.APIError{Status: 400, Message: "Insufficient balance"}
	})

	if _, err := m.Run(ctx, "100"); err == nil {
		t.Fatal("expected error")
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("failed mutation must not be retried, calls = %d", got)
	}
	if len(notifier.messages) != 1 || notifier.messages[0] != "Insufficient balance" {
		t.Errorf("notifications = %v, want backend message", notifier.messages)
	}
	if notifier.levels[0] != domain.NotifyError {
		t.Errorf("level = %v, want error", notifier.levels[0])
	}
	if info, _ := c.Peek(NewKey("withdrawals")); info.Stale {
		t.Error("failed mutation must not invalidate anything")
	}
}

func TestMutation_FailureFallbackMessage(t *testing.T) {
	c := testCache()
	notifier := &recordingNotifier{}

	m := NewMutation(c, notifier, MutationConfig[struct{}]{
		Fallback: "Something went wrong",
	}, func(ctx context.Context, _ struct{}) (struct{}, error) {
		return struct{}{}, domain.NewNetworkError("request", context.DeadlineExceeded)
	})

	m.Run(context.Background(), struct{}{})

	if len(notifier.messages) != 1 || notifier.messages[0] != "Something went wrong" {
		t.Errorf("notifications = %v, want fallback", notifier.messages)
	}
}

func TestMutation_TwiceProducesIndependentInvalidations(t *testing.T) {
	c := testCache()
	ctx := context.Background()

	var fetches atomic.Int32
	refill := func(ctx context.Context) (string, error) {
		fetches.Add(1)
		return "list", nil
	}

	m := NewMutation(c, &recordingNotifier{}, MutationConfig[string]{
		Invalidates: []Key{NewKey("deposits")},
		Fallback:    "Deposit failed",
	}, func(ctx context.Context, amount string) (struct{}, error) {
		return struct{}{}, nil
	})

	// fetch -> mutate -> fetch -> mutate -> fetch
	Fetch(ctx, c, NewKey("deposits"), nil, refill)
	m.Run(ctx, "10")
	Fetch(ctx, c, NewKey("deposits"), nil, refill)
	m.Run(ctx, "10")
	Fetch(ctx, c, NewKey("deposits"), nil, refill)

	if got := fetches.Load(); got != 3 {
		t.Errorf("each mutation should force one refetch, fetches = %d", got)
	}
}
