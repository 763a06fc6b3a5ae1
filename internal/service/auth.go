package service

import (
	"context"
	"log/slog"
	"sync"

	"tradedesk_go/internal/cache"
	"tradedesk_go/internal/domain"
)

// LoginInput carries the login credentials.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// twoFactorInput toggles 2FA on the current account.
type twoFactorInput struct {
	Enabled bool `json:"isTwoFactorEnabled"`
}

// AuthService owns the current-user query and the session mutations.
// It is the one place that reacts to session expiry: the "me" entry is
// cleared and the login redirect fires exactly once per expiry.
type AuthService struct {
	deps   Deps
	logger *slog.Logger

	mu               sync.Mutex
	redirected       bool
	onSessionExpired func()

	login     *cache.Mutation[LoginInput, *domain.User]
	logout    *cache.Mutation[struct{}, struct{}]
	twoFactor *cache.Mutation[twoFactorInput, struct{}]
}

// NewAuthService creates the auth service. onSessionExpired is the
// navigation hook to the login screen; it may be nil.
func NewAuthService(deps Deps, onSessionExpired func()) *AuthService {
	s := &AuthService{
		deps:             deps,
		logger:           slog.Default().With("module", "auth_service"),
		onSessionExpired: onSessionExpired,
	}

	s.login = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[LoginInput]{
		Invalidates: []cache.Key{MeKey()},
		Fallback:    "Login failed",
	}, func(ctx context.Context, in LoginInput) (*domain.User, error) {
		var user domain.User
		if err := deps.API.Post(ctx, "/users/login", in, &user); err != nil {
			return nil, err
		}
		return &user, nil
	})

	s.logout = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[struct{}]{
		Removes:  []cache.Key{MeKey()},
		Fallback: "Logout failed",
	}, func(ctx context.Context, _ struct{}) (struct{}, error) {
		return struct{}{}, deps.API.Post(ctx, "/users/logout", nil, nil)
	})

	s.twoFactor = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[twoFactorInput]{
		Invalidates: []cache.Key{MeKey()},
		Fallback:    "Could not update two-factor settings",
	}, func(ctx context.Context, in twoFactorInput) (struct{}, error) {
		return struct{}{}, deps.API.Put(ctx, "/users/twoFactor", in, nil)
	})

	return s
}

// CurrentUser resolves the authenticated user through the cache. Zero
// retries: an expired session must surface immediately, not be masked.
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	return cache.Fetch(ctx, s.deps.Cache, MeKey(), &cache.Options{Retries: 0}, s.fetchMe)
}

// fetchMe is the registered fetcher for the "me" entry. Expiry handling
// lives here so a 401 behaves the same whether the fetch was a foreground
// read or an invalidation-triggered background refetch.
func (s *AuthService) fetchMe(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := s.deps.API.Get(ctx, "/users/me", &u); err != nil {
		if domain.IsSessionExpired(err) {
			s.handleSessionExpiry()
		}
		return nil, err
	}
	return &u, nil
}

// handleSessionExpiry clears the cached user and fires the login redirect
// once. Subsequent 401s before the next successful login are absorbed.
func (s *AuthService) handleSessionExpiry() {
	s.deps.Cache.Remove(MeKey())

	s.mu.Lock()
	already := s.redirected
	s.redirected = true
	s.mu.Unlock()

	if already {
		return
	}
	s.logger.Warn("Session expired, redirecting to login")
	if s.onSessionExpired != nil {
		s.onSessionExpired()
	}
}

// Login authenticates and re-arms the session-expiry redirect.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.login.Run(ctx, LoginInput{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.redirected = false
	s.mu.Unlock()

	return user, nil
}

// Logout ends the session and drops the cached user entirely.
func (s *AuthService) Logout(ctx context.Context) error {
	_, err := s.logout.Run(ctx, struct{}{})
	return err
}

// SetTwoFactor toggles 2FA; the refreshed account state comes from the
// invalidated "me" query.
func (s *AuthService) SetTwoFactor(ctx context.Context, enabled bool) error {
	_, err := s.twoFactor.Run(ctx, twoFactorInput{Enabled: enabled})
	return err
}
