package service

import (
	"context"

	"tradedesk_go/internal/cache"
	"tradedesk_go/internal/domain"
)

// NotificationService covers per-user backend notifications.
type NotificationService struct {
	deps Deps

	markRead *cache.Mutation[string, struct{}]
	delete   *cache.Mutation[string, struct{}]
}

// NewNotificationService creates the notification service.
func NewNotificationService(deps Deps) *NotificationService {
	s := &NotificationService{deps: deps}

	// Single-item operations also invalidate that item's own entry in
	// case a detail view holds it.
	itemKeys := func(id string) []cache.Key {
		return []cache.Key{NotificationKey(id)}
	}

	s.markRead = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[string]{
		Invalidates: []cache.Key{NotificationsKey()},
		DynamicKeys: itemKeys,
		Fallback:    "Could not mark notification as read",
	}, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, deps.API.Put(ctx, "/notifications/"+id+"/read", nil, nil)
	})

	s.delete = cache.NewMutation(deps.Cache, deps.Notifier, cache.MutationConfig[string]{
		Invalidates: []cache.Key{NotificationsKey()},
		DynamicKeys: itemKeys,
		Fallback:    "Could not delete notification",
	}, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, deps.API.Delete(ctx, "/notifications/"+id, nil)
	})

	return s
}

// All lists the session user's notifications, newest first.
func (s *NotificationService) All(ctx context.Context) ([]domain.Notification, error) {
	return cache.Fetch(ctx, s.deps.Cache, NotificationsKey(), nil,
		func(ctx context.Context) ([]domain.Notification, error) {
			var list []domain.Notification
			if err := s.deps.API.Get(ctx, "/notifications", &list); err != nil {
				return nil, err
			}
			return list, nil
		})
}

// ByID resolves a single notification.
func (s *NotificationService) ByID(ctx context.Context, id string) (*domain.Notification, error) {
	return cache.Fetch(ctx, s.deps.Cache, NotificationKey(id), nil,
		func(ctx context.Context) (*domain.Notification, error) {
			var n domain.Notification
			if err := s.deps.API.Get(ctx, "/notifications/"+id, &n); err != nil {
				return nil, err
			}
			return &n, nil
		})
}

// MarkRead flags a notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	_, err := s.markRead.Run(ctx, id)
	return err
}

// Delete removes a notification.
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	_, err := s.delete.Run(ctx, id)
	return err
}
