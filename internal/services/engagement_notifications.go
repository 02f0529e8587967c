package services

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/engagement/internal/models"
)

// ListNotifications returns every notification of userID, most recent first.
func (s *EngagementService) ListNotifications(ctx context.Context, userID uint) ([]models.NotificationView, error) {
	if _, err := activeUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	list, err := s.notifications.ListForUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	return s.notifications.Views(ctx, s.store, list)
}

// ListNotificationsPage returns one page of ListNotifications and the total count.
func (s *EngagementService) ListNotificationsPage(ctx context.Context, userID uint, page, limit int) ([]models.NotificationView, int64, error) {
	if _, err := activeUser(ctx, s.store, userID); err != nil {
		return nil, 0, err
	}
	list, total, err := s.notifications.Page(ctx, s.store, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.notifications.Views(ctx, s.store, list)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// MarkNotificationRead marks a notification read. It is idempotent.
func (s *EngagementService) MarkNotificationRead(ctx context.Context, notificationID uint) error {
	return s.notifications.MarkRead(ctx, s.store, notificationID)
}

// MarkNotificationReadFor marks a notification of recipientID read.
func (s *EngagementService) MarkNotificationReadFor(ctx context.Context, recipientID, notificationID uint) error {
	return s.notifications.MarkReadFor(ctx, s.store, recipientID, notificationID)
}

// MarkAllNotificationsRead marks every notification of userID read.
func (s *EngagementService) MarkAllNotificationsRead(ctx context.Context, userID uint) (int64, error) {
	return s.notifications.MarkAllRead(ctx, s.store, userID)
}

// UnreadNotificationCount counts the unread notifications of userID.
func (s *EngagementService) UnreadNotificationCount(ctx context.Context, userID uint) (int64, error) {
	return s.notifications.UnreadCount(ctx, s.store, userID)
}

// GroupNotifications buckets the notifications of userID into today, yesterday, the
// last seven days and older, relative to the notification clock.
func (s *EngagementService) GroupNotifications(ctx context.Context, userID uint) (*models.GroupedNotifications, error) {
	views, err := s.ListNotifications(ctx, userID)
	if err != nil {
		return nil, err
	}
	unread, err := s.notifications.UnreadCount(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	now := s.notifications.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)
	week := today.AddDate(0, 0, -7)

	grouped := &models.GroupedNotifications{
		Today:       []models.NotificationView{},
		Yesterday:   []models.NotificationView{},
		ThisWeek:    []models.NotificationView{},
		Older:       []models.NotificationView{},
		UnreadCount: unread,
	}
	for _, v := range views {
		switch at := v.CreatedAt.In(now.Location()); {
		case !at.Before(today):
			grouped.Today = append(grouped.Today, v)
		case !at.Before(yesterday):
			grouped.Yesterday = append(grouped.Yesterday, v)
		case !at.Before(week):
			grouped.ThisWeek = append(grouped.ThisWeek, v)
		default:
			grouped.Older = append(grouped.Older, v)
		}
	}
	return grouped, nil
}
