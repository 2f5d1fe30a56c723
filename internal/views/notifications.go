package views

import (
	"context"
	"time"

	"campusconnect/internal/livelist"
	"campusconnect/internal/models"
)

const DefaultNotificationsInterval = 60 * time.Second

type NotificationsAPI interface {
	ListNotifications(ctx context.Context, userID int64) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) error
}

type Notifications struct {
	base[models.Notification]
	api    NotificationsAPI
	userID int64
}

func NewNotifications(api NotificationsAPI, userID int64, opts Options) *Notifications {
	if opts.Interval == 0 {
		opts.Interval = DefaultNotificationsInterval
	}
	v := &Notifications{api: api, userID: userID}
	v.list = livelist.New(listOptions(opts, "notifications", models.Notification.Key,
		func(ctx context.Context) ([]models.Notification, error) {
			return api.ListNotifications(ctx, userID)
		}))
	return v
}

func markRead(n models.Notification) models.Notification {
	n.IsRead = true
	return n
}

func isRead(n models.Notification) bool {
	return n.IsRead
}

func (v *Notifications) MarkRead(ctx context.Context, notificationID int64) error {
	key := models.Notification{NotificationID: notificationID}.Key()
	return v.list.Patch(ctx, key, markRead, isRead, func(ctx context.Context) error {
		return v.api.MarkNotificationRead(ctx, notificationID)
	})
}

// MarkAllRead is a no-op when nothing is unread.
func (v *Notifications) MarkAllRead(ctx context.Context) error {
	var keys []string
	for _, entry := range v.Entries() {
		if !entry.Value.IsRead {
			keys = append(keys, entry.Key)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return v.list.PatchMany(ctx, keys, markRead, isRead, func(ctx context.Context) error {
		return v.api.MarkAllNotificationsRead(ctx, v.userID)
	})
}

func (v *Notifications) UnreadCount() int {
	count := 0
	for _, entry := range v.Entries() {
		if !entry.Value.IsRead {
			count++
		}
	}
	return count
}
