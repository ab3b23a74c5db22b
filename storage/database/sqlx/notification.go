package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/notification"
)

type notificationRepository struct {
	baseRepository
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(exec core.DBExecutor) *notificationRepository {
	return &notificationRepository{baseRepository{exec: exec}}
}

func (repo notificationRepository) CreateNotifications(ctx context.Context, notifs []notification.Notification, exec ...core.DBExecutor) error {
	db := repo.getExec(exec)
	query := db.Rebind("INSERT INTO notifications (user_id, message, link, read, created_at) VALUES (?, ?, ?, ?, ?)")
	for _, n := range notifs {
		if _, err := db.ExecContext(ctx, query, n.UserID, n.Message, n.Link, n.Read, n.CreatedAt.UTC()); err != nil {
			return errors.Wrap(err, "inserting notification")
		}
	}
	return nil
}

func (repo notificationRepository) QueryNotifications(ctx context.Context, userID int, exec ...core.DBExecutor) ([]notification.Notification, error) {
	notifs := make([]notification.Notification, 0)
	err := sel(ctx, repo.getExec(exec), &notifs,
		"SELECT id, user_id, message, link, read, created_at FROM notifications WHERE user_id = ? ORDER BY created_at, id",
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	return notifs, nil
}

func (repo notificationRepository) MarkNotificationsRead(ctx context.Context, userID int, ids []int, exec ...core.DBExecutor) (int64, error) {
	query := "UPDATE notifications SET read = ? WHERE user_id = ? AND read = ?"
	args := []interface{}{true, userID, false}
	if ids != nil {
		if len(ids) == 0 {
			return 0, nil
		}
		query += " AND id IN (?)"
		args = append(args, ids)
	}

	res, err := execIn(ctx, repo.getExec(exec), query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "marking notifications as read")
	}
	return res.RowsAffected()
}

func (repo notificationRepository) CountUnread(ctx context.Context, userID int, exec ...core.DBExecutor) (int, error) {
	var count int
	err := get(ctx, repo.getExec(exec), &count,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = ?", userID, false,
	)
	return count, errors.Wrap(err, "counting unread notifications")
}
