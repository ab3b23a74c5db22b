package notification

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/infort/rh/core"
)

// Link identifies the client view a notification points to.
type Link string

const (
	LinkManageTimeOff  Link = "manage-timeoff"
	LinkManageMeetings Link = "manage-meetings"
	LinkDashboard      Link = "dashboard"
	LinkMyEvents       Link = "my-events"
)

var errInvalidLink = errors.New("invalid notification link")

func (l Link) IsValid() bool {
	switch l {
	case LinkManageTimeOff, LinkManageMeetings, LinkDashboard, LinkMyEvents:
		return true
	}
	return false
}

type Notification struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"userId" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	Link      Link      `json:"link" db:"link"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"` // UTC
}

type MarkRead struct {
	IDs []int `json:"notificationIds"` // nil when omitted
}

type (
	Repository interface {
		CreateNotifications(ctx context.Context, notifs []Notification, exec ...core.DBExecutor) error
		// QueryNotifications returns the notifications of a user, oldest first.
		QueryNotifications(ctx context.Context, userID int, exec ...core.DBExecutor) ([]Notification, error)
		// MarkNotificationsRead marks the given (or, when ids is nil, all) unread notifications
		// of a user as read, and returns how many changed.
		MarkNotificationsRead(ctx context.Context, userID int, ids []int, exec ...core.DBExecutor) (int64, error)
		CountUnread(ctx context.Context, userID int, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Append writes one unread notification for userID.
func (svc *Service) Append(ctx context.Context, userID int, message string, link Link, exec ...core.DBExecutor) error {
	return svc.FanOut(ctx, []int{userID}, message, link, exec...)
}

// FanOut writes one unread notification per user id.
func (svc *Service) FanOut(ctx context.Context, userIDs []int, message string, link Link, exec ...core.DBExecutor) error {
	if !link.IsValid() {
		return errors.Wrap(errInvalidLink, string(link))
	}
	if len(userIDs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	notifs := make([]Notification, len(userIDs))
	for i, id := range userIDs {
		notifs[i] = Notification{UserID: id, Message: message, Link: link, CreatedAt: now}
	}
	return errors.Wrap(svc.repo.CreateNotifications(ctx, notifs, exec...), "creating notifications")
}

func (svc *Service) ListFor(ctx context.Context, userID int) ([]Notification, error) {
	return svc.repo.QueryNotifications(ctx, userID)
}

// MarkRead marks the caller's notifications as read. A nil ids marks every unread one; an empty
// non-nil ids marks none. Ids belonging to other users are ignored.
func (svc *Service) MarkRead(ctx context.Context, userID int, ids []int) (int64, error) {
	if ids != nil && len(ids) == 0 {
		return 0, nil
	}
	return svc.repo.MarkNotificationsRead(ctx, userID, ids)
}

func (svc *Service) UnreadCount(ctx context.Context, userID int) (int, error) {
	return svc.repo.CountUnread(ctx, userID)
}
