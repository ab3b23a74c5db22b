package meeting

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/notification"
	"github.com/infort/rh/core/request"
	"github.com/infort/rh/core/user"
)

var ErrNotFound = core.NewNotFoundError("meeting request not found")

type Request struct {
	ID                int            `json:"id" db:"id"`
	UserID            int            `json:"userId" db:"user_id"`
	UserName          string         `json:"userName" db:"user_name"`
	Topic             string         `json:"topic" db:"topic"`
	PreferredDateTime time.Time      `json:"preferredDateTime" db:"preferred_date_time"` // UTC
	Status            request.Status `json:"status" db:"status"`
	CreatedAt         time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time      `json:"updatedAt" db:"updated_at"`
}

type NewRequest struct {
	Topic             string `json:"topic" validate:"required"`
	PreferredDateTime string `json:"preferredDateTime" validate:"required,datetime_any"`
}

func (nr *NewRequest) Clean() {
	nr.Topic = core.CleanString(nr.Topic)
}

func (nr *NewRequest) Validate(validate *validator.Validate) error {
	nr.Clean()
	return validate.Struct(nr)
}

type (
	Repository interface {
		CreateRequest(ctx context.Context, req Request, exec ...core.DBExecutor) (Request, error)
		GetRequest(ctx context.Context, id int, exec ...core.DBExecutor) (Request, error)
		QueryRequests(ctx context.Context, filter request.ListFilter, exec ...core.DBExecutor) ([]Request, error)
		SetRequestStatus(ctx context.Context, id int, from, to request.Status, at time.Time, exec ...core.DBExecutor) (bool, error)
	}

	UserDirectory interface {
		HRUserIDs(ctx context.Context, exec ...core.DBExecutor) ([]int, error)
	}

	Notifier interface {
		Append(ctx context.Context, userID int, message string, link notification.Link, exec ...core.DBExecutor) error
		FanOut(ctx context.Context, userIDs []int, message string, link notification.Link, exec ...core.DBExecutor) error
	}

	Service struct {
		db       core.DB
		repo     Repository
		users    UserDirectory
		notifier Notifier
	}
)

func NewService(db core.DB, repo Repository, users UserDirectory, notifier Notifier) *Service {
	return &Service{db: db, repo: repo, users: users, notifier: notifier}
}

// Submit stores a pending meeting request and notifies every HR user.
func (svc *Service) Submit(ctx context.Context, requester user.User, nr NewRequest) (Request, error) {
	nr.Clean()
	if nr.Topic == "" {
		return Request{}, core.NewValidationError(nil, core.FieldError{Field: "topic", Error: "this field is required"})
	}
	when, ok := core.ParseDateTime(nr.PreferredDateTime)
	if !ok {
		return Request{}, core.NewValidationError(nil, core.FieldError{Field: "preferredDateTime", Error: "preferredDateTime must be a valid date"})
	}

	now := time.Now().UTC()
	req := Request{
		UserID:            requester.ID,
		Topic:             nr.Topic,
		PreferredDateTime: when,
		Status:            request.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if req, err = svc.repo.CreateRequest(ctx, req, tx); err != nil {
			return errors.Wrap(err, "creating meeting request")
		}
		hrIDs, err := svc.users.HRUserIDs(ctx, tx)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("Nova solicitação de reunião de %s.", requester.Name)
		return svc.notifier.FanOut(ctx, hrIDs, msg, notification.LinkManageMeetings, tx)
	})
	if err != nil {
		return Request{}, err
	}
	req.UserName = requester.Name
	return req, nil
}

// UpdateStatus approves or denies a pending meeting request and notifies its requester.
func (svc *Service) UpdateStatus(ctx context.Context, id int, next request.Status) (Request, error) {
	if !next.IsTerminal() {
		return Request{}, request.InvalidDecisionError()
	}

	var req Request
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		changed, err := svc.repo.SetRequestStatus(ctx, id, request.StatusPending, next, time.Now().UTC(), tx)
		if err != nil {
			return errors.Wrap(err, "updating meeting request status")
		}
		if req, err = svc.repo.GetRequest(ctx, id, tx); err != nil {
			return err
		}
		if !changed {
			if err = request.Decide(req.Status, next); err == nil {
				err = request.ErrAlreadyDecided
			}
			return err
		}

		msg := fmt.Sprintf(`Sua reunião sobre "%s" foi %s.`, req.Topic, next.Label())
		return svc.notifier.Append(ctx, req.UserID, msg, notification.LinkDashboard, tx)
	})
	if err != nil {
		return Request{}, err
	}
	return req, nil
}

func (svc *Service) List(ctx context.Context, filter request.ListFilter) ([]Request, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return svc.repo.QueryRequests(ctx, filter)
}

func (svc *Service) ListFor(ctx context.Context, userID int) ([]Request, error) {
	return svc.repo.QueryRequests(ctx, request.ListFilter{UserID: userID})
}
