package timeoff

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/notification"
	"github.com/infort/rh/core/request"
	"github.com/infort/rh/core/user"
)

var (
	// errors
	ErrNotFound            = core.NewNotFoundError("time-off request not found")
	ErrCertificateNotFound = core.NewNotFoundError("medical certificate not found")
)

type (
	Repository interface {
		CreateRequest(ctx context.Context, req Request, exec ...core.DBExecutor) (Request, error)
		GetRequest(ctx context.Context, id int, exec ...core.DBExecutor) (Request, error)
		// QueryRequests returns the requests matching filter, oldest first.
		QueryRequests(ctx context.Context, filter request.ListFilter, exec ...core.DBExecutor) ([]Request, error)
		// SetRequestStatus moves a request from one status to another and reports whether it did.
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
		files    core.FileStore
	}
)

func NewService(db core.DB, repo Repository, users UserDirectory, notifier Notifier, files core.FileStore) *Service {
	return &Service{db: db, repo: repo, users: users, notifier: notifier, files: files}
}

// Submit stores a pending request for requester (with its optional medical certificate)
// and notifies every HR user.
func (svc *Service) Submit(ctx context.Context, requester user.User, nr NewRequest, cert *core.Upload) (Request, error) {
	nr.Clean()
	if !nr.Type.IsValid() {
		return Request{}, core.NewValidationError(nil, core.FieldError{Field: "type", Error: typeText})
	}
	start, end, err := nr.period()
	if err != nil {
		return Request{}, err
	}

	now := time.Now().UTC()
	req := Request{
		UserID:    requester.ID,
		UserName:  requester.Name,
		Type:      nr.Type,
		StartDate: start,
		EndDate:   end,
		Status:    request.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nr.Justification != "" {
		req.Justification = null.StringFrom(nr.Justification)
	}

	if cert != nil {
		name := fmt.Sprintf("certificate-%d-%s%s", requester.ID, uuid.NewString(), path.Ext(cert.Filename))
		ref, err := svc.files.Save(ctx, core.BucketMedicalCertificates, name, cert.Content)
		if err != nil {
			return Request{}, errors.Wrap(err, "saving medical certificate")
		}
		req.MedicalCertificateURL = null.StringFrom(ref)
	}

	err = core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if req, err = svc.repo.CreateRequest(ctx, req, tx); err != nil {
			return errors.Wrap(err, "creating time-off request")
		}
		hrIDs, err := svc.users.HRUserIDs(ctx, tx)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("Nova solicitação de folga de %s.", requester.Name)
		return svc.notifier.FanOut(ctx, hrIDs, msg, notification.LinkManageTimeOff, tx)
	})
	if err != nil {
		if req.MedicalCertificateURL.Valid {
			_ = svc.files.Remove(req.MedicalCertificateURL.String)
		}
		return Request{}, err
	}
	req.UserName = requester.Name
	return req, nil
}

// UpdateStatus approves or denies a pending request and notifies its requester.
// A request that was already decided fails with request.ErrAlreadyDecided.
func (svc *Service) UpdateStatus(ctx context.Context, id int, next request.Status) (Request, error) {
	if !next.IsTerminal() {
		return Request{}, request.InvalidDecisionError()
	}

	var req Request
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		changed, err := svc.repo.SetRequestStatus(ctx, id, request.StatusPending, next, time.Now().UTC(), tx)
		if err != nil {
			return errors.Wrap(err, "updating time-off request status")
		}
		if req, err = svc.repo.GetRequest(ctx, id, tx); err != nil {
			return err
		}
		if !changed {
			if err = request.Decide(req.Status, next); err == nil {
				err = request.ErrAlreadyDecided // lost the race to another update
			}
			return err
		}

		msg := fmt.Sprintf(
			"Sua solicitação de folga de %s a %s foi %s.",
			core.FormatDateBR(req.StartDate), core.FormatDateBR(req.EndDate), next.Label(),
		)
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

// OpenCertificate returns the medical certificate of a request to its owner or to HR.
func (svc *Service) OpenCertificate(ctx context.Context, requester user.User, id int) (io.ReadCloser, string, error) {
	req, err := svc.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if req.UserID != requester.ID && !requester.IsHR() {
		return nil, "", core.ErrPermissionDenied
	}
	if !req.MedicalCertificateURL.Valid {
		return nil, "", ErrCertificateNotFound
	}
	rc, err := svc.files.Open(req.MedicalCertificateURL.String)
	if err != nil {
		return nil, "", err
	}
	return rc, path.Base(req.MedicalCertificateURL.String), nil
}
