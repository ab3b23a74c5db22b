package payslip

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/user"
)

var (
	// errors
	ErrNotFound  = core.NewNotFoundError("payslip not found")
	ErrDuplicate = core.NewConflictError("a payslip for this employee and period already exists")
)

type Payslip struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"userId" db:"user_id"`
	UserName  string    `json:"userName" db:"user_name"`
	Month     int       `json:"month" db:"month"`
	Year      int       `json:"year" db:"year"`
	FileURL   string    `json:"fileUrl" db:"file_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// NewPayslip is the metadata of an uploaded payslip, sent as multipart form fields.
type NewPayslip struct {
	UserID int `form:"userId" json:"userId" validate:"required,gt=0"`
	Month  int `form:"month" json:"month" validate:"required,min=1,max=12"`
	Year   int `form:"year" json:"year" validate:"required,min=1900,max=9999"`
}

func (np NewPayslip) Validate(validate *validator.Validate) error {
	return validate.Struct(np)
}

type ListFilter struct {
	UserID int `query:"userId"`
}

type (
	Repository interface {
		// CreatePayslip fails with ErrDuplicate when the period is already taken.
		CreatePayslip(ctx context.Context, ps Payslip, exec ...core.DBExecutor) (Payslip, error)
		GetPayslip(ctx context.Context, id int, exec ...core.DBExecutor) (Payslip, error)
		// QueryPayslips returns payslips newest period first.
		QueryPayslips(ctx context.Context, filter ListFilter, exec ...core.DBExecutor) ([]Payslip, error)
	}

	UserLookup interface {
		GetByID(ctx context.Context, id int) (user.User, error)
	}

	Service struct {
		repo  Repository
		users UserLookup
		files core.FileStore
	}
)

func NewService(repo Repository, users UserLookup, files core.FileStore) *Service {
	return &Service{repo: repo, users: users, files: files}
}

// Upload stores the payslip file of an employee for a month.
// Nothing is left behind when the period already has a payslip.
func (svc *Service) Upload(ctx context.Context, np NewPayslip, file core.Upload) (Payslip, error) {
	if np.Month < 1 || np.Month > 12 {
		return Payslip{}, core.NewValidationError(nil, core.FieldError{Field: "month", Error: "month must be between 1 and 12"})
	}
	employee, err := svc.users.GetByID(ctx, np.UserID)
	if err != nil {
		return Payslip{}, err
	}

	name := fmt.Sprintf("payslip-%d-%04d-%02d-%s.pdf", employee.ID, np.Year, np.Month, uuid.NewString())
	ref, err := svc.files.Save(ctx, core.BucketPayslips, name, file.Content)
	if err != nil {
		return Payslip{}, errors.Wrap(err, "saving payslip file")
	}

	ps, err := svc.repo.CreatePayslip(ctx, Payslip{
		UserID:    employee.ID,
		Month:     np.Month,
		Year:      np.Year,
		FileURL:   ref,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		_ = svc.files.Remove(ref)
		return Payslip{}, err
	}
	ps.UserName = employee.Name
	return ps, nil
}

func (svc *Service) List(ctx context.Context, filter ListFilter) ([]Payslip, error) {
	return svc.repo.QueryPayslips(ctx, filter)
}

func (svc *Service) ListFor(ctx context.Context, userID int) ([]Payslip, error) {
	return svc.repo.QueryPayslips(ctx, ListFilter{UserID: userID})
}

// Open returns the payslip file to its owner or to HR.
// A record whose file is gone fails with core.ErrFileMissing.
func (svc *Service) Open(ctx context.Context, requester user.User, id int) (io.ReadCloser, string, error) {
	ps, err := svc.repo.GetPayslip(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if ps.UserID != requester.ID && !requester.IsHR() {
		return nil, "", core.ErrPermissionDenied
	}
	rc, err := svc.files.Open(ps.FileURL)
	if err != nil {
		return nil, "", err
	}
	return rc, path.Base(ps.FileURL), nil
}
