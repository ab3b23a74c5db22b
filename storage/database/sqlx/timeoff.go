package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/request"
	"github.com/infort/rh/core/timeoff"
)

const timeOffSelect = `SELECT r.id, r.user_id, u.name AS user_name, r.type, r.start_date, r.end_date,
	r.justification, r.medical_certificate_url, r.status, r.created_at, r.updated_at
	FROM time_off_requests r JOIN users u ON u.id = r.user_id`

type timeOffRepository struct {
	baseRepository
}

var _ timeoff.Repository = (*timeOffRepository)(nil) // interface compliance check

func NewTimeOffRepository(exec core.DBExecutor) *timeOffRepository {
	return &timeOffRepository{baseRepository{exec: exec}}
}

func (repo timeOffRepository) CreateRequest(ctx context.Context, req timeoff.Request, exec ...core.DBExecutor) (timeoff.Request, error) {
	id, err := insertReturningID(ctx, repo.getExec(exec),
		`INSERT INTO time_off_requests
		(user_id, type, start_date, end_date, justification, medical_certificate_url, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.UserID, req.Type, req.StartDate.UTC(), req.EndDate.UTC(), req.Justification, req.MedicalCertificateURL,
		req.Status, req.CreatedAt.UTC(), req.UpdatedAt.UTC(),
	)
	if err != nil {
		return timeoff.Request{}, errors.Wrap(err, "inserting time-off request")
	}
	req.ID = id
	return req, nil
}

func (repo timeOffRepository) GetRequest(ctx context.Context, id int, exec ...core.DBExecutor) (timeoff.Request, error) {
	var req timeoff.Request
	if err := get(ctx, repo.getExec(exec), &req, timeOffSelect+" WHERE r.id = ?", id); err != nil {
		return timeoff.Request{}, trapNoRowsErr(err, timeoff.ErrNotFound, "getting time-off request")
	}
	return req, nil
}

func (repo timeOffRepository) QueryRequests(ctx context.Context, filter request.ListFilter, exec ...core.DBExecutor) ([]timeoff.Request, error) {
	where, args := requestFilter("r", filter)
	reqs := make([]timeoff.Request, 0)
	if err := sel(ctx, repo.getExec(exec), &reqs, timeOffSelect+where+" ORDER BY r.created_at, r.id", args...); err != nil {
		return nil, errors.Wrap(err, "querying time-off requests")
	}
	return reqs, nil
}

func (repo timeOffRepository) SetRequestStatus(ctx context.Context, id int, from, to request.Status, at time.Time, exec ...core.DBExecutor) (bool, error) {
	return setStatus(ctx, repo.getExec(exec), "time_off_requests", id, from, to, at.UTC())
}

// requestFilter builds the WHERE clause shared by request listings.
func requestFilter(alias string, filter request.ListFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.UserID != 0 {
		conds = append(conds, alias+".user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conds = append(conds, alias+".status = ?")
		args = append(args, filter.Status)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
