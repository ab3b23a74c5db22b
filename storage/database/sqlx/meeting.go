package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/meeting"
	"github.com/infort/rh/core/request"
)

const meetingSelect = `SELECT m.id, m.user_id, u.name AS user_name, m.topic, m.preferred_date_time,
	m.status, m.created_at, m.updated_at
	FROM meeting_requests m JOIN users u ON u.id = m.user_id`

type meetingRepository struct {
	baseRepository
}

var _ meeting.Repository = (*meetingRepository)(nil) // interface compliance check

func NewMeetingRepository(exec core.DBExecutor) *meetingRepository {
	return &meetingRepository{baseRepository{exec: exec}}
}

func (repo meetingRepository) CreateRequest(ctx context.Context, req meeting.Request, exec ...core.DBExecutor) (meeting.Request, error) {
	id, err := insertReturningID(ctx, repo.getExec(exec),
		`INSERT INTO meeting_requests (user_id, topic, preferred_date_time, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		req.UserID, req.Topic, req.PreferredDateTime.UTC(), req.Status, req.CreatedAt.UTC(), req.UpdatedAt.UTC(),
	)
	if err != nil {
		return meeting.Request{}, errors.Wrap(err, "inserting meeting request")
	}
	req.ID = id
	return req, nil
}

func (repo meetingRepository) GetRequest(ctx context.Context, id int, exec ...core.DBExecutor) (meeting.Request, error) {
	var req meeting.Request
	if err := get(ctx, repo.getExec(exec), &req, meetingSelect+" WHERE m.id = ?", id); err != nil {
		return meeting.Request{}, trapNoRowsErr(err, meeting.ErrNotFound, "getting meeting request")
	}
	return req, nil
}

func (repo meetingRepository) QueryRequests(ctx context.Context, filter request.ListFilter, exec ...core.DBExecutor) ([]meeting.Request, error) {
	where, args := requestFilter("m", filter)
	reqs := make([]meeting.Request, 0)
	if err := sel(ctx, repo.getExec(exec), &reqs, meetingSelect+where+" ORDER BY m.created_at, m.id", args...); err != nil {
		return nil, errors.Wrap(err, "querying meeting requests")
	}
	return reqs, nil
}

func (repo meetingRepository) SetRequestStatus(ctx context.Context, id int, from, to request.Status, at time.Time, exec ...core.DBExecutor) (bool, error) {
	return setStatus(ctx, repo.getExec(exec), "meeting_requests", id, from, to, at.UTC())
}
