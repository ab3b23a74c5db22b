package sqlxrepos

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/event"
)

type eventRepository struct {
	baseRepository
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(exec core.DBExecutor) *eventRepository {
	return &eventRepository{baseRepository{exec: exec}}
}

func (repo eventRepository) CreateEvent(ctx context.Context, evt event.Event, exec ...core.DBExecutor) (event.Event, error) {
	id, err := insertReturningID(ctx, repo.getExec(exec),
		"INSERT INTO events (title, description, date_time, created_at) VALUES (?, ?, ?, ?)",
		evt.Title, evt.Description, evt.DateTime.UTC(), evt.CreatedAt.UTC(),
	)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "inserting event")
	}
	evt.ID = id
	return evt, nil
}

func (repo eventRepository) AddParticipants(ctx context.Context, eventID int, userIDs []int, exec ...core.DBExecutor) error {
	db := repo.getExec(exec)
	query := db.Rebind("INSERT INTO event_participants (event_id, user_id) VALUES (?, ?)")
	for _, uid := range userIDs {
		if _, err := db.ExecContext(ctx, query, eventID, uid); err != nil {
			return errors.Wrap(err, "inserting event participant")
		}
	}
	return nil
}

func (repo eventRepository) QueryEvents(ctx context.Context, filter event.ListFilter, exec ...core.DBExecutor) ([]event.Event, error) {
	var (
		conds []string
		args  []interface{}
	)
	query := "SELECT e.id, e.title, e.description, e.date_time, e.created_at FROM events e"
	if filter.UserID != 0 {
		query += " JOIN event_participants ep ON ep.event_id = e.id"
		conds = append(conds, "ep.user_id = ?")
		args = append(args, filter.UserID)
	}
	if !filter.From.IsZero() {
		conds = append(conds, "e.date_time >= ?")
		args = append(args, filter.From.UTC())
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY e.date_time, e.id"

	evts := make([]event.Event, 0)
	if err := sel(ctx, repo.getExec(exec), &evts, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	return evts, nil
}

func (repo eventRepository) QueryParticipants(ctx context.Context, eventIDs []int, exec ...core.DBExecutor) ([]event.Participant, error) {
	parts := make([]event.Participant, 0)
	if len(eventIDs) == 0 {
		return parts, nil
	}
	err := selIn(ctx, repo.getExec(exec), &parts,
		`SELECT ep.event_id, ep.user_id, u.name AS user_name
		FROM event_participants ep JOIN users u ON u.id = ep.user_id
		WHERE ep.event_id IN (?) ORDER BY ep.event_id, u.name`,
		eventIDs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying event participants")
	}
	return parts, nil
}
