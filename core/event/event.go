package event

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/notification"
)

var errNoParticipants = errors.New("at least one participant is required")

type Event struct {
	ID           int           `json:"id" db:"id"`
	Title        string        `json:"title" db:"title"`
	Description  string        `json:"description" db:"description"`
	DateTime     time.Time     `json:"dateTime" db:"date_time"` // UTC
	CreatedAt    time.Time     `json:"createdAt" db:"created_at"`
	Participants []Participant `json:"participants,omitempty" db:"-"`
}

type Participant struct {
	EventID  int    `json:"-" db:"event_id"`
	UserID   int    `json:"userId" db:"user_id"`
	UserName string `json:"userName" db:"user_name"`
}

type NewEvent struct {
	Title          string `json:"title" validate:"required"`
	Description    string `json:"description" validate:"required"`
	DateTime       string `json:"dateTime" validate:"required,datetime_any"`
	ParticipantIDs []int  `json:"participantIds" validate:"required,min=1,dive,gt=0"`
}

func (ne *NewEvent) Clean() {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)

	// dedupe, keeping the first occurrence order
	seen := make(map[int]bool, len(ne.ParticipantIDs))
	ids := ne.ParticipantIDs[:0]
	for _, id := range ne.ParticipantIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	ne.ParticipantIDs = ids
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Clean()
	return validate.Struct(ne)
}

type ListFilter struct {
	UserID int       // participant
	From   time.Time // inclusive, zero means no lower bound
}

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt Event, exec ...core.DBExecutor) (Event, error)
		AddParticipants(ctx context.Context, eventID int, userIDs []int, exec ...core.DBExecutor) error
		// QueryEvents returns the events matching filter ordered by date.
		QueryEvents(ctx context.Context, filter ListFilter, exec ...core.DBExecutor) ([]Event, error)
		QueryParticipants(ctx context.Context, eventIDs []int, exec ...core.DBExecutor) ([]Participant, error)
	}

	UserDirectory interface {
		MissingIDs(ctx context.Context, ids []int, exec ...core.DBExecutor) ([]int, error)
	}

	Notifier interface {
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

// Create schedules an event and invites its participants, who must all exist.
func (svc *Service) Create(ctx context.Context, ne NewEvent) (Event, error) {
	ne.Clean()
	if ne.Title == "" {
		return Event{}, core.NewValidationError(nil, core.FieldError{Field: "title", Error: "this field is required"})
	}
	if ne.Description == "" {
		return Event{}, core.NewValidationError(nil, core.FieldError{Field: "description", Error: "this field is required"})
	}
	when, ok := core.ParseDateTime(ne.DateTime)
	if !ok {
		return Event{}, core.NewValidationError(nil, core.FieldError{Field: "dateTime", Error: "dateTime must be a valid date"})
	}
	if len(ne.ParticipantIDs) == 0 {
		return Event{}, core.NewValidationError(errNoParticipants, core.FieldError{Field: "participantIds", Error: errNoParticipants.Error()})
	}

	evt := Event{Title: ne.Title, Description: ne.Description, DateTime: when, CreatedAt: time.Now().UTC()}
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		missing, err := svc.users.MissingIDs(ctx, ne.ParticipantIDs, tx)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			msg := "unknown participants: " + joinInts(missing)
			return core.NewValidationError(nil, core.FieldError{Field: "participantIds", Error: msg})
		}

		if evt, err = svc.repo.CreateEvent(ctx, evt, tx); err != nil {
			return errors.Wrap(err, "creating event")
		}
		if err = svc.repo.AddParticipants(ctx, evt.ID, ne.ParticipantIDs, tx); err != nil {
			return errors.Wrap(err, "adding participants")
		}
		msg := fmt.Sprintf("Você foi convidado para o evento: %s", evt.Title)
		return svc.notifier.FanOut(ctx, ne.ParticipantIDs, msg, notification.LinkMyEvents, tx)
	})
	if err != nil {
		return Event{}, err
	}
	return svc.withParticipants(ctx, evt)
}

// List returns every event with its participants.
func (svc *Service) List(ctx context.Context) ([]Event, error) {
	evts, err := svc.repo.QueryEvents(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}
	if len(evts) == 0 {
		return evts, nil
	}

	ids := make([]int, len(evts))
	for i, evt := range evts {
		ids[i] = evt.ID
	}
	parts, err := svc.repo.QueryParticipants(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "querying participants")
	}
	byEvent := make(map[int][]Participant, len(evts))
	for _, p := range parts {
		byEvent[p.EventID] = append(byEvent[p.EventID], p)
	}
	for i := range evts {
		evts[i].Participants = byEvent[evts[i].ID]
	}
	return evts, nil
}

// ListFor returns the events userID takes part in, soonest first.
func (svc *Service) ListFor(ctx context.Context, userID int, upcomingOnly bool) ([]Event, error) {
	filter := ListFilter{UserID: userID}
	if upcomingOnly {
		filter.From = time.Now().UTC()
	}
	return svc.repo.QueryEvents(ctx, filter)
}

func (svc *Service) withParticipants(ctx context.Context, evt Event) (Event, error) {
	parts, err := svc.repo.QueryParticipants(ctx, []int{evt.ID})
	if err != nil {
		return Event{}, errors.Wrap(err, "querying participants")
	}
	evt.Participants = parts
	return evt, nil
}

func joinInts(ids []int) string {
	sort.Ints(ids)
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = strconv.Itoa(id)
	}
	return strings.Join(strs, ", ")
}
