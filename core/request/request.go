// Package request holds the approval state machine shared by time-off and meeting requests.
package request

import (
	"github.com/pkg/errors"

	"github.com/infort/rh/core"
)

type Status string

const (
	StatusPending  Status = "PENDENTE"
	StatusApproved Status = "APROVADO"
	StatusDenied   Status = "NEGADO"
)

var (
	// errors
	ErrAlreadyDecided  = core.NewConflictError("request has already been approved or denied")
	errInvalidDecision = errors.New("status must be APROVADO or NEGADO")
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusDenied
}

// Label returns the past participle used in notification messages.
func (s Status) Label() string {
	switch s {
	case StatusApproved:
		return "Aprovada"
	case StatusDenied:
		return "Negada"
	}
	return "Pendente"
}

// Decide validates a transition from current to next.
func Decide(current, next Status) error {
	if !next.IsTerminal() {
		return InvalidDecisionError()
	}
	if current != StatusPending {
		return ErrAlreadyDecided
	}
	return nil
}

// InvalidDecisionError is returned when a status update does not target a terminal status.
func InvalidDecisionError() error {
	return core.NewValidationError(errInvalidDecision, core.FieldError{Field: "status", Error: errInvalidDecision.Error()})
}

// Decision is the payload of a status update.
type Decision struct {
	Status Status `json:"status" validate:"required"`
}

// ListFilter narrows request listings. Zero values match everything.
type ListFilter struct {
	UserID int    `query:"userId"`
	Status Status `query:"status"`
}

func (lf ListFilter) Validate() error {
	if lf.Status != "" && !lf.Status.IsValid() {
		return core.NewValidationError(nil, core.FieldError{Field: "status", Error: "status must be PENDENTE, APROVADO or NEGADO"})
	}
	return nil
}
