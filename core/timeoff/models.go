package timeoff

import (
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/request"
)

type Type string

const (
	TypeVacation     Type = "FERIAS"
	TypeMedicalLeave Type = "LICENCA_MEDICA"
	TypeOther        Type = "OUTRO"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeVacation, TypeMedicalLeave, TypeOther:
		return true
	}
	return false
}

// Label is the human readable name of t.
func (t Type) Label() string {
	switch t {
	case TypeVacation:
		return "Férias"
	case TypeMedicalLeave:
		return "Licença médica"
	}
	return "Outro"
}

var errDateRange = errors.New("endDate must not be before startDate")

type Request struct {
	ID                    int            `json:"id" db:"id"`
	UserID                int            `json:"userId" db:"user_id"`
	UserName              string         `json:"userName" db:"user_name"`
	Type                  Type           `json:"type" db:"type"`
	StartDate             time.Time      `json:"startDate" db:"start_date"` // UTC midnight
	EndDate               time.Time      `json:"endDate" db:"end_date"`     // UTC midnight
	Justification         null.String    `json:"justification" db:"justification"`
	MedicalCertificateURL null.String    `json:"medicalCertificateUrl" db:"medical_certificate_url"`
	Status                request.Status `json:"status" db:"status"`
	CreatedAt             time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt             time.Time      `json:"updatedAt" db:"updated_at"`
}

// NewRequest is the payload of a time-off submission, sent as JSON or as a multipart form.
type NewRequest struct {
	Type          Type   `json:"type" form:"type" validate:"required,timeofftype"`
	StartDate     string `json:"startDate" form:"startDate" validate:"required,datetime_any"`
	EndDate       string `json:"endDate" form:"endDate" validate:"required,datetime_any"`
	Justification string `json:"justification" form:"justification"`
}

func (nr *NewRequest) Clean() {
	nr.Justification = core.CleanString(nr.Justification)
}

// period parses and checks the requested dates.
func (nr NewRequest) period() (start, end time.Time, err error) {
	start, okStart := core.ParseDateTime(nr.StartDate)
	end, okEnd := core.ParseDateTime(nr.EndDate)
	switch {
	case !okStart:
		return start, end, core.NewValidationError(nil, core.FieldError{Field: "startDate", Error: "startDate must be a valid date"})
	case !okEnd:
		return start, end, core.NewValidationError(nil, core.FieldError{Field: "endDate", Error: "endDate must be a valid date"})
	}
	start, end = truncateDay(start), truncateDay(end)
	if start.After(end) {
		return start, end, core.NewValidationError(errDateRange, core.FieldError{Field: "endDate", Error: errDateRange.Error()})
	}
	return start, end, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
