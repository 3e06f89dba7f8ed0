package service

import (
	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	msgVisitNotFound      = "visit not found"
	msgInvertedRange      = "end date must not be before start date"
	msgPoolInactive       = "pool is inactive"
	msgTechnicianInactive = "technician is inactive"
	msgTechnicianAbsent   = "technician is unavailable on the visit date"
	msgNotAssigned        = "visit is not assigned to this technician"
	msgTemplateInUse      = "route template has visits; disable it instead"
	msgRouteDateTaken     = "route already has an open visit for this pool on that date"
)

// AbsenceDetail is the error detail describing a blocking absence.
type AbsenceDetail struct {
	ID        uuid.UUID `json:"id"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	Reason    string    `json:"reason"`
}

func errVisitNotFound() error { return apperr.NotFound(msgVisitNotFound) }

func errInvertedRange() error { return apperr.Validation(msgInvertedRange) }

func errTechnicianAbsent(covering []domain.Absence) error {
	details := make([]AbsenceDetail, 0, len(covering))
	for _, a := range covering {
		details = append(details, AbsenceDetail{
			ID:        a.ID,
			StartDate: a.Range.Start.Format(domain.DateLayout),
			EndDate:   a.Range.End.Format(domain.DateLayout),
			Reason:    a.Reason,
		})
	}
	return apperr.Unavailable(msgTechnicianAbsent).WithDetails(details)
}
