// Package homevisit plans the home-visit steps of an application. Planners
// check the status precondition, mutate the application in memory and
// describe what happened; persisting and notifying is the caller's job.
package homevisit

import (
	"fmt"
	"strings"
	"time"

	apperrors "adoption-review/internal/common/errors"
	"adoption-review/internal/models"
)

// Kind names what a planner did.
type Kind string

const (
	KindScheduled     Kind = "scheduled"
	KindRescheduled   Kind = "rescheduled"
	KindCompleted     Kind = "completed"
	KindRecordUpdated Kind = "record_updated"
	KindDateUpdated   Kind = "date_updated"
)

// Outcome describes the effect of a planner on an application.
type Outcome struct {
	Kind          Kind
	FromStatus    models.Status
	ToStatus      models.Status
	StatusChanged bool
	NotifyTitle   string
	NotifyMessage string
}

// DisplayLayout is used when a visit time is shown to people.
const DisplayLayout = "2006-01-02 15:04 MST"

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseVisitTime accepts ISO-8601 date-times with or without seconds,
// fractional seconds and zone, a bare ISO-8601 date (midnight), and
// "YYYY-MM-DD HH:MM". Inputs without a zone are read as UTC. The result is
// always in UTC.
func ParseVisitTime(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, apperrors.NewValidationError("home visit date is required")
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperrors.NewValidationError(
		fmt.Sprintf("invalid home visit date %q: use ISO-8601 or YYYY-MM-DD HH:MM", raw))
}

var (
	schedulable   = statusSet(models.StatusSubmitted, models.StatusDocumentReview, models.StatusHomeVisitScheduled)
	completable   = statusSet(models.StatusHomeVisitScheduled, models.StatusHomeVisitCompleted, models.StatusUnderEvaluation)
	recordEditing = statusSet(models.StatusHomeVisitCompleted, models.StatusUnderEvaluation)
	dateEditing   = statusSet(models.StatusHomeVisitScheduled, models.StatusHomeVisitCompleted, models.StatusUnderEvaluation)
)

// PlanSchedule books the visit at when. Scheduling again while already
// scheduled is a reschedule and keeps the status.
func PlanSchedule(app *models.Application, when time.Time) (Outcome, error) {
	if err := requireStatus(app, schedulable, models.StatusHomeVisitScheduled, "schedule a home visit"); err != nil {
		return Outcome{}, err
	}

	from := app.Status
	when = when.UTC()
	app.HomeVisitDate = &when
	app.Status = models.StatusHomeVisitScheduled

	out := Outcome{
		Kind:          KindScheduled,
		FromStatus:    from,
		ToStatus:      app.Status,
		StatusChanged: from != app.Status,
		NotifyTitle:   "Home visit scheduled",
		NotifyMessage: fmt.Sprintf("Application %s\nHome visit: %s", app.ApplicationID, when.Format(DisplayLayout)),
	}
	if !out.StatusChanged {
		out.Kind = KindRescheduled
		out.NotifyTitle = "Home visit rescheduled"
	}
	return out, nil
}

// PlanCompletion records the visit outcome. Only the first completion moves
// the application to home_visit_completed; later calls edit the record.
func PlanCompletion(app *models.Application, notes, documentRef string) (Outcome, error) {
	if err := requireStatus(app, completable, models.StatusHomeVisitCompleted, "complete the home visit"); err != nil {
		return Outcome{}, err
	}
	notes, err := requireNotes(notes)
	if err != nil {
		return Outcome{}, err
	}

	from := app.Status
	app.HomeVisitNotes = notes
	if documentRef != "" {
		app.HomeVisitDocument = documentRef
	}

	if from != models.StatusHomeVisitScheduled {
		return Outcome{
			Kind:          KindRecordUpdated,
			FromStatus:    from,
			ToStatus:      from,
			NotifyTitle:   "Home visit record updated",
			NotifyMessage: fmt.Sprintf("Application %s\nThe home visit record was updated.", app.ApplicationID),
		}, nil
	}

	app.Status = models.StatusHomeVisitCompleted
	return Outcome{
		Kind:          KindCompleted,
		FromStatus:    from,
		ToStatus:      app.Status,
		StatusChanged: true,
		NotifyTitle:   "Home visit completed",
		NotifyMessage: fmt.Sprintf("Application %s\nYour home visit is complete and the application is being evaluated.", app.ApplicationID),
	}, nil
}

// PlanRecordUpdate edits the notes and, when documentRef is set, the visit
// document of a completed visit. The status never changes.
func PlanRecordUpdate(app *models.Application, notes, documentRef string) (Outcome, error) {
	if err := requireStatus(app, recordEditing, app.Status, "update the home visit record"); err != nil {
		return Outcome{}, err
	}
	notes, err := requireNotes(notes)
	if err != nil {
		return Outcome{}, err
	}

	app.HomeVisitNotes = notes
	if documentRef != "" {
		app.HomeVisitDocument = documentRef
	}
	return Outcome{
		Kind:       KindRecordUpdated,
		FromStatus: app.Status,
		ToStatus:   app.Status,
	}, nil
}

// PlanReschedule moves the recorded visit date without touching the status.
func PlanReschedule(app *models.Application, when time.Time) (Outcome, error) {
	if err := requireStatus(app, dateEditing, app.Status, "change the home visit date"); err != nil {
		return Outcome{}, err
	}

	when = when.UTC()
	app.HomeVisitDate = &when
	return Outcome{
		Kind:          KindDateUpdated,
		FromStatus:    app.Status,
		ToStatus:      app.Status,
		NotifyTitle:   "Home visit time changed",
		NotifyMessage: fmt.Sprintf("Application %s\nNew home visit time: %s", app.ApplicationID, when.Format(DisplayLayout)),
	}, nil
}

func requireStatus(app *models.Application, allowed map[models.Status]bool, target models.Status, action string) error {
	if allowed[app.Status] {
		return nil
	}
	return apperrors.NewInvalidStatusTransitionError(
		string(app.Status), string(target),
		fmt.Sprintf("cannot %s while the application is %s", action, app.Status))
}

func requireNotes(notes string) (string, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return "", apperrors.NewValidationError("home visit notes are required")
	}
	return notes, nil
}

func statusSet(statuses ...models.Status) map[models.Status]bool {
	m := make(map[models.Status]bool, len(statuses))
	for _, s := range statuses {
		m[s] = true
	}
	return m
}
