package homevisit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "adoption-review/internal/common/errors"
	"adoption-review/internal/models"
)

// ==========================
// ParseVisitTime
// ==========================

func TestParseVisitTime(t *testing.T) {
	want := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"iso with seconds", "2025-12-01T10:00:00", want},
		{"iso without seconds", "2025-12-01T10:00", want},
		{"iso utc designator", "2025-12-01T10:00:00Z", want},
		{"iso minutes with designator", "2025-12-01T10:00Z", want},
		{"iso with offset", "2025-12-01T18:00:00+08:00", want},
		{"fractional seconds", "2025-12-01T10:00:00.250", want.Add(250 * time.Millisecond)},
		{"space separated", "2025-12-01 10:00", want},
		{"surrounding whitespace", "  2025-12-01 10:00 ", want},
		{"date only is midnight", "2025-12-01", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVisitTime(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseVisitTime_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "tomorrow", "2025-13-01T10:00", "2025-02-30 10:00", "01/12/2025 10:00", "2025-12-32", "2025-12"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseVisitTime(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
		})
	}
}

// ==========================
// Planners
// ==========================

func newApp(status models.Status) *models.Application {
	return &models.Application{ID: 1, ApplicationID: "APP20251201CAFEBABE", Status: status}
}

func TestPlanSchedule(t *testing.T) {
	when := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

	for _, from := range []models.Status{models.StatusSubmitted, models.StatusDocumentReview} {
		t.Run(string(from), func(t *testing.T) {
			app := newApp(from)
			out, err := PlanSchedule(app, when)
			require.NoError(t, err)

			assert.Equal(t, KindScheduled, out.Kind)
			assert.True(t, out.StatusChanged)
			assert.Equal(t, from, out.FromStatus)
			assert.Equal(t, models.StatusHomeVisitScheduled, app.Status)
			require.NotNil(t, app.HomeVisitDate)
			assert.True(t, when.Equal(*app.HomeVisitDate))
			assert.Contains(t, out.NotifyMessage, "2025-12-01 10:00")
		})
	}
}

func TestPlanSchedule_AgainIsReschedule(t *testing.T) {
	app := newApp(models.StatusHomeVisitScheduled)
	out, err := PlanSchedule(app, time.Date(2025, 12, 2, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, KindRescheduled, out.Kind)
	assert.False(t, out.StatusChanged)
	assert.Equal(t, models.StatusHomeVisitScheduled, app.Status)
}

func TestPlanSchedule_WrongStatus(t *testing.T) {
	for _, from := range []models.Status{models.StatusDraft, models.StatusHomeVisitCompleted, models.StatusApproved} {
		app := newApp(from)
		_, err := PlanSchedule(app, time.Now())
		assert.True(t, errors.Is(err, apperrors.ErrInvalidStatusTransition), from)
		assert.Equal(t, from, app.Status)
		assert.Nil(t, app.HomeVisitDate)
	}
}

func TestPlanCompletion_FirstCompletionAdvances(t *testing.T) {
	app := newApp(models.StatusHomeVisitScheduled)
	out, err := PlanCompletion(app, "  tidy flat, fenced balcony ", "home_visit_document/2025/12/01/x_report.pdf")
	require.NoError(t, err)

	assert.Equal(t, KindCompleted, out.Kind)
	assert.True(t, out.StatusChanged)
	assert.Equal(t, models.StatusHomeVisitCompleted, app.Status)
	assert.Equal(t, "tidy flat, fenced balcony", app.HomeVisitNotes)
	assert.Equal(t, "home_visit_document/2025/12/01/x_report.pdf", app.HomeVisitDocument)
}

func TestPlanCompletion_LaterCallsAreEdits(t *testing.T) {
	for _, from := range []models.Status{models.StatusHomeVisitCompleted, models.StatusUnderEvaluation} {
		t.Run(string(from), func(t *testing.T) {
			app := newApp(from)
			app.HomeVisitDocument = "old-report"

			out, err := PlanCompletion(app, "second look", "")
			require.NoError(t, err)
			assert.Equal(t, KindRecordUpdated, out.Kind)
			assert.False(t, out.StatusChanged)
			assert.Equal(t, from, app.Status)
			assert.Equal(t, "second look", app.HomeVisitNotes)
			assert.Equal(t, "old-report", app.HomeVisitDocument)
		})
	}
}

func TestPlanCompletion_RequiresNotes(t *testing.T) {
	app := newApp(models.StatusHomeVisitScheduled)
	_, err := PlanCompletion(app, "   ", "")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Equal(t, models.StatusHomeVisitScheduled, app.Status)
}

func TestPlanCompletion_WrongStatus(t *testing.T) {
	app := newApp(models.StatusSubmitted)
	_, err := PlanCompletion(app, "notes", "")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStatusTransition))
}

func TestPlanRecordUpdate(t *testing.T) {
	app := newApp(models.StatusUnderEvaluation)
	app.HomeVisitDocument = "keep-me"

	out, err := PlanRecordUpdate(app, "amended", "")
	require.NoError(t, err)
	assert.Equal(t, KindRecordUpdated, out.Kind)
	assert.False(t, out.StatusChanged)
	assert.Equal(t, "amended", app.HomeVisitNotes)
	assert.Equal(t, "keep-me", app.HomeVisitDocument)

	_, err = PlanRecordUpdate(app, "amended again", "new-doc")
	require.NoError(t, err)
	assert.Equal(t, "new-doc", app.HomeVisitDocument)

	_, err = PlanRecordUpdate(newApp(models.StatusHomeVisitScheduled), "too early", "")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStatusTransition))
}

func TestPlanReschedule(t *testing.T) {
	when := time.Date(2025, 12, 5, 14, 30, 0, 0, time.UTC)

	for _, from := range []models.Status{models.StatusHomeVisitScheduled, models.StatusHomeVisitCompleted, models.StatusUnderEvaluation} {
		app := newApp(from)
		out, err := PlanReschedule(app, when)
		require.NoError(t, err, from)
		assert.Equal(t, KindDateUpdated, out.Kind)
		assert.False(t, out.StatusChanged)
		assert.Equal(t, from, app.Status)
		assert.True(t, when.Equal(*app.HomeVisitDate))
		assert.Contains(t, out.NotifyMessage, "2025-12-05 14:30")
	}

	_, err := PlanReschedule(newApp(models.StatusSubmitted), when)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStatusTransition))
}
