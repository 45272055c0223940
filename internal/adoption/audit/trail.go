// Package audit appends the timeline and audit log of an application and
// exports the timeline to the compliance search index.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"adoption-review/internal/adoption/store"
	"adoption-review/internal/adoption/transition"
	"adoption-review/internal/models"
)

// ErrSameState is returned by Record for a change that keeps the status.
var ErrSameState = errors.New("audit: status unchanged, record an edit instead")

const entityApplication = "adoption_application"

// Change is a status change to record.
type Change struct {
	ApplicationID int64
	From          models.Status
	To            models.Status
	ActorID       int64
	Role          models.Role
	Reason        string
	Auto          bool
}

// Edit is a change that leaves the status untouched.
type Edit struct {
	ApplicationID int64
	Action        string
	ActorID       int64
	Role          models.Role
	Old           interface{}
	New           interface{}
	Summary       string
}

// Trail writes timeline and audit rows inside the caller's transaction.
type Trail struct {
	now func() time.Time
}

// NewTrail returns a Trail stamping rows with now.
func NewTrail(now func() time.Time) *Trail {
	if now == nil {
		now = time.Now
	}
	return &Trail{now: now}
}

// Record appends exactly one timeline entry and one status_changed audit row.
func (t *Trail) Record(ctx context.Context, tx store.Tx, c Change) (*models.TimelineEntry, error) {
	if c.From == c.To {
		return nil, ErrSameState
	}

	at := t.now().UTC()
	entry := &models.TimelineEntry{
		ApplicationID: c.ApplicationID,
		FromStatus:    c.From,
		ToStatus:      c.To,
		ChangedBy:     c.ActorID,
		Role:          c.Role,
		Reason:        c.Reason,
		AutoGenerated: c.Auto,
		OccurredAt:    at,
	}
	if err := tx.InsertTimelineEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert timeline entry: %w", err)
	}

	summary := fmt.Sprintf("status changed from %s to %s", c.From, c.To)
	if c.Reason != "" {
		summary += ": " + c.Reason
	}
	err := t.insertAudit(ctx, tx, at, Edit{
		ApplicationID: c.ApplicationID,
		Action:        models.ActionStatusChanged,
		ActorID:       c.ActorID,
		Role:          c.Role,
		Old:           map[string]models.Status{"status": c.From},
		New:           map[string]models.Status{"status": c.To},
		Summary:       summary,
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RecordEdit appends an audit row only.
func (t *Trail) RecordEdit(ctx context.Context, tx store.Tx, e Edit) error {
	if e.Action == "" {
		return errors.New("audit: edit action is required")
	}
	return t.insertAudit(ctx, tx, t.now().UTC(), e)
}

func (t *Trail) insertAudit(ctx context.Context, tx store.Tx, at time.Time, e Edit) error {
	oldJSON, err := marshalValues(e.Old)
	if err != nil {
		return fmt.Errorf("encode old values: %w", err)
	}
	newJSON, err := marshalValues(e.New)
	if err != nil {
		return fmt.Errorf("encode new values: %w", err)
	}

	row := &models.AuditLogEntry{
		ApplicationID: e.ApplicationID,
		Action:        e.Action,
		EntityType:    entityApplication,
		EntityID:      e.ApplicationID,
		UserID:        e.ActorID,
		UserRole:      e.Role,
		OldValues:     oldJSON,
		NewValues:     newJSON,
		Summary:       e.Summary,
		OccurredAt:    at,
	}
	if err := tx.InsertAuditLog(ctx, row); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func marshalValues(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}

// VerifyWalk checks that entries, in order, form a walk of the status graph
// that starts at draft and never repeats a status in place.
func VerifyWalk(entries []models.TimelineEntry) error {
	prev := models.StatusDraft
	for i, e := range entries {
		if e.FromStatus != prev {
			return fmt.Errorf("entry %d starts at %s, expected %s", i, e.FromStatus, prev)
		}
		if e.FromStatus == e.ToStatus {
			return fmt.Errorf("entry %d does not change status (%s)", i, e.FromStatus)
		}
		if _, ok := transition.Lookup(e.FromStatus, e.ToStatus); !ok {
			return fmt.Errorf("entry %d: %s -> %s is not an allowed transition", i, e.FromStatus, e.ToStatus)
		}
		prev = e.ToStatus
	}
	return nil
}
