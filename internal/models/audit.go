package models

import (
	"encoding/json"
	"time"
)

// TimelineEntry records one status change of an application.
type TimelineEntry struct {
	ID            int64     `json:"id"`
	ApplicationID int64     `json:"applicationId"`
	FromStatus    Status    `json:"fromStatus"`
	ToStatus      Status    `json:"toStatus"`
	ChangedBy     int64     `json:"changedBy"`
	Role          Role      `json:"role"`
	Reason        string    `json:"reason,omitempty"`
	AutoGenerated bool      `json:"autoGenerated"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Audit actions.
const (
	ActionApplicationCreated = "application_created"
	ActionDraftUpdated       = "draft_updated"
	ActionStatusChanged      = "status_changed"
	ActionDocumentUploaded   = "document_uploaded"
	ActionDocumentsRequested = "documents_requested"
	ActionVisitRescheduled   = "home_visit_rescheduled"
	ActionVisitRecordUpdated = "home_visit_record_updated"
	ActionPetAdopted         = "pet_adopted"
)

// AuditLogEntry is the compliance record of any change, including edits that
// leave the status untouched.
type AuditLogEntry struct {
	ID            int64           `json:"id"`
	ApplicationID int64           `json:"applicationId"`
	Action        string          `json:"action"`
	EntityType    string          `json:"entityType"`
	EntityID      int64           `json:"entityId"`
	UserID        int64           `json:"userId"`
	UserRole      Role            `json:"userRole"`
	OldValues     json.RawMessage `json:"oldValues,omitempty"`
	NewValues     json.RawMessage `json:"newValues,omitempty"`
	Summary       string          `json:"summary,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt"`
}
