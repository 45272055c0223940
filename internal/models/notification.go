package models

import "time"

// NotificationType groups notifications in the user's inbox.
type NotificationType string

const (
	NotificationApplicationStatus NotificationType = "application_status"
	NotificationReminder          NotificationType = "reminder"
	NotificationSystem            NotificationType = "system"
)

// Notification is a message to one user about one application. ID is the
// idempotency identity: redelivering the same ID must not notify twice.
type Notification struct {
	ID        string           `json:"id"`
	UserID    int64            `json:"userId"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Link      string           `json:"link,omitempty"`
	Type      NotificationType `json:"type"`
	RelatedID int64            `json:"relatedId"`
	Urgent    bool             `json:"urgent,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Contact is how a user can be reached outside the in-app inbox.
type Contact struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
}
