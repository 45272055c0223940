// Package notify delivers application notifications after a transaction
// commits: an inbox row always, plus email and, for urgent messages, SMS.
// Delivery is at-least-once and deduplicated on the notification ID.
package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"adoption-review/internal/common/logger"
	"adoption-review/internal/common/metrics"
	"adoption-review/internal/models"
)

// EmailSender delivers one email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers one text message.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) error
}

// ContactDirectory resolves how to reach a user outside the inbox.
type ContactDirectory interface {
	Contact(ctx context.Context, userID int64) (*models.Contact, error)
}

// Config tunes the dispatcher.
type Config struct {
	DedupeTTL time.Duration
	KeyPrefix string
	LinkBase  string
}

// Dispatcher implements the post-commit notifier.
type Dispatcher struct {
	db       *sql.DB
	dedupe   redis.Cmdable
	email    EmailSender
	sms      SMSSender
	contacts ContactDirectory
	cfg      Config
	logger   logger.Logger
	metrics  *metrics.Metrics
}

// Option configures optional channels.
type Option func(*Dispatcher)

// WithEmail enables the email channel.
func WithEmail(s EmailSender) Option {
	return func(d *Dispatcher) { d.email = s }
}

// WithSMS enables the SMS channel for urgent notifications.
func WithSMS(s SMSSender) Option {
	return func(d *Dispatcher) { d.sms = s }
}

// WithContacts sets the directory used by the email and SMS channels.
func WithContacts(c ContactDirectory) Option {
	return func(d *Dispatcher) { d.contacts = c }
}

// WithDedupe enables Redis deduplication of redelivered notifications.
func WithDedupe(r redis.Cmdable) Option {
	return func(d *Dispatcher) { d.dedupe = r }
}

// NewDispatcher returns a dispatcher writing inbox rows to db.
func NewDispatcher(db *sql.DB, cfg Config, log logger.Logger, m *metrics.Metrics, opts ...Option) *Dispatcher {
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = 24 * time.Hour
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "adoption:notification:"
	}
	d := &Dispatcher{
		db:      db,
		cfg:     cfg,
		logger:  log.WithFields(map[string]interface{}{"component": "notification-dispatcher"}),
		metrics: m,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

const insertNotificationQuery = `
	INSERT INTO notifications (id, user_id, title, content, type, related_id, link, is_read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8)
	ON CONFLICT (id) DO NOTHING`

// Notify delivers n. Only a failure to write the inbox row is returned;
// email and SMS failures are logged and counted.
func (d *Dispatcher) Notify(ctx context.Context, n models.Notification) error {
	if n.ID == "" {
		return errors.New("notification id is required")
	}
	if n.Link == "" && n.RelatedID != 0 {
		n.Link = d.Link(n.RelatedID)
	}
	if n.Type == "" {
		n.Type = models.NotificationApplicationStatus
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	first, err := d.claim(ctx, n.ID)
	if err != nil {
		d.logger.Warn("notification dedupe unavailable, delivering anyway", map[string]interface{}{
			"notificationId": n.ID,
			"error":          err.Error(),
		})
	} else if !first {
		d.metrics.Notification("inbox", "duplicate")
		d.logger.Debug("notification already delivered", map[string]interface{}{"notificationId": n.ID})
		return nil
	}

	_, err = d.db.ExecContext(ctx, insertNotificationQuery,
		n.ID, n.UserID, n.Title, n.Message, string(n.Type), n.RelatedID, n.Link, n.CreatedAt)
	if err != nil {
		d.release(ctx, n.ID)
		d.metrics.Notification("inbox", "failed")
		return fmt.Errorf("insert notification %s: %w", n.ID, err)
	}
	d.metrics.Notification("inbox", "sent")

	d.deliverExternal(ctx, n)
	return nil
}

// Link returns the in-app link of an application.
func (d *Dispatcher) Link(applicationID int64) string {
	return fmt.Sprintf("%s/applications/%d", strings.TrimRight(d.cfg.LinkBase, "/"), applicationID)
}

func (d *Dispatcher) deliverExternal(ctx context.Context, n models.Notification) {
	if d.contacts == nil || (d.email == nil && d.sms == nil) {
		return
	}

	contact, err := d.contacts.Contact(ctx, n.UserID)
	if err != nil {
		d.logger.Warn("recipient contact lookup failed", map[string]interface{}{
			"userId": n.UserID,
			"error":  err.Error(),
		})
		return
	}

	if d.email != nil && contact.Email != "" {
		body := n.Message
		if n.Link != "" {
			body += "\n\n" + n.Link
		}
		if err := d.email.Send(ctx, contact.Email, n.Title, body); err != nil {
			d.metrics.Notification("email", "failed")
			d.logger.Warn("email send failed", map[string]interface{}{
				"notificationId": n.ID,
				"error":          err.Error(),
			})
		} else {
			d.metrics.Notification("email", "sent")
		}
	}

	if d.sms != nil && n.Urgent && contact.Phone != "" {
		if err := d.sms.SendSMS(ctx, contact.Phone, n.Title+": "+n.Message); err != nil {
			d.metrics.Notification("sms", "failed")
			d.logger.Warn("SMS send failed", map[string]interface{}{
				"notificationId": n.ID,
				"error":          err.Error(),
			})
		} else {
			d.metrics.Notification("sms", "sent")
		}
	}
}

func (d *Dispatcher) claim(ctx context.Context, id string) (bool, error) {
	if d.dedupe == nil {
		return true, nil
	}
	return d.dedupe.SetNX(ctx, d.cfg.KeyPrefix+id, 1, d.cfg.DedupeTTL).Result()
}

func (d *Dispatcher) release(ctx context.Context, id string) {
	if d.dedupe == nil {
		return
	}
	if err := d.dedupe.Del(ctx, d.cfg.KeyPrefix+id).Err(); err != nil {
		d.logger.Warn("failed to release notification dedupe key", map[string]interface{}{
			"notificationId": id,
			"error":          err.Error(),
		})
	}
}

var idNamespace = uuid.MustParse("5b0e7c1e-3c57-4f8e-9a53-7d1f0f0c2a41")

// ID derives a stable notification ID from the parts that identify one
// event, so redelivering the same event yields the same ID.
func ID(parts ...string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.Join(parts, "|"))).String()
}
