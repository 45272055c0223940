package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adoption-review/internal/common/logger"
	"adoption-review/internal/common/metrics"
	"adoption-review/internal/models"
)

type sentEmail struct{ to, subject, body string }

type fakeEmail struct {
	sent []sentEmail
	err  error
}

func (f *fakeEmail) Send(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to, subject, body})
	return nil
}

type fakeSMS struct {
	sent []string
	err  error
}

func (f *fakeSMS) SendSMS(_ context.Context, phone, message string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, phone+"|"+message)
	return nil
}

type fakeContacts map[int64]models.Contact

func (f fakeContacts) Contact(_ context.Context, userID int64) (*models.Contact, error) {
	c, ok := f[userID]
	if !ok {
		return nil, errors.New("no such user")
	}
	return &c, nil
}

var createdAt = time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)

func approval() models.Notification {
	return models.Notification{
		ID:        ID("APP20251201ABCDEF12", "decision", "approved"),
		UserID:    7,
		Title:     "Adoption application approved",
		Message:   "Congratulations!",
		RelatedID: 11,
		Urgent:    true,
		CreatedAt: createdAt,
	}
}

func expectInsert(mock sqlmock.Sqlmock, n models.Notification, link string) *sqlmock.ExpectedExec {
	return mock.ExpectExec(`INSERT INTO notifications`).
		WithArgs(n.ID, n.UserID, n.Title, n.Message, "application_status", n.RelatedID, link, n.CreatedAt)
}

func TestNotify_AllChannels(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	email := &fakeEmail{}
	sms := &fakeSMS{}
	m := metrics.NewNop()

	d := NewDispatcher(db, Config{LinkBase: "https://adopt.example/"}, logger.NewTestLogger(t), m,
		WithDedupe(rdb), WithEmail(email), WithSMS(sms),
		WithContacts(fakeContacts{7: {UserID: 7, Email: "ada@example.com", Phone: "+15555550100"}}))

	n := approval()
	expectInsert(mock, n, "https://adopt.example/applications/11").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, d.Notify(context.Background(), n))
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, email.sent, 1)
	assert.Equal(t, "ada@example.com", email.sent[0].to)
	assert.Contains(t, email.sent[0].body, "https://adopt.example/applications/11")
	assert.Equal(t, []string{"+15555550100|Adoption application approved: Congratulations!"}, sms.sent)

	assert.True(t, mr.Exists("adoption:notification:"+n.ID))
	assert.Equal(t, 24*time.Hour, mr.TTL("adoption:notification:"+n.ID))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("inbox", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("sms", "sent")))
}

func TestNotify_RedeliveryIsDeduplicated(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	email := &fakeEmail{}
	d := NewDispatcher(db, Config{}, logger.NewTestLogger(t), nil,
		WithDedupe(rdb), WithEmail(email), WithContacts(fakeContacts{7: {Email: "ada@example.com"}}))

	n := approval()
	expectInsert(mock, n, "/applications/11").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, d.Notify(context.Background(), n))
	require.NoError(t, d.Notify(context.Background(), n))
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Len(t, email.sent, 1)
}

func TestNotify_NotUrgentSkipsSMS(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sms := &fakeSMS{}
	d := NewDispatcher(db, Config{}, logger.NewTestLogger(t), nil,
		WithSMS(sms), WithContacts(fakeContacts{7: {Phone: "+15555550100"}}))

	n := approval()
	n.Urgent = false
	expectInsert(mock, n, "/applications/11").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, d.Notify(context.Background(), n))
	assert.Empty(t, sms.sent)
}

func TestNotify_InboxFailureReleasesDedupeKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	email := &fakeEmail{}
	d := NewDispatcher(db, Config{}, logger.NewTestLogger(t), nil,
		WithDedupe(rdb), WithEmail(email), WithContacts(fakeContacts{7: {Email: "ada@example.com"}}))

	n := approval()
	expectInsert(mock, n, "/applications/11").WillReturnError(errors.New("connection reset"))

	err = d.Notify(context.Background(), n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.False(t, mr.Exists("adoption:notification:"+n.ID))
	assert.Empty(t, email.sent)

	// a retry is delivered
	expectInsert(mock, n, "/applications/11").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, d.Notify(context.Background(), n))
	assert.Len(t, email.sent, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotify_ChannelFailuresAreNotReturned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := metrics.NewNop()
	d := NewDispatcher(db, Config{}, logger.NewTestLogger(t), m,
		WithEmail(&fakeEmail{err: errors.New("ses throttled")}),
		WithSMS(&fakeSMS{err: errors.New("sns down")}),
		WithContacts(fakeContacts{7: {Email: "ada@example.com", Phone: "+15555550100"}}))

	n := approval()
	expectInsert(mock, n, "/applications/11").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, d.Notify(context.Background(), n))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("email", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("sms", "failed")))
}

func TestNotify_DedupeOutageStillDelivers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rdb, rmock := redismock.NewClientMock()
	n := approval()
	rmock.ExpectSetNX("adoption:notification:"+n.ID, 1, 24*time.Hour).SetErr(errors.New("redis down"))

	d := NewDispatcher(db, Config{}, logger.NewTestLogger(t), nil, WithDedupe(rdb))
	expectInsert(mock, n, "/applications/11").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, d.Notify(context.Background(), n))
	require.NoError(t, mock.ExpectationsWereMet())
	require.NoError(t, rmock.ExpectationsWereMet())
}

func TestNotify_RequiresID(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	d := NewDispatcher(db, Config{}, logger.NewNoOpLogger(), nil)
	assert.Error(t, d.Notify(context.Background(), models.Notification{UserID: 1}))
}

func TestID_IsStable(t *testing.T) {
	a := ID("APP1", "submitted", "1")
	assert.Equal(t, a, ID("APP1", "submitted", "1"))
	assert.NotEqual(t, a, ID("APP1", "submitted", "2"))
	assert.Len(t, a, 36)
}

func TestPostgresContacts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COALESCE\(email, ''\), COALESCE\(phone, ''\) FROM users WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}).AddRow("ada@example.com", ""))
	mock.ExpectQuery(`FROM users`).WithArgs(int64(8)).WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}))

	contacts := NewPostgresContacts(db)
	c, err := contacts.Contact(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", c.Email)
	assert.Empty(t, c.Phone)

	_, err = contacts.Contact(context.Background(), 8)
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
