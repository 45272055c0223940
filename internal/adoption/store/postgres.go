package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"adoption-review/internal/models"
)

//go:embed schema.sql
var schemaSQL string

const activeApplicationConstraint = "ux_adoption_applications_active"

const applicationColumns = `id, application_id, pet_id, applicant_id, shelter_id, status,
	personal_info, living_environment, pet_experience,
	home_visit_date, home_visit_notes, home_visit_document,
	final_decision_notes, reviewed_by, reviewed_at,
	created_at, updated_at, submitted_at`

const documentColumns = `id, application_id, document_type, file_name, storage_key, mime_type,
	file_size, description, security_scan_status, is_safe, version, is_current_version,
	replaced_by_id, uploaded_at`

const terminalStatusList = `('approved', 'rejected', 'withdrawn')`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// Postgres is the lib/pq backed Store.
type Postgres struct {
	db    *sql.DB
	reads pgQueries
}

// NewPostgres wraps an open pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, reads: pgQueries{q: db}}
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (p *Postgres) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	sqlTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = sqlTx.Rollback()
			panic(r)
		}
	}()

	if err := fn(ctx, &pgTx{pgQueries{q: sqlTx}}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (p *Postgres) GetApplication(ctx context.Context, id int64) (*models.Application, error) {
	return p.reads.oneApplication(ctx, `SELECT `+applicationColumns+` FROM adoption_applications WHERE id = $1`, id)
}

func (p *Postgres) GetApplicationByCode(ctx context.Context, code string) (*models.Application, error) {
	return p.reads.oneApplication(ctx, `SELECT `+applicationColumns+` FROM adoption_applications WHERE application_id = $1`, code)
}

func (p *Postgres) ListByApplicant(ctx context.Context, applicantID int64, page Page) ([]*models.Application, error) {
	page = page.Normalize()
	return p.reads.applications(ctx,
		`SELECT `+applicationColumns+` FROM adoption_applications
		WHERE applicant_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		applicantID, page.Limit, page.Offset)
}

func (p *Postgres) ListByShelter(ctx context.Context, shelterID int64, status *models.Status, page Page) ([]*models.Application, error) {
	page = page.Normalize()
	if status == nil {
		return p.reads.applications(ctx,
			`SELECT `+applicationColumns+` FROM adoption_applications
			WHERE shelter_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
			shelterID, page.Limit, page.Offset)
	}
	return p.reads.applications(ctx,
		`SELECT `+applicationColumns+` FROM adoption_applications
		WHERE shelter_id = $1 AND status = $2 ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`,
		shelterID, string(*status), page.Limit, page.Offset)
}

func (p *Postgres) CountByShelter(ctx context.Context, shelterID int64, status *models.Status) (int, error) {
	var (
		count int
		err   error
	)
	if status == nil {
		err = p.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM adoption_applications WHERE shelter_id = $1`, shelterID).Scan(&count)
	} else {
		err = p.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM adoption_applications WHERE shelter_id = $1 AND status = $2`,
			shelterID, string(*status)).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count applications: %w", err)
	}
	return count, nil
}

func (p *Postgres) Timeline(ctx context.Context, applicationID int64) ([]models.TimelineEntry, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, application_id, previous_status, status, changed_by, role,
			COALESCE(change_reason, ''), auto_generated, created_at
		FROM application_timeline WHERE application_id = $1 ORDER BY id`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("query timeline: %w", err)
	}
	defer rows.Close()

	var out []models.TimelineEntry
	for rows.Next() {
		var (
			e        models.TimelineEntry
			from, to string
			role     string
		)
		if err := rows.Scan(&e.ID, &e.ApplicationID, &from, &to, &e.ChangedBy, &role, &e.Reason, &e.AutoGenerated, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan timeline: %w", err)
		}
		e.FromStatus, e.ToStatus, e.Role = models.Status(from), models.Status(to), models.Role(role)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) AuditLog(ctx context.Context, applicationID int64) ([]models.AuditLogEntry, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, application_id, action, entity_type, entity_id, user_id, user_role,
			old_values, new_values, COALESCE(changes_summary, ''), created_at
		FROM audit_logs WHERE application_id = $1 ORDER BY id`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var out []models.AuditLogEntry
	for rows.Next() {
		var (
			e          models.AuditLogEntry
			role       string
			oldV, newV []byte
		)
		if err := rows.Scan(&e.ID, &e.ApplicationID, &e.Action, &e.EntityType, &e.EntityID, &e.UserID, &role,
			&oldV, &newV, &e.Summary, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		e.UserRole = models.Role(role)
		if len(oldV) > 0 {
			e.OldValues = json.RawMessage(oldV)
		}
		if len(newV) > 0 {
			e.NewValues = json.RawMessage(newV)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) Documents(ctx context.Context, applicationID int64) ([]models.ApplicationDocument, error) {
	return p.reads.documents(ctx,
		`SELECT `+documentColumns+` FROM application_documents
		WHERE application_id = $1 ORDER BY document_type, version`, applicationID)
}

func (p *Postgres) GetDocument(ctx context.Context, documentID int64) (*models.ApplicationDocument, error) {
	return p.reads.oneDocument(ctx, `SELECT `+documentColumns+` FROM application_documents WHERE id = $1`, documentID)
}

func (p *Postgres) GetPet(ctx context.Context, petID int64) (*models.Pet, error) {
	return p.reads.getPet(ctx, petID)
}

// ==========================================
// Transaction
// ==========================================

type pgTx struct {
	pgQueries
}

func (t *pgTx) LockApplication(ctx context.Context, id int64) (*models.Application, error) {
	return t.oneApplication(ctx, `SELECT `+applicationColumns+` FROM adoption_applications WHERE id = $1 FOR UPDATE`, id)
}

func (t *pgTx) FindActiveApplication(ctx context.Context, applicantID, petID int64) (*models.Application, error) {
	app, err := t.oneApplication(ctx,
		`SELECT `+applicationColumns+` FROM adoption_applications
		WHERE applicant_id = $1 AND pet_id = $2 AND status NOT IN `+terminalStatusList+`
		ORDER BY id LIMIT 1 FOR UPDATE`, applicantID, petID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return app, err
}

func (t *pgTx) InsertApplication(ctx context.Context, app *models.Application) error {
	personal, living, experience, err := encodeForms(app)
	if err != nil {
		return err
	}

	err = t.q.QueryRowContext(ctx,
		`INSERT INTO adoption_applications
			(application_id, pet_id, applicant_id, shelter_id, status,
			 personal_info, living_environment, pet_experience, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		app.ApplicationID, app.PetID, app.ApplicantID, app.ShelterID, string(app.Status),
		personal, living, experience, app.CreatedAt, app.UpdatedAt,
	).Scan(&app.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == activeApplicationConstraint {
			return ErrDuplicateActive
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateApplication(ctx context.Context, app *models.Application) error {
	personal, living, experience, err := encodeForms(app)
	if err != nil {
		return err
	}

	res, err := t.q.ExecContext(ctx,
		`UPDATE adoption_applications SET
			status = $2, personal_info = $3, living_environment = $4, pet_experience = $5,
			home_visit_date = $6, home_visit_notes = $7, home_visit_document = $8,
			final_decision_notes = $9, reviewed_by = $10, reviewed_at = $11,
			updated_at = $12, submitted_at = $13
		WHERE id = $1`,
		app.ID, string(app.Status), personal, living, experience,
		nullTime(app.HomeVisitDate), nullString(app.HomeVisitNotes), nullString(app.HomeVisitDocument),
		nullString(app.FinalDecisionNotes), nullInt64(app.ReviewedBy), nullTime(app.ReviewedAt),
		app.UpdatedAt, nullTime(app.SubmittedAt),
	)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	return expectOneRow(res, "update application")
}

func (t *pgTx) GetPet(ctx context.Context, petID int64) (*models.Pet, error) {
	return t.getPet(ctx, petID)
}

func (t *pgTx) CompareAndSwapPetStatus(ctx context.Context, petID int64, expected, next models.PetStatus) (bool, error) {
	res, err := t.q.ExecContext(ctx,
		`UPDATE pets SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		petID, string(expected), string(next))
	if err != nil {
		return false, fmt.Errorf("update pet status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update pet status: %w", err)
	}
	return n == 1, nil
}

func (t *pgTx) CurrentDocument(ctx context.Context, applicationID int64, docType models.DocumentType) (*models.ApplicationDocument, error) {
	doc, err := t.oneDocument(ctx,
		`SELECT `+documentColumns+` FROM application_documents
		WHERE application_id = $1 AND document_type = $2 AND is_current_version
		FOR UPDATE`, applicationID, string(docType))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return doc, err
}

func (t *pgTx) CurrentDocuments(ctx context.Context, applicationID int64) ([]models.ApplicationDocument, error) {
	return t.documents(ctx,
		`SELECT `+documentColumns+` FROM application_documents
		WHERE application_id = $1 AND is_current_version ORDER BY document_type`, applicationID)
}

func (t *pgTx) InsertDocument(ctx context.Context, doc *models.ApplicationDocument) error {
	err := t.q.QueryRowContext(ctx,
		`INSERT INTO application_documents
			(application_id, document_type, file_name, storage_key, mime_type, file_size, description,
			 security_scan_status, is_safe, version, is_current_version, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		doc.ApplicationID, string(doc.DocumentType), doc.FileName, doc.StorageKey,
		nullString(doc.MimeType), doc.FileSize, nullString(doc.Description),
		string(doc.SecurityScanStatus), doc.IsSafe, doc.Version, doc.IsCurrentVersion, doc.UploadedAt,
	).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (t *pgTx) SupersedeDocument(ctx context.Context, documentID int64) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE application_documents SET is_current_version = FALSE WHERE id = $1 AND is_current_version`,
		documentID)
	if err != nil {
		return fmt.Errorf("supersede document: %w", err)
	}
	return expectOneRow(res, "supersede document")
}

func (t *pgTx) LinkReplacement(ctx context.Context, oldID, newID int64) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE application_documents SET replaced_by_id = $2 WHERE id = $1`, oldID, newID)
	if err != nil {
		return fmt.Errorf("link replacement: %w", err)
	}
	return expectOneRow(res, "link replacement")
}

func (t *pgTx) InsertTimelineEntry(ctx context.Context, e *models.TimelineEntry) error {
	err := t.q.QueryRowContext(ctx,
		`INSERT INTO application_timeline
			(application_id, previous_status, status, changed_by, role, change_reason, auto_generated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		e.ApplicationID, string(e.FromStatus), string(e.ToStatus), e.ChangedBy, string(e.Role),
		nullString(e.Reason), e.AutoGenerated, e.OccurredAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert timeline entry: %w", err)
	}
	return nil
}

func (t *pgTx) InsertAuditLog(ctx context.Context, e *models.AuditLogEntry) error {
	err := t.q.QueryRowContext(ctx,
		`INSERT INTO audit_logs
			(application_id, action, entity_type, entity_id, user_id, user_role,
			 old_values, new_values, changes_summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		e.ApplicationID, e.Action, e.EntityType, e.EntityID, e.UserID, string(e.UserRole),
		nullJSON(e.OldValues), nullJSON(e.NewValues), nullString(e.Summary), e.OccurredAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ==========================================
// Shared queries
// ==========================================

type pgQueries struct {
	q queryer
}

func (p pgQueries) oneApplication(ctx context.Context, query string, args ...interface{}) (*models.Application, error) {
	app, err := scanApplication(p.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return app, err
}

func (p pgQueries) applications(ctx context.Context, query string, args ...interface{}) ([]*models.Application, error) {
	rows, err := p.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

func (p pgQueries) oneDocument(ctx context.Context, query string, args ...interface{}) (*models.ApplicationDocument, error) {
	doc, err := scanDocument(p.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return doc, err
}

func (p pgQueries) documents(ctx context.Context, query string, args ...interface{}) ([]models.ApplicationDocument, error) {
	rows, err := p.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []models.ApplicationDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, rows.Err()
}

func (p pgQueries) getPet(ctx context.Context, petID int64) (*models.Pet, error) {
	var (
		pet    models.Pet
		status string
	)
	err := p.q.QueryRowContext(ctx,
		`SELECT id, shelter_id, COALESCE(name, ''), status FROM pets WHERE id = $1`, petID,
	).Scan(&pet.ID, &pet.ShelterID, &pet.Name, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pet: %w", err)
	}
	pet.Status = models.PetStatus(status)
	return &pet, nil
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		app                                 models.Application
		status                              string
		personal, living, experience        []byte
		visitDate, reviewedAt, submittedAt  sql.NullTime
		visitNotes, visitDoc, decisionNotes sql.NullString
		reviewedBy                          sql.NullInt64
	)
	err := row.Scan(
		&app.ID, &app.ApplicationID, &app.PetID, &app.ApplicantID, &app.ShelterID, &status,
		&personal, &living, &experience,
		&visitDate, &visitNotes, &visitDoc,
		&decisionNotes, &reviewedBy, &reviewedAt,
		&app.CreatedAt, &app.UpdatedAt, &submittedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}

	if app.Status, err = models.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("application %d: %w", app.ID, err)
	}
	if app.PersonalInfo, err = decodeForm(personal); err != nil {
		return nil, err
	}
	if app.LivingEnvironment, err = decodeForm(living); err != nil {
		return nil, err
	}
	if app.PetExperience, err = decodeForm(experience); err != nil {
		return nil, err
	}

	app.HomeVisitDate = timePtr(visitDate)
	app.HomeVisitNotes = visitNotes.String
	app.HomeVisitDocument = visitDoc.String
	app.FinalDecisionNotes = decisionNotes.String
	if reviewedBy.Valid {
		v := reviewedBy.Int64
		app.ReviewedBy = &v
	}
	app.ReviewedAt = timePtr(reviewedAt)
	app.SubmittedAt = timePtr(submittedAt)
	return &app, nil
}

func scanDocument(row rowScanner) (*models.ApplicationDocument, error) {
	var (
		doc             models.ApplicationDocument
		docType, scan   string
		mimeType, descr sql.NullString
		replacedBy      sql.NullInt64
	)
	err := row.Scan(
		&doc.ID, &doc.ApplicationID, &docType, &doc.FileName, &doc.StorageKey, &mimeType,
		&doc.FileSize, &descr, &scan, &doc.IsSafe, &doc.Version, &doc.IsCurrentVersion,
		&replacedBy, &doc.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	doc.DocumentType = models.DocumentType(docType)
	doc.SecurityScanStatus = models.ScanStatus(scan)
	doc.MimeType = mimeType.String
	doc.Description = descr.String
	if replacedBy.Valid {
		v := replacedBy.Int64
		doc.ReplacedByID = &v
	}
	return &doc, nil
}

func encodeForms(app *models.Application) (personal, living, experience interface{}, err error) {
	if personal, err = encodeForm(app.PersonalInfo); err != nil {
		return nil, nil, nil, err
	}
	if living, err = encodeForm(app.LivingEnvironment); err != nil {
		return nil, nil, nil, err
	}
	if experience, err = encodeForm(app.PetExperience); err != nil {
		return nil, nil, nil, err
	}
	return personal, living, experience, nil
}

// encodeForm returns the JSONB parameter as a string; lib/pq would send a
// []byte as bytea.
func encodeForm(f models.FormRecord) (interface{}, error) {
	if f == nil {
		return nil, nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode form record: %w", err)
	}
	return string(b), nil
}

func decodeForm(b []byte) (models.FormRecord, error) {
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}
	var f models.FormRecord
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode form record: %w", err)
	}
	return f, nil
}

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
