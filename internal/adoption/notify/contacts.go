package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"adoption-review/internal/models"
)

// PostgresContacts reads contact details from the shared users table.
type PostgresContacts struct {
	db *sql.DB
}

// NewPostgresContacts returns a directory backed by db.
func NewPostgresContacts(db *sql.DB) *PostgresContacts {
	return &PostgresContacts{db: db}
}

// Contact returns the email and phone of userID.
func (p *PostgresContacts) Contact(ctx context.Context, userID int64) (*models.Contact, error) {
	c := &models.Contact{UserID: userID}
	err := p.db.QueryRowContext(ctx,
		`SELECT COALESCE(email, ''), COALESCE(phone, '') FROM users WHERE id = $1`, userID,
	).Scan(&c.Email, &c.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d not found", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("query contact of user %d: %w", userID, err)
	}
	return c, nil
}
