// Package applications persists job applications logged through the
// assistant. Records are kept in SQLite and scoped per user.
package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultStatus is assigned to newly logged applications.
const DefaultStatus = "applied"

// timeFormat is fixed-width so that TEXT timestamps sort chronologically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when no application matches a lookup.
var ErrNotFound = errors.New("application not found")

// Application is one job application record.
type Application struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Company       string    `json:"company"`
	Role          string    `json:"role"`
	Date          string    `json:"date"` // YYYY-MM-DD
	Source        string    `json:"source"`
	ResumeVersion string    `json:"resume_version,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Update holds the fields that may change on an existing application.
// Nil fields are left untouched.
type Update struct {
	Status        *string
	Role          *string
	Date          *string
	Source        *string
	ResumeVersion *string
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Status == nil && u.Role == nil && u.Date == nil && u.Source == nil && u.ResumeVersion == nil
}

// Store persists applications in SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore wraps an open database, creating the schema if needed. The
// caller owns db and is responsible for closing it.
func NewStore(db *sql.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{db: db, logger: logger, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate applications: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS applications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		company TEXT NOT NULL,
		company_key TEXT NOT NULL,
		role TEXT NOT NULL,
		date TEXT NOT NULL,
		source TEXT NOT NULL,
		resume_version TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_applications_user ON applications(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_applications_company ON applications(user_id, company_key);
	`)
	return err
}

// Create inserts a new application and returns it with ID, status, and
// timestamps filled in.
func (s *Store) Create(ctx context.Context, app Application) (*Application, error) {
	if app.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(app.Company) == "" {
		return nil, fmt.Errorf("company is required")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}
	now := s.now().UTC()

	app.ID = id.String()
	app.Company = strings.TrimSpace(app.Company)
	if app.Status == "" {
		app.Status = DefaultStatus
	}
	app.CreatedAt = now
	app.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO applications
			(id, user_id, company, company_key, role, date, source, resume_version, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, app.ID, app.UserID, app.Company, companyKey(app.Company), app.Role, app.Date,
		app.Source, app.ResumeVersion, app.Status, now.Format(timeFormat), now.Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("insert application: %w", err)
	}

	s.logger.Debug("application created",
		"id", app.ID,
		"user_id", app.UserID,
		"company", app.Company,
	)
	return &app, nil
}

// UpdateLatest applies u to the most recently created application for
// the given user and company (matched case-insensitively). Returns
// [ErrNotFound] when the user has no application at that company.
func (s *Store) UpdateLatest(ctx context.Context, userID, company string, u Update) (*Application, error) {
	if u.Empty() {
		return nil, fmt.Errorf("no fields to update")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, selectColumns+`
		WHERE user_id = ? AND company_key = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, userID, companyKey(company))

	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, company)
	}
	if err != nil {
		return nil, fmt.Errorf("find application: %w", err)
	}

	if u.Status != nil {
		app.Status = *u.Status
	}
	if u.Role != nil {
		app.Role = *u.Role
	}
	if u.Date != nil {
		app.Date = *u.Date
	}
	if u.Source != nil {
		app.Source = *u.Source
	}
	if u.ResumeVersion != nil {
		app.ResumeVersion = *u.ResumeVersion
	}
	app.UpdatedAt = s.now().UTC()

	_, err = tx.ExecContext(ctx, `
		UPDATE applications
		SET status = ?, role = ?, date = ?, source = ?, resume_version = ?, updated_at = ?
		WHERE id = ?
	`, app.Status, app.Role, app.Date, app.Source, app.ResumeVersion, app.UpdatedAt.Format(timeFormat), app.ID)
	if err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("application updated", "id", app.ID, "user_id", userID, "company", app.Company)
	return app, nil
}

// ListByUser returns every application for a user, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Application, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

const selectColumns = `
	SELECT id, user_id, company, role, date, source, resume_version, status, created_at, updated_at
	FROM applications`

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(sc scanner) (*Application, error) {
	var app Application
	var created, updated string
	if err := sc.Scan(&app.ID, &app.UserID, &app.Company, &app.Role, &app.Date,
		&app.Source, &app.ResumeVersion, &app.Status, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if app.CreatedAt, err = time.Parse(timeFormat, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if app.UpdatedAt, err = time.Parse(timeFormat, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &app, nil
}

func companyKey(company string) string {
	return strings.ToLower(strings.TrimSpace(company))
}
