// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides project, credential and notification persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	inMemory := path == ":memory:"
	if !inMemory {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if inMemory {
		// each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			project_key       TEXT PRIMARY KEY,
			owner             TEXT NOT NULL DEFAULT '',
			html              TEXT NOT NULL DEFAULT '',
			css               TEXT NOT NULL DEFAULT '',
			javascript        TEXT NOT NULL DEFAULT '',
			enabled_libraries TEXT NOT NULL DEFAULT '[]',
			repo_owner        TEXT,
			repo_name         TEXT,
			created_at        TEXT NOT NULL,
			updated_at        TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner, created_at);
		CREATE INDEX IF NOT EXISTS idx_projects_repo ON projects(owner, repo_owner, repo_name);

		CREATE TABLE IF NOT EXISTS credentials (
			user_id      TEXT NOT NULL,
			provider     TEXT NOT NULL,
			login        TEXT NOT NULL DEFAULT '',
			access_token TEXT NOT NULL,
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL,

			PRIMARY KEY (user_id, provider)
		);

		CREATE TABLE IF NOT EXISTS notifications (
			notification_id TEXT PRIMARY KEY,
			run_id          TEXT NOT NULL,
			type            TEXT NOT NULL,
			severity        TEXT NOT NULL,
			metadata_json   TEXT,
			created_at      TEXT NOT NULL,

			CHECK (severity IN ('error', 'notice'))
		);

		CREATE INDEX IF NOT EXISTS idx_notifications_run ON notifications(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// CreateProject inserts a new project.
// Returns ErrDuplicateProject if the key is already taken.
func (s *SQLiteStore) CreateProject(ctx context.Context, project *Project) error {
	libs, err := json.Marshal(nonNil(project.EnabledLibraries))
	if err != nil {
		return fmt.Errorf("encoding enabled libraries: %w", err)
	}

	var repoOwner, repoName sql.NullString
	if project.Repo != nil {
		repoOwner = sql.NullString{String: project.Repo.Owner, Valid: true}
		repoName = sql.NullString{String: project.Repo.Name, Valid: true}
	}

	query := `
		INSERT INTO projects (project_key, owner, html, css, javascript, enabled_libraries,
			repo_owner, repo_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		project.Key,
		project.Owner,
		project.HTML,
		project.CSS,
		project.JavaScript,
		string(libs),
		repoOwner,
		repoName,
		project.CreatedAt.UTC().Format(time.RFC3339),
		project.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateProject
		}
		return fmt.Errorf("inserting project: %w", err)
	}

	s.logger.Debug("created project", "key", project.Key, "owner", project.Owner)
	return nil
}

// isConstraintViolation checks if the error is a SQLite constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

const projectColumns = `project_key, owner, html, css, javascript, enabled_libraries,
	repo_owner, repo_name, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var p Project
	var libs, createdAtStr, updatedAtStr string
	var repoOwner, repoName sql.NullString

	if err := row.Scan(
		&p.Key,
		&p.Owner,
		&p.HTML,
		&p.CSS,
		&p.JavaScript,
		&libs,
		&repoOwner,
		&repoName,
		&createdAtStr,
		&updatedAtStr,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(libs), &p.EnabledLibraries); err != nil {
		return nil, fmt.Errorf("decoding enabled libraries: %w", err)
	}
	p.EnabledLibraries = nonNil(p.EnabledLibraries)

	if repoOwner.Valid && repoName.Valid {
		p.Repo = &RepoRef{Owner: repoOwner.String, Name: repoName.String}
	}

	var err error
	p.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &p, nil
}

// GetProject retrieves a project by key.
// Returns ErrNotFound if the project doesn't exist.
func (s *SQLiteStore) GetProject(ctx context.Context, key string) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE project_key = ?`

	p, err := scanProject(s.db.QueryRowContext(ctx, query, key))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying project: %w", err)
	}
	return p, nil
}

// ListProjects returns an owner's projects, newest first.
func (s *SQLiteStore) ListProjects(ctx context.Context, owner string) ([]*Project, error) {
	query := `SELECT ` + projectColumns + `
		FROM projects
		WHERE owner = ?
		ORDER BY created_at DESC, rowid DESC
	`

	rows, err := s.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	projects := []*Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project row: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating project rows: %w", err)
	}

	return projects, nil
}

// FindProjectByRepo returns the owner's most recent project bound to repo.
// Returns ErrNotFound if there is none.
func (s *SQLiteStore) FindProjectByRepo(ctx context.Context, owner string, repo RepoRef) (*Project, error) {
	query := `SELECT ` + projectColumns + `
		FROM projects
		WHERE owner = ? AND repo_owner = ? AND repo_name = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`

	p, err := scanProject(s.db.QueryRowContext(ctx, query, owner, repo.Owner, repo.Name))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying project by repo: %w", err)
	}
	return p, nil
}

// SaveCredential inserts or replaces the credential for (user, provider).
func (s *SQLiteStore) SaveCredential(ctx context.Context, cred *Credential) error {
	query := `
		INSERT INTO credentials (user_id, provider, login, access_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, provider) DO UPDATE SET
			login = excluded.login,
			access_token = excluded.access_token,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		cred.UserID,
		cred.Provider,
		cred.Login,
		cred.AccessToken,
		cred.CreatedAt.UTC().Format(time.RFC3339),
		cred.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}

	s.logger.Debug("saved credential", "user_id", cred.UserID, "provider", cred.Provider)
	return nil
}

// GetCredential retrieves the credential for (user, provider).
// Returns ErrNotFound if none is stored.
func (s *SQLiteStore) GetCredential(ctx context.Context, userID, provider string) (*Credential, error) {
	query := `
		SELECT user_id, provider, login, access_token, created_at, updated_at
		FROM credentials
		WHERE user_id = ? AND provider = ?
	`

	var cred Credential
	var createdAtStr, updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, userID, provider).Scan(
		&cred.UserID,
		&cred.Provider,
		&cred.Login,
		&cred.AccessToken,
		&createdAtStr,
		&updatedAtStr,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying credential: %w", err)
	}

	cred.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	cred.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &cred, nil
}

// SaveNotification records a notification emitted during a run.
func (s *SQLiteStore) SaveNotification(ctx context.Context, n *NotificationRecord) error {
	var metadata sql.NullString
	if len(n.Metadata) > 0 {
		data, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata: %w", err)
		}
		metadata = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO notifications (notification_id, run_id, type, severity, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		n.ID,
		n.RunID,
		n.Type,
		n.Severity,
		metadata,
		n.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

// ListNotifications returns the notifications recorded for a run, oldest first.
func (s *SQLiteStore) ListNotifications(ctx context.Context, runID string) ([]*NotificationRecord, error) {
	query := `
		SELECT notification_id, run_id, type, severity, metadata_json, created_at
		FROM notifications
		WHERE run_id = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	records := []*NotificationRecord{}
	for rows.Next() {
		var n NotificationRecord
		var metadata sql.NullString
		var createdAtStr string

		if err := rows.Scan(&n.ID, &n.RunID, &n.Type, &n.Severity, &metadata, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning notification row: %w", err)
		}
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &n.Metadata); err != nil {
				return nil, fmt.Errorf("decoding metadata: %w", err)
			}
		}
		n.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		records = append(records, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notification rows: %w", err)
	}

	return records, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
