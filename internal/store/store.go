// ABOUTME: Store interface and data types for popcode-gateway persistence
// ABOUTME: Defines Project, Credential and NotificationRecord and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateProject is returned when creating a project whose key already exists
var ErrDuplicateProject = errors.New("project already exists")

// ProviderGitHub is the provider key for GitHub access tokens
const ProviderGitHub = "github.com"

// RepoRef identifies a repository a project is bound to
type RepoRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// String returns owner/name.
func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

// Project is a saved workspace project
type Project struct {
	Key              string
	Owner            string // user ID; empty for projects created while logged out
	HTML             string
	CSS              string
	JavaScript       string
	EnabledLibraries []string
	Repo             *RepoRef // nil unless imported from a repository
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Credential is a stored provider access token for a user
type Credential struct {
	UserID      string
	Provider    string // e.g. ProviderGitHub
	Login       string
	AccessToken string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NotificationRecord is a notification emitted during a bootstrap run
type NotificationRecord struct {
	ID        string
	RunID     string
	Type      string
	Severity  string
	Metadata  map[string]string
	CreatedAt time.Time
}

// Store defines the interface for project, credential and notification persistence
type Store interface {
	// Projects
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, key string) (*Project, error)
	ListProjects(ctx context.Context, owner string) ([]*Project, error)
	FindProjectByRepo(ctx context.Context, owner string, repo RepoRef) (*Project, error)

	// Credentials
	SaveCredential(ctx context.Context, cred *Credential) error
	GetCredential(ctx context.Context, userID, provider string) (*Credential, error)

	// Notifications
	SaveNotification(ctx context.Context, n *NotificationRecord) error
	ListNotifications(ctx context.Context, runID string) ([]*NotificationRecord, error)

	// Close releases any resources held by the store
	Close() error
}
