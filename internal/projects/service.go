// ABOUTME: Project-store entry points used by bootstrap and the projects API
// ABOUTME: Creates empty, imported and repository-bound projects with UUID keys

// Package projects implements the project-initialization entry points on top
// of the store.
package projects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/2389/popcode-gateway/internal/importer"
	"github.com/2389/popcode-gateway/internal/store"
)

// Service creates and looks up projects.
type Service struct {
	store  store.Store
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(st store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		now:    time.Now,
		logger: logger.With("component", "projects"),
	}
}

// CreateEmpty creates a project with no sources.
func (s *Service) CreateEmpty(ctx context.Context, owner string) (*store.Project, error) {
	return s.create(ctx, owner, importer.Bundle{}, nil)
}

// CreateFromBundle creates a project initialized from an imported bundle.
func (s *Service) CreateFromBundle(ctx context.Context, owner string, bundle importer.Bundle) (*store.Project, error) {
	return s.create(ctx, owner, bundle, nil)
}

// CreateFromRepo creates a project bound to repo and initialized from bundle.
func (s *Service) CreateFromRepo(ctx context.Context, owner string, repo store.RepoRef, bundle importer.Bundle) (*store.Project, error) {
	return s.create(ctx, owner, bundle, &repo)
}

func (s *Service) create(ctx context.Context, owner string, bundle importer.Bundle, repo *store.RepoRef) (*store.Project, error) {
	now := s.now().UTC()
	libs := slices.Clone(bundle.EnabledLibraries)
	if libs == nil {
		libs = []string{}
	}

	project := &store.Project{
		Key:              uuid.NewString(),
		Owner:            owner,
		HTML:             bundle.HTML,
		CSS:              bundle.CSS,
		JavaScript:       bundle.JavaScript,
		EnabledLibraries: libs,
		Repo:             repo,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Debug("project created", "key", project.Key, "owner", owner, "repo", repo != nil)
	return project, nil
}

// Get returns a project by key.
func (s *Service) Get(ctx context.Context, key string) (*store.Project, error) {
	return s.store.GetProject(ctx, key)
}

// FindByRepo returns the owner's saved project bound to repo, or nil when
// there is none.
func (s *Service) FindByRepo(ctx context.Context, owner string, repo store.RepoRef) (*store.Project, error) {
	if owner == "" {
		return nil, nil
	}
	p, err := s.store.FindProjectByRepo(ctx, owner, repo)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding project for %s: %w", repo, err)
	}
	return p, nil
}

// ListForOwner returns the owner's saved projects, newest first.
func (s *Service) ListForOwner(ctx context.Context, owner string) ([]*store.Project, error) {
	if owner == "" {
		return []*store.Project{}, nil
	}
	return s.store.ListProjects(ctx, owner)
}
