// ABOUTME: Bootstrap orchestrator reconciling identity, gist and repository branches
// ABOUTME: Produces one terminal project action and at most one notification per run

package bootstrap

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/popcode-gateway/internal/github"
	"github.com/2389/popcode-gateway/internal/identity"
	"github.com/2389/popcode-gateway/internal/importer"
	"github.com/2389/popcode-gateway/internal/notify"
	"github.com/2389/popcode-gateway/internal/outcome"
	"github.com/2389/popcode-gateway/internal/retry"
	"github.com/2389/popcode-gateway/internal/store"
	"github.com/2389/popcode-gateway/internal/telemetry"
)

// Sources is the source-hosting collaborator. An empty token is anonymous.
type Sources interface {
	ReadGist(ctx context.Context, token, id string) (*github.Gist, error)
	ListRepoTree(ctx context.Context, token, owner, name, ref string) ([]github.TreeEntry, error)
	ReadBlob(ctx context.Context, token, owner, name, sha string) ([]byte, error)
}

// Projects is the project-store collaborator.
type Projects interface {
	CreateEmpty(ctx context.Context, owner string) (*store.Project, error)
	CreateFromBundle(ctx context.Context, owner string, bundle importer.Bundle) (*store.Project, error)
	CreateFromRepo(ctx context.Context, owner string, repo store.RepoRef, bundle importer.Bundle) (*store.Project, error)
	FindByRepo(ctx context.Context, owner string, repo store.RepoRef) (*store.Project, error)
}

// LoginHandler runs the first-login side effects for a credential: announce
// the authenticated user and load their saved projects.
type LoginHandler interface {
	HandleLogin(ctx context.Context, cred *identity.Credential)
}

// LoginFunc adapts a function to LoginHandler.
type LoginFunc func(ctx context.Context, cred *identity.Credential)

// HandleLogin calls f.
func (f LoginFunc) HandleLogin(ctx context.Context, cred *identity.Credential) { f(ctx, cred) }

// Env carries the per-run collaborators.
type Env struct {
	Identity identity.Provider
	Login    LoginHandler
	Notifier notify.Notifier
}

// Action is the terminal project action of a run.
type Action string

const (
	ActionCreateEmpty  Action = "create-empty"
	ActionInitFromGist Action = "init-from-gist"
	ActionInitFromRepo Action = "init-from-repo"
	ActionResumeRepo   Action = "resume-repo"
)

// Result describes what a run did.
type Result struct {
	Path         Kind
	Action       Action
	Project      *store.Project // nil only if project creation failed
	Notification *notify.Notification
	Credential   *identity.Credential
}

// Deps are the shared collaborators of an Orchestrator.
type Deps struct {
	Sources    Sources
	Projects   Projects
	Classifier *outcome.Classifier
	Catalog    *notify.Catalog
	GistCaller *retry.Caller // defaults to 3 retries
	RepoCaller *retry.Caller // defaults to 3 retries

	// ImportRef is the ref imported for repositories; empty means the default branch
	ImportRef string
	Logger    *slog.Logger
}

// Orchestrator runs bootstraps. It holds no per-run state and is safe for
// concurrent use.
type Orchestrator struct {
	sources    Sources
	projects   Projects
	classifier *outcome.Classifier
	catalog    *notify.Catalog
	importer   *importer.Importer
	gistCaller *retry.Caller
	repoCaller *retry.Caller
	importRef  string
	logger     *slog.Logger
}

// New creates an Orchestrator.
func New(deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	classifier := deps.Classifier
	if classifier == nil {
		classifier = outcome.NewClassifier(nil)
	}
	catalog := deps.Catalog
	if catalog == nil {
		catalog = notify.DefaultCatalog(logger)
	}
	gistCaller, repoCaller := deps.GistCaller, deps.RepoCaller
	if gistCaller == nil {
		gistCaller = retry.NewCaller(retry.DefaultPolicy().WithRetries(3), retry.WithLogger(logger))
	}
	if repoCaller == nil {
		repoCaller = retry.NewCaller(retry.DefaultPolicy().WithRetries(3), retry.WithLogger(logger))
	}
	return &Orchestrator{
		sources:    deps.Sources,
		projects:   deps.Projects,
		classifier: classifier,
		catalog:    catalog,
		importer:   importer.New(repoCaller),
		gistCaller: gistCaller,
		repoCaller: repoCaller,
		importRef:  deps.ImportRef,
		logger:     logger.With("component", "bootstrap"),
	}
}

// run is the state of one bootstrap.
type run struct {
	o      *Orchestrator
	env    Env
	query  Query
	result Result
	logger *slog.Logger
}

// Run performs one bootstrap for q. It always completes with a project action.
func (o *Orchestrator) Run(ctx context.Context, q Query, env Env) Result {
	start := time.Now()
	kind := q.Kind()

	r := &run{
		o:      o,
		env:    env,
		query:  q,
		result: Result{Path: kind},
		logger: o.logger.With("path", kind.String()),
	}

	switch kind {
	case KindBoth:
		// a malformed request still gets a usable empty project
		r.notify(ctx, outcome.URLQueryError, nil)
		r.resolveIdentity(ctx)
		r.createEmpty(ctx)
	case KindGist:
		r.runGist(ctx)
	case KindRepo:
		r.runRepo(ctx)
	default:
		r.resolveIdentity(ctx)
		r.createEmpty(ctx)
	}

	elapsed := time.Since(start)
	telemetry.ObserveBootstrap(kind.String(), string(r.result.Action), elapsed)
	r.logger.Info("bootstrap complete",
		"action", r.result.Action,
		"authenticated", r.result.Credential != nil,
		"notification", notificationType(r.result.Notification),
		"duration", elapsed,
	)
	return r.result
}

// runGist resolves identity and reads the gist concurrently and decides only
// once both have settled.
func (r *run) runGist(ctx context.Context) {
	var (
		wg      sync.WaitGroup
		bundle  importer.Bundle
		gistErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		r.resolveIdentity(ctx)
	}()
	go func() {
		defer wg.Done()
		gist, err := retry.Do(ctx, r.o.gistCaller, "read gist", func(ctx context.Context) (*github.Gist, error) {
			// gists are public; reading anonymously keeps import independent of sign-in
			return r.o.sources.ReadGist(ctx, "", r.query.GistID)
		})
		if err != nil {
			gistErr = err
			return
		}
		bundle, gistErr = importer.FromGist(gist)
	}()
	wg.Wait()

	if gistErr != nil {
		r.logger.Info("gist import failed", "gist_id", r.query.GistID, "error", gistErr)
		tag := r.o.classifier.Gist(ctx, gistErr)
		r.notify(ctx, tag, map[string]string{"gistId": r.query.GistID})
		r.createEmpty(ctx)
		return
	}

	r.finish(ActionInitFromGist, func() (*store.Project, error) {
		return r.o.projects.CreateFromBundle(ctx, r.owner(), bundle)
	})
}

// runRepo is sequential: the repository can only be read once a credential
// selects the token.
func (r *run) runRepo(ctx context.Context) {
	repo := r.query.Repo()
	meta := map[string]string{"owner": repo.Owner, "name": repo.Name}

	cred := r.resolveIdentity(ctx)
	if cred == nil {
		var err error
		cred, err = r.env.Identity.SignIn(ctx)
		if err == nil && cred == nil {
			err = &identity.SignInError{Code: identity.CodeInternalError}
		}
		if err != nil {
			r.logger.Info("sign-in for repository import failed", "repo", repo.String(), "error", err)
			tag := r.o.classifier.SignIn(ctx, err)
			r.notify(ctx, tag, meta)
			r.createEmpty(ctx)
			return
		}
		r.login(ctx, cred)
	}

	existing, err := r.o.projects.FindByRepo(ctx, cred.UserID, repo)
	if err != nil {
		r.logger.Warn("looking up saved project for repository", "repo", repo.String(), "error", err)
	}
	if existing != nil {
		r.result.Action = ActionResumeRepo
		r.result.Project = existing
		return
	}

	bundle, err := r.importRepo(ctx, cred.GitHubToken(), repo)
	if err != nil {
		r.logger.Info("repository import failed", "repo", repo.String(), "error", err)
		tag := r.o.classifier.Repo(ctx, err)
		r.notify(ctx, tag, meta)
		r.createEmpty(ctx)
		return
	}

	r.finish(ActionInitFromRepo, func() (*store.Project, error) {
		return r.o.projects.CreateFromRepo(ctx, cred.UserID, repo, bundle)
	})
}

func (r *run) importRepo(ctx context.Context, token string, repo store.RepoRef) (importer.Bundle, error) {
	entries, err := retry.Do(ctx, r.o.repoCaller, "list repository", func(ctx context.Context) ([]github.TreeEntry, error) {
		return r.o.sources.ListRepoTree(ctx, token, repo.Owner, repo.Name, r.o.importRef)
	})
	if err != nil {
		return importer.Bundle{}, err
	}

	return r.o.importer.FromRepoTree(ctx, entries, func(ctx context.Context, sha string) ([]byte, error) {
		return r.o.sources.ReadBlob(ctx, token, repo.Owner, repo.Name, sha)
	})
}

// resolveIdentity resolves the current credential and runs the first-login
// side effects when there is one. Resolution failures count as logged out.
func (r *run) resolveIdentity(ctx context.Context) *identity.Credential {
	cred, err := r.env.Identity.Resolve(ctx)
	if err != nil {
		r.logger.Warn("identity resolution failed, continuing logged out", "error", err)
		return nil
	}
	if cred == nil {
		return nil
	}
	r.login(ctx, cred)
	return cred
}

func (r *run) login(ctx context.Context, cred *identity.Credential) {
	r.result.Credential = cred
	if r.env.Login != nil {
		r.env.Login.HandleLogin(ctx, cred)
	}
}

// owner is the user that new projects belong to, or "" when logged out.
func (r *run) owner() string {
	if r.result.Credential == nil {
		return ""
	}
	return r.result.Credential.UserID
}

func (r *run) createEmpty(ctx context.Context) {
	r.finish(ActionCreateEmpty, func() (*store.Project, error) {
		return r.o.projects.CreateEmpty(ctx, r.owner())
	})
}

// finish performs the terminal project action.
func (r *run) finish(action Action, create func() (*store.Project, error)) {
	r.result.Action = action
	project, err := create()
	if err != nil {
		r.logger.Error("project creation failed", "action", action, "error", err)
		return
	}
	r.result.Project = project
}

func (r *run) notify(ctx context.Context, tag outcome.Tag, meta map[string]string) {
	if r.result.Notification != nil {
		r.logger.Error("second notification in one run suppressed",
			"kept", r.result.Notification.Type,
			"suppressed", tag,
		)
		return
	}
	n := r.o.catalog.Build(tag, meta)
	r.result.Notification = &n
	telemetry.CountNotification(string(tag))
	if r.env.Notifier != nil {
		r.env.Notifier.Emit(ctx, n)
	}
}

func notificationType(n *notify.Notification) string {
	if n == nil {
		return ""
	}
	return string(n.Type)
}
