// ABOUTME: Gateway that wires the store, identity, GitHub client and bootstrap orchestrator
// ABOUTME: Owns the HTTP server lifecycle and the health and metrics endpoints

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2389/popcode-gateway/internal/bootstrap"
	"github.com/2389/popcode-gateway/internal/config"
	"github.com/2389/popcode-gateway/internal/github"
	"github.com/2389/popcode-gateway/internal/identity"
	"github.com/2389/popcode-gateway/internal/notify"
	"github.com/2389/popcode-gateway/internal/outcome"
	"github.com/2389/popcode-gateway/internal/projects"
	"github.com/2389/popcode-gateway/internal/retry"
	"github.com/2389/popcode-gateway/internal/runguard"
	"github.com/2389/popcode-gateway/internal/store"
	"github.com/2389/popcode-gateway/internal/telemetry"
)

// Gateway serves the popcode workspace API.
type Gateway struct {
	config       *config.Config
	store        store.Store
	github       *github.Client
	auth         *identity.Authenticator
	projects     *projects.Service
	orchestrator *bootstrap.Orchestrator
	classifier   *outcome.Classifier
	catalog      *notify.Catalog
	exportCaller *retry.Caller
	runs         *runguard.Guard
	httpServer   *http.Server
	logger       *slog.Logger
}

// initStore creates the store, honoring POPCODE_DB_PATH over the config file.
func initStore(cfg *config.Config) (store.Store, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("POPCODE_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// newCaller builds a retry caller from the configured policy.
func newCaller(cfg config.RetryConfig, retries int, logger *slog.Logger) (*retry.Caller, error) {
	policy := retry.PolicyFromConfig(cfg).WithRetries(retries)
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return retry.NewCaller(policy, retry.WithLogger(logger)), nil
}

// New creates a new Gateway instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	gh := github.New(cfg.GitHub, logger)
	reporter := telemetry.NewSlogReporter(logger)
	classifier := outcome.NewClassifier(reporter)
	catalog := notify.DefaultCatalog(logger)
	projectService := projects.NewService(s, logger)

	gistCaller, err := newCaller(cfg.Retry, cfg.Import.GistRetries, logger)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("gist retry policy: %w", err)
	}
	repoCaller, err := newCaller(cfg.Retry, cfg.Import.RepoRetries, logger)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("repository retry policy: %w", err)
	}
	exportCaller, err := newCaller(cfg.Retry, cfg.Retry.Retries, logger)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("export retry policy: %w", err)
	}

	gw := &Gateway{
		config:   cfg,
		store:    s,
		github:   gh,
		auth:     identity.NewAuthenticator(cfg.Auth, s, gh, logger),
		projects: projectService,
		orchestrator: bootstrap.New(bootstrap.Deps{
			Sources:    gh,
			Projects:   projectService,
			Classifier: classifier,
			Catalog:    catalog,
			GistCaller: gistCaller,
			RepoCaller: repoCaller,
			ImportRef:  cfg.GitHub.ImportRef,
			Logger:     logger,
		}),
		classifier:   classifier,
		catalog:      catalog,
		exportCaller: exportCaller,
		runs:         runguard.New(cfg.Bootstrap.RunGuardTTL, cfg.Bootstrap.RunGuardSize),
		logger:       logger.With("component", "gateway"),
	}

	mux := http.NewServeMux()

	// Health endpoint - no auth required
	mux.HandleFunc("GET /health", gw.handleHealth)

	mux.HandleFunc("GET /api/bootstrap", gw.handleBootstrap)
	mux.HandleFunc("POST /api/session", gw.handleSession)

	requireCredential := identity.RequireCredential(gw.auth)
	mux.Handle("GET /api/projects", requireCredential(http.HandlerFunc(gw.handleListProjects)))
	mux.HandleFunc("POST /api/projects/{key}/gist", gw.handleExportGist)

	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.Handler())
		logger.Info("metrics enabled", "path", cfg.Metrics.Path)
	}

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// Handler returns the HTTP handler serving every route.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// setupListener creates the TCP listener for the HTTP server.
func (g *Gateway) setupListener() (net.Listener, error) {
	g.logger.Info("starting gateway", "http_addr", g.config.Server.HTTPAddr)

	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}
	return ln, nil
}

// startServer starts the HTTP server in a goroutine, returning its error channel.
func (g *Gateway) startServer(ln net.Listener) chan error {
	errCh := make(chan error, 1)

	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return errCh
}

// waitForShutdownSignal waits for context cancellation or server error.
func (g *Gateway) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		g.logger.Error("server error", "error", err)
		return err
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := g.setupListener()
	if err != nil {
		return err
	}

	errCh := g.startServer(ln)
	serverErr := g.waitForShutdownSignal(ctx, errCh)

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// The run context is already canceled by the time this runs.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown gracefully stops the HTTP server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))
	errs = appendCloseError(errs, "store close", g.store.Close())
	g.runs.Close()

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
