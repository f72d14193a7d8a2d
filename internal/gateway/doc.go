// Package gateway serves the popcode workspace API.
//
// # Overview
//
// The gateway owns the long-lived collaborators (SQLite store, GitHub client,
// identity authenticator, project service, bootstrap orchestrator and run
// guard) and exposes them over HTTP. The browser workspace calls
// /api/bootstrap once per page load; everything else is ordinary request and
// response.
//
// # HTTP API
//
//   - GET /api/bootstrap - Run the bootstrap for ?gist= or ?user=&repo=
//   - POST /api/session - Complete an interactive GitHub sign-in
//   - GET /api/projects - List the signed-in user's projects
//   - POST /api/projects/{key}/gist - Export a project as a gist
//   - GET /health - Liveness check
//   - GET /metrics - Prometheus metrics, when enabled
//
// # Bootstrap runs
//
// Each /api/bootstrap request builds the per-run environment: a request
// scoped identity provider (session token from the Authorization header,
// OAuth code or auth_error from the query), the first-login handler that
// loads saved projects, and a notification recorder keyed by the
// X-Bootstrap-Run header. A second request carrying a run key that is still
// in flight gets 409 Conflict.
//
// # Lifecycle
//
//	gw, err := gateway.New(cfg, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	go gw.Run(ctx)
//
// Canceling the context shuts the HTTP server down with a fresh five second
// deadline and closes the store.
package gateway
