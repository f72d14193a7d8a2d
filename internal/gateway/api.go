// ABOUTME: HTTP API handlers for bootstrap, sign-in and saved projects
// ABOUTME: Each bootstrap request builds a per-run identity provider, login handler and notifier

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/2389/popcode-gateway/internal/bootstrap"
	"github.com/2389/popcode-gateway/internal/identity"
	"github.com/2389/popcode-gateway/internal/notify"
	"github.com/2389/popcode-gateway/internal/store"
)

// RunHeader carries the client's bootstrap run key.
const RunHeader = "X-Bootstrap-Run"

// ProjectResponse is the JSON form of a saved project.
type ProjectResponse struct {
	Key              string         `json:"key"`
	Owner            string         `json:"owner,omitempty"`
	HTML             string         `json:"html"`
	CSS              string         `json:"css"`
	JavaScript       string         `json:"javascript"`
	EnabledLibraries []string       `json:"enabled_libraries"`
	Repo             *store.RepoRef `json:"repo,omitempty"`
	CreatedAt        string         `json:"created_at"`
	UpdatedAt        string         `json:"updated_at"`
}

// BootstrapResponse is the JSON response for GET /api/bootstrap.
type BootstrapResponse struct {
	Action        string               `json:"action"`
	Project       *ProjectResponse     `json:"project"`
	Notification  *notify.Notification `json:"notification"`
	Authenticated bool                 `json:"authenticated"`
	UserID        string               `json:"user_id,omitempty"`
	SessionToken  string               `json:"session_token,omitempty"`
	Projects      []ProjectResponse    `json:"projects"`
}

// SessionRequest is the JSON request body for POST /api/session.
type SessionRequest struct {
	Code      string `json:"code"`
	AuthError string `json:"auth_error,omitempty"`
}

// SessionResponse is the JSON response for a successful POST /api/session.
type SessionResponse struct {
	UserID       string            `json:"user_id"`
	Login        string            `json:"login"`
	SessionToken string            `json:"session_token"`
	Projects     []ProjectResponse `json:"projects"`
}

// SignInErrorResponse is the JSON response for a failed POST /api/session.
type SignInErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

func toProjectResponse(p *store.Project) ProjectResponse {
	libs := p.EnabledLibraries
	if libs == nil {
		libs = []string{}
	}
	return ProjectResponse{
		Key:              p.Key,
		Owner:            p.Owner,
		HTML:             p.HTML,
		CSS:              p.CSS,
		JavaScript:       p.JavaScript,
		EnabledLibraries: libs,
		Repo:             p.Repo,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        p.UpdatedAt.Format(time.RFC3339),
	}
}

func toProjectResponses(list []*store.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toProjectResponse(p))
	}
	return out
}

// sessionLoader is the first-login handler: it announces the user and loads
// their saved projects.
type sessionLoader struct {
	g        *Gateway
	projects []*store.Project
}

// HandleLogin implements bootstrap.LoginHandler.
func (l *sessionLoader) HandleLogin(ctx context.Context, cred *identity.Credential) {
	l.g.logger.Info("user logged in", "user_id", cred.UserID, "login", cred.Login)

	list, err := l.g.projects.ListForOwner(ctx, cred.UserID)
	if err != nil {
		l.g.logger.Error("failed to load saved projects", "user_id", cred.UserID, "error", err)
		return
	}
	l.projects = list
}

// handleBootstrap handles GET /api/bootstrap requests.
//
// The query carries the import request (gist, user, repo) and, when the
// client is returning from the sign-in popup, the OAuth code or auth_error.
// A second request with the same X-Bootstrap-Run key is rejected while the
// first is still in flight.
func (g *Gateway) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	runKey := r.Header.Get(RunHeader)
	if runKey == "" {
		runKey = uuid.NewString()
	}
	release, ok := g.runs.Acquire(runKey)
	if !ok {
		g.sendJSONError(w, http.StatusConflict, "bootstrap already running")
		return
	}
	defer release()

	params := r.URL.Query()
	loader := &sessionLoader{g: g}
	env := bootstrap.Env{
		Identity: g.auth.ForRequest(identity.BearerToken(r), params.Get("code"), params.Get("auth_error")),
		Login:    loader,
		Notifier: notify.NewRecorder(runKey, g.store, g.logger),
	}

	result := g.orchestrator.Run(r.Context(), bootstrap.ParseQuery(params), env)

	resp := BootstrapResponse{
		Action:       string(result.Action),
		Notification: result.Notification,
		Projects:     toProjectResponses(loader.projects),
	}
	if result.Project != nil {
		p := toProjectResponse(result.Project)
		resp.Project = &p
	}
	if result.Credential != nil {
		resp.Authenticated = true
		resp.UserID = result.Credential.UserID
		resp.SessionToken = result.Credential.SessionToken
	}

	g.sendJSON(w, http.StatusOK, resp)
}

// handleSession handles POST /api/session requests: an interactive sign-in
// outside of bootstrap. It runs the same first-login handler.
func (g *Gateway) handleSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cred, err := g.auth.SignIn(r.Context(), req.Code, req.AuthError)
	if err != nil {
		tag := g.classifier.SignIn(r.Context(), err)
		g.logger.Info("sign-in failed", "error", err, "type", tag)
		g.sendJSON(w, http.StatusUnauthorized, SignInErrorResponse{
			Error: identity.SignInCode(err),
			Type:  string(tag),
		})
		return
	}

	loader := &sessionLoader{g: g}
	loader.HandleLogin(r.Context(), cred)

	g.sendJSON(w, http.StatusOK, SessionResponse{
		UserID:       cred.UserID,
		Login:        cred.Login,
		SessionToken: cred.SessionToken,
		Projects:     toProjectResponses(loader.projects),
	})
}

// handleListProjects handles GET /api/projects requests for the signed-in user.
func (g *Gateway) handleListProjects(w http.ResponseWriter, r *http.Request) {
	cred := identity.FromContext(r.Context())

	list, err := g.projects.ListForOwner(r.Context(), cred.UserID)
	if err != nil {
		g.logger.Error("failed to list projects", "user_id", cred.UserID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	g.sendJSON(w, http.StatusOK, toProjectResponses(list))
}

// sendJSON writes v as a JSON response with the given status.
func (g *Gateway) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes an error response in JSON format.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	g.sendJSON(w, status, map[string]string{"error": message})
}
