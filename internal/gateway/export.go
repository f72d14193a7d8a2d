// ABOUTME: Gist export handler for saved projects
// ABOUTME: Creates a public gist and, for signed-in users, stamps it with an import link

package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/popcode-gateway/internal/github"
	"github.com/2389/popcode-gateway/internal/identity"
	"github.com/2389/popcode-gateway/internal/importer"
	"github.com/2389/popcode-gateway/internal/notify"
	"github.com/2389/popcode-gateway/internal/outcome"
	"github.com/2389/popcode-gateway/internal/retry"
	"github.com/2389/popcode-gateway/internal/store"
)

// ExportResponse is the JSON response for POST /api/projects/{key}/gist.
type ExportResponse struct {
	GistID       string               `json:"gist_id,omitempty"`
	HTMLURL      string               `json:"html_url,omitempty"`
	Notification *notify.Notification `json:"notification"`
}

// importURL is the workspace link that imports gist id.
func (g *Gateway) importURL(id string) string {
	base := strings.TrimSuffix(g.config.Server.BaseURL, "/")
	return base + "/?gist=" + url.QueryEscape(id)
}

// handleExportGist handles POST /api/projects/{key}/gist requests.
//
// A session is optional. Signed-in users export with their own token, and
// their projects can only be exported by them. Logged-out projects are
// exported anonymously.
func (g *Gateway) handleExportGist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cred *identity.Credential
	if token := identity.BearerToken(r); token != "" {
		resolved, err := g.auth.Resolve(ctx, token)
		if err != nil {
			g.sendJSONError(w, http.StatusUnauthorized, "invalid session token")
			return
		}
		cred = resolved
	}

	project, err := g.projects.Get(ctx, r.PathValue("key"))
	if errors.Is(err, store.ErrNotFound) {
		g.sendJSONError(w, http.StatusNotFound, "project not found")
		return
	}
	if err != nil {
		g.logger.Error("failed to load project", "key", r.PathValue("key"), "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if project.Owner != "" && (cred == nil || cred.UserID != project.Owner) {
		g.sendJSONError(w, http.StatusNotFound, "project not found")
		return
	}

	recorder := notify.NewRecorder(uuid.NewString(), g.store, g.logger)
	gist, err := g.exportGist(ctx, project, cred.GitHubToken())
	if err != nil {
		tag := g.classifier.GistExport(ctx, err, errors.Is(err, importer.ErrEmptyGist))
		g.logger.Info("gist export failed", "key", project.Key, "type", tag, "error", err)

		n := g.catalog.Build(tag, nil)
		recorder.Emit(ctx, n)
		status := http.StatusBadGateway
		if tag == outcome.EmptyGist {
			status = http.StatusUnprocessableEntity
		}
		g.sendJSON(w, status, ExportResponse{Notification: &n})
		return
	}

	n := g.catalog.Build(outcome.GistExportComplete, map[string]string{"url": gist.HTMLURL})
	recorder.Emit(ctx, n)
	g.logger.Info("gist exported", "key", project.Key, "gist_id", gist.ID)

	g.sendJSON(w, http.StatusOK, ExportResponse{
		GistID:       gist.ID,
		HTMLURL:      gist.HTMLURL,
		Notification: &n,
	})
}

// exportGist creates the gist for project. With a token the description is
// then updated to link back to the workspace; failing that step only logs.
func (g *Gateway) exportGist(ctx context.Context, project *store.Project, token string) (*github.Gist, error) {
	payload, err := importer.GistFromProject(project)
	if err != nil {
		return nil, err
	}

	gist, err := retry.Do(ctx, g.exportCaller, "create gist", func(ctx context.Context) (*github.Gist, error) {
		return g.github.CreateGist(ctx, token, payload)
	})
	if err != nil {
		return nil, err
	}

	if token == "" {
		return gist, nil
	}

	description := importer.ExportDescription + " Click to import: " + g.importURL(gist.ID)
	if _, err := retry.Do(ctx, g.exportCaller, "update gist", func(ctx context.Context) (*github.Gist, error) {
		return g.github.UpdateGistDescription(ctx, token, gist.ID, description)
	}); err != nil {
		g.logger.Warn("failed to add import link to gist", "gist_id", gist.ID, "error", err)
	}
	return gist, nil
}
