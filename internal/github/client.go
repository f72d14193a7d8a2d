// ABOUTME: HTTP client for the GitHub REST endpoints used by import and export
// ABOUTME: Selects an anonymous or token-bearing client per call and rate limits outbound requests

package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/2389/popcode-gateway/internal/config"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com"

// Client talks to the GitHub REST API.
type Client struct {
	baseURL   string
	anonymous *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// New creates a client from configuration.
func New(cfg config.GitHubConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := strings.TrimSuffix(cfg.APIURL, "/")
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL:   baseURL,
		anonymous: &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(limit, burst),
		logger:    logger.With("component", "github"),
	}
}

// httpClient returns the client for token. An empty token is anonymous; a
// token gets a fresh oauth2 client so no credential is shared across users.
func (c *Client) httpClient(ctx context.Context, token string) *http.Client {
	if token == "" {
		return c.anonymous
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.anonymous)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}

// ReadGist fetches a gist by id.
func (c *Client) ReadGist(ctx context.Context, token, id string) (*Gist, error) {
	var gist Gist
	path := "/gists/" + url.PathEscape(id)
	if err := c.do(ctx, "read gist", token, http.MethodGet, path, nil, &gist); err != nil {
		return nil, err
	}
	return &gist, nil
}

// CreateGist creates a gist. An empty token creates an anonymous gist.
func (c *Client) CreateGist(ctx context.Context, token string, gist *NewGist) (*Gist, error) {
	var created Gist
	if err := c.do(ctx, "create gist", token, http.MethodPost, "/gists", gist, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateGistDescription replaces the description of an existing gist.
func (c *Client) UpdateGistDescription(ctx context.Context, token, id, description string) (*Gist, error) {
	var updated Gist
	body := map[string]string{"description": description}
	path := "/gists/" + url.PathEscape(id)
	if err := c.do(ctx, "update gist", token, http.MethodPatch, path, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListRepoTree lists the root directory of a repository at ref. An empty ref
// lists the default branch.
func (c *Client) ListRepoTree(ctx context.Context, token, owner, name, ref string) ([]TreeEntry, error) {
	path := fmt.Sprintf("/repos/%s/%s/contents/", url.PathEscape(owner), url.PathEscape(name))
	if ref != "" {
		path += "?ref=" + url.QueryEscape(ref)
	}
	var entries []TreeEntry
	if err := c.do(ctx, "list repository", token, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ReadBlob fetches and decodes a git blob.
func (c *Client) ReadBlob(ctx context.Context, token, owner, name, sha string) ([]byte, error) {
	path := fmt.Sprintf("/repos/%s/%s/git/blobs/%s", url.PathEscape(owner), url.PathEscape(name), url.PathEscape(sha))
	var blob blobResponse
	if err := c.do(ctx, "read blob", token, http.MethodGet, path, nil, &blob); err != nil {
		return nil, err
	}
	switch blob.Encoding {
	case "base64":
		// GitHub wraps base64 content at 60 columns
		data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(blob.Content, "\n", ""))
		if err != nil {
			return nil, &Error{Kind: KindOther, Op: "read blob", Err: fmt.Errorf("decoding blob %s: %w", sha, err)}
		}
		return data, nil
	case "utf-8", "":
		return []byte(blob.Content), nil
	default:
		return nil, &Error{Kind: KindOther, Op: "read blob", Err: fmt.Errorf("unsupported blob encoding %q", blob.Encoding)}
	}
}

// CurrentUser returns the user that owns token.
func (c *Client) CurrentUser(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, &Error{Kind: KindOther, Op: "current user", Err: errors.New("token required")}
	}
	var user User
	if err := c.do(ctx, "current user", token, http.MethodGet, "/user", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// do performs one request and decodes a JSON response into out. Every error
// it returns is a *Error.
func (c *Client) do(ctx context.Context, op, token, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Kind: KindOther, Op: op, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: KindOther, Op: op, Err: fmt.Errorf("encoding request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Kind: KindOther, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient(ctx, token).Do(req)
	if err != nil {
		c.logger.Debug("request failed before response", "op", op, "error", err)
		return transportError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return statusError(op, resp.StatusCode, apiMessage(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindOther, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// apiMessage extracts the "message" field GitHub puts in error bodies.
func apiMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	return payload.Message
}
