// ABOUTME: GitHub-backed identity provider used by the HTTP surface
// ABOUTME: Resolves session tokens to stored credentials and performs the OAuth code exchange

package identity

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"

	"github.com/2389/popcode-gateway/internal/config"
	"github.com/2389/popcode-gateway/internal/github"
	"github.com/2389/popcode-gateway/internal/store"
)

// Provider is the identity collaborator consumed by the bootstrap flow.
// Resolve returns nil, nil when nobody is signed in.
type Provider interface {
	Resolve(ctx context.Context) (*Credential, error)
	SignIn(ctx context.Context) (*Credential, error)
}

// UserLookup returns the GitHub user that owns an access token.
type UserLookup interface {
	CurrentUser(ctx context.Context, token string) (*github.User, error)
}

// Authenticator holds the process-wide identity dependencies.
type Authenticator struct {
	store    store.Store
	sessions *SessionIssuer
	oauth    *oauth2.Config // nil when GitHub OAuth is not configured
	users    UserLookup
	ttl      time.Duration
	logger   *slog.Logger
}

// NewAuthenticator creates an Authenticator. Without a configured secret a
// random one is generated, so sessions do not survive a restart.
func NewAuthenticator(cfg config.AuthConfig, st store.Store, users UserLookup, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "identity")

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
		logger.Warn("auth.jwt_secret not set, using an ephemeral session secret")
	}

	var oc *oauth2.Config
	if cfg.GitHubClientID != "" {
		endpoint := oauthgithub.Endpoint
		if cfg.OAuthAuthURL != "" {
			endpoint.AuthURL = cfg.OAuthAuthURL
		}
		if cfg.OAuthTokenURL != "" {
			endpoint.TokenURL = cfg.OAuthTokenURL
		}
		oc = &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  cfg.OAuthRedirectURL,
			Scopes:       cfg.OAuthScopes,
		}
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}

	return &Authenticator{
		store:    st,
		sessions: NewSessionIssuer(secret),
		oauth:    oc,
		users:    users,
		ttl:      ttl,
		logger:   logger,
	}
}

// Sessions returns the session issuer.
func (a *Authenticator) Sessions() *SessionIssuer { return a.sessions }

// Resolve returns the credential for a session token. An empty token, or a
// user without a stored GitHub token, resolves to nil.
func (a *Authenticator) Resolve(ctx context.Context, sessionToken string) (*Credential, error) {
	if sessionToken == "" {
		return nil, nil
	}

	userID, err := a.sessions.Verify(sessionToken)
	if err != nil {
		return nil, err
	}

	stored, err := a.store.GetCredential(ctx, userID, store.ProviderGitHub)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}
	if stored.AccessToken == "" {
		return nil, nil
	}

	return &Credential{
		UserID:       userID,
		Login:        stored.Login,
		AccessTokens: map[string]string{store.ProviderGitHub: stored.AccessToken},
		SessionToken: sessionToken,
	}, nil
}

// SignIn completes an interactive sign-in. code is the OAuth authorization
// code returned by the popup and providerError the error it reported, if any.
// Every failure is a *SignInError.
func (a *Authenticator) SignIn(ctx context.Context, code, providerError string) (*Credential, error) {
	switch {
	case providerError == oauthAccessDenied:
		return nil, &SignInError{Code: CodePopupClosed}
	case providerError != "":
		return nil, &SignInError{Code: providerError}
	case code == "":
		return nil, &SignInError{Code: CodePopupClosed}
	case a.oauth == nil:
		return nil, &SignInError{Code: CodeInternalError, Err: errors.New("github oauth is not configured")}
	}

	token, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, exchangeError(err)
	}

	user, err := a.users.CurrentUser(ctx, token.AccessToken)
	if err != nil {
		return nil, lookupError(err)
	}

	userID := "github-" + strconv.FormatInt(user.ID, 10)
	now := time.Now().UTC()
	if err := a.store.SaveCredential(ctx, &store.Credential{
		UserID:      userID,
		Provider:    store.ProviderGitHub,
		Login:       user.Login,
		AccessToken: token.AccessToken,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		return nil, &SignInError{Code: CodeInternalError, Err: err}
	}

	session, err := a.sessions.Issue(userID, a.ttl)
	if err != nil {
		return nil, &SignInError{Code: CodeInternalError, Err: fmt.Errorf("issuing session: %w", err)}
	}

	a.logger.Info("user signed in", "user_id", userID, "login", user.Login)
	return &Credential{
		UserID:       userID,
		Login:        user.Login,
		AccessTokens: map[string]string{store.ProviderGitHub: token.AccessToken},
		SessionToken: session,
	}, nil
}

// ForRequest binds the per-request inputs into a Provider.
func (a *Authenticator) ForRequest(sessionToken, code, providerError string) *RequestProvider {
	return &RequestProvider{auth: a, sessionToken: sessionToken, code: code, providerError: providerError}
}

// RequestProvider is a Provider scoped to one HTTP request.
type RequestProvider struct {
	auth          *Authenticator
	sessionToken  string
	code          string
	providerError string
}

// Resolve implements Provider.
func (p *RequestProvider) Resolve(ctx context.Context) (*Credential, error) {
	return p.auth.Resolve(ctx, p.sessionToken)
}

// SignIn implements Provider.
func (p *RequestProvider) SignIn(ctx context.Context) (*Credential, error) {
	return p.auth.SignIn(ctx, p.code, p.providerError)
}
