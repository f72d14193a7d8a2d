// ABOUTME: Credential type and context helpers for propagating identity through handlers
// ABOUTME: Provides WithCredential/FromContext

package identity

import (
	"context"

	"github.com/2389/popcode-gateway/internal/store"
)

// Credential is a resolved signed-in identity with its provider tokens.
type Credential struct {
	UserID       string
	Login        string
	AccessTokens map[string]string // provider -> token
	SessionToken string
}

// GitHubToken returns the stored GitHub token, or "" when there is none.
func (c *Credential) GitHubToken() string {
	if c == nil {
		return ""
	}
	return c.AccessTokens[store.ProviderGitHub]
}

type credentialKey struct{}

// WithCredential returns a new context with cred attached.
func WithCredential(ctx context.Context, cred *Credential) context.Context {
	return context.WithValue(ctx, credentialKey{}, cred)
}

// FromContext retrieves the Credential from the context, returning nil if not present.
func FromContext(ctx context.Context) *Credential {
	cred, _ := ctx.Value(credentialKey{}).(*Credential)
	return cred
}
