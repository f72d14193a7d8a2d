// ABOUTME: Classifier converting tagged boundary errors into outcome tags
// ABOUTME: Generic failures are forwarded to the telemetry reporter

package outcome

import (
	"context"
	"errors"

	"github.com/2389/popcode-gateway/internal/github"
	"github.com/2389/popcode-gateway/internal/identity"
	"github.com/2389/popcode-gateway/internal/telemetry"
)

// Classifier maps failures to tags.
type Classifier struct {
	reporter telemetry.Reporter
}

// NewClassifier creates a Classifier. A nil reporter discards reports.
func NewClassifier(reporter telemetry.Reporter) *Classifier {
	if reporter == nil {
		reporter = telemetry.Discard{}
	}
	return &Classifier{reporter: reporter}
}

// Gist classifies a failed gist import.
func (c *Classifier) Gist(ctx context.Context, err error) Tag {
	if github.IsNotFound(err) {
		return GistImportNotFound
	}
	c.reporter.Report(ctx, err)
	return GistImportError
}

// Repo classifies a failed repository listing or blob read.
func (c *Classifier) Repo(ctx context.Context, err error) Tag {
	if github.IsNotFound(err) {
		return RepoImportNotFound
	}
	c.reporter.Report(ctx, err)
	return RepoImportError
}

// SignIn classifies a failed interactive sign-in. When the failure carries
// no underlying error, the bare provider code is reported as an opaque value.
func (c *Classifier) SignIn(ctx context.Context, err error) Tag {
	var se *identity.SignInError
	if !errors.As(err, &se) {
		c.reporter.Report(ctx, err)
		return AuthError
	}

	switch se.Code {
	case identity.CodePopupClosed:
		return UserCancelledRepoAuth
	case identity.CodeNetworkFailed:
		return AuthNetworkError
	}

	if se.Err != nil {
		c.reporter.Report(ctx, se.Err)
	} else {
		c.reporter.Report(ctx, telemetry.Opaque(se.Code))
	}
	return AuthError
}

// GistExport classifies a failed gist export.
func (c *Classifier) GistExport(ctx context.Context, err error, empty bool) Tag {
	if empty {
		return EmptyGist
	}
	c.reporter.Report(ctx, err)
	return GistExportError
}
