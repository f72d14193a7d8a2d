// ABOUTME: Notification catalog mapping outcome tags to severities and markdown messages
// ABOUTME: Renders messages to HTML with goldmark after escaping substituted values

package notify

import (
	"bytes"
	"log/slog"
	"maps"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/2389/popcode-gateway/internal/outcome"
)

// Severity controls how a notification is displayed.
type Severity string

const (
	SeverityError  Severity = "error"
	SeverityNotice Severity = "notice"
)

// Notification is a displayable message for one outcome.
type Notification struct {
	Type     outcome.Tag       `json:"type"`
	Severity Severity          `json:"severity"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Message  string            `json:"message"`
	HTML     string            `json:"html"`
}

type entry struct {
	severity Severity
	message  string
}

// Catalog renders notifications for tags.
type Catalog struct {
	entries  map[outcome.Tag]entry
	markdown goldmark.Markdown
	logger   *slog.Logger
}

// DefaultCatalog returns the catalog with the built-in messages.
func DefaultCatalog(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		entries: map[outcome.Tag]entry{
			outcome.URLQueryError: {SeverityError,
				"A link can import a gist or a repository, but not both. Starting a new project instead."},
			outcome.GistImportNotFound: {SeverityError,
				"Could not find a gist with the ID **{{gistId}}**. Starting a new project instead."},
			outcome.GistImportError: {SeverityError,
				"Something went wrong importing gist **{{gistId}}**. Starting a new project instead."},
			outcome.RepoImportNotFound: {SeverityError,
				"Could not find the repository **{{owner}}/{{name}}**, or you do not have access to it."},
			outcome.RepoImportError: {SeverityError,
				"Something went wrong importing **{{owner}}/{{name}}**. Starting a new project instead."},
			outcome.UserCancelledRepoAuth: {SeverityError,
				"Sign in with GitHub to import **{{owner}}/{{name}}**."},
			outcome.AuthNetworkError: {SeverityError,
				"Could not reach GitHub to sign you in. Check your connection and try again."},
			outcome.AuthError: {SeverityError,
				"Something went wrong signing you in. Please try again."},
			outcome.GistExportComplete: {SeverityNotice,
				"Your gist is ready: [{{url}}]({{url}})"},
			outcome.GistExportError: {SeverityError,
				"Something went wrong exporting your gist. Please try again."},
			outcome.EmptyGist: {SeverityError,
				"Add some code to your project before exporting it as a gist."},
		},
		markdown: goldmark.New(),
		logger:   logger.With("component", "notify"),
	}
}

// Build renders the notification for tag with metadata substituted.
// Unknown tags get a generic error message.
func (c *Catalog) Build(tag outcome.Tag, metadata map[string]string) Notification {
	e, ok := c.entries[tag]
	if !ok {
		c.logger.Warn("no catalog entry for tag", "tag", tag)
		e = entry{SeverityError, "Something went wrong."}
	}

	pairs := make([]string, 0, len(metadata)*2)
	for k, v := range metadata {
		pairs = append(pairs, "{{"+k+"}}", escapeMarkdown(v))
	}
	message := strings.NewReplacer(pairs...).Replace(e.message)

	var buf bytes.Buffer
	if err := c.markdown.Convert([]byte(message), &buf); err != nil {
		c.logger.Error("failed to render notification", "tag", tag, "error", err)
		buf.Reset()
	}

	return Notification{
		Type:     tag,
		Severity: e.severity,
		Metadata: maps.Clone(metadata),
		Message:  message,
		HTML:     strings.TrimSpace(buf.String()),
	}
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`,
	`[`, `\[`, `]`, `\]`, `(`, `\(`, `)`, `\)`,
	`<`, `\<`, `>`, `\>`, `#`, `\#`, `!`, `\!`,
)

// escapeMarkdown keeps substituted values literal.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
