// ABOUTME: Outcome tag enumeration shared by the orchestrator, notifications and metrics
// ABOUTME: Expected tags are the ones that never reach telemetry

package outcome

// Tag identifies a user-facing outcome.
type Tag string

// Bootstrap outcomes.
const (
	URLQueryError         Tag = "url-query-error"
	GistImportNotFound    Tag = "gist-import-not-found"
	GistImportError       Tag = "gist-import-error"
	RepoImportNotFound    Tag = "repo-import-not-found"
	RepoImportError       Tag = "repo-import-error"
	UserCancelledRepoAuth Tag = "user-cancelled-repo-auth"
	AuthNetworkError      Tag = "auth-network-error"
	AuthError             Tag = "auth-error"
)

// Gist export outcomes.
const (
	GistExportComplete Tag = "gist-export-complete"
	GistExportError    Tag = "gist-export-error"
	EmptyGist          Tag = "empty-gist"
)

// Expected reports whether t is an anticipated outcome that is not reported
// to telemetry.
func (t Tag) Expected() bool {
	switch t {
	case GistImportError, RepoImportError, AuthError, GistExportError:
		return false
	}
	return true
}

func (t Tag) String() string { return string(t) }
