// ABOUTME: Page-load query parsing and request classification
// ABOUTME: A repository needs both owner and name; half of one counts as none

package bootstrap

import (
	"net/url"
	"strings"

	"github.com/2389/popcode-gateway/internal/store"
)

// Query is the import request carried by a page load.
type Query struct {
	GistID    string
	RepoOwner string
	RepoName  string
}

// ParseQuery reads the gist, user and repo parameters.
func ParseQuery(values url.Values) Query {
	return Query{
		GistID:    strings.TrimSpace(values.Get("gist")),
		RepoOwner: strings.TrimSpace(values.Get("user")),
		RepoName:  strings.TrimSpace(values.Get("repo")),
	}
}

// HasGist reports whether a gist import was requested.
func (q Query) HasGist() bool { return q.GistID != "" }

// HasRepo reports whether a repository import was requested.
func (q Query) HasRepo() bool { return q.RepoOwner != "" && q.RepoName != "" }

// Repo returns the requested repository.
func (q Query) Repo() store.RepoRef {
	return store.RepoRef{Owner: q.RepoOwner, Name: q.RepoName}
}

// Kind classifies a query.
type Kind int

const (
	KindNeither Kind = iota
	KindGist
	KindRepo
	KindBoth
)

func (k Kind) String() string {
	switch k {
	case KindGist:
		return "gist"
	case KindRepo:
		return "repo"
	case KindBoth:
		return "both"
	default:
		return "neither"
	}
}

// Kind returns which imports q requests.
func (q Query) Kind() Kind {
	switch {
	case q.HasGist() && q.HasRepo():
		return KindBoth
	case q.HasGist():
		return KindGist
	case q.HasRepo():
		return KindRepo
	default:
		return KindNeither
	}
}
