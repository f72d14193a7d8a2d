// ABOUTME: Wire types for the gist, repository contents and blob endpoints
// ABOUTME: Only the fields the importer and exporter read are modeled

package github

// GistFile is one file inside a gist.
type GistFile struct {
	Filename  string `json:"filename"`
	Language  string `json:"language,omitempty"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Gist is the payload of GET /gists/{id}.
type Gist struct {
	ID          string              `json:"id"`
	Description string              `json:"description"`
	Public      bool                `json:"public"`
	HTMLURL     string              `json:"html_url,omitempty"`
	Files       map[string]GistFile `json:"files"`
}

// NewGist is the body of POST /gists.
type NewGist struct {
	Description string                 `json:"description"`
	Public      bool                   `json:"public"`
	Files       map[string]NewGistFile `json:"files"`
}

// NewGistFile is one file in a NewGist.
type NewGistFile struct {
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
}

// TreeEntry is one item of a repository directory listing.
type TreeEntry struct {
	Name string `json:"name"`
	SHA  string `json:"sha"`
	Type string `json:"type"`
}

// User is the authenticated user returned by GET /user.
type User struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

type blobResponse struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}
