// ABOUTME: Bundle type and the shared filename mapping used by both import sources
// ABOUTME: Parses popcode.json leniently as JSONC to recover the enabled library list

package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/tidwall/jsonc"

	"github.com/2389/popcode-gateway/internal/github"
)

// Recognized filenames.
const (
	FileHTML       = "index.html"
	FileCSS        = "styles.css"
	FileJavaScript = "script.js"
	FileManifest   = "popcode.json"
)

// Bundle is the normalized source extracted from a gist or repository.
// EnabledLibraries is never nil.
type Bundle struct {
	HTML             string   `json:"html"`
	CSS              string   `json:"css"`
	JavaScript       string   `json:"javascript"`
	EnabledLibraries []string `json:"enabled_libraries"`
}

// Recognized reports whether name is one of the four imported filenames.
func Recognized(name string) bool {
	switch name {
	case FileHTML, FileCSS, FileJavaScript, FileManifest:
		return true
	}
	return false
}

// ErrTruncated marks a recognized gist file whose inline content was cut
// off by the API.
var ErrTruncated = errors.New("gist file truncated")

// FromGist extracts a bundle from a gist payload. Unknown files are ignored
// and missing ones yield empty strings. A truncated recognized file fails
// the import with a KindOther *github.Error wrapping ErrTruncated.
func FromGist(gist *github.Gist) (Bundle, error) {
	files := make(map[string]string, 4)
	if gist != nil {
		for name, f := range gist.Files {
			if !Recognized(name) {
				continue
			}
			if f.Truncated {
				return Bundle{}, &github.Error{
					Kind: github.KindOther,
					Op:   "import gist",
					Err:  fmt.Errorf("%w: %s", ErrTruncated, name),
				}
			}
			files[name] = f.Content
		}
	}
	return assemble(files), nil
}

func assemble(files map[string]string) Bundle {
	return Bundle{
		HTML:             files[FileHTML],
		CSS:              files[FileCSS],
		JavaScript:       files[FileJavaScript],
		EnabledLibraries: parseManifest(files[FileManifest]),
	}
}

type manifest struct {
	EnabledLibraries []string `json:"enabledLibraries"`
}

// parseManifest reads enabledLibraries from popcode.json. Comments and
// trailing commas are tolerated; anything unreadable means no libraries.
func parseManifest(content string) []string {
	if content == "" {
		return []string{}
	}
	var m manifest
	if err := json.Unmarshal(jsonc.ToJSON([]byte(content)), &m); err != nil {
		return []string{}
	}
	if m.EnabledLibraries == nil {
		return []string{}
	}
	return slices.Clone(m.EnabledLibraries)
}

// ManifestJSON renders the popcode.json content for libraries.
func ManifestJSON(libraries []string) string {
	if libraries == nil {
		libraries = []string{}
	}
	data, _ := json.MarshalIndent(manifest{EnabledLibraries: libraries}, "", "  ")
	return string(data)
}
