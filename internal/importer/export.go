// ABOUTME: Builds the gist payload for exporting a saved project
// ABOUTME: Blank sources are skipped and popcode.json is only written when libraries are enabled

package importer

import (
	"errors"
	"strings"

	"github.com/2389/popcode-gateway/internal/github"
	"github.com/2389/popcode-gateway/internal/store"
)

// ErrEmptyGist is returned when a project has nothing worth exporting.
var ErrEmptyGist = errors.New("project has no content to export")

// ExportDescription is the description every exported gist starts with.
const ExportDescription = "Exported from Popcode."

// GistFromProject builds the create-gist payload for project.
func GistFromProject(project *store.Project) (*github.NewGist, error) {
	files := make(map[string]github.NewGistFile)
	add := func(name, content, language string) {
		if strings.TrimSpace(content) == "" {
			return
		}
		files[name] = github.NewGistFile{Content: content, Language: language}
	}
	add(FileHTML, project.HTML, "HTML")
	add(FileCSS, project.CSS, "CSS")
	add(FileJavaScript, project.JavaScript, "JavaScript")
	if len(project.EnabledLibraries) > 0 {
		files[FileManifest] = github.NewGistFile{
			Content:  ManifestJSON(project.EnabledLibraries),
			Language: "JSON",
		}
	}

	if len(files) == 0 {
		return nil, ErrEmptyGist
	}
	return &github.NewGist{
		Description: ExportDescription,
		Public:      true,
		Files:       files,
	}, nil
}
