// ABOUTME: Tests for gist extraction and popcode.json parsing
// ABOUTME: Covers recognized filenames, lenient manifests and repeatable extraction

package importer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/2389/popcode-gateway/internal/github"
)

func gistWith(files map[string]string) *github.Gist {
	g := &github.Gist{ID: "abc123", Files: map[string]github.GistFile{}}
	for name, content := range files {
		g.Files[name] = github.GistFile{Filename: name, Content: content}
	}
	return g
}

func TestFromGist(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  Bundle
	}{
		{
			name:  "javascript only",
			files: map[string]string{"script.js": "X"},
			want:  Bundle{JavaScript: "X", EnabledLibraries: []string{}},
		},
		{
			name: "all recognized files",
			files: map[string]string{
				"index.html":   "<p>hi</p>",
				"styles.css":   "p { color: red; }",
				"script.js":    "alert(1)",
				"popcode.json": `{"enabledLibraries":["jquery","lodash"]}`,
			},
			want: Bundle{
				HTML:             "<p>hi</p>",
				CSS:              "p { color: red; }",
				JavaScript:       "alert(1)",
				EnabledLibraries: []string{"jquery", "lodash"},
			},
		},
		{
			name:  "unknown files ignored",
			files: map[string]string{"README.md": "# hi", "main.js": "nope", "styles.css": "a{}"},
			want:  Bundle{CSS: "a{}", EnabledLibraries: []string{}},
		},
		{
			name:  "manifest without enabledLibraries",
			files: map[string]string{"popcode.json": `{"other":true}`},
			want:  Bundle{EnabledLibraries: []string{}},
		},
		{
			name: "manifest with comments and trailing comma",
			files: map[string]string{"popcode.json": `{
				// libraries loaded in the preview
				"enabledLibraries": ["jquery",],
			}`},
			want: Bundle{EnabledLibraries: []string{"jquery"}},
		},
		{
			name:  "malformed manifest",
			files: map[string]string{"popcode.json": `{"enabledLibraries": [`},
			want:  Bundle{EnabledLibraries: []string{}},
		},
		{
			name:  "empty gist",
			files: map[string]string{},
			want:  Bundle{EnabledLibraries: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGist(gistWith(tt.files))
			if err != nil {
				t.Fatalf("FromGist() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FromGist() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFromGist_Nil(t *testing.T) {
	got, err := FromGist(nil)
	if err != nil {
		t.Fatalf("FromGist(nil) error = %v", err)
	}
	if got.EnabledLibraries == nil {
		t.Error("EnabledLibraries should never be nil")
	}
}

func TestFromGist_Idempotent(t *testing.T) {
	gist := gistWith(map[string]string{
		"index.html":   "<h1>x</h1>",
		"script.js":    "y",
		"popcode.json": `{"enabledLibraries":["jquery"]}`,
	})

	first, _ := FromGist(gist)
	for range 5 {
		again, _ := FromGist(gist)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("FromGist() not repeatable (-first +again):\n%s", diff)
		}
	}

	// the bundle does not alias the payload
	first.EnabledLibraries[0] = "mutated"
	if again, _ := FromGist(gist); again.EnabledLibraries[0] != "jquery" {
		t.Errorf("bundle aliases gist payload: %v", again.EnabledLibraries)
	}
}

func TestFromGist_TruncatedFileFails(t *testing.T) {
	gist := gistWith(map[string]string{"index.html": "<h1>x</h1>"})
	gist.Files["script.js"] = github.GistFile{Filename: "script.js", Content: "cut of", Truncated: true}

	_, err := FromGist(gist)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("FromGist() error = %v, want ErrTruncated", err)
	}
	if github.KindOf(err) != github.KindOther {
		t.Errorf("KindOf() = %v, want other", github.KindOf(err))
	}
}

func TestFromGist_TruncatedUnknownFileIgnored(t *testing.T) {
	gist := gistWith(map[string]string{"script.js": "y"})
	gist.Files["notes.md"] = github.GistFile{Filename: "notes.md", Truncated: true}

	got, err := FromGist(gist)
	if err != nil {
		t.Fatalf("FromGist() error = %v", err)
	}
	if got.JavaScript != "y" {
		t.Errorf("JavaScript = %q", got.JavaScript)
	}
}

func TestManifestJSON_RoundTrips(t *testing.T) {
	got := parseManifest(ManifestJSON([]string{"jquery", "bootstrap"}))
	if diff := cmp.Diff([]string{"jquery", "bootstrap"}, got); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}
	if ManifestJSON(nil) != "{\n  \"enabledLibraries\": []\n}" {
		t.Errorf("unexpected empty manifest: %q", ManifestJSON(nil))
	}
}
