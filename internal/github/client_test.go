// ABOUTME: Tests for the GitHub client against an httptest server
// ABOUTME: Verifies request shapes, token selection and failure classification

package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/popcode-gateway/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.GitHubConfig{APIURL: srv.URL, Timeout: 5 * time.Second}, nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestReadGist(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/gists/abc123", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, Gist{
			ID: "abc123",
			Files: map[string]GistFile{
				"script.js": {Filename: "script.js", Content: "alert(1)"},
			},
		})
	})
	c := newTestClient(t, mux)

	gist, err := c.ReadGist(context.Background(), "", "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", gist.ID)
	assert.Equal(t, "alert(1)", gist.Files["script.js"].Content)
	assert.Empty(t, gotAuth, "anonymous read must not send a token")
}

func TestReadGist_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gists/missing", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	})
	c := newTestClient(t, mux)

	_, err := c.ReadGist(context.Background(), "", "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsTransient(err))

	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, 404, ge.Status)
	assert.Contains(t, ge.Error(), "Not Found")
}

func TestReadGist_ServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gists/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := newTestClient(t, mux)

	_, err := c.ReadGist(context.Background(), "", "boom")
	require.Error(t, err)
	assert.Equal(t, KindOther, KindOf(err))
}

func TestReadGist_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(config.GitHubConfig{APIURL: url, Timeout: time.Second}, nil)
	_, err := c.ReadGist(context.Background(), "", "abc")
	require.Error(t, err)
	assert.True(t, IsTransient(err), "connection refused is a transient network failure: %v", err)
}

func TestReadGist_CanceledIsNotTransient(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ReadGist(ctx, "", "abc")
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func TestCreateGist_TimeoutAfterSendIsNotTransient(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/gists", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-time.After(200 * time.Millisecond):
		case <-r.Context().Done():
		}
		writeJSON(w, http.StatusCreated, Gist{ID: "late"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := New(config.GitHubConfig{APIURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)

	_, err := c.CreateGist(context.Background(), "tok", &NewGist{
		Files: map[string]NewGistFile{"index.html": {Content: "<p>hi</p>"}},
	})
	require.Error(t, err)
	assert.False(t, IsTransient(err), "the server already received the request: %v", err)
	assert.Equal(t, KindOther, KindOf(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestListRepoTree_UsesTokenAndRef(t *testing.T) {
	var gotAuth, gotRef string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/popcodeorg/popcode/contents/", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRef = r.URL.Query().Get("ref")
		writeJSON(w, http.StatusOK, []TreeEntry{
			{Name: "index.html", SHA: "1", Type: "file"},
			{Name: "README.md", SHA: "9", Type: "file"},
		})
	})
	c := newTestClient(t, mux)

	entries, err := c.ListRepoTree(context.Background(), "tok-123", "popcodeorg", "popcode", "main")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "main", gotRef)
}

func TestListRepoTree_DefaultBranch(t *testing.T) {
	var rawQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/n/contents/", func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, []TreeEntry{})
	})
	c := newTestClient(t, mux)

	_, err := c.ListRepoTree(context.Background(), "", "o", "n", "")
	require.NoError(t, err)
	assert.Empty(t, rawQuery)
}

func TestReadBlob_DecodesBase64(t *testing.T) {
	content := "// Imported from master\n"
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/n/git/blobs/3", func(w http.ResponseWriter, r *http.Request) {
		// GitHub inserts newlines in long base64 payloads
		writeJSON(w, http.StatusOK, map[string]string{
			"sha":      "3",
			"content":  encoded[:8] + "\n" + encoded[8:],
			"encoding": "base64",
		})
	})
	c := newTestClient(t, mux)

	data, err := c.ReadBlob(context.Background(), "tok", "o", "n", "3")
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestReadBlob_UnsupportedEncoding(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/n/git/blobs/3", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"content": "x", "encoding": "rot13"})
	})
	c := newTestClient(t, mux)

	_, err := c.ReadBlob(context.Background(), "tok", "o", "n", "3")
	require.Error(t, err)
	assert.Equal(t, KindOther, KindOf(err))
}

func TestCreateAndUpdateGist(t *testing.T) {
	var created NewGist
	var patched map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("/gists", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		writeJSON(w, http.StatusCreated, Gist{ID: "new1", Description: created.Description})
	})
	mux.HandleFunc("/gists/new1", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
		writeJSON(w, http.StatusOK, Gist{ID: "new1", Description: patched["description"]})
	})
	c := newTestClient(t, mux)

	gist, err := c.CreateGist(context.Background(), "tok", &NewGist{
		Description: "Exported from Popcode.",
		Public:      true,
		Files:       map[string]NewGistFile{"index.html": {Content: "<p>hi</p>", Language: "HTML"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "new1", gist.ID)
	assert.True(t, created.Public)

	updated, err := c.UpdateGistDescription(context.Background(), "tok", "new1", "desc with link")
	require.NoError(t, err)
	assert.Equal(t, "desc with link", updated.Description)
	assert.Equal(t, "desc with link", patched["description"])
}

func TestCurrentUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
			return
		}
		writeJSON(w, http.StatusOK, User{ID: 42, Login: "octocat"})
	})
	c := newTestClient(t, mux)

	user, err := c.CurrentUser(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "octocat", user.Login)

	_, err = c.CurrentUser(context.Background(), "bad")
	require.Error(t, err)
	assert.Equal(t, KindOther, KindOf(err))

	_, err = c.CurrentUser(context.Background(), "")
	require.Error(t, err)
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, KindOther, KindOf(errors.New("plain")))
	assert.False(t, IsNotFound(nil))
	assert.Equal(t, "transient", KindTransient.String())
}
