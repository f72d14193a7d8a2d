// ABOUTME: Tests for concurrent repository import
// ABOUTME: Covers filtering, per-blob retry and all-or-nothing failure

package importer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/2389/popcode-gateway/internal/github"
	"github.com/2389/popcode-gateway/internal/retry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func noSleep(context.Context, time.Duration) error { return nil }

func newTestImporter() *Importer {
	return New(retry.NewCaller(retry.DefaultPolicy().WithRetries(3), retry.WithSleep(noSleep)))
}

var fullTree = []github.TreeEntry{
	{Name: "index.html", SHA: "1", Type: "file"},
	{Name: "styles.css", SHA: "2", Type: "file"},
	{Name: "script.js", SHA: "3", Type: "file"},
	{Name: "popcode.json", SHA: "4", Type: "file"},
	{Name: "README.md", SHA: "5", Type: "file"},
	{Name: "src", SHA: "6", Type: "dir"},
}

var blobs = map[string]string{
	"1": "<h1>Hello</h1>",
	"2": "h1 { color: blue; }",
	"3": "console.log('hi');",
	"4": `{"enabledLibraries":["jquery"]}`,
}

type fakeBlobs struct {
	mu      sync.Mutex
	fetched []string
	fail    map[string]error
}

func (f *fakeBlobs) fetch(ctx context.Context, sha string) ([]byte, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, sha)
	err := f.fail[sha]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return []byte(blobs[sha]), nil
}

func TestFromRepoTree(t *testing.T) {
	f := &fakeBlobs{}
	got, err := newTestImporter().FromRepoTree(context.Background(), fullTree, f.fetch)
	require.NoError(t, err)

	want := Bundle{
		HTML:             blobs["1"],
		CSS:              blobs["2"],
		JavaScript:       blobs["3"],
		EnabledLibraries: []string{"jquery"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromRepoTree() mismatch (-want +got):\n%s", diff)
	}
	assert.ElementsMatch(t, []string{"1", "2", "3", "4"}, f.fetched, "only recognized files are fetched")
}

func TestFromRepoTree_MissingFilesAreEmpty(t *testing.T) {
	tree := []github.TreeEntry{{Name: "script.js", SHA: "3", Type: "file"}}
	got, err := newTestImporter().FromRepoTree(context.Background(), tree, (&fakeBlobs{}).fetch)
	require.NoError(t, err)
	assert.Equal(t, Bundle{JavaScript: blobs["3"], EnabledLibraries: []string{}}, got)
}

func TestFromRepoTree_OneBlobFailsWholeImport(t *testing.T) {
	serverErr := &github.Error{Kind: github.KindOther, Op: "read blob", Status: 500, Err: errors.New("boom")}
	f := &fakeBlobs{fail: map[string]error{"2": serverErr}}

	got, err := newTestImporter().FromRepoTree(context.Background(), fullTree, f.fetch)
	require.Error(t, err)
	assert.True(t, errors.Is(err, serverErr))
	assert.Equal(t, Bundle{}, got, "no partial bundle")
}

func TestFromRepoTree_NotFoundBlobIsFatal(t *testing.T) {
	notFound := &github.Error{Kind: github.KindNotFound, Op: "read blob", Status: 404, Err: errors.New("Not Found")}
	f := &fakeBlobs{fail: map[string]error{"4": notFound}}

	_, err := newTestImporter().FromRepoTree(context.Background(), fullTree, f.fetch)
	assert.True(t, github.IsNotFound(err))
}

func TestFromRepoTree_RetriesTransientBlob(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, sha string) ([]byte, error) {
		if sha == "3" && calls.Add(1) <= 2 {
			return nil, &github.Error{Kind: github.KindTransient, Op: "read blob", Err: errors.New("connection reset")}
		}
		return []byte(blobs[sha]), nil
	}

	got, err := newTestImporter().FromRepoTree(context.Background(), fullTree, fetch)
	require.NoError(t, err)
	assert.Equal(t, blobs["3"], got.JavaScript)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFromRepoTree_EmptyTree(t *testing.T) {
	got, err := newTestImporter().FromRepoTree(context.Background(), nil, (&fakeBlobs{}).fetch)
	require.NoError(t, err)
	assert.Equal(t, Bundle{EnabledLibraries: []string{}}, got)
}
