// ABOUTME: Repository import that fetches the recognized root blobs concurrently
// ABOUTME: Each blob is retried on its own; any failure fails the whole import

package importer

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/2389/popcode-gateway/internal/github"
	"github.com/2389/popcode-gateway/internal/retry"
)

// BlobFetcher reads the content of one blob.
type BlobFetcher func(ctx context.Context, sha string) ([]byte, error)

// Importer performs imports that need network access.
type Importer struct {
	caller *retry.Caller
}

// New creates an Importer that wraps every blob read in caller.
func New(caller *retry.Caller) *Importer {
	return &Importer{caller: caller}
}

// FromRepoTree builds a bundle from a repository root listing. Recognized
// files are fetched concurrently; the first failure cancels the rest and is
// returned. A partial bundle is never returned.
func (i *Importer) FromRepoTree(ctx context.Context, entries []github.TreeEntry, fetch BlobFetcher) (Bundle, error) {
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	files := make(map[string]string, 4)

	for _, entry := range entries {
		if !Recognized(entry.Name) {
			continue
		}
		if entry.Type != "" && entry.Type != "file" {
			continue
		}
		g.Go(func() error {
			data, err := retry.Do(gctx, i.caller, "read blob", func(ctx context.Context) ([]byte, error) {
				return fetch(ctx, entry.SHA)
			})
			if err != nil {
				return fmt.Errorf("fetching %s: %w", entry.Name, err)
			}
			mu.Lock()
			files[entry.Name] = string(data)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Bundle{}, err
	}
	return assemble(files), nil
}
