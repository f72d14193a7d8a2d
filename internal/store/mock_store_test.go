// ABOUTME: Tests for MockStore
// ABOUTME: Ensures the in-memory store matches SQLiteStore semantics used by other packages

package store

import (
	"context"
	"errors"
	"testing"
)

func TestMockStore_ProjectsAreCopied(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	p := testProject("k1", "u1")
	p.EnabledLibraries = []string{"jquery"}
	p.Repo = &RepoRef{Owner: "o", Name: "n"}
	if err := m.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	p.EnabledLibraries[0] = "mutated"
	p.Repo.Name = "mutated"

	got, err := m.GetProject(ctx, "k1")
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.EnabledLibraries[0] != "jquery" || got.Repo.Name != "n" {
		t.Errorf("stored project was modified through caller's pointer: %+v", got)
	}
}

func TestMockStore_FindProjectByRepoNewest(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()
	repo := RepoRef{Owner: "o", Name: "n"}

	for _, key := range []string{"old", "new"} {
		p := testProject(key, "u1")
		p.Repo = &repo
		if err := m.CreateProject(ctx, p); err != nil {
			t.Fatalf("CreateProject failed: %v", err)
		}
	}

	got, err := m.FindProjectByRepo(ctx, "u1", repo)
	if err != nil {
		t.Fatalf("FindProjectByRepo failed: %v", err)
	}
	if got.Key != "new" {
		t.Errorf("expected newest project, got %s", got.Key)
	}

	list, _ := m.ListProjects(ctx, "u1")
	if len(list) != 2 || list[0].Key != "new" {
		t.Errorf("expected newest first, got %v", list)
	}
}

func TestMockStore_CreateErr(t *testing.T) {
	m := NewMockStore()
	m.CreateErr = errors.New("disk full")

	err := m.CreateProject(context.Background(), testProject("k", "u"))
	if err == nil || err.Error() != "disk full" {
		t.Errorf("expected injected error, got %v", err)
	}
}

func TestMockStore_Credentials(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	if _, err := m.GetCredential(ctx, "u", ProviderGitHub); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := m.SaveCredential(ctx, &Credential{UserID: "u", Provider: ProviderGitHub, AccessToken: "t"}); err != nil {
		t.Fatalf("SaveCredential failed: %v", err)
	}
	got, err := m.GetCredential(ctx, "u", ProviderGitHub)
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if got.AccessToken != "t" {
		t.Errorf("AccessToken: got %q", got.AccessToken)
	}
}
