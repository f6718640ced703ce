package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestSourceStamp_NotARepository(t *testing.T) {
	stamp, err := SourceStamp(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stamp != nil {
		t.Fatalf("expected nil stamp, got %+v", stamp)
	}
}

func TestSourceStamp_Commit(t *testing.T) {
	repoPath := t.TempDir()
	repo, err := git.PlainInit(repoPath, false)
	if err != nil {
		t.Fatalf("Failed to init repo: %v", err)
	}

	stamp, err := SourceStamp(repoPath)
	if err != nil || stamp != nil {
		t.Fatalf("expected no stamp before first commit, got %+v, %v", stamp, err)
	}

	content := filepath.Join(repoPath, "chapters", "intro.md")
	if mkErr := os.MkdirAll(filepath.Dir(content), 0o750); mkErr != nil {
		t.Fatalf("mkdir: %v", mkErr)
	}
	if writeErr := os.WriteFile(content, []byte("# Intro\n"), 0o600); writeErr != nil {
		t.Fatalf("write: %v", writeErr)
	}
	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if _, addErr := w.Add("chapters/intro.md"); addErr != nil {
		t.Fatalf("add: %v", addErr)
	}
	hash, err := w.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	stamp, err = SourceStamp(filepath.Join(repoPath, "chapters"))
	if err != nil {
		t.Fatalf("SourceStamp: %v", err)
	}
	if stamp == nil || stamp.Commit != hash.String() {
		t.Fatalf("expected commit %s, got %+v", hash, stamp)
	}
	if stamp.Dirty {
		t.Fatalf("expected clean worktree")
	}

	if writeErr := os.WriteFile(content, []byte("# Changed\n"), 0o600); writeErr != nil {
		t.Fatalf("write: %v", writeErr)
	}
	stamp, err = SourceStamp(repoPath)
	if err != nil {
		t.Fatalf("SourceStamp: %v", err)
	}
	if !stamp.Dirty {
		t.Fatalf("expected dirty worktree")
	}
}
