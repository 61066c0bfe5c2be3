package repository

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/blackwell-systems/forge-provisioner/internal/model"
)

func newTestService(t *testing.T) *GitService {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	return NewGitService(t.TempDir(), "")
}

func TestCreateRepositoryIsIdempotent(t *testing.T) {
	g := newTestService(t)
	ctx := context.Background()
	p := &model.Project{FullPath: "platform/demo", DefaultBranch: "trunk"}

	if err := g.CreateRepository(ctx, p); err != nil {
		t.Fatalf("CreateRepository: %v", err)
	}
	if err := g.CreateRepository(ctx, p); err != nil {
		t.Fatalf("second CreateRepository: %v", err)
	}

	head, err := os.ReadFile(filepath.Join(g.Root, "platform", "demo.git", "HEAD"))
	if err != nil {
		t.Fatalf("read HEAD: %v", err)
	}
	if string(head) != "ref: refs/heads/trunk\n" {
		t.Errorf("HEAD = %q", head)
	}
}

func TestWriteFile(t *testing.T) {
	g := newTestService(t)
	ctx := context.Background()
	p := &model.Project{FullPath: "alice/notes", DefaultBranch: "main"}
	author := &model.User{Name: "Administrator", Email: "admin@example.com"}

	if err := g.CreateRepository(ctx, p); err != nil {
		t.Fatalf("CreateRepository: %v", err)
	}

	f := FileWrite{Path: "README.md", Content: "# notes\n\nscratch", Message: "Add README", Branch: "main"}
	if err := g.WriteFile(ctx, p, author, f); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	content, err := g.run(ctx, g.Dir(p), nil, nil, "show", "main:README.md")
	if err != nil {
		t.Fatalf("git show: %v", err)
	}
	if content != "# notes\n\nscratch" {
		t.Errorf("README content = %q", content)
	}

	subject, err := g.run(ctx, g.Dir(p), nil, nil, "log", "-1", "--format=%s %ae", "main")
	if err != nil {
		t.Fatalf("git log: %v", err)
	}
	if subject != "Add README admin@example.com" {
		t.Errorf("commit = %q", subject)
	}

	if err := g.WriteFile(ctx, p, author, f); !errors.Is(err, ErrBranchExists) {
		t.Errorf("second WriteFile error = %v, want ErrBranchExists", err)
	}
}

func TestWriteFileWithoutRepository(t *testing.T) {
	g := newTestService(t)
	p := &model.Project{FullPath: "ghost/repo", DefaultBranch: "main"}
	err := g.WriteFile(context.Background(), p, &model.User{Name: "a", Email: "a@example.com"}, FileWrite{
		Path: "README.md", Content: "x", Message: "Add README", Branch: "main",
	})
	if err == nil {
		t.Fatal("WriteFile into a missing repository should fail")
	}
}

func TestCheck(t *testing.T) {
	g := newTestService(t)
	if _, err := g.Check(context.Background()); err != nil {
		t.Errorf("Check: %v", err)
	}

	missing := NewGitService(t.TempDir(), "definitely-not-git-binary")
	if _, err := missing.Check(context.Background()); err == nil {
		t.Error("Check with a missing binary should fail")
	}
}
