// Package repository manages the on-disk git repositories that back
// projects. Repositories are bare and live under a root directory at
// <root>/<project full path>.git.
package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/forge-provisioner/internal/model"
)

// ErrBranchExists is returned by WriteFile when the target branch already
// has commits. Seeding never rewrites history.
var ErrBranchExists = errors.New("branch already exists")

// FileWrite describes a single-file commit.
type FileWrite struct {
	Path    string
	Content string
	Message string
	Branch  string
}

// Service is the repository storage the provisioner calls after a project
// row exists.
type Service interface {
	CreateRepository(ctx context.Context, p *model.Project) error
	WriteFile(ctx context.Context, p *model.Project, author *model.User, f FileWrite) error
}

// GitService implements Service with the git command line.
type GitService struct {
	Root   string
	Binary string
}

var _ Service = (*GitService)(nil)

func NewGitService(root, binary string) *GitService {
	if binary == "" {
		binary = "git"
	}
	return &GitService{Root: root, Binary: binary}
}

// Dir is where the bare repository for p lives.
func (g *GitService) Dir(p *model.Project) string {
	return filepath.Join(g.Root, filepath.FromSlash(p.FullPath)+".git")
}

// CreateRepository initializes a bare repository for p unless one already
// exists.
func (g *GitService) CreateRepository(ctx context.Context, p *model.Project) error {
	dir := g.Dir(p)
	if _, err := os.Stat(filepath.Join(dir, "HEAD")); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return fmt.Errorf("failed to create repository parent: %w", err)
	}

	branch := p.DefaultBranch
	if branch == "" {
		branch = "main"
	}
	if _, err := g.run(ctx, "", nil, nil, "init", "--bare", "--quiet", dir); err != nil {
		return err
	}
	// Point HEAD at the default branch; works on git versions without
	// --initial-branch.
	if _, err := g.run(ctx, dir, nil, nil, "symbolic-ref", "HEAD", "refs/heads/"+branch); err != nil {
		return err
	}
	return nil
}

// WriteFile commits a single file as the root commit of f.Branch. The branch
// must not exist yet.
func (g *GitService) WriteFile(ctx context.Context, p *model.Project, author *model.User, f FileWrite) error {
	dir := g.Dir(p)
	ref := "refs/heads/" + f.Branch

	if _, err := g.run(ctx, dir, nil, nil, "rev-parse", "--verify", "--quiet", ref); err == nil {
		return fmt.Errorf("%s: %w", f.Branch, ErrBranchExists)
	}

	blob, err := g.run(ctx, dir, nil, strings.NewReader(f.Content), "hash-object", "-w", "--stdin")
	if err != nil {
		return err
	}
	entry := fmt.Sprintf("100644 blob %s\t%s\n", blob, f.Path)
	tree, err := g.run(ctx, dir, nil, strings.NewReader(entry), "mktree")
	if err != nil {
		return err
	}

	env := []string{
		"GIT_AUTHOR_NAME=" + author.Name,
		"GIT_AUTHOR_EMAIL=" + author.Email,
		"GIT_COMMITTER_NAME=" + author.Name,
		"GIT_COMMITTER_EMAIL=" + author.Email,
	}
	commit, err := g.run(ctx, dir, env, nil, "commit-tree", tree, "-m", f.Message)
	if err != nil {
		return err
	}

	// The empty old value makes update-ref fail if someone created the
	// branch in the meantime.
	if _, err := g.run(ctx, dir, nil, nil, "update-ref", ref, commit, ""); err != nil {
		return err
	}
	return nil
}

// Check verifies the git binary can be executed.
func (g *GitService) Check(ctx context.Context) (string, error) {
	return g.run(ctx, "", nil, nil, "--version")
}

func (g *GitService) run(ctx context.Context, dir string, env []string, stdin *strings.Reader, args ...string) (string, error) {
	if dir != "" {
		args = append([]string{"--git-dir", dir}, args...)
	}
	cmd := exec.CommandContext(ctx, g.Binary, args...)
	cmd.Env = append(cmd.Environ(), env...)
	if stdin != nil {
		cmd.Stdin = stdin
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s failed: %w\n%s", strings.Join(args, " "), err, stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}
