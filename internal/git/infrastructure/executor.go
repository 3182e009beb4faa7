// Package infrastructure implements the git ports by shelling out to the
// git binary.
package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/zjrosen/mob/internal/git/application"
	domain "github.com/zjrosen/mob/internal/git/domain"
	"github.com/zjrosen/mob/internal/log"
)

// DefaultTimeout bounds a single git command.
const DefaultTimeout = 60 * time.Second

// Executor runs git commands against one repository.
type Executor struct {
	root    string
	timeout time.Duration
}

// Ensure Executor implements application.GitExecutor.
var _ application.GitExecutor = (*Executor)(nil)

// NewExecutor creates an executor for the work tree at root.
// A non-positive timeout selects DefaultTimeout.
func NewExecutor(root string, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{root: root, timeout: timeout}
}

// Factory returns an application.ExecutorFactory producing executors with timeout.
func Factory(timeout time.Duration) application.ExecutorFactory {
	return func(repo domain.Repository) application.GitExecutor {
		return NewExecutor(repo.Root, timeout)
	}
}

// runGit executes git in dir and returns trimmed combined output and the exit code.
// A non-zero exit is reported both through code and err.
func runGit(ctx context.Context, dir string, timeout time.Duration, args ...string) (string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")

	start := time.Now()
	out, err := cmd.CombinedOutput()
	output := strings.TrimRight(string(out), " \t\r\n")
	log.Debug(log.CatGit, "git command", "dir", dir, "args", strings.Join(args, " "), "duration", time.Since(start))

	if err == nil {
		return output, 0, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return output, -1, fmt.Errorf("git %s: %w", strings.Join(args, " "), domain.ErrGitTimeout)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return output, -1, domain.ErrGitNotInstalled
	}
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return output, code, fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), output, err)
}

func (e *Executor) run(ctx context.Context, args ...string) (string, error) {
	out, _, err := runGit(ctx, e.root, e.timeout, args...)
	return out, err
}

// refExists reports whether a fully qualified ref exists.
func (e *Executor) refExists(ctx context.Context, ref string) (bool, error) {
	_, code, err := runGit(ctx, e.root, e.timeout, "show-ref", "--verify", "--quiet", ref)
	switch {
	case err == nil:
		return true, nil
	case code == 1:
		return false, nil
	default:
		return false, err
	}
}

func (e *Executor) CurrentBranch(ctx context.Context) (string, error) {
	out, code, err := runGit(ctx, e.root, e.timeout, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		if code == 1 {
			return "", domain.ErrDetachedHead
		}
		return "", err
	}
	return out, nil
}

func (e *Executor) LocalBranchExists(ctx context.Context, name string) (bool, error) {
	return e.refExists(ctx, "refs/heads/"+name)
}

func (e *Executor) RemoteBranchExists(ctx context.Context, remote, name string) (bool, error) {
	return e.refExists(ctx, "refs/remotes/"+remote+"/"+name)
}

func (e *Executor) Upstream(ctx context.Context, branch string) (string, error) {
	return e.run(ctx, "for-each-ref", "--format=%(upstream:short)", "refs/heads/"+branch)
}

func (e *Executor) ListBranches(ctx context.Context) ([]domain.BranchInfo, error) {
	out, err := e.run(ctx, "branch", "--format=%(refname:short)|%(HEAD)|%(upstream:short)|%(upstream:track)")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	var branches []domain.BranchInfo
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(line, "|", 4)
		if len(parts) < 4 {
			continue
		}
		branches = append(branches, domain.BranchInfo{
			Name:         strings.TrimSpace(parts[0]),
			IsCurrent:    strings.TrimSpace(parts[1]) == "*",
			Upstream:     strings.TrimSpace(parts[2]),
			UpstreamGone: strings.TrimSpace(parts[3]) == "[gone]",
		})
	}
	return branches, nil
}

func (e *Executor) Remotes(ctx context.Context) ([]string, error) {
	out, err := e.run(ctx, "remote")
	if err != nil {
		return nil, err
	}
	return strings.Fields(out), nil
}

// HasUncommittedChanges ignores untracked files; they survive checkouts.
func (e *Executor) HasUncommittedChanges(ctx context.Context) (bool, error) {
	out, err := e.run(ctx, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

func (e *Executor) ValidateBranchName(ctx context.Context, name string) error {
	if _, err := e.run(ctx, "check-ref-format", "--branch", name); err != nil {
		if errors.Is(err, domain.ErrGitTimeout) || errors.Is(err, domain.ErrGitNotInstalled) {
			return err
		}
		return fmt.Errorf("%q: %w", name, domain.ErrInvalidBranchName)
	}
	return nil
}

func (e *Executor) Fetch(ctx context.Context, remote string) error {
	_, err := e.run(ctx, "fetch", "--prune", remote)
	return err
}

func (e *Executor) Pull(ctx context.Context) error {
	_, err := e.run(ctx, "pull", "--ff-only")
	return err
}

// Checkout switches to branch. A branch that only exists on a remote is
// created locally with tracking set up (git's DWIM behavior).
func (e *Executor) Checkout(ctx context.Context, branch string) error {
	_, err := e.run(ctx, "checkout", branch)
	return err
}

func (e *Executor) CreateBranch(ctx context.Context, branch string) error {
	_, err := e.run(ctx, "branch", branch)
	return err
}

func (e *Executor) DeleteBranch(ctx context.Context, branch string) error {
	_, err := e.run(ctx, "branch", "-D", branch)
	return err
}

func (e *Executor) MergeFastForward(ctx context.Context, remote, branch string) error {
	_, err := e.run(ctx, "merge", "--ff-only", remote+"/"+branch)
	return err
}

func (e *Executor) Push(ctx context.Context, remote, branch string) error {
	_, err := e.run(ctx, "push", "--set-upstream", remote, branch)
	return err
}

func (e *Executor) SetUpstream(ctx context.Context, remote, branch string) error {
	_, err := e.run(ctx, "branch", "--set-upstream-to="+remote+"/"+branch, branch)
	return err
}
