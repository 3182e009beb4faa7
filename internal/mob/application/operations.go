package application

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	gitapp "github.com/zjrosen/mob/internal/git/application"
	gitdomain "github.com/zjrosen/mob/internal/git/domain"
	"github.com/zjrosen/mob/internal/log"
	"github.com/zjrosen/mob/internal/mob/domain"
)

var tracer = otel.Tracer("github.com/zjrosen/mob/internal/mob")

// Operations adapts a GitExecutor to outcome-returning operations. No
// method returns an error or panics; every failure becomes a failed
// Outcome carrying git's diagnostic.
type Operations struct {
	git gitapp.GitExecutor
}

// NewOperations wraps git.
func NewOperations(git gitapp.GitExecutor) *Operations {
	return &Operations{git: git}
}

// Fetch fetches and prunes remote.
func (o *Operations) Fetch(ctx context.Context, remote string) domain.Outcome {
	return o.do(ctx, "fetch", []string{remote},
		"Fetched "+remote,
		"Failed to fetch "+remote,
		func(ctx context.Context) error { return o.git.Fetch(ctx, remote) })
}

// Pull fast-forwards the current branch. A branch without upstream, or
// whose upstream was deleted on the remote and pruned, has nothing to pull
// from and is reported as skipped.
func (o *Operations) Pull(ctx context.Context) domain.Outcome {
	branch, err := o.git.CurrentBranch(ctx)
	if err != nil {
		return domain.Failed("Failed to pull: " + diagnostic(err))
	}
	branches, err := o.git.ListBranches(ctx)
	if err != nil {
		return domain.Failed("Failed to pull " + branch + ": " + diagnostic(err))
	}
	var info gitdomain.BranchInfo
	if i := slices.IndexFunc(branches, func(b gitdomain.BranchInfo) bool { return b.Name == branch }); i >= 0 {
		info = branches[i]
	}
	switch {
	case info.Upstream == "":
		log.Debug(log.CatGit, "skipping pull without upstream", "branch", branch)
		return domain.Succeeded("Skipped pull: " + branch + " has no upstream")
	case info.UpstreamGone:
		log.Info(log.CatGit, "skipping pull from deleted upstream", "branch", branch, "upstream", info.Upstream)
		return domain.Succeeded("Skipped pull: upstream " + info.Upstream + " of " + branch + " is gone")
	}
	return o.do(ctx, "pull", nil,
		"Pulled "+branch+" from "+info.Upstream,
		"Failed to pull "+branch,
		o.git.Pull)
}

// CheckoutBranch switches to name, creating a tracking branch when only
// the remote one exists.
func (o *Operations) CheckoutBranch(ctx context.Context, name string) domain.Outcome {
	return o.do(ctx, "checkout", []string{name},
		"Checked out "+name,
		"Failed to check out "+name,
		func(ctx context.Context) error { return o.git.Checkout(ctx, name) })
}

// CreateBranch creates name at HEAD without switching to it.
func (o *Operations) CreateBranch(ctx context.Context, name string) domain.Outcome {
	return o.do(ctx, "createBranch", []string{name},
		"Created branch "+name,
		"Failed to create branch "+name,
		func(ctx context.Context) error { return o.git.CreateBranch(ctx, name) })
}

// DeleteBranch force-deletes the local branch name.
func (o *Operations) DeleteBranch(ctx context.Context, name string) domain.Outcome {
	return o.do(ctx, "deleteBranch", []string{name},
		"Deleted branch "+name,
		"Failed to delete branch "+name,
		func(ctx context.Context) error { return o.git.DeleteBranch(ctx, name) })
}

// MergeFastForward fast-forwards HEAD to remote/branch, failing if a merge
// commit would be needed.
func (o *Operations) MergeFastForward(ctx context.Context, remote, branch string) domain.Outcome {
	ref := domain.RemoteRef(remote, branch)
	return o.do(ctx, "mergeFastForward", []string{remote, branch},
		"Fast-forwarded to "+ref,
		"Failed to fast-forward to "+ref,
		func(ctx context.Context) error { return o.git.MergeFastForward(ctx, remote, branch) })
}

// Push pushes branch to remote and tracks it.
func (o *Operations) Push(ctx context.Context, remote, branch string) domain.Outcome {
	return o.do(ctx, "push", []string{remote, branch},
		"Pushed "+branch+" to "+remote,
		"Failed to push "+branch+" to "+remote,
		func(ctx context.Context) error { return o.git.Push(ctx, remote, branch) })
}

// SetUpstream makes branch track remote/branch.
func (o *Operations) SetUpstream(ctx context.Context, remote, branch string) domain.Outcome {
	ref := domain.RemoteRef(remote, branch)
	return o.do(ctx, "setUpstream", []string{remote, branch},
		"Set upstream of "+branch+" to "+ref,
		"Failed to set upstream of "+branch+" to "+ref,
		func(ctx context.Context) error { return o.git.SetUpstream(ctx, remote, branch) })
}

func (o *Operations) do(ctx context.Context, op string, args []string, success, failure string, fn func(context.Context) error) (out domain.Outcome) {
	ctx, span := tracer.Start(ctx, "git."+op, trace.WithAttributes(
		attribute.String("git.operation", op),
		attribute.StringSlice("git.args", args),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			log.Error(log.CatGit, "git operation panicked", "op", op, "panic", r)
			span.SetStatus(codes.Error, "panic")
			out = domain.Failed(fmt.Sprintf("%s: %v", failure, r))
		}
	}()

	if err := fn(ctx); err != nil {
		log.Warn(log.CatGit, "git operation failed", "op", op, "args", strings.Join(args, ","), "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Failed(failure + ": " + diagnostic(err))
	}
	log.Info(log.CatGit, "git operation succeeded", "op", op, "args", strings.Join(args, ","))
	return domain.Succeeded(success)
}

// diagnostic flattens a git error to a single line.
func diagnostic(err error) string {
	return strings.Join(strings.Fields(err.Error()), " ")
}
