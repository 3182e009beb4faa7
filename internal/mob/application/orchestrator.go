package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	gitapp "github.com/zjrosen/mob/internal/git/application"
	gitdomain "github.com/zjrosen/mob/internal/git/domain"
	"github.com/zjrosen/mob/internal/log"
	"github.com/zjrosen/mob/internal/mob/domain"
)

// progressStep is the advisory progress increment per state section.
const progressStep = 1.0 / 5

// Result titles handed to the sink.
const (
	// TitleCompleted is the title of a completed run.
	TitleCompleted = "Mob session started"
	// TitleAborted is the title of an aborted run.
	TitleAborted = "Mob session start failed"
)

// StartRequest asks for one session start in Dir.
type StartRequest struct {
	Dir      string
	Settings domain.Settings
}

// Orchestrator runs session starts. It holds no per-run state and may be
// reused; concurrent runs against the same repository are not guarded.
type Orchestrator struct {
	resolver   gitapp.RepositoryResolver
	executors  gitapp.ExecutorFactory
	timer      Timer
	share      Share
	allowDirty bool
	now        func() time.Time
	newGUID    func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimer sets the timer collaborator. Without one, every run warns.
func WithTimer(t Timer) Option {
	return func(o *Orchestrator) { o.timer = t }
}

// WithShare sets the share collaborator.
func WithShare(s Share) Option {
	return func(o *Orchestrator) { o.share = s }
}

// WithAllowDirty disables the clean working tree precondition.
func WithAllowDirty(allow bool) Option {
	return func(o *Orchestrator) { o.allowDirty = allow }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithGUIDSource overrides run GUID generation.
func WithGUIDSource(fn func() string) Option {
	return func(o *Orchestrator) { o.newGUID = fn }
}

// NewOrchestrator creates an orchestrator resolving repositories with
// resolver and operating on them through executors.
func NewOrchestrator(resolver gitapp.RepositoryResolver, executors gitapp.ExecutorFactory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver:  resolver,
		executors: executors,
		now:       time.Now,
		newGUID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run is the state of one orchestration, threaded through every stage.
type run struct {
	req      StartRequest
	sink     ProgressSink
	log      domain.ExecutionLog
	state    domain.State
	progress float64
	result   *domain.Result
	git      gitapp.GitExecutor
	ops      *Operations
}

func (r *run) advance() {
	r.progress += progressStep
	if r.progress > 1 {
		r.progress = 1
	}
	r.sink.ReportProgress(r.progress)
}

// fail records err as the closing line of the log and returns it.
func (r *run) fail(err error) error {
	r.log.Append("Failed: " + err.Error())
	return err
}

func (r *run) warn(service, reason string) {
	w := &domain.NonFatalServiceWarning{Service: service, Reason: reason}
	log.Warn(log.CatMob, "post action warning", "service", service, "reason", reason, "guid", r.result.GUID)
	r.result.Warnings = append(r.result.Warnings, w)
	r.log.Append("Warning: " + w.Error())
}

// Start runs one session start and reports it to sink. The returned result
// is the same one the sink was told about.
//
// ctx is checked only between states; a git command that has started is
// never interrupted.
func (o *Orchestrator) Start(ctx context.Context, req StartRequest, sink ProgressSink) *domain.Result {
	if sink == nil {
		sink = SinkFuncs{}
	}
	r := &run{
		req:   req,
		sink:  sink,
		state: domain.StateInit,
		result: &domain.Result{
			GUID:      o.newGUID(),
			State:     domain.StateInit,
			StartedAt: o.now(),
		},
	}

	ctx, span := tracer.Start(ctx, "mob.start", trace.WithAttributes(
		attribute.String("mob.guid", r.result.GUID),
		attribute.String("mob.dir", req.Dir),
	))
	defer span.End()

	log.Info(log.CatMob, "starting mob session", "guid", r.result.GUID, "dir", req.Dir,
		"wip", req.Settings.WipBranch, "base", req.Settings.BaseBranch, "remote", req.Settings.RemoteName)

	err := o.execute(ctx, r)

	r.result.Messages = r.log.Entries()
	r.result.FinishedAt = o.now()
	title := TitleCompleted
	if err != nil {
		r.result.State = domain.StateAborted
		r.result.Err = err
		title = TitleAborted
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn(log.CatMob, "mob session start aborted", "guid", r.result.GUID, "state", r.state, "error", err)
	} else {
		r.result.State = domain.StateCompleted
		log.Info(log.CatMob, "mob session started", "guid", r.result.GUID, "scenario", r.result.Scenario, "duration", r.result.Duration())
	}
	span.SetAttributes(
		attribute.String("mob.scenario", r.result.Scenario.String()),
		attribute.String("mob.state", string(r.result.State)),
	)

	sink.ReportResult(r.result.Completed(), title, r.result.Messages)
	return r.result
}

func (o *Orchestrator) execute(ctx context.Context, r *run) error {
	if err := o.stage(ctx, r, domain.StatePreconditionCheck, func(ctx context.Context) error {
		return o.preconditions(ctx, r)
	}); err != nil {
		return err
	}
	r.advance()

	gitCtx := func(ctx context.Context) context.Context { return context.WithoutCancel(ctx) }

	if err := o.stage(ctx, r, domain.StateFetching, func(ctx context.Context) error {
		return r.perform(gitCtx(ctx), step{"fetch", []string{r.req.Settings.RemoteName}, func(ctx context.Context) domain.Outcome {
			return r.ops.Fetch(ctx, r.req.Settings.RemoteName)
		}})
	}); err != nil {
		return err
	}
	r.advance()

	if err := o.stage(ctx, r, domain.StatePulling, func(ctx context.Context) error {
		return r.perform(gitCtx(ctx), step{"pull", nil, r.ops.Pull})
	}); err != nil {
		return err
	}
	r.advance()

	if err := o.stage(ctx, r, domain.StateScenarioExecution, func(ctx context.Context) error {
		return o.scenario(gitCtx(ctx), r)
	}); err != nil {
		return err
	}
	r.advance()

	if err := o.stage(ctx, r, domain.StatePostActions, func(ctx context.Context) error {
		o.postActions(ctx, r)
		return nil
	}); err != nil {
		return err
	}
	r.progress = 1
	r.sink.ReportProgress(1)
	return nil
}

// stage enters state, unless ctx was cancelled, and runs fn inside a span.
func (o *Orchestrator) stage(ctx context.Context, r *run, state domain.State, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return r.fail(fmt.Errorf("cancelled before %s: %w", state, err))
	}
	log.Debug(log.CatMob, "state transition", "guid", r.result.GUID, "from", r.state, "to", state)
	r.state = state
	r.result.State = state

	ctx, span := tracer.Start(ctx, "mob."+string(state))
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// perform runs one step, logging its outcome. A failed outcome becomes a
// *GitOperationError; its message is already the last log line.
func (r *run) perform(ctx context.Context, s step) error {
	out := s.run(ctx)
	r.log.Append(out.Message)
	if !out.Success {
		return &domain.GitOperationError{Operation: s.String(), Diagnostic: out.Message}
	}
	return nil
}

func (o *Orchestrator) preconditions(ctx context.Context, r *run) error {
	repo, err := o.resolve(ctx, r.req.Dir)
	if err != nil {
		return r.fail(err)
	}
	r.result.Project = repo.Root

	if err := r.req.Settings.ValidateForStart(); err != nil {
		return r.fail(err)
	}

	r.git = o.executors(repo)
	r.ops = NewOperations(r.git)
	if err := o.checkRepository(ctx, r.git, repo, r.req.Settings); err != nil {
		return r.fail(err)
	}
	return nil
}

func (o *Orchestrator) resolve(ctx context.Context, dir string) (gitdomain.Repository, error) {
	repo, err := o.resolver.Resolve(ctx, dir)
	if err != nil {
		var lookupErr *gitdomain.LookupError
		if errors.As(err, &lookupErr) {
			return gitdomain.Repository{}, &domain.NoRepositoryError{Path: lookupErr.Path, Candidates: lookupErr.Candidates}
		}
		return gitdomain.Repository{}, fmt.Errorf("resolving repository: %w", err)
	}
	return repo, nil
}

// checkRepository rejects repositories that cannot host a session start.
func (o *Orchestrator) checkRepository(ctx context.Context, git gitapp.BranchReader, repo gitdomain.Repository, s domain.Settings) error {
	if _, err := git.CurrentBranch(ctx); err != nil {
		if errors.Is(err, gitdomain.ErrDetachedHead) {
			return &domain.InvalidRepositoryStateError{Reason: "HEAD is detached; check out a branch first", Err: err}
		}
		return &domain.InvalidRepositoryStateError{Reason: "cannot read current branch", Err: err}
	}
	if !repo.HasRemote(s.RemoteName) {
		return &domain.InvalidRepositoryStateError{
			Reason: fmt.Sprintf("remote %q is not configured", s.RemoteName),
			Err:    gitdomain.ErrRemoteNotFound,
		}
	}
	for _, name := range []string{s.WipBranch, s.BaseBranch} {
		if err := git.ValidateBranchName(ctx, name); err != nil {
			return &domain.InvalidRepositoryStateError{Reason: fmt.Sprintf("branch name %q is not valid", name), Err: err}
		}
	}
	if !o.allowDirty {
		dirty, err := git.HasUncommittedChanges(ctx)
		if err != nil {
			return &domain.InvalidRepositoryStateError{Reason: "cannot read working tree status", Err: err}
		}
		if dirty {
			return &domain.InvalidRepositoryStateError{
				Reason: "working tree has uncommitted changes",
				Err:    gitdomain.ErrUncommittedChanges,
			}
		}
	}
	return nil
}

func (o *Orchestrator) scenario(ctx context.Context, r *run) error {
	topo, err := Inspect(ctx, r.git, r.req.Settings)
	if err != nil {
		return r.fail(err)
	}
	sc := domain.Classify(topo)
	r.result.Scenario = sc
	log.Info(log.CatMob, "classified session", "guid", r.result.GUID, "scenario", sc,
		"local_wip", topo.HasLocalWip, "remote_wip", topo.HasRemoteWip, "mob_programming", topo.IsMobProgramming)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("mob.scenario", sc.String()))

	r.log.Append(announcement(r.req.Settings, sc, topo))
	for _, s := range scenarioSteps(r.ops, r.req.Settings, sc, topo) {
		if err := r.perform(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// postActions never fails the run; problems become warnings.
func (o *Orchestrator) postActions(ctx context.Context, r *run) {
	s := r.req.Settings

	switch {
	case o.timer == nil:
		r.warn("timer", "timer service unavailable")
	case o.timer.IsRunning():
		r.warn("timer", "timer is already running")
	default:
		if err := o.timer.Start(s.TimerMinutes, s.TimerSound); err != nil {
			r.warn("timer", err.Error())
		} else {
			r.log.Append(fmt.Sprintf("Started %d minute timer", s.TimerMinutes))
		}
	}

	if s.StartWithShare {
		switch {
		case o.share == nil:
			r.warn("share", "no share command configured")
		default:
			if err := o.share.Trigger(ctx); err != nil {
				r.warn("share", err.Error())
			} else {
				r.log.Append("Started screen share")
			}
		}
	}

	r.log.Append(StatusLine(context.WithoutCancel(ctx), r.git, s))
}
