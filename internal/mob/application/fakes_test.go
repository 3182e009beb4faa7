package application

import (
	"context"
	"errors"
	"slices"
	"strings"

	gitapp "github.com/zjrosen/mob/internal/git/application"
	gitdomain "github.com/zjrosen/mob/internal/git/domain"
)

// fakeGit is an in-memory repository. Mutations update its state the way
// git would, so consecutive runs see each other's effects.
type fakeGit struct {
	current   string
	detached  bool
	local     map[string]bool
	remote    map[string]bool // "origin/name"
	upstreams map[string]string
	dirty     bool
	invalid   map[string]bool

	failOn map[string]error // keyed by step notation, e.g. "push(origin,mob-session)"
	onCall func(call string)
	calls  []string
}

var _ gitapp.GitExecutor = (*fakeGit)(nil)

func newFakeGit() *fakeGit {
	return &fakeGit{
		current:   "main",
		local:     map[string]bool{"main": true},
		remote:    map[string]bool{"origin/main": true},
		upstreams: map[string]string{"main": "origin/main"},
		invalid:   map[string]bool{},
		failOn:    map[string]error{},
	}
}

func (f *fakeGit) record(op string, args ...string) error {
	call := op + "(" + strings.Join(args, ",") + ")"
	f.calls = append(f.calls, call)
	if f.onCall != nil {
		f.onCall(call)
	}
	return f.failOn[call]
}

// scenarioCalls drops the fetch and pull calls every run makes.
func (f *fakeGit) scenarioCalls() []string {
	var out []string
	for _, c := range f.calls {
		if c == "fetch(origin)" || c == "pull()" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (f *fakeGit) CurrentBranch(context.Context) (string, error) {
	if f.detached {
		return "", gitdomain.ErrDetachedHead
	}
	return f.current, nil
}

func (f *fakeGit) LocalBranchExists(_ context.Context, name string) (bool, error) {
	return f.local[name], nil
}

func (f *fakeGit) RemoteBranchExists(_ context.Context, remote, name string) (bool, error) {
	return f.remote[remote+"/"+name], nil
}

func (f *fakeGit) Upstream(_ context.Context, branch string) (string, error) {
	return f.upstreams[branch], nil
}

func (f *fakeGit) ListBranches(context.Context) ([]gitdomain.BranchInfo, error) {
	var out []gitdomain.BranchInfo
	for name := range f.local {
		upstream := f.upstreams[name]
		out = append(out, gitdomain.BranchInfo{
			Name:         name,
			IsCurrent:    name == f.current,
			Upstream:     upstream,
			UpstreamGone: upstream != "" && !f.remote[upstream],
		})
	}
	slices.SortFunc(out, func(a, b gitdomain.BranchInfo) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (f *fakeGit) Remotes(context.Context) ([]string, error) {
	return []string{"origin"}, nil
}

func (f *fakeGit) HasUncommittedChanges(context.Context) (bool, error) {
	return f.dirty, nil
}

func (f *fakeGit) ValidateBranchName(_ context.Context, name string) error {
	if f.invalid[name] {
		return gitdomain.ErrInvalidBranchName
	}
	return nil
}

func (f *fakeGit) Fetch(_ context.Context, remote string) error {
	return f.record("fetch", remote)
}

func (f *fakeGit) Pull(context.Context) error {
	return f.record("pull")
}

func (f *fakeGit) Checkout(_ context.Context, branch string) error {
	if err := f.record("checkout", branch); err != nil {
		return err
	}
	if !f.local[branch] {
		if !f.remote["origin/"+branch] {
			return errors.New("pathspec '" + branch + "' did not match any file(s) known to git")
		}
		f.local[branch] = true
		f.upstreams[branch] = "origin/" + branch
	}
	f.current = branch
	f.detached = false
	return nil
}

func (f *fakeGit) CreateBranch(_ context.Context, branch string) error {
	if err := f.record("createBranch", branch); err != nil {
		return err
	}
	if f.local[branch] {
		return errors.New("a branch named '" + branch + "' already exists")
	}
	f.local[branch] = true
	return nil
}

func (f *fakeGit) DeleteBranch(_ context.Context, branch string) error {
	if err := f.record("deleteBranch", branch); err != nil {
		return err
	}
	if branch == f.current {
		return errors.New("cannot delete branch '" + branch + "' checked out")
	}
	delete(f.local, branch)
	delete(f.upstreams, branch)
	return nil
}

func (f *fakeGit) MergeFastForward(_ context.Context, remote, branch string) error {
	return f.record("mergeFastForward", remote, branch)
}

func (f *fakeGit) Push(_ context.Context, remote, branch string) error {
	if err := f.record("push", remote, branch); err != nil {
		return err
	}
	f.remote[remote+"/"+branch] = true
	f.upstreams[branch] = remote + "/" + branch
	return nil
}

func (f *fakeGit) SetUpstream(_ context.Context, remote, branch string) error {
	if err := f.record("setUpstream", remote, branch); err != nil {
		return err
	}
	f.upstreams[branch] = remote + "/" + branch
	return nil
}

// fakeResolver returns a fixed repository or error.
type fakeResolver struct {
	repo  gitdomain.Repository
	err   error
	calls int
}

func (r *fakeResolver) Resolve(context.Context, string) (gitdomain.Repository, error) {
	r.calls++
	return r.repo, r.err
}

type timerStart struct {
	minutes int
	sound   bool
}

type fakeTimer struct {
	running  bool
	startErr error
	starts   []timerStart
}

func (t *fakeTimer) IsRunning() bool { return t.running }

func (t *fakeTimer) Start(minutes int, sound bool) error {
	if t.startErr != nil {
		return t.startErr
	}
	t.starts = append(t.starts, timerStart{minutes, sound})
	t.running = true
	return nil
}

type fakeShare struct {
	err       error
	triggered int
}

func (s *fakeShare) Trigger(context.Context) error {
	if s.err != nil {
		return s.err
	}
	s.triggered++
	return nil
}

type reportedResult struct {
	success  bool
	title    string
	messages []string
}

type recordingSink struct {
	progress []float64
	results  []reportedResult
}

func (s *recordingSink) ReportProgress(fraction float64) {
	s.progress = append(s.progress, fraction)
}

func (s *recordingSink) ReportResult(success bool, title string, messages []string) {
	s.results = append(s.results, reportedResult{success, title, messages})
}
