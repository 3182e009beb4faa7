package application

import (
	"context"
	"fmt"
	"slices"

	gitdomain "github.com/zjrosen/mob/internal/git/domain"
	"github.com/zjrosen/mob/internal/mob/domain"
)

// Plan describes what a start would do, without doing it.
type Plan struct {
	Project      string
	Topology     domain.Topology
	Scenario     domain.Scenario
	Announcement string
	Steps        []string // e.g. "checkout(main)", "push(origin,mob-session)"
}

// Plan runs the preconditions and the inspector against the last fetched
// state and returns the scenario body a start would execute. Nothing is
// fetched or mutated.
func (o *Orchestrator) Plan(ctx context.Context, req StartRequest) (*Plan, error) {
	repo, err := o.resolve(ctx, req.Dir)
	if err != nil {
		return nil, err
	}
	if err := req.Settings.ValidateForStart(); err != nil {
		return nil, err
	}
	git := o.executors(repo)
	if err := o.checkRepository(ctx, git, repo, req.Settings); err != nil {
		return nil, err
	}

	topo, err := Inspect(ctx, git, req.Settings)
	if err != nil {
		return nil, err
	}
	sc := domain.Classify(topo)
	p := &Plan{
		Project:      repo.Root,
		Topology:     topo,
		Scenario:     sc,
		Announcement: announcement(req.Settings, sc, topo),
	}
	for _, s := range scenarioSteps(NewOperations(git), req.Settings, sc, topo) {
		p.Steps = append(p.Steps, s.String())
	}
	return p, nil
}

// Status is a read-only view of the repository's mob state.
type Status struct {
	Project  string
	Topology domain.Topology
	Line     string
	// Branches holds the base and wip branches that exist locally, base first.
	Branches []gitdomain.BranchInfo
}

// Status reports the topology and status line for the repository in dir.
func (o *Orchestrator) Status(ctx context.Context, dir string, s domain.Settings) (*Status, error) {
	repo, err := o.resolve(ctx, dir)
	if err != nil {
		return nil, err
	}
	git := o.executors(repo)
	topo, err := Inspect(ctx, git, s)
	if err != nil {
		return nil, err
	}
	all, err := git.ListBranches(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	var branches []gitdomain.BranchInfo
	for _, name := range []string{s.BaseBranch, s.WipBranch} {
		if i := slices.IndexFunc(all, func(b gitdomain.BranchInfo) bool { return b.Name == name }); i >= 0 {
			branches = append(branches, all[i])
		}
	}
	return &Status{
		Project:  repo.Root,
		Topology: topo,
		Line:     StatusLine(ctx, git, s),
		Branches: branches,
	}, nil
}
